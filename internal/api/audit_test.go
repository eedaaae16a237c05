package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/service-marketplace/service-marketplace/internal/db/models"
)

func TestAuditLogs_RecordsTransitions(t *testing.T) {
	router := newTestServer(t)

	doJSON(t, router, http.MethodPost, "/api/v1/admin/merchants/user-globex/approve", adminBearer(t), nil)
	doJSON(t, router, http.MethodPost, "/api/v1/admin/merchants/user-acme/flag", adminBearer(t), nil)

	w := doJSON(t, router, http.MethodGet, "/api/v1/admin/audit-logs", adminBearer(t), nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, float64(2), body["total"])

	// Newest first: the flag entry precedes the approval.
	entries := body["entries"].([]interface{})
	first := entries[0].(map[string]interface{})
	assert.Equal(t, "merchant.flagged", first["action"])
	assert.Equal(t, "user-admin", first["actor_id"])
	assert.Equal(t, "Platform Admin", first["actor_name"])
}

func TestAuditLogs_ActionFilter(t *testing.T) {
	router := newTestServer(t)

	doJSON(t, router, http.MethodPost, "/api/v1/admin/merchants/user-globex/approve", adminBearer(t), nil)
	doJSON(t, router, http.MethodPost, "/api/v1/admin/merchants/user-acme/flag", adminBearer(t), nil)

	w := doJSON(t, router, http.MethodGet, "/api/v1/admin/audit-logs?action=merchant.approved", adminBearer(t), nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, float64(1), body["total"])
}

func TestAuditLogs_RefusedTransitionRecordsNothing(t *testing.T) {
	router := newTestServer(t)

	// user-acme is already active; approve is refused and must not audit.
	doJSON(t, router, http.MethodPost, "/api/v1/admin/merchants/user-acme/approve", adminBearer(t), nil)

	w := doJSON(t, router, http.MethodGet, "/api/v1/admin/audit-logs", adminBearer(t), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), decodeBody(t, w)["total"])
}

func TestAuditLogs_InvalidTimeFilter(t *testing.T) {
	router := newTestServer(t)
	w := doJSON(t, router, http.MethodGet, "/api/v1/admin/audit-logs?from=yesterday", adminBearer(t), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUsageSummary_ConsumerScoped(t *testing.T) {
	router := newTestServer(t)
	w := doJSON(t, router, http.MethodGet, "/api/v1/usage/summary", consumerBearer(t), nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, float64(12), body["total_calls"])
	byService := body["calls_by_service"].(map[string]interface{})
	assert.Equal(t, float64(12), byService["svc-geocode"])
	assert.Greater(t, body["avg_response_time_ms"].(float64), 0.0)
}

func TestUsageSummary_ConsumerCannotReadOthers(t *testing.T) {
	router := newTestServer(t)
	hooli := bearer(t, "user-hooli", "platform@hooli.example", models.RoleConsumer)

	// The consumer_id filter is ignored for non-admins; hooli has no usage.
	w := doJSON(t, router, http.MethodGet, "/api/v1/usage/summary?consumer_id=user-initech", hooli, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), decodeBody(t, w)["total_calls"])
}

func TestUsageSummary_AdminFilters(t *testing.T) {
	router := newTestServer(t)
	w := doJSON(t, router, http.MethodGet, "/api/v1/usage/summary?service_id=svc-geocode", adminBearer(t), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(12), decodeBody(t, w)["total_calls"])
}
