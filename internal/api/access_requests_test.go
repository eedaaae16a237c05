package api

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/service-marketplace/service-marketplace/internal/db/models"
)

func TestCreateAccessRequest(t *testing.T) {
	router := newTestServer(t)
	w := doJSON(t, router, http.MethodPost, "/api/v1/access-requests", consumerBearer(t),
		gin.H{"service_id": "svc-ocr"})
	require.Equal(t, http.StatusCreated, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, "pending", body["status"])
	assert.Equal(t, "user-initech", body["consumer_id"])
}

func TestCreateAccessRequest_DuplicatePending(t *testing.T) {
	router := newTestServer(t)
	// user-hooli already has a pending request for svc-ocr in the fixtures.
	hooli := bearer(t, "user-hooli", "platform@hooli.example", models.RoleConsumer)
	w := doJSON(t, router, http.MethodPost, "/api/v1/access-requests", hooli,
		gin.H{"service_id": "svc-ocr"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCreateAccessRequest_UnknownService(t *testing.T) {
	router := newTestServer(t)
	w := doJSON(t, router, http.MethodPost, "/api/v1/access-requests", consumerBearer(t),
		gin.H{"service_id": "svc-nope"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestListAccessRequestsForConsumer(t *testing.T) {
	router := newTestServer(t)
	hooli := bearer(t, "user-hooli", "platform@hooli.example", models.RoleConsumer)
	w := doJSON(t, router, http.MethodGet, "/api/v1/access-requests", hooli, nil)
	require.Equal(t, http.StatusOK, w.Code)

	reqs := decodeBody(t, w)["access_requests"].([]interface{})
	require.Len(t, reqs, 1)
	assert.Equal(t, "req-hooli-ocr", reqs[0].(map[string]interface{})["id"])
}

func TestApproveAccessRequest_OwningMerchant(t *testing.T) {
	router := newTestServer(t)
	globex := bearer(t, "user-globex", "api@globex.example", models.RoleMerchant)

	w := doJSON(t, router, http.MethodPost, "/api/v1/access-requests/req-hooli-ocr/approve", globex, nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, "approved", body["status"])
	assert.Equal(t, "user-globex", body["resolved_by"])

	// Resolved requests are immutable.
	w = doJSON(t, router, http.MethodPost, "/api/v1/access-requests/req-hooli-ocr/deny", globex, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestDenyAccessRequest_AllowsReRequest(t *testing.T) {
	router := newTestServer(t)
	hooli := bearer(t, "user-hooli", "platform@hooli.example", models.RoleConsumer)

	w := doJSON(t, router, http.MethodPost, "/api/v1/access-requests/req-hooli-ocr/deny", adminBearer(t), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "denied", decodeBody(t, w)["status"])

	// Denial does not bar a new, independent request for the same service.
	w = doJSON(t, router, http.MethodPost, "/api/v1/access-requests", hooli,
		gin.H{"service_id": "svc-ocr"})
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestResolveAccessRequest_ForeignMerchantForbidden(t *testing.T) {
	router := newTestServer(t)
	acme := bearer(t, "user-acme", "ops@acme.example", models.RoleMerchant)
	w := doJSON(t, router, http.MethodPost, "/api/v1/access-requests/req-hooli-ocr/approve", acme, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestListAccessRequestsForService(t *testing.T) {
	router := newTestServer(t)
	globex := bearer(t, "user-globex", "api@globex.example", models.RoleMerchant)
	w := doJSON(t, router, http.MethodGet, "/api/v1/services/svc-ocr/access-requests", globex, nil)
	require.Equal(t, http.StatusOK, w.Code)

	reqs := decodeBody(t, w)["access_requests"].([]interface{})
	assert.Len(t, reqs, 1)
}
