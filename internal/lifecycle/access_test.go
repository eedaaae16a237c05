package lifecycle

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/service-marketplace/service-marketplace/internal/db/models"
)

func TestCreateAccessRequest(t *testing.T) {
	m, st, now := testManager(t)
	ctx := context.Background()

	req, err := m.CreateAccessRequest(ctx, "user-initech", "svc-ocr")
	require.NoError(t, err)
	require.NotNil(t, req)
	assert.Equal(t, models.AccessPending, req.Status)
	assert.Equal(t, "user-initech", req.ConsumerID)
	assert.True(t, req.RequestedAt.Equal(now))
	assert.Nil(t, req.ResolvedAt)

	// Creation is not audited.
	assert.Empty(t, auditEntries(t, st))
}

func TestCreateAccessRequest_UnknownService(t *testing.T) {
	m, _, _ := testManager(t)
	req, err := m.CreateAccessRequest(context.Background(), "user-initech", "svc-nope")
	require.NoError(t, err)
	assert.Nil(t, req)
}

func TestCreateAccessRequest_DuplicatePending(t *testing.T) {
	m, _, _ := testManager(t)
	ctx := context.Background()

	// user-hooli already has a pending request for svc-ocr.
	req, err := m.CreateAccessRequest(ctx, "user-hooli", "svc-ocr")
	require.NoError(t, err)
	assert.Nil(t, req)

	// A different consumer is unaffected by hooli's pending request.
	req, err = m.CreateAccessRequest(ctx, "user-initech", "svc-ocr")
	require.NoError(t, err)
	assert.NotNil(t, req)
}

func TestApproveAccessRequest(t *testing.T) {
	m, st, now := testManager(t)
	ctx := context.Background()

	req, err := m.ApproveAccessRequest(ctx, adminActor, "req-hooli-ocr")
	require.NoError(t, err)
	require.NotNil(t, req)
	assert.Equal(t, models.AccessApproved, req.Status)
	require.NotNil(t, req.ResolvedAt)
	assert.True(t, req.ResolvedAt.Equal(now))
	require.NotNil(t, req.ResolvedBy)
	assert.Equal(t, adminActor.ID, *req.ResolvedBy)

	entries := auditEntries(t, st)
	require.Len(t, entries, 1)
	assert.Equal(t, models.ActionAccessApproved, entries[0].Action)
	assert.Equal(t, models.TargetAccessRequest, entries[0].TargetType)
}

func TestResolveAccessRequest_Immutable(t *testing.T) {
	m, st, _ := testManager(t)
	ctx := context.Background()

	_, err := m.DenyAccessRequest(ctx, adminActor, "req-hooli-ocr")
	require.NoError(t, err)

	// Once resolved, neither resolution fires again.
	req, err := m.ApproveAccessRequest(ctx, adminActor, "req-hooli-ocr")
	require.NoError(t, err)
	assert.Nil(t, req)
	req, err = m.DenyAccessRequest(ctx, adminActor, "req-hooli-ocr")
	require.NoError(t, err)
	assert.Nil(t, req)
	assert.Len(t, auditEntries(t, st), 1)
}

func TestDenyAccessRequest_AllowsNewRequest(t *testing.T) {
	m, st, _ := testManager(t)
	ctx := context.Background()

	denied, err := m.DenyAccessRequest(ctx, adminActor, "req-hooli-ocr")
	require.NoError(t, err)
	require.NotNil(t, denied)
	assert.Equal(t, models.AccessDenied, denied.Status)

	// Denial does not bar a fresh request; history accumulates.
	fresh, err := m.CreateAccessRequest(ctx, "user-hooli", "svc-ocr")
	require.NoError(t, err)
	require.NotNil(t, fresh)
	assert.NotEqual(t, denied.ID, fresh.ID)

	history, err := st.ListAccessRequestsByConsumer(ctx, "user-hooli")
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestResolveAccessRequest_Unknown(t *testing.T) {
	m, _, _ := testManager(t)
	req, err := m.ApproveAccessRequest(context.Background(), adminActor, "req-nope")
	require.NoError(t, err)
	assert.Nil(t, req)
}
