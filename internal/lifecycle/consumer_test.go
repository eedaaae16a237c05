package lifecycle

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/service-marketplace/service-marketplace/internal/audit"
	"github.com/service-marketplace/service-marketplace/internal/db/models"
)

func TestBlockConsumer_RevokesEffectivelyActiveKeys(t *testing.T) {
	m, st, now := testManager(t)
	ctx := context.Background()

	profile, err := m.BlockConsumer(ctx, adminActor, "user-initech")
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, models.ConsumerBlocked, profile.Status)

	// The active key was revoked by the cascade, attributed to the platform.
	prod, err := st.GetAPIKey(ctx, "key-initech-prod")
	require.NoError(t, err)
	assert.Equal(t, models.APIKeyRevoked, prod.Status)
	require.NotNil(t, prod.RevokedBy)
	assert.Equal(t, audit.PlatformActor.ID, *prod.RevokedBy)
	require.NotNil(t, prod.RevokedAt)
	assert.True(t, prod.RevokedAt.Equal(now))

	// The stored-active-but-expired key is not effectively active and is
	// untouched.
	legacy, err := st.GetAPIKey(ctx, "key-initech-legacy")
	require.NoError(t, err)
	assert.Equal(t, models.APIKeyActive, legacy.Status)
	assert.Nil(t, legacy.RevokedBy)

	entries := auditEntries(t, st)
	require.Len(t, entries, 1)
	assert.Equal(t, models.ActionConsumerBlocked, entries[0].Action)
	assert.Contains(t, entries[0].Description, "1 active key(s)")
}

func TestBlockConsumer_AlreadyBlocked(t *testing.T) {
	m, st, _ := testManager(t)
	ctx := context.Background()

	_, err := m.BlockConsumer(ctx, adminActor, "user-initech")
	require.NoError(t, err)

	again, err := m.BlockConsumer(ctx, adminActor, "user-initech")
	require.NoError(t, err)
	assert.Nil(t, again)
	assert.Len(t, auditEntries(t, st), 1)
}

func TestBlockConsumer_Unknown(t *testing.T) {
	m, _, _ := testManager(t)
	profile, err := m.BlockConsumer(context.Background(), adminActor, "user-acme")
	require.NoError(t, err)
	assert.Nil(t, profile)
}

func TestUnblockConsumer_DoesNotRestoreKeys(t *testing.T) {
	m, st, _ := testManager(t)
	ctx := context.Background()

	_, err := m.BlockConsumer(ctx, adminActor, "user-initech")
	require.NoError(t, err)

	profile, err := m.UnblockConsumer(ctx, adminActor, "user-initech")
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, models.ConsumerActive, profile.Status)

	key, err := st.GetAPIKey(ctx, "key-initech-prod")
	require.NoError(t, err)
	assert.Equal(t, models.APIKeyRevoked, key.Status)
}

func TestUnblockConsumer_ActiveRefused(t *testing.T) {
	m, _, _ := testManager(t)
	profile, err := m.UnblockConsumer(context.Background(), adminActor, "user-initech")
	require.NoError(t, err)
	assert.Nil(t, profile)
}

func TestBlockConsumerForService(t *testing.T) {
	m, st, now := testManager(t)
	ctx := context.Background()

	block, err := m.BlockConsumerForService(ctx, acmeActor, "user-initech", "svc-geocode")
	require.NoError(t, err)
	require.NotNil(t, block)
	assert.Equal(t, "user-initech", block.ConsumerID)
	assert.Equal(t, "svc-geocode", block.ServiceID)
	assert.Equal(t, acmeActor.ID, block.BlockedBy)
	assert.True(t, block.BlockedAt.Equal(now))

	stored, err := st.GetServiceBlock(ctx, "user-initech", "svc-geocode")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, block.ID, stored.ID)
}

func TestBlockConsumerForService_Idempotent(t *testing.T) {
	m, st, _ := testManager(t)
	ctx := context.Background()

	// user-hooli is already blocked for svc-geocode in the fixtures: the
	// existing block comes back and nothing new is recorded.
	block, err := m.BlockConsumerForService(ctx, acmeActor, "user-hooli", "svc-geocode")
	require.NoError(t, err)
	require.NotNil(t, block)
	assert.Equal(t, "block-hooli-geocode", block.ID)
	assert.Empty(t, auditEntries(t, st))
}

func TestUnblockConsumerForService(t *testing.T) {
	m, st, _ := testManager(t)
	ctx := context.Background()

	removed, err := m.UnblockConsumerForService(ctx, acmeActor, "user-hooli", "svc-geocode")
	require.NoError(t, err)
	assert.True(t, removed)

	stored, err := st.GetServiceBlock(ctx, "user-hooli", "svc-geocode")
	require.NoError(t, err)
	assert.Nil(t, stored)

	// No block left; the second removal reports false and records nothing.
	removed, err = m.UnblockConsumerForService(ctx, acmeActor, "user-hooli", "svc-geocode")
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Len(t, auditEntries(t, st), 1)
}
