package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/service-marketplace/service-marketplace/internal/auth"
	"github.com/service-marketplace/service-marketplace/internal/db/models"
)

func TestSeed(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, Seed(ctx, m, now))

	merchants, err := m.ListMerchantProfiles(ctx)
	require.NoError(t, err)
	assert.Len(t, merchants, 3)

	services, err := m.ListServices(ctx)
	require.NoError(t, err)
	assert.Len(t, services, 3)

	// The well-known secrets verify against the seeded hashes.
	prod, err := m.GetAPIKey(ctx, "key-initech-prod")
	require.NoError(t, err)
	assert.True(t, auth.ValidateAPIKey(SeedActiveKeySecret, prod.KeyHash))
	assert.Equal(t, models.APIKeyActive, prod.EffectiveStatus(now))

	// The legacy key is the stale-status fixture: stored active, effectively
	// expired.
	legacy, err := m.GetAPIKey(ctx, "key-initech-legacy")
	require.NoError(t, err)
	assert.Equal(t, models.APIKeyActive, legacy.Status)
	assert.Equal(t, models.APIKeyExpired, legacy.EffectiveStatus(now))

	usage, err := m.ListUsage(ctx, UsageFilter{})
	require.NoError(t, err)
	assert.Len(t, usage, 12)
}

func TestSeed_RepeatOverwritesKeyedEntities(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, Seed(ctx, m, now))

	// Mutate a seeded entity, then reseed: keyed entities reset, usage rows
	// accumulate.
	svc, err := m.GetService(ctx, "svc-geocode")
	require.NoError(t, err)
	svc.Status = models.ServiceSuspended
	require.NoError(t, m.PutService(ctx, svc))

	require.NoError(t, Seed(ctx, m, now))

	svc, err = m.GetService(ctx, "svc-geocode")
	require.NoError(t, err)
	assert.Equal(t, models.ServiceActive, svc.Status)

	usage, err := m.ListUsage(ctx, UsageFilter{})
	require.NoError(t, err)
	assert.Len(t, usage, 24)
}
