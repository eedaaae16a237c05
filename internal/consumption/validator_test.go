package consumption

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/service-marketplace/service-marketplace/internal/db/models"
	"github.com/service-marketplace/service-marketplace/internal/store"
)

func testValidator(t *testing.T) (*Validator, *store.Memory, time.Time) {
	t.Helper()
	st := store.NewMemory()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.Seed(context.Background(), st, now))
	v := NewValidator(st).
		WithClock(func() time.Time { return now }).
		WithResponseTime(func() int { return 100 })
	return v, st, now
}

// statuses flattens a response's step outcomes in pipeline order.
func statuses(resp *Response) []StepStatus {
	out := make([]StepStatus, len(resp.Steps))
	for i, s := range resp.Steps {
		out[i] = s.Status
	}
	return out
}

func TestSimulate_Success(t *testing.T) {
	v, st, now := testValidator(t)
	ctx := context.Background()

	resp, err := v.Simulate(ctx, store.SeedActiveKeySecret, "svc-geocode")
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, []StepStatus{StepPassed, StepPassed, StepPassed, StepPassed, StepPassed, StepPassed}, statuses(resp))

	require.NotNil(t, resp.Usage)
	assert.Equal(t, "user-initech", resp.Usage.ConsumerID)
	assert.Equal(t, "key-initech-prod", resp.Usage.APIKeyID)
	assert.Equal(t, "svc-geocode", resp.Usage.ServiceID)
	assert.Equal(t, 200, resp.Usage.StatusCode)
	assert.Equal(t, 100, resp.Usage.ResponseTimeMs)
	assert.True(t, resp.Usage.Timestamp.Equal(now))

	// The record was persisted, not just reported.
	n, err := st.CountUsageSince(ctx, "key-initech-prod", "svc-geocode", now.Add(-time.Second))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSimulate_InvalidKey(t *testing.T) {
	v, _, _ := testValidator(t)

	resp, err := v.Simulate(context.Background(), "smk_not_a_real_secret_at_all", "svc-geocode")
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, 401, resp.StatusCode)
	assert.Equal(t, []StepStatus{StepFailed, StepSkipped, StepSkipped, StepSkipped, StepSkipped, StepSkipped}, statuses(resp))
	assert.Equal(t, StepKeyResolution, resp.Steps[0].Step)
	assert.Equal(t, 401, resp.Steps[0].StatusCode)
}

func TestSimulate_ExpiredKey(t *testing.T) {
	v, _, _ := testValidator(t)

	resp, err := v.Simulate(context.Background(), store.SeedExpiredKeySecret, "svc-geocode")
	require.NoError(t, err)
	assert.Equal(t, 403, resp.StatusCode)
	assert.Equal(t, []StepStatus{StepPassed, StepFailed, StepSkipped, StepSkipped, StepSkipped, StepSkipped}, statuses(resp))
	assert.Contains(t, resp.Message, "expired")
}

func TestSimulate_RevokedKey(t *testing.T) {
	v, st, now := testValidator(t)
	ctx := context.Background()

	key, err := st.GetAPIKey(ctx, "key-initech-prod")
	require.NoError(t, err)
	key.Status = models.APIKeyRevoked
	key.RevokedAt = &now
	require.NoError(t, st.PutAPIKey(ctx, key))

	resp, err := v.Simulate(ctx, store.SeedActiveKeySecret, "svc-geocode")
	require.NoError(t, err)
	assert.Equal(t, 403, resp.StatusCode)
	assert.Contains(t, resp.Message, "revoked")
}

func TestSimulate_UnauthorizedService(t *testing.T) {
	v, _, _ := testValidator(t)

	// The prod key covers geocode and weather, not ocr.
	resp, err := v.Simulate(context.Background(), store.SeedActiveKeySecret, "svc-ocr")
	require.NoError(t, err)
	assert.Equal(t, 403, resp.StatusCode)
	assert.Equal(t, []StepStatus{StepPassed, StepPassed, StepFailed, StepSkipped, StepSkipped, StepSkipped}, statuses(resp))
}

func TestSimulate_BlockedConsumer(t *testing.T) {
	v, st, now := testValidator(t)
	ctx := context.Background()

	require.NoError(t, st.PutServiceBlock(ctx, &models.ServiceBlock{
		ID: "block-test", ConsumerID: "user-initech", ServiceID: "svc-geocode",
		BlockedAt: now, BlockedBy: "user-acme",
	}))

	resp, err := v.Simulate(ctx, store.SeedActiveKeySecret, "svc-geocode")
	require.NoError(t, err)
	assert.Equal(t, 403, resp.StatusCode)
	assert.Equal(t, []StepStatus{StepPassed, StepPassed, StepPassed, StepFailed, StepSkipped, StepSkipped}, statuses(resp))

	// The block is per-service: other authorized services are unaffected at
	// this step (weather then fails later, on its missing endpoint).
	resp, err = v.Simulate(ctx, store.SeedActiveKeySecret, "svc-weather")
	require.NoError(t, err)
	assert.Equal(t, 502, resp.StatusCode)
}

func TestSimulate_MissingEndpoint(t *testing.T) {
	v, st, _ := testValidator(t)
	ctx := context.Background()

	// svc-weather has no endpoint configured in the fixtures.
	resp, err := v.Simulate(ctx, store.SeedActiveKeySecret, "svc-weather")
	require.NoError(t, err)
	assert.Equal(t, 502, resp.StatusCode)
	assert.Equal(t, []StepStatus{StepPassed, StepPassed, StepPassed, StepPassed, StepFailed, StepSkipped}, statuses(resp))

	// A failed call never appends usage.
	usage, err := st.ListUsage(ctx, store.UsageFilter{})
	require.NoError(t, err)
	assert.Len(t, usage, 12) // seeded history only
}

func TestSimulate_RateLimit(t *testing.T) {
	v, st, now := testValidator(t)
	ctx := context.Background()

	svc, err := st.GetService(ctx, "svc-geocode")
	require.NoError(t, err)
	svc.RateLimitPerMinute = 3
	require.NoError(t, st.PutService(ctx, svc))

	for i := 0; i < 3; i++ {
		resp, err := v.Simulate(ctx, store.SeedActiveKeySecret, "svc-geocode")
		require.NoError(t, err)
		require.True(t, resp.Success, "call %d", i)
	}

	resp, err := v.Simulate(ctx, store.SeedActiveKeySecret, "svc-geocode")
	require.NoError(t, err)
	assert.Equal(t, 429, resp.StatusCode)
	assert.Equal(t, []StepStatus{StepPassed, StepPassed, StepPassed, StepPassed, StepPassed, StepFailed}, statuses(resp))

	// The window trails the clock: a minute later the same key is admitted.
	later := now.Add(61 * time.Second)
	v.WithClock(func() time.Time { return later })
	resp, err = v.Simulate(ctx, store.SeedActiveKeySecret, "svc-geocode")
	require.NoError(t, err)
	assert.True(t, resp.Success)
}

func TestSimulate_RateLimitCountsPerKeyAndService(t *testing.T) {
	v, st, _ := testValidator(t)
	ctx := context.Background()

	svc, err := st.GetService(ctx, "svc-geocode")
	require.NoError(t, err)
	svc.RateLimitPerMinute = 1
	require.NoError(t, st.PutService(ctx, svc))

	resp, err := v.Simulate(ctx, store.SeedActiveKeySecret, "svc-geocode")
	require.NoError(t, err)
	require.True(t, resp.Success)
	resp, err = v.Simulate(ctx, store.SeedActiveKeySecret, "svc-geocode")
	require.NoError(t, err)
	require.Equal(t, 429, resp.StatusCode)

	// Exhausting geocode's budget leaves weather's pipeline untouched.
	resp, err = v.Simulate(ctx, store.SeedActiveKeySecret, "svc-weather")
	require.NoError(t, err)
	assert.Equal(t, 502, resp.StatusCode)
}

func TestSimulate_AtMostOneFailedStep(t *testing.T) {
	v, st, now := testValidator(t)
	ctx := context.Background()

	// Compound the faults: block the consumer AND break the endpoint. The
	// pipeline reports only the first failure in order.
	require.NoError(t, st.PutServiceBlock(ctx, &models.ServiceBlock{
		ID: "block-test", ConsumerID: "user-initech", ServiceID: "svc-geocode",
		BlockedAt: now, BlockedBy: "user-acme",
	}))
	svc, err := st.GetService(ctx, "svc-geocode")
	require.NoError(t, err)
	svc.Endpoint = nil
	require.NoError(t, st.PutService(ctx, svc))

	resp, err := v.Simulate(ctx, store.SeedActiveKeySecret, "svc-geocode")
	require.NoError(t, err)
	assert.Equal(t, 403, resp.StatusCode)

	failed := 0
	for _, s := range resp.Steps {
		if s.Status == StepFailed {
			failed++
		}
	}
	assert.Equal(t, 1, failed)
	assert.Equal(t, StepServiceBlock, resp.Steps[3].Step)
	assert.Equal(t, StepFailed, resp.Steps[3].Status)
}
