// Package consumption implements the six-step validation pipeline that
// authorizes a simulated service call and records usage.
//
// The six checks run in a fixed order and short-circuit on the first failure:
//
//	1. key resolution        → 401
//	2. key status            → 403
//	3. service authorization → 403
//	4. service block         → 403
//	5. merchant config       → 502
//	6. rate limit            → 429
//
// The order is a contract: later steps assume earlier guards held (the rate
// limiter only ever counts requests that were already authorized and
// unblocked), so reordering changes the status code reported for
// multi-fault inputs. Every call resolves to a structured response — the
// validator never returns an error for a failed check, only for a failed
// store.
package consumption

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/service-marketplace/service-marketplace/internal/auth"
	"github.com/service-marketplace/service-marketplace/internal/db/models"
	"github.com/service-marketplace/service-marketplace/internal/store"
	"github.com/service-marketplace/service-marketplace/internal/telemetry"
)

// Step identifies one pipeline check.
type Step string

const (
	StepKeyResolution  Step = "key_resolution"
	StepKeyStatus      Step = "key_status"
	StepAuthorization  Step = "service_authorization"
	StepServiceBlock   Step = "service_block"
	StepMerchantConfig Step = "merchant_configuration"
	StepRateLimit      Step = "rate_limit"
)

// pipeline is the contractual step order.
var pipeline = []Step{
	StepKeyResolution,
	StepKeyStatus,
	StepAuthorization,
	StepServiceBlock,
	StepMerchantConfig,
	StepRateLimit,
}

// StepStatus is the explicit three-state outcome of one check. Steps after a
// failure are reported as skipped rather than omitted, so the wire contract
// is unambiguous about what was never evaluated.
type StepStatus string

const (
	StepPassed  StepStatus = "passed"
	StepFailed  StepStatus = "failed"
	StepSkipped StepStatus = "skipped"
)

// StepResult is the outcome of one pipeline step. StatusCode and Message are
// set only on failure.
type StepResult struct {
	Step       Step       `json:"step"`
	Status     StepStatus `json:"status"`
	StatusCode int        `json:"status_code,omitempty"`
	Message    string     `json:"message,omitempty"`
}

// Response is the full result of one simulated call. At most one step is ever
// failed; a successful call has six passed steps, a 200 status, and the usage
// record the call appended.
type Response struct {
	Success    bool               `json:"success"`
	StatusCode int                `json:"status_code"`
	Message    string             `json:"message,omitempty"`
	Steps      []StepResult       `json:"steps"`
	Usage      *models.UsageRecord `json:"usage,omitempty"`
}

// Validator runs the pipeline.
type Validator struct {
	mu    sync.Mutex
	store store.Store
	now   func() time.Time
	// responseTimeMs synthesizes the latency recorded for a successful call.
	responseTimeMs func() int
}

// NewValidator creates a Validator.
func NewValidator(st store.Store) *Validator {
	return &Validator{
		store:          st,
		now:            time.Now,
		responseTimeMs: func() int { return 40 + rand.Intn(460) },
	}
}

// WithClock overrides the validator's clock. Tests only.
func (v *Validator) WithClock(now func() time.Time) *Validator {
	v.now = now
	return v
}

// WithResponseTime overrides latency synthesis. Tests only.
func (v *Validator) WithResponseTime(fn func() int) *Validator {
	v.responseTimeMs = fn
	return v
}

// failure marks steps[0:idx] passed, steps[idx] failed, and the rest skipped.
func failure(idx int, code int, msg string) *Response {
	steps := make([]StepResult, len(pipeline))
	for i, s := range pipeline {
		switch {
		case i < idx:
			steps[i] = StepResult{Step: s, Status: StepPassed}
		case i == idx:
			steps[i] = StepResult{Step: s, Status: StepFailed, StatusCode: code, Message: msg}
		default:
			steps[i] = StepResult{Step: s, Status: StepSkipped}
		}
	}
	telemetry.ConsumptionTotal.WithLabelValues(strconv.Itoa(code)).Inc()
	return &Response{Success: false, StatusCode: code, Message: msg, Steps: steps}
}

// Simulate validates one call of the presented key secret against the target
// service and, when every check passes, appends a usage record.
func (v *Validator) Simulate(ctx context.Context, keySecret, serviceID string) (*Response, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	now := v.now()

	// Step 1: key resolution. Candidates share the display prefix; the
	// presented secret must bcrypt-match one of them.
	candidates, err := v.store.ListAPIKeysByPrefix(ctx, auth.DisplayPrefix(keySecret))
	if err != nil {
		return nil, err
	}
	var key *models.APIKey
	for _, c := range candidates {
		if auth.ValidateAPIKey(keySecret, c.KeyHash) {
			key = c
			break
		}
	}
	if key == nil {
		return failure(0, 401, "Invalid API key."), nil
	}

	// Step 2: key status, computed against the clock rather than trusting a
	// possibly stale stored value.
	if status := key.EffectiveStatus(now); status != models.APIKeyActive {
		return failure(1, 403, fmt.Sprintf("API key is %s.", status)), nil
	}

	// Step 3: service authorization.
	if !key.AuthorizedFor(serviceID) {
		return failure(2, 403, "API key not authorized for this service."), nil
	}

	// Step 4: per-service consumer block.
	block, err := v.store.GetServiceBlock(ctx, key.ConsumerID, serviceID)
	if err != nil {
		return nil, err
	}
	if block != nil {
		return failure(3, 403, "Consumer blocked for this service."), nil
	}

	// Step 5: merchant configuration.
	svc, err := v.store.GetService(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	if svc == nil || svc.Endpoint == nil || svc.Endpoint.BaseURL == "" {
		return failure(4, 502, "Service endpoint not configured."), nil
	}

	// Step 6: trailing-window rate limit. Only authorized, unblocked calls
	// were ever recorded, so the count reflects admitted traffic alone.
	if svc.RateLimitPerMinute > 0 {
		count, err := v.store.CountUsageSince(ctx, key.ID, serviceID, now.Add(-time.Minute))
		if err != nil {
			return nil, err
		}
		if count >= svc.RateLimitPerMinute {
			return failure(5, 429, "Rate limit exceeded."), nil
		}
	}

	rec := &models.UsageRecord{
		ID:             uuid.New().String(),
		ConsumerID:     key.ConsumerID,
		APIKeyID:       key.ID,
		ServiceID:      serviceID,
		Timestamp:      now,
		StatusCode:     200,
		ResponseTimeMs: v.responseTimeMs(),
	}
	if err := v.store.AppendUsage(ctx, rec); err != nil {
		return nil, err
	}

	steps := make([]StepResult, len(pipeline))
	for i, s := range pipeline {
		steps[i] = StepResult{Step: s, Status: StepPassed}
	}
	telemetry.ConsumptionTotal.WithLabelValues("200").Inc()
	return &Response{Success: true, StatusCode: 200, Steps: steps, Usage: rec}, nil
}
