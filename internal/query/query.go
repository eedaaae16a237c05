// Package query implements the read paths over the store: filtered listings,
// usage aggregation, and audit trail pagination. Queries never mutate
// anything and carry no guards; absent entities surface as empty results.
package query

import (
	"context"
	"time"

	"github.com/service-marketplace/service-marketplace/internal/db/models"
	"github.com/service-marketplace/service-marketplace/internal/store"
)

// Queries exposes the read-side operations the dashboard consumes.
type Queries struct {
	store store.Store
	now   func() time.Time
}

// New creates a Queries layer over the store.
func New(st store.Store) *Queries {
	return &Queries{store: st, now: time.Now}
}

// WithClock overrides the clock. Tests only.
func (q *Queries) WithClock(now func() time.Time) *Queries {
	q.now = now
	return q
}

// ServiceFilter narrows ListServices. Zero values match everything.
type ServiceFilter struct {
	MerchantID string
	Status     models.ServiceStatus
	Visibility models.ServiceVisibility
	Category   string
}

// ListServices returns services matching the filter, paginated, with the
// total match count for the pager.
func (q *Queries) ListServices(ctx context.Context, f ServiceFilter, limit, offset int) ([]*models.Service, int, error) {
	var (
		all []*models.Service
		err error
	)
	if f.MerchantID != "" {
		all, err = q.store.ListServicesByMerchant(ctx, f.MerchantID)
	} else {
		all, err = q.store.ListServices(ctx)
	}
	if err != nil {
		return nil, 0, err
	}

	matched := all[:0:0]
	for _, s := range all {
		if f.Status != "" && s.Status != f.Status {
			continue
		}
		if f.Visibility != "" && s.Visibility != f.Visibility {
			continue
		}
		if f.Category != "" && s.Category != f.Category {
			continue
		}
		matched = append(matched, s)
	}
	page, total := paginate(matched, limit, offset)
	return page, total, nil
}

// KeyView is an API key as shown in listings: display prefix only, with the
// status recomputed against the clock so a stale stored "active" never shows.
type KeyView struct {
	Key             *models.APIKey
	EffectiveStatus models.APIKeyStatus
}

// ListConsumerKeys returns the consumer's keys newest-last with effective
// statuses.
func (q *Queries) ListConsumerKeys(ctx context.Context, consumerID string) ([]KeyView, error) {
	keys, err := q.store.ListAPIKeysByConsumer(ctx, consumerID)
	if err != nil {
		return nil, err
	}
	now := q.now()
	out := make([]KeyView, 0, len(keys))
	for _, k := range keys {
		out = append(out, KeyView{Key: k, EffectiveStatus: k.EffectiveStatus(now)})
	}
	return out, nil
}

// UsageSummary aggregates usage rows for a dashboard panel.
type UsageSummary struct {
	TotalCalls        int            `json:"total_calls"`
	AvgResponseTimeMs float64        `json:"avg_response_time_ms"`
	CallsByService    map[string]int `json:"calls_by_service"`
}

// SummarizeUsage aggregates the usage records matching the filter.
func (q *Queries) SummarizeUsage(ctx context.Context, f store.UsageFilter) (*UsageSummary, error) {
	recs, err := q.store.ListUsage(ctx, f)
	if err != nil {
		return nil, err
	}

	summary := &UsageSummary{CallsByService: make(map[string]int)}
	totalMs := 0
	for _, r := range recs {
		summary.TotalCalls++
		summary.CallsByService[r.ServiceID]++
		totalMs += r.ResponseTimeMs
	}
	if summary.TotalCalls > 0 {
		summary.AvgResponseTimeMs = float64(totalMs) / float64(summary.TotalCalls)
	}
	return summary, nil
}

// ListAccessRequestsForConsumer returns the consumer's request history,
// including resolved records.
func (q *Queries) ListAccessRequestsForConsumer(ctx context.Context, consumerID string) ([]*models.AccessRequest, error) {
	return q.store.ListAccessRequestsByConsumer(ctx, consumerID)
}

// ListAuditLogs pages through the audit trail, newest first.
func (q *Queries) ListAuditLogs(ctx context.Context, f store.AuditFilter, limit, offset int) ([]*models.AuditLog, int, error) {
	return q.store.ListAuditLogs(ctx, f, limit, offset)
}

func paginate[T any](items []T, limit, offset int) ([]T, int) {
	total := len(items)
	if offset >= total {
		return []T{}, total
	}
	end := total
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end], total
}
