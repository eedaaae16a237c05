// usage_repository.go implements UsageRepository over sqlx. Usage rows are
// append-only; the hot path is CountUsageSince, which backs the per-service
// rate limit and runs against the (api_key_id, service_id, ts) index.
package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/service-marketplace/service-marketplace/internal/db/models"
	"github.com/service-marketplace/service-marketplace/internal/store"
)

// UsageRepository handles usage record database operations
type UsageRepository struct {
	db *sqlx.DB
}

// NewUsageRepository creates a new UsageRepository
func NewUsageRepository(db *sqlx.DB) *UsageRepository {
	return &UsageRepository{db: db}
}

type usageRow struct {
	ID             string    `db:"id"`
	ConsumerID     string    `db:"consumer_id"`
	APIKeyID       string    `db:"api_key_id"`
	ServiceID      string    `db:"service_id"`
	Timestamp      time.Time `db:"ts"`
	StatusCode     int       `db:"status_code"`
	ResponseTimeMs int       `db:"response_time_ms"`
}

// AppendUsage inserts one usage record.
func (r *UsageRepository) AppendUsage(ctx context.Context, rec *models.UsageRecord) error {
	query := `
		INSERT INTO usage_records (id, consumer_id, api_key_id, service_id, ts, status_code, response_time_ms)
		VALUES (:id, :consumer_id, :api_key_id, :service_id, :ts, :status_code, :response_time_ms)
	`

	_, err := r.db.NamedExecContext(ctx, query, usageRow{
		ID:             rec.ID,
		ConsumerID:     rec.ConsumerID,
		APIKeyID:       rec.APIKeyID,
		ServiceID:      rec.ServiceID,
		Timestamp:      rec.Timestamp,
		StatusCode:     rec.StatusCode,
		ResponseTimeMs: rec.ResponseTimeMs,
	})
	return err
}

// ListUsage retrieves usage records matching the filter, oldest first.
func (r *UsageRepository) ListUsage(ctx context.Context, f store.UsageFilter) ([]*models.UsageRecord, error) {
	query := `
		SELECT id, consumer_id, api_key_id, service_id, ts, status_code, response_time_ms
		FROM usage_records
		WHERE 1=1
	`
	args := make([]interface{}, 0)
	paramIndex := 1

	if f.ConsumerID != nil {
		query += fmt.Sprintf(` AND consumer_id = $%d`, paramIndex)
		args = append(args, *f.ConsumerID)
		paramIndex++
	}
	if f.APIKeyID != nil {
		query += fmt.Sprintf(` AND api_key_id = $%d`, paramIndex)
		args = append(args, *f.APIKeyID)
		paramIndex++
	}
	if f.ServiceID != nil {
		query += fmt.Sprintf(` AND service_id = $%d`, paramIndex)
		args = append(args, *f.ServiceID)
		paramIndex++
	}
	if f.Since != nil {
		query += fmt.Sprintf(` AND ts >= $%d`, paramIndex)
		args = append(args, *f.Since)
		paramIndex++
	}
	query += ` ORDER BY ts, id`

	var rows []usageRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	records := make([]*models.UsageRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, &models.UsageRecord{
			ID:             row.ID,
			ConsumerID:     row.ConsumerID,
			APIKeyID:       row.APIKeyID,
			ServiceID:      row.ServiceID,
			Timestamp:      row.Timestamp,
			StatusCode:     row.StatusCode,
			ResponseTimeMs: row.ResponseTimeMs,
		})
	}
	return records, nil
}

// CountUsageSince counts one key's records against a service at or after since.
func (r *UsageRepository) CountUsageSince(ctx context.Context, apiKeyID, serviceID string, since time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM usage_records
		WHERE api_key_id = $1 AND service_id = $2 AND ts >= $3
	`

	var count int
	if err := r.db.GetContext(ctx, &count, query, apiKeyID, serviceID, since); err != nil {
		return 0, err
	}
	return count, nil
}
