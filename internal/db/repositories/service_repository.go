// service_repository.go implements ServiceRepository. Pricing and endpoint
// configuration are stored as JSONB; tags as a text array.
package repositories

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/lib/pq"

	"github.com/service-marketplace/service-marketplace/internal/db/models"
)

// ServiceRepository handles service database operations
type ServiceRepository struct {
	db *sql.DB
}

// NewServiceRepository creates a new ServiceRepository
func NewServiceRepository(db *sql.DB) *ServiceRepository {
	return &ServiceRepository{db: db}
}

const serviceColumns = `id, merchant_id, name, description, category, status, visibility,
	pricing, rate_limit_per_minute, endpoint, tags, created_at, updated_at`

// GetService retrieves a service by ID. Returns (nil, nil) when not found.
func (r *ServiceRepository) GetService(ctx context.Context, id string) (*models.Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services WHERE id = $1`

	svc, err := scanService(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return svc, err
}

// PutService inserts or updates a service.
func (r *ServiceRepository) PutService(ctx context.Context, s *models.Service) error {
	pricingJSON, err := json.Marshal(s.Pricing)
	if err != nil {
		return err
	}
	var endpointJSON []byte
	if s.Endpoint != nil {
		endpointJSON, err = json.Marshal(s.Endpoint)
		if err != nil {
			return err
		}
	}

	query := `
		INSERT INTO services (id, merchant_id, name, description, category, status, visibility,
			pricing, rate_limit_per_minute, endpoint, tags, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			category = EXCLUDED.category,
			status = EXCLUDED.status,
			visibility = EXCLUDED.visibility,
			pricing = EXCLUDED.pricing,
			rate_limit_per_minute = EXCLUDED.rate_limit_per_minute,
			endpoint = EXCLUDED.endpoint,
			tags = EXCLUDED.tags,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		s.ID, s.MerchantID, s.Name, s.Description, s.Category, s.Status, s.Visibility,
		pricingJSON, s.RateLimitPerMinute, endpointJSON, pq.Array(s.Tags), s.CreatedAt, s.UpdatedAt,
	)
	return err
}

// ListServices retrieves all services ordered by creation time.
func (r *ServiceRepository) ListServices(ctx context.Context) ([]*models.Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services ORDER BY created_at, id`
	return r.queryServices(ctx, query)
}

// ListServicesByMerchant retrieves a merchant's services ordered by creation time.
func (r *ServiceRepository) ListServicesByMerchant(ctx context.Context, merchantID string) ([]*models.Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services WHERE merchant_id = $1 ORDER BY created_at, id`
	return r.queryServices(ctx, query, merchantID)
}

func (r *ServiceRepository) queryServices(ctx context.Context, query string, args ...interface{}) ([]*models.Service, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	services := make([]*models.Service, 0)
	for rows.Next() {
		svc, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		services = append(services, svc)
	}
	return services, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanService(row rowScanner) (*models.Service, error) {
	s := &models.Service{}
	var pricingJSON, endpointJSON []byte
	var tags pq.StringArray

	err := row.Scan(
		&s.ID, &s.MerchantID, &s.Name, &s.Description, &s.Category, &s.Status, &s.Visibility,
		&pricingJSON, &s.RateLimitPerMinute, &endpointJSON, &tags, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(pricingJSON) > 0 {
		if err := json.Unmarshal(pricingJSON, &s.Pricing); err != nil {
			return nil, err
		}
	}
	if len(endpointJSON) > 0 {
		s.Endpoint = &models.Endpoint{}
		if err := json.Unmarshal(endpointJSON, s.Endpoint); err != nil {
			return nil, err
		}
	}
	s.Tags = tags
	return s, nil
}
