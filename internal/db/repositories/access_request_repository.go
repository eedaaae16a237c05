// access_request_repository.go implements AccessRequestRepository. A partial
// unique index on (consumer_id, service_id) WHERE status = 'pending' backs the
// one-live-pending-request-per-pair rule at the storage layer too.
package repositories

import (
	"context"
	"database/sql"

	"github.com/service-marketplace/service-marketplace/internal/db/models"
)

// AccessRequestRepository handles access request database operations
type AccessRequestRepository struct {
	db *sql.DB
}

// NewAccessRequestRepository creates a new AccessRequestRepository
func NewAccessRequestRepository(db *sql.DB) *AccessRequestRepository {
	return &AccessRequestRepository{db: db}
}

const accessRequestColumns = `id, consumer_id, service_id, status, requested_at, resolved_at, resolved_by`

// GetAccessRequest retrieves a request by ID. Returns (nil, nil) when not found.
func (r *AccessRequestRepository) GetAccessRequest(ctx context.Context, id string) (*models.AccessRequest, error) {
	query := `SELECT ` + accessRequestColumns + ` FROM access_requests WHERE id = $1`

	req, err := scanAccessRequest(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return req, err
}

// PutAccessRequest inserts or updates a request.
func (r *AccessRequestRepository) PutAccessRequest(ctx context.Context, req *models.AccessRequest) error {
	query := `
		INSERT INTO access_requests (id, consumer_id, service_id, status, requested_at, resolved_at, resolved_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			resolved_at = EXCLUDED.resolved_at,
			resolved_by = EXCLUDED.resolved_by
	`

	_, err := r.db.ExecContext(ctx, query,
		req.ID, req.ConsumerID, req.ServiceID, req.Status, req.RequestedAt, req.ResolvedAt, req.ResolvedBy,
	)
	return err
}

// ListAccessRequestsByConsumer retrieves a consumer's requests, oldest first.
func (r *AccessRequestRepository) ListAccessRequestsByConsumer(ctx context.Context, consumerID string) ([]*models.AccessRequest, error) {
	query := `SELECT ` + accessRequestColumns + ` FROM access_requests WHERE consumer_id = $1 ORDER BY requested_at, id`
	return r.queryAccessRequests(ctx, query, consumerID)
}

// ListAccessRequestsByService retrieves a service's requests, oldest first.
func (r *AccessRequestRepository) ListAccessRequestsByService(ctx context.Context, serviceID string) ([]*models.AccessRequest, error) {
	query := `SELECT ` + accessRequestColumns + ` FROM access_requests WHERE service_id = $1 ORDER BY requested_at, id`
	return r.queryAccessRequests(ctx, query, serviceID)
}

// FindPendingAccessRequest returns the pending request for the pair, if any.
func (r *AccessRequestRepository) FindPendingAccessRequest(ctx context.Context, consumerID, serviceID string) (*models.AccessRequest, error) {
	query := `
		SELECT ` + accessRequestColumns + `
		FROM access_requests
		WHERE consumer_id = $1 AND service_id = $2 AND status = 'pending'
	`

	req, err := scanAccessRequest(r.db.QueryRowContext(ctx, query, consumerID, serviceID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return req, err
}

func (r *AccessRequestRepository) queryAccessRequests(ctx context.Context, query string, args ...interface{}) ([]*models.AccessRequest, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := make([]*models.AccessRequest, 0)
	for rows.Next() {
		req, err := scanAccessRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

func scanAccessRequest(row rowScanner) (*models.AccessRequest, error) {
	req := &models.AccessRequest{}
	err := row.Scan(
		&req.ID, &req.ConsumerID, &req.ServiceID, &req.Status, &req.RequestedAt, &req.ResolvedAt, &req.ResolvedBy,
	)
	if err != nil {
		return nil, err
	}
	return req, nil
}
