// service_block_repository.go implements ServiceBlockRepository over the
// (consumer, service) block relation. The UNIQUE constraint on the pair makes
// PutServiceBlock an idempotent upsert.
package repositories

import (
	"context"
	"database/sql"

	"github.com/service-marketplace/service-marketplace/internal/db/models"
)

// ServiceBlockRepository handles per-service consumer block database operations
type ServiceBlockRepository struct {
	db *sql.DB
}

// NewServiceBlockRepository creates a new ServiceBlockRepository
func NewServiceBlockRepository(db *sql.DB) *ServiceBlockRepository {
	return &ServiceBlockRepository{db: db}
}

// GetServiceBlock retrieves the live block for a pair. Returns (nil, nil) when
// the pair is not blocked.
func (r *ServiceBlockRepository) GetServiceBlock(ctx context.Context, consumerID, serviceID string) (*models.ServiceBlock, error) {
	query := `
		SELECT id, consumer_id, service_id, blocked_at, blocked_by
		FROM service_blocks
		WHERE consumer_id = $1 AND service_id = $2
	`

	b := &models.ServiceBlock{}
	err := r.db.QueryRowContext(ctx, query, consumerID, serviceID).Scan(
		&b.ID, &b.ConsumerID, &b.ServiceID, &b.BlockedAt, &b.BlockedBy,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// PutServiceBlock inserts a block, or leaves an existing block for the same
// pair untouched.
func (r *ServiceBlockRepository) PutServiceBlock(ctx context.Context, b *models.ServiceBlock) error {
	query := `
		INSERT INTO service_blocks (id, consumer_id, service_id, blocked_at, blocked_by)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (consumer_id, service_id) DO NOTHING
	`

	_, err := r.db.ExecContext(ctx, query, b.ID, b.ConsumerID, b.ServiceID, b.BlockedAt, b.BlockedBy)
	return err
}

// RemoveServiceBlock deletes the block for a pair, reporting whether one existed.
func (r *ServiceBlockRepository) RemoveServiceBlock(ctx context.Context, consumerID, serviceID string) (bool, error) {
	query := `DELETE FROM service_blocks WHERE consumer_id = $1 AND service_id = $2`

	res, err := r.db.ExecContext(ctx, query, consumerID, serviceID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListServiceBlocksByService retrieves every block on one service.
func (r *ServiceBlockRepository) ListServiceBlocksByService(ctx context.Context, serviceID string) ([]*models.ServiceBlock, error) {
	query := `
		SELECT id, consumer_id, service_id, blocked_at, blocked_by
		FROM service_blocks
		WHERE service_id = $1
		ORDER BY blocked_at, id
	`

	rows, err := r.db.QueryContext(ctx, query, serviceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	blocks := make([]*models.ServiceBlock, 0)
	for rows.Next() {
		b := &models.ServiceBlock{}
		if err := rows.Scan(&b.ID, &b.ConsumerID, &b.ServiceID, &b.BlockedAt, &b.BlockedBy); err != nil {
			return nil, err
		}
		blocks = append(blocks, b)
	}
	return blocks, rows.Err()
}
