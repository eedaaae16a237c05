// api_key_repository.go implements APIKeyRepository. Only bcrypt hashes and
// display prefixes are persisted; candidate lookup for a presented secret goes
// through the key_prefix index.
package repositories

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"github.com/service-marketplace/service-marketplace/internal/db/models"
)

// APIKeyRepository handles API key database operations
type APIKeyRepository struct {
	db *sql.DB
}

// NewAPIKeyRepository creates a new APIKeyRepository
func NewAPIKeyRepository(db *sql.DB) *APIKeyRepository {
	return &APIKeyRepository{db: db}
}

const apiKeyColumns = `id, consumer_id, name, key_hash, key_prefix, service_ids,
	status, ttl_days, expires_at, created_at, revoked_at, revoked_by`

// GetAPIKey retrieves a key by ID. Returns (nil, nil) when not found.
func (r *APIKeyRepository) GetAPIKey(ctx context.Context, id string) (*models.APIKey, error) {
	query := `SELECT ` + apiKeyColumns + ` FROM api_keys WHERE id = $1`

	key, err := scanAPIKey(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return key, err
}

// PutAPIKey inserts or updates a key.
func (r *APIKeyRepository) PutAPIKey(ctx context.Context, k *models.APIKey) error {
	query := `
		INSERT INTO api_keys (id, consumer_id, name, key_hash, key_prefix, service_ids,
			status, ttl_days, expires_at, created_at, revoked_at, revoked_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			revoked_at = EXCLUDED.revoked_at,
			revoked_by = EXCLUDED.revoked_by
	`

	_, err := r.db.ExecContext(ctx, query,
		k.ID, k.ConsumerID, k.Name, k.KeyHash, k.KeyPrefix, pq.Array(k.ServiceIDs),
		k.Status, k.TTLDays, k.ExpiresAt, k.CreatedAt, k.RevokedAt, k.RevokedBy,
	)
	return err
}

// ListAPIKeysByConsumer retrieves a consumer's keys ordered by creation time.
func (r *APIKeyRepository) ListAPIKeysByConsumer(ctx context.Context, consumerID string) ([]*models.APIKey, error) {
	query := `SELECT ` + apiKeyColumns + ` FROM api_keys WHERE consumer_id = $1 ORDER BY created_at, id`
	return r.queryAPIKeys(ctx, query, consumerID)
}

// ListAPIKeysByPrefix retrieves the candidate keys sharing a display prefix.
func (r *APIKeyRepository) ListAPIKeysByPrefix(ctx context.Context, keyPrefix string) ([]*models.APIKey, error) {
	query := `SELECT ` + apiKeyColumns + ` FROM api_keys WHERE key_prefix = $1 ORDER BY created_at, id`
	return r.queryAPIKeys(ctx, query, keyPrefix)
}

// ListAPIKeys retrieves every key, for the expiry sweeper.
func (r *APIKeyRepository) ListAPIKeys(ctx context.Context) ([]*models.APIKey, error) {
	query := `SELECT ` + apiKeyColumns + ` FROM api_keys ORDER BY created_at, id`
	return r.queryAPIKeys(ctx, query)
}

func (r *APIKeyRepository) queryAPIKeys(ctx context.Context, query string, args ...interface{}) ([]*models.APIKey, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := make([]*models.APIKey, 0)
	for rows.Next() {
		key, err := scanAPIKey(rows)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

func scanAPIKey(row rowScanner) (*models.APIKey, error) {
	k := &models.APIKey{}
	var serviceIDs pq.StringArray
	var expiresAt sql.NullTime

	err := row.Scan(
		&k.ID, &k.ConsumerID, &k.Name, &k.KeyHash, &k.KeyPrefix, &serviceIDs,
		&k.Status, &k.TTLDays, &expiresAt, &k.CreatedAt, &k.RevokedAt, &k.RevokedBy,
	)
	if err != nil {
		return nil, err
	}

	k.ServiceIDs = serviceIDs
	if expiresAt.Valid {
		k.ExpiresAt = expiresAt.Time
	}
	return k, nil
}
