// audit_repository.go implements AuditRepository, providing database queries
// for appending and retrieving audit log entries with support for filtered,
// paginated queries. Entries are never updated or deleted.
package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/service-marketplace/service-marketplace/internal/db/models"
	"github.com/service-marketplace/service-marketplace/internal/store"
)

// AuditRepository handles audit log database operations
type AuditRepository struct {
	db *sql.DB
}

// NewAuditRepository creates a new AuditRepository
func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// AppendAuditLog inserts one audit entry.
func (r *AuditRepository) AppendAuditLog(ctx context.Context, entry *models.AuditLog) error {
	query := `
		INSERT INTO audit_logs (id, action, actor_id, actor_name, actor_role, target_id, target_type, description, ts)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.Action, entry.ActorID, entry.ActorName, entry.ActorRole,
		entry.TargetID, entry.TargetType, entry.Description, entry.Timestamp,
	)
	return err
}

// ListAuditLogs retrieves audit entries with optional filters and pagination,
// newest first, along with the total match count.
func (r *AuditRepository) ListAuditLogs(ctx context.Context, f store.AuditFilter, limit, offset int) ([]*models.AuditLog, int, error) {
	countQuery := `SELECT COUNT(*) FROM audit_logs WHERE 1=1`
	query := `
		SELECT id, action, actor_id, actor_name, actor_role, target_id, target_type, description, ts
		FROM audit_logs
		WHERE 1=1
	`

	args := make([]interface{}, 0)
	paramIndex := 1

	if f.ActorID != nil {
		countQuery += fmt.Sprintf(` AND actor_id = $%d`, paramIndex)
		query += fmt.Sprintf(` AND actor_id = $%d`, paramIndex)
		args = append(args, *f.ActorID)
		paramIndex++
	}
	if f.Action != nil {
		countQuery += fmt.Sprintf(` AND action = $%d`, paramIndex)
		query += fmt.Sprintf(` AND action = $%d`, paramIndex)
		args = append(args, *f.Action)
		paramIndex++
	}
	if f.TargetType != nil {
		countQuery += fmt.Sprintf(` AND target_type = $%d`, paramIndex)
		query += fmt.Sprintf(` AND target_type = $%d`, paramIndex)
		args = append(args, *f.TargetType)
		paramIndex++
	}
	if f.From != nil {
		countQuery += fmt.Sprintf(` AND ts >= $%d`, paramIndex)
		query += fmt.Sprintf(` AND ts >= $%d`, paramIndex)
		args = append(args, *f.From)
		paramIndex++
	}
	if f.To != nil {
		countQuery += fmt.Sprintf(` AND ts <= $%d`, paramIndex)
		query += fmt.Sprintf(` AND ts <= $%d`, paramIndex)
		args = append(args, *f.To)
		paramIndex++
	}

	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	// limit <= 0 means uncapped, matching the in-memory store.
	if limit > 0 {
		query += fmt.Sprintf(` ORDER BY ts DESC LIMIT $%d OFFSET $%d`, paramIndex, paramIndex+1)
		args = append(args, limit, offset)
	} else {
		query += fmt.Sprintf(` ORDER BY ts DESC OFFSET $%d`, paramIndex)
		args = append(args, offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	entries := make([]*models.AuditLog, 0)
	for rows.Next() {
		entry := &models.AuditLog{}
		if err := rows.Scan(
			&entry.ID, &entry.Action, &entry.ActorID, &entry.ActorName, &entry.ActorRole,
			&entry.TargetID, &entry.TargetType, &entry.Description, &entry.Timestamp,
		); err != nil {
			return nil, 0, err
		}
		entries = append(entries, entry)
	}
	return entries, total, rows.Err()
}
