// user_repository.go implements UserRepository, providing database queries for
// users and their merchant/consumer role profiles.
package repositories

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"github.com/service-marketplace/service-marketplace/internal/db/models"
)

// UserRepository handles user and profile database operations
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetUser retrieves a user by ID. Returns (nil, nil) when not found.
func (r *UserRepository) GetUser(ctx context.Context, id string) (*models.User, error) {
	query := `
		SELECT id, email, name, roles, active_role, created_at
		FROM users
		WHERE id = $1
	`

	u := &models.User{}
	var roles pq.StringArray
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&u.ID, &u.Email, &u.Name, &roles, &u.ActiveRole, &u.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	u.Roles = rolesFromStrings(roles)
	return u, nil
}

// PutUser inserts or updates a user.
func (r *UserRepository) PutUser(ctx context.Context, u *models.User) error {
	query := `
		INSERT INTO users (id, email, name, roles, active_role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			name = EXCLUDED.name,
			roles = EXCLUDED.roles,
			active_role = EXCLUDED.active_role
	`

	_, err := r.db.ExecContext(ctx, query,
		u.ID, u.Email, u.Name, pq.Array(rolesToStrings(u.Roles)), u.ActiveRole, u.CreatedAt,
	)
	return err
}

// GetMerchantProfile retrieves the merchant profile for a user.
func (r *UserRepository) GetMerchantProfile(ctx context.Context, userID string) (*models.MerchantProfile, error) {
	query := `
		SELECT user_id, company_name, status, invited_at, flagged_for_review, subscriptions_blocked
		FROM merchant_profiles
		WHERE user_id = $1
	`

	p := &models.MerchantProfile{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&p.UserID, &p.CompanyName, &p.Status, &p.InvitedAt, &p.FlaggedForReview, &p.SubscriptionsBlocked,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// PutMerchantProfile inserts or updates a merchant profile.
func (r *UserRepository) PutMerchantProfile(ctx context.Context, p *models.MerchantProfile) error {
	query := `
		INSERT INTO merchant_profiles (user_id, company_name, status, invited_at, flagged_for_review, subscriptions_blocked)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE SET
			company_name = EXCLUDED.company_name,
			status = EXCLUDED.status,
			flagged_for_review = EXCLUDED.flagged_for_review,
			subscriptions_blocked = EXCLUDED.subscriptions_blocked
	`

	_, err := r.db.ExecContext(ctx, query,
		p.UserID, p.CompanyName, p.Status, p.InvitedAt, p.FlaggedForReview, p.SubscriptionsBlocked,
	)
	return err
}

// GetConsumerProfile retrieves the consumer profile for a user.
func (r *UserRepository) GetConsumerProfile(ctx context.Context, userID string) (*models.ConsumerProfile, error) {
	query := `
		SELECT user_id, organization, status
		FROM consumer_profiles
		WHERE user_id = $1
	`

	p := &models.ConsumerProfile{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&p.UserID, &p.Organization, &p.Status)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// PutConsumerProfile inserts or updates a consumer profile.
func (r *UserRepository) PutConsumerProfile(ctx context.Context, p *models.ConsumerProfile) error {
	query := `
		INSERT INTO consumer_profiles (user_id, organization, status)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET
			organization = EXCLUDED.organization,
			status = EXCLUDED.status
	`

	_, err := r.db.ExecContext(ctx, query, p.UserID, p.Organization, p.Status)
	return err
}

// ListMerchantProfiles retrieves all merchant profiles ordered by user ID.
func (r *UserRepository) ListMerchantProfiles(ctx context.Context) ([]*models.MerchantProfile, error) {
	query := `
		SELECT user_id, company_name, status, invited_at, flagged_for_review, subscriptions_blocked
		FROM merchant_profiles
		ORDER BY user_id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	profiles := make([]*models.MerchantProfile, 0)
	for rows.Next() {
		p := &models.MerchantProfile{}
		if err := rows.Scan(&p.UserID, &p.CompanyName, &p.Status, &p.InvitedAt, &p.FlaggedForReview, &p.SubscriptionsBlocked); err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

func rolesToStrings(roles []models.Role) []string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}

func rolesFromStrings(ss []string) []models.Role {
	out := make([]models.Role, len(ss))
	for i, s := range ss {
		out[i] = models.Role(s)
	}
	return out
}
