// Package store defines the persistence boundary for the marketplace engine.
//
// The engine components (lifecycle, credentials, consumption, query) depend on
// these interfaces, never on a concrete backend. Two implementations exist:
// the in-memory Memory store in this package (the mocked-backend deployment
// mode, also used by engine tests and seedable with fixture data) and the
// Postgres repositories in internal/db/repositories.
//
// Lookup methods return (nil, nil) when the entity does not exist; an error
// is reserved for infrastructure failures. Callers receive copies and must
// Put an entity back to persist a mutation.
package store

import (
	"context"
	"time"

	"github.com/service-marketplace/service-marketplace/internal/db/models"
)

// UserStore persists users and their role profiles.
type UserStore interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	PutUser(ctx context.Context, u *models.User) error
	GetMerchantProfile(ctx context.Context, userID string) (*models.MerchantProfile, error)
	PutMerchantProfile(ctx context.Context, p *models.MerchantProfile) error
	GetConsumerProfile(ctx context.Context, userID string) (*models.ConsumerProfile, error)
	PutConsumerProfile(ctx context.Context, p *models.ConsumerProfile) error
	ListMerchantProfiles(ctx context.Context) ([]*models.MerchantProfile, error)
}

// ServiceStore persists services.
type ServiceStore interface {
	GetService(ctx context.Context, id string) (*models.Service, error)
	PutService(ctx context.Context, s *models.Service) error
	ListServices(ctx context.Context) ([]*models.Service, error)
	ListServicesByMerchant(ctx context.Context, merchantID string) ([]*models.Service, error)
}

// AccessRequestStore persists access requests.
type AccessRequestStore interface {
	GetAccessRequest(ctx context.Context, id string) (*models.AccessRequest, error)
	PutAccessRequest(ctx context.Context, r *models.AccessRequest) error
	ListAccessRequestsByConsumer(ctx context.Context, consumerID string) ([]*models.AccessRequest, error)
	ListAccessRequestsByService(ctx context.Context, serviceID string) ([]*models.AccessRequest, error)
	// FindPendingAccessRequest returns the pending request for the pair, if any.
	FindPendingAccessRequest(ctx context.Context, consumerID, serviceID string) (*models.AccessRequest, error)
}

// APIKeyStore persists API keys. Secrets are stored only as bcrypt hashes;
// ListAPIKeysByPrefix narrows candidates for a presented secret.
type APIKeyStore interface {
	GetAPIKey(ctx context.Context, id string) (*models.APIKey, error)
	PutAPIKey(ctx context.Context, k *models.APIKey) error
	ListAPIKeysByConsumer(ctx context.Context, consumerID string) ([]*models.APIKey, error)
	ListAPIKeysByPrefix(ctx context.Context, keyPrefix string) ([]*models.APIKey, error)
	ListAPIKeys(ctx context.Context) ([]*models.APIKey, error)
}

// ServiceBlockStore persists the per-service consumer-block relation.
// Blocks are a membership relation, not a lifecycle: unblocking removes the
// membership rather than flipping a status field.
type ServiceBlockStore interface {
	GetServiceBlock(ctx context.Context, consumerID, serviceID string) (*models.ServiceBlock, error)
	PutServiceBlock(ctx context.Context, b *models.ServiceBlock) error
	RemoveServiceBlock(ctx context.Context, consumerID, serviceID string) (bool, error)
	ListServiceBlocksByService(ctx context.Context, serviceID string) ([]*models.ServiceBlock, error)
}

// DockerImageStore persists docker images.
type DockerImageStore interface {
	GetDockerImage(ctx context.Context, id string) (*models.DockerImage, error)
	PutDockerImage(ctx context.Context, img *models.DockerImage) error
	ListDockerImagesByService(ctx context.Context, serviceID string) ([]*models.DockerImage, error)
}

// UsageFilter narrows usage queries. Nil fields match everything.
type UsageFilter struct {
	ConsumerID *string
	APIKeyID   *string
	ServiceID  *string
	Since      *time.Time
}

// UsageStore appends and counts usage records.
type UsageStore interface {
	AppendUsage(ctx context.Context, rec *models.UsageRecord) error
	ListUsage(ctx context.Context, f UsageFilter) ([]*models.UsageRecord, error)
	// CountUsageSince counts this key's records against a service at or after
	// since. Backs the trailing-window rate limit.
	CountUsageSince(ctx context.Context, apiKeyID, serviceID string, since time.Time) (int, error)
}

// AuditFilter narrows audit log queries. Nil fields match everything.
type AuditFilter struct {
	ActorID    *string
	Action     *models.AuditAction
	TargetType *models.TargetType
	From       *time.Time
	To         *time.Time
}

// AuditLogStore appends and reads the immutable audit trail.
type AuditLogStore interface {
	AppendAuditLog(ctx context.Context, entry *models.AuditLog) error
	ListAuditLogs(ctx context.Context, f AuditFilter, limit, offset int) ([]*models.AuditLog, int, error)
}

// Store is the full persistence surface the engine is wired with.
type Store interface {
	UserStore
	ServiceStore
	AccessRequestStore
	APIKeyStore
	ServiceBlockStore
	DockerImageStore
	UsageStore
	AuditLogStore
}
