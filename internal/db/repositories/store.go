// store.go composes the per-entity repositories into the full persistence
// surface the engine is wired with when store.driver=postgres.
package repositories

import (
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/service-marketplace/service-marketplace/internal/store"
)

// Store is the Postgres-backed store.Store implementation.
type Store struct {
	*UserRepository
	*ServiceRepository
	*AccessRequestRepository
	*APIKeyRepository
	*ServiceBlockRepository
	*DockerImageRepository
	*UsageRepository
	*AuditRepository
}

var _ store.Store = (*Store)(nil)

// NewStore wires every repository over one connection pool.
func NewStore(db *sql.DB) *Store {
	sqlxDB := sqlx.NewDb(db, "postgres")
	return &Store{
		UserRepository:          NewUserRepository(db),
		ServiceRepository:       NewServiceRepository(db),
		AccessRequestRepository: NewAccessRequestRepository(db),
		APIKeyRepository:        NewAPIKeyRepository(db),
		ServiceBlockRepository:  NewServiceBlockRepository(db),
		DockerImageRepository:   NewDockerImageRepository(db),
		UsageRepository:         NewUsageRepository(sqlxDB),
		AuditRepository:         NewAuditRepository(db),
	}
}
