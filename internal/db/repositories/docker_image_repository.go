// docker_image_repository.go implements DockerImageRepository.
package repositories

import (
	"context"
	"database/sql"

	"github.com/service-marketplace/service-marketplace/internal/db/models"
)

// DockerImageRepository handles docker image database operations
type DockerImageRepository struct {
	db *sql.DB
}

// NewDockerImageRepository creates a new DockerImageRepository
func NewDockerImageRepository(db *sql.DB) *DockerImageRepository {
	return &DockerImageRepository{db: db}
}

const dockerImageColumns = `id, service_id, name, tag, status, licensing_model, license_status, created_at`

// GetDockerImage retrieves an image by ID. Returns (nil, nil) when not found.
func (r *DockerImageRepository) GetDockerImage(ctx context.Context, id string) (*models.DockerImage, error) {
	query := `SELECT ` + dockerImageColumns + ` FROM docker_images WHERE id = $1`

	img := &models.DockerImage{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&img.ID, &img.ServiceID, &img.Name, &img.Tag, &img.Status,
		&img.LicensingModel, &img.LicenseStatus, &img.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return img, nil
}

// PutDockerImage inserts or updates an image.
func (r *DockerImageRepository) PutDockerImage(ctx context.Context, img *models.DockerImage) error {
	query := `
		INSERT INTO docker_images (id, service_id, name, tag, status, licensing_model, license_status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			licensing_model = EXCLUDED.licensing_model,
			license_status = EXCLUDED.license_status
	`

	_, err := r.db.ExecContext(ctx, query,
		img.ID, img.ServiceID, img.Name, img.Tag, img.Status,
		img.LicensingModel, img.LicenseStatus, img.CreatedAt,
	)
	return err
}

// ListDockerImagesByService retrieves a service's images ordered by ID.
func (r *DockerImageRepository) ListDockerImagesByService(ctx context.Context, serviceID string) ([]*models.DockerImage, error) {
	query := `SELECT ` + dockerImageColumns + ` FROM docker_images WHERE service_id = $1 ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, serviceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	images := make([]*models.DockerImage, 0)
	for rows.Next() {
		img := &models.DockerImage{}
		if err := rows.Scan(&img.ID, &img.ServiceID, &img.Name, &img.Tag, &img.Status,
			&img.LicensingModel, &img.LicenseStatus, &img.CreatedAt); err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, rows.Err()
}
