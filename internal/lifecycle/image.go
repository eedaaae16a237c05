// image.go implements the docker image state machine:
//
//	active → deprecated (deprecate)
//	active, deprecated → disabled (disable; terminal)
package lifecycle

import (
	"context"
	"fmt"

	"github.com/service-marketplace/service-marketplace/internal/audit"
	"github.com/service-marketplace/service-marketplace/internal/db/models"
)

// DeprecateImage moves an active image to deprecated.
func (m *Manager) DeprecateImage(ctx context.Context, actor audit.Actor, imageID string) (*models.DockerImage, error) {
	return m.transitionImage(ctx, actor, imageID,
		[]models.DockerImageStatus{models.ImageActive},
		models.ImageDeprecated, models.ActionImageDeprecated, "Deprecated image")
}

// DisableImage moves an active or deprecated image to disabled, the terminal
// state.
func (m *Manager) DisableImage(ctx context.Context, actor audit.Actor, imageID string) (*models.DockerImage, error) {
	return m.transitionImage(ctx, actor, imageID,
		[]models.DockerImageStatus{models.ImageActive, models.ImageDeprecated},
		models.ImageDisabled, models.ActionImageDisabled, "Disabled image")
}

func (m *Manager) transitionImage(ctx context.Context, actor audit.Actor, imageID string, from []models.DockerImageStatus, to models.DockerImageStatus, action models.AuditAction, desc string) (*models.DockerImage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	img, err := m.store.GetDockerImage(ctx, imageID)
	if err != nil {
		return nil, err
	}
	if img == nil {
		return nil, nil
	}
	allowed := false
	for _, s := range from {
		if img.Status == s {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, nil
	}

	img.Status = to
	if err := m.store.PutDockerImage(ctx, img); err != nil {
		return nil, err
	}
	m.record(ctx, actor, action, imageID, models.TargetDockerImage,
		fmt.Sprintf("%s %s:%s", desc, img.Name, img.Tag))
	return img, nil
}
