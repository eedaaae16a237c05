// images.go implements the docker image endpoints: listing per service and
// the admin deprecate/disable transitions.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/service-marketplace/service-marketplace/internal/db/models"
	"github.com/service-marketplace/service-marketplace/internal/lifecycle"
	"github.com/service-marketplace/service-marketplace/internal/store"
)

// ImageHandlers handles docker image endpoints.
type ImageHandlers struct {
	lc    *lifecycle.Manager
	store store.Store
}

// NewImageHandlers creates an ImageHandlers instance.
func NewImageHandlers(lc *lifecycle.Manager, st store.Store) *ImageHandlers {
	return &ImageHandlers{lc: lc, store: st}
}

// ListForService returns the images published for one service.
// GET /api/v1/services/:id/images
func (h *ImageHandlers) ListForService(c *gin.Context) {
	serviceID := c.Param("id")

	svc, err := h.store.GetService(c.Request.Context(), serviceID)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	if svc == nil {
		respondNotFound(c, "service not found")
		return
	}

	images, err := h.store.ListDockerImagesByService(c.Request.Context(), serviceID)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	out := make([]gin.H, 0, len(images))
	for _, img := range images {
		out = append(out, imageView(img))
	}
	c.JSON(http.StatusOK, gin.H{"images": out})
}

// Deprecate moves an active image to deprecated.
// POST /api/v1/admin/images/:id/deprecate
func (h *ImageHandlers) Deprecate(c *gin.Context) {
	h.transition(c, true)
}

// Disable moves an active or deprecated image to disabled.
// POST /api/v1/admin/images/:id/disable
func (h *ImageHandlers) Disable(c *gin.Context) {
	h.transition(c, false)
}

func (h *ImageHandlers) transition(c *gin.Context, deprecate bool) {
	imageID := c.Param("id")
	actor := requestActor(c, h.store)

	var (
		img *models.DockerImage
		err error
	)
	if deprecate {
		img, err = h.lc.DeprecateImage(c.Request.Context(), actor, imageID)
	} else {
		img, err = h.lc.DisableImage(c.Request.Context(), actor, imageID)
	}
	if err != nil {
		respondStoreError(c, err)
		return
	}
	if img == nil {
		existing, err := h.store.GetDockerImage(c.Request.Context(), imageID)
		if err != nil {
			respondStoreError(c, err)
			return
		}
		if existing == nil {
			respondNotFound(c, "image not found")
			return
		}
		respondConflict(c, "image is not in a state that allows this operation")
		return
	}
	c.JSON(http.StatusOK, imageView(img))
}
