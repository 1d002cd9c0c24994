package handler

import (
	"errors"
	"net/http"

	"profile-server/internal/domains/profile/model"
	"profile-server/internal/domains/profile/service"
	"profile-server/internal/infrastructure/storage"
	"profile-server/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// SnapshotHandler serves archived documents from the object store
type SnapshotHandler struct {
	service service.ServiceInterface
	store   storage.ObjectStore
}

func NewSnapshotHandler(s service.ServiceInterface, store storage.ObjectStore) *SnapshotHandler {
	return &SnapshotHandler{service: s, store: store}
}

// GetSnapshot handles GET /profile/:profile/snapshot
func (h *SnapshotHandler) GetSnapshot(c *gin.Context) {
	id, ok := profileParam(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	resolved, err := h.service.Resolve(ctx, middleware.CurrentActor(c), id)
	if err != nil {
		handleError(c, err)
		return
	}
	version := resolved.ProfileVersion
	if version.IsDraft() {
		handleError(c, model.NewNotFound("Snapshot"))
		return
	}

	body, err := h.store.Download(ctx, storage.SnapshotKey(version.ProfileID, version.Version))
	if errors.Is(err, storage.ErrObjectNotFound) {
		handleError(c, model.NewNotFound("Snapshot"))
		return
	}
	if err != nil {
		handleError(c, model.NewInternal("Failed to read snapshot", err))
		return
	}
	c.Data(http.StatusOK, ContentTypeJSONLD, body)
}
