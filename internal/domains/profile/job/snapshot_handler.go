package job

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"profile-server/internal/domains/profile/model"
	"profile-server/internal/domains/profile/service"
	"profile-server/internal/infrastructure/storage"
	"profile-server/internal/shared"
	"profile-server/pkg/metrics"
)

// ContentTypeJSONLD is stored with every snapshot object
const ContentTypeJSONLD = "application/ld+json"

// Exporter renders a version as JSON-LD. Implemented by the profile service.
type Exporter interface {
	Export(ctx context.Context, actor shared.Actor, id uuid.UUID) (*service.ExportResult, error)
}

// ================================================
// EXPORT SNAPSHOT JOB HANDLER
// ================================================

// ExportSnapshotHandler lưu bản JSON-LD của version đã publish vào object store
type ExportSnapshotHandler struct {
	exporter Exporter
	store    storage.ObjectStore
	metrics  *metrics.Metrics
}

func NewExportSnapshotHandler(exporter Exporter, store storage.ObjectStore, m *metrics.Metrics) *ExportSnapshotHandler {
	return &ExportSnapshotHandler{exporter: exporter, store: store, metrics: m}
}

func (h *ExportSnapshotHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload shared.ExportSnapshotPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		log.Error().Err(err).Msg("Failed to unmarshal ExportSnapshot payload")
		return fmt.Errorf("unmarshal payload: %w: %w", err, asynq.SkipRetry)
	}

	err := h.archive(ctx, payload)
	h.metrics.RecordSnapshotJob(err)
	return err
}

func (h *ExportSnapshotHandler) archive(ctx context.Context, payload shared.ExportSnapshotPayload) error {
	// public actor: drafts are never archived
	doc, err := h.exporter.Export(ctx, shared.PublicActor(), payload.VersionID)
	if err != nil {
		if model.IsNotFound(err) {
			log.Warn().Str("version_id", payload.VersionID.String()).Msg("Version gone or still a draft, snapshot skipped")
			return fmt.Errorf("export version: %w: %w", err, asynq.SkipRetry)
		}
		return fmt.Errorf("export version: %w", err)
	}

	key := storage.SnapshotKey(payload.ProfileID, payload.Version)
	if err := h.store.Upload(ctx, key, doc.Body, ContentTypeJSONLD); err != nil {
		log.Error().Err(err).Str("key", key).Msg("Failed to upload snapshot")
		return fmt.Errorf("upload snapshot: %w", err)
	}

	log.Info().
		Str("profile_id", payload.ProfileID.String()).
		Int("version", payload.Version).
		Str("key", key).
		Int("bytes", len(doc.Body)).
		Msg("Snapshot archived")
	return nil
}
