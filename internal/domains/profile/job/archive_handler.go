package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"

	"profile-server/internal/domains/profile/model"
	"profile-server/internal/infrastructure/storage"
	"profile-server/internal/shared"
	"profile-server/pkg/logger"
)

const defaultSweepLimit = 500

// VersionLister is the slice of the profile repository the sweep reads
type VersionLister interface {
	ListVersionsByState(ctx context.Context, state model.State, limit int) ([]*model.ProfileVersion, error)
}

// TaskEnqueuer is satisfied by *asynq.Client
type TaskEnqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// ================================================
// ARCHIVE SNAPSHOTS SWEEP JOB HANDLER
// ================================================

// ArchiveSnapshotsHandler tìm các version published/deprecated chưa có
// snapshot (vd: import) và enqueue export_snapshot cho chúng
type ArchiveSnapshotsHandler struct {
	versions VersionLister
	store    storage.ObjectStore
	tasks    TaskEnqueuer
}

func NewArchiveSnapshotsHandler(versions VersionLister, store storage.ObjectStore, tasks TaskEnqueuer) *ArchiveSnapshotsHandler {
	return &ArchiveSnapshotsHandler{versions: versions, store: store, tasks: tasks}
}

func (h *ArchiveSnapshotsHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	payload := shared.ArchiveSnapshotsPayload{Limit: defaultSweepLimit}
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("unmarshal payload: %w: %w", err, asynq.SkipRetry)
		}
	}
	if payload.Limit <= 0 {
		payload.Limit = defaultSweepLimit
	}

	logger.Info("Starting ArchiveSnapshots sweep", map[string]interface{}{"limit": payload.Limit})

	enqueued := 0
	for _, state := range []model.State{model.StatePublished, model.StateDeprecated} {
		versions, err := h.versions.ListVersionsByState(ctx, state, payload.Limit)
		if err != nil {
			return fmt.Errorf("list %s versions: %w", state, err)
		}
		if len(versions) == payload.Limit {
			logger.Warn("Sweep hit its limit, remaining versions wait for the next run", map[string]interface{}{
				"state": string(state),
				"limit": payload.Limit,
			})
		}
		for _, v := range versions {
			queued, err := h.enqueueMissing(ctx, v)
			if err != nil {
				return err
			}
			if queued {
				enqueued++
			}
		}
	}

	logger.Info("Completed ArchiveSnapshots sweep", map[string]interface{}{"enqueued": enqueued})
	return nil
}

func (h *ArchiveSnapshotsHandler) enqueueMissing(ctx context.Context, v *model.ProfileVersion) (bool, error) {
	exists, err := h.store.Exists(ctx, storage.SnapshotKey(v.ProfileID, v.Version))
	if err != nil {
		return false, fmt.Errorf("check snapshot: %w", err)
	}
	if exists {
		return false, nil
	}

	payload, err := json.Marshal(shared.ExportSnapshotPayload{ProfileID: v.ProfileID, VersionID: v.ID, Version: v.Version})
	if err != nil {
		return false, fmt.Errorf("marshal payload: %w", err)
	}
	task := asynq.NewTask(shared.TypeExportSnapshot, payload)
	_, err = h.tasks.Enqueue(task,
		asynq.Queue(shared.QueueProfile),
		asynq.MaxRetry(3),
		asynq.TaskID("snapshot:"+v.ID.String()),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		// đã có trong queue
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("enqueue snapshot: %w", err)
	}
	return true, nil
}
