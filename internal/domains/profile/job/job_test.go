package job

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"profile-server/internal/domains/profile/model"
	"profile-server/internal/domains/profile/service"
	"profile-server/internal/infrastructure/storage"
	"profile-server/internal/shared"
	"profile-server/pkg/metrics"
)

type fakeExporter struct {
	docs  map[uuid.UUID][]byte
	calls int
}

func (f *fakeExporter) Export(_ context.Context, actor shared.Actor, id uuid.UUID) (*service.ExportResult, error) {
	f.calls++
	if !actor.IsPublic() {
		return nil, errors.New("snapshots are rendered as the public")
	}
	doc, ok := f.docs[id]
	if !ok {
		return nil, model.NewNotFound("Profile")
	}
	return &service.ExportResult{Body: doc}, nil
}

type fakeVersions map[model.State][]*model.ProfileVersion

func (f fakeVersions) ListVersionsByState(_ context.Context, state model.State, limit int) ([]*model.ProfileVersion, error) {
	out := f[state]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeQueue struct {
	tasks []*asynq.Task
	seen  map[string]bool
}

func (q *fakeQueue) Enqueue(task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	var p shared.ExportSnapshotPayload
	_ = json.Unmarshal(task.Payload(), &p)
	if q.seen[p.VersionID.String()] {
		return nil, asynq.ErrTaskIDConflict
	}
	q.seen[p.VersionID.String()] = true
	q.tasks = append(q.tasks, task)
	return &asynq.TaskInfo{}, nil
}

func snapshotTask(t *testing.T, p shared.ExportSnapshotPayload) *asynq.Task {
	t.Helper()
	raw, err := json.Marshal(p)
	require.NoError(t, err)
	return asynq.NewTask(shared.TypeExportSnapshot, raw)
}

func TestExportSnapshotUploadsDocument(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStorage()
	versionID, profileID := uuid.New(), uuid.New()
	exporter := &fakeExporter{docs: map[uuid.UUID][]byte{versionID: []byte(`{"id":"https://example.org/p"}`)}}
	h := NewExportSnapshotHandler(exporter, store, metrics.New())

	err := h.ProcessTask(ctx, snapshotTask(t, shared.ExportSnapshotPayload{ProfileID: profileID, VersionID: versionID, Version: 3}))
	require.NoError(t, err)

	key := storage.SnapshotKey(profileID, 3)
	got, err := store.Download(ctx, key)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"https://example.org/p"}`, string(got))
	assert.Equal(t, ContentTypeJSONLD, store.ContentType(key))
}

func TestExportSnapshotSkipsMissingVersions(t *testing.T) {
	h := NewExportSnapshotHandler(&fakeExporter{}, storage.NewMemoryStorage(), nil)

	err := h.ProcessTask(context.Background(), snapshotTask(t, shared.ExportSnapshotPayload{VersionID: uuid.New(), Version: 1}))
	require.Error(t, err)
	assert.ErrorIs(t, err, asynq.SkipRetry)

	err = h.ProcessTask(context.Background(), asynq.NewTask(shared.TypeExportSnapshot, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestArchiveSweepEnqueuesMissingSnapshots(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStorage()
	profileID := uuid.New()
	archived := &model.ProfileVersion{ID: uuid.New(), ProfileID: profileID, Version: 1, State: model.StateDeprecated}
	missing := &model.ProfileVersion{ID: uuid.New(), ProfileID: profileID, Version: 2, State: model.StatePublished}
	require.NoError(t, store.Upload(ctx, storage.SnapshotKey(profileID, 1), []byte(`{}`), ContentTypeJSONLD))

	queue := &fakeQueue{seen: map[string]bool{}}
	h := NewArchiveSnapshotsHandler(fakeVersions{
		model.StatePublished:  {missing},
		model.StateDeprecated: {archived},
	}, store, queue)

	require.NoError(t, h.ProcessTask(ctx, asynq.NewTask(shared.TypeArchiveSnapshots, nil)))
	require.Len(t, queue.tasks, 1)

	var payload shared.ExportSnapshotPayload
	require.NoError(t, json.Unmarshal(queue.tasks[0].Payload(), &payload))
	assert.Equal(t, missing.ID, payload.VersionID)
	assert.Equal(t, 2, payload.Version)

	// a second sweep while the task is still queued is a no-op
	require.NoError(t, h.ProcessTask(ctx, asynq.NewTask(shared.TypeArchiveSnapshots, []byte(`{"limit":10}`))))
	assert.Len(t, queue.tasks, 1)
}
