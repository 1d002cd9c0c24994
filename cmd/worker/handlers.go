package main

import (
	"github.com/hibiken/asynq"

	profileJob "profile-server/internal/domains/profile/job"
	"profile-server/internal/shared"
	"profile-server/pkg/container"
)

// HandlerRegistry holds all job handlers
type HandlerRegistry struct {
	exportSnapshot   *profileJob.ExportSnapshotHandler
	archiveSnapshots *profileJob.ArchiveSnapshotsHandler
}

// initializeHandlers creates all job handlers with their dependencies
func initializeHandlers(c *container.Container) *HandlerRegistry {
	return &HandlerRegistry{
		exportSnapshot:   profileJob.NewExportSnapshotHandler(c.ProfileService, c.SnapshotStore, c.Metrics),
		archiveSnapshots: profileJob.NewArchiveSnapshotsHandler(c.ProfileRepo, c.SnapshotStore, c.AsynqClient),
	}
}

// RegisterHandlers registers all handlers with the mux
func (h *HandlerRegistry) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(shared.TypeExportSnapshot, h.exportSnapshot.ProcessTask)
	mux.HandleFunc(shared.TypeArchiveSnapshots, h.archiveSnapshots.ProcessTask)
}
