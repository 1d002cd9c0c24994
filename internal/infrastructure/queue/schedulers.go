package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"profile-server/internal/config"
	"profile-server/internal/shared"
	"profile-server/pkg/logger"

	"github.com/hibiken/asynq"
)

// Scheduler đăng ký các periodic task của worker
type Scheduler struct {
	scheduler *asynq.Scheduler
	jobConfig config.JobConfig
}

func NewScheduler(redis asynq.RedisConnOpt, jobConfig config.JobConfig) *Scheduler {
	scheduler := asynq.NewScheduler(redis, &asynq.SchedulerOpts{
		Location: time.UTC,
		LogLevel: asynq.InfoLevel,
	})

	return &Scheduler{
		scheduler: scheduler,
		jobConfig: jobConfig,
	}
}

// RegisterJobs registers every scheduled job
func (s *Scheduler) RegisterJobs() error {
	return s.registerArchiveSnapshotsJob()
}

// ================================================
// Archive snapshot sweep (mặc định 3:30 AM mỗi ngày)
// ================================================
func (s *Scheduler) registerArchiveSnapshotsJob() error {
	payload, err := json.Marshal(shared.ArchiveSnapshotsPayload{Limit: s.jobConfig.ArchiveSweepLimit})
	if err != nil {
		return err
	}

	task := asynq.NewTask(shared.TypeArchiveSnapshots, payload)
	_, err = s.scheduler.Register(
		s.jobConfig.ArchiveSweepCron,
		task,
		asynq.Queue(shared.QueueProfile),
		asynq.MaxRetry(1),
		asynq.Timeout(10*time.Minute),
	)
	if err != nil {
		logger.Error("Failed to register ArchiveSnapshots job", err)
		return fmt.Errorf("register archive snapshots job: %w", err)
	}

	logger.Info("✓ Registered ArchiveSnapshots job", map[string]interface{}{
		"cron":  s.jobConfig.ArchiveSweepCron,
		"limit": s.jobConfig.ArchiveSweepLimit,
	})
	return nil
}

func (s *Scheduler) Start() error {
	return s.scheduler.Run()
}

func (s *Scheduler) Shutdown() {
	s.scheduler.Shutdown()
}
