package main

import (
	"context"
	"log"

	"github.com/hibiken/asynq"

	"profile-server/internal/shared"
)

// asynqServer wraps asynq.Server
type asynqServer struct {
	*asynq.Server
}

// setupAsynqServer creates the server and starts consuming in the background
func setupAsynqServer(redis asynq.RedisConnOpt, handlers *HandlerRegistry) *asynqServer {
	mux := asynq.NewServeMux()
	handlers.RegisterHandlers(mux)

	srv := asynq.NewServer(redis, asynq.Config{
		Queues: map[string]int{
			shared.QueueProfile: 10,
			"default":           1,
		},
		Concurrency: 10,
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			log.Printf("[Asynq] ❌ Task failed - Type: %s, Error: %v", task.Type(), err)
		}),
	})

	go func() {
		log.Println("[Worker] Starting...")
		if err := srv.Run(mux); err != nil {
			log.Fatalf("[Worker] Failed: %v", err)
		}
	}()

	return &asynqServer{Server: srv}
}

// Shutdown waits for in-flight tasks (asynq's ShutdownTimeout, 8s by default)
func (s *asynqServer) Shutdown() {
	log.Println("[Worker] Shutting down...")
	s.Server.Shutdown()
	log.Println("[Worker] ✓ Gracefully stopped")
}
