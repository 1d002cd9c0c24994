package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"profile-server/pkg/container"

	"github.com/redis/go-redis/v9"
	"github.com/redis/go-redis/v9/maintnotifications"
)

// HealthChecker performs startup health checks
type HealthChecker struct {
	checks []check
}

type check struct {
	name string
	fn   func(ctx context.Context) error
}

// startServices performs health checks and starts the health endpoint
func startServices(c *container.Container) error {
	log.Println("============================================")
	log.Println("🚀 Profile Worker Starting...")
	log.Println("============================================")

	// asynq cần Redis thật, không fallback như cache của api
	redisClient := redis.NewClient(&redis.Options{
		Addr:     c.Config.Redis.Host,
		Password: c.Config.Redis.Password,
		DB:       c.Config.Redis.DB,
		MaintNotificationsConfig: &maintnotifications.Config{
			Mode: maintnotifications.ModeDisabled,
		},
	})

	checker := &HealthChecker{}
	checker.add("Redis Connection", func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})
	if c.DB != nil {
		checker.add("PostgreSQL", c.DB.Ping)
	}

	if err := checker.checkAll(); err != nil {
		log.Printf("❌ Health check failed: %v\n", err)
		return err
	}

	go startHealthCheckServer(checker)
	return nil
}

func (h *HealthChecker) add(name string, fn func(ctx context.Context) error) {
	h.checks = append(h.checks, check{name: name, fn: fn})
}

// checkAll runs all health checks
func (h *HealthChecker) checkAll() error {
	for _, chk := range h.checks {
		log.Printf("⏳ Checking %s...\n", chk.name)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := chk.fn(ctx)
		cancel()
		if err != nil {
			log.Printf("❌ %s: %v\n", chk.name, err)
			return fmt.Errorf("%s failed: %w", chk.name, err)
		}
		log.Printf("✓ %s: OK\n", chk.name)
	}
	return nil
}

// startHealthCheckServer serves /health and /ready on :9999
func startHealthCheckServer(checker *HealthChecker) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"UP","service":"profile-worker"}`))
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := checker.checkAll(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"NOT_READY"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"READY"}`))
	})

	log.Println("[Health] Starting health check server on :9999")
	if err := http.ListenAndServe(":9999", mux); err != nil {
		log.Printf("[Health] Failed to start: %v\n", err)
	}
}
