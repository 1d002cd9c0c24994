package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"profile-server/internal/config"
	"profile-server/pkg/container"
	"profile-server/pkg/logger"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, using system environment variables")
	}

	c, err := container.NewContainer()
	if err != nil {
		log.Fatalf("[Container] Failed to initialize: %v", err)
	}
	defer c.Cleanup()
	logger.Init(c.Config.App.Environment)

	if c.Config.Store.Driver == config.StoreDriverMemory {
		log.Println("⚠️  Worker is using its own in-memory store; it cannot see profiles written by the api")
	}

	handlers := initializeHandlers(c)
	srv := setupAsynqServer(c.RedisOpt(), handlers)
	scheduler := setupScheduler(c.RedisOpt(), c.Config.Jobs)

	if err := startServices(c); err != nil {
		log.Fatalf("[Startup] Health check failed: %v", err)
	}

	waitForShutdown(srv, scheduler)
}

func waitForShutdown(srv *asynqServer, scheduler *asynqScheduler) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("[Shutdown] Gracefully stopping...")
	scheduler.Shutdown()
	srv.Shutdown()
	log.Println("[Shutdown] ✓ Stopped")
}
