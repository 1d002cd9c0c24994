package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"profile-server/pkg/container"
)

const shutdownTimeout = 15 * time.Second

// Serve chạy HTTP server cho tới khi ctx bị cancel (SIGINT/SIGTERM)
func Serve(ctx context.Context) error {
	appContainer, err := container.NewContainer()
	if err != nil {
		return fmt.Errorf("initialize container: %w", err)
	}
	defer appContainer.Cleanup()

	cfg := appContainer.Config
	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           SetupRouter(appContainer),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second, // import lớn cần thời gian
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Printf("🚀 %s v%s listening on :%s (store: %s)", cfg.App.Name, cfg.App.Version, cfg.App.Port, cfg.Store.Driver)
		log.Printf("🔗 Generated profile IRIs under %s", cfg.Profile.IRIBase)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Println("🛑 Signal received, draining connections...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	log.Println("✅ Server exited gracefully")
	return nil
}
