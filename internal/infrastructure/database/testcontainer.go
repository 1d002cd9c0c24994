//go:build integration

package database

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// StartTestPostgres runs a throwaway postgres container with the schema
// applied. The container is removed when the test ends.
func StartTestPostgres(t *testing.T) *PostgresDB {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "profiles",
			"POSTGRES_PASSWORD": "secret",
			"POSTGRES_DB":       "profiles",
		},
		// postgres restarts once after initdb
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(90 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("failed to get mapped port: %v", err)
	}
	portNum, _ := strconv.Atoi(port.Port())

	db := NewPostgresDB(&DBConfig{
		Host:           host,
		Port:           portNum,
		Username:       "profiles",
		Password:       "secret",
		DBName:         "profiles",
		SSLMode:        "disable",
		MaxConns:       10,
		MaxRetries:     5,
		RetryDelay:     500 * time.Millisecond,
		ConnectTimeout: 5 * time.Second,
	})
	if err := db.Connect(ctx); err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := db.EnsureSchema(ctx); err != nil {
		t.Fatalf("failed to apply schema: %v", err)
	}
	return db
}
