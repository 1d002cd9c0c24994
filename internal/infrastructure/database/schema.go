package database

import (
	"context"
	_ "embed"
	"fmt"
	"log"
)

//go:embed sql/schema.sql
var schemaSQL string

// EnsureSchema tạo các bảng nếu chưa tồn tại. Statements đều idempotent
// nên gọi mỗi lần khởi động là an toàn.
func (db *PostgresDB) EnsureSchema(ctx context.Context) error {
	if db.Pool == nil {
		return fmt.Errorf("database pool is not initialized")
	}
	if _, err := db.Pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	log.Println("[DATABASE] Schema is up to date")
	return nil
}
