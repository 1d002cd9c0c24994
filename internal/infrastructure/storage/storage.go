package storage

import (
	"context"
	"errors"
	"fmt"
)

// ErrObjectNotFound is returned by Download when the key does not exist
var ErrObjectNotFound = errors.New("object not found")

// ObjectStore lưu các file nhị phân theo key (vd: profiles/uuid/v1.jsonld)
type ObjectStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	Download(ctx context.Context, key string) ([]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
}

// SnapshotKey is where the archived document of a published version lives
func SnapshotKey(profileID fmt.Stringer, version int) string {
	return fmt.Sprintf("profiles/%s/v%d.jsonld", profileID, version)
}
