package shared

import (
	"fmt"

	"github.com/google/uuid"
)

// Task types chạy trên asynq worker. Định nghĩa ở đây để tránh import cycle
// giữa profile domain và cmd/worker.
const (
	TypeExportSnapshot   = "profile:export_snapshot"
	TypeArchiveSnapshots = "profile:archive_snapshots"

	QueueProfile = "profiles"
)

// ExportSnapshotPayload identifies a published version to archive
type ExportSnapshotPayload struct {
	ProfileID uuid.UUID `json:"profileId"`
	VersionID uuid.UUID `json:"versionId"`
	Version   int       `json:"version"`
}

// ArchiveSnapshotsPayload drives the periodic sweep for missing snapshots
type ArchiveSnapshotsPayload struct {
	Limit int `json:"limit"`
}

// Scope is what kind of credential a request carried
type Scope string

const (
	ScopePublic Scope = "public"
	ScopeAPIKey Scope = "apikey"
	ScopeUser   Scope = "user"
)

// Actor is the authenticated caller of an operation. Services take it
// explicitly instead of reading request state.
type Actor struct {
	Scope          Scope
	UserID         uuid.UUID // ScopeUser
	OrganizationID uuid.UUID // ScopeAPIKey
	APIKeyID       uuid.UUID // ScopeAPIKey
	CanRead        bool
	CanWrite       bool
}

// PublicActor is a caller without credentials
func PublicActor() Actor {
	return Actor{Scope: ScopePublic, CanRead: true}
}

// UserActor is a caller with a valid user token
func UserActor(userID uuid.UUID) Actor {
	return Actor{Scope: ScopeUser, UserID: userID, CanRead: true, CanWrite: true}
}

// APIKeyActor is a caller authenticated with an organization API key
func APIKeyActor(keyID, orgID uuid.UUID, read, write bool) Actor {
	return Actor{Scope: ScopeAPIKey, APIKeyID: keyID, OrganizationID: orgID, CanRead: read, CanWrite: write}
}

func (a Actor) IsPublic() bool { return a.Scope == ScopePublic || a.Scope == "" }

// String is recorded as publishedBy
func (a Actor) String() string {
	switch a.Scope {
	case ScopeUser:
		return fmt.Sprintf("user:%s", a.UserID)
	case ScopeAPIKey:
		return fmt.Sprintf("apikey:%s", a.APIKeyID)
	}
	return string(ScopePublic)
}
