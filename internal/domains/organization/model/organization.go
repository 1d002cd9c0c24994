package model

import (
	"time"

	"github.com/google/uuid"
)

// Role is a member's access level inside an organization
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Organization (working group) owns profiles and API keys
type Organization struct {
	ID                uuid.UUID `json:"uuid"`
	Name              string    `json:"name"`
	Description       string    `json:"description,omitempty"`
	CollaborationLink string    `json:"collaborationLink,omitempty"`
	CreatedOn         time.Time `json:"createdOn"`
	UpdatedOn         time.Time `json:"updatedOn"`
}

type Member struct {
	OrganizationID uuid.UUID `json:"organization"`
	UserID         uuid.UUID `json:"user"`
	Role           Role      `json:"role"`
	CreatedOn      time.Time `json:"createdOn"`
}

// APIKey grants an integration access to one organization. Only the hash
// of the key is stored.
type APIKey struct {
	ID              uuid.UUID `json:"uuid"`
	OrganizationID  uuid.UUID `json:"organization"`
	KeyHash         string    `json:"-"`
	Description     string    `json:"description,omitempty"`
	ReadPermission  bool      `json:"readPermission"`
	WritePermission bool      `json:"writePermission"`
	IsEnabled       bool      `json:"isEnabled"`
	CreatedOn       time.Time `json:"createdOn"`
}
