package model

import (
	"time"

	"github.com/google/uuid"
)

// Status is the publication status block of a version's metadata
type Status struct {
	Published           bool       `json:"published"`
	Verified            bool       `json:"verified"`
	VerificationRequest *time.Time `json:"verificationRequest,omitempty"`
}

// WorkingGroup is the owning organization as shown in listings
type WorkingGroup struct {
	UUID uuid.UUID `json:"uuid"`
	Name string    `json:"name"`
}

// Metadata is the listing projection of a profile version
type Metadata struct {
	UUID          uuid.UUID    `json:"uuid"`
	ParentProfile uuid.UUID    `json:"parentProfile"`
	IRI           string       `json:"iri"`
	Name          string       `json:"name"`
	Description   string       `json:"description"`
	Version       int          `json:"version"`
	State         State        `json:"state"`
	Tags          []string     `json:"tags,omitempty"`
	Status        Status       `json:"status"`
	WorkingGroup  WorkingGroup `json:"workingGroup"`
	PublishedOn   *time.Time   `json:"publishedOn,omitempty"`
	UpdatedOn     time.Time    `json:"updatedOn"`
}

// NewMetadata projects a version into its metadata
func NewMetadata(v *ProfileVersion, wg WorkingGroup) Metadata {
	return Metadata{
		UUID:          v.ID,
		ParentProfile: v.ProfileID,
		IRI:           v.IRI,
		Name:          v.Name,
		Description:   v.Description,
		Version:       v.Version,
		State:         v.State,
		Tags:          append([]string(nil), v.Tags...),
		Status: Status{
			Published:           v.State == StatePublished,
			Verified:            v.IsVerified,
			VerificationRequest: cloneTimePtr(v.VerificationRequest),
		},
		WorkingGroup: wg,
		PublishedOn:  cloneTimePtr(v.PublishedOn),
		UpdatedOn:    v.UpdatedOn,
	}
}
