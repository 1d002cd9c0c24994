package model

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"
)

// CreateOrganizationRequest - Request body cho POST /org
type CreateOrganizationRequest struct {
	Name              string `json:"name"`
	Description       string `json:"description"`
	CollaborationLink string `json:"collaborationLink"`
}

func (r CreateOrganizationRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Description, validation.Length(0, 2000)),
		validation.Field(&r.CollaborationLink, is.URL),
	)
}

// CreateAPIKeyRequest - Request body cho POST /org/:org/apikey
type CreateAPIKeyRequest struct {
	Description     string `json:"description"`
	ReadPermission  *bool  `json:"readPermission"`
	WritePermission bool   `json:"writePermission"`
}

func (r CreateAPIKeyRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Description, validation.Length(0, 500)),
	)
}

// CanRead defaults to true when the field is absent
func (r CreateAPIKeyRequest) CanRead() bool {
	return r.ReadPermission == nil || *r.ReadPermission
}

// AddMemberRequest - Request body cho POST /org/:org/member
type AddMemberRequest struct {
	UserID uuid.UUID `json:"user"`
	Role   Role      `json:"role"`
}

func (r AddMemberRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.UserID, validation.By(func(interface{}) error {
			if r.UserID == uuid.Nil {
				return errors.New("user is required")
			}
			return nil
		})),
		validation.Field(&r.Role, validation.In(RoleAdmin, RoleMember)),
	)
}

// APIKeyCreated is returned once; the plain key is never stored
type APIKeyCreated struct {
	APIKey
	Key string `json:"key"`
}

// FromValidation converts ozzo validation errors into an OrganizationError
func FromValidation(err error) error {
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return err
	}
	details := make(map[string]string, len(verrs))
	for field, fe := range verrs {
		details[field] = fe.Error()
	}
	return NewValidationError(details)
}
