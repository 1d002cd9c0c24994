package handler

import (
	"errors"
	"net/http"

	"profile-server/internal/domains/organization/model"
	"profile-server/internal/domains/organization/service"
	"profile-server/internal/shared/middleware"
	"profile-server/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// OrganizationHandler handles HTTP requests for organizations (working groups)
type OrganizationHandler struct {
	service service.ServiceInterface
}

func NewOrganizationHandler(s service.ServiceInterface) *OrganizationHandler {
	return &OrganizationHandler{service: s}
}

// Create handles POST /org. The caller becomes the organization admin.
func (h *OrganizationHandler) Create(c *gin.Context) {
	var req model.CreateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request payload")
		return
	}

	org, err := h.service.Create(c.Request.Context(), middleware.CurrentActor(c).UserID, &req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"organization": org})
}

// Get handles GET /org/:org
func (h *OrganizationHandler) Get(c *gin.Context) {
	id, ok := orgParam(c)
	if !ok {
		return
	}
	org, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, gin.H{"organization": org})
}

// List handles GET /org
func (h *OrganizationHandler) List(c *gin.Context) {
	orgs, err := h.service.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, gin.H{"organizations": orgs})
}

// AddMember handles POST /org/:org/member
func (h *OrganizationHandler) AddMember(c *gin.Context) {
	id, ok := orgParam(c)
	if !ok {
		return
	}
	var req model.AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request payload")
		return
	}

	member, err := h.service.AddMember(c.Request.Context(), middleware.CurrentActor(c).UserID, id, &req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"member": member})
}

// CreateAPIKey handles POST /org/:org/apikey. The plain key is only in this response.
func (h *OrganizationHandler) CreateAPIKey(c *gin.Context) {
	id, ok := orgParam(c)
	if !ok {
		return
	}
	var req model.CreateAPIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request payload")
		return
	}

	key, err := h.service.CreateAPIKey(c.Request.Context(), middleware.CurrentActor(c).UserID, id, &req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"apiKey": key})
}

func orgParam(c *gin.Context) (uuid.UUID, bool) {
	raw := c.Param("org")
	id, err := uuid.Parse(raw)
	if err != nil {
		writeError(c, model.NewInvalidID(raw))
		return uuid.Nil, false
	}
	return id, true
}

func writeError(c *gin.Context, err error) {
	status, code, message := model.MapErrorToHTTP(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("request_id", c.GetString("request_id")).Msg("Organization request failed")
	}

	var orgErr *model.OrganizationError
	if errors.As(err, &orgErr) && len(orgErr.Details) > 0 {
		response.ErrorWithDetails(c, status, code, message, orgErr.Details)
		return
	}
	response.ErrorResponse(c, status, code, message)
}
