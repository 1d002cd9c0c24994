package handler

import (
	"net/http"
	"strings"
	"time"

	"profile-server/internal/domains/profile/model"
	"profile-server/internal/domains/profile/service"
	"profile-server/internal/shared/middleware"
	"profile-server/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ContentTypeJSONLD is served on every export
const ContentTypeJSONLD = "application/ld+json"

// ProfileHandler handles HTTP requests for profiles and their components
type ProfileHandler struct {
	service service.ServiceInterface
}

// NewProfileHandler creates a new profile handler instance
func NewProfileHandler(s service.ServiceInterface) *ProfileHandler {
	return &ProfileHandler{service: s}
}

// ========================================
// PROFILES
// ========================================

// GetProfile handles GET /profile/:profile
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	id, ok := profileParam(c)
	if !ok {
		return
	}
	detail, err := h.service.GetProfile(c.Request.Context(), middleware.CurrentActor(c), id)
	if err != nil {
		handleError(c, err)
		return
	}
	response.OK(c, gin.H{"profile": detail})
}

// Resolve handles GET /profile/:profile/resolve
func (h *ProfileHandler) Resolve(c *gin.Context) {
	id, ok := profileParam(c)
	if !ok {
		return
	}
	res, err := h.service.Resolve(c.Request.Context(), middleware.CurrentActor(c), id)
	if err != nil {
		handleError(c, err)
		return
	}
	response.OK(c, gin.H{
		"profile":        res.Profile,
		"profileVersion": res.ProfileVersion,
		"organization":   res.Organization,
	})
}

// GetMetadata handles GET /profile/:profile/meta
func (h *ProfileHandler) GetMetadata(c *gin.Context) {
	id, ok := profileParam(c)
	if !ok {
		return
	}
	meta, err := h.service.GetMetadata(c.Request.Context(), middleware.CurrentActor(c), id)
	if err != nil {
		handleError(c, err)
		return
	}
	response.OK(c, gin.H{"metadata": meta})
}

// CreateProfile handles POST /org/:org/profile
func (h *ProfileHandler) CreateProfile(c *gin.Context) {
	orgID, err := uuid.Parse(c.Param("org"))
	if err != nil {
		handleError(c, model.NewInvalidID(c.Param("org")))
		return
	}

	var req model.CreateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	detail, err := h.service.CreateProfile(c.Request.Context(), middleware.CurrentActor(c), orgID, &req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"profile": detail})
}

// UpdateProfile handles PUT /profile
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	var req model.UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	version, err := h.service.UpdateProfile(c.Request.Context(), middleware.CurrentActor(c), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.OK(c, gin.H{"profile": version})
}

// DeleteProfile handles DELETE /profile/:profile
func (h *ProfileHandler) DeleteProfile(c *gin.Context) {
	id, ok := profileParam(c)
	if !ok {
		return
	}
	meta, err := h.service.DeleteProfile(c.Request.Context(), middleware.CurrentActor(c), id)
	if err != nil {
		handleError(c, err)
		return
	}
	response.OK(c, gin.H{"metadata": meta})
}

// ========================================
// LIFECYCLE
// ========================================

// Publish handles POST /profile/:profile/publish
func (h *ProfileHandler) Publish(c *gin.Context) {
	id, ok := profileParam(c)
	if !ok {
		return
	}
	result, err := h.service.Publish(c.Request.Context(), middleware.CurrentActor(c), id)
	if err != nil {
		handleError(c, err)
		return
	}
	response.OK(c, gin.H{"profile": result.Version, "parentProfile": result.Profile})
}

// Deprecate handles POST /profile/:profile/deprecate. The body is optional.
func (h *ProfileHandler) Deprecate(c *gin.Context) {
	id, ok := profileParam(c)
	if !ok {
		return
	}
	var req model.DeprecateRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}

	version, err := h.service.Deprecate(c.Request.Context(), middleware.CurrentActor(c), id, &req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.OK(c, gin.H{"profile": version})
}

// UpdateStatus handles POST /profile/:profile/status
func (h *ProfileHandler) UpdateStatus(c *gin.Context) {
	id, ok := profileParam(c)
	if !ok {
		return
	}
	var req model.StatusRequest
	if !bindJSON(c, &req) {
		return
	}

	status, err := h.service.UpdateStatus(c.Request.Context(), middleware.CurrentActor(c), id, &req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.OK(c, gin.H{"status": status})
}

// ========================================
// DOCUMENTS
// ========================================

// Import handles POST /profile/import
func (h *ProfileHandler) Import(c *gin.Context) {
	var req model.ImportRequest
	if !bindJSON(c, &req) {
		return
	}

	meta, err := h.service.Import(c.Request.Context(), middleware.CurrentActor(c), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.OK(c, gin.H{"metadata": meta})
}

// Validate handles POST /profile/validate. The body is the profile document.
func (h *ProfileHandler) Validate(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		response.BadRequest(c, "Failed to read request body")
		return
	}

	if _, err := h.service.Validate(c.Request.Context(), raw); err != nil {
		handleError(c, err)
		return
	}
	response.OK(c, gin.H{"message": "Profile is valid."})
}

// Export handles GET /profile/:profile/export
func (h *ProfileHandler) Export(c *gin.Context) {
	id, ok := profileParam(c)
	if !ok {
		return
	}
	result, err := h.service.Export(c.Request.Context(), middleware.CurrentActor(c), id)
	if err != nil {
		handleError(c, err)
		return
	}
	writeDocument(c, result)
}

// ListProfiles handles GET /profiles. With ?iri= it exports the matching
// profile; otherwise it lists published metadata.
func (h *ProfileHandler) ListProfiles(c *gin.Context) {
	var query model.ListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	if iri := strings.TrimSpace(query.IRI); iri != "" {
		result, err := h.service.ExportByIRI(c.Request.Context(), middleware.CurrentActor(c), iri)
		if err != nil {
			handleError(c, err)
			return
		}
		writeDocument(c, result)
		return
	}

	list, err := h.service.ListPublished(c.Request.Context(), &query)
	if err != nil {
		handleError(c, err)
		return
	}
	response.OK(c, gin.H{"metadata": list})
}

// writeDocument sends a JSON-LD export, honoring If-Modified-Since
func writeDocument(c *gin.Context, result *service.ExportResult) {
	modified := result.LastModified.UTC().Truncate(time.Second)
	if since, err := http.ParseTime(c.GetHeader("If-Modified-Since")); err == nil && !modified.After(since) {
		c.Status(http.StatusNotModified)
		return
	}
	c.Header("Last-Modified", modified.Format(http.TimeFormat))
	c.Data(http.StatusOK, ContentTypeJSONLD, result.Body)
}

// ========================================
// HELPERS
// ========================================

func profileParam(c *gin.Context) (uuid.UUID, bool) {
	raw := c.Param("profile")
	id, err := uuid.Parse(raw)
	if err != nil {
		handleError(c, model.NewInvalidID(raw))
		return uuid.Nil, false
	}
	return id, true
}

func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, model.CodeValidation, "Invalid request payload: "+err.Error())
		return false
	}
	return true
}

// handleError maps a service error onto the failure envelope
func handleError(c *gin.Context, err error) {
	status, message, code := model.MapErrorToHTTP(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).
			Str("request_id", c.GetString("request_id")).
			Str("path", c.FullPath()).
			Msg("Profile request failed")
	}
	if details := model.DetailsOf(err); len(details) > 0 {
		response.ErrorWithDetails(c, status, code, message, details)
		return
	}
	response.ErrorResponse(c, status, code, message)
}
