package handler

import (
	"net/http"

	"profile-server/internal/domains/profile/model"
	"profile-server/internal/shared/middleware"
	"profile-server/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Components are authored on the current draft of /profile/:profile and
// addressed as /profile/:profile/{concepts,templates,patterns}/:component.

// CreateConcept handles POST /profile/:profile/concepts
func (h *ProfileHandler) CreateConcept(c *gin.Context) {
	id, ok := profileParam(c)
	if !ok {
		return
	}
	var req model.ConceptRequest
	if !bindJSON(c, &req) {
		return
	}
	concept, err := h.service.CreateConcept(c.Request.Context(), middleware.CurrentActor(c), id, &req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"concept": concept})
}

// UpdateConcept handles PUT /profile/:profile/concepts/:component
func (h *ProfileHandler) UpdateConcept(c *gin.Context) {
	id, componentID, ok := componentParams(c)
	if !ok {
		return
	}
	var req model.ConceptRequest
	if !bindJSON(c, &req) {
		return
	}
	concept, err := h.service.UpdateConcept(c.Request.Context(), middleware.CurrentActor(c), id, componentID, &req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.OK(c, gin.H{"concept": concept})
}

// CreateTemplate handles POST /profile/:profile/templates
func (h *ProfileHandler) CreateTemplate(c *gin.Context) {
	id, ok := profileParam(c)
	if !ok {
		return
	}
	var req model.TemplateRequest
	if !bindJSON(c, &req) {
		return
	}
	template, err := h.service.CreateTemplate(c.Request.Context(), middleware.CurrentActor(c), id, &req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"template": template})
}

// UpdateTemplate handles PUT /profile/:profile/templates/:component
func (h *ProfileHandler) UpdateTemplate(c *gin.Context) {
	id, componentID, ok := componentParams(c)
	if !ok {
		return
	}
	var req model.TemplateRequest
	if !bindJSON(c, &req) {
		return
	}
	template, err := h.service.UpdateTemplate(c.Request.Context(), middleware.CurrentActor(c), id, componentID, &req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.OK(c, gin.H{"template": template})
}

// CreatePattern handles POST /profile/:profile/patterns
func (h *ProfileHandler) CreatePattern(c *gin.Context) {
	id, ok := profileParam(c)
	if !ok {
		return
	}
	var req model.PatternRequest
	if !bindJSON(c, &req) {
		return
	}
	pattern, err := h.service.CreatePattern(c.Request.Context(), middleware.CurrentActor(c), id, &req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"pattern": pattern})
}

// UpdatePattern handles PUT /profile/:profile/patterns/:component
func (h *ProfileHandler) UpdatePattern(c *gin.Context) {
	id, componentID, ok := componentParams(c)
	if !ok {
		return
	}
	var req model.PatternRequest
	if !bindJSON(c, &req) {
		return
	}
	pattern, err := h.service.UpdatePattern(c.Request.Context(), middleware.CurrentActor(c), id, componentID, &req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.OK(c, gin.H{"pattern": pattern})
}

// DeleteComponent handles DELETE /profile/:profile/:type/:component where
// type is concepts, templates or patterns
func (h *ProfileHandler) DeleteComponent(c *gin.Context) {
	id, componentID, ok := componentParams(c)
	if !ok {
		return
	}
	t, known := model.ComponentTypeFromSegment(c.Param("type"))
	if !known {
		response.NotFound(c, "Route not found")
		return
	}

	if err := h.service.DeleteComponent(c.Request.Context(), middleware.CurrentActor(c), id, t, componentID); err != nil {
		handleError(c, err)
		return
	}
	response.OK(c, gin.H{"message": "Component removed from draft"})
}

func componentParams(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	id, ok := profileParam(c)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	raw := c.Param("component")
	componentID, err := uuid.Parse(raw)
	if err != nil {
		handleError(c, model.NewInvalidID(raw))
		return uuid.Nil, uuid.Nil, false
	}
	return id, componentID, true
}
