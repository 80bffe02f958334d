package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/docparity/docparity-backend/internal/apperr"
	"github.com/docparity/docparity-backend/internal/services"
)

type LinkHandler struct {
	svc services.LinkService
}

func NewLinkHandler(svc services.LinkService) *LinkHandler {
	return &LinkHandler{svc: svc}
}

type createLinkBody struct {
	SourceRunID string `json:"source_run_id"`
	TargetRunID string `json:"target_run_id"`
	Label       string `json:"label"`
}

// POST /links
func (h *LinkHandler) CreateLink(c *gin.Context) {
	var body createLinkBody
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, apperr.InvalidArgument("parse body: %v", err))
		return
	}
	out, err := h.svc.CreateLink(c.Request.Context(), body.SourceRunID, body.TargetRunID, body.Label)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, out)
}

// GET /links/:id
func (h *LinkHandler) GetLink(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, apperr.InvalidArgument("invalid link id: %v", err))
		return
	}
	out, err := h.svc.GetLink(c.Request.Context(), id)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, out)
}

// GET /links
func (h *LinkHandler) ListLinks(c *gin.Context) {
	limit, offset := pagination(c)
	links, err := h.svc.ListLinks(c.Request.Context(), limit, offset)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"links": links})
}
