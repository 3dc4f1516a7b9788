package link

import (
	"errors"
	"net/http"

	"github.com/abduss/linkbucket/internal/auth"
	"github.com/abduss/linkbucket/internal/pagination"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RegisterRoutes mounts link operations under the provided router group.
func RegisterRoutes(group *gin.RouterGroup, service *Service) {
	handler := &httpHandler{service: service}
	group.GET("/links", handler.listLinks)
	group.PATCH("/links/:linkID", handler.updateLink)
	group.POST("/links/:linkID/open", handler.openLink)
	group.DELETE("/links", handler.deleteLinks)
}

type httpHandler struct {
	service *Service
}

type updateLinkRequest struct {
	Title *string  `json:"title" binding:"omitempty,max=512"`
	Tags  []string `json:"tags" binding:"omitempty,max=32,dive,max=64"`
}

type deleteLinksRequest struct {
	IDs []uuid.UUID `json:"ids" binding:"required,min=1"`
}

func (h *httpHandler) listLinks(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	q := pagination.ParseQuery(c.Query("page"), c.Query("take"))
	page, err := h.service.ListLinks(c.Request.Context(), userID, q)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list links"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"links": page.Items, "meta": page.Meta})
}

func (h *httpHandler) updateLink(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	linkID, err := uuid.Parse(c.Param("linkID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid link id"})
		return
	}

	var req updateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.service.UpdateLink(c.Request.Context(), linkID, userID, UpdateInput{Title: req.Title, Tags: req.Tags})
	if err != nil {
		writeError(c, err, "failed to update link")
		return
	}

	c.JSON(http.StatusOK, updated)
}

func (h *httpHandler) openLink(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	linkID, err := uuid.Parse(c.Param("linkID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid link id"})
		return
	}

	opened, err := h.service.OpenLink(c.Request.Context(), linkID, userID)
	if err != nil {
		writeError(c, err, "failed to open link")
		return
	}

	c.JSON(http.StatusOK, opened)
}

func (h *httpHandler) deleteLinks(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req deleteLinksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	deleted, err := h.service.DeleteLinks(c.Request.Context(), req.IDs, userID)
	if err != nil {
		writeError(c, err, "failed to delete links")
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

func writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrLinkNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "link not found"})
	case errors.Is(err, ErrNotLinkOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": "not the link owner"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
