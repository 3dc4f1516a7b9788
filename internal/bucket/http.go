package bucket

import (
	"errors"
	"net/http"
	"strings"

	"github.com/abduss/linkbucket/internal/auth"
	"github.com/abduss/linkbucket/internal/link"
	"github.com/abduss/linkbucket/internal/pagination"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RegisterRoutes mounts bucket endpoints. protected requires an authenticated
// user; public runs with optional authentication.
func RegisterRoutes(protected, public *gin.RouterGroup, service *Service) {
	handler := &httpHandler{service: service}
	protected.POST("/buckets", handler.createBucket)
	protected.GET("/buckets", handler.listBuckets)
	protected.PUT("/buckets/:bucketID/share", handler.setShare)
	protected.POST("/buckets/:bucketID/paste", handler.pasteBucket)
	protected.PATCH("/buckets/:bucketID", handler.renameBucket)
	protected.DELETE("/buckets/:bucketID", handler.deleteBucket)

	public.GET("/buckets/:bucketID", handler.getBucket)
}

type httpHandler struct {
	service *Service
}

type createBucketRequest struct {
	Title string       `json:"title" binding:"omitempty,max=255"`
	Email string       `json:"email" binding:"omitempty,email"`
	Links []link.Draft `json:"links" binding:"omitempty,dive"`
}

type shareRequest struct {
	Permission *bool `json:"permission" binding:"required"`
}

type renameRequest struct {
	Title string `json:"title" binding:"required,max=255"`
}

func (h *httpHandler) createBucket(c *gin.Context) {
	_, user, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req createBucketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	email := strings.TrimSpace(req.Email)
	if email == "" {
		email = user.Email
	}
	if !strings.EqualFold(email, user.Email) {
		c.JSON(http.StatusForbidden, gin.H{"error": "cannot create buckets for another account"})
		return
	}

	id, err := h.service.CreateBucket(c.Request.Context(), CreateInput{
		Title:      req.Title,
		OwnerEmail: email,
		Links:      req.Links,
	})
	if err != nil {
		writeError(c, err, "failed to create bucket")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h *httpHandler) listBuckets(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	q := pagination.ParseQuery(c.Query("page"), c.Query("take"))
	page, err := h.service.ListBuckets(c.Request.Context(), userID, q)
	if err != nil {
		writeError(c, err, "failed to list buckets")
		return
	}

	c.JSON(http.StatusOK, page)
}

func (h *httpHandler) getBucket(c *gin.Context) {
	bucketID, ok := parseBucketID(c)
	if !ok {
		return
	}

	detail, err := h.service.GetBucket(c.Request.Context(), bucketID, auth.ActorID(c))
	if err != nil {
		writeError(c, err, "failed to fetch bucket")
		return
	}

	c.JSON(http.StatusOK, detail)
}

func (h *httpHandler) setShare(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	bucketID, ok := parseBucketID(c)
	if !ok {
		return
	}

	var req shareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	state, err := h.service.SetShare(c.Request.Context(), bucketID, userID, *req.Permission)
	if err != nil {
		writeError(c, err, "failed to update share state")
		return
	}

	c.JSON(http.StatusOK, state)
}

func (h *httpHandler) pasteBucket(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	bucketID, ok := parseBucketID(c)
	if !ok {
		return
	}

	id, err := h.service.PasteBucket(c.Request.Context(), bucketID, userID)
	if err != nil {
		writeError(c, err, "failed to paste bucket")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h *httpHandler) renameBucket(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	bucketID, ok := parseBucketID(c)
	if !ok {
		return
	}

	var req renameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bucket, err := h.service.RenameBucket(c.Request.Context(), bucketID, userID, req.Title)
	if err != nil {
		writeError(c, err, "failed to rename bucket")
		return
	}

	c.JSON(http.StatusOK, bucket)
}

func (h *httpHandler) deleteBucket(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	bucketID, ok := parseBucketID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteBucket(c.Request.Context(), bucketID, userID); err != nil {
		writeError(c, err, "failed to delete bucket")
		return
	}

	c.Status(http.StatusNoContent)
}

func parseBucketID(c *gin.Context) (uuid.UUID, bool) {
	bucketID, err := uuid.Parse(c.Param("bucketID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid bucket id"})
		return uuid.Nil, false
	}
	return bucketID, true
}

func writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrBucketNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "bucket not found"})
	case errors.Is(err, ErrOwnerNotRegistered):
		c.JSON(http.StatusNotFound, gin.H{"error": "owner not registered"})
	case errors.Is(err, ErrUnauthorizedViewer):
		c.JSON(http.StatusForbidden, gin.H{"error": "bucket is private"})
	case errors.Is(err, ErrNotOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": "not the bucket owner"})
	case errors.Is(err, ErrTitleRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": "title required"})
	case errors.Is(err, link.ErrInvalidURL):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
