package export

import (
	"errors"
	"net/http"

	"github.com/abduss/linkbucket/internal/auth"
	"github.com/abduss/linkbucket/internal/bucket"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RegisterRoutes mounts the export endpoint. Each call writes an object, so
// the group must require a signed-in user; shared buckets of other owners
// remain exportable.
func RegisterRoutes(group *gin.RouterGroup, service *Service) {
	handler := &httpHandler{service: service}
	group.POST("/buckets/:bucketID/export", handler.exportBucket)
}

type httpHandler struct {
	service *Service
}

func (h *httpHandler) exportBucket(c *gin.Context) {
	bucketID, err := uuid.Parse(c.Param("bucketID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid bucket id"})
		return
	}

	result, err := h.service.Export(c.Request.Context(), bucketID, auth.ActorID(c))
	if err != nil {
		switch {
		case errors.Is(err, bucket.ErrBucketNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "bucket not found"})
		case errors.Is(err, bucket.ErrUnauthorizedViewer):
			c.JSON(http.StatusForbidden, gin.H{"error": "bucket is private"})
		default:
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to export bucket"})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}
