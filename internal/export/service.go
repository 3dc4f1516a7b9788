// Package export writes a bucket snapshot to object storage and hands out a
// presigned download URL for it.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/abduss/linkbucket/internal/bucket"
	"github.com/abduss/linkbucket/internal/metrics"
	"github.com/abduss/linkbucket/internal/storage"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

const contentType = "application/json"

// BucketReader returns a bucket as seen by the actor, enforcing view rules.
type BucketReader interface {
	GetBucket(ctx context.Context, bucketID, actorID uuid.UUID) (bucket.Detail, error)
}

type objectStore interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expiry time.Duration, params url.Values) (*url.URL, error)
}

// Result describes a finished export.
type Result struct {
	ObjectName string    `json:"object_name"`
	URL        string    `json:"url"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Document is the JSON written for an exported bucket.
type Document struct {
	ID         uuid.UUID      `json:"id"`
	Title      string         `json:"title"`
	CreatedAt  time.Time      `json:"created_at"`
	ExportedAt time.Time      `json:"exported_at"`
	Links      []DocumentLink `json:"links"`
}

// DocumentLink is one link inside an exported bucket.
type DocumentLink struct {
	URL   string   `json:"url"`
	Title string   `json:"title"`
	Tags  []string `json:"tags"`
}

// Service exports buckets.
type Service struct {
	buckets      BucketReader
	store        objectStore
	objectBucket string
	ttl          time.Duration
	log          *zap.Logger
	nowFunc      func() time.Time
}

// NewService constructs an export service writing into objectBucket.
func NewService(buckets BucketReader, store objectStore, objectBucket string, ttl time.Duration, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		buckets:      buckets,
		store:        store,
		objectBucket: objectBucket,
		ttl:          ttl,
		log:          log,
		nowFunc:      time.Now,
	}
}

// Export snapshots a bucket the actor can view and returns a download URL
// valid for the configured TTL.
func (s *Service) Export(ctx context.Context, bucketID, actorID uuid.UUID) (result Result, err error) {
	defer func() { metrics.ObserveOperation("export", "bucket", err) }()

	detail, err := s.buckets.GetBucket(ctx, bucketID, actorID)
	if err != nil {
		return Result{}, err
	}

	now := s.nowFunc().UTC()
	payload, err := json.Marshal(newDocument(detail, now))
	if err != nil {
		return Result{}, fmt.Errorf("encode export: %w", err)
	}

	objectName := ObjectName(bucketID, now)
	if _, err := s.store.PutObject(ctx, s.objectBucket, objectName, bytes.NewReader(payload), int64(len(payload)), minio.PutObjectOptions{
		ContentType: contentType,
	}); err != nil {
		return Result{}, fmt.Errorf("put export object: %w", err)
	}

	params := make(url.Values)
	params.Set("response-content-disposition", fmt.Sprintf("attachment; filename=%q", "bucket-"+bucketID.String()+".json"))
	u, err := s.store.PresignedGetObject(ctx, s.objectBucket, objectName, s.ttl, params)
	if err != nil {
		return Result{}, fmt.Errorf("presign export: %w", err)
	}

	s.log.Debug("bucket exported",
		zap.String("bucket_id", bucketID.String()),
		zap.String("object", objectName),
		zap.Int("links", len(detail.Links)),
	)

	return Result{
		ObjectName: objectName,
		URL:        u.String(),
		ExpiresAt:  now.Add(s.ttl),
	}, nil
}

// ObjectName is the storage key of an export taken at t.
func ObjectName(bucketID uuid.UUID, t time.Time) string {
	return fmt.Sprintf("%s%s/%s.json", storage.ExportPrefix, bucketID, t.UTC().Format("20060102T150405.000000000Z"))
}

func newDocument(detail bucket.Detail, exportedAt time.Time) Document {
	doc := Document{
		ID:         detail.ID,
		Title:      detail.Title,
		CreatedAt:  detail.CreatedAt,
		ExportedAt: exportedAt,
		Links:      make([]DocumentLink, 0, len(detail.Links)),
	}
	for _, l := range detail.Links {
		tags := l.Tags
		if tags == nil {
			tags = []string{}
		}
		doc.Links = append(doc.Links, DocumentLink{URL: l.URL, Title: l.Title, Tags: tags})
	}
	return doc
}
