package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/abduss/linkbucket/internal/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/lifecycle"
)

const (
	defaultObjectStoreTimeout = 5 * time.Second
	exportRuleID              = "expire-bucket-exports"
)

// ExportPrefix is the key prefix under which bucket exports are written.
const ExportPrefix = "exports/"

// NewMinIOClient builds the object storage client used for bucket exports.
func NewMinIOClient(cfg config.MinIOConfig) (*minio.Client, error) {
	endpoint := cfg.Endpoint
	if !strings.Contains(endpoint, ":") {
		endpoint += ":9000"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client for %s: %w", endpoint, err)
	}
	return client, nil
}

// EnsureExportBucket creates the export bucket when missing and, when
// retentionDays is positive, installs a lifecycle rule expiring old exports.
func EnsureExportBucket(ctx context.Context, client *minio.Client, bucket, region string, retentionDays int) error {
	ctx, cancel := context.WithTimeout(ctx, defaultObjectStoreTimeout)
	defer cancel()

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("check bucket %q: %w", bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region}); err != nil {
			return fmt.Errorf("create bucket %q: %w", bucket, err)
		}
	}

	if retentionDays <= 0 {
		return nil
	}
	if err := client.SetBucketLifecycle(ctx, bucket, ExportLifecycle(retentionDays)); err != nil {
		return fmt.Errorf("set lifecycle on %q: %w", bucket, err)
	}
	return nil
}

// ExportLifecycle returns the lifecycle configuration that expires export
// objects after the given number of days.
func ExportLifecycle(retentionDays int) *lifecycle.Configuration {
	cfg := lifecycle.NewConfiguration()
	cfg.Rules = []lifecycle.Rule{{
		ID:         exportRuleID,
		Status:     "Enabled",
		RuleFilter: lifecycle.Filter{Prefix: ExportPrefix},
		Expiration: lifecycle.Expiration{Days: lifecycle.ExpirationDays(retentionDays)},
	}}
	return cfg
}
