package bucket

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/abduss/linkbucket/internal/pagination"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const repositoryTimeout = 5 * time.Second

const selectBucket = `
SELECT b.id,
       b.owner_id,
       b.title,
       b.is_shared,
       b.created_at,
       b.updated_at,
       (SELECT COUNT(*) FROM bucket_links bl WHERE bl.bucket_id = b.id) AS link_count
FROM buckets b`

// Repository allows access to bucket persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a bucket repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new private bucket for the owner.
func (r *Repository) Create(ctx context.Context, ownerID uuid.UUID, title string) (Bucket, error) {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	query := `
INSERT INTO buckets (id, owner_id, title)
VALUES ($1, $2, $3)
RETURNING id, owner_id, title, is_shared, created_at, updated_at, 0;`

	bucket, err := scanBucket(r.pool.QueryRow(ctx, query, uuid.New(), ownerID, title))
	if err != nil {
		return Bucket{}, fmt.Errorf("create bucket: %w", err)
	}
	return bucket, nil
}

// Get fetches a bucket by id together with its link count.
func (r *Repository) Get(ctx context.Context, bucketID uuid.UUID) (Bucket, error) {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	bucket, err := scanBucket(r.pool.QueryRow(ctx, selectBucket+` WHERE b.id = $1;`, bucketID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Bucket{}, ErrBucketNotFound
		}
		return Bucket{}, fmt.Errorf("get bucket: %w", err)
	}
	return bucket, nil
}

// ListByOwner returns one page of the owner's buckets, newest first.
func (r *Repository) ListByOwner(ctx context.Context, ownerID uuid.UUID, offset, limit int) ([]Bucket, error) {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	query := selectBucket + `
WHERE b.owner_id = $1
ORDER BY b.created_at DESC, b.id
OFFSET $2 LIMIT $3;`

	rows, err := r.pool.Query(ctx, query, ownerID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list buckets: %w", err)
	}
	defer rows.Close()

	buckets := make([]Bucket, 0, min(limit, pagination.MaxTake))
	for rows.Next() {
		bucket, err := scanBucket(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bucket: %w", err)
		}
		buckets = append(buckets, bucket)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate buckets: %w", err)
	}
	return buckets, nil
}

// CountByOwner returns how many buckets the owner has.
func (r *Repository) CountByOwner(ctx context.Context, ownerID uuid.UUID) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM buckets WHERE owner_id = $1;`, ownerID).Scan(&total); err != nil {
		return 0, fmt.Errorf("count buckets: %w", err)
	}
	return total, nil
}

// UpdateTitle renames a bucket.
func (r *Repository) UpdateTitle(ctx context.Context, bucketID uuid.UUID, title string) (Bucket, error) {
	return r.update(ctx, `UPDATE buckets SET title = $2, updated_at = NOW() WHERE id = $1`, bucketID, title)
}

// UpdateShare sets the share flag.
func (r *Repository) UpdateShare(ctx context.Context, bucketID uuid.UUID, shared bool) (Bucket, error) {
	return r.update(ctx, `UPDATE buckets SET is_shared = $2, updated_at = NOW() WHERE id = $1`, bucketID, shared)
}

func (r *Repository) update(ctx context.Context, statement string, bucketID uuid.UUID, value any) (Bucket, error) {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	query := `
WITH updated AS (` + statement + ` RETURNING *)
SELECT u.id, u.owner_id, u.title, u.is_shared, u.created_at, u.updated_at,
       (SELECT COUNT(*) FROM bucket_links bl WHERE bl.bucket_id = u.id)
FROM updated u;`

	bucket, err := scanBucket(r.pool.QueryRow(ctx, query, bucketID, value))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Bucket{}, ErrBucketNotFound
		}
		return Bucket{}, fmt.Errorf("update bucket: %w", err)
	}
	return bucket, nil
}

// DeleteCascade removes the bucket, its link mappings and the links no other
// bucket references, in one transaction.
func (r *Repository) DeleteCascade(ctx context.Context, bucketID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `DELETE FROM bucket_links WHERE bucket_id = $1 RETURNING link_id;`, bucketID)
		if err != nil {
			return fmt.Errorf("delete bucket links: %w", err)
		}
		linkIDs, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
		if err != nil {
			return fmt.Errorf("collect bucket links: %w", err)
		}

		if len(linkIDs) > 0 {
			if _, err := tx.Exec(ctx, `
DELETE FROM links l
WHERE l.id = ANY($1)
  AND NOT EXISTS (SELECT 1 FROM bucket_links bl WHERE bl.link_id = l.id);`, linkIDs); err != nil {
				return fmt.Errorf("delete links: %w", err)
			}
		}

		tag, err := tx.Exec(ctx, `DELETE FROM buckets WHERE id = $1;`, bucketID)
		if err != nil {
			return fmt.Errorf("delete bucket row: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrBucketNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrBucketNotFound) {
			return ErrBucketNotFound
		}
		return fmt.Errorf("delete bucket: %w", err)
	}
	return nil
}

func scanBucket(row pgx.Row) (Bucket, error) {
	var bucket Bucket
	err := row.Scan(
		&bucket.ID,
		&bucket.OwnerID,
		&bucket.Title,
		&bucket.IsShared,
		&bucket.CreatedAt,
		&bucket.UpdatedAt,
		&bucket.LinkCount,
	)
	return bucket, err
}
