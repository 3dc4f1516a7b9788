package link

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const repoTimeout = 5 * time.Second

var linkColumns = []string{"id", "owner_id", "url", "title", "tags", "views", "created_at", "opened_at"}

// Repository provides access to links and their bucket associations.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds a new link repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateManyAndMapping bulk-inserts links and maps each one into the bucket, in order.
func (r *Repository) CreateManyAndMapping(ctx context.Context, links []Link, bucketID uuid.UUID) error {
	if len(links) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	linkRows := make([][]any, 0, len(links))
	mappingRows := make([][]any, 0, len(links))
	for i, l := range links {
		linkRows = append(linkRows, []any{l.ID, l.OwnerID, l.URL, l.Title, l.Tags, l.Views, l.CreatedAt, l.OpenedAt})
		mappingRows = append(mappingRows, []any{bucketID, l.ID, i})
	}

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{"links"}, linkColumns, pgx.CopyFromRows(linkRows)); err != nil {
			return fmt.Errorf("copy links: %w", err)
		}
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{"bucket_links"}, []string{"bucket_id", "link_id", "position"}, pgx.CopyFromRows(mappingRows)); err != nil {
			return fmt.Errorf("copy bucket links: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("create links: %w", err)
	}
	return nil
}

// ListForBucket returns the links mapped into a bucket in insertion order.
func (r *Repository) ListForBucket(ctx context.Context, bucketID uuid.UUID) ([]Link, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
SELECT l.id, l.owner_id, l.url, l.title, l.tags, l.views, l.created_at, l.opened_at
FROM bucket_links bl
JOIN links l ON l.id = bl.link_id
WHERE bl.bucket_id = $1
ORDER BY bl.position ASC, l.created_at ASC;`

	rows, err := r.pool.Query(ctx, query, bucketID)
	if err != nil {
		return nil, fmt.Errorf("list bucket links: %w", err)
	}
	return collectLinks(rows)
}

// ListByOwner returns one page of the owner's links, newest first.
func (r *Repository) ListByOwner(ctx context.Context, ownerID uuid.UUID, offset, limit int) ([]Link, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
SELECT id, owner_id, url, title, tags, views, created_at, opened_at
FROM links
WHERE owner_id = $1
ORDER BY created_at DESC, id
OFFSET $2 LIMIT $3;`

	rows, err := r.pool.Query(ctx, query, ownerID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	return collectLinks(rows)
}

// CountByOwner returns how many links the owner has.
func (r *Repository) CountByOwner(ctx context.Context, ownerID uuid.UUID) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM links WHERE owner_id = $1;`, ownerID).Scan(&total); err != nil {
		return 0, fmt.Errorf("count links: %w", err)
	}
	return total, nil
}

// Get fetches a single link.
func (r *Repository) Get(ctx context.Context, linkID uuid.UUID) (Link, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
SELECT id, owner_id, url, title, tags, views, created_at, opened_at
FROM links
WHERE id = $1;`

	l, err := scanLink(r.pool.QueryRow(ctx, query, linkID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Link{}, ErrLinkNotFound
		}
		return Link{}, fmt.Errorf("get link: %w", err)
	}
	return l, nil
}

// Update rewrites the title and tags of a link.
func (r *Repository) Update(ctx context.Context, linkID uuid.UUID, title string, tags []string) (Link, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
UPDATE links
SET title = $2, tags = $3
WHERE id = $1
RETURNING id, owner_id, url, title, tags, views, created_at, opened_at;`

	l, err := scanLink(r.pool.QueryRow(ctx, query, linkID, title, tags))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Link{}, ErrLinkNotFound
		}
		return Link{}, fmt.Errorf("update link: %w", err)
	}
	return l, nil
}

// MarkOpened increments the view counter and stamps the open time.
func (r *Repository) MarkOpened(ctx context.Context, linkID uuid.UUID, at time.Time) (Link, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
UPDATE links
SET views = views + 1, opened_at = $2
WHERE id = $1
RETURNING id, owner_id, url, title, tags, views, created_at, opened_at;`

	l, err := scanLink(r.pool.QueryRow(ctx, query, linkID, at))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Link{}, ErrLinkNotFound
		}
		return Link{}, fmt.Errorf("mark link opened: %w", err)
	}
	return l, nil
}

// Owners maps each existing link id to its owner. Unknown ids are absent from the result.
func (r *Repository) Owners(ctx context.Context, linkIDs []uuid.UUID) (map[uuid.UUID]uuid.UUID, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, `SELECT id, owner_id FROM links WHERE id = ANY($1);`, linkIDs)
	if err != nil {
		return nil, fmt.Errorf("lookup link owners: %w", err)
	}
	defer rows.Close()

	owners := make(map[uuid.UUID]uuid.UUID, len(linkIDs))
	for rows.Next() {
		var id, owner uuid.UUID
		if err := rows.Scan(&id, &owner); err != nil {
			return nil, fmt.Errorf("scan link owner: %w", err)
		}
		owners[id] = owner
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate link owners: %w", err)
	}
	return owners, nil
}

// DeleteMany removes links and their bucket memberships in one transaction.
func (r *Repository) DeleteMany(ctx context.Context, linkIDs []uuid.UUID) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	var deleted int64
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM bucket_links WHERE link_id = ANY($1);`, linkIDs); err != nil {
			return fmt.Errorf("delete link mappings: %w", err)
		}
		tag, err := tx.Exec(ctx, `DELETE FROM links WHERE id = ANY($1);`, linkIDs)
		if err != nil {
			return fmt.Errorf("delete links: %w", err)
		}
		deleted = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

func scanLink(row pgx.Row) (Link, error) {
	var l Link
	err := row.Scan(&l.ID, &l.OwnerID, &l.URL, &l.Title, &l.Tags, &l.Views, &l.CreatedAt, &l.OpenedAt)
	if l.Tags == nil {
		l.Tags = []string{}
	}
	return l, err
}

func collectLinks(rows pgx.Rows) ([]Link, error) {
	defer rows.Close()

	links := []Link{}
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, fmt.Errorf("scan link: %w", err)
		}
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate links: %w", err)
	}
	return links, nil
}
