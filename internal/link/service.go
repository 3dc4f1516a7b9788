package link

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/abduss/linkbucket/internal/metrics"
	"github.com/abduss/linkbucket/internal/pagination"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type store interface {
	CreateManyAndMapping(ctx context.Context, links []Link, bucketID uuid.UUID) error
	ListForBucket(ctx context.Context, bucketID uuid.UUID) ([]Link, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, offset, limit int) ([]Link, error)
	CountByOwner(ctx context.Context, ownerID uuid.UUID) (int, error)
	Get(ctx context.Context, linkID uuid.UUID) (Link, error)
	Update(ctx context.Context, linkID uuid.UUID, title string, tags []string) (Link, error)
	MarkOpened(ctx context.Context, linkID uuid.UUID, at time.Time) (Link, error)
	Owners(ctx context.Context, linkIDs []uuid.UUID) (map[uuid.UUID]uuid.UUID, error)
	DeleteMany(ctx context.Context, linkIDs []uuid.UUID) (int64, error)
}

// Service manages links and their membership in buckets.
type Service struct {
	repo    store
	log     *zap.Logger
	nowFunc func() time.Time
}

// NewService constructs a link service.
func NewService(repo store, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		repo:    repo,
		log:     log,
		nowFunc: time.Now,
	}
}

// CreateManyAndMapping stores the drafts as links owned by ownerID and maps
// them into bucketID. All drafts are validated before anything is written.
func (s *Service) CreateManyAndMapping(ctx context.Context, drafts []Draft, ownerID, bucketID uuid.UUID) ([]uuid.UUID, error) {
	now := s.nowFunc().UTC()

	links := make([]Link, 0, len(drafts))
	for i, d := range drafts {
		normalized, err := NormalizeDraft(d)
		if err != nil {
			return nil, fmt.Errorf("link %d: %w", i, err)
		}
		links = append(links, Link{
			ID:        uuid.New(),
			OwnerID:   ownerID,
			URL:       normalized.URL,
			Title:     normalized.Title,
			Tags:      normalized.Tags,
			CreatedAt: now,
			OpenedAt:  now,
		})
	}

	err := s.repo.CreateManyAndMapping(ctx, links, bucketID)
	metrics.ObserveOperation("link", "create_many", err)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(links))
	for i, l := range links {
		ids[i] = l.ID
	}
	return ids, nil
}

// ListForBucket returns the links of a bucket.
func (s *Service) ListForBucket(ctx context.Context, bucketID uuid.UUID) ([]Link, error) {
	return s.repo.ListForBucket(ctx, bucketID)
}

// ListLinks returns one page of the owner's links.
func (s *Service) ListLinks(ctx context.Context, ownerID uuid.UUID, q pagination.Query) (pagination.Page[Link], error) {
	q = pagination.Normalize(q.Page, q.Take)

	var (
		links []Link
		total int
	)
	g, gctx := errgroup.WithContext(ctx)
	if !q.OutOfRange() {
		g.Go(func() error {
			var err error
			links, err = s.repo.ListByOwner(gctx, ownerID, q.Offset(), q.Take)
			return err
		})
	}
	g.Go(func() error {
		var err error
		total, err = s.repo.CountByOwner(gctx, ownerID)
		return err
	})
	if err := g.Wait(); err != nil {
		return pagination.Page[Link]{}, err
	}

	return pagination.Paginate(links, q, total), nil
}

// UpdateLink changes the title and/or tags of a link owned by the actor.
func (s *Service) UpdateLink(ctx context.Context, linkID, actorID uuid.UUID, input UpdateInput) (Link, error) {
	current, err := s.ownedLink(ctx, linkID, actorID)
	if err != nil {
		return Link{}, err
	}

	title := current.Title
	if input.Title != nil {
		title = strings.TrimSpace(*input.Title)
		if title == "" {
			title = current.URL
		}
	}
	tags := current.Tags
	if input.Tags != nil {
		tags = normalizeTags(input.Tags)
	}

	updated, err := s.repo.Update(ctx, linkID, title, tags)
	metrics.ObserveOperation("link", "update", err)
	return updated, err
}

// OpenLink records a visit to a link owned by the actor.
func (s *Service) OpenLink(ctx context.Context, linkID, actorID uuid.UUID) (Link, error) {
	if _, err := s.ownedLink(ctx, linkID, actorID); err != nil {
		return Link{}, err
	}
	opened, err := s.repo.MarkOpened(ctx, linkID, s.nowFunc().UTC())
	metrics.ObserveOperation("link", "open", err)
	return opened, err
}

// DeleteLinks removes links owned by the actor. Nothing is deleted unless the
// actor owns every listed link.
func (s *Service) DeleteLinks(ctx context.Context, linkIDs []uuid.UUID, actorID uuid.UUID) (int64, error) {
	ids := dedupeIDs(linkIDs)
	if len(ids) == 0 {
		return 0, nil
	}

	owners, err := s.repo.Owners(ctx, ids)
	if err != nil {
		return 0, err
	}
	for _, id := range ids {
		owner, ok := owners[id]
		if !ok {
			return 0, ErrLinkNotFound
		}
		if owner != actorID {
			return 0, ErrNotLinkOwner
		}
	}

	deleted, err := s.repo.DeleteMany(ctx, ids)
	metrics.ObserveOperation("link", "delete", err)
	if err != nil {
		return 0, err
	}
	s.log.Debug("links deleted", zap.String("actor_id", actorID.String()), zap.Int64("count", deleted))
	return deleted, nil
}

func (s *Service) ownedLink(ctx context.Context, linkID, actorID uuid.UUID) (Link, error) {
	l, err := s.repo.Get(ctx, linkID)
	if err != nil {
		return Link{}, err
	}
	if l.OwnerID != actorID {
		return Link{}, ErrNotLinkOwner
	}
	return l, nil
}

// NormalizeDraft checks that d has an absolute http(s) URL, trims its fields
// and defaults the title to the URL.
func NormalizeDraft(d Draft) (Draft, error) {
	raw := strings.TrimSpace(d.URL)
	parsed, err := url.ParseRequestURI(raw)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return Draft{}, fmt.Errorf("%w: %q", ErrInvalidURL, d.URL)
	}

	title := strings.TrimSpace(d.Title)
	if title == "" {
		title = raw
	}
	return Draft{URL: raw, Title: title, Tags: normalizeTags(d.Tags)}, nil
}

func normalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

func dedupeIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
