package bucket

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/abduss/linkbucket/internal/auth"
	"github.com/abduss/linkbucket/internal/config"
	"github.com/abduss/linkbucket/internal/link"
	"github.com/abduss/linkbucket/internal/metrics"
	"github.com/abduss/linkbucket/internal/pagination"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const copySuffix = "의 복사본"

// LinkAssociator creates links inside buckets and lists a bucket's links.
type LinkAssociator interface {
	CreateManyAndMapping(ctx context.Context, drafts []link.Draft, ownerID, bucketID uuid.UUID) ([]uuid.UUID, error)
	ListForBucket(ctx context.Context, bucketID uuid.UUID) ([]link.Link, error)
}

// Directory resolves account emails to user ids.
type Directory interface {
	ResolveOwner(ctx context.Context, email string) (uuid.UUID, error)
}

type repository interface {
	Create(ctx context.Context, ownerID uuid.UUID, title string) (Bucket, error)
	Get(ctx context.Context, bucketID uuid.UUID) (Bucket, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, offset, limit int) ([]Bucket, error)
	CountByOwner(ctx context.Context, ownerID uuid.UUID) (int, error)
	UpdateTitle(ctx context.Context, bucketID uuid.UUID, title string) (Bucket, error)
	UpdateShare(ctx context.Context, bucketID uuid.UUID, shared bool) (Bucket, error)
	DeleteCascade(ctx context.Context, bucketID uuid.UUID) error
}

// Service orchestrates bucket operations.
type Service struct {
	repo      repository
	links     LinkAssociator
	users     Directory
	publicURL string
	location  *time.Location
	log       *zap.Logger
	nowFunc   func() time.Time
}

// NewService constructs a bucket service.
func NewService(repo repository, links LinkAssociator, users Directory, cfg config.BucketConfig, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		repo:      repo,
		links:     links,
		users:     users,
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
		location:  loadLocation(cfg.TitleTimezone, log),
		log:       log,
		nowFunc:   time.Now,
	}
}

// CreateBucket creates a bucket for the owner named in the input and attaches
// its links before returning. If the links cannot be attached the bucket is
// removed again.
func (s *Service) CreateBucket(ctx context.Context, input CreateInput) (id uuid.UUID, err error) {
	defer func() { metrics.ObserveOperation("bucket", "create", err) }()

	for i, d := range input.Links {
		if _, err := link.NormalizeDraft(d); err != nil {
			return uuid.Nil, fmt.Errorf("link %d: %w", i, err)
		}
	}

	ownerID, err := s.users.ResolveOwner(ctx, input.OwnerEmail)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return uuid.Nil, ErrOwnerNotRegistered
		}
		return uuid.Nil, fmt.Errorf("resolve owner: %w", err)
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = DefaultTitle(s.nowFunc(), s.location)
	}

	return s.createWithLinks(ctx, ownerID, title, input.Links)
}

// ListBuckets returns one page of the owner's buckets, newest first.
func (s *Service) ListBuckets(ctx context.Context, ownerID uuid.UUID, q pagination.Query) (pagination.Page[Summary], error) {
	q = pagination.Normalize(q.Page, q.Take)

	var (
		buckets []Bucket
		total   int
	)
	g, gctx := errgroup.WithContext(ctx)
	if !q.OutOfRange() {
		g.Go(func() error {
			var err error
			buckets, err = s.repo.ListByOwner(gctx, ownerID, q.Offset(), q.Take)
			return err
		})
	}
	g.Go(func() error {
		var err error
		total, err = s.repo.CountByOwner(gctx, ownerID)
		return err
	})
	if err := g.Wait(); err != nil {
		metrics.ObserveOperation("bucket", "list", err)
		return pagination.Page[Summary]{}, err
	}
	metrics.ObserveOperation("bucket", "list", nil)

	summaries := make([]Summary, 0, len(buckets))
	for _, b := range buckets {
		summaries = append(summaries, b.summary())
	}
	return pagination.Paginate(summaries, q, total), nil
}

// GetBucket returns the bucket and its links if actorID may view it.
// actorID is uuid.Nil for anonymous viewers.
func (s *Service) GetBucket(ctx context.Context, bucketID, actorID uuid.UUID) (Detail, error) {
	b, err := s.repo.Get(ctx, bucketID)
	if err != nil {
		return Detail{}, err
	}
	if err := authorizeView(b, actorID); err != nil {
		return Detail{}, err
	}

	links, err := s.links.ListForBucket(ctx, bucketID)
	if err != nil {
		return Detail{}, fmt.Errorf("list bucket links: %w", err)
	}
	if links == nil {
		links = []link.Link{}
	}

	return Detail{
		ID:        b.ID,
		OwnerID:   b.OwnerID,
		Title:     b.Title,
		LinkCount: b.LinkCount,
		CreatedAt: b.CreatedAt,
		IsShared:  b.IsShared,
		IsMine:    actorID != uuid.Nil && actorID == b.OwnerID,
		Links:     links,
	}, nil
}

// SetShare turns public sharing on or off. Only the owner may do this.
func (s *Service) SetShare(ctx context.Context, bucketID, actorID uuid.UUID, permission bool) (state ShareState, err error) {
	defer func() { metrics.ObserveOperation("bucket", "share", err) }()

	b, err := s.repo.Get(ctx, bucketID)
	if err != nil {
		return ShareState{}, err
	}
	if err := authorizeMutation(b, actorID); err != nil {
		return ShareState{}, err
	}

	updated, err := s.repo.UpdateShare(ctx, bucketID, permission)
	if err != nil {
		return ShareState{}, err
	}
	return ShareState{IsShared: updated.IsShared, ShareURL: s.ShareURL(updated)}, nil
}

// ShareURL returns the public URL of a shared bucket, or "" when it is private.
func (s *Service) ShareURL(b Bucket) string {
	if !b.IsShared {
		return ""
	}
	return s.publicURL + "/bucket/" + b.ID.String()
}

// PasteBucket copies a viewable bucket and its links into a new bucket owned by actorID.
func (s *Service) PasteBucket(ctx context.Context, sourceID, actorID uuid.UUID) (id uuid.UUID, err error) {
	defer func() { metrics.ObserveOperation("bucket", "paste", err) }()

	source, err := s.GetBucket(ctx, sourceID, actorID)
	if err != nil {
		return uuid.Nil, err
	}

	drafts := make([]link.Draft, 0, len(source.Links))
	for _, l := range source.Links {
		drafts = append(drafts, link.DraftOf(l))
	}

	return s.createWithLinks(ctx, actorID, source.Title+copySuffix, drafts)
}

// RenameBucket changes the title of a bucket owned by actorID.
func (s *Service) RenameBucket(ctx context.Context, bucketID, actorID uuid.UUID, title string) (updated Bucket, err error) {
	defer func() { metrics.ObserveOperation("bucket", "rename", err) }()

	title = strings.TrimSpace(title)
	if title == "" {
		return Bucket{}, ErrTitleRequired
	}

	b, err := s.repo.Get(ctx, bucketID)
	if err != nil {
		return Bucket{}, err
	}
	if err := authorizeMutation(b, actorID); err != nil {
		return Bucket{}, err
	}
	return s.repo.UpdateTitle(ctx, bucketID, title)
}

// DeleteBucket removes a bucket owned by actorID along with its links.
func (s *Service) DeleteBucket(ctx context.Context, bucketID, actorID uuid.UUID) (err error) {
	defer func() { metrics.ObserveOperation("bucket", "delete", err) }()

	b, err := s.repo.Get(ctx, bucketID)
	if err != nil {
		return err
	}
	if err := authorizeMutation(b, actorID); err != nil {
		return err
	}
	return s.repo.DeleteCascade(ctx, bucketID)
}

func (s *Service) createWithLinks(ctx context.Context, ownerID uuid.UUID, title string, drafts []link.Draft) (uuid.UUID, error) {
	b, err := s.repo.Create(ctx, ownerID, title)
	if err != nil {
		return uuid.Nil, err
	}

	if len(drafts) == 0 {
		return b.ID, nil
	}

	if _, err := s.links.CreateManyAndMapping(ctx, drafts, ownerID, b.ID); err != nil {
		if cleanupErr := s.repo.DeleteCascade(context.WithoutCancel(ctx), b.ID); cleanupErr != nil {
			s.log.Warn("remove bucket after failed link attach",
				zap.String("bucket_id", b.ID.String()),
				zap.Error(cleanupErr),
			)
		}
		return uuid.Nil, fmt.Errorf("attach links: %w", err)
	}
	return b.ID, nil
}

// DefaultTitle labels a bucket created at t, as in "2024. 1. 5. 오후 3:04:05에 생성된 바구니".
func DefaultTitle(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	meridiem := "오전"
	if t.Hour() >= 12 {
		meridiem = "오후"
	}
	hour := t.Hour() % 12
	if hour == 0 {
		hour = 12
	}
	return fmt.Sprintf("%d. %d. %d. %s %d:%02d:%02d에 생성된 바구니",
		t.Year(), int(t.Month()), t.Day(), meridiem, hour, t.Minute(), t.Second())
}

func loadLocation(name string, log *zap.Logger) *time.Location {
	if name == "" {
		name = "Asia/Seoul"
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Warn("unknown title timezone, using KST", zap.String("timezone", name), zap.Error(err))
		return time.FixedZone("KST", 9*60*60)
	}
	return loc
}
