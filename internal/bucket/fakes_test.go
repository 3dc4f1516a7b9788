package bucket

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/abduss/linkbucket/internal/auth"
	"github.com/abduss/linkbucket/internal/link"
	"github.com/google/uuid"
)

// fakeStore keeps buckets, links and their mappings in memory. It implements
// both repository and LinkAssociator so cascades can be observed.
type fakeStore struct {
	mu       sync.Mutex
	buckets  map[uuid.UUID]Bucket
	links    map[uuid.UUID]link.Link
	mappings map[uuid.UUID][]uuid.UUID
	clock    time.Time

	failAttach error
	failDelete error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		buckets:  make(map[uuid.UUID]Bucket),
		links:    make(map[uuid.UUID]link.Link),
		mappings: make(map[uuid.UUID][]uuid.UUID),
		clock:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (f *fakeStore) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

func (f *fakeStore) withCount(b Bucket) Bucket {
	b.LinkCount = len(f.mappings[b.ID])
	return b
}

func (f *fakeStore) Create(ctx context.Context, ownerID uuid.UUID, title string) (Bucket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := f.tick()
	b := Bucket{ID: uuid.New(), OwnerID: ownerID, Title: title, CreatedAt: now, UpdatedAt: now}
	f.buckets[b.ID] = b
	return b, nil
}

func (f *fakeStore) Get(ctx context.Context, bucketID uuid.UUID) (Bucket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.buckets[bucketID]
	if !ok {
		return Bucket{}, ErrBucketNotFound
	}
	return f.withCount(b), nil
}

func (f *fakeStore) ListByOwner(ctx context.Context, ownerID uuid.UUID, offset, limit int) ([]Bucket, error) {
	if offset < 0 || limit < 0 {
		return nil, errors.New("OFFSET and LIMIT must not be negative")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var owned []Bucket
	for _, b := range f.buckets {
		if b.OwnerID == ownerID {
			owned = append(owned, f.withCount(b))
		}
	}
	sort.Slice(owned, func(i, j int) bool { return owned[i].CreatedAt.After(owned[j].CreatedAt) })
	if offset >= len(owned) {
		return []Bucket{}, nil
	}
	end := offset + limit
	if end > len(owned) {
		end = len(owned)
	}
	return owned[offset:end], nil
}

func (f *fakeStore) CountByOwner(ctx context.Context, ownerID uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, b := range f.buckets {
		if b.OwnerID == ownerID {
			total++
		}
	}
	return total, nil
}

func (f *fakeStore) UpdateTitle(ctx context.Context, bucketID uuid.UUID, title string) (Bucket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.buckets[bucketID]
	if !ok {
		return Bucket{}, ErrBucketNotFound
	}
	b.Title = title
	b.UpdatedAt = f.tick()
	f.buckets[bucketID] = b
	return f.withCount(b), nil
}

func (f *fakeStore) UpdateShare(ctx context.Context, bucketID uuid.UUID, shared bool) (Bucket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.buckets[bucketID]
	if !ok {
		return Bucket{}, ErrBucketNotFound
	}
	b.IsShared = shared
	b.UpdatedAt = f.tick()
	f.buckets[bucketID] = b
	return f.withCount(b), nil
}

func (f *fakeStore) DeleteCascade(ctx context.Context, bucketID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDelete != nil {
		return f.failDelete
	}
	if _, ok := f.buckets[bucketID]; !ok {
		return ErrBucketNotFound
	}
	linkIDs := f.mappings[bucketID]
	delete(f.mappings, bucketID)
	for _, id := range linkIDs {
		if !f.referenced(id) {
			delete(f.links, id)
		}
	}
	delete(f.buckets, bucketID)
	return nil
}

func (f *fakeStore) referenced(linkID uuid.UUID) bool {
	for _, ids := range f.mappings {
		for _, id := range ids {
			if id == linkID {
				return true
			}
		}
	}
	return false
}

func (f *fakeStore) CreateManyAndMapping(ctx context.Context, drafts []link.Draft, ownerID, bucketID uuid.UUID) ([]uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAttach != nil {
		return nil, f.failAttach
	}
	ids := make([]uuid.UUID, 0, len(drafts))
	for _, d := range drafts {
		l := link.Link{
			ID:      uuid.New(),
			OwnerID: ownerID,
			URL:     d.URL,
			Title:   d.Title,
			Tags:    append([]string(nil), d.Tags...),
		}
		f.links[l.ID] = l
		ids = append(ids, l.ID)
	}
	f.mappings[bucketID] = append(f.mappings[bucketID], ids...)
	return ids, nil
}

func (f *fakeStore) ListForBucket(ctx context.Context, bucketID uuid.UUID) ([]link.Link, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []link.Link
	for _, id := range f.mappings[bucketID] {
		out = append(out, f.links[id])
	}
	return out, nil
}

func (f *fakeStore) setLinkTitle(linkID uuid.UUID, title string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l := f.links[linkID]
	l.Title = title
	f.links[linkID] = l
}

func (f *fakeStore) linkCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.links)
}

// fakeDirectory maps emails to user ids.
type fakeDirectory struct {
	users map[string]uuid.UUID
	err   error
}

func (d fakeDirectory) ResolveOwner(ctx context.Context, email string) (uuid.UUID, error) {
	if d.err != nil {
		return uuid.Nil, d.err
	}
	id, ok := d.users[email]
	if !ok {
		return uuid.Nil, auth.ErrUserNotFound
	}
	return id, nil
}

var errBoom = errors.New("boom")
