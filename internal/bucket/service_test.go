package bucket

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/abduss/linkbucket/internal/config"
	"github.com/abduss/linkbucket/internal/link"
	"github.com/abduss/linkbucket/internal/pagination"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var (
	ownerID    = uuid.MustParse("00000000-0000-0000-0000-000000000001")
	strangerID = uuid.MustParse("00000000-0000-0000-0000-000000000002")
)

func newTestService(t *testing.T) (*Service, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	dir := fakeDirectory{users: map[string]uuid.UUID{
		"owner@example.com":    ownerID,
		"stranger@example.com": strangerID,
	}}
	svc := NewService(store, store, dir, config.BucketConfig{
		PublicURL:     "https://linkbucket.app/",
		TitleTimezone: "Asia/Seoul",
	}, nil)
	return svc, store
}

func sampleDrafts() []link.Draft {
	return []link.Draft{
		{URL: "https://go.dev", Title: "Go", Tags: []string{"lang"}},
		{URL: "https://pkg.go.dev", Title: "Packages"},
	}
}

func TestCreateBucketAttachesLinks(t *testing.T) {
	svc, store := newTestService(t)

	id, err := svc.CreateBucket(context.Background(), CreateInput{
		Title:      "reading",
		OwnerEmail: "owner@example.com",
		Links:      sampleDrafts(),
	})
	require.NoError(t, err)

	detail, err := svc.GetBucket(context.Background(), id, ownerID)
	require.NoError(t, err)
	assert.Equal(t, "reading", detail.Title)
	assert.Equal(t, ownerID, detail.OwnerID)
	assert.Equal(t, 2, detail.LinkCount)
	require.Len(t, detail.Links, 2)
	assert.Equal(t, "https://go.dev", detail.Links[0].URL)
	assert.Equal(t, 2, store.linkCount())
}

func TestCreateBucketDefaultTitle(t *testing.T) {
	svc, _ := newTestService(t)
	// 2024-01-05 06:04:05 UTC is 15:04:05 in Seoul.
	svc.nowFunc = func() time.Time { return time.Date(2024, 1, 5, 6, 4, 5, 0, time.UTC) }

	id, err := svc.CreateBucket(context.Background(), CreateInput{Title: "   ", OwnerEmail: "owner@example.com"})
	require.NoError(t, err)

	detail, err := svc.GetBucket(context.Background(), id, ownerID)
	require.NoError(t, err)
	assert.Equal(t, "2024. 1. 5. 오후 3:04:05에 생성된 바구니", detail.Title)
}

func TestDefaultTitle(t *testing.T) {
	kst := time.FixedZone("KST", 9*60*60)
	tests := []struct {
		name string
		at   time.Time
		want string
	}{
		{"midnight", time.Date(2024, 12, 31, 0, 0, 9, 0, kst), "2024. 12. 31. 오전 12:00:09에 생성된 바구니"},
		{"morning", time.Date(2024, 3, 7, 9, 30, 0, 0, kst), "2024. 3. 7. 오전 9:30:00에 생성된 바구니"},
		{"noon", time.Date(2024, 3, 7, 12, 1, 2, 0, kst), "2024. 3. 7. 오후 12:01:02에 생성된 바구니"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultTitle(tt.at, kst))
		})
	}
}

func TestCreateBucketUnknownOwner(t *testing.T) {
	svc, store := newTestService(t)

	_, err := svc.CreateBucket(context.Background(), CreateInput{OwnerEmail: "ghost@example.com"})
	require.ErrorIs(t, err, ErrOwnerNotRegistered)
	assert.Empty(t, store.buckets)
}

func TestCreateBucketRejectsInvalidLink(t *testing.T) {
	svc, store := newTestService(t)

	_, err := svc.CreateBucket(context.Background(), CreateInput{
		OwnerEmail: "owner@example.com",
		Links:      []link.Draft{{URL: "https://ok.example"}, {URL: "not a url"}},
	})
	require.ErrorIs(t, err, link.ErrInvalidURL)
	assert.Empty(t, store.buckets)
	assert.Zero(t, store.linkCount())
}

func TestCreateBucketDirectoryFailure(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, store, fakeDirectory{err: errBoom}, config.BucketConfig{}, nil)

	_, err := svc.CreateBucket(context.Background(), CreateInput{OwnerEmail: "owner@example.com"})
	require.ErrorIs(t, err, errBoom)
	assert.NotErrorIs(t, err, ErrOwnerNotRegistered)
}

func TestCreateBucketRemovesBucketWhenAttachFails(t *testing.T) {
	svc, store := newTestService(t)
	store.failAttach = errBoom

	_, err := svc.CreateBucket(context.Background(), CreateInput{
		OwnerEmail: "owner@example.com",
		Links:      sampleDrafts(),
	})
	require.ErrorIs(t, err, errBoom)
	assert.Empty(t, store.buckets)
}

func TestListBucketsPagination(t *testing.T) {
	svc, _ := newTestService(t)
	for i := 0; i < 15; i++ {
		_, err := svc.CreateBucket(context.Background(), CreateInput{
			Title:      fmt.Sprintf("bucket %02d", i),
			OwnerEmail: "owner@example.com",
		})
		require.NoError(t, err)
	}
	_, err := svc.CreateBucket(context.Background(), CreateInput{Title: "theirs", OwnerEmail: "stranger@example.com"})
	require.NoError(t, err)

	page, err := svc.ListBuckets(context.Background(), ownerID, pagination.Query{Page: 2, Take: 10})
	require.NoError(t, err)

	assert.Len(t, page.Items, 5)
	want := pagination.Meta{TotalItems: 15, TotalPages: 2, HasNextPage: false, HasPrevPage: true, Page: 2, Take: 10}
	if diff := cmp.Diff(want, page.Meta); diff != "" {
		t.Fatalf("meta mismatch (-want +got):\n%s", diff)
	}
	// newest first: page 2 holds the five oldest.
	assert.Equal(t, "bucket 04", page.Items[0].Title)
	assert.Equal(t, "bucket 00", page.Items[4].Title)
}

func TestListBucketsReportsShareState(t *testing.T) {
	svc, _ := newTestService(t)
	id, err := svc.CreateBucket(context.Background(), CreateInput{Title: "public", OwnerEmail: "owner@example.com", Links: sampleDrafts()})
	require.NoError(t, err)
	_, err = svc.SetShare(context.Background(), id, ownerID, true)
	require.NoError(t, err)

	page, err := svc.ListBuckets(context.Background(), ownerID, pagination.Query{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.True(t, page.Items[0].IsShared)
	assert.Equal(t, 2, page.Items[0].LinkCount)
	assert.Equal(t, pagination.DefaultTake, page.Meta.Take)
}

func TestListBucketsPastLastPage(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.CreateBucket(context.Background(), CreateInput{Title: "only", OwnerEmail: "owner@example.com"})
	require.NoError(t, err)

	page, err := svc.ListBuckets(context.Background(), ownerID, pagination.Query{Page: 5, Take: 10})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.NotNil(t, page.Items)
	assert.Equal(t, 1, page.Meta.TotalPages)
	assert.False(t, page.Meta.HasNextPage)
	assert.True(t, page.Meta.HasPrevPage)
}

func TestListBucketsExtremeQuery(t *testing.T) {
	svc, _ := newTestService(t)
	for i := 0; i < 3; i++ {
		_, err := svc.CreateBucket(context.Background(), CreateInput{Title: fmt.Sprintf("b%d", i), OwnerEmail: "owner@example.com"})
		require.NoError(t, err)
	}

	t.Run("take is capped", func(t *testing.T) {
		page, err := svc.ListBuckets(context.Background(), ownerID, pagination.ParseQuery("1", "9223372036854775807"))
		require.NoError(t, err)
		assert.Len(t, page.Items, 3)
		assert.Equal(t, pagination.MaxTake, page.Meta.Take)
	})

	t.Run("page beyond addressable rows", func(t *testing.T) {
		page, err := svc.ListBuckets(context.Background(), ownerID, pagination.ParseQuery("9223372036854775807", "10"))
		require.NoError(t, err)
		assert.Empty(t, page.Items)
		assert.NotNil(t, page.Items)
		assert.Equal(t, 3, page.Meta.TotalItems)
		assert.Equal(t, 1, page.Meta.TotalPages)
		assert.False(t, page.Meta.HasNextPage)
	})
}

func TestGetBucketVisibility(t *testing.T) {
	svc, _ := newTestService(t)
	id, err := svc.CreateBucket(context.Background(), CreateInput{Title: "mine", OwnerEmail: "owner@example.com"})
	require.NoError(t, err)

	t.Run("private bucket hidden from others", func(t *testing.T) {
		_, err := svc.GetBucket(context.Background(), id, strangerID)
		require.ErrorIs(t, err, ErrUnauthorizedViewer)

		_, err = svc.GetBucket(context.Background(), id, uuid.Nil)
		require.ErrorIs(t, err, ErrUnauthorizedViewer)
	})

	t.Run("private bucket visible to owner", func(t *testing.T) {
		detail, err := svc.GetBucket(context.Background(), id, ownerID)
		require.NoError(t, err)
		assert.True(t, detail.IsMine)
		assert.NotNil(t, detail.Links)
	})

	t.Run("shared bucket visible to all", func(t *testing.T) {
		_, err := svc.SetShare(context.Background(), id, ownerID, true)
		require.NoError(t, err)

		for _, actor := range []uuid.UUID{strangerID, uuid.Nil} {
			detail, err := svc.GetBucket(context.Background(), id, actor)
			require.NoError(t, err)
			assert.False(t, detail.IsMine)
			assert.True(t, detail.IsShared)
		}

		detail, err := svc.GetBucket(context.Background(), id, ownerID)
		require.NoError(t, err)
		assert.True(t, detail.IsMine)
	})

	t.Run("missing bucket", func(t *testing.T) {
		_, err := svc.GetBucket(context.Background(), uuid.New(), ownerID)
		require.ErrorIs(t, err, ErrBucketNotFound)
	})
}

func TestSetShare(t *testing.T) {
	svc, _ := newTestService(t)
	id, err := svc.CreateBucket(context.Background(), CreateInput{Title: "mine", OwnerEmail: "owner@example.com"})
	require.NoError(t, err)

	state, err := svc.SetShare(context.Background(), id, ownerID, true)
	require.NoError(t, err)
	assert.Equal(t, ShareState{IsShared: true, ShareURL: "https://linkbucket.app/bucket/" + id.String()}, state)

	state, err = svc.SetShare(context.Background(), id, ownerID, false)
	require.NoError(t, err)
	assert.Equal(t, ShareState{}, state)

	_, err = svc.SetShare(context.Background(), id, strangerID, true)
	require.ErrorIs(t, err, ErrNotOwner)

	_, err = svc.SetShare(context.Background(), uuid.New(), ownerID, true)
	require.ErrorIs(t, err, ErrBucketNotFound)
}

func TestPasteBucket(t *testing.T) {
	svc, store := newTestService(t)
	sourceID, err := svc.CreateBucket(context.Background(), CreateInput{Title: "reading", OwnerEmail: "owner@example.com", Links: sampleDrafts()})
	require.NoError(t, err)

	_, err = svc.PasteBucket(context.Background(), sourceID, strangerID)
	require.ErrorIs(t, err, ErrUnauthorizedViewer)

	_, err = svc.SetShare(context.Background(), sourceID, ownerID, true)
	require.NoError(t, err)

	copyID, err := svc.PasteBucket(context.Background(), sourceID, strangerID)
	require.NoError(t, err)
	require.NotEqual(t, sourceID, copyID)

	copied, err := svc.GetBucket(context.Background(), copyID, strangerID)
	require.NoError(t, err)
	assert.Equal(t, strangerID, copied.OwnerID)
	assert.Equal(t, "reading의 복사본", copied.Title)
	assert.False(t, copied.IsShared)
	require.Len(t, copied.Links, 2)
	for _, l := range copied.Links {
		assert.Equal(t, strangerID, l.OwnerID)
	}

	store.setLinkTitle(copied.Links[0].ID, "changed")

	original, err := svc.GetBucket(context.Background(), sourceID, ownerID)
	require.NoError(t, err)
	assert.Equal(t, "Go", original.Links[0].Title)
	assert.NotEqual(t, original.Links[0].ID, copied.Links[0].ID)

	_, err = svc.PasteBucket(context.Background(), uuid.New(), strangerID)
	require.ErrorIs(t, err, ErrBucketNotFound)
}

func TestRenameBucket(t *testing.T) {
	svc, _ := newTestService(t)
	id, err := svc.CreateBucket(context.Background(), CreateInput{Title: "old", OwnerEmail: "owner@example.com"})
	require.NoError(t, err)

	_, err = svc.RenameBucket(context.Background(), id, strangerID, "stolen")
	require.ErrorIs(t, err, ErrNotOwner)

	_, err = svc.RenameBucket(context.Background(), id, ownerID, "  ")
	require.ErrorIs(t, err, ErrTitleRequired)

	renamed, err := svc.RenameBucket(context.Background(), id, ownerID, " new ")
	require.NoError(t, err)
	assert.Equal(t, "new", renamed.Title)

	_, err = svc.RenameBucket(context.Background(), uuid.New(), ownerID, "x")
	require.ErrorIs(t, err, ErrBucketNotFound)
}

func TestDeleteBucketByNonOwnerLeavesStateIntact(t *testing.T) {
	svc, store := newTestService(t)
	id, err := svc.CreateBucket(context.Background(), CreateInput{Title: "keep", OwnerEmail: "owner@example.com", Links: sampleDrafts()})
	require.NoError(t, err)

	err = svc.DeleteBucket(context.Background(), id, strangerID)
	require.ErrorIs(t, err, ErrNotOwner)

	detail, err := svc.GetBucket(context.Background(), id, ownerID)
	require.NoError(t, err)
	assert.Equal(t, 2, detail.LinkCount)
	assert.Equal(t, 2, store.linkCount())
}

func TestDeleteBucketCascades(t *testing.T) {
	svc, store := newTestService(t)
	id, err := svc.CreateBucket(context.Background(), CreateInput{Title: "gone", OwnerEmail: "owner@example.com", Links: sampleDrafts()})
	require.NoError(t, err)
	otherID, err := svc.CreateBucket(context.Background(), CreateInput{Title: "stays", OwnerEmail: "owner@example.com", Links: sampleDrafts()[:1]})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteBucket(context.Background(), id, ownerID))

	_, err = svc.GetBucket(context.Background(), id, ownerID)
	require.ErrorIs(t, err, ErrBucketNotFound)
	assert.Equal(t, 1, store.linkCount())

	other, err := svc.GetBucket(context.Background(), otherID, ownerID)
	require.NoError(t, err)
	assert.Len(t, other.Links, 1)

	require.ErrorIs(t, svc.DeleteBucket(context.Background(), id, ownerID), ErrBucketNotFound)
}

func TestDeleteBucketTransactionFailure(t *testing.T) {
	svc, store := newTestService(t)
	id, err := svc.CreateBucket(context.Background(), CreateInput{Title: "stuck", OwnerEmail: "owner@example.com", Links: sampleDrafts()})
	require.NoError(t, err)
	store.failDelete = errBoom

	require.ErrorIs(t, svc.DeleteBucket(context.Background(), id, ownerID), errBoom)

	store.failDelete = nil
	detail, err := svc.GetBucket(context.Background(), id, ownerID)
	require.NoError(t, err)
	assert.Equal(t, 2, detail.LinkCount)
}

func TestPolicy(t *testing.T) {
	private := Bucket{OwnerID: ownerID}
	shared := Bucket{OwnerID: ownerID, IsShared: true}

	assert.True(t, CanView(private, ownerID))
	assert.False(t, CanView(private, strangerID))
	assert.False(t, CanView(private, uuid.Nil))
	assert.True(t, CanView(shared, strangerID))
	assert.True(t, CanView(shared, uuid.Nil))

	assert.True(t, CanMutate(shared, ownerID))
	assert.False(t, CanMutate(shared, strangerID))
	assert.False(t, CanMutate(Bucket{}, uuid.Nil))
}
