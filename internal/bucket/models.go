package bucket

import (
	"time"

	"github.com/abduss/linkbucket/internal/link"
	"github.com/google/uuid"
)

// Bucket is a titled collection of links owned by one user.
type Bucket struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   uuid.UUID `json:"owner_id"`
	Title     string    `json:"title"`
	IsShared  bool      `json:"is_shared"`
	LinkCount int       `json:"link_count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Summary is the list projection of a bucket.
type Summary struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	LinkCount int       `json:"link_count"`
	IsShared  bool      `json:"is_shared"`
	CreatedAt time.Time `json:"created_at"`
}

// Detail is a bucket as seen by a particular viewer, with its links.
type Detail struct {
	ID        uuid.UUID   `json:"id"`
	OwnerID   uuid.UUID   `json:"owner_id"`
	Title     string      `json:"title"`
	LinkCount int         `json:"link_count"`
	CreatedAt time.Time   `json:"created_at"`
	IsShared  bool        `json:"is_shared"`
	IsMine    bool        `json:"is_mine"`
	Links     []link.Link `json:"links"`
}

// ShareState reports the share flag and the public URL derived from it.
type ShareState struct {
	IsShared bool   `json:"is_shared"`
	ShareURL string `json:"share_url"`
}

// CreateInput carries the data for a new bucket. A blank Title gets a
// timestamp label.
type CreateInput struct {
	Title      string
	OwnerEmail string
	Links      []link.Draft
}

func (b Bucket) summary() Summary {
	return Summary{
		ID:        b.ID,
		Title:     b.Title,
		LinkCount: b.LinkCount,
		IsShared:  b.IsShared,
		CreatedAt: b.CreatedAt,
	}
}
