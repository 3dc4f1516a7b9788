package link

import (
	"time"

	"github.com/google/uuid"
)

// Link is a saved URL owned by a user.
type Link struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   uuid.UUID `json:"owner_id"`
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	Tags      []string  `json:"tags"`
	Views     int       `json:"views"`
	CreatedAt time.Time `json:"created_at"`
	OpenedAt  time.Time `json:"opened_at"`
}

// Draft is a link as submitted by a client, before it is stored.
type Draft struct {
	URL   string   `json:"url"`
	Title string   `json:"title"`
	Tags  []string `json:"tags"`
}

// DraftOf returns a draft reproducing l, used when copying links between buckets.
func DraftOf(l Link) Draft {
	tags := make([]string, len(l.Tags))
	copy(tags, l.Tags)
	return Draft{URL: l.URL, Title: l.Title, Tags: tags}
}

// UpdateInput carries optional link changes. A nil field is left untouched;
// a non-nil empty Tags slice clears the tags.
type UpdateInput struct {
	Title *string
	Tags  []string
}
