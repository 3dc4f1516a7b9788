package link

import "errors"

var (
	// ErrLinkNotFound signals that the link could not be located.
	ErrLinkNotFound = errors.New("link not found")
	// ErrNotLinkOwner is returned when the actor tries to change someone else's link.
	ErrNotLinkOwner = errors.New("not the link owner")
	// ErrInvalidURL rejects drafts whose URL is not an absolute http(s) URL.
	ErrInvalidURL = errors.New("invalid link url")
)
