package bucket

import "errors"

var (
	// ErrBucketNotFound indicates the requested bucket does not exist.
	ErrBucketNotFound = errors.New("bucket not found")
	// ErrUnauthorizedViewer is returned when a private bucket is viewed by someone other than its owner.
	ErrUnauthorizedViewer = errors.New("bucket is private")
	// ErrNotOwner is returned when a non-owner tries to change a bucket.
	ErrNotOwner = errors.New("not the bucket owner")
	// ErrOwnerNotRegistered is returned when the owner email has no account.
	ErrOwnerNotRegistered = errors.New("owner not registered")
	// ErrTitleRequired is returned when a rename leaves the title blank.
	ErrTitleRequired = errors.New("bucket title required")
)
