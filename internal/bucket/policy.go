package bucket

import "github.com/google/uuid"

// CanView reports whether actorID may read b. Shared buckets are public.
func CanView(b Bucket, actorID uuid.UUID) bool {
	return b.IsShared || CanMutate(b, actorID)
}

// CanMutate reports whether actorID may rename, share or delete b.
func CanMutate(b Bucket, actorID uuid.UUID) bool {
	return actorID != uuid.Nil && actorID == b.OwnerID
}

func authorizeView(b Bucket, actorID uuid.UUID) error {
	if !CanView(b, actorID) {
		return ErrUnauthorizedViewer
	}
	return nil
}

func authorizeMutation(b Bucket, actorID uuid.UUID) error {
	if !CanMutate(b, actorID) {
		return ErrNotOwner
	}
	return nil
}
