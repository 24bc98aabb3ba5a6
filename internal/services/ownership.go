package services

import (
	"github.com/localnerve/contentforge/internal/types"
)

// Owned is implemented by every entity whose mutation is restricted to its
// creator.
type Owned interface {
	OwnerID() string
}

// AssertOwner enforces creator-only mutation. Pure predicate, no side effects;
// callers run it before every update, delete, status change and section
// mutation.
func AssertOwner(entity Owned, userID string) error {
	if entity.OwnerID() != userID {
		return types.NewNotAuthorized("Not authorized to modify this resource")
	}
	return nil
}
