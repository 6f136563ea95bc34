package types

import (
	"context"

	"github.com/google/uuid"
)

// VersionID identifies a single stored version of a versioned record
type VersionID string

func NewVersionID(ctx context.Context) VersionID {
	return VersionID(newUUID(ctx))
}

func (id VersionID) String() string {
	return string(id)
}

// IsValid checks if the VersionID is valid
func (id VersionID) IsValid() bool {
	if id == "" {
		return false
	}
	_, err := uuid.Parse(string(id))
	return err == nil
}
