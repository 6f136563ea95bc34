package types

import (
	"context"

	"github.com/google/uuid"
)

type LogID string

func NewLogID(ctx context.Context) LogID {
	return LogID(newUUID(ctx))
}

func (id LogID) String() string {
	return string(id)
}

// IsValid checks if the LogID is valid
func (id LogID) IsValid() bool {
	if id == "" {
		return false
	}
	_, err := uuid.Parse(string(id))
	return err == nil
}
