package codec

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// UUID converts between canonical textual UUIDs and uuid.UUID.
type UUID struct{}

func (UUID) DecodeText(_ context.Context, s string) (any, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("invalid UUID")
	}
	return id, nil
}

func (UUID) EncodeText(_ context.Context, v any) (string, error) {
	switch id := v.(type) {
	case uuid.UUID:
		return id.String(), nil
	case string:
		parsed, err := uuid.Parse(id)
		if err != nil {
			return "", fmt.Errorf("invalid UUID")
		}
		return parsed.String(), nil
	}
	return "", fmt.Errorf("expected uuid.UUID, got %T", v)
}

func (UUID) Zero() any { return uuid.Nil }
