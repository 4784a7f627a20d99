package codec

import (
	"context"
	"fmt"
	"time"
)

// TimeRFC3339 converts between RFC3339 text and time.Time. Decoding accepts
// sub-second precision; encoding normalizes to UTC and lets Go trim trailing
// zeros.
type TimeRFC3339 struct{}

func (TimeRFC3339) DecodeText(_ context.Context, s string) (any, error) {
	t, err := parseRFC3339(s)
	if err != nil {
		return nil, fmt.Errorf("invalid RFC3339 time")
	}
	return t, nil
}

func (TimeRFC3339) EncodeText(_ context.Context, v any) (string, error) {
	t, ok := v.(time.Time)
	if !ok {
		return "", fmt.Errorf("expected time.Time, got %T", v)
	}
	return formatRFC3339Canonical(t), nil
}

func (TimeRFC3339) Zero() any { return time.Time{} }

func parseRFC3339(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		if t2, err2 := time.Parse(time.RFC3339, s); err2 == nil {
			return t2, nil
		}
		return time.Time{}, err
	}
	return t, nil
}

func formatRFC3339Canonical(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
