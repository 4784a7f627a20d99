// Package codec provides the ready-made text codecs for gostanza Attr and
// Text fields. All codecs are stateless values; errors are plain and get
// wrapped into invalid_value issues by the decode builder.
package codec

import (
	"context"
	"fmt"
	"strconv"
)

// String passes XML text through unchanged.
type String struct{}

func (String) DecodeText(_ context.Context, s string) (any, error) { return s, nil }

func (String) EncodeText(_ context.Context, v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("expected string, got %T", v)
	}
	return s, nil
}

func (String) Zero() any { return "" }

// NonEmptyString rejects empty text in both directions.
type NonEmptyString struct{}

func (NonEmptyString) DecodeText(_ context.Context, s string) (any, error) {
	if s == "" {
		return nil, fmt.Errorf("must not be empty")
	}
	return s, nil
}

func (NonEmptyString) EncodeText(_ context.Context, v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("expected string, got %T", v)
	}
	if s == "" {
		return "", fmt.Errorf("must not be empty")
	}
	return s, nil
}

func (NonEmptyString) Zero() any { return "" }

// Int converts between decimal text and int64.
type Int struct{}

func (Int) DecodeText(_ context.Context, s string) (any, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid integer")
	}
	return n, nil
}

func (Int) EncodeText(_ context.Context, v any) (string, error) {
	switch n := v.(type) {
	case int64:
		return strconv.FormatInt(n, 10), nil
	case int:
		return strconv.Itoa(n), nil
	case int32:
		return strconv.FormatInt(int64(n), 10), nil
	case float64:
		// JSON decoders hand integers over as float64.
		if n == float64(int64(n)) {
			return strconv.FormatInt(int64(n), 10), nil
		}
	}
	return "", fmt.Errorf("expected integer, got %T", v)
}

func (Int) Zero() any { return int64(0) }

// Uint converts between decimal text and uint64.
type Uint struct{}

func (Uint) DecodeText(_ context.Context, s string) (any, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid unsigned integer")
	}
	return n, nil
}

func (Uint) EncodeText(_ context.Context, v any) (string, error) {
	switch n := v.(type) {
	case uint64:
		return strconv.FormatUint(n, 10), nil
	case uint:
		return strconv.FormatUint(uint64(n), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(n), 10), nil
	case float64:
		if n >= 0 && n == float64(uint64(n)) {
			return strconv.FormatUint(uint64(n), 10), nil
		}
	}
	return "", fmt.Errorf("expected unsigned integer, got %T", v)
}

func (Uint) Zero() any { return uint64(0) }

// Bool converts between XML boolean text and bool. Decoding accepts the four
// canonical forms "true", "false", "1", "0"; encoding always produces
// "true" or "false".
type Bool struct{}

func (Bool) DecodeText(_ context.Context, s string) (any, error) {
	switch s {
	case "true", "1":
		return true, nil
	case "false", "0":
		return false, nil
	}
	return nil, fmt.Errorf("invalid boolean")
}

func (Bool) EncodeText(_ context.Context, v any) (string, error) {
	b, ok := v.(bool)
	if !ok {
		return "", fmt.Errorf("expected bool, got %T", v)
	}
	if b {
		return "true", nil
	}
	return "false", nil
}

func (Bool) Zero() any { return false }
