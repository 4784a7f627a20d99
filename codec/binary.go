package codec

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
)

// Base64 converts between standard base64 text and []byte.
type Base64 struct{}

func (Base64) DecodeText(_ context.Context, s string) (any, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid base64")
	}
	return b, nil
}

func (Base64) EncodeText(_ context.Context, v any) (string, error) {
	b, ok := v.([]byte)
	if !ok {
		return "", fmt.Errorf("expected []byte, got %T", v)
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

func (Base64) Zero() any { return []byte(nil) }

// ColonSeparatedHex converts between lowercase colon-separated hex octets
// ("aa:bb:cc", the form fingerprints are printed in) and []byte.
type ColonSeparatedHex struct{}

func (ColonSeparatedHex) DecodeText(_ context.Context, s string) (any, error) {
	if s == "" {
		return []byte{}, nil
	}
	parts := strings.Split(s, ":")
	out := make([]byte, len(parts))
	for i, p := range parts {
		if len(p) != 2 {
			return nil, fmt.Errorf("invalid hex octet %q", p)
		}
		b, err := hex.DecodeString(p)
		if err != nil {
			return nil, fmt.Errorf("invalid hex octet %q", p)
		}
		out[i] = b[0]
	}
	return out, nil
}

func (ColonSeparatedHex) EncodeText(_ context.Context, v any) (string, error) {
	b, ok := v.([]byte)
	if !ok {
		return "", fmt.Errorf("expected []byte, got %T", v)
	}
	parts := make([]string, len(b))
	for i, o := range b {
		parts[i] = hex.EncodeToString([]byte{o})
	}
	return strings.Join(parts, ":"), nil
}

func (ColonSeparatedHex) Zero() any { return []byte(nil) }
