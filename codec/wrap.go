package codec

import (
	"context"

	gostanza "github.com/reoring/gostanza"
)

// EmptyAsNone wraps a codec so empty text decodes to nil instead of reaching
// the inner codec, and nil encodes back to empty text. It models optional
// values whose absence is spelled as an empty attribute or element.
func EmptyAsNone(inner gostanza.TextCodec) gostanza.TextCodec {
	return emptyAsNone{inner: inner}
}

type emptyAsNone struct {
	inner gostanza.TextCodec
}

func (c emptyAsNone) DecodeText(ctx context.Context, s string) (any, error) {
	if s == "" {
		return nil, nil
	}
	return c.inner.DecodeText(ctx, s)
}

func (c emptyAsNone) EncodeText(ctx context.Context, v any) (string, error) {
	if v == nil {
		return "", nil
	}
	return c.inner.EncodeText(ctx, v)
}

func (c emptyAsNone) Zero() any { return nil }
