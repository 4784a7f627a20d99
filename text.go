package gostanza

import "context"

// TextCodec converts between XML text and a Go value. It backs Attr and Text
// fields; ready-made implementations live in the codec package. Codecs must
// be stateless: the same input always yields the same output.
type TextCodec interface {
	// DecodeText converts XML text to a value. Errors are surfaced as
	// invalid_value issues carrying the offending text.
	DecodeText(ctx context.Context, s string) (any, error)

	// EncodeText converts a value back to XML text.
	EncodeText(ctx context.Context, v any) (string, error)

	// Zero returns the type's default, assumed for absent optional fields
	// and elided again on encode.
	Zero() any
}
