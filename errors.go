package gostanza

import (
	"errors"
	"fmt"
	"strings"

	"github.com/reoring/gostanza/i18n"
)

// Issue codes (exported consts for IDE completion and type safety by convention)
const (
	CodeMismatch            = "mismatch"
	CodeRequired            = "required"
	CodeDuplicateChild      = "duplicate_child"
	CodeUnexpectedAttribute = "unexpected_attribute"
	CodeUnexpectedChild     = "unexpected_child"
	CodeUnexpectedText      = "unexpected_text"
	CodeInvalidValue        = "invalid_value"
	CodeVariantUnknown      = "variant_unknown"
	CodeMalformedXML        = "malformed_xml"
	CodeTruncated           = "truncated"
	CodeTooDeep             = "too_deep"
	CodeTooBig              = "too_big"
	CodeSchemaInvalid       = "schema_invalid"
	CodeEncodeError         = "encode_error"
)

// Issue represents a single decode or encode failure.
type Issue struct {
	Path    string // Element path (for example: /message/body).
	Code    string // One of the codes listed above.
	Message string
	Hint    string // Optional: the offending text, expected names, etc.
	Cause   error  // Optional: underlying error.
	Offset  int64  // Byte offset in the input source (-1 when unknown).
}

// Issues is a collection of failures that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := n
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		msg := it.Message
		if msg == "" {
			msg = i18n.T(it.Code, nil)
		}
		// e.g. duplicate_child at /message/body: second occurrence ...
		fmt.Fprintf(b, "%s at %s: %s", it.Code, it.Path, msg)
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	dst = append(dst, more...)
	return dst
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

// Mismatch reports that an element head did not match the schema it was
// offered to. It is recoverable: no event beyond the opening one has been
// consumed, so the caller may offer the same head to a sibling schema.
// Every other error aborts decoding of the entire enclosing element.
type Mismatch struct {
	// Name is the element head that was rejected.
	Name Name
}

func (m *Mismatch) Error() string {
	return fmt.Sprintf("element head {%s}%s did not match", m.Name.Space, m.Name.Local)
}

// AsMismatch extracts a *Mismatch from an error using errors.As internally.
func AsMismatch(err error) (*Mismatch, bool) {
	var m *Mismatch
	if errors.As(err, &m) {
		return m, true
	}
	return nil, false
}

// IsMismatch reports whether err is a recoverable structural mismatch.
func IsMismatch(err error) bool {
	_, ok := AsMismatch(err)
	return ok
}
