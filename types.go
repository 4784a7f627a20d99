package gostanza

// UnknownPolicy controls how attributes and children not claimed by any field
// are handled. Children additionally fall through to a Passthrough field, if
// the schema declares one, before the policy applies.
type UnknownPolicy int

const (
	UnknownReject UnknownPolicy = iota // Fail with an error (default).
	UnknownIgnore                      // Drop without buffering.
)

// Cardinality controls how many matches a field accepts.
type Cardinality int

const (
	Single     Cardinality = iota // At most one match; a second child match fails.
	Collection                    // Unbounded matches, decoded into a slice.
)

// FieldPresence controls what happens when a Single field has no match by the
// time the element closes.
type FieldPresence int

const (
	Optional FieldPresence = iota // Absent fields receive their declared default.
	Required                      // Absent fields fail with code "required".
)

// DecodeOpt bundles decoding options. The zero value disables all enforcement.
type DecodeOpt struct {
	MaxDepth int   // Maximum element nesting depth (0 = unlimited).
	MaxBytes int64 // Maximum input bytes consumed (0 = unlimited).
}
