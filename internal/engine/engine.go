// Package engine defines the minimal event vocabulary shared between the
// root package and tokenizer drivers. Drivers implement EventSource against
// these types so that they never need to import the root package.
package engine

// Kind represents event kinds from a generic source.
type Kind int

const (
	KindElementOpen Kind = iota
	KindAttribute
	KindText
	KindElementClose
)

// Event represents a streaming element event with approximate input offset.
type Event struct {
	Kind   Kind
	Space  string
	Local  string
	Text   string
	Offset int64
}

// EventSource is a minimal interface required of tokenizer drivers. It
// reports io.EOF once the underlying document is exhausted and any other
// error for malformed input.
type EventSource interface {
	NextEvent() (Event, error)
	Location() int64
}

// EventSink is the minimal interface required of serializer drivers. Sinks
// own all namespace-prefix allocation.
type EventSink interface {
	WriteEvent(Event) error
}
