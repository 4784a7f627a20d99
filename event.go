package gostanza

import "fmt"

// Name identifies an element or attribute by namespace URI and local name.
// Prefixes never appear at this layer; sinks own all prefix allocation.
type Name struct {
	Space string
	Local string
}

func (n Name) String() string {
	if n.Space == "" {
		return n.Local
	}
	return fmt.Sprintf("{%s}%s", n.Space, n.Local)
}

// EventKind enumerates streaming element event kinds.
type EventKind int

const (
	EventElementOpen EventKind = iota
	EventAttribute
	EventText
	EventElementClose
)

// Event is one step of a streamed element. Events are produced and consumed
// one at a time; a document is never materialized as a full tree. Attribute
// events appear between an ElementOpen and the first content event.
type Event struct {
	Kind   EventKind
	Name   Name   // ElementOpen and Attribute events.
	Text   string // Attribute value or character data.
	Offset int64  // Byte offset in the input source (-1 when unknown).
}

// Open returns an ElementOpen event.
func Open(space, local string) Event {
	return Event{Kind: EventElementOpen, Name: Name{Space: space, Local: local}, Offset: -1}
}

// Attr returns an Attribute event.
func Attr(space, local, value string) Event {
	return Event{Kind: EventAttribute, Name: Name{Space: space, Local: local}, Text: value, Offset: -1}
}

// CharData returns a Text event.
func CharData(text string) Event {
	return Event{Kind: EventText, Text: text, Offset: -1}
}

// Close returns an ElementClose event.
func Close() Event {
	return Event{Kind: EventElementClose, Offset: -1}
}

// IsXMLWhitespace reports whether s consists exclusively of XML whitespace
// (space, tab, newline, carriage return).
func IsXMLWhitespace(s string) bool {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ' ', '\t', '\n', '\r':
		default:
			return false
		}
	}
	return true
}
