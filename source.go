package gostanza

import (
	"io"
	"sync"

	eng "github.com/reoring/gostanza/internal/engine"
	"github.com/reoring/gostanza/source/xmltok"
)

// Source abstracts over polymorphic event producers. It reports io.EOF once
// the underlying document is exhausted; any other error is treated as
// malformed input and is always fatal.
type Source interface {
	NextEvent() (Event, error)
	Location() int64 // byte offset; -1 if unknown
}

// Sink accepts events and emits namespace-qualified bytes. Sinks own all
// namespace-prefix allocation; schema authors specify namespace URIs only.
type Sink interface {
	WriteEvent(Event) error
}

// XMLDriver converts XML input into a Source via a pluggable SPI. The default
// implementation is based on encoding/xml and may be swapped with SetXMLDriver.
type XMLDriver interface {
	NewReader(r io.Reader) Source
	NewBytes(b []byte) Source
	Name() string
}

var (
	xmlDriverMu      sync.RWMutex
	currentXMLDriver XMLDriver = defaultXMLDriver{}
)

// SetXMLDriver replaces the global XML driver; nil values are ignored.
func SetXMLDriver(d XMLDriver) {
	if d == nil {
		return
	}
	xmlDriverMu.Lock()
	currentXMLDriver = d
	xmlDriverMu.Unlock()
}

// UseDefaultXMLDriver restores the default encoding/xml-backed driver.
func UseDefaultXMLDriver() {
	xmlDriverMu.Lock()
	currentXMLDriver = defaultXMLDriver{}
	xmlDriverMu.Unlock()
}

func getXMLDriver() XMLDriver {
	xmlDriverMu.RLock()
	d := currentXMLDriver
	xmlDriverMu.RUnlock()
	return d
}

// defaultXMLDriver wraps the encoding/xml implementation.
type defaultXMLDriver struct{}

func (defaultXMLDriver) NewReader(r io.Reader) Source { return SourceFromEngine(xmltok.NewReader(r)) }
func (defaultXMLDriver) NewBytes(b []byte) Source     { return SourceFromEngine(xmltok.NewBytes(b)) }
func (defaultXMLDriver) Name() string                 { return "encoding/xml" }

// XMLReader wraps an io.Reader as an XML event Source.
func XMLReader(r io.Reader) Source { return getXMLDriver().NewReader(r) }

// XMLBytes wraps a byte slice as an XML event Source.
func XMLBytes(b []byte) Source { return getXMLDriver().NewBytes(b) }

// XMLWriter wraps an io.Writer as an event Sink using the default serializer.
// The returned sink buffers each element head until its first content event;
// call FlushSink (or EncodeTo/ToBytes, which do) to complete output.
func XMLWriter(w io.Writer) Sink {
	return &engineSinkAdapter{inner: xmltok.NewWriter(w)}
}

// FlushSink flushes s when the underlying sink supports it.
func FlushSink(s Sink) error {
	type flusher interface{ Flush() error }
	if f, ok := s.(flusher); ok {
		return f.Flush()
	}
	if a, ok := s.(*engineSinkAdapter); ok {
		if f, ok := a.inner.(interface{ Flush() error }); ok {
			return f.Flush()
		}
	}
	return nil
}

// SourceFromEngine wraps an engine.EventSource as a gostanza.Source. This is
// internal wiring, exported for driver subpackages.
func SourceFromEngine(inner eng.EventSource) Source {
	return &engineSourceAdapter{inner: inner}
}

// SinkFromEngine wraps an engine.EventSink as a gostanza.Sink.
func SinkFromEngine(inner eng.EventSink) Sink {
	return &engineSinkAdapter{inner: inner}
}

type engineSourceAdapter struct {
	inner eng.EventSource
}

func (s *engineSourceAdapter) NextEvent() (Event, error) {
	ev, err := s.inner.NextEvent()
	if err != nil {
		return Event{}, err
	}
	return fromEngineEvent(ev), nil
}

func (s *engineSourceAdapter) Location() int64 { return s.inner.Location() }

type engineSinkAdapter struct {
	inner eng.EventSink
}

func (s *engineSinkAdapter) WriteEvent(ev Event) error {
	return s.inner.WriteEvent(toEngineEvent(ev))
}

func fromEngineEvent(ev eng.Event) Event {
	return Event{
		Kind:   EventKind(ev.Kind),
		Name:   Name{Space: ev.Space, Local: ev.Local},
		Text:   ev.Text,
		Offset: ev.Offset,
	}
}

func toEngineEvent(ev Event) eng.Event {
	return eng.Event{
		Kind:   eng.Kind(ev.Kind),
		Space:  ev.Name.Space,
		Local:  ev.Name.Local,
		Text:   ev.Text,
		Offset: ev.Offset,
	}
}

// EventsSource returns a Source over a fixed event slice, used to replay
// captured subtrees and in tests.
func EventsSource(evs []Event) Source {
	return &sliceSource{evs: evs}
}

type sliceSource struct {
	evs []Event
	pos int
}

func (s *sliceSource) NextEvent() (Event, error) {
	if s.pos >= len(s.evs) {
		return Event{}, io.EOF
	}
	ev := s.evs[s.pos]
	s.pos++
	return ev, nil
}

func (s *sliceSource) Location() int64 { return -1 }

// Lookahead wraps a Source with a bounded pushback buffer. It gives callers a
// non-destructive peek at the next event, which is what top-level schema
// selection needs: an element head rejected by one schema can be offered to a
// sibling schema without assuming the source supports arbitrary rewinding.
type Lookahead struct {
	src Source
	buf []Event
}

// NewLookahead wraps src. If src is already a *Lookahead it is returned
// unchanged.
func NewLookahead(src Source) *Lookahead {
	if l, ok := src.(*Lookahead); ok {
		return l
	}
	return &Lookahead{src: src}
}

// Peek returns the next event without consuming it.
func (l *Lookahead) Peek() (Event, error) {
	if len(l.buf) > 0 {
		return l.buf[len(l.buf)-1], nil
	}
	ev, err := l.src.NextEvent()
	if err != nil {
		return Event{}, err
	}
	l.buf = append(l.buf, ev)
	return ev, nil
}

// Unread pushes ev back onto the source; the next NextEvent returns it.
func (l *Lookahead) Unread(ev Event) {
	l.buf = append(l.buf, ev)
}

func (l *Lookahead) NextEvent() (Event, error) {
	if len(l.buf) > 0 {
		ev := l.buf[len(l.buf)-1]
		l.buf = l.buf[:len(l.buf)-1]
		return ev, nil
	}
	return l.src.NextEvent()
}

func (l *Lookahead) Location() int64 { return l.src.Location() }

// EnforceSourceIfNeeded wraps src with depth/size enforcement, returning the
// original Source when the options are effectively disabled to avoid
// unnecessary overhead for small inputs.
func EnforceSourceIfNeeded(src Source, opt DecodeOpt) Source {
	if opt.MaxDepth == 0 && opt.MaxBytes == 0 {
		return src
	}
	return &enforcedSource{inner: src, opt: opt}
}

type enforcedSource struct {
	inner Source
	opt   DecodeOpt
	depth int
}

func (s *enforcedSource) NextEvent() (Event, error) {
	ev, err := s.inner.NextEvent()
	if err != nil {
		return Event{}, err
	}
	switch ev.Kind {
	case EventElementOpen:
		s.depth++
		if s.opt.MaxDepth > 0 && s.depth > s.opt.MaxDepth {
			return Event{}, Issues{Issue{Path: "/", Code: CodeTooDeep, Message: "element nesting exceeds MaxDepth", Offset: ev.Offset}}
		}
	case EventElementClose:
		if s.depth > 0 {
			s.depth--
		}
	}
	if s.opt.MaxBytes > 0 {
		if loc := s.inner.Location(); loc > s.opt.MaxBytes {
			return Event{}, Issues{Issue{Path: "/", Code: CodeTooBig, Message: "input exceeds MaxBytes", Offset: loc}}
		}
	}
	return ev, nil
}

func (s *enforcedSource) Location() int64 { return s.inner.Location() }
