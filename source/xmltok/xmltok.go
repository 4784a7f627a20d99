// Package xmltok adapts encoding/xml's streaming tokenizer to the engine
// event vocabulary. It is the default driver; callers may swap it for another
// tokenizer via gostanza.SetXMLDriver.
package xmltok

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"

	eng "github.com/reoring/gostanza/internal/engine"
)

// Reader turns a byte stream into element events. Attributes arriving on a
// start tag are queued as individual events behind the ElementOpen event.
type Reader struct {
	dec   *xml.Decoder
	queue []eng.Event
}

// NewReader wraps an io.Reader as an event source.
func NewReader(r io.Reader) *Reader { return &Reader{dec: xml.NewDecoder(r)} }

// NewBytes wraps a byte slice as an event source.
func NewBytes(b []byte) *Reader { return NewReader(bytes.NewReader(b)) }

func (r *Reader) NextEvent() (eng.Event, error) {
	if len(r.queue) > 0 {
		ev := r.queue[0]
		r.queue = r.queue[1:]
		return ev, nil
	}
	for {
		off := r.dec.InputOffset()
		tok, err := r.dec.Token()
		if err != nil {
			// io.EOF for a clean end, anything else is malformed input.
			return eng.Event{}, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			for _, a := range t.Attr {
				if a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns") {
					// Prefix declarations are the tokenizer's concern; the
					// engine works in resolved namespace URIs only.
					continue
				}
				r.queue = append(r.queue, eng.Event{
					Kind:   eng.KindAttribute,
					Space:  a.Name.Space,
					Local:  a.Name.Local,
					Text:   a.Value,
					Offset: off,
				})
			}
			return eng.Event{Kind: eng.KindElementOpen, Space: t.Name.Space, Local: t.Name.Local, Offset: off}, nil
		case xml.EndElement:
			return eng.Event{Kind: eng.KindElementClose, Offset: off}, nil
		case xml.CharData:
			return eng.Event{Kind: eng.KindText, Text: string(t), Offset: off}, nil
		default:
			// ProcInst, Comment and Directive carry no mapping information.
		}
	}
}

// Location reports the current byte offset of the tokenizer.
func (r *Reader) Location() int64 { return r.dec.InputOffset() }

// Writer turns element events back into namespace-qualified bytes. The
// element head is buffered until the first content event so attributes can be
// attached to the start tag; prefix allocation is left to encoding/xml.
type Writer struct {
	enc     *xml.Encoder
	pending *xml.StartElement
	open    []xml.Name
}

// NewWriter wraps an io.Writer as an event sink.
func NewWriter(w io.Writer) *Writer { return &Writer{enc: xml.NewEncoder(w)} }

func (w *Writer) flushPending() error {
	if w.pending == nil {
		return nil
	}
	st := *w.pending
	w.pending = nil
	w.open = append(w.open, st.Name)
	return w.enc.EncodeToken(st)
}

func (w *Writer) WriteEvent(ev eng.Event) error {
	switch ev.Kind {
	case eng.KindElementOpen:
		if err := w.flushPending(); err != nil {
			return err
		}
		w.pending = &xml.StartElement{Name: xml.Name{Space: ev.Space, Local: ev.Local}}
		return nil
	case eng.KindAttribute:
		if w.pending == nil {
			return fmt.Errorf("xmltok: attribute event outside an element head")
		}
		w.pending.Attr = append(w.pending.Attr, xml.Attr{
			Name:  xml.Name{Space: ev.Space, Local: ev.Local},
			Value: ev.Text,
		})
		return nil
	case eng.KindText:
		if err := w.flushPending(); err != nil {
			return err
		}
		return w.enc.EncodeToken(xml.CharData(ev.Text))
	case eng.KindElementClose:
		if err := w.flushPending(); err != nil {
			return err
		}
		if len(w.open) == 0 {
			return fmt.Errorf("xmltok: close event without an open element")
		}
		n := w.open[len(w.open)-1]
		w.open = w.open[:len(w.open)-1]
		return w.enc.EncodeToken(xml.EndElement{Name: n})
	default:
		return fmt.Errorf("xmltok: unknown event kind %d", ev.Kind)
	}
}

// Flush completes any buffered element head and flushes the encoder.
func (w *Writer) Flush() error {
	if err := w.flushPending(); err != nil {
		return err
	}
	return w.enc.Flush()
}
