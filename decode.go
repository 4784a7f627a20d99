package gostanza

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Builder incrementally constructs one value from an ordered event sequence.
// All progress lives in an explicit stack of per-depth frames, so a decode
// can be parked between any two events while an asynchronous pump awaits more
// input, then resumed without re-processing consumed events. A Builder is
// owned by exactly one decode operation and needs no teardown; cancellation
// is discarding it.
type Builder struct {
	ctx    context.Context
	schema Schema
	stack  []*frame
	out    any
	done   bool
	failed bool
}

type frameKind int

const (
	frameElement frameKind = iota
	frameCapture
	frameSkip
)

// frame is the per-depth accumulator for one currently-open element.
type frame struct {
	kind frameKind

	// frameElement
	elem    *Element
	slots   []any
	filled  []bool
	textBuf []byte
	sawText bool
	wrap    func(any) any
	flatten string // extract single-field collapse: inner key, "" = none

	// frameCapture
	root         *RawElement
	captureStack []*RawElement

	// frameSkip
	depth int

	// field index this frame's result feeds in the parent frame, -1 for root
	parent int
}

// NewBuilder starts decoding one element against s. The first event fed must
// be the ElementOpen event.
func NewBuilder(ctx context.Context, s Schema) *Builder {
	return &Builder{ctx: ctx, schema: s}
}

// Feed consumes one event. It returns (value, true, nil) once the element is
// complete. A *Mismatch on the very first event is recoverable: the Builder
// has consumed nothing and the caller may offer the same head to a sibling
// schema. Any other error is fatal for the whole element.
func (b *Builder) Feed(ev Event) (any, bool, error) {
	if b.done || b.failed {
		return nil, false, Issues{Issue{Path: "/", Code: CodeMalformedXML, Message: "event fed to a finished builder", Offset: ev.Offset}}
	}
	if len(b.stack) == 0 {
		if ev.Kind != EventElementOpen {
			return nil, false, Issues{Issue{Path: "/", Code: CodeMalformedXML, Message: "expected an element open event", Offset: ev.Offset}}
		}
		if err := b.open(b.schema, ev, -1, ""); err != nil {
			if !IsMismatch(err) {
				b.failed = true
			}
			return nil, false, err
		}
		return nil, false, nil
	}
	if err := b.step(ev); err != nil {
		b.failed = true
		return nil, false, err
	}
	if b.done {
		return b.out, true, nil
	}
	return nil, false, nil
}

func (b *Builder) open(s Schema, ev Event, parentField int, flatten string) error {
	res, err := s.resolve(ev.Name)
	if err != nil {
		if iss, ok := AsIssues(err); ok {
			for i := range iss {
				if iss[i].Offset < 0 {
					iss[i].Offset = ev.Offset
				}
				if iss[i].Path == "/" {
					iss[i].Path = b.path()
				}
			}
			return iss
		}
		return err
	}
	if res.raw {
		root := &RawElement{Name: ev.Name}
		b.stack = append(b.stack, &frame{
			kind:         frameCapture,
			root:         root,
			captureStack: []*RawElement{root},
			wrap:         res.wrap,
			parent:       parentField,
		})
		return nil
	}
	e := res.elem
	b.stack = append(b.stack, &frame{
		kind:    frameElement,
		elem:    e,
		slots:   make([]any, len(e.fields)),
		filled:  make([]bool, len(e.fields)),
		wrap:    res.wrap,
		flatten: flatten,
		parent:  parentField,
	})
	return nil
}

func (b *Builder) step(ev Event) error {
	f := b.stack[len(b.stack)-1]
	switch f.kind {
	case frameSkip:
		switch ev.Kind {
		case EventElementOpen:
			f.depth++
		case EventElementClose:
			f.depth--
			if f.depth == 0 {
				b.stack = b.stack[:len(b.stack)-1]
			}
		}
		return nil
	case frameCapture:
		return b.capture(f, ev)
	default:
		switch ev.Kind {
		case EventAttribute:
			return b.attribute(f, ev)
		case EventElementOpen:
			return b.child(f, ev)
		case EventText:
			return b.text(f, ev)
		case EventElementClose:
			return b.closeElement(f, ev)
		}
		return Issues{Issue{Path: b.path(), Code: CodeMalformedXML, Message: fmt.Sprintf("unknown event kind %d", ev.Kind), Offset: ev.Offset}}
	}
}

func (b *Builder) capture(f *frame, ev Event) error {
	cur := f.captureStack[len(f.captureStack)-1]
	switch ev.Kind {
	case EventElementOpen:
		child := &RawElement{Name: ev.Name}
		cur.Nodes = append(cur.Nodes, RawNode{Element: child})
		f.captureStack = append(f.captureStack, child)
	case EventAttribute:
		cur.Attrs = append(cur.Attrs, RawAttr{Name: ev.Name, Value: ev.Text})
	case EventText:
		cur.Nodes = append(cur.Nodes, RawNode{Text: ev.Text})
	case EventElementClose:
		if len(f.captureStack) == 1 {
			var out any = *f.root
			if f.wrap != nil {
				out = f.wrap(out)
			}
			return b.finish(out)
		}
		f.captureStack = f.captureStack[:len(f.captureStack)-1]
	}
	return nil
}

func (b *Builder) attribute(f *frame, ev Event) error {
	e := f.elem
	for i := range e.fields {
		fd := &e.fields[i]
		if fd.Kind != FieldAttr || fd.Name != ev.Name {
			continue
		}
		v, err := fd.Codec.DecodeText(b.ctx, ev.Text)
		if err != nil {
			return Issues{Issue{
				Path:    b.path() + "/@" + ev.Name.Local,
				Code:    CodeInvalidValue,
				Message: fmt.Sprintf("cannot decode attribute %s", ev.Name),
				Hint:    ev.Text,
				Cause:   err,
				Offset:  ev.Offset,
			}}
		}
		f.slots[i] = v
		f.filled[i] = true
		return nil
	}
	if e.unknownAttr == UnknownReject {
		return Issues{Issue{Path: b.path(), Code: CodeUnexpectedAttribute, Message: fmt.Sprintf("unexpected attribute %s", ev.Name), Offset: ev.Offset}}
	}
	return nil
}

// child routes a nested element head: Child/Extract fields in declared order,
// first accepting field wins; unclaimed heads fall through to the Passthrough
// field, then the unknown-child policy.
func (b *Builder) child(f *frame, ev Event) error {
	e := f.elem
	for i := range e.fields {
		fd := &e.fields[i]
		switch fd.Kind {
		case FieldChild:
			if !fd.Schema.Accepts(ev.Name) {
				continue
			}
			if fd.Cardinality == Single && f.filled[i] {
				return b.duplicateChild(fd, ev)
			}
			if err := b.open(fd.Schema, ev, i, ""); err != nil {
				if IsMismatch(err) {
					// Accepts and resolve disagree only for exotic custom
					// schemas; treat as unclaimed rather than corrupt state.
					continue
				}
				return err
			}
			return nil
		case FieldExtract:
			if ev.Name != fd.Name {
				continue
			}
			if fd.Cardinality == Single && f.filled[i] {
				return b.duplicateChild(fd, ev)
			}
			flatten := ""
			if len(fd.Inner) == 1 {
				flatten = fd.Inner[0].Key
			}
			b.stack = append(b.stack, &frame{
				kind:    frameElement,
				elem:    fd.extract,
				slots:   make([]any, len(fd.extract.fields)),
				filled:  make([]bool, len(fd.extract.fields)),
				flatten: flatten,
				parent:  i,
			})
			return nil
		}
	}
	if e.passIdx >= 0 {
		root := &RawElement{Name: ev.Name}
		b.stack = append(b.stack, &frame{
			kind:         frameCapture,
			root:         root,
			captureStack: []*RawElement{root},
			parent:       e.passIdx,
		})
		return nil
	}
	if e.unknownChild == UnknownReject {
		return Issues{Issue{Path: b.path(), Code: CodeUnexpectedChild, Message: fmt.Sprintf("unexpected child element %s", ev.Name), Offset: ev.Offset}}
	}
	b.stack = append(b.stack, &frame{kind: frameSkip, depth: 1})
	return nil
}

func (b *Builder) duplicateChild(fd *compiledField, ev Event) error {
	return Issues{Issue{
		Path:    b.path() + "/" + fd.Key,
		Code:    CodeDuplicateChild,
		Message: fmt.Sprintf("second occurrence of child %s for a single-valued field", ev.Name),
		Offset:  ev.Offset,
	}}
}

func (b *Builder) text(f *frame, ev Event) error {
	if f.elem.textIdx >= 0 {
		f.textBuf = append(f.textBuf, ev.Text...)
		f.sawText = true
		return nil
	}
	if IsXMLWhitespace(ev.Text) {
		return nil
	}
	return Issues{Issue{Path: b.path(), Code: CodeUnexpectedText, Message: "unexpected character data", Hint: ev.Text, Offset: ev.Offset}}
}

func (b *Builder) closeElement(f *frame, ev Event) error {
	e := f.elem
	if e.textIdx >= 0 && f.sawText {
		fd := &e.fields[e.textIdx]
		v, err := fd.Codec.DecodeText(b.ctx, string(f.textBuf))
		if err != nil {
			return Issues{Issue{
				Path:    b.path() + "/" + fd.Key,
				Code:    CodeInvalidValue,
				Message: "cannot decode text content",
				Hint:    string(f.textBuf),
				Cause:   err,
				Offset:  ev.Offset,
			}}
		}
		f.slots[e.textIdx] = v
		f.filled[e.textIdx] = true
	}
	m := make(map[string]any, len(e.fields))
	for i := range e.fields {
		fd := &e.fields[i]
		if f.filled[i] {
			m[fd.Key] = f.slots[i]
			continue
		}
		if fd.Cardinality == Collection {
			if fd.Kind == FieldPassthrough {
				m[fd.Key] = []RawElement{}
			} else {
				m[fd.Key] = []any{}
			}
			continue
		}
		if fd.Presence == Required {
			return Issues{Issue{
				Path:    b.path() + "/" + fd.Key,
				Code:    CodeRequired,
				Message: fmt.Sprintf("required field %q has no value", fd.Key),
				Offset:  ev.Offset,
			}}
		}
		m[fd.Key] = fd.def
	}
	var out any = m
	if f.flatten != "" {
		out = m[f.flatten]
	}
	if f.wrap != nil {
		out = f.wrap(out)
	}
	return b.finish(out)
}

// finish pops the top frame and delivers its value to the parent slot, or
// completes the decode when the stack empties.
func (b *Builder) finish(val any) error {
	f := b.stack[len(b.stack)-1]
	b.stack = b.stack[:len(b.stack)-1]
	if f.parent < 0 {
		b.out = val
		b.done = true
		return nil
	}
	p := b.stack[len(b.stack)-1]
	fd := &p.elem.fields[f.parent]
	if fd.Cardinality == Collection {
		if fd.Kind == FieldPassthrough {
			cur, _ := p.slots[f.parent].([]RawElement)
			re, ok := val.(RawElement)
			if !ok {
				return Issues{Issue{Path: b.path(), Code: CodeMalformedXML, Message: "passthrough capture produced a non-raw value", Offset: -1}}
			}
			p.slots[f.parent] = append(cur, re)
		} else {
			cur, _ := p.slots[f.parent].([]any)
			p.slots[f.parent] = append(cur, val)
		}
	} else {
		p.slots[f.parent] = val
	}
	p.filled[f.parent] = true
	return nil
}

// path renders the element path of the current frame stack for issues.
func (b *Builder) path() string {
	var sb strings.Builder
	for _, f := range b.stack {
		switch f.kind {
		case frameElement:
			if f.elem.name.Local != "" {
				sb.WriteByte('/')
				sb.WriteString(f.elem.name.Local)
			}
		case frameCapture:
			sb.WriteByte('/')
			sb.WriteString(f.root.Name.Local)
		}
	}
	if sb.Len() == 0 {
		return "/"
	}
	return sb.String()
}

// Decode reads exactly one element from src and decodes it against s. A
// *Mismatch on the element head leaves the head unconsumed when src is a
// *Lookahead (Decode wraps other sources in one internally), so callers can
// offer it to a sibling schema. Decode returns no partial values: the result
// is either a fully-constructed value or an error.
func Decode(ctx context.Context, s Schema, src Source, opt ...DecodeOpt) (any, error) {
	var o DecodeOpt
	if len(opt) > 0 {
		o = opt[0]
	}
	la := NewLookahead(EnforceSourceIfNeeded(src, o))

	// Skip leading inter-element whitespace so indented documents decode
	// cleanly.
	var first Event
	for {
		ev, err := la.NextEvent()
		if err != nil {
			return nil, wrapSourceErr(err, la)
		}
		if ev.Kind == EventText && IsXMLWhitespace(ev.Text) {
			continue
		}
		first = ev
		break
	}

	b := NewBuilder(ctx, s)
	v, done, err := b.Feed(first)
	if err != nil {
		if m, ok := AsMismatch(err); ok {
			la.Unread(first)
			return nil, m
		}
		return nil, err
	}
	for !done {
		ev, err := la.NextEvent()
		if err != nil {
			return nil, wrapSourceErr(err, la)
		}
		v, done, err = b.Feed(ev)
		if err != nil {
			return nil, err
		}
	}
	return v, nil
}

// FromBytes decodes one element from a byte buffer using the configured XML
// driver.
func FromBytes(ctx context.Context, s Schema, b []byte, opt ...DecodeOpt) (any, error) {
	return Decode(ctx, s, XMLBytes(b), opt...)
}

// FromReader decodes one element from a reader using the configured XML
// driver.
func FromReader(ctx context.Context, s Schema, r io.Reader, opt ...DecodeOpt) (any, error) {
	return Decode(ctx, s, XMLReader(r), opt...)
}

func wrapSourceErr(err error, src Source) error {
	if iss, ok := AsIssues(err); ok {
		return iss
	}
	if errors.Is(err, io.EOF) {
		return Issues{Issue{Path: "/", Code: CodeTruncated, Message: "event stream ended before the element was complete", Offset: src.Location()}}
	}
	return Issues{Issue{Path: "/", Code: CodeMalformedXML, Message: "malformed XML input", Cause: err, Offset: src.Location()}}
}
