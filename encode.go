package gostanza

import (
	"bytes"
	"context"
	"reflect"
)

// Iter lazily produces the finite event sequence of one encode operation.
// Iterators are single-use; Encode returns a fresh one per call, and
// identical input always yields the identical sequence.
type Iter struct {
	ctx   context.Context
	stack []*emitFrame
	err   error
	done  bool
}

type emitStage int

const (
	stageOpen emitStage = iota
	stageAttrs
	stageText
	stageChildren
	stageClose
)

type emitFrame struct {
	// element emission
	elem  *Element
	val   map[string]any
	stage emitStage
	field int
	items []any // nil = not yet gathered for the current field
	item  int

	// raw subtree replay
	raw   []Event
	rawAt int
}

// Encode returns an iterator over the event sequence of v against s. It is a
// pure function of its inputs: no side effects, and nothing reaches any sink
// until the caller drains the iterator.
func Encode(ctx context.Context, s Schema, v any) *Iter {
	it := &Iter{ctx: ctx}
	if err := it.push(s, v); err != nil {
		it.err = err
	}
	return it
}

func (it *Iter) push(s Schema, v any) error {
	enc, err := s.encodeResolve(v)
	if err != nil {
		return err
	}
	if enc.raw != nil {
		it.stack = append(it.stack, &emitFrame{raw: enc.raw.Events(nil)})
		return nil
	}
	it.stack = append(it.stack, &emitFrame{elem: enc.elem, val: enc.val})
	return nil
}

// Next returns the next event, or false when the sequence is exhausted or an
// error occurred (check Err).
func (it *Iter) Next() (Event, bool) {
	if it.err != nil || it.done {
		return Event{}, false
	}
loop:
	for len(it.stack) > 0 {
		f := it.stack[len(it.stack)-1]
		if f.raw != nil {
			if f.rawAt < len(f.raw) {
				ev := f.raw[f.rawAt]
				f.rawAt++
				return ev, true
			}
			it.stack = it.stack[:len(it.stack)-1]
			continue
		}
		switch f.stage {
		case stageOpen:
			f.stage = stageAttrs
			return Event{Kind: EventElementOpen, Name: f.elem.name, Offset: -1}, true
		case stageAttrs:
			for f.field < len(f.elem.fields) {
				fd := &f.elem.fields[f.field]
				f.field++
				if fd.Kind != FieldAttr {
					continue
				}
				v, ok := f.val[fd.Key]
				if !ok {
					if fd.Presence == Required {
						it.err = encodeIssue("required attribute field %q has no value", fd.Key)
						return Event{}, false
					}
					continue
				}
				// DefaultOnAbsent fields equal to their default are omitted,
				// preserving round-trip symmetry for the single-layer case.
				if fd.Presence == Optional && reflect.DeepEqual(v, fd.def) {
					continue
				}
				text, err := fd.Codec.EncodeText(it.ctx, v)
				if err != nil {
					it.err = Issues{Issue{Path: "/" + f.elem.name.Local + "/@" + fd.Name.Local, Code: CodeInvalidValue, Message: "cannot encode attribute", Cause: err, Offset: -1}}
					return Event{}, false
				}
				return Event{Kind: EventAttribute, Name: fd.Name, Text: text, Offset: -1}, true
			}
			f.stage = stageText
			f.field = 0
		case stageText:
			f.stage = stageChildren
			f.field = 0
			if f.elem.textIdx >= 0 {
				fd := &f.elem.fields[f.elem.textIdx]
				v, ok := f.val[fd.Key]
				if !ok {
					if fd.Presence == Required {
						it.err = encodeIssue("required text field %q has no value", fd.Key)
						return Event{}, false
					}
					continue
				}
				if fd.Presence == Optional && reflect.DeepEqual(v, fd.def) {
					continue
				}
				text, err := fd.Codec.EncodeText(it.ctx, v)
				if err != nil {
					it.err = Issues{Issue{Path: "/" + f.elem.name.Local, Code: CodeInvalidValue, Message: "cannot encode text content", Cause: err, Offset: -1}}
					return Event{}, false
				}
				if text != "" {
					return CharData(text), true
				}
			}
		case stageChildren:
			for f.field < len(f.elem.fields) {
				fd := &f.elem.fields[f.field]
				switch fd.Kind {
				case FieldChild, FieldExtract, FieldPassthrough:
				default:
					f.field++
					f.items = nil
					continue
				}
				if f.items == nil {
					items, err := childItems(fd, f.val)
					if err != nil {
						it.err = err
						return Event{}, false
					}
					f.items = items
					f.item = 0
				}
				if f.item >= len(f.items) {
					f.field++
					f.items = nil
					continue
				}
				item := f.items[f.item]
				f.item++
				if err := it.pushChild(fd, item); err != nil {
					it.err = err
					return Event{}, false
				}
				continue loop
			}
			f.stage = stageClose
		case stageClose:
			it.stack = it.stack[:len(it.stack)-1]
			if len(it.stack) == 0 {
				it.done = true
			}
			return Close(), true
		}
	}
	it.done = true
	return Event{}, false
}

// Err reports the first error hit while producing events, if any.
func (it *Iter) Err() error { return it.err }

func childItems(fd *compiledField, val map[string]any) ([]any, error) {
	v, ok := val[fd.Key]
	if fd.Cardinality == Collection {
		if !ok || v == nil {
			return []any{}, nil
		}
		switch vs := v.(type) {
		case []any:
			return vs, nil
		case []RawElement:
			out := make([]any, len(vs))
			for i := range vs {
				out[i] = vs[i]
			}
			return out, nil
		case []map[string]any:
			out := make([]any, len(vs))
			for i := range vs {
				out[i] = vs[i]
			}
			return out, nil
		case []Variant:
			out := make([]any, len(vs))
			for i := range vs {
				out[i] = vs[i]
			}
			return out, nil
		default:
			return nil, encodeIssue("collection field %q expects a slice, got %T", fd.Key, v)
		}
	}
	if !ok || v == nil {
		if fd.Presence == Required {
			return nil, encodeIssue("required field %q has no value", fd.Key)
		}
		return []any{}, nil
	}
	if fd.Presence == Optional && fd.def != nil && reflect.DeepEqual(v, fd.def) {
		return []any{}, nil
	}
	return []any{v}, nil
}

func (it *Iter) pushChild(fd *compiledField, v any) error {
	switch fd.Kind {
	case FieldChild:
		return it.push(fd.Schema, v)
	case FieldExtract:
		var m map[string]any
		if len(fd.Inner) == 1 {
			m = map[string]any{fd.Inner[0].Key: v}
		} else {
			mm, ok := v.(map[string]any)
			if !ok {
				return encodeIssue("extract field %q expects a map value, got %T", fd.Key, v)
			}
			m = mm
		}
		it.stack = append(it.stack, &emitFrame{elem: fd.extract, val: m})
		return nil
	case FieldPassthrough:
		switch r := v.(type) {
		case RawElement:
			it.stack = append(it.stack, &emitFrame{raw: r.Events(nil)})
			return nil
		case *RawElement:
			it.stack = append(it.stack, &emitFrame{raw: r.Events(nil)})
			return nil
		}
		return encodeIssue("passthrough field %q expects RawElement values, got %T", fd.Key, v)
	}
	return encodeIssue("field %q cannot produce child elements", fd.Key)
}

// Events materializes the full event sequence of v against s.
func Events(ctx context.Context, s Schema, v any) ([]Event, error) {
	it := Encode(ctx, s, v)
	var evs []Event
	for {
		ev, ok := it.Next()
		if !ok {
			break
		}
		evs = append(evs, ev)
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return evs, nil
}

// EncodeTo writes the event sequence of v to sink. Serialization is atomic
// per element: nothing reaches the sink unless the whole sequence encodes.
func EncodeTo(ctx context.Context, s Schema, v any, sink Sink) error {
	evs, err := Events(ctx, s, v)
	if err != nil {
		return err
	}
	for _, ev := range evs {
		if werr := sink.WriteEvent(ev); werr != nil {
			return Issues{Issue{Path: "/", Code: CodeEncodeError, Message: "sink write failed", Cause: werr, Offset: -1}}
		}
	}
	if ferr := FlushSink(sink); ferr != nil {
		return Issues{Issue{Path: "/", Code: CodeEncodeError, Message: "sink flush failed", Cause: ferr, Offset: -1}}
	}
	return nil
}

// ToBytes serializes v against s using the default serializer.
func ToBytes(ctx context.Context, s Schema, v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodeTo(ctx, s, v, XMLWriter(&buf)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
