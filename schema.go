package gostanza

import (
	"fmt"
	"strings"
)

// Schema is a compiled, immutable description mapping XML elements onto
// values. Schemas are compiled once (normally through the dsl package) and
// are safe to share read-only across unboundedly many concurrent operations.
type Schema interface {
	// Accepts reports whether an element head with the given name can start
	// this schema. Matching is by name only, which keeps tagged-union
	// lookahead bounded to a single event.
	Accepts(name Name) bool

	// resolve maps an accepted element head onto the concrete element schema
	// that consumes its events, plus the wrapping applied to the finished
	// value. Rejections are *Mismatch (recoverable) or Issues (fatal, e.g.
	// an exhaustive enum seeing an unknown local name).
	resolve(name Name) (resolution, error)

	// encodeResolve maps a value onto the element schema and keyed map (or
	// raw subtree) that produces its events.
	encodeResolve(v any) (encoding, error)
}

type resolution struct {
	elem *Element      // nil when raw is set
	raw  bool          // capture the subtree as a RawElement
	wrap func(any) any // applied to the finished value; nil = identity
}

type encoding struct {
	elem *Element
	val  map[string]any
	raw  *RawElement
}

// FieldKind tags the mapping strategy of a Field.
type FieldKind int

const (
	FieldAttr FieldKind = iota
	FieldChild
	FieldText
	FieldExtract
	FieldPassthrough
)

// Field declares how one slot of a decoded value maps onto XML. Field lists
// are handed to NewElement (normally via the dsl package), which validates
// and compiles them once; invalid declarations fail fast at construction,
// never at decode time.
type Field struct {
	Kind        FieldKind
	Key         string // Slot key in the decoded map.
	Name        Name   // Attr: attribute name. Extract: wrapper element name.
	Cardinality Cardinality
	Presence    FieldPresence
	Default     any       // Optional Attr/Text fields: value assumed when absent.
	Codec       TextCodec // Attr and Text fields.
	Schema      Schema    // Child fields.
	Inner       []Field   // Extract fields: the flattened inner field set.
}

type compiledField struct {
	Field
	extract *Element // ephemeral tuple-like schema for Extract fields
	def     any      // resolved default (explicit Default, else codec zero)
}

// Element describes the mapping of one XML element onto a keyed value
// (map[string]any keyed by field key).
type Element struct {
	name         Name
	fields       []compiledField
	unknownAttr  UnknownPolicy
	unknownChild UnknownPolicy
	transparent  bool
	textIdx      int // index of the Text field, -1 when absent
	passIdx      int // index of the Passthrough field, -1 when absent
}

// NewElement compiles an element schema. The local name must not contain a
// namespace separator; at most one Text and one Passthrough field may be
// declared.
func NewElement(name Name, fields []Field, unknownAttr, unknownChild UnknownPolicy) (*Element, error) {
	if err := checkLocalName(name.Local); err != nil {
		return nil, err
	}
	e := &Element{name: name, unknownAttr: unknownAttr, unknownChild: unknownChild}
	if err := e.compileFields(fields); err != nil {
		return nil, err
	}
	return e, nil
}

// NewTransparent compiles a transparent wrapper: no namespace or name of its
// own, exactly one Child field whose schema handles the wire entirely.
func NewTransparent(field Field) (*Element, error) {
	if field.Kind != FieldChild {
		return nil, schemaInvalid("transparent wrappers require a single Child field")
	}
	e := &Element{transparent: true}
	if err := e.compileFields([]Field{field}); err != nil {
		return nil, err
	}
	return e, nil
}

func schemaInvalid(format string, args ...any) Issues {
	return Issues{Issue{Path: "/", Code: CodeSchemaInvalid, Message: fmt.Sprintf(format, args...), Offset: -1}}
}

func checkLocalName(local string) error {
	if local == "" {
		return schemaInvalid("local name must not be empty")
	}
	if strings.ContainsRune(local, ':') {
		return schemaInvalid("local name %q must not contain a namespace separator", local)
	}
	return nil
}

func (e *Element) compileFields(fields []Field) error {
	e.textIdx, e.passIdx = -1, -1
	seenKeys := make(map[string]struct{}, len(fields))
	seenAttrs := make(map[Name]struct{})
	e.fields = make([]compiledField, 0, len(fields))
	for i, f := range fields {
		if f.Key == "" {
			return schemaInvalid("field %d has no key", i)
		}
		if _, dup := seenKeys[f.Key]; dup {
			return schemaInvalid("duplicate field key %q", f.Key)
		}
		seenKeys[f.Key] = struct{}{}

		cf := compiledField{Field: f}
		switch f.Kind {
		case FieldAttr:
			if f.Codec == nil {
				return schemaInvalid("attribute field %q needs a codec", f.Key)
			}
			if err := checkLocalName(f.Name.Local); err != nil {
				return err
			}
			if f.Cardinality != Single {
				return schemaInvalid("attribute field %q cannot be a collection", f.Key)
			}
			if _, dup := seenAttrs[f.Name]; dup {
				return schemaInvalid("duplicate attribute name %s", f.Name)
			}
			seenAttrs[f.Name] = struct{}{}
			cf.def = f.Default
			if cf.def == nil {
				cf.def = f.Codec.Zero()
			}
		case FieldText:
			if f.Codec == nil {
				return schemaInvalid("text field %q needs a codec", f.Key)
			}
			if e.textIdx >= 0 {
				return schemaInvalid("at most one text field per element (second: %q)", f.Key)
			}
			if f.Cardinality != Single {
				return schemaInvalid("text field %q cannot be a collection", f.Key)
			}
			e.textIdx = len(e.fields)
			cf.def = f.Default
			if cf.def == nil {
				cf.def = f.Codec.Zero()
			}
		case FieldChild:
			if f.Schema == nil {
				return schemaInvalid("child field %q needs a schema", f.Key)
			}
			if f.Cardinality == Collection {
				if f.Presence == Required {
					return schemaInvalid("required has no meaning for child collections (field %q)", f.Key)
				}
				if f.Default != nil {
					return schemaInvalid("default has no meaning for child collections (field %q)", f.Key)
				}
			}
			cf.def = f.Default
		case FieldExtract:
			if err := checkLocalName(f.Name.Local); err != nil {
				return err
			}
			if len(f.Inner) == 0 {
				return schemaInvalid("extract field %q needs at least one inner field", f.Key)
			}
			for _, in := range f.Inner {
				if in.Kind == FieldExtract || in.Kind == FieldPassthrough {
					return schemaInvalid("extract field %q cannot nest extract or passthrough fields", f.Key)
				}
			}
			if f.Cardinality == Collection && f.Default != nil {
				return schemaInvalid("default has no meaning for extract collections (field %q)", f.Key)
			}
			inner, err := NewElement(f.Name, f.Inner, UnknownReject, UnknownReject)
			if err != nil {
				return err
			}
			cf.extract = inner
			cf.def = f.Default
		case FieldPassthrough:
			if e.passIdx >= 0 {
				return schemaInvalid("at most one passthrough field per element (second: %q)", f.Key)
			}
			if f.Cardinality != Collection {
				return schemaInvalid("passthrough field %q must be a collection", f.Key)
			}
			e.passIdx = len(e.fields)
		default:
			return schemaInvalid("field %q has unknown kind %d", f.Key, f.Kind)
		}
		e.fields = append(e.fields, cf)
	}
	if e.transparent && len(e.fields) != 1 {
		return schemaInvalid("transparent wrappers require exactly one field")
	}
	return nil
}

// Name returns the element's qualified name; the zero Name for transparent
// wrappers.
func (e *Element) Name() Name { return e.name }

func (e *Element) Accepts(name Name) bool {
	if e.transparent {
		return e.fields[0].Schema.Accepts(name)
	}
	return name == e.name
}

func (e *Element) resolve(name Name) (resolution, error) {
	if e.transparent {
		f := e.fields[0]
		res, err := f.Schema.resolve(name)
		if err != nil {
			return resolution{}, err
		}
		key := f.Key
		res.wrap = chainWrap(res.wrap, func(v any) any { return map[string]any{key: v} })
		return res, nil
	}
	if name != e.name {
		return resolution{}, &Mismatch{Name: name}
	}
	return resolution{elem: e}, nil
}

func (e *Element) encodeResolve(v any) (encoding, error) {
	m, ok := v.(map[string]any)
	if !ok {
		if v == nil {
			m = map[string]any{}
		} else {
			return encoding{}, encodeIssue("element %s expects a map[string]any value, got %T", e.name, v)
		}
	}
	if e.transparent {
		f := e.fields[0]
		return f.Schema.encodeResolve(m[f.Key])
	}
	return encoding{elem: e, val: m}, nil
}

func chainWrap(inner, outer func(any) any) func(any) any {
	if inner == nil {
		return outer
	}
	if outer == nil {
		return inner
	}
	return func(v any) any { return outer(inner(v)) }
}

func encodeIssue(format string, args ...any) Issues {
	return Issues{Issue{Path: "/", Code: CodeEncodeError, Message: fmt.Sprintf(format, args...), Offset: -1}}
}

// Variant is a decoded tagged-union value: the Go-side case name plus the
// variant's decoded value.
type Variant struct {
	Case  string
	Value any
}

// EnumVariant pairs a Go-side case name with the element schema decoding it.
type EnumVariant struct {
	Case string
	Elem *Element
}

// NameSwitched is a tagged union distinguished by element local name within
// one fixed namespace. Lookup is O(1) by local name.
type NameSwitched struct {
	space      string
	byLocal    map[string]EnumVariant
	byCase     map[string]*Element
	exhaustive bool
}

// NewNameSwitched compiles a name-switched enum. Every variant element must
// live in the enum's namespace. When exhaustive, the enum claims the whole
// namespace: a matching namespace with an unknown local name is a hard
// failure rather than a recoverable mismatch.
func NewNameSwitched(space string, variants []EnumVariant, exhaustive bool) (*NameSwitched, error) {
	if len(variants) == 0 {
		return nil, schemaInvalid("name-switched enums need at least one variant")
	}
	s := &NameSwitched{
		space:      space,
		byLocal:    make(map[string]EnumVariant, len(variants)),
		byCase:     make(map[string]*Element, len(variants)),
		exhaustive: exhaustive,
	}
	for _, v := range variants {
		if v.Elem == nil {
			return nil, schemaInvalid("variant %q has no element schema", v.Case)
		}
		if v.Elem.transparent {
			return nil, schemaInvalid("variant %q: transparent wrappers cannot be enum variants", v.Case)
		}
		if v.Elem.name.Space != space {
			return nil, schemaInvalid("variant %q element %s is outside enum namespace %q", v.Case, v.Elem.name, space)
		}
		if _, dup := s.byLocal[v.Elem.name.Local]; dup {
			return nil, schemaInvalid("duplicate variant element name %s", v.Elem.name)
		}
		if _, dup := s.byCase[v.Case]; dup {
			return nil, schemaInvalid("duplicate variant case %q", v.Case)
		}
		s.byLocal[v.Elem.name.Local] = v
		s.byCase[v.Case] = v.Elem
	}
	return s, nil
}

func (s *NameSwitched) Accepts(name Name) bool {
	if name.Space != s.space {
		return false
	}
	if s.exhaustive {
		return true
	}
	_, ok := s.byLocal[name.Local]
	return ok
}

func (s *NameSwitched) resolve(name Name) (resolution, error) {
	if name.Space != s.space {
		return resolution{}, &Mismatch{Name: name}
	}
	v, ok := s.byLocal[name.Local]
	if !ok {
		if s.exhaustive {
			return resolution{}, Issues{Issue{Path: "/", Code: CodeVariantUnknown, Message: fmt.Sprintf("no variant for element %s", name), Offset: -1}}
		}
		return resolution{}, &Mismatch{Name: name}
	}
	caseName := v.Case
	return resolution{elem: v.Elem, wrap: func(val any) any { return Variant{Case: caseName, Value: val} }}, nil
}

func (s *NameSwitched) encodeResolve(v any) (encoding, error) {
	vr, ok := v.(Variant)
	if !ok {
		return encoding{}, encodeIssue("name-switched enum expects a Variant value, got %T", v)
	}
	elem, ok := s.byCase[vr.Case]
	if !ok {
		return encoding{}, encodeIssue("unknown variant case %q", vr.Case)
	}
	return elem.encodeResolve(vr.Value)
}

// Dynamic is a tagged union distinguished by trying member schemas in
// declaration order. Two variants accepting an identical opening event are a
// schema defect and are rejected at construction time rather than silently
// resolved by order.
type Dynamic struct {
	variants []EnumVariant
	byCase   map[string]*Element
}

// NewDynamic compiles a dynamic enum.
func NewDynamic(variants []EnumVariant) (*Dynamic, error) {
	if len(variants) == 0 {
		return nil, schemaInvalid("dynamic enums need at least one variant")
	}
	s := &Dynamic{variants: variants, byCase: make(map[string]*Element, len(variants))}
	seen := make(map[Name]string, len(variants))
	for _, v := range variants {
		if v.Elem == nil {
			return nil, schemaInvalid("variant %q has no element schema", v.Case)
		}
		if v.Elem.transparent {
			return nil, schemaInvalid("variant %q: transparent wrappers cannot be enum variants", v.Case)
		}
		if prev, dup := seen[v.Elem.name]; dup {
			return nil, schemaInvalid("variants %q and %q both accept element %s", prev, v.Case, v.Elem.name)
		}
		seen[v.Elem.name] = v.Case
		if _, dup := s.byCase[v.Case]; dup {
			return nil, schemaInvalid("duplicate variant case %q", v.Case)
		}
		s.byCase[v.Case] = v.Elem
	}
	return s, nil
}

func (s *Dynamic) Accepts(name Name) bool {
	for _, v := range s.variants {
		if v.Elem.Accepts(name) {
			return true
		}
	}
	return false
}

func (s *Dynamic) resolve(name Name) (resolution, error) {
	for _, v := range s.variants {
		if !v.Elem.Accepts(name) {
			continue
		}
		caseName := v.Case
		return resolution{elem: v.Elem, wrap: func(val any) any { return Variant{Case: caseName, Value: val} }}, nil
	}
	return resolution{}, &Mismatch{Name: name}
}

func (s *Dynamic) encodeResolve(v any) (encoding, error) {
	vr, ok := v.(Variant)
	if !ok {
		return encoding{}, encodeIssue("dynamic enum expects a Variant value, got %T", v)
	}
	elem, ok := s.byCase[vr.Case]
	if !ok {
		return encoding{}, encodeIssue("unknown variant case %q", vr.Case)
	}
	return elem.encodeResolve(vr.Value)
}

type anySchema struct{}

// AnyElement matches any element and captures it as a RawElement. It is the
// generic opaque-subtree schema; Passthrough fields use the same capture
// machinery implicitly.
var AnyElement Schema = anySchema{}

func (anySchema) Accepts(Name) bool { return true }

func (anySchema) resolve(name Name) (resolution, error) {
	return resolution{raw: true}, nil
}

func (anySchema) encodeResolve(v any) (encoding, error) {
	switch r := v.(type) {
	case RawElement:
		return encoding{raw: &r}, nil
	case *RawElement:
		return encoding{raw: r}, nil
	}
	return encoding{}, encodeIssue("AnyElement expects a RawElement value, got %T", v)
}
