package dsl

import (
	"context"
	"fmt"
	"reflect"
	"unicode"

	gostanza "github.com/reoring/gostanza"
)

// Binding adapts a compiled schema's map-based values to a struct type T.
// Struct fields match schema keys via the `xml` tag, falling back to the
// lowerCamel form of the field name.
type Binding[T any] struct {
	schema gostanza.Schema
	t      reflect.Type
	byKey  map[string]int
}

// Bind builds a struct binding over s (free function for Go version
// compatibility).
func Bind[T any](s gostanza.Schema) (*Binding[T], error) {
	var zero T
	rt := reflect.TypeOf(zero)
	if rt == nil {
		return nil, bindErr("Bind[T] requires a struct type")
	}
	if rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	if rt.Kind() != reflect.Struct {
		return nil, bindErr("Bind[T] requires struct T, got %s", rt.Kind())
	}
	byKey, err := structKeys(rt)
	if err != nil {
		return nil, err
	}
	return &Binding[T]{schema: s, t: rt, byKey: byKey}, nil
}

// MustBind is like Bind but panics on error.
func MustBind[T any](s gostanza.Schema) *Binding[T] {
	b, err := Bind[T](s)
	if err != nil {
		panic(err)
	}
	return b
}

// Schema returns the underlying compiled schema.
func (b *Binding[T]) Schema() gostanza.Schema { return b.schema }

// Decode reads one element from src into a T.
func (b *Binding[T]) Decode(ctx context.Context, src gostanza.Source, opt ...gostanza.DecodeOpt) (T, error) {
	var zero T
	v, err := gostanza.Decode(ctx, b.schema, src, opt...)
	if err != nil {
		return zero, err
	}
	return b.FromValue(v)
}

// FromBytes decodes one element from a serialized document into a T.
func (b *Binding[T]) FromBytes(ctx context.Context, data []byte, opt ...gostanza.DecodeOpt) (T, error) {
	var zero T
	v, err := gostanza.FromBytes(ctx, b.schema, data, opt...)
	if err != nil {
		return zero, err
	}
	return b.FromValue(v)
}

// ToBytes serializes a T.
func (b *Binding[T]) ToBytes(ctx context.Context, v T) ([]byte, error) {
	m, err := b.ToValue(v)
	if err != nil {
		return nil, err
	}
	return gostanza.ToBytes(ctx, b.schema, m)
}

// FromValue maps a decoded value (map[string]any) into a T.
func (b *Binding[T]) FromValue(v any) (T, error) {
	var out T
	m, ok := v.(map[string]any)
	if !ok {
		return out, bindErr("bound decode expects map[string]any, got %T", v)
	}
	rv := reflect.New(b.t).Elem()
	for key, idx := range b.byKey {
		fv, ok := m[key]
		if !ok || fv == nil {
			continue
		}
		if err := assignValue(rv.Field(idx), fv); err != nil {
			return out, bindErr("field %q: %v", key, err)
		}
	}
	ov := reflect.ValueOf(&out).Elem()
	if ov.Kind() == reflect.Pointer {
		ov.Set(rv.Addr())
	} else {
		ov.Set(rv)
	}
	return out, nil
}

// ToValue maps a T back to the schema's keyed value.
func (b *Binding[T]) ToValue(v T) (map[string]any, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return map[string]any{}, nil
		}
		rv = rv.Elem()
	}
	m := make(map[string]any, len(b.byKey))
	for key, idx := range b.byKey {
		fv := rv.Field(idx)
		ev, err := extractValue(fv)
		if err != nil {
			return nil, bindErr("field %q: %v", key, err)
		}
		if ev != nil {
			m[key] = ev
		}
	}
	return m, nil
}

func bindErr(format string, args ...any) error {
	return gostanza.Issues{gostanza.Issue{
		Path:    "/",
		Code:    gostanza.CodeSchemaInvalid,
		Message: fmt.Sprintf(format, args...),
		Offset:  -1,
	}}
}

func structKeys(rt reflect.Type) (map[string]int, error) {
	byKey := make(map[string]int)
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}
		key := sf.Tag.Get("xml")
		if key == "-" {
			continue
		}
		if key == "" {
			key = lowerCamel(sf.Name)
		}
		if _, dup := byKey[key]; dup {
			return nil, bindErr("duplicate bound key %q", key)
		}
		byKey[key] = i
	}
	return byKey, nil
}

func lowerCamel(name string) string {
	r := []rune(name)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

// assignValue sets dst from a decoded value, converting the generic shapes
// the decoder produces (maps, []any, Variant) into the struct's declared
// types.
func assignValue(dst reflect.Value, v any) error {
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(dst.Type()) {
		dst.Set(rv)
		return nil
	}
	switch dst.Kind() {
	case reflect.Pointer:
		p := reflect.New(dst.Type().Elem())
		if err := assignValue(p.Elem(), v); err != nil {
			return err
		}
		dst.Set(p)
		return nil
	case reflect.Slice:
		items, ok := v.([]any)
		if !ok {
			break
		}
		out := reflect.MakeSlice(dst.Type(), len(items), len(items))
		for i, it := range items {
			if err := assignValue(out.Index(i), it); err != nil {
				return err
			}
		}
		dst.Set(out)
		return nil
	case reflect.Struct:
		m, ok := v.(map[string]any)
		if !ok {
			break
		}
		byKey, err := structKeys(dst.Type())
		if err != nil {
			return err
		}
		for key, idx := range byKey {
			fv, ok := m[key]
			if !ok || fv == nil {
				continue
			}
			if err := assignValue(dst.Field(idx), fv); err != nil {
				return err
			}
		}
		return nil
	}
	if rv.Type().ConvertibleTo(dst.Type()) {
		dst.Set(rv.Convert(dst.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", v, dst.Type())
}

// extractValue reverses assignValue: struct field -> generic decoded shape.
func extractValue(fv reflect.Value) (any, error) {
	switch fv.Kind() {
	case reflect.Pointer:
		if fv.IsNil() {
			return nil, nil
		}
		return extractValue(fv.Elem())
	case reflect.Slice:
		if fv.IsNil() {
			return nil, nil
		}
		if fv.Type().Elem().Kind() == reflect.Struct && !isKnownLeaf(fv.Type().Elem()) {
			out := make([]any, fv.Len())
			for i := 0; i < fv.Len(); i++ {
				ev, err := extractValue(fv.Index(i))
				if err != nil {
					return nil, err
				}
				out[i] = ev
			}
			return out, nil
		}
		return fv.Interface(), nil
	case reflect.Struct:
		if isKnownLeaf(fv.Type()) {
			return fv.Interface(), nil
		}
		byKey, err := structKeys(fv.Type())
		if err != nil {
			return nil, err
		}
		m := make(map[string]any, len(byKey))
		for key, idx := range byKey {
			ev, err := extractValue(fv.Field(idx))
			if err != nil {
				return nil, err
			}
			if ev != nil {
				m[key] = ev
			}
		}
		return m, nil
	}
	return fv.Interface(), nil
}

// isKnownLeaf reports struct types the engine consumes as-is rather than as
// nested keyed maps.
func isKnownLeaf(t reflect.Type) bool {
	switch t {
	case reflect.TypeOf(gostanza.Variant{}),
		reflect.TypeOf(gostanza.RawElement{}),
		reflect.TypeOf(gostanza.Name{}):
		return true
	}
	return t.PkgPath() == "time" && t.Name() == "Time"
}
