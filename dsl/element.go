package dsl

import (
	gostanza "github.com/reoring/gostanza"
)

type elementBuilder struct {
	name         gostanza.Name
	transparent  bool
	fields       []gostanza.Field
	unknownAttr  gostanza.UnknownPolicy
	unknownChild gostanza.UnknownPolicy
}

type fieldStep struct {
	b *elementBuilder
	i int
}

// Element creates a new element builder with safe defaults (unknown
// attributes and children rejected).
func Element(space, local string) *elementBuilder {
	return &elementBuilder{
		name:         gostanza.Name{Space: space, Local: local},
		unknownAttr:  gostanza.UnknownReject,
		unknownChild: gostanza.UnknownReject,
	}
}

// Transparent creates a builder for a wire-invisible wrapper: no name of its
// own, exactly one Child field whose schema covers the element entirely.
func Transparent(key string, s gostanza.Schema) *elementBuilder {
	b := &elementBuilder{transparent: true}
	b.fields = append(b.fields, gostanza.Field{Kind: gostanza.FieldChild, Key: key, Schema: s})
	return b
}

func (b *elementBuilder) add(f gostanza.Field) *fieldStep {
	b.fields = append(b.fields, f)
	return &fieldStep{b: b, i: len(b.fields) - 1}
}

// Attr registers an attribute field in the empty namespace.
func (b *elementBuilder) Attr(key, local string, c gostanza.TextCodec) *fieldStep {
	return b.AttrNS(key, "", local, c)
}

// AttrNS registers a namespaced attribute field.
func (b *elementBuilder) AttrNS(key, space, local string, c gostanza.TextCodec) *fieldStep {
	return b.add(gostanza.Field{
		Kind:  gostanza.FieldAttr,
		Key:   key,
		Name:  gostanza.Name{Space: space, Local: local},
		Codec: c,
	})
}

// Text registers the element's character-data field. At most one per element.
func (b *elementBuilder) Text(key string, c gostanza.TextCodec) *fieldStep {
	return b.add(gostanza.Field{Kind: gostanza.FieldText, Key: key, Codec: c})
}

// Child registers a single-valued child element field.
func (b *elementBuilder) Child(key string, s gostanza.Schema) *fieldStep {
	return b.add(gostanza.Field{Kind: gostanza.FieldChild, Key: key, Schema: s})
}

// Children registers a collection child field; absent matches decode to an
// empty slice, never nil.
func (b *elementBuilder) Children(key string, s gostanza.Schema) *fieldStep {
	return b.add(gostanza.Field{
		Kind:        gostanza.FieldChild,
		Key:         key,
		Schema:      s,
		Cardinality: gostanza.Collection,
	})
}

// Extract registers an extraction field: the named wrapper element is
// consumed on the wire but only the inner field values surface in the
// decoded map. With a single inner field the slot holds the inner value
// directly; with several it holds the inner map.
func (b *elementBuilder) Extract(key, space, local string, inner ...gostanza.Field) *fieldStep {
	return b.add(gostanza.Field{
		Kind:  gostanza.FieldExtract,
		Key:   key,
		Name:  gostanza.Name{Space: space, Local: local},
		Inner: inner,
	})
}

// Passthrough registers the element's raw-capture collection: unclaimed
// children land here as RawElements instead of being rejected or dropped.
func (b *elementBuilder) Passthrough(key string) *fieldStep {
	return b.add(gostanza.Field{
		Kind:        gostanza.FieldPassthrough,
		Key:         key,
		Cardinality: gostanza.Collection,
	})
}

// IgnoreUnknownAttrs switches unknown attributes from reject to silent skip.
func (b *elementBuilder) IgnoreUnknownAttrs() *elementBuilder {
	b.unknownAttr = gostanza.UnknownIgnore
	return b
}

// IgnoreUnknownChildren switches unknown child elements from reject to
// skipping their whole subtree.
func (b *elementBuilder) IgnoreUnknownChildren() *elementBuilder {
	b.unknownChild = gostanza.UnknownIgnore
	return b
}

// IgnoreUnknown relaxes both unknown-attribute and unknown-child policies.
func (b *elementBuilder) IgnoreUnknown() *elementBuilder {
	return b.IgnoreUnknownAttrs().IgnoreUnknownChildren()
}

// Build compiles the schema. All declaration errors surface here, never at
// decode time.
func (b *elementBuilder) Build() (gostanza.Schema, error) {
	if b.transparent {
		return gostanza.NewTransparent(b.fields[0])
	}
	return gostanza.NewElement(b.name, b.fields, b.unknownAttr, b.unknownChild)
}

// MustBuild is Build panicking on error, for package-level schema vars.
func (b *elementBuilder) MustBuild() gostanza.Schema {
	s, err := b.Build()
	if err != nil {
		panic(err)
	}
	return s
}

// BuildElement compiles and returns the concrete *Element, as enum variant
// declarations require.
func (b *elementBuilder) BuildElement() (*gostanza.Element, error) {
	if b.transparent {
		return nil, gostanza.Issues{gostanza.Issue{Path: "/", Code: gostanza.CodeSchemaInvalid, Message: "transparent wrappers cannot be built as enum variant elements", Offset: -1}}
	}
	return gostanza.NewElement(b.name, b.fields, b.unknownAttr, b.unknownChild)
}

// MustBuildElement is BuildElement panicking on error.
func (b *elementBuilder) MustBuildElement() *gostanza.Element {
	e, err := b.BuildElement()
	if err != nil {
		panic(err)
	}
	return e
}

// Required marks the current field as required and returns the builder.
func (f *fieldStep) Required() *elementBuilder {
	f.b.fields[f.i].Presence = gostanza.Required
	return f.b
}

// Optional marks the current field as optional (the default) and returns the
// builder.
func (f *fieldStep) Optional() *elementBuilder {
	f.b.fields[f.i].Presence = gostanza.Optional
	return f.b
}

// Default sets the value assumed when the current field is absent on decode
// and elided again on encode.
func (f *fieldStep) Default(v any) *elementBuilder {
	f.b.fields[f.i].Default = v
	f.b.fields[f.i].Presence = gostanza.Optional
	return f.b
}

// Each turns the current extract field into a collection.
func (f *fieldStep) Each() *elementBuilder {
	f.b.fields[f.i].Cardinality = gostanza.Collection
	return f.b
}

// Chaining passthroughs so declarations read as one fluent expression.
func (f *fieldStep) Attr(key, local string, c gostanza.TextCodec) *fieldStep {
	return f.b.Attr(key, local, c)
}
func (f *fieldStep) AttrNS(key, space, local string, c gostanza.TextCodec) *fieldStep {
	return f.b.AttrNS(key, space, local, c)
}
func (f *fieldStep) Text(key string, c gostanza.TextCodec) *fieldStep { return f.b.Text(key, c) }
func (f *fieldStep) Child(key string, s gostanza.Schema) *fieldStep   { return f.b.Child(key, s) }
func (f *fieldStep) Children(key string, s gostanza.Schema) *fieldStep {
	return f.b.Children(key, s)
}
func (f *fieldStep) Extract(key, space, local string, inner ...gostanza.Field) *fieldStep {
	return f.b.Extract(key, space, local, inner...)
}
func (f *fieldStep) Passthrough(key string) *fieldStep        { return f.b.Passthrough(key) }
func (f *fieldStep) IgnoreUnknownAttrs() *elementBuilder      { return f.b.IgnoreUnknownAttrs() }
func (f *fieldStep) IgnoreUnknownChildren() *elementBuilder   { return f.b.IgnoreUnknownChildren() }
func (f *fieldStep) IgnoreUnknown() *elementBuilder           { return f.b.IgnoreUnknown() }
func (f *fieldStep) Build() (gostanza.Schema, error)          { return f.b.Build() }
func (f *fieldStep) MustBuild() gostanza.Schema               { return f.b.MustBuild() }
func (f *fieldStep) BuildElement() (*gostanza.Element, error) { return f.b.BuildElement() }
func (f *fieldStep) MustBuildElement() *gostanza.Element      { return f.b.MustBuildElement() }

// AttrOf declares an attribute inner field for Extract.
func AttrOf(key, local string, c gostanza.TextCodec) gostanza.Field {
	return gostanza.Field{
		Kind:  gostanza.FieldAttr,
		Key:   key,
		Name:  gostanza.Name{Local: local},
		Codec: c,
	}
}

// TextOf declares a text inner field for Extract.
func TextOf(key string, c gostanza.TextCodec) gostanza.Field {
	return gostanza.Field{Kind: gostanza.FieldText, Key: key, Codec: c}
}

// ChildOf declares a single-valued child inner field for Extract.
func ChildOf(key string, s gostanza.Schema) gostanza.Field {
	return gostanza.Field{Kind: gostanza.FieldChild, Key: key, Schema: s}
}

// RequiredField marks a declared inner field as required.
func RequiredField(f gostanza.Field) gostanza.Field {
	f.Presence = gostanza.Required
	return f
}
