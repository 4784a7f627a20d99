package dsl

import (
	gostanza "github.com/reoring/gostanza"
)

type nameSwitchedBuilder struct {
	space      string
	variants   []gostanza.EnumVariant
	exhaustive bool
	err        error
}

// NameSwitched starts a tagged union distinguished by element local name
// within one fixed namespace.
func NameSwitched(space string) *nameSwitchedBuilder {
	return &nameSwitchedBuilder{space: space}
}

// Variant registers one case. The element must live in the enum's namespace;
// the check happens at Build.
func (b *nameSwitchedBuilder) Variant(caseName string, e *gostanza.Element) *nameSwitchedBuilder {
	b.variants = append(b.variants, gostanza.EnumVariant{Case: caseName, Elem: e})
	return b
}

// VariantOf registers a case built from an element builder, so variant
// declarations stay inline.
func (b *nameSwitchedBuilder) VariantOf(caseName string, eb *elementBuilder) *nameSwitchedBuilder {
	e, err := eb.BuildElement()
	if err != nil && b.err == nil {
		b.err = err
	}
	return b.Variant(caseName, e)
}

// Exhaustive makes the enum claim its whole namespace: any element in the
// namespace with an unknown local name becomes a hard failure instead of a
// recoverable mismatch.
func (b *nameSwitchedBuilder) Exhaustive() *nameSwitchedBuilder {
	b.exhaustive = true
	return b
}

// Build compiles the enum.
func (b *nameSwitchedBuilder) Build() (gostanza.Schema, error) {
	if b.err != nil {
		return nil, b.err
	}
	return gostanza.NewNameSwitched(b.space, b.variants, b.exhaustive)
}

// MustBuild is Build panicking on error.
func (b *nameSwitchedBuilder) MustBuild() gostanza.Schema {
	s, err := b.Build()
	if err != nil {
		panic(err)
	}
	return s
}

type dynamicBuilder struct {
	variants []gostanza.EnumVariant
	err      error
}

// Dynamic starts a tagged union resolved by trying member elements in
// declaration order. Two variants accepting the same element name are
// rejected at Build.
func Dynamic() *dynamicBuilder {
	return &dynamicBuilder{}
}

// Variant registers one case.
func (b *dynamicBuilder) Variant(caseName string, e *gostanza.Element) *dynamicBuilder {
	b.variants = append(b.variants, gostanza.EnumVariant{Case: caseName, Elem: e})
	return b
}

// VariantOf registers a case built from an element builder.
func (b *dynamicBuilder) VariantOf(caseName string, eb *elementBuilder) *dynamicBuilder {
	e, err := eb.BuildElement()
	if err != nil && b.err == nil {
		b.err = err
	}
	return b.Variant(caseName, e)
}

// Build compiles the enum.
func (b *dynamicBuilder) Build() (gostanza.Schema, error) {
	if b.err != nil {
		return nil, b.err
	}
	return gostanza.NewDynamic(b.variants)
}

// MustBuild is Build panicking on error.
func (b *dynamicBuilder) MustBuild() gostanza.Schema {
	s, err := b.Build()
	if err != nil {
		panic(err)
	}
	return s
}
