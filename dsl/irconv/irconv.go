// Package irconv compiles schema documents (internal/ir) into gostanza
// schemas. It backs the CLI; programs normally declare schemas with the dsl
// package directly.
package irconv

import (
	"context"
	"fmt"

	gostanza "github.com/reoring/gostanza"
	"github.com/reoring/gostanza/codec"
	"github.com/reoring/gostanza/internal/ir"
)

type converter struct {
	doc    *ir.Document
	built  map[string]gostanza.Schema
	inProg map[string]bool
}

// Convert compiles the document's root schema, resolving named references.
func Convert(doc *ir.Document) (gostanza.Schema, error) {
	c := &converter{
		doc:    doc,
		built:  make(map[string]gostanza.Schema),
		inProg: make(map[string]bool),
	}
	return c.named(doc.Root)
}

func (c *converter) named(name string) (gostanza.Schema, error) {
	if s, ok := c.built[name]; ok {
		return s, nil
	}
	if c.inProg[name] {
		return nil, fmt.Errorf("schema %q references itself", name)
	}
	n, ok := c.doc.Schemas[name]
	if !ok {
		return nil, fmt.Errorf("unknown schema reference %q", name)
	}
	c.inProg[name] = true
	s, err := c.node(n)
	delete(c.inProg, name)
	if err != nil {
		return nil, fmt.Errorf("schema %q: %w", name, err)
	}
	c.built[name] = s
	return s, nil
}

func (c *converter) node(n *ir.Node) (gostanza.Schema, error) {
	if n == nil {
		return nil, fmt.Errorf("missing schema node")
	}
	if n.Ref != "" {
		return c.named(n.Ref)
	}
	switch n.Kind {
	case "element":
		return c.element(n)
	case "transparent":
		inner, err := c.node(n.Inner)
		if err != nil {
			return nil, err
		}
		key := n.Key
		if key == "" {
			key = "value"
		}
		return gostanza.NewTransparent(gostanza.Field{
			Kind:   gostanza.FieldChild,
			Key:    key,
			Schema: inner,
		})
	case "nameSwitched":
		variants, err := c.variants(n.Variants)
		if err != nil {
			return nil, err
		}
		return gostanza.NewNameSwitched(n.Space, variants, n.Exhaustive)
	case "dynamic":
		variants, err := c.variants(n.Variants)
		if err != nil {
			return nil, err
		}
		return gostanza.NewDynamic(variants)
	case "any":
		return gostanza.AnyElement, nil
	}
	return nil, fmt.Errorf("unknown schema kind %q", n.Kind)
}

func (c *converter) element(n *ir.Node) (*gostanza.Element, error) {
	fields, err := c.fields(n.Fields)
	if err != nil {
		return nil, err
	}
	ua, err := policy(n.UnknownAttrs)
	if err != nil {
		return nil, err
	}
	uc, err := policy(n.UnknownChildren)
	if err != nil {
		return nil, err
	}
	return gostanza.NewElement(gostanza.Name{Space: n.Space, Local: n.Local}, fields, ua, uc)
}

func policy(s string) (gostanza.UnknownPolicy, error) {
	switch s {
	case "", "reject":
		return gostanza.UnknownReject, nil
	case "ignore":
		return gostanza.UnknownIgnore, nil
	}
	return gostanza.UnknownReject, fmt.Errorf("unknown policy %q", s)
}

func (c *converter) variants(vs []ir.Variant) ([]gostanza.EnumVariant, error) {
	out := make([]gostanza.EnumVariant, 0, len(vs))
	for _, v := range vs {
		if v.Schema == nil || (v.Schema.Kind != "element" && v.Schema.Ref == "") {
			return nil, fmt.Errorf("variant %q needs an element schema", v.Case)
		}
		node := v.Schema
		if node.Ref != "" {
			ref, ok := c.doc.Schemas[node.Ref]
			if !ok {
				return nil, fmt.Errorf("variant %q: unknown schema reference %q", v.Case, node.Ref)
			}
			node = ref
		}
		if node.Kind != "element" {
			return nil, fmt.Errorf("variant %q: enum variants must be elements", v.Case)
		}
		e, err := c.element(node)
		if err != nil {
			return nil, fmt.Errorf("variant %q: %w", v.Case, err)
		}
		out = append(out, gostanza.EnumVariant{Case: v.Case, Elem: e})
	}
	return out, nil
}

func (c *converter) fields(fs []ir.Field) ([]gostanza.Field, error) {
	out := make([]gostanza.Field, 0, len(fs))
	for _, f := range fs {
		gf, err := c.field(f)
		if err != nil {
			return nil, err
		}
		out = append(out, gf)
	}
	return out, nil
}

func (c *converter) field(f ir.Field) (gostanza.Field, error) {
	gf := gostanza.Field{Key: f.Key}
	if f.Collection {
		gf.Cardinality = gostanza.Collection
	}
	if f.Required {
		gf.Presence = gostanza.Required
	}
	switch f.Kind {
	case "attr":
		gf.Kind = gostanza.FieldAttr
		gf.Name = gostanza.Name{Space: f.Space, Local: f.Local}
		if err := c.codecAndDefault(&gf, f); err != nil {
			return gf, err
		}
	case "text":
		gf.Kind = gostanza.FieldText
		if err := c.codecAndDefault(&gf, f); err != nil {
			return gf, err
		}
	case "child":
		gf.Kind = gostanza.FieldChild
		s, err := c.node(f.Schema)
		if err != nil {
			return gf, fmt.Errorf("field %q: %w", f.Key, err)
		}
		gf.Schema = s
	case "extract":
		gf.Kind = gostanza.FieldExtract
		gf.Name = gostanza.Name{Space: f.Space, Local: f.Local}
		inner, err := c.fields(f.Inner)
		if err != nil {
			return gf, fmt.Errorf("field %q: %w", f.Key, err)
		}
		gf.Inner = inner
	case "passthrough":
		gf.Kind = gostanza.FieldPassthrough
		gf.Cardinality = gostanza.Collection
	default:
		return gf, fmt.Errorf("field %q has unknown kind %q", f.Key, f.Kind)
	}
	return gf, nil
}

func (c *converter) codecAndDefault(gf *gostanza.Field, f ir.Field) error {
	tc, err := codecByName(f.Codec)
	if err != nil {
		return fmt.Errorf("field %q: %w", f.Key, err)
	}
	gf.Codec = tc
	if f.Default != nil {
		v, err := tc.DecodeText(context.Background(), *f.Default)
		if err != nil {
			return fmt.Errorf("field %q: invalid default %q: %w", f.Key, *f.Default, err)
		}
		gf.Default = v
	}
	return nil
}

func codecByName(name string) (gostanza.TextCodec, error) {
	switch name {
	case "", "string":
		return codec.String{}, nil
	case "nonEmptyString":
		return codec.NonEmptyString{}, nil
	case "int":
		return codec.Int{}, nil
	case "uint":
		return codec.Uint{}, nil
	case "bool":
		return codec.Bool{}, nil
	case "base64":
		return codec.Base64{}, nil
	case "colonSeparatedHex":
		return codec.ColonSeparatedHex{}, nil
	case "timeRFC3339":
		return codec.TimeRFC3339{}, nil
	case "uuid":
		return codec.UUID{}, nil
	}
	return nil, fmt.Errorf("unknown codec %q", name)
}
