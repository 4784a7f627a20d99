package gostanza_test

import (
	"context"
	"reflect"
	"testing"

	gostanza "github.com/reoring/gostanza"
	"github.com/reoring/gostanza/codec"
	"github.com/reoring/gostanza/dsl"
)

func stanzaEnum(t *testing.T, exhaustive bool) gostanza.Schema {
	t.Helper()
	b := dsl.NameSwitched("jabber:client").
		Variant("Message", dsl.Element("jabber:client", "message").
			Attr("to", "to", codec.String{}).
			MustBuildElement()).
		Variant("Presence", dsl.Element("jabber:client", "presence").
			Attr("kind", "type", codec.String{}).
			MustBuildElement())
	if exhaustive {
		b = b.Exhaustive()
	}
	s, err := b.Build()
	if err != nil {
		t.Fatalf("build enum: %v", err)
	}
	return s
}

func TestNameSwitchedDecode(t *testing.T) {
	ctx := context.Background()
	s := stanzaEnum(t, false)

	v, err := gostanza.FromBytes(ctx, s, []byte(`<presence xmlns="jabber:client" type="away"/>`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := gostanza.Variant{Case: "Presence", Value: map[string]any{"kind": "away"}}
	if !reflect.DeepEqual(v, want) {
		t.Fatalf("decoded %#v, want %#v", v, want)
	}
}

func TestNameSwitchedEncode(t *testing.T) {
	ctx := context.Background()
	s := stanzaEnum(t, false)
	v := gostanza.Variant{Case: "Message", Value: map[string]any{"to": "b@y"}}

	data, err := gostanza.ToBytes(ctx, s, v)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	back, err := gostanza.FromBytes(ctx, s, data)
	if err != nil {
		t.Fatalf("decode(%s): %v", data, err)
	}
	if !reflect.DeepEqual(back, v) {
		t.Fatalf("round trip: %s -> %#v", data, back)
	}
}

func TestNameSwitchedWrongNamespaceIsMismatch(t *testing.T) {
	ctx := context.Background()
	s := stanzaEnum(t, true)

	_, err := gostanza.FromBytes(ctx, s, []byte(`<message xmlns="urn:other"/>`))
	if !gostanza.IsMismatch(err) {
		t.Fatalf("error = %v, want recoverable mismatch", err)
	}
}

func TestNameSwitchedExhaustiveUnknownLocalIsFatal(t *testing.T) {
	ctx := context.Background()
	s := stanzaEnum(t, true)

	_, err := gostanza.FromBytes(ctx, s, []byte(`<iq xmlns="jabber:client"/>`))
	if gostanza.IsMismatch(err) {
		t.Fatalf("exhaustive enum yielded a recoverable mismatch")
	}
	assertIssueCode(t, err, gostanza.CodeVariantUnknown)
}

func TestNameSwitchedNonExhaustiveUnknownLocalIsMismatch(t *testing.T) {
	ctx := context.Background()
	s := stanzaEnum(t, false)

	_, err := gostanza.FromBytes(ctx, s, []byte(`<iq xmlns="jabber:client"/>`))
	if !gostanza.IsMismatch(err) {
		t.Fatalf("error = %v, want recoverable mismatch", err)
	}
}

func TestNameSwitchedRejectsForeignVariant(t *testing.T) {
	e := dsl.Element("urn:other", "thing").MustBuildElement()
	_, err := dsl.NameSwitched("jabber:client").Variant("Thing", e).Build()
	if err == nil {
		t.Fatalf("variant outside the enum namespace accepted")
	}
}

func TestNameSwitchedEnumAsChildField(t *testing.T) {
	ctx := context.Background()
	s := dsl.Element("urn:test", "carrier").
		Children("stanzas", stanzaEnum(t, false)).
		MustBuild()

	v, err := gostanza.FromBytes(ctx, s, []byte(
		`<carrier xmlns="urn:test"><message xmlns="jabber:client"/><presence xmlns="jabber:client"/></carrier>`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	got := v.(map[string]any)["stanzas"].([]any)
	if len(got) != 2 {
		t.Fatalf("decoded %d stanzas, want 2", len(got))
	}
	if got[0].(gostanza.Variant).Case != "Message" || got[1].(gostanza.Variant).Case != "Presence" {
		t.Fatalf("cases = %v, %v", got[0], got[1])
	}
}

func TestDynamicDecodeInOrder(t *testing.T) {
	ctx := context.Background()
	s := dsl.Dynamic().
		VariantOf("A", dsl.Element("urn:a", "item")).
		VariantOf("B", dsl.Element("urn:b", "item")).
		MustBuild()

	v, err := gostanza.FromBytes(ctx, s, []byte(`<item xmlns="urn:b"/>`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if v.(gostanza.Variant).Case != "B" {
		t.Fatalf("case = %v", v)
	}

	_, err = gostanza.FromBytes(ctx, s, []byte(`<item xmlns="urn:c"/>`))
	if !gostanza.IsMismatch(err) {
		t.Fatalf("error = %v, want recoverable mismatch", err)
	}
}

func TestDynamicAmbiguityRejectedAtBuild(t *testing.T) {
	_, err := dsl.Dynamic().
		VariantOf("A", dsl.Element("urn:a", "item")).
		VariantOf("B", dsl.Element("urn:a", "item")).
		Build()
	iss, ok := gostanza.AsIssues(err)
	if !ok || iss[0].Code != gostanza.CodeSchemaInvalid {
		t.Fatalf("error = %v, want schema_invalid", err)
	}
}

func TestAnyElementCapturesSubtree(t *testing.T) {
	ctx := context.Background()

	v, err := gostanza.FromBytes(ctx, gostanza.AnyElement, []byte(
		`<anything xmlns="urn:x" a="1"><child>t</child></anything>`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	r, ok := v.(gostanza.RawElement)
	if !ok {
		t.Fatalf("decoded %T, want RawElement", v)
	}
	if r.Name.Local != "anything" || len(r.Nodes) != 1 {
		t.Fatalf("capture = %#v", r)
	}

	out, err := gostanza.ToBytes(ctx, gostanza.AnyElement, r)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	back, err := gostanza.FromBytes(ctx, gostanza.AnyElement, out)
	if err != nil {
		t.Fatalf("decode(%s): %v", out, err)
	}
	if !reflect.DeepEqual(back, v) {
		t.Fatalf("raw round trip changed the capture")
	}
}
