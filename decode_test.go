package gostanza_test

import (
	"context"
	"reflect"
	"testing"

	gostanza "github.com/reoring/gostanza"
	"github.com/reoring/gostanza/codec"
	"github.com/reoring/gostanza/dsl"
)

const nsJabber = "jabber:client"

func messageSchema(t *testing.T) gostanza.Schema {
	t.Helper()
	return dsl.Element(nsJabber, "message").
		Attr("from", "from", codec.String{}).
		Attr("to", "to", codec.String{}).Required().
		Attr("kind", "type", codec.String{}).Default("normal").
		Extract("body", nsJabber, "body", dsl.TextOf("text", codec.String{})).
		MustBuild()
}

func TestDecodeSimpleElement(t *testing.T) {
	ctx := context.Background()
	s := messageSchema(t)

	v, err := gostanza.FromBytes(ctx, s, []byte(
		`<message xmlns="jabber:client" from="a@x" to="b@y" type="chat"><body>hi</body></message>`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := map[string]any{"from": "a@x", "to": "b@y", "kind": "chat", "body": "hi"}
	if !reflect.DeepEqual(v, want) {
		t.Fatalf("decoded %#v, want %#v", v, want)
	}
}

func TestDecodeAttributeOrderIrrelevant(t *testing.T) {
	ctx := context.Background()
	s := messageSchema(t)

	a, err := gostanza.FromBytes(ctx, s, []byte(
		`<message xmlns="jabber:client" from="a@x" to="b@y"><body>m</body></message>`))
	if err != nil {
		t.Fatalf("decode a: %v", err)
	}
	b, err := gostanza.FromBytes(ctx, s, []byte(
		`<message xmlns="jabber:client" to="b@y" from="a@x"><body>m</body></message>`))
	if err != nil {
		t.Fatalf("decode b: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("attribute order changed the result: %#v vs %#v", a, b)
	}
}

func TestDecodeDefaultOnAbsent(t *testing.T) {
	ctx := context.Background()
	s := messageSchema(t)

	v, err := gostanza.FromBytes(ctx, s, []byte(
		`<message xmlns="jabber:client" to="b@y"><body>m</body></message>`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	m := v.(map[string]any)
	if m["kind"] != "normal" {
		t.Fatalf("kind = %q, want declared default", m["kind"])
	}
	if m["from"] != "" {
		t.Fatalf("from = %q, want codec zero", m["from"])
	}
}

func TestDecodeRequiredAttributeMissing(t *testing.T) {
	ctx := context.Background()
	s := messageSchema(t)

	_, err := gostanza.FromBytes(ctx, s, []byte(
		`<message xmlns="jabber:client" from="a@x"><body>m</body></message>`))
	assertIssueCode(t, err, gostanza.CodeRequired)
}

func TestDecodeUnexpectedAttribute(t *testing.T) {
	ctx := context.Background()
	strict := dsl.Element("urn:test", "item").
		Attr("id", "id", codec.String{}).
		MustBuild()

	_, err := gostanza.FromBytes(ctx, strict, []byte(`<item xmlns="urn:test" id="1" extra="x"/>`))
	assertIssueCode(t, err, gostanza.CodeUnexpectedAttribute)

	lax := dsl.Element("urn:test", "item").
		Attr("id", "id", codec.String{}).
		IgnoreUnknownAttrs().
		MustBuild()
	v, err := gostanza.FromBytes(ctx, lax, []byte(`<item xmlns="urn:test" id="1" extra="x"/>`))
	if err != nil {
		t.Fatalf("lax decode: %v", err)
	}
	if v.(map[string]any)["id"] != "1" {
		t.Fatalf("id lost while ignoring unknown attribute: %#v", v)
	}
}

func TestDecodeUnexpectedChild(t *testing.T) {
	ctx := context.Background()
	doc := []byte(`<item xmlns="urn:test"><surprise><deep/></surprise></item>`)

	strict := dsl.Element("urn:test", "item").MustBuild()
	_, err := gostanza.FromBytes(ctx, strict, doc)
	assertIssueCode(t, err, gostanza.CodeUnexpectedChild)

	lax := dsl.Element("urn:test", "item").IgnoreUnknownChildren().MustBuild()
	v, err := gostanza.FromBytes(ctx, lax, doc)
	if err != nil {
		t.Fatalf("lax decode: %v", err)
	}
	if !reflect.DeepEqual(v, map[string]any{}) {
		t.Fatalf("ignored child leaked into the value: %#v", v)
	}
}

func TestDecodePassthroughCapturesUnclaimed(t *testing.T) {
	ctx := context.Background()
	s := dsl.Element("urn:test", "item").
		Attr("id", "id", codec.String{}).
		Passthrough("extras").
		MustBuild()

	v, err := gostanza.FromBytes(ctx, s, []byte(
		`<item xmlns="urn:test" id="1"><x a="1">t</x><y/></item>`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	extras := v.(map[string]any)["extras"].([]gostanza.RawElement)
	if len(extras) != 2 {
		t.Fatalf("captured %d extras, want 2", len(extras))
	}
	if extras[0].Name.Local != "x" || extras[1].Name.Local != "y" {
		t.Fatalf("extras = %v, %v", extras[0].Name, extras[1].Name)
	}
	if extras[0].Text() != "t" || len(extras[0].Attrs) != 1 {
		t.Fatalf("inner structure lost: %#v", extras[0])
	}
}

func TestDecodeDuplicateSingleChild(t *testing.T) {
	ctx := context.Background()
	inner := dsl.Element("urn:test", "inner").MustBuild()
	s := dsl.Element("urn:test", "outer").
		Child("inner", inner).
		MustBuild()

	_, err := gostanza.FromBytes(ctx, s, []byte(
		`<outer xmlns="urn:test"><inner/><inner/></outer>`))
	assertIssueCode(t, err, gostanza.CodeDuplicateChild)
}

func TestDecodeChildCollection(t *testing.T) {
	ctx := context.Background()
	status := dsl.Element("urn:test", "status").
		Text("text", codec.String{}).
		MustBuildElement()
	s := dsl.Element("urn:test", "presence").
		Children("status", status).
		MustBuild()

	v, err := gostanza.FromBytes(ctx, s, []byte(
		`<presence xmlns="urn:test"><status>a</status><status>b</status></presence>`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	got := v.(map[string]any)["status"].([]any)
	if len(got) != 2 {
		t.Fatalf("decoded %d statuses, want 2", len(got))
	}

	// absent matches decode to an empty slice, never nil
	v, err = gostanza.FromBytes(ctx, s, []byte(`<presence xmlns="urn:test"/>`))
	if err != nil {
		t.Fatalf("decode empty: %v", err)
	}
	if got := v.(map[string]any)["status"].([]any); len(got) != 0 {
		t.Fatalf("empty collection = %#v", got)
	}
}

func TestDecodeExtractMultipleInner(t *testing.T) {
	ctx := context.Background()
	s := dsl.Element("urn:test", "outer").
		Extract("entry", "urn:test", "entry",
			dsl.AttrOf("name", "name", codec.String{}),
			dsl.TextOf("value", codec.String{})).
		MustBuild()

	v, err := gostanza.FromBytes(ctx, s, []byte(
		`<outer xmlns="urn:test"><entry name="k">v</entry></outer>`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	entry := v.(map[string]any)["entry"].(map[string]any)
	want := map[string]any{"name": "k", "value": "v"}
	if !reflect.DeepEqual(entry, want) {
		t.Fatalf("entry = %#v, want %#v", entry, want)
	}
}

func TestDecodeExtractCollection(t *testing.T) {
	ctx := context.Background()
	s := dsl.Element("urn:test", "keys").
		Extract("names", "urn:test", "key", dsl.AttrOf("name", "name", codec.String{})).Each().
		MustBuild()

	v, err := gostanza.FromBytes(ctx, s, []byte(
		`<keys xmlns="urn:test"><key name="a"/><key name="b"/></keys>`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	names := v.(map[string]any)["names"].([]any)
	if !reflect.DeepEqual(names, []any{"a", "b"}) {
		t.Fatalf("names = %#v", names)
	}
}

func TestDecodeTransparentWrapper(t *testing.T) {
	ctx := context.Background()
	inner := dsl.Element("urn:test", "payload").
		Text("text", codec.String{}).
		MustBuild()
	s := dsl.Transparent("payload", inner).MustBuild()

	v, err := gostanza.FromBytes(ctx, s, []byte(`<payload xmlns="urn:test">x</payload>`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := map[string]any{"payload": map[string]any{"text": "x"}}
	if !reflect.DeepEqual(v, want) {
		t.Fatalf("decoded %#v, want %#v", v, want)
	}
}

func TestDecodeInterleavingTextRejected(t *testing.T) {
	ctx := context.Background()
	s := dsl.Element("urn:test", "item").MustBuild()

	_, err := gostanza.FromBytes(ctx, s, []byte(`<item xmlns="urn:test">stray</item>`))
	assertIssueCode(t, err, gostanza.CodeUnexpectedText)

	// whitespace between children stays invisible
	if _, err := gostanza.FromBytes(ctx, s, []byte("<item xmlns=\"urn:test\">\n  </item>")); err != nil {
		t.Fatalf("whitespace rejected: %v", err)
	}
}

func TestDecodeInvalidValueKeepsOffendingText(t *testing.T) {
	ctx := context.Background()
	s := dsl.Element("urn:test", "item").
		Attr("n", "n", codec.Int{}).
		MustBuild()

	_, err := gostanza.FromBytes(ctx, s, []byte(`<item xmlns="urn:test" n="abc"/>`))
	iss := assertIssueCode(t, err, gostanza.CodeInvalidValue)
	if iss[0].Hint != "abc" {
		t.Fatalf("hint = %q, want offending text", iss[0].Hint)
	}
}

func TestDecodeTruncated(t *testing.T) {
	ctx := context.Background()
	s := dsl.Element("urn:test", "item").MustBuild()

	_, err := gostanza.FromBytes(ctx, s, []byte(`<item xmlns="urn:test"><nested`))
	iss, ok := gostanza.AsIssues(err)
	if !ok {
		t.Fatalf("error = %v, want issues", err)
	}
	switch iss[0].Code {
	case gostanza.CodeTruncated, gostanza.CodeMalformedXML:
	default:
		t.Fatalf("code = %q", iss[0].Code)
	}
}

func TestDecodeMalformed(t *testing.T) {
	ctx := context.Background()
	s := dsl.Element("urn:test", "item").MustBuild()

	_, err := gostanza.FromBytes(ctx, s, []byte(`<item xmlns="urn:test"></wrong>`))
	assertIssueCode(t, err, gostanza.CodeMalformedXML)
}

func TestDecodeEnforcement(t *testing.T) {
	ctx := context.Background()
	s := dsl.Element("urn:test", "a").IgnoreUnknownChildren().MustBuild()

	deep := []byte(`<a xmlns="urn:test"><b><c><d/></c></b></a>`)
	_, err := gostanza.FromBytes(ctx, s, deep, gostanza.DecodeOpt{MaxDepth: 2})
	assertIssueCode(t, err, gostanza.CodeTooDeep)

	if _, err := gostanza.FromBytes(ctx, s, deep, gostanza.DecodeOpt{MaxDepth: 10}); err != nil {
		t.Fatalf("within depth limit: %v", err)
	}

	_, err = gostanza.FromBytes(ctx, s, deep, gostanza.DecodeOpt{MaxBytes: 8})
	assertIssueCode(t, err, gostanza.CodeTooBig)
}

func TestDecodeMismatchLeavesHeadUnread(t *testing.T) {
	ctx := context.Background()
	a := dsl.Element("urn:test", "a").MustBuild()
	b := dsl.Element("urn:test", "b").MustBuild()

	la := gostanza.NewLookahead(gostanza.XMLBytes([]byte(`<b xmlns="urn:test"/>`)))
	_, err := gostanza.Decode(ctx, a, la)
	if !gostanza.IsMismatch(err) {
		t.Fatalf("error = %v, want mismatch", err)
	}
	// the rejected head is still available to a sibling schema
	if _, err := gostanza.Decode(ctx, b, la); err != nil {
		t.Fatalf("sibling decode after mismatch: %v", err)
	}
}

func TestBuilderResumable(t *testing.T) {
	ctx := context.Background()
	s := dsl.Element("urn:test", "item").
		Attr("id", "id", codec.String{}).
		MustBuild()

	// feed events one at a time, as an async pump would
	evs := []gostanza.Event{
		gostanza.Open("urn:test", "item"),
		gostanza.Attr("", "id", "7"),
		gostanza.Close(),
	}
	b := gostanza.NewBuilder(ctx, s)
	var out any
	for i, ev := range evs {
		v, done, err := b.Feed(ev)
		if err != nil {
			t.Fatalf("feed %d: %v", i, err)
		}
		if done != (i == len(evs)-1) {
			t.Fatalf("done after event %d", i)
		}
		if done {
			out = v
		}
	}
	if !reflect.DeepEqual(out, map[string]any{"id": "7"}) {
		t.Fatalf("decoded %#v", out)
	}
}

func assertIssueCode(t *testing.T, err error, code string) gostanza.Issues {
	t.Helper()
	iss, ok := gostanza.AsIssues(err)
	if !ok {
		t.Fatalf("error = %v, want issues with code %q", err, code)
	}
	for _, is := range iss {
		if is.Code == code {
			return iss
		}
	}
	t.Fatalf("issues = %v, want code %q", iss, code)
	return nil
}
