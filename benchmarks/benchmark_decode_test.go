package benchmarks

import (
	"context"
	"testing"

	gostanza "github.com/reoring/gostanza"
	"github.com/reoring/gostanza/codec"
	"github.com/reoring/gostanza/dsl"
)

var benchSchema = dsl.Element("jabber:client", "message").
	Attr("from", "from", codec.String{}).
	Attr("to", "to", codec.String{}).Required().
	Extract("body", "jabber:client", "body", dsl.TextOf("text", codec.String{})).
	Passthrough("extras").
	MustBuild()

var benchDoc = []byte(`<message xmlns="jabber:client" from="a@x" to="b@y">` +
	`<body>benchmark payload</body>` +
	`<delay xmlns="urn:xmpp:delay" stamp="2002-09-10T23:08:25Z"/>` +
	`</message>`)

func BenchmarkDecodeMessage(b *testing.B) {
	ctx := context.Background()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := gostanza.FromBytes(ctx, benchSchema, benchDoc); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkEncodeMessage(b *testing.B) {
	ctx := context.Background()
	v, err := gostanza.FromBytes(ctx, benchSchema, benchDoc)
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := gostanza.ToBytes(ctx, benchSchema, v); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkBuilderFeed(b *testing.B) {
	ctx := context.Background()
	evs, err := gostanza.Events(ctx, benchSchema, map[string]any{
		"to":   "b@y",
		"body": "benchmark payload",
	})
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		bd := gostanza.NewBuilder(ctx, benchSchema)
		for _, ev := range evs {
			if _, _, err := bd.Feed(ev); err != nil {
				b.Fatal(err)
			}
		}
	}
}
