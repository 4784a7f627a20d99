// Package gostanza provides:
//
//   - A declarative, streaming mapping engine between XML elements and
//     in-memory values (Decode/Encode over one-event-at-a-time sources and
//     sinks)
//   - Compiled, immutable schemas (elements, tagged unions, transparent
//     wrappers) shared safely across concurrent operations
//   - A stable error model via Issues (element path, code, message) with a
//     recoverable Mismatch signal driving schema selection
//   - Forward-compatible capture of unknown content through RawElement
//     passthrough fields
//
// Design policy:
//   - Keep only public APIs in the root package; put event plumbing under
//     internal/.
//   - Place the schema-construction DSL under dsl/, text codecs under codec/,
//     tokenizer drivers under source/, and the CLI under cmd/gostanza.
//   - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//	s := dsl.Element("jabber:client", "message").
//		Attr("to", "to", codec.String{}).Required().
//		Children("body", bodySchema).
//		MustBuild()
//
//	v, err := gostanza.FromBytes(ctx, s, wire)
//	out, err := gostanza.ToBytes(ctx, s, v)
package gostanza
