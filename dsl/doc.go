// Package dsl provides the fluent construction surface for gostanza schemas.
//
// Schemas are declared with chained builders and compiled once with Build or
// MustBuild; the compiled schema is immutable and shared freely afterwards.
//
//	presence := dsl.Element("jabber:client", "presence").
//		Attr("kind", "type", codec.String{}).
//		Children("status", statusSchema).
//		Passthrough("extras").
//		MustBuild()
//
// Bind[T] layers a typed struct view over the map-based decoded value.
package dsl
