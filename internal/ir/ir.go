// Package ir defines the schema-document representation the gostanza CLI
// loads from YAML. This package is internal and not part of the public API.
package ir

import (
	"fmt"

	yaml "gopkg.in/yaml.v3"
)

// Document is one schema file: a set of named schemas plus the root to use.
type Document struct {
	Schemas map[string]*Node `yaml:"schemas"`
	Root    string           `yaml:"root"`
}

// Node is one schema declaration. Kind selects which of the remaining
// members are meaningful.
type Node struct {
	Kind string `yaml:"kind"` // element|transparent|nameSwitched|dynamic|any
	Ref  string `yaml:"ref"`  // reference to a named schema instead of an inline one

	// element
	Space           string  `yaml:"space"`
	Local           string  `yaml:"local"`
	Fields          []Field `yaml:"fields"`
	UnknownAttrs    string  `yaml:"unknownAttrs"`    // reject (default) | ignore
	UnknownChildren string  `yaml:"unknownChildren"` // reject (default) | ignore

	// transparent
	Key   string `yaml:"key"`
	Inner *Node  `yaml:"inner"`

	// enums
	Exhaustive bool      `yaml:"exhaustive"`
	Variants   []Variant `yaml:"variants"`
}

// Field is one field declaration of an element node.
type Field struct {
	Kind       string  `yaml:"kind"` // attr|text|child|extract|passthrough
	Key        string  `yaml:"key"`
	Space      string  `yaml:"space"`
	Local      string  `yaml:"local"`
	Codec      string  `yaml:"codec"`
	Schema     *Node   `yaml:"schema"`
	Collection bool    `yaml:"collection"`
	Required   bool    `yaml:"required"`
	Default    *string `yaml:"default"` // textual, decoded through the field codec
	Inner      []Field `yaml:"inner"`
}

// Variant is one case of an enum node.
type Variant struct {
	Case   string `yaml:"case"`
	Schema *Node  `yaml:"schema"`
}

// Load parses a YAML schema document.
func Load(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse schema document: %w", err)
	}
	if doc.Root == "" {
		return nil, fmt.Errorf("schema document has no root")
	}
	if _, ok := doc.Schemas[doc.Root]; !ok {
		return nil, fmt.Errorf("root %q is not a declared schema", doc.Root)
	}
	return &doc, nil
}
