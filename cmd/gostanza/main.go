package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	json "github.com/goccy/go-json"

	gostanza "github.com/reoring/gostanza"
	conv "github.com/reoring/gostanza/dsl/irconv"
	isir "github.com/reoring/gostanza/internal/ir"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	sub := os.Args[1]
	switch sub {
	case "decode":
		decodeCmd(os.Args[2:])
	case "encode":
		encodeCmd(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "gostanza CLI\n\nUsage:\n  gostanza decode -schema schema.yaml [-in doc.xml] [-o out.json]\n  gostanza encode -schema schema.yaml [-in doc.json] [-o out.xml]\n\nNotes:\n  - decode reads XML and prints the decoded value as JSON.\n  - encode reads a JSON value and prints it as XML.\n  - enum values appear as {\"case\": ..., \"value\": ...}; raw captures as {\"rawXml\": ...}.")
}

func decodeCmd(args []string) {
	fs := flag.NewFlagSet("decode", flag.ExitOnError)
	var schemaPath, in, out string
	var maxDepth int
	var maxBytes int64
	fs.StringVar(&schemaPath, "schema", "", "schema document (YAML)")
	fs.StringVar(&in, "in", "", "input XML file (default stdin)")
	fs.StringVar(&out, "o", "", "output file (default stdout)")
	fs.IntVar(&maxDepth, "max-depth", 0, "reject documents nested deeper than this")
	fs.Int64Var(&maxBytes, "max-bytes", 0, "reject documents larger than this many bytes")
	_ = fs.Parse(args)
	if schemaPath == "" {
		fs.Usage()
		os.Exit(2)
	}
	s := loadSchema(schemaPath)
	data := readInput(in)

	opt := gostanza.DecodeOpt{MaxDepth: maxDepth, MaxBytes: maxBytes}
	v, err := gostanza.FromBytes(context.Background(), s, data, opt)
	if err != nil {
		fatalf("decode: %v", err)
	}
	enc, err := json.MarshalIndent(jsonify(v), "", "  ")
	if err != nil {
		fatalf("render: %v", err)
	}
	writeOutput(out, append(enc, '\n'))
}

func encodeCmd(args []string) {
	fs := flag.NewFlagSet("encode", flag.ExitOnError)
	var schemaPath, in, out string
	fs.StringVar(&schemaPath, "schema", "", "schema document (YAML)")
	fs.StringVar(&in, "in", "", "input JSON file (default stdin)")
	fs.StringVar(&out, "o", "", "output file (default stdout)")
	_ = fs.Parse(args)
	if schemaPath == "" {
		fs.Usage()
		os.Exit(2)
	}
	s := loadSchema(schemaPath)
	data := readInput(in)

	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		fatalf("parse input: %v", err)
	}
	v, err := unjsonify(v)
	if err != nil {
		fatalf("parse input: %v", err)
	}
	xmlOut, err := gostanza.ToBytes(context.Background(), s, v)
	if err != nil {
		fatalf("encode: %v", err)
	}
	writeOutput(out, append(xmlOut, '\n'))
}

func loadSchema(path string) gostanza.Schema {
	data, err := os.ReadFile(path)
	if err != nil {
		fatalf("reading schema: %v", err)
	}
	doc, err := isir.Load(data)
	if err != nil {
		fatalf("loading schema: %v", err)
	}
	s, err := conv.Convert(doc)
	if err != nil {
		fatalf("compiling schema: %v", err)
	}
	return s
}

func readInput(path string) []byte {
	if path == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			fatalf("reading stdin: %v", err)
		}
		return data
	}
	data, err := os.ReadFile(path)
	if err != nil {
		fatalf("reading input: %v", err)
	}
	return data
}

func writeOutput(path string, data []byte) {
	if path == "" {
		if _, err := os.Stdout.Write(data); err != nil {
			fatalf("writing stdout: %v", err)
		}
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		fatalf("writing output: %v", err)
	}
}

// jsonify converts decoded values into plain JSON shapes: Variant becomes
// {"case","value"}, RawElement becomes {"rawXml": "<...>"}.
func jsonify(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = jsonify(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = jsonify(e)
		}
		return out
	case gostanza.Variant:
		return map[string]any{"case": t.Case, "value": jsonify(t.Value)}
	case gostanza.RawElement:
		return rawToJSON(t)
	case []gostanza.RawElement:
		out := make([]any, len(t))
		for i, r := range t {
			out[i] = rawToJSON(r)
		}
		return out
	}
	return v
}

func rawToJSON(r gostanza.RawElement) any {
	data, err := gostanza.ToBytes(context.Background(), gostanza.AnyElement, r)
	if err != nil {
		fatalf("render raw subtree: %v", err)
	}
	return map[string]any{"rawXml": string(data)}
}

// unjsonify reverses jsonify so encode accepts decode's output unchanged.
func unjsonify(v any) (any, error) {
	switch t := v.(type) {
	case map[string]any:
		if raw, ok := t["rawXml"]; ok && len(t) == 1 {
			s, ok := raw.(string)
			if !ok {
				return nil, fmt.Errorf("rawXml must be a string")
			}
			r, err := gostanza.FromBytes(context.Background(), gostanza.AnyElement, []byte(s))
			if err != nil {
				return nil, fmt.Errorf("parse rawXml: %w", err)
			}
			return r, nil
		}
		if len(t) == 2 {
			if c, ok := t["case"].(string); ok {
				if inner, ok := t["value"]; ok {
					uv, err := unjsonify(inner)
					if err != nil {
						return nil, err
					}
					return gostanza.Variant{Case: c, Value: uv}, nil
				}
			}
		}
		out := make(map[string]any, len(t))
		for k, e := range t {
			ue, err := unjsonify(e)
			if err != nil {
				return nil, err
			}
			out[k] = ue
		}
		return out, nil
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			ue, err := unjsonify(e)
			if err != nil {
				return nil, err
			}
			out[i] = ue
		}
		return out, nil
	}
	return v, nil
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
