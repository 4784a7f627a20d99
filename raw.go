package gostanza

// RawAttr is one attribute of a RawElement.
type RawAttr struct {
	Name  Name
	Value string
}

// RawNode is one content node of a RawElement: a nested element when Element
// is non-nil, a text run otherwise.
type RawNode struct {
	Element *RawElement
	Text    string
}

// RawElement is a schema-agnostic subtree capture. It is the contract by
// which forward-compatible unknown content is preserved end-to-end: a
// Passthrough field captures unclaimed children as RawElements and re-emits
// them unchanged on encode. Attribute order is preserved as delivered by the
// tokenizer.
type RawElement struct {
	Name  Name
	Attrs []RawAttr
	Nodes []RawNode
}

// Events appends the element's full event sequence to dst and returns it.
func (r *RawElement) Events(dst []Event) []Event {
	dst = append(dst, Event{Kind: EventElementOpen, Name: r.Name, Offset: -1})
	for _, a := range r.Attrs {
		dst = append(dst, Event{Kind: EventAttribute, Name: a.Name, Text: a.Value, Offset: -1})
	}
	for _, n := range r.Nodes {
		if n.Element != nil {
			dst = n.Element.Events(dst)
		} else {
			dst = append(dst, Event{Kind: EventText, Text: n.Text, Offset: -1})
		}
	}
	return append(dst, Event{Kind: EventElementClose, Offset: -1})
}

// Text concatenates the element's direct text runs.
func (r *RawElement) Text() string {
	var out string
	for _, n := range r.Nodes {
		if n.Element == nil {
			out += n.Text
		}
	}
	return out
}
