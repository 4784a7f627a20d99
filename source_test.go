package gostanza_test

import (
	"io"
	"testing"

	gostanza "github.com/reoring/gostanza"
)

func TestLookaheadPeekDoesNotConsume(t *testing.T) {
	evs := []gostanza.Event{
		gostanza.Open("urn:test", "a"),
		gostanza.Close(),
	}
	la := gostanza.NewLookahead(gostanza.EventsSource(evs))

	p, err := la.Peek()
	if err != nil {
		t.Fatalf("peek: %v", err)
	}
	n, err := la.NextEvent()
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if p != n {
		t.Fatalf("peek %v != next %v", p, n)
	}
}

func TestLookaheadUnread(t *testing.T) {
	evs := []gostanza.Event{gostanza.Open("urn:test", "a"), gostanza.Close()}
	la := gostanza.NewLookahead(gostanza.EventsSource(evs))

	first, _ := la.NextEvent()
	la.Unread(first)
	again, err := la.NextEvent()
	if err != nil {
		t.Fatalf("next after unread: %v", err)
	}
	if again != first {
		t.Fatalf("unread event lost: %v vs %v", again, first)
	}
}

func TestLookaheadIdempotentWrap(t *testing.T) {
	la := gostanza.NewLookahead(gostanza.EventsSource(nil))
	if gostanza.NewLookahead(la) != la {
		t.Fatalf("wrapping a lookahead allocated a new one")
	}
}

func TestEventsSourceEOF(t *testing.T) {
	src := gostanza.EventsSource([]gostanza.Event{gostanza.Close()})
	if _, err := src.NextEvent(); err != nil {
		t.Fatalf("first event: %v", err)
	}
	if _, err := src.NextEvent(); err != io.EOF {
		t.Fatalf("error = %v, want io.EOF", err)
	}
}

func TestIsXMLWhitespace(t *testing.T) {
	cases := map[string]bool{
		"":        true,
		" \t\r\n": true,
		" x ":     false,
		"\u00a0": false, // only the four XML whitespace bytes count
	}
	for in, want := range cases {
		if got := gostanza.IsXMLWhitespace(in); got != want {
			t.Errorf("IsXMLWhitespace(%q) = %v, want %v", in, got, want)
		}
	}
}
