package gostanza_test

import (
	"errors"
	"strings"
	"testing"

	gostanza "github.com/reoring/gostanza"
)

func TestIssuesErrorCapsAtThree(t *testing.T) {
	iss := gostanza.Issues{
		{Path: "/a", Code: gostanza.CodeRequired, Message: "m1"},
		{Path: "/b", Code: gostanza.CodeRequired, Message: "m2"},
		{Path: "/c", Code: gostanza.CodeRequired, Message: "m3"},
		{Path: "/d", Code: gostanza.CodeRequired, Message: "m4"},
	}
	msg := iss.Error()
	if !strings.Contains(msg, "m1") || !strings.Contains(msg, "m3") {
		t.Fatalf("message lost leading issues: %q", msg)
	}
	if strings.Contains(msg, "m4") {
		t.Fatalf("message not capped: %q", msg)
	}
}

func TestAsIssues(t *testing.T) {
	var err error = gostanza.Issues{{Path: "/", Code: gostanza.CodeMismatch}}
	if _, ok := gostanza.AsIssues(err); !ok {
		t.Fatalf("AsIssues missed a direct Issues value")
	}
	if _, ok := gostanza.AsIssues(errors.New("plain")); ok {
		t.Fatalf("AsIssues matched a plain error")
	}
}

func TestMismatchHelpers(t *testing.T) {
	m := &gostanza.Mismatch{Name: gostanza.Name{Space: "urn:x", Local: "a"}}
	if !gostanza.IsMismatch(m) {
		t.Fatalf("IsMismatch missed a mismatch")
	}
	got, ok := gostanza.AsMismatch(m)
	if !ok || got.Name.Local != "a" {
		t.Fatalf("AsMismatch = %v, %v", got, ok)
	}
	if gostanza.IsMismatch(errors.New("plain")) {
		t.Fatalf("IsMismatch matched a plain error")
	}
}

func TestAppendIssues(t *testing.T) {
	a := gostanza.Issues{{Path: "/a", Code: gostanza.CodeRequired}}
	b := gostanza.Issues{{Path: "/b", Code: gostanza.CodeRequired}}
	out := gostanza.AppendIssues(a, b...)
	if len(out) != 2 {
		t.Fatalf("appended %d issues, want 2", len(out))
	}
}
