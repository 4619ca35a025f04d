package render

import "testing"

func TestDocument_InsertAndString(t *testing.T) {
	d := NewDocument()
	d.Insert("Hello")

	if got := d.String(); got != "Hello" {
		t.Errorf("expected %q, got %q", "Hello", got)
	}
	if d.Column() != 5 {
		t.Errorf("expected column 5, got %d", d.Column())
	}
}

func TestDocument_CarriageReturnAndOverwrite(t *testing.T) {
	d := NewDocument()
	d.Insert("ABCDE")
	d.CarriageReturn()

	if !d.AtLineStart() {
		t.Error("expected cursor at line start after carriage return")
	}

	d.Overwrite("X")
	d.Overwrite("Y")

	if got := d.CurrentLine(); got != "XYCDE" {
		t.Errorf("expected %q, got %q", "XYCDE", got)
	}
}

func TestDocument_OverwriteAtEndAppends(t *testing.T) {
	d := NewDocument()
	d.Insert("AB")
	d.Overwrite("C")

	if got := d.CurrentLine(); got != "ABC" {
		t.Errorf("expected %q, got %q", "ABC", got)
	}
}

func TestDocument_OverwriteWideMarker(t *testing.T) {
	d := NewDocument()
	d.Insert("AB")
	d.CarriageReturn()
	d.Overwrite(`\x01`)

	// The marker replaces one character and shifts the rest right.
	if got := d.CurrentLine(); got != `\x01B` {
		t.Errorf("expected %q, got %q", `\x01B`, got)
	}
}

func TestDocument_LineBreak(t *testing.T) {
	d := NewDocument()
	d.Insert("one")
	d.LineBreak()
	d.Insert("two")

	if got := d.String(); got != "one\ntwo" {
		t.Errorf("expected %q, got %q", "one\ntwo", got)
	}
	if lines := d.Lines(); len(lines) != 2 {
		t.Errorf("expected 2 lines, got %d", len(lines))
	}
}

func TestDocument_LineBreakKeepColumn(t *testing.T) {
	d := NewDocument()
	d.Insert("AB")
	d.LineBreakKeepColumn()
	d.Insert("CD")

	if got := d.String(); got != "AB\n  CD" {
		t.Errorf("expected %q, got %q", "AB\n  CD", got)
	}
	if d.Column() != 4 {
		t.Errorf("expected column 4, got %d", d.Column())
	}
}

func TestDocument_LineBreakKeepColumnAtStart(t *testing.T) {
	d := NewDocument()
	d.Insert("AB")
	d.CarriageReturn()
	d.LineBreakKeepColumn()

	// Keeping column 0 is a plain break with no padding.
	if got := d.String(); got != "AB\n" {
		t.Errorf("expected %q, got %q", "AB\n", got)
	}
}

func TestDocument_ReplaceCurrentLine(t *testing.T) {
	d := NewDocument()
	d.Insert("old text")
	d.ReplaceCurrentLine("new")

	if got := d.CurrentLine(); got != "new" {
		t.Errorf("expected %q, got %q", "new", got)
	}
	if d.Column() != 3 {
		t.Errorf("expected column 3, got %d", d.Column())
	}
}

func TestDocument_Clear(t *testing.T) {
	d := NewDocument()
	d.Insert("one")
	d.LineBreak()
	d.Insert("two")
	d.Clear()

	if got := d.String(); got != "" {
		t.Errorf("expected empty document, got %q", got)
	}
	if !d.AtLineStart() {
		t.Error("expected cursor at line start after clear")
	}
}
