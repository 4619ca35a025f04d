// internal/render/document.go
package render

import "strings"

// Document is the mutable text the renderer writes into. Only the last
// line is ever edited: it carries a column cursor that insertions and
// overwrites move, the way a terminal caret would. Completed lines are
// immutable.
type Document struct {
	lines   []string
	current []rune
	col     int
}

// NewDocument creates an empty document with the cursor at column 0.
func NewDocument() *Document {
	return &Document{}
}

// Column returns the cursor column on the current line.
func (d *Document) Column() int {
	return d.col
}

// AtLineStart reports whether the cursor is at true column 0.
func (d *Document) AtLineStart() bool {
	return d.col == 0
}

// CurrentLine returns the text of the line being built.
func (d *Document) CurrentLine() string {
	return string(d.current)
}

// Insert splices s into the current line at the cursor, shifting any
// text to the right, and advances the cursor past it.
func (d *Document) Insert(s string) {
	runes := []rune(s)
	if d.col >= len(d.current) {
		d.current = append(d.current, runes...)
	} else {
		tail := append([]rune(nil), d.current[d.col:]...)
		d.current = append(d.current[:d.col], runes...)
		d.current = append(d.current, tail...)
	}
	d.col += len(runes)
}

// Overwrite replaces the single character at the cursor with s (which may
// render wider than one cell, e.g. an escape marker), or appends when the
// cursor sits at end of line. The cursor advances past the inserted text.
func (d *Document) Overwrite(s string) {
	if d.col < len(d.current) {
		d.current = append(d.current[:d.col], d.current[d.col+1:]...)
	}
	d.Insert(s)
}

// CarriageReturn moves the cursor to column 0 of the current line.
func (d *Document) CarriageReturn() {
	d.col = 0
}

// LineBreak completes the current line and starts an empty one.
func (d *Document) LineBreak() {
	d.lines = append(d.lines, string(d.current))
	d.current = nil
	d.col = 0
}

// LineBreakKeepColumn completes the current line and pre-pads the new one
// with spaces so the cursor stays at the same visual column.
func (d *Document) LineBreakKeepColumn() {
	keep := d.col
	d.LineBreak()
	if keep > 0 {
		d.current = []rune(strings.Repeat(" ", keep))
		d.col = keep
	}
}

// ReplaceCurrentLine rewrites the whole current line and leaves the
// cursor at its end.
func (d *Document) ReplaceCurrentLine(s string) {
	d.current = []rune(s)
	d.col = len(d.current)
}

// Lines returns every line including the one being built.
func (d *Document) Lines() []string {
	out := make([]string, 0, len(d.lines)+1)
	out = append(out, d.lines...)
	out = append(out, string(d.current))
	return out
}

// String renders the whole document.
func (d *Document) String() string {
	return strings.Join(d.Lines(), "\n")
}

// Clear discards all content and resets the cursor.
func (d *Document) Clear() {
	d.lines = nil
	d.current = nil
	d.col = 0
}
