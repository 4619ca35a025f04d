// internal/render/renderer.go
package render

import (
	"fmt"
	"strings"
	"time"
)

// Mode selects how received bytes are rendered.
type Mode int

const (
	// ModeASCII renders printable bytes literally with CR overwrite and
	// lazy per-line timestamps.
	ModeASCII Mode = iota
	// ModeHex renders bytes as two-digit hex tokens.
	ModeHex
	// ModeCombined renders one hex+ascii record per line.
	ModeCombined
)

// ParseMode maps the user-facing mode names.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "ascii":
		return ModeASCII, nil
	case "hex":
		return ModeHex, nil
	case "ascii+hex", "combined":
		return ModeCombined, nil
	default:
		return ModeASCII, fmt.Errorf("unknown view mode %q", s)
	}
}

func (m Mode) String() string {
	switch m {
	case ModeHex:
		return "hex"
	case ModeCombined:
		return "ascii+hex"
	default:
		return "ascii"
	}
}

// asciiState survives across chunks so a CR at the end of one delivery
// still overwrites at the start of the next.
type asciiState struct {
	overwrite bool // set by a lone CR, cleared by any line break
	hasStamp  bool // current line already carries a timestamp
	stampLen  int
}

// combinedState is the single-line builder for ascii+hex view.
type combinedState struct {
	open       bool
	hexTokens  []string
	asciiChars []string
	prefix     string // timestamp locked when the line is created
}

// Renderer converts an unbounded byte stream into the document, one
// chunk at a time. State persists between Write calls so line, overwrite
// and timestamp context continue correctly; only the state of the mode
// being left is discarded on a mode switch.
type Renderer struct {
	doc        *Document
	mode       Mode
	timestamps bool
	now        func() time.Time

	ascii    asciiState
	combined combinedState
}

// NewRenderer creates an ASCII-mode renderer without timestamps.
func NewRenderer() *Renderer {
	return &Renderer{
		doc: NewDocument(),
		now: time.Now,
	}
}

// Document exposes the rendered text.
func (r *Renderer) Document() *Document {
	return r.doc
}

// Mode returns the active view mode.
func (r *Renderer) Mode() Mode {
	return r.mode
}

// Timestamps reports whether per-line stamping is enabled.
func (r *Renderer) Timestamps() bool {
	return r.timestamps
}

// SetTimestamps toggles per-line stamping. Already-rendered text is never
// rewritten; a combined line keeps the prefix it was created with.
func (r *Renderer) SetTimestamps(on bool) {
	r.timestamps = on
}

// SetMode switches the view mode, discarding the state of the mode being
// left so nothing leaks across modes.
func (r *Renderer) SetMode(mode Mode) {
	if mode == r.mode {
		return
	}
	r.ascii = asciiState{}
	r.combined = combinedState{}
	r.mode = mode
}

// Reset clears the document and all per-mode state.
func (r *Renderer) Reset() {
	r.doc.Clear()
	r.ascii = asciiState{}
	r.combined = combinedState{}
}

// Write renders a chunk of received bytes. An empty chunk is a no-op.
func (r *Renderer) Write(data []byte) {
	if len(data) == 0 {
		return
	}
	switch r.mode {
	case ModeHex:
		r.writeHex(data)
	case ModeCombined:
		r.writeCombined(data)
	default:
		r.writeASCII(data)
	}
}

// timestamp returns the "[HH:MM:SS.mmm] " prefix, or "" when disabled.
func (r *Renderer) timestamp() string {
	if !r.timestamps {
		return ""
	}
	return r.now().Format("[15:04:05.000] ")
}

// displayByte renders one byte for ASCII mode: tab and printables
// literally, everything else as an escape marker.
func displayByte(b byte) string {
	switch {
	case b == 0x09:
		return "\t"
	case b >= 0x20 && b <= 0x7E:
		return string(rune(b))
	default:
		return fmt.Sprintf("\\x%02X", b)
	}
}

// stampIfLineStart inserts the timestamp lazily, right before the first
// visible character of a line. In overwrite mode the stamp lands at
// column 0 and pushes existing content right, so subsequent characters
// overwrite after the prefix.
func (r *Renderer) stampIfLineStart() {
	if r.ascii.hasStamp || !r.doc.AtLineStart() {
		return
	}
	ts := r.timestamp()
	if ts == "" {
		return
	}
	r.doc.Insert(ts)
	r.ascii.hasStamp = true
	r.ascii.stampLen = len(ts)
}

func (r *Renderer) writeASCII(data []byte) {
	i := 0
	for i < len(data) {
		b := data[i]

		if b == 0x0D {
			if i+1 < len(data) && data[i+1] == 0x0A {
				// CRLF: one break, next visible byte re-stamps.
				r.doc.LineBreak()
				r.ascii.overwrite = false
				r.ascii.hasStamp = false
				r.ascii.stampLen = 0
				i += 2
				continue
			}
			// Lone CR: back to column 0, overwrite until the next break.
			r.doc.CarriageReturn()
			r.ascii.overwrite = true
			i++
			continue
		}

		if b == 0x0A {
			if i+1 < len(data) && data[i+1] == 0x0D {
				// LFCR: same as CRLF, one break.
				r.doc.LineBreak()
				r.ascii.overwrite = false
				r.ascii.hasStamp = false
				r.ascii.stampLen = 0
				i += 2
				continue
			}
			// Lone LF: break but keep the column, no stamp on the new line.
			r.doc.LineBreakKeepColumn()
			r.ascii.overwrite = false
			r.ascii.hasStamp = false
			r.ascii.stampLen = 0
			i++
			continue
		}

		ch := displayByte(b)
		r.stampIfLineStart()

		if r.ascii.overwrite {
			r.doc.Overwrite(ch)
		} else {
			r.doc.Insert(ch)
		}
		i++
	}
}

// flushHexTokens writes a run of tokens onto the current line, stamping
// at column 0 and space-separating from earlier content.
func (r *Renderer) flushHexTokens(tokens []string) {
	if len(tokens) == 0 {
		return
	}
	if r.doc.AtLineStart() {
		if ts := r.timestamp(); ts != "" {
			r.doc.Insert(ts)
		}
	} else if line := r.doc.CurrentLine(); line != "" && !strings.HasSuffix(line, " ") {
		r.doc.Insert(" ")
	}
	r.doc.Insert(strings.Join(tokens, " "))
}

func (r *Renderer) writeHex(data []byte) {
	var tokens []string
	i := 0
	for i < len(data) {
		b := data[i]

		if b == 0x0D && i+1 < len(data) && data[i+1] == 0x0A {
			r.flushHexTokens(append(tokens, "0D", "0A"))
			tokens = tokens[:0]
			r.doc.LineBreak()
			i += 2
			continue
		}
		if b == 0x0A {
			r.flushHexTokens(append(tokens, "0A"))
			tokens = tokens[:0]
			r.doc.LineBreak()
			i++
			continue
		}

		tokens = append(tokens, fmt.Sprintf("%02X", b))
		i++
	}
	r.flushHexTokens(tokens)
}

// openCombinedLine claims a fresh physical line for the hex+ascii record
// and locks its timestamp prefix.
func (r *Renderer) openCombinedLine() {
	if r.combined.open {
		return
	}
	if r.doc.CurrentLine() != "" || !r.doc.AtLineStart() {
		r.doc.LineBreak()
	}
	r.combined.prefix = r.timestamp()
	if r.combined.prefix != "" {
		r.doc.Insert(r.combined.prefix)
	}
	r.combined.hexTokens = nil
	r.combined.asciiChars = nil
	r.combined.open = true
}

// renderCombinedLine rewrites the whole current line so the hex and
// ascii columns stay aligned.
func (r *Renderer) renderCombinedLine() {
	hexPart := strings.Join(r.combined.hexTokens, " ")
	asciiPart := strings.Join(r.combined.asciiChars, "")
	if r.combined.prefix == "" && hexPart == "" && asciiPart == "" {
		r.doc.ReplaceCurrentLine("")
		return
	}
	r.doc.ReplaceCurrentLine(r.combined.prefix + hexPart + "  |  " + asciiPart)
}

// closeCombinedLine finalizes the record and breaks the line, so the next
// byte starts a new record with a fresh timestamp.
func (r *Renderer) closeCombinedLine() {
	r.renderCombinedLine()
	r.doc.LineBreak()
	r.combined = combinedState{}
}

func (r *Renderer) writeCombined(data []byte) {
	i := 0
	for i < len(data) {
		b := data[i]
		r.openCombinedLine()

		if b == 0x0D && i+1 < len(data) && data[i+1] == 0x0A {
			r.combined.hexTokens = append(r.combined.hexTokens, "0D", "0A")
			r.combined.asciiChars = append(r.combined.asciiChars, ".", ".")
			r.closeCombinedLine()
			i += 2
			continue
		}
		if b == 0x0A {
			r.combined.hexTokens = append(r.combined.hexTokens, "0A")
			r.combined.asciiChars = append(r.combined.asciiChars, ".")
			r.closeCombinedLine()
			i++
			continue
		}

		r.combined.hexTokens = append(r.combined.hexTokens, fmt.Sprintf("%02X", b))
		if b >= 0x20 && b <= 0x7E {
			r.combined.asciiChars = append(r.combined.asciiChars, string(rune(b)))
		} else {
			r.combined.asciiChars = append(r.combined.asciiChars, ".")
		}
		r.renderCombinedLine()
		i++
	}
}
