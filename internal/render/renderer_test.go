package render

import (
	"strings"
	"testing"
	"time"
)

// fixedClock pins the renderer timestamp for deterministic output.
func fixedClock() time.Time {
	return time.Date(2024, 1, 2, 12, 34, 56, 789_000_000, time.UTC)
}

const fixedStamp = "[12:34:56.789] "

func newTestRenderer() *Renderer {
	r := NewRenderer()
	r.now = fixedClock
	return r
}

func TestParseMode(t *testing.T) {
	cases := []struct {
		in   string
		want Mode
		err  bool
	}{
		{"ascii", ModeASCII, false},
		{"HEX", ModeHex, false},
		{"ascii+hex", ModeCombined, false},
		{"combined", ModeCombined, false},
		{"binary", ModeASCII, true},
	}
	for _, c := range cases {
		got, err := ParseMode(c.in)
		if c.err {
			if err == nil {
				t.Errorf("ParseMode(%q): expected error", c.in)
			}
			continue
		}
		if err != nil || got != c.want {
			t.Errorf("ParseMode(%q) = %v, %v; want %v", c.in, got, err, c.want)
		}
	}
}

func TestASCII_PlainText(t *testing.T) {
	r := newTestRenderer()
	r.Write([]byte("Hello"))

	if got := r.Document().String(); got != "Hello" {
		t.Errorf("expected %q, got %q", "Hello", got)
	}
}

func TestASCII_NonPrintableEscaped(t *testing.T) {
	r := newTestRenderer()
	r.Write([]byte{0x01, 'A', 0xFF})

	if got := r.Document().String(); got != `\x01A\xFF` {
		t.Errorf("expected %q, got %q", `\x01A\xFF`, got)
	}
}

func TestASCII_TabIsLiteral(t *testing.T) {
	r := newTestRenderer()
	r.Write([]byte("A\tB"))

	if got := r.Document().String(); got != "A\tB" {
		t.Errorf("expected %q, got %q", "A\tB", got)
	}
}

func TestASCII_CRLFSingleBreak(t *testing.T) {
	r := newTestRenderer()
	r.Write([]byte("line1\r\nline2"))

	if got := r.Document().String(); got != "line1\nline2" {
		t.Errorf("expected %q, got %q", "line1\nline2", got)
	}
}

func TestASCII_LFCRSingleBreak(t *testing.T) {
	r := newTestRenderer()
	r.Write([]byte("line1\n\rline2"))

	if got := r.Document().String(); got != "line1\nline2" {
		t.Errorf("expected %q, got %q", "line1\nline2", got)
	}
}

func TestASCII_SplitCRLFAcrossChunks(t *testing.T) {
	r := newTestRenderer()
	r.Write([]byte("AB\r"))
	r.Write([]byte("\nCD"))

	if got := r.Document().String(); got != "AB\nCD" {
		t.Errorf("expected %q, got %q", "AB\nCD", got)
	}
}

func TestASCII_LoneCROverwrites(t *testing.T) {
	r := newTestRenderer()
	r.Write([]byte("ABCDE\rXY"))

	if got := r.Document().String(); got != "XYCDE" {
		t.Errorf("expected %q, got %q", "XYCDE", got)
	}
}

func TestASCII_OverwriteSurvivesChunkBoundary(t *testing.T) {
	r := newTestRenderer()
	r.Write([]byte("AB\r"))
	r.Write([]byte("CD\n"))

	lines := r.Document().Lines()
	if lines[0] != "CD" {
		t.Errorf("expected overwritten line %q, got %q", "CD", lines[0])
	}
}

func TestASCII_LoneLFKeepsColumn(t *testing.T) {
	r := newTestRenderer()
	r.Write([]byte("AB\nCD"))

	if got := r.Document().String(); got != "AB\n  CD" {
		t.Errorf("expected %q, got %q", "AB\n  CD", got)
	}
}

func TestASCII_LazyTimestamp(t *testing.T) {
	r := newTestRenderer()
	r.SetTimestamps(true)
	r.Write([]byte("Hi\r\nYo"))

	want := fixedStamp + "Hi\n" + fixedStamp + "Yo"
	if got := r.Document().String(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestASCII_NoStampOnEmptyLine(t *testing.T) {
	r := newTestRenderer()
	r.SetTimestamps(true)
	r.Write([]byte("\r\n\r\n"))

	// Line breaks alone never trigger a stamp.
	if got := r.Document().String(); got != "\n\n" {
		t.Errorf("expected %q, got %q", "\n\n", got)
	}
}

func TestASCII_LoneLFLineNotStamped(t *testing.T) {
	r := newTestRenderer()
	r.SetTimestamps(true)
	r.Write([]byte("AB\nCD"))

	// The continuation line is padded to the old column, so its first
	// printable lands past column 0 and takes no stamp.
	pad := strings.Repeat(" ", len(fixedStamp)+2)
	want := fixedStamp + "AB\n" + pad + "CD"
	if got := r.Document().String(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestASCII_StampOncePerLine(t *testing.T) {
	r := newTestRenderer()
	r.SetTimestamps(true)
	r.Write([]byte("A"))
	r.Write([]byte("B"))

	want := fixedStamp + "AB"
	if got := r.Document().String(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestHex_BasicTokens(t *testing.T) {
	r := newTestRenderer()
	r.SetMode(ModeHex)
	r.Write([]byte("Hi"))

	if got := r.Document().String(); got != "48 69" {
		t.Errorf("expected %q, got %q", "48 69", got)
	}
}

func TestHex_CRLFBreaksLine(t *testing.T) {
	r := newTestRenderer()
	r.SetMode(ModeHex)
	r.Write([]byte("Hi\r\nOK"))

	want := "48 69 0D 0A\n4F 4B"
	if got := r.Document().String(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestHex_LoneLFBreaksLine(t *testing.T) {
	r := newTestRenderer()
	r.SetMode(ModeHex)
	r.Write([]byte("A\nB"))

	want := "41 0A\n42"
	if got := r.Document().String(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestHex_ChunksJoinWithSpace(t *testing.T) {
	r := newTestRenderer()
	r.SetMode(ModeHex)
	r.Write([]byte{0x48})
	r.Write([]byte{0x69})

	if got := r.Document().String(); got != "48 69" {
		t.Errorf("expected %q, got %q", "48 69", got)
	}
}

func TestHex_TimestampAtLineStart(t *testing.T) {
	r := newTestRenderer()
	r.SetMode(ModeHex)
	r.SetTimestamps(true)
	r.Write([]byte("A\nB"))

	want := fixedStamp + "41 0A\n" + fixedStamp + "42"
	if got := r.Document().String(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestCombined_SingleRecord(t *testing.T) {
	r := newTestRenderer()
	r.SetMode(ModeCombined)
	r.Write([]byte("He\n"))

	want := "48 65 0A  |  He.\n"
	if got := r.Document().String(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestCombined_PartialLineReRendered(t *testing.T) {
	r := newTestRenderer()
	r.SetMode(ModeCombined)
	r.Write([]byte("Hi"))

	want := "48 69  |  Hi"
	if got := r.Document().String(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}

	r.Write([]byte("!"))
	want = "48 69 21  |  Hi!"
	if got := r.Document().String(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestCombined_ChunkingIndependence(t *testing.T) {
	data := []byte("Hi\r\nO\x01K\nend")

	whole := newTestRenderer()
	whole.SetMode(ModeCombined)
	whole.Write(data)

	bytewise := newTestRenderer()
	bytewise.SetMode(ModeCombined)
	for _, b := range data {
		bytewise.Write([]byte{b})
	}

	if whole.Document().String() != bytewise.Document().String() {
		t.Errorf("chunking changed output:\nwhole:    %q\nbytewise: %q",
			whole.Document().String(), bytewise.Document().String())
	}
}

func TestCombined_TimestampPrefixLocked(t *testing.T) {
	r := newTestRenderer()
	r.SetMode(ModeCombined)
	r.SetTimestamps(true)
	r.Write([]byte("A"))

	// Disabling timestamps mid-line does not rewrite the open record.
	r.SetTimestamps(false)
	r.Write([]byte("B"))

	want := fixedStamp + "41 42  |  AB"
	if got := r.Document().String(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestCombined_NonPrintableDot(t *testing.T) {
	r := newTestRenderer()
	r.SetMode(ModeCombined)
	r.Write([]byte{0x00, 'A'})

	want := "00 41  |  .A"
	if got := r.Document().String(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestSetMode_ResetsCarriedState(t *testing.T) {
	r := newTestRenderer()
	r.Write([]byte("AB\r"))

	r.SetMode(ModeHex)
	r.SetMode(ModeASCII)
	r.Write([]byte("X"))

	// Overwrite mode was discarded on the switch, so X splices in at
	// the cursor instead of replacing A.
	if got := r.Document().String(); got != "XAB" {
		t.Errorf("expected %q, got %q", "XAB", got)
	}
}

func TestReset_ClearsDocumentAndState(t *testing.T) {
	r := newTestRenderer()
	r.SetTimestamps(true)
	r.Write([]byte("AB\r"))
	r.Reset()

	if got := r.Document().String(); got != "" {
		t.Errorf("expected empty document, got %q", got)
	}

	r.Write([]byte("X"))
	want := fixedStamp + "X"
	if got := r.Document().String(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestWrite_EmptyChunkIsNoOp(t *testing.T) {
	r := newTestRenderer()
	r.SetTimestamps(true)
	r.Write(nil)

	if got := r.Document().String(); got != "" {
		t.Errorf("expected empty document, got %q", got)
	}
}
