// internal/send/encoder.go
package send

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// Terminator is the fixed byte suffix appended to every outbound payload.
type Terminator string

const (
	TerminatorNone Terminator = "none"
	TerminatorCR   Terminator = "cr"
	TerminatorLF   Terminator = "lf"
	TerminatorCRLF Terminator = "crlf"
	TerminatorNUL  Terminator = "nul"
)

// ParseTerminator maps the user-facing policy names.
func ParseTerminator(s string) (Terminator, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return TerminatorNone, nil
	case "cr":
		return TerminatorCR, nil
	case "lf":
		return TerminatorLF, nil
	case "crlf":
		return TerminatorCRLF, nil
	case "nul", "null":
		return TerminatorNUL, nil
	default:
		return TerminatorNone, fmt.Errorf("unknown terminator policy %q", s)
	}
}

// Bytes returns the raw suffix for the policy.
func (t Terminator) Bytes() []byte {
	switch t {
	case TerminatorCR:
		return []byte{'\r'}
	case TerminatorLF:
		return []byte{'\n'}
	case TerminatorCRLF:
		return []byte{'\r', '\n'}
	case TerminatorNUL:
		return []byte{0}
	default:
		return nil
	}
}

// Encoding names accepted by EncodeText.
const (
	EncodingUTF8   = "utf-8"
	EncodingLatin1 = "latin-1"
	EncodingCP1252 = "cp1252"
)

// EncodeText turns user-entered text into an outbound payload: backslash
// escapes are interpreted, the terminator appended, and the result
// encoded. Characters the target encoding cannot represent are
// substituted, never fatal.
func EncodeText(text string, term Terminator, encodingName string) ([]byte, error) {
	unescaped := interpretEscapes(text)
	unescaped += string(term.Bytes())

	switch strings.ToLower(encodingName) {
	case "", EncodingUTF8, "utf8":
		return []byte(unescaped), nil
	case EncodingLatin1, "iso-8859-1":
		return encodeCharmap(unescaped, charmap.ISO8859_1)
	case EncodingCP1252, "windows-1252":
		return encodeCharmap(unescaped, charmap.Windows1252)
	default:
		return nil, fmt.Errorf("unknown text encoding %q", encodingName)
	}
}

func encodeCharmap(s string, cm *charmap.Charmap) ([]byte, error) {
	enc := encoding.ReplaceUnsupported(cm.NewEncoder())
	out, err := enc.String(s)
	if err != nil {
		return nil, fmt.Errorf("text encoding failed: %w", err)
	}
	return []byte(out), nil
}

// interpretEscapes resolves conventional backslash escapes. Sequences it
// does not recognize pass through unchanged.
func interpretEscapes(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			b.WriteByte(c)
			continue
		}

		switch s[i+1] {
		case 'r':
			b.WriteByte('\r')
			i++
		case 'n':
			b.WriteByte('\n')
			i++
		case 't':
			b.WriteByte('\t')
			i++
		case '0':
			b.WriteByte(0)
			i++
		case '\\':
			b.WriteByte('\\')
			i++
		case 'x':
			if i+3 < len(s) {
				if v, ok := hexPair(s[i+2], s[i+3]); ok {
					b.WriteByte(v)
					i += 3
					continue
				}
			}
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func hexPair(hi, lo byte) (byte, bool) {
	h, ok1 := hexDigit(hi)
	l, ok2 := hexDigit(lo)
	if !ok1 || !ok2 {
		return 0, false
	}
	return h<<4 | l, true
}

func hexDigit(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	default:
		return 0, false
	}
}
