// internal/send/hex.go
package send

import (
	"fmt"
	"strings"
)

// ParseHex parses free-form hex input into bytes. Tokens may be separated
// by spaces, commas, semicolons, newlines or underscores and may carry a
// 0x prefix. A single digit is that digit's low nibble ("A" is 0x0A);
// longer tokens of even length split into successive byte pairs; an
// odd-length run or a non-hex character is an input error and nothing is
// produced.
func ParseHex(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	tokens := strings.FieldsFunc(s, func(r rune) bool {
		switch r {
		case ' ', '\t', '\r', '\n', ',', ';':
			return true
		}
		return false
	})

	var out []byte
	for _, tok := range tokens {
		t := strings.ToLower(tok)
		t = strings.ReplaceAll(t, "0x", "")
		t = strings.ReplaceAll(t, "_", "")
		if t == "" {
			continue
		}

		for i := 0; i < len(t); i++ {
			if _, ok := hexDigit(t[i]); !ok {
				return nil, fmt.Errorf("invalid hex token %q", tok)
			}
		}

		switch {
		case len(t) == 1:
			v, _ := hexDigit(t[0])
			out = append(out, v)
		case len(t) == 2:
			v, _ := hexPair(t[0], t[1])
			out = append(out, v)
		default:
			if len(t)%2 != 0 {
				return nil, fmt.Errorf("odd number of hex digits in token %q", tok)
			}
			for i := 0; i < len(t); i += 2 {
				v, _ := hexPair(t[i], t[i+1])
				out = append(out, v)
			}
		}
	}
	return out, nil
}

// EncodeHex parses hex input and appends the terminator as raw bytes.
func EncodeHex(input string, term Terminator) ([]byte, error) {
	payload, err := ParseHex(input)
	if err != nil {
		return nil, err
	}
	return append(payload, term.Bytes()...), nil
}
