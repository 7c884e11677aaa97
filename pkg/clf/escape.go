package clf

import (
	"encoding/base64"
	"unicode/utf8"
)

// Field size limits applied before encoding.
const (
	// MaxFieldSize is the maximum number of UTF-8 bytes kept from a text value.
	MaxFieldSize = 4096
	// MaxBinarySize is the maximum number of bytes kept from a binary payload.
	MaxBinarySize = 4096
)

const base64LineWidth = 76

var (
	lineBreak   = []byte("%0D%0A")
	escapedDash = []byte("%2D")
	escapedQM   = []byte("%3F")
)

// truncate cuts s to at most max bytes without splitting a rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}

// appendMandatory writes a mandatory field value: tabs become spaces and CR/LF
// are dropped. An empty result is written as '-', and a result that would be
// read back as a marker is percent-escaped.
func appendMandatory(dst []byte, s string) []byte {
	s = truncate(s, MaxFieldSize)
	start := len(dst)
	for _, r := range s {
		switch r {
		case '\t':
			dst = append(dst, ' ')
		case '\r', '\n':
		default:
			dst = utf8.AppendRune(dst, r)
		}
	}
	switch len(dst) - start {
	case 0:
		return append(dst, '-')
	case 1:
		switch dst[start] {
		case '-':
			return append(dst[:start], escapedDash...)
		case '?':
			return append(dst[:start], escapedQM...)
		}
	}
	return dst
}

// appendToken writes a header name or content type as ASCII, truncated to
// MaxFieldSize bytes.
func appendToken(dst []byte, s string) []byte {
	for _, r := range truncate(s, MaxFieldSize) {
		switch {
		case r == '\t':
			dst = append(dst, ' ')
		case r == '\r' || r == '\n':
		case r >= utf8.RuneSelf:
			dst = append(dst, '?')
		default:
			dst = append(dst, byte(r))
		}
	}
	return dst
}

// appendText writes an optional text value keeping line breaks as %0D and %0A.
func appendText(dst []byte, s string) []byte {
	s = truncate(s, MaxFieldSize)
	for _, r := range s {
		switch r {
		case '\t':
			dst = append(dst, ' ')
		case '\r':
			dst = append(dst, '%', '0', 'D')
		case '\n':
			dst = append(dst, '%', '0', 'A')
		default:
			dst = utf8.AppendRune(dst, r)
		}
	}
	return dst
}

// appendBase64 writes data as standard Base64 split into 76 character lines,
// each followed by the literal %0D%0A.
func appendBase64(dst []byte, data []byte) []byte {
	if len(data) > MaxBinarySize {
		data = data[:MaxBinarySize]
	}
	enc := make([]byte, base64.StdEncoding.EncodedLen(len(data)))
	base64.StdEncoding.Encode(enc, data)
	for len(enc) > base64LineWidth {
		dst = append(dst, enc[:base64LineWidth]...)
		dst = append(dst, lineBreak...)
		enc = enc[base64LineWidth:]
	}
	dst = append(dst, enc...)
	return append(dst, lineBreak...)
}

func appendValue(dst []byte, v Value) []byte {
	if v.binary {
		return appendBase64(dst, v.data)
	}
	return appendText(dst, v.text)
}

// decodeMandatory reverses appendMandatory. Both '-' and '?' read as "".
func decodeMandatory(b []byte) string {
	switch string(b) {
	case "-", "?":
		return ""
	case "%2D":
		return "-"
	case "%3F":
		return "?"
	}
	return string(b)
}

// decodeText restores CR and LF from their %0D and %0A escapes.
func decodeText(b []byte) string {
	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); i++ {
		if b[i] == '%' && i+2 < len(b) && b[i+1] == '0' {
			switch b[i+2] {
			case 'D', 'd':
				out = append(out, '\r')
				i += 2
				continue
			case 'A', 'a':
				out = append(out, '\n')
				i += 2
				continue
			}
		}
		out = append(out, b[i])
	}
	return string(out)
}

// decodeBase64 strips %XX escapes and raw line breaks, then decodes.
func decodeBase64(b []byte) ([]byte, error) {
	clean := make([]byte, 0, len(b))
	for i := 0; i < len(b); i++ {
		switch b[i] {
		case '%':
			i += 2
		case '\r', '\n':
		default:
			clean = append(clean, b[i])
		}
	}
	out := make([]byte, base64.StdEncoding.DecodedLen(len(clean)))
	n, err := base64.StdEncoding.Decode(out, clean)
	if err != nil {
		return nil, err
	}
	return out[:n], nil
}

func decodeValue(binary bool, b []byte) (Value, bool) {
	if !binary {
		return Text(decodeText(b)), true
	}
	data, err := decodeBase64(b)
	if err != nil {
		return Value{}, false
	}
	return Binary(data), true
}
