package clf

const hexDigits = "0123456789ABCDEF"

// putHex writes the low bits of v as exactly len(dst) upper-case hex digits.
func putHex(dst []byte, v int) {
	for i := len(dst) - 1; i >= 0; i-- {
		dst[i] = hexDigits[v&0xF]
		v >>= 4
	}
}

// putDec writes v as exactly len(dst) zero padded decimal digits.
func putDec(dst []byte, v int64) {
	if v < 0 {
		v = -v
	}
	for i := len(dst) - 1; i >= 0; i-- {
		dst[i] = byte('0' + v%10)
		v /= 10
	}
}

func appendFixedDec(dst []byte, v int64, width int) []byte {
	n := len(dst)
	for i := 0; i < width; i++ {
		dst = append(dst, '0')
	}
	putDec(dst[n:], v)
	return dst
}

// appendTimestamp writes milliseconds as "SSSSSSSSSS.mmm".
func appendTimestamp(dst []byte, ms int64) []byte {
	if ms < 0 {
		ms = 0
	}
	dst = appendFixedDec(dst, ms/1000, 10)
	dst = append(dst, '.')
	return appendFixedDec(dst, ms%1000, 3)
}

func parseHex(b []byte) (int, bool) {
	if len(b) == 0 {
		return 0, false
	}
	v := 0
	for _, c := range b {
		switch {
		case c >= '0' && c <= '9':
			v = v<<4 | int(c-'0')
		case c >= 'A' && c <= 'F':
			v = v<<4 | int(c-'A'+10)
		case c >= 'a' && c <= 'f':
			v = v<<4 | int(c-'a'+10)
		default:
			return 0, false
		}
	}
	return v, true
}

func parseDec(b []byte) (int64, bool) {
	if len(b) == 0 {
		return 0, false
	}
	var v int64
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0, false
		}
		v = v*10 + int64(c-'0')
	}
	return v, true
}

// parseTimestamp reads the "SSSSSSSSSS.mmm" form back into milliseconds.
func parseTimestamp(b []byte) (int64, bool) {
	if len(b) != 14 || b[10] != '.' {
		return 0, false
	}
	sec, ok := parseDec(b[:10])
	if !ok {
		return 0, false
	}
	ms, ok := parseDec(b[11:])
	if !ok {
		return 0, false
	}
	return sec*1000 + ms, true
}
