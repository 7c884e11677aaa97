package clf

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
)

// header is the parsed record prefix.
type header struct {
	length    int
	timestamp int64
	pointers  [pointerCount]int
}

// Decoder reads a stream of concatenated records.
type Decoder struct {
	r        *bufio.Reader
	buf      []byte
	begin    int64
	end      int64
	filtered bool
	err      error
}

// NewDecoder returns a decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReaderSize(r, 64<<10)}
}

// SetRange restricts decoding to records whose timestamp lies in [begin, end]
// milliseconds. Records outside are skipped without decoding their body.
func (d *Decoder) SetRange(begin, end int64) {
	d.begin, d.end, d.filtered = begin, end, true
}

// Decode returns the next record. It returns io.EOF at the end of the stream.
//
// A trailing record shorter than its declared length is decoded best-effort
// from the bytes available, as long as its 76 byte prefix is complete; a
// shorter fragment is discarded. ErrFormat is returned when a prefix is
// invalid and is sticky: no further records are read from the stream.
func (d *Decoder) Decode() (*Record, error) {
	for {
		if d.err != nil {
			return nil, d.err
		}
		d.buf = grow(d.buf, prefixSize)
		if _, err := io.ReadFull(d.r, d.buf[:prefixSize]); err != nil {
			if errors.Is(err, io.ErrUnexpectedEOF) {
				err = io.EOF
			}
			d.err = err
			return nil, err
		}
		h, err := parseHeader(d.buf[:prefixSize])
		if err != nil {
			d.err = err
			return nil, err
		}

		if d.filtered && (h.timestamp < d.begin || h.timestamp > d.end) {
			if _, err := d.r.Discard(h.length - prefixSize); err != nil {
				d.err = eof(err)
				return nil, d.err
			}
			continue
		}

		d.buf = grow(d.buf, h.length)
		n, err := io.ReadFull(d.r, d.buf[prefixSize:h.length])
		if err != nil {
			d.err = eof(err)
			if d.err != io.EOF {
				return nil, d.err
			}
			return decodeRecord(h, d.buf[:prefixSize+n], true), nil
		}
		return decodeRecord(h, d.buf[:h.length], false), nil
	}
}

// Unmarshal decodes a single encoded record.
func Unmarshal(data []byte) (*Record, error) {
	if len(data) < prefixSize {
		return nil, fmt.Errorf("%w: short record (%d bytes)", ErrFormat, len(data))
	}
	h, err := parseHeader(data[:prefixSize])
	if err != nil {
		return nil, err
	}
	if len(data) < h.length {
		return decodeRecord(h, data, true), nil
	}
	return decodeRecord(h, data[:h.length], false), nil
}

// Length returns the total record length declared by the prefix of data.
func Length(data []byte) (int, error) {
	if len(data) < prefixSize {
		return 0, fmt.Errorf("%w: short record (%d bytes)", ErrFormat, len(data))
	}
	h, err := parseHeader(data[:prefixSize])
	if err != nil {
		return 0, err
	}
	return h.length, nil
}

func eof(err error) error {
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return io.EOF
	}
	return err
}

func grow(b []byte, n int) []byte {
	if cap(b) < n {
		nb := make([]byte, n)
		copy(nb, b)
		return nb
	}
	return b[:n]
}

func parseHeader(p []byte) (header, error) {
	var h header
	if p[0] != VersionMarker {
		return h, fmt.Errorf("%w: version marker %q", ErrFormat, p[0])
	}
	if p[pointerOffset-1] != ',' || p[stampOffset-1] != '\n' || p[prefixSize-1] != '\t' {
		return h, fmt.Errorf("%w: malformed prefix", ErrFormat)
	}
	length, ok := parseHex(p[lengthOffset : lengthOffset+lengthDigits])
	if !ok || length < firstFieldAt {
		return h, fmt.Errorf("%w: record length", ErrFormat)
	}
	h.length = length

	prev := firstFieldAt + 1
	for i := 0; i < pointerCount; i++ {
		at := pointerOffset + i*pointerDigits
		v, ok := parseHex(p[at : at+pointerDigits])
		if !ok || v < prev || v > length {
			return h, fmt.Errorf("%w: pointer %d", ErrFormat, i)
		}
		if i == ptrCSeq && v != firstFieldAt+1 {
			return h, fmt.Errorf("%w: pointer %d", ErrFormat, i)
		}
		h.pointers[i] = v
		prev = v
	}

	ts, ok := parseTimestamp(p[stampOffset : prefixSize-1])
	if !ok {
		return h, fmt.Errorf("%w: timestamp", ErrFormat)
	}
	h.timestamp = ts
	return h, nil
}

// decodeRecord decodes the body of a record whose prefix is h. When truncated
// is set, data may end anywhere after the prefix.
func decodeRecord(h header, data []byte, truncated bool) *Record {
	r := &Record{Timestamp: h.timestamp}
	if len(data) >= flagsOffset+5 {
		f := data[flagsOffset : flagsOffset+5]
		r.Type, r.Retransmission, r.Direction, r.Transport, r.Encryption =
			unflag(f[0]), unflag(f[1]), unflag(f[2]), unflag(f[3]), unflag(f[4])
	}

	var fields [ptrOptional][]byte
	for i := range fields {
		start := h.pointers[i] - 1
		end := h.pointers[i+1] - 1
		if i < ptrClientTxn {
			end-- // separating tab
		}
		if start >= len(data) {
			break
		}
		if end > len(data) {
			end = len(data)
		}
		if end < start {
			end = start
		}
		fields[i] = data[start:end]
	}

	if f := fields[ptrCSeq]; len(f) > 0 && string(f) != "-" && string(f) != "?" {
		num, method, _ := bytes.Cut(f, []byte{' '})
		r.CSeqNumber, _ = parseDec(num)
		r.CSeqMethod = decodeMandatory(method)
	}
	if f := fields[ptrStatus]; len(f) > 0 {
		if v, ok := parseDec(f); ok {
			r.Status = int(v)
		}
	}
	r.RURI = decodeMandatory(fields[ptrRURI])
	r.Destination = decodeMandatory(fields[ptrDestination])
	r.Source = decodeMandatory(fields[ptrSource])
	r.To = decodeMandatory(fields[ptrTo])
	r.ToTag = decodeMandatory(fields[ptrToTag])
	r.From = decodeMandatory(fields[ptrFrom])
	r.FromTag = decodeMandatory(fields[ptrFromTag])
	r.CallID = decodeMandatory(fields[ptrCallID])
	r.ServerTxn = decodeMandatory(fields[ptrServerTxn])
	r.ClientTxn = decodeMandatory(fields[ptrClientTxn])

	limit := len(data)
	if !truncated && limit > 0 && data[limit-1] == '\n' {
		limit--
	}
	r.Optional = decodeOptional(data, h.pointers[ptrOptional]-1, limit)
	return r
}

// decodeOptional walks the optional fields in data[pos:limit]. A field with a
// bad header ends the walk; a field with an undecodable value is skipped.
func decodeOptional(data []byte, pos, limit int) []OptionalField {
	var out []OptionalField
	for pos < limit && data[pos] == '\t' {
		pos++
		if pos+optionalHeader > limit {
			break
		}
		p := data[pos : pos+optionalHeader]
		if p[2] != '@' || p[11] != ',' || p[16] != ',' || p[19] != ',' {
			break
		}
		tag, ok1 := parseDec(p[0:2])
		vendor, ok2 := parseDec(p[3:11])
		size, ok3 := parseHex(p[12:16])
		if !ok1 || !ok2 || !ok3 {
			break
		}
		start := pos + optionalHeader
		end := start + size
		if end > limit {
			break
		}
		pos = end

		var binary bool
		switch string(p[17:19]) {
		case "00":
		case "01":
			binary = true
		default:
			continue
		}
		if f, ok := decodeField(int(tag), int(vendor), binary, data[start:end]); ok {
			out = append(out, f)
		}
	}
	return out
}

func decodeField(tag, vendor int, binary bool, b []byte) (OptionalField, bool) {
	if vendor == VendorDefault {
		switch tag {
		case TagHeader:
			name, rest, ok := bytes.Cut(b, []byte{':'})
			if !ok {
				return OptionalField{}, false
			}
			rest = bytes.TrimPrefix(rest, []byte{' '})
			v, ok := decodeValue(binary, rest)
			return OptionalField{Kind: KindHeader, Tag: TagHeader, Name: string(name), Value: v}, ok
		case TagBody:
			ct, rest, ok := bytes.Cut(b, []byte{' '})
			if !ok {
				return OptionalField{}, false
			}
			v, ok := decodeValue(binary, rest)
			return OptionalField{Kind: KindBody, Tag: TagBody, Name: string(ct), Value: v}, ok
		case TagEntire:
			v, ok := decodeValue(binary, b)
			return OptionalField{Kind: KindEntire, Tag: TagEntire, Value: v}, ok
		}
	}
	v, ok := decodeValue(binary, b)
	return OptionalField{Kind: KindOther, Tag: tag, Vendor: vendor, Value: v}, ok
}

func unflag(b byte) byte {
	if b == '-' {
		return 0
	}
	return b
}
