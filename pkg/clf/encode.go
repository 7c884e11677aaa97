package clf

import (
	"strconv"
	"sync"
)

// Fixed layout of the record prefix.
const (
	prefixSize     = 76
	lengthOffset   = 1
	lengthDigits   = 6
	pointerOffset  = 8
	pointerDigits  = 4
	pointerCount   = 13
	stampOffset    = 61
	flagsOffset    = 76
	firstFieldAt   = 82
	optionalHeader = 20 // "TT@VVVVVVVV,LLLL,BB,"
)

// VersionMarker is the first byte of every record.
const VersionMarker = 'A'

const (
	ptrCSeq = iota
	ptrStatus
	ptrRURI
	ptrDestination
	ptrSource
	ptrTo
	ptrToTag
	ptrFrom
	ptrFromTag
	ptrCallID
	ptrServerTxn
	ptrClientTxn
	ptrOptional
)

// Encoder serializes records into a reusable scratch buffer.
// An Encoder is not safe for concurrent use; see AcquireEncoder.
type Encoder struct {
	buf []byte
}

// NewEncoder returns an encoder with a preallocated buffer.
func NewEncoder() *Encoder {
	return &Encoder{buf: make([]byte, 0, 1024)}
}

// Encode serializes r. The returned slice is valid until the next call.
func (e *Encoder) Encode(r *Record) []byte {
	e.buf = AppendRecord(e.buf[:0], r)
	return e.buf
}

// AppendRecord appends the encoded form of r to dst.
func AppendRecord(dst []byte, r *Record) []byte {
	start := len(dst)
	dst = append(dst, VersionMarker)
	dst = append(dst, "000000,"...)
	for i := 0; i < pointerCount; i++ {
		dst = append(dst, "0000"...)
	}
	dst = append(dst, '\n')
	dst = appendTimestamp(dst, r.Timestamp)
	dst = append(dst, '\t')

	dst = append(dst, flag(r.Type), flag(r.Retransmission), flag(r.Direction), flag(r.Transport), flag(r.Encryption))

	mark := func(i int) {
		p := pointerOffset + i*pointerDigits
		putHex(dst[start+p:start+p+pointerDigits], len(dst)-start+1)
	}

	dst = append(dst, '\t')
	mark(ptrCSeq)
	if r.CSeqNumber <= 0 {
		dst = append(dst, '-')
	} else {
		dst = strconv.AppendInt(dst, r.CSeqNumber, 10)
	}
	dst = append(dst, ' ')
	dst = appendMandatory(dst, r.CSeqMethod)

	dst = append(dst, '\t')
	mark(ptrStatus)
	if r.Status == 0 {
		dst = append(dst, '-')
	} else {
		dst = strconv.AppendInt(dst, int64(r.Status), 10)
	}

	fields := [...]string{
		r.RURI, r.Destination, r.Source, r.To, r.ToTag,
		r.From, r.FromTag, r.CallID, r.ServerTxn, r.ClientTxn,
	}
	for i, s := range fields {
		dst = append(dst, '\t')
		mark(ptrRURI + i)
		dst = appendMandatory(dst, s)
	}

	mark(ptrOptional)
	for _, f := range r.Optional {
		dst = appendOptional(dst, f)
	}

	dst = append(dst, '\n')
	putHex(dst[start+lengthOffset:start+lengthOffset+lengthDigits], len(dst)-start)
	return dst
}

func appendOptional(dst []byte, f OptionalField) []byte {
	if f.Value.IsZero() {
		return dst
	}
	tag, vendor := f.Tag, f.Vendor
	switch f.Kind {
	case KindHeader:
		tag, vendor = TagHeader, VendorDefault
	case KindBody:
		tag, vendor = TagBody, VendorDefault
	case KindEntire:
		tag, vendor = TagEntire, VendorDefault
	}

	dst = append(dst, '\t')
	dst = appendFixedDec(dst, int64(tag), 2)
	dst = append(dst, '@')
	dst = appendFixedDec(dst, int64(vendor), 8)
	dst = append(dst, ',')
	lenAt := len(dst)
	dst = append(dst, "0000,"...)
	if f.Value.IsBinary() {
		dst = append(dst, "01,"...)
	} else {
		dst = append(dst, "00,"...)
	}

	valueAt := len(dst)
	switch f.Kind {
	case KindHeader:
		dst = appendToken(dst, f.Name)
		dst = append(dst, ':', ' ')
	case KindBody:
		dst = appendToken(dst, f.Name)
		dst = append(dst, ' ')
	}
	dst = appendValue(dst, f.Value)
	putHex(dst[lenAt:lenAt+pointerDigits], len(dst)-valueAt)
	return dst
}

func flag(b byte) byte {
	if b == 0 {
		return '-'
	}
	return b
}

// maxPooledBuffer bounds the scratch buffers kept by the encoder pool.
const maxPooledBuffer = 64 << 10

var encoderPool = sync.Pool{
	New: func() any { return NewEncoder() },
}

// AcquireEncoder returns an encoder from the shared pool.
func AcquireEncoder() *Encoder {
	return encoderPool.Get().(*Encoder)
}

// ReleaseEncoder returns e to the shared pool. The last encoded slice must not
// be used afterwards.
func ReleaseEncoder(e *Encoder) {
	if cap(e.buf) > maxPooledBuffer {
		return
	}
	e.buf = e.buf[:0]
	encoderPool.Put(e)
}

// Marshal encodes r into a newly allocated slice.
func Marshal(r *Record) []byte {
	e := AcquireEncoder()
	defer ReleaseEncoder(e)
	b := e.Encode(r)
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
