package clf

import (
	"bytes"
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"
)

const sdp = "v=0\r\no=alice 2890844526 2890844526 IN IP4 192.0.2.200\r\n" +
	"s=-\r\nc=IN IP4 192.0.2.200\r\nt=0 0\r\nm=audio 49170 RTP/AVP 0\r\n" +
	"a=rtpmap:0 PCMU/8000\r\n"

// rfcRecord mirrors the example record of RFC6873 section 9.
func rfcRecord() *Record {
	pkcs7 := make([]byte, 300)
	for i := range pkcs7 {
		pkcs7[i] = byte(i * 7)
	}
	r := &Record{
		Timestamp:      1328821153010,
		Type:           Request,
		Retransmission: Original,
		Direction:      Received,
		Transport:      UDP,
		Encryption:     Unencrypted,
		CSeqNumber:     1,
		CSeqMethod:     "INVITE",
		RURI:           "sip:192.0.2.10",
		Destination:    "192.0.2.10:5060",
		Source:         "192.0.2.200:56485",
		To:             "sip:192.0.2.10",
		ToTag:          "",
		From:           "sip:1001@example.com:5060",
		FromTag:        "DL88360fa5fc",
		CallID:         "DL70dff590c1-1079051554@example.com",
		ServerTxn:      "S1781761-88",
		ClientTxn:      "C67651-11",
	}
	r.Add(
		Header("Contact", "<sip:bob@192.0.2.4>"),
		Header(ReasonPhrase, "Ringing"),
		Body("application/sdp", Text(sdp)),
		Body("multipart/mixed;boundary=7a9cbec02ceef655", Binary(pkcs7)),
		Other(3, 32473, Text("a=rtpmap:0 PCMU/8000")),
		Other(7, 32473, Text("1877 example.com")),
	)
	return r
}

func TestRoundTripRFC6873(t *testing.T) {
	in := rfcRecord()
	data := Marshal(in)

	if data[0] != 'A' {
		t.Fatalf("version marker = %q, want 'A'", data[0])
	}
	if got := string(data[8:12]); got != "0053" {
		t.Errorf("CSeq pointer = %s, want 0053", got)
	}
	if got := string(data[61:76]); got != "1328821153.010\t" {
		t.Errorf("timestamp = %q", got)
	}
	if got := string(data[76:81]); got != "RORUU" {
		t.Errorf("flags = %q, want RORUU", got)
	}
	if n, _ := parseHex(data[1:7]); n != len(data) {
		t.Errorf("length = %d, want %d", n, len(data))
	}
	if data[len(data)-1] != '\n' {
		t.Error("record must end with a line feed")
	}
	if !bytes.Contains(data, []byte("\t00@00000000,0016,00,Reason-Phrase: Ringing")) {
		t.Errorf("reason phrase not encoded as expected:\n%s", data)
	}
	if !bytes.Contains(data, []byte("\t07@00032473,0010,00,1877 example.com")) {
		t.Errorf("vendor field not encoded as expected:\n%s", data)
	}

	out, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Errorf("round trip mismatch\n in: %+v\nout: %+v", in, out)
	}
	if len(out.Optional) != 6 {
		t.Errorf("optional fields = %d, want 6", len(out.Optional))
	}
}

func TestMandatoryEscaping(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		encoded string
		decoded string
	}{
		{name: "empty", in: "", encoded: "-", decoded: ""},
		{name: "dash", in: "-", encoded: "%2D", decoded: "-"},
		{name: "question mark", in: "?", encoded: "%3F", decoded: "?"},
		{name: "tab", in: "a\tb", encoded: "a b", decoded: "a b"},
		{name: "line breaks dropped", in: "a\r\nb", encoded: "ab", decoded: "ab"},
		{name: "only line breaks", in: "\r\n", encoded: "-", decoded: ""},
		{name: "utf8", in: "sip:jürgen@example.com", encoded: "sip:jürgen@example.com", decoded: "sip:jürgen@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := string(appendMandatory(nil, tt.in)); got != tt.encoded {
				t.Errorf("appendMandatory(%q) = %q, want %q", tt.in, got, tt.encoded)
			}

			out, err := Unmarshal(Marshal(&Record{RURI: tt.in, CallID: tt.in}))
			if err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if out.RURI != tt.decoded || out.CallID != tt.decoded {
				t.Errorf("decoded = %q/%q, want %q", out.RURI, out.CallID, tt.decoded)
			}
		})
	}
}

// mandatoryField returns the raw bytes of mandatory field i of an encoded record.
func mandatoryField(t *testing.T, data []byte, i int) string {
	t.Helper()
	at := func(i int) int {
		p := pointerOffset + i*pointerDigits
		v, ok := parseHex(data[p : p+pointerDigits])
		if !ok {
			t.Fatalf("pointer %d = %q", i, data[p:p+pointerDigits])
		}
		return v - 1
	}
	return string(data[at(i) : at(i+1)-1])
}

func TestCSeqEncoding(t *testing.T) {
	tests := []struct {
		name   string
		number int64
		method string
		want   string
	}{
		{name: "number and method", number: 1, method: "INVITE", want: "1 INVITE"},
		{name: "no number", number: 0, method: "INVITE", want: "- INVITE"},
		{name: "negative number", number: -5, method: "BYE", want: "- BYE"},
		{name: "no method", number: 7, method: "", want: "7 -"},
		{name: "empty", want: "- -"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := Marshal(&Record{CSeqNumber: tt.number, CSeqMethod: tt.method})
			if got := mandatoryField(t, data, ptrCSeq); got != tt.want {
				t.Errorf("CSeq field = %q, want %q", got, tt.want)
			}

			out, err := Unmarshal(data)
			if err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			wantNumber := tt.number
			if wantNumber < 0 {
				wantNumber = 0
			}
			if out.CSeqNumber != wantNumber || out.CSeqMethod != tt.method {
				t.Errorf("decoded CSeq = %d %q, want %d %q", out.CSeqNumber, out.CSeqMethod, wantNumber, tt.method)
			}
		})
	}
}

func TestPercentLiteralsAreAmbiguous(t *testing.T) {
	out, err := Unmarshal(Marshal(&Record{RURI: "%2D", CallID: "%3F"}))
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if out.RURI != "-" || out.CallID != "?" {
		t.Errorf("decoded = %q/%q, want \"-\"/\"?\"", out.RURI, out.CallID)
	}
}

func TestLongOptionalNames(t *testing.T) {
	longName := strings.Repeat("X", 70000)
	in := &Record{}
	in.Add(
		Header(longName, "v"),
		Body(strings.Repeat("t", 70000), Text(strings.Repeat("\r\n", MaxFieldSize/2))),
		Header("Contact", "<sip:a>"),
	)

	out, err := Unmarshal(Marshal(in))
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if len(out.Optional) != 3 {
		t.Fatalf("optional fields = %d, want 3", len(out.Optional))
	}
	if got := out.Optional[0].Name; got != longName[:MaxFieldSize] {
		t.Errorf("header name length = %d, want %d", len(got), MaxFieldSize)
	}
	if got := out.Optional[0].Value.String(); got != "v" {
		t.Errorf("header value = %q, want %q", got, "v")
	}
	if got := len(out.Optional[1].Name); got != MaxFieldSize {
		t.Errorf("content type length = %d, want %d", got, MaxFieldSize)
	}
	last := out.Optional[2]
	if last.Name != "Contact" || last.Value.String() != "<sip:a>" {
		t.Errorf("last field = %q: %q, want Contact: <sip:a>", last.Name, last.Value.String())
	}
}

func TestZeroValuesUseMarkers(t *testing.T) {
	data := Marshal(&Record{})
	if got := string(data[76:81]); got != "-----" {
		t.Errorf("flags = %q, want -----", got)
	}
	out, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if !reflect.DeepEqual(out, &Record{}) {
		t.Errorf("zero record round trip = %+v", out)
	}
}

func TestBinaryFidelity(t *testing.T) {
	all := make([]byte, 256)
	for i := range all {
		all[i] = byte(i)
	}

	for _, payload := range [][]byte{all, {}, {0}, bytes.Repeat([]byte{0xFF}, 57)} {
		in := &Record{CSeqNumber: 2, CSeqMethod: "MESSAGE"}
		in.Add(Entire(Binary(payload)), Other(9, 1, Binary(payload)))

		out, err := Unmarshal(Marshal(in))
		if err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}
		if len(out.Optional) != 2 {
			t.Fatalf("optional fields = %d, want 2", len(out.Optional))
		}
		for _, f := range out.Optional {
			if !f.Value.IsBinary() || !bytes.Equal(f.Value.Bytes(), payload) {
				t.Errorf("%s payload = %x, want %x", f.Kind, f.Value.Bytes(), payload)
			}
		}
	}
}

func TestAppendBase64Lines(t *testing.T) {
	if got := string(appendBase64(nil, nil)); got != "%0D%0A" {
		t.Errorf("empty payload = %q, want %%0D%%0A", got)
	}

	// 57 input bytes fill exactly one 76 character line.
	one := string(appendBase64(nil, make([]byte, 57)))
	if strings.Count(one, "%0D%0A") != 1 || len(one) != 76+6 {
		t.Errorf("57 bytes = %q", one)
	}

	two := string(appendBase64(nil, make([]byte, 58)))
	lines := strings.Split(strings.TrimSuffix(two, "%0D%0A"), "%0D%0A")
	if len(lines) != 2 || len(lines[0]) != 76 {
		t.Errorf("58 bytes = %q", two)
	}
}

func TestTruncation(t *testing.T) {
	long := strings.Repeat("a", 5000)
	wide := strings.Repeat("é", 3000) // 2 bytes per rune

	in := &Record{RURI: long, CallID: wide}
	in.Add(Entire(Text(long)), Other(4, 0, Binary(make([]byte, 5000))))

	out, err := Unmarshal(Marshal(in))
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if len(out.RURI) != MaxFieldSize {
		t.Errorf("RURI length = %d, want %d", len(out.RURI), MaxFieldSize)
	}
	if len(out.CallID) != MaxFieldSize || !strings.HasPrefix(wide, out.CallID) {
		t.Errorf("CallID length = %d, want %d on a rune boundary", len(out.CallID), MaxFieldSize)
	}
	if got := len(out.Optional[0].Value.String()); got != MaxFieldSize {
		t.Errorf("entire length = %d, want %d", got, MaxFieldSize)
	}
	if got := len(out.Optional[1].Value.Bytes()); got != MaxBinarySize {
		t.Errorf("binary length = %d, want %d", got, MaxBinarySize)
	}
}

func TestOptionalTextEscaping(t *testing.T) {
	in := &Record{}
	in.Add(Header("Subject", "a\tb"), Body("text/plain", Text("line1\r\nline2\n")))

	data := Marshal(in)
	if bytes.Count(data, []byte{'\n'}) != 2 {
		t.Errorf("record must only contain the prefix and terminating line feeds:\n%q", data)
	}

	out, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if got := out.Optional[0].Value.String(); got != "a b" {
		t.Errorf("header value = %q, want %q", got, "a b")
	}
	if got := out.Optional[1].Value.String(); got != "line1\r\nline2\n" {
		t.Errorf("body value = %q", got)
	}
}

func TestDecoderStream(t *testing.T) {
	var stream []byte
	for i := int64(1); i <= 3; i++ {
		stream = AppendRecord(stream, &Record{Timestamp: i * 1000, CSeqNumber: i, CSeqMethod: "OPTIONS"})
	}

	d := NewDecoder(bytes.NewReader(stream))
	for i := int64(1); i <= 3; i++ {
		r, err := d.Decode()
		if err != nil {
			t.Fatalf("Decode() #%d error = %v", i, err)
		}
		if r.CSeqNumber != i {
			t.Errorf("CSeqNumber = %d, want %d", r.CSeqNumber, i)
		}
	}
	if _, err := d.Decode(); err != io.EOF {
		t.Errorf("Decode() at end = %v, want io.EOF", err)
	}

	d = NewDecoder(bytes.NewReader(stream))
	d.SetRange(1500, 2500)
	r, err := d.Decode()
	if err != nil || r.Timestamp != 2000 {
		t.Fatalf("ranged Decode() = %v, %v; want timestamp 2000", r, err)
	}
	if _, err := d.Decode(); err != io.EOF {
		t.Errorf("ranged Decode() at end = %v, want io.EOF", err)
	}
}

func TestDecoderFormatError(t *testing.T) {
	good := Marshal(&Record{Timestamp: 1})

	bad := append([]byte{}, good...)
	bad[0] = 'B'
	d := NewDecoder(bytes.NewReader(append(bad, good...)))
	if _, err := d.Decode(); !errors.Is(err, ErrFormat) {
		t.Fatalf("Decode() error = %v, want ErrFormat", err)
	}
	if _, err := d.Decode(); !errors.Is(err, ErrFormat) {
		t.Errorf("ErrFormat must be sticky, got %v", err)
	}

	bad = append([]byte{}, good...)
	copy(bad[12:16], "0001") // pointer moving backwards
	if _, err := Unmarshal(bad); !errors.Is(err, ErrFormat) {
		t.Errorf("Unmarshal() error = %v, want ErrFormat", err)
	}
}

func TestDecoderTruncatedTail(t *testing.T) {
	first := rfcRecord()
	second := rfcRecord()
	second.CSeqNumber = 2

	stream := Marshal(first)
	tail := Marshal(second)
	// Keep the mandatory fields and the first optional field only.
	cut := bytes.Index(tail, []byte("\t00@00000000,0016"))
	stream = append(stream, tail[:cut]...)

	d := NewDecoder(bytes.NewReader(stream))
	if _, err := d.Decode(); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	r, err := d.Decode()
	if err != nil {
		t.Fatalf("Decode() of truncated record error = %v", err)
	}
	if r.CSeqNumber != 2 || r.ClientTxn != "C67651-11" {
		t.Errorf("truncated record mandatory fields = %+v", r)
	}
	if len(r.Optional) != 1 || r.Optional[0].Name != "Contact" {
		t.Errorf("truncated record optional fields = %+v", r.Optional)
	}
	if _, err := d.Decode(); err != io.EOF {
		t.Errorf("Decode() after truncated record = %v, want io.EOF", err)
	}

	// A fragment shorter than the prefix is dropped.
	d = NewDecoder(bytes.NewReader(tail[:40]))
	if _, err := d.Decode(); err != io.EOF {
		t.Errorf("Decode() of short fragment = %v, want io.EOF", err)
	}
}

func TestMalformedOptionalFieldSkipped(t *testing.T) {
	in := &Record{}
	in.Add(Body("application/octet-stream", Binary([]byte("payload"))), Header("X-Ok", "1"))
	data := Marshal(in)

	// Corrupt the Base64 payload of the first field without changing its length.
	i := bytes.Index(data, []byte(",01,application/octet-stream "))
	data[i+len(",01,application/octet-stream ")] = '*'

	out, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if len(out.Optional) != 1 || out.Optional[0].Name != "X-Ok" {
		t.Errorf("optional fields = %+v, want only X-Ok", out.Optional)
	}
}

func TestVendorTagsDispatch(t *testing.T) {
	in := &Record{}
	in.Add(Other(0, 32473, Text("vendor header-like")), Other(1, 5, Text("vendor body-like")))

	out, err := Unmarshal(Marshal(in))
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	for _, f := range out.Optional {
		if f.Kind != KindOther {
			t.Errorf("field %d@%d decoded as %s, want other", f.Tag, f.Vendor, f.Kind)
		}
	}
}

func TestEncoderPoolReuse(t *testing.T) {
	e := AcquireEncoder()
	a := string(e.Encode(rfcRecord()))
	ReleaseEncoder(e)

	e = AcquireEncoder()
	defer ReleaseEncoder(e)
	if b := string(e.Encode(rfcRecord())); a != b {
		t.Error("pooled encoder produced different output")
	}
}

func TestLength(t *testing.T) {
	b := Marshal(rfcRecord())
	n, err := Length(b)
	if err != nil || n != len(b) {
		t.Errorf("Length() = %d, %v; want %d", n, err, len(b))
	}
	if _, err := Length(b[:10]); !errors.Is(err, ErrFormat) {
		t.Errorf("Length() of short prefix = %v, want ErrFormat", err)
	}
}
