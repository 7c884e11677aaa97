package clf

// Reserved optional field tags and the default vendor.
const (
	// TagHeader marks a header field or Reason-Phrase.
	TagHeader = 0
	// TagBody marks a message body.
	TagBody = 1
	// TagEntire marks an entire message.
	TagEntire = 2

	VendorDefault = 0
)

// ReasonPhrase is the header name used to log a response reason phrase.
const ReasonPhrase = "Reason-Phrase"

// Kind identifies the variant of an optional field.
type Kind uint8

const (
	KindHeader Kind = iota
	KindBody
	KindEntire
	KindOther
)

// String returns a human-readable representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindHeader:
		return "header"
	case KindBody:
		return "body"
	case KindEntire:
		return "entire"
	case KindOther:
		return "other"
	default:
		return "unknown"
	}
}

// Value is the payload of an optional field: text, binary or absent.
// The zero Value is absent and is never encoded.
type Value struct {
	text   string
	data   []byte
	binary bool
	set    bool
}

// Text returns a text payload.
func Text(s string) Value {
	return Value{text: s, set: true}
}

// Binary returns a binary payload, written as Base64.
func Binary(b []byte) Value {
	if b == nil {
		b = []byte{}
	}
	return Value{data: b, binary: true, set: true}
}

// IsZero reports whether the value is absent.
func (v Value) IsZero() bool { return !v.set }

// IsBinary reports whether the value carries bytes rather than text.
func (v Value) IsBinary() bool { return v.binary }

// String returns the text payload, or "" for binary and absent values.
func (v Value) String() string { return v.text }

// Bytes returns the binary payload, or nil for text and absent values.
func (v Value) Bytes() []byte { return v.data }

// OptionalField is a tagged extension slot of a record.
//
// Header fields carry the header name in Name, Body fields the content type.
// Entire and Other fields use only Value. Other fields should use a tag above
// [TagEntire] or a non-default vendor; reserved tags under the default vendor
// decode as their reserved variant.
type OptionalField struct {
	Kind   Kind
	Tag    int
	Vendor int
	Name   string
	Value  Value
}

// Header returns a header optional field "name: value".
func Header(name, value string) OptionalField {
	return OptionalField{Kind: KindHeader, Tag: TagHeader, Vendor: VendorDefault, Name: name, Value: Text(value)}
}

// Body returns a message body optional field.
func Body(contentType string, v Value) OptionalField {
	return OptionalField{Kind: KindBody, Tag: TagBody, Vendor: VendorDefault, Name: contentType, Value: v}
}

// Entire returns an entire message optional field.
func Entire(v Value) OptionalField {
	return OptionalField{Kind: KindEntire, Tag: TagEntire, Vendor: VendorDefault, Value: v}
}

// Other returns a vendor specific optional field.
func Other(tag, vendor int, v Value) OptionalField {
	return OptionalField{Kind: KindOther, Tag: tag, Vendor: vendor, Value: v}
}
