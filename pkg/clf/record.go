package clf

import "github.com/bft-labs/clflog/internal/domain"

// ErrFormat is returned by the decoder when the version marker does not match
// or the pointer table is structurally invalid.
var ErrFormat = domain.ErrFormat

// Record flag values.
const (
	// Type
	Request  byte = 'R'
	Response byte = 'r'

	// Retransmission
	Original  byte = 'O'
	Duplicate byte = 'D'
	Server    byte = 'S'

	// Direction
	Sent     byte = 'S'
	Received byte = 'R'

	// Transport
	UDP  byte = 'U'
	TCP  byte = 'T'
	SCTP byte = 'S'

	// Encryption
	Encrypted   byte = 'E'
	Unencrypted byte = 'U'
)

// Record is one logged SIP transaction event.
// A record must not be modified once it has been handed to a writer.
type Record struct {
	// Timestamp is the Unix epoch in milliseconds.
	Timestamp int64

	Type           byte
	Retransmission byte
	Direction      byte
	Transport      byte
	Encryption     byte

	CSeqNumber int64
	CSeqMethod string

	// Status is the response status code, 0 for requests.
	Status int

	RURI        string
	Destination string
	Source      string
	To          string
	ToTag       string
	From        string
	FromTag     string
	CallID      string
	ServerTxn   string
	ClientTxn   string

	// Optional holds the optional fields in insertion order.
	Optional []OptionalField
}

// Add appends optional fields, keeping their order.
func (r *Record) Add(fields ...OptionalField) {
	r.Optional = append(r.Optional, fields...)
}
