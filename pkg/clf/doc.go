// Package clf encodes and decodes SIP Common Log Format records.
//
// The layout follows RFC6873. Every record is a single self-delimited byte
// sequence made of three parts:
//
//	[Index Pointers | Mandatory Fields | Optional Fields]
//
// The index part is a fixed 76 byte prefix:
//
//	A000100,0053005C005E006D007D008F009E00A000BA00C700EB00F70100\n
//	1328821153.010\t
//
// holding the version marker 'A', the total record length as 6 upper-case hex
// digits, a comma, thirteen 4 hex digit pointers, a line feed, the timestamp as
// "<10 digit seconds>.<3 digit millis>" and a tab. Pointers are 1-based byte
// offsets from the record start: one per mandatory field in the order CSeq,
// Status, R-URI, Destination, Source, To, To-Tag, From, From-Tag, Call-ID,
// Server-Txn, Client-Txn, followed by the start of the optional fields.
//
// After the prefix come the five flag bytes, a tab, and the tab separated
// mandatory fields. Optional fields follow, each introduced by a tab:
//
//	Tag@Vendor,Length,BEB,Value
//
// with a 2 digit tag, an 8 digit vendor, a 4 hex digit value length and a 2 digit
// payload kind ("00" text, "01" Base64). The record ends with a line feed.
//
// # Escaping
//
// Mandatory fields write '-' for an empty value and "%2D" / "%3F" for a value that
// is exactly "-" / "?". Tabs become spaces and CR/LF are dropped. Optional text
// values keep CR and LF as "%0D" and "%0A". Binary payloads are Base64 encoded in
// 76 character lines, each line followed by the literal "%0D%0A".
//
// The mandatory field escapes are not reversible for every input: a value that
// is literally "%2D" or "%3F" is written unchanged and reads back as "-" or "?".
// A CSeq with no number is written as "- <method>", and "- -" when the method is
// empty as well.
//
// # Limits
//
// Text values, header names and content types are truncated to [MaxFieldSize]
// bytes on a rune boundary and binary payloads to [MaxBinarySize] bytes before
// encoding, which keeps every optional value within its 4 hex digit length.
// Truncation is silent.
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
package clf
