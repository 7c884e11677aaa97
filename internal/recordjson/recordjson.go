// Package recordjson maps records to and from JSON objects. The clflog
// command uses it to import JSON lines and to print search results.
//
// A record object looks like:
//
//	{"timestamp":1275930743699,"type":"R","retransmission":"O",
//	 "direction":"S","transport":"U","encryption":"U",
//	 "cseq_number":1,"cseq_method":"INVITE","status":0,
//	 "r_uri":"sip:bob@bob.example.com","destination":"192.0.2.10:5060",
//	 ...
//	 "optional":[{"kind":"header","name":"Subject","value":"Hi"},
//	             {"kind":"body","name":"application/sdp","binary":true,"value":"dj0w..."}]}
//
// Binary values are standard Base64.
package recordjson

import (
	"encoding/base64"
	"fmt"
	"strconv"

	"github.com/valyala/fastjson"

	"github.com/bft-labs/clflog/pkg/clf"
)

var arenas fastjson.ArenaPool

// mandatory lists the string fields in output order.
var mandatory = []struct {
	key string
	get func(*clf.Record) *string
}{
	{"r_uri", func(r *clf.Record) *string { return &r.RURI }},
	{"destination", func(r *clf.Record) *string { return &r.Destination }},
	{"source", func(r *clf.Record) *string { return &r.Source }},
	{"to", func(r *clf.Record) *string { return &r.To }},
	{"to_tag", func(r *clf.Record) *string { return &r.ToTag }},
	{"from", func(r *clf.Record) *string { return &r.From }},
	{"from_tag", func(r *clf.Record) *string { return &r.FromTag }},
	{"call_id", func(r *clf.Record) *string { return &r.CallID }},
	{"server_txn", func(r *clf.Record) *string { return &r.ServerTxn }},
	{"client_txn", func(r *clf.Record) *string { return &r.ClientTxn }},
}

var flags = []struct {
	key string
	get func(*clf.Record) *byte
}{
	{"type", func(r *clf.Record) *byte { return &r.Type }},
	{"retransmission", func(r *clf.Record) *byte { return &r.Retransmission }},
	{"direction", func(r *clf.Record) *byte { return &r.Direction }},
	{"transport", func(r *clf.Record) *byte { return &r.Transport }},
	{"encryption", func(r *clf.Record) *byte { return &r.Encryption }},
}

// Append appends the JSON object of r to dst.
func Append(dst []byte, r *clf.Record) []byte {
	a := arenas.Get()
	defer func() {
		a.Reset()
		arenas.Put(a)
	}()

	o := a.NewObject()
	o.Set("timestamp", a.NewNumberString(strconv.FormatInt(r.Timestamp, 10)))
	for _, f := range flags {
		o.Set(f.key, a.NewString(flagString(*f.get(r))))
	}
	o.Set("cseq_number", a.NewNumberString(strconv.FormatInt(r.CSeqNumber, 10)))
	o.Set("cseq_method", a.NewString(r.CSeqMethod))
	o.Set("status", a.NewNumberInt(r.Status))
	for _, f := range mandatory {
		o.Set(f.key, a.NewString(*f.get(r)))
	}

	opt := a.NewArray()
	n := 0
	for _, f := range r.Optional {
		if f.Value.IsZero() {
			continue
		}
		fo := a.NewObject()
		fo.Set("kind", a.NewString(f.Kind.String()))
		fo.Set("tag", a.NewNumberInt(f.Tag))
		fo.Set("vendor", a.NewNumberInt(f.Vendor))
		if f.Name != "" {
			fo.Set("name", a.NewString(f.Name))
		}
		if f.Value.IsBinary() {
			fo.Set("binary", a.NewTrue())
			fo.Set("value", a.NewString(base64.StdEncoding.EncodeToString(f.Value.Bytes())))
		} else {
			fo.Set("value", a.NewString(f.Value.String()))
		}
		opt.SetArrayItem(n, fo)
		n++
	}
	o.Set("optional", opt)

	return o.MarshalTo(dst)
}

// Marshal returns the JSON object of r.
func Marshal(r *clf.Record) []byte {
	return Append(nil, r)
}

// Parse builds a record from a JSON object. Absent fields keep their zero
// value; a missing timestamp is an error.
func Parse(v *fastjson.Value) (*clf.Record, error) {
	if v.Type() != fastjson.TypeObject {
		return nil, fmt.Errorf("record must be an object, got %s", v.Type())
	}
	if !v.Exists("timestamp") {
		return nil, fmt.Errorf("timestamp is required")
	}

	r := &clf.Record{}
	var err error
	if r.Timestamp, err = v.Get("timestamp").Int64(); err != nil {
		return nil, fmt.Errorf("timestamp: %w", err)
	}
	for _, f := range flags {
		s := string(v.GetStringBytes(f.key))
		if len(s) > 1 {
			return nil, fmt.Errorf("%s: flag must be a single character, got %q", f.key, s)
		}
		if s != "" && s != "-" {
			*f.get(r) = s[0]
		}
	}
	r.CSeqNumber = v.GetInt64("cseq_number")
	r.CSeqMethod = string(v.GetStringBytes("cseq_method"))
	r.Status = v.GetInt("status")
	for _, f := range mandatory {
		*f.get(r) = string(v.GetStringBytes(f.key))
	}

	for i, fv := range v.GetArray("optional") {
		f, err := parseOptional(fv)
		if err != nil {
			return nil, fmt.Errorf("optional[%d]: %w", i, err)
		}
		r.Add(f)
	}
	return r, nil
}

// ParseBytes parses one JSON object with p.
func ParseBytes(p *fastjson.Parser, b []byte) (*clf.Record, error) {
	v, err := p.ParseBytes(b)
	if err != nil {
		return nil, err
	}
	return Parse(v)
}

func parseOptional(v *fastjson.Value) (clf.OptionalField, error) {
	raw := v.GetStringBytes("value")
	var val clf.Value
	if v.GetBool("binary") {
		b, err := base64.StdEncoding.DecodeString(string(raw))
		if err != nil {
			return clf.OptionalField{}, fmt.Errorf("value: %w", err)
		}
		val = clf.Binary(b)
	} else {
		val = clf.Text(string(raw))
	}

	name := string(v.GetStringBytes("name"))
	switch kind := string(v.GetStringBytes("kind")); kind {
	case "header":
		f := clf.Header(name, "")
		f.Value = val
		return f, nil
	case "body":
		return clf.Body(name, val), nil
	case "entire":
		return clf.Entire(val), nil
	case "other":
		return clf.Other(v.GetInt("tag"), v.GetInt("vendor"), val), nil
	default:
		return clf.OptionalField{}, fmt.Errorf("unknown kind %q", kind)
	}
}

func flagString(b byte) string {
	if b == 0 {
		return ""
	}
	return string(rune(b))
}
