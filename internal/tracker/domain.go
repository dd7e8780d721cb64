package tracker

import (
	"bytes"
	"encoding/json"
)

// Domain is the passive domain description handed to validators and
// submit hooks. The engine never interprets it: the JSON it was decoded
// from is kept verbatim and written back unchanged.
type Domain struct {
	raw json.RawMessage
}

// NewDomain wraps raw domain JSON. An empty input is an empty domain.
func NewDomain(raw json.RawMessage) *Domain {
	return &Domain{raw: bytes.Clone(raw)}
}

// Raw returns the domain JSON as received, or nil for an empty domain.
func (d *Domain) Raw() json.RawMessage {
	if d == nil {
		return nil
	}
	return d.raw
}

// Decode unmarshals the domain into v, for hooks that need to read it.
// An empty domain leaves v untouched.
func (d *Domain) Decode(v any) error {
	if d == nil || len(d.raw) == 0 {
		return nil
	}
	return json.Unmarshal(d.raw, v)
}

// UnmarshalJSON implements json.Unmarshaler. encoding/json has already
// checked the syntax, so any JSON value is accepted.
func (d *Domain) UnmarshalJSON(data []byte) error {
	d.raw = bytes.Clone(data)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (d Domain) MarshalJSON() ([]byte, error) {
	if len(d.raw) == 0 {
		return []byte("{}"), nil
	}
	return d.raw, nil
}
