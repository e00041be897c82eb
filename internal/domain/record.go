package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ExtractedRecord is the canonical output of extraction for one document.
// A field that was not extracted is unknown and serialises as JSON null.
type ExtractedRecord struct {
	values map[Field]string
}

// NewExtractedRecord returns a record with every field unknown.
func NewExtractedRecord() *ExtractedRecord {
	return &ExtractedRecord{values: make(map[Field]string)}
}

// Set stores a known value. Empty strings are ignored.
func (r *ExtractedRecord) Set(f Field, v string) {
	if v == "" {
		return
	}
	if r.values == nil {
		r.values = make(map[Field]string)
	}
	r.values[f] = v
}

// Get returns the value and whether it is known.
func (r *ExtractedRecord) Get(f Field) (string, bool) {
	if r == nil {
		return "", false
	}
	v, ok := r.values[f]
	return v, ok
}

// Value returns the field value or "" when unknown.
func (r *ExtractedRecord) Value(f Field) string {
	v, _ := r.Get(f)
	return v
}

// Known reports whether f carries an extracted value.
func (r *ExtractedRecord) Known(f Field) bool {
	_, ok := r.Get(f)
	return ok
}

// KnownCount returns the number of known fields.
func (r *ExtractedRecord) KnownCount() int {
	if r == nil {
		return 0
	}
	return len(r.values)
}

// IsEmpty reports whether every field is unknown.
func (r *ExtractedRecord) IsEmpty() bool {
	return r.KnownCount() == 0
}

// Ptr returns a pointer to the value, or nil when unknown.
func (r *ExtractedRecord) Ptr(f Field) *string {
	v, ok := r.Get(f)
	if !ok {
		return nil
	}
	return &v
}

// MarshalJSON writes every schema field in schema order.
func (r ExtractedRecord) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, spec := range PODSchema.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, _ := json.Marshal(string(spec.Name))
		buf.Write(key)
		buf.WriteByte(':')

		v, ok := r.values[spec.Name]
		switch {
		case !ok:
			buf.WriteString("null")
		case spec.Type == FieldTypeInteger:
			if n, err := strconv.Atoi(v); err == nil {
				buf.WriteString(strconv.Itoa(n))
				continue
			}
			fallthrough
		default:
			enc, err := json.Marshal(v)
			if err != nil {
				return nil, fmt.Errorf("marshaling %s: %w", spec.Name, err)
			}
			buf.Write(enc)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a record previously written by MarshalJSON.
func (r *ExtractedRecord) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.values = make(map[Field]string)
	for _, spec := range PODSchema.fields {
		msg, ok := raw[string(spec.Name)]
		if !ok || string(msg) == "null" {
			continue
		}
		var s string
		if err := json.Unmarshal(msg, &s); err == nil {
			r.Set(spec.Name, s)
			continue
		}
		var n json.Number
		if err := json.Unmarshal(msg, &n); err != nil {
			return fmt.Errorf("field %s: %w", spec.Name, err)
		}
		r.Set(spec.Name, n.String())
	}
	return nil
}
