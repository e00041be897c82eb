// Package normalize turns a loosely-typed extraction payload into a canonical
// domain.ExtractedRecord.
package normalize

import (
	"encoding/json"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"podrecon/internal/domain"
	"podrecon/internal/textparse"
)

// missingValues are placeholders models write instead of leaving a field out.
var missingValues = map[string]bool{
	"": true, "null": true, "nil": true, "n/a": true, "na": true, "none": true,
	"unknown": true, "-": true, "--": true, "not available in document": true,
}

// synonyms maps key spellings seen in model output onto schema fields.
// Exact schema names always take precedence.
var synonyms = map[string]domain.Field{
	"docket":         domain.FieldDocketNumber,
	"docketno":       domain.FieldDocketNumber,
	"lrnumber":       domain.FieldDocketNumber,
	"lrno":           domain.FieldDocketNumber,
	"trackingnumber": domain.FieldDocketNumber,
	"awb":            domain.FieldAWBNumber,
	"awbno":          domain.FieldAWBNumber,
	"invoiceno":      domain.FieldInvoiceNumber,
	"ewaybill":       domain.FieldEwayBillNumber,
	"ewaybillno":     domain.FieldEwayBillNumber,
	"boxes":          domain.FieldNumberOfBoxes,
	"noofboxes":      domain.FieldNumberOfBoxes,
	"weight":         domain.FieldActualWeight,
	"signature":      domain.FieldSignatureStatus,
	"stamp":          domain.FieldStampStatus,
	"damage":         domain.FieldDamageComments,
	"remarks":        domain.FieldDamageComments,
	"gst":            domain.FieldGSTIN,
	"gstnumber":      domain.FieldGSTIN,
}

var integerRe = regexp.MustCompile(`\d+`)

// Normalizer maps raw key/value payloads onto a FieldSchema.
type Normalizer struct {
	schema *domain.FieldSchema
	index  map[string]domain.Field
}

// New creates a Normalizer for the POD schema.
func New() *Normalizer {
	return NewForSchema(domain.PODSchema)
}

// NewForSchema creates a Normalizer for an arbitrary schema.
func NewForSchema(schema *domain.FieldSchema) *Normalizer {
	idx := make(map[string]domain.Field, schema.Len())
	for _, name := range schema.Names() {
		idx[canonicalKey(string(name))] = name
	}
	return &Normalizer{schema: schema, index: idx}
}

// Normalize builds a record from raw. Unrecognised keys are ignored, missing
// fields take their alias value, and anything still missing stays unknown.
// A record with no known field is rejected with domain.ErrEmptyExtraction.
func (n *Normalizer) Normalize(raw map[string]any) (*domain.ExtractedRecord, error) {
	primary := make(map[domain.Field]any)
	secondary := make(map[domain.Field]any)

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		f, exact, ok := n.Resolve(k)
		if !ok {
			continue
		}
		dst := secondary
		if exact {
			dst = primary
		}
		if _, seen := dst[f]; !seen || isMissing(dst[f]) {
			dst[f] = raw[k]
		}
	}

	extracted := make(map[domain.Field]string)
	for _, spec := range n.schema.Fields() {
		v := coerce(spec, primary[spec.Name])
		if v == "" {
			v = coerce(spec, secondary[spec.Name])
		}
		if v != "" {
			extracted[spec.Name] = v
		}
	}

	rec := domain.NewExtractedRecord()
	for _, spec := range n.schema.Fields() {
		v, ok := extracted[spec.Name]
		if !ok && spec.Alias != "" {
			v = extracted[spec.Alias]
		}
		rec.Set(spec.Name, v)
	}

	if rec.IsEmpty() {
		return nil, domain.ErrEmptyExtraction
	}
	return rec, nil
}

// Resolve maps a payload key onto a schema field using the same spelling
// rules as Normalize. exact is false when the match came from a synonym.
func (n *Normalizer) Resolve(key string) (f domain.Field, exact, ok bool) {
	ck := canonicalKey(key)
	if f, ok := n.index[ck]; ok {
		return f, true, true
	}
	if f, ok := synonyms[ck]; ok {
		if _, known := n.schema.Lookup(f); known {
			return f, false, true
		}
	}
	return "", false, false
}

func canonicalKey(k string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(k) {
		switch r {
		case '_', '-', ' ', '.':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isMissing(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && missingValues[strings.ToLower(strings.TrimSpace(s))]
}

// coerce converts one raw value into the field's canonical string form, or ""
// when the value carries no usable signal.
func coerce(spec domain.FieldSpec, v any) string {
	var s string
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		s = t
	case json.Number:
		s = t.String()
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		s = strconv.Itoa(t)
	case int64:
		s = strconv.FormatInt(t, 10)
	case bool:
		if spec.Status == nil {
			return ""
		}
		if t {
			return spec.Status.Positive
		}
		return spec.Status.Negative
	default:
		// Objects and arrays are not a field value.
		return ""
	}

	s = strings.Join(strings.Fields(norm.NFKC.String(s)), " ")
	if missingValues[strings.ToLower(s)] {
		return ""
	}

	switch spec.Type {
	case domain.FieldTypeInteger:
		m := integerRe.FindString(s)
		if m == "" {
			return ""
		}
		n, err := strconv.Atoi(m)
		if err != nil {
			return ""
		}
		return strconv.Itoa(n)
	case domain.FieldTypeStatus:
		if spec.Status == nil {
			return ""
		}
		out, ok := textparse.ClassifyValue(spec.Status, s)
		if !ok {
			return ""
		}
		return out
	}
	return s
}
