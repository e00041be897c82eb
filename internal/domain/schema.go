package domain

import "strings"

// Field is the canonical name of an extractable POD field.
type Field string

const (
	FieldDocketNumber     Field = "docketNumber"
	FieldAWBNumber        Field = "awbNumber"
	FieldInvoiceNumber    Field = "invoiceNumber"
	FieldEwayBillNumber   Field = "ewayBillNumber"
	FieldReceiverName     Field = "receiverName"
	FieldReceiverAddress  Field = "receiverAddress"
	FieldNumberOfBoxes    Field = "numberOfBoxes"
	FieldActualWeight     Field = "actualWeight"
	FieldSignatureStatus  Field = "signatureStatus"
	FieldStampStatus      Field = "stampStatus"
	FieldDamageComments   Field = "damageComments"
	FieldConsignorName    Field = "consignorName"
	FieldConsignorAddress Field = "consignorAddress"
	FieldConsigneeName    Field = "consigneeName"
	FieldDeliveryDate     Field = "deliveryDate"
	FieldGSTIN            Field = "gstin"
)

// FieldType is the semantic type of a schema field.
type FieldType string

const (
	FieldTypeString  FieldType = "string"
	FieldTypeInteger FieldType = "integer"
	FieldTypeStatus  FieldType = "status"
	FieldTypeText    FieldType = "text"
)

// Signature and stamp legal values.
const (
	SignaturePresent    = "Signature Present"
	SignatureNotPresent = "Signature Not Present"
	SignatureNotClear   = "Signature Not Clear"

	StampAvailable    = "Available"
	StampNotAvailable = "Not Available"
	StampNotClear     = "Not Clear"
)

// StatusSpec describes an enumerated status field. Unclear is the
// lowest-confidence legal value and the only one a classifier may fall back to.
type StatusSpec struct {
	Positive string
	Negative string
	Unclear  string
	Keywords []string
}

// Legal returns the legal values in schema order.
func (s *StatusSpec) Legal() []string {
	return []string{s.Positive, s.Negative, s.Unclear}
}

// Canonical maps v onto a legal value by case-insensitive equality.
func (s *StatusSpec) Canonical(v string) (string, bool) {
	for _, legal := range s.Legal() {
		if strings.EqualFold(strings.TrimSpace(v), legal) {
			return legal, true
		}
	}
	return "", false
}

// FieldSpec is one entry of the Field Schema.
type FieldSpec struct {
	Name        Field
	Type        FieldType
	Description string
	Alias       Field
	Status      *StatusSpec
}

// FieldSchema is the ordered, immutable set of extractable fields.
type FieldSchema struct {
	fields []FieldSpec
	index  map[Field]int
}

func newFieldSchema(specs ...FieldSpec) *FieldSchema {
	s := &FieldSchema{fields: specs, index: make(map[Field]int, len(specs))}
	for i, f := range specs {
		s.index[f.Name] = i
	}
	return s
}

// Fields returns a copy of the schema fields in order.
func (s *FieldSchema) Fields() []FieldSpec {
	out := make([]FieldSpec, len(s.fields))
	copy(out, s.fields)
	return out
}

// Names returns the field names in schema order.
func (s *FieldSchema) Names() []Field {
	out := make([]Field, len(s.fields))
	for i, f := range s.fields {
		out[i] = f.Name
	}
	return out
}

// Lookup returns the spec for a field name.
func (s *FieldSchema) Lookup(name Field) (FieldSpec, bool) {
	i, ok := s.index[name]
	if !ok {
		return FieldSpec{}, false
	}
	return s.fields[i], true
}

// Len returns the number of fields.
func (s *FieldSchema) Len() int { return len(s.fields) }

// PODSchema is the courier-slip schema shared by every extraction path.
var PODSchema = newFieldSchema(
	FieldSpec{Name: FieldDocketNumber, Type: FieldTypeString, Alias: FieldAWBNumber,
		Description: "docket / LR / consignment tracking number"},
	FieldSpec{Name: FieldAWBNumber, Type: FieldTypeString, Alias: FieldDocketNumber,
		Description: "air waybill number"},
	FieldSpec{Name: FieldInvoiceNumber, Type: FieldTypeString,
		Description: "invoice number"},
	FieldSpec{Name: FieldEwayBillNumber, Type: FieldTypeString,
		Description: "e-way bill number"},
	FieldSpec{Name: FieldReceiverName, Type: FieldTypeString, Alias: FieldConsigneeName,
		Description: "name of the person or company that received the goods"},
	FieldSpec{Name: FieldReceiverAddress, Type: FieldTypeText,
		Description: "delivery address"},
	FieldSpec{Name: FieldNumberOfBoxes, Type: FieldTypeInteger,
		Description: "number of boxes or packages delivered"},
	FieldSpec{Name: FieldActualWeight, Type: FieldTypeString,
		Description: "actual weight including its unit, e.g. 12.5 kg"},
	FieldSpec{Name: FieldSignatureStatus, Type: FieldTypeStatus,
		Description: "whether the receiver signed the slip",
		Status: &StatusSpec{
			Positive: SignaturePresent,
			Negative: SignatureNotPresent,
			Unclear:  SignatureNotClear,
			Keywords: []string{"signature", "signed", "sign", "unsigned"},
		}},
	FieldSpec{Name: FieldStampStatus, Type: FieldTypeStatus,
		Description: "whether the receiver's stamp or seal is on the slip",
		Status: &StatusSpec{
			Positive: StampAvailable,
			Negative: StampNotAvailable,
			Unclear:  StampNotClear,
			Keywords: []string{"stamp", "stamped", "seal", "unstamped"},
		}},
	FieldSpec{Name: FieldDamageComments, Type: FieldTypeText,
		Description: "remarks about damage, shortage or condition of goods"},
	FieldSpec{Name: FieldConsignorName, Type: FieldTypeString,
		Description: "sender name"},
	FieldSpec{Name: FieldConsignorAddress, Type: FieldTypeText,
		Description: "sender address"},
	FieldSpec{Name: FieldConsigneeName, Type: FieldTypeString, Alias: FieldReceiverName,
		Description: "consignee name printed on the slip"},
	FieldSpec{Name: FieldDeliveryDate, Type: FieldTypeString,
		Description: "date of delivery as written on the slip"},
	FieldSpec{Name: FieldGSTIN, Type: FieldTypeString,
		Description: "15 character GSTIN of the consignee or consignor"},
)
