package domain

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RawDocument is one uploaded proof-of-delivery file. FileName is used for
// identifier matching only.
type RawDocument struct {
	FileName  string
	MediaType string
	Content   []byte
}

// IsPDF reports whether the document carries a PDF payload.
func (d RawDocument) IsPDF() bool {
	return d.MediaType == MediaTypePDF
}

// IsImage reports whether the document is a raster image.
func (d RawDocument) IsImage() bool {
	return strings.HasPrefix(d.MediaType, "image/") && AllowedMediaTypes[d.MediaType]
}

// ExtractionAttempt records one backend call inside an extraction. It never
// leaves the process.
type ExtractionAttempt struct {
	Backend  BackendKind    `json:"backend"`
	Provider string         `json:"provider,omitempty"`
	Model    string         `json:"model,omitempty"`
	Outcome  AttemptOutcome `json:"outcome"`
	Response string         `json:"-"`
	Error    string         `json:"error,omitempty"`
	Duration time.Duration  `json:"duration_ns"`
}

// ParcelRecord is a shipment owned by the surrounding system. The POD
// columns are written only through WithPOD.
type ParcelRecord struct {
	ID           string    `db:"id" json:"id" yaml:"id"`
	LRNumber     string    `db:"lr_number" json:"lr_number" yaml:"lr_number"`
	LRDate       string    `db:"lr_date" json:"lr_date" yaml:"lr_date"`
	OrderID      string    `db:"order_id" json:"order_id" yaml:"order_id"`
	SerialNumber string    `db:"serial_number" json:"serial_number" yaml:"serial_number"`
	Carrier      string    `db:"carrier" json:"carrier" yaml:"carrier"`
	Source       string    `db:"source" json:"source" yaml:"source"`
	Destination  string    `db:"destination" json:"destination" yaml:"destination"`
	Status       string    `db:"status" json:"status" yaml:"status"`
	CreatedAt    time.Time `db:"created_at" json:"created_at" yaml:"-"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at" yaml:"-"`

	AWBNumber        *string    `db:"awb_number" json:"awb_number,omitempty" yaml:"-"`
	SignatureStatus  *string    `db:"signature_status" json:"signature_status,omitempty" yaml:"-"`
	StampStatus      *string    `db:"stamp_status" json:"stamp_status,omitempty" yaml:"-"`
	RecipientName    *string    `db:"recipient_name" json:"recipient_name,omitempty" yaml:"-"`
	RecipientAddress *string    `db:"recipient_address" json:"recipient_address,omitempty" yaml:"-"`
	ActualWeight     *string    `db:"actual_weight" json:"actual_weight,omitempty" yaml:"-"`
	NumberOfBoxes    *string    `db:"number_of_boxes" json:"number_of_boxes,omitempty" yaml:"-"`
	InvoiceNumber    *string    `db:"invoice_number" json:"invoice_number,omitempty" yaml:"-"`
	EwayBillNumber   *string    `db:"eway_bill_number" json:"eway_bill_number,omitempty" yaml:"-"`
	DamageComments   *string    `db:"damage_comments" json:"damage_comments,omitempty" yaml:"-"`
	PODProcessed     bool       `db:"pod_processed" json:"pod_processed" yaml:"-"`
	PODFileName      *string    `db:"pod_file_name" json:"pod_file_name,omitempty" yaml:"-"`
	PODObjectKey     *string    `db:"pod_object_key" json:"-" yaml:"-"`
	PODProcessedAt   *time.Time `db:"pod_processed_at" json:"pod_processed_at,omitempty" yaml:"-"`
}

// ParcelIdentifier is one identifying field of a parcel.
type ParcelIdentifier struct {
	Name  string
	Value string
}

// Identifiers returns the parcel's own identifying fields in match order.
func (p *ParcelRecord) Identifiers() []ParcelIdentifier {
	return []ParcelIdentifier{
		{Name: "id", Value: p.ID},
		{Name: "lr_number", Value: p.LRNumber},
		{Name: "order_id", Value: p.OrderID},
	}
}

// WithPOD returns a copy of p enriched from rec. Unknown fields keep the
// parcel's existing value.
func (p ParcelRecord) WithPOD(rec *ExtractedRecord, fileName string, at time.Time) ParcelRecord {
	keep := func(cur *string, f Field) *string {
		if v := rec.Ptr(f); v != nil {
			return v
		}
		return cur
	}
	awbField := FieldAWBNumber
	if !rec.Known(awbField) {
		awbField = FieldDocketNumber
	}
	p.AWBNumber = keep(p.AWBNumber, awbField)
	p.SignatureStatus = keep(p.SignatureStatus, FieldSignatureStatus)
	p.StampStatus = keep(p.StampStatus, FieldStampStatus)
	p.RecipientName = keep(p.RecipientName, FieldReceiverName)
	p.RecipientAddress = keep(p.RecipientAddress, FieldReceiverAddress)
	p.ActualWeight = keep(p.ActualWeight, FieldActualWeight)
	p.NumberOfBoxes = keep(p.NumberOfBoxes, FieldNumberOfBoxes)
	p.InvoiceNumber = keep(p.InvoiceNumber, FieldInvoiceNumber)
	p.EwayBillNumber = keep(p.EwayBillNumber, FieldEwayBillNumber)
	p.DamageComments = keep(p.DamageComments, FieldDamageComments)
	p.PODProcessed = true
	p.PODFileName = &fileName
	ts := at.UTC()
	p.PODProcessedAt = &ts
	return p
}

// Candidate is an identifier considered during matching.
type Candidate struct {
	Value  string      `json:"value"`
	Source MatchSource `json:"source"`
}

// MatchResult is the reconciliation decision for one document.
type MatchResult struct {
	Candidates []Candidate   `json:"candidates"`
	Parcel     *ParcelRecord `json:"parcel,omitempty"`
	Matched    bool          `json:"matched"`
	MatchedOn  *Candidate    `json:"matched_on,omitempty"`
	Reason     string        `json:"reason"`
}

// PODResult is the persisted audit row for one processed document.
type PODResult struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	BatchID     uuid.UUID       `db:"batch_id" json:"batch_id"`
	Position    int             `db:"position" json:"position"`
	FileName    string          `db:"file_name" json:"file_name"`
	MediaType   string          `db:"media_type" json:"media_type"`
	Status      OutcomeStatus   `db:"status" json:"status"`
	ErrorKind   ErrorKind       `db:"error_kind" json:"error_kind,omitempty"`
	ErrorDetail string          `db:"error_detail" json:"error_detail,omitempty"`
	ParcelID    *string         `db:"parcel_id" json:"parcel_id,omitempty"`
	Record      json.RawMessage `db:"record" json:"record,omitempty"`
	Candidates  json.RawMessage `db:"candidates" json:"candidates,omitempty"`
	Attempts    json.RawMessage `db:"attempts" json:"attempts,omitempty"`
	ObjectKey   *string         `db:"object_key" json:"-"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}
