package textparse_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"podrecon/internal/domain"
	"podrecon/internal/textparse"
)

func TestParser_EwayBillOnly(t *testing.T) {
	out := textparse.NewParser().Parse("Eway Bill EWB998877")

	assert.Equal(t, map[string]any{"ewayBillNumber": "EWB998877"}, out)
}

func TestParser_DocketAndSignature(t *testing.T) {
	out := textparse.NewParser().Parse("DOCKET NUMBER 503021 Signature Present")

	assert.Equal(t, "503021", out["docketNumber"])
	assert.Equal(t, domain.SignaturePresent, out["signatureStatus"])
	assert.NotContains(t, out, "stampStatus")
	assert.NotContains(t, out, "invoiceNumber")
}

func TestParser_BlankSlipLabels(t *testing.T) {
	p := textparse.NewParser()

	out := p.Parse("DOCKET NO 503021 Received & Signed By: ________ Company Stamp: ________")
	assert.Equal(t, domain.SignatureNotClear, out["signatureStatus"])
	assert.Equal(t, domain.StampNotClear, out["stampStatus"])

	out = p.Parse("DOCKET NO 503021 Signed by ______ Stamped at ______")
	assert.Equal(t, domain.SignatureNotClear, out["signatureStatus"])
	assert.Equal(t, domain.StampNotClear, out["stampStatus"])
}

func TestParser_Identifiers(t *testing.T) {
	p := textparse.NewParser()

	t.Run("invoice_with_prefix", func(t *testing.T) {
		out := p.Parse("Invoice No: INV-2024-001 dated 05/01/2024")
		assert.Equal(t, "INV-2024-001", out["invoiceNumber"])
	})

	t.Run("short_token_rejected", func(t *testing.T) {
		out := p.Parse("Tracking 12345")
		assert.NotContains(t, out, "docketNumber")
	})

	t.Run("keyword_is_token_prefix", func(t *testing.T) {
		out := p.Parse("ref AWB123456 delivered")
		assert.Equal(t, "AWB123456", out["docketNumber"])
	})

	t.Run("lr_with_underscore", func(t *testing.T) {
		out := p.Parse("LR_503021")
		assert.Equal(t, "503021", out["docketNumber"])
	})

	t.Run("clause_boundary_stops_search", func(t *testing.T) {
		out := p.Parse("Docket: pending, ref 88812345")
		assert.NotContains(t, out, "docketNumber")
	})

	t.Run("first_keyword_wins", func(t *testing.T) {
		out := p.Parse("Docket 111222 ... Tracking 333444")
		assert.Equal(t, "111222", out["docketNumber"])
	})

	t.Run("malformed_json_keys", func(t *testing.T) {
		out := p.Parse(`{"docketNumber": "DK778899", "invoiceNumber": "INV-42"`)
		assert.Equal(t, "DK778899", out["docketNumber"])
		assert.Equal(t, "INV-42", out["invoiceNumber"])
	})
}

func TestParser_NumericFields(t *testing.T) {
	p := textparse.NewParser()

	t.Run("boxes", func(t *testing.T) {
		out := p.Parse("No. of Boxes: 4 Weight 12.5 KG")
		assert.Equal(t, "4", out["numberOfBoxes"])
		assert.Equal(t, "12.5 kg", out["actualWeight"])
	})

	t.Run("packages_first_integer", func(t *testing.T) {
		out := p.Parse("Packages - 7 of 9")
		assert.Equal(t, "7", out["numberOfBoxes"])
	})

	t.Run("weight_requires_unit", func(t *testing.T) {
		out := p.Parse("Weight 12.5")
		assert.NotContains(t, out, "actualWeight")
	})

	t.Run("full_width_digits", func(t *testing.T) {
		out := p.Parse("Boxes: ３")
		assert.Equal(t, "3", out["numberOfBoxes"])
	})
}

func TestParser_Names(t *testing.T) {
	out := textparse.NewParser().Parse("Consignor: Blue Dart Traders Receiver Name: Ravi Kumar Signature Present")

	assert.Equal(t, "Blue Dart Traders", out["consignorName"])
	assert.Equal(t, "Ravi Kumar", out["receiverName"])
}

func TestParser_OtherFields(t *testing.T) {
	out := textparse.NewParser().Parse("GSTIN 27aapfu0939f1zv. Delivered on 12/03/2024. Outer carton damaged at corner; stamp affixed")

	assert.Equal(t, "27AAPFU0939F1ZV", out["gstin"])
	assert.Equal(t, "12/03/2024", out["deliveryDate"])
	assert.Equal(t, "Outer carton damaged at corner", out["damageComments"])
	assert.Equal(t, domain.StampAvailable, out["stampStatus"])
}

func TestParser_NothingRecognised(t *testing.T) {
	out := textparse.NewParser().Parse("the quick brown fox")

	assert.Empty(t, out)
}

func TestParser_Deterministic(t *testing.T) {
	p := textparse.NewParser()
	text := "Docket 503021 Invoice INV77 Boxes 3 Signature Not Clear"

	assert.Equal(t, p.Parse(text), p.Parse(text))
}
