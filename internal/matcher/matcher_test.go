package matcher_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"podrecon/internal/domain"
	"podrecon/internal/matcher"
)

func record(fields map[domain.Field]string) *domain.ExtractedRecord {
	rec := domain.NewExtractedRecord()
	for f, v := range fields {
		rec.Set(f, v)
	}
	return rec
}

func TestFilenameCandidate(t *testing.T) {
	m := matcher.New()

	tests := []struct {
		name string
		want string
	}{
		{"LR_503021.pdf", "503021"},
		{"lr 503021.PDF", "503021"},
		{"awb-77889900.jpg", "77889900"},
		{"Docket123456.png", "123456"},
		{"scan_20240312.pdf", "20240312"},
		{"IMG12345678901234.jpg", "5678901234"},
		{"1234567.v2.pdf", "1234567"},
		{"ABC123456x.pdf", "ABC123456"},
		{"503021_pod_final.pdf", "503021"},
		{"pod_88_scan.pdf", "88"},
		{"uploads/2024/LR-700100.pdf", "700100"},
		{"delivery-proof.pdf", ""},
		{"lr.pdf", ""},
		{"", ""},
		// Pattern order decides when several could match.
		{"LR503021_998877665.pdf", "503021"},
		{"12345_AWB998877.pdf", "998877"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.FilenameCandidate(tt.name))
		})
	}
}

func TestDocumentCandidate(t *testing.T) {
	m := matcher.New()

	assert.Equal(t, "503021", m.DocumentCandidate(record(map[domain.Field]string{
		domain.FieldDocketNumber: "503021",
		domain.FieldAWBNumber:    "999999",
	})))
	assert.Equal(t, "999999", m.DocumentCandidate(record(map[domain.Field]string{
		domain.FieldAWBNumber: "999999",
	})))
	assert.Empty(t, m.DocumentCandidate(record(map[domain.Field]string{
		domain.FieldInvoiceNumber: "INV-1",
	})))
	assert.Empty(t, m.DocumentCandidate(nil))
}

func TestCandidates_DeduplicatedFilenameFirst(t *testing.T) {
	m := matcher.New()

	got := m.Candidates("LR_503021.pdf", record(map[domain.Field]string{domain.FieldDocketNumber: "503021"}))

	require.Len(t, got, 1)
	assert.Equal(t, domain.Candidate{Value: "503021", Source: domain.SourceFilename}, got[0])
}

func TestMatch_LRFilename(t *testing.T) {
	parcels := []domain.ParcelRecord{
		{ID: "P-1", LRNumber: "400400"},
		{ID: "P-2", LRNumber: "503021"},
	}
	rec := record(map[domain.Field]string{
		domain.FieldDocketNumber:    "503021",
		domain.FieldSignatureStatus: domain.SignaturePresent,
	})

	res := matcher.New().Match("LR_503021.pdf", rec, parcels)

	require.True(t, res.Matched)
	assert.Equal(t, "P-2", res.Parcel.ID)
	require.NotNil(t, res.MatchedOn)
	assert.Equal(t, domain.SourceFilename, res.MatchedOn.Source)
}

func TestMatch_BidirectionalContainment(t *testing.T) {
	m := matcher.New()

	t.Run("candidate_inside_parcel_id", func(t *testing.T) {
		parcels := []domain.ParcelRecord{{ID: "PCL-503021-A"}}
		res := m.Match("LR_503021.pdf", nil, parcels)
		assert.True(t, res.Matched)
	})

	t.Run("parcel_id_inside_candidate", func(t *testing.T) {
		parcels := []domain.ParcelRecord{{ID: "P-9", LRNumber: "503021"}}
		rec := record(map[domain.Field]string{domain.FieldDocketNumber: "DEL503021999"})
		res := m.Match("scan.pdf", rec, parcels)
		require.True(t, res.Matched)
		assert.Equal(t, domain.SourceDocument, res.MatchedOn.Source)
	})

	t.Run("order_id", func(t *testing.T) {
		parcels := []domain.ParcelRecord{{ID: "P-3", OrderID: "ORD-77889900"}}
		res := m.Match("awb-77889900.jpg", nil, parcels)
		assert.True(t, res.Matched)
	})

	t.Run("case_insensitive", func(t *testing.T) {
		parcels := []domain.ParcelRecord{{ID: "abc123456"}}
		res := m.Match("ABC123456x.pdf", nil, parcels)
		assert.True(t, res.Matched)
	})
}

func TestMatch_MinimumLength(t *testing.T) {
	t.Run("short_parcel_id_not_contained", func(t *testing.T) {
		parcels := []domain.ParcelRecord{{ID: "12"}}
		res := matcher.New().Match("LR_123456.pdf", nil, parcels)
		assert.False(t, res.Matched)
	})

	t.Run("short_exact_match_allowed", func(t *testing.T) {
		parcels := []domain.ParcelRecord{{ID: "P-1", OrderID: "88"}}
		res := matcher.New().Match("pod_88_scan.pdf", nil, parcels)
		assert.True(t, res.Matched)
	})

	t.Run("configured_floor", func(t *testing.T) {
		parcels := []domain.ParcelRecord{{ID: "PCL-503021-A"}}
		res := matcher.New(matcher.WithMinCandidateLength(8)).Match("LR_503021.pdf", nil, parcels)
		assert.False(t, res.Matched)
	})
}

func TestMatch_PlaceholderIdentifiersNeverMatch(t *testing.T) {
	parcels := []domain.ParcelRecord{{ID: "P-1", LRNumber: "N/A", OrderID: "-"}}
	rec := record(map[domain.Field]string{domain.FieldDocketNumber: "n/a"})

	res := matcher.New().Match("-.pdf", rec, parcels)

	assert.False(t, res.Matched)
	assert.Empty(t, res.Candidates)
}

func TestMatch_FirstParcelWins(t *testing.T) {
	parcels := []domain.ParcelRecord{
		{ID: "A", LRNumber: "LR503021"},
		{ID: "B", LRNumber: "503021"},
	}

	res := matcher.New().Match("LR_503021.pdf", nil, parcels)

	require.True(t, res.Matched)
	assert.Equal(t, "A", res.Parcel.ID)
}

func TestMatch_NoMatchLeavesParcelsUnchanged(t *testing.T) {
	parcels := []domain.ParcelRecord{
		{ID: "P-1", LRNumber: "111111", Status: "delivered"},
		{ID: "P-2", LRNumber: "222222", Status: "delivered"},
	}
	before := make([]domain.ParcelRecord, len(parcels))
	copy(before, parcels)
	rec := record(map[domain.Field]string{domain.FieldDocketNumber: "987654"})

	res := matcher.New().Match("unknown.pdf", rec, parcels)

	assert.False(t, res.Matched)
	assert.Nil(t, res.Parcel)
	assert.NotEmpty(t, res.Reason)
	assert.Equal(t, before, parcels)
}

func TestMatch_ReturnsCopy(t *testing.T) {
	parcels := []domain.ParcelRecord{{ID: "P-1", LRNumber: "503021", Status: "delivered"}}

	res := matcher.New().Match("LR_503021.pdf", nil, parcels)
	require.True(t, res.Matched)
	res.Parcel.Status = "changed"

	assert.Equal(t, "delivered", parcels[0].Status)
}

func TestMatch_NoCandidates(t *testing.T) {
	res := matcher.New().Match("delivery-proof.pdf", record(nil), []domain.ParcelRecord{{ID: "P-1"}})

	assert.False(t, res.Matched)
	assert.Empty(t, res.Candidates)
	assert.Contains(t, res.Reason, "no candidate")
}
