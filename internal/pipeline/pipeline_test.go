package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"podrecon/internal/config"
	"podrecon/internal/domain"
	"podrecon/internal/parser"
	"podrecon/internal/pipeline"
	"podrecon/internal/port"
	"podrecon/internal/textparse"
	"podrecon/mocks"
)

const lrSlipText = "DOCKET NUMBER 503021 CONSIGNEE ACME TRADERS Signature Present"

type fixture struct {
	text    *mocks.MockTextExtractor
	backend *mocks.MockExtractionBackend
	pipe    *pipeline.Pipeline
}

func model(name string) interface{} {
	return mock.MatchedBy(func(r port.ExtractionRequest) bool { return r.Model == name })
}

func newFixture(t *testing.T, opts ...pipeline.Option) *fixture {
	t.Helper()
	decoder, err := parser.NewDecoder(domain.PODSchema)
	require.NoError(t, err)

	backend := new(mocks.MockExtractionBackend)
	bind := func(models ...string) []parser.Binding {
		out := make([]parser.Binding, len(models))
		for i, m := range models {
			out[i] = parser.Binding{Variant: config.Variant{Provider: "claude", Model: m}, Backend: backend}
		}
		return out
	}
	ex := parser.NewExtractor(
		parser.NewChain(domain.ModalityText, bind("text-1", "text-2"), decoder),
		parser.NewChain(domain.ModalityVision, bind("vision-1", "vision-2", "vision-3"), decoder),
	)
	text := new(mocks.MockTextExtractor)
	return &fixture{
		text:    text,
		backend: backend,
		pipe:    pipeline.New(text, ex, textparse.NewParser(), opts...),
	}
}

func pdfDoc(name, content string) domain.RawDocument {
	return domain.RawDocument{FileName: name, MediaType: domain.MediaTypePDF, Content: []byte(content)}
}

func imageDoc(name string) domain.RawDocument {
	return domain.RawDocument{FileName: name, MediaType: domain.MediaTypeJPEG, Content: []byte{0xFF, 0xD8, 0xFF}}
}

func testParcels() []domain.ParcelRecord {
	return []domain.ParcelRecord{
		{ID: "P-1", LRNumber: "777777", OrderID: "ORD-1", Status: "delivered"},
		{ID: "P-2", LRNumber: "503021", OrderID: "ORD-2", Status: "delivered"},
	}
}

func TestProcessDocument_PDFMatchedByFilename(t *testing.T) {
	f := newFixture(t)
	f.text.On("Extract", mock.Anything, []byte("pdf-1")).Return(lrSlipText, nil)
	f.backend.On("Complete", mock.Anything, mock.MatchedBy(func(r port.ExtractionRequest) bool {
		return r.Model == "text-1" && r.Text == lrSlipText && r.Image == nil
	})).Return(&port.ExtractionResponse{Text: `{"docketNumber":"503021","signatureStatus":"Signature Present"}`}, nil)

	out, err := f.pipe.ProcessDocument(context.Background(), pdfDoc("LR_503021.pdf", "pdf-1"), testParcels())

	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeMatched, out.Status)
	assert.Equal(t, domain.ModalityText, out.Modality)
	assert.Equal(t, "503021", out.Record.Value(domain.FieldDocketNumber))
	assert.Equal(t, domain.SignaturePresent, out.Record.Value(domain.FieldSignatureStatus))
	require.NotNil(t, out.Match)
	require.NotNil(t, out.Match.Parcel)
	assert.Equal(t, "P-2", out.Match.Parcel.ID)
	assert.Equal(t, domain.SourceFilename, out.Match.MatchedOn.Source)
	assert.Equal(t, "503021", out.Match.MatchedOn.Value)
	assert.Empty(t, out.ErrorKind)
}

func TestProcessDocument_NoTextLayerNeverUsesVision(t *testing.T) {
	f := newFixture(t)
	f.text.On("Extract", mock.Anything, mock.Anything).
		Return("", fmt.Errorf("pdftext: 1 page(s) without text: %w", domain.ErrNoExtractableText))

	out, err := f.pipe.ProcessDocument(context.Background(), pdfDoc("scan.pdf", "img-only"), testParcels())

	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeFailed, out.Status)
	assert.Equal(t, domain.ErrorKindNoExtractableText, out.ErrorKind)
	assert.Equal(t, domain.ErrorKindNoExtractableText.Hint(), out.Hint)
	assert.Equal(t, "scan.pdf", out.FileName)
	assert.Nil(t, out.Record)
	f.backend.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
}

func TestProcessDocument_AllVisionVariantsFail(t *testing.T) {
	f := newFixture(t)
	f.backend.On("Complete", mock.Anything, mock.Anything).
		Return(nil, &parser.StatusError{Provider: "claude", StatusCode: 529, Body: "overloaded"})

	out, err := f.pipe.ProcessDocument(context.Background(), imageDoc("slip.jpg"), testParcels())

	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeFailed, out.Status)
	assert.Equal(t, domain.ErrorKindExtractionUnavailable, out.ErrorKind)
	assert.Equal(t, domain.ModalityVision, out.Modality)
	assert.Nil(t, out.Record)
	assert.Nil(t, out.Match)
	require.Len(t, out.Attempts, 3)
	for _, a := range out.Attempts {
		assert.Equal(t, domain.BackendVisionModel, a.Backend)
	}
	f.backend.AssertNotCalled(t, "Complete", mock.Anything, model("text-1"))
}

func TestProcessDocument_RegexFallbackOnUnparsedResponse(t *testing.T) {
	f := newFixture(t)
	f.backend.On("Complete", mock.Anything, model("vision-1")).
		Return(&port.ExtractionResponse{Text: "Eway Bill EWB998877"}, nil)

	out, err := f.pipe.ProcessDocument(context.Background(), imageDoc("scan_0001.jpg"), testParcels())

	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeUnmatched, out.Status)
	assert.Equal(t, "EWB998877", out.Record.Value(domain.FieldEwayBillNumber))
	assert.Equal(t, 1, out.Record.KnownCount())
	for _, name := range domain.PODSchema.Names() {
		if name != domain.FieldEwayBillNumber {
			assert.False(t, out.Record.Known(name), "field %s", name)
		}
	}
	last := out.Attempts[len(out.Attempts)-1]
	assert.Equal(t, domain.BackendRegexFallback, last.Backend)
	assert.Equal(t, domain.AttemptSuccess, last.Outcome)
	f.backend.AssertNotCalled(t, "Complete", mock.Anything, model("vision-2"))
}

func TestProcessDocument_NoMatchLeavesParcelsUnchanged(t *testing.T) {
	f := newFixture(t)
	parcels := testParcels()
	before := testParcels()
	f.backend.On("Complete", mock.Anything, model("vision-1")).
		Return(&port.ExtractionResponse{Text: `{"docketNumber":"99887766","receiverName":"Ravi"}`}, nil)

	out, err := f.pipe.ProcessDocument(context.Background(), imageDoc("delivery.jpg"), parcels)

	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeUnmatched, out.Status)
	assert.False(t, out.Match.Matched)
	assert.Nil(t, out.Match.Parcel)
	assert.Contains(t, out.Match.Reason, "99887766")
	assert.Equal(t, before, parcels)
}

func TestProcessDocument_RegexNeverRunsAfterSuccessfulParse(t *testing.T) {
	decoder, err := parser.NewDecoder(domain.PODSchema)
	require.NoError(t, err)
	backend := new(mocks.MockExtractionBackend)
	backend.On("Complete", mock.Anything, mock.Anything).
		Return(&port.ExtractionResponse{Text: `{"docketNumber":"503021"}`}, nil)
	fallback := new(mocks.MockRawTextParser)
	ex := parser.NewExtractor(nil, parser.NewChain(domain.ModalityVision,
		[]parser.Binding{{Variant: config.Variant{Provider: "claude", Model: "v"}, Backend: backend}}, decoder))

	out, err := pipeline.New(new(mocks.MockTextExtractor), ex, fallback).
		ProcessDocument(context.Background(), imageDoc("a.jpg"), nil)

	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeUnmatched, out.Status)
	fallback.AssertNotCalled(t, "Parse", mock.Anything)
}

func TestProcessDocument_SnakeCaseResponseKeepsEveryField(t *testing.T) {
	decoder, err := parser.NewDecoder(domain.PODSchema)
	require.NoError(t, err)
	backend := new(mocks.MockExtractionBackend)
	backend.On("Complete", mock.Anything, mock.Anything).Return(&port.ExtractionResponse{
		Text: `{"docket_number":"503021","receiver_address":"12 MG Road, Pune 411001","number_of_boxes":3,"signature_status":"Signature Present"}`,
	}, nil)
	fallback := new(mocks.MockRawTextParser)
	ex := parser.NewExtractor(nil, parser.NewChain(domain.ModalityVision,
		[]parser.Binding{{Variant: config.Variant{Provider: "claude", Model: "v"}, Backend: backend}}, decoder))

	out, err := pipeline.New(new(mocks.MockTextExtractor), ex, fallback).
		ProcessDocument(context.Background(), imageDoc("slip.jpg"), testParcels())

	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeMatched, out.Status)
	assert.Equal(t, "503021", out.Record.Value(domain.FieldDocketNumber))
	assert.Equal(t, "12 MG Road, Pune 411001", out.Record.Value(domain.FieldReceiverAddress))
	assert.Equal(t, "3", out.Record.Value(domain.FieldNumberOfBoxes))
	assert.Equal(t, domain.SignaturePresent, out.Record.Value(domain.FieldSignatureStatus))
	fallback.AssertNotCalled(t, "Parse", mock.Anything)
}

func TestProcessDocument_RegexFallsBackToSourceText(t *testing.T) {
	f := newFixture(t)
	f.text.On("Extract", mock.Anything, mock.Anything).Return("Eway Bill EWB998877", nil)
	f.backend.On("Complete", mock.Anything, model("text-1")).
		Return(&port.ExtractionResponse{Text: "unreadable"}, nil)

	out, err := f.pipe.ProcessDocument(context.Background(), pdfDoc("x.pdf", "pdf"), nil)

	require.NoError(t, err)
	assert.Equal(t, "EWB998877", out.Record.Value(domain.FieldEwayBillNumber))
}

func TestProcessDocument_EmptyExtraction(t *testing.T) {
	f := newFixture(t)
	f.backend.On("Complete", mock.Anything, model("vision-1")).
		Return(&port.ExtractionResponse{Text: `{"docketNumber":null,"receiverName":"N/A"}`}, nil)

	out, err := f.pipe.ProcessDocument(context.Background(), imageDoc("blank.jpg"), testParcels())

	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeFailed, out.Status)
	assert.Equal(t, domain.ErrorKindEmptyExtraction, out.ErrorKind)
	assert.Nil(t, out.Record)
	assert.NotEmpty(t, out.Attempts)
}

func TestProcessDocument_UnsupportedMediaType(t *testing.T) {
	f := newFixture(t)

	out, err := f.pipe.ProcessDocument(context.Background(),
		domain.RawDocument{FileName: "notes.txt", MediaType: "text/plain"}, nil)

	require.NoError(t, err)
	assert.Equal(t, domain.ErrorKindUnsupportedMediaType, out.ErrorKind)
	f.text.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything)
}

func TestProcessDocument_ConfigurationErrorIsFatal(t *testing.T) {
	f := newFixture(t)
	f.backend.On("Complete", mock.Anything, mock.Anything).
		Return(nil, &parser.StatusError{Provider: "claude", StatusCode: 401})

	_, err := f.pipe.ProcessDocument(context.Background(), imageDoc("a.jpg"), nil)

	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestProcessBatch_OutcomesInInputOrder(t *testing.T) {
	f := newFixture(t, pipeline.WithWorkers(3))
	f.text.On("Extract", mock.Anything, []byte("pdf-1")).Return(lrSlipText, nil)
	f.backend.On("Complete", mock.Anything, model("text-1")).
		Return(&port.ExtractionResponse{Text: `{"docketNumber":"503021"}`}, nil)
	f.backend.On("Complete", mock.Anything, model("vision-1")).
		Return(&port.ExtractionResponse{Text: `{"docketNumber":"11112222"}`}, nil)

	docs := []domain.RawDocument{
		pdfDoc("LR_503021.pdf", "pdf-1"),
		imageDoc("photo.jpg"),
		{FileName: "readme.txt", MediaType: "text/plain"},
	}
	outcomes, err := f.pipe.ProcessBatch(context.Background(), docs, testParcels())

	require.NoError(t, err)
	require.Len(t, outcomes, 3)
	for i, o := range outcomes {
		assert.Equal(t, i, o.Position)
		assert.Equal(t, docs[i].FileName, o.FileName)
	}
	assert.Equal(t, domain.OutcomeMatched, outcomes[0].Status)
	assert.Equal(t, domain.OutcomeUnmatched, outcomes[1].Status)
	assert.Equal(t, domain.OutcomeFailed, outcomes[2].Status)
}

func TestProcessBatch_ConfigurationErrorAbortsBatch(t *testing.T) {
	f := newFixture(t, pipeline.WithWorkers(1))
	f.backend.On("Complete", mock.Anything, mock.Anything).
		Return(nil, &parser.StatusError{Provider: "claude", StatusCode: 401})

	outcomes, err := f.pipe.ProcessBatch(context.Background(),
		[]domain.RawDocument{imageDoc("a.jpg"), imageDoc("b.jpg")}, testParcels())

	assert.ErrorIs(t, err, domain.ErrConfiguration)
	assert.Nil(t, outcomes)
}

func TestProcessBatch_PreflightFailureProcessesNothing(t *testing.T) {
	f := newFixture(t, pipeline.WithPreflight(true))
	f.backend.On("Complete", mock.Anything, mock.Anything).
		Return(nil, &parser.StatusError{Provider: "claude", StatusCode: 401})

	outcomes, err := f.pipe.ProcessBatch(context.Background(),
		[]domain.RawDocument{pdfDoc("a.pdf", "pdf")}, testParcels())

	assert.ErrorIs(t, err, domain.ErrConfiguration)
	assert.Nil(t, outcomes)
	f.text.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything)
}

func TestProcessBatch_PreflightPasses(t *testing.T) {
	f := newFixture(t, pipeline.WithPreflight(true))
	f.backend.On("Complete", mock.Anything, mock.MatchedBy(func(r port.ExtractionRequest) bool {
		return r.Text == "" && r.Image == nil
	})).Return(&port.ExtractionResponse{Text: "OK"}, nil)
	f.backend.On("Complete", mock.Anything, model("vision-1")).
		Return(&port.ExtractionResponse{Text: `{"docketNumber":"503021"}`}, nil)

	outcomes, err := f.pipe.ProcessBatch(context.Background(), []domain.RawDocument{imageDoc("LR_503021.jpg")}, testParcels())

	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, domain.OutcomeMatched, outcomes[0].Status)
}

func TestProcessBatch_Cancelled(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcomes, err := f.pipe.ProcessBatch(ctx, []domain.RawDocument{imageDoc("a.jpg")}, nil)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, outcomes)
	f.backend.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
}

func TestProcessBatch_Empty(t *testing.T) {
	outcomes, err := newFixture(t).pipe.ProcessBatch(context.Background(), nil, nil)

	require.NoError(t, err)
	assert.Empty(t, outcomes)
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want domain.ErrorKind
	}{
		{nil, domain.ErrorKindNone},
		{fmt.Errorf("wrap: %w", domain.ErrNoExtractableText), domain.ErrorKindNoExtractableText},
		{domain.ErrPDFNotVisionEligible, domain.ErrorKindNoExtractableText},
		{&parser.UnavailableError{Modality: domain.ModalityText}, domain.ErrorKindExtractionUnavailable},
		{domain.ErrEmptyExtraction, domain.ErrorKindEmptyExtraction},
		{domain.ErrUnsupportedFileType, domain.ErrorKindUnsupportedMediaType},
		{errors.New("boom"), domain.ErrorKindInternal},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, pipeline.KindOf(tt.err))
	}
}
