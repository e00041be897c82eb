package parser_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"podrecon/internal/config"
	"podrecon/internal/domain"
	"podrecon/internal/parser"
	"podrecon/internal/port"
	"podrecon/mocks"
)

func TestExtractor_ExtractImage_PDFNotEligible(t *testing.T) {
	backend := new(mocks.MockExtractionBackend)
	ex := parser.NewExtractor(nil, newChain(t, domain.ModalityVision, backend, []string{"v1"}))

	_, err := ex.ExtractImage(context.Background(), domain.RawDocument{FileName: "a.pdf", MediaType: domain.MediaTypePDF})

	assert.ErrorIs(t, err, domain.ErrPDFNotVisionEligible)
	backend.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
}

func TestExtractor_ExtractImage_UnsupportedType(t *testing.T) {
	ex := parser.NewExtractor(nil, nil)

	_, err := ex.ExtractImage(context.Background(), domain.RawDocument{FileName: "a.txt", MediaType: "text/plain"})

	assert.ErrorIs(t, err, domain.ErrUnsupportedFileType)
}

func TestExtractor_ExtractImage_SendsImage(t *testing.T) {
	backend := new(mocks.MockExtractionBackend)
	img := []byte{0x89, 'P', 'N', 'G'}
	backend.On("Complete", mock.Anything, mock.MatchedBy(func(r port.ExtractionRequest) bool {
		return r.Text == "" && string(r.Image) == string(img) && r.MediaType == domain.MediaTypePNG
	})).Return(&port.ExtractionResponse{Text: validJSON}, nil)
	ex := parser.NewExtractor(nil, newChain(t, domain.ModalityVision, backend, []string{"v1"}))

	out, err := ex.ExtractImage(context.Background(), domain.RawDocument{FileName: "a.png", MediaType: domain.MediaTypePNG, Content: img})

	require.NoError(t, err)
	assert.Equal(t, domain.ModalityVision, out.Modality)
	backend.AssertExpectations(t)
}

func TestExtractor_ExtractText(t *testing.T) {
	backend := new(mocks.MockExtractionBackend)
	backend.On("Complete", mock.Anything, mock.MatchedBy(func(r port.ExtractionRequest) bool {
		return r.Text == "DOCKET NUMBER 503021" && r.Image == nil
	})).Return(&port.ExtractionResponse{Text: validJSON}, nil)
	ex := parser.NewExtractor(newChain(t, domain.ModalityText, backend, []string{"t1"}), nil)

	out, err := ex.ExtractText(context.Background(), "DOCKET NUMBER 503021")

	require.NoError(t, err)
	assert.Equal(t, domain.ModalityText, out.Modality)
}

func TestExtractor_MissingChainIsUnavailable(t *testing.T) {
	ex := parser.NewExtractor(nil, nil)

	_, err := ex.ExtractText(context.Background(), "text")
	assert.ErrorIs(t, err, domain.ErrExtractionUnavailable)

	_, err = ex.ExtractImage(context.Background(), domain.RawDocument{MediaType: domain.MediaTypeJPEG})
	assert.ErrorIs(t, err, domain.ErrExtractionUnavailable)
}

func TestExtractor_Preflight(t *testing.T) {
	t.Run("available", func(t *testing.T) {
		backend := new(mocks.MockExtractionBackend)
		backend.On("Complete", mock.Anything, mock.Anything).Return(&port.ExtractionResponse{Text: "OK"}, nil)
		ex := parser.NewExtractor(
			newChain(t, domain.ModalityText, backend, []string{"t1"}),
			newChain(t, domain.ModalityVision, backend, []string{"v1", "v2"}),
		)

		results := ex.Probe(context.Background())
		require.Len(t, results, 3)
		assert.True(t, results[0].Available)
		assert.Equal(t, domain.ModalityVision, results[2].Modality)
		assert.NoError(t, ex.Preflight(context.Background()))
	})

	t.Run("unauthorized", func(t *testing.T) {
		backend := new(mocks.MockExtractionBackend)
		backend.On("Complete", mock.Anything, model("t1")).Return(&port.ExtractionResponse{Text: "OK"}, nil)
		backend.On("Complete", mock.Anything, model("v1")).
			Return(nil, &parser.StatusError{Provider: "claude", StatusCode: 401})
		ex := parser.NewExtractor(
			newChain(t, domain.ModalityText, backend, []string{"t1"}),
			newChain(t, domain.ModalityVision, backend, []string{"v1"}),
		)

		assert.ErrorIs(t, ex.Preflight(context.Background()), domain.ErrConfiguration)
	})

	t.Run("nothing_answers", func(t *testing.T) {
		backend := new(mocks.MockExtractionBackend)
		backend.On("Complete", mock.Anything, mock.Anything).
			Return(nil, &parser.StatusError{Provider: "claude", StatusCode: 503})
		ex := parser.NewExtractor(newChain(t, domain.ModalityText, backend, []string{"t1", "t2"}), nil)

		err := ex.Preflight(context.Background())
		assert.ErrorIs(t, err, domain.ErrConfiguration)
		assert.Contains(t, err.Error(), "none of 2 variant(s) answered")
	})
}

func TestNewExtractorFromConfig(t *testing.T) {
	backend := new(mocks.MockExtractionBackend)
	created := 0
	parser.RegisterProvider("fromconfig", func(*config.ProviderConfig) (port.ExtractionBackend, error) {
		created++
		return backend, nil
	})
	cfg := &config.ExtractionConfig{
		Claude:         config.ProviderConfig{Provider: "fromconfig", APIKey: "k"},
		TextVariants:   []config.Variant{{Provider: "fromconfig", Model: "t1"}},
		VisionVariants: []config.Variant{{Provider: "fromconfig", Model: "v1"}, {Provider: "fromconfig", Model: "v2"}},
		RatePerSecond:  100,
		RateBurst:      10,
	}

	ex, err := parser.NewExtractorFromConfig(cfg)

	require.NoError(t, err)
	assert.Equal(t, 1, created)
	backend.On("Complete", mock.Anything, mock.Anything).Return(&port.ExtractionResponse{Text: "OK"}, nil)
	assert.Len(t, ex.Probe(context.Background()), 3)
}

func TestNewExtractorFromConfig_UnknownVariantProvider(t *testing.T) {
	cfg := &config.ExtractionConfig{
		TextVariants: []config.Variant{{Provider: "mystery", Model: "m"}},
	}

	_, err := parser.NewExtractorFromConfig(cfg)

	assert.ErrorIs(t, err, domain.ErrConfiguration)
}
