package pipeline

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proofledger/internal/ocr"
)

type fakeAcquirer struct {
	result ocr.Result
	calls  int
}

func (f *fakeAcquirer) Extract(context.Context, string) ocr.Result {
	f.calls++
	return f.result
}

const proofText = `Comprovante de transferência PIX
Valor R$ 1.234,56
Data 03/11/2025
Favorecido Nome: JOAO DA SILVA CPF 123.456.789-00
E12345678901234567890ABCDE`

func TestExtractProofFullDocument(t *testing.T) {
	p := New(&fakeAcquirer{result: ocr.Result{Text: proofText, Confidence: 0.95}}, nil)

	res := p.ExtractProof(context.Background(), "/tmp/proof.pdf")
	require.True(t, res.Success)
	require.NotNil(t, res.Value)
	assert.InDelta(t, 1234.56, *res.Value, 0.001)
	require.NotNil(t, res.Date)
	assert.Equal(t, "2025-11-03", *res.Date)
	require.NotNil(t, res.Beneficiary)
	assert.Equal(t, "JOAO DA SILVA", *res.Beneficiary)
	require.NotNil(t, res.EndToEnd)
	assert.Equal(t, "E12345678901234567890ABCDE", *res.EndToEnd)
	assert.InDelta(t, 0.95, float64(res.Confidence), 0.001)
	assert.Empty(t, res.Error)
}

func TestExtractProofSuccessMirrorsValue(t *testing.T) {
	// text with no parseable amount: success must be false even though
	// other fields were found
	text := "Data 03/11/2025\nFavorecido Nome: JOAO DA SILVA CPF 1"
	p := New(&fakeAcquirer{result: ocr.Result{Text: text, Confidence: 0.8}}, nil)

	res := p.ExtractProof(context.Background(), "/tmp/proof.pdf")
	assert.False(t, res.Success)
	assert.Nil(t, res.Value)
	assert.Equal(t, errNoAmount, res.Error)
	require.NotNil(t, res.Date)
	assert.Equal(t, "2025-11-03", *res.Date)
	// field-level misses are not errors
	assert.Nil(t, res.EndToEnd)
}

func TestExtractProofEmptyText(t *testing.T) {
	for _, text := range []string{"", "   \n\t  "} {
		p := New(&fakeAcquirer{result: ocr.Result{Text: text, Confidence: 0.3}}, nil)

		res := p.ExtractProof(context.Background(), "/tmp/proof.png")
		assert.False(t, res.Success)
		assert.Equal(t, errNoText, res.Error)
		assert.Nil(t, res.Value)
		assert.Nil(t, res.Date)
		assert.Nil(t, res.Beneficiary)
		assert.Nil(t, res.EndToEnd)
		assert.Zero(t, res.Confidence)
		assert.Empty(t, res.RawText)
	}
}

func TestExtractProofUnsupportedExtension(t *testing.T) {
	acq := &fakeAcquirer{}
	p := New(acq, nil)

	res := p.ExtractProof(context.Background(), "/tmp/document.docx")
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "unsupported file type")
	assert.Contains(t, res.Error, "docx")
	// acquisition must not even be attempted
	assert.Zero(t, acq.calls)
}

func TestExtractProofTruncatesRawText(t *testing.T) {
	long := "Valor R$ 50,00 " + strings.Repeat("ção ", 300)
	p := New(&fakeAcquirer{result: ocr.Result{Text: long, Confidence: 1}}, nil)

	res := p.ExtractProof(context.Background(), "/tmp/proof.pdf")
	require.True(t, res.Success)
	assert.Equal(t, rawTextLimit, len([]rune(res.RawText)))
	assert.True(t, strings.HasPrefix(long, res.RawText))
}

func TestExtractProofIdempotent(t *testing.T) {
	p := New(&fakeAcquirer{result: ocr.Result{Text: proofText, Confidence: 0.7}}, nil)

	first := p.ExtractProof(context.Background(), "/tmp/proof.pdf")
	second := p.ExtractProof(context.Background(), "/tmp/proof.pdf")
	assert.Equal(t, first, second)
}

type panickyAcquirer struct{}

func (panickyAcquirer) Extract(context.Context, string) ocr.Result {
	panic("backend exploded")
}

func TestExtractProofRecoversPanics(t *testing.T) {
	p := New(panickyAcquirer{}, nil)

	res := p.ExtractProof(context.Background(), "/tmp/proof.pdf")
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "backend exploded")
	assert.Nil(t, res.Value)
}
