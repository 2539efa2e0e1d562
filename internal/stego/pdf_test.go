package stego

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// buildMinimalPDF builds a header, a single trivial object, and a trailer
// ending in %%EOF.
func buildMinimalPDF() []byte {
	pdf := "%PDF-1.4\n" +
		"1 0 obj\n<< /Type /Catalog >>\nendobj\n" +
		"trailer\n<< /Root 1 0 R >>\n" +
		"%%EOF\n"
	return []byte(pdf)
}

func TestPDFEmbedExtractRoundTrip(t *testing.T) {
	carrier := PDFCarrier{}
	pdf := buildMinimalPDF()
	payload := []byte("hidden after the trailer")

	stegoPDF, err := carrier.Embed(pdf, payload)
	require.NoError(t, err)
	require.True(t, carrier.Sniff(stegoPDF))

	got, err := carrier.Extract(stegoPDF)
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func TestPDFIdempotentReembed(t *testing.T) {
	carrier := PDFCarrier{}
	pdf := buildMinimalPDF()

	first, err := carrier.Embed(pdf, []byte("one"))
	require.NoError(t, err)
	second, err := carrier.Embed(first, []byte("a rather longer second payload"))
	require.NoError(t, err)

	fresh, err := carrier.Embed(pdf, []byte("a rather longer second payload"))
	require.NoError(t, err)
	require.Equal(t, len(fresh), len(second), "re-embed must strip the prior trailer payload, not stack on top of it")

	got, err := carrier.Extract(second)
	require.NoError(t, err)
	require.Equal(t, []byte("a rather longer second payload"), got)
}

func TestPDFValidation(t *testing.T) {
	carrier := PDFCarrier{}
	require.True(t, carrier.Sniff(buildMinimalPDF()))
	require.False(t, carrier.Sniff([]byte("not a pdf")))
	require.False(t, carrier.Sniff([]byte("%PDF-1.4\nno eof marker here")))
}

func TestPDFExtractNoPayload(t *testing.T) {
	carrier := PDFCarrier{}
	_, err := carrier.Extract(buildMinimalPDF())
	require.ErrorIs(t, err, ErrNoPayload)
}

func TestPDFEmbedRejectsInvalidCarrier(t *testing.T) {
	carrier := PDFCarrier{}
	_, err := carrier.Embed([]byte("not a pdf"), []byte("x"))
	require.ErrorIs(t, err, ErrInvalidCarrier)
}
