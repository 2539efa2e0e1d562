package stego

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// buildMinimalJPEG builds SOI + APP0 (JFIF) + EOI, with no actual scan data.
func buildMinimalJPEG() []byte {
	var jpeg []byte
	jpeg = append(jpeg, 0xFF, 0xD8) // SOI
	jpeg = append(jpeg, 0xFF, 0xE0) // APP0
	jpeg = append(jpeg, 0x00, 0x10) // length: 16
	jpeg = append(jpeg, "JFIF\x00"...)
	jpeg = append(jpeg, 0x01, 0x01)
	jpeg = append(jpeg, 0x00)
	jpeg = append(jpeg, 0x00, 0x01, 0x00, 0x01)
	jpeg = append(jpeg, 0x00, 0x00)
	jpeg = append(jpeg, 0xFF, 0xD9) // EOI
	return jpeg
}

func TestJPEGEmbedExtractRoundTrip(t *testing.T) {
	carrier := JPEGCarrier{}
	jpeg := buildMinimalJPEG()
	payload := []byte("hidden message in JPEG!")

	stegoJPEG, err := carrier.Embed(jpeg, payload)
	require.NoError(t, err)
	require.True(t, carrier.Sniff(stegoJPEG))
	require.Equal(t, []byte{0xFF, 0xD8}, stegoJPEG[:2])
	require.Equal(t, []byte{0xFF, 0xD9}, stegoJPEG[len(stegoJPEG)-2:])

	got, err := carrier.Extract(stegoJPEG)
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func TestJPEGIdempotentReembed(t *testing.T) {
	carrier := JPEGCarrier{}
	jpeg := buildMinimalJPEG()

	first, err := carrier.Embed(jpeg, []byte("one"))
	require.NoError(t, err)
	second, err := carrier.Embed(first, []byte("two, a longer payload"))
	require.NoError(t, err)

	fresh, err := carrier.Embed(jpeg, []byte("two, a longer payload"))
	require.NoError(t, err)
	require.Equal(t, len(fresh), len(second))

	got, err := carrier.Extract(second)
	require.NoError(t, err)
	require.Equal(t, []byte("two, a longer payload"), got)
}

func TestJPEGValidation(t *testing.T) {
	carrier := JPEGCarrier{}
	require.True(t, carrier.Sniff(buildMinimalJPEG()))
	require.False(t, carrier.Sniff([]byte("not a jpeg")))
	require.False(t, carrier.Sniff([]byte{0xFF, 0xD8}))
}

func TestJPEGEmbedSplitsAcrossSegments(t *testing.T) {
	carrier := JPEGCarrier{}
	jpeg := buildMinimalJPEG()
	payload := make([]byte, jpegMaxSegmentPayload*2+10)
	for i := range payload {
		payload[i] = byte(i)
	}

	stegoJPEG, err := carrier.Embed(jpeg, payload)
	require.NoError(t, err)

	segments := findStegoSegments(stegoJPEG)
	require.GreaterOrEqual(t, len(segments), 3)

	got, err := carrier.Extract(stegoJPEG)
	require.NoError(t, err)
	require.Equal(t, payload, got)
}
