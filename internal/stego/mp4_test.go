package stego

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// buildMinimalMP4 builds a minimal ftyp box followed by a tiny moov box,
// enough to pass Sniff.
func buildMinimalMP4() []byte {
	var mp4 []byte
	mp4 = append(mp4, 0x00, 0x00, 0x00, 0x14) // box size: 20
	mp4 = append(mp4, "ftyp"...)
	mp4 = append(mp4, "isom"...)
	mp4 = append(mp4, 0x00, 0x00, 0x00, 0x00)
	mp4 = append(mp4, "isom"...)
	mp4 = append(mp4, 0x00, 0x00, 0x00, 0x08) // moov box size: 8
	mp4 = append(mp4, "moov"...)
	return mp4
}

func TestMP4EmbedExtractRoundTrip(t *testing.T) {
	carrier := MP4Carrier{}
	mp4 := buildMinimalMP4()
	payload := []byte("hidden in a free box")

	stegoMP4, err := carrier.Embed(mp4, payload)
	require.NoError(t, err)
	require.True(t, carrier.Sniff(stegoMP4))
	require.Equal(t, mp4, stegoMP4[:len(mp4)], "original boxes must survive untouched before the appended free box")

	got, err := carrier.Extract(stegoMP4)
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func TestMP4IdempotentReembed(t *testing.T) {
	carrier := MP4Carrier{}
	mp4 := buildMinimalMP4()

	first, err := carrier.Embed(mp4, []byte("one"))
	require.NoError(t, err)
	second, err := carrier.Embed(first, []byte("a rather longer second payload"))
	require.NoError(t, err)

	fresh, err := carrier.Embed(mp4, []byte("a rather longer second payload"))
	require.NoError(t, err)
	require.Equal(t, len(fresh), len(second), "re-embed must strip the prior free box, not stack a second one")

	got, err := carrier.Extract(second)
	require.NoError(t, err)
	require.Equal(t, []byte("a rather longer second payload"), got)
}

func TestMP4Validation(t *testing.T) {
	carrier := MP4Carrier{}
	require.True(t, carrier.Sniff(buildMinimalMP4()))
	require.False(t, carrier.Sniff([]byte("not an mp4 at all, just plain text")))
	require.Equal(t, 0, carrier.Capacity([]byte("nope")))
}

func TestMP4ExtractNoPayload(t *testing.T) {
	carrier := MP4Carrier{}
	_, err := carrier.Extract(buildMinimalMP4())
	require.ErrorIs(t, err, ErrNoPayload)
}

func TestMP4EmbedRejectsInvalidCarrier(t *testing.T) {
	carrier := MP4Carrier{}
	_, err := carrier.Embed([]byte("not an mp4 at all, just plain text"), []byte("x"))
	require.ErrorIs(t, err, ErrInvalidCarrier)
}
