package stego

import (
	"encoding/binary"
	"hash/crc32"
	"testing"

	"github.com/stretchr/testify/require"
)

// buildMinimalPNG hand-builds a 1x1 grayscale PNG.
func buildMinimalPNG() []byte {
	png := append([]byte{}, pngSignature[:]...)

	ihdr := []byte{
		0x00, 0x00, 0x00, 0x01, // width: 1
		0x00, 0x00, 0x00, 0x01, // height: 1
		0x08, // bit depth
		0x00, // color type: grayscale
		0x00, // compression
		0x00, // filter
		0x00, // interlace
	}
	png = appendPNGChunk(png, "IHDR", ihdr)

	idat := []byte{0x78, 0x9c, 0x62, 0x00, 0x00, 0x00, 0x02, 0x00, 0x01}
	png = appendPNGChunk(png, "IDAT", idat)

	png = appendPNGChunk(png, "IEND", nil)
	return png
}

func appendPNGChunk(out []byte, typ string, data []byte) []byte {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(data)))
	out = append(out, lenBuf[:]...)
	out = append(out, typ...)
	out = append(out, data...)
	h := crc32.NewIEEE()
	h.Write([]byte(typ))
	h.Write(data)
	var crcBuf [4]byte
	binary.BigEndian.PutUint32(crcBuf[:], h.Sum32())
	return append(out, crcBuf[:]...)
}

func TestPNGEmbedExtractRoundTrip(t *testing.T) {
	carrier := PNGCarrier{}
	png := buildMinimalPNG()
	payload := []byte("hello, steganography!")

	stegoPNG, err := carrier.Embed(png, payload)
	require.NoError(t, err)
	require.True(t, carrier.Sniff(stegoPNG))

	got, err := carrier.Extract(stegoPNG)
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func TestPNGIdempotentReembedDoesNotGrowUnbounded(t *testing.T) {
	carrier := PNGCarrier{}
	png := buildMinimalPNG()

	first, err := carrier.Embed(png, []byte("payload one"))
	require.NoError(t, err)

	second, err := carrier.Embed(first, []byte("payload two, a bit longer"))
	require.NoError(t, err)

	got, err := carrier.Extract(second)
	require.NoError(t, err)
	require.Equal(t, []byte("payload two, a bit longer"), got)

	// Re-embedding must strip the prior payload, not stack alongside it:
	// the result should not be drastically larger than a single embed of
	// the same final payload into the original carrier.
	fresh, err := carrier.Embed(png, []byte("payload two, a bit longer"))
	require.NoError(t, err)
	require.Equal(t, len(fresh), len(second))
}

func TestPNGEmbedSplitsAcrossMultipleChunks(t *testing.T) {
	carrier := PNGCarrier{}
	png := buildMinimalPNG()
	payload := make([]byte, pngMaxChunkSize*2+10)
	for i := range payload {
		payload[i] = byte(i)
	}

	stegoPNG, err := carrier.Embed(png, payload)
	require.NoError(t, err)

	chunks, ok := walkPNGChunks(stegoPNG)
	require.True(t, ok)
	var ruNdCount int
	for _, c := range chunks {
		if c.typ == pngChunkType {
			ruNdCount++
		}
	}
	require.GreaterOrEqual(t, ruNdCount, 3)

	got, err := carrier.Extract(stegoPNG)
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func TestPNGCapacityZeroForInvalidCarrier(t *testing.T) {
	carrier := PNGCarrier{}
	require.Equal(t, 0, carrier.Capacity([]byte("not a png")))
	_, err := carrier.Embed([]byte("not a png"), []byte("x"))
	require.ErrorIs(t, err, ErrInvalidCarrier)
}

func TestPNGExtractNoPayload(t *testing.T) {
	carrier := PNGCarrier{}
	_, err := carrier.Extract(buildMinimalPNG())
	require.ErrorIs(t, err, ErrNoPayload)
}
