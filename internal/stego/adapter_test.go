package stego

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/srv1n/kurpod/internal/blob"
)

func TestStegoInitUnlockAddGetRoundTrip(t *testing.T) {
	dir := t.TempDir()
	carrierPath := filepath.Join(dir, "carrier.png")
	stegoPath := filepath.Join(dir, "photo.png")
	require.NoError(t, os.WriteFile(carrierPath, buildMinimalPNG(), 0o600))

	carrier := PNGCarrier{}
	require.NoError(t, InitStegoBlob(carrierPath, stegoPath, carrier, "standard-pw", "hidden-pw"))

	// The resulting file must still look like a PNG to a casual sniff.
	outerBytes, err := os.ReadFile(stegoPath)
	require.NoError(t, err)
	require.True(t, carrier.Sniff(outerBytes))

	sess, kind, key, idx, err := UnlockStegoBlob(stegoPath, []Carrier{carrier}, "standard-pw")
	require.NoError(t, err)
	require.Equal(t, blob.Standard, kind)
	defer sess.Close()

	require.NoError(t, sess.AddFile(kind, key, idx, "hello.txt", []byte("hi"), "text/plain"))
	entry, ok := idx["hello.txt"]
	require.True(t, ok)
	got, err := sess.GetFile(key, entry)
	require.NoError(t, err)
	require.Equal(t, []byte("hi"), got)

	// Re-unlocking from the re-embedded outer file must see the same entry.
	sess2, kind2, key2, idx2, err := UnlockStegoBlob(stegoPath, []Carrier{carrier}, "standard-pw")
	require.NoError(t, err)
	defer sess2.Close()
	require.Equal(t, blob.Standard, kind2)
	entry2, ok := idx2["hello.txt"]
	require.True(t, ok)
	got2, err := sess2.GetFile(key2, entry2)
	require.NoError(t, err)
	require.Equal(t, []byte("hi"), got2)
}

func TestStegoUnlockHiddenVolumeDistinctFromStandard(t *testing.T) {
	dir := t.TempDir()
	carrierPath := filepath.Join(dir, "carrier.png")
	stegoPath := filepath.Join(dir, "photo.png")
	require.NoError(t, os.WriteFile(carrierPath, buildMinimalPNG(), 0o600))

	carrier := PNGCarrier{}
	require.NoError(t, InitStegoBlob(carrierPath, stegoPath, carrier, "standard-pw", "hidden-pw"))

	sess, kind, key, idx, err := UnlockStegoBlob(stegoPath, []Carrier{carrier}, "hidden-pw")
	require.NoError(t, err)
	defer sess.Close()
	require.Equal(t, blob.Hidden, kind)
	require.Empty(t, idx)
	require.NoError(t, sess.AddFile(kind, key, idx, "secret.txt", []byte("shh"), "text/plain"))

	// The standard volume must not see the hidden volume's entry.
	sess2, _, _, idx2, err := UnlockStegoBlob(stegoPath, []Carrier{carrier}, "standard-pw")
	require.NoError(t, err)
	defer sess2.Close()
	_, ok := idx2["secret.txt"]
	require.False(t, ok)
}

func TestStegoUnlockBareBlobBackwardsCompat(t *testing.T) {
	dir := t.TempDir()
	barePath := filepath.Join(dir, "bare.kurpod")
	require.NoError(t, blob.InitBlob(barePath, "standard-pw", "hidden-pw"))

	sess, kind, key, idx, err := UnlockStegoBlob(barePath, []Carrier{PNGCarrier{}}, "standard-pw")
	require.NoError(t, err)
	defer sess.Close()
	require.Equal(t, blob.Standard, kind)
	require.NoError(t, sess.AddFile(kind, key, idx, "a.txt", []byte("a"), ""))

	// A bare blob round-trips through the plain blob package directly too.
	_, _, idx2, err := blob.UnlockBlob(barePath, "standard-pw")
	require.NoError(t, err)
	_, ok := idx2["a.txt"]
	require.True(t, ok)
}
