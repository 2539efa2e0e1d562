// Package blob implements the fixed-offset, dual-volume encrypted container
// format: a standard volume readable with one password and a hidden volume
// occupying the same file's tail padding, readable only with a second
// password, so the file offers plausible deniability under coercion.
package blob

const (
	// Magic identifies a standard blob header. The hidden header carries no
	// magic of its own — it must be indistinguishable from random padding.
	Magic   = "ENC_BLOB"
	Version = byte(3)

	SaltLen  = 16
	NonceLen = 24 // XChaCha20-Poly1305 extended nonce
	KeyLen   = 32

	headerCommonLen = len(Magic) + 1 // magic + version

	// StandardHeaderLen: magic(8) + version(1) + salt(16) + nonce(24) + size(8).
	StandardHeaderLen = headerCommonLen + SaltLen + NonceLen + 8
	// HiddenHeaderLen: salt(16) + nonce(24) + size(8) — no magic, no version.
	HiddenHeaderLen = SaltLen + NonceLen + 8

	// StandardMetadataOffset is where the standard volume's encrypted
	// metadata block begins, immediately after the standard header.
	StandardMetadataOffset = int64(StandardHeaderLen)

	// HiddenHeaderOffset is a fixed offset deep enough into the file that a
	// standard-size metadata block can never collide with it in practice,
	// and far enough from offset 0 that it reads as plausible padding.
	HiddenHeaderOffset = int64(65536)

	// HiddenMetadataOffset follows directly after the hidden header.
	HiddenMetadataOffset = HiddenHeaderOffset + int64(HiddenHeaderLen)

	// metadataRegionReserve is how much space is reserved for the hidden
	// volume's metadata block (and its surrounding random padding) before
	// the append-only file-data area begins.
	metadataRegionReserve = int64(1) << 20 // 1 MiB

	// DataAreaStartOffset is the first byte offset at which file data
	// blocks (nonce‖ciphertext, appended end-to-end) may be written.
	DataAreaStartOffset = HiddenMetadataOffset + metadataRegionReserve

	// MaxMetadataBlockSize guards readMetadataBlock against treating a
	// corrupt/garbage size field as an allocation request.
	MaxMetadataBlockSize = int64(50) << 20 // 50 MiB
)

// VolumeKind distinguishes the standard (decoy) volume from the hidden one.
type VolumeKind int

const (
	Standard VolumeKind = iota
	Hidden
)

func (k VolumeKind) String() string {
	if k == Hidden {
		return "hidden"
	}
	return "standard"
}
