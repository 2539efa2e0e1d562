package blob

import (
	"crypto/cipher"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"sort"
)

// FileEntry is the metadata kept for one stored inner path.
type FileEntry struct {
	Size       uint64
	DataOffset uint64
	DataLength uint64
	MimeType   string
}

// MetadataMap is the decrypted index for one volume: inner path -> entry.
type MetadataMap map[string]FileEntry

// serializeMetadata encodes a MetadataMap deterministically: a uint32 entry
// count, then per entry (in ascending key order) a length-prefixed key, three little-endian uint64
// fields, and a length-prefixed MIME type string.
func serializeMetadata(m MetadataMap) []byte {
	size := 4
	for k, v := range m {
		size += 4 + len(k) + 8 + 8 + 8 + 4 + len(v.MimeType)
	}
	buf := make([]byte, size)
	off := 0
	binary.LittleEndian.PutUint32(buf[off:], uint32(len(m)))
	off += 4
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := m[k]
		binary.LittleEndian.PutUint32(buf[off:], uint32(len(k)))
		off += 4
		off += copy(buf[off:], k)
		binary.LittleEndian.PutUint64(buf[off:], v.Size)
		off += 8
		binary.LittleEndian.PutUint64(buf[off:], v.DataOffset)
		off += 8
		binary.LittleEndian.PutUint64(buf[off:], v.DataLength)
		off += 8
		binary.LittleEndian.PutUint32(buf[off:], uint32(len(v.MimeType)))
		off += 4
		off += copy(buf[off:], v.MimeType)
	}
	return buf[:off]
}

// deserializeMetadata is the inverse of serializeMetadata. Any structural
// inconsistency (truncated buffer, an implied length running past the end)
// is reported as ErrCorruption rather than panicking on a malicious or
// bit-flipped block.
func deserializeMetadata(buf []byte) (MetadataMap, error) {
	if len(buf) < 4 {
		return nil, ErrCorruption
	}
	count := binary.LittleEndian.Uint32(buf)
	off := 4
	m := make(MetadataMap, count)
	for i := uint32(0); i < count; i++ {
		if off+4 > len(buf) {
			return nil, ErrCorruption
		}
		keyLen := int(binary.LittleEndian.Uint32(buf[off:]))
		off += 4
		if keyLen < 0 || off+keyLen > len(buf) {
			return nil, ErrCorruption
		}
		key := string(buf[off : off+keyLen])
		off += keyLen
		if off+24 > len(buf) {
			return nil, ErrCorruption
		}
		entry := FileEntry{
			Size:       binary.LittleEndian.Uint64(buf[off:]),
			DataOffset: binary.LittleEndian.Uint64(buf[off+8:]),
			DataLength: binary.LittleEndian.Uint64(buf[off+16:]),
		}
		off += 24
		if off+4 > len(buf) {
			return nil, ErrCorruption
		}
		mimeLen := int(binary.LittleEndian.Uint32(buf[off:]))
		off += 4
		if mimeLen < 0 || off+mimeLen > len(buf) {
			return nil, ErrCorruption
		}
		entry.MimeType = string(buf[off : off+mimeLen])
		off += mimeLen
		m[key] = entry
	}
	return m, nil
}

// readMetadataBlock decrypts and deserializes the metadata block described
// by a header's nonce+size fields. A zero size means the volume holds an
// empty (freshly initialized) index.
func readMetadataBlock(f *os.File, aead cipher.AEAD, offset int64, nonce [NonceLen]byte, size uint64) (MetadataMap, error) {
	if size == 0 {
		return MetadataMap{}, nil
	}
	if size > uint64(MaxMetadataBlockSize) {
		return nil, ErrCorruption
	}
	ciphertext := make([]byte, size)
	if _, err := f.ReadAt(ciphertext, offset); err != nil {
		return nil, fmt.Errorf("%w: read metadata block: %v", ErrIO, err)
	}
	plaintext, err := aead.Open(nil, nonce[:], ciphertext, nil)
	if err != nil {
		return nil, errDecrypt
	}
	m, err := deserializeMetadata(plaintext)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// writeMetadataBlock encrypts and writes a fresh metadata block at offset,
// with a freshly generated nonce, and returns that nonce and the
// ciphertext's length so the caller can rewrite the header's metadata
// fields to match.
func writeMetadataBlock(f *os.File, aead cipher.AEAD, offset int64, m MetadataMap) ([NonceLen]byte, uint64, error) {
	nonce, err := generateNonce()
	if err != nil {
		return nonce, 0, err
	}
	plaintext := serializeMetadata(m)
	ciphertext := aead.Seal(nil, nonce[:], plaintext, nil)
	if _, err := f.WriteAt(ciphertext, offset); err != nil {
		return nonce, 0, fmt.Errorf("%w: write metadata block: %v", ErrIO, err)
	}
	if err := syncData(f); err != nil {
		return nonce, 0, err
	}
	return nonce, uint64(len(ciphertext)), nil
}

// errDecrypt is an unexported sentinel: it never escapes this package.
// UnlockBlob in volume.go collapses it (and every other unlock failure mode) into the
// single ErrInvalidPassword so a caller can never distinguish "wrong
// password" from "corrupted volume" from "this volume doesn't exist".
var errDecrypt = errors.New("metadata decryption failed")
