package blob

import (
	"crypto/cipher"
	"fmt"
	"os"
)

// appendFileData writes content as an encrypted nonce‖ciphertext block at
// the end of the append-only data area, padding with random bytes first if
// the file hasn't reached DataAreaStartOffset yet (InitBlob already extends
// every new blob to that offset). It returns the FileEntry describing where
// the block landed.
func appendFileData(f *os.File, aead cipher.AEAD, content []byte, mimeType string) (FileEntry, error) {
	stat, err := f.Stat()
	if err != nil {
		return FileEntry{}, fmt.Errorf("%w: stat for append: %v", ErrIO, err)
	}
	offset := stat.Size()
	if offset < DataAreaStartOffset {
		pad, err := randomBytes(int(DataAreaStartOffset - offset))
		if err != nil {
			return FileEntry{}, err
		}
		if _, err := f.WriteAt(pad, offset); err != nil {
			return FileEntry{}, fmt.Errorf("%w: pad to data area: %v", ErrIO, err)
		}
		offset = DataAreaStartOffset
	}

	nonce, err := generateNonce()
	if err != nil {
		return FileEntry{}, err
	}
	ciphertext := aead.Seal(nil, nonce[:], content, nil)

	block := make([]byte, 0, NonceLen+len(ciphertext))
	block = append(block, nonce[:]...)
	block = append(block, ciphertext...)
	if _, err := f.WriteAt(block, offset); err != nil {
		return FileEntry{}, fmt.Errorf("%w: append file data: %v", ErrIO, err)
	}
	if err := syncData(f); err != nil {
		return FileEntry{}, err
	}

	return FileEntry{
		Size:       uint64(len(content)),
		DataOffset: uint64(offset),
		DataLength: uint64(len(block)),
		MimeType:   mimeType,
	}, nil
}

// readFileData decrypts the data block an entry points at.
func readFileData(f *os.File, aead cipher.AEAD, entry FileEntry) ([]byte, error) {
	if entry.DataLength < NonceLen {
		return nil, ErrCorruption
	}
	block := make([]byte, entry.DataLength)
	if _, err := f.ReadAt(block, int64(entry.DataOffset)); err != nil {
		return nil, fmt.Errorf("%w: read file data: %v", ErrIO, err)
	}
	var nonce [NonceLen]byte
	copy(nonce[:], block[:NonceLen])
	plaintext, err := aead.Open(nil, nonce[:], block[NonceLen:], nil)
	if err != nil {
		return nil, ErrCorruption
	}
	return plaintext, nil
}
