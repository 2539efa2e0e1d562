package blob

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "blob")

// InitBlob creates a fresh container at path with two independent volumes:
// a standard volume unlocked by standardPassword and a hidden volume
// unlocked by hiddenPassword. The two passwords must differ, or a coerced
// disclosure of one password would also disclose the other's existence.
func InitBlob(path, standardPassword, hiddenPassword string) error {
	if standardPassword == hiddenPassword {
		return ErrConflictingPasswords
	}
	return withLock(path, func() error {
		return initBlobLocked(path, standardPassword, hiddenPassword)
	})
}

func initBlobLocked(path, standardPassword, hiddenPassword string) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("%w: create blob: %v", ErrIO, err)
	}

	standardSalt, err := generateSalt()
	if err != nil {
		f.Close()
		return err
	}
	hiddenSalt, err := distinctSalt(standardSalt)
	if err != nil {
		f.Close()
		return err
	}

	standardKey := deriveKey(standardPassword, standardSalt)
	hiddenKey := deriveKey(hiddenPassword, hiddenSalt)

	standardAEAD, err := newAEAD(standardKey)
	if err != nil {
		f.Close()
		return err
	}
	hiddenAEAD, err := newAEAD(hiddenKey)
	if err != nil {
		f.Close()
		return err
	}

	// Write empty metadata blocks first so the real nonce/size land in the
	// headers on the first pass — no placeholder-then-rewrite two-step.
	stdNonce, stdSize, err := writeMetadataBlock(f, standardAEAD, StandardMetadataOffset, MetadataMap{})
	if err != nil {
		f.Close()
		return err
	}
	hidNonce, hidSize, err := writeMetadataBlock(f, hiddenAEAD, HiddenMetadataOffset, MetadataMap{})
	if err != nil {
		f.Close()
		return err
	}

	var stdSaltArr, hidSaltArr [SaltLen]byte
	copy(stdSaltArr[:], standardSalt)
	copy(hidSaltArr[:], hiddenSalt)

	if err := writeFullStandardHeader(f, &standardHeaderInfo{
		Salt: stdSaltArr, MetadataNonce: stdNonce, MetadataSize: stdSize,
	}); err != nil {
		f.Close()
		return err
	}
	if err := writeFullHiddenHeader(f, &hiddenHeaderInfo{
		Salt: hidSaltArr, MetadataNonce: hidNonce, MetadataSize: hidSize,
	}); err != nil {
		f.Close()
		return err
	}

	// Fill the gap between the standard metadata's ciphertext and the
	// hidden header's fixed offset with random padding so the hidden
	// region never stands out as a suspicious run of zero bytes.
	gapStart := StandardMetadataOffset + int64(stdSize)
	if gapStart < HiddenHeaderOffset {
		pad, err := randomBytes(int(HiddenHeaderOffset - gapStart))
		if err != nil {
			f.Close()
			return err
		}
		if _, err := f.WriteAt(pad, gapStart); err != nil {
			f.Close()
			return fmt.Errorf("%w: write inter-volume padding: %v", ErrIO, err)
		}
	}

	// Likewise fill from the end of the hidden metadata ciphertext up to the
	// data area start, which also extends the file to DataAreaStartOffset.
	tailStart := HiddenMetadataOffset + int64(hidSize)
	if tailStart < DataAreaStartOffset {
		pad, err := randomBytes(int(DataAreaStartOffset - tailStart))
		if err != nil {
			f.Close()
			return err
		}
		if _, err := f.WriteAt(pad, tailStart); err != nil {
			f.Close()
			return fmt.Errorf("%w: write hidden metadata padding: %v", ErrIO, err)
		}
	}

	if err := f.Truncate(DataAreaStartOffset); err != nil {
		f.Close()
		return fmt.Errorf("%w: extend to data area: %v", ErrIO, err)
	}

	log.WithField("path", path).Debug("initialized blob with standard and hidden volumes")
	return finalizeWrite(path, f)
}

func distinctSalt(other []byte) ([]byte, error) {
	for {
		salt, err := generateSalt()
		if err != nil {
			return nil, err
		}
		if !bytesEqual(salt, other) {
			return salt, nil
		}
	}
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// UnlockBlob tries the given password against the standard volume and
// returns at once if it matches; otherwise it always attempts the hidden
// volume too, so every failed unlock runs both attempts and returns the same
// ErrInvalidPassword whichever step failed.
// On success it returns which volume unlocked, the derived key (needed by
// subsequent calls), and that volume's decrypted index.
func UnlockBlob(path, password string) (VolumeKind, [KeyLen]byte, MetadataMap, error) {
	var zeroKey [KeyLen]byte
	f, err := os.Open(path)
	if err != nil {
		return Standard, zeroKey, nil, fmt.Errorf("%w: open blob: %v", ErrIO, err)
	}
	defer f.Close()

	stdHeader, stdErr := readStandardHeader(f)
	if stdErr == nil {
		key := deriveKey(password, stdHeader.Salt[:])
		aead, aeadErr := newAEAD(key)
		if aeadErr == nil {
			if idx, err := readMetadataBlock(f, aead, StandardMetadataOffset, stdHeader.MetadataNonce, stdHeader.MetadataSize); err == nil {
				log.Debug("unlock attempt succeeded")
				return Standard, key, idx, nil
			}
		}
	}
	log.Debug("standard volume attempt did not match, trying hidden volume")

	hidHeader, hidErr := readHiddenHeader(f)
	if hidErr == nil {
		key := deriveKey(password, hidHeader.Salt[:])
		aead, aeadErr := newAEAD(key)
		if aeadErr == nil {
			if idx, err := readMetadataBlock(f, aead, HiddenMetadataOffset, hidHeader.MetadataNonce, hidHeader.MetadataSize); err == nil {
				log.Debug("unlock attempt succeeded")
				return Hidden, key, idx, nil
			}
		}
	}

	log.Debug("unlock attempt failed for both volumes")
	return Standard, zeroKey, nil, ErrInvalidPassword
}

// reopenForWrite opens path read-write for a mutating operation, a step
// every Add/Remove/Rename/RemoveFolder call repeats independently since
// this package never keeps a file handle open between calls.
func reopenForWrite(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("%w: reopen blob for write: %v", ErrIO, err)
	}
	return f, nil
}

func metadataOffset(kind VolumeKind) int64 {
	if kind == Hidden {
		return HiddenMetadataOffset
	}
	return StandardMetadataOffset
}

// commitIndex rewrites a volume's metadata block and header in place: write
// the new block, sync; update the header's nonce/size fields, sync; then do
// the final full sync (and, on iOS, the reopen-resync workaround).
func commitIndex(path string, kind VolumeKind, key [KeyLen]byte, index MetadataMap) error {
	f, err := reopenForWrite(path)
	if err != nil {
		return err
	}
	aead, err := newAEAD(key)
	if err != nil {
		f.Close()
		return err
	}
	nonce, size, err := writeMetadataBlock(f, aead, metadataOffset(kind), index)
	if err != nil {
		f.Close()
		return err
	}
	if err := updateHeaderMetadata(f, kind, nonce, size); err != nil {
		f.Close()
		return err
	}
	return finalizeWrite(path, f)
}

// AddFile stores content under innerPath in the given volume, mutating
// index in place and persisting the new metadata block + header.
func AddFile(path string, kind VolumeKind, key [KeyLen]byte, index MetadataMap, innerPath string, content []byte, mimeType string) error {
	return withLock(path, func() error {
		f, err := reopenForWrite(path)
		if err != nil {
			return err
		}
		aead, err := newAEAD(key)
		if err != nil {
			f.Close()
			return err
		}
		entry, err := appendFileData(f, aead, content, mimeType)
		if err != nil {
			f.Close()
			return err
		}
		f.Close()

		index[innerPath] = entry
		log.WithFields(logrus.Fields{"path": innerPath, "size": entry.Size}).Debug("added file")
		return commitIndex(path, kind, key, index)
	})
}

// GetFile returns the decrypted content of an already-looked-up entry.
func GetFile(path string, key [KeyLen]byte, entry FileEntry) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open for read: %v", ErrIO, err)
	}
	defer f.Close()
	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}
	return readFileData(f, aead, entry)
}

// RemoveFile deletes innerPath's metadata entry (the underlying data block
// is reclaimed only by a later Compact). Returns false if it wasn't present.
func RemoveFile(path string, kind VolumeKind, key [KeyLen]byte, index MetadataMap, innerPath string) (bool, error) {
	if _, ok := index[innerPath]; !ok {
		return false, nil
	}
	err := withLock(path, func() error {
		delete(index, innerPath)
		log.WithField("path", innerPath).Debug("removed file")
		return commitIndex(path, kind, key, index)
	})
	return err == nil, err
}

// RenameFile moves an entry from oldPath to newPath within the same index.
// Returns false if oldPath wasn't present.
func RenameFile(path string, kind VolumeKind, key [KeyLen]byte, index MetadataMap, oldPath, newPath string) (bool, error) {
	entry, ok := index[oldPath]
	if !ok {
		return false, nil
	}
	err := withLock(path, func() error {
		delete(index, oldPath)
		index[newPath] = entry
		log.WithFields(logrus.Fields{"from": oldPath, "to": newPath}).Debug("renamed file")
		return commitIndex(path, kind, key, index)
	})
	return err == nil, err
}

// RemoveFolder deletes every entry equal to folderPath itself or nested
// under it (folderPath + "/" as a prefix). Returns false if nothing matched.
func RemoveFolder(path string, kind VolumeKind, key [KeyLen]byte, index MetadataMap, folderPath string) (bool, error) {
	pathItself := strings.TrimSuffix(folderPath, "/")
	prefix := pathItself
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	var toRemove []string
	for k := range index {
		if k == pathItself || (prefix != "" && strings.HasPrefix(k, prefix)) {
			toRemove = append(toRemove, k)
		}
	}
	if len(toRemove) == 0 {
		return false, nil
	}

	err := withLock(path, func() error {
		for _, k := range toRemove {
			delete(index, k)
		}
		log.WithFields(logrus.Fields{"folder": folderPath, "count": len(toRemove)}).Debug("removed folder")
		return commitIndex(path, kind, key, index)
	})
	return err == nil, err
}
