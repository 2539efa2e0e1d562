package blob

import (
	"fmt"
	"os"

	"github.com/google/uuid"
)

// CompactBlob rebuilds the container from scratch: fresh salts and nonces
// for both volumes, copying only the entries each volume's current index
// still references. This reclaims space from removed/overwritten entries
// and rotates every piece of cryptographic state in the file.
func CompactBlob(path, standardPassword, hiddenPassword string) error {
	return withLock(path, func() error {
		return compactLocked(path, standardPassword, hiddenPassword)
	})
}

func compactLocked(path, standardPassword, hiddenPassword string) error {
	stdKind, stdKey, stdIndex, err := UnlockBlob(path, standardPassword)
	if err != nil || stdKind != Standard {
		return fmt.Errorf("%w: compact requires the standard password", ErrInvalidPassword)
	}
	hidKind, hidKey, hidIndex, err := UnlockBlob(path, hiddenPassword)
	if err != nil || hidKind != Hidden {
		return fmt.Errorf("%w: compact requires the hidden password", ErrInvalidPassword)
	}

	tmpPath := path + ".compact-" + uuid.NewString()
	if err := initBlobLocked(tmpPath, standardPassword, hiddenPassword); err != nil {
		return err
	}

	newStdKind, newStdKey, newStdIndex, err := UnlockBlob(tmpPath, standardPassword)
	if err != nil || newStdKind != Standard {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: reopen freshly compacted standard volume", ErrIO)
	}
	newHidKind, newHidKey, newHidIndex, err := UnlockBlob(tmpPath, hiddenPassword)
	if err != nil || newHidKind != Hidden {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: reopen freshly compacted hidden volume", ErrIO)
	}

	if err := copyVolumeEntries(path, stdKey, stdIndex, tmpPath, newStdKey, newStdIndex); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := copyVolumeEntries(path, hidKey, hidIndex, tmpPath, newHidKey, newHidIndex); err != nil {
		os.Remove(tmpPath)
		return err
	}

	if err := commitIndex(tmpPath, Standard, newStdKey, newStdIndex); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := commitIndex(tmpPath, Hidden, newHidKey, newHidIndex); err != nil {
		os.Remove(tmpPath)
		return err
	}

	backupPath := path + ".bak-" + uuid.NewString()
	if err := os.Rename(path, backupPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: back up original before compaction swap: %v", ErrIO, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		// Best-effort restore of the original if the swap itself failed.
		os.Rename(backupPath, path)
		return fmt.Errorf("%w: swap compacted blob into place: %v", ErrIO, err)
	}
	if err := os.Remove(backupPath); err != nil {
		log.WithField("backup", backupPath).Warn("compaction left a stale backup file behind")
	}

	log.WithField("path", path).Debug("compacted blob")
	return nil
}

func copyVolumeEntries(oldPath string, oldKey [KeyLen]byte, oldIndex MetadataMap, newPath string, newKey [KeyLen]byte, newIndex MetadataMap) error {
	oldF, err := os.Open(oldPath)
	if err != nil {
		return fmt.Errorf("%w: open source blob for compaction: %v", ErrIO, err)
	}
	defer oldF.Close()
	oldAEAD, err := newAEAD(oldKey)
	if err != nil {
		return err
	}

	newF, err := reopenForWrite(newPath)
	if err != nil {
		return err
	}
	defer newF.Close()
	newAEADCipher, err := newAEAD(newKey)
	if err != nil {
		return err
	}

	for innerPath, entry := range oldIndex {
		content, err := readFileData(oldF, oldAEAD, entry)
		if err != nil {
			return err
		}
		newEntry, err := appendFileData(newF, newAEADCipher, content, entry.MimeType)
		if err != nil {
			return err
		}
		newIndex[innerPath] = newEntry
	}
	return nil
}
