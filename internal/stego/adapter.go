package stego

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/srv1n/kurpod/internal/blob"
)

var log = logrus.WithField("component", "stego")

// bareBlobMagic lets unlock recognize a file that is already a plain blob
// (not wrapped in a carrier) so it can bypass carrier detection entirely —
// the backwards-compatible path described for stego volumes.
const bareBlobMagic = blob.Magic

// Session adapts the stateless blob package to a carrier-wrapped file: the
// inner blob lives in a scratch file extracted from (or about to be
// embedded into) the outer carrier file. Every mutating call re-embeds the
// scratch file's current bytes into the carrier and atomically replaces the
// outer file, so the carrier on disk always reflects the latest state.
type Session struct {
	OuterPath   string
	ScratchPath string
	Carrier     Carrier
	bareBlob    bool // true if OuterPath is itself a plain, unwrapped blob
}

func scratchPath() string {
	return filepath.Join(os.TempDir(), "kurpod-scratch-"+uuid.NewString())
}

// InitStegoBlob creates a fresh blob and embeds it into carrierPath,
// writing the result to stegoPath.
func InitStegoBlob(carrierPath, stegoPath string, c Carrier, standardPassword, hiddenPassword string) error {
	carrierBytes, err := os.ReadFile(carrierPath)
	if err != nil {
		return fmt.Errorf("%w: read carrier: %v", blob.ErrIO, err)
	}
	if !c.Sniff(carrierBytes) {
		return ErrInvalidCarrier
	}

	scratch := scratchPath()
	defer os.Remove(scratch)

	if err := blob.InitBlob(scratch, standardPassword, hiddenPassword); err != nil {
		return err
	}
	scratchBytes, err := os.ReadFile(scratch)
	if err != nil {
		return fmt.Errorf("%w: read scratch blob: %v", blob.ErrIO, err)
	}

	outer, err := c.Embed(carrierBytes, scratchBytes)
	if err != nil {
		return err
	}
	if err := atomicWrite(stegoPath, outer); err != nil {
		return err
	}
	log.WithFields(logrus.Fields{"carrier": c.Name(), "path": stegoPath}).Debug("initialized stego blob")
	return nil
}

// UnlockStegoBlob extracts the inner blob from stegoPath (trying each
// carrier in order, or bypassing carrier detection entirely if stegoPath is
// already a bare blob) and unlocks it with password.
func UnlockStegoBlob(stegoPath string, carriers []Carrier, password string) (*Session, blob.VolumeKind, [blob.KeyLen]byte, blob.MetadataMap, error) {
	var zeroKey [blob.KeyLen]byte
	outerBytes, err := os.ReadFile(stegoPath)
	if err != nil {
		return nil, blob.Standard, zeroKey, nil, fmt.Errorf("%w: read stego file: %v", blob.ErrIO, err)
	}

	if bytes.HasPrefix(outerBytes, []byte(bareBlobMagic)) {
		kind, key, idx, err := blob.UnlockBlob(stegoPath, password)
		if err != nil {
			return nil, kind, zeroKey, nil, err
		}
		return &Session{OuterPath: stegoPath, ScratchPath: stegoPath, bareBlob: true}, kind, key, idx, nil
	}

	for _, c := range carriers {
		payload, err := c.Extract(outerBytes)
		if err != nil {
			continue
		}
		scratch := scratchPath()
		if err := os.WriteFile(scratch, payload, 0o600); err != nil {
			return nil, blob.Standard, zeroKey, nil, fmt.Errorf("%w: write scratch blob: %v", blob.ErrIO, err)
		}
		kind, key, idx, err := blob.UnlockBlob(scratch, password)
		if err != nil {
			os.Remove(scratch)
			return nil, kind, zeroKey, nil, err
		}
		log.WithField("carrier", c.Name()).Debug("unlocked stego blob")
		return &Session{OuterPath: stegoPath, ScratchPath: scratch, Carrier: c}, kind, key, idx, nil
	}

	return nil, blob.Standard, zeroKey, nil, blob.ErrInvalidFormat
}

// sync re-embeds the scratch blob's current bytes into the carrier and
// atomically replaces OuterPath. A no-op for bare (unwrapped) blobs, since
// ScratchPath and OuterPath are the same file there.
func (s *Session) sync() error {
	if s.bareBlob {
		return nil
	}
	scratchBytes, err := os.ReadFile(s.ScratchPath)
	if err != nil {
		return fmt.Errorf("%w: read scratch blob: %v", blob.ErrIO, err)
	}
	outerBytes, err := os.ReadFile(s.OuterPath)
	if err != nil {
		return fmt.Errorf("%w: read carrier: %v", blob.ErrIO, err)
	}
	newOuter, err := s.Carrier.Embed(outerBytes, scratchBytes)
	if err != nil {
		return err
	}
	if err := atomicWrite(s.OuterPath, newOuter); err != nil {
		return err
	}
	log.WithField("carrier", s.Carrier.Name()).Debug("re-embedded stego blob after mutation")
	return nil
}

// AddFile, GetFile, RemoveFile, RenameFile, and RemoveFolder wrap the
// corresponding blob package operations; the mutating ones re-sync the
// carrier afterward.

func (s *Session) AddFile(kind blob.VolumeKind, key [blob.KeyLen]byte, index blob.MetadataMap, innerPath string, content []byte, mimeType string) error {
	if err := blob.AddFile(s.ScratchPath, kind, key, index, innerPath, content, mimeType); err != nil {
		return err
	}
	return s.sync()
}

func (s *Session) GetFile(key [blob.KeyLen]byte, entry blob.FileEntry) ([]byte, error) {
	return blob.GetFile(s.ScratchPath, key, entry)
}

func (s *Session) RemoveFile(kind blob.VolumeKind, key [blob.KeyLen]byte, index blob.MetadataMap, innerPath string) (bool, error) {
	ok, err := blob.RemoveFile(s.ScratchPath, kind, key, index, innerPath)
	if err != nil || !ok {
		return ok, err
	}
	return true, s.sync()
}

func (s *Session) RenameFile(kind blob.VolumeKind, key [blob.KeyLen]byte, index blob.MetadataMap, oldPath, newPath string) (bool, error) {
	ok, err := blob.RenameFile(s.ScratchPath, kind, key, index, oldPath, newPath)
	if err != nil || !ok {
		return ok, err
	}
	return true, s.sync()
}

func (s *Session) RemoveFolder(kind blob.VolumeKind, key [blob.KeyLen]byte, index blob.MetadataMap, folderPath string) (bool, error) {
	ok, err := blob.RemoveFolder(s.ScratchPath, kind, key, index, folderPath)
	if err != nil || !ok {
		return ok, err
	}
	return true, s.sync()
}

// Close removes the scratch file (a no-op for bare blobs, where the
// "scratch" file is the real file on disk).
func (s *Session) Close() error {
	if s.bareBlob {
		return nil
	}
	return os.Remove(s.ScratchPath)
}

func atomicWrite(path string, data []byte) error {
	tmp := path + ".tmp-" + uuid.NewString()
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("%w: write temp carrier file: %v", blob.ErrIO, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: replace carrier file: %v", blob.ErrIO, err)
	}
	return nil
}
