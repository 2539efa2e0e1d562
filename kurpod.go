// Package kurpod is the public façade over the encrypted dual-volume blob
// engine: init/unlock a container, store and retrieve files under either
// its standard or hidden volume, and optionally wrap the whole thing inside
// a PNG/JPEG/MP4/PDF carrier for plausible deniability.
package kurpod

import (
	"errors"
	"fmt"

	"github.com/srv1n/kurpod/internal/blob"
	"github.com/srv1n/kurpod/internal/stego"
)

// Re-exported sentinel errors, so callers can compare against these without
// importing the internal packages directly.
var (
	ErrNotFound             = errors.New("file not found")
	ErrInvalidFormat        = blob.ErrInvalidFormat
	ErrInvalidPassword      = blob.ErrInvalidPassword
	ErrCorruption           = blob.ErrCorruption
	ErrIO                   = blob.ErrIO
	ErrConflictingPasswords = blob.ErrConflictingPasswords
	ErrInvalidCarrier       = stego.ErrInvalidCarrier
	ErrCarrierTooSmall      = stego.ErrCarrierTooSmall
)

// VolumeKind identifies which volume a Session unlocked.
type VolumeKind = blob.VolumeKind

const (
	VolumeStandard = blob.Standard
	VolumeHidden   = blob.Hidden
)

// FileEntry describes one stored file's metadata.
type FileEntry = blob.FileEntry

// DefaultCarriers lists every built-in carrier, tried in order by
// UnlockStego when the stego file's format isn't known ahead of time.
func DefaultCarriers() []stego.Carrier {
	return []stego.Carrier{stego.PNGCarrier{}, stego.JPEGCarrier{}, stego.MP4Carrier{}, stego.PDFCarrier{}}
}

// InitBlob creates a fresh, bare (non-steganographic) encrypted blob at
// path with independent standard and hidden volumes.
func InitBlob(path, standardPassword, hiddenPassword string) error {
	return blob.InitBlob(path, standardPassword, hiddenPassword)
}

// CompactBlob rebuilds path from scratch, reclaiming space from removed or
// overwritten entries and rotating all cryptographic state. Both passwords
// are required since compaction rewrites both volumes.
func CompactBlob(path, standardPassword, hiddenPassword string) error {
	return blob.CompactBlob(path, standardPassword, hiddenPassword)
}

// InitStegoBlob creates a fresh blob and embeds it into carrierPath using c,
// writing the combined result to stegoPath.
func InitStegoBlob(carrierPath, stegoPath string, c stego.Carrier, standardPassword, hiddenPassword string) error {
	return stego.InitStegoBlob(carrierPath, stegoPath, c, standardPassword, hiddenPassword)
}

// Session is a bare blob unlocked with one password, giving access to
// whichever volume (standard or hidden) that password opens.
type Session struct {
	path  string
	kind  blob.VolumeKind
	key   [blob.KeyLen]byte
	index blob.MetadataMap
}

// Unlock opens path with password, trying the standard volume first and the
// hidden volume second. Whichever volume matches (if either) is returned;
// the error is identical regardless of failure mode, by design.
func Unlock(path, password string) (*Session, error) {
	kind, key, idx, err := blob.UnlockBlob(path, password)
	if err != nil {
		return nil, err
	}
	return &Session{path: path, kind: kind, key: key, index: idx}, nil
}

// Kind reports which volume this session unlocked.
func (s *Session) Kind() VolumeKind { return s.kind }

// List returns every inner path currently stored in this volume.
func (s *Session) List() []string {
	paths := make([]string, 0, len(s.index))
	for p := range s.index {
		paths = append(paths, p)
	}
	return paths
}

// Put stores content under innerPath.
func (s *Session) Put(innerPath string, content []byte, mimeType string) error {
	return blob.AddFile(s.path, s.kind, s.key, s.index, innerPath, content, mimeType)
}

// Get returns the decrypted content stored under innerPath.
func (s *Session) Get(innerPath string) ([]byte, error) {
	entry, ok := s.index[innerPath]
	if !ok {
		return nil, ErrNotFound
	}
	return blob.GetFile(s.path, s.key, entry)
}

// Remove deletes innerPath's entry. ok is false if it wasn't present.
func (s *Session) Remove(innerPath string) (ok bool, err error) {
	return blob.RemoveFile(s.path, s.kind, s.key, s.index, innerPath)
}

// Rename moves oldPath to newPath within this volume.
func (s *Session) Rename(oldPath, newPath string) (ok bool, err error) {
	return blob.RenameFile(s.path, s.kind, s.key, s.index, oldPath, newPath)
}

// RemoveFolder deletes every entry at or under folderPath.
func (s *Session) RemoveFolder(folderPath string) (ok bool, err error) {
	return blob.RemoveFolder(s.path, s.kind, s.key, s.index, folderPath)
}

// StegoSession is a blob unlocked from inside a carrier file. Every
// mutating call re-embeds the updated blob back into the carrier.
type StegoSession struct {
	session *stego.Session
	kind    blob.VolumeKind
	key     [blob.KeyLen]byte
	index   blob.MetadataMap
}

// UnlockStego extracts and unlocks the blob hidden inside stegoPath, trying
// each of carriers in turn (use DefaultCarriers() when the format is
// unknown). A stegoPath that is already a bare blob is detected and handled
// transparently, for backwards compatibility.
func UnlockStego(stegoPath string, carriers []stego.Carrier, password string) (*StegoSession, error) {
	sess, kind, key, idx, err := stego.UnlockStegoBlob(stegoPath, carriers, password)
	if err != nil {
		return nil, err
	}
	return &StegoSession{session: sess, kind: kind, key: key, index: idx}, nil
}

func (s *StegoSession) Kind() VolumeKind { return s.kind }

func (s *StegoSession) List() []string {
	paths := make([]string, 0, len(s.index))
	for p := range s.index {
		paths = append(paths, p)
	}
	return paths
}

func (s *StegoSession) Put(innerPath string, content []byte, mimeType string) error {
	return s.session.AddFile(s.kind, s.key, s.index, innerPath, content, mimeType)
}

func (s *StegoSession) Get(innerPath string) ([]byte, error) {
	entry, ok := s.index[innerPath]
	if !ok {
		return nil, ErrNotFound
	}
	return s.session.GetFile(s.key, entry)
}

func (s *StegoSession) Remove(innerPath string) (bool, error) {
	return s.session.RemoveFile(s.kind, s.key, s.index, innerPath)
}

func (s *StegoSession) Rename(oldPath, newPath string) (bool, error) {
	return s.session.RenameFile(s.kind, s.key, s.index, oldPath, newPath)
}

func (s *StegoSession) RemoveFolder(folderPath string) (bool, error) {
	return s.session.RemoveFolder(s.kind, s.key, s.index, folderPath)
}

// Close releases the session's scratch file, if any.
func (s *StegoSession) Close() error {
	if s.session == nil {
		return nil
	}
	return s.session.Close()
}

// CarrierByName resolves one of the built-in carriers by name ("png",
// "jpeg", "mp4", "pdf"), for CLI/config-driven selection.
func CarrierByName(name string) (stego.Carrier, error) {
	for _, c := range DefaultCarriers() {
		if c.Name() == name {
			return c, nil
		}
	}
	return nil, fmt.Errorf("unknown carrier %q", name)
}
