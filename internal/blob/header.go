package blob

import (
	"encoding/binary"
	"fmt"
	"os"
)

// standardHeaderInfo mirrors the on-disk standard header: magic, version,
// salt, the current metadata block's nonce, and its size.
type standardHeaderInfo struct {
	Salt          [SaltLen]byte
	MetadataNonce [NonceLen]byte
	MetadataSize  uint64
}

// hiddenHeaderInfo mirrors the on-disk hidden header: no magic, no version —
// just salt, nonce, size, so it reads as opaque padding to anyone without
// the hidden password.
type hiddenHeaderInfo struct {
	Salt          [SaltLen]byte
	MetadataNonce [NonceLen]byte
	MetadataSize  uint64
}

func readStandardHeader(f *os.File) (*standardHeaderInfo, error) {
	buf := make([]byte, StandardHeaderLen)
	if _, err := f.ReadAt(buf, 0); err != nil {
		return nil, fmt.Errorf("%w: read standard header: %v", ErrIO, err)
	}
	if string(buf[:len(Magic)]) != Magic {
		return nil, ErrInvalidFormat
	}
	if buf[len(Magic)] != Version {
		return nil, ErrInvalidFormat
	}
	off := headerCommonLen
	info := &standardHeaderInfo{}
	copy(info.Salt[:], buf[off:off+SaltLen])
	off += SaltLen
	copy(info.MetadataNonce[:], buf[off:off+NonceLen])
	off += NonceLen
	info.MetadataSize = binary.LittleEndian.Uint64(buf[off : off+8])
	return info, nil
}

func readHiddenHeader(f *os.File) (*hiddenHeaderInfo, error) {
	buf := make([]byte, HiddenHeaderLen)
	if _, err := f.ReadAt(buf, HiddenHeaderOffset); err != nil {
		return nil, fmt.Errorf("%w: read hidden header: %v", ErrIO, err)
	}
	off := 0
	info := &hiddenHeaderInfo{}
	copy(info.Salt[:], buf[off:off+SaltLen])
	off += SaltLen
	copy(info.MetadataNonce[:], buf[off:off+NonceLen])
	off += NonceLen
	info.MetadataSize = binary.LittleEndian.Uint64(buf[off : off+8])
	return info, nil
}

func writeFullStandardHeader(f *os.File, info *standardHeaderInfo) error {
	buf := make([]byte, StandardHeaderLen)
	copy(buf[0:], Magic)
	buf[len(Magic)] = Version
	off := headerCommonLen
	copy(buf[off:], info.Salt[:])
	off += SaltLen
	copy(buf[off:], info.MetadataNonce[:])
	off += NonceLen
	binary.LittleEndian.PutUint64(buf[off:], info.MetadataSize)
	if _, err := f.WriteAt(buf, 0); err != nil {
		return fmt.Errorf("%w: write standard header: %v", ErrIO, err)
	}
	return syncData(f)
}

func writeFullHiddenHeader(f *os.File, info *hiddenHeaderInfo) error {
	buf := make([]byte, HiddenHeaderLen)
	off := 0
	copy(buf[off:], info.Salt[:])
	off += SaltLen
	copy(buf[off:], info.MetadataNonce[:])
	off += NonceLen
	binary.LittleEndian.PutUint64(buf[off:], info.MetadataSize)
	if _, err := f.WriteAt(buf, HiddenHeaderOffset); err != nil {
		return fmt.Errorf("%w: write hidden header: %v", ErrIO, err)
	}
	return syncData(f)
}

// updateHeaderMetadata rewrites only the nonce+size fields of a header
// in-place, leaving the magic/version/salt untouched. This is the final
// step of every mutating volume operation.
func updateHeaderMetadata(f *os.File, kind VolumeKind, nonce [NonceLen]byte, size uint64) error {
	var fieldOffset int64
	if kind == Standard {
		fieldOffset = int64(headerCommonLen + SaltLen)
	} else {
		fieldOffset = HiddenHeaderOffset + SaltLen
	}
	buf := make([]byte, NonceLen+8)
	copy(buf, nonce[:])
	binary.LittleEndian.PutUint64(buf[NonceLen:], size)
	if _, err := f.WriteAt(buf, fieldOffset); err != nil {
		return fmt.Errorf("%w: update header metadata: %v", ErrIO, err)
	}
	return syncData(f)
}
