package blob

import (
	"fmt"
	"os"
	"runtime"
)

// syncData flushes file content to stable storage at a phase boundary: once
// after the data block append, once after the metadata block rewrite, once
// after the header update. Each mutating operation in volume.go calls this
// at every phase boundary rather than once at the end, so a crash between
// phases never leaves the header pointing at a metadata block that was
// never actually flushed.
func syncData(f *os.File) error {
	if err := f.Sync(); err != nil {
		return fmt.Errorf("%w: sync: %v", ErrIO, err)
	}
	return nil
}

// finalizeWrite performs the final full sync of a mutating operation and
// closes f. On iOS a plain fsync on an APFS volume does not reliably survive
// a subsequent unclean shutdown unless the file is closed and reopened
// first, so that platform does an extra close/reopen/sync round trip; every
// other platform just syncs and closes. Callers must treat f as consumed
// after calling this — do not use it afterward.
func finalizeWrite(path string, f *os.File) error {
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("%w: finalize sync: %v", ErrIO, err)
	}
	if runtime.GOOS != "ios" {
		return f.Close()
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: close before ios resync: %v", ErrIO, err)
	}
	reopened, err := os.OpenFile(path, os.O_RDWR, 0o600)
	if err != nil {
		return fmt.Errorf("%w: reopen for ios resync: %v", ErrIO, err)
	}
	defer reopened.Close()
	if err := reopened.Sync(); err != nil {
		return fmt.Errorf("%w: ios resync: %v", ErrIO, err)
	}
	return nil
}
