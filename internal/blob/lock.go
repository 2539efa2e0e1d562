package blob

import (
	"path/filepath"
	"sync"
)

// pathLocks serializes mutating operations per blob path, mirroring the
// teacher's single DB-wide mutex but keyed per file since this package is
// stateless between calls rather than holding one long-lived handle.
var (
	pathLocksMu sync.Mutex
	pathLocks   = map[string]*sync.Mutex{}
)

func lockFor(path string) *sync.Mutex {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	pathLocksMu.Lock()
	defer pathLocksMu.Unlock()
	l, ok := pathLocks[abs]
	if !ok {
		l = &sync.Mutex{}
		pathLocks[abs] = l
	}
	return l
}

// withLock serializes f against every other mutating call on the same path.
func withLock(path string, f func() error) error {
	l := lockFor(path)
	l.Lock()
	defer l.Unlock()
	return f()
}
