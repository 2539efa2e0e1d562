package blob

import "errors"

// Error kinds surfaced by the blob engine. Unlock collapses every internal
// failure mode into ErrInvalidPassword so that neither volume existence nor
// which attempt failed ever leaks to a caller.
var (
	ErrInvalidFormat        = errors.New("invalid blob format")
	ErrInvalidPassword      = errors.New("invalid password or corrupt blob")
	ErrCorruption           = errors.New("blob corruption detected")
	ErrIO                   = errors.New("blob io error")
	ErrConflictingPasswords = errors.New("standard and hidden passwords must differ")
)
