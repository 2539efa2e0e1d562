package blob

import (
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// argon2 parameters: time=3, memory=64 MiB, parallelism=1, 32-byte output.
const (
	argonTime    = 3
	argonMemory  = 64 * 1024 // KiB
	argonThreads = 1
)

// deriveKey stretches a password+salt pair into a 32-byte AEAD key.
func deriveKey(password string, salt []byte) [KeyLen]byte {
	raw := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, KeyLen)
	var key [KeyLen]byte
	copy(key[:], raw)
	return key
}

// newAEAD builds the XChaCha20-Poly1305 cipher used for every encrypted
// region in the blob (metadata blocks and file-data blocks alike). No AAD is
// ever supplied: all authenticated state lives inside the ciphertext itself,
// so a standard and a hidden volume's ciphertexts are bitwise indistinguishable.
func newAEAD(key [KeyLen]byte) (cipher.AEAD, error) {
	aead, err := chacha20poly1305.NewX(key[:])
	if err != nil {
		return nil, fmt.Errorf("construct aead: %w", err)
	}
	return aead, nil
}

func generateSalt() ([]byte, error) {
	salt := make([]byte, SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("%w: generate salt: %v", ErrIO, err)
	}
	return salt, nil
}

func generateNonce() ([NonceLen]byte, error) {
	var nonce [NonceLen]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nonce, fmt.Errorf("%w: generate nonce: %v", ErrIO, err)
	}
	return nonce, nil
}

// randomBytes fills padding regions with unpredictable bytes so that the
// hidden volume's on-disk footprint stays indistinguishable from ciphertext.
func randomBytes(n int) ([]byte, error) {
	if n <= 0 {
		return nil, nil
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("%w: generate padding: %v", ErrIO, err)
	}
	return buf, nil
}
