// Package security contains everything related to the security of user data
package security

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Hasher turns plaintext passwords into one-way encoded hashes and checks
// candidates against them
type Hasher interface {
	Hash(p string) (encoded string, err error)
	Verify(p, encoded string) (ok bool, err error)
}

var (
	_ Hasher = (*BcryptHash)(nil)
	_ Hasher = (*ArgonHash)(nil)
	_ Hasher = (*PasswordHasher)(nil)
)

var ErrUnknownHashFormat = errors.New("unknown password hash format")

type BcryptHash struct {
	Cost int
}

func NewBcrypt(cost int) *BcryptHash {
	return &BcryptHash{Cost: cost}
}

func (b *BcryptHash) Hash(p string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(p), b.Cost)
	if err != nil {
		return "", err
	}

	return string(hash), nil
}

func (b *BcryptHash) Verify(p, e string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(e), []byte(p))
	if err == nil {
		return true, nil
	}

	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}

	return false, err
}

// PasswordHasher hashes new passwords with the configured algorithm and
// verifies stored hashes of any supported algorithm, so switching the
// algorithm doesn't lock out existing accounts
type PasswordHasher struct {
	primary Hasher
	bcrypt  *BcryptHash
	argon   *ArgonHash
}

// NewPasswordHasher returns a hasher for algorithm "bcrypt" or "argon2id"
func NewPasswordHasher(algorithm string, bcryptCost int) (*PasswordHasher, error) {
	h := &PasswordHasher{
		bcrypt: NewBcrypt(bcryptCost),
		argon:  NewArgon(),
	}

	switch algorithm {
	case "bcrypt":
		h.primary = h.bcrypt
	case "argon2id":
		h.primary = h.argon
	default:
		return nil, fmt.Errorf("unsupported password hash algorithm %q", algorithm)
	}

	return h, nil
}

func (h *PasswordHasher) Hash(p string) (string, error) {
	return h.primary.Hash(p)
}

func (h *PasswordHasher) Verify(p, e string) (bool, error) {
	switch {
	case strings.HasPrefix(e, "$argon2id$"):
		return h.argon.Verify(p, e)
	case strings.HasPrefix(e, "$2a$"), strings.HasPrefix(e, "$2b$"), strings.HasPrefix(e, "$2y$"):
		return h.bcrypt.Verify(p, e)
	default:
		return false, ErrUnknownHashFormat
	}
}
