// Package validators contains validators found throughout the application
// that have been abstracted away from the main code
package validators

import (
	"errors"
	"net/mail"
	"strings"
)

var (
	ErrEmailEmpty   = errors.New("no email address provided")
	ErrEmailInvalid = errors.New("invalid email address provided")
)

// EmailValidator accepts bare addresses only, with a dotted domain
func EmailValidator(e string) error {
	if e == "" {
		return ErrEmailEmpty
	}

	addr, err := mail.ParseAddress(e)
	if err != nil || addr.Address != e || addr.Name != "" {
		return ErrEmailInvalid
	}

	_, domain, _ := strings.Cut(e, "@")
	if i := strings.LastIndex(domain, "."); i <= 0 || i == len(domain)-1 {
		return ErrEmailInvalid
	}

	return nil
}

// NormalizeEmail trims and lower-cases an address
func NormalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}
