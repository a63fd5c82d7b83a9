package validators

import "errors"

const (
	PasswordMinLength = 8
	// bcrypt ignores everything past 72 bytes
	PasswordMaxBytes = 72
)

var (
	ErrPasswordTooShort = errors.New("password is shorter than 8 characters")
	ErrPasswordTooLong  = errors.New("password is longer than 72 bytes")
	ErrPasswordEmpty    = errors.New("no password provided")
)

func PasswordValidator(p string) error {
	if p == "" {
		return ErrPasswordEmpty
	}

	if len([]rune(p)) < PasswordMinLength {
		return ErrPasswordTooShort
	}

	if len(p) > PasswordMaxBytes {
		return ErrPasswordTooLong
	}

	return nil
}
