package validators

import (
	"errors"
	"net/url"
	"slices"
	"strings"
	"time"
	_ "time/tzdata"
	"unicode/utf8"
)

const (
	NameMaxLength   = 100
	AvatarMaxLength = 2048
)

var (
	ErrFieldsRequired = errors.New("required fields are missing")
	ErrNameTooLong    = errors.New("name is longer than 100 characters")
	ErrAvatarInvalid  = errors.New("avatar is not an http(s) URL")
	ErrThemeInvalid   = errors.New("invalid theme provided")
	ErrLanguage       = errors.New("invalid language code provided")
	ErrTimezone       = errors.New("invalid timezone provided")

	validThemes = []string{"light", "dark", "system"}
)

// RegistrationValidator checks the fields of a local signup in the order
// the client sees the errors
func RegistrationValidator(email, password, firstName, lastName string) error {
	if email == "" || password == "" || strings.TrimSpace(firstName) == "" || strings.TrimSpace(lastName) == "" {
		return ErrFieldsRequired
	}

	if err := EmailValidator(email); err != nil {
		return err
	}

	if err := PasswordValidator(password); err != nil {
		return err
	}

	return NamesValidator(firstName, lastName)
}

func NamesValidator(names ...string) error {
	for _, n := range names {
		if utf8.RuneCountInString(n) > NameMaxLength {
			return ErrNameTooLong
		}
	}

	return nil
}

// AvatarValidator accepts an absolute http(s) URL. Nil means no avatar.
func AvatarValidator(a *string) error {
	if a == nil || *a == "" {
		return nil
	}

	if len(*a) > AvatarMaxLength {
		return ErrAvatarInvalid
	}

	u, err := url.Parse(*a)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrAvatarInvalid
	}

	return nil
}

func PreferencesValidator(theme, language, timezone string) error {
	if !slices.Contains(validThemes, theme) {
		return ErrThemeInvalid
	}

	if language == "" || len(language) > 16 {
		return ErrLanguage
	}

	if timezone == "" || len(timezone) > 64 {
		return ErrTimezone
	}

	if _, err := time.LoadLocation(timezone); err != nil {
		return ErrTimezone
	}

	return nil
}
