package api

import (
	"errors"

	"flexgen/auth-api/internal/auth"
	"flexgen/auth-api/validators"
)

// Client facing text for the errors a handler may show as is
var messages = []struct {
	err error
	msg string
}{
	{auth.ErrUserExists, "User already exists with this email"},
	{auth.ErrInvalidCredentials, "Invalid email or password"},

	{validators.ErrFieldsRequired, "All fields are required"},
	{validators.ErrEmailEmpty, "Email is required"},
	{validators.ErrEmailInvalid, "Invalid email format"},
	{validators.ErrPasswordEmpty, "Password is required"},
	{validators.ErrPasswordTooShort, "Password must be at least 8 characters long"},
	{validators.ErrPasswordTooLong, "Password must be at most 72 bytes long"},
	{validators.ErrNameTooLong, "Names must be at most 100 characters long"},
	{validators.ErrAvatarInvalid, "Avatar must be an http(s) URL"},
	{validators.ErrThemeInvalid, "Theme must be one of light, dark or system"},
	{validators.ErrLanguage, "Invalid language code"},
	{validators.ErrTimezone, "Invalid timezone"},

	{validators.ErrScanTypeRequired, "Scan type is required"},
	{validators.ErrScanTypeTooLong, "Scan type must be at most 64 characters long"},
	{validators.ErrThreatsNegative, "Threats found can't be negative"},
	{validators.ErrDurationNegative, "Scan duration can't be negative"},
	{validators.ErrScanResults, "Scan results must be valid JSON"},
}

// message returns the display text for err. Unknown errors get a generic
// text so internals never reach the client.
func message(err error) string {
	for _, m := range messages {
		if errors.Is(err, m.err) {
			return m.msg
		}
	}

	return "Invalid request"
}
