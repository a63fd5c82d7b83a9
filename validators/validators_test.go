package validators

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmailValidator(t *testing.T) {
	valid := []string{"a@b.com", "first.last+tag@sub.example.org"}
	for _, e := range valid {
		assert.NoError(t, EmailValidator(e), e)
	}

	invalid := []string{"plain", "a@b", "a@b.", "a b@c.com", "Alice <a@b.com>", "@b.com", "a@.com"}
	for _, e := range invalid {
		assert.ErrorIs(t, EmailValidator(e), ErrEmailInvalid, e)
	}

	assert.ErrorIs(t, EmailValidator(""), ErrEmailEmpty)
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "alice@example.com", NormalizeEmail("  Alice@Example.COM "))
}

func TestPasswordValidator(t *testing.T) {
	assert.ErrorIs(t, PasswordValidator(""), ErrPasswordEmpty)
	assert.ErrorIs(t, PasswordValidator("short"), ErrPasswordTooShort)
	assert.NoError(t, PasswordValidator("longenough1"))
	assert.NoError(t, PasswordValidator(strings.Repeat("a", 72)))
	assert.ErrorIs(t, PasswordValidator(strings.Repeat("a", 73)), ErrPasswordTooLong)

	// Eight characters, more than eight bytes
	assert.NoError(t, PasswordValidator("ääääääää"))
}

func TestRegistrationValidator(t *testing.T) {
	tests := []struct {
		name                     string
		email, pass, first, last string
		want                     error
	}{
		{"ok", "a@b.com", "longenough1", "A", "B", nil},
		{"missing email", "", "longenough1", "A", "B", ErrFieldsRequired},
		{"missing password", "a@b.com", "", "A", "B", ErrFieldsRequired},
		{"blank first name", "a@b.com", "longenough1", "  ", "B", ErrFieldsRequired},
		{"missing last name", "a@b.com", "longenough1", "A", "", ErrFieldsRequired},
		{"bad email", "a@b", "longenough1", "A", "B", ErrEmailInvalid},
		{"short password", "a@b.com", "short", "A", "B", ErrPasswordTooShort},
		{"long name", "a@b.com", "longenough1", strings.Repeat("x", 101), "B", ErrNameTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := RegistrationValidator(tt.email, tt.pass, tt.first, tt.last)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}

			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestAvatarValidator(t *testing.T) {
	ok := "https://cdn.example.com/a.png"
	bad := "javascript:alert(1)"
	relative := "/a.png"
	empty := ""

	assert.NoError(t, AvatarValidator(nil))
	assert.NoError(t, AvatarValidator(&empty))
	assert.NoError(t, AvatarValidator(&ok))
	assert.ErrorIs(t, AvatarValidator(&bad), ErrAvatarInvalid)
	assert.ErrorIs(t, AvatarValidator(&relative), ErrAvatarInvalid)
}

func TestPreferencesValidator(t *testing.T) {
	assert.NoError(t, PreferencesValidator("dark", "en", "UTC"))
	assert.NoError(t, PreferencesValidator("system", "pt-BR", "America/Sao_Paulo"))
	assert.ErrorIs(t, PreferencesValidator("neon", "en", "UTC"), ErrThemeInvalid)
	assert.ErrorIs(t, PreferencesValidator("light", "", "UTC"), ErrLanguage)
	assert.ErrorIs(t, PreferencesValidator("light", "en", "Mars/Olympus"), ErrTimezone)
}

func TestScanValidator(t *testing.T) {
	neg := int64(-1)

	assert.NoError(t, ScanValidator("port-scan", 0, nil, nil))
	assert.NoError(t, ScanValidator("port-scan", 2, nil, json.RawMessage(`{"open":[22,80]}`)))
	assert.ErrorIs(t, ScanValidator("", 0, nil, nil), ErrScanTypeRequired)
	assert.ErrorIs(t, ScanValidator(strings.Repeat("x", 65), 0, nil, nil), ErrScanTypeTooLong)
	assert.ErrorIs(t, ScanValidator("port-scan", -1, nil, nil), ErrThreatsNegative)
	assert.ErrorIs(t, ScanValidator("port-scan", 0, &neg, nil), ErrDurationNegative)
	assert.ErrorIs(t, ScanValidator("port-scan", 0, nil, json.RawMessage(`{`)), ErrScanResults)
}
