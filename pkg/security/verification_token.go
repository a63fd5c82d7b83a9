package security

import "flexgen/auth-api/pkg/util"

const tokenSize = 32

// NewVerificationToken returns a random hex token stored on new local
// accounts for a later email confirmation
func NewVerificationToken() (string, error) {
	return util.GenerateToken(tokenSize)
}
