// Package auth contains the local and federated sign-in strategies
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"flexgen/auth-api/db"
	"flexgen/auth-api/internal/model"
	"flexgen/auth-api/pkg/security"
	"flexgen/auth-api/validators"

	"go.uber.org/zap"
)

var (
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrMissingEmail       = errors.New("provider profile has no email address")
)

// Service runs the sign-in strategies against the store. Every strategy
// returns the signed in user or an error, never both.
type Service struct {
	store          *db.Store
	hasher         security.Hasher
	normalizeEmail bool

	// Verified against when no account matches, so unknown emails take as
	// long as wrong passwords
	dummyHash string
}

func NewService(store *db.Store, hasher security.Hasher, normalizeEmail bool) (*Service, error) {
	dummy, err := hasher.Hash("dummy password for unknown accounts")
	if err != nil {
		return nil, fmt.Errorf("failed to prepare dummy hash, %w", err)
	}

	return &Service{
		store:          store,
		hasher:         hasher,
		normalizeEmail: normalizeEmail,
		dummyHash:      dummy,
	}, nil
}

// NormalizeEmail applies the configured email normalization
func (s *Service) NormalizeEmail(e string) string {
	if !s.normalizeEmail {
		return e
	}

	return validators.NormalizeEmail(e)
}

type Registration struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// Register creates a local account. Input must already be validated.
func (s *Service) Register(ctx context.Context, r Registration) (*model.User, error) {
	email := s.NormalizeEmail(r.Email)

	taken, err := s.store.EmailTaken(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check if email is registered, %w", err)
	}

	if taken {
		return nil, ErrUserExists
	}

	hash, err := s.hasher.Hash(r.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password, %w", err)
	}

	verifToken, err := security.NewVerificationToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate verification token, %w", err)
	}

	user := &model.User{
		Email:                  email,
		Password:               &hash,
		FirstName:              r.FirstName,
		LastName:               r.LastName,
		Provider:               model.ProviderLocal,
		EmailVerificationToken: &verifToken,
	}

	if err := s.createAccount(ctx, user); err != nil {
		// Lost a race against a concurrent signup
		if errors.Is(err, db.ErrConstraintViolation) {
			return nil, ErrUserExists
		}

		return nil, err
	}

	return user, nil
}

// Authenticate checks an email/password pair. Unknown emails, OAuth-only
// accounts and wrong passwords all fail with ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	user, err := s.store.FindUserByEmail(ctx, s.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			_, _ = s.hasher.Verify(password, s.dummyHash)
			return nil, ErrInvalidCredentials
		}

		return nil, fmt.Errorf("failed to look up user, %w", err)
	}

	if user.Password == nil {
		_, _ = s.hasher.Verify(password, s.dummyHash)
		return nil, ErrInvalidCredentials
	}

	ok, err := s.hasher.Verify(password, *user.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password, %w", err)
	}

	if !ok {
		return nil, ErrInvalidCredentials
	}

	s.touch(ctx, user)
	return user, nil
}

// Federate resolves a provider profile to a local account, creating one
// on first sign-in. An existing account with the same email is reused
// as is, its provider fields are never overwritten.
func (s *Service) Federate(ctx context.Context, p *Profile) (*model.User, error) {
	if p == nil || p.Email == "" {
		return nil, ErrMissingEmail
	}

	email := s.NormalizeEmail(p.Email)

	user, err := s.store.FindUserByEmailOrProviderID(ctx, email, p.Provider, p.ID)
	if err == nil {
		s.touch(ctx, user)
		return user, nil
	}

	if !errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up federated user, %w", err)
	}

	providerID := p.ID
	user = &model.User{
		Email:           email,
		FirstName:       p.FirstName,
		LastName:        p.LastName,
		Provider:        p.Provider,
		ProviderID:      &providerID,
		IsEmailVerified: true,
	}

	if p.Avatar != "" {
		avatar := p.Avatar
		user.Avatar = &avatar
	}

	if err := s.createAccount(ctx, user); err != nil {
		if !errors.Is(err, db.ErrConstraintViolation) {
			return nil, err
		}

		// A concurrent sign-in created the account first
		user, err = s.store.FindUserByEmailOrProviderID(ctx, email, p.Provider, p.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to look up federated user, %w", err)
		}

		s.touch(ctx, user)
	}

	return user, nil
}

// createAccount inserts the user and its default preferences in one
// transaction. A failing preferences insert is logged and doesn't fail
// the signup, reads fall back to the defaults.
func (s *Service) createAccount(ctx context.Context, user *model.User) error {
	return s.store.WithTx(ctx, func(tx *db.Store) error {
		if err := tx.InsertUser(ctx, user); err != nil {
			return err
		}

		if err := tx.InsertDefaultPreferences(ctx, user.ID); err != nil {
			zap.L().Error("Failed to create default preferences", zap.Error(err), zap.String("userID", user.ID))
		}

		return nil
	})
}

func (s *Service) touch(ctx context.Context, user *model.User) {
	if err := s.store.UpdateLastLogin(ctx, user.ID); err != nil {
		zap.L().Warn("Failed to update last login", zap.Error(err), zap.String("userID", user.ID))
		return
	}

	now := time.Now()
	user.LastLogin = &now
}
