package db

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound            = errors.New("record not found")
	ErrConstraintViolation = errors.New("constraint violation")
)

// Store wraps every query the service runs. A Store created inside WithTx
// runs its queries on that transaction.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB returns the underlying connection
func (s *Store) DB() *gorm.DB {
	return s.db
}

// WithTx runs fn inside a transaction. Nested calls use savepoints, so a
// failing inner fn only rolls back its own writes when the error is
// swallowed by the caller.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

// translate maps gorm errors onto the store's sentinel errors
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey), errors.Is(err, gorm.ErrForeignKeyViolated):
		return errors.Join(ErrConstraintViolation, err)
	default:
		return err
	}
}
