// Package accounts persists account records. Two implementations are
// provided: a PostgreSQL repository for production and an in-memory
// repository used as reference store and in tests.
package accounts

import (
	"context"

	"github.com/dmpavlov/userkeeper/internal/server/models"
)

// Repository is the store contract consumed by the account service.
//
// Email lookups compare case-insensitively: both implementations
// canonicalize to lowercase, so "Ana@x.com" and "ana@x.com" address the
// same account. Save enforces uniqueness of the canonical email and is
// the serialization point for concurrent creates: a conflicting write
// fails with common.ErrDuplicateEmail.
type Repository interface {
	// Save inserts the account or, when the id already exists, replaces
	// the stored record including its whole phone list.
	Save(ctx context.Context, account *models.Account) (*models.Account, error)

	// FindByID returns the account or common.ErrNotFound.
	FindByID(ctx context.Context, id string) (*models.Account, error)

	// FindByEmail returns the account with the given email (compared
	// case-insensitively) or common.ErrNotFound.
	FindByEmail(ctx context.Context, email string) (*models.Account, error)

	// DeleteByID removes the account and its phones, or returns
	// common.ErrNotFound.
	DeleteByID(ctx context.Context, id string) error

	// FindPage returns the page-th slice of size accounts in insertion
	// order. An out-of-range page yields an empty slice.
	FindPage(ctx context.Context, page, size int) ([]*models.Account, error)

	// Count returns the total number of stored accounts.
	Count(ctx context.Context) (int64, error)
}
