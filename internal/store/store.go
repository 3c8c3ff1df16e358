// Package store defines the persistence contract shared by the ephemeral
// in-memory backend and the durable Postgres backend, and a factory that
// picks between them by presence of a connection string. Both backends mask
// card numbers at create time, before the value is ever written.
package store

import (
	"context"
	"errors"

	"github.com/tbensonwest/payform/internal/domain"
)

var (
	// ErrNotFound signals absence on any read, update or delete by key.
	// Absence is a normal outcome, never a panic or a driver error.
	ErrNotFound = errors.New("record not found")

	// ErrConflict signals a unique-constraint violation (username or
	// transaction id already taken).
	ErrConflict = errors.New("record already exists")
)

// Store is the full capability set over the two entity types. Reads return
// (nil, ErrNotFound) for absent keys; deletes report whether a row existed;
// updates never upsert.
type Store interface {
	CreateUser(ctx context.Context, u *domain.User) (*domain.User, error)
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	UpdateUser(ctx context.Context, u *domain.User) (*domain.User, error)
	DeleteUser(ctx context.Context, id int64) (bool, error)

	CreatePayment(ctx context.Context, p *domain.Payment) (*domain.Payment, error)
	GetPayment(ctx context.Context, id int64) (*domain.Payment, error)
	GetPaymentByTransactionID(ctx context.Context, transactionID string) (*domain.Payment, error)
	UpdatePayment(ctx context.Context, id int64, upd domain.PaymentUpdate) (*domain.Payment, error)
	DeletePayment(ctx context.Context, id int64) (bool, error)

	GetAllPayments(ctx context.Context) ([]domain.Payment, error)
	GetPaymentsByEmail(ctx context.Context, email string) ([]domain.Payment, error)
	GetPaymentsByStatus(ctx context.Context, status domain.PaymentStatus) ([]domain.Payment, error)

	Close() error
}

// New selects the backend once at startup: an empty DSN yields the
// process-lifetime in-memory store, anything else opens Postgres and runs
// migrations. The result is passed explicitly to the layers that need it.
func New(ctx context.Context, dsn string) (Store, error) {
	if dsn == "" {
		return NewMemoryStore(), nil
	}
	return OpenPostgres(ctx, dsn)
}
