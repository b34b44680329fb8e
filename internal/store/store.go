// Package store defines the transaction store contract consumed by the
// ingestion, reconciliation and session components. Backends are expected
// to behave like a record-oriented hosted store: list, insert, partial
// update, delete, plus a singleton profile row holding the base balance.
package store

import (
	"context"
	"errors"

	"github.com/anandaputra/uangku/internal/domain"
)

// ErrNotFound is returned when an update or delete targets an id the
// store does not hold.
var ErrNotFound = errors.New("store: transaction not found")

// Store is the persistence contract. Implementations assign ids and
// creation timestamps on insert; callers never supply them.
type Store interface {
	// ListTransactions returns all transactions ordered by creation time,
	// most recent first.
	ListTransactions(ctx context.Context) ([]domain.Transaction, error)

	// InsertTransaction persists a new record and returns it with the
	// store-assigned id and creation timestamp.
	InsertTransaction(ctx context.Context, tx domain.NewTransaction) (domain.Transaction, error)

	// UpdateTransaction applies the non-nil patch fields to the record
	// with the given id.
	UpdateTransaction(ctx context.Context, id string, patch domain.TransactionPatch) error

	// DeleteTransaction removes the record with the given id.
	DeleteTransaction(ctx context.Context, id string) error

	// BaseBalance reads the singleton profile's base balance, creating it
	// lazily with value 0 if absent.
	BaseBalance(ctx context.Context) (int64, error)

	// SetBaseBalance overwrites the singleton profile's base balance.
	SetBaseBalance(ctx context.Context, balance int64) error
}
