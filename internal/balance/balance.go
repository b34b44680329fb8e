// Package balance derives the displayed balance from the stored base
// balance plus net transaction flow, and supports rebasing the stored
// base when the user edits the displayed value directly.
package balance

import (
	"context"
	"fmt"

	"github.com/anandaputra/uangku/internal/domain"
	"github.com/anandaputra/uangku/internal/logger"
	"github.com/anandaputra/uangku/internal/store"
)

// Totals sums income and expense magnitudes over the transaction set.
// The contribution direction comes from the type field only; amounts are
// non-negative magnitudes.
func Totals(txns []domain.Transaction) (income, expense int64) {
	for _, t := range txns {
		switch t.Type {
		case domain.TypeIncome:
			income += t.Amount
		case domain.TypeExpense:
			expense += t.Amount
		}
	}
	return income, expense
}

// Compute returns the displayed balance: base + income - expense. A nil
// base means no base balance has been loaded yet; the arithmetic then
// treats it as 0, but callers can use the nil to distinguish "still
// loading" from an explicitly-set 0 in their own presentation.
func Compute(base *int64, txns []domain.Transaction) int64 {
	income, expense := Totals(txns)
	if base == nil {
		return income - expense
	}
	return *base + income - expense
}

// Reconciler persists base-balance changes.
type Reconciler struct {
	Store store.Store
}

// Rebase stores a new base balance chosen so that the displayed total
// becomes desired: newBase = desired - (income - expense). On store
// failure nothing is changed and the caller keeps showing the old
// balance.
//
// Transactions mutated concurrently between reading txns and the store
// write can make the stored base stale (lost update); that window is not
// guarded here.
func (r *Reconciler) Rebase(ctx context.Context, desired int64, txns []domain.Transaction) (int64, error) {
	income, expense := Totals(txns)
	newBase := desired - (income - expense)

	if err := r.Store.SetBaseBalance(ctx, newBase); err != nil {
		return 0, fmt.Errorf("balance: rebase: %w", err)
	}

	log := logger.FromContext(ctx)
	log.Info().
		Int64("desired_balance", desired).
		Int64("new_base", newBase).
		Msg("base balance rebased")
	return newBase, nil
}
