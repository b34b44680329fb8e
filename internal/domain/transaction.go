package domain

import (
	"fmt"
	"strings"
	"time"
)

// ProfileID is the fixed id of the singleton profile row holding the
// manually-set base balance.
const ProfileID = "1b9d6bcd-bbfd-4b2d-9b5d-ab8dfbbd4bed"

// TempIDPrefix marks client-generated placeholder ids used for optimistic
// display. A record carrying one has not been confirmed by the store yet.
const TempIDPrefix = "temp-"

// TransactionType says which direction a transaction moves money.
// The sign of the contribution to the balance is decided by this field
// alone; Amount is always a non-negative magnitude.
type TransactionType string

const (
	TypeIncome  TransactionType = "income"
	TypeExpense TransactionType = "expense"
)

// ParseTransactionType normalizes and validates a type label.
func ParseTransactionType(s string) (TransactionType, error) {
	switch TransactionType(strings.ToLower(strings.TrimSpace(s))) {
	case TypeIncome:
		return TypeIncome, nil
	case TypeExpense:
		return TypeExpense, nil
	}
	return "", fmt.Errorf("unknown transaction type %q", s)
}

// Transaction is one financial event. Amounts are whole currency units
// (Rupiah), so int64 keeps all balance arithmetic exact.
type Transaction struct {
	ID          string
	CreatedAt   time.Time // set by the store on confirmed records
	Date        time.Time // set locally on optimistic records
	Description string
	Amount      int64
	Type        TransactionType
	Category    string
}

// Timestamp returns the authoritative creation time: CreatedAt for
// store-confirmed records, Date for optimistic ones. Exactly one of the
// two is expected to be set; callers must not assume both.
func (t Transaction) Timestamp() time.Time {
	if !t.CreatedAt.IsZero() {
		return t.CreatedAt
	}
	return t.Date
}

// IsTemporary reports whether the record still carries a client-side
// placeholder id.
func (t Transaction) IsTemporary() bool {
	return strings.HasPrefix(t.ID, TempIDPrefix)
}

// NewTransaction is the payload for inserting a transaction. It has no ID
// on purpose: the store assigns one, and a temporary display id can never
// leak into the persistence layer.
type NewTransaction struct {
	Description string
	Amount      int64
	Type        TransactionType
	Category    string
}

// TransactionPatch is a partial update. Nil fields are left untouched.
type TransactionPatch struct {
	Description *string
	Amount      *int64
	Type        *TransactionType
	Category    *string
}

// Apply returns a copy of t with the non-nil patch fields replaced.
func (p TransactionPatch) Apply(t Transaction) Transaction {
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	return t
}

// IsEmpty reports whether the patch changes nothing.
func (p TransactionPatch) IsEmpty() bool {
	return p.Description == nil && p.Amount == nil && p.Type == nil && p.Category == nil
}
