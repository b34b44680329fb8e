// Package session holds the in-memory transaction list backing the
// presentation layer, applies optimistic mutations, and rolls them back
// when the store rejects the corresponding write.
//
// A Session keeps exactly one rollback snapshot, so the visible list is
// always the last-known-good server state plus at most one uncommitted
// optimistic change. It must be driven from a single goroutine;
// overlapping optimistic edits are not tracked independently.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/anandaputra/uangku/internal/domain"
	"github.com/anandaputra/uangku/internal/ingest"
	"github.com/anandaputra/uangku/internal/store"
)

// Op names the store operation behind an optimistic mutation.
type Op string

const (
	OpRefresh Op = "refresh"
	OpUpdate  Op = "update"
	OpDelete  Op = "delete"
)

var userMessages = map[Op]string{
	OpRefresh: "Gagal mengambil data transaksi.",
	OpUpdate:  "Gagal memperbarui transaksi.",
	OpDelete:  "Gagal menghapus transaksi.",
}

// OpError reports a failed store operation. The optimistic state has
// already been rolled back by the time the caller sees it.
type OpError struct {
	Op  Op
	Err error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("session: %s transaction: %v", e.Op, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

// UserMessage returns the user-facing message naming the failed operation.
func (e *OpError) UserMessage() string {
	if msg, ok := userMessages[e.Op]; ok {
		return msg
	}
	return "Terjadi kesalahan. Silakan coba lagi."
}

// Session synchronizes the displayed transaction list with the store.
type Session struct {
	store store.Store
	log   zerolog.Logger
	now   func() time.Time

	txns     []domain.Transaction
	snapshot []domain.Transaction
}

// New creates a session with an empty list; call Refresh to load the
// server state.
func New(st store.Store, log zerolog.Logger) *Session {
	return &Session{store: st, log: log, now: time.Now}
}

// Transactions returns a copy of the visible list, most recent first.
func (s *Session) Transactions() []domain.Transaction {
	out := make([]domain.Transaction, len(s.txns))
	copy(out, s.txns)
	return out
}

// Refresh replaces the visible list with the store's current state. Any
// temporary ids are superseded by the canonical server records.
func (s *Session) Refresh(ctx context.Context) error {
	txns, err := s.store.ListTransactions(ctx)
	if err != nil {
		return &OpError{Op: OpRefresh, Err: err}
	}
	s.txns = txns
	s.snapshot = nil
	return nil
}

// InsertOptimistic prepends a record carrying a temporary id for instant
// display. The temporary id never reaches the store; the canonical
// record arrives on the next Refresh.
func (s *Session) InsertOptimistic(tx domain.NewTransaction) domain.Transaction {
	rec := domain.Transaction{
		ID:          domain.TempIDPrefix + uuid.NewString(),
		Date:        s.now().UTC(),
		Description: tx.Description,
		Amount:      tx.Amount,
		Type:        tx.Type,
		Category:    tx.Category,
	}
	s.txns = append([]domain.Transaction{rec}, s.txns...)
	return rec
}

// Submit runs text through the ingestion pipeline and, on success,
// applies the optimistic insert. The returned record is the displayed
// one (temporary id), not the persisted one.
func (s *Session) Submit(ctx context.Context, svc *ingest.Service, text string) (domain.Transaction, error) {
	rec, err := svc.Ingest(ctx, text)
	if err != nil {
		return domain.Transaction{}, err
	}
	return s.InsertOptimistic(domain.NewTransaction{
		Description: rec.Description,
		Amount:      rec.Amount,
		Type:        rec.Type,
		Category:    rec.Category,
	}), nil
}

// Update applies the patch locally, then issues the store mutation. On
// store failure the pre-mutation list is restored verbatim.
func (s *Session) Update(ctx context.Context, id string, patch domain.TransactionPatch) error {
	s.takeSnapshot()
	for i, tx := range s.txns {
		if tx.ID == id {
			s.txns[i] = patch.Apply(tx)
			break
		}
	}

	if err := s.store.UpdateTransaction(ctx, id, patch); err != nil {
		s.rollback()
		s.log.Warn().Err(err).Str("transaction_id", id).Msg("update rolled back")
		return &OpError{Op: OpUpdate, Err: err}
	}
	s.snapshot = nil
	return nil
}

// Delete removes the record locally, then issues the store mutation. On
// store failure the pre-mutation list is restored verbatim.
func (s *Session) Delete(ctx context.Context, id string) error {
	s.takeSnapshot()
	kept := s.txns[:0:0]
	for _, tx := range s.txns {
		if tx.ID != id {
			kept = append(kept, tx)
		}
	}
	s.txns = kept

	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		s.rollback()
		s.log.Warn().Err(err).Str("transaction_id", id).Msg("delete rolled back")
		return &OpError{Op: OpDelete, Err: err}
	}
	s.snapshot = nil
	return nil
}

// takeSnapshot captures the current list as an immutable value. Restoring
// replaces the whole list rather than inverse-patching, so a rollback can
// never be partial.
func (s *Session) takeSnapshot() {
	s.snapshot = make([]domain.Transaction, len(s.txns))
	copy(s.snapshot, s.txns)
}

func (s *Session) rollback() {
	s.txns = s.snapshot
	s.snapshot = nil
}
