// Package memory provides an in-memory Store implementation. It is the
// default backend when nothing is configured, and the backend the tests
// run against. Data is lost on process exit.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/anandaputra/uangku/internal/domain"
	"github.com/anandaputra/uangku/internal/store"
)

// Store keeps transactions and the profile balance in memory.
// It is safe for concurrent use.
type Store struct {
	mu           sync.RWMutex
	transactions map[string]domain.Transaction
	baseBalance  int64
	now          func() time.Time
}

var _ store.Store = (*Store)(nil)

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		transactions: make(map[string]domain.Transaction),
		now:          time.Now,
	}
}

// ListTransactions returns copies ordered by creation time descending.
func (s *Store) ListTransactions(ctx context.Context) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Transaction, 0, len(s.transactions))
	for _, tx := range s.transactions {
		result = append(result, tx)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		// Stable order for records created in the same instant.
		return result[i].ID > result[j].ID
	})
	return result, nil
}

// InsertTransaction assigns an id and creation timestamp and stores a copy.
func (s *Store) InsertTransaction(ctx context.Context, tx domain.NewTransaction) (domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := domain.Transaction{
		ID:          uuid.NewString(),
		CreatedAt:   s.now().UTC(),
		Description: tx.Description,
		Amount:      tx.Amount,
		Type:        tx.Type,
		Category:    tx.Category,
	}
	s.transactions[rec.ID] = rec
	return rec, nil
}

// UpdateTransaction applies the patch to the stored record.
func (s *Store) UpdateTransaction(ctx context.Context, id string, patch domain.TransactionPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.transactions[id]
	if !ok {
		return store.ErrNotFound
	}
	s.transactions[id] = patch.Apply(rec)
	return nil
}

// DeleteTransaction removes the record with the given id.
func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.transactions[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.transactions, id)
	return nil
}

// BaseBalance returns the profile balance; the profile exists implicitly
// with value 0.
func (s *Store) BaseBalance(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.baseBalance, nil
}

// SetBaseBalance overwrites the profile balance.
func (s *Store) SetBaseBalance(ctx context.Context, balance int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.baseBalance = balance
	return nil
}
