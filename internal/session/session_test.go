package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anandaputra/uangku/internal/ai"
	"github.com/anandaputra/uangku/internal/domain"
	"github.com/anandaputra/uangku/internal/ingest"
	"github.com/anandaputra/uangku/internal/logger"
	"github.com/anandaputra/uangku/internal/store"
	"github.com/anandaputra/uangku/internal/store/memory"
)

type faultyStore struct {
	store.Store
	failUpdate bool
	failDelete bool
}

func (f *faultyStore) UpdateTransaction(ctx context.Context, id string, patch domain.TransactionPatch) error {
	if f.failUpdate {
		return errors.New("write rejected")
	}
	return f.Store.UpdateTransaction(ctx, id, patch)
}

func (f *faultyStore) DeleteTransaction(ctx context.Context, id string) error {
	if f.failDelete {
		return errors.New("write rejected")
	}
	return f.Store.DeleteTransaction(ctx, id)
}

func seed(t *testing.T, st store.Store, n int) []domain.Transaction {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := st.InsertTransaction(context.Background(), domain.NewTransaction{
			Description: "seed",
			Amount:      int64(10000 * (i + 1)),
			Type:        domain.TypeExpense,
			Category:    "Food",
		})
		require.NoError(t, err)
	}
	list, err := st.ListTransactions(context.Background())
	require.NoError(t, err)
	return list
}

func newSession(t *testing.T, st store.Store) *Session {
	t.Helper()
	s := New(st, logger.New())
	require.NoError(t, s.Refresh(context.Background()))
	return s
}

func TestInsertOptimisticPrependsTempRecord(t *testing.T) {
	st := memory.NewStore()
	seed(t, st, 2)
	s := newSession(t, st)

	rec := s.InsertOptimistic(domain.NewTransaction{
		Description: "Makan malam",
		Amount:      75000,
		Type:        domain.TypeExpense,
		Category:    "Food",
	})

	assert.True(t, rec.IsTemporary(), "optimistic record must carry a temporary id")
	assert.False(t, rec.Date.IsZero(), "optimistic record must carry a local date")
	assert.True(t, rec.CreatedAt.IsZero(), "CreatedAt belongs to the store")

	list := s.Transactions()
	require.Len(t, list, 3)
	assert.Equal(t, rec.ID, list[0].ID, "optimistic record must be first")
}

func TestRefreshReplacesTempIDs(t *testing.T) {
	st := memory.NewStore()
	seed(t, st, 1)
	s := newSession(t, st)

	s.InsertOptimistic(domain.NewTransaction{Description: "x", Amount: 1, Type: domain.TypeIncome, Category: "Income"})
	require.NoError(t, s.Refresh(context.Background()))

	for _, tx := range s.Transactions() {
		assert.False(t, tx.IsTemporary(), "refresh must leave only canonical ids")
	}
}

func TestUpdateOptimisticApplied(t *testing.T) {
	st := memory.NewStore()
	seeded := seed(t, st, 2)
	s := newSession(t, st)

	desc := "Updated"
	require.NoError(t, s.Update(context.Background(), seeded[0].ID, domain.TransactionPatch{Description: &desc}))

	assert.Equal(t, "Updated", s.Transactions()[0].Description)

	// Store saw the same change.
	list, err := st.ListTransactions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Updated", list[0].Description)
}

func TestUpdateRollbackOnStoreFailure(t *testing.T) {
	st := memory.NewStore()
	seeded := seed(t, st, 3)
	s := newSession(t, &faultyStore{Store: st, failUpdate: true})

	before := s.Transactions()
	desc := "Updated"
	err := s.Update(context.Background(), seeded[1].ID, domain.TransactionPatch{Description: &desc})

	var opErr *OpError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, OpUpdate, opErr.Op)
	assert.Equal(t, "Gagal memperbarui transaksi.", opErr.UserMessage())

	assert.Equal(t, before, s.Transactions(), "list after rollback must equal list before the mutation")
}

func TestDeleteRollbackOnStoreFailure(t *testing.T) {
	st := memory.NewStore()
	seeded := seed(t, st, 3)
	s := newSession(t, &faultyStore{Store: st, failDelete: true})

	before := s.Transactions()
	err := s.Delete(context.Background(), seeded[2].ID)

	var opErr *OpError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, OpDelete, opErr.Op)
	assert.Equal(t, "Gagal menghapus transaksi.", opErr.UserMessage())

	assert.Equal(t, before, s.Transactions(), "list after rollback must equal list before the mutation")
}

func TestDeleteRemovesLocallyAndRemotely(t *testing.T) {
	st := memory.NewStore()
	seeded := seed(t, st, 2)
	s := newSession(t, st)

	require.NoError(t, s.Delete(context.Background(), seeded[0].ID))

	require.Len(t, s.Transactions(), 1)
	list, err := st.ListTransactions(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, seeded[1].ID, list[0].ID)
}

type stubExtractor struct {
	result ai.Extraction
}

func (s *stubExtractor) Extract(ctx context.Context, userText string) (ai.Extraction, error) {
	return s.result, nil
}

func TestSubmitLunchScenario(t *testing.T) {
	st := memory.NewStore()
	s := newSession(t, st)
	svc := ingest.NewService(&stubExtractor{result: ai.Extraction{
		TransactionType: "expense",
		Amount:          50000,
		Category:        "Food",
		Description:     "Lunch",
	}}, st, nil)

	balanceBefore := netBalance(s.Transactions())

	rec, err := s.Submit(context.Background(), svc, "Lunch 50000")
	require.NoError(t, err)
	assert.True(t, rec.IsTemporary())
	assert.Equal(t, "Lunch", rec.Description)

	balanceAfter := netBalance(s.Transactions())
	assert.Equal(t, balanceBefore-50000, balanceAfter, "expense must decrease displayed balance by its amount")

	list, err := st.ListTransactions(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.False(t, list[0].IsTemporary(), "persisted record must have a canonical id")
}

func netBalance(txns []domain.Transaction) int64 {
	var total int64
	for _, tx := range txns {
		if tx.Type == domain.TypeIncome {
			total += tx.Amount
		} else {
			total -= tx.Amount
		}
	}
	return total
}
