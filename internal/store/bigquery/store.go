// Package bigquery implements the transaction store on BigQuery. The
// dataset holds two tables: `transactions` (one row per financial event)
// and `user_profile` (singleton row carrying the base balance).
package bigquery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"

	"github.com/anandaputra/uangku/internal/domain"
	"github.com/anandaputra/uangku/internal/store"
)

const (
	transactionsTable = "transactions"
	profileTable      = "user_profile"
)

// TransactionRow mirrors the transactions table schema.
type TransactionRow struct {
	ID          string    `bigquery:"id"`          // REQUIRED
	CreatedTS   time.Time `bigquery:"created_ts"`  // REQUIRED
	Description string    `bigquery:"description"` // REQUIRED
	Amount      int64     `bigquery:"amount"`      // REQUIRED INT64 (whole currency units)
	TxType      string    `bigquery:"tx_type"`     // REQUIRED, income|expense
	Category    string    `bigquery:"category"`    // REQUIRED
}

// ProfileRow mirrors the user_profile table schema.
type ProfileRow struct {
	ID      string `bigquery:"id"`
	Balance int64  `bigquery:"balance"`
}

// Store is a BigQuery-backed transaction store.
type Store struct {
	client    *bigquery.Client
	projectID string
	datasetID string
}

var _ store.Store = (*Store)(nil)

// NewStore creates a store with a shared BigQuery client so each
// operation does not open a new connection.
func NewStore(ctx context.Context, projectID, datasetID string) (*Store, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("bigquery: creating client: %w", err)
	}
	return &Store{client: client, projectID: projectID, datasetID: datasetID}, nil
}

// Close closes the underlying client.
func (s *Store) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

func (s *Store) table(name string) string {
	return fmt.Sprintf("`%s.%s.%s`", s.projectID, s.datasetID, name)
}

// ListTransactions returns all transactions ordered by creation time
// descending.
func (s *Store) ListTransactions(ctx context.Context) ([]domain.Transaction, error) {
	q := s.client.Query(fmt.Sprintf(`
		SELECT id, created_ts, description, amount, tx_type, category
		FROM %s
		ORDER BY created_ts DESC
	`, s.table(transactionsTable)))

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("bigquery: list transactions: %w", err)
	}

	var txns []domain.Transaction
	for {
		var row TransactionRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("bigquery: iterating transactions: %w", err)
		}
		txType, err := domain.ParseTransactionType(row.TxType)
		if err != nil {
			return nil, fmt.Errorf("bigquery: row %s: %w", row.ID, err)
		}
		txns = append(txns, domain.Transaction{
			ID:          row.ID,
			CreatedAt:   row.CreatedTS,
			Description: row.Description,
			Amount:      row.Amount,
			Type:        txType,
			Category:    row.Category,
		})
	}
	return txns, nil
}

// InsertTransaction assigns an id and creation timestamp and streams the
// row through the table inserter.
func (s *Store) InsertTransaction(ctx context.Context, tx domain.NewTransaction) (domain.Transaction, error) {
	row := &TransactionRow{
		ID:          uuid.NewString(),
		CreatedTS:   time.Now().UTC(),
		Description: tx.Description,
		Amount:      tx.Amount,
		TxType:      string(tx.Type),
		Category:    tx.Category,
	}

	inserter := s.client.DatasetInProject(s.projectID, s.datasetID).Table(transactionsTable).Inserter()
	if err := inserter.Put(ctx, row); err != nil {
		return domain.Transaction{}, fmt.Errorf("bigquery: inserting transaction: %w", err)
	}

	return domain.Transaction{
		ID:          row.ID,
		CreatedAt:   row.CreatedTS,
		Description: row.Description,
		Amount:      row.Amount,
		Type:        tx.Type,
		Category:    row.Category,
	}, nil
}

// UpdateTransaction applies the non-nil patch fields via a DML update.
func (s *Store) UpdateTransaction(ctx context.Context, id string, patch domain.TransactionPatch) error {
	if patch.IsEmpty() {
		return nil
	}

	var sets []string
	params := []bigquery.QueryParameter{{Name: "id", Value: id}}
	if patch.Description != nil {
		sets = append(sets, "description = @description")
		params = append(params, bigquery.QueryParameter{Name: "description", Value: *patch.Description})
	}
	if patch.Amount != nil {
		sets = append(sets, "amount = @amount")
		params = append(params, bigquery.QueryParameter{Name: "amount", Value: *patch.Amount})
	}
	if patch.Type != nil {
		sets = append(sets, "tx_type = @tx_type")
		params = append(params, bigquery.QueryParameter{Name: "tx_type", Value: string(*patch.Type)})
	}
	if patch.Category != nil {
		sets = append(sets, "category = @category")
		params = append(params, bigquery.QueryParameter{Name: "category", Value: *patch.Category})
	}

	q := s.client.Query(fmt.Sprintf(`
		UPDATE %s
		SET %s
		WHERE id = @id
	`, s.table(transactionsTable), strings.Join(sets, ", ")))
	q.Parameters = params

	n, err := s.runDML(ctx, q)
	if err != nil {
		return fmt.Errorf("bigquery: updating transaction: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteTransaction removes the row with the given id.
func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	q := s.client.Query(fmt.Sprintf(`
		DELETE FROM %s
		WHERE id = @id
	`, s.table(transactionsTable)))
	q.Parameters = []bigquery.QueryParameter{{Name: "id", Value: id}}

	n, err := s.runDML(ctx, q)
	if err != nil {
		return fmt.Errorf("bigquery: deleting transaction: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// BaseBalance reads the singleton profile row, creating it lazily with
// balance 0 on first read.
func (s *Store) BaseBalance(ctx context.Context) (int64, error) {
	q := s.client.Query(fmt.Sprintf(`
		SELECT id, balance
		FROM %s
		WHERE id = @id
	`, s.table(profileTable)))
	q.Parameters = []bigquery.QueryParameter{{Name: "id", Value: domain.ProfileID}}

	it, err := q.Read(ctx)
	if err != nil {
		return 0, fmt.Errorf("bigquery: reading profile: %w", err)
	}

	var row ProfileRow
	err = it.Next(&row)
	if err == iterator.Done {
		// First read: create the profile with a zero balance.
		inserter := s.client.DatasetInProject(s.projectID, s.datasetID).Table(profileTable).Inserter()
		if err := inserter.Put(ctx, &ProfileRow{ID: domain.ProfileID}); err != nil {
			return 0, fmt.Errorf("bigquery: creating profile: %w", err)
		}
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("bigquery: iterating profile: %w", err)
	}
	return row.Balance, nil
}

// SetBaseBalance overwrites the profile balance via MERGE so it works
// whether or not the row exists yet.
func (s *Store) SetBaseBalance(ctx context.Context, balance int64) error {
	q := s.client.Query(fmt.Sprintf(`
		MERGE %s p
		USING (SELECT @id AS id, @balance AS balance) src
		ON p.id = src.id
		WHEN MATCHED THEN UPDATE SET balance = src.balance
		WHEN NOT MATCHED THEN INSERT (id, balance) VALUES (src.id, src.balance)
	`, s.table(profileTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "id", Value: domain.ProfileID},
		{Name: "balance", Value: balance},
	}

	if _, err := s.runDML(ctx, q); err != nil {
		return fmt.Errorf("bigquery: setting base balance: %w", err)
	}
	return nil
}

func (s *Store) runDML(ctx context.Context, q *bigquery.Query) (int64, error) {
	job, err := q.Run(ctx)
	if err != nil {
		return 0, fmt.Errorf("run query: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return 0, fmt.Errorf("wait for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return 0, fmt.Errorf("job error: %w", err)
	}
	if stats, ok := status.Statistics.Details.(*bigquery.QueryStatistics); ok {
		return stats.NumDMLAffectedRows, nil
	}
	return 0, nil
}
