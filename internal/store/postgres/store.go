// Package postgres implements the transaction store on PostgreSQL using
// a pgx connection pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/anandaputra/uangku/internal/domain"
	"github.com/anandaputra/uangku/internal/store"
)

// Store is a PostgreSQL-backed transaction store.
type Store struct {
	pool *pgxpool.Pool
}

var _ store.Store = (*Store)(nil)

// NewStore connects to the database at the given URL and verifies the
// connection with a ping.
func NewStore(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres: connecting: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: pinging: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// ListTransactions returns all transactions ordered by creation time
// descending.
func (s *Store) ListTransactions(ctx context.Context) ([]domain.Transaction, error) {
	query := `
		SELECT id, created_at, description, amount, tx_type, category
		FROM transactions
		ORDER BY created_at DESC, id DESC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing transactions: %w", err)
	}
	defer rows.Close()

	var txns []domain.Transaction
	for rows.Next() {
		var (
			tx     domain.Transaction
			txType string
		)
		if err := rows.Scan(&tx.ID, &tx.CreatedAt, &tx.Description, &tx.Amount, &txType, &tx.Category); err != nil {
			return nil, fmt.Errorf("postgres: scanning transaction: %w", err)
		}
		tx.Type, err = domain.ParseTransactionType(txType)
		if err != nil {
			return nil, fmt.Errorf("postgres: row %s: %w", tx.ID, err)
		}
		txns = append(txns, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterating transactions: %w", err)
	}
	return txns, nil
}

// InsertTransaction stores a new transaction and returns the persisted
// record with its server-assigned id and creation timestamp.
func (s *Store) InsertTransaction(ctx context.Context, tx domain.NewTransaction) (domain.Transaction, error) {
	query := `
		INSERT INTO transactions (id, created_at, description, amount, tx_type, category)
		VALUES (gen_random_uuid(), now(), $1, $2, $3, $4)
		RETURNING id, created_at`

	var (
		id        string
		createdAt time.Time
	)
	err := s.pool.QueryRow(ctx, query, tx.Description, tx.Amount, string(tx.Type), tx.Category).
		Scan(&id, &createdAt)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("postgres: inserting transaction: %w", err)
	}

	return domain.Transaction{
		ID:          id,
		CreatedAt:   createdAt,
		Description: tx.Description,
		Amount:      tx.Amount,
		Type:        tx.Type,
		Category:    tx.Category,
	}, nil
}

// UpdateTransaction applies the non-nil patch fields to an existing row.
func (s *Store) UpdateTransaction(ctx context.Context, id string, patch domain.TransactionPatch) error {
	if patch.IsEmpty() {
		return nil
	}

	var (
		sets []string
		args []any
	)
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.Amount != nil {
		add("amount", *patch.Amount)
	}
	if patch.Type != nil {
		add("tx_type", string(*patch.Type))
	}
	if patch.Category != nil {
		add("category", *patch.Category)
	}
	args = append(args, id)

	query := fmt.Sprintf(`
		UPDATE transactions
		SET %s
		WHERE id = $%d`, strings.Join(sets, ", "), len(args))

	result, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("postgres: updating transaction: %w", err)
	}
	if result.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteTransaction removes the row with the given id.
func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	result, err := s.pool.Exec(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: deleting transaction: %w", err)
	}
	if result.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// BaseBalance reads the singleton profile row, creating it lazily with
// balance 0 on first read.
func (s *Store) BaseBalance(ctx context.Context) (int64, error) {
	var balance int64
	err := s.pool.QueryRow(ctx,
		`SELECT balance FROM user_profile WHERE id = $1`, domain.ProfileID).
		Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		_, err = s.pool.Exec(ctx,
			`INSERT INTO user_profile (id, balance) VALUES ($1, 0) ON CONFLICT (id) DO NOTHING`,
			domain.ProfileID)
		if err != nil {
			return 0, fmt.Errorf("postgres: creating profile: %w", err)
		}
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("postgres: reading profile: %w", err)
	}
	return balance, nil
}

// SetBaseBalance overwrites the profile balance, inserting the row if it
// does not exist yet.
func (s *Store) SetBaseBalance(ctx context.Context, balance int64) error {
	query := `
		INSERT INTO user_profile (id, balance)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET balance = EXCLUDED.balance`

	if _, err := s.pool.Exec(ctx, query, domain.ProfileID, balance); err != nil {
		return fmt.Errorf("postgres: setting base balance: %w", err)
	}
	return nil
}
