package ai

import (
	"errors"
	"fmt"
	"math"

	"github.com/anandaputra/uangku/internal/domain"
)

// ErrIncompleteExtraction is returned when the model responded but the
// result is missing required fields. The gateway never hands partial data
// to the caller with a nil error.
var ErrIncompleteExtraction = errors.New("ai: extraction incomplete")

// Extraction is the structured result of parsing a free-text transaction
// statement. Field names mirror the response schema sent to the model.
// Amount is decoded as float64 because the schema declares a JSON number
// and models legally emit e.g. 50000.0; Validate rejects fractional
// amounts before conversion to whole currency units.
type Extraction struct {
	TransactionType string  `json:"transaction_type"`
	Amount          float64 `json:"amount"`
	Category        string  `json:"category"`
	Description     string  `json:"description"`
}

// Validate checks that every required field is present and usable.
// It returns a descriptive error, never panics; a nil return means the
// extraction can be persisted as-is.
func (e Extraction) Validate() error {
	if _, err := domain.ParseTransactionType(e.TransactionType); err != nil {
		return fmt.Errorf("%w: %v", ErrIncompleteExtraction, err)
	}
	if e.Amount <= 0 {
		return fmt.Errorf("%w: amount must be a positive number, got %g", ErrIncompleteExtraction, e.Amount)
	}
	if e.Amount != math.Trunc(e.Amount) {
		return fmt.Errorf("%w: amount must be in whole currency units, got %g", ErrIncompleteExtraction, e.Amount)
	}
	if e.Category == "" {
		return fmt.Errorf("%w: missing category", ErrIncompleteExtraction)
	}
	if e.Description == "" {
		return fmt.Errorf("%w: missing description", ErrIncompleteExtraction)
	}
	return nil
}

// Transaction converts a validated extraction into an insert payload.
func (e Extraction) Transaction() domain.NewTransaction {
	txType, _ := domain.ParseTransactionType(e.TransactionType)
	return domain.NewTransaction{
		Description: e.Description,
		Amount:      int64(e.Amount),
		Type:        txType,
		Category:    e.Category,
	}
}

// Categorization is a best-guess category for a transaction description.
// Confidence is informational only; callers must not fail on low values.
type Categorization struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
