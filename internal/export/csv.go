// Package export renders the transaction list as CSV and optionally
// uploads the result to a GCS bucket.
package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/anandaputra/uangku/internal/domain"
)

// csvHeader is the fixed column order of an export. Headers are not
// localized.
const csvHeader = "ID,Date,Description,Amount,Type,Category"

// WriteCSV writes one row per transaction in list order. The description
// is always quoted with internal quotes doubled; the remaining fields are
// written raw. Output is a pure function of the input list, so exporting
// the same list twice yields byte-identical results.
func WriteCSV(w io.Writer, txns []domain.Transaction) error {
	lines := make([]string, 0, len(txns)+1)
	lines = append(lines, csvHeader)
	for _, t := range txns {
		lines = append(lines, fmt.Sprintf("%s,%s,%s,%d,%s,%s",
			t.ID,
			t.Timestamp().UTC().Format(time.RFC3339),
			quoteField(t.Description),
			t.Amount,
			t.Type,
			t.Category,
		))
	}
	if _, err := io.WriteString(w, strings.Join(lines, "\n")); err != nil {
		return fmt.Errorf("export: write csv: %w", err)
	}
	return nil
}

func quoteField(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
