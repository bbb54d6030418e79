// Package export renders ledger data for download.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"budgeter/internal/core"
)

// csvHeader is the column order consumers of the export rely on.
var csvHeader = []string{"id", "iso_date", "amount", "type", "category", "description", "created_at", "synced"}

// WriteCSV streams transactions as CSV. Amounts are formatted as decimal
// strings ("12.34"), synced as 0/1 and created_at as RFC 3339.
func WriteCSV(w io.Writer, txs []core.Transaction) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, tx := range txs {
		synced := "0"
		if tx.Synced {
			synced = "1"
		}
		record := []string{
			strconv.FormatInt(tx.ID, 10),
			tx.Date,
			core.FormatAmount(tx.AmountCents),
			string(tx.Type),
			tx.Category,
			tx.Description,
			tx.CreatedAt.UTC().Format(time.RFC3339),
			synced,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row for transaction %d: %w", tx.ID, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
