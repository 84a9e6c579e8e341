package shared

import (
	"context"
	"fmt"
	"time"

	"github.com/odyssey-erp/wms/internal/platform/db"
)

// NextDocNumber allocates the next number of a per-company monthly series,
// formatted as PREFIX-YYYYMM-NNNN. It must run inside the transaction that
// inserts the document so a rollback releases nothing but a gap.
func NextDocNumber(ctx context.Context, q db.DBTX, companyID int64, prefix string, date time.Time) (string, error) {
	period := date.Format("200601")
	var seq int64
	err := q.QueryRow(ctx, `
		INSERT INTO document_sequences (company_id, doc_type, period, seq)
		VALUES ($1, $2, $3, 1)
		ON CONFLICT (company_id, doc_type, period)
		DO UPDATE SET seq = document_sequences.seq + 1
		RETURNING seq
	`, companyID, prefix, period).Scan(&seq)
	if err != nil {
		return "", fmt.Errorf("next %s number: %w", prefix, err)
	}
	return FormatDocNumber(prefix, date, seq), nil
}

// FormatDocNumber renders a document number, e.g. QUO-202604-0007.
func FormatDocNumber(prefix string, date time.Time, seq int64) string {
	return fmt.Sprintf("%s-%s-%04d", prefix, date.Format("200601"), seq)
}
