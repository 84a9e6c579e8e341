package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEveryUpHasDown(t *testing.T) {
	ups, err := fs.Glob(FS, "*.up.sql")
	require.NoError(t, err)
	require.NotEmpty(t, ups)
	for _, up := range ups {
		down := strings.TrimSuffix(up, ".up.sql") + ".down.sql"
		_, err := fs.Stat(FS, down)
		assert.NoError(t, err, "missing rollback for %s", up)
	}
}

func TestSchemaCoversDomainTables(t *testing.T) {
	var all strings.Builder
	ups, err := fs.Glob(FS, "*.up.sql")
	require.NoError(t, err)
	for _, name := range ups {
		body, err := fs.ReadFile(FS, name)
		require.NoError(t, err)
		all.Write(body)
	}
	schema := all.String()
	for _, table := range []string{
		"audit_logs", "idempotency_keys", "document_sequences",
		"customers", "items", "processes", "vendors",
		"quotations", "quotation_lines", "quotation_line_processes",
		"sales_orders", "sales_order_lines", "sales_order_line_processes",
		"work_orders", "job_cards", "job_work",
	} {
		assert.Contains(t, schema, "CREATE TABLE IF NOT EXISTS "+table+" (", table)
	}
}
