package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesdocs/internal/domain/documents"
)

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	entries, err := fs.ReadDir(files, "sql")
	require.NoError(t, err)

	ups, downs := 0, 0
	for _, e := range entries {
		switch {
		case strings.HasSuffix(e.Name(), ".up.sql"):
			ups++
		case strings.HasSuffix(e.Name(), ".down.sql"):
			downs++
		}
	}
	assert.Positive(t, ups)
	assert.Equal(t, ups, downs)
}

func TestInitMigrationCreatesDocumentTables(t *testing.T) {
	raw, err := fs.ReadFile(files, "sql/000001_init.up.sql")
	require.NoError(t, err)
	up := string(raw)

	assert.Contains(t, up, "CREATE TABLE IF NOT EXISTS sys_sequences")
	for _, table := range documents.Tables() {
		assert.Contains(t, up, "CREATE TABLE IF NOT EXISTS "+table+" (")
		assert.Contains(t, up, "uq_"+table+"_number")
		assert.Contains(t, up, "uq_"+table+"_idempotency_key")
	}
	assert.Contains(t, up, "uq_legacy_invoice_receipts_receipt_number")
}
