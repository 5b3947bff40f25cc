package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesdocs/internal/config"
	"salesdocs/internal/core/apperror"
	"salesdocs/internal/core/numerator"
)

var bangkok = numerator.BusinessLocation("Asia/Bangkok")

// memoryOpener shares one in-memory store across commands of a test.
func memoryOpener(store *numerator.MemoryCounterStore) Opener {
	now := time.Date(2025, 8, 16, 10, 0, 0, 0, bangkok)
	return func(_ context.Context, cfg config.Config) (*Backend, error) {
		ncfg, err := cfg.NumeratorConfig()
		if err != nil {
			return nil, err
		}
		svc := numerator.NewService(store, nil, ncfg, numerator.WithClock(func() time.Time { return now }))
		return NewBackend(svc, nil), nil
	}
}

func run(t *testing.T, store *numerator.MemoryCounterStore, args ...string) (string, error) {
	t.Helper()
	t.Setenv("SALESDOCS_CONFIG", "")
	cmd := NewRootCommand(memoryOpener(store))
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestNewRootCommand(t *testing.T) {
	cmd := NewRootCommand(nil)

	assert.Equal(t, "docctl", cmd.Use)
	assert.True(t, cmd.SilenceUsage)

	for _, name := range []string{"config", "format", "store", "sqlite-path"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), "missing flag %s", name)
	}
	assert.Equal(t, "text", cmd.PersistentFlags().Lookup("format").DefValue)

	for _, name := range []string{"next", "preview", "parse", "stats", "advance", "migrate"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, sub.Name())
	}

	up, _, err := cmd.Find([]string{"migrate", "up"})
	require.NoError(t, err)
	assert.Equal(t, "up", up.Name())
}

func TestRootCommand_InvalidFormat(t *testing.T) {
	_, err := run(t, numerator.NewMemoryCounterStore(), "parse", "QT-680816-001", "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestNextCommand(t *testing.T) {
	store := numerator.NewMemoryCounterStore()

	out, err := run(t, store, "next", "qt")
	require.NoError(t, err)
	assert.Equal(t, "QT-680816-001\n", out)

	// TX shares the quotation counter.
	out, err = run(t, store, "next", "TX")
	require.NoError(t, err)
	assert.Equal(t, "TX-680816-002\n", out)

	out, err = run(t, store, "next", "INV", "--granularity", "month")
	require.NoError(t, err)
	assert.Equal(t, "INV-6808-001\n", out)
}

func TestNextCommand_UnknownPrefix(t *testing.T) {
	_, err := run(t, numerator.NewMemoryCounterStore(), "next", "PO")
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestPreviewCommand_DoesNotConsume(t *testing.T) {
	store := numerator.NewMemoryCounterStore()

	for i := 0; i < 2; i++ {
		out, err := run(t, store, "preview", "QT", "--format", "json")
		require.NoError(t, err)

		var res numberResult
		require.NoError(t, json.Unmarshal([]byte(out), &res))
		assert.Equal(t, numerator.KindQuotation, res.Prefix)
		assert.Equal(t, "QT-680816-001", res.Number)
	}
}

func TestParseCommand(t *testing.T) {
	out, err := run(t, nil, "parse", "TX-680816-042", "--format", "json")
	require.NoError(t, err)

	var res parseResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, numerator.KindTaxInvoice, res.Prefix)
	assert.Equal(t, "680816", res.DatePrefix)
	assert.Equal(t, 2568, res.Year)
	assert.Equal(t, 2025, res.GregorianYear)
	assert.Equal(t, 8, res.Month)
	assert.Equal(t, 16, res.Day)
	assert.Equal(t, int64(42), res.Sequence)

	out, err = run(t, nil, "parse", "INV-6808-007")
	require.NoError(t, err)
	assert.Equal(t, "prefix=INV date=6808 year=2568 (2025) month=8 day=0 sequence=7\n", out)
}

func TestParseCommand_Invalid(t *testing.T) {
	_, err := run(t, nil, "parse", "QT-68-1")
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInvalidDocumentNumber, appErr.Code)
}

func TestAdvanceCommand(t *testing.T) {
	store := numerator.NewMemoryCounterStore()

	out, err := run(t, store, "advance", "RE", "680816", "50")
	require.NoError(t, err)
	assert.Equal(t, "QT_680816 = 50\n", out)

	// Lower values never rewind.
	out, err = run(t, store, "advance", "QT", "680816", "10")
	require.NoError(t, err)
	assert.Equal(t, "QT_680816 = 50\n", out)

	out, err = run(t, store, "next", "QT")
	require.NoError(t, err)
	assert.Equal(t, "QT-680816-051\n", out)
}

func TestAdvanceCommand_BadValue(t *testing.T) {
	_, err := run(t, numerator.NewMemoryCounterStore(), "advance", "QT", "680816", "many")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not an integer")
}

func TestStatsCommand(t *testing.T) {
	store := numerator.NewMemoryCounterStore()
	_, err := run(t, store, "next", "QT")
	require.NoError(t, err)
	_, err = run(t, store, "next", "INV")
	require.NoError(t, err)

	out, err := run(t, store, "stats", "--format", "json")
	require.NoError(t, err)

	var report numerator.UsageReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, int64(2), report.TotalIssued)
	require.Len(t, report.ByKind, 2)
	assert.Equal(t, numerator.KindInvoice, report.ByKind[0].Kind)
	assert.Equal(t, numerator.KindQuotation, report.ByKind[1].Kind)

	out, err = run(t, store, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Total issued: 2")
	assert.Contains(t, out, "QT_680816")
}

func TestMigrateCommand_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	_, err := run(t, nil, "migrate", "up")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database url")
}
