package postgres

import (
	"context"
	"fmt"
	"regexp"
	"sync/atomic"

	"github.com/Masterminds/squirrel"
	"golang.org/x/sync/errgroup"

	"salesdocs/internal/core/numerator"
)

var identifierPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Target is a table column that may hold numbers of a kind.
type Target struct {
	Table   string   `yaml:"table"`
	Columns []string `yaml:"columns"`
}

// DefaultTargets lists where each kind's numbers are stored. Receipts also
// live in the legacy invoice-receipt table.
func DefaultTargets() map[numerator.Kind][]Target {
	return map[numerator.Kind][]Target{
		numerator.KindQuotation:   {{Table: "doc_quotations", Columns: []string{"number"}}},
		numerator.KindInvoice:     {{Table: "doc_invoices", Columns: []string{"number"}}},
		numerator.KindTaxInvoice:  {{Table: "doc_tax_invoices", Columns: []string{"number"}}},
		numerator.KindInstallment: {{Table: "doc_installment_contracts", Columns: []string{"number"}}},
		numerator.KindReceipt: {
			{Table: "doc_receipts", Columns: []string{"number"}},
			{Table: "legacy_invoice_receipts", Columns: []string{"receipt_number"}},
		},
	}
}

// Registry answers whether a number is already used by any table of its kind.
type Registry struct {
	db      Querier
	targets map[numerator.Kind][]Target
}

// NewRegistry creates a Registry. Table and column names are validated
// because they are interpolated into SQL.
func NewRegistry(db Querier, targets map[numerator.Kind][]Target) (*Registry, error) {
	for kind, list := range targets {
		for _, t := range list {
			if !identifierPattern.MatchString(t.Table) {
				return nil, fmt.Errorf("registry %s: invalid table %q", kind, t.Table)
			}
			if len(t.Columns) == 0 {
				return nil, fmt.Errorf("registry %s: table %s has no columns", kind, t.Table)
			}
			for _, c := range t.Columns {
				if !identifierPattern.MatchString(c) {
					return nil, fmt.Errorf("registry %s: invalid column %q", kind, c)
				}
			}
		}
	}
	return &Registry{db: db, targets: targets}, nil
}

// existsQuery builds SELECT EXISTS(SELECT 1 FROM t WHERE (c1 = $1 OR ...) LIMIT 1).
func existsQuery(t Target, number string) (string, []any, error) {
	or := make(squirrel.Or, 0, len(t.Columns))
	for _, c := range t.Columns {
		or = append(or, squirrel.Eq{c: number})
	}
	inner, args, err := Builder().Select("1").From(t.Table).Where(or).Limit(1).ToSql()
	if err != nil {
		return "", nil, err
	}
	return "SELECT EXISTS(" + inner + ")", args, nil
}

// Exists implements numerator.DuplicateChecker. Targets are queried
// concurrently; a hit in any of them is a duplicate, even when another
// lookup failed. Kinds without targets have nothing to collide with.
func (r *Registry) Exists(ctx context.Context, kind numerator.Kind, number string) (bool, error) {
	targets := r.targets[kind]
	if len(targets) == 0 {
		return false, nil
	}

	// Siblings are not cancelled on error: a failed lookup must not abort
	// the one that would hit.
	var found atomic.Bool
	var g errgroup.Group
	for _, t := range targets {
		g.Go(func() error {
			sql, args, err := existsQuery(t, number)
			if err != nil {
				return fmt.Errorf("build query for %s: %w", t.Table, err)
			}
			var exists bool
			if err := r.db.QueryRow(ctx, sql, args...).Scan(&exists); err != nil {
				return fmt.Errorf("check %s: %w", t.Table, err)
			}
			if exists {
				found.Store(true)
			}
			return nil
		})
	}
	err := g.Wait()
	if found.Load() {
		return true, nil
	}
	return false, err
}

var _ numerator.DuplicateChecker = (*Registry)(nil)
