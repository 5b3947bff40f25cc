package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"salesdocs/internal/core/numerator"
)

// print writes data as JSON or text as the format flag asks.
func (o *RootOptions) print(cmd *cobra.Command, data any, text string) error {
	if o.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), data)
	}
	_, err := fmt.Fprintln(cmd.OutOrStdout(), text)
	return err
}

func writeJSON(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// RenderUsageReport writes report as fixed-width text. Times are shown in
// the report's location.
func RenderUsageReport(w io.Writer, r numerator.UsageReport) error {
	loc := r.GeneratedAt.Location()
	p := &errWriter{w: w}

	p.printf("Generated at: %s\n", r.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	p.printf("Total issued: %d\n", r.TotalIssued)
	p.printf("Active today: %d\n", r.ActiveToday)

	if len(r.ByKind) == 0 {
		p.printf("\nNo counters issued yet.\n")
		return p.err
	}

	p.printf("\n%-6s %8s %8s  %s\n", "KIND", "BUCKETS", "ISSUED", "LATEST")
	for _, u := range r.ByKind {
		latest := "-"
		if u.LatestPrefix != "" {
			latest = fmt.Sprintf("%s #%d", u.LatestPrefix, u.LatestSequence)
		}
		p.printf("%-6s %8d %8d  %s\n", u.Kind, u.Buckets, u.Issued, latest)
	}

	p.printf("\nRECENT\n")
	p.printf("%-12s %8s  %s\n", "COUNTER", "SEQUENCE", "UPDATED")
	for _, c := range r.Recent {
		key := numerator.CounterKey{DocumentType: c.DocumentType, DatePrefix: c.DatePrefix}
		p.printf("%-12s %8d  %s\n", key, c.Sequence, c.UpdatedAt.In(loc).Format("2006-01-02 15:04"))
	}
	return p.err
}

// errWriter keeps the first write error.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
