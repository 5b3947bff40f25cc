package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"salesdocs/internal/core/numerator"
)

type numberResult struct {
	Prefix numerator.Kind `json:"prefix"`
	Number string         `json:"number"`
}

func newNextCommand(opts *RootOptions) *cobra.Command {
	var granularity string
	cmd := &cobra.Command{
		Use:   "next <prefix>",
		Short: "Draw the next number for a prefix",
		Long: `Draw and consume the next number for a prefix. The number is not
attached to a document; use it for documents issued outside the service.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, g, err := parseKindAndGranularity(args[0], granularity)
			if err != nil {
				return err
			}
			return opts.withBackend(cmd.Context(), func(b *Backend) error {
				number, err := b.Numbers.Next(cmd.Context(), kind, g)
				if err != nil {
					return err
				}
				return opts.print(cmd, numberResult{Prefix: kind, Number: number}, number)
			})
		},
	}
	cmd.Flags().StringVarP(&granularity, "granularity", "g", "", "date granularity (YYMMDD|YYMM)")
	return cmd
}

func newPreviewCommand(opts *RootOptions) *cobra.Command {
	var granularity string
	cmd := &cobra.Command{
		Use:   "preview <prefix>",
		Short: "Show the next number without consuming it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, g, err := parseKindAndGranularity(args[0], granularity)
			if err != nil {
				return err
			}
			return opts.withBackend(cmd.Context(), func(b *Backend) error {
				number, err := b.Numbers.Preview(cmd.Context(), kind, g)
				if err != nil {
					return err
				}
				return opts.print(cmd, numberResult{Prefix: kind, Number: number}, number)
			})
		},
	}
	cmd.Flags().StringVarP(&granularity, "granularity", "g", "", "date granularity (YYMMDD|YYMM)")
	return cmd
}

type parseResult struct {
	Number        string         `json:"number"`
	Prefix        numerator.Kind `json:"prefix"`
	DatePrefix    string         `json:"datePrefix"`
	Year          int            `json:"year"`
	GregorianYear int            `json:"gregorianYear"`
	Month         int            `json:"month"`
	Day           int            `json:"day,omitempty"`
	Sequence      int64          `json:"sequence"`
}

func newParseCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "parse <number>",
		Short: "Validate and decompose a document number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := numerator.Parse(args[0])
			if err != nil {
				return err
			}
			res := parseResult{
				Number:        args[0],
				Prefix:        n.Kind,
				DatePrefix:    n.DatePrefix(),
				Year:          n.Year,
				GregorianYear: n.GregorianYear(),
				Month:         n.Month,
				Day:           n.Day,
				Sequence:      n.Sequence,
			}
			text := fmt.Sprintf("prefix=%s date=%s year=%d (%d) month=%d day=%d sequence=%d",
				n.Kind, n.DatePrefix(), n.Year, n.GregorianYear(), n.Month, n.Day, n.Sequence)
			return opts.print(cmd, res, text)
		},
	}
}

func newStatsCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Report counter usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withBackend(cmd.Context(), func(b *Backend) error {
				report, err := b.Numbers.Report(cmd.Context())
				if err != nil {
					return err
				}
				if opts.Format == "json" {
					return writeJSON(cmd.OutOrStdout(), report)
				}
				return RenderUsageReport(cmd.OutOrStdout(), report)
			})
		},
	}
}

type advanceResult struct {
	Prefix     numerator.Kind `json:"prefix"`
	Counter    string         `json:"counter"`
	DatePrefix string         `json:"datePrefix"`
	Sequence   int64          `json:"sequence"`
}

func newAdvanceCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "advance <prefix> <datePrefix> <value>",
		Short: "Move a counter forward, never back",
		Long: `Raise the counter a prefix draws from to at least value. Used after
importing documents numbered by another system. Lower values are ignored.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := numerator.ParseKind(args[0])
			if err != nil {
				return err
			}
			value, err := strconv.ParseInt(args[2], 10, 64)
			if err != nil {
				return fmt.Errorf("value %q is not an integer", args[2])
			}
			return opts.withBackend(cmd.Context(), func(b *Backend) error {
				seq, err := b.Numbers.Advance(cmd.Context(), kind, args[1], value)
				if err != nil {
					return err
				}
				key, err := b.Numbers.CounterKeyFor(kind, numerator.GranularityDefault)
				if err != nil {
					return err
				}
				key.DatePrefix = args[1]
				res := advanceResult{Prefix: kind, Counter: key.String(), DatePrefix: args[1], Sequence: seq}
				return opts.print(cmd, res, fmt.Sprintf("%s = %d", key, seq))
			})
		},
	}
}

func parseKindAndGranularity(prefix, granularity string) (numerator.Kind, numerator.Granularity, error) {
	kind, err := numerator.ParseKind(prefix)
	if err != nil {
		return "", "", err
	}
	g, err := numerator.ParseGranularity(granularity)
	if err != nil {
		return "", "", err
	}
	return kind, g, nil
}
