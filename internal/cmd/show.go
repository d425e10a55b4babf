package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/surgeprotector/surgeprotector/internal/config"
	"github.com/surgeprotector/surgeprotector/internal/core/blocklist"
	"github.com/surgeprotector/surgeprotector/internal/observability"
	"github.com/surgeprotector/surgeprotector/internal/output"
)

// showOptions holds the parsed show flags.
type showOptions struct {
	Count  int
	File   string
	Format output.Format
	Out    string
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the addresses with the most connections",
	Long: `Show the addresses with the most TCP connections, highest last.

With --file, show the most recently blocked entries of a blocklist file
instead of sampling live connections.`,
	Example: `  surgeprotector show
  surgeprotector show -n 25 --output-format table
  surgeprotector show --file /var/lib/tor/blocklist --output-format json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := showOptionsFromFlags(cmd)
		if err != nil {
			return err
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		sink, err := openSink(opts.Out, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer func() { _ = sink.Close() }()

		return runShow(cmd.Context(), cfg, opts, sink, time.Now())
	},
}

func init() {
	rootCmd.AddCommand(showCmd)

	showCmd.Flags().IntP("count", "n", 10, "number of addresses to show (0 for all)")
	showCmd.Flags().StringP("file", "f", "", "list entries of this blocklist file instead of live connections")
	showCmd.Flags().String("output-format", "text", "output format: text, table, json, yaml, markdown")
	showCmd.Flags().String("out", "", "write output to this file instead of stdout")
}

func showOptionsFromFlags(cmd *cobra.Command) (showOptions, error) {
	count, err := cmd.Flags().GetInt("count")
	if err != nil {
		return showOptions{}, err
	}
	file, err := cmd.Flags().GetString("file")
	if err != nil {
		return showOptions{}, err
	}
	format, err := resolveOutputFormat(cmd)
	if err != nil {
		return showOptions{}, err
	}
	out, err := cmd.Flags().GetString("out")
	if err != nil {
		return showOptions{}, err
	}
	return showOptions{Count: count, File: strings.TrimSpace(file), Format: format, Out: out}, nil
}

func runShow(ctx context.Context, cfg *config.Config, opts showOptions, w io.Writer, now time.Time) error {
	formatter := output.NewFormatter(opts.Format)

	var rendered string
	if opts.File != "" {
		entries, err := blockedEntries(ctx, opts.File)
		if err != nil {
			return err
		}
		rendered, err = formatter.FormatBlocks(output.Top(opts.Count, entries), now)
		if err != nil {
			return err
		}
	} else {
		s, err := newSampler(cfg)
		if err != nil {
			return err
		}
		snapshot, err := s.Sample(ctx)
		if err != nil {
			return err
		}
		observability.CLILogger.Debug("Sampled connections", zap.Int("addresses", len(snapshot)))

		rendered, err = formatter.FormatConnections(output.Top(opts.Count, output.EntriesFromSnapshot(snapshot)))
		if err != nil {
			return err
		}
	}

	_, err := io.WriteString(w, rendered)
	return err
}

// blockedEntries reads path as a blocklist. Unlike the update command, a
// missing file is an error here.
func blockedEntries(ctx context.Context, path string) ([]output.Entry, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("blocklist %s: %w", path, err)
	}

	store, err := blocklist.Open(path)
	if err != nil {
		return nil, err
	}
	records, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}
	return output.EntriesFromRecords(records), nil
}
