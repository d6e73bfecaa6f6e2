// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pdf2docx/internal/convert"
	"github.com/pdiddy/pdf2docx/internal/history"
)

func newHistoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded conversions",
		Long: `History lists past conversion attempts, newest first. Conversions are only
recorded when history.enabled is set in the config file (or
PDF2DOCX_HISTORY_ENABLED=true).`,
		Args: cobra.NoArgs,
		RunE: a.runHistory,
	}
	cmd.Flags().IntP("limit", "n", 20, "maximum number of conversions to show")
	cmd.Flags().StringP("format", "f", history.FormatTable, "output format: table, yaml, or json")
	return cmd
}

func (a *app) runHistory(cmd *cobra.Command, _ []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	format, _ := cmd.Flags().GetString("format")
	switch format {
	case history.FormatTable, history.FormatYAML, history.FormatJSON:
	default:
		return fmt.Errorf("%w: unsupported format %q: use table, yaml, or json", convert.ErrUsage, format)
	}

	// A ledger that was never written is not created just to be listed.
	if _, err := os.Stat(a.cfg.History.Path); errors.Is(err, fs.ErrNotExist) {
		return history.Export(a.stdout, nil, format)
	}

	store, err := history.Open(a.cfg.History.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.List(context.Background(), limit)
	if err != nil {
		return err
	}
	return history.Export(a.stdout, records, format)
}
