// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the pdf2docx CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pdf2docx/internal/convert"
	"github.com/pdiddy/pdf2docx/internal/history"
	"github.com/pdiddy/pdf2docx/internal/secrets"
	"github.com/pdiddy/pdf2docx/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// exitFailure is returned for usage errors, missing inputs, and conversion
// failures alike.
const exitFailure = 1

var labelErr = color.New(color.FgRed, color.Bold).SprintFunc()

// app carries the state of one CLI execution. Nothing outlives it, so
// repeated executions in one process never share configuration.
type app struct {
	stdout io.Writer
	stderr io.Writer
	v      *viper.Viper
	cfg    types.Config
}

// newRootCmd builds the command tree for one execution.
func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr, v: viper.New()}

	root := &cobra.Command{
		Use:   "pdf2docx <input.pdf> [output.docx]",
		Short: "Convert a PDF file to a DOCX document",
		Long: `pdf2docx converts a PDF file into a Word (DOCX) document by delegating the
transformation to a conversion engine. Without an output path the document is
written next to the input with its extension replaced by .docx.

Backends:
  native       pure Go, text layer only (default)
  container    pdf2docx container image on docker or podman
  libreoffice  headless soffice with the Writer PDF import filter
  remote       HTTP conversion service (remote.url)

An input named like a subcommand (history, version) runs that command; pass
it as a path instead, e.g. ./history.`,
		Example: `  pdf2docx report.pdf
  pdf2docx report.pdf out/final.docx
  pdf2docx --backend container --pages 2-5 thesis.pdf`,
		Args:              validateConvertArgs,
		PersistentPreRunE: a.loadConfig,
		RunE:              a.runConvert,
		SilenceErrors:     true,
		SilenceUsage:      true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", convert.ErrUsage, err)
	})

	root.PersistentFlags().String("config", "", "config file (default: ./pdf2docx.yaml or ~/.config/pdf2docx/pdf2docx.yaml)")
	root.PersistentFlags().BoolP("verbose", "v", false, "print configuration details to stderr")
	root.Flags().StringP("backend", "b", "", fmt.Sprintf("conversion backend: %s", joinBackends()))
	root.Flags().StringP("pages", "p", "", `pages to convert, 1-based: "3", "2-5" or "4-" (default: all)`)
	_ = a.v.BindPFlag("backend", root.Flags().Lookup("backend"))

	root.AddCommand(newHistoryCmd(a), newVersionCmd(a))
	return root
}

func joinBackends() string {
	names := make([]string, len(types.Backends))
	for i, b := range types.Backends {
		names[i] = string(b)
	}
	return strings.Join(names, ", ")
}

func validateConvertArgs(_ *cobra.Command, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("%w: expected <input.pdf> [output.docx], got %d argument(s)", convert.ErrUsage, len(args))
	}
	return nil
}

func (a *app) setDefaults() {
	a.v.SetDefault("backend", string(types.BackendNative))
	a.v.SetDefault("container.image", convert.DefaultImage)
	a.v.SetDefault("container.runtime", "auto")
	a.v.SetDefault("libreoffice.binary", convert.DefaultSoffice)
	a.v.SetDefault("remote.url", "")
	a.v.SetDefault("remote.api_key", "")
	a.v.SetDefault("remote.timeout", 2*time.Minute)
	a.v.SetDefault("remote.max_retries", 3)
	a.v.SetDefault("secrets_dir", ".secrets/")
	a.v.SetDefault("history.enabled", false)
	a.v.SetDefault("history.path", history.DefaultPath())
}

// loadConfig reads the config file and environment into a.cfg. A missing
// default config file is not an error; an explicit --config must exist.
func (a *app) loadConfig(cmd *cobra.Command, _ []string) error {
	a.setDefaults()

	cfgFile, _ := cmd.Flags().GetString("config")
	if cfgFile != "" {
		a.v.SetConfigFile(cfgFile)
	} else {
		a.v.SetConfigName("pdf2docx")
		a.v.SetConfigType("yaml")
		a.v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			a.v.AddConfigPath(filepath.Join(home, ".config", "pdf2docx"))
		}
	}

	a.v.SetEnvPrefix("PDF2DOCX")
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	a.v.AutomaticEnv()

	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("reading config: %w", err)
		}
	}

	if err := a.v.Unmarshal(&a.cfg); err != nil {
		return fmt.Errorf("decoding config: %w", err)
	}

	if a.verbose(cmd) {
		if used := a.v.ConfigFileUsed(); used != "" {
			fmt.Fprintln(a.stderr, "Using config file:", used)
		}
		fmt.Fprintf(a.stderr, "Backend: %s\n", a.cfg.Backend)
	}
	return nil
}

func (a *app) verbose(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("verbose")
	return v
}

// loadSecrets fills credentials the selected backend needs from the
// secrets directory.
func (a *app) loadSecrets(cmd *cobra.Command) error {
	if a.cfg.Backend != types.BackendRemote {
		return nil
	}
	s, err := secrets.Load(a.cfg.SecretsDir, a.stderr)
	if err != nil {
		return err
	}
	if a.verbose(cmd) && len(s) > 0 {
		keys := make([]string, 0, len(s))
		for k := range s {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Fprintf(a.stderr, "Loaded secrets: %v\n", keys)
	}
	a.cfg.Remote.APIKey = secrets.Default(s, secrets.RemoteAPIKey, a.cfg.Remote.APIKey)
	return nil
}

func (a *app) runConvert(cmd *cobra.Command, args []string) error {
	pagesFlag, _ := cmd.Flags().GetString("pages")
	pages, err := convert.ParsePageRange(pagesFlag)
	if err != nil {
		return err
	}

	req := convert.Request{InputPath: args[0], Pages: pages}
	if len(args) == 2 {
		req.OutputPath = args[1]
	}

	if err := convert.CheckInput(req.InputPath); err != nil {
		return err
	}
	if err := a.loadSecrets(cmd); err != nil {
		return err
	}

	started := time.Now()
	eng, err := convert.NewEngine(a.cfg.ConversionConfig)
	if err != nil {
		if !errors.Is(err, convert.ErrUsage) {
			a.record(req, string(a.cfg.Backend), convert.Result{}, started, err)
		}
		return err
	}

	res, err := convert.Run(eng, req, a.stdout)
	a.record(req, eng.Name(), res, started, err)
	return err
}

// record appends the attempt to the history ledger when enabled. Ledger
// failures are warnings; they never change the conversion outcome.
func (a *app) record(req convert.Request, backend string, res convert.Result, started time.Time, convErr error) {
	if !a.cfg.History.Enabled {
		return
	}

	store, err := history.Open(a.cfg.History.Path)
	if err != nil {
		fmt.Fprintf(a.stderr, "warning: history disabled for this run: %v\n", err)
		return
	}
	defer store.Close()

	r := history.Record{
		InputPath:  req.InputPath,
		OutputPath: convert.ResolveOutputPath(req.InputPath, req.OutputPath),
		Backend:    backend,
		Status:     types.ConversionDone,
		Bytes:      res.Bytes,
		StartedAt:  started,
		Duration:   time.Since(started),
	}
	if convErr != nil {
		r.Status = types.ConversionFailed
		r.Error = convErr.Error()
	}
	if _, err := store.Record(context.Background(), r); err != nil {
		fmt.Fprintf(a.stderr, "warning: %v\n", err)
	}
}

// execute runs the CLI with args and returns the process exit status.
func execute(args []string, stdout, stderr io.Writer) int {
	if args == nil {
		args = []string{}
	}
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)

	cmd, err := root.ExecuteC()
	if err == nil {
		return 0
	}

	fmt.Fprintf(stdout, "%s %v\n", labelErr("error:"), err)
	if errors.Is(err, convert.ErrUsage) && cmd != nil {
		fmt.Fprint(stderr, cmd.UsageString())
	}
	return exitFailure
}

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}
