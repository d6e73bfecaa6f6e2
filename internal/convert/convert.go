// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert implements PDF-to-DOCX conversion with pluggable engines.
// The package validates the request, derives the output path, and hands the
// actual transformation to an Engine; it never parses PDF content itself.
package convert

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/hashicorp/go-multierror"
)

// docxExt is the extension appended to derived output paths.
const docxExt = ".docx"

var (
	// ErrUsage marks invalid invocations: wrong arguments, bad page ranges,
	// unknown backends.
	ErrUsage = errors.New("usage error")

	// ErrInputNotFound is returned when the input path is not an existing
	// regular file.
	ErrInputNotFound = errors.New("input file not found")
)

// Engine opens PDF documents for conversion. Backends (native, container,
// libreoffice, remote) implement this interface.
type Engine interface {
	// Name returns the backend name used in status lines and history.
	Name() string

	// Open prepares the PDF at pdfPath for conversion. It fails when the
	// file cannot be read as a document.
	Open(pdfPath string) (Document, error)
}

// Document is an opened PDF. Close must be called exactly once after a
// successful Open, whatever Convert returned.
type Document interface {
	// Convert writes the pages selected by pages as a DOCX at outputPath.
	Convert(outputPath string, pages PageRange) error

	// Close releases the resources acquired by Open.
	Close() error
}

// ConversionError wraps any failure raised by an engine.
type ConversionError struct {
	Backend string
	Err     error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("conversion failed (%s): %v", e.Backend, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// Request describes one conversion.
type Request struct {
	// InputPath is the PDF to convert.
	InputPath string

	// OutputPath is where the DOCX is written. Empty or whitespace-only
	// means DefaultOutputPath(InputPath).
	OutputPath string

	// Pages restricts the conversion; the zero value selects every page.
	Pages PageRange
}

// Result holds the outcome of a successful conversion.
type Result struct {
	InputPath  string
	OutputPath string
	Backend    string
	Bytes      int64
	Elapsed    time.Duration
}

var (
	labelInfo = color.New(color.FgCyan).SprintFunc()
	labelOK   = color.New(color.FgGreen, color.Bold).SprintFunc()
)

// DefaultOutputPath replaces the extension of inputPath with ".docx". A path
// without an extension gets ".docx" appended. Leading dots of the file name
// do not start an extension, so ".notes" becomes ".notes.docx".
func DefaultOutputPath(inputPath string) string {
	base := filepath.Base(inputPath)
	ext := filepath.Ext(strings.TrimLeft(base, "."))
	return strings.TrimSuffix(inputPath, ext) + docxExt
}

// ResolveOutputPath returns outputPath unless it is blank, in which case the
// path is derived from inputPath.
func ResolveOutputPath(inputPath, outputPath string) string {
	if strings.TrimSpace(outputPath) == "" {
		return DefaultOutputPath(inputPath)
	}
	return outputPath
}

// CheckInput reports ErrInputNotFound unless path names an existing regular
// file.
func CheckInput(path string) error {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s", ErrInputNotFound, path)
	}
	return nil
}

// Run validates req, converts the input with e, and writes human-readable
// status lines to w. Engine failures are returned as *ConversionError; the
// wrapper neither retries nor removes partial output.
func Run(e Engine, req Request, w io.Writer) (Result, error) {
	if err := CheckInput(req.InputPath); err != nil {
		return Result{}, err
	}
	if err := req.Pages.Validate(); err != nil {
		return Result{}, err
	}

	out := ResolveOutputPath(req.InputPath, req.OutputPath)
	fmt.Fprintf(w, "%s  %s\n", labelInfo("input:"), req.InputPath)
	fmt.Fprintf(w, "%s %s\n", labelInfo("output:"), out)
	fmt.Fprintf(w, "converting %s with %s backend (%s)...\n", filepath.Base(req.InputPath), e.Name(), req.Pages)

	start := time.Now()
	if err := convertDocument(e, req.InputPath, out, req.Pages); err != nil {
		return Result{}, &ConversionError{Backend: e.Name(), Err: err}
	}

	res := Result{
		InputPath:  req.InputPath,
		OutputPath: out,
		Backend:    e.Name(),
		Elapsed:    time.Since(start),
	}
	if info, err := os.Stat(out); err == nil {
		res.Bytes = info.Size()
	}

	fmt.Fprintf(w, "%s wrote %s (%s in %s)\n", labelOK("success:"), out,
		humanize.Bytes(uint64(res.Bytes)), res.Elapsed.Round(time.Millisecond))
	return res, nil
}

// convertDocument opens the PDF, converts it, and closes the handle exactly
// once. Convert and Close failures are both reported when both occur.
func convertDocument(e Engine, in, out string, pages PageRange) (err error) {
	doc, err := e.Open(in)
	if err != nil {
		return fmt.Errorf("opening %s: %w", in, err)
	}
	defer func() {
		if cerr := doc.Close(); cerr != nil {
			cerr = fmt.Errorf("closing %s: %w", in, cerr)
			if err == nil {
				err = cerr
				return
			}
			err = multierror.Append(err, cerr)
		}
	}()

	return doc.Convert(out, pages)
}
