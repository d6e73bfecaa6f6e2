// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/pdiddy/pdf2docx/pkg/types"
)

// DefaultSoffice is the LibreOffice binary looked up on PATH.
const DefaultSoffice = "soffice"

// commandRunner abstracts running a local binary for testing.
type commandRunner interface {
	LookPath(file string) (string, error)
	Run(name string, args []string, stderr io.Writer) error
}

type osRunner struct{}

func (osRunner) LookPath(file string) (string, error) { return exec.LookPath(file) }

func (osRunner) Run(name string, args []string, stderr io.Writer) error {
	cmd := exec.Command(name, args...)
	cmd.Stderr = stderr
	return cmd.Run()
}

// LibreOfficeEngine converts PDFs with a headless LibreOffice, importing
// the PDF into Writer and exporting it as Office Open XML.
type LibreOfficeEngine struct {
	binary string
	run    commandRunner
}

// NewLibreOfficeEngine resolves binary (default "soffice") on PATH.
func NewLibreOfficeEngine(binary string) (*LibreOfficeEngine, error) {
	return newLibreOfficeEngine(binary, osRunner{})
}

func newLibreOfficeEngine(binary string, run commandRunner) (*LibreOfficeEngine, error) {
	if binary == "" {
		binary = DefaultSoffice
	}
	path, err := run.LookPath(binary)
	if err != nil {
		return nil, fmt.Errorf("libreoffice binary %s not found: %w", binary, err)
	}
	return &LibreOfficeEngine{binary: path, run: run}, nil
}

func (l *LibreOfficeEngine) Name() string { return string(types.BackendLibreOffice) }

// Open only checks that the file is readable; soffice reads it by path.
func (l *LibreOfficeEngine) Open(pdfPath string) (Document, error) {
	f, err := os.Open(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("opening PDF %s: %w", pdfPath, err)
	}
	return &libreOfficeDocument{engine: l, file: f}, nil
}

type libreOfficeDocument struct {
	engine *LibreOfficeEngine
	file   *os.File
}

func (d *libreOfficeDocument) Convert(outputPath string, pages PageRange) error {
	if !pages.IsAll() {
		return fmt.Errorf("libreoffice backend cannot restrict conversion to %s", pages)
	}

	// The staging directory sits next to the output so the final rename
	// does not cross filesystems.
	outDir, err := os.MkdirTemp(filepath.Dir(outputPath), ".pdf2docx-")
	if err != nil {
		return fmt.Errorf("creating staging directory: %w", err)
	}
	defer os.RemoveAll(outDir)

	in := d.file.Name()
	args := []string{
		"--headless",
		"--infilter=writer_pdf_import",
		"--convert-to", "docx:MS Word 2007 XML",
		"--outdir", outDir,
		in,
	}
	var stderr bytes.Buffer
	if err := d.engine.run.Run(d.engine.binary, args, &stderr); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("running %s: %w: %s", filepath.Base(d.engine.binary), err, msg)
		}
		return fmt.Errorf("running %s: %w", filepath.Base(d.engine.binary), err)
	}

	base := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
	produced := filepath.Join(outDir, base+docxExt)
	info, err := os.Stat(produced)
	if err != nil {
		return fmt.Errorf("libreoffice did not produce %s: %w", filepath.Base(produced), err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("%s: %w", filepath.Base(produced), errEmptyOutput)
	}
	return publishFile(produced, outputPath)
}

func (d *libreOfficeDocument) Close() error {
	return d.file.Close()
}
