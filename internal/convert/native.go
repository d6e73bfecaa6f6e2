// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gomutex/godocx"
	"github.com/ledongthuc/pdf"

	"github.com/pdiddy/pdf2docx/pkg/types"
)

// NativeEngine converts PDFs in-process. It reads the embedded text layer
// with ledongthuc/pdf and writes one DOCX paragraph per text line, with a
// page break between PDF pages. Scanned (image-only) PDFs produce empty
// pages; layout, images and tables are not reconstructed.
type NativeEngine struct{}

// NewNativeEngine returns the pure-Go engine.
func NewNativeEngine() *NativeEngine {
	return &NativeEngine{}
}

func (n *NativeEngine) Name() string { return string(types.BackendNative) }

// newPDFReader parses the cross-reference table of an open PDF.
var newPDFReader = pdf.NewReader

// Open parses the PDF cross-reference table. The parser panics on some
// malformed files; those panics are returned as errors. The file is closed
// on every failure path.
func (n *NativeEngine) Open(pdfPath string) (doc Document, err error) {
	f, err := os.Open(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("reading PDF %s: %w", pdfPath, err)
	}
	// Runs after recoverParse has set err.
	defer func() {
		if err != nil {
			f.Close()
		}
	}()
	defer recoverParse(&err)

	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("reading PDF %s: %w", pdfPath, err)
	}
	r, err := newPDFReader(f, fi.Size())
	if err != nil {
		return nil, fmt.Errorf("reading PDF %s: %w", pdfPath, err)
	}
	return &nativeDocument{file: f, reader: r}, nil
}

// nativeDocument is an open PDF read by the native engine.
type nativeDocument struct {
	file   *os.File
	reader *pdf.Reader
}

// pageTexts extracts the plain text of pages [start, end), zero-based.
func (d *nativeDocument) pageTexts(start, end int) ([]string, error) {
	fonts := make(map[string]*pdf.Font)
	texts := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		p := d.reader.Page(i + 1)
		if p.V.IsNull() {
			texts = append(texts, "")
			continue
		}
		for _, name := range p.Fonts() {
			if _, ok := fonts[name]; !ok {
				f := p.Font(name)
				fonts[name] = &f
			}
		}
		text, err := p.GetPlainText(fonts)
		if err != nil {
			return nil, fmt.Errorf("reading page %d: %w", i+1, err)
		}
		texts = append(texts, text)
	}
	return texts, nil
}

func (d *nativeDocument) Convert(outputPath string, pages PageRange) (err error) {
	defer recoverParse(&err)

	start, end, err := pages.Clamp(d.reader.NumPage())
	if err != nil {
		return err
	}
	texts, err := d.pageTexts(start, end)
	if err != nil {
		return err
	}

	doc, err := godocx.NewDocument()
	if err != nil {
		return fmt.Errorf("creating DOCX document: %w", err)
	}
	for i, text := range texts {
		if i > 0 {
			doc.AddPageBreak()
		}
		for _, line := range strings.Split(text, "\n") {
			if line = strings.TrimRight(line, " \t\r"); line != "" {
				doc.AddParagraph(line)
			}
		}
	}

	return writeOutput(outputPath, func(w io.Writer) error {
		if err := doc.Write(w); err != nil {
			return fmt.Errorf("saving DOCX: %w", err)
		}
		return nil
	})
}

func (d *nativeDocument) Close() error {
	return d.file.Close()
}

// recoverParse turns a parser panic into an error assigned to *err.
func recoverParse(err *error) {
	if r := recover(); r != nil {
		switch v := r.(type) {
		case error:
			*err = fmt.Errorf("malformed PDF: %w", v)
		case string:
			*err = fmt.Errorf("malformed PDF: %w", errors.New(v))
		default:
			*err = fmt.Errorf("malformed PDF: %v", v)
		}
	}
}
