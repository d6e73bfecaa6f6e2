// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/pdiddy/pdf2docx/internal/container"
	"github.com/pdiddy/pdf2docx/pkg/types"
)

// DefaultImage is the container image used when none is configured. It must
// read a PDF on stdin and write the DOCX to stdout, accepting optional
// --start and --end page arguments (zero-based, end exclusive).
const DefaultImage = "pdf2docx:latest"

// errEmptyOutput is returned when an engine reports success but produced
// no bytes.
var errEmptyOutput = errors.New("engine produced empty output")

// ContainerEngine converts PDFs by piping them through a container image.
// It depends on a container.Runtime (docker or podman) injected at
// construction time.
type ContainerEngine struct {
	runtime container.Runtime
	image   string
}

// NewContainerEngine creates an engine that runs image on rt. It verifies
// that the image exists locally before returning.
func NewContainerEngine(rt container.Runtime, image string) (*ContainerEngine, error) {
	if image == "" {
		image = DefaultImage
	}
	if err := rt.ImageExists(image); err != nil {
		return nil, fmt.Errorf("%s image not available in %s: %w", image, rt.Name(), err)
	}
	return &ContainerEngine{runtime: rt, image: image}, nil
}

func (c *ContainerEngine) Name() string { return string(types.BackendContainer) }

func (c *ContainerEngine) Open(pdfPath string) (Document, error) {
	f, err := os.Open(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("opening PDF %s: %w", pdfPath, err)
	}
	return &containerDocument{engine: c, file: f}, nil
}

type containerDocument struct {
	engine *ContainerEngine
	file   *os.File
}

func (d *containerDocument) Convert(outputPath string, pages PageRange) error {
	if _, err := d.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewinding %s: %w", d.file.Name(), err)
	}

	return writeOutput(outputPath, func(w io.Writer) error {
		cw := &countingWriter{w: w}
		if err := d.engine.runtime.Run(d.engine.image, pageArgs(pages), d.file, cw); err != nil {
			return err
		}
		if cw.n == 0 {
			return fmt.Errorf("%s: %w", d.engine.image, errEmptyOutput)
		}
		return nil
	})
}

func (d *containerDocument) Close() error {
	return d.file.Close()
}

// pageArgs renders pages as --start/--end container arguments. The whole
// document needs no arguments.
func pageArgs(pages PageRange) []string {
	if pages.IsAll() {
		return nil
	}
	args := []string{"--start", strconv.Itoa(pages.Start)}
	if pages.End != 0 {
		args = append(args, "--end", strconv.Itoa(pages.End))
	}
	return args
}

// countingWriter records how many bytes passed through it.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
