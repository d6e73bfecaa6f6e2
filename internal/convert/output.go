// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// tempOutputPath returns a hidden sibling of outputPath that keeps the .docx
// extension, so engines that infer the format from the name still work.
func tempOutputPath(outputPath string) string {
	dir, base := filepath.Split(outputPath)
	return filepath.Join(dir, fmt.Sprintf(".%s.%s%s", base, uuid.NewString()[:8], docxExt))
}

// publishFile moves a finished temporary file to outputPath. The temporary
// file is removed when the rename fails.
func publishFile(tmpPath, outputPath string) error {
	if err := os.Rename(tmpPath, outputPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("moving output into place at %s: %w", outputPath, err)
	}
	return nil
}

// writeOutput streams the document produced by write into outputPath. Data
// goes to a temporary file first and only replaces outputPath once write
// succeeded, so a failed conversion leaves nothing at outputPath.
func writeOutput(outputPath string, write func(io.Writer) error) error {
	tmpPath := tempOutputPath(outputPath)
	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}

	if err := write(f); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing output file: %w", err)
	}
	return publishFile(tmpPath, outputPath)
}
