// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"go.yaml.in/yaml/v3"
)

// Output formats accepted by Export.
const (
	FormatTable = "table"
	FormatYAML  = "yaml"
	FormatJSON  = "json"
)

// exportRecord is the serialized form of a Record; durations are rendered
// as strings so both formats stay readable.
type exportRecord struct {
	ID        string `json:"id" yaml:"id"`
	Input     string `json:"input" yaml:"input"`
	Output    string `json:"output" yaml:"output"`
	Backend   string `json:"backend" yaml:"backend"`
	Status    string `json:"status" yaml:"status"`
	Error     string `json:"error,omitempty" yaml:"error,omitempty"`
	Bytes     int64  `json:"bytes" yaml:"bytes"`
	StartedAt string `json:"started_at" yaml:"started_at"`
	Duration  string `json:"duration" yaml:"duration"`
}

func toExport(records []Record) []exportRecord {
	out := make([]exportRecord, len(records))
	for i, r := range records {
		out[i] = exportRecord{
			ID:        r.ID,
			Input:     r.InputPath,
			Output:    r.OutputPath,
			Backend:   r.Backend,
			Status:    string(r.Status),
			Error:     r.Error,
			Bytes:     r.Bytes,
			StartedAt: r.StartedAt.Format(time.RFC3339),
			Duration:  r.Duration.String(),
		}
	}
	return out
}

// Export writes records to w as a table, YAML or JSON. An empty format
// means table.
func Export(w io.Writer, records []Record, format string) error {
	switch format {
	case FormatTable, "":
		return writeTable(w, records)
	case FormatYAML:
		data, err := yaml.Marshal(toExport(records))
		if err != nil {
			return fmt.Errorf("marshaling YAML: %w", err)
		}
		_, err = w.Write(data)
		return err
	case FormatJSON:
		data, err := json.MarshalIndent(toExport(records), "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		_, err = fmt.Fprintf(w, "%s\n", data)
		return err
	default:
		return fmt.Errorf("unsupported format %q: use table, yaml, or json", format)
	}
}

func writeTable(w io.Writer, records []Record) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No conversions recorded.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tSTATUS\tBACKEND\tSIZE\tINPUT\tOUTPUT")
	for _, r := range records {
		size := "-"
		if r.Bytes > 0 {
			size = humanize.Bytes(uint64(r.Bytes))
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			humanize.Time(r.StartedAt), r.Status, r.Backend, size, r.InputPath, r.OutputPath)
	}
	return tw.Flush()
}
