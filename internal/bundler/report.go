package bundler

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/olekukonko/tablewriter"
)

type countingWriter struct {
	n int64
}

func (w *countingWriter) Write(p []byte) (int, error) {
	w.n += int64(len(p))
	return len(p), nil
}

// gzipSize returns the size of path after gzip compression at the default level.
func gzipSize(path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	cw := &countingWriter{}
	zw, err := gzip.NewWriterLevel(cw, gzip.DefaultCompression)
	if err != nil {
		return 0, err
	}

	if _, err := io.Copy(zw, f); err != nil {
		return 0, err
	}
	if err := zw.Close(); err != nil {
		return 0, err
	}

	return cw.n, nil
}

// FormatSize renders a byte count in kB the way bundlers report output sizes.
func FormatSize(n int64) string {
	return fmt.Sprintf("%.2f kB", float64(n)/1000)
}

// WriteReport prints one row per output with its raw and gzip sizes.
func WriteReport(w io.Writer, result *Result) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Format", "File", "Size", "Gzip"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetTablePadding("\t")
	table.SetNoWhiteSpace(true)

	for _, o := range result.Outputs {
		table.Append([]string{string(o.Format), o.Path, FormatSize(o.Bytes), FormatSize(o.GzipBytes)})
	}
	table.Render()

	_, _ = fmt.Fprintf(w, "built %d file(s) in %s\n", len(result.Outputs), result.Duration.Round(time.Millisecond))
}

// WriteEntries prints, for every entry point and format of the last build,
// the output file and the external modules it imports.
func (p *Pipeline) WriteEntries(w io.Writer) error {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Entry", "Format", "Output", "Externals"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetTablePadding("\t")
	table.SetNoWhiteSpace(true)

	for _, format := range p.config.Formats {
		for _, e := range p.config.Entries {
			rel, err := filepath.Rel(p.config.WorkingDir, e.Path)
			if err != nil {
				return err
			}

			out, err := p.EntryOutput(format, filepath.ToSlash(rel))
			if err != nil {
				return err
			}

			externals, err := p.ExternalImports(format, out)
			if err != nil {
				return err
			}

			table.Append([]string{e.Name, string(format), out, strings.Join(externals, ", ")})
		}
	}
	table.Render()

	return nil
}
