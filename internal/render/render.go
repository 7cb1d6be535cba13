// Package render writes reconstructed timelines as tabular text, CSV, or JSON.
package render

import (
	"encoding/csv"
	"encoding/json/v2"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/reelstitch/reelstitch/internal/errors"
	"github.com/reelstitch/reelstitch/internal/timeline"
)

// Format selects an output encoding.
type Format string

const (
	FormatTable Format = "table"
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
)

// columns is the fixed output column order shared by every encoding.
var columns = []string{"Filename", "Start Time", "Stop Time", "Duration", "Chapter", "Session", "Folder"}

// FormatFor resolves the encoding from the CLI surface: -j always means
// JSON, a file target without -j means CSV, and stdout defaults to the
// table.
func FormatFor(jsonOut bool, outputPath string) Format {
	if jsonOut {
		return FormatJSON
	}
	if outputPath != "" {
		return FormatCSV
	}
	return FormatTable
}

// Render writes entries to w in the given format. Zero entries is valid
// input: CSV keeps its header, JSON emits an empty array, the table prints
// a notice.
func Render(w io.Writer, entries []timeline.Entry, format Format) error {
	switch format {
	case FormatTable:
		return renderTable(w, entries)
	case FormatCSV:
		return renderCSV(w, entries)
	case FormatJSON:
		return renderJSON(w, entries)
	default:
		return errors.Validationf("unknown output format %q", format)
	}
}

// RenderToFile writes entries to a new file at path.
func RenderToFile(path string, entries []timeline.Entry, format Format) error {
	f, err := os.Create(path) //#nosec G304 -- Output path comes from the user
	if err != nil {
		return errors.Wrapf(err, errors.CodeInternal, "create %s", path)
	}

	if err := Render(f, entries, format); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return errors.Wrapf(err, errors.CodeInternal, "close %s", path)
	}
	return nil
}

func renderTable(w io.Writer, entries []timeline.Entry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "no chapter files found")
		return err
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, row(e))
	}

	widths := make([]int, len(columns))
	for i, h := range columns {
		widths[i] = len(h)
	}
	for _, r := range rows {
		for i, cell := range r {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	writeRow := func(cells []string) error {
		for i, cell := range cells {
			if i > 0 {
				if _, err := io.WriteString(w, "  "); err != nil {
					return err
				}
			}
			// The last column needs no trailing padding.
			if i == len(cells)-1 {
				if _, err := io.WriteString(w, cell); err != nil {
					return err
				}
				continue
			}
			if _, err := fmt.Fprintf(w, "%-*s", widths[i], cell); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, "\n")
		return err
	}

	if err := writeRow(columns); err != nil {
		return err
	}
	for _, r := range rows {
		if err := writeRow(r); err != nil {
			return err
		}
	}
	return nil
}

func renderCSV(w io.Writer, entries []timeline.Entry) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(columns); err != nil {
		return err
	}
	for _, e := range entries {
		if err := cw.Write(row(e)); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// jsonEntry mirrors the column names so JSON consumers see the same shape
// as the tabular encodings.
type jsonEntry struct {
	Filename  string `json:"Filename"`
	StartTime string `json:"Start Time"`
	StopTime  string `json:"Stop Time"`
	Duration  string `json:"Duration"`
	Chapter   int    `json:"Chapter"`
	Session   int    `json:"Session"`
	Folder    string `json:"Folder"`
}

func renderJSON(w io.Writer, entries []timeline.Entry) error {
	out := make([]jsonEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, jsonEntry{
			Filename:  e.Filename,
			StartTime: isoStamp(e.Start),
			StopTime:  isoStamp(e.Stop),
			Duration:  e.Duration,
			Chapter:   e.Chapter,
			Session:   e.Session,
			Folder:    e.Folder,
		})
	}
	return json.MarshalWrite(w, out)
}

func row(e timeline.Entry) []string {
	return []string{
		e.Filename,
		stamp(e.Start),
		stamp(e.Stop),
		e.Duration,
		strconv.Itoa(e.Chapter),
		strconv.Itoa(e.Session),
		e.Folder,
	}
}

// stamp renders a timestamp for the tabular encodings, appending
// microseconds only when present.
func stamp(t time.Time) string {
	s := t.UTC().Format("2006-01-02 15:04:05")
	if ns := t.Nanosecond(); ns != 0 {
		s += fmt.Sprintf(".%06d", ns/1000)
	}
	return s
}

// isoStamp renders a timestamp for JSON output: ISO-8601 UTC with
// millisecond precision.
func isoStamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}
