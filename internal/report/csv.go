// Package report writes the outgoing RunRecord stream (spec.md §6) to
// disk as `<name>.csv` and `<name>_golden.csv`, grounded on
// original_source/fit/csv.py's export_to_csv column-oriented writer and
// the teacher's own stdlib-encoder precedent in pkg/reporting/storage.go
// (JSON there, CSV here, same "use the matching stdlib package directly"
// idiom).
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Writer appends result rows to a CSV file with a fixed column order:
// "result", then every declared target label in campaign-CSV-declaration
// order (spec.md §6's "Stable column order").
type Writer struct {
	f       *os.File
	w       *csv.Writer
	columns []string // ["result", target1, target2, ...]
}

// NewWriter creates (or truncates) path, writes the header row, and
// returns a Writer ready for WriteRow.
func NewWriter(path string, targetLabels []string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("report: creating %s: %w", path, err)
	}
	columns := append([]string{"result"}, targetLabels...)
	w := csv.NewWriter(f)
	if err := w.Write(columns); err != nil {
		f.Close()
		return nil, fmt.Errorf("report: writing header to %s: %w", path, err)
	}
	return &Writer{f: f, w: w, columns: columns}, nil
}

// WriteRow appends one row: result plus one cell per declared target, in
// column order. observed holds either a uint64 (scalar target) or a
// []uint64 (range target, encoded ";"-separated per
// original_source/fit/csv.py's list-column normalization).
func (w *Writer) WriteRow(result string, observed map[string]any) error {
	row := make([]string, len(w.columns))
	row[0] = result
	for i := 1; i < len(w.columns); i++ {
		row[i] = formatCell(observed[w.columns[i]])
	}
	if err := w.w.Write(row); err != nil {
		return fmt.Errorf("report: writing row: %w", err)
	}
	return nil
}

// Flush flushes buffered writes and reports any write error encountered.
func (w *Writer) Flush() error {
	w.w.Flush()
	return w.w.Error()
}

// Close flushes and closes the underlying file.
func (w *Writer) Close() error {
	if err := w.Flush(); err != nil {
		w.f.Close()
		return err
	}
	return w.f.Close()
}

func formatCell(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case uint64:
		return strconv.FormatUint(val, 10)
	case []uint64:
		parts := make([]string, len(val))
		for i, w := range val {
			parts[i] = strconv.FormatUint(w, 10)
		}
		return strings.Join(parts, ";")
	default:
		return fmt.Sprintf("%v", val)
	}
}

// Paths returns the two output file names for an experiment, per
// spec.md §6: "<name>.csv" and "<name>_golden.csv".
func Paths(experimentName string) (runsPath, goldenPath string) {
	return experimentName + ".csv", experimentName + "_golden.csv"
}
