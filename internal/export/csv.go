package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"fintrack/internal/core"
)

// CSVSink writes one CSV file per table under
// Dir/<UserKey>/<start>_<end>/<table>.csv. Files are written to a
// temporary name first and renamed, so readers never see half a table.
type CSVSink struct {
	Dir string
}

func NewCSVSink(dir string) *CSVSink {
	return &CSVSink{Dir: dir}
}

func (s *CSVSink) Name() string { return "csv" }

// Path returns the directory a report of username over w is written to.
func (s *CSVSink) Path(username string, w core.Window) string {
	return filepath.Join(s.Dir, UserKey(username), w.Start.String()+"_"+w.End.String())
}

func (s *CSVSink) Write(ctx context.Context, username string, w core.Window, tables []Table) error {
	dir := s.Path(username, w)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}
	for _, t := range tables {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := writeCSV(filepath.Join(dir, t.Name+".csv"), t); err != nil {
			return fmt.Errorf("write %s: %w", t.Name, err)
		}
	}
	return nil
}

func writeCSV(path string, t Table) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*.csv")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	cw := csv.NewWriter(tmp)
	if err := cw.Write(t.Header); err != nil {
		tmp.Close()
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
