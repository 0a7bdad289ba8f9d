package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/log"
)

var requiredColumns = []string{"date", "category", "amount"}

// ErrMissingColumns is returned when the header lacks a required column.
var ErrMissingColumns = errors.New("missing required columns")

// ImportError points at the CSV line that stopped an import.
type ImportError struct {
	Line  int
	Field string
	Value string
	Err   error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("line %d: %s=%q: %v", e.Line, e.Field, e.Value, e.Err)
}

func (e *ImportError) Unwrap() error { return e.Err }

// SkippedLine is a CSV line left out of an import.
type SkippedLine struct {
	Line   int    `json:"line"`
	Value  string `json:"value"`
	Reason string `json:"reason"`
}

type ImportResult struct {
	Imported int           `json:"imported"`
	Skipped  []SkippedLine `json:"skipped"`
}

// ImportCSV reads transactions of one kind for username from r. The header
// must name date, category and amount; description is optional and column
// names ignore case. Lines whose date is not YYYY-MM-DD are skipped and
// reported. A line with an unreadable amount aborts the import and nothing is
// stored. A blank category becomes core.Uncategorized.
func (s *LedgerService) ImportCSV(ctx context.Context, r io.Reader, kind core.Kind, username string) (ImportResult, error) {
	if !kind.IsValid() {
		return ImportResult{}, fmt.Errorf("%w: %q", core.ErrInvalidKind, kind)
	}
	if strings.TrimSpace(username) == "" {
		return ImportResult{}, core.ErrEmptyUsername
	}

	txns, skipped, err := ParseCSV(r, kind, username)
	if err != nil {
		return ImportResult{}, err
	}

	if len(txns) > 0 {
		if err := s.repo.InsertBatch(ctx, txns); err != nil {
			return ImportResult{}, &core.DataAccessError{Op: "import " + kind.String(), Err: err}
		}
	}

	s.logger.InfoContext(ctx, "CSV import completed",
		log.FieldOperation, log.OpImport,
		log.FieldUsername, username,
		log.FieldKind, kind,
		"imported", len(txns),
		log.FieldSkipped, len(skipped))

	event := amqp.NewLedgerEvent(amqp.EventImportCompleted, username, kind.String())
	event.Count = len(txns)
	s.publish(ctx, event)

	return ImportResult{Imported: len(txns), Skipped: skipped}, nil
}

// ParseCSV decodes an import file without storing anything.
func ParseCSV(r io.Reader, kind core.Kind, username string) ([]core.Transaction, []SkippedLine, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, fmt.Errorf("%w: empty file", ErrMissingColumns)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	var missing []string
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	field := func(rec []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var txns []core.Transaction
	var skipped []SkippedLine
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read csv: %w", err)
		}
		line, _ := reader.FieldPos(0)

		rawDate := field(rec, "date")
		date, err := core.ParseDate(rawDate)
		if err != nil {
			skipped = append(skipped, SkippedLine{Line: line, Value: rawDate, Reason: "invalid date"})
			continue
		}

		rawAmount := field(rec, "amount")
		amount, err := core.ParseAmount(rawAmount)
		if err != nil {
			return nil, nil, &ImportError{Line: line, Field: "amount", Value: rawAmount, Err: err}
		}

		category := field(rec, "category")
		if category == "" {
			category = core.Uncategorized
		}

		t := core.Transaction{
			Kind:        kind,
			Date:        date,
			Category:    category,
			Amount:      amount,
			Description: field(rec, "description"),
			Username:    username,
		}
		if err := t.Validate(); err != nil {
			return nil, nil, &ImportError{Line: line, Field: "record", Value: strings.Join(rec, ","), Err: err}
		}
		txns = append(txns, t)
	}

	return txns, skipped, nil
}
