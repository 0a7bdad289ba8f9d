// Package ledger is the read contract between the aggregation code and the
// persistence backends.
package ledger

import (
	"context"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

// Fetcher is what the engine needs from a store.
type Fetcher interface {
	Fetch(ctx context.Context, username string, w core.Window) (core.Snapshot, error)
}

// Store decodes backend rows into transactions.
type Store struct {
	reader RowReader
	logger *log.Logger
}

func NewStore(reader RowReader, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Store{reader: reader, logger: logger.WithComponent(log.ComponentLedger)}
}

// Fetch returns every expense and income record of username dated inside w,
// bounds included. A reversed window yields an empty snapshot without touching
// the backend. Records whose date cannot be read are listed in Skipped.
func (s *Store) Fetch(ctx context.Context, username string, w core.Window) (core.Snapshot, error) {
	if w.Empty() {
		return core.Snapshot{Expenses: []core.Transaction{}, Income: []core.Transaction{}}, nil
	}

	rows, err := s.reader.ReadWindow(ctx, username, w)
	if err != nil {
		return core.Snapshot{}, &core.DataAccessError{Op: "read window " + w.String(), Err: err}
	}

	expenses, skippedExp, err := core.DecodeRows(core.Expense, rows.Expenses, w)
	if err != nil {
		s.logIntegrity(ctx, username, err)
		return core.Snapshot{}, err
	}
	income, skippedInc, err := core.DecodeRows(core.Income, rows.Income, w)
	if err != nil {
		s.logIntegrity(ctx, username, err)
		return core.Snapshot{}, err
	}

	snap := core.Snapshot{
		Expenses: expenses,
		Income:   income,
		Skipped:  append(skippedExp, skippedInc...),
	}
	if len(snap.Skipped) > 0 {
		s.logger.WarnContext(ctx, "Records with unreadable dates left out",
			log.FieldUsername, username,
			log.FieldWindow, w.String(),
			log.FieldSkipped, len(snap.Skipped))
	}
	s.logger.DebugContext(ctx, "Window fetched",
		log.FieldUsername, username,
		log.FieldWindow, w.String(),
		"expenses", len(expenses),
		"income", len(income))

	return snap, nil
}

func (s *Store) logIntegrity(ctx context.Context, username string, err error) {
	s.logger.ErrorContext(ctx, "Stored record failed to decode",
		log.FieldUsername, username,
		log.FieldError, err)
}
