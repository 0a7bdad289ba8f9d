package ledger

import (
	"context"

	"fintrack/internal/core"
)

// Ports implemented by the persistence backends.
type (
	// RowReader returns the raw rows of both collections for one user: every
	// row whose stored date falls inside w, plus rows whose date is not a
	// readable calendar date so they can be reported wherever they would
	// sort. A row that starts with a valid day outside w but carries trailing
	// text core.ParseDate cannot read is not returned. All rows must come
	// from a single consistent read.
	RowReader interface {
		ReadWindow(ctx context.Context, username string, w core.Window) (core.RowSet, error)
	}

	RecordWriter interface {
		// Insert stores t and returns its id.
		Insert(ctx context.Context, t core.Transaction) (int64, error)
		// InsertBatch stores all of txns or none of them.
		InsertBatch(ctx context.Context, txns []core.Transaction) error
		// Delete removes one record of username, or returns core.ErrNotFound.
		Delete(ctx context.Context, kind core.Kind, username string, id int64) error
	}

	// CategoryStore manages the category list of each collection. Renames and
	// deletions carry the records of every user along.
	CategoryStore interface {
		ListCategories(ctx context.Context, kind core.Kind, username string) ([]core.CategoryUsage, error)
		AddCategory(ctx context.Context, kind core.Kind, name string) error
		RenameCategory(ctx context.Context, kind core.Kind, from, to string) (int64, error)
		DeleteCategory(ctx context.Context, kind core.Kind, name, reassignTo string) (int64, error)
	}

	Pinger interface {
		Ping(ctx context.Context) error
	}
)

// Repository is the full surface a backend offers.
type Repository interface {
	RowReader
	RecordWriter
	CategoryStore
	Pinger
	Close() error
}
