// Package postgres stores the ledger in PostgreSQL through a pgx pool.
package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"fintrack/internal/core"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

type Repo struct {
	conn *pgxpool.Pool
}

// Connect runs the migrations and opens a pool on dsn.
func Connect(ctx context.Context, dsn string) (*Repo, error) {
	if err := RunMigrations(dsn); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	conn, err := pgxpool.Connect(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return NewRepo(conn), nil
}

func NewRepo(conn *pgxpool.Pool) *Repo {
	return &Repo{conn: conn}
}

func (r *Repo) Close() error {
	r.conn.Close()
	return nil
}

func (r *Repo) Ping(ctx context.Context) error {
	return r.conn.Ping(ctx)
}

func tables(kind core.Kind) (records, categories string, err error) {
	switch kind {
	case core.Expense:
		return "expenses", "expense_categories", nil
	case core.Income:
		return "income", "income_categories", nil
	}
	return "", "", fmt.Errorf("%w: %q", core.ErrInvalidKind, kind)
}

// ReadWindow implements ledger.RowReader using one repeatable-read, read-only
// transaction for both collections.
func (r *Repo) ReadWindow(ctx context.Context, username string, w core.Window) (core.RowSet, error) {
	tx, err := r.conn.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return core.RowSet{}, fmt.Errorf("begin read: %w", err)
	}
	defer tx.Rollback(ctx)

	var set core.RowSet
	for _, kind := range core.Kinds() {
		rows, err := listWindow(ctx, tx, kind, username, w)
		if err != nil {
			return core.RowSet{}, err
		}
		if kind == core.Income {
			set.Income = rows
		} else {
			set.Expenses = rows
		}
	}
	return set, nil
}

func listWindow(ctx context.Context, tx pgx.Tx, kind core.Kind, username string, w core.Window) ([]core.Row, error) {
	records, _, err := tables(kind)
	if err != nil {
		return nil, err
	}
	sql := `
		SELECT id, username, to_char(date, 'YYYY-MM-DD'), category, amount::text, description
		FROM %s
		WHERE username = $1
		AND date BETWEEN $2 AND $3
		`
	rows, err := tx.Query(ctx, fmt.Sprintf(sql, records), username, w.Start.Time, w.End.Time)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	defer rows.Close()

	var out []core.Row
	for rows.Next() {
		var row core.Row
		if err := rows.Scan(&row.ID, &row.Username, &row.Date, &row.Category, &row.Amount, &row.Description); err != nil {
			return nil, fmt.Errorf("scan %s: %w", kind, err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// Insert implements ledger.RecordWriter
func (r *Repo) Insert(ctx context.Context, t core.Transaction) (int64, error) {
	var id int64
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		var err error
		id, err = insert(ctx, tx, t)
		return err
	})
	if err != nil {
		return 0, err
	}
	slog.InfoContext(ctx, "Record saved to Postgres", "kind", t.Kind, "id", id, "username", t.Username)
	return id, nil
}

// InsertBatch implements ledger.RecordWriter
func (r *Repo) InsertBatch(ctx context.Context, txns []core.Transaction) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		for i, t := range txns {
			if _, err := insert(ctx, tx, t); err != nil {
				return fmt.Errorf("record %d: %w", i+1, err)
			}
		}
		return nil
	})
}

func insert(ctx context.Context, tx pgx.Tx, t core.Transaction) (int64, error) {
	records, categories, err := tables(t.Kind)
	if err != nil {
		return 0, err
	}
	sql := `
		INSERT INTO %s (username, date, category, amount, description)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
		`
	var id int64
	err = tx.QueryRow(ctx, fmt.Sprintf(sql, records),
		t.Username, t.Date.Time, t.Category, t.Amount.StringFixed(2), t.Description).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", t.Kind, err)
	}
	if _, err := tx.Exec(ctx, fmt.Sprintf(`INSERT INTO %s (name) VALUES ($1) ON CONFLICT DO NOTHING`, categories), t.Category); err != nil {
		return 0, fmt.Errorf("register category: %w", err)
	}
	return id, nil
}

// Delete implements ledger.RecordWriter
func (r *Repo) Delete(ctx context.Context, kind core.Kind, username string, id int64) error {
	records, _, err := tables(kind)
	if err != nil {
		return err
	}
	tag, err := r.conn.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND username = $2`, records), id, username)
	if err != nil {
		return fmt.Errorf("delete %s: %w", kind, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s %d: %w", kind, id, core.ErrNotFound)
	}
	return nil
}

// ListCategories implements ledger.CategoryStore
func (r *Repo) ListCategories(ctx context.Context, kind core.Kind, username string) ([]core.CategoryUsage, error) {
	records, categories, err := tables(kind)
	if err != nil {
		return nil, err
	}
	sql := `
		SELECT name, SUM(n)::bigint
		FROM (
			SELECT name, 0 AS n FROM %s
			UNION ALL
			SELECT category AS name, COUNT(*) AS n FROM %s WHERE username = $1 GROUP BY category
		) AS usage
		GROUP BY name
		ORDER BY name
		`
	rows, err := r.conn.Query(ctx, fmt.Sprintf(sql, categories, records), username)
	if err != nil {
		return nil, fmt.Errorf("list %s categories: %w", kind, err)
	}
	defer rows.Close()

	out := []core.CategoryUsage{}
	for rows.Next() {
		var name string
		var n int64
		if err := rows.Scan(&name, &n); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, core.CategoryUsage{Name: name, Count: int(n)})
	}
	return out, rows.Err()
}

// AddCategory implements ledger.CategoryStore
func (r *Repo) AddCategory(ctx context.Context, kind core.Kind, name string) error {
	_, categories, err := tables(kind)
	if err != nil {
		return err
	}
	tag, err := r.conn.Exec(ctx, fmt.Sprintf(`INSERT INTO %s (name) VALUES ($1) ON CONFLICT DO NOTHING`, categories), name)
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%q: %w", name, core.ErrCategoryExists)
	}
	return nil
}

// RenameCategory implements ledger.CategoryStore
func (r *Repo) RenameCategory(ctx context.Context, kind core.Kind, from, to string) (int64, error) {
	return r.moveCategory(ctx, kind, from, to)
}

// DeleteCategory implements ledger.CategoryStore
func (r *Repo) DeleteCategory(ctx context.Context, kind core.Kind, name, reassignTo string) (int64, error) {
	if strings.TrimSpace(reassignTo) == "" {
		reassignTo = core.Uncategorized
	}
	return r.moveCategory(ctx, kind, name, reassignTo)
}

func (r *Repo) moveCategory(ctx context.Context, kind core.Kind, from, to string) (int64, error) {
	records, categories, err := tables(kind)
	if err != nil {
		return 0, err
	}

	var moved int64
	err = r.inTx(ctx, func(tx pgx.Tx) error {
		removed, err := tx.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE name = $1`, categories), from)
		if err != nil {
			return fmt.Errorf("delete category: %w", err)
		}
		updated, err := tx.Exec(ctx, fmt.Sprintf(`UPDATE %s SET category = $1 WHERE category = $2`, records), to, from)
		if err != nil {
			return fmt.Errorf("move records: %w", err)
		}
		if removed.RowsAffected() == 0 && updated.RowsAffected() == 0 {
			return fmt.Errorf("category %q: %w", from, core.ErrNotFound)
		}
		if _, err := tx.Exec(ctx, fmt.Sprintf(`INSERT INTO %s (name) VALUES ($1) ON CONFLICT DO NOTHING`, categories), to); err != nil {
			return fmt.Errorf("insert category: %w", err)
		}
		moved = updated.RowsAffected()
		return nil
	})
	return moved, err
}

func (r *Repo) inTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := r.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
