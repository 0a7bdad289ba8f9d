package storage

import (
	"context"
	"database/sql"
	"fmt"

	"fintrack/internal/core"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// tables returns the record and category tables of a collection.
func tables(kind core.Kind) (records, categories string, err error) {
	switch kind {
	case core.Expense:
		return "expenses", "expense_categories", nil
	case core.Income:
		return "income", "income_categories", nil
	}
	return "", "", fmt.Errorf("%w: %q", core.ErrInvalidKind, kind)
}

// Rows dated inside [start, end] plus rows whose date does not start with a
// real calendar day. date() yields NULL for '2025-99-99' and rolls
// '2025-02-30' over to March, so neither equals its input.
const listWindow = `
SELECT id, username, date, category, CAST(amount AS TEXT), description
FROM %s
WHERE username = ?
  AND (substr(date, 1, 10) BETWEEN ? AND ?
       OR date(substr(date, 1, 10)) IS NOT substr(date, 1, 10))
`

func (q *Queries) ListWindow(ctx context.Context, kind core.Kind, username, start, end string) ([]core.Row, error) {
	records, _, err := tables(kind)
	if err != nil {
		return nil, err
	}
	rows, err := q.db.QueryContext(ctx, fmt.Sprintf(listWindow, records), username, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []core.Row
	for rows.Next() {
		var r core.Row
		var amount sql.NullString
		if err := rows.Scan(&r.ID, &r.Username, &r.Date, &r.Category, &amount, &r.Description); err != nil {
			return nil, err
		}
		r.Amount = amount.String
		items = append(items, r)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createRecord = `
INSERT INTO %s (username, date, category, amount, description)
VALUES (?, ?, ?, ?, ?)
RETURNING id
`

type CreateRecordParams struct {
	Username    string
	Date        string
	Category    string
	Amount      string
	Description string
}

func (q *Queries) CreateRecord(ctx context.Context, kind core.Kind, arg CreateRecordParams) (int64, error) {
	records, _, err := tables(kind)
	if err != nil {
		return 0, err
	}
	row := q.db.QueryRowContext(ctx, fmt.Sprintf(createRecord, records),
		arg.Username,
		arg.Date,
		arg.Category,
		arg.Amount,
		arg.Description,
	)
	var id int64
	err = row.Scan(&id)
	return id, err
}

const deleteRecord = `DELETE FROM %s WHERE id = ? AND username = ?`

func (q *Queries) DeleteRecord(ctx context.Context, kind core.Kind, id int64, username string) (int64, error) {
	records, _, err := tables(kind)
	if err != nil {
		return 0, err
	}
	res, err := q.db.ExecContext(ctx, fmt.Sprintf(deleteRecord, records), id, username)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const categoryUsage = `
SELECT name, SUM(n)
FROM (
    SELECT name, 0 AS n FROM %s
    UNION ALL
    SELECT category AS name, COUNT(*) AS n FROM %s WHERE username = ? GROUP BY category
)
GROUP BY name
ORDER BY name
`

func (q *Queries) CategoryUsage(ctx context.Context, kind core.Kind, username string) ([]core.CategoryUsage, error) {
	records, categories, err := tables(kind)
	if err != nil {
		return nil, err
	}
	rows, err := q.db.QueryContext(ctx, fmt.Sprintf(categoryUsage, categories, records), username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []core.CategoryUsage{}
	for rows.Next() {
		var u core.CategoryUsage
		if err := rows.Scan(&u.Name, &u.Count); err != nil {
			return nil, err
		}
		items = append(items, u)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const categoryExists = `SELECT COUNT(*) FROM %s WHERE name = ?`

func (q *Queries) CategoryExists(ctx context.Context, kind core.Kind, name string) (bool, error) {
	_, categories, err := tables(kind)
	if err != nil {
		return false, err
	}
	var n int64
	err = q.db.QueryRowContext(ctx, fmt.Sprintf(categoryExists, categories), name).Scan(&n)
	return n > 0, err
}

const insertCategory = `INSERT OR IGNORE INTO %s (name) VALUES (?)`

func (q *Queries) InsertCategory(ctx context.Context, kind core.Kind, name string) error {
	_, categories, err := tables(kind)
	if err != nil {
		return err
	}
	_, err = q.db.ExecContext(ctx, fmt.Sprintf(insertCategory, categories), name)
	return err
}

const deleteCategory = `DELETE FROM %s WHERE name = ?`

func (q *Queries) DeleteCategory(ctx context.Context, kind core.Kind, name string) (int64, error) {
	_, categories, err := tables(kind)
	if err != nil {
		return 0, err
	}
	res, err := q.db.ExecContext(ctx, fmt.Sprintf(deleteCategory, categories), name)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const recategorize = `UPDATE %s SET category = ? WHERE category = ?`

// Recategorize moves every record of category from to category to.
func (q *Queries) Recategorize(ctx context.Context, kind core.Kind, from, to string) (int64, error) {
	records, _, err := tables(kind)
	if err != nil {
		return 0, err
	}
	res, err := q.db.ExecContext(ctx, fmt.Sprintf(recategorize, records), to, from)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
