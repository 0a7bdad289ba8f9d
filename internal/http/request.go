package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/core"
)

// badRequest marks request errors that have no domain error behind them.
type badRequest struct {
	msg string
}

func (e *badRequest) Error() string { return e.msg }

func badRequestf(format string, args ...any) error {
	return &badRequest{msg: fmt.Sprintf(format, args...)}
}

// sanitizeInput drops control characters other than tab and newlines and
// trims whitespace.
func sanitizeInput(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s))
}

func requireUsername(q url.Values) (string, error) {
	u := sanitizeInput(q.Get("username"))
	if u == "" {
		return "", core.ErrEmptyUsername
	}
	return u, nil
}

// parseWindow reads start and end as YYYY-MM-DD. With neither given the
// window is the current calendar month.
func parseWindow(q url.Values, today time.Time) (core.Window, error) {
	start, end := strings.TrimSpace(q.Get("start")), strings.TrimSpace(q.Get("end"))
	switch {
	case start == "" && end == "":
		return core.MonthWindow(core.DateOf(today)), nil
	case start == "":
		return core.Window{}, &core.InvalidRangeError{Field: "start", Value: start, Err: core.ErrInvalidDate}
	case end == "":
		return core.Window{}, &core.InvalidRangeError{Field: "end", Value: end, Err: core.ErrInvalidDate}
	}
	return core.ParseWindow(start, end)
}

// parseKind reads a kind, defaulting to expense when value is empty.
func parseKind(value string) (core.Kind, error) {
	if strings.TrimSpace(value) == "" {
		return core.Expense, nil
	}
	return core.ParseKind(value)
}

// parseLimit reads a positive integer; an empty value gives def.
func parseLimit(value string, def int) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return def, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, badRequestf("limit %q is not a number", value)
	}
	return n, nil
}

// queryParams is what every read endpoint needs.
type queryParams struct {
	Username string
	Window   core.Window
}

func parseQuery(r *http.Request) (queryParams, error) {
	q := r.URL.Query()
	username, err := requireUsername(q)
	if err != nil {
		return queryParams{}, err
	}
	w, err := parseWindow(q, time.Now())
	if err != nil {
		return queryParams{}, err
	}
	return queryParams{Username: username, Window: w}, nil
}

// decodeJSON reads a single JSON object into dst, rejecting unknown fields
// and bodies over limit bytes.
func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, limit))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return badRequestf("request body larger than %d bytes", maxErr.Limit)
		}
		return badRequestf("invalid JSON body: %v", err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return badRequestf("request body must hold a single JSON object")
	}
	return nil
}

// transactionRequest is the body of POST /api/transactions.
type transactionRequest struct {
	Kind        string      `json:"kind"`
	Date        string      `json:"date"`
	Category    string      `json:"category"`
	Amount      json.Number `json:"amount"`
	Description string      `json:"description"`
	Username    string      `json:"username"`
}

func (req transactionRequest) transaction() (core.Transaction, error) {
	kind, err := core.ParseKind(req.Kind)
	if err != nil {
		return core.Transaction{}, err
	}
	date, err := core.ParseDate(req.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	amount, err := core.ParseAmount(req.Amount.String())
	if err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		Kind:        kind,
		Date:        date,
		Category:    sanitizeInput(req.Category),
		Amount:      amount,
		Description: sanitizeInput(req.Description),
		Username:    sanitizeInput(req.Username),
	}, nil
}
