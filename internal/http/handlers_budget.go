package http

import (
	"net/http"

	"fintrack/internal/aggregate"
	"fintrack/internal/core"
)

const defaultTopLimit = 5

type windowEnvelope struct {
	Username string    `json:"username"`
	Start    core.Date `json:"start"`
	End      core.Date `json:"end"`
}

func envelope(p queryParams) windowEnvelope {
	return windowEnvelope{Username: p.Username, Start: p.Window.Start, End: p.Window.End}
}

// GET /api/summary?username=&start=&end=
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	p, err := parseQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	summary, err := s.engine.Summarize(r.Context(), p.Username, p.Window.Start, p.Window.End)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		windowEnvelope
		core.BudgetSummary
	}{envelope(p), summary})
}

// snapshotOf fetches the window and returns the collection named by ?kind=.
func (s *Server) snapshotOf(r *http.Request) (queryParams, core.Kind, []core.Transaction, error) {
	p, err := parseQuery(r)
	if err != nil {
		return p, "", nil, err
	}
	kind, err := parseKind(r.URL.Query().Get("kind"))
	if err != nil {
		return p, "", nil, err
	}
	snap, err := s.engine.Snapshot(r.Context(), p.Username, p.Window)
	if err != nil {
		return p, "", nil, err
	}
	return p, kind, snap.Of(kind), nil
}

type categoriesResponse struct {
	windowEnvelope
	Kind       core.Kind                `json:"kind"`
	Categories []core.CategoryAggregate `json:"categories"`
	Legend     []string                 `json:"legend"`
}

// GET /api/categories?username=&kind=&start=&end=
func (s *Server) handleCategoryBreakdown(w http.ResponseWriter, r *http.Request) {
	p, kind, txns, err := s.snapshotOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	aggs := aggregate.CategoryBreakdown(txns)
	writeJSON(w, http.StatusOK, categoriesResponse{
		windowEnvelope: envelope(p),
		Kind:           kind,
		Categories:     aggs,
		Legend:         aggregate.Legend(aggs),
	})
}

// GET /api/top?username=&kind=&limit=&fold=true
func (s *Server) handleTopCategories(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r.URL.Query().Get("limit"), defaultTopLimit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, kind, txns, err := s.snapshotOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	aggs := aggregate.CategoryBreakdown(txns)
	var top []core.CategoryAggregate
	if r.URL.Query().Get("fold") == "true" {
		top, err = aggregate.FoldTail(aggs, limit, aggregate.OtherLabel)
	} else {
		top, err = aggregate.TopCategories(txns, limit)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, categoriesResponse{
		windowEnvelope: envelope(p),
		Kind:           kind,
		Categories:     top,
		Legend:         aggregate.Legend(top),
	})
}

// GET /api/monthly?username=&kind=&start=&end=
func (s *Server) handleMonthly(w http.ResponseWriter, r *http.Request) {
	p, kind, txns, err := s.snapshotOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		windowEnvelope
		Kind   core.Kind           `json:"kind"`
		Months []core.MonthlyTotal `json:"months"`
	}{envelope(p), kind, aggregate.MonthlyBreakdown(txns)})
}

// GET /api/cashflow?username=&start=&end=
func (s *Server) handleCashFlow(w http.ResponseWriter, r *http.Request) {
	p, err := parseQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	snap, err := s.engine.Snapshot(r.Context(), p.Username, p.Window)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		windowEnvelope
		Months []core.MonthlyAggregate `json:"months"`
	}{envelope(p), aggregate.CashFlow(snap.Expenses, snap.Income, s.engine.Policy())})
}

// GET /api/report?username=&start=&end=
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	p, err := parseQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	report, err := s.engine.Report(r.Context(), p.Username, p.Window)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
