package http

import (
	"net/http"
	"strconv"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

// POST /api/transactions
func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(w, r, s.maxBodyBytes, &req); err != nil {
		writeError(w, r, err)
		return
	}
	t, err := req.transaction()
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := s.ledger.Record(r.Context(), t)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": id, "kind": t.Kind})
}

// DELETE /api/transactions/{kind}/{id}?username=
func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	kind, err := core.ParseKind(r.PathValue("kind"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, r, badRequestf("invalid id %q", r.PathValue("id")))
		return
	}
	username, err := requireUsername(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.ledger.Delete(r.Context(), kind, username, id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /api/import/{kind}?username= with a CSV body.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	kind, err := core.ParseKind(r.PathValue("kind"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	username, err := requireUsername(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}

	result, err := s.ledger.ImportCSV(r.Context(), http.MaxBytesReader(w, r.Body, maxImportBytes), kind, username)
	if err != nil {
		writeError(w, r, err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Import accepted",
		log.FieldUsername, username, "imported", result.Imported, log.FieldSkipped, len(result.Skipped))
	writeJSON(w, http.StatusOK, result)
}

// GET /api/categories/{kind}?username=
func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	kind, err := core.ParseKind(r.PathValue("kind"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	usage, err := s.ledger.Categories(r.Context(), kind, sanitizeInput(r.URL.Query().Get("username")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if usage == nil {
		usage = []core.CategoryUsage{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"kind": kind, "categories": usage})
}

// POST /api/categories/{kind} {"name": ...}
func (s *Server) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	kind, err := core.ParseKind(r.PathValue("kind"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(w, r, s.maxBodyBytes, &req); err != nil {
		writeError(w, r, err)
		return
	}
	name := sanitizeInput(req.Name)
	if err := s.ledger.AddCategory(r.Context(), kind, name); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"kind": kind, "name": name})
}

// POST /api/categories/{kind}/rename {"from": ..., "to": ...}
func (s *Server) handleRenameCategory(w http.ResponseWriter, r *http.Request) {
	kind, err := core.ParseKind(r.PathValue("kind"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req struct {
		From string `json:"from"`
		To   string `json:"to"`
	}
	if err := decodeJSON(w, r, s.maxBodyBytes, &req); err != nil {
		writeError(w, r, err)
		return
	}
	moved, err := s.ledger.RenameCategory(r.Context(), kind, sanitizeInput(req.From), sanitizeInput(req.To))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"kind": kind, "moved": moved})
}

// DELETE /api/categories/{kind}/{name}?reassign_to=
func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	kind, err := core.ParseKind(r.PathValue("kind"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	name := strings.TrimSpace(r.PathValue("name"))
	moved, err := s.ledger.DeleteCategory(r.Context(), kind, name, sanitizeInput(r.URL.Query().Get("reassign_to")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"kind": kind, "moved": moved})
}
