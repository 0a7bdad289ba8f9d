package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fintrack/internal/budget"
	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/storage/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	srv   *Server
	store *memory.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.New(memory.DefaultExpenseCategories, memory.DefaultIncomeCategories)
	engine := budget.NewEngine(ledger.NewStore(store, log.Discard()), budget.DefaultSavingsPolicy, log.Discard())
	svc := services.NewLedgerService(store, nil, log.Discard())
	srv := NewServer(":0", engine, svc, log.Discard(), Options{})
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return &testEnv{srv: srv, store: store}
}

func (e *testEnv) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.srv.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (e *testEnv) seedSavingsExample() {
	for _, r := range []core.Row{
		{Date: "2024-01-03", Category: "Food", Amount: "50", Username: "alice"},
		{Date: "2024-01-04", Category: "food", Amount: "25", Username: "alice"},
		{Date: "2024-01-05", Category: "Savings", Amount: "100", Username: "alice"},
	} {
		e.store.AppendRow(core.Expense, r)
	}
	e.store.AppendRow(core.Income, core.Row{Date: "2024-01-01", Category: "Salary/Wages", Amount: "500", Username: "alice"})
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		rec := env.do(t, http.MethodGet, path, "")
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
		assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	}
}

func TestSummary(t *testing.T) {
	env := newTestEnv(t)
	env.seedSavingsExample()

	rec := env.do(t, http.MethodGet, "/api/summary?username=alice&start=2024-01-01&end=2024-01-31", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, "alice", body["username"])
	assert.Equal(t, "2024-01-01", body["start"])
	assert.Equal(t, "75", body["total_expenses"])
	assert.Equal(t, "100", body["savings_transfers"])
	assert.Equal(t, "500", body["total_income"])
	assert.Equal(t, "525", body["net_savings"])
}

func TestSummaryRequestErrors(t *testing.T) {
	env := newTestEnv(t)
	cases := []struct {
		target string
		status int
		code   string
	}{
		{"/api/summary?start=2024-01-01&end=2024-01-31", http.StatusBadRequest, "invalid_request"},
		{"/api/summary?username=a&start=01/02/2024&end=2024-01-31", http.StatusBadRequest, "invalid_range"},
		{"/api/summary?username=a&start=2024-01-01", http.StatusBadRequest, "invalid_range"},
		{"/api/categories?username=a&kind=transfer", http.StatusBadRequest, "invalid_request"},
		{"/api/top?username=a&limit=0", http.StatusBadRequest, "invalid_limit"},
		{"/api/top?username=a&limit=many", http.StatusBadRequest, "invalid_request"},
	}
	for _, tc := range cases {
		rec := env.do(t, http.MethodGet, tc.target, "")
		assert.Equal(t, tc.status, rec.Code, tc.target)
		assert.Equal(t, tc.code, decodeBody(t, rec)["code"], tc.target)
	}
}

func TestReversedWindowIsEmpty(t *testing.T) {
	env := newTestEnv(t)
	env.seedSavingsExample()

	rec := env.do(t, http.MethodGet, "/api/summary?username=alice&start=2024-02-01&end=2024-01-01", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0", decodeBody(t, rec)["net_savings"])
}

func TestCategoriesAndTop(t *testing.T) {
	env := newTestEnv(t)
	env.seedSavingsExample()

	rec := env.do(t, http.MethodGet, "/api/categories?username=alice&start=2024-01-01&end=2024-01-31", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Kind       string `json:"kind"`
		Categories []struct {
			Category string  `json:"category"`
			Percent  float64 `json:"percent"`
		} `json:"categories"`
		Legend []string `json:"legend"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "expense", resp.Kind)
	require.Len(t, resp.Categories, 3, "category names are case sensitive")
	assert.Equal(t, "Savings", resp.Categories[0].Category)
	assert.Equal(t, "Food", resp.Categories[1].Category)
	assert.Equal(t, "Savings: $100.00 (57.1%)", resp.Legend[0])

	rec = env.do(t, http.MethodGet, "/api/top?username=alice&start=2024-01-01&end=2024-01-31&limit=1&fold=true", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Categories, 2)
	assert.Equal(t, "Other", resp.Categories[1].Category)

	rec = env.do(t, http.MethodGet, "/api/top?username=alice&start=2024-01-01&end=2024-01-31&limit=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp.Categories = nil
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Categories, 2)
	assert.Equal(t, "Savings", resp.Categories[0].Category)
	assert.Equal(t, "Food", resp.Categories[1].Category)

	rec = env.do(t, http.MethodGet, "/api/top?username=alice&start=2024-01-01&end=2024-01-31&limit=10", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Categories, 3)
}

func TestMonthlyCashFlowAndReport(t *testing.T) {
	env := newTestEnv(t)
	env.seedSavingsExample()
	env.store.AppendRow(core.Expense, core.Row{Date: "2024-03-02", Category: "Food", Amount: "10", Username: "alice"})
	env.store.AppendRow(core.Expense, core.Row{Date: "garbage", Category: "Food", Amount: "10", Username: "alice"})

	q := "?username=alice&start=2024-01-01&end=2024-12-31"

	rec := env.do(t, http.MethodGet, "/api/monthly"+q, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var monthly struct {
		Months []struct {
			Period string `json:"period"`
			Total  string `json:"total"`
		} `json:"months"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &monthly))
	require.Len(t, monthly.Months, 2, "months without records are not filled")
	assert.Equal(t, "2024-01-01", monthly.Months[0].Period)
	assert.Equal(t, "175", monthly.Months[0].Total)
	assert.Equal(t, "2024-03-01", monthly.Months[1].Period)

	rec = env.do(t, http.MethodGet, "/api/cashflow"+q, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var flow struct {
		Months []struct {
			Net string `json:"net"`
		} `json:"months"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &flow))
	require.Len(t, flow.Months, 2)
	assert.Equal(t, "525", flow.Months[0].Net)
	assert.Equal(t, "-10", flow.Months[1].Net)

	rec = env.do(t, http.MethodGet, "/api/report"+q, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var report budget.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "515", report.Summary.NetSavings.String())
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, "garbage", report.Skipped[0].Value)
}

func TestIntegrityErrorIs422(t *testing.T) {
	env := newTestEnv(t)
	env.store.AppendRow(core.Income, core.Row{Date: "2024-01-01", Category: "Gifts", Amount: "lots", Username: "bob"})

	rec := env.do(t, http.MethodGet, "/api/summary?username=bob&start=2024-01-01&end=2024-01-31", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "data_integrity", decodeBody(t, rec)["code"])
}

func TestTransactionLifecycle(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/transactions",
		`{"kind":"expense","date":"2024-05-02","category":"Food","amount":"12.50","description":"lunch","username":"carol"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := int64(decodeBody(t, rec)["id"].(float64))

	rec = env.do(t, http.MethodPost, "/api/transactions",
		`{"kind":"income","date":"2024-05-03","category":"Gifts","amount":40,"username":"carol"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/summary?username=carol&start=2024-05-01&end=2024-05-31", "")
	assert.Equal(t, "27.5", decodeBody(t, rec)["net_savings"])

	rec = env.do(t, http.MethodDelete, "/api/transactions/expense/"+jsonInt(id)+"?username=carol", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/transactions/expense/"+jsonInt(id)+"?username=carol", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func jsonInt(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}

func TestCreateTransactionValidation(t *testing.T) {
	env := newTestEnv(t)
	bodies := []string{
		`{"kind":"expense","date":"2024-05-02","category":"Food","amount":"-1","username":"carol"}`,
		`{"kind":"expense","date":"05/02/2024","category":"Food","amount":"1","username":"carol"}`,
		`{"kind":"gift","date":"2024-05-02","category":"Food","amount":"1","username":"carol"}`,
		`{"kind":"expense","date":"2024-05-02","category":" ","amount":"1","username":"carol"}`,
		`{"kind":"expense","date":"2024-05-02","category":"Food","amount":"1"}`,
		`{"kind":"expense","date":"2024-05-02","category":"Food","amount":"10.005","username":"carol"}`,
		`{"kind":"expense","date":"2024-05-02","category":"Food","amount":1e900000000,"username":"carol"}`,
		`{"kind":"expense","unknown":true}`,
		`not json`,
	}
	for _, b := range bodies {
		rec := env.do(t, http.MethodPost, "/api/transactions", b)
		assert.Equal(t, http.StatusBadRequest, rec.Code, b)
	}
}

func TestCategoryEndpoints(t *testing.T) {
	env := newTestEnv(t)
	env.seedSavingsExample()

	rec := env.do(t, http.MethodPost, "/api/categories/expense", `{"name":"Travel"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	rec = env.do(t, http.MethodPost, "/api/categories/expense", `{"name":"Travel"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/categories/expense/rename", `{"from":"Food","to":"Groceries"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 1, decodeBody(t, rec)["moved"])

	rec = env.do(t, http.MethodPost, "/api/categories/expense/rename", `{"from":"Savngs","to":"X"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "not_found", body["code"])
	assert.Equal(t, "Savings", body["suggestion"])

	rec = env.do(t, http.MethodDelete, "/api/categories/expense/Groceries", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/categories/expense?username=alice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Categories []core.CategoryUsage `json:"categories"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	counts := map[string]int{}
	for _, c := range list.Categories {
		counts[c.Name] = c.Count
	}
	assert.Equal(t, 1, counts[core.Uncategorized])
	_, hasGroceries := counts["Groceries"]
	assert.False(t, hasGroceries)
}

func TestImportEndpoint(t *testing.T) {
	env := newTestEnv(t)
	csvBody := "Date,Category,Amount,Description\n2024-01-02,Food,10.00,bread\n01/03/2024,Food,5,skip me\n"

	req := httptest.NewRequest(http.MethodPost, "/api/import/expense?username=dan", strings.NewReader(csvBody))
	req.Header.Set("Content-Type", "text/csv")
	rec := httptest.NewRecorder()
	env.srv.Handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result services.ImportResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 1, result.Imported)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, 3, result.Skipped[0].Line)

	req = httptest.NewRequest(http.MethodPost, "/api/import/expense?username=dan", strings.NewReader("when,what\n"))
	rec = httptest.NewRecorder()
	env.srv.Handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClassify(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{&core.DataAccessError{Op: "read", Err: errors.New("down")}, http.StatusServiceUnavailable},
		{&core.IntegrityError{Field: "amount", Err: core.ErrInvalidAmount}, http.StatusUnprocessableEntity},
		{&core.InvalidRangeError{Field: "start", Err: core.ErrInvalidDate}, http.StatusBadRequest},
		{&services.UnknownCategoryError{Name: "x"}, http.StatusNotFound},
		{core.ErrCategoryExists, http.StatusConflict},
		{core.ErrInvalidAmount, http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		status, _ := classify(tc.err)
		assert.Equal(t, tc.status, status, tc.err.Error())
	}
}
