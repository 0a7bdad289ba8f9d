package google

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fintrack/internal/export"
)

func TestSheetTitle(t *testing.T) {
	if got := sheetTitle("Alice Smith", export.TableSummary); got != "alice-smith-8ae10dfc9a summary" {
		t.Fatalf("got %q", got)
	}
	if sheetTitle("Alice", export.TableSummary) == sheetTitle("alice", export.TableSummary) {
		t.Fatal("users differing only in case must not share a sheet")
	}
	long := sheetTitle(strings.Repeat("a", 150), export.TableCashFlow)
	if len([]rune(long)) > maxTitleLen || !strings.HasSuffix(long, " "+export.TableCashFlow) {
		t.Fatalf("long names keep the table name within %d runes, got %q", maxTitleLen, long)
	}
}

func TestQuoteTitle(t *testing.T) {
	if got := quoteTitle("bob's summary"); got != "'bob''s summary'" {
		t.Fatalf("got %q", got)
	}
}

func TestMissingSheets(t *testing.T) {
	got := missingSheets([]string{"Sheet1", "alice summary"}, []string{"alice summary", "alice monthly", "alice monthly"})
	if len(got) != 1 || got[0] != "alice monthly" {
		t.Fatalf("got %v", got)
	}
}

func TestToValues(t *testing.T) {
	values := toValues(export.Table{
		Name:   "x",
		Header: []string{"metric", "value"},
		Rows:   [][]string{{"net_savings", "525.00"}},
	})
	if len(values) != 2 || values[0][0] != "metric" || values[1][1] != "525.00" {
		t.Fatalf("got %v", values)
	}
}

func TestCredentialsLoad(t *testing.T) {
	b, err := Credentials{JSON: `{"type":"service_account"}`, File: "/does/not/exist"}.load()
	if err != nil || string(b) != `{"type":"service_account"}` {
		t.Fatalf("inline JSON should win, got %s err=%v", b, err)
	}

	path := filepath.Join(t.TempDir(), "key.json")
	if err := os.WriteFile(path, []byte(`{}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if b, err := (Credentials{File: path}).load(); err != nil || string(b) != `{}` {
		t.Fatalf("file credentials: %s err=%v", b, err)
	}

	if _, err := (Credentials{File: "/does/not/exist"}).load(); err == nil {
		t.Fatal("expected error for missing file")
	}
	if _, err := (Credentials{}).load(); err == nil {
		t.Fatal("expected error without credentials")
	}
}

func TestNewRequiresSpreadsheetID(t *testing.T) {
	if _, err := New(context.Background(), "  ", Credentials{JSON: "{}"}, nil); err == nil || !strings.Contains(err.Error(), "GOOGLE_SPREADSHEET_ID") {
		t.Fatalf("expected missing id error, got %v", err)
	}
}
