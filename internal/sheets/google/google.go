// Package google exports report tables to a Google Sheets spreadsheet, one
// sheet per user and table.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/export"
	"fintrack/internal/log"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// maxTitleLen is the longest sheet title the Sheets API accepts.
const maxTitleLen = 100

// Credentials locates a service account key. JSON wins over File.
type Credentials struct {
	JSON string
	File string
}

func (c Credentials) load() ([]byte, error) {
	switch {
	case strings.TrimSpace(c.JSON) != "":
		return []byte(c.JSON), nil
	case strings.TrimSpace(c.File) != "":
		b, err := os.ReadFile(strings.TrimSpace(c.File))
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	logger        *log.Logger
}

var _ export.Sink = (*Client)(nil)

// New creates a Sheets client writing to spreadsheetID.
func New(ctx context.Context, spreadsheetID string, creds Credentials, logger *log.Logger) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentSheets)

	svc, err := newSheetsService(ctx, creds, logger)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, logger: logger}, nil
}

// NewFromEnv creates a Sheets client from GOOGLE_SPREADSHEET_ID and
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or
// GOOGLE_APPLICATION_CREDENTIALS.
func NewFromEnv(ctx context.Context, logger *log.Logger) (*Client, error) {
	creds := Credentials{
		JSON: os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"),
		File: os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"),
	}
	if strings.TrimSpace(creds.File) == "" {
		creds.File = os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")
	}
	return New(ctx, os.Getenv("GOOGLE_SPREADSHEET_ID"), creds, logger)
}

func newSheetsService(ctx context.Context, creds Credentials, logger *log.Logger) (*gsheet.Service, error) {
	credentialsJSON, err := creds.load()
	if err != nil {
		return nil, err
	}

	logger.DebugContext(ctx, "Creating Google Sheets service",
		"credentials_size", len(credentialsJSON),
		"scope", gsheet.SpreadsheetsScope)

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

func (c *Client) Name() string { return "sheets" }

// Write replaces the content of the user's sheets with tables, adding the
// sheets that do not exist yet.
func (c *Client) Write(ctx context.Context, username string, w core.Window, tables []export.Table) error {
	if len(tables) == 0 {
		return nil
	}

	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("get spreadsheet: %w", err)
	}
	existing := make([]string, 0, len(ss.Sheets))
	for _, sh := range ss.Sheets {
		if sh.Properties != nil {
			existing = append(existing, sh.Properties.Title)
		}
	}

	titles := make([]string, len(tables))
	for i, t := range tables {
		titles[i] = sheetTitle(username, t.Name)
	}

	if missing := missingSheets(existing, titles); len(missing) > 0 {
		reqs := make([]*gsheet.Request, 0, len(missing))
		for _, title := range missing {
			reqs = append(reqs, &gsheet.Request{
				AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: title}},
			})
		}
		if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, &gsheet.BatchUpdateSpreadsheetRequest{Requests: reqs}).Context(ctx).Do(); err != nil {
			return fmt.Errorf("add sheets: %w", err)
		}
		c.logger.InfoContext(ctx, "Added sheets", log.FieldUsername, username, "count", len(missing))
	}

	ranges := make([]string, len(titles))
	data := make([]*gsheet.ValueRange, len(tables))
	for i, t := range tables {
		ranges[i] = quoteTitle(titles[i])
		data[i] = &gsheet.ValueRange{Range: quoteTitle(titles[i]) + "!A1", Values: toValues(t)}
	}

	if _, err := c.svc.Spreadsheets.Values.BatchClear(c.spreadsheetID, &gsheet.BatchClearValuesRequest{Ranges: ranges}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear sheets: %w", err)
	}
	if _, err := c.svc.Spreadsheets.Values.BatchUpdate(c.spreadsheetID, &gsheet.BatchUpdateValuesRequest{
		ValueInputOption: "USER_ENTERED",
		Data:             data,
	}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("write sheets: %w", err)
	}

	c.logger.InfoContext(ctx, "Report written to Google Sheets",
		log.FieldUsername, username,
		log.FieldWindow, w.String(),
		"tables", len(tables))
	return nil
}

// sheetTitle names the sheet holding one table of one user.
func sheetTitle(username, table string) string {
	title := export.UserKey(username) + " " + table
	if r := []rune(title); len(r) > maxTitleLen {
		title = string(r[:maxTitleLen])
	}
	return title
}

// quoteTitle quotes a sheet title for use in A1 notation.
func quoteTitle(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

func missingSheets(existing, wanted []string) []string {
	have := make(map[string]struct{}, len(existing))
	for _, e := range existing {
		have[e] = struct{}{}
	}
	var out []string
	for _, w := range wanted {
		if _, ok := have[w]; ok {
			continue
		}
		have[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

func toValues(t export.Table) [][]interface{} {
	values := make([][]interface{}, 0, len(t.Rows)+1)
	values = append(values, toRow(t.Header))
	for _, r := range t.Rows {
		values = append(values, toRow(r))
	}
	return values
}

func toRow(cells []string) []interface{} {
	row := make([]interface{}, len(cells))
	for i, c := range cells {
		row[i] = c
	}
	return row
}
