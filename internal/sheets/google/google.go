package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/anisur046/accounting/internal/core"
	"github.com/anisur046/accounting/internal/export"
	ports "github.com/anisur046/accounting/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const defaultTitleCacheTTL = 5 * time.Minute

// Client writes daybooks to a spreadsheet, one tab per day named
// "<sheet> <YYYY-MM-DD>". Tabs are created on first export.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string

	// Known tab titles, refreshed when stale to avoid a metadata read per export.
	mu                 sync.Mutex
	titles             map[string]struct{}
	cacheExpiresAt     time.Time
	cacheValidDuration time.Duration
}

var _ ports.DaybookWriter = (*Client)(nil)

// New creates a Sheets client for spreadsheetID. Credentials come from
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or
// GOOGLE_APPLICATION_CREDENTIALS.
func New(ctx context.Context, spreadsheetID, sheetName string) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	sheetName = strings.TrimSpace(sheetName)
	if sheetName == "" {
		sheetName = "Daybook"
	}
	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Client{
		svc:                svc,
		spreadsheetID:      spreadsheetID,
		sheetName:          sheetName,
		cacheValidDuration: defaultTitleCacheTTL,
	}, nil
}

func credentialsFromEnv() ([]byte, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case serviceAccountJSON != "":
		return []byte(serviceAccountJSON), nil
	case serviceAccountFile != "":
		b, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	credentialsJSON, err := credentialsFromEnv()
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "Creating Google Sheets service with Service Account",
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

// WriteDaybook clears the day's tab and writes t starting at A1.
func (c *Client) WriteDaybook(ctx context.Context, day string, t export.Table) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	title := sheetTitle(c.sheetName, day)
	if err := c.ensureSheet(ctx, title); err != nil {
		return "", err
	}

	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, quoteSheet(title), &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		// The tab may have been removed by hand.
		c.invalidateTitles()
		return "", fmt.Errorf("clear %s: %w", title, err)
	}

	values := t.Values()
	rng := valuesRange(title, values)
	vr := &gsheet.ValueRange{Values: values}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("update %s: %w", rng, err)
	}
	return rng, nil
}

// ExportedDays reads the tab list and returns the days of the tabs named
// "<sheet> <YYYY-MM-DD>".
func (c *Client) ExportedDays(ctx context.Context) ([]string, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	if err := c.refreshTitles(ctx); err != nil {
		return nil, err
	}
	c.mu.Lock()
	titles := make([]string, 0, len(c.titles))
	for t := range c.titles {
		titles = append(titles, t)
	}
	c.mu.Unlock()
	return daysFromTitles(c.sheetName, titles), nil
}

func daysFromTitles(base string, titles []string) []string {
	prefix := base + " "
	var days []string
	for _, t := range titles {
		day, ok := strings.CutPrefix(t, prefix)
		if !ok {
			continue
		}
		if _, err := time.Parse(core.DateLayout, day); err != nil {
			continue
		}
		days = append(days, day)
	}
	sort.Strings(days)
	return days
}

func (c *Client) ensureSheet(ctx context.Context, title string) error {
	if c.hasTitle(title) {
		return nil
	}
	if err := c.refreshTitles(ctx); err != nil {
		return err
	}
	if c.hasTitle(title) {
		return nil
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{Requests: []*gsheet.Request{{
		AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: title}},
	}}}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %s: %w", title, err)
	}
	slog.InfoContext(ctx, "Created daybook sheet", "spreadsheet_id", c.spreadsheetID, "sheet", title)

	c.mu.Lock()
	if c.titles == nil {
		c.titles = map[string]struct{}{}
	}
	c.titles[title] = struct{}{}
	c.mu.Unlock()
	return nil
}

func (c *Client) hasTitle(title string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if time.Now().After(c.cacheExpiresAt) {
		return false
	}
	_, ok := c.titles[title]
	return ok
}

func (c *Client) refreshTitles(ctx context.Context) error {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read spreadsheet %s: %w", c.spreadsheetID, err)
	}
	titles := make(map[string]struct{}, len(ss.Sheets))
	for _, sh := range ss.Sheets {
		if sh.Properties != nil {
			titles[sh.Properties.Title] = struct{}{}
		}
	}
	c.mu.Lock()
	c.titles = titles
	c.cacheExpiresAt = time.Now().Add(c.cacheValidDuration)
	c.mu.Unlock()
	return nil
}

// invalidateTitles forces the next export to re-read the tab list.
func (c *Client) invalidateTitles() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cacheExpiresAt = time.Time{}
}

func sheetTitle(base, day string) string {
	return strings.TrimSpace(base + " " + day)
}

// quoteSheet quotes a tab title for A1 notation.
func quoteSheet(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

func valuesRange(title string, values [][]any) string {
	cols := 1
	for _, row := range values {
		cols = max(cols, len(row))
	}
	rows := max(len(values), 1)
	return fmt.Sprintf("%s!A1:%s%d", quoteSheet(title), columnName(cols), rows)
}

// columnName converts a 1-based column index to letters: 1 -> A, 27 -> AA.
func columnName(n int) string {
	var b []byte
	for n > 0 {
		n--
		b = append([]byte{byte('A' + n%26)}, b...)
		n /= 26
	}
	return string(b)
}
