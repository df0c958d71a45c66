// Package google mirrors transactions into a Google Sheets tab using a
// service account.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	googleauth "golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"smartspend/internal/core"
	"smartspend/internal/ports"
	"smartspend/internal/sheets"
)

var (
	ErrMissingSpreadsheetID = errors.New("missing GOOGLE_SPREADSHEET_ID")
	ErrMissingCredentials   = errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	ErrSheetNotFound        = errors.New("sheet tab not found")
)

// Config selects the spreadsheet and the service account used to reach it.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

var _ ports.TransactionExporter = (*Client)(nil)

// New creates a client authenticated with the configured service account.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, ErrMissingSpreadsheetID
	}
	creds, err := loadCredentials(cfg)
	if err != nil {
		return nil, err
	}

	jwt, err := googleauth.JWTConfigFromJSON(creds, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse service account credentials: %w", err)
	}

	// The token source and the API calls share one pooled transport.
	authCtx := context.WithValue(ctx, oauth2.HTTPClient, newHTTPClientWithPooling())
	svc, err := gsheet.NewService(ctx, goption.WithHTTPClient(jwt.Client(authCtx)))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	slog.InfoContext(ctx, "Google Sheets service created", "spreadsheet_id", cfg.SpreadsheetID)
	return NewWithService(svc, cfg.SpreadsheetID, cfg.SheetName), nil
}

// NewWithService wraps an existing service. An empty sheetName selects
// "Transactions".
func NewWithService(svc *gsheet.Service, spreadsheetID, sheetName string) *Client {
	if strings.TrimSpace(sheetName) == "" {
		sheetName = "Transactions"
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheetName: sheetName}
}

func loadCredentials(cfg Config) ([]byte, error) {
	inline := strings.TrimSpace(cfg.CredentialsJSON)
	file := strings.TrimSpace(cfg.CredentialsFile)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case inline != "":
		return []byte(inline), nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	default:
		return nil, ErrMissingCredentials
	}
}

// newHTTPClientWithPooling keeps connections to the Sheets API warm between
// worker deliveries.
func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{Transport: transport, Timeout: 60 * time.Second}
}

// ExportTransaction appends tx to the sheet, writing the header first on an
// empty sheet. A row already holding tx.ID is overwritten instead, so
// redelivered events do not duplicate rows.
func (c *Client) ExportTransaction(ctx context.Context, tx core.Transaction) (string, error) {
	if err := tx.Validate(); err != nil {
		return "", fmt.Errorf("%w: validation failed: %w", ports.ErrPermanent, err)
	}
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	ids, err := c.readIDs(ctx)
	if err != nil {
		return "", err
	}

	if i := sheets.FindRow(ids, tx.ID); i >= 0 {
		rng := fmt.Sprintf("%s!A%d:E%d", c.sheetName, i+1, i+1)
		_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng,
			&gsheet.ValueRange{Values: [][]any{sheets.Row(tx)}}).
			ValueInputOption("USER_ENTERED").Context(ctx).Do()
		if err != nil {
			return "", fmt.Errorf("update %s: %w", rng, classify(err))
		}
		return rng, nil
	}

	rows := [][]any{sheets.Row(tx)}
	if !sheets.HasHeader(ids) {
		rows = append([][]any{sheets.Header}, rows...)
	}

	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, c.columns(),
		&gsheet.ValueRange{Values: rows}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to %s: %w", c.sheetName, classify(err))
	}
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		return resp.Updates.UpdatedRange, nil
	}
	return c.columns(), nil
}

// RemoveTransaction deletes the row holding id. Missing rows are ignored.
func (c *Client) RemoveTransaction(ctx context.Context, id string) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	ids, err := c.readIDs(ctx)
	if err != nil {
		return err
	}
	row := sheets.FindRow(ids, id)
	if row < 0 {
		slog.DebugContext(ctx, "Transaction not present in sheet", "id", id)
		return nil
	}

	sheetID, err := c.sheetID(ctx)
	if err != nil {
		return err
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			DeleteDimension: &gsheet.DeleteDimensionRequest{
				Range: &gsheet.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: int64(row),
					EndIndex:   int64(row + 1),
					// row 0 must still be sent
					ForceSendFields: []string{"StartIndex"},
				},
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete row %d in %s: %w", row+1, c.sheetName, classify(err))
	}
	return nil
}

// ExportedIDs lists the ids of every data row in the sheet.
func (c *Client) ExportedIDs(ctx context.Context) ([]string, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	values, err := c.readIDs(ctx)
	if err != nil {
		return nil, err
	}
	return sheets.IDs(values), nil
}

// classify marks client errors the API will keep returning, such as a
// missing spreadsheet or revoked access, as permanent. Throttling and
// timeouts stay retryable.
func classify(err error) error {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	switch {
	case apiErr.Code == http.StatusRequestTimeout, apiErr.Code == http.StatusTooManyRequests:
		return err
	case apiErr.Code >= 400 && apiErr.Code < 500:
		return fmt.Errorf("%w: %w", ports.ErrPermanent, err)
	}
	return err
}

func (c *Client) readIDs(ctx context.Context) ([][]any, error) {
	rng := fmt.Sprintf("%s!A:A", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, classify(err))
	}
	return resp.Values, nil
}

func (c *Client) sheetID(ctx context.Context) (int64, error) {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read spreadsheet metadata: %w", classify(err))
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == c.sheetName {
			return s.Properties.SheetId, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrSheetNotFound, c.sheetName)
}

func (c *Client) columns() string {
	return fmt.Sprintf("%s!%s", c.sheetName, sheets.Columns)
}
