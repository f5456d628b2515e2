// Package sheets uploads report tables to Google Sheets and shares the
// result through the Drive API.
package sheets

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/workflow-crm/report-automation/internal/report"
)

// Config holds Google API configuration
type Config struct {
	CredentialsFile string
	FolderID        string
	ShareEmail      string
}

// Client implements report.Uploader against Google Sheets.
type Client struct {
	sheets     *sheets.Service
	drive      *drive.Service
	folderID   string
	shareEmail string
	logger     *zap.Logger
}

// NewClient authenticates with a service-account credentials file.
func NewClient(ctx context.Context, cfg Config, logger *zap.Logger) (*Client, error) {
	opts := []option.ClientOption{
		option.WithCredentialsFile(cfg.CredentialsFile),
		option.WithScopes(sheets.SpreadsheetsScope, drive.DriveScope),
	}

	sheetsService, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	driveService, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}

	return &Client{
		sheets:     sheetsService,
		drive:      driveService,
		folderID:   cfg.FolderID,
		shareEmail: cfg.ShareEmail,
		logger:     logger,
	}, nil
}

// Upload creates a spreadsheet named sheetName in the configured
// folder, writes the table, applies formatting, shares it, and returns
// the document URL.
func (c *Client) Upload(ctx context.Context, sheetName string, table *report.Table) (string, error) {
	c.logger.Info("Creating spreadsheet", zap.String("name", sheetName))

	file := &drive.File{
		Name:     sheetName,
		MimeType: "application/vnd.google-apps.spreadsheet",
	}
	if c.folderID != "" {
		file.Parents = []string{c.folderID}
	}

	created, err := c.drive.Files.Create(file).Fields("id").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to create spreadsheet: %w", err)
	}
	spreadsheetID := created.Id

	values := make([][]interface{}, 0, len(table.Rows)+1)
	values = append(values, toInterfaces(table.Header))
	for _, row := range table.Rows {
		values = append(values, toInterfaces(row.Cells))
	}

	_, err = c.sheets.Spreadsheets.Values.
		Update(spreadsheetID, "A1", &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("failed to write rows: %w", err)
	}

	sheetID, err := c.firstSheetID(ctx, spreadsheetID)
	if err != nil {
		return "", err
	}

	requests := formatRequests(table, sheetID)
	if len(requests) > 0 {
		_, err = c.sheets.Spreadsheets.
			BatchUpdate(spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{Requests: requests}).
			Context(ctx).
			Do()
		if err != nil {
			return "", fmt.Errorf("failed to apply formatting: %w", err)
		}
	}

	if c.shareEmail != "" {
		permission := &drive.Permission{
			Type:         "user",
			Role:         "writer",
			EmailAddress: c.shareEmail,
		}
		_, err = c.drive.Permissions.Create(spreadsheetID, permission).Context(ctx).Do()
		if err != nil {
			return "", fmt.Errorf("failed to share spreadsheet: %w", err)
		}
	}

	url := "https://docs.google.com/spreadsheets/d/" + spreadsheetID
	c.logger.Info("Spreadsheet uploaded",
		zap.String("name", sheetName),
		zap.Int("rows", len(table.Rows)),
		zap.String("url", url))
	return url, nil
}

func (c *Client) firstSheetID(ctx context.Context, spreadsheetID string) (int64, error) {
	spreadsheet, err := c.sheets.Spreadsheets.Get(spreadsheetID).
		Fields("sheets.properties.sheetId").
		Context(ctx).
		Do()
	if err != nil {
		return 0, fmt.Errorf("failed to get spreadsheet: %w", err)
	}
	if len(spreadsheet.Sheets) == 0 {
		return 0, fmt.Errorf("spreadsheet %s has no sheets", spreadsheetID)
	}
	return spreadsheet.Sheets[0].Properties.SheetId, nil
}

func toInterfaces(cells []string) []interface{} {
	out := make([]interface{}, len(cells))
	for i, cell := range cells {
		out[i] = cell
	}
	return out
}

// Verify interface compliance
var _ report.Uploader = (*Client)(nil)
