package tracker

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/trendscout/internal/config"
	"github.com/trendscout/internal/ingest"
	"github.com/trendscout/internal/models"
	"github.com/trendscout/pkg/logger"
)

// SheetColumns defines the column headers for the sync-run sheet
var SheetColumns = []string{
	"Started At",
	"Source",
	"Timespan",
	"Dry Run",
	"Status",
	"Fetched",
	"Processed",
	"Relevant",
	"Errors",
}

// SheetsTracker appends one row per sync run to a Google Sheet
type SheetsTracker struct {
	service       *sheets.Service
	spreadsheetID string
	sheetName     string
	log           *logger.Logger
}

// NewSheetsTracker creates a new Google Sheets tracker. Returns
// (nil, nil) when the tracker is disabled in config.
func NewSheetsTracker(cfg config.TrackerConfig, log *logger.Logger) (*SheetsTracker, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	ctx := context.Background()

	var srv *sheets.Service
	var err error

	// Try service account JSON first (for env var injection)
	if cfg.ServiceAccountJSON != "" {
		srv, err = sheets.NewService(ctx, option.WithCredentialsJSON([]byte(cfg.ServiceAccountJSON)))
	} else if cfg.CredentialsFile != "" {
		srv, err = sheets.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsFile))
	} else {
		return nil, fmt.Errorf("no Google credentials provided: set credentials_file or service_account_json")
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	sheetName := cfg.SheetName
	if sheetName == "" {
		sheetName = "SyncRuns"
	}

	return &SheetsTracker{
		service:       srv,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     sheetName,
		log:           log.WithComponent("sheets-tracker"),
	}, nil
}

// InitializeSheet creates the sheet and headers if they don't exist
func (t *SheetsTracker) InitializeSheet(ctx context.Context) error {
	if err := t.ensureSheetExists(ctx); err != nil {
		return err
	}

	readRange := fmt.Sprintf("%s!A1:I1", t.sheetName)
	resp, err := t.service.Spreadsheets.Values.Get(t.spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to read sheet: %w", err)
	}

	if len(resp.Values) == 0 {
		t.log.Info().Msg("Initializing sheet with headers")
		return t.writeHeaders(ctx)
	}

	t.log.Debug().Msg("Sheet already has headers")
	return nil
}

// ensureSheetExists creates the sheet if it doesn't exist
func (t *SheetsTracker) ensureSheetExists(ctx context.Context) error {
	spreadsheet, err := t.service.Spreadsheets.Get(t.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to get spreadsheet: %w", err)
	}

	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties.Title == t.sheetName {
			t.log.Debug().Str("sheet", t.sheetName).Msg("Sheet already exists")
			return nil
		}
	}

	t.log.Info().Str("sheet", t.sheetName).Msg("Creating new sheet")
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			{
				AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{
						Title: t.sheetName,
					},
				},
			},
		},
	}

	_, err = t.service.Spreadsheets.BatchUpdate(t.spreadsheetID, req).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	return nil
}

// writeHeaders writes column headers to the first row
func (t *SheetsTracker) writeHeaders(ctx context.Context) error {
	var headerRow []interface{}
	for _, col := range SheetColumns {
		headerRow = append(headerRow, col)
	}

	writeRange := fmt.Sprintf("%s!A1", t.sheetName)
	valueRange := &sheets.ValueRange{
		Values: [][]interface{}{headerRow},
	}

	_, err := t.service.Spreadsheets.Values.Update(t.spreadsheetID, writeRange, valueRange).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	t.log.Info().Msg("Sheet headers initialized")
	return nil
}

// RecordRun appends one sync run report to the sheet
func (t *SheetsTracker) RecordRun(ctx context.Context, report ingest.RunReport) error {
	row := []interface{}{
		report.StartedAt.Format(time.RFC3339),
		report.Source,
		string(report.Timespan),
		report.DryRun,
		string(report.Status),
		report.Fetched,
		report.Processed,
		report.Relevant,
		report.Errors,
	}

	appendRange := fmt.Sprintf("%s!A:I", t.sheetName)
	valueRange := &sheets.ValueRange{
		Values: [][]interface{}{row},
	}

	_, err := t.service.Spreadsheets.Values.Append(t.spreadsheetID, appendRange, valueRange).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to append run row: %w", err)
	}

	t.log.Info().
		Str("source", report.Source).
		Str("timespan", string(report.Timespan)).
		Msg("Recorded sync run in sheet")

	return nil
}

// GetAllRuns retrieves all recorded runs from the sheet
func (t *SheetsTracker) GetAllRuns(ctx context.Context) ([]ingest.RunReport, error) {
	readRange := fmt.Sprintf("%s!A2:I", t.sheetName) // Skip header
	resp, err := t.service.Spreadsheets.Values.Get(t.spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read runs: %w", err)
	}

	var runs []ingest.RunReport
	for _, row := range resp.Values {
		if report, ok := parseRow(row); ok {
			runs = append(runs, report)
		}
	}

	return runs, nil
}

// parseRow parses a sheet row into a run report
func parseRow(row []interface{}) (ingest.RunReport, bool) {
	if len(row) < 9 {
		return ingest.RunReport{}, false
	}

	getString := func(i int) string {
		return fmt.Sprintf("%v", row[i])
	}

	getInt := func(i int) int {
		var val int
		fmt.Sscanf(getString(i), "%d", &val)
		return val
	}

	startedAt, _ := time.Parse(time.RFC3339, getString(0))

	return ingest.RunReport{
		StartedAt: startedAt,
		Source:    getString(1),
		Timespan:  models.Timespan(getString(2)),
		DryRun:    getString(3) == "true" || getString(3) == "TRUE",
		Status:    models.JobStatus(getString(4)),
		Fetched:   getInt(5),
		Processed: getInt(6),
		Relevant:  getInt(7),
		Errors:    getInt(8),
	}, true
}
