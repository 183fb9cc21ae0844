package sheets

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/mamadbah2/dairy-advisor/internal/config"
)

const (
	digestWriteRange = "Digest!A:J"
	dateFormat       = "2006-01-02"
)

// DigestRow is one exported line of the daily advisory digest.
type DigestRow struct {
	Date            time.Time
	SessionID       string
	ConcentrateFeed float64
	NitrogenRate    float64
	Emissions       float64
	Yield           float64
	CostPerLitre    float64
	TotalScore      float64
	TopSuggestion   string
}

// Exporter defines the digest export operations supported by the Google
// Sheets adapter.
type Exporter interface {
	AppendDigest(ctx context.Context, row DigestRow) error
}

// GoogleSheetExporter implements the Exporter interface using the official
// Google Sheets API.
type GoogleSheetExporter struct {
	service       *sheetsapi.Service
	spreadsheetID string
	logger        *zap.Logger
}

// NewGoogleSheetExporter builds a Google Sheets backed exporter instance.
func NewGoogleSheetExporter(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger) (Exporter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	service, err := sheetsapi.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsPath), option.WithScopes(sheetsapi.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return &GoogleSheetExporter{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		logger:        logger,
	}, nil
}

// AppendDigest appends the digest row to the configured spreadsheet.
func (e *GoogleSheetExporter) AppendDigest(ctx context.Context, row DigestRow) error {
	values := []interface{}{
		row.Date.Format(dateFormat),
		row.SessionID,
		row.ConcentrateFeed,
		row.NitrogenRate,
		row.Emissions,
		row.Yield,
		row.CostPerLitre,
		row.TotalScore,
		row.TopSuggestion,
	}

	payload := &sheetsapi.ValueRange{Values: [][]interface{}{values}}

	call := e.service.Spreadsheets.Values.Append(e.spreadsheetID, digestWriteRange, payload).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx)

	if _, err := call.Do(); err != nil {
		return fmt.Errorf("append digest row for session %s: %w", row.SessionID, err)
	}

	e.logger.Debug("digest row appended", zap.String("session_id", row.SessionID))
	return nil
}
