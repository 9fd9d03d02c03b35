package export

import (
	"context"
	"encoding/base64"
	"fmt"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/chafiq1992/order-scanner/internal/infrastructure/config"
)

// SheetsExporter appends rows to a Google Sheets worksheet using a service
// account credential.
type SheetsExporter struct {
	service       *sheets.Service
	spreadsheetID string
	worksheet     string
}

// NewSheetsExporter builds the exporter from configuration. The credential
// arrives base64-encoded so it can travel through a single environment
// variable.
func NewSheetsExporter(ctx context.Context, cfg config.SheetsConfig) (*SheetsExporter, error) {
	raw, err := base64.StdEncoding.DecodeString(cfg.CredentialsBase64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode sheets credentials: %w", err)
	}

	creds, err := google.CredentialsFromJSON(ctx, raw, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("invalid sheets service account credentials: %w", err)
	}

	service, err := sheets.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &SheetsExporter{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		worksheet:     cfg.Worksheet,
	}, nil
}

// AppendRow appends one row after the last non-empty row of the worksheet
func (e *SheetsExporter) AppendRow(ctx context.Context, values []string) error {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}

	_, err := e.service.Spreadsheets.Values.
		Append(e.spreadsheetID, e.worksheet, &sheets.ValueRange{
			Values: [][]interface{}{cells},
		}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to append row to sheet: %w", err)
	}
	return nil
}

var _ Exporter = (*SheetsExporter)(nil)
