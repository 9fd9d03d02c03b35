// Package export ships accepted scans to an external spreadsheet. The
// transport is best-effort: scan ingestion never waits on it and never fails
// because of it.
package export

import "context"

// Exporter appends one row of cell values to the export target.
type Exporter interface {
	AppendRow(ctx context.Context, values []string) error
}

// NoopExporter discards rows. Used when no export target is configured.
type NoopExporter struct{}

// AppendRow does nothing
func (NoopExporter) AppendRow(ctx context.Context, values []string) error {
	return nil
}

var _ Exporter = (*NoopExporter)(nil)
