// Package export projects spending data into spreadsheet rows for the
// household's shared Google Sheet. The worker consumes change messages and
// appends one row per change; the sheet is an append-only journal, not a
// mirror.
package export

import "context"

// RowAppender appends one row to the export destination.
type RowAppender interface {
	AppendRow(ctx context.Context, row []any) error
}
