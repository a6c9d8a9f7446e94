// Package service defines the contracts shared by the store backends and the ledger.
package service

import (
	"context"
	"time"
)

// ValueUpdate is one range of a batched write. Range is in A1 notation
// ("Students!A3:M3"); Values is row-major.
type ValueUpdate struct {
	Range  string
	Values [][]any
}

// ValueStore is the persistence contract: a grid of worksheets addressed in
// A1 notation. Implementations return cell values rendered as text, the way
// the Sheets API returns FORMATTED_VALUE reads.
type ValueStore interface {
	// GetRange reads a range. Trailing empty rows are omitted and each row
	// is trimmed of trailing empty cells.
	GetRange(ctx context.Context, rng string) ([][]any, error)

	// BatchUpdate applies every update in one request. Implementations must
	// apply all ranges or none.
	BatchUpdate(ctx context.Context, updates []ValueUpdate) error

	// SheetTitles lists the worksheet titles of the spreadsheet.
	SheetTitles(ctx context.Context) ([]string, error)
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
