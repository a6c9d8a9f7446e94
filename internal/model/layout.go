// Package model defines the ledger records and how they are laid out on the spreadsheet.
package model

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Veraticus/feeledger/internal/sheets"
)

// Worksheet names. Column positions on each sheet are a contract with the
// spreadsheet and change only together with a data migration.
const (
	StudentsSheet = "Students"
	FeeLogsSheet  = "FeeLogs"
	CounterSheet  = "Counter"

	// FirstDataRow is the first row below the two header rows.
	FirstDataRow = 3
)

// SheetNames lists every worksheet the ledger reads or writes.
var SheetNames = []string{StudentsSheet, FeeLogsSheet, CounterSheet}

// ErrMalformedRow is returned when a stored row cannot be decoded.
var ErrMalformedRow = errors.New("malformed row")

// MaxAmount caps every fee amount the ledger accepts, in rupees. Sums of
// capped amounts stay far inside the int range.
const MaxAmount = 1_000_000_000

// rowReader reads cells by column with explicit presence checks, so short
// rows (the API trims trailing blanks) decode to zero values. Cells that do
// not parse also decode to zero values; the first such cell is kept in err.
type rowReader struct {
	err error
	row []any
}

func (r *rowReader) text(col int) string {
	if col >= len(r.row) {
		return ""
	}
	return strings.TrimSpace(sheets.CellText(r.row[col]))
}

func (r *rowReader) has(col int) bool {
	return r.text(col) != ""
}

// int reads a whole number; a blank cell is zero.
func (r *rowReader) int(col int) int {
	if !r.has(col) {
		return 0
	}
	n, err := parseSheetAmount(r.text(col))
	if err != nil {
		if r.err == nil {
			r.err = fmt.Errorf("%w: column %s: %w", ErrMalformedRow, sheets.ColumnName(col), err)
		}
		return 0
	}
	return n
}

// optInt reads a computed whole number. Blank cells and formula errors such
// as #REF! read as nil.
func (r *rowReader) optInt(col int) *int {
	if !r.has(col) {
		return nil
	}
	n, err := parseSheetAmount(r.text(col))
	if err != nil {
		return nil
	}
	return &n
}

// parseSheetAmount accepts a leading rupee sign, which currency-formatted
// cells carry.
func parseSheetAmount(s string) (int, error) {
	s = strings.TrimSpace(s)
	for _, prefix := range []string{"₹", "Rs.", "Rs"} {
		if rest, ok := strings.CutPrefix(s, prefix); ok {
			s = rest
			break
		}
	}
	return ParseWholeNumber(s)
}

// ParseWholeNumber parses integers as a sheet renders them: surrounding
// spaces, thousands separators, and a zero fractional part ("1,000.00") are
// accepted.
func ParseWholeNumber(s string) (int, error) {
	clean := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if clean == "" {
		return 0, fmt.Errorf("empty number")
	}
	if n, err := strconv.Atoi(clean); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(clean, 64)
	if err != nil || math.Abs(f) > maxExactFloat || f != math.Trunc(f) {
		return 0, fmt.Errorf("%q is not a whole number", s)
	}
	return int(f), nil
}

// maxExactFloat is the largest float64 below which every integer is exact.
const maxExactFloat = 1 << 53
