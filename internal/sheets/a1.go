package sheets

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidRange is returned for A1 references this package cannot parse.
var ErrInvalidRange = errors.New("invalid A1 range")

// Range is a parsed A1 range. Columns are 0-based (A is 0) so they line up
// with row slices; rows are 1-based like the sheet itself. EndRow 0 means the
// range is open downwards ("A3:N").
type Range struct {
	Sheet    string
	StartCol int
	StartRow int
	EndCol   int
	EndRow   int
}

// ColumnName returns the letters for a 0-based column index.
func ColumnName(index int) string {
	if index < 0 {
		return ""
	}
	var b []byte
	for n := index + 1; n > 0; n = (n - 1) / 26 {
		b = append([]byte{byte('A' + (n-1)%26)}, b...)
	}
	return string(b)
}

// ColumnIndex is the inverse of ColumnName.
func ColumnIndex(name string) (int, error) {
	if name == "" {
		return 0, fmt.Errorf("%w: empty column", ErrInvalidRange)
	}
	n := 0
	for _, r := range strings.ToUpper(name) {
		if r < 'A' || r > 'Z' {
			return 0, fmt.Errorf("%w: column %q", ErrInvalidRange, name)
		}
		n = n*26 + int(r-'A'+1)
	}
	return n - 1, nil
}

// CellRef formats a single-cell reference such as "Counter!B1".
func CellRef(sheet string, col, row int) string {
	return Range{Sheet: sheet, StartCol: col, StartRow: row, EndCol: col, EndRow: row}.String()
}

// RowRef formats a one-row span such as "Students!A3:M3".
func RowRef(sheet string, fromCol, toCol, row int) string {
	return Range{Sheet: sheet, StartCol: fromCol, StartRow: row, EndCol: toCol, EndRow: row}.String()
}

// OpenRef formats a span that runs to the bottom of the sheet, such as "Students!A3:N".
func OpenRef(sheet string, fromCol, toCol, startRow int) string {
	return Range{Sheet: sheet, StartCol: fromCol, StartRow: startRow, EndCol: toCol}.String()
}

// String renders r in A1 notation.
func (r Range) String() string {
	start := ColumnName(r.StartCol) + strconv.Itoa(r.StartRow)
	if r.EndRow == r.StartRow && r.EndCol == r.StartCol {
		return quoteSheet(r.Sheet) + "!" + start
	}
	end := ColumnName(r.EndCol)
	if r.EndRow > 0 {
		end += strconv.Itoa(r.EndRow)
	}
	return quoteSheet(r.Sheet) + "!" + start + ":" + end
}

// Contains reports whether the 0-based column and 1-based row fall inside r.
func (r Range) Contains(col, row int) bool {
	if col < r.StartCol || col > r.EndCol || row < r.StartRow {
		return false
	}
	return r.EndRow == 0 || row <= r.EndRow
}

// ParseRange parses a sheet-qualified A1 reference.
func ParseRange(s string) (Range, error) {
	sheet, ref, err := splitSheet(s)
	if err != nil {
		return Range{}, err
	}

	startRef, endRef, hasEnd := strings.Cut(ref, ":")
	startCol, startRow, err := parseCell(startRef)
	if err != nil {
		return Range{}, err
	}
	if startRow == 0 {
		return Range{}, fmt.Errorf("%w: %q has no start row", ErrInvalidRange, s)
	}

	r := Range{Sheet: sheet, StartCol: startCol, StartRow: startRow, EndCol: startCol, EndRow: startRow}
	if !hasEnd {
		return r, nil
	}

	endCol, endRow, err := parseCell(endRef)
	if err != nil {
		return Range{}, err
	}
	if endCol < startCol || (endRow != 0 && endRow < startRow) {
		return Range{}, fmt.Errorf("%w: %q ends before it starts", ErrInvalidRange, s)
	}
	r.EndCol = endCol
	r.EndRow = endRow
	return r, nil
}

func splitSheet(s string) (string, string, error) {
	i := strings.LastIndex(s, "!")
	if i <= 0 || i == len(s)-1 {
		return "", "", fmt.Errorf("%w: %q must name a sheet", ErrInvalidRange, s)
	}
	sheet, ref := s[:i], s[i+1:]
	if strings.HasPrefix(sheet, "'") && strings.HasSuffix(sheet, "'") && len(sheet) >= 2 {
		sheet = strings.ReplaceAll(sheet[1:len(sheet)-1], "''", "'")
	}
	return sheet, ref, nil
}

// parseCell splits "AB12" into column 27 and row 12. A missing row yields 0.
func parseCell(ref string) (int, int, error) {
	ref = strings.TrimSpace(ref)
	i := 0
	for i < len(ref) && (ref[i] >= 'A' && ref[i] <= 'Z' || ref[i] >= 'a' && ref[i] <= 'z') {
		i++
	}
	col, err := ColumnIndex(ref[:i])
	if err != nil {
		return 0, 0, err
	}
	if i == len(ref) {
		return col, 0, nil
	}
	row, err := strconv.Atoi(ref[i:])
	if err != nil || row < 1 {
		return 0, 0, fmt.Errorf("%w: row in %q", ErrInvalidRange, ref)
	}
	return col, row, nil
}

func quoteSheet(name string) string {
	for _, r := range name {
		if !(r == '_' || r >= '0' && r <= '9' || r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z') {
			return "'" + strings.ReplaceAll(name, "'", "''") + "'"
		}
	}
	return name
}
