package sheets

import (
	"fmt"
	"strconv"

	"github.com/Veraticus/feeledger/internal/service"
)

// Cell is a single stored value. Col is 0-based, Row is 1-based.
type Cell struct {
	Value string
	Col   int
	Row   int
}

// CellText renders a value the way it would read back from a sheet.
func CellText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		if t {
			return "TRUE"
		}
		return "FALSE"
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

// ExpandUpdate flattens one batched-write range into cells, checking that the
// values fit inside the declared range.
func ExpandUpdate(u service.ValueUpdate) (string, []Cell, error) {
	rng, err := ParseRange(u.Range)
	if err != nil {
		return "", nil, err
	}

	cells := make([]Cell, 0, len(u.Values)*(rng.EndCol-rng.StartCol+1))
	for i, row := range u.Values {
		for j, v := range row {
			col, r := rng.StartCol+j, rng.StartRow+i
			if !rng.Contains(col, r) {
				return "", nil, fmt.Errorf("%w: value at %s%d is outside %s", ErrInvalidRange, ColumnName(col), r, u.Range)
			}
			cells = append(cells, Cell{Row: r, Col: col, Value: CellText(v)})
		}
	}
	return rng.Sheet, cells, nil
}

// AssembleRows shapes the cells of rng into the form the Sheets API returns:
// rows from rng.StartRow to the last row holding a value, each row trimmed of
// trailing blanks, blank rows in between kept as empty slices.
func AssembleRows(rng Range, cells []Cell) [][]any {
	byRow := make(map[int]map[int]string)
	lastRow := 0
	for _, c := range cells {
		if c.Value == "" || !rng.Contains(c.Col, c.Row) {
			continue
		}
		if byRow[c.Row] == nil {
			byRow[c.Row] = make(map[int]string)
		}
		byRow[c.Row][c.Col] = c.Value
		if c.Row > lastRow {
			lastRow = c.Row
		}
	}
	if lastRow == 0 {
		return nil
	}

	rows := make([][]any, 0, lastRow-rng.StartRow+1)
	for r := rng.StartRow; r <= lastRow; r++ {
		values := byRow[r]
		lastCol := -1
		for col := range values {
			if col > lastCol {
				lastCol = col
			}
		}
		row := []any{}
		for col := rng.StartCol; col <= lastCol; col++ {
			row = append(row, values[col])
		}
		rows = append(rows, row)
	}
	return rows
}
