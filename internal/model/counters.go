package model

import (
	"fmt"

	"github.com/Veraticus/feeledger/internal/common"
	"github.com/Veraticus/feeledger/internal/service"
	"github.com/Veraticus/feeledger/internal/sheets"
)

// Counter identifies one cell in column B of the Counter sheet.
type Counter int

// Counter cells, B1 through B4.
const (
	CounterAdmNo Counter = iota
	CounterBillNo
	CounterStudentRow
	CounterFeeLogRow
)

const counterCol = 1 // column B

var counterNames = [...]string{"last admission number", "last bill number", "last student row", "last fee-log row"}

func (c Counter) String() string {
	if c < 0 || int(c) >= len(counterNames) {
		return fmt.Sprintf("counter(%d)", int(c))
	}
	return counterNames[c]
}

// Cell is the A1 reference of the counter.
func (c Counter) Cell() string {
	return sheets.CellRef(CounterSheet, counterCol, int(c)+1)
}

// CountersRange reads all four counters at once.
func CountersRange() string {
	return sheets.Range{
		Sheet:    CounterSheet,
		StartCol: counterCol,
		StartRow: 1,
		EndCol:   counterCol,
		EndRow:   len(counterNames),
	}.String()
}

// Counters is the last value handed out for each sequence.
type Counters struct {
	LastAdmNo      int `json:"last_adm_no"`
	LastBillNo     int `json:"last_bill_no"`
	LastStudentRow int `json:"last_student_row"`
	LastFeeLogRow  int `json:"last_fee_log_row"`
}

// Update is the single-cell write that stores value in counter c.
func (c Counter) Update(value int) service.ValueUpdate {
	return service.ValueUpdate{Range: c.Cell(), Values: [][]any{{value}}}
}

// CountersFromRows decodes the result of reading CountersRange. Every counter
// must hold a whole number.
func CountersFromRows(rows [][]any) (Counters, error) {
	values := make([]int, len(counterNames))
	for i := range values {
		r := &rowReader{}
		if i < len(rows) {
			r.row = rows[i]
		}
		counter := Counter(i)
		if !r.has(0) {
			return Counters{}, fmt.Errorf("%w: %s (%s) is blank", common.ErrCounterInvalid, counter, counter.Cell())
		}
		n, err := ParseWholeNumber(r.text(0))
		if err != nil {
			return Counters{}, fmt.Errorf("%w: %s (%s): %w", common.ErrCounterInvalid, counter, counter.Cell(), err)
		}
		values[i] = n
	}

	return Counters{
		LastAdmNo:      values[CounterAdmNo],
		LastBillNo:     values[CounterBillNo],
		LastStudentRow: values[CounterStudentRow],
		LastFeeLogRow:  values[CounterFeeLogRow],
	}, nil
}

// CountersBlank reports whether no counter cell holds a value yet.
func CountersBlank(rows [][]any) bool {
	for _, row := range rows {
		r := &rowReader{row: row}
		if r.has(0) {
			return false
		}
	}
	return true
}
