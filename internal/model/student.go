package model

import (
	"fmt"

	"github.com/Veraticus/feeledger/internal/sheets"
)

// Students sheet columns.
const (
	StudentColAdmNo = iota
	StudentColName
	StudentColAdmDate
	StudentColSchool
	StudentColAddress
	StudentColPhone
	StudentColClass
	StudentColDivision
	StudentColMedium
	StudentColNMMS
	StudentColTotalFee
	StudentColReduction
	StudentColTotalPaid
	// StudentColBalance is maintained by a sheet formula and never written.
	StudentColBalance
)

// Student is one admission, stored as a row of the Students sheet.
type Student struct {
	Balance      *int   `json:"balance"`
	Name         string `json:"std_name"`
	AdmDate      string `json:"adm_date"`
	School       string `json:"school"`
	Address      string `json:"address"`
	Phone        string `json:"mobile"`
	Class        string `json:"std_class"`
	Division     string `json:"division"`
	Medium       string `json:"medium"`
	NMMS         string `json:"nmms"`
	RowIdx       int    `json:"row_idx"`
	AdmNo        int    `json:"adm_no"`
	TotalFee     int    `json:"total_fee"`
	FeeReduction int    `json:"fee_reduction"`
	TotalPaid    int    `json:"prev_paid"`
}

// Outstanding is what the student still owes.
func (s Student) Outstanding() int {
	return s.TotalFee - s.FeeReduction - s.TotalPaid
}

// Row renders the written columns A through M.
func (s Student) Row() []any {
	return []any{
		s.AdmNo,
		s.Name,
		s.AdmDate,
		s.School,
		s.Address,
		s.Phone,
		s.Class,
		s.Division,
		s.Medium,
		s.NMMS,
		s.TotalFee,
		s.FeeReduction,
		s.TotalPaid,
	}
}

// StudentRowRange is the A1 range a student's written columns occupy.
func StudentRowRange(row int) string {
	return sheets.RowRef(StudentsSheet, StudentColAdmNo, StudentColTotalPaid, row)
}

// StudentTotalPaidCell is the cumulative-paid cell of a student's row.
func StudentTotalPaidCell(row int) string {
	return sheets.CellRef(StudentsSheet, StudentColTotalPaid, row)
}

// StudentsListRange covers every data row, including the balance column.
func StudentsListRange() string {
	return sheets.OpenRef(StudentsSheet, StudentColAdmNo, StudentColBalance, FirstDataRow)
}

// StudentFromRow decodes a Students row found at sheet row rowIdx.
//
// A row whose numeric cells do not parse is still decoded: those fields are
// zero and the error wraps ErrMalformedRow. An unreadable balance is nil and
// is not reported. Only a blank admission number yields an empty Student.
func StudentFromRow(rowIdx int, row []any) (Student, error) {
	r := &rowReader{row: row}
	if !r.has(StudentColAdmNo) {
		return Student{}, fmt.Errorf("%w: row %d has no admission number", ErrMalformedRow, rowIdx)
	}

	s := Student{
		RowIdx:       rowIdx,
		AdmNo:        r.int(StudentColAdmNo),
		Name:         r.text(StudentColName),
		AdmDate:      r.text(StudentColAdmDate),
		School:       r.text(StudentColSchool),
		Address:      r.text(StudentColAddress),
		Phone:        r.text(StudentColPhone),
		Class:        r.text(StudentColClass),
		Division:     r.text(StudentColDivision),
		Medium:       r.text(StudentColMedium),
		NMMS:         r.text(StudentColNMMS),
		TotalFee:     r.int(StudentColTotalFee),
		FeeReduction: r.int(StudentColReduction),
		TotalPaid:    r.int(StudentColTotalPaid),
		Balance:      r.optInt(StudentColBalance),
	}
	if r.err != nil {
		return s, fmt.Errorf("row %d: %w", rowIdx, r.err)
	}
	return s, nil
}
