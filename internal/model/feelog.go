package model

import (
	"fmt"

	"github.com/Veraticus/feeledger/internal/sheets"
)

// FeeLogs sheet columns.
const (
	FeeColBillDate = iota
	FeeColBillNo
	FeeColAcademicYear
	FeeColAdmNo
	FeeColName
	FeeColClass
	FeeColMedium
	FeeColTotalFee
	FeeColPrevPaid
	FeeColPaidNow
	FeeColPaymentMethod
	FeeColBalance
	FeeColDueDate
)

// FeeLog is one payment. Rows are append-only.
type FeeLog struct {
	BillDate      string `json:"bill_date"`
	BillNo        string `json:"bill_no"`
	AcademicYear  string `json:"academic_year"`
	Name          string `json:"std_name"`
	Class         string `json:"std_class"`
	Medium        string `json:"medium"`
	PaymentMethod string `json:"payment_method"`
	DueDate       string `json:"due_date"`
	RowIdx        int    `json:"row_idx"`
	AdmNo         int    `json:"adm_no"`
	TotalFee      int    `json:"total_fee"`
	PrevPaid      int    `json:"prev_paid"`
	PaidAmount    int    `json:"paid_amt"`
	Balance       int    `json:"balance"`
}

// Row renders columns A through M.
func (f FeeLog) Row() []any {
	return []any{
		f.BillDate,
		f.BillNo,
		f.AcademicYear,
		f.AdmNo,
		f.Name,
		f.Class,
		f.Medium,
		f.TotalFee,
		f.PrevPaid,
		f.PaidAmount,
		f.PaymentMethod,
		f.Balance,
		f.DueDate,
	}
}

// FeeLogRowRange is the A1 range of one fee-log row.
func FeeLogRowRange(row int) string {
	return sheets.RowRef(FeeLogsSheet, FeeColBillDate, FeeColDueDate, row)
}

// FeeLogsListRange covers every fee-log data row.
func FeeLogsListRange() string {
	return sheets.OpenRef(FeeLogsSheet, FeeColBillDate, FeeColDueDate, FirstDataRow)
}

// FeeLogFromRow decodes a FeeLogs row found at sheet row rowIdx. A missing
// due-date cell decodes as "". Like StudentFromRow, numeric cells that do not
// parse decode as zero and are reported through a non-nil error alongside the
// decoded log.
func FeeLogFromRow(rowIdx int, row []any) (FeeLog, error) {
	r := &rowReader{row: row}
	if !r.has(FeeColBillDate) {
		return FeeLog{}, fmt.Errorf("%w: row %d has no bill date", ErrMalformedRow, rowIdx)
	}

	f := FeeLog{
		RowIdx:        rowIdx,
		BillDate:      r.text(FeeColBillDate),
		BillNo:        r.text(FeeColBillNo),
		AcademicYear:  r.text(FeeColAcademicYear),
		AdmNo:         r.int(FeeColAdmNo),
		Name:          r.text(FeeColName),
		Class:         r.text(FeeColClass),
		Medium:        r.text(FeeColMedium),
		TotalFee:      r.int(FeeColTotalFee),
		PrevPaid:      r.int(FeeColPrevPaid),
		PaidAmount:    r.int(FeeColPaidNow),
		PaymentMethod: r.text(FeeColPaymentMethod),
		Balance:       r.int(FeeColBalance),
		DueDate:       r.text(FeeColDueDate),
	}
	if r.err != nil {
		return f, fmt.Errorf("row %d: %w", rowIdx, r.err)
	}
	return f, nil
}
