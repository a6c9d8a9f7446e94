package ledger

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Veraticus/feeledger/internal/model"
	"github.com/Veraticus/feeledger/internal/service"
)

// Payment is a fee payment against a student as the caller last saw them.
// NextDue is YYYY-MM-DD or blank.
type Payment struct {
	Method  string
	NextDue string
	Student model.Student
	Amount  int
}

func (p Payment) validate() error {
	switch {
	case p.Student.AdmNo <= 0:
		return fmt.Errorf("%w: admission number is required", ErrInvalidPayment)
	case strings.TrimSpace(p.Student.Name) == "":
		return fmt.Errorf("%w: student name is required", ErrInvalidPayment)
	case p.Student.RowIdx < model.FirstDataRow:
		return fmt.Errorf("%w: row index %d is above the data rows", ErrInvalidPayment, p.Student.RowIdx)
	case p.Amount <= 0:
		return fmt.Errorf("%w: amount must be positive", ErrInvalidPayment)
	case p.Amount > model.MaxAmount:
		return fmt.Errorf("%w: amount exceeds %d", ErrInvalidPayment, model.MaxAmount)
	case !amountInRange(p.Student.TotalFee), !amountInRange(p.Student.FeeReduction), !amountInRange(p.Student.TotalPaid):
		return fmt.Errorf("%w: student fee amounts must be between 0 and %d", ErrInvalidPayment, model.MaxAmount)
	case strings.TrimSpace(p.Method) == "":
		return fmt.Errorf("%w: payment method is required", ErrInvalidPayment)
	}
	return nil
}

func amountInRange(n int) bool {
	return n >= 0 && n <= model.MaxAmount
}

// BillNumber formats a bill number such as "BILL-2026-42".
func BillNumber(year, seq int) string {
	return "BILL-" + strconv.Itoa(year) + "-" + strconv.Itoa(seq)
}

// PayFee records a payment: it appends a fee log, updates the student's
// cumulative paid cell and advances the bill and fee-log counters, all in one
// batch.
func (s *Service) PayFee(ctx context.Context, p Payment) (model.Receipt, error) {
	if err := p.validate(); err != nil {
		return model.Receipt{}, err
	}

	var dueDate string
	if strings.TrimSpace(p.NextDue) != "" {
		formatted, err := s.dates.FormatISO(p.NextDue)
		if err != nil {
			return model.Receipt{}, err
		}
		dueDate = formatted
	}

	s.billing.Lock()
	defer s.billing.Unlock()

	counters, err := s.Counters(ctx)
	if err != nil {
		return model.Receipt{}, err
	}

	now := s.dates.Now()
	billSeq := counters.LastBillNo + 1
	totalPaid := p.Student.TotalPaid + p.Amount

	log := model.FeeLog{
		RowIdx:        max(counters.LastFeeLogRow+1, model.FirstDataRow),
		BillDate:      s.dates.Format(now),
		BillNo:        BillNumber(now.Year(), billSeq),
		AcademicYear:  s.academicYear,
		AdmNo:         p.Student.AdmNo,
		Name:          p.Student.Name,
		Class:         p.Student.Class,
		Medium:        p.Student.Medium,
		TotalFee:      p.Student.TotalFee,
		PrevPaid:      p.Student.TotalPaid,
		PaidAmount:    p.Amount,
		PaymentMethod: strings.TrimSpace(p.Method),
		Balance:       p.Student.TotalFee - p.Student.FeeReduction - totalPaid,
		DueDate:       dueDate,
	}

	updates := []service.ValueUpdate{
		{Range: model.FeeLogRowRange(log.RowIdx), Values: [][]any{log.Row()}},
		{Range: model.StudentTotalPaidCell(p.Student.RowIdx), Values: [][]any{{totalPaid}}},
		model.CounterBillNo.Update(billSeq),
		model.CounterFeeLogRow.Update(log.RowIdx),
	}
	if err := s.store.BatchUpdate(ctx, updates); err != nil {
		return model.Receipt{}, fmt.Errorf("failed to write %s: %w", log.BillNo, err)
	}

	s.logger.Info("Fee recorded",
		"bill_no", log.BillNo,
		"adm_no", log.AdmNo,
		"paid", log.PaidAmount,
		"balance", log.Balance)

	return model.NewReceipt(log), nil
}

// ListFeeLogs returns every fee log row, skipping rows with a blank first
// cell. Unreadable cells are logged and read as zero.
func (s *Service) ListFeeLogs(ctx context.Context) ([]model.FeeLog, error) {
	rows, err := s.store.GetRange(ctx, model.FeeLogsListRange())
	if err != nil {
		return nil, fmt.Errorf("failed to read fee logs: %w", err)
	}

	logs := make([]model.FeeLog, 0, len(rows))
	for i, row := range rows {
		if blankFirstCell(row) {
			continue
		}
		rowIdx := i + model.FirstDataRow
		log, err := model.FeeLogFromRow(rowIdx, row)
		if err != nil {
			s.logger.Warn("Fee log row has unreadable cells", "row_idx", rowIdx, "error", err)
		}
		logs = append(logs, log)
	}
	return logs, nil
}
