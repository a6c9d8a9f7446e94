package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/Veraticus/feeledger/internal/model"
	"github.com/Veraticus/feeledger/internal/service"
	"github.com/Veraticus/feeledger/internal/sheets"
)

// NewStudent is an admission request. Date is YYYY-MM-DD or blank for today.
type NewStudent struct {
	Name         string
	Date         string
	School       string
	Address      string
	Phone        string
	Class        string
	Division     string
	Medium       string
	NMMS         string
	TotalFee     int
	FeeReduction int
}

// Admission identifies a newly written student.
type Admission struct {
	AdmNo  int `json:"adm_no"`
	RowIdx int `json:"row_idx"`
}

// AddStudent allocates the next admission number and row and writes the
// student together with both counters in one batch.
func (s *Service) AddStudent(ctx context.Context, in NewStudent) (Admission, error) {
	if strings.TrimSpace(in.Name) == "" {
		return Admission{}, fmt.Errorf("%w: name is required", ErrInvalidStudent)
	}
	if !amountInRange(in.TotalFee) || !amountInRange(in.FeeReduction) {
		return Admission{}, fmt.Errorf("%w: fees must be between 0 and %d", ErrInvalidStudent, model.MaxAmount)
	}
	admDate, err := s.dates.FormatOrToday(in.Date)
	if err != nil {
		return Admission{}, err
	}

	s.admissions.Lock()
	defer s.admissions.Unlock()

	counters, err := s.Counters(ctx)
	if err != nil {
		return Admission{}, err
	}

	student := model.Student{
		AdmNo:        counters.LastAdmNo + 1,
		RowIdx:       max(counters.LastStudentRow+1, model.FirstDataRow),
		Name:         strings.TrimSpace(in.Name),
		AdmDate:      admDate,
		School:       in.School,
		Address:      in.Address,
		Phone:        in.Phone,
		Class:        in.Class,
		Division:     in.Division,
		Medium:       in.Medium,
		NMMS:         in.NMMS,
		TotalFee:     in.TotalFee,
		FeeReduction: in.FeeReduction,
	}

	updates := []service.ValueUpdate{
		{Range: model.StudentRowRange(student.RowIdx), Values: [][]any{student.Row()}},
		model.CounterAdmNo.Update(student.AdmNo),
		model.CounterStudentRow.Update(student.RowIdx),
	}
	if err := s.store.BatchUpdate(ctx, updates); err != nil {
		return Admission{}, fmt.Errorf("failed to write student %d: %w", student.AdmNo, err)
	}

	s.logger.Info("Student admitted",
		"adm_no", student.AdmNo,
		"row_idx", student.RowIdx)

	return Admission{AdmNo: student.AdmNo, RowIdx: student.RowIdx}, nil
}

// ListStudents returns every student row. Rows with a blank first cell are
// skipped. Cells that cannot be decoded are logged and read as zero, and the
// row is still returned.
func (s *Service) ListStudents(ctx context.Context) ([]model.Student, error) {
	rows, err := s.store.GetRange(ctx, model.StudentsListRange())
	if err != nil {
		return nil, fmt.Errorf("failed to read students: %w", err)
	}

	students := make([]model.Student, 0, len(rows))
	for i, row := range rows {
		if blankFirstCell(row) {
			continue
		}
		rowIdx := i + model.FirstDataRow
		student, err := model.StudentFromRow(rowIdx, row)
		if err != nil {
			s.logger.Warn("Student row has unreadable cells", "row_idx", rowIdx, "error", err)
		}
		students = append(students, student)
	}
	return students, nil
}

func blankFirstCell(row []any) bool {
	return len(row) == 0 || strings.TrimSpace(sheets.CellText(row[0])) == ""
}
