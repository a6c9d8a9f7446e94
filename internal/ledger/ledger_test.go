package ledger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/feeledger/internal/common"
	"github.com/Veraticus/feeledger/internal/model"
	"github.com/Veraticus/feeledger/internal/sheets"
)

// fixedNow is 19 Oct 2026 in India, still 18 Oct in UTC.
var fixedNow = time.Date(2026, 10, 18, 20, 0, 0, 0, time.UTC)

func newTestLedger(t *testing.T, store *sheets.MockStore) *Service {
	t.Helper()
	svc, err := New(store, DefaultConfig(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	svc.dates.now = func() time.Time { return fixedNow }
	return svc
}

func seededStore(t *testing.T, admNo, billNo, studentRow, feeRow int) *sheets.MockStore {
	t.Helper()
	store := sheets.NewMockStore(model.SheetNames...)
	require.NoError(t, store.Seed(model.CountersRange(), [][]any{{admNo}, {billNo}, {studentRow}, {feeRow}}))
	return store
}

func TestNew(t *testing.T) {
	_, err := New(nil, DefaultConfig(), nil)
	require.ErrorIs(t, err, common.ErrInvalidConfig)

	_, err = New(sheets.NewMockStore(), Config{Timezone: "Nowhere/Atlantis"}, nil)
	require.ErrorIs(t, err, common.ErrInvalidConfig)

	svc, err := New(sheets.NewMockStore(), Config{}, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultAcademicYear, svc.academicYear)
}

func TestService_CheckLayout(t *testing.T) {
	svc := newTestLedger(t, sheets.NewMockStore(model.SheetNames...))
	require.NoError(t, svc.CheckLayout(context.Background()))

	svc = newTestLedger(t, sheets.NewMockStore(model.StudentsSheet, model.CounterSheet, "Notes"))
	err := svc.CheckLayout(context.Background())
	require.ErrorIs(t, err, common.ErrMissingSheet)
	assert.Contains(t, err.Error(), model.FeeLogsSheet)
}

func TestService_AddStudent(t *testing.T) {
	store := seededStore(t, 100, 0, 2, 2)
	svc := newTestLedger(t, store)

	adm, err := svc.AddStudent(context.Background(), NewStudent{
		Name:         "Asha",
		School:       "GHS",
		Phone:        "9847000000",
		Class:        "8",
		Division:     "B",
		Medium:       "English",
		TotalFee:     2000,
		FeeReduction: 200,
	})
	require.NoError(t, err)
	assert.Equal(t, Admission{AdmNo: 101, RowIdx: 3}, adm)

	store.AssertBatchCalled(t, 1)
	batch := store.GetBatchCalls()[0]
	require.Len(t, batch, 3)
	assert.Equal(t, "Students!A3:M3", batch[0].Range)
	assert.Equal(t, "Counter!B1", batch[1].Range)
	assert.Equal(t, "Counter!B3", batch[2].Range)

	assert.Equal(t, "101", store.Value("Students!A3"))
	assert.Equal(t, "Asha", store.Value("Students!B3"))
	assert.Equal(t, "19 Oct 2026", store.Value("Students!C3"))
	assert.Equal(t, "0", store.Value("Students!M3"))
	assert.Empty(t, store.Value("Students!N3"))

	counters, err := svc.Counters(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 101, counters.LastAdmNo)
	assert.Equal(t, 3, counters.LastStudentRow)
	assert.Equal(t, 0, counters.LastBillNo)
}

func TestService_AddStudent_Date(t *testing.T) {
	store := seededStore(t, 5, 0, 7, 2)
	svc := newTestLedger(t, store)

	adm, err := svc.AddStudent(context.Background(), NewStudent{Name: "Ravi", Date: "2026-06-01"})
	require.NoError(t, err)
	assert.Equal(t, Admission{AdmNo: 6, RowIdx: 8}, adm)
	assert.Equal(t, "01 Jun 2026", store.Value("Students!C8"))
}

func TestService_AddStudent_RejectedBeforeStoreAccess(t *testing.T) {
	tests := []struct {
		wantErr error
		name    string
		input   NewStudent
	}{
		{name: "blank name", input: NewStudent{Name: "  "}, wantErr: ErrInvalidStudent},
		{name: "negative fee", input: NewStudent{Name: "A", TotalFee: -1}, wantErr: ErrInvalidStudent},
		{name: "fee above cap", input: NewStudent{Name: "A", TotalFee: model.MaxAmount + 1}, wantErr: ErrInvalidStudent},
		{name: "reduction above cap", input: NewStudent{Name: "A", FeeReduction: math.MaxInt}, wantErr: ErrInvalidStudent},
		{name: "slashed date", input: NewStudent{Name: "A", Date: "01/06/2026"}, wantErr: ErrInvalidDate},
		{name: "impossible date", input: NewStudent{Name: "A", Date: "2026-02-30"}, wantErr: ErrInvalidDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := seededStore(t, 100, 0, 2, 2)
			svc := newTestLedger(t, store)

			_, err := svc.AddStudent(context.Background(), tt.input)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, store.GetCalls)
			store.AssertBatchCalled(t, 0)
		})
	}
}

func TestService_AddStudent_WriteFailureLeavesCounters(t *testing.T) {
	store := seededStore(t, 100, 0, 2, 2)
	store.SetBatchError(fmt.Errorf("%w: quota", common.ErrStoreWrite))
	svc := newTestLedger(t, store)

	_, err := svc.AddStudent(context.Background(), NewStudent{Name: "Asha"})
	require.ErrorIs(t, err, common.ErrStoreWrite)
	assert.Equal(t, "100", store.Value("Counter!B1"))
	assert.Empty(t, store.Value("Students!A3"))
}

func TestService_AddStudent_InvalidCounter(t *testing.T) {
	store := sheets.NewMockStore(model.SheetNames...)
	require.NoError(t, store.Seed(model.CountersRange(), [][]any{{"abc"}, {0}, {2}, {2}}))
	svc := newTestLedger(t, store)

	_, err := svc.AddStudent(context.Background(), NewStudent{Name: "Asha"})
	require.ErrorIs(t, err, common.ErrCounterInvalid)
	store.AssertBatchCalled(t, 0)
}

func TestService_AddStudent_Concurrent(t *testing.T) {
	store := seededStore(t, 100, 0, 2, 2)
	svc := newTestLedger(t, store)

	const n = 20
	var wg sync.WaitGroup
	results := make(chan Admission, n)
	for i := 0; i < n; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			adm, err := svc.AddStudent(context.Background(), NewStudent{Name: fmt.Sprintf("Student %d", i)})
			assert.NoError(t, err)
			results <- adm
		}()
	}
	wg.Wait()
	close(results)

	seenAdm := make(map[int]bool)
	seenRow := make(map[int]bool)
	for adm := range results {
		assert.False(t, seenAdm[adm.AdmNo], "duplicate admission number %d", adm.AdmNo)
		assert.False(t, seenRow[adm.RowIdx], "duplicate row %d", adm.RowIdx)
		seenAdm[adm.AdmNo] = true
		seenRow[adm.RowIdx] = true
	}
	assert.Len(t, seenAdm, n)
	assert.Equal(t, "120", store.Value("Counter!B1"))
	assert.Equal(t, "22", store.Value("Counter!B3"))
}

func TestService_ListStudents(t *testing.T) {
	store := seededStore(t, 106, 0, 8, 2)
	require.NoError(t, store.Seed("Students!A3:N8", [][]any{
		{"101", "Asha", "19 Oct 2026", "GHS", "Main Rd", "98470", "8", "B", "English", "", "2000", "200", "500", "1300"},
		{},
		{"103", "Ravi", "20 Oct 2026", "", "", "", "9", "", "Malayalam", "", "1500", "0", "0"},
		{"104", "Broken", "", "", "", "", "", "", "", "", "lots", "100"},
		{"105", "Meera", "", "", "", "", "", "", "", "", "1500", "0", "200", "#REF!"},
		{"106", "Joseph", "", "", "", "", "", "", "", "", "1500", "0", "200", "₹1,300.00"},
	}))
	svc := newTestLedger(t, store)

	students, err := svc.ListStudents(context.Background())
	require.NoError(t, err)
	require.Len(t, students, 5)

	assert.Equal(t, 3, students[0].RowIdx)
	assert.Equal(t, 101, students[0].AdmNo)
	require.NotNil(t, students[0].Balance)
	assert.Equal(t, 1300, *students[0].Balance)

	assert.Equal(t, 5, students[1].RowIdx)
	assert.Equal(t, "Ravi", students[1].Name)
	assert.Nil(t, students[1].Balance)

	// Unreadable cells read as zero without hiding the student.
	assert.Equal(t, 6, students[2].RowIdx)
	assert.Equal(t, 104, students[2].AdmNo)
	assert.Zero(t, students[2].TotalFee)
	assert.Equal(t, 100, students[2].FeeReduction)

	assert.Equal(t, 105, students[3].AdmNo)
	assert.Equal(t, 200, students[3].TotalPaid)
	assert.Nil(t, students[3].Balance)

	assert.Equal(t, 106, students[4].AdmNo)
	require.NotNil(t, students[4].Balance)
	assert.Equal(t, 1300, *students[4].Balance)

	again, err := svc.ListStudents(context.Background())
	require.NoError(t, err)
	assert.Equal(t, students, again)
	store.AssertBatchCalled(t, 0)
}

func TestService_ListStudents_Empty(t *testing.T) {
	svc := newTestLedger(t, seededStore(t, 100, 0, 2, 2))

	students, err := svc.ListStudents(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, students)
	assert.Empty(t, students)
}

func TestService_ListStudents_ReadFailure(t *testing.T) {
	store := sheets.NewMockStore(model.SheetNames...)
	store.GetRangeFunc = func(_ context.Context, _ string) ([][]any, error) {
		return nil, fmt.Errorf("%w: timeout", common.ErrStoreRead)
	}
	svc := newTestLedger(t, store)

	_, err := svc.ListStudents(context.Background())
	assert.ErrorIs(t, err, common.ErrStoreRead)
}

func testPayment() Payment {
	return Payment{
		Student: model.Student{
			RowIdx:       3,
			AdmNo:        101,
			Name:         "Asha",
			Class:        "8",
			Medium:       "English",
			TotalFee:     2000,
			FeeReduction: 200,
			TotalPaid:    500,
		},
		Amount:  300,
		Method:  "UPI",
		NextDue: "2026-11-19",
	}
}

func TestService_PayFee(t *testing.T) {
	store := seededStore(t, 101, 0, 3, 2)
	svc := newTestLedger(t, store)

	receipt, err := svc.PayFee(context.Background(), testPayment())
	require.NoError(t, err)

	assert.Equal(t, model.Receipt{
		BillDate:      "19 Oct 2026",
		BillNo:        "BILL-2026-1",
		AcademicYear:  DefaultAcademicYear,
		AdmNo:         101,
		Name:          "Asha",
		Class:         "8",
		Medium:        "English",
		TotalFee:      2000,
		PrevPaid:      500,
		PaidNow:       300,
		PaymentMethod: "UPI",
		Balance:       1000,
		DueDate:       "19 Nov 2026",
	}, receipt)

	store.AssertBatchCalled(t, 1)
	batch := store.GetBatchCalls()[0]
	require.Len(t, batch, 4)
	assert.Equal(t, "FeeLogs!A3:M3", batch[0].Range)
	assert.Equal(t, "Students!M3", batch[1].Range)
	assert.Equal(t, "Counter!B2", batch[2].Range)
	assert.Equal(t, "Counter!B4", batch[3].Range)

	assert.Equal(t, "800", store.Value("Students!M3"))
	assert.Equal(t, "1", store.Value("Counter!B2"))
	assert.Equal(t, "3", store.Value("Counter!B4"))
	assert.Equal(t, "1000", store.Value("FeeLogs!L3"))
	assert.Equal(t, "19 Nov 2026", store.Value("FeeLogs!M3"))

	// A second payment moves on to the next bill and row.
	second := testPayment()
	second.Student.TotalPaid = 800
	second.Amount = 1000
	second.NextDue = ""
	receipt, err = svc.PayFee(context.Background(), second)
	require.NoError(t, err)
	assert.Equal(t, "BILL-2026-2", receipt.BillNo)
	assert.Equal(t, 0, receipt.Balance)
	assert.Empty(t, receipt.DueDate)
	assert.Equal(t, "1800", store.Value("Students!M3"))
	assert.Equal(t, "4", store.Value("Counter!B4"))
}

func TestService_PayFee_Invalid(t *testing.T) {
	tests := []struct {
		wantErr error
		mutate  func(*Payment)
		name    string
	}{
		{name: "zero amount", mutate: func(p *Payment) { p.Amount = 0 }, wantErr: ErrInvalidPayment},
		{name: "negative amount", mutate: func(p *Payment) { p.Amount = -5 }, wantErr: ErrInvalidPayment},
		{name: "blank method", mutate: func(p *Payment) { p.Method = " " }, wantErr: ErrInvalidPayment},
		{name: "header row", mutate: func(p *Payment) { p.Student.RowIdx = 2 }, wantErr: ErrInvalidPayment},
		{name: "missing student", mutate: func(p *Payment) { p.Student = model.Student{} }, wantErr: ErrInvalidPayment},
		{name: "bad due date", mutate: func(p *Payment) { p.NextDue = "next week" }, wantErr: ErrInvalidDate},
		{name: "amount above cap", mutate: func(p *Payment) { p.Amount = model.MaxAmount + 1 }, wantErr: ErrInvalidPayment},
		{name: "sum would overflow", mutate: func(p *Payment) {
			p.Amount = math.MaxInt
			p.Student.TotalPaid = 1
		}, wantErr: ErrInvalidPayment},
		{name: "huge prior payments", mutate: func(p *Payment) { p.Student.TotalPaid = math.MaxInt }, wantErr: ErrInvalidPayment},
		{name: "negative total fee", mutate: func(p *Payment) { p.Student.TotalFee = -1 }, wantErr: ErrInvalidPayment},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := seededStore(t, 101, 0, 3, 2)
			svc := newTestLedger(t, store)

			p := testPayment()
			tt.mutate(&p)
			_, err := svc.PayFee(context.Background(), p)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, store.GetCalls)
			store.AssertBatchCalled(t, 0)
		})
	}
}

func TestService_PayFee_WriteFailure(t *testing.T) {
	store := seededStore(t, 101, 7, 3, 9)
	store.SetBatchError(errors.New("boom"))
	svc := newTestLedger(t, store)

	_, err := svc.PayFee(context.Background(), testPayment())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BILL-2026-8")
	assert.Equal(t, "7", store.Value("Counter!B2"))
}

func TestService_PayFee_LargestAmounts(t *testing.T) {
	store := seededStore(t, 101, 0, 3, 2)
	svc := newTestLedger(t, store)

	p := testPayment()
	p.Student.TotalFee = model.MaxAmount
	p.Student.FeeReduction = 0
	p.Student.TotalPaid = model.MaxAmount
	p.Amount = model.MaxAmount

	receipt, err := svc.PayFee(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, -model.MaxAmount, receipt.Balance)
	assert.Equal(t, "2000000000", store.Value("Students!M3"))
}

func TestBillNumber(t *testing.T) {
	assert.Equal(t, "BILL-2026-42", BillNumber(2026, 42))
	assert.Regexp(t, `^BILL-\d{4}-\d+$`, BillNumber(2027, 1))
}

func TestService_ListFeeLogs(t *testing.T) {
	store := seededStore(t, 101, 3, 3, 6)
	require.NoError(t, store.Seed("FeeLogs!A3:M6", [][]any{
		{"19 Oct 2026", "BILL-2026-1", "2026-2027", "101", "Asha", "8", "English", "2000", "500", "300", "UPI", "1000", "19 Nov 2026"},
		{"", "orphan"},
		{"20 Oct 2026", "BILL-2026-2", "2026-2027", "101", "Asha", "8", "English", "2000", "800", "1000", "Cash", "0"},
		{"21 Oct 2026", "BILL-2026-3", "2026-2027", "102", "Ravi", "9", "English", "₹1,500.00", "0", "oops", "Cash", "1500"},
	}))
	svc := newTestLedger(t, store)

	logs, err := svc.ListFeeLogs(context.Background())
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.Equal(t, "BILL-2026-3", logs[2].BillNo)
	assert.Equal(t, 1500, logs[2].TotalFee)
	assert.Zero(t, logs[2].PaidAmount)
	assert.Equal(t, 1500, logs[2].Balance)
	assert.Equal(t, 3, logs[0].RowIdx)
	assert.Equal(t, "19 Nov 2026", logs[0].DueDate)
	assert.Equal(t, 5, logs[1].RowIdx)
	assert.Equal(t, "Cash", logs[1].PaymentMethod)
	assert.Empty(t, logs[1].DueDate)
}

func TestService_InitCounters(t *testing.T) {
	store := sheets.NewMockStore(model.SheetNames...)
	svc := newTestLedger(t, store)
	ctx := context.Background()

	counters, err := svc.InitCounters(ctx, CounterSeed{AdmissionStart: 1000, FirstRow: 3})
	require.NoError(t, err)
	assert.Equal(t, model.Counters{LastAdmNo: 1000, LastBillNo: 0, LastStudentRow: 2, LastFeeLogRow: 2}, counters)
	assert.Equal(t, "1000", store.Value("Counter!B1"))
	assert.Equal(t, "0", store.Value("Counter!B2"))
	assert.Equal(t, "2", store.Value("Counter!B4"))

	_, err = svc.InitCounters(ctx, CounterSeed{AdmissionStart: 1, FirstRow: 3})
	require.ErrorIs(t, err, ErrCountersSeeded)
	assert.Equal(t, "1000", store.Value("Counter!B1"))

	_, err = svc.InitCounters(ctx, CounterSeed{AdmissionStart: 1, FirstRow: 10, Force: true})
	require.NoError(t, err)
	assert.Equal(t, "1", store.Value("Counter!B1"))
	assert.Equal(t, "9", store.Value("Counter!B3"))

	_, err = svc.InitCounters(ctx, CounterSeed{AdmissionStart: 1, FirstRow: 2, Force: true})
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}
