package model

// Receipt is returned to the caller after a successful payment.
type Receipt struct {
	BillDate      string `json:"bill_date"`
	BillNo        string `json:"bill_no"`
	AcademicYear  string `json:"academic_year"`
	Name          string `json:"name"`
	Class         string `json:"std_class"`
	Medium        string `json:"medium"`
	PaymentMethod string `json:"payment_method"`
	DueDate       string `json:"due_date"`
	AdmNo         int    `json:"admno"`
	TotalFee      int    `json:"total_fee"`
	PrevPaid      int    `json:"prev_paid"`
	PaidNow       int    `json:"paid_now"`
	Balance       int    `json:"balance"`
}

// NewReceipt builds the receipt for a written fee log.
func NewReceipt(f FeeLog) Receipt {
	return Receipt{
		BillDate:      f.BillDate,
		BillNo:        f.BillNo,
		AcademicYear:  f.AcademicYear,
		AdmNo:         f.AdmNo,
		Name:          f.Name,
		Class:         f.Class,
		Medium:        f.Medium,
		TotalFee:      f.TotalFee,
		PrevPaid:      f.PrevPaid,
		PaidNow:       f.PaidAmount,
		PaymentMethod: f.PaymentMethod,
		Balance:       f.Balance,
		DueDate:       f.DueDate,
	}
}
