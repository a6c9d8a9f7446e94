package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Veraticus/feeledger/internal/ledger"
	"github.com/Veraticus/feeledger/internal/model"
)

// Number is a JSON value that may be sent as a number or a numeric string.
// Its text is kept as sent and checked by the integer validation tag.
type Number struct {
	raw string
	set bool
}

// UnmarshalJSON accepts 2000, "2000" and "2,000". null leaves the value unset.
func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*n = Number{}
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = Number{raw: strings.TrimSpace(s), set: true}
	default:
		var num json.Number
		if err := json.Unmarshal(data, &num); err != nil {
			return fmt.Errorf("expected a number, got %s", data)
		}
		*n = Number{raw: num.String(), set: true}
	}
	return nil
}

// Int returns the whole-number value, or zero if the value is unset or not
// a whole number.
func (n Number) Int() int {
	if !n.set {
		return 0
	}
	v, err := model.ParseWholeNumber(n.raw)
	if err != nil {
		return 0
	}
	return v
}

// NumberOf builds a set Number, for tests and callers constructing requests.
func NumberOf(v int) Number {
	return Number{raw: fmt.Sprint(v), set: true}
}

// Text is a JSON value sent as a string or a number; numbers are kept as
// their literal text (a phone number sent as 9847000000 stays "9847000000").
type Text struct {
	value string
}

// UnmarshalJSON accepts strings, numbers and null.
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*t = Text{}
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text{value: s}
	default:
		var num json.Number
		if err := json.Unmarshal(data, &num); err != nil {
			return fmt.Errorf("expected text, got %s", data)
		}
		*t = Text{value: num.String()}
	}
	return nil
}

// String returns the trimmed text.
func (t Text) String() string {
	return strings.TrimSpace(t.value)
}

// TextOf builds a Text value.
func TextOf(s string) Text {
	return Text{value: s}
}

type addStudentRequest struct {
	Name      Text   `json:"name" validate:"notblank"`
	Date      Text   `json:"date"`
	School    Text   `json:"school"`
	Address   Text   `json:"address"`
	Phone     Text   `json:"phone"`
	Class     Text   `json:"class"`
	Division  Text   `json:"division"`
	Medium    Text   `json:"medium"`
	NMMS      Text   `json:"nmms"`
	Total     Number `json:"total" validate:"required,integer,atleast=0,atmost=1000000000"`
	Reduction Number `json:"reduction" validate:"required,integer,atleast=0,atmost=1000000000"`
}

func (r addStudentRequest) toLedger() ledger.NewStudent {
	return ledger.NewStudent{
		Name:         r.Name.String(),
		Date:         r.Date.String(),
		School:       r.School.String(),
		Address:      r.Address.String(),
		Phone:        r.Phone.String(),
		Class:        r.Class.String(),
		Division:     r.Division.String(),
		Medium:       r.Medium.String(),
		NMMS:         r.NMMS.String(),
		TotalFee:     r.Total.Int(),
		FeeReduction: r.Reduction.Int(),
	}
}

type studentRef struct {
	Name         Text   `json:"std_name" validate:"notblank"`
	Class        Text   `json:"std_class"`
	Medium       Text   `json:"medium"`
	AdmNo        Number `json:"adm_no" validate:"required,integer,atleast=1"`
	TotalFee     Number `json:"total_fee" validate:"required,integer,atleast=0,atmost=1000000000"`
	FeeReduction Number `json:"fee_reduction" validate:"required,integer,atleast=0,atmost=1000000000"`
	PrevPaid     Number `json:"prev_paid" validate:"required,integer,atleast=0,atmost=1000000000"`
	RowIdx       Number `json:"row_idx" validate:"required,integer,atleast=3"`
}

type payFeeRequest struct {
	Student       *studentRef `json:"student" validate:"required"`
	PaymentMethod Text        `json:"payment_method" validate:"notblank"`
	NextDue       Text        `json:"next_due"`
	PayingAmount  Number      `json:"paying_amount" validate:"required,integer,atleast=1,atmost=1000000000"`
}

func (r payFeeRequest) toLedger() ledger.Payment {
	p := ledger.Payment{
		Method:  r.PaymentMethod.String(),
		NextDue: r.NextDue.String(),
		Amount:  r.PayingAmount.Int(),
	}
	if s := r.Student; s != nil {
		p.Student = model.Student{
			RowIdx:       s.RowIdx.Int(),
			AdmNo:        s.AdmNo.Int(),
			Name:         s.Name.String(),
			Class:        s.Class.String(),
			Medium:       s.Medium.String(),
			TotalFee:     s.TotalFee.Int(),
			FeeReduction: s.FeeReduction.Int(),
			TotalPaid:    s.PrevPaid.Int(),
		}
	}
	return p
}
