package ledger

import (
	"context"
	"fmt"

	"github.com/Veraticus/feeledger/internal/common"
	"github.com/Veraticus/feeledger/internal/model"
	"github.com/Veraticus/feeledger/internal/service"
)

// CounterSeed describes a fresh Counter sheet. AdmissionStart is stored as
// the last admission number, so the first student gets AdmissionStart+1.
type CounterSeed struct {
	AdmissionStart int
	FirstRow       int
	Force          bool
}

// InitCounters writes the initial counter values. Counters that already hold
// values are only overwritten with Force.
func (s *Service) InitCounters(ctx context.Context, seed CounterSeed) (model.Counters, error) {
	if seed.AdmissionStart < 0 {
		return model.Counters{}, fmt.Errorf("%w: admission start cannot be negative", common.ErrInvalidInput)
	}
	if seed.FirstRow < model.FirstDataRow {
		return model.Counters{}, fmt.Errorf("%w: first data row must be at least %d", common.ErrInvalidInput, model.FirstDataRow)
	}

	s.admissions.Lock()
	defer s.admissions.Unlock()
	s.billing.Lock()
	defer s.billing.Unlock()

	if !seed.Force {
		rows, err := s.store.GetRange(ctx, model.CountersRange())
		if err != nil {
			return model.Counters{}, fmt.Errorf("failed to read counters: %w", err)
		}
		if !model.CountersBlank(rows) {
			return model.Counters{}, ErrCountersSeeded
		}
	}

	counters := model.Counters{
		LastAdmNo:      seed.AdmissionStart,
		LastBillNo:     0,
		LastStudentRow: seed.FirstRow - 1,
		LastFeeLogRow:  seed.FirstRow - 1,
	}
	updates := []service.ValueUpdate{
		model.CounterAdmNo.Update(counters.LastAdmNo),
		model.CounterBillNo.Update(counters.LastBillNo),
		model.CounterStudentRow.Update(counters.LastStudentRow),
		model.CounterFeeLogRow.Update(counters.LastFeeLogRow),
	}
	if err := s.store.BatchUpdate(ctx, updates); err != nil {
		return model.Counters{}, fmt.Errorf("failed to write counters: %w", err)
	}

	s.logger.Info("Counters initialized",
		"last_adm_no", counters.LastAdmNo,
		"first_row", seed.FirstRow)
	return counters, nil
}
