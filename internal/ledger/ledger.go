// Package ledger implements admissions and fee collection on top of a
// service.ValueStore laid out as the school spreadsheet.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/Veraticus/feeledger/internal/common"
	"github.com/Veraticus/feeledger/internal/model"
	"github.com/Veraticus/feeledger/internal/service"
)

// DefaultAcademicYear is the label written on fee logs when none is configured.
const DefaultAcademicYear = "2026-2027"

// Ledger errors.
var (
	ErrInvalidPayment = errors.New("invalid payment")
	ErrInvalidStudent = errors.New("invalid student")
	ErrCountersSeeded = errors.New("counters already hold values")
)

// Config holds the ledger settings.
type Config struct {
	Timezone     string
	AcademicYear string
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Timezone:     DefaultTimezone,
		AcademicYear: DefaultAcademicYear,
	}
}

// Service reads and writes students, fee logs and counters.
//
// Counters are read, incremented and written back in separate store calls.
// Each counter group has its own mutex held across that sequence, so
// concurrent requests in one process never hand out the same number. Two
// processes writing the same spreadsheet can still collide.
type Service struct {
	store        service.ValueStore
	dates        *DateFormatter
	logger       *slog.Logger
	academicYear string

	// admissions guards Counter!B1, Counter!B3 and new Students rows.
	admissions sync.Mutex
	// billing guards Counter!B2, Counter!B4, FeeLogs rows and Students!M.
	billing sync.Mutex
}

// New creates a ledger over store.
func New(store service.ValueStore, config Config, logger *slog.Logger) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store is required", common.ErrInvalidConfig)
	}
	if logger == nil {
		logger = slog.Default()
	}

	loc, err := LoadLocation(config.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}

	year := strings.TrimSpace(config.AcademicYear)
	if year == "" {
		year = DefaultAcademicYear
	}

	return &Service{
		store:        store,
		dates:        NewDateFormatter(loc),
		logger:       logger,
		academicYear: year,
	}, nil
}

// Dates exposes the formatter the ledger stamps records with.
func (s *Service) Dates() *DateFormatter {
	return s.dates
}

// CheckLayout verifies that every worksheet the ledger uses exists.
func (s *Service) CheckLayout(ctx context.Context) error {
	titles, err := s.store.SheetTitles(ctx)
	if err != nil {
		return fmt.Errorf("failed to list worksheets: %w", err)
	}

	present := make(map[string]bool, len(titles))
	for _, title := range titles {
		present[title] = true
	}

	var missing []string
	for _, name := range model.SheetNames {
		if !present[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", common.ErrMissingSheet, strings.Join(missing, ", "))
	}
	return nil
}

// Counters reads the four counter cells.
func (s *Service) Counters(ctx context.Context) (model.Counters, error) {
	rows, err := s.store.GetRange(ctx, model.CountersRange())
	if err != nil {
		return model.Counters{}, fmt.Errorf("failed to read counters: %w", err)
	}
	return model.CountersFromRows(rows)
}
