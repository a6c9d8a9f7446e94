package sheets

import (
	"context"
	"fmt"
	"sync"

	"github.com/Veraticus/feeledger/internal/common"
	"github.com/Veraticus/feeledger/internal/service"
)

// MockStore is an in-memory service.ValueStore for testing.
type MockStore struct {
	GetRangeFunc    func(ctx context.Context, rng string) ([][]any, error)
	BatchUpdateFunc func(ctx context.Context, updates []service.ValueUpdate) error
	cells           map[string]map[[2]int]string
	GetCalls        []string
	BatchCalls      [][]service.ValueUpdate
	titles          []string
	mu              sync.Mutex
}

var _ service.ValueStore = (*MockStore)(nil)

// NewMockStore creates an empty store holding the given worksheets.
func NewMockStore(titles ...string) *MockStore {
	m := &MockStore{
		cells:  make(map[string]map[[2]int]string),
		titles: titles,
	}
	for _, title := range titles {
		m.cells[title] = make(map[[2]int]string)
	}
	return m
}

// GetRange implements service.ValueStore.
func (m *MockStore) GetRange(ctx context.Context, rng string) ([][]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.GetCalls = append(m.GetCalls, rng)
	if m.GetRangeFunc != nil {
		return m.GetRangeFunc(ctx, rng)
	}

	r, err := ParseRange(rng)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrStoreRead, err)
	}
	sheet, ok := m.cells[r.Sheet]
	if !ok {
		return nil, fmt.Errorf("%w: %w: %s", common.ErrStoreRead, common.ErrMissingSheet, r.Sheet)
	}

	cells := make([]Cell, 0, len(sheet))
	for key, value := range sheet {
		cells = append(cells, Cell{Row: key[0], Col: key[1], Value: value})
	}
	return AssembleRows(r, cells), nil
}

// BatchUpdate implements service.ValueStore. Either every update is applied
// or none is.
func (m *MockStore) BatchUpdate(ctx context.Context, updates []service.ValueUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	recorded := make([]service.ValueUpdate, len(updates))
	copy(recorded, updates)
	m.BatchCalls = append(m.BatchCalls, recorded)

	if m.BatchUpdateFunc != nil {
		if err := m.BatchUpdateFunc(ctx, updates); err != nil {
			return err
		}
	}

	return m.apply(updates)
}

// SheetTitles implements service.ValueStore.
func (m *MockStore) SheetTitles(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	titles := make([]string, len(m.titles))
	copy(titles, m.titles)
	return titles, nil
}

// Seed writes values without recording a call.
func (m *MockStore) Seed(rng string, values [][]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.apply([]service.ValueUpdate{{Range: rng, Values: values}})
}

// Value returns the text stored in a single cell such as "Counter!B1".
func (m *MockStore) Value(cell string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, err := ParseRange(cell)
	if err != nil {
		return ""
	}
	return m.cells[r.Sheet][[2]int{r.StartRow, r.StartCol}]
}

// SetBatchError configures the mock to fail every BatchUpdate with err.
func (m *MockStore) SetBatchError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.BatchUpdateFunc = func(_ context.Context, _ []service.ValueUpdate) error {
		return err
	}
}

// GetBatchCalls returns a copy of all BatchUpdate calls.
func (m *MockStore) GetBatchCalls() [][]service.ValueUpdate {
	m.mu.Lock()
	defer m.mu.Unlock()

	calls := make([][]service.ValueUpdate, len(m.BatchCalls))
	copy(calls, m.BatchCalls)
	return calls
}

// AssertBatchCalled verifies how many batched writes were issued.
func (m *MockStore) AssertBatchCalled(t interface{ Fatalf(string, ...any) }, expectedCalls int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.BatchCalls) != expectedCalls {
		t.Fatalf("expected BatchUpdate to be called %d times, but was called %d times", expectedCalls, len(m.BatchCalls))
	}
}

func (m *MockStore) apply(updates []service.ValueUpdate) error {
	type pending struct {
		sheet string
		cells []Cell
	}

	staged := make([]pending, 0, len(updates))
	for _, u := range updates {
		sheet, cells, err := ExpandUpdate(u)
		if err != nil {
			return fmt.Errorf("%w: %w", common.ErrStoreWrite, err)
		}
		if _, ok := m.cells[sheet]; !ok {
			return fmt.Errorf("%w: %w: %s", common.ErrStoreWrite, common.ErrMissingSheet, sheet)
		}
		staged = append(staged, pending{sheet: sheet, cells: cells})
	}

	for _, p := range staged {
		for _, c := range p.cells {
			m.cells[p.sheet][[2]int{c.Row, c.Col}] = c.Value
		}
	}
	return nil
}
