package sheets

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/feeledger/internal/common"
	"github.com/Veraticus/feeledger/internal/service"
)

func TestCellText(t *testing.T) {
	assert.Equal(t, "", CellText(nil))
	assert.Equal(t, "abc", CellText("abc"))
	assert.Equal(t, "101", CellText(101))
	assert.Equal(t, "101", CellText(int64(101)))
	assert.Equal(t, "2.5", CellText(2.5))
	assert.Equal(t, "1000", CellText(float64(1000)))
	assert.Equal(t, "TRUE", CellText(true))
}

func TestExpandUpdate(t *testing.T) {
	sheet, cells, err := ExpandUpdate(service.ValueUpdate{
		Range:  "Students!A3:C3",
		Values: [][]any{{101, "Asha", nil}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Students", sheet)
	assert.Equal(t, []Cell{
		{Row: 3, Col: 0, Value: "101"},
		{Row: 3, Col: 1, Value: "Asha"},
		{Row: 3, Col: 2, Value: ""},
	}, cells)

	_, _, err = ExpandUpdate(service.ValueUpdate{
		Range:  "Counter!B1",
		Values: [][]any{{1, 2}},
	})
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestAssembleRows(t *testing.T) {
	rng, err := ParseRange("Students!A3:C")
	require.NoError(t, err)

	cells := []Cell{
		{Row: 1, Col: 0, Value: "header"},
		{Row: 3, Col: 0, Value: "101"},
		{Row: 3, Col: 2, Value: "x"},
		{Row: 4, Col: 1, Value: ""},
		{Row: 5, Col: 0, Value: "103"},
		{Row: 5, Col: 5, Value: "outside"},
	}

	assert.Equal(t, [][]any{
		{"101", "", "x"},
		{},
		{"103"},
	}, AssembleRows(rng, cells))

	assert.Nil(t, AssembleRows(rng, nil))
}

func TestMockStore_BatchIsAllOrNothing(t *testing.T) {
	store := NewMockStore("Students", "Counter")
	ctx := context.Background()

	err := store.BatchUpdate(ctx, []service.ValueUpdate{
		{Range: "Counter!B1", Values: [][]any{{5}}},
		{Range: "Missing!A1", Values: [][]any{{1}}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrMissingSheet)
	assert.Empty(t, store.Value("Counter!B1"))

	require.NoError(t, store.BatchUpdate(ctx, []service.ValueUpdate{
		{Range: "Counter!B1", Values: [][]any{{5}}},
	}))
	assert.Equal(t, "5", store.Value("Counter!B1"))
	store.AssertBatchCalled(t, 2)
}

func TestMockStore_SetBatchError(t *testing.T) {
	store := NewMockStore("Counter")
	boom := errors.New("boom")
	store.SetBatchError(boom)

	err := store.BatchUpdate(context.Background(), []service.ValueUpdate{
		{Range: "Counter!B1", Values: [][]any{{5}}},
	})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, store.Value("Counter!B1"))
	assert.Len(t, store.GetBatchCalls(), 1)
}

func TestMockStore_GetRange(t *testing.T) {
	store := NewMockStore("Counter")
	require.NoError(t, store.Seed("Counter!B1:B4", [][]any{{100}, {0}, {2}, {2}}))

	values, err := store.GetRange(context.Background(), "Counter!B1:B4")
	require.NoError(t, err)
	assert.Equal(t, [][]any{{"100"}, {"0"}, {"2"}, {"2"}}, values)

	_, err = store.GetRange(context.Background(), "Nope!A1")
	assert.ErrorIs(t, err, common.ErrMissingSheet)

	titles, err := store.SheetTitles(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Counter"}, titles)
}
