package cursor

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artie-labs/cursor/lib/ptr"
)

// fakeProducer records every fetch and replays a scripted list of batches.
type fakeProducer struct {
	batches [][]Row
	calls   int
	err     error
}

func (f *fakeProducer) fetch(_ context.Context, sizeHint *int) ([]Row, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if len(f.batches) == 0 {
		return nil, nil
	}
	batch := f.batches[0]
	f.batches = f.batches[1:]
	return batch, nil
}

var testColumns = []ColumnDescription{
	{Table: "pets", Name: "id"},
	{Table: "pets", Name: "name"},
}

func TestCursor_ReadBatchOfRows(t *testing.T) {
	ctx := context.Background()
	// Invalid size hints fail without touching the producer.
	{
		producer := &fakeProducer{batches: [][]Row{{{1, "dusty"}}}}
		cursor := FromBatchFunc(testColumns, producer.fetch)

		_, err := cursor.ReadBatchOfRows(ctx, ptr.ToPtr(0))
		assert.ErrorIs(t, err, ErrInvalidHint)
		_, err = cursor.ReadBatchOfRows(ctx, ptr.ToPtr(-5))
		assert.ErrorIs(t, err, ErrInvalidHint)
		assert.Equal(t, 0, producer.calls)

		// The cursor survives a bad hint.
		rows, err := cursor.ReadBatchOfRows(ctx, ptr.ToPtr(1))
		assert.NoError(t, err)
		assert.Equal(t, []Row{{1, "dusty"}}, rows)
	}
	// A producer returning more rows than the hint is a contract violation.
	{
		producer := &fakeProducer{batches: [][]Row{{{1, "dusty"}, {2, "snowflake"}}}}
		cursor := FromBatchFunc(testColumns, producer.fetch)

		_, err := cursor.ReadBatchOfRows(ctx, ptr.ToPtr(1))
		assert.ErrorIs(t, err, ErrBatchOverrun)

		// The cursor shut itself down, further reads report exhaustion without new fetches.
		rows, err := cursor.ReadBatchOfRows(ctx, nil)
		assert.NoError(t, err)
		assert.Empty(t, rows)
		assert.Equal(t, 1, producer.calls)
	}
	// Exhaustion auto-closes the cursor before reporting no more rows.
	{
		producer := &fakeProducer{batches: [][]Row{{{1, "dusty"}}}}
		cursor := FromBatchFunc(testColumns, producer.fetch)

		rows, err := cursor.ReadBatchOfRows(ctx, nil)
		assert.NoError(t, err)
		assert.Len(t, rows, 1)

		rows, err = cursor.ReadBatchOfRows(ctx, nil)
		assert.NoError(t, err)
		assert.Empty(t, rows)
		assert.True(t, cursor.closed)

		// No further fetches once closed.
		_, err = cursor.ReadBatchOfRows(ctx, nil)
		assert.NoError(t, err)
		assert.Equal(t, 2, producer.calls)
	}
	// Producer errors surface to the caller.
	{
		producer := &fakeProducer{err: fmt.Errorf("connection reset")}
		cursor := FromBatchFunc(testColumns, producer.fetch)

		_, err := cursor.ReadBatchOfRows(ctx, nil)
		assert.ErrorContains(t, err, "connection reset")
	}
}

func TestCursor_Next(t *testing.T) {
	ctx := context.Background()
	producer := &fakeProducer{batches: [][]Row{{{1, "dusty"}}, {{2, "snowflake"}}}}
	cursor := FromBatchFunc(testColumns, producer.fetch)

	assert.Nil(t, cursor.CurrentRow())

	ok, err := cursor.Next(ctx)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, Row{1, "dusty"}, cursor.CurrentRow())

	ok, err = cursor.Next(ctx)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, Row{2, "snowflake"}, cursor.CurrentRow())

	// Exhausted: repeated calls keep returning false and the stale row is gone.
	for range 3 {
		ok, err = cursor.Next(ctx)
		assert.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, cursor.CurrentRow())
	}
}

func TestCursor_ColumnValue(t *testing.T) {
	ctx := context.Background()
	producer := &fakeProducer{batches: [][]Row{{{1, "dusty"}}}}
	cursor := FromBatchFunc(testColumns, producer.fetch)

	// No current row yet.
	_, err := cursor.ColumnValue(0)
	assert.ErrorIs(t, err, ErrNoCurrentRow)

	ok, err := cursor.Next(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	value, err := cursor.ColumnValue(1)
	assert.NoError(t, err)
	assert.Equal(t, "dusty", value)

	_, err = cursor.ColumnValue(-1)
	assert.ErrorIs(t, err, ErrUnknownColumn)
	_, err = cursor.ColumnValue(2)
	assert.ErrorIs(t, err, ErrUnknownColumn)
}

func TestCursor_ColumnValueByName(t *testing.T) {
	ctx := context.Background()
	columns := []ColumnDescription{
		{Table: "owners", Name: "id"},
		{Table: "pets", Name: "id"},
		{Name: "name"},
	}
	producer := &fakeProducer{batches: [][]Row{{{10, 1, "dusty"}}}}
	cursor := FromBatchFunc(columns, producer.fetch)

	ok, err := cursor.Next(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	// Bare name: first match in column order wins.
	{
		value, err := cursor.ColumnValueByName("id", "")
		assert.NoError(t, err)
		assert.Equal(t, 10, value)
	}
	// Qualified lookup.
	{
		value, err := cursor.ColumnValueByName("id", "pets")
		assert.NoError(t, err)
		assert.Equal(t, 1, value)
	}
	// An unqualified column matches any table.
	{
		value, err := cursor.ColumnValueByName("name", "pets")
		assert.NoError(t, err)
		assert.Equal(t, "dusty", value)
	}
	// Unknown columns enumerate the valid set.
	{
		_, err := cursor.ColumnValueByName("age", "")
		assert.ErrorIs(t, err, ErrUnknownColumn)
		assert.ErrorContains(t, err, "owners.id")
		assert.ErrorContains(t, err, "pets.id")
		assert.ErrorContains(t, err, "name")
	}
	// Known column, wrong table.
	{
		_, err := cursor.ColumnValueByName("id", "toys")
		assert.ErrorIs(t, err, ErrUnknownColumn)
	}
}

func TestCursor_Maps(t *testing.T) {
	ctx := context.Background()
	// Current row as a map.
	{
		producer := &fakeProducer{batches: [][]Row{{{1, "dusty"}}}}
		cursor := FromBatchFunc(testColumns, producer.fetch)

		assert.Empty(t, cursor.CurrentRowAsMap())

		ok, err := cursor.Next(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, map[string]any{"id": 1, "name": "dusty"}, cursor.CurrentRowAsMap())
	}
	// Batch of maps, with the same hint validation as the row variant.
	{
		producer := &fakeProducer{batches: [][]Row{{{1, "dusty"}, {2, "snowflake"}}}}
		cursor := FromBatchFunc(testColumns, producer.fetch)

		_, err := cursor.ReadBatchOfMaps(ctx, ptr.ToPtr(0))
		assert.ErrorIs(t, err, ErrInvalidHint)
		assert.Equal(t, 0, producer.calls)

		maps, err := cursor.ReadBatchOfMaps(ctx, ptr.ToPtr(5))
		assert.NoError(t, err)
		assert.Equal(t, []map[string]any{
			{"id": 1, "name": "dusty"},
			{"id": 2, "name": "snowflake"},
		}, maps)
	}
	// Duplicate bare names: the first column in order wins.
	{
		columns := []ColumnDescription{{Table: "owners", Name: "id"}, {Table: "pets", Name: "id"}}
		producer := &fakeProducer{batches: [][]Row{{{10, 1}}}}
		cursor := FromBatchFunc(columns, producer.fetch)

		ok, err := cursor.Next(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, map[string]any{"id": 10}, cursor.CurrentRowAsMap())
	}
}

func TestCursor_Close(t *testing.T) {
	ctx := context.Background()
	// Close is idempotent and stops fetching.
	{
		producer := &fakeProducer{batches: [][]Row{{{1, "dusty"}}}}
		cursor := FromBatchFunc(testColumns, producer.fetch)

		assert.NoError(t, cursor.Close())
		assert.NoError(t, cursor.Close())

		ok, err := cursor.Next(ctx)
		assert.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, 0, producer.calls)
	}
	// Close does not clear the current row.
	{
		producer := &fakeProducer{batches: [][]Row{{{1, "dusty"}}}}
		cursor := FromBatchFunc(testColumns, producer.fetch)

		ok, err := cursor.Next(ctx)
		require.NoError(t, err)
		require.True(t, ok)

		assert.NoError(t, cursor.Close())
		assert.Equal(t, Row{1, "dusty"}, cursor.CurrentRow())
	}
	// The closer runs exactly once, even when exhaustion already closed the cursor.
	{
		var closes int
		producer := &fakeProducer{}
		cursor := NewCursor(testColumns, producer.fetch, func() error {
			closes++
			return nil
		})

		ok, err := cursor.Next(ctx)
		assert.NoError(t, err)
		assert.False(t, ok)
		assert.NoError(t, cursor.Close())
		assert.Equal(t, 1, closes)
	}
}

func TestCursor_ColumnDescriptions(t *testing.T) {
	producer := &fakeProducer{}
	cursor := FromBatchFunc(testColumns, producer.fetch)

	columns := cursor.ColumnDescriptions()
	assert.Equal(t, testColumns, columns)

	// Mutating the returned slice must not affect the cursor.
	columns[0] = ColumnDescription{Name: "mutated"}
	assert.Equal(t, testColumns, cursor.ColumnDescriptions())
}
