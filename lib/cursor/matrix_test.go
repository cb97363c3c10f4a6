package cursor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artie-labs/cursor/lib/ptr"
)

func TestFromRows(t *testing.T) {
	ctx := context.Background()
	// Row arity must match the column count.
	{
		_, err := FromRows(testColumns, []Row{{1, "dusty"}, {2}})
		assert.ErrorContains(t, err, "row 1 has 1 values, expected 2")
	}
	// Draining via Next yields the matrix in original order.
	{
		matrix := []Row{{1, "dusty"}, {2, "snowflake"}, {3, "bella"}}
		cursor, err := FromRows(testColumns, matrix)
		require.NoError(t, err)

		var drained []Row
		for {
			ok, err := cursor.Next(ctx)
			require.NoError(t, err)
			if !ok {
				break
			}
			drained = append(drained, cursor.CurrentRow())
		}
		assert.Equal(t, matrix, drained)

		// Subsequent advances keep reporting exhaustion, with no current row to read from.
		for range 2 {
			ok, err := cursor.Next(ctx)
			assert.NoError(t, err)
			assert.False(t, ok)
		}
		assert.Nil(t, cursor.CurrentRow())
		_, err = cursor.ColumnValue(0)
		assert.ErrorIs(t, err, ErrNoCurrentRow)
		_, err = cursor.ColumnValueByName("id", "")
		assert.ErrorIs(t, err, ErrNoCurrentRow)
	}
	// A hint larger than the remainder returns only the remainder.
	{
		cursor, err := FromRows(testColumns, []Row{{1, "dusty"}, {2, "snowflake"}, {3, "bella"}})
		require.NoError(t, err)

		batch, err := cursor.ReadBatchOfRows(ctx, ptr.ToPtr(2))
		assert.NoError(t, err)
		assert.Len(t, batch, 2)

		batch, err = cursor.ReadBatchOfRows(ctx, ptr.ToPtr(10))
		assert.NoError(t, err)
		assert.Equal(t, []Row{{3, "bella"}}, batch)

		batch, err = cursor.ReadBatchOfRows(ctx, ptr.ToPtr(10))
		assert.NoError(t, err)
		assert.Empty(t, batch)
	}
	// An unbounded pull returns everything at once.
	{
		matrix := []Row{{1, "dusty"}, {2, "snowflake"}}
		cursor, err := FromRows(testColumns, matrix)
		require.NoError(t, err)

		batch, err := cursor.ReadBatchOfRows(ctx, nil)
		assert.NoError(t, err)
		assert.Equal(t, matrix, batch)
	}
	// An empty matrix is exhausted from the start.
	{
		cursor, err := FromRows(testColumns, nil)
		require.NoError(t, err)

		ok, err := cursor.Next(ctx)
		assert.NoError(t, err)
		assert.False(t, ok)

		rows, err := cursor.ToRows(ctx)
		assert.NoError(t, err)
		assert.Empty(t, rows)
	}
	// The backing matrix is released once drained.
	{
		matrix := &rowMatrix{rows: []Row{{1, "dusty"}}}
		batch, err := matrix.nextBatch(ctx, nil)
		assert.NoError(t, err)
		assert.Len(t, batch, 1)

		batch, err = matrix.nextBatch(ctx, nil)
		assert.NoError(t, err)
		assert.Empty(t, batch)
		assert.Nil(t, matrix.rows)
	}
}
