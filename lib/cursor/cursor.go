package cursor

import (
	"context"
	"fmt"
	"slices"

	"github.com/artie-labs/cursor/lib/iterator"
)

// Row is one result row, positionally aligned with the cursor's column descriptions.
// Values are nullable, a nil entry means the column has no value for this row.
type Row []any

// BatchFunc fetches the next batch of rows from a backend. It is the single primitive every other
// read surface is derived from.
//
// Contract:
//   - sizeHint == nil means the producer may return any positive number of rows.
//   - A non-nil sizeHint is always positive, and the returned batch must not exceed it.
//   - A zero-length batch (with a nil error) signals exhaustion. Once exhausted, the function is
//     never called again.
type BatchFunc func(ctx context.Context, sizeHint *int) ([]Row, error)

// Cursor streams rows of a tabular result one batch at a time. It is pull-based and lazy, rows are
// fetched only when a read operation asks for them, and only the current row is retained.
//
// A cursor is not safe for concurrent use, callers must serialize access.
type Cursor struct {
	// immutable
	columns []ColumnDescription
	fetch   BatchFunc
	closer  func() error

	// mutable
	current Row
	closed  bool
}

// NewCursor builds a cursor over a batch producer. The optional closer releases backend resources
// and runs at most once, either on [Cursor.Close] or when the producer reports exhaustion.
func NewCursor(columns []ColumnDescription, fetch BatchFunc, closer func() error) *Cursor {
	return &Cursor{
		columns: slices.Clone(columns),
		fetch:   fetch,
		closer:  closer,
	}
}

// ColumnDescriptions returns the cursor's column descriptions. The sequence is fixed for the
// cursor's lifetime and every row has exactly one value per entry.
func (c *Cursor) ColumnDescriptions() []ColumnDescription {
	return slices.Clone(c.columns)
}

// ReadBatchOfRows pulls the next batch of rows. A nil sizeHint lets the producer choose the batch
// size, a non-nil hint must be positive and caps the batch. A zero-length result means the cursor
// is exhausted, which is not an error; the cursor closes itself before reporting it.
func (c *Cursor) ReadBatchOfRows(ctx context.Context, sizeHint *int) ([]Row, error) {
	if sizeHint != nil && *sizeHint <= 0 {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidHint, *sizeHint)
	}

	if c.closed {
		return nil, nil
	}

	rows, err := c.fetch(ctx, sizeHint)
	if err != nil {
		return nil, err
	}

	if sizeHint != nil && len(rows) > *sizeHint {
		// The producer is broken, stop pulling from it.
		_ = c.Close()
		return nil, fmt.Errorf("%w: got %d rows for a batch of at most %d", ErrBatchOverrun, len(rows), *sizeHint)
	}

	if len(rows) == 0 {
		if err := c.Close(); err != nil {
			return nil, fmt.Errorf("failed to close an exhausted cursor: %w", err)
		}
		return nil, nil
	}

	return rows, nil
}

// ReadBatchOfMaps is [Cursor.ReadBatchOfRows] with each row converted to a column-name-keyed map.
func (c *Cursor) ReadBatchOfMaps(ctx context.Context, sizeHint *int) ([]map[string]any, error) {
	rows, err := c.ReadBatchOfRows(ctx, sizeHint)
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, nil
	}

	maps := make([]map[string]any, len(rows))
	for i, row := range rows {
		maps[i] = c.rowToMap(row)
	}
	return maps, nil
}

// Next advances the cursor by exactly one row and reports whether a row is now current. The
// previous current row is dropped before fetching, so a failed or empty pull never leaves a stale
// row behind.
func (c *Cursor) Next(ctx context.Context) (bool, error) {
	c.current = nil

	one := 1
	rows, err := c.ReadBatchOfRows(ctx, &one)
	if err != nil {
		return false, err
	}

	if len(rows) == 0 {
		return false, nil
	}
	c.current = rows[0]
	return true, nil
}

// CurrentRow returns the row produced by the last [Cursor.Next] call, or nil when the cursor has
// not been advanced yet or is exhausted.
func (c *Cursor) CurrentRow() Row {
	return c.current
}

// ColumnValue returns the current row's value at the given column index.
func (c *Cursor) ColumnValue(index int) (any, error) {
	if index < 0 || index >= len(c.columns) {
		return nil, fmt.Errorf("%w: index %d is out of range [0, %d)", ErrUnknownColumn, index, len(c.columns))
	}

	if c.current == nil {
		return nil, ErrNoCurrentRow
	}
	return c.current[index], nil
}

// ColumnValueByName returns the current row's value for the first column matching (name, table) in
// column order. An empty table, on either the lookup or the column description, matches any table.
func (c *Cursor) ColumnValueByName(name string, table string) (any, error) {
	index := slices.IndexFunc(c.columns, func(col ColumnDescription) bool { return col.matches(name, table) })
	if index < 0 {
		return nil, fmt.Errorf("%w: %s, known columns: %v", ErrUnknownColumn, ColumnDescription{Table: table, Name: name}, c.columns)
	}

	if c.current == nil {
		return nil, ErrNoCurrentRow
	}
	return c.current[index], nil
}

// CurrentRowAsMap converts the current row to a column-name-keyed map, empty when there is no
// current row.
func (c *Cursor) CurrentRowAsMap() map[string]any {
	if c.current == nil {
		return map[string]any{}
	}
	return c.rowToMap(c.current)
}

// ToRows drains the remaining rows into one slice. Rows already consumed via [Cursor.Next] are not
// re-read. An exhausted cursor yields an empty slice, not an error.
func (c *Cursor) ToRows(ctx context.Context) ([]Row, error) {
	return iterator.Collect(c.RowStream(ctx))
}

// ToMaps drains the remaining rows into one slice of column-name-keyed maps.
func (c *Cursor) ToMaps(ctx context.Context) ([]map[string]any, error) {
	return iterator.Collect(c.MapStream(ctx))
}

// RowStream returns a lazy, forward-only view over the remaining rows. The stream pulls unbounded
// batches from the cursor as it is consumed, so it cannot be restarted and must not be interleaved
// with other reads on the same cursor.
func (c *Cursor) RowStream(ctx context.Context) iterator.Iterator[Row] {
	return newStream(ctx, c, func(row Row) Row { return row })
}

// MapStream is [Cursor.RowStream] with each row converted to a column-name-keyed map.
func (c *Cursor) MapStream(ctx context.Context) iterator.Iterator[map[string]any] {
	return newStream(ctx, c, c.rowToMap)
}

// Close marks the cursor closed and releases backend resources, if any. It is idempotent, calling
// it again after the first call is a no-op. Reads on a closed cursor report exhaustion, the
// current row is kept until the next advance.
func (c *Cursor) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true

	if c.closer != nil {
		if err := c.closer(); err != nil {
			return fmt.Errorf("failed to release cursor resources: %w", err)
		}
	}
	return nil
}

// rowToMap projects a row onto a map keyed by bare column name. When two columns share a name the
// first one in column order wins, mirroring the lookup semantics of [Cursor.ColumnValueByName].
func (c *Cursor) rowToMap(row Row) map[string]any {
	result := make(map[string]any, len(c.columns))
	for i, col := range c.columns {
		if _, found := result[col.Name]; !found {
			result[col.Name] = row[i]
		}
	}
	return result
}
