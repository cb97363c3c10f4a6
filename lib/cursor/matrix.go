package cursor

import (
	"context"
	"fmt"
)

// FromRows builds a cursor over a fixed in-memory row matrix. Every row must have exactly one
// value per column. The matrix reference is dropped once the cursor is drained so the rows can be
// reclaimed.
func FromRows(columns []ColumnDescription, rows []Row) (*Cursor, error) {
	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("row %d has %d values, expected %d", i, len(row), len(columns))
		}
	}

	matrix := &rowMatrix{rows: rows}
	return FromBatchFunc(columns, matrix.nextBatch), nil
}

type rowMatrix struct {
	rows  []Row
	index int
}

func (m *rowMatrix) nextBatch(_ context.Context, sizeHint *int) ([]Row, error) {
	if m.index >= len(m.rows) {
		m.rows = nil
		m.index = 0
		return nil, nil
	}

	end := len(m.rows)
	if sizeHint != nil {
		// A hint larger than the remainder just yields the remainder.
		end = min(m.index+*sizeHint, end)
	}

	batch := m.rows[m.index:end]
	m.index = end
	return batch, nil
}
