package cursor

// FromBatchFunc wraps a caller-supplied batch-fetch function as a cursor. On top of the raw
// function the cursor guarantees the batch contract: non-positive size hints are rejected before
// the function is invoked, an over-long batch fails with [ErrBatchOverrun], and the cursor closes
// itself when the function reports exhaustion.
func FromBatchFunc(columns []ColumnDescription, fetch BatchFunc) *Cursor {
	return NewCursor(columns, fetch, nil)
}
