package cursor

import "errors"

var (
	// ErrInvalidHint is returned when a batch read is requested with a non-positive size hint.
	ErrInvalidHint = errors.New("size hint must be a positive integer")
	// ErrUnknownColumn is returned when a value lookup references a column the cursor does not have.
	ErrUnknownColumn = errors.New("unknown column")
	// ErrNoCurrentRow is returned when row data is accessed before [Cursor.Next] has produced a row.
	ErrNoCurrentRow = errors.New("cursor has no current row")
	// ErrBatchOverrun indicates a broken producer: it returned more rows than the size hint allows.
	// The cursor closes itself when this happens, it is not safe to keep reading from it.
	ErrBatchOverrun = errors.New("producer returned more rows than requested")
)
