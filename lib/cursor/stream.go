package cursor

import (
	"context"
	"fmt"
)

// stream adapts a cursor into an element-wise [iterator.Iterator], buffering one pulled batch at a
// time and applying a per-row transform. Forward-only and single-pass: once it reports no more
// elements it stays exhausted.
type stream[T any] struct {
	ctx       context.Context
	cursor    *Cursor
	transform func(Row) T

	buffer []Row
	err    error
	done   bool
}

func newStream[T any](ctx context.Context, cursor *Cursor, transform func(Row) T) *stream[T] {
	return &stream[T]{
		ctx:       ctx,
		cursor:    cursor,
		transform: transform,
	}
}

func (s *stream[T]) HasNext() bool {
	if s.err != nil || len(s.buffer) > 0 {
		return true
	}
	if s.done {
		return false
	}

	rows, err := s.cursor.ReadBatchOfRows(s.ctx, nil)
	if err != nil {
		// Surfaced on the next [stream.Next] call.
		s.err = err
		return true
	}

	if len(rows) == 0 {
		s.done = true
		return false
	}
	s.buffer = rows
	return true
}

func (s *stream[T]) Next() (T, error) {
	var unused T
	if !s.HasNext() {
		return unused, fmt.Errorf("stream has finished")
	}

	if s.err != nil {
		err := s.err
		s.err = nil
		s.done = true
		return unused, err
	}

	row := s.buffer[0]
	s.buffer = s.buffer[1:]
	return s.transform(row), nil
}
