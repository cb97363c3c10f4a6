package iterator

// Iterator is a finite, forward-only pull sequence. [Iterator.HasNext] may perform work (for
// cursor-backed iterators it can fetch the next batch); once it returns false the sequence is
// permanently exhausted and [Iterator.Next] fails.
type Iterator[T any] interface {
	HasNext() bool
	Next() (T, error)
}

// Collect drains an [Iterator] into a slice. An already-exhausted iterator yields an empty slice.
func Collect[T any](iter Iterator[T]) ([]T, error) {
	result := make([]T, 0)
	for iter.HasNext() {
		value, err := iter.Next()
		if err != nil {
			return nil, err
		}
		result = append(result, value)
	}
	return result, nil
}
