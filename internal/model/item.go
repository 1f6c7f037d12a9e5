package model

// WorkItem is one unit of input to the parallel fetcher.
//
// Seq is the item's position in the input sequence and is the correlation
// key carried back in its FetchResult. Category and Parent identify where the
// item belongs (genre and artist path); Key is the item's own identity.
type WorkItem[T any] struct {
	Seq      int
	Category string
	Parent   string
	Key      string
	Value    T
}

// NewItems numbers values in input order.
func NewItems[T any](values []T, identify func(T) (category, parent, key string)) []WorkItem[T] {
	items := make([]WorkItem[T], len(values))
	for i, v := range values {
		category, parent, key := identify(v)
		items[i] = WorkItem[T]{Seq: i, Category: category, Parent: parent, Key: key, Value: v}
	}
	return items
}

// Batches splits items into consecutive groups of at most size elements.
// A non-positive size yields a single batch.
func Batches[T any](items []T, size int) [][]T {
	if len(items) == 0 {
		return nil
	}
	if size <= 0 || size >= len(items) {
		return [][]T{items}
	}

	batches := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		batches = append(batches, items[start:end:end])
	}
	return batches
}
