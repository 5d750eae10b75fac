package utils

// SliceWhere provides a way of filtering a slice to only elements matching a given predicate.
// Returns a new slice containing the matching elements, in their original order.
func SliceWhere[T any](x []T, predicate func(T) bool) []T {
	matched := make([]T, 0, len(x))
	for _, item := range x {
		if predicate(item) {
			matched = append(matched, item)
		}
	}
	return matched
}

// SliceSelect provides a way of mapping a slice of one type to another.
// Returns the mapped slice.
func SliceSelect[T any, K any](x []T, selector func(T) K) []K {
	mapped := make([]K, len(x))
	for i := 0; i < len(x); i++ {
		mapped[i] = selector(x[i])
	}
	return mapped
}
