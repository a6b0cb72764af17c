package tstore

import (
	"reflect"
)

// List decorates a slice returned from a typed store with chainable mutators.
// It only changes the caller's copy, write it back with Set to persist it.
//
//	names, _ := tstore.GetAs[[]string](ts, "names")
//	ts.Set("names", tstore.AsList(names).Append("jack").Reverse().Items())
type List[T any] []T

// AsList wraps items without copying
func AsList[T any](items []T) *List[T] {
	l := List[T](items)
	return &l
}

// Append adds values to the end of the list
func (l *List[T]) Append(values ...T) *List[T] {
	*l = append(*l, values...)
	return l
}

// Insert places value before position i. Negative positions count from the end,
// positions outside the list are clamped.
func (l *List[T]) Insert(i int, value T) *List[T] {
	n := len(*l)
	if i < 0 {
		i += n
	}
	i = min(max(i, 0), n)

	var zero T
	*l = append(*l, zero)
	copy((*l)[i+1:], (*l)[i:n])
	(*l)[i] = value
	return l
}

// Remove deletes the first element deeply equal to value. The list is unchanged
// if no element matches.
func (l *List[T]) Remove(value T) *List[T] {
	for i, item := range *l {
		if reflect.DeepEqual(item, value) {
			*l = append((*l)[:i], (*l)[i+1:]...)
			break
		}
	}
	return l
}

// Reverse reverses the list in place
func (l *List[T]) Reverse() *List[T] {
	s := *l
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
	return l
}

// Len returns the number of elements
func (l *List[T]) Len() int {
	return len(*l)
}

// Items returns the underlying slice
func (l *List[T]) Items() []T {
	return *l
}
