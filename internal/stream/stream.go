// Package stream implements the Stream Orchestrator (spec.md §4.6): a lazy
// pull-based Stream[T] abstraction, a chunked adapter over the codec
// layers, backpressure, memory management, a throughput optimizer, batch
// verification, a websocket wire transport, an A/B strategy comparator, and
// lifecycle alerting. Grounded component-by-component on the teacher's
// ticker-driven poller, websocket Hub, shadow runner, and alert manager —
// see DESIGN.md.
package stream

// Stream is a lazy, pull-based sequence of values of type T. Nothing runs
// until a terminal operation (ForEach, ToArray, Reduce) drains it.
type Stream[T any] struct {
	next func() (T, bool)
}

// FromSlice returns a Stream over a fixed slice's elements, in order.
func FromSlice[T any](items []T) Stream[T] {
	i := 0
	return Stream[T]{next: func() (T, bool) {
		if i >= len(items) {
			var zero T
			return zero, false
		}
		v := items[i]
		i++
		return v, true
	}}
}

// Map lazily transforms each element of s with f.
func Map[T, U any](s Stream[T], f func(T) U) Stream[U] {
	return Stream[U]{next: func() (U, bool) {
		v, ok := s.next()
		if !ok {
			var zero U
			return zero, false
		}
		return f(v), true
	}}
}

// Filter lazily keeps only elements for which pred returns true.
func (s Stream[T]) Filter(pred func(T) bool) Stream[T] {
	return Stream[T]{next: func() (T, bool) {
		for {
			v, ok := s.next()
			if !ok {
				var zero T
				return zero, false
			}
			if pred(v) {
				return v, true
			}
		}
	}}
}

// Take limits the stream to at most n elements.
func (s Stream[T]) Take(n int) Stream[T] {
	taken := 0
	return Stream[T]{next: func() (T, bool) {
		if taken >= n {
			var zero T
			return zero, false
		}
		v, ok := s.next()
		if !ok {
			var zero T
			return zero, false
		}
		taken++
		return v, true
	}}
}

// Skip discards the first n elements, then yields the rest.
func (s Stream[T]) Skip(n int) Stream[T] {
	skipped := 0
	return Stream[T]{next: func() (T, bool) {
		for skipped < n {
			if _, ok := s.next(); !ok {
				var zero T
				return zero, false
			}
			skipped++
		}
		return s.next()
	}}
}

// Concat appends other after s exhausts.
func (s Stream[T]) Concat(other Stream[T]) Stream[T] {
	onFirst := true
	return Stream[T]{next: func() (T, bool) {
		if onFirst {
			if v, ok := s.next(); ok {
				return v, true
			}
			onFirst = false
		}
		return other.next()
	}}
}

// Branch drains s once, returning two independent Streams over the same
// materialized elements. Draining a stream twice otherwise is not safe
// since a Stream's closures carry their own cursor state.
func (s Stream[T]) Branch() (Stream[T], Stream[T]) {
	items := s.ToArray()
	return FromSlice(items), FromSlice(items)
}

// ForEach drains s, invoking f on every element in order.
func (s Stream[T]) ForEach(f func(T)) {
	for {
		v, ok := s.next()
		if !ok {
			return
		}
		f(v)
	}
}

// ToArray drains s into a slice.
func (s Stream[T]) ToArray() []T {
	var out []T
	s.ForEach(func(v T) { out = append(out, v) })
	return out
}

// Reduce drains s, folding elements into an accumulator starting from init.
func Reduce[T, A any](s Stream[T], init A, f func(A, T) A) A {
	acc := init
	s.ForEach(func(v T) { acc = f(acc, v) })
	return acc
}
