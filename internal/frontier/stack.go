// Package frontier holds the pending-work stack shared by search workers.
package frontier

// Stack is a LIFO stack backed by an index-addressed array that only grows.
//
// Popping never releases backing storage: after a burst of pushes the array
// stays at its high-water mark until Reset is called. This keeps Push and Pop
// free of reallocation in the steady state at the cost of retaining memory.
//
// Stack is not safe for concurrent use. Callers sharing one instance must
// guard every call with their own lock.
type Stack[T any] struct {
	items []T
	n     int
}

// New creates a stack with the given initial capacity
func New[T any](capacity int) *Stack[T] {
	s := &Stack[T]{}
	s.Reset(capacity)
	return s
}

// Push adds an item to the top of the stack, doubling the backing array when full
func (s *Stack[T]) Push(item T) {
	if s.n >= len(s.items) {
		grown := make([]T, (s.n+1)*2)
		copy(grown, s.items[:s.n])
		s.items = grown
	}
	s.items[s.n] = item
	s.n++
}

// Pop removes and returns the top item. It panics on an empty stack;
// use TryPop when emptiness has not been checked.
func (s *Stack[T]) Pop() T {
	item, ok := s.TryPop()
	if !ok {
		panic("frontier: Pop on empty stack")
	}
	return item
}

// TryPop removes and returns the top item, reporting false when the stack is empty
func (s *Stack[T]) TryPop() (T, bool) {
	var zero T
	if s.n == 0 {
		return zero, false
	}
	s.n--
	item := s.items[s.n]
	s.items[s.n] = zero // drop the reference, keep the slot
	return item, true
}

// Count returns the number of items on the stack
func (s *Stack[T]) Count() int { return s.n }

// Capacity returns the size of the backing array
func (s *Stack[T]) Capacity() int { return len(s.items) }

// Clear empties the stack without releasing the backing array
func (s *Stack[T]) Clear() {
	clear(s.items[:s.n])
	s.n = 0
}

// Reset empties the stack and replaces the backing array with one of the given capacity
func (s *Stack[T]) Reset(capacity int) {
	if capacity < 0 {
		capacity = 0
	}
	s.items = make([]T, capacity)
	s.n = 0
}
