package main

// Stack is an ordered container of Values whose removal end may be toggled at
// runtime between the head (FIFO, the zero value) and the tail (LIFO). Items
// are always inserted at the tail, so toggling never reorders stored values.
//
// Popping or peeking an empty Stack never faults: it sets a sticky underflow
// flag and returns the last value that was returned, which stays set until
// cleared by ClearUnderflow or Clear.
type Stack struct {
	vals      []Value
	last      Value
	lifo      bool
	underflow bool
}

// Push appends items in order.
func (s *Stack) Push(vals ...Value) {
	s.vals = append(s.vals, vals...)
}

// Pop removes and returns the Value at the active end.
func (s *Stack) Pop() Value {
	if len(s.vals) == 0 {
		s.underflow = true
		return s.last
	}
	if s.lifo {
		i := len(s.vals) - 1
		s.last, s.vals = s.vals[i], s.vals[:i]
	} else {
		s.last, s.vals = s.vals[0], s.vals[1:]
	}
	return s.last
}

// Peek is like Pop, but leaves the value in place.
func (s *Stack) Peek() Value {
	if len(s.vals) == 0 {
		s.underflow = true
		return s.last
	}
	if s.lifo {
		s.last = s.vals[len(s.vals)-1]
	} else {
		s.last = s.vals[0]
	}
	return s.last
}

// Clear empties the stack and clears any underflow.
func (s *Stack) Clear() {
	s.vals = s.vals[:0]
	s.underflow = false
}

// Flip toggles between FIFO and LIFO removal.
func (s *Stack) Flip() { s.lifo = !s.lifo }

func (s *Stack) LIFO() bool      { return s.lifo }
func (s *Stack) Underflow() bool { return s.underflow }
func (s *Stack) ClearUnderflow() { s.underflow = false }
func (s *Stack) Len() int        { return len(s.vals) }

// Values returns a copy of the stack contents in storage order, oldest first.
func (s *Stack) Values() []Value {
	return append([]Value(nil), s.vals...)
}

func (s *Stack) mode() string {
	if s.lifo {
		return "LIFO"
	}
	return "FIFO"
}
