package repeat

// Loop-local binding names.
const (
	BindingIndex = "index"
	BindingFirst = "first"
	BindingLast  = "last"
)

// Frame is one layer of name bindings.
type Frame map[string]interface{}

// Clone returns a shallow copy of f. Cloning a nil frame yields an empty one.
func (f Frame) Clone() Frame {
	c := make(Frame, len(f)+3)
	for k, v := range f {
		c[k] = v
	}
	return c
}

// Scope is the stack of frames owned by the render context.
type Scope interface {
	// Current returns the live frame, or nil when none is pushed.
	Current() Frame
	Push(Frame)
	Pop()
}

// Stack is a LIFO Scope. The zero value is an empty stack.
type Stack struct {
	frames []Frame
}

// NewStack creates a stack, optionally seeded with a base frame.
func NewStack(base ...Frame) *Stack {
	s := &Stack{}
	for _, f := range base {
		s.Push(f)
	}
	return s
}

// Current returns the top frame.
func (s *Stack) Current() Frame {
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[len(s.frames)-1]
}

// Push adds f on top of the stack.
func (s *Stack) Push(f Frame) {
	s.frames = append(s.frames, f)
}

// Pop discards the top frame. Popping an empty stack is a no-op.
func (s *Stack) Pop() {
	if len(s.frames) == 0 {
		return
	}
	s.frames[len(s.frames)-1] = nil
	s.frames = s.frames[:len(s.frames)-1]
}

// Depth returns the number of pushed frames.
func (s *Stack) Depth() int {
	return len(s.frames)
}

// Lookup resolves name against the frames, deepest first.
func (s *Stack) Lookup(name string) (interface{}, bool) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if v, ok := s.frames[i][name]; ok {
			return v, true
		}
	}
	return nil, false
}
