package zmachine

import "fmt"

// ZStack is the evaluation stack. Values below localFrame belong to calling
// routines and cannot be popped by the running one.
type ZStack struct {
	stack      []uint16
	max        int
	localFrame int
}

func NewStack(max int) *ZStack {
	if max <= 0 {
		max = MAX_STACK
	}
	return &ZStack{
		stack: make([]uint16, 0, 64),
		max:   max,
	}
}

func (s *ZStack) Push(value uint16) error {
	if len(s.stack) >= s.max {
		return fmt.Errorf("%w: evaluation stack full (%d words)", ErrStackOverflow, s.max)
	}
	s.stack = append(s.stack, value)
	return nil
}

func (s *ZStack) Pop() (uint16, error) {
	if len(s.stack) <= s.localFrame {
		return 0, fmt.Errorf("%w: pop from empty stack", ErrStackUnderflow)
	}
	retValue := s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
	return retValue, nil
}

func (s *ZStack) GetTopItem() (uint16, error) {
	if len(s.stack) <= s.localFrame {
		return 0, fmt.Errorf("%w: peek at empty stack", ErrStackUnderflow)
	}
	return s.stack[len(s.stack)-1], nil
}

func (s *ZStack) SetTopItem(value uint16) error {
	if len(s.stack) <= s.localFrame {
		return fmt.Errorf("%w: replace top of empty stack", ErrStackUnderflow)
	}
	s.stack[len(s.stack)-1] = value
	return nil
}

// Len counts every value on the stack, including the callers'.
func (s *ZStack) Len() int {
	return len(s.stack)
}

// SaveFrame starts a routine's region of the stack and returns the previous
// frame boundary for RestoreFrame.
func (s *ZStack) SaveFrame() int {
	saved := s.localFrame
	s.localFrame = len(s.stack)
	return saved
}

// RestoreFrame discards the finished routine's values and reinstates the
// caller's frame boundary.
func (s *ZStack) RestoreFrame(saved int) {
	s.stack = s.stack[:s.localFrame]
	s.localFrame = saved
}

func (s *ZStack) Reset() {
	s.stack = s.stack[:0]
	s.localFrame = 0
}

func (s *ZStack) Dump() {
	DebugPrintf("Top = %d, local frame = %d\n", len(s.stack), s.localFrame)

	for i := len(s.stack) - 1; i >= 0; i-- {
		if i == s.localFrame {
			DebugPrintf("0x%X: 0x%X <------ local frame\n", i, s.stack[i])
		} else {
			DebugPrintf("0x%X: 0x%X\n", i, s.stack[i])
		}
	}
}

// A CallFrame holds one routine invocation.
type CallFrame struct {
	ReturnPC      uint32
	StoreVariable uint8
	DiscardResult bool
	Locals        [MAX_LOCALS]uint16
	NumLocals     int

	savedFrame int
}

// Local returns local variable n, 1-based.
func (f *CallFrame) Local(n int) (uint16, error) {
	if n < 1 || n > f.NumLocals {
		return 0, fmt.Errorf("%w: local %d of %d", ErrInvalidLocal, n, f.NumLocals)
	}
	return f.Locals[n-1], nil
}

func (f *CallFrame) SetLocal(n int, value uint16) error {
	if n < 1 || n > f.NumLocals {
		return fmt.Errorf("%w: local %d of %d", ErrInvalidLocal, n, f.NumLocals)
	}
	f.Locals[n-1] = value
	return nil
}

type CallStack struct {
	frames []CallFrame
	max    int
}

func NewCallStack(max int) *CallStack {
	if max <= 0 {
		max = MAX_CALL_DEPTH
	}
	return &CallStack{max: max}
}

func (c *CallStack) Push(frame CallFrame) error {
	if len(c.frames) >= c.max {
		return fmt.Errorf("%w: call depth exceeds %d", ErrStackOverflow, c.max)
	}
	c.frames = append(c.frames, frame)
	return nil
}

// Pop removes the active frame. ok is false when no routine is active.
func (c *CallStack) Pop() (frame CallFrame, ok bool) {
	if len(c.frames) == 0 {
		return CallFrame{}, false
	}
	n := len(c.frames) - 1
	frame = c.frames[n]
	c.frames[n] = CallFrame{}
	c.frames = c.frames[:n]
	return frame, true
}

// Top is the active frame, or nil in the main routine. The pointer is only
// valid until the next Push or Pop.
func (c *CallStack) Top() *CallFrame {
	if len(c.frames) == 0 {
		return nil
	}
	return &c.frames[len(c.frames)-1]
}

func (c *CallStack) Depth() int {
	return len(c.frames)
}

func (c *CallStack) Reset() {
	for i := range c.frames {
		c.frames[i] = CallFrame{}
	}
	c.frames = c.frames[:0]
}
