package zmachine

import "fmt"

// VariableStore resolves variable numbers against the machine's storage:
//
//	0x00        top of the stack
//	0x01 - 0x0F locals of the active routine
//	0x10 - 0xFF globals
//
// It keeps no data of its own.
type VariableStore struct {
	story  *StoryImage
	stack  *ZStack
	frames *CallStack
}

func NewVariableStore(story *StoryImage, stack *ZStack, frames *CallStack) *VariableStore {
	return &VariableStore{story: story, stack: stack, frames: frames}
}

// Read pops variable 0.
func (vs *VariableStore) Read(v uint8) (uint16, error) {
	switch {
	case v == 0:
		return vs.stack.Pop()
	case v < 0x10:
		return vs.readLocal(v)
	}
	return vs.ReadGlobal(v)
}

// Write pushes onto variable 0.
func (vs *VariableStore) Write(v uint8, value uint16) error {
	switch {
	case v == 0:
		return vs.stack.Push(value)
	case v < 0x10:
		return vs.writeLocal(v, value)
	}
	return vs.SetGlobal(v, value)
}

// Peek reads like Read but leaves the stack alone. Opcodes that name a
// variable indirectly (inc, load, store, pull...) treat variable 0 this way.
func (vs *VariableStore) Peek(v uint8) (uint16, error) {
	if v == 0 {
		return vs.stack.GetTopItem()
	}
	return vs.Read(v)
}

// Replace writes like Write but overwrites the top of the stack in place.
func (vs *VariableStore) Replace(v uint8, value uint16) error {
	if v == 0 {
		return vs.stack.SetTopItem(value)
	}
	return vs.Write(v, value)
}

func (vs *VariableStore) readLocal(v uint8) (uint16, error) {
	frame := vs.frames.Top()
	if frame == nil {
		return 0, fmt.Errorf("%w: local %d read outside a routine", ErrInvalidLocal, v)
	}
	return frame.Local(int(v))
}

func (vs *VariableStore) writeLocal(v uint8, value uint16) error {
	frame := vs.frames.Top()
	if frame == nil {
		return fmt.Errorf("%w: local %d written outside a routine", ErrInvalidLocal, v)
	}
	return frame.SetLocal(int(v), value)
}

func (vs *VariableStore) globalAddress(x uint8) uint32 {
	return vs.story.header.GlobalVarAddress + 2*uint32(x-0x10)
}

func (vs *VariableStore) ReadGlobal(x uint8) (uint16, error) {
	if x < 0x10 {
		return 0, fmt.Errorf("%w: variable %d is not a global", ErrInvalidLocal, x)
	}
	return vs.story.GetUint16(vs.globalAddress(x))
}

func (vs *VariableStore) SetGlobal(x uint8, v uint16) error {
	if x < 0x10 {
		return fmt.Errorf("%w: variable %d is not a global", ErrInvalidLocal, x)
	}
	return vs.story.SetUint16(vs.globalAddress(x), v)
}
