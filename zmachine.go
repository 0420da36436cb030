package zmachine

// based on: http://msinilo.pl/blog2/post/p1252/

import (
	"errors"
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// ZMachine is one interpreter session: a story image plus all mutable
// execution state. Sessions share nothing, so several can run side by side
// as long as each has its own StoryImage.
type ZMachine struct {
	id      string
	config  Config
	story   *StoryImage
	ip      uint32
	stack   *ZStack
	frames  *CallStack
	vars    *VariableStore
	decoder *Decoder
	text    *TextDecoder
	output  io.StringWriter
	input   InputSource
	rng     *rand.Rand

	// an instruction waiting for input, retried by the next Step
	pending *Instruction
	// the fatal fault that halted the machine
	halted error

	Done bool
}

// NewZMachine prepares a session that starts at the story's initial PC.
// input may be nil if the story never reads.
func NewZMachine(story *StoryImage, config Config, output io.StringWriter, input InputSource) *ZMachine {
	zm := &ZMachine{
		id:     uuid.NewString(),
		config: config,
		story:  story,
		output: output,
		input:  input,
	}
	zm.stack = NewStack(config.Machine.MaxStack)
	zm.frames = NewCallStack(config.Machine.MaxCallDepth)
	zm.vars = NewVariableStore(story, zm.stack, zm.frames)
	zm.decoder = NewDecoder(story, zm.vars)
	zm.text = NewTextDecoder(story)
	if config.Text.MaxAbbreviationDepth > 0 {
		zm.text.MaxDepth = config.Text.MaxAbbreviationDepth
	}
	zm.text.Shift = config.Text.ShiftMode

	seed := config.Machine.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	zm.rng = rand.New(rand.NewSource(seed))

	zm.ip = uint32(story.header.InitialPC)

	DebugPrintf("Session %s starting at 0x%X\n", zm.id, zm.ip)
	return zm
}

func (zm *ZMachine) ID() string {
	return zm.id
}

func (zm *ZMachine) PC() uint32 {
	return zm.ip
}

func (zm *ZMachine) Story() *StoryImage {
	return zm.story
}

func (zm *ZMachine) Variables() *VariableStore {
	return zm.vars
}

func (zm *ZMachine) CallDepth() int {
	return zm.frames.Depth()
}

// Finished reports whether the story quit or returned from its main routine.
func (zm *ZMachine) Finished() bool {
	return zm.Done
}

// Err is the fault that halted the machine, if any.
func (zm *ZMachine) Err() error {
	return zm.halted
}

func (zm *ZMachine) SetInput(input InputSource) {
	zm.input = input
}

// Step executes one instruction. A *Fault is fatal: the machine stays
// halted. ErrNoInput is not; the read is retried by the next Step.
func (zm *ZMachine) Step() error {
	if zm.halted != nil {
		return zm.halted
	}
	if zm.Done {
		return nil
	}

	if zm.pending != nil {
		in := *zm.pending
		zm.pending = nil
		return zm.execute(&in)
	}

	in, next, err := zm.decoder.Decode(zm.ip)
	if err != nil {
		return zm.fail(&in, err)
	}
	zm.ip = next
	return zm.execute(&in)
}

// Run executes instructions until the machine finishes, fails or has run
// budget instructions. A budget of 0 uses the configured instruction budget,
// and if that is 0 too there is no limit. It returns the number of
// instructions completed.
func (zm *ZMachine) Run(budget int) (int, error) {
	if budget <= 0 {
		budget = zm.config.Machine.InstructionBudget
	}

	executed := 0
	for !zm.Done && (budget <= 0 || executed < budget) {
		if err := zm.Step(); err != nil {
			return executed, err
		}
		executed++
	}
	return executed, nil
}

// Restart reloads dynamic memory and starts the story over.
func (zm *ZMachine) Restart() {
	zm.story.Reset()
	zm.stack.Reset()
	zm.frames.Reset()
	zm.pending = nil
	zm.halted = nil
	zm.Done = false
	zm.ip = uint32(zm.story.header.InitialPC)
}

func (zm *ZMachine) execute(in *Instruction) error {
	var err error
	implemented := true

	switch in.Count {
	case OP_0:
		if fn := ZFunctions_0P[in.Number]; fn != nil {
			err = fn(zm)
		} else {
			implemented = false
		}
	case OP_1:
		if fn := ZFunctions_1OP[in.Number]; fn != nil {
			err = fn(zm, in.Operands[0])
		} else {
			implemented = false
		}
	case OP_2:
		if fn := ZFunctions_2OP[in.Number]; fn != nil {
			err = fn(zm, in.Operands[:], in.NumOperands)
		} else {
			implemented = false
		}
	case OP_VAR:
		if fn := ZFunctions_VAR[in.Number]; fn != nil {
			err = fn(zm, in.Operands[:], in.NumOperands)
		} else {
			implemented = false
		}
	}

	if !implemented {
		if zm.config.Machine.UnknownOpcodePolicy == OpcodeSkipLenient {
			log.Warningf("session %s: skipping unsupported opcode 0x%02X (%s:%d) at 0x%05X",
				zm.id, in.Opcode, in.Count, in.Number, in.Addr)
			return nil
		}
		return zm.fail(in, fmt.Errorf("%w: %s:%d", ErrUnsupportedOpcode, in.Count, in.Number))
	}

	if err != nil {
		if errors.Is(err, ErrNoInput) {
			saved := *in
			zm.pending = &saved
			return err
		}
		return zm.fail(in, err)
	}
	return nil
}

func (zm *ZMachine) fail(in *Instruction, err error) error {
	fault := &Fault{Session: zm.id, PC: in.Addr, Opcode: in.Opcode, Err: err}
	log.Errorf("session %s: %v", zm.id, fault)
	zm.halted = fault
	return fault
}

// Reads & moves to the next one (advances IP)
func (zm *ZMachine) ReadByte() (byte, error) {
	b, err := zm.story.GetUint8(zm.ip)
	if err != nil {
		return 0, err
	}
	zm.ip++
	return b, nil
}

func (zm *ZMachine) jumpTo(address int64) error {
	if address < 0 || address >= int64(zm.story.Len()) {
		return fmt.Errorf("%w: jump to 0x%X", ErrOutOfBounds, address)
	}
	zm.ip = uint32(address)
	return nil
}

// Returns new value.
func (zm *ZMachine) AddToVar(varType uint16, value int16) (uint16, error) {
	v := uint8(varType)
	retValue, err := zm.vars.Peek(v)
	if err != nil {
		return 0, err
	}
	retValue += uint16(value)
	return retValue, zm.vars.Replace(v, retValue)
}

func (zm *ZMachine) StoreAtLocation(storeLocation uint8, v uint16) error {
	// Same deal as read variable
	// 0 = top of the stack, 0x1-0xF = local var, 0x10 - 0xFF = global var
	return zm.vars.Write(storeLocation, v)
}

func (zm *ZMachine) StoreResult(v uint16) error {
	storeLocation, err := zm.ReadByte()
	if err != nil {
		return err
	}
	return zm.StoreAtLocation(storeLocation, v)
}

// CallRoutine enters the routine at packed address, binding args over the
// locals' default values. The store byte has already been read.
func (zm *ZMachine) CallRoutine(packed uint16, args []uint16, storeVar uint8) error {
	if packed == 0 {
		// Calling address 0 does nothing and returns false
		return zm.StoreAtLocation(storeVar, 0)
	}

	functionAddress := PackedAddress(packed)
	DebugPrintf("Jumping to 0x%X [0x%X]\n", functionAddress, packed)

	numLocals, err := zm.story.GetUint8(functionAddress)
	if err != nil {
		return err
	}
	if numLocals > MAX_LOCALS {
		return fmt.Errorf("%w: routine at 0x%X declares %d locals", ErrInvalidLocal, functionAddress, numLocals)
	}

	frame := CallFrame{
		ReturnPC:      zm.ip,
		StoreVariable: storeVar,
		NumLocals:     int(numLocals),
	}

	// "When a routine is called, its local variables are created with initial values taken from the routine header.
	// Next, the arguments are written into the local variables (argument 1 into local 1 and so on)."
	address := functionAddress + 1
	for i := 0; i < int(numLocals); i++ {
		localVar, err := zm.story.GetUint16(address)
		if err != nil {
			return err
		}
		address += 2

		if i < len(args) {
			localVar = args[i]
		}
		frame.Locals[i] = localVar
	}

	if address >= zm.story.Len() {
		return fmt.Errorf("%w: routine at 0x%X has no body", ErrOutOfBounds, functionAddress)
	}

	frame.savedFrame = zm.stack.SaveFrame()
	if err := zm.frames.Push(frame); err != nil {
		zm.stack.RestoreFrame(frame.savedFrame)
		return err
	}
	zm.ip = address
	return nil
}

// ReturnFromRoutine leaves the active routine with value. Returning from
// the main routine finishes the session.
func (zm *ZMachine) ReturnFromRoutine(value uint16) error {
	frame, ok := zm.frames.Pop()
	if !ok {
		DebugPrintf("Returned from main routine with %d\n", value)
		zm.Done = true
		return nil
	}

	zm.stack.RestoreFrame(frame.savedFrame)
	zm.ip = frame.ReturnPC
	DebugPrintf("Returning to 0x%X\n", zm.ip)

	if frame.DiscardResult {
		return nil
	}
	// The caller's frame is active again, so locals resolve against it
	return zm.StoreAtLocation(frame.StoreVariable, value)
}

func (zm *ZMachine) print(s string) error {
	if s == "" || zm.output == nil {
		return nil
	}
	_, err := zm.output.WriteString(s)
	return err
}

// printZString prints the Z-string at address. Text errors the decoder can
// recover from are logged and the partial text printed.
func (zm *ZMachine) printZString(address uint32) error {
	s, err := zm.text.Decode(address, zm.config.Text.MaxStringLength)
	if err != nil {
		if !IsRecoverable(err) {
			return err
		}
		log.Warningf("session %s: string at 0x%05X: %v", zm.id, address, err)
	}
	return zm.print(s)
}
