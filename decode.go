package zmachine

import "fmt"

// An Instruction is one decoded opcode with its operand values. Branch and
// store bytes, when the opcode has them, are left in the stream.
type Instruction struct {
	Addr        uint32
	Opcode      uint8
	Form        Form
	Count       OperandCount
	Number      uint8
	Operands    [4]uint16
	NumOperands uint16
}

func (in *Instruction) Args() []uint16 {
	return in.Operands[:in.NumOperands]
}

// Name is the standard mnemonic, or "" for an unassigned opcode.
func (in *Instruction) Name() string {
	names := opcodeNames[in.Count]
	if int(in.Number) < len(names) {
		return names[in.Number]
	}
	return ""
}

func (in Instruction) String() string {
	name := in.Name()
	if name == "" {
		name = "unknown"
	}
	return fmt.Sprintf("0x%05X %s:%d %s %v", in.Addr, in.Count, in.Number, name, in.Args())
}

// Decoder reads instructions out of a story image.
type Decoder struct {
	story *StoryImage
	vars  *VariableStore
	ip    uint32
}

func NewDecoder(story *StoryImage, vars *VariableStore) *Decoder {
	return &Decoder{story: story, vars: vars}
}

// Reads & moves to the next one (advances IP)
func (d *Decoder) readByte() (uint8, error) {
	b, err := d.story.GetUint8(d.ip)
	if err != nil {
		return 0, err
	}
	d.ip++
	return b, nil
}

// Reads 2 bytes and advances IP
func (d *Decoder) readUint16() (uint16, error) {
	w, err := d.story.GetUint16(d.ip)
	if err != nil {
		return 0, err
	}
	d.ip += 2
	return w, nil
}

// Decode decodes the instruction at pc and returns it with the address
// following its operands. Variable operands are read from the variable
// store here, so an operand naming the stack pops it. On error the returned
// Instruction still carries Addr and, when it could be read, Opcode.
func (d *Decoder) Decode(pc uint32) (Instruction, uint32, error) {
	d.ip = pc
	in := Instruction{Addr: pc}

	opcode, err := d.readByte()
	if err != nil {
		return in, pc, err
	}
	in.Opcode = opcode

	DebugPrintf("IP: 0x%X - opcode: 0x%X\n", pc, opcode)

	switch {
	case opcode < 0x80:
		err = d.decodeLong(&in)
	case opcode < 0xC0:
		err = d.decodeShort(&in)
	default:
		err = d.decodeVariable(&in)
	}
	if err != nil {
		return in, pc, err
	}
	return in, d.ip, nil
}

func (d *Decoder) decodeLong(in *Instruction) error {
	// In long form the operand count is always 2OP. The opcode number is given in the bottom 5 bits.
	in.Form = FORM_LONG
	in.Count = OP_2
	in.Number = in.Opcode & 0x1F

	// Operand types:
	// In long form, bit 6 of the opcode gives the type of the first operand, bit 5 of the second.
	// A value of 0 means a small constant and 1 means a variable.
	operandType0 := ((in.Opcode & 0x40) >> 6) + 1
	operandType1 := ((in.Opcode & 0x20) >> 5) + 1

	for _, opType := range []uint8{operandType0, operandType1} {
		v, err := d.getOperand(opType)
		if err != nil {
			return err
		}
		in.Operands[in.NumOperands] = v
		in.NumOperands++
	}
	return nil
}

func (d *Decoder) decodeShort(in *Instruction) error {
	// "In short form, bits 4 and 5 of the opcode byte give an operand type.
	// If this is $11 then the operand count is 0OP; otherwise, 1OP. In either case the opcode number is given in the bottom 4 bits."
	in.Form = FORM_SHORT
	in.Number = in.Opcode & 0x0F

	opType := (in.Opcode >> 4) & 0x3
	if opType == OPERAND_OMITTED {
		in.Count = OP_0
		return nil
	}

	in.Count = OP_1
	v, err := d.getOperand(opType)
	if err != nil {
		return err
	}
	in.Operands[0] = v
	in.NumOperands = 1
	return nil
}

func (d *Decoder) decodeVariable(in *Instruction) error {
	// "In variable form, if bit 5 is 0 then the count is 2OP; if it is 1, then the count is VAR.
	// The opcode number is given in the bottom 5 bits.
	in.Form = FORM_VARIABLE
	in.Number = in.Opcode & 0x1F
	if in.Opcode&0x20 == 0 {
		in.Count = OP_2
	} else {
		in.Count = OP_VAR
	}

	// "In variable or extended forms, a byte of 4 operand types is given next.
	// This contains 4 2-bit fields: bits 6 and 7 are the first field, bits 0 and 1 the fourth."
	opTypesByte, err := d.readByte()
	if err != nil {
		return err
	}

	shift := 6
	for i := 0; i < 4; i++ {
		opType := (opTypesByte >> shift) & 0x3
		shift -= 2
		if opType == OPERAND_OMITTED {
			break
		}

		v, err := d.getOperand(opType)
		if err != nil {
			return err
		}
		in.Operands[in.NumOperands] = v
		in.NumOperands++
	}
	return nil
}

func (d *Decoder) getOperand(operandType uint8) (uint16, error) {
	switch operandType {
	case OPERAND_SMALL:
		b, err := d.readByte()
		return uint16(b), err
	case OPERAND_VARIABLE:
		varType, err := d.readByte()
		if err != nil {
			return 0, err
		}
		return d.vars.Read(varType)
	case OPERAND_LARGE:
		return d.readUint16()
	}
	return 0, fmt.Errorf("unknown operand type %d", operandType)
}
