package zmachine

import (
	"errors"
	"testing"
)

func TestDecodeForms(t *testing.T) {
	tests := []struct {
		name  string
		code  []byte
		form  Form
		count OperandCount
		num   uint8
		args  []uint16
		next  uint32
	}{
		{"long small small", []byte{0x14, 0x05, 0x07}, FORM_LONG, OP_2, 20, []uint16{5, 7}, 0x503},
		{"long variable small", []byte{0x54, 0x10, 0x07}, FORM_LONG, OP_2, 20, []uint16{0x1234, 7}, 0x503},
		{"long small variable", []byte{0x34, 0x07, 0x10}, FORM_LONG, OP_2, 20, []uint16{7, 0x1234}, 0x503},
		{"short large", []byte{0x8C, 0xFF, 0xFE}, FORM_SHORT, OP_1, 12, []uint16{0xFFFE}, 0x503},
		{"short small", []byte{0x95, 0x10}, FORM_SHORT, OP_1, 5, []uint16{0x10}, 0x502},
		{"short variable", []byte{0xA0, 0x10}, FORM_SHORT, OP_1, 0, []uint16{0x1234}, 0x502},
		{"short no operand", []byte{0xB0}, FORM_SHORT, OP_0, 0, []uint16{}, 0x501},
		{"variable VAR", []byte{0xE0, 0x1F, 0x03, 0x00, 0x63}, FORM_VARIABLE, OP_VAR, 0, []uint16{0x300, 0x63}, 0x505},
		{"variable 2OP", []byte{0xC1, 0x55, 1, 2, 3, 4}, FORM_VARIABLE, OP_2, 1, []uint16{1, 2, 3, 4}, 0x506},
		{"variable one operand", []byte{0xE0, 0x7F, 0x09}, FORM_VARIABLE, OP_VAR, 0, []uint16{9}, 0x503},
		{"omitted ends the list", []byte{0xE0, 0x73, 0x09, 0x0A}, FORM_VARIABLE, OP_VAR, 0, []uint16{9}, 0x503},
		{"no operands", []byte{0xE0, 0xFF}, FORM_VARIABLE, OP_VAR, 0, []uint16{}, 0x502},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newStoryBuilder().global(0x10, 0x1234)
			b.code(testCode, tt.code...)
			zm, _ := newTestMachine(t, b, testConfig())

			in, next, err := zm.decoder.Decode(testCode)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if in.Addr != testCode || in.Opcode != tt.code[0] {
				t.Errorf("Addr, Opcode = 0x%X, 0x%X", in.Addr, in.Opcode)
			}
			if in.Form != tt.form || in.Count != tt.count || in.Number != tt.num {
				t.Errorf("decoded %s %s:%d, want %s %s:%d", in.Form, in.Count, in.Number, tt.form, tt.count, tt.num)
			}
			args := in.Args()
			if len(args) != len(tt.args) {
				t.Fatalf("args = %v, want %v", args, tt.args)
			}
			for i := range args {
				if args[i] != tt.args[i] {
					t.Errorf("args = %v, want %v", args, tt.args)
					break
				}
			}
			if next != tt.next {
				t.Errorf("next = 0x%X, want 0x%X", next, tt.next)
			}
		})
	}
}

func TestDecodePopsStackOperandsInOrder(t *testing.T) {
	b := newStoryBuilder()
	b.code(testCode, 0x75, 0x00, 0x00) // sub sp sp
	zm, _ := newTestMachine(t, b, testConfig())
	_ = zm.stack.Push(10)
	_ = zm.stack.Push(3)

	in, _, err := zm.decoder.Decode(testCode)
	if err != nil {
		t.Fatal(err)
	}
	if in.Operands[0] != 3 || in.Operands[1] != 10 {
		t.Errorf("operands = %v, want [3 10]", in.Args())
	}
	if zm.stack.Len() != 0 {
		t.Errorf("stack length = %d, want 0", zm.stack.Len())
	}
}

func TestDecodeErrors(t *testing.T) {
	b := newStoryBuilder()
	b.code(testStorySize-2, 0xE0, 0x0F) // operands run off the end
	zm, _ := newTestMachine(t, b, testConfig())

	if _, _, err := zm.decoder.Decode(testStorySize); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("Decode past end error = %v, want ErrOutOfBounds", err)
	}

	in, _, err := zm.decoder.Decode(testStorySize - 2)
	if !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("Decode truncated error = %v, want ErrOutOfBounds", err)
	}
	if in.Addr != testStorySize-2 || in.Opcode != 0xE0 {
		t.Errorf("partial instruction = %+v", in)
	}

	b = newStoryBuilder()
	b.code(testCode, 0x54, 0x00, 0x01) // add sp 1 with nothing on the stack
	zm, _ = newTestMachine(t, b, testConfig())
	if _, _, err := zm.decoder.Decode(testCode); !errors.Is(err, ErrStackUnderflow) {
		t.Errorf("Decode error = %v, want ErrStackUnderflow", err)
	}
}

func TestInstructionName(t *testing.T) {
	tests := []struct {
		code []byte
		want string
	}{
		{[]byte{0x14, 1, 2}, "add"},
		{[]byte{0xE0, 0xFF}, "call"},
		{[]byte{0xBA}, "quit"},
		{[]byte{0x8C, 0, 0}, "jump"},
		{[]byte{0xC1, 0xFF}, "je"},
		{[]byte{0xBE}, ""},
	}
	for _, tt := range tests {
		b := newStoryBuilder()
		b.code(testCode, tt.code...)
		zm, _ := newTestMachine(t, b, testConfig())
		in, _, err := zm.decoder.Decode(testCode)
		if err != nil {
			t.Fatal(err)
		}
		if in.Name() != tt.want {
			t.Errorf("0x%02X Name = %q, want %q", tt.code[0], in.Name(), tt.want)
		}
	}
}
