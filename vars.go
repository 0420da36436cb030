package zmachine

const (
	OPERAND_LARGE    = 0x0
	OPERAND_SMALL    = 0x1
	OPERAND_VARIABLE = 0x2
	OPERAND_OMITTED  = 0x3

	MAX_STACK         = 1024
	MAX_CALL_DEPTH    = 64
	MAX_ABBREV_DEPTH  = 3
	MAX_LOCALS        = 15
	MAX_STRING_LENGTH = 4096
	MAX_OBJECT        = 255
	MAX_ATTRIBUTE     = 31

	OBJECT_ENTRY_SIZE    = 9
	OBJECT_PARENT_INDEX  = 4
	OBJECT_SIBLING_INDEX = 5
	OBJECT_CHILD_INDEX   = 6
	OBJECT_PROPS_INDEX   = 7
	NULL_OBJECT_INDEX    = 0

	DICT_NOT_FOUND = 0
)

type Form uint8

const (
	FORM_SHORT Form = iota
	FORM_LONG
	FORM_VARIABLE
)

func (f Form) String() string {
	switch f {
	case FORM_SHORT:
		return "short"
	case FORM_LONG:
		return "long"
	case FORM_VARIABLE:
		return "variable"
	}
	return "?"
}

type OperandCount uint8

const (
	OP_0 OperandCount = iota
	OP_1
	OP_2
	OP_VAR
)

func (c OperandCount) String() string {
	switch c {
	case OP_0:
		return "0OP"
	case OP_1:
		return "1OP"
	case OP_2:
		return "2OP"
	case OP_VAR:
		return "VAR"
	}
	return "?"
}

// Index 0 of A2 is never printed: code 6 in A2 starts a ZSCII escape.
var alphabets = []string{"abcdefghijklmnopqrstuvwxyz",
	"ABCDEFGHIJKLMNOPQRSTUVWXYZ",
	" \n0123456789.,!?_#'\"/\\-:()"}

type ZFunction func(*ZMachine, []uint16, uint16) error
type ZFunction1Op func(*ZMachine, uint16) error
type ZFunction0Op func(*ZMachine) error

// A nil entry is an opcode this core does not implement; see
// UnknownOpcodePolicy for what happens when one is executed.

var ZFunctions_VAR = [32]ZFunction{
	0: ZCall,
	1: ZStoreW,
	2: ZStoreB,
	3: nil, // put_prop
	4: ZRead,
	5: ZPrintChar,
	6: ZPrintNum,
	7: ZRandom,
	8: ZPush,
	9: ZPull,
}

var ZFunctions_2OP = [32]ZFunction{
	1:  ZJumpEqual,
	2:  ZJumpLess,
	3:  ZJumpGreater,
	4:  ZDecChk,
	5:  ZIncChk,
	6:  ZJin,
	7:  ZTest,
	8:  ZOr,
	9:  ZAnd,
	10: ZTestAttr,
	11: nil, // set_attr
	12: nil, // clear_attr
	13: ZStore,
	14: nil, // insert_obj
	15: ZLoadW,
	16: ZLoadB,
	17: ZGetProp,
	18: ZGetPropAddr,
	19: ZGetNextProp,
	20: ZAdd,
	21: ZSub,
	22: ZMul,
	23: ZDiv,
	24: ZMod,
}

var ZFunctions_1OP = [16]ZFunction1Op{
	ZJumpZero,
	ZGetSibling,
	ZGetChild,
	ZGetParent,
	ZGetPropLen,
	ZInc,
	ZDec,
	ZPrintAddr,
	nil,
	nil, // remove_obj
	ZPrintObj,
	ZRet,
	ZJump,
	ZPrintPAddr,
	ZLoad,
	ZNot,
}

var ZFunctions_0P = [16]ZFunction0Op{
	ZReturnTrue,
	ZReturnFalse,
	ZPrint,
	ZPrintRet,
	ZNop,
	ZSave,
	ZRestore,
	ZRestart,
	ZRetPopped,
	ZPop,
	ZQuit,
	ZNewLine,
	ZShowStatus,
	ZVerify,
	nil,
	nil,
}

var opcodeNames = map[OperandCount][]string{
	OP_0: {"rtrue", "rfalse", "print", "print_ret", "nop", "save", "restore", "restart",
		"ret_popped", "pop", "quit", "new_line", "show_status", "verify"},
	OP_1: {"jz", "get_sibling", "get_child", "get_parent", "get_prop_len", "inc", "dec", "print_addr",
		"call_1s", "remove_obj", "print_obj", "ret", "jump", "print_paddr", "load", "not"},
	OP_2: {"", "je", "jl", "jg", "dec_chk", "inc_chk", "jin", "test", "or", "and", "test_attr",
		"set_attr", "clear_attr", "store", "insert_obj", "loadw", "loadb", "get_prop", "get_prop_addr",
		"get_next_prop", "add", "sub", "mul", "div", "mod"},
	OP_VAR: {"call", "storew", "storeb", "put_prop", "sread", "print_char", "print_num", "random",
		"push", "pull", "split_window", "set_window", "", "", "", "", "", "", "", "output_stream",
		"input_stream", "sound_effect"},
}

func GetUint16(buf []byte, offset uint32) uint16 {
	return (uint16(buf[offset]) << 8) | (uint16)(buf[offset+1])
}

func GetUint32(buf []byte, offset uint32) uint32 {
	return (uint32(buf[offset]) << 24) | (uint32(buf[offset+1]) << 16) | (uint32(buf[offset+2]) << 8) | uint32(buf[offset+3])
}

// ZSCIIToChar maps a ZSCII code to the character written to the output
// sink. Codes with no printable ASCII equivalent become '?'.
func ZSCIIToChar(ch uint16) byte {
	if ch == 13 {
		return '\n'
	} else if ch >= 32 && ch <= 126 { // ASCII
		return byte(ch)
	}
	return '?'
}
