package zmachine

import (
	"fmt"
	"strconv"
	"time"
)

func ZCall(zm *ZMachine, args []uint16, numArgs uint16) error {
	storeVar, err := zm.ReadByte()
	if err != nil {
		return err
	}
	if numArgs == 0 {
		return zm.StoreAtLocation(storeVar, 0)
	}
	// first argument is function address
	return zm.CallRoutine(args[0], args[1:numArgs], storeVar)
}

//  storew array word-index value
func ZStoreW(zm *ZMachine, args []uint16, numArgs uint16) error {
	address := uint32(args[0] + args[1]*2)
	return zm.story.SetUint16(address, args[2])
}

func ZStoreB(zm *ZMachine, args []uint16, numArgs uint16) error {
	address := uint32(args[0] + args[1])
	return zm.story.SetUint8(address, uint8(args[2]))
}

// sread text parse
func ZRead(zm *ZMachine, args []uint16, numArgs uint16) error {
	if zm.input == nil {
		return fmt.Errorf("%w: no input source", ErrNoInput)
	}
	input, err := zm.input.ReadLine()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNoInput, err)
	}
	return zm.storeInput(input, uint32(args[0]), uint32(args[1]))
}

func ZPrintChar(zm *ZMachine, args []uint16, numArgs uint16) error {
	ch := args[0]
	if ch == 0 {
		return nil
	}
	return zm.print(string(ZSCIIToChar(ch)))
}

func ZPrintNum(zm *ZMachine, args []uint16, numArgs uint16) error {
	return zm.print(strconv.Itoa(int(int16(args[0]))))
}

// If range is positive, returns a uniformly random number between 1 and range.
// If range is negative, the random number generator is seeded to that value and the return value is 0.
// Most interpreters consider giving 0 as range illegal (because they attempt a division with remainder by the range),
// but correct behaviour is to reseed the generator in as random a way as the interpreter can (e.g. by using the time
// in milliseconds).
func ZRandom(zm *ZMachine, args []uint16, numArgs uint16) error {
	randRange := int16(args[0])

	if randRange > 0 {
		r := zm.rng.Int31n(int32(randRange)) // [0, n)
		return zm.StoreResult(uint16(r + 1))
	} else if randRange < 0 {
		zm.rng.Seed(int64(randRange) * -1)
	} else {
		zm.rng.Seed(time.Now().UnixNano())
	}
	return zm.StoreResult(0)
}

func ZPush(zm *ZMachine, args []uint16, numArgs uint16) error {
	return zm.stack.Push(args[0])
}

// pull (variable)
func ZPull(zm *ZMachine, args []uint16, numArgs uint16) error {
	r, err := zm.stack.Pop()
	if err != nil {
		return err
	}
	return zm.vars.Replace(uint8(args[0]), r)
}

func GenericBranch(zm *ZMachine, conditionSatisfied bool) error {
	branchInfo, err := zm.ReadByte()
	if err != nil {
		return err
	}

	// "If bit 7 of the first byte is 0, a branch occurs when the condition was false; if 1, then branch is on true"
	branchOnTrue := (branchInfo >> 7) != 0

	var branchOffset int32
	// "If bit 6 is set, then the branch occupies 1 byte only, and the "offset" is in the range 0 to 63, given in the bottom 6 bits"
	if (branchInfo & (1 << 6)) != 0 {
		branchOffset = int32(branchInfo & 0x3F)
	} else {
		// If bit 6 is clear, then the offset is a signed 14-bit number given in bits 0 to 5 of the first
		// byte followed by all 8 of the second.
		secondPart, err := zm.ReadByte()
		if err != nil {
			return err
		}
		firstPart := uint16(branchInfo & 0x3F)
		// Propagate sign bit (2 complement)
		if (firstPart & 0x20) != 0 {
			firstPart |= (1 << 6) | (1 << 7)
		}

		branchOffset = int32(int16(firstPart<<8 | uint16(secondPart)))
		DebugPrintf("Offset: 0x%X [%d]\n", branchOffset, branchOffset)
	}

	if conditionSatisfied != branchOnTrue {
		return nil
	}

	// "An offset of 0 means "return false from the current routine", and 1 means "return true from the current routine".
	switch branchOffset {
	case 0:
		return zm.ReturnFromRoutine(0)
	case 1:
		return zm.ReturnFromRoutine(1)
	}

	// "Otherwise, a branch moves execution to the instruction at address
	// Address after branch data + Offset - 2."
	jumpAddress := int64(zm.ip) + int64(branchOffset) - 2
	DebugPrintf("Jump address = 0x%X\n", jumpAddress)
	return zm.jumpTo(jumpAddress)
}

func ZJumpEqual(zm *ZMachine, args []uint16, numArgs uint16) error {
	conditionSatisfied := false
	for i := uint16(1); i < numArgs; i++ {
		if args[0] == args[i] {
			conditionSatisfied = true
			break
		}
	}
	return GenericBranch(zm, conditionSatisfied)
}

func ZJumpLess(zm *ZMachine, args []uint16, numArgs uint16) error {
	return GenericBranch(zm, int16(args[0]) < int16(args[1]))
}

func ZJumpGreater(zm *ZMachine, args []uint16, numArgs uint16) error {
	return GenericBranch(zm, int16(args[0]) > int16(args[1]))
}

func ZAdd(zm *ZMachine, args []uint16, numArgs uint16) error {
	r := int16(args[0]) + int16(args[1])
	return zm.StoreResult(uint16(r))
}

func ZSub(zm *ZMachine, args []uint16, numArgs uint16) error {
	r := int16(args[0]) - int16(args[1])
	return zm.StoreResult(uint16(r))
}

func ZMul(zm *ZMachine, args []uint16, numArgs uint16) error {
	r := int16(args[0]) * int16(args[1])
	return zm.StoreResult(uint16(r))
}

func ZDiv(zm *ZMachine, args []uint16, numArgs uint16) error {
	if args[1] == 0 {
		return ErrDivisionByZero
	}

	r := int16(args[0]) / int16(args[1])
	return zm.StoreResult(uint16(r))
}

func ZMod(zm *ZMachine, args []uint16, numArgs uint16) error {
	if args[1] == 0 {
		return ErrDivisionByZero
	}

	r := int16(args[0]) % int16(args[1])
	return zm.StoreResult(uint16(r))
}

// store (variable) value
func ZStore(zm *ZMachine, args []uint16, numArgs uint16) error {
	DebugPrintf("%d - 0x%X\n", args[0], args[1])
	return zm.vars.Replace(uint8(args[0]), args[1])
}

func ZTestAttr(zm *ZMachine, args []uint16, numArgs uint16) error {
	set, err := zm.TestObjectAttr(args[0], args[1])
	if err != nil {
		return err
	}
	return GenericBranch(zm, set)
}

func ZOr(zm *ZMachine, args []uint16, numArgs uint16) error {
	return zm.StoreResult(args[0] | args[1])
}

func ZAnd(zm *ZMachine, args []uint16, numArgs uint16) error {
	return zm.StoreResult(args[0] & args[1])
}

func ZLoadB(zm *ZMachine, args []uint16, numArgs uint16) error {
	address := args[0] + args[1]
	value, err := zm.story.GetUint8(uint32(address))
	if err != nil {
		return err
	}
	return zm.StoreResult(uint16(value))
}

// array word-index -> (result)
func ZLoadW(zm *ZMachine, args []uint16, numArgs uint16) error {
	address := args[0] + (args[1] * 2)
	value, err := zm.story.GetUint16(uint32(address))
	if err != nil {
		return err
	}
	return zm.StoreResult(value)
}

func ZGetProp(zm *ZMachine, args []uint16, numArgs uint16) error {
	prop, err := zm.GetObjectProperty(args[0], args[1])
	if err != nil {
		return err
	}
	return zm.StoreResult(prop)
}

func ZGetPropAddr(zm *ZMachine, args []uint16, numArgs uint16) error {
	addr, err := zm.GetObjectPropertyAddress(args[0], args[1])
	if err != nil {
		return err
	}
	return zm.StoreResult(addr)
}

func ZGetNextProp(zm *ZMachine, args []uint16, numArgs uint16) error {
	prop, err := zm.GetNextObjectProperty(args[0], args[1])
	if err != nil {
		return err
	}
	return zm.StoreResult(prop)
}

// dec_chk (variable) value ?(label)
// Decrement variable, and branch if it is now less than the given value.
func ZDecChk(zm *ZMachine, args []uint16, numArgs uint16) error {
	newValue, err := zm.AddToVar(args[0], -1)
	if err != nil {
		return err
	}
	return GenericBranch(zm, int16(newValue) < int16(args[1]))
}

// inc_chk (variable) value ?(label)
// Increment variable, and branch if now greater than value.
func ZIncChk(zm *ZMachine, args []uint16, numArgs uint16) error {
	newValue, err := zm.AddToVar(args[0], 1)
	if err != nil {
		return err
	}
	return GenericBranch(zm, int16(newValue) > int16(args[1]))
}

// test bitmap flags ?(label)
// Jump if all of the flags in bitmap are set (i.e. if bitmap & flags == flags).
func ZTest(zm *ZMachine, args []uint16, numArgs uint16) error {
	bitmap := args[0]
	flags := args[1]
	return GenericBranch(zm, (bitmap&flags) == flags)
}

//  jin obj1 obj2 ?(label)
// Jump if object a is a direct child of b, i.e., if parent of a is b.
func ZJin(zm *ZMachine, args []uint16, numArgs uint16) error {
	isChild, err := zm.IsDirectParent(args[0], args[1])
	if err != nil {
		return err
	}
	return GenericBranch(zm, isChild)
}

func ZJumpZero(zm *ZMachine, arg uint16) error {
	return GenericBranch(zm, arg == 0)
}

// get_sibling object -> (result) ?(label)
// Get next object in tree, branching if this exists, i.e. is not 0.
func ZGetSibling(zm *ZMachine, arg uint16) error {
	sibling, err := zm.GetSibling(arg)
	if err != nil {
		return err
	}
	if err := zm.StoreResult(sibling); err != nil {
		return err
	}
	return GenericBranch(zm, sibling != NULL_OBJECT_INDEX)
}

// get_child object -> (result) ?(label)
// Get first object contained in given object, branching if this exists, i.e. is not nothing (i.e., is not 0).
func ZGetChild(zm *ZMachine, arg uint16) error {
	childIndex, err := zm.GetFirstChild(arg)
	if err != nil {
		return err
	}
	if err := zm.StoreResult(childIndex); err != nil {
		return err
	}
	return GenericBranch(zm, childIndex != NULL_OBJECT_INDEX)
}

func ZGetParent(zm *ZMachine, arg uint16) error {
	parent, err := zm.GetParentObject(arg)
	if err != nil {
		return err
	}
	return zm.StoreResult(parent)
}

func ZGetPropLen(zm *ZMachine, arg uint16) error {
	// Arg = direct address of the property block
	numBytes, err := zm.GetPropertyLength(arg)
	if err != nil {
		return err
	}
	return zm.StoreResult(numBytes)
}

// print_paddr packed-address-of-string
func ZPrintPAddr(zm *ZMachine, arg uint16) error {
	return zm.printZString(PackedAddress(arg))
}

// load (variable) -> (result)
func ZLoad(zm *ZMachine, arg uint16) error {
	value, err := zm.vars.Peek(uint8(arg))
	if err != nil {
		return err
	}
	return zm.StoreResult(value)
}

func ZInc(zm *ZMachine, arg uint16) error {
	_, err := zm.AddToVar(arg, 1)
	return err
}

func ZDec(zm *ZMachine, arg uint16) error {
	_, err := zm.AddToVar(arg, -1)
	return err
}

func ZPrintAddr(zm *ZMachine, arg uint16) error {
	return zm.printZString(uint32(arg))
}

func ZPrintObj(zm *ZMachine, arg uint16) error {
	name, err := zm.ObjectName(arg)
	if err != nil {
		if !IsRecoverable(err) {
			return err
		}
		log.Warningf("session %s: name of object %d: %v", zm.id, arg, err)
	}
	return zm.print(name)
}

func ZRet(zm *ZMachine, arg uint16) error {
	return zm.ReturnFromRoutine(arg)
}

// Unconditional jump
func ZJump(zm *ZMachine, arg uint16) error {
	jumpOffset := int16(arg)
	jumpAddress := int64(zm.ip) + int64(jumpOffset) - 2
	DebugPrintf("Jump address: 0x%X\n", jumpAddress)
	return zm.jumpTo(jumpAddress)
}

func ZNot(zm *ZMachine, arg uint16) error {
	return zm.StoreResult(^arg)
}

func ZReturnTrue(zm *ZMachine) error {
	return zm.ReturnFromRoutine(1)
}

func ZReturnFalse(zm *ZMachine) error {
	return zm.ReturnFromRoutine(0)
}

// The string follows the opcode; execution resumes after its last word.
func ZPrint(zm *ZMachine) error {
	if err := zm.printZString(zm.ip); err != nil {
		return err
	}
	end, err := zm.text.End(zm.ip)
	if err != nil {
		return err
	}
	zm.ip = end
	return nil
}

func ZPrintRet(zm *ZMachine) error {
	if err := ZPrint(zm); err != nil {
		return err
	}
	if err := zm.print("\n"); err != nil {
		return err
	}
	return ZReturnTrue(zm)
}

func ZNop(zm *ZMachine) error {
	return nil
}

// There is no save file format here, so save and restore always fail.
func ZSave(zm *ZMachine) error {
	return GenericBranch(zm, false)
}

func ZRestore(zm *ZMachine) error {
	return GenericBranch(zm, false)
}

func ZRestart(zm *ZMachine) error {
	zm.Restart()
	return nil
}

func ZRetPopped(zm *ZMachine) error {
	retValue, err := zm.stack.Pop()
	if err != nil {
		return err
	}
	return zm.ReturnFromRoutine(retValue)
}

func ZPop(zm *ZMachine) error {
	_, err := zm.stack.Pop()
	return err
}

func ZQuit(zm *ZMachine) error {
	zm.Done = true
	return nil
}

func ZNewLine(zm *ZMachine) error {
	return zm.print("\n")
}

// The status line belongs to whatever renders the screen.
func ZShowStatus(zm *ZMachine) error {
	return nil
}

func ZVerify(zm *ZMachine) error {
	return GenericBranch(zm, zm.story.Checksum() == zm.story.header.Checksum)
}
