package zmachine

import (
	"fmt"
)

const headerSize = 0x40

type ZHeader struct {
	Version           uint8
	HiMemBase         uint16
	InitialPC         uint16
	DictAddress       uint32
	ObjTableAddress   uint32
	GlobalVarAddress  uint32
	StaticMemAddress  uint32
	AbbreviationTable uint32
	FileLength        uint32
	Checksum          uint16
}

func (h *ZHeader) Read(buf []byte) {
	h.Version = buf[0]
	h.HiMemBase = GetUint16(buf, 0x4)
	h.InitialPC = GetUint16(buf, 0x6)
	h.DictAddress = uint32(GetUint16(buf, 0x8))
	h.ObjTableAddress = uint32(GetUint16(buf, 0xA))
	h.GlobalVarAddress = uint32(GetUint16(buf, 0xC))
	h.StaticMemAddress = uint32(GetUint16(buf, 0xE))
	h.AbbreviationTable = uint32(GetUint16(buf, 0x18))
	// V3 stores the length divided by two
	h.FileLength = uint32(GetUint16(buf, 0x1A)) * 2
	h.Checksum = GetUint16(buf, 0x1C)
}

// StoryImage is the story file's memory. Bytes below StaticMemAddress are
// dynamic memory; nothing at or above it is ever written.
type StoryImage struct {
	header ZHeader
	buf    []byte

	// dynamic memory as loaded, for restart and verify
	pristine []byte
}

// LoadStory copies data into a new StoryImage, validating the header.
func LoadStory(data []byte) (*StoryImage, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the header", ErrMalformedHeader, len(data))
	}

	var h ZHeader
	h.Read(data)

	if h.Version != 3 {
		return nil, fmt.Errorf("%w: version %d, only version 3 is supported", ErrMalformedHeader, h.Version)
	}

	size := uint32(len(data))
	switch {
	case h.FileLength == 0:
		// Early story files leave the length blank
		h.FileLength = size
	case h.FileLength > size:
		return nil, fmt.Errorf("%w: header declares %d bytes, file has %d", ErrMalformedHeader, h.FileLength, size)
	case h.FileLength < size:
		for _, b := range data[h.FileLength:] {
			if b != 0 {
				return nil, fmt.Errorf("%w: header declares %d bytes, file has %d", ErrMalformedHeader, h.FileLength, size)
			}
		}
		DebugPrintf("Ignoring %d bytes of padding\n", size-h.FileLength)
	}

	if h.StaticMemAddress < headerSize || h.StaticMemAddress > h.FileLength {
		return nil, fmt.Errorf("%w: static memory base 0x%X", ErrMalformedHeader, h.StaticMemAddress)
	}

	s := &StoryImage{
		header: h,
		buf:    make([]byte, h.FileLength),
	}
	copy(s.buf, data)
	s.pristine = append([]byte(nil), s.buf[:h.StaticMemAddress]...)

	DebugPrintf("End of dyn mem: 0x%X\n", h.StaticMemAddress)
	DebugPrintf("Global vars: 0x%X\n", h.GlobalVarAddress)

	return s, nil
}

func (s *StoryImage) Header() ZHeader {
	return s.header
}

// Len is the story length in bytes.
func (s *StoryImage) Len() uint32 {
	return uint32(len(s.buf))
}

func (s *StoryImage) GetUint8(addr uint32) (uint8, error) {
	if addr >= s.Len() {
		return 0, fmt.Errorf("%w: read byte at 0x%X", ErrOutOfBounds, addr)
	}
	return s.buf[addr], nil
}

func (s *StoryImage) GetUint16(addr uint32) (uint16, error) {
	if addr >= s.Len() || addr+1 >= s.Len() {
		return 0, fmt.Errorf("%w: read word at 0x%X", ErrOutOfBounds, addr)
	}
	return GetUint16(s.buf, addr), nil
}

func (s *StoryImage) GetUint32(addr uint32) (uint32, error) {
	if addr+3 >= s.Len() {
		return 0, fmt.Errorf("%w: read 4 bytes at 0x%X", ErrOutOfBounds, addr)
	}
	return GetUint32(s.buf, addr), nil
}

// We can only write to dynamic memory
func (s *StoryImage) IsSafeToWrite(address uint32) bool {
	return address < s.header.StaticMemAddress
}

func (s *StoryImage) SetUint8(addr uint32, v uint8) error {
	if !s.IsSafeToWrite(addr) {
		return fmt.Errorf("%w: write byte at 0x%X", ErrReadOnlyViolation, addr)
	}
	s.buf[addr] = v
	return nil
}

func (s *StoryImage) SetUint16(addr uint32, v uint16) error {
	if !s.IsSafeToWrite(addr) || !s.IsSafeToWrite(addr+1) {
		return fmt.Errorf("%w: write word at 0x%X", ErrReadOnlyViolation, addr)
	}
	s.buf[addr] = uint8(v >> 8)
	s.buf[addr+1] = uint8(v & 0xFF)
	return nil
}

// Reset puts dynamic memory back the way it was loaded.
func (s *StoryImage) Reset() {
	copy(s.buf, s.pristine)
}

// Checksum sums every byte after the header of the story as loaded, the
// value the verify opcode compares with the header.
func (s *StoryImage) Checksum() uint16 {
	var sum uint16
	for addr := uint32(headerSize); addr < s.Len(); addr++ {
		if addr < uint32(len(s.pristine)) {
			sum += uint16(s.pristine[addr])
		} else {
			sum += uint16(s.buf[addr])
		}
	}
	return sum
}

// " Given a packed address P, the formula to obtain the corresponding byte address B is:
//  2P           Versions 1, 2 and 3"
func PackedAddress(a uint16) uint32 {
	return uint32(a) * 2
}
