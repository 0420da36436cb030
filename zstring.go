package zmachine

import (
	"fmt"
	"strings"
)

// ShiftMode selects how Z-characters 4 and 5 behave.
type ShiftMode int

const (
	// ShiftSingle applies 4/5 to the next character only (Z-machine standard 3.2.3).
	ShiftSingle ShiftMode = iota
	// ShiftLock keeps the shifted alphabet until the next space or shift.
	ShiftLock
)

func (m ShiftMode) String() string {
	if m == ShiftLock {
		return "lock"
	}
	return "single"
}

func (m *ShiftMode) UnmarshalText(text []byte) error {
	switch string(text) {
	case "single", "":
		*m = ShiftSingle
	case "lock":
		*m = ShiftLock
	default:
		return fmt.Errorf("unknown shift mode %q", text)
	}
	return nil
}

// TextDecoder turns Z-strings in a story image into text.
type TextDecoder struct {
	story *StoryImage

	// MaxDepth bounds abbreviation nesting.
	MaxDepth int
	Shift    ShiftMode
}

func NewTextDecoder(story *StoryImage) *TextDecoder {
	return &TextDecoder{
		story:    story,
		MaxDepth: MAX_ABBREV_DEPTH,
		Shift:    ShiftSingle,
	}
}

type decodeOutput struct {
	sb     strings.Builder
	maxLen int
}

func (o *decodeOutput) emit(ch byte) error {
	if o.maxLen > 0 && o.sb.Len() >= o.maxLen {
		return ErrOutputOverflow
	}
	o.sb.WriteByte(ch)
	return nil
}

// Decode decodes the Z-string at addr. maxLen limits the number of output
// characters, 0 meaning no limit. On ErrOutputOverflow or
// ErrAbbreviationCycle the text decoded so far is returned with the error.
func (d *TextDecoder) Decode(addr uint32, maxLen int) (string, error) {
	out := decodeOutput{maxLen: maxLen}
	err := d.decode(addr, 0, &out)
	return out.sb.String(), err
}

// End returns the address just past the Z-string starting at addr.
func (d *TextDecoder) End(addr uint32) (uint32, error) {
	for {
		w16, err := d.story.GetUint16(addr)
		if err != nil {
			return 0, err
		}
		addr += 2
		if w16&0x8000 != 0 {
			return addr, nil
		}
	}
}

// zchars unpacks every 5-bit code of the string at addr.
func (d *TextDecoder) zchars(addr uint32) ([]uint8, error) {
	var zchars []uint8
	for {
		//--first byte-------   --second byte---
		//7    6 5 4 3 2  1 0   7 6 5  4 3 2 1 0
		//bit  --first--  --second---  --third--
		w16, err := d.story.GetUint16(addr)
		if err != nil {
			return nil, err
		}
		zchars = append(zchars, uint8((w16>>10)&0x1F), uint8((w16>>5)&0x1F), uint8(w16&0x1F))
		addr += 2

		if w16&0x8000 != 0 {
			return zchars, nil
		}
	}
}

func (d *TextDecoder) decode(addr uint32, depth int, out *decodeOutput) error {
	zchars, err := d.zchars(addr)
	if err != nil {
		return err
	}

	current := 0
	shifted := -1

	for i := 0; i < len(zchars); i++ {
		zc := zchars[i]

		alphabetType := current
		if shifted >= 0 {
			alphabetType = shifted
		}

		switch {
		case zc == 0:
			if err := out.emit(' '); err != nil {
				return err
			}
			current, shifted = 0, -1

		// "If z is the first Z-character (1, 2 or 3) and x the subsequent one,
		// then the interpreter must look up entry 32(z-1)+x in the abbreviations table"
		case zc < 4:
			if i+1 >= len(zchars) {
				return nil
			}
			i++
			if err := d.expand(32*(int(zc)-1)+int(zchars[i]), depth+1, out); err != nil {
				return err
			}
			shifted = -1

		case zc == 4 || zc == 5:
			if d.Shift == ShiftLock {
				current = int(zc) - 3
			} else {
				shifted = int(zc) - 3
			}

		// Z-character 6 from A2 means that the two subsequent Z-characters specify a ten-bit ZSCII character code:
		// the next Z-character gives the top 5 bits and the one after the bottom 5.
		case alphabetType == 2 && zc == 6:
			if i+2 >= len(zchars) {
				return nil
			}
			zc10 := (uint16(zchars[i+1]) << 5) | uint16(zchars[i+2])
			i += 2
			if err := out.emit(ZSCIIToChar(zc10)); err != nil {
				return err
			}
			shifted = -1

		default:
			// If we're here zc >= 6. Alphabet tables are indexed starting at 6
			if err := out.emit(alphabets[alphabetType][zc-6]); err != nil {
				return err
			}
			shifted = -1
		}
	}

	return nil
}

func (d *TextDecoder) expand(number int, depth int, out *decodeOutput) error {
	if depth > d.MaxDepth {
		return fmt.Errorf("%w: abbreviation %d at depth %d", ErrAbbreviationCycle, number, depth)
	}

	entry := d.story.header.AbbreviationTable + uint32(2*number)
	abbrevAddress, err := d.story.GetUint16(entry)
	if err != nil {
		return err
	}
	return d.decode(PackedAddress(abbrevAddress), depth, out)
}
