package zmachine

import (
	"fmt"
	"strings"
)

// EncodeText packs the first 6 Z-characters of txt into the 4-byte form
// dictionary entries are keyed on.
// NOTE: Doesn't support abbreviations.
func EncodeText(txt string) uint32 {
	encodedChars := make([]uint8, 12)
	encodedWords := make([]uint16, 2)
	padding := uint8(0x5)

	// Store 6 Z-chars. Clamp if longer, add padding if shorter
	i := 0
	j := 0
	for i < 6 {
		if j < len(txt) {
			c := txt[j]
			j++

			// See if we can find any alphabet. A2 position 0 is the ZSCII escape, not a character.
			ai := -1
			alphabetType := 0
			for a := 0; a < len(alphabets); a++ {
				index := strings.IndexByte(alphabets[a], c)
				if index >= 0 && !(a == 2 && index == 0) {
					ai = index
					alphabetType = a
					break
				}
			}
			if ai >= 0 {
				if alphabetType != 0 {
					// Alphabet change
					encodedChars[i] = uint8(alphabetType + 3)
					encodedChars[i+1] = uint8(ai + 6)
					i += 2
				} else {
					encodedChars[i] = uint8(ai + 6)
					i++
				}
			} else {
				// 10-bit ZC
				encodedChars[i] = 5
				encodedChars[i+1] = 6
				encodedChars[i+2] = (c >> 5)
				encodedChars[i+3] = (c & 0x1F)
				i += 4
			}
		} else {
			// Padding
			encodedChars[i] = padding
			i++
		}
	}

	for i := 0; i < 2; i++ {
		encodedWords[i] = (uint16(encodedChars[i*3+0]) << 10) | (uint16(encodedChars[i*3+1]) << 5) |
			uint16(encodedChars[i*3+2])
		if i == 1 {
			encodedWords[i] |= 0x8000
		}
	}

	return (uint32(encodedWords[0]) << 16) | uint32(encodedWords[1])
}

type dictionaryHeader struct {
	separators     string
	entryLength    uint32
	numEntries     int
	sorted         bool
	entriesAddress uint32
}

func (zm *ZMachine) readDictionaryHeader() (dictionaryHeader, error) {
	var h dictionaryHeader
	dictAddress := zm.story.header.DictAddress

	numSeparators, err := zm.story.GetUint8(dictAddress)
	if err != nil {
		return h, err
	}
	seps := make([]byte, numSeparators)
	for i := range seps {
		if seps[i], err = zm.story.GetUint8(dictAddress + 1 + uint32(i)); err != nil {
			return h, err
		}
	}
	h.separators = string(seps)

	base := dictAddress + 1 + uint32(numSeparators)
	entryLength, err := zm.story.GetUint8(base)
	if err != nil {
		return h, err
	}
	numEntries, err := zm.story.GetUint16(base + 1)
	if err != nil {
		return h, err
	}
	h.entryLength = uint32(entryLength)
	h.numEntries = int(int16(numEntries))
	h.sorted = h.numEntries >= 0
	if !h.sorted {
		// negative count means unsorted; the magnitude is still the size
		h.numEntries = -h.numEntries
	}
	h.entriesAddress = base + 3
	return h, nil
}

// Return DICT_NOT_FOUND (= 0) if not found
// Address in dictionary otherwise
func (zm *ZMachine) FindInDictionary(str string) (uint16, error) {
	h, err := zm.readDictionaryHeader()
	if err != nil {
		return DICT_NOT_FOUND, err
	}

	encodedText := EncodeText(str)

	if !h.sorted {
		for i := 0; i < h.numEntries; i++ {
			entryAddress := h.entriesAddress + uint32(i)*h.entryLength
			dictValue, err := zm.story.GetUint32(entryAddress)
			if err != nil {
				return DICT_NOT_FOUND, err
			}
			if dictValue == encodedText {
				return uint16(entryAddress), nil
			}
		}
		return DICT_NOT_FOUND, nil
	}

	// Dictionary entries are sorted, so we can use binary search
	lowerBound := 0
	upperBound := h.numEntries - 1

	for lowerBound <= upperBound {
		currentIndex := lowerBound + (upperBound-lowerBound)/2
		entryAddress := h.entriesAddress + uint32(currentIndex)*h.entryLength
		dictValue, err := zm.story.GetUint32(entryAddress)
		if err != nil {
			return DICT_NOT_FOUND, err
		}

		if encodedText < dictValue {
			upperBound = currentIndex - 1
		} else if encodedText > dictValue {
			lowerBound = currentIndex + 1
		} else {
			return uint16(entryAddress), nil
		}
	}

	return DICT_NOT_FOUND, nil
}

// A Token is one word of player input and where it starts in the input.
type Token struct {
	Word  string
	Start int
}

// Tokenise splits input at spaces. Dictionary word separators are words of
// their own.
func (zm *ZMachine) Tokenise(input string) ([]Token, error) {
	h, err := zm.readDictionaryHeader()
	if err != nil {
		return nil, err
	}

	var tokens []Token
	start := -1
	for i := 0; i < len(input); i++ {
		ch := input[i]
		switch {
		case ch == ' ':
			if start >= 0 {
				tokens = append(tokens, Token{input[start:i], start})
				start = -1
			}
		case strings.IndexByte(h.separators, ch) >= 0:
			if start >= 0 {
				tokens = append(tokens, Token{input[start:i], start})
				start = -1
			}
			tokens = append(tokens, Token{input[i : i+1], i})
		default:
			if start < 0 {
				start = i
			}
		}
	}
	// Last word
	if start >= 0 {
		tokens = append(tokens, Token{input[start:], start})
	}
	return tokens, nil
}

// storeInput writes a line of input into the text buffer and its parsed
// words into the parse buffer, as sread does in version 3.
func (zm *ZMachine) storeInput(input string, textAddress uint32, parseAddress uint32) error {
	maxChars, err := zm.story.GetUint8(textAddress)
	if err != nil {
		return err
	}
	if maxChars == 0 {
		return fmt.Errorf("%w: text buffer at 0x%X holds no characters", ErrOutOfBounds, textAddress)
	}
	maxChars--

	input = strings.ToLower(input)
	if len(input) > int(maxChars) {
		input = input[:maxChars]
	}

	for i := 0; i < len(input); i++ {
		if err := zm.story.SetUint8(textAddress+1+uint32(i), input[i]); err != nil {
			return err
		}
	}
	if err := zm.story.SetUint8(textAddress+1+uint32(len(input)), 0); err != nil {
		return err
	}

	if parseAddress == 0 {
		return nil
	}

	tokens, err := zm.Tokenise(input)
	if err != nil {
		return err
	}

	maxTokens, err := zm.story.GetUint8(parseAddress)
	if err != nil {
		return err
	}
	if len(tokens) > int(maxTokens) {
		tokens = tokens[:maxTokens]
	}
	if err := zm.story.SetUint8(parseAddress+1, uint8(len(tokens))); err != nil {
		return err
	}

	// "Each block consists of the byte address of the word in the dictionary, if it is in the dictionary, or 0 if it isn't;
	// followed by a byte giving the number of letters in the word; and finally a byte giving the position in the text-buffer
	// of the first letter of the word.
	entry := parseAddress + 2
	for _, w := range tokens {
		dictionaryAddress, err := zm.FindInDictionary(w.Word)
		if err != nil {
			return err
		}
		DebugPrintf("w = %s, %d, dictionary address: 0x%X\n", w.Word, w.Start, dictionaryAddress)

		if err := zm.story.SetUint16(entry, dictionaryAddress); err != nil {
			return err
		}
		if err := zm.story.SetUint8(entry+2, uint8(len(w.Word))); err != nil {
			return err
		}
		if err := zm.story.SetUint8(entry+3, uint8(w.Start+1)); err != nil {
			return err
		}
		entry += 4
	}
	return nil
}
