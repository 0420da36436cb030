package zmachine

import (
	"strings"
	"testing"
)

// Memory map of the stories built by tests.
const (
	testAbbrevTable = 0x040
	testGlobals     = 0x100
	testObjects     = 0x2E0
	testDictionary  = 0x3A0
	testStaticBase  = 0x400
	testCode        = 0x500
	testRoutine     = 0x600 // packed 0x300
	testStorySize   = 0x800
)

type storyBuilder struct {
	buf []byte
}

func newStoryBuilder() *storyBuilder {
	b := &storyBuilder{buf: make([]byte, testStorySize)}
	b.buf[0] = 3
	b.word(0x04, testCode)
	b.word(0x06, testCode)
	b.word(0x08, testDictionary)
	b.word(0x0A, testObjects)
	b.word(0x0C, testGlobals)
	b.word(0x0E, testStaticBase)
	b.word(0x18, testAbbrevTable)
	b.word(0x1A, testStorySize/2)
	return b
}

func (b *storyBuilder) word(addr uint32, v uint16) *storyBuilder {
	b.buf[addr] = uint8(v >> 8)
	b.buf[addr+1] = uint8(v)
	return b
}

func (b *storyBuilder) code(addr uint32, code ...byte) *storyBuilder {
	copy(b.buf[addr:], code)
	return b
}

func (b *storyBuilder) global(v uint8, value uint16) *storyBuilder {
	return b.word(testGlobals+2*uint32(v-0x10), value)
}

// zstring writes s as a Z-string and returns the address after it.
func (b *storyBuilder) zstring(addr uint32, s string) uint32 {
	return b.zchars(addr, zcharsFor(s))
}

func (b *storyBuilder) zchars(addr uint32, codes []uint8) uint32 {
	for _, w := range packZChars(codes) {
		b.word(addr, w)
		addr += 2
	}
	return addr
}

func (b *storyBuilder) sealChecksum() {
	var sum uint16
	for _, c := range b.buf[headerSize:] {
		sum += uint16(c)
	}
	b.word(0x1C, sum)
}

func (b *storyBuilder) load(t *testing.T) *StoryImage {
	t.Helper()
	s, err := LoadStory(b.buf)
	if err != nil {
		t.Fatalf("LoadStory: %v", err)
	}
	return s
}

// zcharsFor encodes s with the default alphabets, using single shifts.
func zcharsFor(s string) []uint8 {
	var codes []uint8
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == ' ':
			codes = append(codes, 0)
		case c >= 'a' && c <= 'z':
			codes = append(codes, c-'a'+6)
		case c >= 'A' && c <= 'Z':
			codes = append(codes, 4, c-'A'+6)
		default:
			if idx := strings.IndexByte(alphabets[2][1:], c); idx >= 0 {
				codes = append(codes, 5, uint8(idx)+7)
			} else {
				codes = append(codes, 5, 6, c>>5, c&0x1F)
			}
		}
	}
	return codes
}

// packZChars pads codes with 5s and sets the end bit on the last word.
func packZChars(codes []uint8) []uint16 {
	codes = append([]uint8(nil), codes...)
	for len(codes) == 0 || len(codes)%3 != 0 {
		codes = append(codes, 5)
	}
	words := make([]uint16, 0, len(codes)/3)
	for i := 0; i < len(codes); i += 3 {
		words = append(words, uint16(codes[i])<<10|uint16(codes[i+1])<<5|uint16(codes[i+2]))
	}
	words[len(words)-1] |= 0x8000
	return words
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Machine.RandomSeed = 1
	return cfg
}

func newTestMachine(t *testing.T, b *storyBuilder, cfg Config) (*ZMachine, *strings.Builder) {
	t.Helper()
	out := &strings.Builder{}
	return NewZMachine(b.load(t), cfg, out, nil), out
}

// writeRoutineHarness makes the main routine call a routine at testRoutine
// with no locals, store its result in global 0x10 and quit.
func writeRoutineHarness(b *storyBuilder, body ...byte) {
	b.code(testCode,
		0xE0, 0x3F, 0x03, 0x00, 0x10, // call 0x300 -> G00
		0xBA, // quit
	)
	b.code(testRoutine, 0x00)
	b.code(testRoutine+1, body...)
}

// runRoutine runs body as a routine and returns its result and the output.
func runRoutine(t *testing.T, b *storyBuilder, body ...byte) (uint16, string) {
	t.Helper()
	writeRoutineHarness(b, body...)
	zm, out := newTestMachine(t, b, testConfig())
	if _, err := zm.Run(1000); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !zm.Finished() {
		t.Fatalf("machine did not finish, pc=0x%X", zm.PC())
	}
	return global(t, zm, 0x10), out.String()
}

func global(t *testing.T, zm *ZMachine, v uint8) uint16 {
	t.Helper()
	value, err := zm.Variables().ReadGlobal(v)
	if err != nil {
		t.Fatalf("ReadGlobal(0x%X): %v", v, err)
	}
	return value
}
