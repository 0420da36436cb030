package zmachine

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config is invalid: %v", err)
	}
	if cfg.Machine.MaxCallDepth != MAX_CALL_DEPTH || cfg.Machine.MaxStack != MAX_STACK {
		t.Errorf("machine limits = %+v", cfg.Machine)
	}
	if cfg.Machine.UnknownOpcodePolicy != OpcodeFatal {
		t.Errorf("policy = %s, want fatal", cfg.Machine.UnknownOpcodePolicy)
	}
	if cfg.Text.MaxAbbreviationDepth != MAX_ABBREV_DEPTH || cfg.Text.ShiftMode != ShiftSingle {
		t.Errorf("text = %+v", cfg.Text)
	}
}

func TestParseConfig(t *testing.T) {
	data := `
[machine]
max-call-depth = 16
max-stack = 256
instruction-budget = 100000
unknown-opcode-policy = "skip-lenient"
random-seed = 42

[text]
max-abbreviation-depth = 2
max-string-length = 80
shift-mode = "lock"
`
	cfg, err := ParseConfig([]byte(data))
	if err != nil {
		t.Fatal(err)
	}

	want := Config{
		Machine: MachineConfig{
			MaxCallDepth:        16,
			MaxStack:            256,
			InstructionBudget:   100000,
			UnknownOpcodePolicy: OpcodeSkipLenient,
			RandomSeed:          42,
		},
		Text: TextConfig{
			MaxAbbreviationDepth: 2,
			MaxStringLength:      80,
			ShiftMode:            ShiftLock,
		},
	}
	if cfg != want {
		t.Errorf("ParseConfig = %+v, want %+v", cfg, want)
	}
}

func TestParseConfigKeepsDefaults(t *testing.T) {
	cfg, err := ParseConfig([]byte("[machine]\ninstruction-budget = 10\n"))
	if err != nil {
		t.Fatal(err)
	}
	want := DefaultConfig()
	want.Machine.InstructionBudget = 10
	if cfg != want {
		t.Errorf("ParseConfig = %+v, want %+v", cfg, want)
	}
}

func TestParseConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"syntax", "[machine\n"},
		{"unknown policy", "[machine]\nunknown-opcode-policy = \"ignore\"\n"},
		{"unknown shift mode", "[text]\nshift-mode = \"sticky\"\n"},
		{"zero call depth", "[machine]\nmax-call-depth = 0\n"},
		{"zero stack", "[machine]\nmax-stack = 0\n"},
		{"negative budget", "[machine]\ninstruction-budget = -1\n"},
		{"zero abbreviation depth", "[text]\nmax-abbreviation-depth = 0\n"},
		{"negative string length", "[text]\nmax-string-length = -5\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseConfig([]byte(tt.data)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "zmachine.toml")
	if err := os.WriteFile(path, []byte("[text]\nshift-mode = \"lock\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Text.ShiftMode != ShiftLock {
		t.Errorf("shift mode = %s, want lock", cfg.Text.ShiftMode)
	}

	_, err = LoadConfig(filepath.Join(dir, "missing.toml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("LoadConfig of missing file error = %v", err)
	}

	bad := filepath.Join(dir, "bad.toml")
	_ = os.WriteFile(bad, []byte("[machine]\nmax-stack = 0\n"), 0o644)
	if _, err := LoadConfig(bad); err == nil || !strings.Contains(err.Error(), "bad.toml") {
		t.Errorf("LoadConfig of invalid file error = %v", err)
	}
}

func TestConfigReachesMachine(t *testing.T) {
	b := newStoryBuilder()
	b.code(testCode, 0xB2)
	end := b.zstring(testCode+1, "Hello")
	b.code(end, 0xBA)

	cfg := testConfig()
	cfg.Text.ShiftMode = ShiftLock
	cfg.Text.MaxStringLength = 3
	zm, out := newTestMachine(t, b, cfg)

	if _, err := zm.Run(10); err != nil {
		t.Fatal(err)
	}
	if out.String() != "HEL" {
		t.Errorf("output = %q, want %q", out.String(), "HEL")
	}
}

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		err  error
		kind string
		ok   bool
	}{
		{ErrMalformedHeader, "MalformedHeader", false},
		{fmt.Errorf("%w: at 0x10", ErrOutOfBounds), "OutOfBounds", false},
		{ErrReadOnlyViolation, "ReadOnlyViolation", false},
		{ErrStackUnderflow, "StackUnderflow", false},
		{ErrStackOverflow, "StackOverflow", false},
		{ErrInvalidLocal, "InvalidLocal", false},
		{ErrAbbreviationCycle, "AbbreviationCycle", true},
		{ErrOutputOverflow, "OutputOverflow", true},
		{ErrUnsupportedOpcode, "UnsupportedOpcode", false},
		{fmt.Errorf("%w: EOF", ErrNoInput), "NoInput", true},
		{ErrInvalidObject, "InvalidObject", false},
		{ErrDivisionByZero, "DivisionByZero", false},
		{errors.New("other"), "Unknown", false},
	}
	for _, tt := range tests {
		if got := ErrorKind(tt.err); got != tt.kind {
			t.Errorf("ErrorKind(%v) = %q, want %q", tt.err, got, tt.kind)
		}
		if got := IsRecoverable(tt.err); got != tt.ok {
			t.Errorf("IsRecoverable(%v) = %v, want %v", tt.err, got, tt.ok)
		}
	}

	fault := &Fault{Session: "s", PC: 0x1234, Opcode: 0x8C, Err: fmt.Errorf("%w: jump", ErrOutOfBounds)}
	if !errors.Is(fault, ErrOutOfBounds) || fault.Kind() != "OutOfBounds" {
		t.Errorf("fault = %v", fault)
	}
	if !strings.HasPrefix(fault.Error(), "zmachine: OutOfBounds at pc=0x01234 opcode=0x8C") {
		t.Errorf("Error = %q", fault.Error())
	}
}
