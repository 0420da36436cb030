package zmachine

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// UnknownOpcodePolicy decides what executing an unimplemented opcode does.
type UnknownOpcodePolicy int

const (
	// OpcodeFatal halts the machine with ErrUnsupportedOpcode.
	OpcodeFatal UnknownOpcodePolicy = iota
	// OpcodeSkipLenient logs a warning and continues after the decoded
	// operands. Store and branch bytes of the skipped opcode are not
	// accounted for, so this is only meant for compatibility testing.
	OpcodeSkipLenient
)

func (p UnknownOpcodePolicy) String() string {
	if p == OpcodeSkipLenient {
		return "skip-lenient"
	}
	return "fatal"
}

func (p *UnknownOpcodePolicy) UnmarshalText(text []byte) error {
	switch string(text) {
	case "fatal", "":
		*p = OpcodeFatal
	case "skip-lenient":
		*p = OpcodeSkipLenient
	default:
		return fmt.Errorf("unknown opcode policy %q", text)
	}
	return nil
}

// Config represents a zmachine.toml configuration.
type Config struct {
	Machine MachineConfig `toml:"machine"`
	Text    TextConfig    `toml:"text"`
}

// MachineConfig bounds the execution engine.
type MachineConfig struct {
	MaxCallDepth        int                 `toml:"max-call-depth"`
	MaxStack            int                 `toml:"max-stack"`
	InstructionBudget   int                 `toml:"instruction-budget"`
	UnknownOpcodePolicy UnknownOpcodePolicy `toml:"unknown-opcode-policy"`
	RandomSeed          int64               `toml:"random-seed"`
}

// TextConfig configures Z-string decoding.
type TextConfig struct {
	MaxAbbreviationDepth int       `toml:"max-abbreviation-depth"`
	MaxStringLength      int       `toml:"max-string-length"`
	ShiftMode            ShiftMode `toml:"shift-mode"`
}

func DefaultConfig() Config {
	return Config{
		Machine: MachineConfig{
			MaxCallDepth:        MAX_CALL_DEPTH,
			MaxStack:            MAX_STACK,
			UnknownOpcodePolicy: OpcodeFatal,
		},
		Text: TextConfig{
			MaxAbbreviationDepth: MAX_ABBREV_DEPTH,
			MaxStringLength:      MAX_STRING_LENGTH,
			ShiftMode:            ShiftSingle,
		},
	}
}

// ParseConfig reads TOML over the defaults; keys that are absent keep their
// default value.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return Config{}, fmt.Errorf("parse error: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig parses the configuration file at path.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("cannot read %s: %w", path, err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Machine.MaxCallDepth < 1 {
		return fmt.Errorf("max-call-depth must be at least 1, got %d", c.Machine.MaxCallDepth)
	}
	if c.Machine.MaxStack < 1 {
		return fmt.Errorf("max-stack must be at least 1, got %d", c.Machine.MaxStack)
	}
	if c.Machine.InstructionBudget < 0 {
		return fmt.Errorf("instruction-budget cannot be negative")
	}
	if c.Text.MaxAbbreviationDepth < 1 {
		return fmt.Errorf("max-abbreviation-depth must be at least 1, got %d", c.Text.MaxAbbreviationDepth)
	}
	if c.Text.MaxStringLength < 0 {
		return fmt.Errorf("max-string-length cannot be negative")
	}
	return nil
}
