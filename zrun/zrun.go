package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/tliron/commonlog"
	"golang.org/x/term"

	"github.com/zcore/zmachine"

	_ "github.com/tliron/commonlog/simple"
)

// prompter shows a prompt before each line when a person is typing.
type prompter struct {
	lines  *zmachine.LineReader
	out    *bufio.Writer
	prompt bool
}

func (p *prompter) ReadLine() (string, error) {
	if p.prompt {
		p.out.WriteString("\n> ")
	}
	p.out.Flush()
	return p.lines.ReadLine()
}

func main() {
	configPath := flag.String("config", "", "TOML configuration file")
	budget := flag.Int("budget", 0, "Stop after this many instructions (0 = no limit)")
	lenient := flag.Bool("lenient", false, "Skip unsupported opcodes instead of halting")
	shiftLock := flag.Bool("shift-lock", false, "Treat Z-characters 4 and 5 as shift locks")
	verbose := flag.Int("v", 0, "Log verbosity (1 = info, 2 = debug)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: zrun [options] story.z3\n\n")
		fmt.Fprintf(os.Stderr, "Runs a version 3 Z-machine story on stdin/stdout.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	commonlog.Configure(*verbose, nil)

	cfg := zmachine.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = zmachine.LoadConfig(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	if *budget > 0 {
		cfg.Machine.InstructionBudget = *budget
	}
	if *lenient {
		cfg.Machine.UnknownOpcodePolicy = zmachine.OpcodeSkipLenient
	}
	if *shiftLock {
		cfg.Text.ShiftMode = zmachine.ShiftLock
	}

	buffer, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	story, err := zmachine.LoadStory(buffer)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	input := &prompter{
		lines:  zmachine.NewLineReader(os.Stdin),
		out:    out,
		prompt: term.IsTerminal(int(os.Stdin.Fd())),
	}

	zm := zmachine.NewZMachine(story, cfg, out, input)

	executed, err := zm.Run(0)
	out.Flush()

	switch {
	case err == nil && !zm.Finished():
		fmt.Fprintf(os.Stderr, "\nStopped after %d instructions at 0x%05X\n", executed, zm.PC())
	case errors.Is(err, zmachine.ErrNoInput):
		// end of input ends the session
	case err != nil:
		fmt.Fprintf(os.Stderr, "\n%v\n", err)
		var fault *zmachine.Fault
		if errors.As(err, &fault) {
			fmt.Fprintf(os.Stderr, "session %s\n", fault.Session)
		}
		out.Flush()
		os.Exit(1)
	}
}
