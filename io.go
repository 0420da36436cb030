package zmachine

import (
	"bufio"
	"io"
	"strings"
)

// InputSource supplies one line of player input for the read opcode. It may
// block. Returning io.EOF means there is no more input.
type InputSource interface {
	ReadLine() (string, error)
}

// LineReader is an InputSource over any io.Reader, e.g. os.Stdin.
type LineReader struct {
	scanner *bufio.Scanner
}

func NewLineReader(r io.Reader) *LineReader {
	return &LineReader{scanner: bufio.NewScanner(r)}
}

func (l *LineReader) ReadLine() (string, error) {
	if !l.scanner.Scan() {
		if err := l.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimRight(l.scanner.Text(), "\r"), nil
}
