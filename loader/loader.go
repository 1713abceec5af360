// Package loader reads APEX assembly programs.
//
// A program file holds one instruction per line in the comma separated APEX
// format, for example:
//
//	MOVC,R0,#5
//	STORE,R0,R0,#8
//	BZ,#8
//
// Blank lines are skipped. Text after ';' or "//" is a comment.
package loader

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sarchlab/apexsim/insts"
)

// ErrSyntax is matched by every error reported for malformed program text.
var ErrSyntax = errors.New("syntax error")

// SyntaxError describes a line of program text that could not be decoded.
type SyntaxError struct {
	// Line is the 1-based line number.
	Line int
	// Text is the offending line with comments removed.
	Text string
	// Err is the underlying decode error.
	Err error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %q: %v", e.Line, e.Text, e.Err)
}

// Unwrap returns the decode error.
func (e *SyntaxError) Unwrap() error {
	return e.Err
}

// Is makes every SyntaxError match ErrSyntax.
func (e *SyntaxError) Is(target error) bool {
	return target == ErrSyntax
}

// Load reads and decodes the program file at path. The program starts at
// insts.DefaultCodeBase.
func Load(path string) (*insts.Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open program file: %w", err)
	}
	defer func() { _ = f.Close() }()

	prog, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	return prog, nil
}

// Parse decodes a program from r.
func Parse(r io.Reader) (*insts.Program, error) {
	decoder := insts.NewDecoder()
	prog := insts.NewProgram()

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++

		text := stripComment(scanner.Text())
		if text == "" {
			continue
		}

		inst, err := decoder.Decode(text)
		if err != nil {
			return nil, &SyntaxError{Line: lineNo, Text: text, Err: err}
		}
		prog.Insts = append(prog.Insts, inst)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read program: %w", err)
	}

	return prog, nil
}

// ParseLine decodes a single instruction. It returns a SyntaxError for
// line 1 when text is malformed.
func ParseLine(text string) (insts.Instruction, error) {
	text = stripComment(text)
	inst, err := insts.NewDecoder().Decode(text)
	if err != nil {
		return insts.Instruction{}, &SyntaxError{Line: 1, Text: text, Err: err}
	}
	return inst, nil
}

func stripComment(line string) string {
	if i := strings.Index(line, "//"); i >= 0 {
		line = line[:i]
	}
	if i := strings.IndexByte(line, ';'); i >= 0 {
		line = line[:i]
	}
	return strings.TrimSpace(line)
}
