package frontend

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"tacir/internal/tac"
)

// Position locates a diagnostic in a source file.
type Position struct {
	Filename string
	Line     int
	Column   int
}

func (p Position) String() string {
	return fmt.Sprintf("%s:%d:%d", p.Filename, p.Line, p.Column)
}

// Error codes this front-end raises, grouped the way the rest of the
// compiler's diagnostics are: E0001-E0099 for semantic analysis, E0600-E0699
// for flow-control errors. CodeInvalidArguments reuses the function-call
// argument-error slot rather than overloading CodeTypeMismatch for arity.
const (
	CodeUndefinedVariable      = "E0001"
	CodeUndefinedFunction      = "E0002"
	CodeTypeMismatch           = "E0003"
	CodeInvalidArguments       = "E0013"
	CodeLoopControlOutsideLoop = "E0601"
)

// CompilerError is a structured, positioned diagnostic. It carries only a
// code, message and position: this front-end's diagnostics are all
// single-cause and never need suggestions or supplementary notes.
type CompilerError struct {
	Code     string
	Message  string
	Position Position
}

func (e *CompilerError) Error() string {
	return fmt.Sprintf("%s: [%s] %s", e.Position, e.Code, e.Message)
}

func errUndefinedVariable(pos Position, name string) error {
	return &CompilerError{Code: CodeUndefinedVariable, Position: pos, Message: fmt.Sprintf("undefined variable %q", name)}
}

func errUndefinedFunction(pos Position, name string) error {
	return &CompilerError{Code: CodeUndefinedFunction, Position: pos, Message: fmt.Sprintf("undefined function %q", name)}
}

func errArityMismatch(pos Position, name string, want, got int) error {
	return &CompilerError{Code: CodeInvalidArguments, Position: pos, Message: fmt.Sprintf("%q expects %d argument(s), got %d", name, want, got)}
}

// errTypeMismatch reports an operand-type disagreement caught while
// lowering a Binary expression. It wraps tac.ErrTypeMismatch so that
// internal/tac's own reportable error kind backs the message instead of
// being reimplemented here.
func errTypeMismatch(pos Position, expected, found tac.Ty) error {
	return &CompilerError{
		Code:     CodeTypeMismatch,
		Position: pos,
		Message:  tac.ErrTypeMismatch(expected, found).Error(),
	}
}

func errLoopControlOutsideLoop(pos Position, keyword string) error {
	return &CompilerError{Code: CodeLoopControlOutsideLoop, Position: pos, Message: fmt.Sprintf("%q outside of a loop", keyword)}
}

// Report prints a *CompilerError as an "error[CODE]: message" line followed
// by a "  --> position" line, with the "error" header bolded and colored
// for terminal output. Any other error is printed as "error: <err>" in red.
func Report(err error) {
	var ce *CompilerError
	if ae, ok := err.(*CompilerError); ok {
		ce = ae
	}
	if ce == nil {
		color.Red("error: %s", err)
		return
	}
	bold := color.New(color.Bold, color.FgRed).SprintFunc()
	fmt.Println(strings.TrimSpace(fmt.Sprintf("%s[%s]: %s\n  --> %s", bold("error"), ce.Code, ce.Message, ce.Position)))
}
