package frontend_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tacir/internal/frontend"
	"tacir/internal/frontend/lang"
	"tacir/internal/tac"
)

func lower(t *testing.T, source string) *tac.Program {
	t.Helper()
	program, err := lang.Parse("test.tl", source)
	require.NoError(t, err)

	resolver := frontend.NewFuncResolver(program)
	driver := frontend.NewDriver("test.tl", resolver)
	tacProgram, err := driver.LowerProgram(program)
	require.NoError(t, err)
	return tacProgram
}

// TestWhileWithBreakAndContinue lowers the scenario S7 program (a while
// loop using both continue and break) and checks that the result passes
// tac.CheckInvariants; the jump targets themselves are not asserted.
func TestWhileWithBreakAndContinue(t *testing.T) {
	src := `
fn count(n) {
	let i = 0;
	while i < n {
		if i == 2 {
			i = i + 1;
			continue;
		}
		if i == 5 {
			break;
		}
		i = i + 1;
	}
	return i;
}
`
	prog := lower(t, src)
	fn, ok := prog.Functions["count"]
	require.True(t, ok)

	problems := tac.CheckInvariants(fn)
	assert.Empty(t, problems)
}

// TestMultiFunctionProgramWithCall covers scenario S8: a call site records
// the correct callee name and each function gets its own, independently
// numbered TacFunc.
func TestMultiFunctionProgramWithCall(t *testing.T) {
	src := `
fn square(x) {
	return x * x;
}

fn sumOfSquares(a, b) {
	return square(a) + square(b);
}
`
	prog := lower(t, src)
	require.Len(t, prog.Functions, 2)

	caller, ok := prog.Functions["sumOfSquares"]
	require.True(t, ok)

	var sawCall bool
	for _, entry := range caller.AllInstUnordered() {
		if call, ok := entry.Inst.Kind.(tac.FunctionCall); ok {
			assert.Equal(t, "square", call.Name)
			sawCall = true
		}
	}
	assert.True(t, sawCall, "expected a call to square in sumOfSquares")

	for _, problems := range [][]string{
		tac.CheckInvariants(prog.Functions["square"]),
		tac.CheckInvariants(caller),
	} {
		assert.Empty(t, problems)
	}
}

// TestBreakOutsideLoopIsAnError exercises the driver-level diagnostic for
// break/continue used outside any enclosing loop.
func TestBreakOutsideLoopIsAnError(t *testing.T) {
	src := `
fn f() {
	break;
}
`
	program, err := lang.Parse("test.tl", src)
	require.NoError(t, err)

	resolver := frontend.NewFuncResolver(program)
	driver := frontend.NewDriver("test.tl", resolver)
	_, err = driver.LowerProgram(program)
	require.Error(t, err)

	ce, ok := err.(*frontend.CompilerError)
	require.True(t, ok)
	assert.Equal(t, frontend.CodeLoopControlOutsideLoop, ce.Code)
}

// TestIfWithoutElseReassignmentJoins lowers an if with no else whose one
// arm reassigns a local, so the join block merges the arm's value with the
// value from before the if. It checks that lowering succeeds and
// invariants hold; it does not assert the shape of the join's phi.
func TestIfWithoutElseReassignmentJoins(t *testing.T) {
	src := `
fn abs(x) {
	let r = x;
	if x < 0 {
		r = 0 - x;
	}
	return r;
}
`
	prog := lower(t, src)
	fn, ok := prog.Functions["abs"]
	require.True(t, ok)
	assert.Empty(t, tac.CheckInvariants(fn))
}

// TestComparisonResultMismatchesPlainInt checks that operand types are
// compared before a Binary is built: a comparison produces TyInt(1), so
// combining one directly with a plain TyInt(64) value is a genuine type
// mismatch in this language, surfaced through tac.ErrTypeMismatch.
func TestComparisonResultMismatchesPlainInt(t *testing.T) {
	src := `
fn f(x, a, b) {
	return x + (a < b);
}
`
	program, err := lang.Parse("test.tl", src)
	require.NoError(t, err)

	resolver := frontend.NewFuncResolver(program)
	driver := frontend.NewDriver("test.tl", resolver)
	_, err = driver.LowerProgram(program)
	require.Error(t, err)

	ce, ok := err.(*frontend.CompilerError)
	require.True(t, ok)
	assert.Equal(t, frontend.CodeTypeMismatch, ce.Code)
}

func TestUndefinedVariableIsReported(t *testing.T) {
	src := `
fn f() {
	return y;
}
`
	program, err := lang.Parse("test.tl", src)
	require.NoError(t, err)

	resolver := frontend.NewFuncResolver(program)
	driver := frontend.NewDriver("test.tl", resolver)
	_, err = driver.LowerProgram(program)
	require.Error(t, err)
	ce, ok := err.(*frontend.CompilerError)
	require.True(t, ok)
	assert.Equal(t, frontend.CodeUndefinedVariable, ce.Code)
}
