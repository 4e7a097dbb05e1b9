// Package frontend drives SSA construction from a parsed lang.Program: one
// tac.TacFunc and one ssa.Builder per function, joined into a single
// tac.Program through a shared FuncResolver. Control-flow lowering builds
// the cond/loop/next block triple for while and the if/else/next triple
// for if, and opens a fresh block after every terminating statement so
// trailing statements still land in valid IR.
package frontend

import (
	"strconv"

	"tacir/internal/frontend/lang"
	"tacir/internal/ssa"
	"tacir/internal/tac"
)

var intTy = tac.TyInt(64)

// loopTarget is the continue/break destination of one enclosing while loop.
type loopTarget struct {
	continueTo tac.BBId
	breakTo    tac.BBId
}

// Driver lowers an entire program, sharing one FuncResolver across every
// function body it compiles.
type Driver struct {
	filename string
	resolver *FuncResolver
}

// NewDriver creates a Driver for a file named filename (used only for
// diagnostics), resolving calls against resolver.
func NewDriver(filename string, resolver *FuncResolver) *Driver {
	return &Driver{filename: filename, resolver: resolver}
}

// LowerProgram lowers every function in program into a tac.Program.
func (d *Driver) LowerProgram(program *lang.Program) (*tac.Program, error) {
	out := tac.NewProgram()
	for _, fn := range program.Functions {
		tacFn, err := d.lowerFunction(fn)
		if err != nil {
			return nil, err
		}
		out.Functions[fn.Name] = tacFn
	}
	return out, nil
}

func (d *Driver) pos() Position {
	return Position{Filename: d.filename}
}

// funcCompiler holds the per-function state of a single lowering pass:
// the editor/builder pair working on one TacFunc, which locals are in
// scope, and the stack of enclosing loops' continue/break targets.
type funcCompiler struct {
	driver   *Driver
	editor   *tac.FuncEditor
	builder  *ssa.Builder
	declared map[string]bool
	loops    []loopTarget
}

func (d *Driver) lowerFunction(fn *lang.Function) (*tac.TacFunc, error) {
	tacFn := tac.NewTacFunc(fn.Name, intTy)
	editor := tac.NewFuncEditor(tacFn)
	entry := editor.NewBB()
	tacFn.BBSetFirst(entry)
	editor.SetCurrentBB(entry)

	builder := ssa.NewBuilder(editor)
	fc := &funcCompiler{driver: d, editor: editor, builder: builder, declared: make(map[string]bool)}

	var paramNames []string
	for _, p := range fn.Params {
		paramNames = append(paramNames, p.Name)
		fc.declared[p.Name] = true
	}
	builder.DeclareParams(entry, paramNames, intTy)
	builder.SealBlock(entry) // entry has no predecessors, ever

	end, err := fc.lowerBlock(fn.Body, entry)
	if err != nil {
		return nil, err
	}

	editor.SetCurrentBB(end)
	if err := editor.AddBranch(tac.Return{HasValue: false}, end); err != nil {
		panic(err) // end was just created by this same editor; always exists
	}
	builder.MarkFilled(end)
	return tacFn, nil
}

// lowerBlock lowers every statement of block in order, threading the
// "currently active" block through (which changes across if/while/return).
func (fc *funcCompiler) lowerBlock(block *lang.Block, bb tac.BBId) (tac.BBId, error) {
	cur := bb
	for _, stmt := range block.Statements {
		next, err := fc.lowerStatement(stmt, cur)
		if err != nil {
			return tac.NilBBId, err
		}
		cur = next
	}
	return cur, nil
}

func (fc *funcCompiler) lowerStatement(stmt *lang.Statement, bb tac.BBId) (tac.BBId, error) {
	switch {
	case stmt.Let != nil:
		return fc.lowerLet(stmt.Let, bb)
	case stmt.Assign != nil:
		return fc.lowerAssign(stmt.Assign, bb)
	case stmt.If != nil:
		return fc.lowerIf(stmt.If, bb)
	case stmt.While != nil:
		return fc.lowerWhile(stmt.While, bb)
	case stmt.Return != nil:
		return fc.lowerReturn(stmt.Return, bb)
	case stmt.Break != nil:
		return fc.lowerBreak(bb)
	case stmt.Continue != nil:
		return fc.lowerContinue(bb)
	case stmt.ExprStmt != nil:
		_, err := fc.lowerExpr(stmt.ExprStmt.Expr, bb)
		return bb, err
	default:
		panic("frontend: statement with no alternative set")
	}
}

func (fc *funcCompiler) lowerLet(s *lang.LetStmt, bb tac.BBId) (tac.BBId, error) {
	v, err := fc.lowerExpr(s.Expr, bb)
	if err != nil {
		return tac.NilBBId, err
	}
	fc.builder.DeclareVariable(s.Name, intTy)
	fc.declared[s.Name] = true
	fc.builder.WriteVariable(s.Name, bb, v)
	return bb, nil
}

func (fc *funcCompiler) lowerAssign(s *lang.AssignStmt, bb tac.BBId) (tac.BBId, error) {
	if !fc.declared[s.Name] {
		return tac.NilBBId, errUndefinedVariable(fc.driver.pos(), s.Name)
	}
	v, err := fc.lowerExpr(s.Expr, bb)
	if err != nil {
		return tac.NilBBId, err
	}
	fc.builder.WriteVariable(s.Name, bb, v)
	return bb, nil
}

// openDeadBlock opens a fresh, zero-predecessor block after a terminating
// statement (return/break/continue), so trailing statements still have
// somewhere valid to lower into without special-casing "nothing follows a
// terminator". The block is sealed immediately since it provably never
// gains a predecessor (nothing in this language can jump into code placed
// after an unconditional terminator); it is left in the function rather
// than pruned, since this IR never garbage-collects unreachable blocks.
func (fc *funcCompiler) openDeadBlock() tac.BBId {
	dead := fc.editor.NewBB()
	fc.builder.SealBlock(dead)
	return dead
}

func (fc *funcCompiler) lowerReturn(s *lang.ReturnStmt, bb tac.BBId) (tac.BBId, error) {
	fc.editor.SetCurrentBB(bb)
	if s.Expr != nil {
		v, err := fc.lowerExpr(s.Expr, bb)
		if err != nil {
			return tac.NilBBId, err
		}
		if err := fc.editor.AddBranch(tac.Return{HasValue: true, Value: v}, bb); err != nil {
			panic(err)
		}
	} else {
		if err := fc.editor.AddBranch(tac.Return{HasValue: false}, bb); err != nil {
			panic(err)
		}
	}
	fc.builder.MarkFilled(bb)
	return fc.openDeadBlock(), nil
}

func (fc *funcCompiler) lowerBreak(bb tac.BBId) (tac.BBId, error) {
	if len(fc.loops) == 0 {
		return tac.NilBBId, errLoopControlOutsideLoop(fc.driver.pos(), "break")
	}
	target := fc.loops[len(fc.loops)-1].breakTo
	fc.editor.SetCurrentBB(bb)
	if err := fc.editor.AddBranch(tac.Jump{Target: target}, bb); err != nil {
		panic(err)
	}
	fc.builder.MarkFilled(bb)
	return fc.openDeadBlock(), nil
}

func (fc *funcCompiler) lowerContinue(bb tac.BBId) (tac.BBId, error) {
	if len(fc.loops) == 0 {
		return tac.NilBBId, errLoopControlOutsideLoop(fc.driver.pos(), "continue")
	}
	target := fc.loops[len(fc.loops)-1].continueTo
	fc.editor.SetCurrentBB(bb)
	if err := fc.editor.AddBranch(tac.Jump{Target: target}, bb); err != nil {
		panic(err)
	}
	fc.builder.MarkFilled(bb)
	return fc.openDeadBlock(), nil
}

// lowerIf builds if_bb, an optional else_bb, and next_bb; marks the
// incoming block filled once its own branches are emitted (it was already
// sealed before this statement was lowered), seals each arm as soon as it's
// created (each has exactly one predecessor: bb), and seals next_bb last,
// once both arms' ends are known.
func (fc *funcCompiler) lowerIf(s *lang.IfStmt, bb tac.BBId) (tac.BBId, error) {
	cond, err := fc.lowerExpr(s.Cond, bb)
	if err != nil {
		return tac.NilBBId, err
	}

	thenBB := fc.editor.NewBB()
	nextBB := fc.editor.NewBB()
	elseBB := nextBB
	hasElse := s.Else != nil
	if hasElse {
		elseBB = fc.editor.NewBB()
	}

	fc.editor.SetCurrentBB(bb)
	if err := fc.editor.AddBranch(tac.CondJump{Cond: cond, Target: thenBB}, bb); err != nil {
		panic(err)
	}
	if err := fc.editor.AddBranch(tac.Jump{Target: elseBB}, bb); err != nil {
		panic(err)
	}
	fc.builder.MarkFilled(bb)

	fc.builder.SealBlock(thenBB)
	thenEnd, err := fc.lowerBlock(s.Then, thenBB)
	if err != nil {
		return tac.NilBBId, err
	}
	fc.editor.SetCurrentBB(thenEnd)
	if err := fc.editor.AddBranch(tac.Jump{Target: nextBB}, thenEnd); err != nil {
		panic(err)
	}
	fc.builder.MarkFilled(thenEnd)

	if hasElse {
		fc.builder.SealBlock(elseBB)
		elseEnd, err := fc.lowerBlock(s.Else, elseBB)
		if err != nil {
			return tac.NilBBId, err
		}
		fc.editor.SetCurrentBB(elseEnd)
		if err := fc.editor.AddBranch(tac.Jump{Target: nextBB}, elseEnd); err != nil {
			panic(err)
		}
		fc.builder.MarkFilled(elseEnd)
	}

	fc.builder.SealBlock(nextBB)
	return nextBB, nil
}

// lowerWhile jumps straight from bb to cond_bb; cond_bb cannot be sealed
// until the back-edge from the loop body exists, so it stays open while the
// body is lowered; loop_bb seals immediately (cond_bb is its only
// predecessor); cond_bb and next_bb seal last, once the body's end block
// (the back-edge source) is known.
func (fc *funcCompiler) lowerWhile(s *lang.WhileStmt, bb tac.BBId) (tac.BBId, error) {
	condBB := fc.editor.NewBB()
	fc.editor.SetCurrentBB(bb)
	if err := fc.editor.AddBranch(tac.Jump{Target: condBB}, bb); err != nil {
		panic(err)
	}
	fc.builder.MarkFilled(bb)

	cond, err := fc.lowerExpr(s.Cond, condBB)
	if err != nil {
		return tac.NilBBId, err
	}

	loopBB := fc.editor.NewBB()
	nextBB := fc.editor.NewBB()
	fc.editor.SetCurrentBB(condBB)
	if err := fc.editor.AddBranch(tac.CondJump{Cond: cond, Target: loopBB}, condBB); err != nil {
		panic(err)
	}
	if err := fc.editor.AddBranch(tac.Jump{Target: nextBB}, condBB); err != nil {
		panic(err)
	}
	fc.builder.MarkFilled(condBB)

	fc.loops = append(fc.loops, loopTarget{continueTo: condBB, breakTo: nextBB})
	fc.builder.SealBlock(loopBB)
	loopEnd, err := fc.lowerBlock(s.Body, loopBB)
	fc.loops = fc.loops[:len(fc.loops)-1]
	if err != nil {
		return tac.NilBBId, err
	}

	fc.editor.SetCurrentBB(loopEnd)
	if err := fc.editor.AddBranch(tac.Jump{Target: condBB}, loopEnd); err != nil {
		panic(err)
	}
	fc.builder.MarkFilled(loopEnd)

	fc.builder.SealBlock(condBB)
	fc.builder.SealBlock(nextBB)
	return nextBB, nil
}

// valueType returns v's result type, or false if v is a bare immediate:
// literals carry no type of their own (they're compatible with whatever
// typed operand they appear beside), so they are exempt from the equality
// check lowerExpr applies to its two operands.
func (fc *funcCompiler) valueType(v tac.Value) (tac.Ty, bool) {
	id, ok := v.AsDest()
	if !ok {
		return tac.Ty{}, false
	}
	return fc.editor.Func.InstGet(id).Ty, true
}

// lowerExpr never itself changes which block is "active": this language's
// expressions have no short-circuit operators or calls that branch, so bb
// is used purely to position inserted instructions.
func (fc *funcCompiler) lowerExpr(e *lang.Expr, bb tac.BBId) (tac.Value, error) {
	fc.editor.SetCurrentBB(bb)
	left, err := fc.lowerUnary(e.Left, bb)
	if err != nil {
		return tac.Value{}, err
	}
	for _, op := range e.Ops {
		right, err := fc.lowerUnary(op.Right, bb)
		if err != nil {
			return tac.Value{}, err
		}
		// Operand types must agree before a Binary is built. This
		// language's only non-immediate types are TyInt(64) (ordinary
		// values) and TyInt(1) (comparison results), so a mismatch surfaces
		// whenever a comparison's result is combined directly with a plain
		// int-typed operand, e.g. `x + (a < b)`.
		if lt, lok := fc.valueType(left); lok {
			if rt, rok := fc.valueType(right); rok && lt != rt {
				return tac.Value{}, errTypeMismatch(fc.driver.pos(), lt, rt)
			}
		}
		bop := binOpFor(op.Operator)
		resultTy := intTy
		if bop.IsComparison() {
			resultTy = tac.TyInt(1)
		}
		id := fc.editor.InsertAfterCurrentPlace(tac.Inst{Kind: tac.Binary{Op: bop, Lhs: left, Rhs: right}, Ty: resultTy})
		left = tac.Dest(id)
	}
	return left, nil
}

func (fc *funcCompiler) lowerUnary(u *lang.UnaryExpr, bb tac.BBId) (tac.Value, error) {
	val, err := fc.lowerPrimary(u.Value, bb)
	if err != nil {
		return tac.Value{}, err
	}
	if u.Operator == nil {
		return val, nil
	}
	fc.editor.SetCurrentBB(bb)
	switch *u.Operator {
	case "-":
		negTy := intTy
		if t, ok := fc.valueType(val); ok {
			negTy = t
		}
		id := fc.editor.InsertAfterCurrentPlace(tac.Inst{Kind: tac.Binary{Op: tac.Sub, Lhs: tac.Imm(0), Rhs: val}, Ty: negTy})
		return tac.Dest(id), nil
	case "!":
		// Eq is a comparison, so it produces TyInt(1) like every other
		// comparison (BinaryOp.IsComparison) rather than the operand's type.
		id := fc.editor.InsertAfterCurrentPlace(tac.Inst{Kind: tac.Binary{Op: tac.Eq, Lhs: val, Rhs: tac.Imm(0)}, Ty: tac.TyInt(1)})
		return tac.Dest(id), nil
	default:
		panic("frontend: unknown unary operator " + *u.Operator)
	}
}

func (fc *funcCompiler) lowerPrimary(p *lang.PrimaryExpr, bb tac.BBId) (tac.Value, error) {
	switch {
	case p.Call != nil:
		return fc.lowerCall(p.Call, bb)
	case p.Number != nil:
		n, err := strconv.ParseInt(*p.Number, 10, 64)
		if err != nil {
			panic(err) // lexer only admits digit runs
		}
		return tac.Imm(tac.Immediate(n)), nil
	case p.Ident != nil:
		if !fc.declared[*p.Ident] {
			return tac.Value{}, errUndefinedVariable(fc.driver.pos(), *p.Ident)
		}
		return fc.builder.ReadVariable(*p.Ident, bb), nil
	case p.Parens != nil:
		return fc.lowerExpr(p.Parens, bb)
	default:
		panic("frontend: primary expression with no alternative set")
	}
}

func (fc *funcCompiler) lowerCall(c *lang.CallExpr, bb tac.BBId) (tac.Value, error) {
	sig, ok := fc.driver.resolver.Lookup(c.Name)
	if !ok {
		return tac.Value{}, errUndefinedFunction(fc.driver.pos(), c.Name)
	}
	if len(c.Args) != sig.Arity {
		return tac.Value{}, errArityMismatch(fc.driver.pos(), c.Name, sig.Arity, len(c.Args))
	}

	params := make([]tac.Value, len(c.Args))
	for i, a := range c.Args {
		v, err := fc.lowerExpr(a, bb)
		if err != nil {
			return tac.Value{}, err
		}
		params[i] = v
	}

	fc.editor.SetCurrentBB(bb)
	id := fc.editor.InsertAfterCurrentPlace(tac.Inst{Kind: tac.FunctionCall{Name: c.Name, Params: params}, Ty: intTy})
	return tac.Dest(id), nil
}

func binOpFor(operator string) tac.BinaryOp {
	switch operator {
	case "+":
		return tac.Add
	case "-":
		return tac.Sub
	case "*":
		return tac.Mul
	case "/":
		return tac.Div
	case "<":
		return tac.Lt
	case ">":
		return tac.Gt
	case "<=":
		return tac.Le
	case ">=":
		return tac.Ge
	case "==":
		return tac.Eq
	case "!=":
		return tac.Ne
	default:
		panic("frontend: unknown binary operator " + operator)
	}
}
