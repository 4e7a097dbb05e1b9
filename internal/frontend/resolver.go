package frontend

import "tacir/internal/frontend/lang"

// FuncSignature is everything callers need to check a call site: the
// callee's name and how many arguments it takes. Every parameter and
// return value in this language is TyInt(64) and argument types are not
// checked at call sites, so arity is the only thing checked before codegen.
type FuncSignature struct {
	Name  string
	Arity int
}

// FuncResolver maps function names to signatures, built in a first pass
// over the whole program so forward and mutually recursive calls resolve
// without a second fixup pass.
type FuncResolver struct {
	sigs map[string]FuncSignature
}

// NewFuncResolver scans every top-level function declaration in program.
func NewFuncResolver(program *lang.Program) *FuncResolver {
	r := &FuncResolver{sigs: make(map[string]FuncSignature, len(program.Functions))}
	for _, fn := range program.Functions {
		r.sigs[fn.Name] = FuncSignature{Name: fn.Name, Arity: len(fn.Params)}
	}
	return r
}

// Lookup returns fn's signature, if declared.
func (r *FuncResolver) Lookup(name string) (FuncSignature, bool) {
	sig, ok := r.sigs[name]
	return sig, ok
}
