// Command tacdump parses a source file in the demonstration language
// (internal/frontend/lang), lowers it to SSA-form TAC, and prints a
// colorized per-function, per-block instruction dump. This is a debugging
// aid only: there is no parser for this dump format and no round-trip
// guarantee.
package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"

	"tacir/internal/frontend"
	"tacir/internal/frontend/lang"
	"tacir/internal/tac"
)

var log = commonlog.GetLogger("tacdump")

func main() {
	commonlog.Configure(1, nil)

	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <source-file>\n", os.Args[0])
		os.Exit(2)
	}
	path := os.Args[1]

	source, err := os.ReadFile(path)
	if err != nil {
		log.Errorf("failed to read %s: %s", path, err)
		os.Exit(1)
	}

	log.Debugf("parsing %s", path)
	program, err := lang.Parse(path, string(source))
	if err != nil {
		os.Exit(1) // lang.Parse already reported the syntax error
	}

	resolver := frontend.NewFuncResolver(program)
	driver := frontend.NewDriver(path, resolver)
	tacProgram, err := driver.LowerProgram(program)
	if err != nil {
		log.Errorf("lowering %s failed: %s", path, err)
		frontend.Report(err)
		os.Exit(1)
	}

	names := make([]string, 0, len(tacProgram.Functions))
	for name := range tacProgram.Functions {
		names = append(names, name)
	}
	sort.Strings(names)
	log.Infof("lowered %d function(s) from %s", len(names), path)

	for _, name := range names {
		dumpFunction(tacProgram.Functions[name])
	}
}

func dumpFunction(fn *tac.TacFunc) {
	color.New(color.Bold).Printf("func %s\n", fn.Name)

	problems := tac.CheckInvariants(fn)
	for _, p := range problems {
		log.Warningf("%s: %s", fn.Name, p)
		color.Yellow("  ! %s", p)
	}

	blocks := fn.AllBBUnordered()
	sort.Slice(blocks, func(i, j int) bool { return blocks[i].Id.String() < blocks[j].Id.String() })

	for _, entry := range blocks {
		color.Cyan("  %s:", entry.Id)
		id, ok := entry.BB.Head()
		for ok {
			t := fn.TacGet(id)
			fmt.Printf("    %s = %s\n", id, formatInst(t.Inst))
			id, ok = t.Next()
		}
		for _, j := range entry.BB.Jumps {
			fmt.Printf("    %s\n", formatBranch(j))
		}
	}
}

func formatInst(inst tac.Inst) string {
	switch k := inst.Kind.(type) {
	case tac.Binary:
		return fmt.Sprintf("%s %s, %s", k.Op, k.Lhs, k.Rhs)
	case tac.FunctionCall:
		return fmt.Sprintf("call %s(%s)", k.Name, formatValues(k.Params))
	case tac.Assign:
		return fmt.Sprintf("assign %s", k.Value)
	case tac.Phi:
		return fmt.Sprintf("phi %s", formatPhiInputs(k.Inputs))
	case tac.Param:
		return fmt.Sprintf("param %d", k.Index)
	case tac.Dead:
		return "dead"
	default:
		return fmt.Sprintf("%#v", inst.Kind)
	}
}

func formatValues(vs []tac.Value) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = v.String()
	}
	return strings.Join(parts, ", ")
}

func formatPhiInputs(inputs map[tac.BBId]tac.InstId) string {
	type pair struct {
		bb  tac.BBId
		val tac.InstId
	}
	pairs := make([]pair, 0, len(inputs))
	for bb, v := range inputs {
		pairs = append(pairs, pair{bb, v})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].bb.String() < pairs[j].bb.String() })

	parts := make([]string, len(pairs))
	for i, p := range pairs {
		parts[i] = fmt.Sprintf("[%s: %s]", p.bb, p.val)
	}
	return strings.Join(parts, " ")
}

func formatBranch(j tac.Branch) string {
	switch b := j.(type) {
	case tac.Return:
		if b.HasValue {
			return fmt.Sprintf("return %s", b.Value)
		}
		return "return"
	case tac.Jump:
		return fmt.Sprintf("jump %s", b.Target)
	case tac.CondJump:
		return fmt.Sprintf("condjump %s, %s", b.Cond, b.Target)
	default:
		return fmt.Sprintf("%#v", j)
	}
}
