package codegen

import (
	"fmt"
	"strings"

	"github.com/navicore/cem/internal/ast"
	"github.com/navicore/cem/internal/token"
)

// funcCtx is the mutable state threaded through emission of a single
// function body (a word or a quotation): fresh-name counters reset per
// function, and the DISubprogram id every instruction's !dbg reference
// points at (spec.md §4.6 "Temporary names are a local fresh-counter
// reset per function").
type funcCtx struct {
	freshTemp func() string
	freshLbl  func(prefix string) string
	subprogID int

	// curLabel is the label of the basic block currently being written
	// into, updated whenever emission starts a new block. if/match use it
	// to know which block a phi's incoming value actually falls through
	// from, which may be a nested join block rather than the branch's own
	// label.
	curLabel string
}

// enterBlock writes name: as a label and records it as the active block.
func (e *Emitter) enterBlock(fc *funcCtx, name string) {
	e.line("%s:", name)
	fc.curLabel = name
}

// termination reports how a block of statements ended, so the caller
// knows whether to still emit a trailing `ret` (spec.md §4.6 "Function
// termination").
type termination struct {
	endsWithMusttail bool
	allPathsReturned bool
}

func (t termination) terminated() bool {
	return t.endsWithMusttail || t.allPathsReturned
}

// emitWordFunction emits one `define ptr @mangled(ptr %stack) { ... }`
// for wd to e's current target (spec.md §4.6 "Functions").
func (e *Emitter) emitWordFunction(wd *ast.WordDef) error {
	spID := e.debug.newSubprogram(wd.Name, wd.Loc)
	fc := &funcCtx{freshTemp: newTempCounter(), freshLbl: newLabelCounter(), subprogID: spID}

	mangled := Mangle(wd.Name)
	if reservedRuntimeSymbols[mangled] && !builtinPrimitiveWords[wd.Name] {
		return fmt.Errorf("%s: word '%s' mangles to '%s', which collides with a runtime function", wd.Loc, wd.Name, mangled)
	}
	e.line("define ptr @%s(ptr %%stack) !dbg !%d {", mangled, spID)
	e.enterBlock(fc, "entry")

	cur, term, err := e.emitBody(fc, wd.Body, "%stack", true)
	if err != nil {
		return err
	}

	if !term.terminated() {
		e.line("  ret ptr %s", cur)
	}
	e.line("}")
	e.line("")
	return nil
}

// emitBody compiles a sequence of expressions in order, threading the stack
// pointer through, and rejects any expression following one that already
// terminated the block (spec.md §4.6 "Function termination").
func (e *Emitter) emitBody(fc *funcCtx, body []ast.Expr, cur string, tailPosition bool) (string, termination, error) {
	term := termination{}
	for i, expr := range body {
		isLast := i == len(body)-1
		var err error
		cur, term, err = e.emitExpr(fc, expr, cur, isLast && tailPosition)
		if err != nil {
			return "", termination{}, err
		}
		if term.terminated() && !isLast {
			return "", termination{}, fmt.Errorf("%s: unreachable code after %s", expr.Loc, describeTerminal(expr))
		}
	}
	return cur, term, nil
}

// emitQuotationFunction emits a fresh top-level function for a quotation
// body, numbered by a module-global counter, appending the finished text to
// e.quotationFuncs so quotation functions precede their users in the final
// module (spec.md §4.6 "Quotation"). It writes into a buffer of its own
// rather than directly into e.quotationFuncs: a quotation body can itself
// contain a nested quotation, and if both wrote into the same shared buffer
// the nested function's `define` would land in the middle of the enclosing
// one's, in progress. Each call gets a clean buffer and appends only once
// its own function is complete, so nested quotations interleave safely.
func (e *Emitter) emitQuotationFunction(body []ast.Expr, loc token.Loc) (name string, err error) {
	id := e.quotationCounter
	e.quotationCounter++
	name = fmt.Sprintf("quot_%d", id)

	var buf strings.Builder
	savedTarget := e.target
	e.target = &buf
	defer func() { e.target = savedTarget }()

	spID := e.debug.newSubprogram(name, loc)
	fc := &funcCtx{freshTemp: newTempCounter(), freshLbl: newLabelCounter(), subprogID: spID}

	e.line("define ptr @%s(ptr %%stack) !dbg !%d {", name, spID)
	e.enterBlock(fc, "entry")

	cur, term, err := e.emitBody(fc, body, "%stack", true)
	if err != nil {
		return "", err
	}
	if !term.terminated() {
		e.line("  ret ptr %s", cur)
	}
	e.line("}")
	e.line("")

	e.quotationFuncs.WriteString(buf.String())
	return name, nil
}

func describeTerminal(expr ast.Expr) string {
	switch expr.Kind {
	case ast.ExprWordCall:
		if expr.Name == "exit" {
			return "exit"
		}
		return "tail call"
	default:
		return "terminal expression"
	}
}

// emitMain emits the optional entry-point function (spec.md §4.6 "Entry
// point"): initialise the scheduler, spawn entryWord as a strand with a
// null initial stack, run the scheduler to completion, free the stack it
// returns, and shut the scheduler down. strand_spawn's id is opaque (spec.md
// §4.7, §9) and is discarded rather than inspected.
func (e *Emitter) emitMain(entryWord string) {
	mangled := Mangle(entryWord)
	e.line("define i32 @main() {")
	e.line("entry:")
	e.line("  call void @scheduler_init()")
	e.line("  %%id = call i64 @strand_spawn(ptr @%s, ptr null)", mangled)
	e.line("  %%final_stack = call ptr @scheduler_run()")
	e.line("  call void @free_stack(ptr %%final_stack)")
	e.line("  call void @scheduler_shutdown()")
	e.line("  ret i32 0")
	e.line("}")
	e.line("")
}
