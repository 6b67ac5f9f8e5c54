// Package codegen translates a checked ast.Program into a single LLVM
// textual module (spec.md §4.6), grounded on lang/ygen/emit.go's
// bufio.Writer-wrapping Emitter idiom and asm/codegen.go's per-construct
// emission functions, adapted from fixed-arity assembly instructions to
// LLVM textual constructs.
package codegen

import (
	"fmt"
	"strings"

	"github.com/navicore/cem/internal/abi"
	"github.com/navicore/cem/internal/ast"
	"github.com/navicore/cem/internal/env"
)

// builtinPrimitiveWords names every built-in word that is a data-shape or
// runtime shim rather than a user-defined call; these never tail-call
// (spec.md §4.6 "Tail position").
var builtinPrimitiveWords = map[string]bool{
	"dup": true, "drop": true, "swap": true, "over": true, "rot": true,
	"nip": true, "tuck": true, "clone": true,
	"+": true, "-": true, "*": true, "/": true,
	"=": true, "<": true, ">": true, "<=": true, ">=": true, "!=": true,
	"int-to-string": true, "bool-to-string": true, "exit": true,
}

// reservedRuntimeSymbols is the set of LLVM function names abi.Functions()
// declares. A user word whose Mangle()d name falls in this set would
// collide with a runtime `declare` at link time even though its Cem-level
// name (e.g. "add") is not itself a built-in primitive: the checker only
// rejects redefining a primitive by its source name ("+"), not by its
// mangled target, so the collision has to be caught here where Mangle runs.
var reservedRuntimeSymbols = func() map[string]bool {
	m := make(map[string]bool)
	for _, fn := range abi.Functions() {
		m[fn.Name] = true
	}
	return m
}()

// Emitter holds the per-compilation-unit scratch state spec.md §3
// describes: counters, interned string constants, pending debug metadata,
// and emitted text buffers. target is swapped to point at whichever
// buffer is currently being written (a word function, a quotation
// function, or the module preamble).
type Emitter struct {
	env      *env.Env
	variants *variantLayout
	strings  *stringInterner
	debug    *debugInfo

	target *strings.Builder

	quotationCounter int
	quotationFuncs   strings.Builder
	wordFuncs        strings.Builder

	matchErrorUsed bool
}

// NewEmitter creates an Emitter ready to compile a program's words against
// e. e must already have every type of that program registered (spec.md §4.6 assumes
// the program has passed the checker, which registers types as it goes).
func NewEmitter(e *env.Env) *Emitter {
	return &Emitter{
		env:      e,
		variants: buildVariantLayout(e),
		strings:  newStringInterner(),
		debug:    newDebugInfo(),
	}
}

// line writes one formatted line to the emitter's current target buffer.
func (e *Emitter) line(format string, args ...interface{}) {
	fmt.Fprintf(e.target, format+"\n", args...)
}

// EntryOptions configures optional emission of a `main` function (spec.md
// §4.6 "Entry point").
type EntryOptions struct {
	// WordName is the Cem word to spawn as the entry strand. Empty means
	// no main function is emitted.
	WordName string
}

// EmitProgram compiles every word in prog and returns the complete LLVM
// textual module.
func EmitProgram(e *env.Env, prog *ast.Program, entry EntryOptions) (string, error) {
	em := NewEmitter(e)

	em.target = &em.wordFuncs
	for _, wd := range prog.WordDefs {
		if err := em.emitWordFunction(wd); err != nil {
			return "", fmt.Errorf("codegen: word %q: %w", wd.Name, err)
		}
	}

	var mainBuf strings.Builder
	if entry.WordName != "" {
		em.target = &mainBuf
		em.emitMain(entry.WordName)
	}

	var out strings.Builder
	em.target = &out
	em.emitHeader()
	out.WriteByte('\n')
	em.emitStringGlobals()
	out.WriteByte('\n')
	out.WriteString(em.quotationFuncs.String())
	out.WriteString(em.wordFuncs.String())
	out.WriteString(mainBuf.String())
	out.WriteByte('\n')
	em.emitDebugInfo()

	return out.String(), nil
}

// memcpyIntrinsic is the LLVM intrinsic used for variant cell copies during
// construction (spec.md §4.7 "Intrinsic: 8-byte-aligned 32-byte memcpy is
// used for variant cell copies"). It is declared separately from
// abi.Functions() because it's supplied by LLVM itself, not the runtime.
const memcpyIntrinsic = "llvm.memcpy.p0.p0.i64"

func (e *Emitter) emitHeader() {
	e.line("; generated by cemc, do not edit")
	for _, fn := range abi.Functions() {
		e.line("declare %s @%s(%s)", fn.ReturnType, fn.Name, strings.Join(fn.ParamTypes, ", "))
	}
	e.line("declare void @%s(ptr, ptr, i64, i1)", memcpyIntrinsic)
}

func newTempCounter() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%%t%d", n)
	}
}

func newLabelCounter() func(prefix string) string {
	n := 0
	return func(prefix string) string {
		n++
		return fmt.Sprintf("%s%d", prefix, n)
	}
}

// isTailCallable reports whether name may be emitted as a guaranteed tail
// call: it must be a user-defined word, not a variant constructor and not
// a built-in primitive (spec.md §4.6 "Tail position").
func (e *Emitter) isTailCallable(name string) bool {
	if _, ok := e.variants.lookup(name); ok {
		return false
	}
	if builtinPrimitiveWords[name] {
		return false
	}
	return true
}

func dbgSuffix(id int) string {
	if id == 0 {
		return ""
	}
	return fmt.Sprintf(", !dbg !%d", id)
}
