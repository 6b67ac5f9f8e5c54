package codegen

import (
	"fmt"

	"github.com/navicore/cem/internal/abi"
	"github.com/navicore/cem/internal/ast"
)

// emitExpr compiles one body expression, threading the current SSA stack
// pointer value through cur and returning the updated value plus how the
// expression terminated (spec.md §4.6 "Per-expression emission").
func (e *Emitter) emitExpr(fc *funcCtx, expr ast.Expr, cur string, tailPosition bool) (string, termination, error) {
	dbg := dbgSuffix(e.debug.location(expr.Loc, fc.subprogID))

	switch expr.Kind {
	case ast.ExprIntLit:
		next := fc.freshTemp()
		e.line("  %s = call ptr @push_int(ptr %s, i64 %d)%s", next, cur, expr.IntVal, dbg)
		return next, termination{}, nil

	case ast.ExprBoolLit:
		next := fc.freshTemp()
		b := 0
		if expr.BoolVal {
			b = 1
		}
		e.line("  %s = call ptr @push_bool(ptr %s, i1 %d)%s", next, cur, b, dbg)
		return next, termination{}, nil

	case ast.ExprStringLit:
		global := e.strings.intern(expr.StrVal)
		n := len(expr.StrVal) + 1
		ptrTemp := fc.freshTemp()
		e.line("  %s = getelementptr inbounds [%d x i8], ptr %s, i64 0, i64 0%s", ptrTemp, n, global, dbg)
		next := fc.freshTemp()
		e.line("  %s = call ptr @push_string(ptr %s, ptr %s)%s", next, cur, ptrTemp, dbg)
		return next, termination{}, nil

	case ast.ExprWordCall:
		return e.emitWordCall(fc, expr, cur, tailPosition, dbg)

	case ast.ExprQuotation:
		qname, err := e.emitQuotationFunction(expr.Body, expr.Loc)
		if err != nil {
			return "", termination{}, err
		}
		next := fc.freshTemp()
		e.line("  %s = call ptr @push_quotation(ptr %s, ptr @%s)%s", next, cur, qname, dbg)
		return next, termination{}, nil

	case ast.ExprIf:
		return e.emitIf(fc, expr, cur, tailPosition)

	case ast.ExprMatch:
		return e.emitMatch(fc, expr, cur, tailPosition)

	default:
		return "", termination{}, fmt.Errorf("%s: codegen: unrecognized expression", expr.Loc)
	}
}

func (e *Emitter) emitWordCall(fc *funcCtx, expr ast.Expr, cur string, tailPosition bool, dbg string) (string, termination, error) {
	name := expr.Name

	if vi, ok := e.variants.lookup(name); ok {
		next := e.emitVariantConstruct(fc, vi, cur, dbg)
		return next, termination{}, nil
	}

	if name == "exit" {
		e.line("  call void @exit_op(ptr %s)%s", cur, dbg)
		e.line("  unreachable")
		return cur, termination{allPathsReturned: true}, nil
	}

	mangled := Mangle(name)

	if tailPosition && e.isTailCallable(name) {
		next := fc.freshTemp()
		e.line("  %s = musttail call ptr @%s(ptr %s)%s", next, mangled, cur, dbg)
		e.line("  ret ptr %s", next)
		return next, termination{endsWithMusttail: true}, nil
	}

	next := fc.freshTemp()
	e.line("  %s = call ptr @%s(ptr %s)%s", next, mangled, cur, dbg)
	return next, termination{}, nil
}

// loadBoolAndRest reads the top stack cell's boolean slot (union area,
// offset 8 within the 32-byte cell) and its next pointer (offset 24),
// for `if`'s condition pop (spec.md §4.6 "If": "read the stack cell's
// boolean slot, truncate, and load its next pointer as the remaining
// stack").
func (e *Emitter) loadBoolAndRest(fc *funcCtx, cur, dbg string) (boolReg, restReg string) {
	boolBytePtr := fc.freshTemp()
	e.line("  %s = getelementptr inbounds i8, ptr %s, i64 %d%s", boolBytePtr, cur, abi.OffsetUnion, dbg)
	boolByte := fc.freshTemp()
	e.line("  %s = load i8, ptr %s%s", boolByte, boolBytePtr, dbg)
	boolReg = fc.freshTemp()
	e.line("  %s = trunc i8 %s to i1%s", boolReg, boolByte, dbg)

	restPtrPtr := fc.freshTemp()
	e.line("  %s = getelementptr inbounds i8, ptr %s, i64 %d%s", restPtrPtr, cur, abi.OffsetNext, dbg)
	restReg = fc.freshTemp()
	e.line("  %s = load ptr, ptr %s%s", restReg, restPtrPtr, dbg)
	return boolReg, restReg
}
