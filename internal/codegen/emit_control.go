package codegen

import (
	"fmt"
	"sort"

	"github.com/navicore/cem/internal/abi"
	"github.com/navicore/cem/internal/ast"
)

// branchExit records one live (non-terminated) arm of an if/match once its
// body has been emitted: the SSA value it left the stack in and the label
// of the block it actually falls out of, which may be a nested join block
// rather than the arm's own entry label.
type branchExit struct {
	cur   string
	label string
}

// finishBranch closes out one arm's body: if it already terminated (a
// tail call or an `exit`), no edge reaches the continuation and nil is
// returned. Otherwise it branches to joinLabel from whatever block the arm
// actually ended in and returns that edge's information.
func (e *Emitter) finishBranch(fc *funcCtx, cur string, term termination, joinLabel string) *branchExit {
	if term.terminated() {
		return nil
	}
	e.line("  br label %%%s", joinLabel)
	return &branchExit{cur: cur, label: fc.curLabel}
}

// joinBranches emits the shared continuation block for an if/match, following
// spec.md §4.6's join rules: a branch that already terminated contributes no
// incoming edge; if every branch terminated, no join block is reachable and
// none is emitted at all; otherwise the join block's phi takes exactly the
// live branches' edges (a single incoming edge when only one arm falls
// through).
func (e *Emitter) joinBranches(fc *funcCtx, joinLabel string, live []branchExit) (string, termination, error) {
	if len(live) == 0 {
		return "", termination{allPathsReturned: true}, nil
	}

	e.enterBlock(fc, joinLabel)

	phi := fc.freshTemp()
	incoming := "[ " + live[0].cur + ", %" + live[0].label + " ]"
	for _, b := range live[1:] {
		incoming += ", [ " + b.cur + ", %" + b.label + " ]"
	}
	e.line("  %s = phi ptr %s", phi, incoming)
	return phi, termination{}, nil
}

// emitIf lowers an `if` (spec.md §4.6 "If"): pop the boolean by direct field
// inspection, branch, and compile each arm on the rest-of-stack.
func (e *Emitter) emitIf(fc *funcCtx, expr ast.Expr, cur string, tailPosition bool) (string, termination, error) {
	dbg := dbgSuffix(e.debug.location(expr.Loc, fc.subprogID))
	boolReg, restReg := e.loadBoolAndRest(fc, cur, dbg)

	thenLabel := fc.freshLbl("if_then")
	elseLabel := fc.freshLbl("if_else")
	joinLabel := fc.freshLbl("if_join")
	e.line("  br i1 %s, label %%%s, label %%%s%s", boolReg, thenLabel, elseLabel, dbg)

	e.enterBlock(fc, thenLabel)
	thenCur, thenTerm, err := e.emitBody(fc, expr.Then, restReg, tailPosition)
	if err != nil {
		return "", termination{}, err
	}
	var live []branchExit
	if b := e.finishBranch(fc, thenCur, thenTerm, joinLabel); b != nil {
		live = append(live, *b)
	}

	e.enterBlock(fc, elseLabel)
	elseCur, elseTerm, err := e.emitBody(fc, expr.Else, restReg, tailPosition)
	if err != nil {
		return "", termination{}, err
	}
	if b := e.finishBranch(fc, elseCur, elseTerm, joinLabel); b != nil {
		live = append(live, *b)
	}

	return e.joinBranches(fc, joinLabel, live)
}

// emitMatch lowers a `match` (spec.md §4.6 "Match"): load the scrutinee's
// variant tag and data pointer, switch on the tag to one case block per
// variant plus a default that calls runtime_error, destructure each
// matched branch's fields, and join the branches' resulting stacks.
func (e *Emitter) emitMatch(fc *funcCtx, expr ast.Expr, cur string, tailPosition bool) (string, termination, error) {
	dbg := dbgSuffix(e.debug.location(expr.Loc, fc.subprogID))

	unionPtr := fc.freshTemp()
	e.line("  %s = getelementptr inbounds i8, ptr %s, i64 %d%s", unionPtr, cur, abi.OffsetUnion, dbg)
	tagPtr := fc.freshTemp()
	e.line("  %s = getelementptr inbounds i8, ptr %s, i64 %d%s", tagPtr, unionPtr, abi.VariantUnionTagOffset, dbg)
	tagReg := fc.freshTemp()
	e.line("  %s = load i32, ptr %s%s", tagReg, tagPtr, dbg)
	dataPtrPtr := fc.freshTemp()
	e.line("  %s = getelementptr inbounds i8, ptr %s, i64 %d%s", dataPtrPtr, unionPtr, abi.VariantUnionDataOffset, dbg)
	dataReg := fc.freshTemp()
	e.line("  %s = load ptr, ptr %s%s", dataReg, dataPtrPtr, dbg)

	restPtrPtr := fc.freshTemp()
	e.line("  %s = getelementptr inbounds i8, ptr %s, i64 %d%s", restPtrPtr, cur, abi.OffsetNext, dbg)
	restReg := fc.freshTemp()
	e.line("  %s = load ptr, ptr %s%s", restReg, restPtrPtr, dbg)

	type caseInfo struct {
		label string
		vi    *variantInfo
		tag   uint32
		b     *ast.MatchBranch
	}
	cases := make([]caseInfo, 0, len(expr.Branches))
	for i := range expr.Branches {
		br := &expr.Branches[i]
		vi, ok := e.variants.lookup(br.Pattern.VariantName)
		if !ok {
			return "", termination{}, fmt.Errorf("%s: match: unknown variant %q", expr.Loc, br.Pattern.VariantName)
		}
		cases = append(cases, caseInfo{
			label: fc.freshLbl("case_" + Mangle(br.Pattern.VariantName) + "_"),
			vi:    vi, tag: vi.Tag, b: br,
		})
	}
	sort.Slice(cases, func(i, j int) bool { return cases[i].tag < cases[j].tag })

	defaultLabel := fc.freshLbl("match_default")
	joinLabel := fc.freshLbl("match_join")

	e.line("  switch i32 %s, label %%%s [", tagReg, defaultLabel)
	for _, c := range cases {
		e.line("    i32 %d, label %%%s", c.tag, c.label)
	}
	e.line("  ]")

	var live []branchExit
	for _, c := range cases {
		e.enterBlock(fc, c.label)
		initial := e.destructureVariant(fc, c.vi, dataReg, restReg, dbg)
		branchCur, branchTerm, err := e.emitBody(fc, c.b.Body, initial, tailPosition)
		if err != nil {
			return "", termination{}, err
		}
		if b := e.finishBranch(fc, branchCur, branchTerm, joinLabel); b != nil {
			live = append(live, *b)
		}
	}

	e.enterBlock(fc, defaultLabel)
	e.line("  call void @runtime_error(ptr @.str.match_error)%s", dbg)
	e.matchErrorUsed = true
	e.line("  unreachable")

	return e.joinBranches(fc, joinLabel, live)
}
