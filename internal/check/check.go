// Package check implements the bidirectional stack-effect checker
// (spec.md §4.5), grounded on
// original_source/compiler/src/typechecker/checker.rs.
package check

import (
	"fmt"

	"github.com/navicore/cem/internal/ast"
	"github.com/navicore/cem/internal/env"
	"github.com/navicore/cem/internal/token"
	"github.com/navicore/cem/internal/unify"
)

// ErrorKind classifies a check failure so callers can branch on failure
// category instead of matching message text (spec.md §7).
type ErrorKind string

const (
	KindStackUnderflow       ErrorKind = "stack_underflow"
	KindTypeMismatch         ErrorKind = "type_mismatch"
	KindEffectMismatch       ErrorKind = "effect_mismatch"
	KindUndefinedWord        ErrorKind = "undefined_word"
	KindUndefinedType        ErrorKind = "undefined_type"
	KindNonExhaustiveMatch   ErrorKind = "non_exhaustive_match"
	KindInconsistentBranches ErrorKind = "inconsistent_branches"
	KindUnification          ErrorKind = "unification"
	KindReservedWord         ErrorKind = "reserved_word"
)

// Error is a type-checking failure: a kind, a source location, and a
// human-readable message.
type Error struct {
	Kind    ErrorKind
	Loc     token.Loc
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Loc, e.Message)
}

func errf(kind ErrorKind, loc token.Loc, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Loc: loc, Message: fmt.Sprintf(format, args...)}
}

// Checker type-checks a program against an Env of built-in and
// previously-defined words and types.
type Checker struct {
	env *env.Env
}

// New creates a Checker over e. Pass env.New() to start from the built-in
// environment.
func New(e *env.Env) *Checker {
	return &Checker{env: e}
}

// Program type-checks every type definition and word definition in prog.
// Type definitions are registered first so that forward references between
// them are allowed; word definitions are checked in declaration order, and
// a word becomes callable only after its own body has been checked
// (spec.md §4.5 "Program-level ordering").
func (c *Checker) Program(prog *ast.Program) error {
	for _, td := range prog.TypeDefs {
		c.env.AddType(td)
	}
	for _, wd := range prog.WordDefs {
		if err := c.wordDef(wd); err != nil {
			return err
		}
	}
	return nil
}

func (c *Checker) wordDef(wd *ast.WordDef) error {
	if c.env.IsBuiltinPrimitive(wd.Name) {
		return errf(KindReservedWord, wd.Loc,
			"'%s' is a built-in primitive and cannot be redefined", wd.Name)
	}

	stack := wd.Effect.Inputs
	for _, expr := range wd.Body {
		next, err := c.expr(expr, stack)
		if err != nil {
			return err
		}
		stack = next
	}

	if _, _, err := unify.StackTypes(stack, wd.Effect.Outputs); err != nil {
		return errf(KindEffectMismatch, wd.Loc,
			"effect mismatch in '%s': expected %s, but got %s",
			wd.Name, wd.Effect, ast.NewEffect(wd.Effect.Inputs, stack))
	}

	c.env.AddWord(wd.Name, wd.Effect)
	return nil
}

// expr type-checks a single expression against the incoming stack and
// returns the resulting stack.
func (c *Checker) expr(e ast.Expr, stack *ast.StackType) (*ast.StackType, error) {
	switch e.Kind {
	case ast.ExprIntLit:
		return ast.Push(stack, ast.Int), nil

	case ast.ExprBoolLit:
		return ast.Push(stack, ast.Bool), nil

	case ast.ExprStringLit:
		return ast.Push(stack, ast.String), nil

	case ast.ExprWordCall:
		eff, ok := c.env.LookupWord(e.Name)
		if !ok {
			return nil, errf(KindUndefinedWord, e.Loc, "undefined word: '%s'", e.Name)
		}
		return c.applyEffect(eff, stack, e.Name, e.Loc)

	case ast.ExprQuotation:
		// Quotation bodies are not yet type-checked against their usage
		// site: every quotation is given the empty effect [ -- ], which
		// lets invalid quotation usage pass checking and fail only at
		// runtime (spec.md §9, preserved from the original implementation).
		return ast.Push(stack, ast.NewQuotation(ast.NewEffect(ast.Empty, ast.Empty))), nil

	case ast.ExprMatch:
		return c.match(e, stack)

	case ast.ExprIf:
		return c.ifExpr(e, stack)

	default:
		return nil, errf(KindTypeMismatch, e.Loc, "unrecognized expression")
	}
}

// applyEffect applies a (possibly polymorphic) word effect to stack,
// unifying the consumed portion of the stack against the effect's declared
// inputs and substituting into the declared outputs (spec.md §4.5 "Applying
// a word effect").
func (c *Checker) applyEffect(eff *ast.Effect, stack *ast.StackType, wordName string, loc token.Loc) (*ast.StackType, error) {
	inputDepth := eff.Inputs.Depth()
	if inputDepth < 0 {
		inputDepth = 0
	}
	stackDepth := stack.Depth()
	if stackDepth < 0 {
		stackDepth = 0
	}
	if stackDepth < inputDepth {
		return nil, errf(KindStackUnderflow, loc,
			"stack underflow in '%s': requires %d element(s), but only %d available",
			wordName, inputDepth, stackDepth)
	}

	remaining := stack
	consumed := make([]*ast.Type, inputDepth)
	for i := inputDepth - 1; i >= 0; i-- {
		rest, top, ok := remaining.Pop()
		if !ok {
			return nil, errf(KindStackUnderflow, loc,
				"stack underflow in '%s': requires %d element(s), but only %d available",
				wordName, inputDepth, inputDepth-i-1)
		}
		consumed[i] = top
		remaining = rest
	}

	consumedStack := ast.FromSlice(consumed)
	typeSubst, _, err := unify.StackTypes(consumedStack, eff.Inputs)
	if err != nil {
		return nil, errf(KindUnification, loc, "cannot apply '%s': input type mismatch: %v", wordName, err)
	}

	outputs := unify.ApplyToStack(eff.Outputs, typeSubst)
	result := remaining
	for _, top := range outputsBottomToTop(outputs) {
		result = ast.Push(result, top)
	}
	return result, nil
}

func outputsBottomToTop(s *ast.StackType) []*ast.Type {
	var rev []*ast.Type
	for {
		rest, top, ok := s.Pop()
		if !ok {
			break
		}
		rev = append(rev, top)
		s = rest
	}
	out := make([]*ast.Type, len(rev))
	for i, t := range rev {
		out[len(rev)-1-i] = t
	}
	return out
}

func (c *Checker) ifExpr(e ast.Expr, stack *ast.StackType) (*ast.StackType, error) {
	afterCond, cond, ok := stack.Pop()
	if !ok {
		return nil, errf(KindStackUnderflow, e.Loc, "stack underflow in 'if': requires 1 element(s), but only 0 available")
	}
	if _, err := unify.Types(cond, ast.Bool); err != nil {
		return nil, errf(KindTypeMismatch, e.Loc, "type mismatch in if condition: expected Bool, but got %s", cond)
	}

	thenStack := afterCond
	for _, inner := range e.Then {
		var err error
		thenStack, err = c.expr(inner, thenStack)
		if err != nil {
			return nil, err
		}
	}
	elseStack := afterCond
	for _, inner := range e.Else {
		var err error
		elseStack, err = c.expr(inner, elseStack)
		if err != nil {
			return nil, err
		}
	}

	if _, _, err := unify.StackTypes(thenStack, elseStack); err != nil {
		return nil, errf(KindEffectMismatch, e.Loc, "if branches produce incompatible stack effects")
	}
	return thenStack, nil
}

func (c *Checker) match(e ast.Expr, stack *ast.StackType) (*ast.StackType, error) {
	if len(e.Branches) == 0 {
		return nil, errf(KindTypeMismatch, e.Loc, "empty pattern match")
	}

	afterPop, scrutinee, ok := stack.Pop()
	if !ok {
		return nil, errf(KindStackUnderflow, e.Loc, "stack underflow in 'match': requires 1 element(s), but only 0 available")
	}
	if scrutinee.Kind != ast.TypeNamed {
		return nil, errf(KindTypeMismatch, e.Loc, "cannot pattern match on non-ADT type: %s", scrutinee)
	}

	variants, ok := c.env.Variants(scrutinee.Name)
	if !ok {
		return nil, errf(KindUndefinedType, e.Loc, "undefined type: '%s'", scrutinee.Name)
	}

	covered := make(map[string]bool, len(e.Branches))
	for _, b := range e.Branches {
		if covered[b.Pattern.VariantName] {
			return nil, errf(KindTypeMismatch, b.Loc,
				"duplicate match branch for variant '%s'", b.Pattern.VariantName)
		}
		covered[b.Pattern.VariantName] = true
	}
	var missing []string
	for _, v := range variants {
		if !covered[v.Name] {
			missing = append(missing, v.Name)
		}
	}
	if len(missing) > 0 {
		return nil, errf(KindNonExhaustiveMatch, e.Loc,
			"non-exhaustive pattern match on type '%s': missing variants: %s",
			scrutinee.Name, joinNames(missing))
	}

	variantByName := make(map[string]*ast.Variant, len(variants))
	for _, v := range variants {
		variantByName[v.Name] = v
	}

	var results []*ast.StackType
	for _, b := range e.Branches {
		variant, ok := variantByName[b.Pattern.VariantName]
		if !ok {
			return nil, errf(KindTypeMismatch, b.Loc, "unknown variant in pattern: '%s'", b.Pattern.VariantName)
		}

		// Destructuring pushes the variant's fields onto the stack in the
		// order they are stored (spec.md §4.6): the first field listed
		// ends up on top.
		branchStack := afterPop
		for i := len(variant.Fields) - 1; i >= 0; i-- {
			branchStack = ast.Push(branchStack, variant.Fields[i])
		}

		for _, inner := range b.Body {
			var err error
			branchStack, err = c.expr(inner, branchStack)
			if err != nil {
				return nil, err
			}
		}
		results = append(results, branchStack)
	}

	first := results[0]
	for i, r := range results[1:] {
		if _, _, err := unify.StackTypes(first, r); err != nil {
			return nil, errf(KindInconsistentBranches, e.Loc,
				"inconsistent effect in pattern match on '%s' in branch %d: expected %s, but got %s",
				scrutinee.Name, i+1, ast.NewEffect(afterPop, first), ast.NewEffect(afterPop, r))
		}
	}
	return first, nil
}

func joinNames(names []string) string {
	out := ""
	for i, n := range names {
		if i > 0 {
			out += ", "
		}
		out += n
	}
	return out
}
