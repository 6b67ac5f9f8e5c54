// Package unify implements unification of types and stack types for
// polymorphic stack-effect checking (spec.md §4.4), grounded on
// original_source/compiler/src/typechecker/unification.rs.
package unify

import (
	"fmt"

	"github.com/navicore/cem/internal/ast"
)

// Subst maps a type-variable name to the concrete type it is bound to.
type Subst map[string]*ast.Type

// StackSubst maps a row-variable name to the concrete stack tail it is
// bound to.
type StackSubst map[string]*ast.StackType

// Types unifies ty1 and ty2, returning the resulting type-variable
// substitution.
func Types(ty1, ty2 *ast.Type) (Subst, error) {
	s := make(Subst)
	if err := unifyTypes(ty1, ty2, s); err != nil {
		return nil, err
	}
	return s, nil
}

func unifyTypes(ty1, ty2 *ast.Type, s Subst) error {
	switch {
	case ty1.Kind == ast.TypeInt && ty2.Kind == ast.TypeInt,
		ty1.Kind == ast.TypeBool && ty2.Kind == ast.TypeBool,
		ty1.Kind == ast.TypeString && ty2.Kind == ast.TypeString:
		return nil

	case ty1.Kind == ast.TypeVar:
		return bindTypeVar(ty1.Name, ty2, s)

	case ty2.Kind == ast.TypeVar:
		return bindTypeVar(ty2.Name, ty1, s)

	case ty1.Kind == ast.TypeNamed && ty2.Kind == ast.TypeNamed:
		if ty1.Name != ty2.Name {
			return fmt.Errorf("cannot unify types %s and %s: type names don't match: %s vs %s", ty1, ty2, ty1.Name, ty2.Name)
		}
		if len(ty1.Args) != len(ty2.Args) {
			return fmt.Errorf("cannot unify types %s and %s: different number of type arguments", ty1, ty2)
		}
		for i := range ty1.Args {
			if err := unifyTypes(ty1.Args[i], ty2.Args[i], s); err != nil {
				return err
			}
		}
		return nil

	case ty1.Kind == ast.TypeQuotation && ty2.Kind == ast.TypeQuotation:
		// Any two quotation types unify successfully, even with incompatible
		// effects (spec.md §9). Recursively unifying the effects here would
		// close the hole but would also require propagating a stack
		// substitution back through the caller, which the checker does not
		// yet do for quotation-typed values.
		return nil

	default:
		return fmt.Errorf("cannot unify types %s and %s: types are incompatible", ty1, ty2)
	}
}

func bindTypeVar(name string, ty *ast.Type, s Subst) error {
	if existing, ok := s[name]; ok {
		return unifyTypes(existing, ty, s)
	}
	s[name] = ty
	return nil
}

// StackTypes unifies stack1 and stack2, returning the resulting type and
// row-variable substitutions.
func StackTypes(stack1, stack2 *ast.StackType) (Subst, StackSubst, error) {
	ts := make(Subst)
	ss := make(StackSubst)
	if err := unifyStackTypes(stack1, stack2, ts, ss); err != nil {
		return nil, nil, err
	}
	return ts, ss, nil
}

func unifyStackTypes(s1, s2 *ast.StackType, ts Subst, ss StackSubst) error {
	switch {
	case s1.Kind == ast.StackEmpty && s2.Kind == ast.StackEmpty:
		return nil

	case s1.Kind == ast.StackCons && s2.Kind == ast.StackCons:
		if err := unifyTypes(s1.Top, s2.Top, ts); err != nil {
			return err
		}
		return unifyStackTypes(s1.Rest, s2.Rest, ts, ss)

	case s1.Kind == ast.StackRowVar:
		return bindRowVar(s1.Row, s2, ts, ss)

	case s2.Kind == ast.StackRowVar:
		return bindRowVar(s2.Row, s1, ts, ss)

	default:
		return fmt.Errorf("cannot unify stack types (%s) and (%s): stack shapes are incompatible", s1, s2)
	}
}

func bindRowVar(name string, stack *ast.StackType, ts Subst, ss StackSubst) error {
	if existing, ok := ss[name]; ok {
		return unifyStackTypes(existing, stack, ts, ss)
	}
	ss[name] = stack
	return nil
}

// ApplyToType applies a type-variable substitution to ty, returning the
// substituted result. Quotation effects are left untouched (spec.md §9 —
// substitution does not recurse into quotation effects).
func ApplyToType(ty *ast.Type, s Subst) *ast.Type {
	switch ty.Kind {
	case ast.TypeVar:
		if bound, ok := s[ty.Name]; ok {
			return bound
		}
		return ty
	case ast.TypeNamed:
		args := make([]*ast.Type, len(ty.Args))
		for i, a := range ty.Args {
			args[i] = ApplyToType(a, s)
		}
		return ast.NewNamed(ty.Name, args)
	default:
		return ty
	}
}

// ApplyToStack applies a type-variable substitution to every element of
// stack, leaving row variables as-is.
func ApplyToStack(stack *ast.StackType, s Subst) *ast.StackType {
	switch stack.Kind {
	case ast.StackCons:
		return ast.Push(ApplyToStack(stack.Rest, s), ApplyToType(stack.Top, s))
	default:
		return stack
	}
}
