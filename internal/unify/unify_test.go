package unify

import (
	"testing"

	"github.com/navicore/cem/internal/ast"
)

func TestUnifyPrimitives(t *testing.T) {
	if _, err := Types(ast.Int, ast.Int); err != nil {
		t.Errorf("Int/Int: %v", err)
	}
	if _, err := Types(ast.Bool, ast.Bool); err != nil {
		t.Errorf("Bool/Bool: %v", err)
	}
	if _, err := Types(ast.Int, ast.Bool); err == nil {
		t.Error("Int/Bool: expected error")
	}
}

func TestUnifyTypeVariable(t *testing.T) {
	a := ast.NewVar("A")
	s, err := Types(a, ast.Int)
	if err != nil {
		t.Fatalf("unify: %v", err)
	}
	if s["A"] != ast.Int {
		t.Errorf("subst[A] = %v, want Int", s["A"])
	}
}

func TestUnifyTypeVariableConsistency(t *testing.T) {
	a := ast.NewVar("A")
	s := make(Subst)
	if err := unifyTypes(a, ast.Int, s); err != nil {
		t.Fatalf("first bind: %v", err)
	}
	// A is already bound to Int; unifying A with Bool must fail.
	if err := unifyTypes(a, ast.Bool, s); err == nil {
		t.Error("expected inconsistency error binding A to Bool after Int")
	}
}

func TestUnifyNamedTypes(t *testing.T) {
	optInt1 := ast.NewNamed("Option", []*ast.Type{ast.Int})
	optInt2 := ast.NewNamed("Option", []*ast.Type{ast.Int})
	if _, err := Types(optInt1, optInt2); err != nil {
		t.Errorf("Option(Int)/Option(Int): %v", err)
	}

	optBool := ast.NewNamed("Option", []*ast.Type{ast.Bool})
	if _, err := Types(optInt1, optBool); err == nil {
		t.Error("Option(Int)/Option(Bool): expected error")
	}
}

func TestUnifyNamedTypeNameMismatch(t *testing.T) {
	opt := ast.NewNamed("Option", []*ast.Type{ast.Int})
	res := ast.NewNamed("Result", []*ast.Type{ast.Int})
	if _, err := Types(opt, res); err == nil {
		t.Error("Option/Result: expected error")
	}
}

func TestUnifyQuotationsAlwaysSucceed(t *testing.T) {
	eff1 := ast.FromSlices([]*ast.Type{ast.Int}, []*ast.Type{ast.Int})
	eff2 := ast.FromSlices([]*ast.Type{ast.String}, []*ast.Type{ast.Bool})
	q1 := ast.NewQuotation(eff1)
	q2 := ast.NewQuotation(eff2)
	if _, err := Types(q1, q2); err != nil {
		t.Errorf("quotations with incompatible effects still unify: %v", err)
	}
}

func TestUnifyStackTypes(t *testing.T) {
	s1 := ast.Push(ast.Empty, ast.Int)
	s2 := ast.Push(ast.Empty, ast.Int)
	if _, _, err := StackTypes(s1, s2); err != nil {
		t.Errorf("unify: %v", err)
	}

	s3 := ast.Push(ast.Empty, ast.Bool)
	if _, _, err := StackTypes(s1, s3); err == nil {
		t.Error("expected error unifying Int stack with Bool stack")
	}
}

func TestUnifyStackRowVariable(t *testing.T) {
	row := ast.NewRowVar("R")
	concrete := ast.Push(ast.Push(ast.Empty, ast.Int), ast.Bool)
	_, ss, err := StackTypes(row, concrete)
	if err != nil {
		t.Fatalf("unify: %v", err)
	}
	if ss["R"] != concrete {
		t.Errorf("stack subst[R] = %v, want %v", ss["R"], concrete)
	}
}

func TestApplyToType(t *testing.T) {
	s := Subst{"A": ast.Int}
	out := ApplyToType(ast.NewVar("A"), s)
	if out != ast.Int {
		t.Errorf("ApplyToType = %v, want Int", out)
	}
	// Unbound variables are left as-is.
	unbound := ApplyToType(ast.NewVar("B"), s)
	if unbound.Kind != ast.TypeVar || unbound.Name != "B" {
		t.Errorf("ApplyToType(B) = %v, want Var(B)", unbound)
	}
}

func TestApplyToTypeRecursesIntoNamedArgs(t *testing.T) {
	s := Subst{"T": ast.Int}
	opt := ast.NewNamed("Option", []*ast.Type{ast.NewVar("T")})
	out := ApplyToType(opt, s)
	if out.Kind != ast.TypeNamed || len(out.Args) != 1 || out.Args[0] != ast.Int {
		t.Errorf("ApplyToType(Option(T)) = %v, want Option(Int)", out)
	}
}

func TestApplyToStack(t *testing.T) {
	s := Subst{"A": ast.Int}
	stack := ast.Push(ast.Empty, ast.NewVar("A"))
	out := ApplyToStack(stack, s)
	_, top, _ := out.Pop()
	if top != ast.Int {
		t.Errorf("ApplyToStack top = %v, want Int", top)
	}
}
