package env

import (
	"testing"

	"github.com/navicore/cem/internal/ast"
)

func TestBuiltinWords(t *testing.T) {
	e := New()

	cases := []struct {
		name        string
		wantInputs  int
		wantOutputs int
	}{
		{"dup", 1, 2},
		{"drop", 1, 0},
		{"swap", 2, 2},
		{"over", 2, 3},
		{"rot", 3, 3},
		{"nip", 2, 1},
		{"tuck", 2, 3},
		{"clone", 1, 2},
		{"+", 2, 1},
		{"-", 2, 1},
		{"*", 2, 1},
		{"/", 2, 1},
		{"=", 2, 1},
		{"<", 2, 1},
		{">", 2, 1},
		{"<=", 2, 1},
		{">=", 2, 1},
		{"!=", 2, 1},
		{"int-to-string", 1, 1},
		{"bool-to-string", 1, 1},
		{"exit", 1, 0},
	}

	for _, tc := range cases {
		eff, ok := e.LookupWord(tc.name)
		if !ok {
			t.Errorf("%s: not registered", tc.name)
			continue
		}
		if d := eff.Inputs.Depth(); d != tc.wantInputs {
			t.Errorf("%s: input depth = %d, want %d", tc.name, d, tc.wantInputs)
		}
		if d := eff.Outputs.Depth(); d != tc.wantOutputs {
			t.Errorf("%s: output depth = %d, want %d", tc.name, d, tc.wantOutputs)
		}
	}

	if _, ok := e.LookupWord("no-such-word"); ok {
		t.Error("LookupWord(no-such-word) = found, want not found")
	}
}

func TestArithmeticIsIntToInt(t *testing.T) {
	e := New()
	eff, _ := e.LookupWord("+")
	_, top, _ := eff.Outputs.Pop()
	if top.Kind != ast.TypeInt {
		t.Errorf("+ output = %v, want Int", top)
	}
}

func TestComparisonIsIntToBool(t *testing.T) {
	e := New()
	eff, _ := e.LookupWord("<")
	_, top, _ := eff.Outputs.Pop()
	if top.Kind != ast.TypeBool {
		t.Errorf("< output = %v, want Bool", top)
	}
}

func TestBuiltinTypes(t *testing.T) {
	e := New()

	for _, name := range []string{"Option", "Result", "List"} {
		if _, ok := e.LookupType(name); !ok {
			t.Errorf("LookupType(%s) = not found", name)
		}
	}

	if _, ok := e.LookupType("NoSuchType"); ok {
		t.Error("LookupType(NoSuchType) = found, want not found")
	}

	// Constructor words are synthesised alongside the type.
	for _, name := range []string{"Some", "None", "Ok", "Err", "Cons", "Nil"} {
		if _, ok := e.LookupWord(name); !ok {
			t.Errorf("constructor word %s not registered", name)
		}
	}
}

func TestAddWordOverwrites(t *testing.T) {
	e := New()
	custom := ast.FromSlices([]*ast.Type{ast.Int}, []*ast.Type{ast.Int, ast.Int})
	e.AddWord("dup", custom)
	eff, _ := e.LookupWord("dup")
	if eff != custom {
		t.Error("AddWord did not overwrite existing binding")
	}
}

func TestAddTypeRegistersVariants(t *testing.T) {
	e := New()
	variants, ok := e.Variants("Option")
	if !ok || len(variants) != 2 {
		t.Fatalf("Variants(Option) = %+v, ok=%v", variants, ok)
	}
	if variants[0].Name != "Some" || variants[1].Name != "None" {
		t.Errorf("Option variants = %+v, want [Some None] in declared order", variants)
	}
}

// TestConstructorFieldOrderSingleField checks the common one-field case:
// Some(T) takes T and produces Option(T).
func TestConstructorFieldOrderSingleField(t *testing.T) {
	e := New()
	eff, ok := e.LookupWord("Some")
	if !ok {
		t.Fatal("Some not registered")
	}
	rest, top, ok := eff.Inputs.Pop()
	if !ok || top.Kind != ast.TypeVar || top.Name != "T" {
		t.Fatalf("Some input top = %+v, want Var(T)", top)
	}
	if rest.Kind != ast.StackEmpty {
		t.Errorf("Some input rest = %+v, want Empty", rest)
	}
	_, out, ok := eff.Outputs.Pop()
	if !ok || out.Kind != ast.TypeNamed || out.Name != "Option" {
		t.Fatalf("Some output = %+v, want Named(Option)", out)
	}
}

// TestConstructorFieldOrderMultiField pins down the two-field case: for
// Cons(T, List(T)), the first field listed (T) is the one popped first and
// therefore sits on top of the input stack at call time, with the second
// field (List(T)) beneath it.
func TestConstructorFieldOrderMultiField(t *testing.T) {
	e := New()
	eff, ok := e.LookupWord("Cons")
	if !ok {
		t.Fatal("Cons not registered")
	}
	if d := eff.Inputs.Depth(); d != 2 {
		t.Fatalf("Cons input depth = %d, want 2", d)
	}
	rest, top, ok := eff.Inputs.Pop()
	if !ok || top.Kind != ast.TypeVar || top.Name != "T" {
		t.Fatalf("Cons input top = %+v, want Var(T)", top)
	}
	_, second, ok := rest.Pop()
	if !ok || second.Kind != ast.TypeNamed || second.Name != "List" {
		t.Fatalf("Cons input second = %+v, want Named(List)", second)
	}
}

func TestNilaryVariantHasEmptyInputs(t *testing.T) {
	e := New()
	eff, ok := e.LookupWord("None")
	if !ok {
		t.Fatal("None not registered")
	}
	if eff.Inputs.Kind != ast.StackEmpty {
		t.Errorf("None inputs = %+v, want Empty", eff.Inputs)
	}
	if d := eff.Outputs.Depth(); d != 1 {
		t.Errorf("None output depth = %d, want 1", d)
	}
}
