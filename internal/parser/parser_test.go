package parser

import (
	"strings"
	"testing"

	"github.com/navicore/cem/internal/ast"
)

func TestParseSimpleWord(t *testing.T) {
	prog, err := New(": square ( Int -- Int ) dup * ;", "t.cem").Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(prog.WordDefs) != 1 {
		t.Fatalf("len(WordDefs) = %d, want 1", len(prog.WordDefs))
	}
	wd := prog.WordDefs[0]
	if wd.Name != "square" {
		t.Errorf("Name = %q, want square", wd.Name)
	}
	if len(wd.Body) != 2 {
		t.Errorf("len(Body) = %d, want 2", len(wd.Body))
	}
}

func TestParseTypeDef(t *testing.T) {
	prog, err := New("type Option (T) | Some(T) | None", "t.cem").Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(prog.TypeDefs) != 1 {
		t.Fatalf("len(TypeDefs) = %d, want 1", len(prog.TypeDefs))
	}
	td := prog.TypeDefs[0]
	if td.Name != "Option" || len(td.TypeParams) != 1 || len(td.Variants) != 2 {
		t.Errorf("TypeDef = %+v", td)
	}
}

func TestParseLiteral(t *testing.T) {
	prog, err := New(": test ( -- Int ) 42 ;", "t.cem").Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	body := prog.WordDefs[0].Body
	if len(body) != 1 || body[0].Kind != ast.ExprIntLit || body[0].IntVal != 42 {
		t.Errorf("body = %+v", body)
	}
}

func TestParseQuotation(t *testing.T) {
	prog, err := New(": test ( -- ) [ 1 2 + ] ;", "t.cem").Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	body := prog.WordDefs[0].Body
	if len(body) != 1 || body[0].Kind != ast.ExprQuotation || len(body[0].Body) != 3 {
		t.Fatalf("body = %+v", body)
	}
}

func TestRecursionDepthLimit(t *testing.T) {
	var sb strings.Builder
	sb.WriteString(": test ( -- ) ")
	for i := 0; i < 105; i++ {
		sb.WriteString("[ ")
	}
	sb.WriteString("42 ")
	for i := 0; i < 105; i++ {
		sb.WriteString("] ")
	}
	sb.WriteString(";")

	_, err := New(sb.String(), "t.cem").Parse()
	if err == nil {
		t.Fatal("expected a nesting depth error")
	}
	if !strings.Contains(err.Error(), "nesting depth") {
		t.Errorf("err = %v, want it to mention nesting depth", err)
	}
}

func TestSourceLocationTracking(t *testing.T) {
	prog, err := New(": test ( -- Int )\n  42 ;", "test.cem").Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	wordLoc := prog.WordDefs[0].Loc
	if wordLoc.Line != 1 || wordLoc.Column != 1 || *wordLoc.File != "test.cem" {
		t.Errorf("word loc = %+v", wordLoc)
	}
	intLoc := prog.WordDefs[0].Body[0].Loc
	if intLoc.Line != 2 {
		t.Errorf("int literal line = %d, want 2", intLoc.Line)
	}
}

func TestSourceLocationSharedFilename(t *testing.T) {
	prog, err := New(": foo ( -- Int ) 1 2 + ;", "shared.cem").Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	wordLoc := prog.WordDefs[0].Loc
	for _, e := range prog.WordDefs[0].Body {
		if e.Loc.File != wordLoc.File {
			t.Error("expression location does not share the word's filename pointer")
		}
	}
}

func TestMultiFieldVariantCommaNotAFieldType(t *testing.T) {
	prog, err := New("type List(T) | Cons(T, List(T)) | Nil", "t.cem").Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	td := prog.TypeDefs[0]
	cons := td.Variants[0]
	if cons.Name != "Cons" || len(cons.Fields) != 2 {
		t.Fatalf("Cons variant = %+v", cons)
	}
	if cons.Fields[0].Kind != ast.TypeVar || cons.Fields[0].Name != "T" {
		t.Errorf("field 0 = %+v, want Var(T)", cons.Fields[0])
	}
	if cons.Fields[1].Kind != ast.TypeNamed || cons.Fields[1].Name != "List" {
		t.Errorf("field 1 = %+v, want Named(List)", cons.Fields[1])
	}
	nilVariant := td.Variants[1]
	if nilVariant.Name != "Nil" || len(nilVariant.Fields) != 0 {
		t.Errorf("Nil variant = %+v", nilVariant)
	}
}

func TestParseIfAndMatch(t *testing.T) {
	prog, err := New(`
		type Option(T) | Some(T) | None
		: pick ( Option(Int) -- Int ) match Some => [ ] None => [ 0 ] end ;
		: choose ( Bool -- Int ) if [ 1 ] [ 0 ] ;
	`, "t.cem").Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(prog.WordDefs) != 2 {
		t.Fatalf("len(WordDefs) = %d, want 2", len(prog.WordDefs))
	}
	matchExpr := prog.WordDefs[0].Body[0]
	if matchExpr.Kind != ast.ExprMatch || len(matchExpr.Branches) != 2 {
		t.Fatalf("match = %+v", matchExpr)
	}
	ifExpr := prog.WordDefs[1].Body[0]
	if ifExpr.Kind != ast.ExprIf || len(ifExpr.Then) != 1 || len(ifExpr.Else) != 1 {
		t.Fatalf("if = %+v", ifExpr)
	}
}

func TestParseErrorStopsAtFirstError(t *testing.T) {
	_, err := New(": bad (", "t.cem").Parse()
	if err == nil {
		t.Fatal("expected a parse error")
	}
}

func TestUnexpectedTopLevelToken(t *testing.T) {
	_, err := New("42", "t.cem").Parse()
	if err == nil {
		t.Fatal("expected a parse error for a bare literal at top level")
	}
}

func TestLexErrorSurfacesLexerDiagnostic(t *testing.T) {
	_, err := New(": f ( -- String ) \"unterminated\n", "t.cem").Parse()
	if err == nil {
		t.Fatal("expected a parse error for an unterminated string literal")
	}
	if !strings.Contains(err.Error(), "unterminated string literal") {
		t.Errorf("error = %q, want it to surface the lexer's diagnostic", err.Error())
	}
	if strings.Contains(err.Error(), "unexpected token: ERROR") {
		t.Errorf("error = %q, should not be the generic unexpected-token message", err.Error())
	}
}
