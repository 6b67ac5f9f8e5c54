package lexer

import (
	"testing"

	"github.com/navicore/cem/internal/token"
)

func kinds(toks []token.Token) []token.Kind {
	ks := make([]token.Kind, len(toks))
	for i, t := range toks {
		ks[i] = t.Kind
	}
	return ks
}

func TestBasicTokens(t *testing.T) {
	toks := Tokenize(": square ( Int -- Int ) dup * ;", "t.cem")
	want := []token.Kind{
		token.Colon, token.Ident, token.LParen, token.Ident, token.DashDash,
		token.Ident, token.RParen, token.Ident, token.Ident, token.Semicolon, token.EOF,
	}
	got := kinds(toks)
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d (%v)", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: kind = %v, want %v", i, got[i], want[i])
		}
	}
	if toks[1].Text != "square" {
		t.Errorf("toks[1].Text = %q, want %q", toks[1].Text, "square")
	}
}

func TestNumbers(t *testing.T) {
	toks := Tokenize("42 -17 0", "t.cem")
	cases := []string{"42", "-17", "0"}
	for i, want := range cases {
		if toks[i].Kind != token.Int {
			t.Errorf("toks[%d].Kind = %v, want Int", i, toks[i].Kind)
		}
		if toks[i].Text != want {
			t.Errorf("toks[%d].Text = %q, want %q", i, toks[i].Text, want)
		}
	}
}

func TestStrings(t *testing.T) {
	toks := Tokenize(`"hello" "world\n"`, "t.cem")
	if toks[0].Kind != token.String || toks[0].Text != "hello" {
		t.Errorf("toks[0] = %+v", toks[0])
	}
	if toks[1].Kind != token.String || toks[1].Text != "world\n" {
		t.Errorf("toks[1] = %+v", toks[1])
	}
}

func TestOperatorsAreIdentifiers(t *testing.T) {
	toks := Tokenize("+ - * / < > = dup", "t.cem")
	ops := []string{"+", "-", "*", "/", "<", ">", "="}
	for i, want := range ops {
		if toks[i].Kind != token.Ident || toks[i].Text != want {
			t.Errorf("toks[%d] = %+v, want Ident %q", i, toks[i], want)
		}
	}
	if toks[7].Text != "dup" {
		t.Errorf("toks[7].Text = %q, want dup", toks[7].Text)
	}
}

func TestEqualsPrefixedIdentifierIsNotSplit(t *testing.T) {
	toks := Tokenize("=default 10", "t.cem")
	if toks[0].Kind != token.Ident || toks[0].Text != "=default" {
		t.Errorf("toks[0] = %+v, want Ident \"=default\"", toks[0])
	}
	if toks[1].Kind != token.Int || toks[1].Text != "10" {
		t.Errorf("toks[1] = %+v, want Int \"10\"", toks[1])
	}
}

func TestFatArrowIsStillRecognizedBeforeEquals(t *testing.T) {
	toks := Tokenize("Some => [ ]", "t.cem")
	if toks[0].Kind != token.Ident || toks[0].Text != "Some" {
		t.Errorf("toks[0] = %+v", toks[0])
	}
	if toks[1].Kind != token.FatArrow || toks[1].Text != "=>" {
		t.Errorf("toks[1] = %+v, want FatArrow \"=>\"", toks[1])
	}
}

func TestLineComments(t *testing.T) {
	toks := Tokenize("# a comment\n42", "t.cem")
	if toks[0].Kind != token.Int || toks[0].Text != "42" {
		t.Errorf("toks[0] = %+v", toks[0])
	}
}

func TestUnterminatedStringNewline(t *testing.T) {
	toks := Tokenize("\"hello\n", "t.cem")
	if toks[0].Kind != token.Error {
		t.Fatalf("toks[0].Kind = %v, want Error", toks[0].Kind)
	}
	if got := toks[0].Text; got[:6] != "ERROR:" {
		t.Errorf("toks[0].Text = %q, want ERROR: prefix", got)
	}
}

func TestUnterminatedStringEOF(t *testing.T) {
	toks := Tokenize("\"hello", "t.cem")
	if toks[0].Kind != token.Error {
		t.Fatalf("toks[0].Kind = %v, want Error", toks[0].Kind)
	}
}

func TestMaxStringLength(t *testing.T) {
	var sb []byte
	sb = append(sb, '"')
	for i := 0; i < 1_000_001; i++ {
		sb = append(sb, 'a')
	}
	sb = append(sb, '"')
	toks := Tokenize(string(sb), "t.cem")
	if toks[0].Kind != token.Error {
		t.Fatalf("toks[0].Kind = %v, want Error", toks[0].Kind)
	}
}

func TestNewlineTracksLineNumber(t *testing.T) {
	toks := Tokenize("42\n43\n44", "t.cem")
	wantLines := []int{1, 2, 3}
	for i, want := range wantLines {
		if toks[i].Loc.Line != want {
			t.Errorf("toks[%d].Loc.Line = %d, want %d", i, toks[i].Loc.Line, want)
		}
	}
}

func TestFilenameIsInternedByReference(t *testing.T) {
	toks := Tokenize(": f ( -- ) 1 2 ;", "shared.cem")
	if len(toks) < 2 {
		t.Fatal("expected at least two tokens")
	}
	if toks[0].Loc.File != toks[1].Loc.File {
		t.Error("Loc.File pointers differ across tokens from the same lex pass")
	}
}

func TestHyphenatedIdentifierConsumesDigitsWhole(t *testing.T) {
	// "int-to-string" must lex as one identifier, not split at a hyphen, and
	// "foo-3" must not split into "foo" and the integer "-3".
	for _, src := range []string{"int-to-string", "foo-3"} {
		toks := Tokenize(src, "t.cem")
		if toks[0].Kind != token.Ident || toks[0].Text != src {
			t.Errorf("toks[0] = %+v, want Ident %q", toks[0], src)
		}
	}
}

func TestKeywords(t *testing.T) {
	toks := Tokenize("type match end if", "t.cem")
	want := []token.Kind{token.Type, token.Match, token.End, token.If}
	for i, k := range want {
		if toks[i].Kind != k {
			t.Errorf("toks[%d].Kind = %v, want %v", i, toks[i].Kind, k)
		}
	}
}

func TestBooleanLiterals(t *testing.T) {
	toks := Tokenize("true false", "t.cem")
	if toks[0].Kind != token.Bool || toks[0].Text != "true" {
		t.Errorf("toks[0] = %+v", toks[0])
	}
	if toks[1].Kind != token.Bool || toks[1].Text != "false" {
		t.Errorf("toks[1] = %+v", toks[1])
	}
}
