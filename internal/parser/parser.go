// Package parser implements a recursive-descent parser building a typed
// AST from the Cem token stream (spec.md §4.2).
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/navicore/cem/internal/ast"
	"github.com/navicore/cem/internal/lexer"
	"github.com/navicore/cem/internal/token"
)

// maxNestingDepth bounds combined type/expression nesting (spec.md §4.2).
const maxNestingDepth = 100

// Error is a parse error: message plus the source location of the
// offending token (spec.md §7 "Parse error").
type Error struct {
	Message string
	Loc     token.Loc
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Loc, e.Message)
}

// Parser consumes a fixed token slice (produced up front by the lexer) and
// builds an ast.Program. It stops at the first error (spec.md §4.2).
type Parser struct {
	toks    []token.Token
	pos     int
	nesting int
}

// New lexes src in full and returns a Parser ready to parse it.
func New(src, filename string) *Parser {
	return &Parser{toks: lexer.Tokenize(src, filename)}
}

// Parse parses a complete program: a sequence of type and word
// definitions (spec.md §4.2 "Top level").
func (p *Parser) Parse() (*ast.Program, error) {
	prog := &ast.Program{}
	for !p.atEnd() {
		switch {
		case p.check(token.Type):
			td, err := p.parseTypeDef()
			if err != nil {
				return nil, err
			}
			prog.TypeDefs = append(prog.TypeDefs, td)
		case p.check(token.Colon):
			wd, err := p.parseWordDef()
			if err != nil {
				return nil, err
			}
			prog.WordDefs = append(prog.WordDefs, wd)
		default:
			return nil, p.errorf("expected 'type' or ':'")
		}
	}
	return prog, nil
}

func (p *Parser) peek() token.Token {
	return p.toks[p.pos]
}

func (p *Parser) atEnd() bool {
	return p.peek().Kind == token.EOF
}

func (p *Parser) advance() token.Token {
	t := p.peek()
	if !p.atEnd() {
		p.pos++
	}
	return t
}

func (p *Parser) check(k token.Kind) bool {
	return !p.atEnd() && p.peek().Kind == k
}

func (p *Parser) checkIdentValue(v string) bool {
	t := p.peek()
	return t.Kind == token.Ident && t.Text == v
}

func (p *Parser) errorf(format string, args ...interface{}) *Error {
	return &Error{Message: fmt.Sprintf(format, args...), Loc: p.peek().Loc}
}

func (p *Parser) consume(k token.Kind, msg string) (token.Token, error) {
	if p.check(k) {
		return p.advance(), nil
	}
	return token.Token{}, p.errorf("%s", msg)
}

func (p *Parser) consumeIdent(msg string) (string, token.Loc, error) {
	if p.peek().Kind == token.Ident {
		t := p.advance()
		return t.Text, t.Loc, nil
	}
	return "", token.Loc{}, p.errorf("%s", msg)
}

func (p *Parser) enterNesting() error {
	p.nesting++
	if p.nesting > maxNestingDepth {
		return p.errorf("maximum nesting depth of %d exceeded", maxNestingDepth)
	}
	return nil
}

func (p *Parser) exitNesting() {
	if p.nesting > 0 {
		p.nesting--
	}
}

// parseTypeDef parses `type Name [ ( p1 p2 ... ) ] | variant ("|" variant)*`.
func (p *Parser) parseTypeDef() (*ast.TypeDef, error) {
	kw, err := p.consume(token.Type, "expected 'type'")
	if err != nil {
		return nil, err
	}
	name, _, err := p.consumeIdent("expected type name")
	if err != nil {
		return nil, err
	}

	var params []string
	if p.check(token.LParen) {
		p.advance()
		for !p.check(token.RParen) && !p.atEnd() {
			pname, _, err := p.consumeIdent("expected type parameter")
			if err != nil {
				return nil, err
			}
			params = append(params, pname)
			if p.check(token.RParen) {
				break
			}
		}
		if _, err := p.consume(token.RParen, "expected ')'"); err != nil {
			return nil, err
		}
	}

	if _, err := p.consume(token.Pipe, "expected '|' before first variant"); err != nil {
		return nil, err
	}

	var variants []*ast.Variant
	for {
		vname, vloc, err := p.consumeIdent("expected variant name")
		if err != nil {
			return nil, err
		}
		var fields []*ast.Type
		if p.check(token.LParen) {
			p.advance()
			for !p.check(token.RParen) && !p.atEnd() {
				ty, err := p.parseType()
				if err != nil {
					return nil, err
				}
				fields = append(fields, ty)
				// A comma is consumed only between fields, never parsed as a
				// field type itself (spec.md §4.2).
				if p.checkIdentValue(",") {
					p.advance()
				} else {
					break
				}
			}
			if _, err := p.consume(token.RParen, "expected ')'"); err != nil {
				return nil, err
			}
		}
		variants = append(variants, &ast.Variant{Name: vname, Fields: fields, Loc: vloc})

		if p.check(token.Pipe) {
			p.advance()
		} else {
			break
		}
	}

	return &ast.TypeDef{Name: name, TypeParams: params, Variants: variants, Loc: kw.Loc}, nil
}

// parseWordDef parses `: name ( effect ) body ;`.
func (p *Parser) parseWordDef() (*ast.WordDef, error) {
	colon, err := p.consume(token.Colon, "expected ':'")
	if err != nil {
		return nil, err
	}
	name, _, err := p.consumeIdent("expected word name")
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.LParen, "expected '(' for effect signature"); err != nil {
		return nil, err
	}
	effect, err := p.parseEffect()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.RParen, "expected ')' after effect signature"); err != nil {
		return nil, err
	}

	var body []ast.Expr
	for !p.check(token.Semicolon) && !p.atEnd() {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		body = append(body, e)
	}
	if _, err := p.consume(token.Semicolon, "expected ';' at end of word definition"); err != nil {
		return nil, err
	}

	return &ast.WordDef{Name: name, Effect: effect, Body: body, Loc: colon.Loc}, nil
}

func (p *Parser) parseEffect() (*ast.Effect, error) {
	var inputs []*ast.Type
	for !p.check(token.DashDash) && !p.atEnd() {
		ty, err := p.parseType()
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, ty)
	}
	if _, err := p.consume(token.DashDash, "expected '--' in effect signature"); err != nil {
		return nil, err
	}
	var outputs []*ast.Type
	for !p.check(token.RParen) && !p.atEnd() {
		ty, err := p.parseType()
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, ty)
	}
	return ast.FromSlices(inputs, outputs), nil
}

func (p *Parser) parseType() (*ast.Type, error) {
	if err := p.enterNesting(); err != nil {
		return nil, err
	}
	defer p.exitNesting()
	return p.parseTypeInner()
}

func (p *Parser) parseTypeInner() (*ast.Type, error) {
	name, _, err := p.consumeIdent("expected type name")
	if err != nil {
		return nil, err
	}

	switch name {
	case "Int":
		return ast.Int, nil
	case "Bool":
		return ast.Bool, nil
	case "String":
		return ast.String, nil
	}

	// Single uppercase letter, or any lowercase-starting name, is a type
	// variable (spec.md §4.2 "Type parsing").
	isUpper := func(c byte) bool { return c >= 'A' && c <= 'Z' }
	isLower := func(c byte) bool { return c >= 'a' && c <= 'z' }
	if (len(name) == 1 && isUpper(name[0])) || (len(name) > 0 && isLower(name[0])) {
		return ast.NewVar(name), nil
	}

	var args []*ast.Type
	if p.check(token.LParen) {
		p.advance()
		for !p.check(token.RParen) && !p.atEnd() {
			arg, err := p.parseType()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.check(token.RParen) {
				break
			}
		}
		if _, err := p.consume(token.RParen, "expected ')'"); err != nil {
			return nil, err
		}
	}
	return ast.NewNamed(name, args), nil
}

func (p *Parser) parseExpr() (ast.Expr, error) {
	if err := p.enterNesting(); err != nil {
		return ast.Expr{}, err
	}
	defer p.exitNesting()
	return p.parseExprInner()
}

func (p *Parser) parseExprInner() (ast.Expr, error) {
	t := p.peek()
	switch t.Kind {
	case token.Int:
		v, err := strconv.ParseInt(t.Text, 10, 64)
		if err != nil {
			return ast.Expr{}, p.errorf("invalid integer: %s", t.Text)
		}
		p.advance()
		return ast.IntLit(v, t.Loc), nil

	case token.Bool:
		p.advance()
		return ast.BoolLit(t.Text == "true", t.Loc), nil

	case token.String:
		p.advance()
		return ast.StringLit(t.Text, t.Loc), nil

	case token.LBracket:
		p.advance()
		var body []ast.Expr
		for !p.check(token.RBracket) && !p.atEnd() {
			e, err := p.parseExpr()
			if err != nil {
				return ast.Expr{}, err
			}
			body = append(body, e)
		}
		if _, err := p.consume(token.RBracket, "expected ']'"); err != nil {
			return ast.Expr{}, err
		}
		return ast.Quotation(body, t.Loc), nil

	case token.Match:
		p.advance()
		var branches []ast.MatchBranch
		for !p.check(token.End) && !p.atEnd() {
			vname, vloc, err := p.consumeIdent("expected variant name")
			if err != nil {
				return ast.Expr{}, err
			}
			if _, err := p.consume(token.FatArrow, "expected '=>'"); err != nil {
				return ast.Expr{}, err
			}
			if _, err := p.consume(token.LBracket, "expected '[' for branch body"); err != nil {
				return ast.Expr{}, err
			}
			var body []ast.Expr
			for !p.check(token.RBracket) && !p.atEnd() {
				e, err := p.parseExpr()
				if err != nil {
					return ast.Expr{}, err
				}
				body = append(body, e)
			}
			if _, err := p.consume(token.RBracket, "expected ']'"); err != nil {
				return ast.Expr{}, err
			}
			branches = append(branches, ast.MatchBranch{
				Pattern: ast.Pattern{VariantName: vname},
				Body:    body,
				Loc:     vloc,
			})
		}
		if _, err := p.consume(token.End, "expected 'end'"); err != nil {
			return ast.Expr{}, err
		}
		return ast.Match(branches, t.Loc), nil

	case token.If:
		p.advance()
		if _, err := p.consume(token.LBracket, "expected '[' for then branch"); err != nil {
			return ast.Expr{}, err
		}
		var thenBody []ast.Expr
		for !p.check(token.RBracket) && !p.atEnd() {
			e, err := p.parseExpr()
			if err != nil {
				return ast.Expr{}, err
			}
			thenBody = append(thenBody, e)
		}
		if _, err := p.consume(token.RBracket, "expected ']'"); err != nil {
			return ast.Expr{}, err
		}
		if _, err := p.consume(token.LBracket, "expected '[' for else branch"); err != nil {
			return ast.Expr{}, err
		}
		var elseBody []ast.Expr
		for !p.check(token.RBracket) && !p.atEnd() {
			e, err := p.parseExpr()
			if err != nil {
				return ast.Expr{}, err
			}
			elseBody = append(elseBody, e)
		}
		if _, err := p.consume(token.RBracket, "expected ']'"); err != nil {
			return ast.Expr{}, err
		}
		return ast.If(thenBody, elseBody, t.Loc), nil

	case token.Ident:
		p.advance()
		return ast.WordCall(t.Text, t.Loc), nil

	case token.Error:
		return ast.Expr{}, &Error{Message: strings.TrimPrefix(t.Text, "ERROR: "), Loc: t.Loc}

	default:
		return ast.Expr{}, p.errorf("unexpected token: %s", t.Kind)
	}
}
