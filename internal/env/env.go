// Package env implements the type-checking environment (spec.md §4.3): two
// name-keyed maps (word effects, type definitions) seeded with built-in
// primitives and ADTs. Grounded on lang/yparse/symtab.go's SymbolTable
// shape, adapted to Cem's word/type split.
package env

import "github.com/navicore/cem/internal/ast"

// Env holds the word and type symbol tables for a compilation unit. typeOrder
// tracks AddType's call order, independent of the types map, so consumers
// that need to replay variant registrations deterministically (the emitter's
// variant layout) see later AddType calls override earlier ones the same
// way AddWord's map overwrite already does for colliding variant names.
type Env struct {
	words     map[string]*ast.Effect
	types     map[string]*ast.TypeDef
	typeOrder []*ast.TypeDef
	builtins  map[string]bool
}

// New creates an Env pre-populated with the built-in primitives and ADTs
// (spec.md §4.3 "Initialised with built-in primitives").
func New() *Env {
	e := &Env{
		words:    make(map[string]*ast.Effect),
		types:    make(map[string]*ast.TypeDef),
		builtins: make(map[string]bool),
	}
	e.addBuiltinWords()
	e.addBuiltinTypes()
	return e
}

// AddWord registers (or overwrites) a word's effect signature.
func (e *Env) AddWord(name string, eff *ast.Effect) {
	e.words[name] = eff
}

// addBuiltinWord registers a built-in primitive and marks it reserved: a
// user word definition may not reuse its name. Most built-ins mangle to the
// name of a runtime function that the emitter declares in every module
// regardless of what's in the environment (abi.Functions()), so a
// user-defined function of the same name would collide with that
// declaration and, at link time, with the runtime archive.
func (e *Env) addBuiltinWord(name string, eff *ast.Effect) {
	e.AddWord(name, eff)
	e.builtins[name] = true
}

// IsBuiltinPrimitive reports whether name is a reserved built-in primitive
// word (not a user-defined word or variant constructor, which may be
// freely added or overridden).
func (e *Env) IsBuiltinPrimitive(name string) bool {
	return e.builtins[name]
}

// LookupWord returns the effect registered for name, or nil.
func (e *Env) LookupWord(name string) (*ast.Effect, bool) {
	eff, ok := e.words[name]
	return eff, ok
}

// AddType registers typedef and synthesises one constructor word per
// variant (spec.md §4.3 "Registering a user ADT").
func (e *Env) AddType(td *ast.TypeDef) {
	var resultArgs []*ast.Type
	for _, p := range td.TypeParams {
		resultArgs = append(resultArgs, ast.NewVar(p))
	}
	resultType := ast.NewNamed(td.Name, resultArgs)

	for _, v := range td.Variants {
		// Fields are popped in source order at construction time (spec.md
		// §4.6 "n-field variant"): the first field listed ends up on top
		// of the input stack, because it is the first one popped off by
		// the constructor body. Built here by pushing fields in reverse
		// declaration order onto an empty stack, so the last push (the
		// first field) lands on top.
		inputs := ast.Empty
		for i := len(v.Fields) - 1; i >= 0; i-- {
			inputs = ast.Push(inputs, v.Fields[i])
		}
		outputs := ast.Push(ast.Empty, resultType)
		e.AddWord(v.Name, ast.NewEffect(inputs, outputs))
	}

	e.types[td.Name] = td
	e.typeOrder = append(e.typeOrder, td)
}

// LookupType returns the type definition registered for name, or nil.
func (e *Env) LookupType(name string) (*ast.TypeDef, bool) {
	td, ok := e.types[name]
	return td, ok
}

// Variants returns the ordered variant list of the named ADT, for
// exhaustiveness checking (spec.md §4.5).
func (e *Env) Variants(typeName string) ([]*ast.Variant, bool) {
	td, ok := e.types[typeName]
	if !ok {
		return nil, false
	}
	return td.Variants, true
}

// AllTypeDefs returns every registered type definition, built-in and
// user-defined alike, in AddType call order. The emitter uses this to build
// its variant tag/field layout from the same source of truth the checker
// used, rather than re-deriving built-in ADT shapes itself; replaying in
// call order means a later variant name collision overrides an earlier one,
// matching AddWord's overwrite semantics for the synthesised constructor.
func (e *Env) AllTypeDefs() []*ast.TypeDef {
	return e.typeOrder
}

func simpleEffect(inputs, outputs []*ast.Type) *ast.Effect {
	return ast.FromSlices(inputs, outputs)
}

func (e *Env) addBuiltinWords() {
	a := ast.NewVar("A")
	b := ast.NewVar("B")
	c := ast.NewVar("C")

	// Stack operations (spec.md §4.3 "Stack ops").
	e.addBuiltinWord("dup", ast.NewEffect(ast.FromSlice([]*ast.Type{a}), ast.FromSlice([]*ast.Type{a, a})))
	e.addBuiltinWord("drop", ast.NewEffect(ast.FromSlice([]*ast.Type{a}), ast.Empty))
	e.addBuiltinWord("swap", ast.NewEffect(ast.FromSlice([]*ast.Type{a, b}), ast.FromSlice([]*ast.Type{b, a})))
	e.addBuiltinWord("over", ast.NewEffect(ast.FromSlice([]*ast.Type{a, b}), ast.FromSlice([]*ast.Type{a, b, a})))
	e.addBuiltinWord("rot", ast.NewEffect(ast.FromSlice([]*ast.Type{a, b, c}), ast.FromSlice([]*ast.Type{b, c, a})))
	e.addBuiltinWord("nip", ast.NewEffect(ast.FromSlice([]*ast.Type{a, b}), ast.FromSlice([]*ast.Type{b})))
	e.addBuiltinWord("tuck", ast.NewEffect(ast.FromSlice([]*ast.Type{a, b}), ast.FromSlice([]*ast.Type{b, a, b})))
	e.addBuiltinWord("clone", ast.NewEffect(ast.FromSlice([]*ast.Type{a}), ast.FromSlice([]*ast.Type{a, a})))

	// Integer arithmetic (spec.md §4.3 "Integer arithmetic").
	for _, op := range []string{"+", "-", "*", "/"} {
		e.addBuiltinWord(op, simpleEffect([]*ast.Type{ast.Int, ast.Int}, []*ast.Type{ast.Int}))
	}

	// Integer comparisons (spec.md §4.3 "Integer comparisons").
	for _, op := range []string{"=", "<", ">", "<=", ">=", "!="} {
		e.addBuiltinWord(op, simpleEffect([]*ast.Type{ast.Int, ast.Int}, []*ast.Type{ast.Bool}))
	}

	// Conversions (spec.md §4.3 "Conversions").
	e.addBuiltinWord("int-to-string", simpleEffect([]*ast.Type{ast.Int}, []*ast.Type{ast.String}))
	e.addBuiltinWord("bool-to-string", simpleEffect([]*ast.Type{ast.Bool}, []*ast.Type{ast.String}))

	// exit: (Int -- ), non-returning.
	e.addBuiltinWord("exit", simpleEffect([]*ast.Type{ast.Int}, nil))
}

func (e *Env) addBuiltinTypes() {
	// Option(T) | Some(T) | None
	e.AddType(&ast.TypeDef{
		Name:       "Option",
		TypeParams: []string{"T"},
		Variants: []*ast.Variant{
			{Name: "Some", Fields: []*ast.Type{ast.NewVar("T")}},
			{Name: "None"},
		},
	})

	// Result(T, E) | Ok(T) | Err(E)
	e.AddType(&ast.TypeDef{
		Name:       "Result",
		TypeParams: []string{"T", "E"},
		Variants: []*ast.Variant{
			{Name: "Ok", Fields: []*ast.Type{ast.NewVar("T")}},
			{Name: "Err", Fields: []*ast.Type{ast.NewVar("E")}},
		},
	})

	// List(T) | Cons(T, List(T)) | Nil
	e.AddType(&ast.TypeDef{
		Name:       "List",
		TypeParams: []string{"T"},
		Variants: []*ast.Variant{
			{Name: "Cons", Fields: []*ast.Type{
				ast.NewVar("T"),
				ast.NewNamed("List", []*ast.Type{ast.NewVar("T")}),
			}},
			{Name: "Nil"},
		},
	})
}
