// Package ast defines the shared data model (spec.md §3): types, stack
// types, effects, expressions, patterns, and programs. Nodes are built
// once by the parser and are immutable afterward.
package ast

import "strings"

// TypeKind identifies which case of the Type tagged union is populated.
type TypeKind int

const (
	TypeInvalid TypeKind = iota
	TypeInt
	TypeBool
	TypeString
	TypeVar       // type variable, Name holds the variable identifier
	TypeNamed     // named ADT, Name + Args
	TypeQuotation // Quotation(Effect)
)

// Type is a Cem type (spec.md §3 "Types"). It is a tagged union in the
// style of lang/yparse/types.go's Type/TypeKind.
type Type struct {
	Kind TypeKind
	Name string  // TypeVar: variable name; TypeNamed: ADT name
	Args []*Type // TypeNamed: type arguments
	Eff  *Effect // TypeQuotation: the quotation's effect
}

var (
	Int    = &Type{Kind: TypeInt}
	Bool   = &Type{Kind: TypeBool}
	String = &Type{Kind: TypeString}
)

// NewVar creates a type variable.
func NewVar(name string) *Type { return &Type{Kind: TypeVar, Name: name} }

// NewNamed creates a named-type instantiation.
func NewNamed(name string, args []*Type) *Type {
	return &Type{Kind: TypeNamed, Name: name, Args: args}
}

// NewQuotation creates a quotation type parameterized by eff.
func NewQuotation(eff *Effect) *Type {
	return &Type{Kind: TypeQuotation, Eff: eff}
}

// IsCopy reports whether values of t may be freely duplicated without an
// explicit clone (spec.md §3 "Copyability"). Not currently enforced by the
// checker — see spec.md §9.
func (t *Type) IsCopy() bool {
	switch t.Kind {
	case TypeInt, TypeBool, TypeQuotation:
		return true
	default:
		return false
	}
}

// IsLinear is the complement of IsCopy.
func (t *Type) IsLinear() bool { return !t.IsCopy() }

func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind {
	case TypeInt:
		return "Int"
	case TypeBool:
		return "Bool"
	case TypeString:
		return "String"
	case TypeVar:
		return t.Name
	case TypeNamed:
		if len(t.Args) == 0 {
			return t.Name
		}
		var sb strings.Builder
		sb.WriteString(t.Name)
		sb.WriteByte('<')
		for i, a := range t.Args {
			if i > 0 {
				sb.WriteString(",")
			}
			sb.WriteString(a.String())
		}
		sb.WriteByte('>')
		return sb.String()
	case TypeQuotation:
		return "[" + t.Eff.String() + "]"
	default:
		return "<invalid>"
	}
}

// StackKind identifies which case of the StackType tagged union is
// populated.
type StackKind int

const (
	StackInvalid StackKind = iota
	StackEmpty
	StackCons
	StackRowVar
)

// StackType represents the state of a stack using row polymorphism
// (spec.md §3 "Stack types").
type StackType struct {
	Kind StackKind
	Rest *StackType // StackCons
	Top  *Type      // StackCons
	Row  string     // StackRowVar
}

// Empty is the empty stack type.
var Empty = &StackType{Kind: StackEmpty}

// Push returns a new stack type with ty on top of s.
func Push(s *StackType, ty *Type) *StackType {
	return &StackType{Kind: StackCons, Rest: s, Top: ty}
}

// NewRowVar creates a row (tail) variable.
func NewRowVar(name string) *StackType {
	return &StackType{Kind: StackRowVar, Row: name}
}

// FromSlice builds a stack type from a slice of types, bottom to top
// (types[0] is deepest).
func FromSlice(types []*Type) *StackType {
	s := Empty
	for _, t := range types {
		s = Push(s, t)
	}
	return s
}

// Pop returns the stack below the top element and the top element itself.
// ok is false for Empty or RowVar.
func (s *StackType) Pop() (rest *StackType, top *Type, ok bool) {
	if s.Kind != StackCons {
		return nil, nil, false
	}
	return s.Rest, s.Top, true
}

// Depth returns the number of elements in s, or -1 if undefined (RowVar
// anywhere in the tail chain).
func (s *StackType) Depth() int {
	switch s.Kind {
	case StackEmpty:
		return 0
	case StackCons:
		d := s.Rest.Depth()
		if d < 0 {
			return -1
		}
		return d + 1
	default:
		return -1
	}
}

func (s *StackType) String() string {
	switch s.Kind {
	case StackEmpty:
		return ""
	case StackCons:
		rest := s.Rest.String()
		if rest != "" {
			return rest + " " + s.Top.String()
		}
		return s.Top.String()
	case StackRowVar:
		return s.Row
	default:
		return "<invalid>"
	}
}

// Effect is the pair (inputs -> outputs) describing a word's stack
// transformation (spec.md §3 "Effects").
type Effect struct {
	Inputs  *StackType
	Outputs *StackType
}

// NewEffect builds an Effect.
func NewEffect(inputs, outputs *StackType) *Effect {
	return &Effect{Inputs: inputs, Outputs: outputs}
}

// FromSlices builds an Effect from input/output type slices, bottom to top.
func FromSlices(inputs, outputs []*Type) *Effect {
	return NewEffect(FromSlice(inputs), FromSlice(outputs))
}

func (e *Effect) String() string {
	return "( " + e.Inputs.String() + " -- " + e.Outputs.String() + " )"
}

// Compose composes two effects by requiring the outputs of first to equal
// (structurally) the inputs of second. This is only correct for monomorphic
// effects; polymorphic composition must go through the unifier (spec.md §9).
func Compose(first, second *Effect) (*Effect, bool) {
	if !stackTypeEqual(first.Outputs, second.Inputs) {
		return nil, false
	}
	return &Effect{Inputs: first.Inputs, Outputs: second.Outputs}, true
}

func stackTypeEqual(a, b *StackType) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case StackEmpty:
		return true
	case StackRowVar:
		return a.Row == b.Row
	case StackCons:
		return typeEqual(a.Top, b.Top) && stackTypeEqual(a.Rest, b.Rest)
	}
	return false
}

func typeEqual(a, b *Type) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case TypeInt, TypeBool, TypeString:
		return true
	case TypeVar:
		return a.Name == b.Name
	case TypeNamed:
		if a.Name != b.Name || len(a.Args) != len(b.Args) {
			return false
		}
		for i := range a.Args {
			if !typeEqual(a.Args[i], b.Args[i]) {
				return false
			}
		}
		return true
	case TypeQuotation:
		return effectEqual(a.Eff, b.Eff)
	}
	return false
}

func effectEqual(a, b *Effect) bool {
	return stackTypeEqual(a.Inputs, b.Inputs) && stackTypeEqual(a.Outputs, b.Outputs)
}
