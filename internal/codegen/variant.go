package codegen

import (
	"github.com/navicore/cem/internal/ast"
	"github.com/navicore/cem/internal/env"
)

// variantInfo is the layout computed for one ADT variant (spec.md §4.6
// "Variant layout"): its zero-based tag (position within the type) and
// its field count.
type variantInfo struct {
	Tag        uint32
	FieldCount int
	TypeName   string
	Fields     []*ast.Type
}

// variantLayout maps every variant name known to the type-checking
// environment to its tag and field count. Built once, before any function
// is emitted, so construction and destructuring can look tags up by name
// alone. Built from the same env the checker populated, so built-in ADTs
// (Option/Result/List) and user-defined ones are both covered without
// re-deriving the built-in shapes here.
type variantLayout struct {
	byName map[string]*variantInfo
}

func buildVariantLayout(e *env.Env) *variantLayout {
	l := &variantLayout{byName: make(map[string]*variantInfo)}
	for _, td := range e.AllTypeDefs() {
		for i, v := range td.Variants {
			l.byName[v.Name] = &variantInfo{
				Tag:        uint32(i),
				FieldCount: len(v.Fields),
				TypeName:   td.Name,
				Fields:     v.Fields,
			}
		}
	}
	return l
}

func (l *variantLayout) lookup(name string) (*variantInfo, bool) {
	v, ok := l.byName[name]
	return v, ok
}
