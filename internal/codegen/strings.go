package codegen

import "fmt"

// stringInterner assigns one private global per distinct string literal,
// reusing the same global for repeated occurrences (spec.md §4.6 "String
// interning").
type stringInterner struct {
	names   map[string]string
	order   []string
	counter int
}

func newStringInterner() *stringInterner {
	return &stringInterner{names: make(map[string]string)}
}

// intern returns the global name for s, allocating a fresh one on first
// use.
func (si *stringInterner) intern(s string) string {
	if name, ok := si.names[s]; ok {
		return name
	}
	name := fmt.Sprintf("@.str.%d", si.counter)
	si.counter++
	si.names[s] = name
	si.order = append(si.order, s)
	return name
}

// escapeLLVMString escapes s for an LLVM `c"..."` string constant: `\\`
// and `"` get explicit escapes, anything outside printable ASCII is
// escaped as two-digit hex (spec.md §4.6 "String interning").
func escapeLLVMString(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\':
			out = append(out, []byte("\\5C")...)
		case c == '"':
			out = append(out, []byte("\\22")...)
		case c >= 0x20 && c < 0x7f:
			out = append(out, c)
		default:
			out = append(out, []byte(fmt.Sprintf("\\%02X", c))...)
		}
	}
	return string(out)
}

// emitStringGlobals writes one private unnamed_addr global constant per
// interned string literal, each a null-terminated array of i8, to the
// emitter's current target.
func (e *Emitter) emitStringGlobals() {
	for _, s := range e.strings.order {
		name := e.strings.names[s]
		n := len(s) + 1
		e.line("%s = private unnamed_addr constant [%d x i8] c\"%s\\00\"", name, n, escapeLLVMString(s))
	}
	if e.matchErrorUsed {
		msg := "match error: no branch matched"
		n := len(msg) + 1
		e.line("@.str.match_error = private unnamed_addr constant [%d x i8] c\"%s\\00\"", n, escapeLLVMString(msg))
	}
}
