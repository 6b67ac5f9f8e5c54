package codegen

import "strings"

// operatorMangling maps the Cem operator words to the LLVM function names
// the runtime exports for them (spec.md §4.6 "Name mangling").
var operatorMangling = map[string]string{
	"+":  "add",
	"-":  "subtract",
	"*":  "multiply",
	"/":  "divide",
	"<":  "lt",
	">":  "gt",
	"<=": "le",
	">=": "ge",
	"=":  "eq",
	"!=": "ne",
}

// Mangle maps a Cem word name to its emitted LLVM function name.
func Mangle(name string) string {
	if mangled, ok := operatorMangling[name]; ok {
		return mangled
	}
	if name == "exit" {
		return "exit_op"
	}
	if name == "main" {
		return "cem_main"
	}
	return strings.ReplaceAll(name, "-", "_")
}
