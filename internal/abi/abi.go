// Package abi describes the runtime ABI contract the emitter relies on
// (spec.md §4.7): the stack cell memory layout and the declared runtime
// functions. It holds no behavior, only data, in the style of
// lang/ygen/ir_types.go's plain IR structs; the layout itself is confirmed
// against original_source/runtime/src/{stack,pattern,scheduler}.rs.
package abi

// Cell tag values, matching the `tag` field at offset 0 of a stack cell.
const (
	TagInt     = 0
	TagBool    = 1
	TagString  = 2
	TagVariant = 3
)

// StackCell field offsets and sizes, in bytes. The layout is 32 bytes
// total, little-endian, 8-byte aligned.
const (
	CellSize = 32

	OffsetTag   = 0
	SizeTag     = 4
	OffsetPad0  = 4
	SizePad0    = 4
	OffsetUnion = 8
	SizeUnion   = 16
	OffsetNext  = 24
	SizeNext    = 8
)

// Field is one named, offset-positioned field of the stack cell. The
// emitter addresses fields through the Offset* constants above; CellFields
// lists the same layout as data.
type Field struct {
	Name   string
	Offset int
	Size   int
}

// CellFields enumerates the stack cell's fields in memory order.
var CellFields = []Field{
	{Name: "tag", Offset: OffsetTag, Size: SizeTag},
	{Name: "pad0", Offset: OffsetPad0, Size: SizePad0},
	{Name: "union", Offset: OffsetUnion, Size: SizeUnion},
	{Name: "next", Offset: OffsetNext, Size: SizeNext},
}

// VariantUnion describes the layout of the union area when tag == TagVariant
// (spec.md §4.7 "union: ... {u32 variant_tag, u32 pad, ptr variant_data}").
// The offsets are relative to OffsetUnion.
const (
	VariantUnionTagOffset  = 0
	VariantUnionPadOffset  = 4
	VariantUnionDataOffset = 8
)

// FuncSig is the signature of one runtime function the emitter may
// reference, expressed in LLVM textual types.
type FuncSig struct {
	Name       string
	ParamTypes []string
	ReturnType string
}

func sig(name, ret string, params ...string) FuncSig {
	return FuncSig{Name: name, ParamTypes: params, ReturnType: ret}
}

// StackOps are the `ptr -> ptr` stack manipulation primitives (spec.md
// §4.7 "Stack ops").
var StackOps = []string{"dup", "drop", "swap", "over", "rot", "nip", "tuck", "pick", "dip"}

// Arithmetic are the `ptr -> ptr` integer arithmetic primitives.
var Arithmetic = []string{"add", "subtract", "multiply", "divide"}

// Comparisons are the `ptr -> ptr` integer comparison primitives.
var Comparisons = []string{"lt", "gt", "le", "ge", "eq", "ne"}

// Functions returns the full table of runtime function declarations the
// emitter may call, grouped as in spec.md §4.7.
func Functions() []FuncSig {
	var fs []FuncSig
	for _, name := range StackOps {
		fs = append(fs, sig(name, "ptr", "ptr"))
	}
	for _, name := range Arithmetic {
		fs = append(fs, sig(name, "ptr", "ptr"))
	}
	for _, name := range Comparisons {
		fs = append(fs, sig(name, "ptr", "ptr"))
	}
	fs = append(fs,
		sig("push_int", "ptr", "ptr", "i64"),
		sig("push_bool", "ptr", "ptr", "i1"),
		sig("push_string", "ptr", "ptr", "ptr"),
		sig("push_quotation", "ptr", "ptr", "ptr"),
		sig("push_variant", "ptr", "ptr", "i32", "ptr"),
		sig("call_quotation", "ptr", "ptr"),
		sig("string_length", "i64", "ptr"),
		sig("string_concat", "ptr", "ptr", "ptr"),
		sig("string_equal", "i1", "ptr", "ptr"),
		sig("int_to_string", "ptr", "ptr"),
		sig("bool_to_string", "ptr", "ptr"),
		sig("exit_op", "void", "ptr"),
		sig("runtime_error", "void", "ptr"),
		sig("scheduler_init", "void"),
		sig("scheduler_run", "ptr"),
		sig("scheduler_shutdown", "void"),
		sig("strand_spawn", "i64", "ptr", "ptr"),
		sig("print_stack", "void", "ptr"),
		sig("free_stack", "void", "ptr"),
		sig("alloc_cell", "ptr"),
		sig("copy_cell", "ptr", "ptr"),
	)
	return fs
}

// CopyCellContract documents copy_cell's deep-copy guarantee (spec.md
// §4.7 "non-destructive use ... requires an explicit deep copy", confirmed
// against original_source/runtime/src/pattern.rs): the returned cell is
// independent of the argument, with variant payload chains recursively
// duplicated and string contents duplicated rather than pointer-shared.
// No stack cell is ever aliased between a variant's owned payload and the
// stack that subsequently references a copy of it.
const CopyCellContract = "copy_cell performs a recursive deep copy: variant payload chains are fully duplicated and strings are copied by content, never by pointer."

// StrandSpawnReturnIsOpaque documents that the i64 returned by
// strand_spawn (spec.md §4.7) is an opaque strand identifier; nothing in
// the compiler inspects it (confirmed against
// original_source/runtime/src/scheduler.rs, which defines no operation
// that consumes a spawned strand's id). The entry-point main function
// calls strand_spawn and discards the result (spec.md §4.6 "Entry point").
const StrandSpawnReturnIsOpaque = true
