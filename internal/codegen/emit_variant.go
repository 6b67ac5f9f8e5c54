package codegen

import "github.com/navicore/cem/internal/abi"

// emitVariantConstruct lowers one variant constructor call (spec.md §4.6
// "Variant construction (emitter side)"): a 0-field variant just tags a null
// data pointer, a 1-or-more-field variant allocates fresh cells, mem-copies
// the popped field cells into them byte-for-byte, and links the copies into
// the variant's owned payload chain.
func (e *Emitter) emitVariantConstruct(fc *funcCtx, vi *variantInfo, cur, dbg string) string {
	if vi.FieldCount == 0 {
		next := fc.freshTemp()
		e.line("  %s = call ptr @push_variant(ptr %s, i32 %d, ptr null)%s", next, cur, vi.Tag, dbg)
		return next
	}

	// Walk down the stack collecting the source cell for each field, in
	// source order (f[0] is on top, per the field-order resolution that
	// also governs internal/env.AddType).
	srcs := make([]string, vi.FieldCount)
	walk := cur
	for i := 0; i < vi.FieldCount; i++ {
		srcs[i] = walk
		nextPtrPtr := fc.freshTemp()
		e.line("  %s = getelementptr inbounds i8, ptr %s, i64 %d%s", nextPtrPtr, walk, abi.OffsetNext, dbg)
		nextVal := fc.freshTemp()
		e.line("  %s = load ptr, ptr %s%s", nextVal, nextPtrPtr, dbg)
		walk = nextVal
	}
	rest := walk

	newCells := make([]string, vi.FieldCount)
	for i := 0; i < vi.FieldCount; i++ {
		cell := fc.freshTemp()
		e.line("  %s = call ptr @alloc_cell()%s", cell, dbg)
		e.line("  call void @%s(ptr %s, ptr %s, i64 %d, i1 false)%s", memcpyIntrinsic, cell, srcs[i], abi.CellSize, dbg)
		newCells[i] = cell
	}
	for i := 0; i < vi.FieldCount; i++ {
		nextPtrPtr := fc.freshTemp()
		e.line("  %s = getelementptr inbounds i8, ptr %s, i64 %d%s", nextPtrPtr, newCells[i], abi.OffsetNext, dbg)
		if i == vi.FieldCount-1 {
			e.line("  store ptr null, ptr %s%s", nextPtrPtr, dbg)
		} else {
			e.line("  store ptr %s, ptr %s%s", newCells[i+1], nextPtrPtr, dbg)
		}
	}

	next := fc.freshTemp()
	e.line("  %s = call ptr @push_variant(ptr %s, i32 %d, ptr %s)%s", next, rest, vi.Tag, newCells[0], dbg)
	return next
}

// destructureVariant lowers one match branch's field binding (spec.md §4.6
// "Variant destructuring (emitter side, inside a match branch)"): the
// variant's owned payload chain is deep-copied cell by cell via the
// runtime's copy_cell, never aliased, and the copies are relinked so the
// last one points at rest-of-stack.
func (e *Emitter) destructureVariant(fc *funcCtx, vi *variantInfo, dataPtr, rest, dbg string) string {
	if vi.FieldCount == 0 {
		return rest
	}

	srcs := make([]string, vi.FieldCount)
	walk := dataPtr
	for i := 0; i < vi.FieldCount; i++ {
		srcs[i] = walk
		if i == vi.FieldCount-1 {
			break
		}
		nextPtrPtr := fc.freshTemp()
		e.line("  %s = getelementptr inbounds i8, ptr %s, i64 %d%s", nextPtrPtr, walk, abi.OffsetNext, dbg)
		nextVal := fc.freshTemp()
		e.line("  %s = load ptr, ptr %s%s", nextVal, nextPtrPtr, dbg)
		walk = nextVal
	}

	copies := make([]string, vi.FieldCount)
	for i := 0; i < vi.FieldCount; i++ {
		copy := fc.freshTemp()
		e.line("  %s = call ptr @copy_cell(ptr %s)%s", copy, srcs[i], dbg)
		copies[i] = copy
	}
	for i := 0; i < vi.FieldCount; i++ {
		nextPtrPtr := fc.freshTemp()
		e.line("  %s = getelementptr inbounds i8, ptr %s, i64 %d%s", nextPtrPtr, copies[i], abi.OffsetNext, dbg)
		if i == vi.FieldCount-1 {
			e.line("  store ptr %s, ptr %s%s", rest, nextPtrPtr, dbg)
		} else {
			e.line("  store ptr %s, ptr %s%s", copies[i+1], nextPtrPtr, dbg)
		}
	}

	return copies[0]
}
