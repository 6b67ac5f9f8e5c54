package codegen

import (
	"fmt"

	"github.com/navicore/cem/internal/token"
)

// debugInfo accumulates the metadata nodes spec.md §4.6 requires: one
// DIFile per unique source file, one DICompileUnit, one DISubprogram per
// emitted word, and one DILocation per distinct (file, line, column,
// subprogram).
type debugInfo struct {
	nextID int

	fileIDs map[string]int // filename -> !DIFile id
	files   []string       // in first-seen order

	compileUnitID int

	subprograms []diSubprogram
	locations   []diLocation
	locKey      map[string]int // "file|line|col|subprogramID" -> !id
}

type diSubprogram struct {
	ID     int
	Name   string
	FileID int
	Line   int
	TypeID int // stub DISubroutineType id
}

type diLocation struct {
	ID           int
	Line, Column int
	SubprogramID int
}

func newDebugInfo() *debugInfo {
	return &debugInfo{
		fileIDs: make(map[string]int),
		locKey:  make(map[string]int),
	}
}

func (d *debugInfo) alloc() int {
	id := d.nextID
	d.nextID++
	return id
}

// fileID returns (allocating if needed) the !DIFile id for filename.
func (d *debugInfo) fileID(filename string) int {
	if id, ok := d.fileIDs[filename]; ok {
		return id
	}
	id := d.alloc()
	d.fileIDs[filename] = id
	d.files = append(d.files, filename)
	return id
}

// newSubprogram registers a DISubprogram for a word named name, declared
// in loc, together with a fresh stub DISubroutineType, and returns the
// DISubprogram's id.
func (d *debugInfo) newSubprogram(name string, loc token.Loc) int {
	fid := d.fileID(*loc.File)
	typeID := d.alloc()
	id := d.alloc()
	d.subprograms = append(d.subprograms, diSubprogram{
		ID: id, Name: name, FileID: fid, Line: loc.Line, TypeID: typeID,
	})
	return id
}

// location returns (allocating if needed) the !DILocation id for the
// given source location within subprogramID.
func (d *debugInfo) location(loc token.Loc, subprogramID int) int {
	key := fmt.Sprintf("%s|%d|%d|%d", *loc.File, loc.Line, loc.Column, subprogramID)
	if id, ok := d.locKey[key]; ok {
		return id
	}
	id := d.alloc()
	d.locKey[key] = id
	d.locations = append(d.locations, diLocation{ID: id, Line: loc.Line, Column: loc.Column, SubprogramID: subprogramID})
	return id
}

// emit writes every accumulated debug metadata node, in the order spec.md
// §6 describes for the module's tail: DIFiles, DICompileUnit,
// DISubprograms with their stub DISubroutineTypes, DILocations, then the
// llvm.dbg.cu / llvm.module.flags named metadata.
func (e *Emitter) emitDebugInfo() {
	d := e.debug
	if d.nextID == 0 {
		return
	}

	d.compileUnitID = d.alloc()

	for _, filename := range d.files {
		e.line("!%d = !DIFile(filename: \"%s\", directory: \"\")", d.fileIDs[filename], filename)
	}

	var mainFileID int
	if len(d.files) > 0 {
		mainFileID = d.fileIDs[d.files[0]]
	}
	e.line("!%d = distinct !DICompileUnit(language: DW_LANG_C99, file: !%d, producer: \"cemc\", isOptimized: false, runtimeVersion: 0, emissionKind: FullDebug)",
		d.compileUnitID, mainFileID)

	for _, sp := range d.subprograms {
		e.line("!%d = !DISubroutineType(types: !{})", sp.TypeID)
		e.line("!%d = distinct !DISubprogram(name: \"%s\", scope: !%d, file: !%d, line: %d, type: !%d, unit: !%d)",
			sp.ID, sp.Name, sp.FileID, sp.FileID, sp.Line, sp.TypeID, d.compileUnitID)
	}

	for _, loc := range d.locations {
		e.line("!%d = !DILocation(line: %d, column: %d, scope: !%d)", loc.ID, loc.Line, loc.Column, loc.SubprogramID)
	}

	cuListID := d.alloc()
	e.line("!%d = !{!%d}", cuListID, d.compileUnitID)
	e.line("!llvm.dbg.cu = !{!%d}", d.compileUnitID)
	flagsID := d.alloc()
	e.line("!%d = !{i32 2, !\"Debug Info Version\", i32 3}", flagsID)
	e.line("!llvm.module.flags = !{!%d}", flagsID)
}
