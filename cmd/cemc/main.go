// cemc - Cem compiler driver
//
// Usage: cemc [flags] file.cem
//
// Flags:
//   -o file       Write the executable to file (with -c: file.o; with -S: file.ll)
//   -c            Stop after emitting an object file, skip linking
//   -S            Stop after emitting LLVM IR, skip the toolchain entirely
//   -k            Keep the intermediate .ll file (implied by -S)
//   -entry word   Entry word to spawn as the root strand (default "main")
//   -no-entry     Emit a library module with no main() function
//   -runtime path Override the runtime archive path
//   -v            Verbose output
//
// The compiler pipeline:
//   source.cem → lex+parse → check → emit → (clang → binary)
//
// Grounded on lang/ya/main.go's flag-based driver shape, collapsed to run
// every stage in-process instead of shelling out to per-stage binaries.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/navicore/cem/internal/check"
	"github.com/navicore/cem/internal/codegen"
	"github.com/navicore/cem/internal/env"
	"github.com/navicore/cem/internal/parser"
	"github.com/navicore/cem/internal/toolchain"
)

var (
	outputFile  = flag.String("o", "", "output file name")
	compileOnly = flag.Bool("c", false, "stop after emitting an object file")
	irOnly      = flag.Bool("S", false, "stop after emitting LLVM IR")
	keepIR      = flag.Bool("k", false, "keep the intermediate .ll file")
	entryWord   = flag.String("entry", "main", "entry word to spawn as the root strand")
	noEntry     = flag.Bool("no-entry", false, "emit a library module with no main()")
	runtimeArg  = flag.String("runtime", "", "override the runtime archive path")
	verbose     = flag.Bool("v", false, "verbose output")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] file.cem\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Cem compiler driver\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}

	if *compileOnly && *irOnly {
		fmt.Fprintf(os.Stderr, "cemc: -c and -S are incompatible\n")
		os.Exit(1)
	}

	if err := run(flag.Arg(0)); err != nil {
		fmt.Fprintf(os.Stderr, "cemc: %s\n", err)
		os.Exit(1)
	}
}

func run(srcPath string) error {
	src, err := os.ReadFile(srcPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", srcPath, err)
	}

	prog, err := parser.New(string(src), srcPath).Parse()
	if err != nil {
		return fmt.Errorf("parse error: %w", err)
	}

	e := env.New()
	if err := check.New(e).Program(prog); err != nil {
		return fmt.Errorf("type error: %w", err)
	}

	entry := codegen.EntryOptions{}
	if !*noEntry {
		if _, ok := e.LookupWord(*entryWord); !ok {
			return fmt.Errorf("entry word %q is not defined (use -no-entry for a library module)", *entryWord)
		}
		entry.WordName = *entryWord
	}

	ir, err := codegen.EmitProgram(e, prog, entry)
	if err != nil {
		return fmt.Errorf("codegen error: %w", err)
	}

	output := outputPath(srcPath)

	if *irOnly {
		irFile := output + ".ll"
		if err := os.WriteFile(irFile, []byte(ir), 0644); err != nil {
			return fmt.Errorf("codegen error: writing %s: %w", irFile, err)
		}
		logf("Generated: %s", irFile)
		return nil
	}

	result, err := toolchain.Run(ir, toolchain.Options{
		Output:         output,
		RuntimeArchive: *runtimeArg,
		ObjectOnly:     *compileOnly,
	})
	if err != nil {
		return fmt.Errorf("toolchain failure: %w", err)
	}

	if !*keepIR {
		os.Remove(result.IRFile)
	} else {
		logf("Generated: %s", result.IRFile)
	}
	if result.ObjectFile != "" {
		logf("Object file: %s", result.ObjectFile)
	}
	if result.Executable != "" {
		logf("Executable: %s", result.Executable)
	}
	return nil
}

// outputPath derives the default output basename from the source path: the
// file name with its .cem extension (or any extension) stripped.
func outputPath(srcPath string) string {
	if *outputFile != "" {
		return *outputFile
	}
	base := srcPath
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		base = base[i+1:]
	}
	if i := strings.LastIndexByte(base, '.'); i > 0 {
		base = base[:i]
	}
	return base
}

func logf(format string, args ...interface{}) {
	if *verbose {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}
