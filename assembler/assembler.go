// Package assembler implements an assembler and linker for the LR35902.
// Source files pass through a lexer and parser, two symbol-resolution
// passes, section allocation and a final link before the cartridge image
// is written.
package assembler

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Urethramancer/gbasm/rom"
)

// Source is one root source file.
type Source struct {
	Name string
	Text string
}

// Loader reads an INCLUDE target. from is the including file.
type Loader func(from, name string) (string, error)

// Assembler holds the configuration for a build.
type Assembler struct {
	// Entry is the exported symbol execution starts at. If no file
	// exports it, the entry point falls through to the home bank
	// origin.
	Entry string

	// Load reads INCLUDE targets. The default reads from disk,
	// relative to the including file.
	Load Loader

	// ROM configures the cartridge header.
	ROM rom.Config
}

// New creates an Assembler with the default configuration.
func New() *Assembler {
	return &Assembler{
		Entry: "main",
		Load:  fileLoader,
		ROM:   rom.Config{Title: "GBASM"},
	}
}

func fileLoader(from, name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(filepath.Dir(from), name))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// AssembleFiles reads and assembles the given source files into a
// cartridge image.
func (a *Assembler) AssembleFiles(paths ...string) ([]byte, error) {
	sources := make([]Source, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", p, err)
		}
		sources = append(sources, Source{Name: p, Text: string(data)})
	}
	return a.Assemble(sources...)
}

// Assemble runs the full pipeline over the given sources. If any stage
// records an error, no image is produced and the collected diagnostics
// are returned as the error.
func (a *Assembler) Assemble(sources ...Source) ([]byte, error) {
	diags := &ErrorList{}

	// The front end has no shared state, so files are lexed and parsed
	// in parallel. Everything after runs serialized over the combined
	// symbol tables.
	units := make([]*Unit, len(sources))
	unitDiags := make([]*ErrorList, len(sources))
	var wg sync.WaitGroup
	for i, src := range sources {
		wg.Add(1)
		go func(i int, src Source) {
			defer wg.Done()
			unitDiags[i] = &ErrorList{}
			units[i] = a.frontend(src, unitDiags[i])
		}(i, src)
	}
	wg.Wait()
	for _, ud := range unitDiags {
		for _, d := range ud.Diagnostics() {
			diags.Add(d.Kind, d.Pos, "%s", d.Msg)
		}
	}

	for _, u := range units {
		u.pass1(diags)
		u.Symbols.Resolve(diags)
		u.pass2(diags)
	}

	validateSections(units, diags)
	prog := link(units, a.Entry, diags)

	if err := diags.Err(); err != nil {
		return nil, err
	}

	chunks := make([]rom.Chunk, 0, len(prog.Sections))
	for _, s := range prog.Sections {
		chunks = append(chunks, rom.Chunk{Bank: s.Bank, Addr: s.Base, Data: s.Data})
	}
	img, err := rom.Build(chunks, prog.Entry, a.ROM)
	if err != nil {
		return nil, err
	}
	return img, nil
}

// includeState tracks the include graph of one compilation unit. active
// holds the chain currently being expanded; seen holds every file ever
// pulled in, since textual inclusion twice would redefine its symbols.
type includeState struct {
	active map[string]bool
	seen   map[string]bool
}

// frontend lexes and parses one root source, splicing INCLUDE targets
// into the statement list in place.
func (a *Assembler) frontend(src Source, diags *ErrorList) *Unit {
	symbols := NewSymTab(src.Name)
	inc := &includeState{
		active: map[string]bool{src.Name: true},
		seen:   map[string]bool{src.Name: true},
	}
	stmts := a.parseOne(src, symbols, inc, diags)
	return &Unit{File: src.Name, Statements: stmts, Symbols: symbols}
}

func (a *Assembler) parseOne(src Source, symbols *SymTab, inc *includeState, diags *ErrorList) []*Statement {
	lx := NewLexer(src.Name, src.Text, diags)
	p := NewParser(src.Name, lx.Tokens(), symbols, diags)
	stmts, _ := p.Parse()

	// Textual inclusion: replace each INCLUDE statement with the
	// statements of its target. Included files share the includer's
	// symbol scope.
	var out []*Statement
	for _, stmt := range stmts {
		if stmt.Kind != StmtDirective || stmt.Directive != DirINCLUDE {
			out = append(out, stmt)
			continue
		}
		if inc.active[stmt.Include] {
			diags.Add(IncludeError, stmt.Pos, "circular include of %q", stmt.Include)
			continue
		}
		if inc.seen[stmt.Include] {
			diags.Add(IncludeError, stmt.Pos, "duplicate include of %q", stmt.Include)
			continue
		}
		text, err := a.Load(src.Name, stmt.Include)
		if err != nil {
			diags.Add(IncludeError, stmt.Pos, "cannot include %q: %v", stmt.Include, err)
			continue
		}
		inc.seen[stmt.Include] = true
		inc.active[stmt.Include] = true
		sub := a.parseOne(Source{Name: stmt.Include, Text: text}, symbols, inc, diags)
		delete(inc.active, stmt.Include)
		out = append(out, sub...)
	}
	return out
}
