package assembler

import (
	"sort"
	"strings"

	"github.com/Urethramancer/gbasm/cpu"
)

// Program is the fully linked output: every section at its final
// address, every relocation patched.
type Program struct {
	Sections []*Section
	Banks    int
	Entry    uint16
}

// linker resolves cross-file references and patches relocation records.
type linker struct {
	units   []*Unit
	globals map[string]*globalSym
	diags   *ErrorList

	// visiting guards lazy constant evaluation against cycles that
	// span files.
	visiting map[*Symbol]bool

	// unresolved collects every referencing location per missing
	// symbol, so one report names them all.
	unresolved map[string][]Position
}

type globalSym struct {
	sym  *Symbol
	unit *Unit
}

// link merges all units into one address space and patches every
// relocation. Errors are collected, not fail-fast.
func link(units []*Unit, entry string, diags *ErrorList) *Program {
	lk := &linker{
		units:      units,
		globals:    make(map[string]*globalSym),
		diags:      diags,
		visiting:   make(map[*Symbol]bool),
		unresolved: make(map[string][]Position),
	}

	for _, u := range units {
		for _, s := range u.Symbols.Exported() {
			if old, ok := lk.globals[s.Name]; ok {
				diags.Add(DuplicateSymbolError, s.Pos,
					"exported symbol %q already defined in %s at %s",
					s.Name, old.unit.File, old.sym.Pos)
				continue
			}
			lk.globals[s.Name] = &globalSym{sym: s, unit: u}
		}
	}

	prog := &Program{Entry: cpu.CodeStart}
	for _, u := range units {
		for _, sec := range u.Sections {
			if sec.Size == 0 {
				continue
			}
			lk.patch(u, sec)
			if sec.Bank+1 > prog.Banks {
				prog.Banks = sec.Bank + 1
			}
			prog.Sections = append(prog.Sections, sec)
		}
	}

	lk.reportUnresolved()

	if v, ok := lk.value(nil, entry); ok {
		prog.Entry = uint16(v)
	}
	return prog
}

// value resolves a symbol name: the unit's own table first, then the
// exported table. Constants that could not be resolved within their file
// (because they referenced another file's exports) are evaluated lazily
// here, with cycle detection.
func (lk *linker) value(u *Unit, name string) (int64, bool) {
	if u != nil {
		if s, ok := u.Symbols.Lookup(name); ok {
			return lk.eval(u, s)
		}
	}
	if g, ok := lk.globals[name]; ok {
		return lk.eval(g.unit, g.sym)
	}
	return 0, false
}

func (lk *linker) eval(u *Unit, s *Symbol) (int64, bool) {
	if s.State == Resolved {
		return s.Value, true
	}
	if s.Expr == nil {
		return 0, false
	}
	if lk.visiting[s] {
		if !s.circular {
			s.circular = true
			lk.diags.Add(CircularSymbolError, s.Pos, "circular definition of %q", s.Name)
		}
		return 0, false
	}
	lk.visiting[s] = true
	defer delete(lk.visiting, s)

	lookup := func(name string) (int64, bool) {
		return lk.value(u, name)
	}
	v, unresolved, err := s.Expr.Eval(lookup, s.here)
	if err != nil {
		lk.diags.Add(RangeError, s.Pos, "cannot evaluate %q: %v", s.Name, err)
		return 0, false
	}
	if len(unresolved) > 0 {
		return 0, false
	}
	s.Value = v
	s.State = Resolved
	return v, true
}

// patch applies and discards every relocation record in a section.
func (lk *linker) patch(u *Unit, sec *Section) {
	for _, r := range sec.Relocs {
		lookup := func(name string) (int64, bool) {
			return lk.value(u, name)
		}
		v, unresolved, err := r.Expr.Eval(lookup, int64(r.Addr))
		if err != nil {
			lk.diags.Add(RangeError, r.Pos, "%v", err)
			continue
		}
		if len(unresolved) > 0 {
			for _, name := range unresolved {
				if _, ok := lk.value(u, name); !ok {
					lk.unresolved[name] = append(lk.unresolved[name], r.Pos)
				}
			}
			continue
		}

		switch r.Width {
		case RelocAbs16:
			if v < -32768 || v > 0xFFFF {
				lk.diags.Add(RangeError, r.Pos, "value %d does not fit in 16 bits", v)
				continue
			}
			sec.Data[r.Offset] = byte(v)
			sec.Data[r.Offset+1] = byte(v >> 8)
		case RelocImm8:
			if v < -128 || v > 255 {
				lk.diags.Add(RangeError, r.Pos, "value %d does not fit in 8 bits", v)
				continue
			}
			sec.Data[r.Offset] = byte(v)
		case RelocRel8:
			disp := v - int64(r.NextPC)
			if disp < -128 || disp > 127 {
				lk.diags.Add(RangeError, r.Pos,
					"relative jump displacement %d outside [-128,127]", disp)
				continue
			}
			sec.Data[r.Offset] = byte(disp)
		case RelocHigh8:
			b, err := ff00Low(v)
			if err != nil {
				lk.diags.Add(RangeError, r.Pos, "%v", err)
				continue
			}
			sec.Data[r.Offset] = b
		}
	}
	sec.Relocs = nil
}

// reportUnresolved emits one diagnostic per missing symbol, naming every
// location that referenced it.
func (lk *linker) reportUnresolved() {
	names := make([]string, 0, len(lk.unresolved))
	for name := range lk.unresolved {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		refs := lk.unresolved[name]
		var sb strings.Builder
		for i, p := range refs {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(p.String())
		}
		lk.diags.Add(UndefinedSymbolError, refs[0],
			"undefined symbol %q referenced at %s", name, sb.String())
	}
}
