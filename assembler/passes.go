package assembler

import (
	"github.com/Urethramancer/gbasm/cpu"
)

// Unit is one compilation unit: a root source file with its includes
// spliced in, its symbol table and its sections. The parser owns the
// statement list until the passes run; the linker owns the merged result
// afterwards.
type Unit struct {
	File       string
	Statements []*Statement
	Symbols    *SymTab
	Sections   []*Section

	sections map[*Statement]*Section
}

// pass1 walks the statement list assigning every statement its address
// and byte length, binding labels as it goes. Lengths come from the
// syntactic form alone, so no symbol values are needed yet. The address
// counter resets at every SECTION directive.
func (u *Unit) pass1(diags *ErrorList) {
	u.sections = make(map[*Statement]*Section)
	var cur *Section
	var pc uint32

	open := func(bank int, base uint16, explicit bool, pos Position) {
		cur = &Section{
			File:     u.File,
			Bank:     bank,
			Base:     base,
			Explicit: explicit,
			Pos:      pos,
		}
		u.Sections = append(u.Sections, cur)
		pc = uint32(base)
	}

	ensure := func(pos Position) {
		if cur == nil {
			open(0, cpu.BankOrigin(0), false, pos)
		}
	}

	// Resolve constants on demand so RESB counts and section bases can
	// use anything already definable at this point.
	lookup := func(name string) (int64, bool) {
		s, ok := u.Symbols.Lookup(name)
		if !ok || !u.Symbols.resolve(s, diags) {
			return 0, false
		}
		return s.Value, true
	}

	evalNow := func(x *Expr, what string, pos Position) (int64, bool) {
		v, unresolved, err := x.Eval(lookup, int64(pc))
		if err != nil {
			diags.Add(RangeError, pos, "%s: %v", what, err)
			return 0, false
		}
		if len(unresolved) > 0 {
			diags.Add(UndefinedSymbolError, pos,
				"%s depends on %q, which is not yet known", what, unresolved[0])
			return 0, false
		}
		return v, true
	}

	for _, stmt := range u.Statements {
		switch stmt.Kind {
		case StmtLabel:
			ensure(stmt.Pos)
			if sym, ok := u.Symbols.Lookup(stmt.Name); ok && sym.Kind == SymLabel {
				sym.Value = int64(pc)
				sym.State = Resolved
			}
			stmt.Addr = uint16(pc)
			u.sections[stmt] = cur
			continue

		case StmtDirective:
			switch stmt.Directive {
			case DirSECTION:
				base := cpu.BankOrigin(stmt.Bank)
				if stmt.HasBase {
					if v, ok := evalNow(stmt.Expr, "section base", stmt.Pos); ok {
						if v < 0 || v > 0xFFFF {
							diags.Add(RangeError, stmt.Pos, "section base $%X out of range", v)
						} else {
							base = uint16(v)
						}
					}
				}
				open(stmt.Bank, base, stmt.HasBase, stmt.Pos)
				continue
			case DirEQU, DirSET:
				// '@' in the constant's body means the location
				// counter at this line.
				if sym, ok := u.Symbols.Lookup(stmt.Name); ok && sym.Kind == SymConst {
					sym.here = int64(pc)
					sym.placed = true
				}
				continue
			case DirINCLUDE:
				continue
			case DirDB:
				ensure(stmt.Pos)
				var n uint32
				for _, it := range stmt.Items {
					if it.IsStr {
						n += uint32(len(it.Str))
					} else {
						n++
					}
				}
				stmt.Size = uint16(n)
			case DirDW:
				ensure(stmt.Pos)
				stmt.Size = uint16(2 * len(stmt.Items))
			case DirRESB:
				ensure(stmt.Pos)
				if v, ok := evalNow(stmt.Expr, "RESB count", stmt.Pos); ok {
					if v < 0 || v > int64(cpu.BankSize) {
						diags.Add(RangeError, stmt.Pos, "RESB count %d out of range", v)
					} else {
						stmt.Size = uint16(v)
					}
				}
			}

		case StmtInstruction:
			ensure(stmt.Pos)
			stmt.Size = statementSize(stmt)
		}

		stmt.Addr = uint16(pc)
		u.sections[stmt] = cur
		pc += uint32(stmt.Size)
		cur.Size = pc - uint32(cur.Base)
	}
}

// pass2 re-walks the statement list emitting bytes into each section.
// Symbol references that are still unknown (cross-file) become
// relocation records for the linker.
func (u *Unit) pass2(diags *ErrorList) {
	lookup := func(name string) (int64, bool) {
		return u.Symbols.Value(name)
	}

	for _, stmt := range u.Statements {
		sec := u.sections[stmt]
		if sec == nil {
			continue
		}

		switch stmt.Kind {
		case StmtInstruction:
			env := &encodeEnv{
				lookup: lookup,
				addr:   stmt.Addr,
				diags:  diags,
			}
			code, reloc := encodeInstruction(stmt, env)
			if reloc != nil {
				reloc.Offset += len(sec.Data)
				reloc.Addr = stmt.Addr
				sec.Relocs = append(sec.Relocs, *reloc)
			}
			sec.Data = append(sec.Data, code...)

		case StmtDirective:
			switch stmt.Directive {
			case DirDB:
				u.emitData(sec, stmt, 1, diags)
			case DirDW:
				u.emitData(sec, stmt, 2, diags)
			case DirRESB:
				sec.Data = append(sec.Data, make([]byte, stmt.Size)...)
			}
		}
	}
}

// emitData writes DB/DW items, deferring unresolved expressions to the
// linker.
func (u *Unit) emitData(sec *Section, stmt *Statement, width int, diags *ErrorList) {
	lookup := func(name string) (int64, bool) {
		return u.Symbols.Value(name)
	}
	addr := stmt.Addr

	for _, it := range stmt.Items {
		if it.IsStr {
			sec.Data = append(sec.Data, it.Str...)
			addr += uint16(len(it.Str))
			continue
		}

		v, unresolved, err := it.Expr.Eval(lookup, int64(addr))
		if err != nil {
			diags.Add(RangeError, it.Pos, "%v", err)
			v = 0
		}

		if len(unresolved) > 0 {
			w := RelocImm8
			if width == 2 {
				w = RelocAbs16
			}
			sec.Relocs = append(sec.Relocs, Reloc{
				Offset: len(sec.Data),
				Width:  w,
				Expr:   it.Expr,
				Symbol: unresolved[0],
				Addr:   addr,
				Pos:    it.Pos,
			})
			sec.Data = append(sec.Data, make([]byte, width)...)
			addr += uint16(width)
			continue
		}

		if width == 1 {
			if v < -128 || v > 255 {
				diags.Add(RangeError, it.Pos, "value %d does not fit in 8 bits", v)
			}
			sec.Data = append(sec.Data, byte(v))
		} else {
			if v < -32768 || v > 0xFFFF {
				diags.Add(RangeError, it.Pos, "value %d does not fit in 16 bits", v)
			}
			sec.Data = append(sec.Data, byte(v), byte(v>>8))
		}
		addr += uint16(width)
	}
}
