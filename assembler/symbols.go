package assembler

// SymbolKind distinguishes address labels from constants.
type SymbolKind int

const (
	// SymLabel is bound to an address.
	SymLabel SymbolKind = iota
	// SymConst is defined by EQU or SET.
	SymConst
)

// SymState is the resolution state of a symbol.
type SymState int

const (
	// Unresolved means the value is not yet known.
	Unresolved SymState = iota
	// Resolving marks a symbol currently being evaluated; seeing it
	// again means a circular definition.
	Resolving
	// Resolved means Value is final.
	Resolved
)

// Symbol is one entry in a file's symbol table. A symbol is created at
// its first definition, mutated only by the resolver, and frozen once
// pass 2 completes.
type Symbol struct {
	Name     string
	Kind     SymbolKind
	State    SymState
	Value    int64
	Expr     *Expr // defining expression for constants
	Exported bool
	Mutable  bool // defined with SET, may be redefined with SET
	Pos      Position

	// here is the location counter value at the defining line, set by
	// pass 1; placed reports that pass 1 has reached that line. A
	// constant whose body reads '@' stays deferred until then.
	here   int64
	placed bool

	circular bool // cycle already reported
}

// SymTab is the per-file symbol table.
type SymTab struct {
	file  string
	syms  map[string]*Symbol
	order []*Symbol
}

// NewSymTab creates an empty symbol table for a file.
func NewSymTab(file string) *SymTab {
	return &SymTab{file: file, syms: make(map[string]*Symbol)}
}

// Lookup returns the symbol with the given name.
func (st *SymTab) Lookup(name string) (*Symbol, bool) {
	s, ok := st.syms[name]
	return s, ok
}

// Value returns the resolved value of a symbol, if it has one.
func (st *SymTab) Value(name string) (int64, bool) {
	s, ok := st.syms[name]
	if !ok || s.State != Resolved {
		return 0, false
	}
	return s.Value, true
}

// Symbols returns all symbols in definition order.
func (st *SymTab) Symbols() []*Symbol {
	return st.order
}

// Exported returns the exported symbols in definition order.
func (st *SymTab) Exported() []*Symbol {
	var out []*Symbol
	for _, s := range st.order {
		if s.Exported {
			out = append(out, s)
		}
	}
	return out
}

// Define installs a new symbol. Redefinition is an error, except that a
// SET symbol may be redefined by another SET.
func (st *SymTab) Define(sym *Symbol, diags *ErrorList) *Symbol {
	if old, ok := st.syms[sym.Name]; ok {
		if old.Mutable && sym.Mutable {
			old.Expr = sym.Expr
			old.State = Unresolved
			old.Pos = sym.Pos
			return old
		}
		diags.Add(DuplicateSymbolError, sym.Pos,
			"symbol %q already defined at %s", sym.Name, old.Pos)
		return old
	}
	st.syms[sym.Name] = sym
	st.order = append(st.order, sym)
	return sym
}

// Resolve runs the constant-resolution worklist. Labels are resolved by
// pass 1 before this runs; constants may depend on labels, other
// constants, or symbols defined in other files (left unresolved here and
// settled by the linker). Circular definitions are reported, never
// looped.
func (st *SymTab) Resolve(diags *ErrorList) {
	for _, s := range st.order {
		st.resolve(s, diags)
	}
}

// resolve settles one symbol and everything it depends on. Dependencies
// are worked off an explicit stack, so an arbitrarily long constant
// chain never deepens the call stack. Resolving marks the symbols
// currently on the stack; meeting one again is a circular definition.
func (st *SymTab) resolve(root *Symbol, diags *ErrorList) bool {
	if root.State == Resolved {
		return true
	}
	if root.Expr == nil || root.circular {
		return false
	}

	stack := []*Symbol{root}
	queued := map[*Symbol]bool{root: true}

	for len(stack) > 0 {
		s := stack[len(stack)-1]
		if s.State == Resolved || s.circular {
			stack = stack[:len(stack)-1]
			continue
		}
		s.State = Resolving

		// Queue unresolved in-file constant dependencies above s.
		// Names absent from the table are cross-file references and
		// stay with the linker.
		pushed := false
		for _, name := range s.Expr.Symbols(nil) {
			dep, ok := st.syms[name]
			if !ok || dep.State == Resolved || dep.Expr == nil || dep.circular {
				continue
			}
			if dep.State == Resolving {
				dep.circular = true
				diags.Add(CircularSymbolError, dep.Pos, "circular definition of %q", dep.Name)
				continue
			}
			if queued[dep] {
				continue
			}
			queued[dep] = true
			stack = append(stack, dep)
			pushed = true
		}
		if pushed {
			continue
		}

		stack = stack[:len(stack)-1]
		s.State = Unresolved
		if s.circular {
			continue
		}
		// The location counter is only meaningful once pass 1 has
		// placed the defining line.
		if s.Expr.usesHere() && !s.placed {
			continue
		}

		lookup := func(name string) (int64, bool) {
			dep, ok := st.syms[name]
			if !ok || dep.State != Resolved {
				return 0, false
			}
			return dep.Value, true
		}
		val, unresolved, err := s.Expr.Eval(lookup, s.here)
		if err != nil {
			diags.Add(RangeError, s.Pos, "cannot evaluate %q: %v", s.Name, err)
			continue
		}
		if len(unresolved) > 0 {
			// Left for the linker; cross-file references are legal here.
			continue
		}
		s.Value = val
		s.State = Resolved
	}
	return root.State == Resolved
}
