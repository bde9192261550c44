package assembler

import (
	"fmt"
	"strings"

	"github.com/Urethramancer/gbasm/cpu"
)

// RelocWidth describes how a patched value is written.
type RelocWidth int

const (
	// RelocAbs16 is a little-endian 16-bit absolute value.
	RelocAbs16 RelocWidth = iota
	// RelocImm8 is an 8-bit immediate, accepting [-128,255].
	RelocImm8
	// RelocRel8 is a signed 8-bit displacement from NextPC.
	RelocRel8
	// RelocHigh8 is the low byte of a 0xFF00-page address.
	RelocHigh8
)

// Reloc records a byte position whose value depends on a symbol not yet
// known during encoding. The linker patches and discards these.
type Reloc struct {
	Offset int // into the owning section's data
	Width  RelocWidth
	Expr   *Expr
	Symbol string // first unresolved name, for diagnostics
	Addr   uint16 // address of the patched statement
	NextPC uint16 // address after the instruction, for RelocRel8
	Pos    Position
}

// encodeEnv is the encoder's view of the build state for one statement.
type encodeEnv struct {
	lookup func(string) (int64, bool)
	addr   uint16
	sizing bool
	diags  *ErrorList
}

// enc accumulates the bytes and at most one relocation for a single
// instruction.
type enc struct {
	env   *encodeEnv
	stmt  *Statement
	code  []byte
	reloc *Reloc
}

// encodeInstruction encodes one instruction statement. In sizing mode
// the byte count is exact but values are placeholders and no diagnostics
// are recorded; the real encode in pass 2 produces identical lengths.
func encodeInstruction(stmt *Statement, env *encodeEnv) ([]byte, *Reloc) {
	e := &enc{env: env, stmt: stmt}

	switch m := stmt.Mnemonic; m {
	case "nop", "stop", "halt", "di", "ei", "rlca", "rrca", "rla", "rra",
		"daa", "cpl", "scf", "ccf":
		if len(stmt.Operands) != 0 {
			e.invalid()
			break
		}
		e.op(cpu.SimpleOpcodes[m]...)
	case "ld":
		e.ld()
	case "ldh":
		e.ldh()
	case "ldi", "ldd":
		e.ldIncDec()
	case "push", "pop":
		e.pushPop()
	case "add", "adc", "sub", "sbc", "and", "xor", "or", "cp":
		e.alu()
	case "inc", "dec":
		e.incDec()
	case "jp":
		e.jp()
	case "jr":
		e.jr()
	case "call":
		e.call()
	case "ret", "reti":
		e.ret()
	case "rst":
		e.rst()
	case "rlc", "rrc", "rl", "rr", "sla", "sra", "swap", "srl":
		e.rotate()
	case "bit", "res", "set":
		e.bitOp()
	default:
		e.errf(InvalidOperandError, "unknown instruction %q", stmt.Mnemonic)
	}

	return e.code, e.reloc
}

// statementSize returns the encoded length of an instruction from its
// syntactic form alone. This is what makes two-pass resolution valid:
// the length never depends on a symbol's eventual value.
func statementSize(stmt *Statement) uint16 {
	env := &encodeEnv{
		lookup: func(string) (int64, bool) { return 0, false },
		sizing: true,
		diags:  &ErrorList{},
	}
	code, _ := encodeInstruction(stmt, env)
	return uint16(len(code))
}

func (e *enc) op(b ...byte) {
	e.code = append(e.code, b...)
}

// errf records a diagnostic unless sizing. Sizing runs the exact same
// dispatch, so reporting there would double every error.
func (e *enc) errf(kind ErrorKind, format string, args ...any) {
	if !e.env.sizing {
		e.env.diags.Add(kind, e.stmt.Pos, format, args...)
	}
}

// invalid reports an unrecognized (mnemonic, operand form) pair.
func (e *enc) invalid() {
	forms := make([]string, len(e.stmt.Operands))
	for i, o := range e.stmt.Operands {
		forms[i] = o.Form()
	}
	e.errf(InvalidOperandError, "no encoding for %s with operands (%s)",
		strings.ToUpper(e.stmt.Mnemonic), strings.Join(forms, ", "))
}

// eval evaluates an operand expression. The bool reports whether the
// value is known now; if not, pass 2 emits a relocation instead.
func (e *enc) eval(x *Expr) (int64, bool) {
	v, unresolved, err := x.Eval(e.env.lookup, int64(e.env.addr))
	if err != nil {
		e.errf(RangeError, "%v", err)
		return 0, true
	}
	return v, len(unresolved) == 0
}

// addReloc emits placeholder bytes and records the relocation.
func (e *enc) addReloc(width RelocWidth, x *Expr, size int) {
	syms := x.Symbols(nil)
	sym := ""
	if len(syms) > 0 {
		sym = syms[0]
	}
	e.reloc = &Reloc{
		Offset: len(e.code),
		Width:  width,
		Expr:   x,
		Symbol: sym,
		Pos:    e.stmt.Pos,
	}
	for i := 0; i < size; i++ {
		e.code = append(e.code, 0)
	}
}

// imm8 emits an 8-bit immediate, permitting both signed and unsigned
// interpretations.
func (e *enc) imm8(x *Expr) {
	v, ok := e.eval(x)
	if !ok {
		if e.env.sizing {
			e.op(0)
			return
		}
		e.addReloc(RelocImm8, x, 1)
		return
	}
	if !e.env.sizing && (v < -128 || v > 255) {
		e.errf(RangeError, "value %d does not fit in 8 bits", v)
	}
	e.op(byte(v))
}

// signed8 emits a signed 8-bit value (SP-relative displacements).
func (e *enc) signed8(x *Expr) {
	v, ok := e.eval(x)
	if !ok {
		if e.env.sizing {
			e.op(0)
			return
		}
		e.addReloc(RelocImm8, x, 1)
		return
	}
	if !e.env.sizing && (v < -128 || v > 127) {
		e.errf(RangeError, "displacement %d outside [-128,127]", v)
	}
	e.op(byte(v))
}

// imm16 emits a little-endian 16-bit immediate or address.
func (e *enc) imm16(x *Expr) {
	v, ok := e.eval(x)
	if !ok {
		if e.env.sizing {
			e.op(0, 0)
			return
		}
		e.addReloc(RelocAbs16, x, 2)
		return
	}
	if !e.env.sizing && (v < -32768 || v > 0xFFFF) {
		e.errf(RangeError, "value %d does not fit in 16 bits", v)
	}
	e.op(byte(v), byte(v>>8))
}

// rel8 emits a signed displacement relative to the end of the
// instruction. The instruction is always two bytes, so the base is
// addr+2.
func (e *enc) rel8(x *Expr) {
	next := e.env.addr + 2
	v, ok := e.eval(x)
	if !ok {
		if e.env.sizing {
			e.op(0)
			return
		}
		e.addReloc(RelocRel8, x, 1)
		e.reloc.NextPC = next
		return
	}
	disp := v - int64(next)
	if !e.env.sizing && (disp < -128 || disp > 127) {
		e.errf(RangeError, "relative jump displacement %d outside [-128,127]", disp)
	}
	e.op(byte(disp))
}

// high8 emits the low byte of a 0xFF00-page address for LDH.
func (e *enc) high8(x *Expr) {
	v, ok := e.eval(x)
	if !ok {
		if e.env.sizing {
			e.op(0)
			return
		}
		e.addReloc(RelocHigh8, x, 1)
		return
	}
	b, err := ff00Low(v)
	if err != nil && !e.env.sizing {
		e.errf(RangeError, "%v", err)
	}
	e.op(b)
}

// ff00Low maps an LDH operand to the low byte of its 0xFF00-page
// address. Both a bare offset and a full address are accepted.
func ff00Low(v int64) (byte, error) {
	if (v >= 0 && v <= 0xFF) || (v >= 0xFF00 && v <= 0xFFFF) {
		return byte(v), nil
	}
	return byte(v), fmt.Errorf("address $%X is not in the $FF00 page", v)
}

// constByte evaluates an expression that must be known at encode time
// because it is folded into the opcode itself (RST vectors, bit
// numbers).
func (e *enc) constByte(x *Expr, what string) (int64, bool) {
	v, ok := e.eval(x)
	if !ok {
		if !e.env.sizing {
			e.errf(InvalidOperandError, "%s must be a locally resolvable constant", what)
		}
		return 0, false
	}
	return v, true
}

// regIdx returns the 3-bit index of an 8-bit register or (HL) operand.
func regIdx(o Operand) (byte, bool) {
	switch o.Kind {
	case OpReg:
		return cpu.Index8(o.Reg)
	case OpInd:
		if o.Reg == cpu.RegHL {
			return cpu.IndHL, true
		}
	}
	return 0, false
}

// condOf extracts a condition code. The register C doubles as the carry
// condition where a condition is expected.
func condOf(o Operand) (cpu.Cond, bool) {
	switch o.Kind {
	case OpCond:
		return o.Cond, true
	case OpReg:
		if o.Reg == cpu.RegC {
			return cpu.CondC, true
		}
	}
	return cpu.CondNone, false
}
