package assembler

import (
	"github.com/Urethramancer/gbasm/cpu"
)

// jp encodes absolute jumps: JP a16, JP cc,a16 and JP (HL).
func (e *enc) jp() {
	ops := e.stmt.Operands
	switch len(ops) {
	case 1:
		o := ops[0]
		if (o.Kind == OpInd || o.Kind == OpReg) && o.Reg == cpu.RegHL {
			e.op(cpu.OPJPHL)
			return
		}
		if o.Kind == OpImm {
			e.op(cpu.OPJP)
			e.imm16(o.Expr)
			return
		}
	case 2:
		if c, ok := condOf(ops[0]); ok && ops[1].Kind == OpImm {
			cc, _ := cpu.CondIndex(c)
			e.op(cpu.OPJPCond | cc<<3)
			e.imm16(ops[1].Expr)
			return
		}
	}
	e.invalid()
}

// jr encodes relative jumps. The displacement is measured from the end
// of the two-byte instruction.
func (e *enc) jr() {
	ops := e.stmt.Operands
	switch len(ops) {
	case 1:
		if ops[0].Kind == OpImm {
			e.op(cpu.OPJR)
			e.rel8(ops[0].Expr)
			return
		}
	case 2:
		if c, ok := condOf(ops[0]); ok && ops[1].Kind == OpImm {
			cc, _ := cpu.CondIndex(c)
			e.op(cpu.OPJRCond | cc<<3)
			e.rel8(ops[1].Expr)
			return
		}
	}
	e.invalid()
}

// call encodes CALL a16 and CALL cc,a16.
func (e *enc) call() {
	ops := e.stmt.Operands
	switch len(ops) {
	case 1:
		if ops[0].Kind == OpImm {
			e.op(cpu.OPCALL)
			e.imm16(ops[0].Expr)
			return
		}
	case 2:
		if c, ok := condOf(ops[0]); ok && ops[1].Kind == OpImm {
			cc, _ := cpu.CondIndex(c)
			e.op(cpu.OPCALLCond | cc<<3)
			e.imm16(ops[1].Expr)
			return
		}
	}
	e.invalid()
}

// ret encodes RET, RET cc and RETI.
func (e *enc) ret() {
	ops := e.stmt.Operands
	if e.stmt.Mnemonic == "reti" {
		if len(ops) != 0 {
			e.invalid()
			return
		}
		e.op(cpu.OPRETI)
		return
	}
	switch len(ops) {
	case 0:
		e.op(cpu.OPRET)
		return
	case 1:
		if c, ok := condOf(ops[0]); ok {
			cc, _ := cpu.CondIndex(c)
			e.op(cpu.OPRETCond | cc<<3)
			return
		}
	}
	e.invalid()
}

// rst encodes the restart instruction. The vector is folded into the
// opcode, so it must be a constant the encoder can see.
func (e *enc) rst() {
	if len(e.stmt.Operands) != 1 || e.stmt.Operands[0].Kind != OpImm {
		e.invalid()
		return
	}
	if e.env.sizing {
		e.op(cpu.OPRST)
		return
	}
	v, ok := e.constByte(e.stmt.Operands[0].Expr, "RST vector")
	if !ok {
		e.op(cpu.OPRST)
		return
	}
	for _, vec := range cpu.RSTVectors {
		if uint16(v) == vec {
			e.op(cpu.OPRST | byte(v))
			return
		}
	}
	e.errf(RangeError, "$%X is not a valid RST vector", v)
	e.op(cpu.OPRST)
}
