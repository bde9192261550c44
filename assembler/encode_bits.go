package assembler

import (
	"github.com/Urethramancer/gbasm/cpu"
)

// rotate encodes the CB-prefixed rotate/shift/swap group.
func (e *enc) rotate() {
	if len(e.stmt.Operands) != 1 {
		e.invalid()
		return
	}
	i, ok := regIdx(e.stmt.Operands[0])
	if !ok {
		e.invalid()
		return
	}
	e.op(cpu.OPPrefix, cpu.RotateOpcodes[e.stmt.Mnemonic]|i)
}

// bitOp encodes BIT/RES/SET b,r. The bit number is part of the opcode
// and must be a constant the encoder can see.
func (e *enc) bitOp() {
	if len(e.stmt.Operands) != 2 || e.stmt.Operands[0].Kind != OpImm {
		e.invalid()
		return
	}
	i, ok := regIdx(e.stmt.Operands[1])
	if !ok {
		e.invalid()
		return
	}
	base := cpu.BitOpcodes[e.stmt.Mnemonic]
	if e.env.sizing {
		e.op(cpu.OPPrefix, base|i)
		return
	}
	b, ok := e.constByte(e.stmt.Operands[0].Expr, "bit number")
	if !ok {
		e.op(cpu.OPPrefix, base|i)
		return
	}
	if b < 0 || b > 7 {
		e.errf(RangeError, "bit number %d outside [0,7]", b)
		b &= 7
	}
	e.op(cpu.OPPrefix, base|byte(b)<<3|i)
}
