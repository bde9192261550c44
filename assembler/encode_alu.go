package assembler

import (
	"github.com/Urethramancer/gbasm/cpu"
)

// alu encodes the 8-bit arithmetic/logic group plus the ADD HL,rr and
// ADD SP,e8 forms. Both "SUB B" and "SUB A,B" spellings are accepted.
func (e *enc) alu() {
	ops := e.stmt.Operands
	bases := cpu.ALUOpcodes[e.stmt.Mnemonic]

	var src Operand
	switch len(ops) {
	case 1:
		src = ops[0]
	case 2:
		dst := ops[0]
		if e.stmt.Mnemonic == "add" && dst.Kind == OpReg {
			// ADD HL,rr
			if dst.Reg == cpu.RegHL {
				if ops[1].Kind == OpReg {
					if p, ok := cpu.PairIndex(ops[1].Reg); ok {
						e.op(cpu.OPADDHLPair | p<<4)
						return
					}
				}
				e.invalid()
				return
			}
			// ADD SP,e8
			if dst.Reg == cpu.RegSP {
				if ops[1].Kind == OpImm {
					e.op(cpu.OPADDSPRel)
					e.signed8(ops[1].Expr)
					return
				}
				e.invalid()
				return
			}
		}
		if dst.Kind != OpReg || dst.Reg != cpu.RegA {
			e.invalid()
			return
		}
		src = ops[1]
	default:
		e.invalid()
		return
	}

	if i, ok := regIdx(src); ok {
		e.op(bases[0] | i)
		return
	}
	if src.Kind == OpImm {
		e.op(bases[1])
		e.imm8(src.Expr)
		return
	}
	e.invalid()
}

// incDec encodes INC/DEC for 8-bit registers, (HL) and register pairs.
func (e *enc) incDec() {
	if len(e.stmt.Operands) != 1 {
		e.invalid()
		return
	}
	o := e.stmt.Operands[0]
	inc := e.stmt.Mnemonic == "inc"

	if i, ok := regIdx(o); ok {
		if inc {
			e.op(cpu.OPINCReg | i<<3)
		} else {
			e.op(cpu.OPDECReg | i<<3)
		}
		return
	}
	if o.Kind == OpReg {
		if p, ok := cpu.PairIndex(o.Reg); ok {
			if inc {
				e.op(cpu.OPINCPair | p<<4)
			} else {
				e.op(cpu.OPDECPair | p<<4)
			}
			return
		}
	}
	e.invalid()
}
