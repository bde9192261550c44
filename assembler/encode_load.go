package assembler

import (
	"github.com/Urethramancer/gbasm/cpu"
)

// ld encodes every form of the LD instruction.
func (e *enc) ld() {
	if len(e.stmt.Operands) != 2 {
		e.invalid()
		return
	}
	dst, src := e.stmt.Operands[0], e.stmt.Operands[1]

	// LD r,r' and LD r,(HL) / LD (HL),r.
	if d, ok := regIdx(dst); ok {
		if s, ok := regIdx(src); ok {
			if d == cpu.IndHL && s == cpu.IndHL {
				// That bit pattern is HALT.
				e.invalid()
				return
			}
			e.op(cpu.OPLDRegReg | d<<3 | s)
			return
		}
		// LD r,n and LD (HL),n.
		if src.Kind == OpImm {
			e.op(cpu.OPLDRegImm | d<<3)
			e.imm8(src.Expr)
			return
		}
	}

	// Accumulator loads through memory.
	if dst.Kind == OpReg && dst.Reg == cpu.RegA {
		switch src.Kind {
		case OpInd:
			switch src.Reg {
			case cpu.RegBC:
				e.op(cpu.OPLDAIndBC)
				return
			case cpu.RegDE:
				e.op(cpu.OPLDAIndDE)
				return
			case cpu.RegC:
				e.op(cpu.OPLDHAIndC)
				return
			case cpu.RegNone:
				e.op(cpu.OPLDAAbs)
				e.imm16(src.Expr)
				return
			}
		case OpIndInc:
			e.op(cpu.OPLDAHLInc)
			return
		case OpIndDec:
			e.op(cpu.OPLDAHLDec)
			return
		}
	}
	if src.Kind == OpReg && src.Reg == cpu.RegA {
		switch dst.Kind {
		case OpInd:
			switch dst.Reg {
			case cpu.RegBC:
				e.op(cpu.OPLDIndBCA)
				return
			case cpu.RegDE:
				e.op(cpu.OPLDIndDEA)
				return
			case cpu.RegC:
				e.op(cpu.OPLDHIndCA)
				return
			case cpu.RegNone:
				e.op(cpu.OPLDAbsA)
				e.imm16(dst.Expr)
				return
			}
		case OpIndInc:
			e.op(cpu.OPLDHLIncA)
			return
		case OpIndDec:
			e.op(cpu.OPLDHLDecA)
			return
		}
	}

	// 16-bit loads.
	if dst.Kind == OpReg {
		if p, ok := cpu.PairIndex(dst.Reg); ok && src.Kind == OpImm {
			e.op(cpu.OPLDPairImm | p<<4)
			e.imm16(src.Expr)
			return
		}
		if dst.Reg == cpu.RegSP && src.Kind == OpReg && src.Reg == cpu.RegHL {
			e.op(cpu.OPLDSPHL)
			return
		}
		if dst.Reg == cpu.RegHL && src.Kind == OpSPRel {
			e.op(cpu.OPLDHLSPRel)
			e.signed8(src.Expr)
			return
		}
	}
	if dst.Kind == OpInd && dst.Reg == cpu.RegNone &&
		src.Kind == OpReg && src.Reg == cpu.RegSP {
		e.op(cpu.OPLDAbsSP)
		e.imm16(dst.Expr)
		return
	}

	e.invalid()
}

// ldh encodes the 0xFF00-page loads.
func (e *enc) ldh() {
	if len(e.stmt.Operands) != 2 {
		e.invalid()
		return
	}
	dst, src := e.stmt.Operands[0], e.stmt.Operands[1]

	if dst.Kind == OpReg && dst.Reg == cpu.RegA && src.Kind == OpInd {
		switch {
		case src.Reg == cpu.RegC:
			e.op(cpu.OPLDHAIndC)
			return
		case src.Reg == cpu.RegNone:
			e.op(cpu.OPLDHAImm)
			e.high8(src.Expr)
			return
		}
	}
	if src.Kind == OpReg && src.Reg == cpu.RegA && dst.Kind == OpInd {
		switch {
		case dst.Reg == cpu.RegC:
			e.op(cpu.OPLDHIndCA)
			return
		case dst.Reg == cpu.RegNone:
			e.op(cpu.OPLDHImmA)
			e.high8(dst.Expr)
			return
		}
	}
	e.invalid()
}

// ldIncDec encodes the LDI/LDD aliases for the HL+/HL- loads.
func (e *enc) ldIncDec() {
	if len(e.stmt.Operands) != 2 {
		e.invalid()
		return
	}
	dst, src := e.stmt.Operands[0], e.stmt.Operands[1]
	inc := e.stmt.Mnemonic == "ldi"

	aTo := dst.Kind == OpReg && dst.Reg == cpu.RegA &&
		src.Kind == OpInd && src.Reg == cpu.RegHL
	toA := src.Kind == OpReg && src.Reg == cpu.RegA &&
		dst.Kind == OpInd && dst.Reg == cpu.RegHL

	switch {
	case aTo && inc:
		e.op(cpu.OPLDAHLInc)
	case aTo:
		e.op(cpu.OPLDAHLDec)
	case toA && inc:
		e.op(cpu.OPLDHLIncA)
	case toA:
		e.op(cpu.OPLDHLDecA)
	default:
		e.invalid()
	}
}

// pushPop encodes PUSH/POP rr.
func (e *enc) pushPop() {
	if len(e.stmt.Operands) != 1 || e.stmt.Operands[0].Kind != OpReg {
		e.invalid()
		return
	}
	p, ok := cpu.StackPairIndex(e.stmt.Operands[0].Reg)
	if !ok {
		e.invalid()
		return
	}
	if e.stmt.Mnemonic == "push" {
		e.op(cpu.OPPUSH | p<<4)
	} else {
		e.op(cpu.OPPOP | p<<4)
	}
}
