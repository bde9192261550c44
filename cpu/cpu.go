// Package cpu holds the LR35902 instruction set definitions shared by the
// assembler and linker: register and condition encodings, opcode bases and
// the cartridge memory map.
package cpu

// Reg identifies a CPU register operand.
type Reg int

const (
	// RegNone is the zero value, indicating no register.
	RegNone Reg = iota
	// 8-bit registers, in encoding order.
	RegB
	RegC
	RegD
	RegE
	RegH
	RegL
	RegA
	// 16-bit register pairs.
	RegBC
	RegDE
	RegHL
	RegSP
	RegAF
)

var regNames = map[Reg]string{
	RegB:  "B",
	RegC:  "C",
	RegD:  "D",
	RegE:  "E",
	RegH:  "H",
	RegL:  "L",
	RegA:  "A",
	RegBC: "BC",
	RegDE: "DE",
	RegHL: "HL",
	RegSP: "SP",
	RegAF: "AF",
}

func (r Reg) String() string {
	if s, ok := regNames[r]; ok {
		return s
	}
	return "?"
}

// Is8Bit reports whether r is one of the 8-bit registers.
func (r Reg) Is8Bit() bool {
	return r >= RegB && r <= RegA
}

// Is16Bit reports whether r is a register pair.
func (r Reg) Is16Bit() bool {
	return r >= RegBC && r <= RegAF
}

// regIndex holds the 3-bit encoding for each 8-bit register. Index 6 is
// the (HL) memory form and has no entry here.
var regIndex = map[Reg]byte{
	RegB: 0,
	RegC: 1,
	RegD: 2,
	RegE: 3,
	RegH: 4,
	RegL: 5,
	RegA: 7,
}

// IndHL is the register index used by the (HL) operand form.
const IndHL byte = 6

// Index8 returns the 3-bit encoding of an 8-bit register.
func Index8(r Reg) (byte, bool) {
	i, ok := regIndex[r]
	return i, ok
}

// PairIndex returns the 2-bit encoding of a register pair for the
// BC/DE/HL/SP group (LD rr,nn, ADD HL,rr, INC/DEC rr).
func PairIndex(r Reg) (byte, bool) {
	switch r {
	case RegBC:
		return 0, true
	case RegDE:
		return 1, true
	case RegHL:
		return 2, true
	case RegSP:
		return 3, true
	}
	return 0, false
}

// StackPairIndex returns the 2-bit encoding for the PUSH/POP group, where
// AF replaces SP.
func StackPairIndex(r Reg) (byte, bool) {
	switch r {
	case RegBC:
		return 0, true
	case RegDE:
		return 1, true
	case RegHL:
		return 2, true
	case RegAF:
		return 3, true
	}
	return 0, false
}

// Cond is a jump/call/return condition code.
type Cond int

const (
	// CondNone is the zero value, indicating an unconditional form.
	CondNone Cond = iota
	CondNZ
	CondZ
	CondNC
	CondC
)

var condNames = map[Cond]string{
	CondNZ: "NZ",
	CondZ:  "Z",
	CondNC: "NC",
	CondC:  "C",
}

func (c Cond) String() string {
	if s, ok := condNames[c]; ok {
		return s
	}
	return "?"
}

// CondIndex returns the 2-bit condition encoding.
func CondIndex(c Cond) (byte, bool) {
	switch c {
	case CondNZ:
		return 0, true
	case CondZ:
		return 1, true
	case CondNC:
		return 2, true
	case CondC:
		return 3, true
	}
	return 0, false
}
