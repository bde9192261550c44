package assembler

import (
	"github.com/Urethramancer/gbasm/cpu"
)

// StatementKind defines the type of a parsed statement.
type StatementKind int

const (
	// StmtInstruction is a CPU instruction.
	StmtInstruction StatementKind = iota
	// StmtLabel is a label definition.
	StmtLabel
	// StmtDirective is an assembler directive.
	StmtDirective
)

// DirectiveKind identifies an assembler directive.
type DirectiveKind int

const (
	DirEQU DirectiveKind = iota
	DirSET
	DirDB
	DirDW
	DirRESB
	DirSECTION
	DirINCLUDE
)

var directiveNames = map[DirectiveKind]string{
	DirEQU:     "EQU",
	DirSET:     "SET",
	DirDB:      "DB",
	DirDW:      "DW",
	DirRESB:    "RESB",
	DirSECTION: "SECTION",
	DirINCLUDE: "INCLUDE",
}

func (d DirectiveKind) String() string {
	if s, ok := directiveNames[d]; ok {
		return s
	}
	return "?"
}

// OperandKind tags the syntactic form of an instruction operand. The
// form is fixed at parse time; symbol values are filled in later.
type OperandKind int

const (
	// OpReg is a bare register (A, BC, ...).
	OpReg OperandKind = iota
	// OpCond is a condition code (NZ, Z, NC).
	OpCond
	// OpInd is an indirect reference: (BC), (DE), (HL), (C) or (expr).
	OpInd
	// OpIndInc is (HL+).
	OpIndInc
	// OpIndDec is (HL-).
	OpIndDec
	// OpImm is an immediate expression, possibly symbolic.
	OpImm
	// OpSPRel is the SP+e8 form of LD HL,SP+e8.
	OpSPRel
)

// Operand is one parsed instruction operand.
type Operand struct {
	Kind OperandKind
	Reg  cpu.Reg
	Cond cpu.Cond
	Expr *Expr
	Pos  Position
}

// Form describes the operand's syntactic form for diagnostics.
func (o Operand) Form() string {
	switch o.Kind {
	case OpReg:
		return o.Reg.String()
	case OpCond:
		return o.Cond.String()
	case OpInd:
		if o.Reg != cpu.RegNone {
			return "(" + o.Reg.String() + ")"
		}
		return "(expr)"
	case OpIndInc:
		return "(HL+)"
	case OpIndDec:
		return "(HL-)"
	case OpImm:
		return "expr"
	case OpSPRel:
		return "SP+expr"
	}
	return "?"
}

// DataItem is one DB/DW argument: either a string or an expression.
type DataItem struct {
	Str   string
	IsStr bool
	Expr  *Expr
	Pos   Position
}

// Statement is one parsed element of a source file: an instruction, a
// label definition or a directive. Created by the parser and never
// mutated afterwards, except for the address fields assigned in pass 1.
type Statement struct {
	Kind StatementKind
	Pos  Position

	// Instruction fields.
	Mnemonic string
	Operands []Operand

	// Label and EQU/SET fields.
	Name     string
	Exported bool

	// Directive fields.
	Directive DirectiveKind
	Expr      *Expr      // EQU/SET value, RESB count, SECTION base
	Items     []DataItem // DB/DW data
	Bank      int        // SECTION bank number
	HasBase   bool       // SECTION declared an explicit base address
	Include   string     // INCLUDE target

	// Assigned during pass 1.
	Addr uint16
	Size uint16
}
