package cpu

// Opcodes and opcode bases for the LR35902. Where a base is given, the
// register index or condition code is OR'd in by the assembler.
const (
	// Control
	OPNOP  = 0x00
	OPSTOP = 0x10 // Followed by a padding byte.
	OPHALT = 0x76
	OPDI   = 0xF3
	OPEI   = 0xFB

	// Accumulator/flag operations
	OPRLCA = 0x07
	OPRRCA = 0x0F
	OPRLA  = 0x17
	OPRRA  = 0x1F
	OPDAA  = 0x27
	OPCPL  = 0x2F
	OPSCF  = 0x37
	OPCCF  = 0x3F

	// 8-bit loads
	OPLDRegReg = 0x40 // LD r,r' (dst index <<3, src index OR'd)
	OPLDRegImm = 0x06 // LD r,n (dst index <<3)
	OPLDIndBCA = 0x02 // LD (BC),A
	OPLDIndDEA = 0x12 // LD (DE),A
	OPLDAIndBC = 0x0A // LD A,(BC)
	OPLDAIndDE = 0x1A // LD A,(DE)
	OPLDHLIncA = 0x22 // LD (HL+),A
	OPLDHLDecA = 0x32 // LD (HL-),A
	OPLDAHLInc = 0x2A // LD A,(HL+)
	OPLDAHLDec = 0x3A // LD A,(HL-)
	OPLDAbsA   = 0xEA // LD (a16),A
	OPLDAAbs   = 0xFA // LD A,(a16)
	OPLDHImmA  = 0xE0 // LDH (a8),A
	OPLDHAImm  = 0xF0 // LDH A,(a8)
	OPLDHIndCA = 0xE2 // LDH (C),A
	OPLDHAIndC = 0xF2 // LDH A,(C)

	// 16-bit loads
	OPLDPairImm = 0x01 // LD rr,nn (pair index <<4)
	OPLDAbsSP   = 0x08 // LD (a16),SP
	OPLDSPHL    = 0xF9 // LD SP,HL
	OPLDHLSPRel = 0xF8 // LD HL,SP+e8
	OPPUSH      = 0xC5 // PUSH rr (stack pair index <<4)
	OPPOP       = 0xC1 // POP rr (stack pair index <<4)

	// 8-bit arithmetic/logic bases (register index OR'd)
	OPADD = 0x80
	OPADC = 0x88
	OPSUB = 0x90
	OPSBC = 0x98
	OPAND = 0xA0
	OPXOR = 0xA8
	OPOR  = 0xB0
	OPCP  = 0xB8

	// Immediate forms of the above
	OPADDImm = 0xC6
	OPADCImm = 0xCE
	OPSUBImm = 0xD6
	OPSBCImm = 0xDE
	OPANDImm = 0xE6
	OPXORImm = 0xEE
	OPORImm  = 0xF6
	OPCPImm  = 0xFE

	// Increment/decrement
	OPINCReg  = 0x04 // INC r (register index <<3)
	OPDECReg  = 0x05 // DEC r (register index <<3)
	OPINCPair = 0x03 // INC rr (pair index <<4)
	OPDECPair = 0x0B // DEC rr (pair index <<4)

	// 16-bit arithmetic
	OPADDHLPair = 0x09 // ADD HL,rr (pair index <<4)
	OPADDSPRel  = 0xE8 // ADD SP,e8

	// Jumps, calls and returns
	OPJP       = 0xC3 // JP a16
	OPJPCond   = 0xC2 // JP cc,a16 (condition <<3)
	OPJPHL     = 0xE9 // JP (HL)
	OPJR       = 0x18 // JR e8
	OPJRCond   = 0x20 // JR cc,e8 (condition <<3)
	OPCALL     = 0xCD // CALL a16
	OPCALLCond = 0xC4 // CALL cc,a16 (condition <<3)
	OPRET      = 0xC9
	OPRETCond  = 0xC0 // RET cc (condition <<3)
	OPRETI     = 0xD9
	OPRST      = 0xC7 // RST vec (vector OR'd)

	// CB-prefixed operations
	OPPrefix = 0xCB
	OPRLC    = 0x00
	OPRRC    = 0x08
	OPRL     = 0x10
	OPRR     = 0x18
	OPSLA    = 0x20
	OPSRA    = 0x28
	OPSWAP   = 0x30
	OPSRL    = 0x38
	OPBIT    = 0x40 // BIT b,r (bit <<3, register index OR'd)
	OPRES    = 0x80 // RES b,r
	OPSET    = 0xC0 // SET b,r
)

// RotateOpcodes maps CB-prefixed rotate/shift mnemonics to their base
// opcodes. The register index is OR'd in.
var RotateOpcodes = map[string]byte{
	"rlc":  OPRLC,
	"rrc":  OPRRC,
	"rl":   OPRL,
	"rr":   OPRR,
	"sla":  OPSLA,
	"sra":  OPSRA,
	"swap": OPSWAP,
	"srl":  OPSRL,
}

// BitOpcodes maps the CB-prefixed single-bit mnemonics to their base
// opcodes. Bit number and register index are OR'd in.
var BitOpcodes = map[string]byte{
	"bit": OPBIT,
	"res": OPRES,
	"set": OPSET,
}

// ALUOpcodes maps 8-bit ALU mnemonics to register-form base and
// immediate-form opcode.
var ALUOpcodes = map[string][2]byte{
	"add": {OPADD, OPADDImm},
	"adc": {OPADC, OPADCImm},
	"sub": {OPSUB, OPSUBImm},
	"sbc": {OPSBC, OPSBCImm},
	"and": {OPAND, OPANDImm},
	"xor": {OPXOR, OPXORImm},
	"or":  {OPOR, OPORImm},
	"cp":  {OPCP, OPCPImm},
}

// SimpleOpcodes maps the no-operand mnemonics to their encodings. STOP
// carries its padding byte.
var SimpleOpcodes = map[string][]byte{
	"nop":  {OPNOP},
	"stop": {OPSTOP, 0x00},
	"halt": {OPHALT},
	"di":   {OPDI},
	"ei":   {OPEI},
	"rlca": {OPRLCA},
	"rrca": {OPRRCA},
	"rla":  {OPRLA},
	"rra":  {OPRRA},
	"daa":  {OPDAA},
	"cpl":  {OPCPL},
	"scf":  {OPSCF},
	"ccf":  {OPCCF},
	"ret":  {OPRET},
	"reti": {OPRETI},
}

// RSTVectors lists the valid RST targets.
var RSTVectors = [8]uint16{0x00, 0x08, 0x10, 0x18, 0x20, 0x28, 0x30, 0x38}
