package assembler_test

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"
	"testing"

	"github.com/Urethramancer/gbasm/assembler"
	"github.com/Urethramancer/gbasm/rom"
)

// assemble builds a single source and returns the cartridge image.
func assemble(t *testing.T, src string) []byte {
	t.Helper()
	img, err := assembler.New().Assemble(assembler.Source{Name: "test.asm", Text: src})
	if err != nil {
		t.Fatalf("failed to assemble:\n%s\nerror: %v", src, err)
	}
	return img
}

// assembleAndMatchHex assembles source lines in a home bank section and
// checks the emitted bytes at the section origin against expected hex.
func assembleAndMatchHex(t *testing.T, name, src, expectedHex string) {
	t.Helper()

	expectedHex = strings.ToLower(strings.Join(strings.Fields(expectedHex), ""))
	expected, err := hex.DecodeString(expectedHex)
	if err != nil {
		t.Fatalf("[%s] invalid expected hex string: %v", name, err)
	}

	img := assemble(t, "SECTION BANK0\n"+src+"\n")
	got := img[0x0150 : 0x0150+len(expected)]
	if !bytes.Equal(got, expected) {
		t.Errorf("[%s] wrong encoding for:\n%s\nexpected: % X\ngot:      % X",
			name, src, expected, got)
	}
}

// expectError assembles and requires a diagnostic of the given kind.
func expectError(t *testing.T, kind assembler.ErrorKind, sources ...assembler.Source) *assembler.ErrorList {
	t.Helper()
	img, err := assembler.New().Assemble(sources...)
	if err == nil {
		t.Fatalf("expected %s, assembly succeeded", kind)
	}
	if img != nil {
		t.Fatalf("error build must not produce an image")
	}
	el, ok := err.(*assembler.ErrorList)
	if !ok {
		t.Fatalf("expected *ErrorList, got %T: %v", err, err)
	}
	if !el.Has(kind) {
		t.Fatalf("expected %s in:\n%s", kind, el.Error())
	}
	return el
}

func TestEntryProgram(t *testing.T) {
	src := "start: EQU $0150\nSECTION BANK0\nLD A, 5\nJP start\n"
	img := assemble(t, src)

	want := []byte{0x3E, 0x05, 0xC3, 0x50, 0x01}
	if got := img[0x0150:0x0155]; !bytes.Equal(got, want) {
		t.Errorf("home bank origin: expected % X, got % X", want, got)
	}
	// Entry vector falls through to the home bank origin.
	if got := img[0x0100:0x0104]; !bytes.Equal(got, []byte{0x00, 0xC3, 0x50, 0x01}) {
		t.Errorf("entry vector: got % X", got)
	}
}

func TestLoadEncodings(t *testing.T) {
	tests := []struct {
		name, src, hex string
	}{
		{"LD_B_C", "ld b,c", "41"},
		{"LD_A_HL", "ld a,(hl)", "7E"},
		{"LD_HL_A", "ld (hl),a", "77"},
		{"LD_HL_Imm", "ld (hl),$12", "36 12"},
		{"LD_A_Imm", "ld a,$FF", "3E FF"},
		{"LD_A_BC", "ld a,(bc)", "0A"},
		{"LD_A_DE", "ld a,(de)", "1A"},
		{"LD_BC_A", "ld (bc),a", "02"},
		{"LD_DE_A", "ld (de),a", "12"},
		{"LD_A_HLInc", "ld a,(hl+)", "2A"},
		{"LD_A_HLDec", "ld a,(hl-)", "3A"},
		{"LD_HLInc_A", "ld (hl+),a", "22"},
		{"LD_HLDec_A", "ld (hl-),a", "32"},
		{"LDI_A_HL", "ldi a,(hl)", "2A"},
		{"LDD_HL_A", "ldd (hl),a", "32"},
		{"LD_A_Abs", "ld a,($1234)", "FA 34 12"},
		{"LD_Abs_A", "ld ($1234),a", "EA 34 12"},
		{"LDH_A_Imm", "ldh a,($80)", "F0 80"},
		{"LDH_Imm_A", "ldh ($80),a", "E0 80"},
		{"LDH_FullAddr", "ldh a,($FF85)", "F0 85"},
		{"LDH_A_C", "ldh a,(c)", "F2"},
		{"LDH_C_A", "ldh (c),a", "E2"},
		{"LD_A_IndC", "ld a,(c)", "F2"},
		{"LD_BC_Imm", "ld bc,$1234", "01 34 12"},
		{"LD_DE_Imm", "ld de,$1234", "11 34 12"},
		{"LD_HL_Imm16", "ld hl,$8000", "21 00 80"},
		{"LD_SP_Imm", "ld sp,$FFFE", "31 FE FF"},
		{"LD_SP_HL", "ld sp,hl", "F9"},
		{"LD_HL_SPRel", "ld hl,sp+3", "F8 03"},
		{"LD_HL_SPNeg", "ld hl,sp-1", "F8 FF"},
		{"LD_Abs_SP", "ld ($C000),sp", "08 00 C0"},
		{"PUSH_BC", "push bc", "C5"},
		{"PUSH_AF", "push af", "F5"},
		{"POP_HL", "pop hl", "E1"},
		{"POP_DE", "pop de", "D1"},
	}
	for _, tc := range tests {
		assembleAndMatchHex(t, tc.name, tc.src, tc.hex)
	}
}

func TestALUEncodings(t *testing.T) {
	tests := []struct {
		name, src, hex string
	}{
		{"ADD_A_B", "add a,b", "80"},
		{"ADC_A_C", "adc a,c", "89"},
		{"SUB_B", "sub b", "90"},
		{"SUB_A_B", "sub a,b", "90"},
		{"SBC_A_D", "sbc a,d", "9A"},
		{"AND_E", "and e", "A3"},
		{"XOR_A", "xor a", "AF"},
		{"OR_H", "or h", "B4"},
		{"CP_L", "cp l", "BD"},
		{"ADD_A_HL", "add a,(hl)", "86"},
		{"CP_HL", "cp (hl)", "BE"},
		{"ADD_A_Imm", "add a,$10", "C6 10"},
		{"ADC_Imm", "adc a,1", "CE 01"},
		{"SUB_Imm", "sub $20", "D6 20"},
		{"SBC_Imm", "sbc a,2", "DE 02"},
		{"AND_Imm", "and $F0", "E6 F0"},
		{"XOR_Imm", "xor $FF", "EE FF"},
		{"OR_Imm", "or 1", "F6 01"},
		{"CP_Imm", "cp $91", "FE 91"},
		{"ADD_HL_DE", "add hl,de", "19"},
		{"ADD_HL_SP", "add hl,sp", "39"},
		{"ADD_SP_Neg", "add sp,-2", "E8 FE"},
		{"INC_B", "inc b", "04"},
		{"INC_HLInd", "inc (hl)", "34"},
		{"DEC_A", "dec a", "3D"},
		{"DEC_HLInd", "dec (hl)", "35"},
		{"INC_BC", "inc bc", "03"},
		{"DEC_SP", "dec sp", "3B"},
	}
	for _, tc := range tests {
		assembleAndMatchHex(t, tc.name, tc.src, tc.hex)
	}
}

func TestFlowEncodings(t *testing.T) {
	tests := []struct {
		name, src, hex string
	}{
		{"JP", "jp $0150", "C3 50 01"},
		{"JP_NZ", "jp nz,$0150", "C2 50 01"},
		{"JP_Z", "jp z,$0150", "CA 50 01"},
		{"JP_NC", "jp nc,$0150", "D2 50 01"},
		{"JP_C", "jp c,$0150", "DA 50 01"},
		{"JP_HL", "jp (hl)", "E9"},
		{"JP_HL_Bare", "jp hl", "E9"},
		{"JR_Self", "here: jr here", "18 FE"},
		{"JR_NZ", "here: jr nz,here", "20 FE"},
		{"JR_Z", "here: jr z,here", "28 FE"},
		{"JR_NC", "here: jr nc,here", "30 FE"},
		{"JR_C", "here: jr c,here", "38 FE"},
		{"CALL", "call $0200", "CD 00 02"},
		{"CALL_NZ", "call nz,$0200", "C4 00 02"},
		{"CALL_C", "call c,$0200", "DC 00 02"},
		{"RET", "ret", "C9"},
		{"RET_NZ", "ret nz", "C0"},
		{"RET_Z", "ret z", "C8"},
		{"RET_NC", "ret nc", "D0"},
		{"RET_C", "ret c", "D8"},
		{"RETI", "reti", "D9"},
		{"RST_00", "rst $00", "C7"},
		{"RST_18", "rst $18", "DF"},
		{"RST_38", "rst $38", "FF"},
	}
	for _, tc := range tests {
		assembleAndMatchHex(t, tc.name, tc.src, tc.hex)
	}
}

func TestBitEncodings(t *testing.T) {
	tests := []struct {
		name, src, hex string
	}{
		{"RLC_B", "rlc b", "CB 00"},
		{"RRC_A", "rrc a", "CB 0F"},
		{"RL_HLInd", "rl (hl)", "CB 16"},
		{"SLA_D", "sla d", "CB 22"},
		{"SRA_E", "sra e", "CB 2B"},
		{"SWAP_A", "swap a", "CB 37"},
		{"SRL_A", "srl a", "CB 3F"},
		{"BIT_7_H", "bit 7,h", "CB 7C"},
		{"BIT_0_A", "bit 0,a", "CB 47"},
		{"RES_0_A", "res 0,a", "CB 87"},
		{"SET_3_B", "set 3,b", "CB D8"},
		{"SET_7_HLInd", "set 7,(hl)", "CB FE"},
	}
	for _, tc := range tests {
		assembleAndMatchHex(t, tc.name, tc.src, tc.hex)
	}
}

func TestMiscEncodings(t *testing.T) {
	tests := []struct {
		name, src, hex string
	}{
		{"NOP", "nop", "00"},
		{"STOP", "stop", "10 00"},
		{"HALT", "halt", "76"},
		{"DI", "di", "F3"},
		{"EI", "ei", "FB"},
		{"DAA", "daa", "27"},
		{"CPL", "cpl", "2F"},
		{"SCF", "scf", "37"},
		{"CCF", "ccf", "3F"},
		{"RLCA", "rlca", "07"},
		{"RLA", "rla", "17"},
		{"RRCA", "rrca", "0F"},
		{"RRA", "rra", "1F"},
	}
	for _, tc := range tests {
		assembleAndMatchHex(t, tc.name, tc.src, tc.hex)
	}
}

func TestDirectives(t *testing.T) {
	tests := []struct {
		name, src, hex string
	}{
		{"DB", "db $11,$22,$33", "11 22 33"},
		{"DB_String", `db "ABC",$00`, "41 42 43 00"},
		{"DB_Char", "db 'A','B'", "41 42"},
		{"DW", "dw $1122,$3344", "22 11 44 33"},
		{"RESB", "db $AA\nresb 3\ndb $BB", "AA 00 00 00 BB"},
		{"DB_Expr", "db 2*3+1", "07"},
		{"DW_Here", "dw @", "50 01"},
		{"EQU_Here", "nop\nhere EQU @\ndw here", "00 51 01"},
		{"EQU_Here_Forward", "dw top\nnop\ntop EQU @", "53 01 00"},
		{"EQU_Arith", "width EQU 8\nheight EQU width*2\ndb height", "10"},
		{"SET_LastWins", "v SET 1\ndb v\nv SET 2\ndb v", "02 02"},
		{"Binary", "db %1010", "0A"},
		{"HexPrefix", "db 0x7F", "7F"},
	}
	for _, tc := range tests {
		assembleAndMatchHex(t, tc.name, tc.src, tc.hex)
	}
}

func TestForwardReference(t *testing.T) {
	src := `SECTION BANK0
jp target
nop
target:
ld a,1
`
	img := assemble(t, src)
	// target sits after the 3-byte jump and 1-byte nop.
	want := []byte{0xC3, 0x54, 0x01, 0x00, 0x3E, 0x01}
	if got := img[0x0150:0x0156]; !bytes.Equal(got, want) {
		t.Errorf("forward reference: expected % X, got % X", want, got)
	}
}

func TestForwardConstant(t *testing.T) {
	assembleAndMatchHex(t, "ForwardEQU", "db size\nsize EQU 5", "05")
}

func TestDeterminism(t *testing.T) {
	src := `SECTION BANK0
main::
ld a,5
loop:
dec a
jr nz,loop
jp main
db "DATA",0
`
	a := assemble(t, src)
	b := assemble(t, src)
	if !bytes.Equal(a, b) {
		t.Error("assembling the same source twice produced different images")
	}
}

func TestJRBoundaries(t *testing.T) {
	// Forward displacement of exactly 127.
	assemble(t, "SECTION BANK0\njr dest\nresb 127\ndest: nop\n")
	// Backward displacement of exactly -128.
	assemble(t, "SECTION BANK0\ndest: resb 126\njr dest\n")

	// One byte beyond in either direction is out of range.
	expectError(t, assembler.RangeError,
		assembler.Source{Name: "far.asm", Text: "SECTION BANK0\njr dest\nresb 128\ndest: nop\n"})
	expectError(t, assembler.RangeError,
		assembler.Source{Name: "far.asm", Text: "SECTION BANK0\ndest: resb 127\njr dest\n"})
}

func TestImm8Range(t *testing.T) {
	assemble(t, "SECTION BANK0\nld a,255\nld a,-128\n")
	expectError(t, assembler.RangeError,
		assembler.Source{Name: "r.asm", Text: "SECTION BANK0\nld a,256\n"})
	expectError(t, assembler.RangeError,
		assembler.Source{Name: "r.asm", Text: "SECTION BANK0\nld a,-129\n"})
}

func TestInvalidOperands(t *testing.T) {
	expectError(t, assembler.InvalidOperandError,
		assembler.Source{Name: "i.asm", Text: "SECTION BANK0\nld (hl),(hl)\n"})
	expectError(t, assembler.InvalidOperandError,
		assembler.Source{Name: "i.asm", Text: "SECTION BANK0\npush a\n"})
	expectError(t, assembler.InvalidOperandError,
		assembler.Source{Name: "i.asm", Text: "SECTION BANK0\nfrobnicate a\n"})

	// The report names the mnemonic and the operand form.
	el := expectError(t, assembler.InvalidOperandError,
		assembler.Source{Name: "i.asm", Text: "SECTION BANK0\nld sp,b\n"})
	found := false
	for _, d := range el.Diagnostics() {
		if strings.Contains(d.Msg, "LD") && strings.Contains(d.Msg, "SP") {
			found = true
		}
	}
	if !found {
		t.Errorf("diagnostic should name mnemonic and operand form: %s", el.Error())
	}
}

func TestRSTVector(t *testing.T) {
	expectError(t, assembler.RangeError,
		assembler.Source{Name: "r.asm", Text: "SECTION BANK0\nrst $12\n"})
}

func TestBankOverflow(t *testing.T) {
	expectError(t, assembler.BankOverflowError,
		assembler.Source{Name: "big.asm", Text: "SECTION BANK0\nresb 16100\n"})
	// A switchable bank holds exactly 16KiB from its default origin.
	assemble(t, "SECTION BANK1\nresb 16384\nSECTION BANK0\nnop\n")
	expectError(t, assembler.BankOverflowError,
		assembler.Source{Name: "big.asm", Text: "SECTION BANK1\nresb 16384\nnop\n"})
}

func TestSectionOverlap(t *testing.T) {
	src := "SECTION BANK0, $0200\nresb 16\nSECTION BANK0, $0208\nnop\n"
	expectError(t, assembler.OverlapError,
		assembler.Source{Name: "o.asm", Text: src})

	// Same addresses in different banks do not overlap.
	assemble(t, "SECTION BANK1, $4000\nresb 16\nSECTION BANK2, $4000\nresb 16\n")
}

func TestExplicitVectorSection(t *testing.T) {
	// Raw-address sections may claim the reserved vector area.
	src := "SECTION BANK0, $0000\njp $0150\nSECTION BANK0\nnop\n"
	img := assemble(t, src)
	if got := img[0:3]; !bytes.Equal(got, []byte{0xC3, 0x50, 0x01}) {
		t.Errorf("vector section: got % X", got)
	}
}

func TestDuplicateMain(t *testing.T) {
	a := assembler.Source{Name: "a.asm", Text: "SECTION BANK0, $0150\nmain:: nop\n"}
	b := assembler.Source{Name: "b.asm", Text: "SECTION BANK0, $0200\nmain:: nop\n"}
	el := expectError(t, assembler.DuplicateSymbolError, a, b)
	if !strings.Contains(el.Error(), "a.asm") || !strings.Contains(el.Error(), "b.asm") {
		t.Errorf("duplicate report should name both files: %s", el.Error())
	}
}

func TestUndefinedSymbol(t *testing.T) {
	src := "SECTION BANK0\njp missing\ncall missing\n"
	el := expectError(t, assembler.UndefinedSymbolError,
		assembler.Source{Name: "u.asm", Text: src})
	// One report naming every referencing location.
	count := 0
	for _, d := range el.Diagnostics() {
		if d.Kind == assembler.UndefinedSymbolError {
			count++
			if !strings.Contains(d.Msg, "u.asm:2") || !strings.Contains(d.Msg, "u.asm:3") {
				t.Errorf("report should list all references: %s", d.Msg)
			}
		}
	}
	if count != 1 {
		t.Errorf("expected one collected report, got %d", count)
	}
}

func TestCircularConstants(t *testing.T) {
	src := "a EQU b\nb EQU a\nSECTION BANK0\ndb a\n"
	expectError(t, assembler.CircularSymbolError,
		assembler.Source{Name: "c.asm", Text: src})
}

func TestLongConstantChain(t *testing.T) {
	// Defined deepest-first, so resolving the first symbol needs the
	// whole chain below it.
	const n = 2000
	var sb strings.Builder
	for i := n; i >= 1; i-- {
		fmt.Fprintf(&sb, "c%d EQU c%d+1\n", i, i-1)
	}
	sb.WriteString("c0 EQU 1\nSECTION BANK0\ndw c2000\n")

	img := assemble(t, sb.String())
	if got := img[0x0150:0x0152]; !bytes.Equal(got, []byte{0xD1, 0x07}) {
		t.Errorf("chain value: expected D1 07, got % X", got)
	}
}

func TestCrossFileReference(t *testing.T) {
	a := assembler.Source{Name: "a.asm", Text: "SECTION BANK0, $0150\nmain::\njp helper\n"}
	b := assembler.Source{Name: "b.asm", Text: "SECTION BANK0, $0200\nhelper::\nret\n"}
	img, err := assembler.New().Assemble(a, b)
	if err != nil {
		t.Fatalf("cross-file link failed: %v", err)
	}
	if got := img[0x0150:0x0153]; !bytes.Equal(got, []byte{0xC3, 0x00, 0x02}) {
		t.Errorf("cross-file jp: got % X", got)
	}
	if img[0x0200] != 0xC9 {
		t.Errorf("helper body: got %02X", img[0x0200])
	}
	// Entry vector targets the exported main.
	if got := img[0x0100:0x0104]; !bytes.Equal(got, []byte{0x00, 0xC3, 0x50, 0x01}) {
		t.Errorf("entry vector: got % X", got)
	}
}

func TestLocalLabelsStayLocal(t *testing.T) {
	a := assembler.Source{Name: "a.asm", Text: "SECTION BANK0, $0150\nloop: jr loop\n"}
	b := assembler.Source{Name: "b.asm", Text: "SECTION BANK0, $0200\njp loop\n"}
	expectError(t, assembler.UndefinedSymbolError, a, b)
}

func TestInclude(t *testing.T) {
	asm := assembler.New()
	asm.Load = func(from, name string) (string, error) {
		if name != "defs.inc" {
			t.Fatalf("unexpected include %q", name)
		}
		return "value EQU $42\n", nil
	}
	img, err := asm.Assemble(assembler.Source{
		Name: "main.asm",
		Text: "INCLUDE \"defs.inc\"\nSECTION BANK0\nld a,value\n",
	})
	if err != nil {
		t.Fatalf("include build failed: %v", err)
	}
	if got := img[0x0150:0x0152]; !bytes.Equal(got, []byte{0x3E, 0x42}) {
		t.Errorf("included constant: got % X", got)
	}
}

func TestDuplicateInclude(t *testing.T) {
	files := map[string]string{
		"a.inc":      "INCLUDE \"common.inc\"\n",
		"b.inc":      "INCLUDE \"common.inc\"\n",
		"common.inc": "shared EQU 7\n",
	}
	asm := assembler.New()
	asm.Load = func(from, name string) (string, error) {
		text, ok := files[name]
		if !ok {
			t.Fatalf("unexpected include %q", name)
		}
		return text, nil
	}
	_, err := asm.Assemble(assembler.Source{
		Name: "main.asm",
		Text: "INCLUDE \"a.inc\"\nINCLUDE \"b.inc\"\nSECTION BANK0\ndb shared\n",
	})
	if err == nil {
		t.Fatal("pulling the same file in twice should fail")
	}
	el, ok := err.(*assembler.ErrorList)
	if !ok || !el.Has(assembler.IncludeError) {
		t.Fatalf("expected an include diagnostic, got %v", err)
	}
	msg := el.Error()
	if !strings.Contains(msg, "duplicate include") {
		t.Errorf("a diamond include is duplicate, not circular: %s", msg)
	}
	if strings.Contains(msg, "circular") {
		t.Errorf("no include chain loops here: %s", msg)
	}
}

func TestCircularInclude(t *testing.T) {
	asm := assembler.New()
	asm.Load = func(from, name string) (string, error) {
		return "INCLUDE \"loop.inc\"\n", nil
	}
	_, err := asm.Assemble(assembler.Source{
		Name: "main.asm",
		Text: "INCLUDE \"loop.inc\"\nSECTION BANK0\nnop\n",
	})
	if err == nil {
		t.Fatal("circular include should fail")
	}
	if !strings.Contains(err.Error(), "circular include") {
		t.Errorf("a self-including file is circular: %v", err)
	}
}

func TestSwitchableBankPlacement(t *testing.T) {
	src := "SECTION BANK1\ndb $DE,$AD\nSECTION BANK0\nmain:: nop\n"
	img := assemble(t, src)
	if len(img) != 2*16384 {
		t.Fatalf("expected 32KiB image, got %d", len(img))
	}
	if img[0x4000] != 0xDE || img[0x4001] != 0xAD {
		t.Errorf("bank 1 data: got % X", img[0x4000:0x4002])
	}
}

func TestBankCountRounding(t *testing.T) {
	// Bank 2 in use forces a four-bank image.
	src := "SECTION BANK2\ndb 1\nSECTION BANK0\nnop\n"
	img := assemble(t, src)
	if len(img) != 4*16384 {
		t.Fatalf("expected 64KiB image, got %d", len(img))
	}
	if img[rom.OffROMSize] != 0x01 {
		t.Errorf("ROM size code: got %02X", img[rom.OffROMSize])
	}
}

func TestChecksumsMatchFormulas(t *testing.T) {
	img := assemble(t, "SECTION BANK0\nmain:: ld a,5\njp main\n")

	var header byte
	for i := 0x0134; i <= 0x014C; i++ {
		header = header - img[i] - 1
	}
	if img[0x014D] != header {
		t.Errorf("header checksum: image %02X, recomputed %02X", img[0x014D], header)
	}

	var global uint16
	for i, b := range img {
		if i == 0x014E || i == 0x014F {
			continue
		}
		global += uint16(b)
	}
	if got := uint16(img[0x014E])<<8 | uint16(img[0x014F]); got != global {
		t.Errorf("global checksum: image %04X, recomputed %04X", got, global)
	}
}

func TestNoOutputOnAnyError(t *testing.T) {
	// A lex error alone must block the image.
	img, err := assembler.New().Assemble(assembler.Source{
		Name: "bad.asm",
		Text: "SECTION BANK0\nld a,5\ndb \"unterminated\n",
	})
	if err == nil || img != nil {
		t.Fatal("build with a lexical error must not produce an image")
	}
}

func TestSyntaxErrorRecovery(t *testing.T) {
	// Two bad statements yield two diagnostics, not one.
	src := "SECTION BANK0\nld a,\njp ,\nnop\n"
	el := expectError(t, assembler.SyntaxError,
		assembler.Source{Name: "s.asm", Text: src})
	count := 0
	for _, d := range el.Diagnostics() {
		if d.Kind == assembler.SyntaxError {
			count++
		}
	}
	if count < 2 {
		t.Errorf("expected at least 2 syntax errors, got %d:\n%s", count, el.Error())
	}
}
