package assembler

import (
	"testing"

	"github.com/Urethramancer/gbasm/cpu"
)

func parse(t *testing.T, src string) ([]*Statement, *SymTab, *ErrorList) {
	t.Helper()
	diags := &ErrorList{}
	symbols := NewSymTab("parse.asm")
	toks := NewLexer("parse.asm", src, diags).Tokens()
	stmts, _ := NewParser("parse.asm", toks, symbols, diags).Parse()
	return stmts, symbols, diags
}

func parseOK(t *testing.T, src string) ([]*Statement, *SymTab) {
	t.Helper()
	stmts, symbols, diags := parse(t, src)
	if diags.Len() != 0 {
		t.Fatalf("unexpected diagnostics for %q:\n%s", src, diags.Error())
	}
	return stmts, symbols
}

func TestParseLabels(t *testing.T) {
	stmts, symbols := parseOK(t, "local:\nexported::\nboth: nop\n")
	if len(stmts) != 4 {
		t.Fatalf("expected 4 statements, got %d", len(stmts))
	}
	if stmts[0].Kind != StmtLabel || stmts[0].Exported {
		t.Error("first label should be local")
	}
	if stmts[1].Kind != StmtLabel || !stmts[1].Exported {
		t.Error("second label should be exported")
	}
	if stmts[3].Kind != StmtInstruction || stmts[3].Mnemonic != "nop" {
		t.Error("label and instruction on one line should yield both")
	}
	if s, ok := symbols.Lookup("exported"); !ok || !s.Exported {
		t.Error("exported symbol not installed")
	}
}

func TestParseConstantForms(t *testing.T) {
	_, symbols := parseOK(t, "a EQU 1\nb: EQU 2\nc:: EQU 3\nd SET 4\n")
	for _, name := range []string{"a", "b", "c", "d"} {
		s, ok := symbols.Lookup(name)
		if !ok {
			t.Errorf("constant %q not installed", name)
			continue
		}
		if s.Kind != SymConst {
			t.Errorf("%q: wrong kind", name)
		}
	}
	if s, _ := symbols.Lookup("c"); !s.Exported {
		t.Error("c:: EQU should export")
	}
	if s, _ := symbols.Lookup("d"); !s.Mutable {
		t.Error("SET symbol should be mutable")
	}
}

func TestParseSETInstructionVsDirective(t *testing.T) {
	stmts, _ := parseOK(t, "set 3,b\nv SET 1\n")
	if stmts[0].Kind != StmtInstruction || stmts[0].Mnemonic != "set" {
		t.Error("bare SET should parse as the bit instruction")
	}
	if stmts[1].Kind != StmtDirective || stmts[1].Directive != DirSET {
		t.Error("named SET should parse as the constant directive")
	}
}

func TestParseOperandForms(t *testing.T) {
	tests := []struct {
		src  string
		want []OperandKind
	}{
		{"ld a,b", []OperandKind{OpReg, OpReg}},
		{"ld a,(hl)", []OperandKind{OpReg, OpInd}},
		{"ld a,(hl+)", []OperandKind{OpReg, OpIndInc}},
		{"ld (hl-),a", []OperandKind{OpIndDec, OpReg}},
		{"ld a,($FF00)", []OperandKind{OpReg, OpInd}},
		{"ld a,5", []OperandKind{OpReg, OpImm}},
		{"ld hl,sp+2", []OperandKind{OpReg, OpSPRel}},
		{"jp nz,label", []OperandKind{OpCond, OpImm}},
		{"jp c,label", []OperandKind{OpReg, OpImm}},
		{"add sp,-2", []OperandKind{OpReg, OpImm}},
	}
	for _, tc := range tests {
		stmts, _ := parseOK(t, tc.src+"\n")
		if len(stmts) != 1 || stmts[0].Kind != StmtInstruction {
			t.Errorf("%q: expected one instruction", tc.src)
			continue
		}
		ops := stmts[0].Operands
		if len(ops) != len(tc.want) {
			t.Errorf("%q: expected %d operands, got %d", tc.src, len(tc.want), len(ops))
			continue
		}
		for i, k := range tc.want {
			if ops[i].Kind != k {
				t.Errorf("%q operand %d: expected kind %d, got %d", tc.src, i, k, ops[i].Kind)
			}
		}
	}
}

func TestParseSection(t *testing.T) {
	stmts, _ := parseOK(t, "SECTION BANK0\nSECTION BANK3, $4000\nBANK 2\n")
	if stmts[0].Bank != 0 || stmts[0].HasBase {
		t.Error("BANK0 without base")
	}
	if stmts[1].Bank != 3 || !stmts[1].HasBase {
		t.Error("BANK3 with base")
	}
	if stmts[2].Bank != 2 || stmts[2].Directive != DirSECTION {
		t.Error("BANK n spelling")
	}
}

func TestParseData(t *testing.T) {
	stmts, _ := parseOK(t, `db "AB",1,'C'`+"\ndw $1234,label\n")
	db := stmts[0]
	if len(db.Items) != 3 || !db.Items[0].IsStr || db.Items[1].IsStr {
		t.Fatalf("DB items wrong: %+v", db.Items)
	}
	dw := stmts[1]
	if len(dw.Items) != 2 || dw.Items[1].Expr.Kind != ExprSym {
		t.Fatalf("DW items wrong: %+v", dw.Items)
	}
}

func TestParseStringRejectedInDW(t *testing.T) {
	_, _, diags := parse(t, `dw "NO"`+"\n")
	if !diags.Has(SyntaxError) {
		t.Error("DW with a string should be a syntax error")
	}
}

func TestParseExprPrecedence(t *testing.T) {
	tests := []struct {
		src  string
		want int64
	}{
		{"1+2*3", 7},
		{"(1+2)*3", 9},
		{"8/2-1", 3},
		{"1|2&2", 3},
		{"1<<4|1", 17},
		{"~0&$FF", 255},
		{"-3+5", 2},
		{"10%4", 2},
		{"6^3", 5},
	}
	for _, tc := range tests {
		stmts, _ := parseOK(t, "db "+tc.src+"\n")
		x := stmts[0].Items[0].Expr
		v, unresolved, err := x.Eval(func(string) (int64, bool) { return 0, false }, 0)
		if err != nil || len(unresolved) != 0 {
			t.Errorf("%q: eval failed: %v %v", tc.src, err, unresolved)
			continue
		}
		if v != tc.want {
			t.Errorf("%q: expected %d, got %d", tc.src, tc.want, v)
		}
	}
}

func TestParseDivisionByZero(t *testing.T) {
	stmts, _ := parseOK(t, "db 1/0\n")
	_, _, err := stmts[0].Items[0].Expr.Eval(func(string) (int64, bool) { return 0, false }, 0)
	if err == nil {
		t.Error("division by zero should error at evaluation")
	}
}

func TestParseRecovery(t *testing.T) {
	stmts, _, diags := parse(t, "ld a,$$\nnop\n")
	if !diags.Has(LexError) && !diags.Has(SyntaxError) {
		t.Fatal("expected a diagnostic for the malformed operand")
	}
	// The parser resumes with the next line.
	found := false
	for _, s := range stmts {
		if s.Kind == StmtInstruction && s.Mnemonic == "nop" {
			found = true
		}
	}
	if !found {
		t.Error("nop after the bad line was lost")
	}
}

func TestParseConditionNames(t *testing.T) {
	stmts, _ := parseOK(t, "ret nz\nret z\nret nc\nret c\n")
	if stmts[0].Operands[0].Kind != OpCond || stmts[0].Operands[0].Cond != cpu.CondNZ {
		t.Error("nz should be a condition")
	}
	// Plain C parses as the register; the encoder maps it to the carry
	// condition.
	if stmts[3].Operands[0].Kind != OpReg || stmts[3].Operands[0].Reg != cpu.RegC {
		t.Error("c should parse as the register")
	}
}
