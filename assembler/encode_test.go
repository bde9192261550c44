package assembler

import (
	"testing"
)

// sizingSources covers every instruction family with both literal and
// symbolic operands. Pass 1 must size each of these identically to the
// bytes pass 2 emits, or labels drift.
var sizingSources = []string{
	"nop",
	"stop",
	"halt",
	"ld a,b",
	"ld a,(hl)",
	"ld (hl),$12",
	"ld a,n8",
	"ld a,($1234)",
	"ld a,(sym)",
	"ld bc,sym",
	"ld hl,sp+2",
	"ld ($C000),sp",
	"ldh a,($80)",
	"ldh (port),a",
	"ldi a,(hl)",
	"push af",
	"pop bc",
	"add a,b",
	"add a,n8",
	"add hl,de",
	"add sp,-2",
	"sub $10",
	"cp n8",
	"inc a",
	"dec (hl)",
	"inc sp",
	"jp sym",
	"jp nz,sym",
	"jp (hl)",
	"jr sym",
	"jr c,sym",
	"call sym",
	"call z,sym",
	"ret",
	"ret nc",
	"reti",
	"rst $08",
	"rlc b",
	"swap a",
	"srl (hl)",
	"bit 7,h",
	"res 0,a",
	"set 3,(hl)",
	"db 1,2,3",
	`db "ABC"`,
	"dw sym,$1234",
	"resb 16",
}

// TestSizesMatchEncoding verifies that the length assigned before symbol
// values are known equals the length of the final encoding.
func TestSizesMatchEncoding(t *testing.T) {
	for _, src := range sizingSources {
		full := "sym EQU $0160\nn8 EQU $12\nport EQU $FF85\nSECTION BANK0\n" + src + "\n"
		diags := &ErrorList{}
		symbols := NewSymTab("size.asm")
		toks := NewLexer("size.asm", full, diags).Tokens()
		stmts, _ := NewParser("size.asm", toks, symbols, diags).Parse()
		if diags.Len() != 0 {
			t.Errorf("%q: parse failed:\n%s", src, diags.Error())
			continue
		}

		u := &Unit{File: "size.asm", Statements: stmts, Symbols: symbols}
		u.pass1(diags)
		symbols.Resolve(diags)
		u.pass2(diags)
		if diags.Len() != 0 {
			t.Errorf("%q: assembly failed:\n%s", src, diags.Error())
			continue
		}

		var sized, emitted uint32
		for _, stmt := range stmts {
			sized += uint32(stmt.Size)
		}
		for _, sec := range u.Sections {
			emitted += uint32(len(sec.Data))
		}
		if sized != emitted {
			t.Errorf("%q: pass 1 sized %d bytes, pass 2 emitted %d", src, sized, emitted)
		}
	}
}

// TestSizingEmitsNoDiagnostics checks that sizing a statement with
// unresolvable symbols stays silent; reporting happens in pass 2 only.
func TestSizingEmitsNoDiagnostics(t *testing.T) {
	diags := &ErrorList{}
	symbols := NewSymTab("s.asm")
	toks := NewLexer("s.asm", "jp nowhere\n", diags).Tokens()
	stmts, _ := NewParser("s.asm", toks, symbols, diags).Parse()
	if diags.Len() != 0 {
		t.Fatalf("parse: %s", diags.Error())
	}
	if n := statementSize(stmts[0]); n != 3 {
		t.Errorf("jp size: expected 3, got %d", n)
	}
	if diags.Len() != 0 {
		t.Errorf("sizing recorded diagnostics: %s", diags.Error())
	}
}

func TestRelocationKinds(t *testing.T) {
	src := "SECTION BANK0\njp far\njr near\nld a,low\nldh a,(port)\nnear:\n"
	diags := &ErrorList{}
	symbols := NewSymTab("r.asm")
	toks := NewLexer("r.asm", src, diags).Tokens()
	stmts, _ := NewParser("r.asm", toks, symbols, diags).Parse()
	u := &Unit{File: "r.asm", Statements: stmts, Symbols: symbols}
	u.pass1(diags)
	symbols.Resolve(diags)
	u.pass2(diags)
	if diags.Len() != 0 {
		t.Fatalf("assembly failed:\n%s", diags.Error())
	}

	if len(u.Sections) != 1 {
		t.Fatalf("expected one section, got %d", len(u.Sections))
	}
	relocs := u.Sections[0].Relocs
	// near resolves locally; far, low and port become relocations.
	want := []struct {
		width  RelocWidth
		symbol string
	}{
		{RelocAbs16, "far"},
		{RelocImm8, "low"},
		{RelocHigh8, "port"},
	}
	if len(relocs) != len(want) {
		t.Fatalf("expected %d relocations, got %d", len(want), len(relocs))
	}
	for i, w := range want {
		if relocs[i].Width != w.width || relocs[i].Symbol != w.symbol {
			t.Errorf("relocation %d: got width %d symbol %q", i, relocs[i].Width, relocs[i].Symbol)
		}
	}
}
