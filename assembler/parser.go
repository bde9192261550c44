package assembler

import (
	"strconv"
	"strings"

	"github.com/Urethramancer/gbasm/cpu"
)

// registerNames maps operand spellings to registers.
var registerNames = map[string]cpu.Reg{
	"A":  cpu.RegA,
	"B":  cpu.RegB,
	"C":  cpu.RegC,
	"D":  cpu.RegD,
	"E":  cpu.RegE,
	"H":  cpu.RegH,
	"L":  cpu.RegL,
	"AF": cpu.RegAF,
	"BC": cpu.RegBC,
	"DE": cpu.RegDE,
	"HL": cpu.RegHL,
	"SP": cpu.RegSP,
}

// conditionNames maps condition spellings. "C" is absent: it parses as
// the register and the encoder reinterprets it where a condition is
// expected.
var conditionNames = map[string]cpu.Cond{
	"NZ": cpu.CondNZ,
	"Z":  cpu.CondZ,
	"NC": cpu.CondNC,
}

// Parser consumes a token stream and produces the ordered statement list
// for one file. Constants defined by EQU/SET and labels are installed in
// the file's symbol table as they are seen.
type Parser struct {
	toks     []Token
	i        int
	file     string
	symbols  *SymTab
	diags    *ErrorList
	stmts    []*Statement
	includes []string
}

// NewParser creates a parser over a token stream.
func NewParser(file string, toks []Token, symbols *SymTab, diags *ErrorList) *Parser {
	return &Parser{toks: toks, file: file, symbols: symbols, diags: diags}
}

// Parse consumes all tokens. It returns the statement list and the
// INCLUDE targets in the order they were encountered.
func (p *Parser) Parse() ([]*Statement, []string) {
	for p.cur().Kind != TokEOF {
		if p.cur().Kind == TokNewline {
			p.next()
			continue
		}
		p.parseLine()
	}
	return p.stmts, p.includes
}

func (p *Parser) cur() Token {
	return p.toks[p.i]
}

func (p *Parser) peek() Token {
	if p.i+1 < len(p.toks) {
		return p.toks[p.i+1]
	}
	return p.toks[len(p.toks)-1]
}

func (p *Parser) next() Token {
	t := p.toks[p.i]
	if p.i < len(p.toks)-1 {
		p.i++
	}
	return t
}

// errExpected records a syntax error naming the expected token class and
// resynchronizes at the next statement boundary.
func (p *Parser) errExpected(what string) {
	t := p.cur()
	got := t.Kind.String()
	if t.Kind == TokIdent {
		got = strconv.Quote(t.Lexeme)
	}
	p.diags.Add(SyntaxError, t.Pos, "expected %s, got %s", what, got)
	p.sync()
}

// sync skips to the next newline.
func (p *Parser) sync() {
	for p.cur().Kind != TokNewline && p.cur().Kind != TokEOF {
		p.next()
	}
}

// endOfStatement consumes the statement terminator.
func (p *Parser) endOfStatement() {
	switch p.cur().Kind {
	case TokNewline:
		p.next()
	case TokEOF:
	default:
		p.errExpected("end of line")
	}
}

func (p *Parser) parseLine() {
	t := p.cur()
	if t.Kind != TokIdent {
		p.errExpected("label, mnemonic or directive")
		return
	}

	// Label definition, possibly followed by more on the same line.
	// "name: EQU expr" defines a constant, not an address label.
	if k := p.peek().Kind; k == TokColon || k == TokDoubleColon {
		name := p.next()
		exported := p.next().Kind == TokDoubleColon
		if d, ok := directiveKind(p.cur()); ok && (d == DirEQU || d == DirSET) {
			p.parseConstDef(name, exported, d)
			return
		}
		p.defineLabel(name, exported)
		if p.cur().Kind == TokNewline || p.cur().Kind == TokEOF {
			p.endOfStatement()
			return
		}
		t = p.cur()
		if t.Kind != TokIdent {
			p.errExpected("mnemonic or directive")
			return
		}
	}

	// "name EQU expr" without a colon.
	if d, ok := directiveKind(p.peek()); ok && (d == DirEQU || d == DirSET) {
		name := p.next()
		p.parseConstDef(name, false, d)
		return
	}

	if d, ok := directiveKind(t); ok {
		// Bare SET is the CB-prefixed bit instruction; the constant
		// directive form always carries a leading symbol name.
		if d != DirSET {
			p.parseDirective(d)
			return
		}
	}
	p.parseInstruction()
}

func directiveKind(t Token) (DirectiveKind, bool) {
	if t.Kind != TokIdent {
		return 0, false
	}
	switch strings.ToUpper(t.Lexeme) {
	case "EQU":
		return DirEQU, true
	case "SET":
		return DirSET, true
	case "DB":
		return DirDB, true
	case "DW":
		return DirDW, true
	case "RESB":
		return DirRESB, true
	case "SECTION", "BANK":
		return DirSECTION, true
	case "INCLUDE":
		return DirINCLUDE, true
	}
	return 0, false
}

func (p *Parser) defineLabel(name Token, exported bool) {
	stmt := &Statement{
		Kind:     StmtLabel,
		Pos:      name.Pos,
		Name:     name.Lexeme,
		Exported: exported,
	}
	p.stmts = append(p.stmts, stmt)
	p.symbols.Define(&Symbol{
		Name:     name.Lexeme,
		Kind:     SymLabel,
		Exported: exported,
		Pos:      name.Pos,
	}, p.diags)
}

// parseConstDef handles EQU and SET. The defining statement is kept for
// ordering; the symbol itself is installed immediately so constants are
// in scope for the rest of the pass.
func (p *Parser) parseConstDef(name Token, exported bool, d DirectiveKind) {
	p.next() // EQU/SET keyword
	expr, ok := p.parseExpr()
	if !ok {
		return
	}
	stmt := &Statement{
		Kind:      StmtDirective,
		Directive: d,
		Pos:       name.Pos,
		Name:      name.Lexeme,
		Exported:  exported,
		Expr:      expr,
	}
	p.stmts = append(p.stmts, stmt)
	p.symbols.Define(&Symbol{
		Name:     name.Lexeme,
		Kind:     SymConst,
		Expr:     expr,
		Exported: exported,
		Mutable:  d == DirSET,
		Pos:      name.Pos,
	}, p.diags)
	p.endOfStatement()
}

func (p *Parser) parseDirective(d DirectiveKind) {
	t := p.next()
	stmt := &Statement{Kind: StmtDirective, Directive: d, Pos: t.Pos}

	switch d {
	case DirEQU:
		// Value without a name to bind it to.
		p.diags.Add(SyntaxError, t.Pos, "%s requires a symbol name", d)
		p.sync()
		return

	case DirDB, DirDW:
		for {
			it, ok := p.parseDataItem(d)
			if !ok {
				return
			}
			stmt.Items = append(stmt.Items, it)
			if p.cur().Kind != TokComma {
				break
			}
			p.next()
		}

	case DirRESB:
		expr, ok := p.parseExpr()
		if !ok {
			return
		}
		stmt.Expr = expr

	case DirSECTION:
		bank, ok := p.parseBank(t)
		if !ok {
			return
		}
		stmt.Bank = bank
		if p.cur().Kind == TokComma {
			p.next()
			base, ok := p.parseExpr()
			if !ok {
				return
			}
			stmt.Expr = base
			stmt.HasBase = true
		}

	case DirINCLUDE:
		if p.cur().Kind != TokString {
			p.errExpected("file name string")
			return
		}
		stmt.Include = p.next().Lexeme
		p.includes = append(p.includes, stmt.Include)
	}

	p.stmts = append(p.stmts, stmt)
	p.endOfStatement()
}

// parseBank accepts "SECTION BANKn" and "BANK n".
func (p *Parser) parseBank(keyword Token) (int, bool) {
	if strings.EqualFold(keyword.Lexeme, "BANK") {
		if p.cur().Kind != TokNumber {
			p.errExpected("bank number")
			return 0, false
		}
		return int(p.next().Value), true
	}
	t := p.cur()
	if t.Kind != TokIdent || !strings.HasPrefix(strings.ToUpper(t.Lexeme), "BANK") {
		p.errExpected("bank name")
		return 0, false
	}
	n, err := strconv.Atoi(t.Lexeme[4:])
	if err != nil || n < 0 {
		p.errExpected("bank name")
		return 0, false
	}
	p.next()
	return n, true
}

func (p *Parser) parseDataItem(d DirectiveKind) (DataItem, bool) {
	t := p.cur()
	if t.Kind == TokString {
		if d == DirDW {
			p.errExpected("expression")
			return DataItem{}, false
		}
		p.next()
		return DataItem{Str: t.Lexeme, IsStr: true, Pos: t.Pos}, true
	}
	expr, ok := p.parseExpr()
	if !ok {
		return DataItem{}, false
	}
	return DataItem{Expr: expr, Pos: t.Pos}, true
}

func (p *Parser) parseInstruction() {
	t := p.next()
	stmt := &Statement{
		Kind:     StmtInstruction,
		Pos:      t.Pos,
		Mnemonic: strings.ToLower(t.Lexeme),
	}

	if p.cur().Kind != TokNewline && p.cur().Kind != TokEOF {
		for {
			op, ok := p.parseOperand()
			if !ok {
				return
			}
			stmt.Operands = append(stmt.Operands, op)
			if p.cur().Kind != TokComma {
				break
			}
			p.next()
		}
	}

	p.stmts = append(p.stmts, stmt)
	p.endOfStatement()
}

// parseOperand records the syntactic operand form. Symbol values are not
// needed yet; the form alone drives encoder dispatch.
func (p *Parser) parseOperand() (Operand, bool) {
	t := p.cur()

	if t.Kind == TokLParen {
		return p.parseIndirect()
	}

	if t.Kind == TokIdent {
		upper := strings.ToUpper(t.Lexeme)
		if c, ok := conditionNames[upper]; ok {
			p.next()
			return Operand{Kind: OpCond, Cond: c, Pos: t.Pos}, true
		}
		if r, ok := registerNames[upper]; ok {
			p.next()
			// LD HL,SP+e8 and ADD SP,e8 style displacement.
			if r == cpu.RegSP && (p.cur().Kind == TokPlus || p.cur().Kind == TokMinus) {
				neg := p.next().Kind == TokMinus
				expr, ok := p.parseExpr()
				if !ok {
					return Operand{}, false
				}
				if neg {
					expr = &Expr{Kind: ExprUnary, Op: TokMinus, L: expr, Pos: t.Pos}
				}
				return Operand{Kind: OpSPRel, Reg: r, Expr: expr, Pos: t.Pos}, true
			}
			return Operand{Kind: OpReg, Reg: r, Pos: t.Pos}, true
		}
	}

	expr, ok := p.parseExpr()
	if !ok {
		return Operand{}, false
	}
	return Operand{Kind: OpImm, Expr: expr, Pos: t.Pos}, true
}

// parseIndirect handles (BC), (DE), (HL), (HL+), (HL-), (C) and (expr).
func (p *Parser) parseIndirect() (Operand, bool) {
	open := p.next()

	if t := p.cur(); t.Kind == TokIdent {
		if r, ok := registerNames[strings.ToUpper(t.Lexeme)]; ok {
			switch p.peek().Kind {
			case TokRParen:
				p.next()
				p.next()
				return Operand{Kind: OpInd, Reg: r, Pos: open.Pos}, true
			case TokPlus, TokMinus:
				if r == cpu.RegHL {
					p.next()
					kind := OpIndInc
					if p.next().Kind == TokMinus {
						kind = OpIndDec
					}
					if p.cur().Kind != TokRParen {
						p.errExpected("')'")
						return Operand{}, false
					}
					p.next()
					return Operand{Kind: kind, Reg: r, Pos: open.Pos}, true
				}
			}
		}
	}

	expr, ok := p.parseExpr()
	if !ok {
		return Operand{}, false
	}
	if p.cur().Kind != TokRParen {
		p.errExpected("')'")
		return Operand{}, false
	}
	p.next()
	return Operand{Kind: OpInd, Expr: expr, Pos: open.Pos}, true
}

// Expression parsing, lowest precedence first.

func (p *Parser) parseExpr() (*Expr, bool) {
	return p.parseBinary(0)
}

// binaryLevels orders operators from loosest to tightest binding.
var binaryLevels = [][]TokenKind{
	{TokPipe},
	{TokCaret},
	{TokAmp},
	{TokShl, TokShr},
	{TokPlus, TokMinus},
	{TokStar, TokSlash, TokPercent},
}

func (p *Parser) parseBinary(level int) (*Expr, bool) {
	if level >= len(binaryLevels) {
		return p.parseUnary()
	}
	left, ok := p.parseBinary(level + 1)
	if !ok {
		return nil, false
	}
	for {
		matched := false
		for _, op := range binaryLevels[level] {
			if p.cur().Kind == op {
				t := p.next()
				right, ok := p.parseBinary(level + 1)
				if !ok {
					return nil, false
				}
				left = &Expr{Kind: ExprBinary, Op: op, L: left, R: right, Pos: t.Pos}
				matched = true
				break
			}
		}
		if !matched {
			return left, true
		}
	}
}

func (p *Parser) parseUnary() (*Expr, bool) {
	t := p.cur()
	switch t.Kind {
	case TokMinus, TokTilde, TokPlus:
		p.next()
		e, ok := p.parseUnary()
		if !ok {
			return nil, false
		}
		return &Expr{Kind: ExprUnary, Op: t.Kind, L: e, Pos: t.Pos}, true
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (*Expr, bool) {
	t := p.cur()
	switch t.Kind {
	case TokNumber:
		p.next()
		return numExpr(t.Value, t.Pos), true
	case TokIdent:
		p.next()
		return &Expr{Kind: ExprSym, Sym: t.Lexeme, Pos: t.Pos}, true
	case TokAt:
		p.next()
		return &Expr{Kind: ExprHere, Pos: t.Pos}, true
	case TokLParen:
		p.next()
		e, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		if p.cur().Kind != TokRParen {
			p.errExpected("')'")
			return nil, false
		}
		p.next()
		return e, true
	}
	p.errExpected("expression")
	return nil, false
}
