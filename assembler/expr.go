package assembler

import (
	"fmt"
)

// ExprKind tags an expression node.
type ExprKind int

const (
	// ExprNum is a numeric literal.
	ExprNum ExprKind = iota
	// ExprSym is a symbol reference.
	ExprSym
	// ExprHere is the current address marker '@'.
	ExprHere
	// ExprUnary is a unary operation.
	ExprUnary
	// ExprBinary is a binary operation.
	ExprBinary
)

// Expr is a constant expression tree built by the parser and evaluated by
// the resolver, encoder and linker.
type Expr struct {
	Kind ExprKind
	Num  int64
	Sym  string
	Op   TokenKind
	L, R *Expr
	Pos  Position
}

// Symbols appends every symbol name referenced by the expression to dst.
func (e *Expr) Symbols(dst []string) []string {
	switch e.Kind {
	case ExprSym:
		dst = append(dst, e.Sym)
	case ExprUnary:
		dst = e.L.Symbols(dst)
	case ExprBinary:
		dst = e.L.Symbols(dst)
		dst = e.R.Symbols(dst)
	}
	return dst
}

// usesHere reports whether the expression references the location
// counter.
func (e *Expr) usesHere() bool {
	switch e.Kind {
	case ExprHere:
		return true
	case ExprUnary:
		return e.L.usesHere()
	case ExprBinary:
		return e.L.usesHere() || e.R.usesHere()
	}
	return false
}

// Eval evaluates the expression. lookup resolves symbol names; here is
// the value of '@'. Unresolved symbol names are returned rather than
// treated as hard errors, so the caller can defer to a later stage.
func (e *Expr) Eval(lookup func(string) (int64, bool), here int64) (val int64, unresolved []string, err error) {
	switch e.Kind {
	case ExprNum:
		return e.Num, nil, nil

	case ExprHere:
		return here, nil, nil

	case ExprSym:
		if v, ok := lookup(e.Sym); ok {
			return v, nil, nil
		}
		return 0, []string{e.Sym}, nil

	case ExprUnary:
		v, un, err := e.L.Eval(lookup, here)
		if err != nil || len(un) > 0 {
			return 0, un, err
		}
		switch e.Op {
		case TokMinus:
			return -v, nil, nil
		case TokTilde:
			return ^v, nil, nil
		case TokPlus:
			return v, nil, nil
		}
		return 0, nil, fmt.Errorf("bad unary operator %s", e.Op)

	case ExprBinary:
		lv, lun, err := e.L.Eval(lookup, here)
		if err != nil {
			return 0, nil, err
		}
		rv, run, err := e.R.Eval(lookup, here)
		if err != nil {
			return 0, nil, err
		}
		if un := append(lun, run...); len(un) > 0 {
			return 0, un, nil
		}
		switch e.Op {
		case TokPlus:
			return lv + rv, nil, nil
		case TokMinus:
			return lv - rv, nil, nil
		case TokStar:
			return lv * rv, nil, nil
		case TokSlash:
			if rv == 0 {
				return 0, nil, fmt.Errorf("division by zero")
			}
			return lv / rv, nil, nil
		case TokPercent:
			if rv == 0 {
				return 0, nil, fmt.Errorf("division by zero")
			}
			return lv % rv, nil, nil
		case TokAmp:
			return lv & rv, nil, nil
		case TokPipe:
			return lv | rv, nil, nil
		case TokCaret:
			return lv ^ rv, nil, nil
		case TokShl:
			return lv << uint(rv&63), nil, nil
		case TokShr:
			return lv >> uint(rv&63), nil, nil
		}
		return 0, nil, fmt.Errorf("bad binary operator %s", e.Op)
	}
	return 0, nil, fmt.Errorf("bad expression")
}

func numExpr(v int64, pos Position) *Expr {
	return &Expr{Kind: ExprNum, Num: v, Pos: pos}
}
