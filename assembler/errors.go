package assembler

import (
	"fmt"
	"strings"
)

// ErrorKind classifies a diagnostic.
type ErrorKind int

const (
	LexError ErrorKind = iota
	SyntaxError
	CircularSymbolError
	RangeError
	InvalidOperandError
	BankOverflowError
	OverlapError
	UndefinedSymbolError
	DuplicateSymbolError
	IncludeError
)

var errorKindNames = map[ErrorKind]string{
	LexError:             "LexError",
	SyntaxError:          "SyntaxError",
	CircularSymbolError:  "CircularSymbolError",
	RangeError:           "RangeError",
	InvalidOperandError:  "InvalidOperandError",
	BankOverflowError:    "BankOverflowError",
	OverlapError:         "OverlapError",
	UndefinedSymbolError: "UndefinedSymbolError",
	DuplicateSymbolError: "DuplicateSymbolError",
	IncludeError:         "IncludeError",
}

func (k ErrorKind) String() string {
	if s, ok := errorKindNames[k]; ok {
		return s
	}
	return "Error"
}

// Position is a location in a source file.
type Position struct {
	File string
	Line int
	Col  int
}

func (p Position) String() string {
	if p.File == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Col)
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Col)
}

// Diagnostic is one structured error record.
type Diagnostic struct {
	Kind ErrorKind
	Pos  Position
	Msg  string
}

func (d Diagnostic) Error() string {
	return fmt.Sprintf("%s: %s: %s", d.Pos, d.Kind, d.Msg)
}

// ErrorList collects diagnostics across all build stages. A build only
// fails once every stage that can still run has had its say.
type ErrorList struct {
	diags []Diagnostic
}

// Add records a diagnostic.
func (el *ErrorList) Add(kind ErrorKind, pos Position, format string, args ...any) {
	el.diags = append(el.diags, Diagnostic{Kind: kind, Pos: pos, Msg: fmt.Sprintf(format, args...)})
}

// Len returns the number of recorded diagnostics.
func (el *ErrorList) Len() int {
	return len(el.diags)
}

// Diagnostics returns the recorded diagnostics in order.
func (el *ErrorList) Diagnostics() []Diagnostic {
	return el.diags
}

// Has reports whether any diagnostic of the given kind was recorded.
func (el *ErrorList) Has(kind ErrorKind) bool {
	for _, d := range el.diags {
		if d.Kind == kind {
			return true
		}
	}
	return false
}

// Err returns the list as an error, or nil if it is empty.
func (el *ErrorList) Err() error {
	if len(el.diags) == 0 {
		return nil
	}
	return el
}

func (el *ErrorList) Error() string {
	var sb strings.Builder
	for i, d := range el.diags {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(d.Error())
	}
	return sb.String()
}
