package parse

import (
	"fmt"
	"strings"
)

type TokenType uint8

const (
	EOF TokenType = iota
	VARIABLE
	IDENT
	INT
	FLOAT
	STRING
	CAST
	PUNCT
	INLINE_HTML
)

var tokenTypeNames = [...]string{
	EOF:         "end of file",
	VARIABLE:    "variable",
	IDENT:       "identifier",
	INT:         "integer",
	FLOAT:       "float",
	STRING:      "string",
	CAST:        "cast",
	PUNCT:       "punctuation",
	INLINE_HTML: "inline html",
}

func (t TokenType) String() string {
	if int(t) < len(tokenTypeNames) {
		return tokenTypeNames[t]
	}
	return "?"
}

type Token struct {
	Type  TokenType
	Value string
	Line  int
	Start int32
	End   int32

	//only set for STRING tokens.
	Interpolated bool
}

func (t Token) String() string {
	switch t.Type {
	case EOF:
		return "end of file"
	case VARIABLE:
		return "$" + t.Value
	case STRING:
		return fmt.Sprintf("%q", t.Value)
	case CAST:
		return "(" + t.Value + ")"
	}
	return t.Value
}

// is reports whether the token is the punctuation or the (case-insensitive) keyword s.
func (t Token) is(s string) bool {
	switch t.Type {
	case PUNCT:
		return t.Value == s
	case IDENT:
		return strings.EqualFold(t.Value, s)
	}
	return false
}

// Punctuations sorted by decreasing length, the lexer picks the longest match.
var punctuations = []string{
	"<<=", ">>=", "**=", "...", "<=>", "===", "!==", "??=", "?->",
	"++", "--", "->", "=>", "::", "==", "!=", "<>", "<=", ">=", "&&", "||", "??",
	"+=", "-=", "*=", "/=", ".=", "%=", "&=", "|=", "^=", "<<", ">>", "**",
	"+", "-", "*", "/", "%", "=", "<", ">", "!", ".", "(", ")", "[", "]", "{", "}",
	",", ";", "?", ":", "&", "|", "^", "~", "@", "\\",
}

var castTypes = map[string]string{
	"int":     "int",
	"integer": "int",
	"float":   "float",
	"double":  "float",
	"real":    "float",
	"string":  "string",
	"binary":  "string",
	"bool":    "bool",
	"boolean": "bool",
	"array":   "array",
	"object":  "object",
	"unset":   "null",
}

var magicConstants = map[string]bool{
	"__LINE__":      true,
	"__FILE__":      true,
	"__DIR__":       true,
	"__CLASS__":     true,
	"__FUNCTION__":  true,
	"__METHOD__":    true,
	"__NAMESPACE__": true,
	"__TRAIT__":     true,
}
