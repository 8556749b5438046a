package parse

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

type lexer struct {
	src    []byte
	i      int
	line   int
	inCode bool
	tokens []Token
}

func tokenize(src []byte) ([]Token, error) {
	l := &lexer{src: src, line: 1}

	for {
		if !l.inCode {
			l.skipInlineHTML()
			if l.i >= len(l.src) {
				break
			}
			continue
		}

		if err := l.skipSpaceAndComments(); err != nil {
			return nil, err
		}
		if l.i >= len(l.src) {
			break
		}

		if err := l.next(); err != nil {
			return nil, err
		}
	}

	l.tokens = append(l.tokens, Token{Type: EOF, Line: l.line, Start: int32(l.i), End: int32(l.i)})
	return l.tokens, nil
}

func (l *lexer) errorf(format string, args ...any) error {
	return newParsingError(l.line, int32(l.i), format, args...)
}

func (l *lexer) emit(typ TokenType, value string, start int, startLine int) {
	l.tokens = append(l.tokens, Token{
		Type:  typ,
		Value: value,
		Line:  startLine,
		Start: int32(start),
		End:   int32(l.i),
	})
}

func (l *lexer) peekByte(offset int) byte {
	if l.i+offset < len(l.src) {
		return l.src[l.i+offset]
	}
	return 0
}

func (l *lexer) hasPrefix(s string) bool {
	return strings.HasPrefix(string(l.src[l.i:min(len(l.src), l.i+len(s))]), s)
}

func (l *lexer) hasPrefixFold(s string) bool {
	end := l.i + len(s)
	if end > len(l.src) {
		return false
	}
	return strings.EqualFold(string(l.src[l.i:end]), s)
}

func (l *lexer) skipInlineHTML() {
	for l.i < len(l.src) {
		if l.hasPrefixFold("<?php") {
			l.i += 5
			l.inCode = true
			return
		}
		if l.hasPrefix("<?=") {
			start := l.i
			l.i += 3
			l.inCode = true
			l.emit(IDENT, "echo", start, l.line)
			return
		}
		if l.src[l.i] == '\n' {
			l.line++
		}
		l.i++
	}
}

func (l *lexer) skipSpaceAndComments() error {
	for l.i < len(l.src) {
		c := l.src[l.i]
		switch {
		case c == '\n':
			l.line++
			l.i++
		case c == ' ' || c == '\t' || c == '\r' || c == '\f' || c == '\v':
			l.i++
		case c == '#' && l.peekByte(1) == '[':
			if err := l.skipAttribute(); err != nil {
				return err
			}
		case c == '#' || (c == '/' && l.peekByte(1) == '/'):
			for l.i < len(l.src) && l.src[l.i] != '\n' && !l.hasPrefix("?>") {
				l.i++
			}
		case c == '/' && l.peekByte(1) == '*':
			end := strings.Index(string(l.src[l.i+2:]), "*/")
			if end < 0 {
				return l.errorf("unterminated comment")
			}
			comment := l.src[l.i : l.i+2+end+2]
			l.line += strings.Count(string(comment), "\n")
			l.i += len(comment)
		default:
			return nil
		}
	}
	return nil
}

// skipAttribute skips an attribute group: #[...], attributes carry no type information.
func (l *lexer) skipAttribute() error {
	depth := 0
	for l.i < len(l.src) {
		switch l.src[l.i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				l.i++
				return nil
			}
		case '\n':
			l.line++
		case '\'', '"':
			if _, _, err := l.readQuoted(l.src[l.i]); err != nil {
				return err
			}
			continue
		}
		l.i++
	}
	return l.errorf("unterminated attribute")
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func (l *lexer) next() error {
	start := l.i
	line := l.line
	c := l.src[l.i]

	switch {
	case l.hasPrefix("?>"):
		l.i += 2
		if l.peekByte(0) == '\n' {
			l.i++
			l.line++
		}
		l.inCode = false
		l.emit(PUNCT, ";", start, line)
		return nil
	case c == '$' && isIdentStart(l.peekByte(1)):
		l.i++
		for l.i < len(l.src) && isIdentChar(l.src[l.i]) {
			l.i++
		}
		l.emit(VARIABLE, string(l.src[start+1:l.i]), start, line)
		return nil
	case isIdentStart(c) || (c == '\\' && isIdentStart(l.peekByte(1))):
		l.readName()
		l.emit(IDENT, string(l.src[start:l.i]), start, line)
		return nil
	case isDigit(c) || (c == '.' && isDigit(l.peekByte(1))):
		return l.readNumber()
	case c == '\'' || c == '"' || c == '`':
		value, interpolated, err := l.readQuoted(c)
		if err != nil {
			return err
		}
		l.emit(STRING, value, start, line)
		l.tokens[len(l.tokens)-1].Interpolated = interpolated
		return nil
	case l.hasPrefix("<<<"):
		return l.readHeredoc()
	case c == '(':
		if typ, length, ok := l.castAhead(); ok {
			l.i += length
			l.emit(CAST, typ, start, line)
			return nil
		}
	}

	for _, punct := range punctuations {
		if l.hasPrefix(punct) {
			l.i += len(punct)
			l.emit(PUNCT, punct, start, line)
			return nil
		}
	}

	r, _ := utf8.DecodeRune(l.src[l.i:])
	return l.errorf("unexpected character %q", r)
}

func (l *lexer) readName() {
	for l.i < len(l.src) {
		c := l.src[l.i]
		if isIdentChar(c) || (c == '\\' && isIdentStart(l.peekByte(1))) {
			l.i++
			continue
		}
		break
	}
}

// castAhead detects a cast such as (int) or ( string ) at the current position.
func (l *lexer) castAhead() (typ string, length int, ok bool) {
	j := l.i + 1
	for j < len(l.src) && (l.src[j] == ' ' || l.src[j] == '\t') {
		j++
	}
	nameStart := j
	for j < len(l.src) && isIdentChar(l.src[j]) {
		j++
	}
	name := strings.ToLower(string(l.src[nameStart:j]))
	for j < len(l.src) && (l.src[j] == ' ' || l.src[j] == '\t') {
		j++
	}
	if j >= len(l.src) || l.src[j] != ')' {
		return "", 0, false
	}
	typ, ok = castTypes[name]
	if !ok {
		return "", 0, false
	}
	return typ, j + 1 - l.i, true
}

func (l *lexer) readNumber() error {
	start := l.i
	line := l.line
	isFloat := false

	if l.src[l.i] == '0' && (l.peekByte(1) == 'x' || l.peekByte(1) == 'X' || l.peekByte(1) == 'b' || l.peekByte(1) == 'B' || l.peekByte(1) == 'o' || l.peekByte(1) == 'O') {
		l.i += 2
		for l.i < len(l.src) && isIdentChar(l.src[l.i]) {
			l.i++
		}
		l.emit(INT, strings.ReplaceAll(string(l.src[start:l.i]), "_", ""), start, line)
		return nil
	}

	for l.i < len(l.src) && (isDigit(l.src[l.i]) || l.src[l.i] == '_') {
		l.i++
	}
	if l.peekByte(0) == '.' && isDigit(l.peekByte(1)) {
		isFloat = true
		l.i++
		for l.i < len(l.src) && (isDigit(l.src[l.i]) || l.src[l.i] == '_') {
			l.i++
		}
	}
	if c := l.peekByte(0); c == 'e' || c == 'E' {
		next := l.peekByte(1)
		if isDigit(next) || ((next == '+' || next == '-') && isDigit(l.peekByte(2))) {
			isFloat = true
			l.i += 2
			for l.i < len(l.src) && isDigit(l.src[l.i]) {
				l.i++
			}
		}
	}

	raw := strings.ReplaceAll(string(l.src[start:l.i]), "_", "")
	if isFloat {
		l.emit(FLOAT, raw, start, line)
	} else {
		l.emit(INT, raw, start, line)
	}
	return nil
}

// readQuoted reads a quoted string starting at the current position and returns its decoded value.
func (l *lexer) readQuoted(quote byte) (value string, interpolated bool, err error) {
	l.i++
	var buf strings.Builder

	for l.i < len(l.src) {
		c := l.src[l.i]
		switch {
		case c == quote:
			l.i++
			return buf.String(), interpolated, nil
		case c == '\n':
			l.line++
			buf.WriteByte(c)
			l.i++
		case c == '\\' && l.i+1 < len(l.src):
			next := l.src[l.i+1]
			if quote == '\'' {
				if next == '\'' || next == '\\' {
					buf.WriteByte(next)
				} else {
					buf.WriteByte('\\')
					buf.WriteByte(next)
				}
				l.i += 2
				continue
			}
			l.i += 2
			buf.WriteString(decodeEscape(next))
		case c == '$' && quote != '\'' && (isIdentStart(l.peekByte(1)) || l.peekByte(1) == '{'):
			interpolated = true
			buf.WriteByte(c)
			l.i++
		case c == '{' && quote != '\'' && l.peekByte(1) == '$':
			interpolated = true
			buf.WriteByte(c)
			l.i++
		default:
			buf.WriteByte(c)
			l.i++
		}
	}
	return "", false, l.errorf("unterminated string")
}

func decodeEscape(c byte) string {
	switch c {
	case 'n':
		return "\n"
	case 't':
		return "\t"
	case 'r':
		return "\r"
	case 'v':
		return "\v"
	case 'f':
		return "\f"
	case 'e':
		return "\x1b"
	case '0':
		return "\x00"
	case '\\', '$', '"', '`':
		return string(c)
	}
	return "\\" + string(c)
}

func (l *lexer) readHeredoc() error {
	start := l.i
	line := l.line
	l.i += 3
	for l.peekByte(0) == ' ' || l.peekByte(0) == '\t' {
		l.i++
	}

	nowdoc := false
	quote := l.peekByte(0)
	if quote == '\'' || quote == '"' {
		nowdoc = quote == '\''
		l.i++
	}

	labelStart := l.i
	for l.i < len(l.src) && isIdentChar(l.src[l.i]) {
		l.i++
	}
	label := string(l.src[labelStart:l.i])
	if label == "" {
		return l.errorf("invalid heredoc label")
	}
	if quote == '\'' || quote == '"' {
		l.i++
	}

	newline := strings.IndexByte(string(l.src[l.i:]), '\n')
	if newline < 0 {
		return l.errorf("unterminated heredoc")
	}
	l.i += newline + 1
	l.line++

	var lines []string
	for l.i < len(l.src) {
		end := strings.IndexByte(string(l.src[l.i:]), '\n')
		var content string
		if end < 0 {
			content = string(l.src[l.i:])
		} else {
			content = string(l.src[l.i : l.i+end])
		}

		trimmed := strings.TrimLeft(content, " \t")
		if strings.HasPrefix(trimmed, label) && (len(trimmed) == len(label) || !isIdentChar(trimmed[len(label)])) {
			l.i += len(content) - len(trimmed) + len(label)
			value := strings.Join(lines, "\n")
			l.emit(STRING, value, start, line)
			l.tokens[len(l.tokens)-1].Interpolated = !nowdoc && strings.Contains(value, "$")
			return nil
		}

		lines = append(lines, content)
		if end < 0 {
			break
		}
		l.i += end + 1
		l.line++
	}

	return l.errorf("unterminated heredoc %s", strconv.Quote(label))
}
