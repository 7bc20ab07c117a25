package filter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vburojevic/mscope/internal/domain"
)

type tokKind int

const (
	tokEOF tokKind = iota
	tokWord
	tokValue // quoted string, regex literal or number-like word
	tokOp
	tokAnd
	tokOr
	tokNot
	tokLParen
	tokRParen
)

type token struct {
	kind tokKind
	text string
	pos  int
}

// symbols is scanned longest first so "!=" wins over "!".
var symbols = []struct {
	text string
	kind tokKind
}{
	{"&&", tokAnd}, {"||", tokOr},
	{"!=", tokOp}, {"!~", tokOp}, {">=", tokOp}, {"<=", tokOp},
	{"=", tokOp}, {"~", tokOp}, {"^", tokOp}, {"$", tokOp},
	{"!", tokNot}, {"(", tokLParen}, {")", tokRParen},
}

// scanner splits a where expression into tokens on demand.
type scanner struct {
	src string
	off int
}

func (s *scanner) scan() (token, error) {
	for s.off < len(s.src) && isSpace(s.src[s.off]) {
		s.off++
	}
	if s.off >= len(s.src) {
		return token{kind: tokEOF, pos: s.off}, nil
	}

	start := s.off
	rest := s.src[start:]
	for _, sym := range symbols {
		if strings.HasPrefix(rest, sym.text) {
			s.off += len(sym.text)
			return token{kind: sym.kind, text: sym.text, pos: start}, nil
		}
	}

	switch c := rest[0]; c {
	case '&', '|', '>', '<':
		return token{}, fmt.Errorf("unexpected character %q at %d (use &&, ||, >= or <=)", c, start)
	case '\'', '"':
		v, err := s.quoted()
		return token{kind: tokValue, text: v, pos: start}, err
	case '/':
		v, err := s.regex()
		return token{kind: tokValue, text: v, pos: start}, err
	}

	for s.off < len(s.src) && !isDelimiter(s.src[s.off]) {
		s.off++
	}
	word := s.src[start:s.off]
	// Dates and decimals stay one token: 2026-10-01, 18.5
	if c := word[0]; (c >= '0' && c <= '9') || c == '-' {
		return token{kind: tokValue, text: word, pos: start}, nil
	}
	return token{kind: tokWord, text: word, pos: start}, nil
}

func (s *scanner) quoted() (string, error) {
	start := s.off
	quote := s.src[start]
	for i := start + 1; i < len(s.src); i++ {
		switch s.src[i] {
		case '\\':
			i++
		case quote:
			s.off = i + 1
			v, err := strconv.Unquote(s.src[start:s.off])
			if err != nil {
				return "", fmt.Errorf("invalid quoted string at %d: %w", start, err)
			}
			return v, nil
		}
	}
	return "", fmt.Errorf("unterminated string starting at %d", start)
}

// regex reads /pattern/flags; a slash inside the pattern is written \/.
func (s *scanner) regex() (string, error) {
	start := s.off
	for i := start + 1; i < len(s.src); i++ {
		switch s.src[i] {
		case '\\':
			i++
		case '/':
			pattern := strings.ReplaceAll(s.src[start+1:i], `\/`, "/")
			j := i + 1
			for j < len(s.src) && isLetter(s.src[j]) {
				j++
			}
			s.off = j
			flags, err := regexFlags(s.src[i+1 : j])
			if err != nil {
				return "", fmt.Errorf("invalid regex flags at %d: %w", start, err)
			}
			return flags + pattern, nil
		}
	}
	return "", fmt.Errorf("unterminated regex literal starting at %d", start)
}

// regexFlags turns trailing i/m/s flags into an inline (?flags) group.
func regexFlags(raw string) (string, error) {
	var out []byte
	for _, c := range []byte(strings.ToLower(raw)) {
		if !strings.ContainsRune("ims", rune(c)) {
			return "", fmt.Errorf("unsupported flag %q (supported: i, m, s)", c)
		}
		if !strings.ContainsRune(string(out), rune(c)) {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return "", nil
	}
	return "(?" + string(out) + ")", nil
}

func isSpace(b byte) bool { return b == ' ' || b == '\t' || b == '\n' || b == '\r' }

func isLetter(b byte) bool { return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') }

func isDelimiter(b byte) bool {
	return isSpace(b) || strings.IndexByte(`()&|!><=~^$'"/`, b) >= 0
}

type whereExpr interface {
	Match(entry domain.HistoryEntry) bool
}

// boolExpr is an n-ary AND/OR over its terms.
type boolExpr struct {
	and   bool
	terms []whereExpr
}

func (e *boolExpr) Match(entry domain.HistoryEntry) bool {
	for _, t := range e.terms {
		if t.Match(entry) != e.and {
			return !e.and
		}
	}
	return e.and
}

type notExpr struct{ inner whereExpr }

func (e notExpr) Match(entry domain.HistoryEntry) bool { return !e.inner.Match(entry) }

// parser is a recursive descent parser with one token of lookahead:
//
//	or      := and { ("||" | "or") and }
//	and     := unary { ("&&" | "and") unary }
//	unary   := ("!" | "not") unary | "(" or ")" | field op value
type parser struct {
	sc  scanner
	tok token
}

func parseWhereExpr(input string) (whereExpr, error) {
	p := &parser{sc: scanner{src: input}}
	if err := p.advance(); err != nil {
		return nil, err
	}
	expr, err := p.parseBool(false)
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokEOF {
		return nil, fmt.Errorf("unexpected token %q at %d", p.tok.text, p.tok.pos)
	}
	return expr, nil
}

func (p *parser) advance() error {
	t, err := p.sc.scan()
	if err != nil {
		return err
	}
	p.tok = t
	return nil
}

// accept consumes the current token when it is the symbol kind or the
// case-insensitive keyword.
func (p *parser) accept(kind tokKind, keyword string) (bool, error) {
	if p.tok.kind == kind || (p.tok.kind == tokWord && strings.EqualFold(p.tok.text, keyword)) {
		return true, p.advance()
	}
	return false, nil
}

func (p *parser) parseBool(and bool) (whereExpr, error) {
	operand, kind, keyword := p.parseBoolAnd, tokOr, "or"
	if and {
		operand, kind, keyword = p.parseUnary, tokAnd, "and"
	}

	first, err := operand()
	if err != nil {
		return nil, err
	}
	expr := &boolExpr{and: and, terms: []whereExpr{first}}
	for {
		ok, err := p.accept(kind, keyword)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		next, err := operand()
		if err != nil {
			return nil, err
		}
		expr.terms = append(expr.terms, next)
	}
	if len(expr.terms) == 1 {
		return first, nil
	}
	return expr, nil
}

func (p *parser) parseBoolAnd() (whereExpr, error) { return p.parseBool(true) }

func (p *parser) parseUnary() (whereExpr, error) {
	if ok, err := p.accept(tokNot, "not"); err != nil {
		return nil, err
	} else if ok {
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return notExpr{inner}, nil
	}

	if p.tok.kind == tokLParen {
		if err := p.advance(); err != nil {
			return nil, err
		}
		inner, err := p.parseBool(false)
		if err != nil {
			return nil, err
		}
		if p.tok.kind != tokRParen {
			return nil, fmt.Errorf("expected ')' at %d", p.tok.pos)
		}
		return inner, p.advance()
	}
	return p.parseComparison()
}

func (p *parser) parseComparison() (whereExpr, error) {
	field := p.tok
	if field.kind != tokWord {
		return nil, fmt.Errorf("expected field name at %d", field.pos)
	}
	if err := p.advance(); err != nil {
		return nil, err
	}

	op := p.tok
	if op.kind != tokOp {
		return nil, fmt.Errorf("expected operator after field %q at %d", field.text, op.pos)
	}
	if err := p.advance(); err != nil {
		return nil, err
	}

	value := p.tok
	if value.kind != tokWord && value.kind != tokValue {
		return nil, fmt.Errorf("expected value after %q at %d", op.text, value.pos)
	}
	if err := p.advance(); err != nil {
		return nil, err
	}

	wc, err := newWhereClause(field.text, op.text, value.text)
	if err != nil {
		return nil, err
	}
	return wc, nil
}
