package symbolic

import (
	"fmt"
	"go/scanner"
	"go/token"
)

// ============================================================
// Parser
// ============================================================

// ParseError reports malformed expression text. Pos is the 1-based column of
// the offending token.
type ParseError struct {
	Pos int
	Msg string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at column %d: %s", e.Pos, e.Msg)
}

type tok struct {
	kind token.Token
	lit  string
	pos  int
}

// tokPow is the merged form of "**"; "^" is accepted as well.
const tokPow = token.XOR

// Parse reads an infix expression.
//
// Grammar (lowest precedence first):
//
//	sum     = product { ("+" | "-") product }
//	product = unary { ("*" | "/") unary }
//	unary   = ("+" | "-") unary | power
//	power   = primary [ ("**" | "^") unary ]
//	primary = number | name | name "(" sum ")" | "(" sum ")"
//
// Power is right-associative and binds tighter than unary minus, so -x**2
// is -(x^2). The names pi and E are constants, log is the natural logarithm
// and sqrt(u) is u^(1/2). Any other name followed by "(" is rejected.
func Parse(src string) (Expr, error) {
	toks, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	if p.peek().kind == token.EOF {
		return nil, p.errorf("empty expression")
	}
	e, err := p.sum()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != token.EOF {
		return nil, p.errorf("unexpected %s", describe(t))
	}
	return e, nil
}

func tokenize(src string) ([]tok, error) {
	fset := token.NewFileSet()
	file := fset.AddFile("", fset.Base(), len(src))

	var firstErr *ParseError
	var s scanner.Scanner
	s.Init(file, []byte(src), func(pos token.Position, msg string) {
		if firstErr == nil {
			firstErr = &ParseError{Pos: pos.Column, Msg: msg}
		}
	}, 0)

	var toks []tok
	for {
		pos, kind, lit := s.Scan()
		col := file.Position(pos).Column
		if kind == token.EOF {
			toks = append(toks, tok{kind: kind, pos: len(src) + 1})
			break
		}
		switch kind {
		case token.SEMICOLON:
			if lit == "\n" {
				continue
			}
			return nil, &ParseError{Pos: col, Msg: "unexpected ;"}
		case token.IMAG, token.ILLEGAL, token.CHAR, token.STRING:
			return nil, &ParseError{Pos: col, Msg: fmt.Sprintf("unexpected %q", lit)}
		case token.MUL:
			if n := len(toks); n > 0 && toks[n-1].kind == token.MUL && toks[n-1].pos == col-1 {
				toks[n-1].kind = tokPow
				continue
			}
		}
		toks = append(toks, tok{kind: kind, lit: lit, pos: col})
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return toks, nil
}

func describe(t tok) string {
	switch t.kind {
	case token.EOF:
		return "end of input"
	case token.IDENT, token.INT, token.FLOAT:
		return fmt.Sprintf("%q", t.lit)
	case tokPow:
		return `"**"`
	}
	return fmt.Sprintf("%q", t.kind.String())
}

type parser struct {
	toks []tok
	i    int
}

func (p *parser) peek() tok { return p.toks[p.i] }

func (p *parser) next() tok {
	t := p.toks[p.i]
	if t.kind != token.EOF {
		p.i++
	}
	return t
}

func (p *parser) errorf(format string, args ...any) *ParseError {
	return &ParseError{Pos: p.peek().pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) sum() (Expr, error) {
	left, err := p.product()
	if err != nil {
		return nil, err
	}
	for {
		op := p.peek().kind
		if op != token.ADD && op != token.SUB {
			return left, nil
		}
		p.next()
		right, err := p.product()
		if err != nil {
			return nil, err
		}
		if op == token.SUB {
			right = MulOf(N(-1), right)
		}
		left = AddOf(left, right)
	}
}

func (p *parser) product() (Expr, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		op := p.peek().kind
		if op != token.MUL && op != token.QUO {
			return left, nil
		}
		p.next()
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		if op == token.QUO {
			right = PowOf(right, N(-1))
		}
		left = MulOf(left, right)
	}
}

func (p *parser) unary() (Expr, error) {
	switch p.peek().kind {
	case token.SUB:
		p.next()
		operand, err := p.unary()
		if err != nil {
			return nil, err
		}
		return MulOf(N(-1), operand), nil
	case token.ADD:
		p.next()
		return p.unary()
	}
	return p.power()
}

func (p *parser) power() (Expr, error) {
	base, err := p.primary()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokPow {
		return base, nil
	}
	p.next()
	exp, err := p.unary()
	if err != nil {
		return nil, err
	}
	return PowOf(base, exp), nil
}

func (p *parser) primary() (Expr, error) {
	t := p.peek()
	switch t.kind {
	case token.INT, token.FLOAT:
		p.next()
		n, ok := numString(t.lit)
		if !ok {
			return nil, &ParseError{Pos: t.pos, Msg: fmt.Sprintf("invalid number %q", t.lit)}
		}
		return n, nil
	case token.LPAREN:
		p.next()
		e, err := p.sum()
		if err != nil {
			return nil, err
		}
		if err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		return e, nil
	case token.IDENT:
		p.next()
		if p.peek().kind == token.LPAREN {
			return p.call(t)
		}
		switch t.lit {
		case "pi":
			return Pi, nil
		case "E":
			return E, nil
		}
		return S(t.lit), nil
	}
	return nil, p.errorf("unexpected %s", describe(t))
}

func (p *parser) call(name tok) (Expr, error) {
	fn := name.lit
	if fn == "log" {
		fn = "ln"
	}
	if fn != "sqrt" && !IsFunction(fn) {
		return nil, &ParseError{Pos: name.pos, Msg: fmt.Sprintf("unknown function %q", name.lit)}
	}
	p.next() // (
	arg, err := p.sum()
	if err != nil {
		return nil, err
	}
	if err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	if fn == "sqrt" {
		return SqrtOf(arg), nil
	}
	return funcOf(fn, arg).Simplify(), nil
}

func (p *parser) expect(kind token.Token) error {
	if p.peek().kind != kind {
		return p.errorf("expected %q, found %s", kind.String(), describe(p.peek()))
	}
	p.next()
	return nil
}
