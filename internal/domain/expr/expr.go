// Package expr implements the restricted expression language used by
// calculated-ticker formulas and alert conditions. It supports arithmetic,
// comparisons and boolean combinators over numeric literals and ticker
// identifiers; there are no function calls, no assignment and no access to
// anything outside the variable map passed at evaluation time.
package expr

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Expr is a parsed, immutable expression. Safe for concurrent evaluation.
type Expr struct {
	root node
	src  string
}

type node interface {
	eval(vars map[string]float64) (float64, error)
	refs(set map[string]struct{})
}

// Parse compiles src into an Expr. A syntax error, an empty expression or
// trailing input all fail here, never at evaluation time.
func Parse(src string) (*Expr, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	root, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if !p.eof() {
		return nil, fmt.Errorf("unexpected %q", p.peek().text)
	}
	return &Expr{root: root, src: src}, nil
}

// String returns the original source of the expression.
func (e *Expr) String() string { return e.src }

// Eval evaluates the expression against vars. Referencing an identifier not
// present in vars and dividing by zero are errors.
func (e *Expr) Eval(vars map[string]float64) (float64, error) {
	return e.root.eval(vars)
}

// EvalBool evaluates the expression and reports whether the result is truthy
// (non-zero). Comparison and boolean operators yield 1 or 0.
func (e *Expr) EvalBool(vars map[string]float64) (bool, error) {
	v, err := e.root.eval(vars)
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

// Refs returns the identifiers referenced by the expression, sorted and
// de-duplicated.
func (e *Expr) Refs() []string {
	set := make(map[string]struct{})
	e.root.refs(set)
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// nodes

type numNode float64

func (n numNode) eval(map[string]float64) (float64, error) { return float64(n), nil }
func (n numNode) refs(map[string]struct{})                 {}

type identNode string

func (n identNode) eval(vars map[string]float64) (float64, error) {
	v, ok := vars[string(n)]
	if !ok {
		return 0, fmt.Errorf("unknown ticker %q", string(n))
	}
	return v, nil
}
func (n identNode) refs(set map[string]struct{}) { set[string(n)] = struct{}{} }

type unaryNode struct {
	op string
	x  node
}

func (n unaryNode) eval(vars map[string]float64) (float64, error) {
	v, err := n.x.eval(vars)
	if err != nil {
		return 0, err
	}
	switch n.op {
	case "-":
		return -v, nil
	case "!":
		if v == 0 {
			return 1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("unknown unary operator %q", n.op)
}
func (n unaryNode) refs(set map[string]struct{}) { n.x.refs(set) }

type binNode struct {
	op   string
	l, r node
}

func (n binNode) eval(vars map[string]float64) (float64, error) {
	lv, err := n.l.eval(vars)
	if err != nil {
		return 0, err
	}
	// && and || still evaluate both sides; operands are pure so there is
	// nothing to short-circuit besides a missing-ticker error, and failing
	// on either side keeps behavior symmetric.
	rv, err := n.r.eval(vars)
	if err != nil {
		return 0, err
	}
	switch n.op {
	case "+":
		return lv + rv, nil
	case "-":
		return lv - rv, nil
	case "*":
		return lv * rv, nil
	case "/":
		if rv == 0 {
			return 0, fmt.Errorf("division by zero")
		}
		return lv / rv, nil
	case "<":
		return b2f(lv < rv), nil
	case "<=":
		return b2f(lv <= rv), nil
	case ">":
		return b2f(lv > rv), nil
	case ">=":
		return b2f(lv >= rv), nil
	case "==":
		return b2f(lv == rv), nil
	case "!=":
		return b2f(lv != rv), nil
	case "&&":
		return b2f(lv != 0 && rv != 0), nil
	case "||":
		return b2f(lv != 0 || rv != 0), nil
	}
	return 0, fmt.Errorf("unknown operator %q", n.op)
}
func (n binNode) refs(set map[string]struct{}) {
	n.l.refs(set)
	n.r.refs(set)
}

func b2f(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// lexer

type tokKind int

const (
	tokNum tokKind = iota
	tokIdent
	tokOp
	tokLParen
	tokRParen
)

type token struct {
	kind tokKind
	text string
	num  float64
}

func lex(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '(':
			toks = append(toks, token{kind: tokLParen, text: "("})
			i++
		case c == ')':
			toks = append(toks, token{kind: tokRParen, text: ")"})
			i++
		case c >= '0' && c <= '9' || c == '.':
			j := i
			for j < len(src) && (src[j] >= '0' && src[j] <= '9' || src[j] == '.') {
				j++
			}
			n, err := strconv.ParseFloat(src[i:j], 64)
			if err != nil {
				return nil, fmt.Errorf("bad number %q", src[i:j])
			}
			toks = append(toks, token{kind: tokNum, text: src[i:j], num: n})
			i = j
		case isIdentStart(c):
			j := i
			for j < len(src) && isIdentPart(src[j]) {
				j++
			}
			toks = append(toks, token{kind: tokIdent, text: strings.ToLower(src[i:j])})
			i = j
		default:
			op, n := lexOp(src[i:])
			if n == 0 {
				return nil, fmt.Errorf("unexpected character %q", string(c))
			}
			toks = append(toks, token{kind: tokOp, text: op})
			i += n
		}
	}
	if len(toks) == 0 {
		return nil, fmt.Errorf("empty expression")
	}
	return toks, nil
}

func lexOp(s string) (string, int) {
	two := []string{"<=", ">=", "==", "!=", "&&", "||"}
	for _, op := range two {
		if strings.HasPrefix(s, op) {
			return op, 2
		}
	}
	switch s[0] {
	case '+', '-', '*', '/', '<', '>', '!':
		return string(s[0]), 1
	}
	return "", 0
}

func isIdentStart(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || c >= '0' && c <= '9'
}

// parser: precedence climbing, lowest first
//
//	or   := and { "||" and }
//	and  := cmp { "&&" cmp }
//	cmp  := add [ ("<"|"<="|">"|">="|"=="|"!=") add ]
//	add  := mul { ("+"|"-") mul }
//	mul  := unary { ("*"|"/") unary }
//	unary := [ "-" | "!" ] primary
//	primary := number | ident | "(" or ")"
type parser struct {
	toks []token
	pos  int
}

func (p *parser) eof() bool    { return p.pos >= len(p.toks) }
func (p *parser) peek() token  { return p.toks[p.pos] }
func (p *parser) next() token  { t := p.toks[p.pos]; p.pos++; return t }
func (p *parser) acceptOp(ops ...string) (string, bool) {
	if p.eof() || p.toks[p.pos].kind != tokOp {
		return "", false
	}
	for _, op := range ops {
		if p.toks[p.pos].text == op {
			p.pos++
			return op, true
		}
	}
	return "", false
}

func (p *parser) parseOr() (node, error) {
	l, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.acceptOp("||")
		if !ok {
			return l, nil
		}
		r, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		l = binNode{op: op, l: l, r: r}
	}
}

func (p *parser) parseAnd() (node, error) {
	l, err := p.parseCmp()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.acceptOp("&&")
		if !ok {
			return l, nil
		}
		r, err := p.parseCmp()
		if err != nil {
			return nil, err
		}
		l = binNode{op: op, l: l, r: r}
	}
}

func (p *parser) parseCmp() (node, error) {
	l, err := p.parseAdd()
	if err != nil {
		return nil, err
	}
	op, ok := p.acceptOp("<", "<=", ">", ">=", "==", "!=")
	if !ok {
		return l, nil
	}
	r, err := p.parseAdd()
	if err != nil {
		return nil, err
	}
	return binNode{op: op, l: l, r: r}, nil
}

func (p *parser) parseAdd() (node, error) {
	l, err := p.parseMul()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.acceptOp("+", "-")
		if !ok {
			return l, nil
		}
		r, err := p.parseMul()
		if err != nil {
			return nil, err
		}
		l = binNode{op: op, l: l, r: r}
	}
}

func (p *parser) parseMul() (node, error) {
	l, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.acceptOp("*", "/")
		if !ok {
			return l, nil
		}
		r, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		l = binNode{op: op, l: l, r: r}
	}
}

func (p *parser) parseUnary() (node, error) {
	if op, ok := p.acceptOp("-", "!"); ok {
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return unaryNode{op: op, x: x}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (node, error) {
	if p.eof() {
		return nil, fmt.Errorf("unexpected end of expression")
	}
	t := p.next()
	switch t.kind {
	case tokNum:
		return numNode(t.num), nil
	case tokIdent:
		return identNode(t.text), nil
	case tokLParen:
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.eof() || p.peek().kind != tokRParen {
			return nil, fmt.Errorf("missing closing parenthesis")
		}
		p.next()
		return inner, nil
	}
	return nil, fmt.Errorf("unexpected %q", t.text)
}
