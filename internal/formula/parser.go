package formula

import (
	"errors"
	"fmt"
)

type span struct{ start, end int }

// node is one element of the parsed expression tree.
type node interface {
	eval(src string, vars Lookup) (float64, error)
	span() span
}

type numberNode struct {
	val float64
	sp  span
}

type identNode struct {
	name string
	sp   span
}

type unaryNode struct {
	op byte
	x  node
	sp span
}

type binaryNode struct {
	op   string
	x, y node
}

type groupNode struct {
	x  node
	sp span
}

type condNode struct {
	cond, then, els node
}

func (n numberNode) span() span { return n.sp }
func (n identNode) span() span  { return n.sp }
func (n unaryNode) span() span  { return n.sp }
func (n groupNode) span() span  { return n.sp }
func (n binaryNode) span() span { return span{n.x.span().start, n.y.span().end} }
func (n condNode) span() span   { return span{n.cond.span().start, n.els.span().end} }

func (n numberNode) eval(string, Lookup) (float64, error) { return n.val, nil }

func (n identNode) eval(src string, vars Lookup) (float64, error) {
	v, err := vars.Lookup(n.name)
	if err == nil {
		return v, nil
	}
	reason := fmt.Sprintf("unknown identifier %q", n.name)
	if errors.Is(err, ErrUnset) {
		reason = fmt.Sprintf("variable %q has no value", n.name)
	}
	return 0, &Error{Formula: src, Pos: n.sp.start, Reason: reason, Err: err}
}

func (n unaryNode) eval(src string, vars Lookup) (float64, error) {
	v, err := n.x.eval(src, vars)
	if err != nil {
		return 0, err
	}
	if n.op == '-' {
		return -v, nil
	}
	return v, nil
}

func (n groupNode) eval(src string, vars Lookup) (float64, error) { return n.x.eval(src, vars) }

func (n binaryNode) eval(src string, vars Lookup) (float64, error) {
	a, err := n.x.eval(src, vars)
	if err != nil {
		return 0, err
	}
	b, err := n.y.eval(src, vars)
	if err != nil {
		return 0, err
	}
	switch n.op {
	case "+":
		return a + b, nil
	case "-":
		return a - b, nil
	case "*":
		return a * b, nil
	case "/":
		return a / b, nil
	case "<":
		return boolValue(a < b), nil
	case ">":
		return boolValue(a > b), nil
	case "<=":
		return boolValue(a <= b), nil
	case ">=":
		return boolValue(a >= b), nil
	case "==":
		return boolValue(a == b), nil
	}
	return 0, &Error{Formula: src, Pos: n.y.span().start, Reason: fmt.Sprintf("unsupported operator %q", n.op)}
}

// Only the selected branch is evaluated, so an unset variable in the other
// branch does not invalidate the formula.
func (n condNode) eval(src string, vars Lookup) (float64, error) {
	c, err := n.cond.eval(src, vars)
	if err != nil {
		return 0, err
	}
	if c != 0 {
		return n.then.eval(src, vars)
	}
	return n.els.eval(src, vars)
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func walk(n node, fn func(node)) {
	fn(n)
	switch t := n.(type) {
	case unaryNode:
		walk(t.x, fn)
	case groupNode:
		walk(t.x, fn)
	case binaryNode:
		walk(t.x, fn)
		walk(t.y, fn)
	case condNode:
		walk(t.cond, fn)
		walk(t.then, fn)
		walk(t.els, fn)
	}
}

// maxDepth bounds the nesting of parentheses, unary signs and conditionals
// so that hostile input cannot exhaust the stack.
const maxDepth = 256

// parser is a recursive-descent parser over the token stream.
type parser struct {
	src   string
	toks  []token
	pos   int
	depth int
}

func (p *parser) enter(t token) error {
	p.depth++
	if p.depth > maxDepth {
		return &Error{Formula: p.src, Pos: t.pos, Reason: "formula is nested too deeply"}
	}
	return nil
}

func (p *parser) leave() { p.depth-- }

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) unexpected(t token) error {
	if t.kind == tokEOF {
		return &Error{Formula: p.src, Pos: t.pos, Reason: "unexpected end of formula"}
	}
	return &Error{Formula: p.src, Pos: t.pos, Reason: fmt.Sprintf("unexpected %q", t.text)}
}

// ternary := compare ( '?' ternary ':' ternary )?
func (p *parser) parseTernary() (node, error) {
	cond, err := p.parseCompare()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokQuest {
		return cond, nil
	}
	if err := p.enter(p.next()); err != nil {
		return nil, err
	}
	defer p.leave()
	then, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokColon {
		if t.kind == tokEOF {
			return nil, &Error{Formula: p.src, Pos: t.pos, Reason: "expected ':' in conditional"}
		}
		return nil, p.unexpected(t)
	}
	p.next()
	els, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	return condNode{cond: cond, then: then, els: els}, nil
}

func isCompareOp(t token) bool {
	if t.kind != tokOp {
		return false
	}
	switch t.text {
	case "<", ">", "<=", ">=", "==":
		return true
	}
	return false
}

// compare := additive ( cmpop additive )*
func (p *parser) parseCompare() (node, error) {
	x, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for isCompareOp(p.peek()) {
		op := p.next().text
		y, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		x = binaryNode{op: op, x: x, y: y}
	}
	return x, nil
}

// additive := term ( ('+'|'-') term )*
func (p *parser) parseAdditive() (node, error) {
	x, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for t := p.peek(); t.kind == tokOp && (t.text == "+" || t.text == "-"); t = p.peek() {
		p.next()
		y, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		x = binaryNode{op: t.text, x: x, y: y}
	}
	return x, nil
}

// term := unary ( ('*'|'/') unary )*
func (p *parser) parseTerm() (node, error) {
	x, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for t := p.peek(); t.kind == tokOp && (t.text == "*" || t.text == "/"); t = p.peek() {
		p.next()
		y, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		x = binaryNode{op: t.text, x: x, y: y}
	}
	return x, nil
}

// unary := ('+'|'-') unary | primary
func (p *parser) parseUnary() (node, error) {
	t := p.peek()
	if t.kind == tokOp && (t.text == "+" || t.text == "-") {
		p.next()
		if err := p.enter(t); err != nil {
			return nil, err
		}
		defer p.leave()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return unaryNode{op: t.text[0], x: x, sp: span{t.pos, x.span().end}}, nil
	}
	return p.parsePrimary()
}

// primary := number | identifier | '(' ternary ')'
func (p *parser) parsePrimary() (node, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		v, err := parseNumber(p.src, t)
		if err != nil {
			return nil, err
		}
		return numberNode{val: v, sp: span{t.pos, t.pos + len(t.text)}}, nil

	case tokIdent:
		if p.peek().kind == tokLParen {
			return nil, &Error{Formula: p.src, Pos: t.pos, Reason: fmt.Sprintf("function call %q is not allowed", t.text)}
		}
		return identNode{name: t.text, sp: span{t.pos, t.pos + len(t.text)}}, nil

	case tokLParen:
		if err := p.enter(t); err != nil {
			return nil, err
		}
		defer p.leave()
		x, err := p.parseTernary()
		if err != nil {
			return nil, err
		}
		closing := p.next()
		if closing.kind != tokRParen {
			if closing.kind == tokEOF {
				return nil, &Error{Formula: p.src, Pos: closing.pos, Reason: "missing ')'"}
			}
			return nil, p.unexpected(closing)
		}
		return groupNode{x: x, sp: span{t.pos, closing.pos + 1}}, nil
	}
	return nil, p.unexpected(t)
}
