// Package formula evaluates the arithmetic formulas authored in box and
// component definitions. The grammar is fixed: numbers, variable identifiers,
// + - * /, parentheses, the comparisons < > <= >= == and the ternary
// conditional. Nothing else is accepted.
package formula

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// ErrInvalid is wrapped by every error returned from this package.
// Callers test for it with errors.Is and treat the formula as having no value.
var ErrInvalid = errors.New("invalid formula")

var (
	// ErrUnknownIdentifier is returned when a formula names a variable that
	// does not exist in the namespace.
	ErrUnknownIdentifier = errors.New("unknown identifier")
	// ErrUnset is returned when a variable exists but has no value, e.g. a
	// derived variable whose own formula was invalid.
	ErrUnset = errors.New("variable has no value")
	// ErrNonFinite is returned when the result is NaN or infinite.
	ErrNonFinite = errors.New("result is not finite")
)

// Error describes why a formula was rejected.
type Error struct {
	Formula string
	Pos     int // byte offset into Formula, -1 when not applicable
	Reason  string
	Err     error // optional cause (ErrUnknownIdentifier, ErrUnset, ErrNonFinite)
}

func (e *Error) Error() string {
	if e.Pos >= 0 {
		return fmt.Sprintf("formula %q: %s at position %d", e.Formula, e.Reason, e.Pos)
	}
	return fmt.Sprintf("formula %q: %s", e.Formula, e.Reason)
}

// Unwrap exposes both ErrInvalid and the specific cause.
func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrInvalid, e.Err}
	}
	return []error{ErrInvalid}
}

// Lookup resolves variable identifiers during evaluation.
// It returns ErrUnknownIdentifier for names it does not know and ErrUnset for
// names that are declared but carry no value.
type Lookup interface {
	Lookup(id string) (float64, error)
}

// Vars is a plain map namespace.
type Vars map[string]float64

// Lookup implements Lookup.
func (v Vars) Lookup(id string) (float64, error) {
	val, ok := v[id]
	if !ok {
		return 0, ErrUnknownIdentifier
	}
	return val, nil
}

// Evaluate parses and evaluates formula against vars.
// The returned error, when non-nil, always wraps ErrInvalid.
func Evaluate(formula string, vars Lookup) (float64, error) {
	expr, err := Compile(formula)
	if err != nil {
		return 0, err
	}
	return expr.Eval(vars)
}

// Expr is a parsed formula. It is immutable and safe for concurrent use.
type Expr struct {
	src  string
	root node
}

// Compile parses formula without evaluating it.
func Compile(formula string) (*Expr, error) {
	toks, err := lex(formula)
	if err != nil {
		return nil, err
	}
	p := &parser{src: formula, toks: toks}
	if p.peek().kind == tokEOF {
		return nil, &Error{Formula: formula, Pos: -1, Reason: "empty formula"}
	}
	root, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, p.unexpected(t)
	}
	return &Expr{src: formula, root: root}, nil
}

// String returns the source text.
func (e *Expr) String() string { return e.src }

// Eval evaluates the expression. Non-finite results are rejected.
func (e *Expr) Eval(vars Lookup) (float64, error) {
	if vars == nil {
		vars = Vars(nil)
	}
	v, err := e.root.eval(e.src, vars)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &Error{Formula: e.src, Pos: -1, Reason: "result is not a finite number", Err: ErrNonFinite}
	}
	return v, nil
}

// Identifiers lists the distinct variable names the formula references,
// in order of first appearance.
func (e *Expr) Identifiers() []string {
	seen := make(map[string]bool)
	var ids []string
	walk(e.root, func(n node) {
		if id, ok := n.(identNode); ok && !seen[id.name] {
			seen[id.name] = true
			ids = append(ids, id.name)
		}
	})
	return ids
}

// Factors splits a product into its two dimensional operands. The whole
// chain of * and / is flattened through parentheses; operands without
// identifiers are constant scale factors and are skipped, so "Li*P*2" and
// "2*Li*P" both give Li and P. A plain X*Y returns X and Y whatever they
// contain. ok is false when the formula is not a product, when a variable
// operand is a divisor, or when anything other than two variable operands
// remains.
func (e *Expr) Factors() (x, y *Expr, ok bool) {
	root := unwrapGroups(e.root)
	if b, isBin := root.(binaryNode); !isBin || (b.op != "*" && b.op != "/") {
		return nil, nil, false
	}

	var factors []factor
	flattenProduct(root, false, &factors)
	if len(factors) == 2 && !factors[0].divide && !factors[1].divide {
		return e.sub(factors[0].n), e.sub(factors[1].n), true
	}

	var dims []node
	for _, f := range factors {
		if hasIdentifiers(f.n) {
			if f.divide {
				return nil, nil, false
			}
			dims = append(dims, f.n)
			continue
		}
		v, err := f.n.eval(e.src, Vars(nil))
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || (f.divide && v == 0) {
			return nil, nil, false
		}
	}
	if len(dims) != 2 {
		return nil, nil, false
	}
	return e.sub(dims[0]), e.sub(dims[1]), true
}

type factor struct {
	n      node
	divide bool
}

func flattenProduct(n node, divide bool, out *[]factor) {
	if b, ok := unwrapGroups(n).(binaryNode); ok && (b.op == "*" || b.op == "/") {
		flattenProduct(b.x, divide, out)
		flattenProduct(b.y, divide != (b.op == "/"), out)
		return
	}
	*out = append(*out, factor{n: n, divide: divide})
}

func unwrapGroups(n node) node {
	for {
		g, ok := n.(groupNode)
		if !ok {
			return n
		}
		n = g.x
	}
}

func hasIdentifiers(n node) bool {
	found := false
	walk(n, func(c node) {
		if _, ok := c.(identNode); ok {
			found = true
		}
	})
	return found
}

func (e *Expr) sub(n node) *Expr {
	sp := n.span()
	return &Expr{src: e.src[sp.start:sp.end], root: n}
}

// Valid reports whether formula compiles.
func Valid(formula string) bool {
	_, err := Compile(formula)
	return err == nil
}

func parseNumber(src string, t token) (float64, error) {
	v, err := strconv.ParseFloat(t.text, 64)
	if err != nil {
		return 0, &Error{Formula: src, Pos: t.pos, Reason: fmt.Sprintf("malformed number %q", t.text)}
	}
	return v, nil
}
