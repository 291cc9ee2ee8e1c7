package engine

import (
	"errors"
	"fmt"
	"math"

	"github.com/piwi3910/SlabCost/internal/formula"
	"github.com/piwi3910/SlabCost/internal/model"
)

// Namespace is the flat variable map of one box or component instance.
// Variables keep their declaration order. A variable may be declared but
// unset, which happens when its derived formula was invalid; looking it up
// then fails with formula.ErrUnset instead of yielding zero.
type Namespace struct {
	order  []string
	values map[string]float64
	set    map[string]bool
	issues []model.Issue
}

func newNamespace() *Namespace {
	return &Namespace{
		values: make(map[string]float64),
		set:    make(map[string]bool),
	}
}

// Resolve builds the namespace for a box instance: the base dimensions L, A, P,
// the internal dimensions Li, Ai, Pi, the own variables and then every derived
// list in order. Each derived formula only sees what was declared before it.
func Resolve(dims model.BoxDims, thicknessMm float64, own []model.VarDecl, values map[string]float64, derived ...[]model.DerivedVar) *Namespace {
	ns := newNamespace()
	ns.declare("L", dims.L)
	ns.declare("A", dims.A)
	ns.declare("P", dims.P)
	ns.declare("Li", dims.L-2*thicknessMm)
	ns.declare("Ai", dims.A-2*thicknessMm)
	ns.declare("Pi", dims.P)
	ns.addOwn(own, values)
	for _, list := range derived {
		ns.addDerived(list)
	}
	return ns
}

// With returns a child namespace for a component placed in this box. The
// receiver is not modified.
func (ns *Namespace) With(own []model.VarDecl, values map[string]float64, derived ...[]model.DerivedVar) *Namespace {
	child := ns.clone()
	child.addOwn(own, values)
	for _, list := range derived {
		child.addDerived(list)
	}
	return child
}

func (ns *Namespace) clone() *Namespace {
	c := &Namespace{
		order:  append([]string(nil), ns.order...),
		values: make(map[string]float64, len(ns.values)),
		set:    make(map[string]bool, len(ns.set)),
		issues: append([]model.Issue(nil), ns.issues...),
	}
	for k, v := range ns.values {
		c.values[k] = v
	}
	for k, v := range ns.set {
		c.set[k] = v
	}
	return c
}

func (ns *Namespace) declared(id string) bool {
	_, ok := ns.set[id]
	return ok
}

// claim registers id, or records a duplicate and returns false.
func (ns *Namespace) claim(id string) bool {
	if ns.declared(id) {
		ns.issue(model.IssueDuplicateVariable, id, "already declared, later declaration ignored")
		return false
	}
	ns.order = append(ns.order, id)
	ns.set[id] = false
	return true
}

func (ns *Namespace) declare(id string, v float64) {
	if ns.claim(id) {
		ns.values[id] = v
		ns.set[id] = true
	}
}

func (ns *Namespace) addOwn(own []model.VarDecl, values map[string]float64) {
	for _, d := range own {
		v := d.Default
		if supplied, ok := values[d.ID]; ok {
			if math.IsNaN(supplied) || math.IsInf(supplied, 0) {
				ns.issue(model.IssueFormulaInvalid, d.ID, "supplied value is not finite, using default")
			} else {
				v = supplied
			}
		}
		ns.declare(d.ID, d.Clamp(v))
	}
}

func (ns *Namespace) addDerived(list []model.DerivedVar) {
	for _, d := range list {
		if ns.declared(d.ID) {
			ns.issue(model.IssueDuplicateVariable, d.ID, "already declared, later declaration ignored")
			continue
		}
		v, err := formula.Evaluate(d.Formula, ns)
		ns.claim(d.ID)
		if err != nil {
			kind := model.IssueFormulaInvalid
			if errors.Is(err, formula.ErrUnset) {
				kind = model.IssueUnsetVariable
			}
			ns.issue(kind, d.ID, err.Error())
			continue
		}
		ns.values[d.ID] = v
		ns.set[d.ID] = true
	}
}

func (ns *Namespace) issue(kind model.IssueKind, subject, detail string) {
	ns.issues = append(ns.issues, model.Issue{Kind: kind, Subject: subject, Detail: detail})
}

// Lookup implements formula.Lookup.
func (ns *Namespace) Lookup(id string) (float64, error) {
	isSet, ok := ns.set[id]
	if !ok {
		return 0, formula.ErrUnknownIdentifier
	}
	if !isSet {
		return 0, formula.ErrUnset
	}
	return ns.values[id], nil
}

// Value returns the value of id and whether it is set.
func (ns *Namespace) Value(id string) (float64, bool) {
	if !ns.set[id] {
		return 0, false
	}
	return ns.values[id], true
}

// IsSet reports whether id is declared and carries a value.
func (ns *Namespace) IsSet(id string) bool {
	return ns.set[id]
}

// Variables returns the set variables in declaration order.
func (ns *Namespace) Variables() []model.Variable {
	vars := make([]model.Variable, 0, len(ns.order))
	for _, id := range ns.order {
		if ns.set[id] {
			vars = append(vars, model.Variable{ID: id, Value: ns.values[id]})
		}
	}
	return vars
}

// Unset returns the declared variables that have no value.
func (ns *Namespace) Unset() []string {
	var ids []string
	for _, id := range ns.order {
		if !ns.set[id] {
			ids = append(ids, id)
		}
	}
	return ids
}

// Issues returns the problems found while resolving.
func (ns *Namespace) Issues() []model.Issue {
	return append([]model.Issue(nil), ns.issues...)
}

// Vars returns the set variables as a plain map.
func (ns *Namespace) Vars() formula.Vars {
	out := make(formula.Vars, len(ns.values))
	for id, ok := range ns.set {
		if ok {
			out[id] = ns.values[id]
		}
	}
	return out
}

func (ns *Namespace) String() string {
	return fmt.Sprintf("namespace(%d vars, %d unset)", len(ns.order), len(ns.Unset()))
}
