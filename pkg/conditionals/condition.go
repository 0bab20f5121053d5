// Package conditionals implements boolean predicates over a story world and
// the Not/And/Or expression tree used to gate events.
package conditionals

import (
	"fmt"
	"strings"

	"github.com/jwebster45206/storyworld/pkg/world"
)

// Check is a primitive predicate over the world. It returns an error when it
// references entities the world does not contain.
type Check interface {
	Check(w *world.World) (bool, error)
}

// CheckFunc adapts a function to the Check interface.
type CheckFunc func(w *world.World) (bool, error)

func (f CheckFunc) Check(w *world.World) (bool, error) {
	return f(w)
}

type op int

const (
	opCheck op = iota
	opNot
	opAnd
	opOr
)

// Condition is an expression tree over Checks. The zero value always holds.
type Condition struct {
	op       op
	check    Check
	operands []Condition
}

// Always returns a condition that always holds.
func Always() Condition {
	return Condition{}
}

// New wraps a single check.
func New(c Check) Condition {
	return Condition{op: opCheck, check: c}
}

// Not negates c.
func Not(c Condition) Condition {
	return Condition{op: opNot, operands: []Condition{c}}
}

// And holds when every operand holds. And() holds.
func And(cs ...Condition) Condition {
	return Condition{op: opAnd, operands: cs}
}

// Or holds when any operand holds. Or() does not hold.
func Or(cs ...Condition) Condition {
	return Condition{op: opOr, operands: cs}
}

// Evaluate walks the tree left to right, short-circuiting And/Or.
// The first check error aborts evaluation.
func (c Condition) Evaluate(w *world.World) (bool, error) {
	switch c.op {
	case opNot:
		ok, err := c.operands[0].Evaluate(w)
		if err != nil {
			return false, err
		}
		return !ok, nil
	case opAnd:
		for _, operand := range c.operands {
			ok, err := operand.Evaluate(w)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	case opOr:
		for _, operand := range c.operands {
			ok, err := operand.Evaluate(w)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	default:
		if c.check == nil {
			return true, nil
		}
		return c.check.Check(w)
	}
}

// Holds evaluates c and treats errors as false.
func (c Condition) Holds(w *world.World) bool {
	ok, err := c.Evaluate(w)
	return err == nil && ok
}

func (c Condition) String() string {
	switch c.op {
	case opNot:
		return "not(" + c.operands[0].String() + ")"
	case opAnd, opOr:
		parts := make([]string, len(c.operands))
		for i, operand := range c.operands {
			parts[i] = operand.String()
		}
		name := "and"
		if c.op == opOr {
			name = "or"
		}
		return name + "(" + strings.Join(parts, ", ") + ")"
	default:
		if c.check == nil {
			return "always"
		}
		if s, ok := c.check.(fmt.Stringer); ok {
			return s.String()
		}
		return "check"
	}
}
