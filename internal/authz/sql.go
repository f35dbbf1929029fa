package authz

import (
	"fmt"
	"strings"
)

// CompileSQL renders a predicate as a parameterized PostgreSQL clause.
// Placeholders start at $startArg so callers can splice the clause into
// a larger statement; the returned args line up with the placeholders.
func CompileSQL(p Predicate, startArg int) (string, []any) {
	c := &sqlCompiler{next: startArg}
	clause := c.render(p)
	return clause, c.args
}

type sqlCompiler struct {
	next int
	args []any
}

func (c *sqlCompiler) placeholder(value any) string {
	c.args = append(c.args, value)
	n := c.next
	c.next++
	return fmt.Sprintf("$%d", n)
}

func (c *sqlCompiler) render(p Predicate) string {
	switch v := p.(type) {
	case truePredicate:
		return "TRUE"
	case falsePredicate:
		return "FALSE"
	case eqPredicate:
		return fmt.Sprintf("%s = %s", v.field, c.placeholder(v.value))
	case gtePredicate:
		return fmt.Sprintf("%s >= %s", v.field, c.placeholder(v.value))
	case inPredicate:
		placeholders := make([]string, len(v.values))
		for i, value := range v.values {
			placeholders[i] = c.placeholder(value)
		}
		return fmt.Sprintf("%s IN (%s)", v.field, strings.Join(placeholders, ", "))
	case reportsOfPredicate:
		return fmt.Sprintf("%s IN (SELECT id FROM users WHERE manager_id = %s)", v.field, c.placeholder(v.managerID))
	case andPredicate:
		return c.renderGroup(v.children, " AND ")
	case orPredicate:
		return c.renderGroup(v.children, " OR ")
	default:
		// Unknown node: match nothing rather than everything.
		return "FALSE"
	}
}

func (c *sqlCompiler) renderGroup(children []Predicate, sep string) string {
	parts := make([]string, len(children))
	for i, child := range children {
		parts[i] = c.render(child)
	}
	return "(" + strings.Join(parts, sep) + ")"
}
