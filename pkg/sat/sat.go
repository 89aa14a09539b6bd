package sat

import (
	"fmt"
	"slices"
	"strings"

	"github.com/samber/lo"
)

// SATSolution holds the assignment as literals: v when variable v is true, -v when false.
type SATSolution []int64

// Term is a weighted literal.
type Term struct {
	Literal int64
	Weight  uint64
}

// Linear is the pseudo-boolean constraint Σ weight·literal ≤ Bound.
type Linear struct {
	Terms []Term
	Bound uint64
	Tag   string
}

// SAT is a CNF formula extended with at-most linear constraints and a linear objective to minimise.
// Tags, when present, label each clause with the constraint class it belongs to.
type SAT struct {
	Variables   uint64
	Clauses     [][]int64
	Tags        []string
	Constraints []Linear
	Objective   []Term
}

func (s SAT) Validate() error {
	if len(s.Tags) != 0 && len(s.Tags) != len(s.Clauses) {
		return fmt.Errorf("tags must label every clause: %d tags for %d clauses", len(s.Tags), len(s.Clauses))
	}
	check := func(literal int64) error {
		if literal == 0 || uint64(abs(literal)) > s.Variables {
			return fmt.Errorf("literal %d is outside the %d variables", literal, s.Variables)
		}
		return nil
	}
	for _, clause := range s.Clauses {
		for _, literal := range clause {
			if err := check(literal); err != nil {
				return err
			}
		}
	}
	for _, constraint := range s.Constraints {
		for _, term := range constraint.Terms {
			if err := check(term.Literal); err != nil {
				return err
			}
		}
	}
	for _, term := range s.Objective {
		if err := check(term.Literal); err != nil {
			return err
		}
	}
	return nil
}

// Tag returns the tag of the i-th clause, empty when untagged.
func (s SAT) Tag(i int) string {
	if len(s.Tags) == 0 {
		return ""
	}
	return s.Tags[i]
}

// TagNames returns the sorted distinct non-empty tags of clauses and constraints.
func (s SAT) TagNames() []string {
	tags := lo.Filter(lo.Uniq(append(slices.Clone(s.Tags), lo.Map(s.Constraints, func(constraint Linear, _ int) string { return constraint.Tag })...)), func(tag string, _ int) bool {
		return tag != ""
	})
	slices.Sort(tags)
	return tags
}

// Cost evaluates the objective under a solution.
func (s SAT) Cost(solution SATSolution) uint64 {
	values := solution.Values(s.Variables)
	var cost uint64
	for _, term := range s.Objective {
		if values.Holds(term.Literal) {
			cost += term.Weight
		}
	}
	return cost
}

func (s SAT) ToDIMACS() string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "p cnf %d %d\n", s.Variables, len(s.Clauses))
	for _, clause := range s.Clauses {
		for _, literal := range clause {
			fmt.Fprintf(&builder, "%d ", literal)
		}
		builder.WriteString("0\n")
	}
	return builder.String()
}

// ToOPB writes the whole model, objective and linear constraints included, in the OPB format of the
// pseudo-boolean competitions. At-most constraints are written over negated literals as at-least ones.
func (s SAT) ToOPB() string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "* #variable= %d #constraint= %d\n", s.Variables, len(s.Clauses)+len(s.Constraints))
	if len(s.Objective) > 0 {
		builder.WriteString("min:")
		for _, term := range s.Objective {
			fmt.Fprintf(&builder, " +%d %s", term.Weight, opbLiteral(term.Literal))
		}
		builder.WriteString(" ;\n")
	}
	for i, clause := range s.Clauses {
		if tag := s.Tag(i); tag != "" {
			fmt.Fprintf(&builder, "* %s\n", tag)
		}
		for _, literal := range clause {
			fmt.Fprintf(&builder, "+1 %s ", opbLiteral(literal))
		}
		builder.WriteString(">= 1 ;\n")
	}
	for _, constraint := range s.Constraints {
		if constraint.Tag != "" {
			fmt.Fprintf(&builder, "* %s\n", constraint.Tag)
		}
		var total uint64
		for _, term := range constraint.Terms {
			total += term.Weight
			fmt.Fprintf(&builder, "+%d %s ", term.Weight, opbLiteral(-term.Literal))
		}
		var atLeast int64
		if total > constraint.Bound {
			atLeast = int64(total - constraint.Bound)
		}
		fmt.Fprintf(&builder, ">= %d ;\n", atLeast)
	}
	return builder.String()
}

func opbLiteral(literal int64) string {
	if literal < 0 {
		return fmt.Sprintf("~x%d", -literal)
	}
	return fmt.Sprintf("x%d", literal)
}

// Values indexes the solution by variable; index 0 is unused.
func (solution SATSolution) Values(variables uint64) Assignment {
	values := make(Assignment, variables+1)
	for _, literal := range solution {
		if literal > 0 && uint64(literal) <= variables {
			values[literal] = true
		}
	}
	return values
}

// Assignment maps each variable to its value.
type Assignment []bool

// Holds tells whether a literal is true under the assignment.
func (assignment Assignment) Holds(literal int64) bool {
	variable := abs(literal)
	if variable == 0 || variable >= int64(len(assignment)) {
		return literal < 0
	}
	return assignment[variable] == (literal > 0)
}

func abs(value int64) int64 {
	if value < 0 {
		return -value
	}
	return value
}
