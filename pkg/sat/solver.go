package sat

import (
	"context"
	"fmt"
	"strings"
)

type Status int

const (
	Timeout       Status = iota // Budget exhausted before any model was found
	Unsatisfiable               // No model exists
	Satisfiable                 // A model was found, optimality not proven
	Optimal                     // A model of minimum cost was found
)

var statusNames = map[Status]string{
	Timeout:       "TIMEOUT",
	Unsatisfiable: "UNSATISFIABLE",
	Satisfiable:   "SATISFIABLE",
	Optimal:       "OPTIMAL",
}

func (status Status) String() string {
	if name, ok := statusNames[status]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", int(status))
}

// HasModel tells whether a solution carries an assignment.
func (status Status) HasModel() bool {
	return status == Satisfiable || status == Optimal
}

type Solution struct {
	Status   Status
	Literals SATSolution // One literal per variable, in variable order
	Cost     uint64      // Objective value of Literals
}

// SATSolver solves a SAT instance within the context's deadline. Running out of time is a Timeout
// status, not an error; errors are reserved for malformed instances and backend failures.
type SATSolver interface {
	Solve(ctx context.Context, sat SAT) (Solution, error)
}

const (
	GiniSolverName      = "gini"
	GophersatSolverName = "gophersat"
)

// SolverNames lists the names accepted by NewSolver.
func SolverNames() []string {
	return []string{GiniSolverName, GophersatSolverName}
}

func NewSolver(name string) (SATSolver, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case GiniSolverName, "":
		return NewGiniSolver(), nil
	case GophersatSolverName:
		return NewGophersatSolver(), nil
	}
	return nil, fmt.Errorf("unknown solver %q (available: %v)", name, strings.Join(SolverNames(), ", "))
}

func literalsOf(values []bool) SATSolution {
	solution := make(SATSolution, 0, len(values))
	for i, value := range values {
		literal := int64(i + 1)
		if !value {
			literal = -literal
		}
		solution = append(solution, literal)
	}
	return solution
}

func hasEmptyClause(sat SAT) bool {
	for _, clause := range sat.Clauses {
		if len(clause) == 0 {
			return true
		}
	}
	return false
}
