package sat

import (
	"context"

	"github.com/crillab/gophersat/solver"
	"github.com/samber/lo"
)

type gophersatSolver struct{}

// NewGophersatSolver returns a pseudo-boolean solver. Clauses and linear constraints are handed over
// natively and the objective is minimised by gophersat's own optimiser, which streams every improving
// model; the last one received before the context is done is kept.
func NewGophersatSolver() SATSolver {
	return &gophersatSolver{}
}

func (gs *gophersatSolver) Solve(ctx context.Context, sat SAT) (Solution, error) {
	if err := sat.Validate(); err != nil {
		return Solution{}, err
	}
	if hasEmptyClause(sat) {
		return Solution{Status: Unsatisfiable}, nil
	}
	if ctx.Err() != nil {
		return Solution{Status: Timeout}, nil
	}

	constraints := make([]solver.PBConstr, 0, len(sat.Clauses)+len(sat.Constraints)+1)
	for _, clause := range sat.Clauses {
		constraints = append(constraints, solver.PropClause(lo.Map(clause, func(literal int64, _ int) int { return int(literal) })...))
	}
	for _, constraint := range sat.Constraints {
		literals, weights := pbTerms(constraint.Terms)
		if len(literals) > 0 {
			constraints = append(constraints, solver.LtEq(literals, weights, int(constraint.Bound)))
		}
	}
	// A trivially true constraint over the last variable declares every variable, so that objective
	// literals absent from all constraints still belong to the model.
	if sat.Variables > 0 {
		constraints = append(constraints, solver.GtEq([]int{int(sat.Variables)}, []int{1}, 0))
	}

	problem := solver.ParsePBConstrs(constraints)
	if literals, weights := pbTerms(sat.Objective); len(literals) > 0 {
		problem.SetCostFunc(lo.Map(literals, func(literal int, _ int) solver.Lit { return solver.IntToLit(int32(literal)) }), weights)
	}

	results := make(chan solver.Result)
	go solver.New(problem).Optimal(results, nil)

	var best SATSolution
	for {
		select {
		case <-ctx.Done():
			// The optimiser cannot be interrupted; drain it so it can run to completion and exit.
			go func() {
				for range results {
				}
			}()
			if best == nil {
				return Solution{Status: Timeout}, nil
			}
			return Solution{Status: Satisfiable, Literals: best, Cost: sat.Cost(best)}, nil
		case result, ok := <-results:
			if !ok {
				if best == nil {
					return Solution{Status: Unsatisfiable}, nil
				}
				return Solution{Status: Optimal, Literals: best, Cost: sat.Cost(best)}, nil
			}
			if result.Status == solver.Sat {
				best = gophersatModel(result.Model, sat.Variables)
			}
		}
	}
}

func pbTerms(terms []Term) ([]int, []int) {
	literals := make([]int, 0, len(terms))
	weights := make([]int, 0, len(terms))
	for _, term := range terms {
		if term.Weight == 0 {
			continue
		}
		literals = append(literals, int(term.Literal))
		weights = append(weights, int(term.Weight))
	}
	return literals, weights
}

func gophersatModel(model []bool, variables uint64) SATSolution {
	values := make([]bool, variables)
	copy(values, model)
	return literalsOf(values)
}
