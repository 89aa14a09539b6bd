package sat

import (
	"context"
	"time"

	"github.com/go-air/gini"
	"github.com/go-air/gini/logic"
	"github.com/go-air/gini/z"
)

// MaxObjectiveUnits bounds the size of the sorting network built for the objective. Larger
// objectives are dropped and any model is reported as Satisfiable.
const MaxObjectiveUnits = 1 << 14

const pollInterval = 5 * time.Millisecond

type giniSolver struct{}

// NewGiniSolver returns a CNF solver. Linear constraints and the objective are translated to
// cardinality sorting networks over unary-expanded weights; the objective is then minimised by
// re-solving under a tightening bound until no cheaper model exists or the context is done.
func NewGiniSolver() SATSolver {
	return &giniSolver{}
}

func (solver *giniSolver) Solve(ctx context.Context, sat SAT) (Solution, error) {
	if err := sat.Validate(); err != nil {
		return Solution{}, err
	}
	if hasEmptyClause(sat) {
		return Solution{Status: Unsatisfiable}, nil
	}

	encoding := newGiniEncoding(sat)
	bounds := make([]z.Lit, 0, len(sat.Constraints))
	for _, constraint := range sat.Constraints {
		if bound, trivial := encoding.atMost(constraint.Terms, constraint.Bound); !trivial {
			bounds = append(bounds, bound)
		}
	}

	var units []z.Lit
	var objective *logic.CardSort
	if count := unitCount(sat.Objective); count > 0 && count <= MaxObjectiveUnits {
		units = encoding.units(sat.Objective)
		objective = logic.NewCardSort(units, encoding.circuit)
	}

	g := gini.New()
	encoding.circuit.ToCnf(g)
	encoding.addClauses(g, sat.Clauses)
	for _, bound := range bounds {
		g.Add(bound)
		g.Add(0)
	}

	switch giniSearch(ctx, g) {
	case -1:
		return Solution{Status: Unsatisfiable}, nil
	case 0:
		return Solution{Status: Timeout}, nil
	}
	best := encoding.model(g)

	if objective == nil {
		status := Optimal
		if unitCount(sat.Objective) > 0 {
			status = Satisfiable
		}
		return Solution{Status: status, Literals: best, Cost: sat.Cost(best)}, nil
	}

	for cost := encoding.trueUnits(g, units); cost > 0; cost = encoding.trueUnits(g, units) {
		g.Assume(objective.Leq(cost - 1))
		switch giniSearch(ctx, g) {
		case -1:
			return Solution{Status: Optimal, Literals: best, Cost: sat.Cost(best)}, nil
		case 0:
			return Solution{Status: Satisfiable, Literals: best, Cost: sat.Cost(best)}, nil
		}
		best = encoding.model(g)
	}
	return Solution{Status: Optimal, Literals: best, Cost: sat.Cost(best)}, nil
}

// giniSearch runs one solve in the background and stops it once the context is done.
// It returns 1 when satisfiable, -1 when unsatisfiable and 0 when interrupted.
func giniSearch(ctx context.Context, g *gini.Gini) int {
	if ctx.Err() != nil {
		return 0
	}
	solve := g.GoSolve()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		if result, done := solve.Test(); done {
			return result
		}
		select {
		case <-ctx.Done():
			return solve.Stop()
		case <-ticker.C:
		}
	}
}

// giniEncoding maps instance variables to circuit inputs so that the sorting networks and the
// clauses share one variable space.
type giniEncoding struct {
	circuit  *logic.C
	literals []z.Lit
}

func newGiniEncoding(sat SAT) *giniEncoding {
	encoding := &giniEncoding{
		circuit:  logic.NewC(),
		literals: make([]z.Lit, sat.Variables+1),
	}
	for variable := uint64(1); variable <= sat.Variables; variable++ {
		encoding.literals[variable] = encoding.circuit.Lit()
	}
	return encoding
}

func (encoding *giniEncoding) lit(literal int64) z.Lit {
	if literal < 0 {
		return encoding.literals[-literal].Not()
	}
	return encoding.literals[literal]
}

func (encoding *giniEncoding) addClauses(g *gini.Gini, clauses [][]int64) {
	for _, clause := range clauses {
		for _, literal := range clause {
			g.Add(encoding.lit(literal))
		}
		g.Add(0)
	}
}

// units expands every term into weight/gcd copies of its literal.
func (encoding *giniEncoding) units(terms []Term) []z.Lit {
	divisor := weightGcd(terms)
	units := make([]z.Lit, 0)
	for _, term := range terms {
		if term.Weight == 0 {
			continue
		}
		for range term.Weight / divisor {
			units = append(units, encoding.lit(term.Literal))
		}
	}
	return units
}

// atMost returns a literal equivalent to Σ weight·literal ≤ bound, or trivial when it always holds.
func (encoding *giniEncoding) atMost(terms []Term, bound uint64) (z.Lit, bool) {
	var total uint64
	for _, term := range terms {
		total += term.Weight
	}
	if total <= bound {
		return z.LitNull, true
	}
	divisor := weightGcd(terms)
	cardinality := logic.NewCardSort(encoding.units(terms), encoding.circuit)
	return cardinality.Leq(int(bound / divisor)), false
}

func (encoding *giniEncoding) model(g *gini.Gini) SATSolution {
	values := make([]bool, len(encoding.literals)-1)
	maxVar := g.MaxVar()
	for i := range values {
		literal := encoding.literals[i+1]
		values[i] = literal.Var() <= maxVar && g.Value(literal)
	}
	return literalsOf(values)
}

func (encoding *giniEncoding) trueUnits(g *gini.Gini, units []z.Lit) int {
	count := 0
	maxVar := g.MaxVar()
	for _, unit := range units {
		if unit.Var() <= maxVar && g.Value(unit) {
			count++
		}
	}
	return count
}

func unitCount(terms []Term) uint64 {
	divisor := weightGcd(terms)
	var count uint64
	for _, term := range terms {
		count += term.Weight / divisor
	}
	return count
}

func weightGcd(terms []Term) uint64 {
	var divisor uint64
	for _, term := range terms {
		divisor = gcd(divisor, term.Weight)
	}
	if divisor == 0 {
		return 1
	}
	return divisor
}

func gcd(a, b uint64) uint64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
