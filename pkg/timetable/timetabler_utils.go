package timetable

import (
	"context"
	"fmt"
	"time"

	"github.com/limaJavier/coursetable/pkg/sat"
	"go.uber.org/zap"
)

// Constraint classes in the order their clauses enter the instance
func constraintClasses() []constraintClass {
	return []constraintClass{
		{clauses: domainConstraints},
		{tag: roomTag, clauses: roomConstraints},
		{tag: facultyTag, clauses: facultyConstraints},
		{tag: studentTag, clauses: studentConstraints},
		{tag: availabilityTag, clauses: roomAvailabilityConstraints},
		{tag: availabilityTag, clauses: facultyAvailabilityConstraints},
	}
}

type generatedClauses struct {
	class   int
	clauses [][]int64
}

// buildSat generates every constraint class on its own goroutine and assembles the clauses in class order,
// so the instance is the same on every run. The objective goes last since it allocates auxiliary variables.
func buildSat(classes []constraintClass, state constraintState) (sat.SAT, softObjective) {
	satInstance := sat.SAT{
		Clauses: [][]int64{},
		Tags:    []string{},
	}

	constraintsChannel := make(chan generatedClauses) // Channel to collect constraints
	for i, class := range classes {
		go func() {
			constraintsChannel <- generatedClauses{class: i, clauses: class.clauses(state)}
		}()
	}

	collected := make([][][]int64, len(classes))
	for range classes {
		generated := <-constraintsChannel
		collected[generated.class] = generated.clauses
	}
	close(constraintsChannel)

	for i, clauses := range collected {
		satInstance.Clauses = append(satInstance.Clauses, clauses...)
		for range clauses {
			satInstance.Tags = append(satInstance.Tags, classes[i].tag)
		}
	}
	satInstance.Constraints = append(facultyLoadConstraints(state), roomOccupancyConstraints(state)...)

	objective := buildObjective(state)
	clauses, terms := objective.encode(state.indexer)
	satInstance.Clauses = append(satInstance.Clauses, clauses...)
	satInstance.Tags = append(satInstance.Tags, make([]string, len(clauses))...)
	satInstance.Objective = terms

	satInstance.Variables = state.indexer.Variables()
	return satInstance, objective
}

// modelRun is the model of one plan under one strategy
type modelRun struct {
	plan      *Plan
	state     constraintState
	instance  sat.SAT
	objective softObjective
}

func newModelRun(plan *Plan, withRooms bool) *modelRun {
	state := constraintState{
		plan:      plan,
		evaluator: newPredicateEvaluator(plan),
		indexer:   newIndexer(plan.Sections(), withRooms),
		withRooms: withRooms,
	}
	instance, objective := buildSat(constraintClasses(), state)
	return &modelRun{
		plan:      plan,
		state:     state,
		instance:  instance,
		objective: objective,
	}
}

// solve runs the solver under the configured time limit and decodes the model, if any. Unsolved
// outcomes come back as a Result with a diagnostic and no assignments.
func (run *modelRun) solve(ctx context.Context, solver sat.SATSolver, logger *zap.Logger) (Result, []assignment, error) {
	config := run.plan.Config()
	logger.Info("model built",
		zap.Int("sections", len(run.plan.Sections())),
		zap.Uint64("variables", run.instance.Variables),
		zap.Int("clauses", len(run.instance.Clauses)),
		zap.Int("constraints", len(run.instance.Constraints)),
		zap.Int("objective_terms", len(run.instance.Objective)),
	)

	solveCtx, cancel := context.WithTimeout(ctx, config.TimeLimit())
	defer cancel()
	start := time.Now()
	solution, err := solver.Solve(solveCtx, run.instance)
	if err != nil {
		return Result{}, nil, fmt.Errorf("cannot solve model: %w", err)
	}
	logger.Info("solver finished", zap.Stringer("status", solution.Status), zap.Duration("elapsed", time.Since(start)))

	result := Result{
		Variables: run.instance.Variables,
		Clauses:   len(run.instance.Clauses),
	}
	switch solution.Status {
	case sat.Timeout:
		result.Status = StatusTimeout
		result.Diagnostic = timeoutDiagnostic(config.TimeLimit())
		return result, nil, nil
	case sat.Unsatisfiable:
		result.Status = StatusInfeasible
		result.Diagnostic = explain(ctx, run.instance, config.TimeLimit(), logger)
		return result, nil, nil
	case sat.Optimal:
		result.Status = StatusOptimal
	default:
		result.Status = StatusFeasible
	}

	values := solution.Literals.Values(run.instance.Variables)
	assignments, err := decode(values, run.plan, run.state.indexer, run.state.withRooms)
	if err != nil {
		return Result{}, nil, err
	}
	result.Objective = float64(run.objective.evaluate(values)) / weightScale
	logger.Debug("objective reached", zap.Float64("objective", result.Objective), zap.Any("terms", run.objective.breakdown(values)))
	return result, assignments, nil
}
