package timetable

import (
	"context"
	"fmt"
	"strings"

	"github.com/limaJavier/coursetable/pkg/model"
	"github.com/limaJavier/coursetable/pkg/sat"
	"go.uber.org/zap"
)

type Status string

const (
	StatusOptimal    Status = "OPTIMAL"
	StatusFeasible   Status = "FEASIBLE"
	StatusInfeasible Status = "INFEASIBLE"
	StatusTimeout    Status = "TIMEOUT_NO_SOLUTION"
)

// Solved reports whether the status carries a schedule.
func (status Status) Solved() bool {
	return status == StatusOptimal || status == StatusFeasible
}

// Result is the outcome of one solve. Infeasibility and timeouts are results, not errors.
type Result struct {
	Status     Status                `json:"status"`
	Entries    []model.ScheduleEntry `json:"entries"`
	Objective  float64               `json:"objective"`
	Variables  uint64                `json:"variables"`
	Clauses    int                   `json:"clauses"`
	Diagnostic *Diagnostic           `json:"diagnostic,omitempty"`
}

type Timetabler interface {
	// Builds and solves the model of the plan within the configured time limit
	Build(ctx context.Context, plan *Plan) (Result, error)

	// Checks a schedule against every hard constraint of the plan
	Verify(entries []model.ScheduleEntry, plan *Plan) error

	// Returns the instance Build would hand to the solver
	Model(plan *Plan) sat.SAT
}

const (
	EmbeddedStrategy  = "embedded"
	PostponedStrategy = "postponed"
)

func Strategies() []string {
	return []string{EmbeddedStrategy, PostponedStrategy}
}

// NewTimetabler returns the timetabler of the named strategy; an empty name selects the embedded one.
func NewTimetabler(strategy string, solver sat.SATSolver, logger *zap.Logger) (Timetabler, error) {
	switch strings.ToLower(strings.TrimSpace(strategy)) {
	case "", EmbeddedStrategy:
		return NewEmbeddedRoomTimetabler(solver, logger), nil
	case PostponedStrategy:
		return NewPostponedRoomTimetabler(solver, logger), nil
	default:
		return nil, fmt.Errorf("unknown strategy %q, expected one of %v", strategy, Strategies())
	}
}

func loggerOrNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
