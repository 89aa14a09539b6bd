package timetable

import (
	"context"

	"github.com/limaJavier/coursetable/pkg/model"
	"github.com/limaJavier/coursetable/pkg/sat"
	"go.uber.org/zap"
)

// embeddedRoomTimetabler decides rooms together with times and faculty
type embeddedRoomTimetabler struct {
	solver sat.SATSolver
	logger *zap.Logger
}

func NewEmbeddedRoomTimetabler(solver sat.SATSolver, logger *zap.Logger) Timetabler {
	return &embeddedRoomTimetabler{
		solver: solver,
		logger: loggerOrNop(logger).With(zap.String("strategy", EmbeddedStrategy)),
	}
}

func (timetabler *embeddedRoomTimetabler) Build(ctx context.Context, plan *Plan) (Result, error) {
	run := newModelRun(plan, true)

	result, assignments, err := run.solve(ctx, timetabler.solver, timetabler.logger)
	if err != nil || !result.Status.Solved() {
		return result, err
	}

	result.Entries = entries(plan, assignments)
	if err := verify(result.Entries, plan); err != nil {
		return Result{}, err
	}
	return result, nil
}

func (timetabler *embeddedRoomTimetabler) Verify(entries []model.ScheduleEntry, plan *Plan) error {
	return verify(entries, plan)
}

func (timetabler *embeddedRoomTimetabler) Model(plan *Plan) sat.SAT {
	return newModelRun(plan, true).instance
}
