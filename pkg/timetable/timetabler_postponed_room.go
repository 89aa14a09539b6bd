package timetable

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/limaJavier/coursetable/pkg/grid"
	"github.com/limaJavier/coursetable/pkg/model"
	"github.com/limaJavier/coursetable/pkg/sat"
	"github.com/onsi/gomega/matchers/support/goraph/bipartitegraph"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// postponedRoomTimetabler leaves rooms out of the model and assigns them once times and faculty
// are fixed. The model only bounds how many sections hold a slot per pool of rooms; when the sweep
// cannot place every section in a room, the plan is solved again with rooms in the model.
type postponedRoomTimetabler struct {
	solver   sat.SATSolver
	logger   *zap.Logger
	fallback Timetabler
}

func NewPostponedRoomTimetabler(solver sat.SATSolver, logger *zap.Logger) Timetabler {
	return &postponedRoomTimetabler{
		solver:   solver,
		logger:   loggerOrNop(logger).With(zap.String("strategy", PostponedStrategy)),
		fallback: NewEmbeddedRoomTimetabler(solver, logger),
	}
}

type unassignableError struct {
	day      string
	start    int
	sections []model.SectionKey
}

func (err unassignableError) Error() string {
	return fmt.Sprintf("sections %v starting at slot %d on %s cannot all be given a free room", err.sections, err.start, err.day)
}

func (timetabler *postponedRoomTimetabler) Build(ctx context.Context, plan *Plan) (Result, error) {
	run := newModelRun(plan, false)

	result, assignments, err := run.solve(ctx, timetabler.solver, timetabler.logger)
	if err != nil || !result.Status.Solved() {
		return result, err
	}

	assignments, err = assignRooms(plan, assignments)
	if unassignable, ok := err.(unassignableError); ok {
		timetabler.logger.Warn("cannot assign rooms, solving with rooms in the model", zap.Error(unassignable))
		return timetabler.fallback.Build(ctx, plan)
	} else if err != nil {
		return Result{}, err
	}

	result.Entries = entries(plan, assignments)
	if err := verify(result.Entries, plan); err != nil {
		return Result{}, err
	}
	return result, nil
}

func (timetabler *postponedRoomTimetabler) Verify(entries []model.ScheduleEntry, plan *Plan) error {
	return verify(entries, plan)
}

func (timetabler *postponedRoomTimetabler) Model(plan *Plan) sat.SAT {
	return newModelRun(plan, false).instance
}

// assignRooms sweeps every day by start slot. Sections starting together are matched against the
// rooms that earlier sections of the day no longer occupy.
func assignRooms(plan *Plan, assignments []assignment) ([]assignment, error) {
	assignments = slices.Clone(assignments)
	slices.SortFunc(assignments, func(a, b assignment) int {
		return cmp.Or(cmp.Compare(a.option.Day, b.option.Day), cmp.Compare(a.option.Start, b.option.Start), cmp.Compare(a.section, b.section))
	})

	dayStart := 0
	for first := 0; first < len(assignments); {
		day, start := assignments[first].option.Day, assignments[first].option.Start
		if assignments[dayStart].option.Day != day {
			dayStart = first
		}
		last := first + 1
		for last < len(assignments) && assignments[last].option.Day == day && assignments[last].option.Start == start {
			last++
		}

		busy := make(map[string]bool)
		for _, earlier := range assignments[dayStart:first] {
			if earlier.option.End() >= start {
				busy[earlier.room] = true
			}
		}
		if err := matchRooms(plan, assignments[first:last], busy); err != nil {
			return nil, err
		}
		first = last
	}
	return assignments, nil
}

// matchRooms gives every assignment of the group a distinct free room of its domain, available
// for the whole interval.
func matchRooms(plan *Plan, group []assignment, busy map[string]bool) error {
	registry := plan.Registry()
	rooms := lo.Uniq(lo.FlatMap(group, func(decoded assignment, _ int) []string {
		return lo.Reject(plan.Sections()[decoded.section].Rooms, func(roomId string, _ int) bool { return busy[roomId] })
	}))
	slices.Sort(rooms)

	neighbors := func(assignmentAny any, roomAny any) (bool, error) {
		decoded := group[assignmentAny.(int)]
		roomId := roomAny.(string)
		if !slices.Contains(plan.Sections()[decoded.section].Rooms, roomId) {
			return false, nil
		}
		room, _ := registry.Room(roomId)
		return grid.Covered(decoded.option, room.Availability), nil
	}

	assignmentsAny := lo.Map(group, func(_ assignment, i int) any { return i })
	roomsAny := lo.Map(rooms, func(room string, _ int) any { return room })

	graph, err := bipartitegraph.NewBipartiteGraph(assignmentsAny, roomsAny, neighbors)
	if err != nil {
		return err
	}

	matching := graph.LargestMatching()
	if len(matching) < len(group) {
		return unassignableError{
			day:   plan.Grid().DayName(group[0].option.Day),
			start: group[0].option.Start,
			sections: lo.Map(group, func(decoded assignment, _ int) model.SectionKey {
				return plan.Sections()[decoded.section].Key()
			}),
		}
	}

	for _, edge := range matching {
		assignmentIndex, roomIndex := edge.Node1, edge.Node2-len(group)
		group[assignmentIndex].room = rooms[roomIndex]
	}
	return nil
}
