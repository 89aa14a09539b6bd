package timetable

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/limaJavier/coursetable/pkg/grid"
	"github.com/limaJavier/coursetable/pkg/model"
	"github.com/limaJavier/coursetable/pkg/sat"
)

// assignment is the decision read back for one section. Room stays empty until rooms are assigned.
type assignment struct {
	section int
	option  grid.Interval
	room    string
	faculty string
}

// decode reads exactly one true variable per family and section; anything else breaks the
// exactly-one clauses and is reported as a contract violation.
func decode(values sat.Assignment, plan *Plan, indexer indexer, withRooms bool) ([]assignment, error) {
	violations := make([]string, 0)
	assignments := make([]assignment, 0, len(plan.Sections()))

	for section, domain := range plan.Sections() {
		pick := func(family string, size int, variable func(section, position int) int64) int {
			chosen := make([]int, 0, 1)
			for position := range size {
				if values.Holds(variable(section, position)) {
					chosen = append(chosen, position)
				}
			}
			if len(chosen) != 1 {
				violations = append(violations, fmt.Sprintf("section %v has %d %s values instead of one", domain.Key(), len(chosen), family))
				return -1
			}
			return chosen[0]
		}

		option := pick("time", len(domain.Options), indexer.Time)
		room := -1
		if withRooms {
			room = pick("room", len(domain.Rooms), indexer.Room)
		}
		faculty := pick("faculty", len(domain.Faculty()), indexer.Faculty)
		if option < 0 || faculty < 0 || (withRooms && room < 0) {
			continue
		}

		decoded := assignment{
			section: section,
			option:  domain.Options[option],
			faculty: domain.Faculty()[faculty],
		}
		if room >= 0 {
			decoded.room = domain.Rooms[room]
		}
		assignments = append(assignments, decoded)
	}

	if len(violations) > 0 {
		return nil, model.ContractViolationError{Violations: violations}
	}
	return assignments, nil
}

// entries turns assignments into schedule entries sorted by day, start, course and section.
func entries(plan *Plan, assignments []assignment) []model.ScheduleEntry {
	timeGrid := plan.Grid()
	registry := plan.Registry()

	scheduled := make([]model.ScheduleEntry, 0, len(assignments))
	for _, decoded := range assignments {
		domain := plan.Sections()[decoded.section]
		entry := model.ScheduleEntry{
			CourseCode: domain.Key().Code,
			Section:    domain.Key().Section,
			Day:        decoded.option.Day,
			StartSlot:  decoded.option.Start,
			EndSlot:    decoded.option.End(),
			RoomId:     decoded.room,
			FacultyId:  decoded.faculty,
			CourseName: domain.Course().Name,
			Program:    domain.Course().Program,
			DayName:    timeGrid.DayName(decoded.option.Day),
			StartTime:  timeGrid.ClockString(decoded.option.Start),
			EndTime:    timeGrid.EndClockString(decoded.option.End()),
		}
		if room, ok := registry.Room(decoded.room); ok {
			entry.RoomName = room.Name
		}
		if member, ok := registry.Faculty(decoded.faculty); ok {
			entry.FacultyName = member.Name
		}
		scheduled = append(scheduled, entry)
	}

	slices.SortFunc(scheduled, compareEntries)
	return scheduled
}

func compareEntries(a, b model.ScheduleEntry) int {
	return cmp.Or(
		cmp.Compare(a.Day, b.Day),
		cmp.Compare(a.StartSlot, b.StartSlot),
		cmp.Compare(a.CourseCode, b.CourseCode),
		cmp.Compare(a.Section, b.Section),
	)
}
