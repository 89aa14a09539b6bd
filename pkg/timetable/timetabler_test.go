package timetable

import (
	"context"
	"slices"
	"testing"

	"github.com/limaJavier/coursetable/pkg/grid"
	"github.com/limaJavier/coursetable/pkg/model"
	"github.com/limaJavier/coursetable/pkg/sat"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const (
	sampleCatalogFile = "../../test/catalogs/sample.json"
	sampleConfigFile  = "../../test/config/constraints.json"
)

func forEachTimetabler(t *testing.T, test func(t *testing.T, timetabler Timetabler)) {
	for _, solverName := range sat.SolverNames() {
		for _, strategy := range Strategies() {
			t.Run(solverName+"/"+strategy, func(t *testing.T) {
				solver, err := sat.NewSolver(solverName)
				require.NoError(t, err)
				timetabler, err := NewTimetabler(strategy, solver, zaptest.NewLogger(t))
				require.NoError(t, err)

				test(t, timetabler)
			})
		}
	}
}

func weekWindows(from, to int) []grid.Window {
	windows := make([]grid.Window, 0, 5)
	for day := range 5 {
		windows = append(windows, grid.Window{Day: day, From: from, To: to})
	}
	return windows
}

func course(code string, duration int, starts []int, roomType string, pool ...string) model.Course {
	return model.Course{
		Code:              code,
		Name:              code,
		Type:              model.Major,
		Section:           model.DefaultSection,
		DurationSlots:     duration,
		RoomType:          roomType,
		AllowedDays:       []int{0},
		AllowedStartSlots: starts,
		FacultyPool:       pool,
	}
}

func room(id, roomType string, capacity int) model.Room {
	return model.Room{Id: id, Name: "Room " + id, Capacity: capacity, Type: roomType, Availability: weekWindows(1, 16)}
}

func faculty(id string, maxLoad int) model.Faculty {
	return model.Faculty{Id: id, Name: "Faculty " + id, Availability: weekWindows(1, 16), MaxLoad: maxLoad}
}

func student(id string, courses ...string) model.Student {
	return model.Student{Id: id, Name: "Student " + id, ChosenCourses: courses}
}

func selectAll(studentId string, courses ...string) []model.Selection {
	selections := make([]model.Selection, 0, len(courses))
	for _, code := range courses {
		selections = append(selections, model.Selection{StudentId: studentId, CourseCode: code, Section: model.DefaultSection})
	}
	return selections
}

func newTestPlan(t *testing.T, catalog model.Catalog, config model.Config) *Plan {
	registry, err := model.NewRegistry(catalog, config, zaptest.NewLogger(t))
	require.NoError(t, err)
	plan, err := NewPlan(registry, catalog.Selections)
	require.NoError(t, err)
	return plan
}

func samplePlan(t *testing.T) (*model.Registry, model.Catalog) {
	config, err := model.ConfigFromFile(sampleConfigFile)
	require.NoError(t, err)
	config.TimeLimitSec = 60
	catalog, err := model.CatalogFromFile(sampleCatalogFile, config)
	require.NoError(t, err)
	registry, err := model.NewRegistry(catalog, config, zaptest.NewLogger(t))
	require.NoError(t, err)
	return registry, catalog
}

func TestSingleSection(t *testing.T) {
	catalog := model.Catalog{
		Courses:    []model.Course{course("CS101", 4, []int{1, 5, 9}, "Lab", "f1")},
		Rooms:      []model.Room{room("r1", "Lab", 30)},
		Faculty:    []model.Faculty{faculty("f1", 20)},
		Students:   []model.Student{student("s1", "CS101")},
		Selections: selectAll("s1", "CS101"),
	}
	plan := newTestPlan(t, catalog, model.DefaultConfig())

	forEachTimetabler(t, func(t *testing.T, timetabler Timetabler) {
		result, err := timetabler.Build(context.Background(), plan)

		require.NoError(t, err)
		require.Equal(t, StatusOptimal, result.Status)
		require.Len(t, result.Entries, 1)
		entry := result.Entries[0]
		assert.Equal(t, 0, entry.Day)
		assert.Equal(t, 1, entry.StartSlot)
		assert.Equal(t, entry.StartSlot+3, entry.EndSlot)
		assert.Equal(t, "r1", entry.RoomId)
		assert.Equal(t, "f1", entry.FacultyId)
		assert.Equal(t, "Mon", entry.DayName)
		assert.Equal(t, "08:00", entry.StartTime)
		assert.Equal(t, "10:00", entry.EndTime)
		assert.Equal(t, 0.0, result.Objective)
		assert.Nil(t, result.Diagnostic)
		assert.NoError(t, timetabler.Verify(result.Entries, plan))
	})
}

func TestSharedStudentSingleRoom(t *testing.T) {
	catalog := func(starts []int) model.Catalog {
		return model.Catalog{
			Courses: []model.Course{
				course("CS101", 4, starts, "Lab", "f1"),
				course("CS102", 4, starts, "Lab", "f2"),
			},
			Rooms:      []model.Room{room("r1", "Lab", 30)},
			Faculty:    []model.Faculty{faculty("f1", 20), faculty("f2", 20)},
			Students:   []model.Student{student("s1", "CS101", "CS102")},
			Selections: selectAll("s1", "CS101", "CS102"),
		}
	}

	t.Run("Distinct starts", func(t *testing.T) {
		plan := newTestPlan(t, catalog([]int{1, 5}), model.DefaultConfig())

		forEachTimetabler(t, func(t *testing.T, timetabler Timetabler) {
			result, err := timetabler.Build(context.Background(), plan)

			require.NoError(t, err)
			require.True(t, result.Status.Solved())
			require.Len(t, result.Entries, 2)
			assert.Equal(t, 1, result.Entries[0].StartSlot)
			assert.Equal(t, 5, result.Entries[1].StartSlot)
			assert.Equal(t, 4.0, result.Objective)
		})
	})

	t.Run("Every start pair overlaps", func(t *testing.T) {
		plan := newTestPlan(t, catalog([]int{1, 3}), model.DefaultConfig())

		forEachTimetabler(t, func(t *testing.T, timetabler Timetabler) {
			result, err := timetabler.Build(context.Background(), plan)

			require.NoError(t, err)
			require.Equal(t, StatusInfeasible, result.Status)
			assert.Empty(t, result.Entries)
			require.NotNil(t, result.Diagnostic)
			require.Len(t, result.Diagnostic.Classes, 1)
			assert.Contains(t, []string{roomTag, studentTag}, result.Diagnostic.Classes[0])
			assert.NotEmpty(t, result.Diagnostic.Message)
		})
	})
}

func TestPinnedFacultyOutsidePool(t *testing.T) {
	catalog := model.Catalog{
		Courses:    []model.Course{course("CS101", 4, []int{1, 5, 9}, "Lab", "f1")},
		Rooms:      []model.Room{room("r1", "Lab", 30)},
		Faculty:    []model.Faculty{faculty("f1", 20), faculty("f2", 20)},
		Students:   []model.Student{student("s1", "CS101")},
		Selections: []model.Selection{{StudentId: "s1", CourseCode: "CS101", FacultyId: "f2"}},
	}
	registry, err := model.NewRegistry(catalog, model.DefaultConfig(), nil)
	require.NoError(t, err)

	plan, err := NewPlan(registry, catalog.Selections)

	assert.Nil(t, plan)
	assert.ErrorIs(t, err, model.ErrNoEligibleFaculty)
}

func TestZeroTimeLimit(t *testing.T) {
	config := model.DefaultConfig()
	config.TimeLimitSec = 0
	catalog := model.Catalog{
		Courses:    []model.Course{course("CS101", 4, []int{1, 5, 9}, "Lab", "f1")},
		Rooms:      []model.Room{room("r1", "Lab", 30)},
		Faculty:    []model.Faculty{faculty("f1", 20)},
		Students:   []model.Student{student("s1", "CS101")},
		Selections: selectAll("s1", "CS101"),
	}
	plan := newTestPlan(t, catalog, config)

	forEachTimetabler(t, func(t *testing.T, timetabler Timetabler) {
		result, err := timetabler.Build(context.Background(), plan)

		require.NoError(t, err)
		assert.Contains(t, []Status{StatusOptimal, StatusFeasible, StatusTimeout}, result.Status)
		if result.Status == StatusTimeout {
			assert.Empty(t, result.Entries)
			require.NotNil(t, result.Diagnostic)
			assert.Empty(t, result.Diagnostic.Classes)
		}
	})
}

func TestEmptyRoomDomain(t *testing.T) {
	catalog := model.Catalog{
		Courses:    []model.Course{course("CS101", 4, []int{1}, "Lab", "f1")},
		Rooms:      []model.Room{room("r1", "Lab", 1)},
		Faculty:    []model.Faculty{faculty("f1", 20)},
		Students:   []model.Student{student("s1", "CS101"), student("s2", "CS101")},
		Selections: append(selectAll("s1", "CS101"), selectAll("s2", "CS101")...),
	}
	registry, err := model.NewRegistry(catalog, model.DefaultConfig(), nil)
	require.NoError(t, err)

	_, err = NewPlan(registry, catalog.Selections)

	require.ErrorIs(t, err, model.ErrEmptyDomain)
	assert.Contains(t, err.Error(), "room")
}

func TestFacultyLoad(t *testing.T) {
	catalog := model.Catalog{
		Courses: []model.Course{
			course("CS101", 4, []int{1, 9}, "Lab", "f1"),
			course("CS102", 4, []int{1, 9}, "Lab", "f1"),
		},
		Rooms:      []model.Room{room("r1", "Lab", 30), room("r2", "Lab", 30)},
		Faculty:    []model.Faculty{faculty("f1", 3)},
		Students:   []model.Student{student("s1", "CS101"), student("s2", "CS102")},
		Selections: append(selectAll("s1", "CS101"), selectAll("s2", "CS102")...),
	}
	plan := newTestPlan(t, catalog, model.DefaultConfig())

	forEachTimetabler(t, func(t *testing.T, timetabler Timetabler) {
		result, err := timetabler.Build(context.Background(), plan)

		require.NoError(t, err)
		require.Equal(t, StatusInfeasible, result.Status)
		require.NotNil(t, result.Diagnostic)
		assert.Equal(t, []string{facultyLoadTag}, result.Diagnostic.Classes)
	})
}

func TestRoomShortage(t *testing.T) {
	// No student nor faculty in common, so only the single room keeps the sections apart
	catalog := model.Catalog{
		Courses: []model.Course{
			course("CS101", 4, []int{1}, "Lab", "f1"),
			course("CS102", 4, []int{1}, "Lab", "f2"),
		},
		Rooms:      []model.Room{room("r1", "Lab", 30)},
		Faculty:    []model.Faculty{faculty("f1", 20), faculty("f2", 20)},
		Students:   []model.Student{student("s1", "CS101"), student("s2", "CS102")},
		Selections: append(selectAll("s1", "CS101"), selectAll("s2", "CS102")...),
	}
	plan := newTestPlan(t, catalog, model.DefaultConfig())

	forEachTimetabler(t, func(t *testing.T, timetabler Timetabler) {
		result, err := timetabler.Build(context.Background(), plan)

		require.NoError(t, err)
		require.Equal(t, StatusInfeasible, result.Status)
		require.NotNil(t, result.Diagnostic)
		assert.Equal(t, []string{roomTag}, result.Diagnostic.Classes)
	})
}

func TestSingleRoomSequentialSections(t *testing.T) {
	// One room suffices once the sections take different starts
	catalog := model.Catalog{
		Courses: []model.Course{
			course("CS101", 4, []int{1, 5}, "Lab", "f1"),
			course("CS102", 4, []int{1, 5}, "Lab", "f2"),
		},
		Rooms:      []model.Room{room("r1", "Lab", 30)},
		Faculty:    []model.Faculty{faculty("f1", 20), faculty("f2", 20)},
		Students:   []model.Student{student("s1", "CS101"), student("s2", "CS102")},
		Selections: append(selectAll("s1", "CS101"), selectAll("s2", "CS102")...),
	}
	plan := newTestPlan(t, catalog, model.DefaultConfig())

	forEachTimetabler(t, func(t *testing.T, timetabler Timetabler) {
		result, err := timetabler.Build(context.Background(), plan)

		require.NoError(t, err)
		require.True(t, result.Status.Solved(), "status %s", result.Status)
		require.Len(t, result.Entries, 2)
		assert.Nil(t, result.Diagnostic)
		assert.Equal(t, []int{1, 5}, []int{result.Entries[0].StartSlot, result.Entries[1].StartSlot})
		assert.Equal(t, "r1", result.Entries[0].RoomId)
		assert.Equal(t, "r1", result.Entries[1].RoomId)
		assert.NoError(t, timetabler.Verify(result.Entries, plan))
	})
}

func TestSampleCatalog(t *testing.T) {
	registry, catalog := samplePlan(t)
	plan, err := NewPlan(registry, catalog.Selections)
	require.NoError(t, err)

	forEachTimetabler(t, func(t *testing.T, timetabler Timetabler) {
		result, err := timetabler.Build(context.Background(), plan)

		require.NoError(t, err)
		require.Equal(t, StatusOptimal, result.Status)
		require.Len(t, result.Entries, len(plan.Sections()))
		assert.NoError(t, timetabler.Verify(result.Entries, plan))
		assert.True(t, slices.IsSortedFunc(result.Entries, compareEntries))

		t.Run("No double booking", func(t *testing.T) {
			for i, a := range result.Entries {
				for _, b := range result.Entries[i+1:] {
					if !grid.SlotsOverlap(a.Day, a.StartSlot, a.EndSlot-a.StartSlot+1, b.Day, b.StartSlot, b.EndSlot-b.StartSlot+1) {
						continue
					}
					assert.NotEqual(t, a.RoomId, b.RoomId)
					assert.NotEqual(t, a.FacultyId, b.FacultyId)
					domainA, _ := plan.Section(a.Key())
					domainB, _ := plan.Section(b.Key())
					assert.Empty(t, sharedPositions(domainA.Section.Students, domainB.Section.Students))
				}
			}
		})

		t.Run("Domain compliance", func(t *testing.T) {
			for _, entry := range result.Entries {
				course, ok := registry.Course(entry.Key())
				require.True(t, ok)
				room, ok := registry.Room(entry.RoomId)
				require.True(t, ok)
				member, ok := registry.Faculty(entry.FacultyId)
				require.True(t, ok)

				assert.Contains(t, course.AllowedDays, entry.Day)
				assert.Contains(t, course.AllowedStartSlots, entry.StartSlot)
				assert.Equal(t, entry.StartSlot+course.DurationSlots-1, entry.EndSlot)
				assert.Equal(t, course.RoomType, room.Type)
				assert.Contains(t, course.FacultyPool, entry.FacultyId)
				assert.True(t, grid.Covered(entry.Interval(), room.Availability))
				assert.True(t, grid.Covered(entry.Interval(), member.Availability))
			}
		})

		t.Run("Determinism", func(t *testing.T) {
			again, err := timetabler.Build(context.Background(), plan)

			require.NoError(t, err)
			assert.Equal(t, result, again)
		})
	})
}

func TestMonotonicFeasibility(t *testing.T) {
	registry, catalog := samplePlan(t)

	forEachTimetabler(t, func(t *testing.T, timetabler Timetabler) {
		for i := range catalog.Selections {
			selections := slices.Delete(slices.Clone(catalog.Selections), i, i+1)
			plan, err := NewPlan(registry, selections)
			require.NoError(t, err)

			result, err := timetabler.Build(context.Background(), plan)

			require.NoError(t, err)
			require.True(t, result.Status.Solved(), "without selection %d", i)
			assert.NoError(t, timetabler.Verify(result.Entries, plan))
		}
	})
}

func TestSampleCatalogWithoutSelections(t *testing.T) {
	registry, _ := samplePlan(t)
	plan, err := NewPlan(registry, nil)
	require.NoError(t, err)

	forEachTimetabler(t, func(t *testing.T, timetabler Timetabler) {
		result, err := timetabler.Build(context.Background(), plan)

		require.NoError(t, err)
		require.Equal(t, StatusInfeasible, result.Status)
		require.NotNil(t, result.Diagnostic)
		assert.Equal(t, []string{availabilityTag}, result.Diagnostic.Classes)
		assert.Contains(t, result.Diagnostic.Message, "availability")
	})
}

func TestVerifyReportsViolations(t *testing.T) {
	catalog := model.Catalog{
		Courses: []model.Course{
			course("CS101", 4, []int{1, 5}, "Lab", "f1"),
			course("CS102", 4, []int{1, 5}, "Lab", "f1"),
		},
		Rooms:      []model.Room{room("r1", "Lab", 30)},
		Faculty:    []model.Faculty{faculty("f1", 20)},
		Students:   []model.Student{student("s1", "CS101", "CS102")},
		Selections: selectAll("s1", "CS101", "CS102"),
	}
	plan := newTestPlan(t, catalog, model.DefaultConfig())
	entry := func(code string, start int) model.ScheduleEntry {
		return model.ScheduleEntry{CourseCode: code, Section: "A", Day: 0, StartSlot: start, EndSlot: start + 3, RoomId: "r1", FacultyId: "f1"}
	}

	assert.NoError(t, verify([]model.ScheduleEntry{entry("CS101", 1), entry("CS102", 5)}, plan))

	err := verify([]model.ScheduleEntry{entry("CS101", 1), entry("CS102", 1)}, plan)
	require.ErrorIs(t, err, model.ErrContractViolation)
	var violation model.ContractViolationError
	require.ErrorAs(t, err, &violation)
	assert.Len(t, violation.Violations, 3)

	err = verify([]model.ScheduleEntry{entry("CS101", 2)}, plan)
	require.ErrorAs(t, err, &violation)
	assert.Contains(t, err.Error(), "unallowed day")
	assert.Contains(t, err.Error(), "CS102/A is not scheduled")
}

func TestModelExport(t *testing.T) {
	registry, catalog := samplePlan(t)
	plan, err := NewPlan(registry, catalog.Selections)
	require.NoError(t, err)

	embedded := NewEmbeddedRoomTimetabler(sat.NewGiniSolver(), nil).Model(plan)
	postponed := NewPostponedRoomTimetabler(sat.NewGiniSolver(), nil).Model(plan)

	require.NoError(t, embedded.Validate())
	require.NoError(t, postponed.Validate())
	assert.Greater(t, embedded.Variables, postponed.Variables)
	assert.Equal(t, embedded, NewEmbeddedRoomTimetabler(sat.NewGophersatSolver(), nil).Model(plan))
	assert.ElementsMatch(t, []string{availabilityTag, facultyTag, roomTag, studentTag}, embedded.TagNames())
	assert.NotContains(t, postponed.Tags, roomTag)
	for _, constraint := range postponed.Constraints {
		if constraint.Tag == roomTag {
			assert.True(t, lo.EveryBy(constraint.Terms, func(term sat.Term) bool { return term.Weight == 1 }))
			assert.Less(t, constraint.Bound, uint64(len(constraint.Terms)))
		}
	}
}

func TestRoomOccupancyConstraints(t *testing.T) {
	catalog := model.Catalog{
		Courses: []model.Course{
			course("CS101", 4, []int{1, 5}, "Lab", "f1"),
			course("CS102", 4, []int{1, 5}, "Lab", "f2"),
		},
		Rooms:      []model.Room{room("r1", "Lab", 30)},
		Faculty:    []model.Faculty{faculty("f1", 20), faculty("f2", 20)},
		Students:   []model.Student{student("s1", "CS101"), student("s2", "CS102")},
		Selections: append(selectAll("s1", "CS101"), selectAll("s2", "CS102")...),
	}
	plan := newTestPlan(t, catalog, model.DefaultConfig())

	postponed := NewPostponedRoomTimetabler(sat.NewGiniSolver(), nil).Model(plan)
	embedded := NewEmbeddedRoomTimetabler(sat.NewGiniSolver(), nil).Model(plan)

	// Slots 1-4 and 5-8 each admit one of the two sections
	rooms := lo.Filter(postponed.Constraints, func(constraint sat.Linear, _ int) bool { return constraint.Tag == roomTag })
	require.Len(t, rooms, 2)
	for _, constraint := range rooms {
		assert.Len(t, constraint.Terms, 2)
		assert.Equal(t, uint64(1), constraint.Bound)
	}
	assert.Empty(t, lo.Filter(embedded.Constraints, func(constraint sat.Linear, _ int) bool { return constraint.Tag == roomTag }))
}

func TestSolversAgreeOnSchedule(t *testing.T) {
	config := model.DefaultConfig()
	config.SoftWeights[model.WeightAvoidGaps] = 1
	catalog := model.Catalog{
		Courses: []model.Course{
			course("CS101", 2, []int{1, 3, 5, 7}, "Lab", "f1"),
			course("CS102", 2, []int{1, 3, 5, 7}, "Lab", "f1"),
			course("CS103", 2, []int{1, 3, 5, 7}, "Lab", "f1"),
		},
		Rooms:      []model.Room{room("r1", "Lab", 30), room("r2", "Lab", 30)},
		Faculty:    []model.Faculty{faculty("f1", 20)},
		Students:   []model.Student{student("s1", "CS101", "CS102", "CS103")},
		Selections: selectAll("s1", "CS101", "CS102", "CS103"),
	}
	plan := newTestPlan(t, catalog, config)

	for _, strategy := range Strategies() {
		t.Run(strategy, func(t *testing.T) {
			results := make(map[string]Result)
			for _, solverName := range sat.SolverNames() {
				solver, err := sat.NewSolver(solverName)
				require.NoError(t, err)
				timetabler, err := NewTimetabler(strategy, solver, zaptest.NewLogger(t))
				require.NoError(t, err)

				result, err := timetabler.Build(context.Background(), plan)

				require.NoError(t, err, solverName)
				require.Equal(t, StatusOptimal, result.Status, solverName)
				assert.NoError(t, timetabler.Verify(result.Entries, plan), solverName)
				results[solverName] = result
			}

			gini, gophersat := results[sat.GiniSolverName], results[sat.GophersatSolverName]
			assert.Equal(t, gini.Status, gophersat.Status)
			assert.Equal(t, gini.Objective, gophersat.Objective)
			assert.Greater(t, gini.Objective, 0.0)
		})
	}
}

func TestNewTimetabler(t *testing.T) {
	for _, strategy := range append(Strategies(), "", " Postponed ") {
		timetabler, err := NewTimetabler(strategy, sat.NewGiniSolver(), nil)
		require.NoError(t, err, strategy)
		assert.NotNil(t, timetabler)
	}

	_, err := NewTimetabler("isolated", sat.NewGiniSolver(), nil)
	assert.Error(t, err)
}
