package timetable

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/limaJavier/coursetable/pkg/grid"
	"github.com/limaJavier/coursetable/pkg/sat"
	"github.com/samber/lo"
)

// Constraint classes tag the clauses they generate so that infeasibility can be traced back to them.
// Untagged clauses (the exactly-one structure of every domain) are always enforced.
const (
	roomTag         = "room"
	facultyTag      = "faculty"
	facultyLoadTag  = "faculty-load"
	studentTag      = "student"
	availabilityTag = "availability"
)

type constraintState struct {
	plan      *Plan
	evaluator predicateEvaluator
	indexer   indexer
	withRooms bool
}

type constraintClass struct {
	tag     string
	clauses func(state constraintState) [][]int64
}

// Every section takes exactly one time option, one room and one faculty member
func domainConstraints(state constraintState) [][]int64 {
	clauses := make([][]int64, 0)
	for section, domain := range state.plan.Sections() {
		clauses = append(clauses, exactlyOne(len(domain.Options), func(option int) int64 { return state.indexer.Time(section, option) })...)
		if state.withRooms {
			clauses = append(clauses, exactlyOne(len(domain.Rooms), func(room int) int64 { return state.indexer.Room(section, room) })...)
		}
		clauses = append(clauses, exactlyOne(len(domain.Faculty()), func(faculty int) int64 { return state.indexer.Faculty(section, faculty) })...)
	}
	return clauses
}

func exactlyOne(size int, variable func(position int) int64) [][]int64 {
	clauses := make([][]int64, 0, 1+size*(size-1)/2)
	atLeastOne := make([]int64, 0, size)
	for i := range size {
		atLeastOne = append(atLeastOne, variable(i))
	}
	clauses = append(clauses, atLeastOne)
	for i := range size {
		for j := i + 1; j < size; j++ {
			clauses = append(clauses, []int64{-variable(i), -variable(j)})
		}
	}
	return clauses
}

// Two sections holding the same room never overlap
func roomConstraints(state constraintState) [][]int64 {
	clauses := make([][]int64, 0)
	if !state.withRooms {
		return clauses
	}
	for _, pair := range state.evaluator.RoomPairs() {
		section1, section2 := pair[0], pair[1]
		if !state.evaluator.CanOverlap(section1, section2) {
			continue
		}
		shared := state.evaluator.SharedRooms(section1, section2)
		forEachOverlap(state, section1, section2, func(time1, time2 int64) {
			for _, rooms := range shared {
				clauses = append(clauses, []int64{-time1, -time2, -state.indexer.Room(section1, rooms[0]), -state.indexer.Room(section2, rooms[1])})
			}
		})
	}
	return clauses
}

// Two sections taught by the same faculty member never overlap
func facultyConstraints(state constraintState) [][]int64 {
	clauses := make([][]int64, 0)
	for _, pair := range state.evaluator.FacultyPairs() {
		section1, section2 := pair[0], pair[1]
		if !state.evaluator.CanOverlap(section1, section2) {
			continue
		}
		shared := state.evaluator.SharedFaculty(section1, section2)
		forEachOverlap(state, section1, section2, func(time1, time2 int64) {
			for _, faculty := range shared {
				clauses = append(clauses, []int64{-time1, -time2, -state.indexer.Faculty(section1, faculty[0]), -state.indexer.Faculty(section2, faculty[1])})
			}
		})
	}
	return clauses
}

// Two sections sharing a student never overlap
func studentConstraints(state constraintState) [][]int64 {
	clauses := make([][]int64, 0)
	for _, pair := range state.evaluator.StudentPairs() {
		section1, section2 := pair[0], pair[1]
		if !state.evaluator.CanOverlap(section1, section2) {
			continue
		}
		forEachOverlap(state, section1, section2, func(time1, time2 int64) {
			clauses = append(clauses, []int64{-time1, -time2})
		})
	}
	return clauses
}

func forEachOverlap(state constraintState, section1, section2 int, do func(time1, time2 int64)) {
	domains := state.plan.Sections()
	for option1 := range domains[section1].Options {
		for option2 := range domains[section2].Options {
			if state.evaluator.Overlap(section1, option1, section2, option2) {
				do(state.indexer.Time(section1, option1), state.indexer.Time(section2, option2))
			}
		}
	}
}

// A section's time option lies inside an availability window of its room. Without room variables,
// options during which no room of the domain is available are forbidden instead.
func roomAvailabilityConstraints(state constraintState) [][]int64 {
	clauses := make([][]int64, 0)
	for section, domain := range state.plan.Sections() {
		for option := range domain.Options {
			available := false
			for room := range domain.Rooms {
				if state.evaluator.RoomAvailable(section, option, room) {
					available = true
				} else if state.withRooms {
					clauses = append(clauses, []int64{-state.indexer.Time(section, option), -state.indexer.Room(section, room)})
				}
			}
			if !available && !state.withRooms {
				clauses = append(clauses, []int64{-state.indexer.Time(section, option)})
			}
		}
	}
	return clauses
}

// A section's time option lies inside an availability window of its faculty member
func facultyAvailabilityConstraints(state constraintState) [][]int64 {
	clauses := make([][]int64, 0)
	for section, domain := range state.plan.Sections() {
		for option := range domain.Options {
			for faculty := range domain.Faculty() {
				if !state.evaluator.FacultyAvailable(section, option, faculty) {
					clauses = append(clauses, []int64{-state.indexer.Time(section, option), -state.indexer.Faculty(section, faculty)})
				}
			}
		}
	}
	return clauses
}

// The weekly teaching time of a faculty member stays within max_load hours, measured in slots.
// Faculty without a load limit or who cannot exceed it are skipped.
func facultyLoadConstraints(state constraintState) []sat.Linear {
	registry := state.plan.Registry()
	slotMinutes := state.plan.Grid().SlotMinutes
	terms := make(map[string][]sat.Term)
	for section, domain := range state.plan.Sections() {
		for faculty, facultyId := range domain.Faculty() {
			terms[facultyId] = append(terms[facultyId], sat.Term{
				Literal: state.indexer.Faculty(section, faculty),
				Weight:  uint64(domain.Course().DurationSlots),
			})
		}
	}

	constraints := make([]sat.Linear, 0)
	for _, facultyId := range registry.FacultyIds() {
		member, _ := registry.Faculty(facultyId)
		if member.MaxLoad == 0 || len(terms[facultyId]) == 0 {
			continue
		}
		bound := uint64(member.MaxLoad * 60 / slotMinutes)
		var total uint64
		for _, term := range terms[facultyId] {
			total += term.Weight
		}
		if total <= bound {
			continue
		}
		constraints = append(constraints, sat.Linear{Terms: terms[facultyId], Bound: bound, Tag: facultyLoadTag})
	}
	return constraints
}

// Without room variables, the sections holding a slot never outnumber the rooms able to host them.
// Every distinct room domain acts as a pool: the sections whose domain lies inside the pool compete
// for the pool's rooms available during that slot.
func roomOccupancyConstraints(state constraintState) []sat.Linear {
	constraints := make([]sat.Linear, 0)
	if state.withRooms {
		return constraints
	}
	registry := state.plan.Registry()
	timeGrid := state.plan.Grid()
	domains := state.plan.Sections()

	pools := lo.UniqBy(lo.Map(domains, func(domain SectionDomain, _ int) []string { return domain.Rooms }), func(rooms []string) string {
		return strings.Join(rooms, ",")
	})
	slices.SortFunc(pools, func(a, b []string) int {
		return cmp.Or(cmp.Compare(len(a), len(b)), slices.Compare(a, b))
	})

	seen := make(map[string]bool)
	for _, pool := range pools {
		members := make([]int, 0)
		for section, domain := range domains {
			if lo.Every(pool, domain.Rooms) {
				members = append(members, section)
			}
		}

		for day := range timeGrid.Days {
			for slot := 1; slot <= timeGrid.SlotsPerDay; slot++ {
				terms := make([]sat.Term, 0)
				for _, section := range members {
					for option, interval := range domains[section].Options {
						if interval.Day == day && interval.Start <= slot && slot <= interval.End() {
							terms = append(terms, sat.Term{Literal: state.indexer.Time(section, option), Weight: 1})
						}
					}
				}
				available := lo.CountBy(pool, func(roomId string) bool {
					room, _ := registry.Room(roomId)
					return grid.Covered(grid.Interval{Day: day, Start: slot, Duration: 1}, room.Availability)
				})
				if len(terms) <= available {
					continue
				}

				key := fmt.Sprint(terms, available)
				if seen[key] {
					continue
				}
				seen[key] = true
				constraints = append(constraints, sat.Linear{Terms: terms, Bound: uint64(available), Tag: roomTag})
			}
		}
	}
	return constraints
}
