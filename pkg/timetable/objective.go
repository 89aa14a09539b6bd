package timetable

import (
	"fmt"
	"math"
	"slices"

	"github.com/limaJavier/coursetable/pkg/model"
	"github.com/limaJavier/coursetable/pkg/sat"
	"github.com/samber/lo"
)

// Soft weights are turned into integer costs: one weight unit per slot is worth weightScale cost units.
const weightScale = 10

// costEntry charges its cost when every condition holds and no between conjunction does.
type costEntry struct {
	conditions []int64
	between    [][]int64
	cost       uint64
}

// costGroup gathers entries of which at most one can be charged in any model, e.g. the time options
// of one section. Groups are encoded in order (unary) form so that the objective grows with the
// largest cost of a group rather than with the sum of its entries.
type costGroup struct {
	term    string
	entries []costEntry
}

type softObjective struct {
	groups []costGroup
}

func buildObjective(state constraintState) softObjective {
	config := state.plan.Config()
	groups := make([]costGroup, 0)
	groups = append(groups, timeOfDayGroups(state, config.Weight(model.WeightPreferMorning)-config.Weight(model.WeightPreferAfternoon))...)
	groups = append(groups, studentGapGroups(state, config.Weight(model.WeightAvoidGaps))...)
	groups = append(groups, facultyGapGroups(state, config.Weight(model.WeightAvoidGaps))...)
	groups = append(groups, roomUtilizationGroups(state, config.Weight(model.WeightRoomCapacityUtilization))...)
	groups = append(groups, facultyLoadBalanceGroups(state, config.Weight(model.WeightFacultyLoadBalance))...)

	return softObjective{groups: lo.Filter(groups, func(group costGroup, _ int) bool {
		return lo.SomeBy(group.entries, func(entry costEntry) bool { return entry.cost > 0 })
	})}
}

func scaled(weight float64, units float64) uint64 {
	return uint64(math.Round(weight * units * weightScale))
}

// Earlier starts cost less when prefer_morning dominates, later ones when prefer_afternoon does
func timeOfDayGroups(state constraintState, net float64) []costGroup {
	groups := make([]costGroup, 0)
	if scaled(math.Abs(net), 1) == 0 {
		return groups
	}
	slotsPerDay := state.plan.Grid().SlotsPerDay
	for section, domain := range state.plan.Sections() {
		lastStart := slotsPerDay - domain.Course().DurationSlots + 1
		group := costGroup{term: "time-of-day"}
		for option, interval := range domain.Options {
			delay := interval.Start - 1
			if net < 0 {
				delay = lastStart - interval.Start
			}
			group.entries = append(group.entries, costEntry{
				conditions: []int64{state.indexer.Time(section, option)},
				cost:       scaled(math.Abs(net), float64(delay)),
			})
		}
		groups = append(groups, group)
	}
	return groups
}

// The idle slots between two consecutive sections of a student. Students attending the same
// sections share one group whose cost is multiplied by their number.
func studentGapGroups(state constraintState, weight float64) []costGroup {
	groups := make([]costGroup, 0)
	if scaled(weight, 1) == 0 {
		return groups
	}

	attended := make(map[string][]int)
	for section, domain := range state.plan.Sections() {
		for _, studentId := range domain.Section.Students {
			attended[studentId] = append(attended[studentId], section)
		}
	}
	multiplicity := make(map[string]int)
	order := make([][]int, 0)
	for _, studentId := range lo.Keys(attended) {
		key := fmt.Sprint(attended[studentId])
		if multiplicity[key] == 0 {
			order = append(order, attended[studentId])
		}
		multiplicity[key]++
	}
	slices.SortFunc(order, slices.Compare[[]int])

	for _, sections := range order {
		count := multiplicity[fmt.Sprint(sections)]
		for _, pair := range pairsOf(sections) {
			groups = append(groups, gapGroup(state, pair, sections, scaled(weight, float64(count)), nil))
		}
	}
	return groups
}

// The idle slots between two consecutive sections of a faculty member
func facultyGapGroups(state constraintState, weight float64) []costGroup {
	groups := make([]costGroup, 0)
	if scaled(weight, 1) == 0 {
		return groups
	}

	teachable := make(map[string][]int)
	for section, domain := range state.plan.Sections() {
		for _, facultyId := range domain.Faculty() {
			teachable[facultyId] = append(teachable[facultyId], section)
		}
	}
	for _, facultyId := range state.plan.Registry().FacultyIds() {
		sections := teachable[facultyId]
		teaches := func(section int) int64 {
			position, _ := slices.BinarySearch(state.plan.Sections()[section].Faculty(), facultyId)
			return state.indexer.Faculty(section, position)
		}
		for _, pair := range pairsOf(sections) {
			groups = append(groups, gapGroup(state, pair, sections, scaled(weight, 1), teaches))
		}
	}
	return groups
}

// gapGroup charges every same-day option pair of the two sections with its gap, unless another of the
// participant's sections sits in between. teaches, when given, conditions each section on the participant
// actually teaching it.
func gapGroup(state constraintState, pair [2]int, participantSections []int, unit uint64, teaches func(section int) int64) costGroup {
	domains := state.plan.Sections()
	group := costGroup{term: "gaps"}
	condition := func(section, option int) []int64 {
		literals := []int64{state.indexer.Time(section, option)}
		if teaches != nil {
			literals = append(literals, teaches(section))
		}
		return literals
	}

	for option1, interval1 := range domains[pair[0]].Options {
		for option2, interval2 := range domains[pair[1]].Options {
			gap := interval1.Gap(interval2)
			if gap <= 0 {
				continue
			}
			earlier, later := interval1, interval2
			if earlier.Start > later.Start {
				earlier, later = later, earlier
			}

			between := make([][]int64, 0)
			for _, other := range participantSections {
				if other == pair[0] || other == pair[1] {
					continue
				}
				for option, interval := range domains[other].Options {
					if interval.Day == earlier.Day && interval.Start > earlier.End() && interval.End() < later.Start {
						between = append(between, condition(other, option))
					}
				}
			}

			group.entries = append(group.entries, costEntry{
				conditions: append(condition(pair[0], option1), condition(pair[1], option2)...),
				between:    between,
				cost:       unit * uint64(gap),
			})
		}
	}
	return group
}

// The share of a room's seats left empty by the enrollment
func roomUtilizationGroups(state constraintState, weight float64) []costGroup {
	groups := make([]costGroup, 0)
	if !state.withRooms || scaled(weight, 1) == 0 {
		return groups
	}
	for section, domain := range state.plan.Sections() {
		enrollment := domain.Section.Enrollment()
		if enrollment == 0 {
			continue
		}
		group := costGroup{term: "room-utilization"}
		for room, roomId := range domain.Rooms {
			capacity := roomCapacity(state.plan, roomId)
			group.entries = append(group.entries, costEntry{
				conditions: []int64{state.indexer.Room(section, room)},
				cost:       scaled(weight, 10*float64(capacity-enrollment)/float64(capacity)),
			})
		}
		groups = append(groups, group)
	}
	return groups
}

// The share of a faculty member's weekly load a section takes up
func facultyLoadBalanceGroups(state constraintState, weight float64) []costGroup {
	groups := make([]costGroup, 0)
	if scaled(weight, 1) == 0 {
		return groups
	}
	slotMinutes := state.plan.Grid().SlotMinutes
	for section, domain := range state.plan.Sections() {
		minutes := float64(domain.Course().DurationSlots * slotMinutes)
		group := costGroup{term: "faculty-load-balance"}
		for faculty, facultyId := range domain.Faculty() {
			member, _ := state.plan.Registry().Faculty(facultyId)
			var share float64
			if member.MaxLoad > 0 {
				share = minutes / float64(member.MaxLoad*60)
			}
			group.entries = append(group.entries, costEntry{
				conditions: []int64{state.indexer.Faculty(section, faculty)},
				cost:       scaled(weight, 10*share),
			})
		}
		groups = append(groups, group)
	}
	return groups
}

func roomCapacity(plan *Plan, roomId string) int {
	room, _ := plan.Registry().Room(roomId)
	return room.Capacity
}

// encode allocates the level variables of every group and returns the clauses tying them to the
// entries together with the weighted level terms to minimise.
func (objective softObjective) encode(indexer indexer) ([][]int64, []sat.Term) {
	clauses := make([][]int64, 0)
	terms := make([]sat.Term, 0)
	conjunctions := make(map[string]int64)

	literalOf := func(conjunction []int64) int64 {
		if len(conjunction) == 1 {
			return conjunction[0]
		}
		key := fmt.Sprint(conjunction)
		if variable, ok := conjunctions[key]; ok {
			return variable
		}
		variable := indexer.Auxiliary()
		for _, literal := range conjunction {
			clauses = append(clauses, []int64{-variable, literal})
		}
		conjunctions[key] = variable
		return variable
	}

	for _, group := range objective.groups {
		levels := lo.Uniq(lo.FilterMap(group.entries, func(entry costEntry, _ int) (uint64, bool) { return entry.cost, entry.cost > 0 }))
		slices.Sort(levels)

		variables := make([]int64, len(levels))
		var previous uint64
		for i, level := range levels {
			variables[i] = indexer.Auxiliary()
			terms = append(terms, sat.Term{Literal: variables[i], Weight: level - previous})
			if i > 0 {
				clauses = append(clauses, []int64{-variables[i], variables[i-1]})
			}
			previous = level
		}

		for _, entry := range group.entries {
			if entry.cost == 0 {
				continue
			}
			level, _ := slices.BinarySearch(levels, entry.cost)
			clause := lo.Map(entry.conditions, func(literal int64, _ int) int64 { return -literal })
			for _, conjunction := range entry.between {
				clause = append(clause, literalOf(conjunction))
			}
			clauses = append(clauses, append(clause, variables[level]))
		}
	}
	return clauses, terms
}

// evaluate returns the cost a model actually incurs, independently of the level variables.
func (objective softObjective) evaluate(values sat.Assignment) uint64 {
	var total uint64
	for _, group := range objective.groups {
		var charged uint64
		for _, entry := range group.entries {
			if entry.cost > charged && holdsAll(values, entry.conditions) && !lo.SomeBy(entry.between, func(conjunction []int64) bool {
				return holdsAll(values, conjunction)
			}) {
				charged = entry.cost
			}
		}
		total += charged
	}
	return total
}

// breakdown sums evaluate per term, for logging.
func (objective softObjective) breakdown(values sat.Assignment) map[string]float64 {
	terms := make(map[string]float64)
	for _, group := range objective.groups {
		single := softObjective{groups: []costGroup{group}}
		terms[group.term] += float64(single.evaluate(values)) / weightScale
	}
	return terms
}

func holdsAll(values sat.Assignment, literals []int64) bool {
	return lo.EveryBy(literals, values.Holds)
}
