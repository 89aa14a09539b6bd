package timetable

import (
	"cmp"
	"slices"

	"github.com/limaJavier/coursetable/pkg/grid"
	"github.com/limaJavier/coursetable/pkg/model"
	"github.com/samber/lo"
)

type predicateEvaluatorStandard struct {
	registry *model.Registry
	domains  []SectionDomain

	studentPairs [][2]int
	roomPairs    [][2]int
	facultyPairs [][2]int

	roomAvailability    [][][]bool // Per section, option and room
	facultyAvailability [][][]bool // Per section, option and faculty
}

func newPredicateEvaluator(plan *Plan) predicateEvaluator {
	domains := plan.Sections()
	evaluator := predicateEvaluatorStandard{
		registry: plan.Registry(),
		domains:  domains,
	}

	// Inverted indices: resource -> sections that may use it
	students := make(map[string][]int)
	rooms := make(map[string][]int)
	faculty := make(map[string][]int)
	for i, domain := range domains {
		for _, studentId := range domain.Section.Students {
			students[studentId] = append(students[studentId], i)
		}
		for _, roomId := range domain.Rooms {
			rooms[roomId] = append(rooms[roomId], i)
		}
		for _, facultyId := range domain.Faculty() {
			faculty[facultyId] = append(faculty[facultyId], i)
		}
	}

	evaluator.studentPairs = sortedPairs(lo.Uniq(lo.FlatMap(lo.Values(students), func(sections []int, _ int) [][2]int { return pairsOf(sections) })))
	evaluator.roomPairs = sortedPairs(lo.Uniq(lo.FlatMap(lo.Values(rooms), func(sections []int, _ int) [][2]int { return pairsOf(sections) })))
	evaluator.facultyPairs = sortedPairs(lo.Uniq(lo.FlatMap(lo.Values(faculty), func(sections []int, _ int) [][2]int { return pairsOf(sections) })))

	evaluator.roomAvailability = make([][][]bool, len(domains))
	evaluator.facultyAvailability = make([][][]bool, len(domains))
	for i, domain := range domains {
		evaluator.roomAvailability[i] = make([][]bool, len(domain.Options))
		evaluator.facultyAvailability[i] = make([][]bool, len(domain.Options))
		for j, option := range domain.Options {
			evaluator.roomAvailability[i][j] = lo.Map(domain.Rooms, func(roomId string, _ int) bool {
				room, _ := evaluator.registry.Room(roomId)
				return grid.Covered(option, room.Availability)
			})
			evaluator.facultyAvailability[i][j] = lo.Map(domain.Faculty(), func(facultyId string, _ int) bool {
				member, _ := evaluator.registry.Faculty(facultyId)
				return grid.Covered(option, member.Availability)
			})
		}
	}

	return &evaluator
}

func (evaluator *predicateEvaluatorStandard) Overlap(section1, option1, section2, option2 int) bool {
	return evaluator.domains[section1].Options[option1].Overlaps(evaluator.domains[section2].Options[option2])
}

func (evaluator *predicateEvaluatorStandard) CanOverlap(section1, section2 int) bool {
	for option1 := range evaluator.domains[section1].Options {
		for option2 := range evaluator.domains[section2].Options {
			if evaluator.Overlap(section1, option1, section2, option2) {
				return true
			}
		}
	}
	return false
}

func (evaluator *predicateEvaluatorStandard) RoomAvailable(section, option, room int) bool {
	return evaluator.roomAvailability[section][option][room]
}

func (evaluator *predicateEvaluatorStandard) FacultyAvailable(section, option, faculty int) bool {
	return evaluator.facultyAvailability[section][option][faculty]
}

func (evaluator *predicateEvaluatorStandard) SharedRooms(section1, section2 int) [][2]int {
	return sharedPositions(evaluator.domains[section1].Rooms, evaluator.domains[section2].Rooms)
}

func (evaluator *predicateEvaluatorStandard) SharedFaculty(section1, section2 int) [][2]int {
	return sharedPositions(evaluator.domains[section1].Faculty(), evaluator.domains[section2].Faculty())
}

func (evaluator *predicateEvaluatorStandard) StudentPairs() [][2]int {
	return evaluator.studentPairs
}

func (evaluator *predicateEvaluatorStandard) RoomPairs() [][2]int {
	return evaluator.roomPairs
}

func (evaluator *predicateEvaluatorStandard) FacultyPairs() [][2]int {
	return evaluator.facultyPairs
}

func orderedPair(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}

func pairsOf(sections []int) [][2]int {
	pairs := make([][2]int, 0, len(sections)*(len(sections)-1)/2)
	for i := range len(sections) {
		for j := i + 1; j < len(sections); j++ {
			pairs = append(pairs, orderedPair(sections[i], sections[j]))
		}
	}
	return pairs
}

func sortedPairs(pairs [][2]int) [][2]int {
	slices.SortFunc(pairs, func(a, b [2]int) int {
		if c := cmp.Compare(a[0], b[0]); c != 0 {
			return c
		}
		return cmp.Compare(a[1], b[1])
	})
	return pairs
}

// sharedPositions pairs up the positions of the ids present in both sorted lists.
func sharedPositions(ids1, ids2 []string) [][2]int {
	positions := make([][2]int, 0)
	for i, id := range ids1 {
		if j, found := slices.BinarySearch(ids2, id); found {
			positions = append(positions, [2]int{i, j})
		}
	}
	return positions
}
