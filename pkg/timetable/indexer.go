package timetable

type variableKind int

const (
	timeVariable variableKind = iota
	roomVariable
	facultyVariable
	auxiliaryVariable
)

// indexer interface is designed to give a unique SAT variable to every decision of a section
// (time option, room, faculty) and vice versa
type indexer interface {
	// Returns the variable stating that the section takes its option-th time option
	Time(section, option int) int64
	// Returns the variable stating that the section takes its room-th room
	Room(section, room int) int64
	// Returns the variable stating that the section is taught by its faculty-th candidate
	Faculty(section, faculty int) int64
	// Returns the decision a variable stands for; auxiliary variables have no section
	Attributes(variable int64) (kind variableKind, section int, position int)
	// Allocates a fresh auxiliary variable; not safe for concurrent use
	Auxiliary() int64
	// Returns the number of variables allocated so far
	Variables() uint64
}

func newIndexer(domains []SectionDomain, withRooms bool) indexer {
	indexer := &indexerImplementation{
		bases:     make([]int64, len(domains)+1),
		options:   make([]int64, len(domains)),
		rooms:     make([]int64, len(domains)),
		faculties: make([]int64, len(domains)),
	}

	next := int64(1)
	for i, domain := range domains {
		indexer.bases[i] = next
		indexer.options[i] = int64(len(domain.Options))
		if withRooms {
			indexer.rooms[i] = int64(len(domain.Rooms))
		}
		indexer.faculties[i] = int64(len(domain.Faculty()))
		next += indexer.options[i] + indexer.rooms[i] + indexer.faculties[i]
	}
	indexer.bases[len(domains)] = next
	indexer.last = next - 1
	return indexer
}
