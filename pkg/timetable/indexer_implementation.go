package timetable

import "sort"

// Variables of one section are contiguous: time options, then rooms, then faculty candidates.
// Auxiliary variables follow the last section.
type indexerImplementation struct {
	bases     []int64 // First variable of each section; the extra last entry is the first auxiliary variable
	options   []int64
	rooms     []int64
	faculties []int64
	last      int64
}

func (indexer *indexerImplementation) Time(section, option int) int64 {
	return indexer.bases[section] + int64(option)
}

func (indexer *indexerImplementation) Room(section, room int) int64 {
	return indexer.bases[section] + indexer.options[section] + int64(room)
}

func (indexer *indexerImplementation) Faculty(section, faculty int) int64 {
	return indexer.bases[section] + indexer.options[section] + indexer.rooms[section] + int64(faculty)
}

func (indexer *indexerImplementation) Attributes(variable int64) (kind variableKind, section int, position int) {
	sections := len(indexer.bases) - 1
	if variable >= indexer.bases[sections] {
		return auxiliaryVariable, -1, int(variable - indexer.bases[sections])
	}

	section = sort.Search(sections, func(i int) bool { return indexer.bases[i+1] > variable })
	offset := variable - indexer.bases[section]
	switch {
	case offset < indexer.options[section]:
		return timeVariable, section, int(offset)
	case offset < indexer.options[section]+indexer.rooms[section]:
		return roomVariable, section, int(offset - indexer.options[section])
	default:
		return facultyVariable, section, int(offset - indexer.options[section] - indexer.rooms[section])
	}
}

func (indexer *indexerImplementation) Auxiliary() int64 {
	indexer.last++
	return indexer.last
}

func (indexer *indexerImplementation) Variables() uint64 {
	return uint64(indexer.last)
}
