package timetable

type predicateEvaluator interface {
	// Checks whether option1 of section1 and option2 of section2 share at least one slot
	Overlap(section1, option1, section2, option2 int) bool

	// Checks whether some time option of section1 overlaps some time option of section2
	CanOverlap(section1, section2 int) bool

	// Checks whether the room-th room of the section is available during the whole time option
	RoomAvailable(section, option, room int) bool

	// Checks whether the faculty-th candidate of the section is available during the whole time option
	FacultyAvailable(section, option, faculty int) bool

	// Returns the position pairs of the rooms present in both room domains
	SharedRooms(section1, section2 int) [][2]int

	// Returns the position pairs of the faculty present in both candidate sets
	SharedFaculty(section1, section2 int) [][2]int

	// Returns the sorted pairs of sections that share at least one student
	StudentPairs() [][2]int

	// Returns the sorted pairs of sections whose room domains intersect
	RoomPairs() [][2]int

	// Returns the sorted pairs of sections whose candidate faculty intersect
	FacultyPairs() [][2]int
}
