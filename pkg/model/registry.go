package model

import (
	"errors"
	"fmt"
	"slices"

	"github.com/limaJavier/coursetable/pkg/grid"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Registry is the read-only, uniqueness-checked index over a catalog.
type Registry struct {
	config  Config
	grid    grid.Grid
	logger  *zap.Logger
	catalog Catalog

	courses     map[SectionKey]*Course
	courseCodes map[string][]SectionKey
	rooms       map[string]*Room
	roomTypes   map[string][]string
	faculty     map[string]*Faculty
	students    map[string]*Student
}

// NewRegistry indexes a copy of the catalog and checks identifiers, references and record invariants.
// Every offending record is reported; the returned error joins all of them.
func NewRegistry(catalog Catalog, config Config, logger *zap.Logger) (*Registry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	catalog.Courses = slices.Clone(catalog.Courses)
	catalog.Rooms = slices.Clone(catalog.Rooms)
	catalog.Faculty = slices.Clone(catalog.Faculty)
	catalog.Students = slices.Clone(catalog.Students)

	registry := &Registry{
		config:      config,
		grid:        config.Grid(),
		logger:      logger,
		catalog:     catalog,
		courses:     make(map[SectionKey]*Course),
		courseCodes: make(map[string][]SectionKey),
		rooms:       make(map[string]*Room),
		roomTypes:   make(map[string][]string),
		faculty:     make(map[string]*Faculty),
		students:    make(map[string]*Student),
	}

	errs := make([]error, 0)
	errs = append(errs, registry.indexRooms()...)
	errs = append(errs, registry.indexFaculty()...)
	errs = append(errs, registry.indexStudents()...)
	errs = append(errs, registry.indexCourses()...)
	errs = append(errs, registry.checkReferences()...)

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	logger.Debug("registry built",
		zap.Int("courses", len(registry.courses)),
		zap.Int("rooms", len(registry.rooms)),
		zap.Int("faculty", len(registry.faculty)),
		zap.Int("students", len(registry.students)),
	)
	return registry, nil
}

func (registry *Registry) indexRooms() []error {
	errs := make([]error, 0)
	for i := range registry.catalog.Rooms {
		room := &registry.catalog.Rooms[i]
		if _, ok := registry.rooms[room.Id]; ok {
			errs = append(errs, DuplicateKeyError{Collection: "rooms", Key: room.Id})
			continue
		}
		if room.Capacity < 0 {
			errs = append(errs, MalformedRecordError{Collection: "room", Record: room.Id, Reason: "capacity must not be negative"})
		}
		if err := registry.checkWindows(room.Availability); err != nil {
			errs = append(errs, MalformedRecordError{Collection: "room", Record: room.Id, Reason: err.Error()})
		}
		registry.rooms[room.Id] = room
		registry.roomTypes[room.Type] = append(registry.roomTypes[room.Type], room.Id)
	}
	for roomType := range registry.roomTypes {
		slices.Sort(registry.roomTypes[roomType])
	}
	return errs
}

func (registry *Registry) indexFaculty() []error {
	errs := make([]error, 0)
	for i := range registry.catalog.Faculty {
		faculty := &registry.catalog.Faculty[i]
		if _, ok := registry.faculty[faculty.Id]; ok {
			errs = append(errs, DuplicateKeyError{Collection: "faculty", Key: faculty.Id})
			continue
		}
		if faculty.MaxLoad < 0 {
			errs = append(errs, MalformedRecordError{Collection: "faculty", Record: faculty.Id, Reason: "max load must not be negative"})
		}
		if err := registry.checkWindows(faculty.Availability); err != nil {
			errs = append(errs, MalformedRecordError{Collection: "faculty", Record: faculty.Id, Reason: err.Error()})
		}
		registry.faculty[faculty.Id] = faculty
	}
	return errs
}

func (registry *Registry) indexStudents() []error {
	errs := make([]error, 0)
	for i := range registry.catalog.Students {
		student := &registry.catalog.Students[i]
		if _, ok := registry.students[student.Id]; ok {
			errs = append(errs, DuplicateKeyError{Collection: "students", Key: student.Id})
			continue
		}
		registry.students[student.Id] = student
	}
	return errs
}

func (registry *Registry) indexCourses() []error {
	errs := make([]error, 0)
	for i := range registry.catalog.Courses {
		course := &registry.catalog.Courses[i]
		key := course.Key()
		if _, ok := registry.courses[key]; ok {
			errs = append(errs, DuplicateKeyError{Collection: "courses", Key: key.String()})
			continue
		}
		if err := registry.checkCourse(course); err != nil {
			errs = append(errs, MalformedRecordError{Collection: "course", Record: key.String(), Reason: err.Error()})
		}
		registry.courses[key] = course
		registry.courseCodes[course.Code] = append(registry.courseCodes[course.Code], key)
	}
	return errs
}

func (registry *Registry) checkCourse(course *Course) error {
	if course.DurationSlots <= 0 {
		return fmt.Errorf("duration must be positive: %d", course.DurationSlots)
	}
	if len(course.AllowedDays) == 0 {
		return errors.New("allowed days must not be empty")
	}
	for _, day := range course.AllowedDays {
		if !registry.grid.ValidDay(day) {
			return fmt.Errorf("allowed day %d is outside the %d configured days", day, len(registry.grid.Days))
		}
	}
	if len(course.AllowedStartSlots) == 0 {
		return errors.New("allowed start slots must not be empty")
	}
	for _, start := range course.AllowedStartSlots {
		if !registry.grid.Fits(start, course.DurationSlots) {
			return fmt.Errorf("a %d-slot run starting at slot %d does not fit in a %d-slot day", course.DurationSlots, start, registry.grid.SlotsPerDay)
		}
	}
	return nil
}

// Windows of one record must not overlap on the same day.
func (registry *Registry) checkWindows(windows []grid.Window) error {
	for i := range len(windows) {
		for j := i + 1; j < len(windows); j++ {
			if windows[i].Overlaps(windows[j]) {
				return fmt.Errorf("availability windows %v and %v overlap", registry.grid.FormatWindow(windows[i]), registry.grid.FormatWindow(windows[j]))
			}
		}
	}
	return nil
}

func (registry *Registry) checkReferences() []error {
	errs := make([]error, 0)
	for _, key := range registry.CourseKeys() {
		course := registry.courses[key]
		for _, facultyId := range course.FacultyPool {
			if _, ok := registry.faculty[facultyId]; !ok {
				errs = append(errs, UnknownReferenceError{Collection: "course", Record: key.String(), Field: "faculty", Key: facultyId})
			}
		}
		if _, ok := registry.roomTypes[course.RoomType]; !ok {
			errs = append(errs, UnknownReferenceError{Collection: "course", Record: key.String(), Field: "room type", Key: course.RoomType})
		}
	}
	for _, studentId := range registry.StudentIds() {
		for _, code := range registry.students[studentId].ChosenCourses {
			if _, ok := registry.courseCodes[code]; !ok {
				errs = append(errs, UnknownReferenceError{Collection: "student", Record: studentId, Field: "course", Key: code})
			}
		}
	}
	return errs
}

func (registry *Registry) Config() Config {
	return registry.config
}

func (registry *Registry) Grid() grid.Grid {
	return registry.grid
}

func (registry *Registry) Logger() *zap.Logger {
	return registry.logger
}

func (registry *Registry) Course(key SectionKey) (*Course, bool) {
	course, ok := registry.courses[key]
	return course, ok
}

// CourseSections lists the sections offered for a course code.
func (registry *Registry) CourseSections(code string) []SectionKey {
	return registry.courseCodes[code]
}

func (registry *Registry) Room(id string) (*Room, bool) {
	room, ok := registry.rooms[id]
	return room, ok
}

// RoomsOfType returns the sorted ids of the rooms of a type.
func (registry *Registry) RoomsOfType(roomType string) []string {
	return registry.roomTypes[roomType]
}

func (registry *Registry) Faculty(id string) (*Faculty, bool) {
	faculty, ok := registry.faculty[id]
	return faculty, ok
}

func (registry *Registry) Student(id string) (*Student, bool) {
	student, ok := registry.students[id]
	return student, ok
}

// CourseKeys returns every course section in catalog order.
func (registry *Registry) CourseKeys() []SectionKey {
	return lo.Map(registry.catalog.Courses, func(course Course, _ int) SectionKey { return course.Key() })
}

func (registry *Registry) FacultyIds() []string {
	return sortedKeys(registry.faculty)
}

func (registry *Registry) StudentIds() []string {
	return sortedKeys(registry.students)
}

func sortedKeys[T any](values map[string]T) []string {
	keys := lo.Keys(values)
	slices.Sort(keys)
	return keys
}
