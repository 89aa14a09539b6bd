package model

import (
	"errors"
	"testing"

	"github.com/limaJavier/coursetable/pkg/grid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	sampleCatalogFile = "../../test/catalogs/sample.json"
	sampleConfigFile  = "../../test/config/constraints.json"
)

func weekWindows(from, to int) []grid.Window {
	windows := make([]grid.Window, 0, 5)
	for day := range 5 {
		windows = append(windows, grid.Window{Day: day, From: from, To: to})
	}
	return windows
}

func smallCatalog() Catalog {
	return Catalog{
		Courses: []Course{
			{Code: "CS101", Name: "Programming", Type: Major, Section: "A", DurationSlots: 4, RoomType: "Lab", AllowedDays: []int{0}, AllowedStartSlots: []int{1, 5, 9}, FacultyPool: []string{"f1", "f2"}},
			{Code: "MA101", Name: "Calculus", Type: Minor, Section: "A", DurationSlots: 2, RoomType: "Hall", AllowedDays: []int{0, 1}, AllowedStartSlots: []int{1, 3}, FacultyPool: []string{"f2"}},
		},
		Rooms: []Room{
			{Id: "r1", Name: "Lab 1", Capacity: 30, Type: "Lab", Availability: weekWindows(1, 16)},
			{Id: "r2", Name: "Hall 1", Capacity: 100, Type: "Hall", Availability: weekWindows(1, 16)},
		},
		Faculty: []Faculty{
			{Id: "f1", Name: "Ada", Skills: []string{"Major"}, Availability: weekWindows(1, 16), MaxLoad: 20},
			{Id: "f2", Name: "Alan", Skills: []string{"Minor"}, Availability: weekWindows(1, 16), MaxLoad: 20},
		},
		Students: []Student{
			{Id: "s1", Name: "Grace", ChosenCourses: []string{"CS101", "MA101"}},
			{Id: "s2", Name: "Edsger", ChosenCourses: []string{"CS101"}},
		},
	}
}

func TestNewRegistry(t *testing.T) {
	config := DefaultConfig()

	t.Run("Valid catalog", func(t *testing.T) {
		registry, err := NewRegistry(smallCatalog(), config, nil)

		require.NoError(t, err)
		course, ok := registry.Course(SectionKey{Code: "CS101", Section: "A"})
		assert.True(t, ok)
		assert.Equal(t, "Programming", course.Name)
		assert.Equal(t, []string{"r1"}, registry.RoomsOfType("Lab"))
		assert.Equal(t, []string{"f1", "f2"}, registry.FacultyIds())
		assert.Equal(t, []SectionKey{{Code: "CS101", Section: "A"}}, registry.CourseSections("CS101"))
	})

	t.Run("Later catalog edits", func(t *testing.T) {
		catalog := smallCatalog()
		registry, err := NewRegistry(catalog, config, nil)
		require.NoError(t, err)

		catalog.Courses[0].Name = "Renamed"
		catalog.Rooms[0].Capacity = 1
		catalog.Faculty[0].MaxLoad = 0
		catalog.Students[0].Name = "Nobody"

		course, _ := registry.Course(SectionKey{Code: "CS101", Section: "A"})
		room, _ := registry.Room("r1")
		member, _ := registry.Faculty("f1")
		student, _ := registry.Student("s1")
		assert.Equal(t, "Programming", course.Name)
		assert.Equal(t, 30, room.Capacity)
		assert.Equal(t, 20, member.MaxLoad)
		assert.Equal(t, "Grace", student.Name)
	})

	t.Run("Duplicate keys", func(t *testing.T) {
		catalog := smallCatalog()
		catalog.Rooms = append(catalog.Rooms, catalog.Rooms[0])
		catalog.Students = append(catalog.Students, catalog.Students[1])

		_, err := NewRegistry(catalog, config, nil)

		require.ErrorIs(t, err, ErrDuplicateKey)
		var duplicate DuplicateKeyError
		require.True(t, errors.As(err, &duplicate))
		assert.Equal(t, "rooms", duplicate.Collection)
		assert.Contains(t, err.Error(), `duplicate key "s2" in students`)
	})

	t.Run("Unknown references", func(t *testing.T) {
		catalog := smallCatalog()
		catalog.Courses[0].FacultyPool = []string{"f1", "ghost"}
		catalog.Courses[1].RoomType = "Observatory"
		catalog.Students[0].ChosenCourses = []string{"XX999"}

		_, err := NewRegistry(catalog, config, nil)

		require.ErrorIs(t, err, ErrUnknownReference)
		assert.Contains(t, err.Error(), `unknown faculty "ghost"`)
		assert.Contains(t, err.Error(), `unknown room type "Observatory"`)
		assert.Contains(t, err.Error(), `unknown course "XX999"`)
	})

	t.Run("Malformed records", func(t *testing.T) {
		catalog := smallCatalog()
		catalog.Courses[0].AllowedStartSlots = []int{1, 14} // 14 + 4 - 1 > 16
		catalog.Rooms[0].Availability = []grid.Window{{Day: 0, From: 1, To: 6}, {Day: 0, From: 5, To: 9}}

		_, err := NewRegistry(catalog, config, nil)

		require.ErrorIs(t, err, ErrMalformed)
		assert.Contains(t, err.Error(), "does not fit")
		assert.Contains(t, err.Error(), "overlap")
	})

	t.Run("Allowed day outside grid", func(t *testing.T) {
		catalog := smallCatalog()
		catalog.Courses[1].AllowedDays = []int{5}

		_, err := NewRegistry(catalog, config, nil)

		assert.ErrorIs(t, err, ErrMalformed)
	})
}

func TestRequiredSections(t *testing.T) {
	registry, err := NewRegistry(smallCatalog(), DefaultConfig(), nil)
	require.NoError(t, err)

	t.Run("Deduplicates selections", func(t *testing.T) {
		sections, err := registry.RequiredSections([]Selection{
			{StudentId: "s2", CourseCode: "CS101", Section: "A"},
			{StudentId: "s1", CourseCode: "MA101"},
			{StudentId: "s1", CourseCode: "CS101", Section: "A"},
		})

		require.NoError(t, err)
		require.Len(t, sections, 2)
		assert.Equal(t, SectionKey{Code: "CS101", Section: "A"}, sections[0].Key)
		assert.Equal(t, []string{"s1", "s2"}, sections[0].Students)
		assert.Equal(t, []string{"f1", "f2"}, sections[0].Faculty)
		assert.Equal(t, 2, sections[0].Enrollment())
		assert.Equal(t, []string{"s1"}, sections[1].Students)
	})

	t.Run("Pinned faculty narrows the candidates", func(t *testing.T) {
		sections, err := registry.RequiredSections([]Selection{
			{StudentId: "s1", CourseCode: "CS101", FacultyId: "f2"},
			{StudentId: "s2", CourseCode: "CS101"},
		})

		require.NoError(t, err)
		assert.Equal(t, []string{"f2"}, sections[0].Faculty)
		assert.Equal(t, []string{"f2"}, sections[0].Pinned)
	})

	t.Run("Pinned faculty outside the pool", func(t *testing.T) {
		_, err := registry.RequiredSections([]Selection{
			{StudentId: "s1", CourseCode: "MA101", FacultyId: "f1"},
		})

		require.ErrorIs(t, err, ErrNoEligibleFaculty)
		var noFaculty NoEligibleFacultyError
		require.True(t, errors.As(err, &noFaculty))
		assert.Equal(t, SectionKey{Code: "MA101", Section: "A"}, noFaculty.Section)
	})

	t.Run("Conflicting pins", func(t *testing.T) {
		_, err := registry.RequiredSections([]Selection{
			{StudentId: "s1", CourseCode: "CS101", FacultyId: "f1"},
			{StudentId: "s2", CourseCode: "CS101", FacultyId: "f2"},
		})

		assert.ErrorIs(t, err, ErrNoEligibleFaculty)
	})

	t.Run("Unknown references", func(t *testing.T) {
		_, err := registry.RequiredSections([]Selection{
			{StudentId: "nobody", CourseCode: "CS101"},
			{StudentId: "s1", CourseCode: "CS101", Section: "Z"},
			{StudentId: "s1", CourseCode: "MA101", FacultyId: "ghost"},
		})

		require.ErrorIs(t, err, ErrUnknownReference)
		assert.Contains(t, err.Error(), `unknown student "nobody"`)
		assert.Contains(t, err.Error(), `unknown course section "CS101/Z"`)
		assert.Contains(t, err.Error(), `unknown faculty "ghost"`)
	})

	t.Run("No selections schedules the catalog", func(t *testing.T) {
		sections, err := registry.RequiredSections(nil)

		require.NoError(t, err)
		require.Len(t, sections, 2)
		assert.Empty(t, sections[0].Students)
	})
}

func TestRequiredSectionsWithSkills(t *testing.T) {
	config := DefaultConfig()
	config.EnforceSkills = true
	registry, err := NewRegistry(smallCatalog(), config, nil)
	require.NoError(t, err)

	sections, err := registry.RequiredSections([]Selection{{StudentId: "s1", CourseCode: "CS101"}})

	require.NoError(t, err)
	assert.Equal(t, []string{"f1"}, sections[0].Faculty)
}

func TestSampleCatalog(t *testing.T) {
	config, err := ConfigFromFile(sampleConfigFile)
	require.NoError(t, err)
	catalog, err := CatalogFromFile(sampleCatalogFile, config)
	require.NoError(t, err)

	registry, err := NewRegistry(catalog, config, nil)
	require.NoError(t, err)

	faculty, ok := registry.Faculty("4")
	require.True(t, ok)
	assert.Equal(t, "Prof. Davis", faculty.Name)
	assert.Equal(t, grid.Window{Day: 0, From: 1, To: 4}, faculty.Availability[0])

	sections, err := registry.RequiredSections(catalog.Selections)
	require.NoError(t, err)
	assert.Len(t, sections, 7)
}
