package model

import (
	"fmt"
	"strings"

	"github.com/limaJavier/coursetable/pkg/grid"
)

type CourseType int

const (
	Major CourseType = iota
	Minor
	Skill
	ValueAdded
)

var courseTypeNames = map[CourseType]string{
	Major:      "Major",
	Minor:      "Minor",
	Skill:      "Skill",
	ValueAdded: "Value-Added",
}

func (courseType CourseType) String() string {
	if name, ok := courseTypeNames[courseType]; ok {
		return name
	}
	return fmt.Sprintf("CourseType(%d)", int(courseType))
}

func ParseCourseType(text string) (CourseType, error) {
	normalized := strings.ToLower(strings.NewReplacer("-", "", " ", "", "_", "").Replace(strings.TrimSpace(text)))
	switch normalized {
	case "major":
		return Major, nil
	case "minor":
		return Minor, nil
	case "skill":
		return Skill, nil
	case "valueadded":
		return ValueAdded, nil
	}
	return 0, fmt.Errorf("unknown course type %q", text)
}

// DefaultSection is used for courses and selections that do not name a section.
const DefaultSection = "A"

// SectionKey identifies one scheduled occurrence of a course.
type SectionKey struct {
	Code    string
	Section string
}

func (key SectionKey) String() string {
	return key.Code + "/" + key.Section
}

type Course struct {
	Code              string
	Name              string
	Type              CourseType
	Credits           int
	TheoryHours       int
	PracticalHours    int
	Program           string
	Semester          int
	Section           string
	DurationSlots     int
	RoomType          string
	AllowedDays       []int
	AllowedStartSlots []int
	FacultyPool       []string
}

func (course *Course) Key() SectionKey {
	return SectionKey{Code: course.Code, Section: course.Section}
}

type Room struct {
	Id           string
	Name         string
	Capacity     int
	Type         string
	Availability []grid.Window
}

type Faculty struct {
	Id           string
	Name         string
	Skills       []string
	Availability []grid.Window
	MaxLoad      int // Weekly teaching hours; zero means unlimited
}

type Student struct {
	Id            string
	Name          string
	Program       string
	Semester      int
	ChosenCourses []string
	CreditsTarget int
}

// Selection asks for a student to attend a course section, optionally pinning the faculty.
type Selection struct {
	StudentId  string
	CourseCode string
	Section    string
	FacultyId  string
}

// Catalog holds the typed records supplied to the core.
type Catalog struct {
	Courses    []Course
	Rooms      []Room
	Faculty    []Faculty
	Students   []Student
	Selections []Selection
}

// ScheduleEntry is one placed section of the timetable. Slots are 1-based and EndSlot is inclusive.
type ScheduleEntry struct {
	CourseCode string `json:"course_code" csv:"course_code"`
	Section    string `json:"section" csv:"section"`
	Day        int    `json:"day" csv:"day"`
	StartSlot  int    `json:"start_slot" csv:"start_slot"`
	EndSlot    int    `json:"end_slot" csv:"end_slot"`
	RoomId     string `json:"room_id" csv:"room_id"`
	FacultyId  string `json:"faculty_id" csv:"faculty_id"`

	CourseName  string `json:"course_name,omitempty" csv:"course"`
	Program     string `json:"program,omitempty" csv:"program"`
	DayName     string `json:"day_name,omitempty" csv:"day_name"`
	RoomName    string `json:"room_name,omitempty" csv:"room"`
	FacultyName string `json:"faculty_name,omitempty" csv:"faculty"`
	StartTime   string `json:"start_time,omitempty" csv:"start_time"`
	EndTime     string `json:"end_time,omitempty" csv:"end_time"`
}

func (entry ScheduleEntry) Key() SectionKey {
	return SectionKey{Code: entry.CourseCode, Section: entry.Section}
}

func (entry ScheduleEntry) Interval() grid.Interval {
	return grid.Interval{Day: entry.Day, Start: entry.StartSlot, Duration: entry.EndSlot - entry.StartSlot + 1}
}
