package model

import (
	"errors"
	"slices"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Section is a course section that must be scheduled exactly once.
type Section struct {
	Key      SectionKey
	Course   *Course
	Students []string // Sorted union of the students that selected the section
	Faculty  []string // Sorted candidate faculty
	Pinned   []string // Sorted faculty pinned by selections, if any
}

// Enrollment is the number of distinct students attending the section.
func (section Section) Enrollment() int {
	return len(section.Students)
}

// RequiredSections deduplicates the selections into the sections to schedule, in first-seen order.
// With no selections at all every catalog section is scheduled once without students.
// Sections left without eligible faculty fail here, before any model is built.
func (registry *Registry) RequiredSections(selections []Selection) ([]Section, error) {
	errs := make([]error, 0)
	order := make([]SectionKey, 0)
	students := make(map[SectionKey]map[string]bool)
	pinned := make(map[SectionKey]map[string]bool)

	if len(selections) == 0 {
		order = registry.CourseKeys()
		registry.logger.Info("no selections given, scheduling every catalog section", zap.Int("sections", len(order)))
	}

	for _, selection := range selections {
		key := SectionKey{Code: selection.CourseCode, Section: sectionOrDefault(selection.Section)}
		record := selection.StudentId + "->" + key.String()

		student, ok := registry.students[selection.StudentId]
		if !ok {
			errs = append(errs, UnknownReferenceError{Collection: "selection", Record: record, Field: "student", Key: selection.StudentId})
		}
		if _, ok := registry.courses[key]; !ok {
			errs = append(errs, UnknownReferenceError{Collection: "selection", Record: record, Field: "course section", Key: key.String()})
			continue
		}
		if selection.FacultyId != "" {
			if _, ok := registry.faculty[selection.FacultyId]; !ok {
				errs = append(errs, UnknownReferenceError{Collection: "selection", Record: record, Field: "faculty", Key: selection.FacultyId})
			}
		}

		if _, ok := students[key]; !ok {
			order = append(order, key)
			students[key] = make(map[string]bool)
			pinned[key] = make(map[string]bool)
		}
		if student != nil {
			students[key][student.Id] = true
			if len(student.ChosenCourses) > 0 && !slices.Contains(student.ChosenCourses, key.Code) {
				registry.logger.Warn("selection for a course the student did not choose",
					zap.String("student", student.Id),
					zap.String("section", key.String()),
				)
			}
		}
		if selection.FacultyId != "" {
			pinned[key][selection.FacultyId] = true
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	sections := make([]Section, 0, len(order))
	for _, key := range order {
		course := registry.courses[key]
		section := Section{
			Key:      key,
			Course:   course,
			Students: sortedKeys(students[key]),
			Pinned:   sortedKeys(pinned[key]),
		}
		section.Faculty = registry.candidateFaculty(course, section.Pinned)
		if len(section.Faculty) == 0 {
			errs = append(errs, NoEligibleFacultyError{Section: key, Pool: course.FacultyPool, Pinned: section.Pinned})
			continue
		}
		sections = append(sections, section)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return sections, nil
}

// candidateFaculty intersects the course's pool with every pinned faculty; two different pins leave nobody.
func (registry *Registry) candidateFaculty(course *Course, pinned []string) []string {
	candidates := lo.Uniq(course.FacultyPool)
	for _, facultyId := range pinned {
		candidates = lo.Intersect(candidates, []string{facultyId})
	}
	if registry.config.EnforceSkills {
		candidates = lo.Filter(candidates, func(facultyId string, _ int) bool {
			return registry.qualified(registry.faculty[facultyId], course)
		})
	}
	slices.Sort(candidates)
	return candidates
}

// A faculty member is qualified when their skills name the course type or the course program.
func (registry *Registry) qualified(faculty *Faculty, course *Course) bool {
	if faculty == nil {
		return false
	}
	return lo.SomeBy(faculty.Skills, func(skill string) bool {
		if kind, err := ParseCourseType(skill); err == nil && kind == course.Type {
			return true
		}
		return course.Program != "" && strings.EqualFold(strings.TrimSpace(skill), course.Program)
	})
}
