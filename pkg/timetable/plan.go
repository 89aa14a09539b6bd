package timetable

import (
	"errors"
	"fmt"
	"slices"

	"github.com/limaJavier/coursetable/pkg/grid"
	"github.com/limaJavier/coursetable/pkg/model"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// SectionDomain is a required section together with the finite domains of its decision variables.
type SectionDomain struct {
	Section model.Section
	Options []grid.Interval // Allowed day × start pairs, ordered by day then start
	Rooms   []string        // Rooms of the course's type that seat the enrollment, sorted
}

func (domain SectionDomain) Key() model.SectionKey {
	return domain.Section.Key
}

func (domain SectionDomain) Course() *model.Course {
	return domain.Section.Course
}

func (domain SectionDomain) Faculty() []string {
	return domain.Section.Faculty
}

// Plan is the validated input of one solve: the required sections and their variable domains.
type Plan struct {
	registry *model.Registry
	sections []SectionDomain
	index    map[model.SectionKey]int
}

// NewPlan derives the required sections from the selections and generates their domains.
// Sections without eligible faculty or with an empty domain fail here, all of them reported at once.
func NewPlan(registry *model.Registry, selections []model.Selection) (*Plan, error) {
	sections, err := registry.RequiredSections(selections)
	if err != nil {
		return nil, err
	}

	plan := &Plan{
		registry: registry,
		sections: make([]SectionDomain, 0, len(sections)),
		index:    make(map[model.SectionKey]int, len(sections)),
	}

	errs := make([]error, 0)
	for _, section := range sections {
		domain, domainErrs := plan.domainOf(section)
		if len(domainErrs) > 0 {
			errs = append(errs, domainErrs...)
			continue
		}
		plan.index[section.Key] = len(plan.sections)
		plan.sections = append(plan.sections, domain)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	registry.Logger().Debug("plan generated",
		zap.Int("sections", len(plan.sections)),
		zap.Int("options", lo.SumBy(plan.sections, func(domain SectionDomain) int { return len(domain.Options) })),
	)
	return plan, nil
}

func (plan *Plan) domainOf(section model.Section) (SectionDomain, []error) {
	timeGrid := plan.registry.Grid()
	course := section.Course
	errs := make([]error, 0)

	days := lo.Filter(lo.Uniq(course.AllowedDays), func(day int, _ int) bool { return timeGrid.ValidDay(day) })
	slices.Sort(days)
	if len(days) == 0 {
		errs = append(errs, model.EmptyDomainError{Section: section.Key, Variable: "day", Reason: "no allowed day is a configured day"})
	}

	starts := lo.Filter(lo.Uniq(course.AllowedStartSlots), func(start int, _ int) bool { return timeGrid.Fits(start, course.DurationSlots) })
	slices.Sort(starts)
	if len(starts) == 0 {
		errs = append(errs, model.EmptyDomainError{
			Section:  section.Key,
			Variable: "start",
			Reason:   fmt.Sprintf("no allowed start leaves room for %d slots in a %d-slot day", course.DurationSlots, timeGrid.SlotsPerDay),
		})
	}

	rooms := lo.Filter(plan.registry.RoomsOfType(course.RoomType), func(roomId string, _ int) bool {
		room, _ := plan.registry.Room(roomId)
		return room.Capacity >= section.Enrollment()
	})
	if len(rooms) == 0 {
		errs = append(errs, model.EmptyDomainError{
			Section:  section.Key,
			Variable: "room",
			Reason:   fmt.Sprintf("no %q room seats %d students", course.RoomType, section.Enrollment()),
		})
	}

	if len(section.Faculty) == 0 {
		errs = append(errs, model.EmptyDomainError{Section: section.Key, Variable: "faculty", Reason: "no candidate faculty"})
	}

	if len(errs) > 0 {
		return SectionDomain{}, errs
	}

	options := make([]grid.Interval, 0, len(days)*len(starts))
	for _, day := range days {
		for _, start := range starts {
			options = append(options, grid.Interval{Day: day, Start: start, Duration: course.DurationSlots})
		}
	}
	return SectionDomain{Section: section, Options: options, Rooms: rooms}, nil
}

func (plan *Plan) Registry() *model.Registry {
	return plan.registry
}

func (plan *Plan) Config() model.Config {
	return plan.registry.Config()
}

func (plan *Plan) Grid() grid.Grid {
	return plan.registry.Grid()
}

// Sections returns the required sections in first-selected order.
func (plan *Plan) Sections() []SectionDomain {
	return plan.sections
}

func (plan *Plan) Section(key model.SectionKey) (SectionDomain, bool) {
	i, ok := plan.index[key]
	if !ok {
		return SectionDomain{}, false
	}
	return plan.sections[i], true
}
