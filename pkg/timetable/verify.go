package timetable

import (
	"fmt"
	"slices"

	"github.com/limaJavier/coursetable/pkg/grid"
	"github.com/limaJavier/coursetable/pkg/model"
)

type placedEntry struct {
	entry    model.ScheduleEntry
	domain   SectionDomain
	interval grid.Interval
}

// verify re-checks a schedule against every hard constraint of the plan and lists what it breaks.
func verify(entries []model.ScheduleEntry, plan *Plan) error {
	registry := plan.Registry()
	violations := make([]string, 0)
	violate := func(format string, args ...any) {
		violations = append(violations, fmt.Sprintf(format, args...))
	}

	placed := make([]placedEntry, 0, len(entries))
	scheduled := make(map[model.SectionKey]int)
	load := make(map[string]int)
	for _, entry := range entries {
		key := entry.Key()
		domain, ok := plan.Section(key)
		if !ok {
			violate("section %v is not required", key)
			continue
		}
		if scheduled[key]++; scheduled[key] > 1 {
			violate("section %v is scheduled more than once", key)
		}

		interval := grid.Interval{Day: entry.Day, Start: entry.StartSlot, Duration: domain.Course().DurationSlots}
		if entry.EndSlot != interval.End() {
			violate("section %v ends at slot %d instead of %d", key, entry.EndSlot, interval.End())
		}
		if !slices.Contains(domain.Options, interval) {
			violate("section %v starts at an unallowed day %d or slot %d", key, entry.Day, entry.StartSlot)
		}

		if !slices.Contains(domain.Rooms, entry.RoomId) {
			violate("section %v is in room %q, which is not a %q room seating %d", key, entry.RoomId, domain.Course().RoomType, domain.Section.Enrollment())
		} else if room, _ := registry.Room(entry.RoomId); !grid.Covered(interval, room.Availability) {
			violate("section %v is outside the availability of room %q", key, entry.RoomId)
		}

		if !slices.Contains(domain.Faculty(), entry.FacultyId) {
			violate("section %v is taught by %q, who is not a candidate", key, entry.FacultyId)
		} else if member, _ := registry.Faculty(entry.FacultyId); !grid.Covered(interval, member.Availability) {
			violate("section %v is outside the availability of faculty %q", key, entry.FacultyId)
		}

		load[entry.FacultyId] += interval.Duration
		placed = append(placed, placedEntry{entry: entry, domain: domain, interval: interval})
	}

	for _, domain := range plan.Sections() {
		if scheduled[domain.Key()] == 0 {
			violate("section %v is not scheduled", domain.Key())
		}
	}

	for i := range placed {
		for j := i + 1; j < len(placed); j++ {
			a, b := placed[i], placed[j]
			if !a.interval.Overlaps(b.interval) {
				continue
			}
			if a.entry.RoomId == b.entry.RoomId {
				violate("sections %v and %v overlap in room %q", a.domain.Key(), b.domain.Key(), a.entry.RoomId)
			}
			if a.entry.FacultyId == b.entry.FacultyId {
				violate("sections %v and %v overlap for faculty %q", a.domain.Key(), b.domain.Key(), a.entry.FacultyId)
			}
			if shared := sharedPositions(a.domain.Section.Students, b.domain.Section.Students); len(shared) > 0 {
				violate("sections %v and %v overlap for %d shared students", a.domain.Key(), b.domain.Key(), len(shared))
			}
		}
	}

	slotMinutes := plan.Grid().SlotMinutes
	for _, facultyId := range registry.FacultyIds() {
		member, _ := registry.Faculty(facultyId)
		if member.MaxLoad > 0 && load[facultyId]*slotMinutes > member.MaxLoad*60 {
			violate("faculty %q teaches %d minutes, above the %d hour limit", facultyId, load[facultyId]*slotMinutes, member.MaxLoad)
		}
	}

	if len(violations) > 0 {
		return model.ContractViolationError{Violations: violations}
	}
	return nil
}
