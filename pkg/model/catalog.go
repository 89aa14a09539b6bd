package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/limaJavier/coursetable/pkg/grid"
	"github.com/mitchellh/mapstructure"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

// IntList is a list of integers that may also be written as a JSON array inside a string, as CSV cells are.
type IntList []int

// StringList is a list of identifiers that may also be written as a JSON array inside a string.
// Numeric identifiers are normalised to their decimal text.
type StringList []string

func (list *IntList) UnmarshalCSV(text string) error {
	values, err := parseIntList(text)
	if err != nil {
		return err
	}
	*list = values
	return nil
}

func (list IntList) MarshalCSV() (string, error) {
	bytes, err := json.Marshal([]int(list))
	return string(bytes), err
}

func (list *StringList) UnmarshalCSV(text string) error {
	values, err := parseStringList(text)
	if err != nil {
		return err
	}
	*list = values
	return nil
}

func (list StringList) MarshalCSV() (string, error) {
	bytes, err := json.Marshal([]string(list))
	return string(bytes), err
}

type RawCourse struct {
	Code              string     `mapstructure:"code" csv:"code" validate:"required"`
	Name              string     `mapstructure:"name" csv:"name"`
	Type              string     `mapstructure:"type" csv:"type" validate:"required"`
	Credits           int        `mapstructure:"credits" csv:"credits" validate:"gte=0"`
	TheoryHours       int        `mapstructure:"T_hours" csv:"T_hours" validate:"gte=0"`
	PracticalHours    int        `mapstructure:"P_hours" csv:"P_hours" validate:"gte=0"`
	Program           string     `mapstructure:"program" csv:"program"`
	Semester          int        `mapstructure:"semester" csv:"semester" validate:"gte=0"`
	Section           string     `mapstructure:"section" csv:"section"`
	DurationSlots     int        `mapstructure:"duration_slots" csv:"duration_slots" validate:"gt=0"`
	RoomType          string     `mapstructure:"room_type" csv:"room_type" validate:"required"`
	AllowedDays       IntList    `mapstructure:"allowed_days" csv:"allowed_days" validate:"required,min=1"`
	AllowedStartSlots IntList    `mapstructure:"allowed_start_slots" csv:"allowed_start_slots" validate:"required,min=1"`
	FacultyPool       StringList `mapstructure:"faculty_pool" csv:"faculty_pool"`
}

type RawRoom struct {
	Id           string     `mapstructure:"id" csv:"id" validate:"required"`
	Name         string     `mapstructure:"name" csv:"name"`
	Capacity     int        `mapstructure:"capacity" csv:"capacity" validate:"gte=0"`
	Type         string     `mapstructure:"type" csv:"type" validate:"required"`
	Availability StringList `mapstructure:"availability" csv:"availability"`
}

type RawFaculty struct {
	Id           string     `mapstructure:"id" csv:"id" validate:"required"`
	Name         string     `mapstructure:"name" csv:"name"`
	Skills       StringList `mapstructure:"skills" csv:"skills"`
	Availability StringList `mapstructure:"availability" csv:"availability"`
	MaxLoad      int        `mapstructure:"max_load" csv:"max_load" validate:"gte=0"`
}

type RawStudent struct {
	Id            string     `mapstructure:"id" csv:"id" validate:"required"`
	Name          string     `mapstructure:"name" csv:"name"`
	Program       string     `mapstructure:"program" csv:"program"`
	Semester      int        `mapstructure:"semester" csv:"semester" validate:"gte=0"`
	ChosenCourses StringList `mapstructure:"chosen_courses" csv:"chosen_courses"`
	CreditsTarget int        `mapstructure:"credits_target" csv:"credits_target" validate:"gte=0"`
}

type RawSelection struct {
	StudentId  string `mapstructure:"student_id" csv:"student_id" validate:"required"`
	CourseCode string `mapstructure:"course_code" csv:"course_code" validate:"required"`
	Section    string `mapstructure:"section" csv:"section"`
	FacultyId  string `mapstructure:"faculty_id" csv:"faculty_id"`
}

// RawCatalog is the loosely typed catalog as it comes out of JSON, YAML or CSV files.
type RawCatalog struct {
	Courses    []RawCourse    `mapstructure:"courses" validate:"dive"`
	Rooms      []RawRoom      `mapstructure:"rooms" validate:"dive"`
	Faculty    []RawFaculty   `mapstructure:"faculty" validate:"dive"`
	Students   []RawStudent   `mapstructure:"students" validate:"dive"`
	Selections []RawSelection `mapstructure:"selections" validate:"dive"`
}

// CatalogFromFile reads a JSON or YAML document with the courses, rooms, faculty, students and selections collections.
func CatalogFromFile(file string, config Config) (Catalog, error) {
	bytes, err := os.ReadFile(file)
	if err != nil {
		return Catalog{}, fmt.Errorf("cannot read catalog: %w", err)
	}
	var document map[string]any
	if err := yaml.Unmarshal(bytes, &document); err != nil {
		return Catalog{}, fmt.Errorf("cannot parse catalog: %w", err)
	}
	rawCatalog, err := DecodeRawCatalog(document)
	if err != nil {
		return Catalog{}, err
	}
	return ProcessRawCatalog(rawCatalog, config)
}

func DecodeRawCatalog(document map[string]any) (RawCatalog, error) {
	var rawCatalog RawCatalog
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &rawCatalog,
		WeaklyTypedInput: true,
		DecodeHook:       listFromStringHook,
	})
	if err != nil {
		return RawCatalog{}, err
	}
	if err := decoder.Decode(document); err != nil {
		return RawCatalog{}, fmt.Errorf("cannot decode catalog: %w", err)
	}
	return rawCatalog, nil
}

// ProcessRawCatalog validates raw records and turns them into typed ones: course types are parsed,
// availability windows are parsed against the configured grid and sections get their default.
func ProcessRawCatalog(rawCatalog RawCatalog, config Config) (Catalog, error) {
	if err := validate.Struct(rawCatalog); err != nil {
		return Catalog{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	timeGrid := config.Grid()
	errs := make([]error, 0)
	catalog := Catalog{
		Courses:    make([]Course, 0, len(rawCatalog.Courses)),
		Rooms:      make([]Room, 0, len(rawCatalog.Rooms)),
		Faculty:    make([]Faculty, 0, len(rawCatalog.Faculty)),
		Students:   make([]Student, 0, len(rawCatalog.Students)),
		Selections: make([]Selection, 0, len(rawCatalog.Selections)),
	}

	for _, raw := range rawCatalog.Courses {
		courseType, err := ParseCourseType(raw.Type)
		if err != nil {
			errs = append(errs, MalformedRecordError{Collection: "course", Record: raw.Code, Reason: err.Error()})
			continue
		}
		catalog.Courses = append(catalog.Courses, Course{
			Code:              strings.TrimSpace(raw.Code),
			Name:              raw.Name,
			Type:              courseType,
			Credits:           raw.Credits,
			TheoryHours:       raw.TheoryHours,
			PracticalHours:    raw.PracticalHours,
			Program:           raw.Program,
			Semester:          raw.Semester,
			Section:           sectionOrDefault(raw.Section),
			DurationSlots:     raw.DurationSlots,
			RoomType:          strings.TrimSpace(raw.RoomType),
			AllowedDays:       raw.AllowedDays,
			AllowedStartSlots: raw.AllowedStartSlots,
			FacultyPool:       raw.FacultyPool,
		})
	}

	for _, raw := range rawCatalog.Rooms {
		windows, err := parseWindows(timeGrid, raw.Availability)
		if err != nil {
			errs = append(errs, MalformedRecordError{Collection: "room", Record: raw.Id, Reason: err.Error()})
			continue
		}
		catalog.Rooms = append(catalog.Rooms, Room{
			Id:           strings.TrimSpace(raw.Id),
			Name:         raw.Name,
			Capacity:     raw.Capacity,
			Type:         strings.TrimSpace(raw.Type),
			Availability: windows,
		})
	}

	for _, raw := range rawCatalog.Faculty {
		windows, err := parseWindows(timeGrid, raw.Availability)
		if err != nil {
			errs = append(errs, MalformedRecordError{Collection: "faculty", Record: raw.Id, Reason: err.Error()})
			continue
		}
		catalog.Faculty = append(catalog.Faculty, Faculty{
			Id:           strings.TrimSpace(raw.Id),
			Name:         raw.Name,
			Skills:       raw.Skills,
			Availability: windows,
			MaxLoad:      raw.MaxLoad,
		})
	}

	for _, raw := range rawCatalog.Students {
		catalog.Students = append(catalog.Students, Student{
			Id:            strings.TrimSpace(raw.Id),
			Name:          raw.Name,
			Program:       raw.Program,
			Semester:      raw.Semester,
			ChosenCourses: raw.ChosenCourses,
			CreditsTarget: raw.CreditsTarget,
		})
	}

	for _, raw := range rawCatalog.Selections {
		catalog.Selections = append(catalog.Selections, Selection{
			StudentId:  strings.TrimSpace(raw.StudentId),
			CourseCode: strings.TrimSpace(raw.CourseCode),
			Section:    sectionOrDefault(raw.Section),
			FacultyId:  strings.TrimSpace(raw.FacultyId),
		})
	}

	if len(errs) > 0 {
		return Catalog{}, errors.Join(errs...)
	}
	return catalog, nil
}

func sectionOrDefault(section string) string {
	section = strings.TrimSpace(section)
	if section == "" {
		return DefaultSection
	}
	return section
}

func parseWindows(timeGrid grid.Grid, texts []string) ([]grid.Window, error) {
	windows := make([]grid.Window, 0, len(texts))
	for _, text := range texts {
		window, err := timeGrid.ParseWindow(text)
		if err != nil {
			return nil, err
		}
		windows = append(windows, window)
	}
	return windows, nil
}

// listFromStringHook accepts list fields written as JSON arrays inside strings (e.g. "[1, 3, 5]").
func listFromStringHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String {
		return data, nil
	}
	switch to {
	case reflect.TypeOf(IntList{}):
		return parseIntList(data.(string))
	case reflect.TypeOf(StringList{}):
		return parseStringList(data.(string))
	}
	return data, nil
}

func parseIntList(text string) (IntList, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return IntList{}, nil
	}
	var values []int
	if err := json.Unmarshal([]byte(text), &values); err != nil {
		return nil, fmt.Errorf("malformed integer list %q: %w", text, err)
	}
	return values, nil
}

func parseStringList(text string) (StringList, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return StringList{}, nil
	}
	if !strings.HasPrefix(text, "[") {
		return lo.Map(strings.Split(text, ","), func(item string, _ int) string { return strings.TrimSpace(item) }), nil
	}
	var values []any
	if err := json.Unmarshal([]byte(text), &values); err != nil {
		return nil, fmt.Errorf("malformed list %q: %w", text, err)
	}
	return lo.Map(values, func(value any, _ int) string { return identifierText(value) }), nil
}

func identifierText(value any) string {
	switch typed := value.(type) {
	case string:
		return strings.TrimSpace(typed)
	case float64:
		if typed == float64(int64(typed)) {
			return fmt.Sprintf("%d", int64(typed))
		}
		return fmt.Sprintf("%v", typed)
	}
	return fmt.Sprintf("%v", value)
}
