package model

import (
	"fmt"
	"io"
	"os"

	"github.com/gocarina/gocsv"
)

// CSVFiles names one CSV file per collection; list columns hold JSON arrays, e.g. "[0, 1, 2]".
// An empty path skips the collection.
type CSVFiles struct {
	Courses    string
	Rooms      string
	Faculty    string
	Students   string
	Selections string
}

// RawCatalogFromCSV reads the raw collections from CSV files.
func RawCatalogFromCSV(files CSVFiles) (RawCatalog, error) {
	var rawCatalog RawCatalog
	if err := unmarshalCSVFile(files.Courses, &rawCatalog.Courses); err != nil {
		return RawCatalog{}, err
	}
	if err := unmarshalCSVFile(files.Rooms, &rawCatalog.Rooms); err != nil {
		return RawCatalog{}, err
	}
	if err := unmarshalCSVFile(files.Faculty, &rawCatalog.Faculty); err != nil {
		return RawCatalog{}, err
	}
	if err := unmarshalCSVFile(files.Students, &rawCatalog.Students); err != nil {
		return RawCatalog{}, err
	}
	if err := unmarshalCSVFile(files.Selections, &rawCatalog.Selections); err != nil {
		return RawCatalog{}, err
	}
	return rawCatalog, nil
}

// CatalogFromCSV reads and processes CSV collections.
func CatalogFromCSV(files CSVFiles, config Config) (Catalog, error) {
	rawCatalog, err := RawCatalogFromCSV(files)
	if err != nil {
		return Catalog{}, err
	}
	return ProcessRawCatalog(rawCatalog, config)
}

func unmarshalCSVFile[T any](path string, out *[]T) error {
	if path == "" {
		return nil
	}
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("cannot open %v: %w", path, err)
	}
	defer file.Close()

	if err := gocsv.Unmarshal(file, out); err != nil {
		return fmt.Errorf("cannot parse %v: %w", path, err)
	}
	return nil
}

// WriteScheduleCSV writes the schedule entries with a header row.
func WriteScheduleCSV(out io.Writer, entries []ScheduleEntry) error {
	if err := gocsv.Marshal(&entries, out); err != nil {
		return fmt.Errorf("cannot write schedule csv: %w", err)
	}
	return nil
}

// ScheduleCSVString renders the schedule entries as CSV text.
func ScheduleCSVString(entries []ScheduleEntry) (string, error) {
	text, err := gocsv.MarshalString(&entries)
	if err != nil {
		return "", fmt.Errorf("cannot write schedule csv: %w", err)
	}
	return text, nil
}
