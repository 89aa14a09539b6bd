package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/limaJavier/coursetable/pkg/model"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4")).Padding(0, 1)
	slotStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// renderWeek draws one row per slot and one column per configured day; a cell lists the
// sections running during that slot as "CODE/SECTION@ROOM".
func renderWeek(entries []model.ScheduleEntry, config model.Config) string {
	timeGrid := config.Grid()
	cells := make([][][]string, timeGrid.SlotsPerDay)
	for slot := range cells {
		cells[slot] = make([][]string, len(timeGrid.Days))
	}
	for _, entry := range entries {
		for slot := entry.StartSlot; slot <= entry.EndSlot; slot++ {
			cells[slot-1][entry.Day] = append(cells[slot-1][entry.Day], fmt.Sprintf("%v@%v", entry.Key(), entry.RoomId))
		}
	}

	rows := make([][]string, 0, timeGrid.SlotsPerDay)
	for slot := range cells {
		row := []string{timeGrid.ClockString(slot + 1)}
		for _, sections := range cells[slot] {
			row = append(row, strings.Join(sections, "\n"))
		}
		rows = append(rows, row)
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#444444"))).
		BorderRow(true).
		Headers(append([]string{""}, timeGrid.Days...)...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 0:
				return slotStyle
			default:
				return cellStyle
			}
		}).
		String()
}
