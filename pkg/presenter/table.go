package presenter

import (
	"fmt"
	"strings"

	"github.com/arnavshah/rota-scheduler/pkg/models"
)

// Table is a rendered week: a header row followed by one row per day
type Table struct {
	Title  string     `json:"title"`
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

// DayLabel renders a day with its time window, if any
func DayLabel(d models.DayOfWeek) string {
	if d.TimeWindow == "" {
		return d.Label
	}
	return fmt.Sprintf("%s (%s)", d.Label, d.TimeWindow)
}

// WeekTable renders one week of the grid. Locations are columns, days are rows.
func WeekTable(r models.Roster, grid models.MonthGrid, week int) Table {
	t := Table{
		Title:  fmt.Sprintf("Week %d", week+1),
		Header: make([]string, 0, len(r.Locations)+1),
	}
	t.Header = append(t.Header, "Day")
	for _, l := range r.Locations {
		t.Header = append(t.Header, string(l))
	}

	for d, day := range r.Days {
		row := make([]string, 0, len(r.Locations)+1)
		row = append(row, DayLabel(day))
		for l := range r.Locations {
			row = append(row, JoinCell(cellAt(grid, week, l, d)))
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// MonthTables renders every week of the grid
func MonthTables(r models.Roster, grid models.MonthGrid) []Table {
	tables := make([]Table, 0, len(grid))
	for w := range grid {
		tables = append(tables, WeekTable(r, grid, w))
	}
	return tables
}

// JoinCell formats a cell the way it is shown to people
func JoinCell(cell models.ShiftCell) string {
	names := make([]string, len(cell))
	for i, w := range cell {
		names[i] = string(w)
	}
	return strings.Join(names, ", ")
}

// Text renders tables as aligned plain text
func Text(tables []Table) string {
	var b strings.Builder
	for i, t := range tables {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(t.Title + "\n")

		widths := make([]int, len(t.Header))
		for c, h := range t.Header {
			widths[c] = len(h)
		}
		for _, row := range t.Rows {
			for c, v := range row {
				widths[c] = max(widths[c], len(v))
			}
		}

		writeRow := func(row []string) {
			for c, v := range row {
				if c > 0 {
					b.WriteString(" | ")
				}
				b.WriteString(v)
				if c < len(row)-1 {
					b.WriteString(strings.Repeat(" ", widths[c]-len(v)))
				}
			}
			b.WriteString("\n")
		}
		writeRow(t.Header)
		for _, row := range t.Rows {
			writeRow(row)
		}
	}
	return b.String()
}

func cellAt(grid models.MonthGrid, week, loc, day int) models.ShiftCell {
	if week >= len(grid) || loc >= len(grid[week]) || day >= len(grid[week][loc]) {
		return nil
	}
	return grid[week][loc][day]
}
