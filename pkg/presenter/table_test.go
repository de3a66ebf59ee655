package presenter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arnavshah/rota-scheduler/pkg/models"
)

func sampleRoster() models.Roster {
	days := models.CanonicalDays()
	days[0].TimeWindow = "9:00-17:00"
	return models.Roster{
		Workers:   []models.Worker{"Ana", "Ben"},
		Locations: []models.Location{"Depot", "Kiosk"},
		Days:      days,
	}
}

func TestWeekTable(t *testing.T) {
	r := sampleRoster()
	grid := models.NewMonthGrid(2, 7)
	grid[1][0][0] = models.ShiftCell{"Ana", "Ben"}
	grid[1][1][6] = models.ShiftCell{"Ben"}

	tbl := WeekTable(r, grid, 1)
	assert.Equal(t, "Week 2", tbl.Title)
	assert.Equal(t, []string{"Day", "Depot", "Kiosk"}, tbl.Header)
	require.Len(t, tbl.Rows, 7)
	assert.Equal(t, []string{"Monday (9:00-17:00)", "Ana, Ben", ""}, tbl.Rows[0])
	assert.Equal(t, []string{"Sunday", "", "Ben"}, tbl.Rows[6])
}

func TestMonthTables_EmptyGrid(t *testing.T) {
	r := sampleRoster()
	tables := MonthTables(r, models.NewMonthGrid(2, 7))
	require.Len(t, tables, models.WeeksPerMonth)
	for _, tbl := range tables {
		for _, row := range tbl.Rows {
			assert.Equal(t, "", row[1])
			assert.Equal(t, "", row[2])
		}
	}
}

func TestText(t *testing.T) {
	tbl := Table{
		Title:  "Week 1",
		Header: []string{"Day", "Depot"},
		Rows:   [][]string{{"Monday", "Ana"}, {"Tue", ""}},
	}
	want := "Week 1\n" +
		"Day    | Depot\n" +
		"Monday | Ana\n" +
		"Tue    | \n"
	assert.Equal(t, want, Text([]Table{tbl}))
}
