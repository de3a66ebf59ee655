package models

import "time"

// WeeksPerMonth is the fixed horizon of one generated schedule
const WeeksPerMonth = 4

// DaysPerWeek is the length of the canonical day list
const DaysPerWeek = 7

// Worker is a person on the roster, identified by display name
type Worker string

// Location is a place that needs staffing every day
type Location string

// DayOfWeek is one entry of the canonical week. TimeWindow is display-only.
type DayOfWeek struct {
	Label      string `json:"label"`
	TimeWindow string `json:"time_window,omitempty"`
}

// CanonicalDays returns a fresh copy of the Monday..Sunday list
func CanonicalDays() []DayOfWeek {
	return []DayOfWeek{
		{Label: "Monday"},
		{Label: "Tuesday"},
		{Label: "Wednesday"},
		{Label: "Thursday"},
		{Label: "Friday"},
		{Label: "Saturday"},
		{Label: "Sunday"},
	}
}

// IsWeekend reports whether the day at index is Saturday or Sunday.
// The mapping is positional and ignores labels.
func IsWeekend(dayIndex int) bool {
	return dayIndex == 5 || dayIndex == 6
}

// Roster is the snapshot of workers, locations and days used for one run
type Roster struct {
	Workers   []Worker    `json:"workers"`
	Locations []Location  `json:"locations"`
	Days      []DayOfWeek `json:"days"`
}

// ShiftCell holds the workers assigned to one (week, location, day), in assignment order
type ShiftCell []Worker

// WeekGrid is indexed by location then day
type WeekGrid [][]ShiftCell

// MonthGrid is an ordered sequence of WeeksPerMonth week grids
type MonthGrid []WeekGrid

// NewWeekGrid allocates an empty grid with every cell present
func NewWeekGrid(locations, days int) WeekGrid {
	grid := make(WeekGrid, locations)
	for l := range grid {
		grid[l] = make([]ShiftCell, days)
		for d := range grid[l] {
			grid[l][d] = ShiftCell{}
		}
	}
	return grid
}

// NewMonthGrid allocates WeeksPerMonth empty week grids
func NewMonthGrid(locations, days int) MonthGrid {
	month := make(MonthGrid, WeeksPerMonth)
	for w := range month {
		month[w] = NewWeekGrid(locations, days)
	}
	return month
}

// CellRef addresses a single cell of a MonthGrid
type CellRef struct {
	Week     int `json:"week"`
	Location int `json:"location"`
	Day      int `json:"day"`
}

// UnfilledCell represents a cell that received fewer workers than requested
type UnfilledCell struct {
	CellRef
	Wanted   int      `json:"wanted"`
	Assigned int      `json:"assigned"`
	Reasons  []string `json:"reasons"`
}

// Schedule is the result of one allocation run
type Schedule struct {
	Grid           MonthGrid      `json:"grid"`
	Loads          map[Worker]int `json:"loads"`
	CapPerWorker   int            `json:"cap_per_worker"`
	PeoplePerShift int            `json:"people_per_shift"`
	Relaxed        []CellRef      `json:"relaxed,omitempty"`
	Unfilled       []UnfilledCell `json:"unfilled,omitempty"`
	FairnessScore  float64        `json:"fairness_score"`
	Strategy       string         `json:"strategy"`
	GeneratedAt    time.Time      `json:"generated_at"`
}

// ScheduleInput is the body of a schedule request. Roster is only read by the stateless endpoint.
type ScheduleInput struct {
	Roster      *Roster `json:"roster,omitempty"`
	Strategy    string  `json:"strategy,omitempty"`
	ShuffleSeed *int64  `json:"shuffle_seed,omitempty"`
}

// ScheduleResponse pairs a schedule with the roster it was generated from
type ScheduleResponse struct {
	Roster   Roster    `json:"roster"`
	Schedule *Schedule `json:"schedule"`
	Cached   bool      `json:"cached"`
}
