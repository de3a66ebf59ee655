package scheduler

import (
	"errors"
	"fmt"
	"math/rand"
	"slices"
	"time"

	"github.com/arnavshah/rota-scheduler/pkg/models"
)

// ErrInvariantViolation is returned when a run produced an inconsistent grid.
// It always indicates a bug in the engine, never bad input.
var ErrInvariantViolation = errors.New("scheduler invariant violated")

// ErrUnknownStrategy is returned by ParseStrategy
var ErrUnknownStrategy = errors.New("unknown strategy")

// Strategy selects the eligibility rules used when filling cells
type Strategy string

const (
	// StrategyRestAware applies the cap, the day-rest and weekend-rest rules,
	// relaxing only the day-rest rule when a cell would stay empty.
	StrategyRestAware Strategy = "rest_aware"
	// StrategyLeastLoaded applies the cap only.
	StrategyLeastLoaded Strategy = "least_loaded"
)

// ParseStrategy maps a request value to a Strategy. Empty means the default.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case "", StrategyRestAware:
		return StrategyRestAware, nil
	case StrategyLeastLoaded:
		return StrategyLeastLoaded, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
}

// Option configures a Scheduler
type Option func(*Scheduler)

// WithStrategy overrides the default rest-aware strategy
func WithStrategy(strategy Strategy) Option {
	return func(s *Scheduler) {
		s.strategy = strategy
	}
}

// WithDayShuffle visits the days of each week in an order drawn from rng.
// The rng is not safe for concurrent use, so a Scheduler built with it must not
// run GenerateMonth from several goroutines.
func WithDayShuffle(rng *rand.Rand) Option {
	return func(s *Scheduler) {
		s.rng = rng
	}
}

// WithClock sets the time source used for Schedule.GeneratedAt
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		s.now = now
	}
}

// Scheduler assigns workers to the daily shifts of every location over a month
type Scheduler struct {
	strategy Strategy
	rng      *rand.Rand
	now      func() time.Time
}

// NewScheduler creates a new scheduler instance
func NewScheduler(opts ...Option) *Scheduler {
	s := &Scheduler{
		strategy: StrategyRestAware,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Strategy returns the configured strategy
func (s *Scheduler) Strategy() Strategy {
	return s.strategy
}

// run holds everything that lives for a single GenerateMonth call
type run struct {
	roster         models.Roster
	tracker        *WorkloadTracker
	capPerWorker   int
	peoplePerShift int
	schedule       *models.Schedule
}

// GenerateMonth fills WeeksPerMonth week grids from the roster snapshot.
// An empty worker or location list yields a grid of empty cells, not an error.
func (s *Scheduler) GenerateMonth(roster models.Roster) (*models.Schedule, error) {
	if len(roster.Days) == 0 {
		roster.Days = models.CanonicalDays()
	}
	roster.Workers = slices.Clone(roster.Workers)
	roster.Locations = slices.Clone(roster.Locations)

	schedule := &models.Schedule{
		Grid:        models.NewMonthGrid(len(roster.Locations), len(roster.Days)),
		Loads:       make(map[models.Worker]int, len(roster.Workers)),
		Strategy:    string(s.strategy),
		GeneratedAt: s.now(),
	}
	for _, w := range roster.Workers {
		schedule.Loads[w] = 0
	}
	if len(roster.Workers) == 0 || len(roster.Locations) == 0 {
		schedule.FairnessScore = FairnessScore(schedule.Loads)
		return schedule, nil
	}

	totalShiftsPerWeek := len(roster.Locations) * len(roster.Days)
	shiftsPerPersonPerWeek := ceilDiv(totalShiftsPerWeek, len(roster.Workers))

	r := &run{
		roster:         roster,
		tracker:        NewWorkloadTracker(),
		capPerWorker:   shiftsPerPersonPerWeek * models.WeeksPerMonth,
		peoplePerShift: max(1, ceilDiv(len(roster.Workers), totalShiftsPerWeek)),
		schedule:       schedule,
	}
	r.tracker.Reset(roster.Workers)
	schedule.CapPerWorker = r.capPerWorker
	schedule.PeoplePerShift = r.peoplePerShift

	for week := 0; week < models.WeeksPerMonth; week++ {
		for _, day := range s.dayOrder(len(roster.Days)) {
			for loc := range roster.Locations {
				s.fillCell(r, week, loc, day)
			}
		}
	}

	schedule.Loads = r.tracker.Loads()
	schedule.FairnessScore = FairnessScore(schedule.Loads)

	if err := verify(r); err != nil {
		return nil, err
	}
	return schedule, nil
}

func (s *Scheduler) dayOrder(days int) []int {
	order := make([]int, days)
	for i := range order {
		order[i] = i
	}
	if s.rng != nil {
		s.rng.Shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})
	}
	return order
}

func (s *Scheduler) fillCell(r *run, week, loc, day int) {
	linearDay := week*models.DaysPerWeek + day
	isWeekend := models.IsWeekend(day)
	ref := models.CellRef{Week: week, Location: loc, Day: day}

	eligible := s.eligible(r, linearDay, week, isWeekend, false)
	if len(eligible) == 0 && s.strategy == StrategyRestAware {
		eligible = s.eligible(r, linearDay, week, isWeekend, true)
		if len(eligible) > 0 {
			r.schedule.Relaxed = append(r.schedule.Relaxed, ref)
		}
	}

	// Stable sort keeps roster order among equal loads.
	slices.SortStableFunc(eligible, func(a, b models.Worker) int {
		return r.tracker.Load(a) - r.tracker.Load(b)
	})

	take := min(r.peoplePerShift, len(eligible))
	cell := r.schedule.Grid[week][loc][day]
	for _, w := range eligible[:take] {
		cell = append(cell, w)
		r.tracker.RecordAssignment(w, linearDay, week, isWeekend)
	}
	r.schedule.Grid[week][loc][day] = cell

	if take < r.peoplePerShift {
		r.schedule.Unfilled = append(r.schedule.Unfilled, models.UnfilledCell{
			CellRef:  ref,
			Wanted:   r.peoplePerShift,
			Assigned: take,
			Reasons:  s.explain(r, linearDay, week, isWeekend),
		})
	}
}

func (s *Scheduler) eligible(r *run, linearDay, week int, isWeekend, relax bool) []models.Worker {
	var out []models.Worker
	for _, w := range r.roster.Workers {
		var ok bool
		if s.strategy == StrategyLeastLoaded {
			ok = r.tracker.Load(w) < r.capPerWorker
		} else {
			ok = r.tracker.IsEligible(w, linearDay, week, isWeekend, r.capPerWorker, relax)
		}
		if ok {
			out = append(out, w)
		}
	}
	return out
}

// explain counts why workers were turned away from an understaffed cell
func (s *Scheduler) explain(r *run, linearDay, week int, isWeekend bool) []string {
	capped, resting, weekendRest := 0, 0, 0
	for _, w := range r.roster.Workers {
		st := r.tracker.State(w)
		switch {
		case st.TotalAssignments >= r.capPerWorker:
			capped++
		case s.strategy == StrategyRestAware && isWeekend && st.LastAssignedWeekend != Never && week-st.LastAssignedWeekend <= 1:
			weekendRest++
		case s.strategy == StrategyRestAware && st.LastAssignedDay != Never && linearDay-st.LastAssignedDay <= 1:
			resting++
		}
	}

	var reasons []string
	if capped > 0 {
		reasons = append(reasons, fmt.Sprintf("%d workers were at the monthly cap", capped))
	}
	if weekendRest > 0 {
		reasons = append(reasons, fmt.Sprintf("%d workers worked the previous weekend", weekendRest))
	}
	if resting > 0 {
		reasons = append(reasons, fmt.Sprintf("%d workers worked the previous or same day", resting))
	}
	if len(reasons) == 0 {
		reasons = append(reasons, "not enough workers on the roster")
	}
	return reasons
}

// verify checks the grid against the tracker after a run
func verify(r *run) error {
	known := make(map[models.Worker]bool, len(r.roster.Workers))
	for _, w := range r.roster.Workers {
		known[w] = true
	}

	counted := make(map[models.Worker]int, len(known))
	for wi, week := range r.schedule.Grid {
		for li, row := range week {
			for di, cell := range row {
				seen := make(map[models.Worker]bool, len(cell))
				for _, w := range cell {
					if !known[w] {
						return fmt.Errorf("%w: unknown worker %q in week %d location %d day %d", ErrInvariantViolation, w, wi, li, di)
					}
					if seen[w] {
						return fmt.Errorf("%w: %q twice in week %d location %d day %d", ErrInvariantViolation, w, wi, li, di)
					}
					seen[w] = true
					counted[w]++
				}
			}
		}
	}

	for w, load := range r.schedule.Loads {
		if load > r.capPerWorker {
			return fmt.Errorf("%w: %q has %d shifts, cap is %d", ErrInvariantViolation, w, load, r.capPerWorker)
		}
		if counted[w] != load {
			return fmt.Errorf("%w: %q tracked %d shifts but holds %d cells", ErrInvariantViolation, w, load, counted[w])
		}
	}
	return nil
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
