package scheduler

import "github.com/arnavshah/rota-scheduler/pkg/models"

// Never marks a worker that has not been assigned yet
const Never = -1

// WorkloadState is the per-run bookkeeping for one worker
type WorkloadState struct {
	TotalAssignments    int
	LastAssignedDay     int
	LastAssignedWeekend int
}

// WorkloadTracker keeps the load and recency of every worker during one run.
// A tracker must not be shared between runs.
type WorkloadTracker struct {
	states map[models.Worker]*WorkloadState
}

// NewWorkloadTracker creates an empty tracker
func NewWorkloadTracker() *WorkloadTracker {
	return &WorkloadTracker{states: make(map[models.Worker]*WorkloadState)}
}

// Reset discards previous state and starts every worker at zero
func (t *WorkloadTracker) Reset(workers []models.Worker) {
	t.states = make(map[models.Worker]*WorkloadState, len(workers))
	for _, w := range workers {
		t.states[w] = &WorkloadState{
			TotalAssignments:    0,
			LastAssignedDay:     Never,
			LastAssignedWeekend: Never,
		}
	}
}

// RecordAssignment books one shift for worker
func (t *WorkloadTracker) RecordAssignment(worker models.Worker, linearDay, week int, isWeekend bool) {
	st := t.state(worker)
	st.TotalAssignments++
	st.LastAssignedDay = linearDay
	if isWeekend {
		st.LastAssignedWeekend = week
	}
}

// IsEligible checks the cap, the day-rest rule (unless relaxed) and the weekend-rest rule
func (t *WorkloadTracker) IsEligible(worker models.Worker, linearDay, week int, isWeekend bool, capPerWorker int, relaxConsecutiveDay bool) bool {
	st := t.state(worker)
	if st.TotalAssignments >= capPerWorker {
		return false
	}
	if !relaxConsecutiveDay && st.LastAssignedDay != Never && linearDay-st.LastAssignedDay <= 1 {
		return false
	}
	if isWeekend && st.LastAssignedWeekend != Never && week-st.LastAssignedWeekend <= 1 {
		return false
	}
	return true
}

// Load returns the number of shifts booked so far
func (t *WorkloadTracker) Load(worker models.Worker) int {
	return t.state(worker).TotalAssignments
}

// State returns a copy of the worker's bookkeeping
func (t *WorkloadTracker) State(worker models.Worker) WorkloadState {
	return *t.state(worker)
}

// Loads returns the load of every tracked worker
func (t *WorkloadTracker) Loads() map[models.Worker]int {
	loads := make(map[models.Worker]int, len(t.states))
	for w, st := range t.states {
		loads[w] = st.TotalAssignments
	}
	return loads
}

func (t *WorkloadTracker) state(worker models.Worker) *WorkloadState {
	st, ok := t.states[worker]
	if !ok {
		st = &WorkloadState{LastAssignedDay: Never, LastAssignedWeekend: Never}
		t.states[worker] = st
	}
	return st
}
