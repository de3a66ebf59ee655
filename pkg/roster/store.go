package roster

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/arnavshah/rota-scheduler/pkg/database"
	"github.com/arnavshah/rota-scheduler/pkg/models"
	"gorm.io/gorm"
)

var (
	ErrBlankName  = errors.New("name must not be blank")
	ErrDuplicate  = errors.New("name already exists")
	ErrNotFound   = errors.New("not found")
	ErrInvalidDay = errors.New("day index out of range")
)

// DemoWorkers and DemoLocations seed an empty store when requested
var (
	DemoWorkers = []models.Worker{
		"Alice", "Bruno", "Carmen", "Dmitri", "Elena", "Farid", "Grace", "Hiro",
		"Ines", "Jonas", "Kemi", "Luca", "Maya", "Nikolai", "Olga", "Pablo",
	}
	DemoLocations = []models.Location{"Harbour Street", "Central Market", "Riverside Mall"}
)

// Store persists the roster with gorm
type Store struct {
	db *gorm.DB
}

// NewStore wraps an already migrated database
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Seed fills the canonical days when missing and, if demo is set, the demo
// workers and locations when both lists are empty.
func (s *Store) Seed(ctx context.Context, demo bool) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var days int64
		if err := tx.Model(&database.DayRecord{}).Count(&days).Error; err != nil {
			return err
		}
		if days == 0 {
			for i, d := range models.CanonicalDays() {
				if err := tx.Create(&database.DayRecord{DayIndex: i, Label: d.Label}).Error; err != nil {
					return err
				}
			}
		}

		if !demo {
			return nil
		}
		var workers, locations int64
		if err := tx.Model(&database.WorkerRecord{}).Count(&workers).Error; err != nil {
			return err
		}
		if err := tx.Model(&database.LocationRecord{}).Count(&locations).Error; err != nil {
			return err
		}
		if workers > 0 || locations > 0 {
			return nil
		}
		for _, w := range DemoWorkers {
			if err := tx.Create(&database.WorkerRecord{Name: string(w)}).Error; err != nil {
				return err
			}
		}
		for _, l := range DemoLocations {
			if err := tx.Create(&database.LocationRecord{Name: string(l)}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Snapshot reads the roster in insertion order
func (s *Store) Snapshot(ctx context.Context) (models.Roster, error) {
	db := s.db.WithContext(ctx)
	var r models.Roster

	var workers []database.WorkerRecord
	if err := db.Order("id").Find(&workers).Error; err != nil {
		return r, fmt.Errorf("load workers: %w", err)
	}
	var locations []database.LocationRecord
	if err := db.Order("id").Find(&locations).Error; err != nil {
		return r, fmt.Errorf("load locations: %w", err)
	}
	var days []database.DayRecord
	if err := db.Order("day_index").Find(&days).Error; err != nil {
		return r, fmt.Errorf("load days: %w", err)
	}

	r.Workers = make([]models.Worker, 0, len(workers))
	for _, w := range workers {
		r.Workers = append(r.Workers, models.Worker(w.Name))
	}
	r.Locations = make([]models.Location, 0, len(locations))
	for _, l := range locations {
		r.Locations = append(r.Locations, models.Location(l.Name))
	}
	if len(days) == 0 {
		r.Days = models.CanonicalDays()
	} else {
		for _, d := range days {
			r.Days = append(r.Days, models.DayOfWeek{Label: d.Label, TimeWindow: d.TimeWindow})
		}
	}
	return r, nil
}

// AddWorker appends a worker. Names are trimmed and compared case-sensitively.
func (s *Store) AddWorker(ctx context.Context, name string) (models.Worker, error) {
	name, err := s.addUnique(ctx, &database.WorkerRecord{}, name, func(n string) any {
		return &database.WorkerRecord{Name: n}
	})
	return models.Worker(name), err
}

// AddLocation appends a location
func (s *Store) AddLocation(ctx context.Context, name string) (models.Location, error) {
	name, err := s.addUnique(ctx, &database.LocationRecord{}, name, func(n string) any {
		return &database.LocationRecord{Name: n}
	})
	return models.Location(name), err
}

// RemoveWorker deletes a worker by exact name
func (s *Store) RemoveWorker(ctx context.Context, name string) error {
	return s.remove(ctx, &database.WorkerRecord{}, name)
}

// RemoveLocation deletes a location by exact name
func (s *Store) RemoveLocation(ctx context.Context, name string) error {
	return s.remove(ctx, &database.LocationRecord{}, name)
}

// SetTimeWindow stores the display time window of a day
func (s *Store) SetTimeWindow(ctx context.Context, dayIndex int, window string) error {
	if dayIndex < 0 || dayIndex >= models.DaysPerWeek {
		return fmt.Errorf("%w: %d", ErrInvalidDay, dayIndex)
	}
	res := s.db.WithContext(ctx).Model(&database.DayRecord{}).
		Where("day_index = ?", dayIndex).
		Update("time_window", strings.TrimSpace(window))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("day %d: %w", dayIndex, ErrNotFound)
	}
	return nil
}

// SaveSchedule stores a generated month together with the roster it came from
func (s *Store) SaveSchedule(ctx context.Context, r models.Roster, sched *models.Schedule) error {
	payload, err := json.Marshal(models.ScheduleResponse{Roster: r, Schedule: sched})
	if err != nil {
		return fmt.Errorf("encode schedule: %w", err)
	}
	return s.db.WithContext(ctx).Create(&database.ScheduleRecord{Payload: payload}).Error
}

// LatestSchedule returns the most recently saved month
func (s *Store) LatestSchedule(ctx context.Context) (models.Roster, *models.Schedule, error) {
	var rec database.ScheduleRecord
	err := s.db.WithContext(ctx).Order("id desc").First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Roster{}, nil, fmt.Errorf("schedule: %w", ErrNotFound)
	}
	if err != nil {
		return models.Roster{}, nil, err
	}

	var saved models.ScheduleResponse
	if err := json.Unmarshal(rec.Payload, &saved); err != nil {
		return models.Roster{}, nil, fmt.Errorf("decode schedule: %w", err)
	}
	return saved.Roster, saved.Schedule, nil
}

func (s *Store) addUnique(ctx context.Context, model any, name string, build func(string) any) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrBlankName
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(model).Where("name = ?", name).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("%q: %w", name, ErrDuplicate)
		}
		return tx.Create(build(name)).Error
	})
	return name, err
}

func (s *Store) remove(ctx context.Context, model any, name string) error {
	res := s.db.WithContext(ctx).Where("name = ?", name).Delete(model)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%q: %w", name, ErrNotFound)
	}
	return nil
}
