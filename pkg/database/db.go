package database

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// APIKey represents the api_keys table
type APIKey struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Key        string     `gorm:"unique;not null" json:"-"`
	KeyPreview string     `json:"key_preview"`
	Name       string     `gorm:"not null" json:"name"`
	RateLimit  int        `gorm:"default:10000" json:"rate_limit"`
	Revoked    bool       `gorm:"not null;default:false" json:"revoked"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsed   *time.Time `json:"last_used"`
}

// APIUsage represents the api_usage table
type APIUsage struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	KeyID        uint   `gorm:"uniqueIndex:idx_key_date;not null" json:"key_id"`
	Date         string `gorm:"uniqueIndex:idx_key_date;not null" json:"date"`
	RequestCount int    `gorm:"default:0" json:"request_count"`
	TotalShifts  int    `gorm:"default:0" json:"total_shifts"`
	TotalWorkers int    `gorm:"default:0" json:"total_workers"`
}

// MasterUser represents the master_users table
type MasterUser struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"unique;not null" json:"username"`
	PasswordHash string    `gorm:"not null" json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

// WorkerRecord represents the workers table. ID order is roster order.
type WorkerRecord struct {
	ID        uint      `gorm:"primaryKey"`
	Name      string    `gorm:"unique;not null"`
	CreatedAt time.Time
}

// TableName overrides the default table name
func (WorkerRecord) TableName() string { return "workers" }

// LocationRecord represents the locations table
type LocationRecord struct {
	ID        uint      `gorm:"primaryKey"`
	Name      string    `gorm:"unique;not null"`
	CreatedAt time.Time
}

// TableName overrides the default table name
func (LocationRecord) TableName() string { return "locations" }

// DayRecord represents the days table, one row per canonical day
type DayRecord struct {
	DayIndex   int    `gorm:"primaryKey;autoIncrement:false"`
	Label      string `gorm:"not null"`
	TimeWindow string
}

// TableName overrides the default table name
func (DayRecord) TableName() string { return "days" }

// ScheduleRecord stores a generated month as JSON
type ScheduleRecord struct {
	ID        uint   `gorm:"primaryKey"`
	Payload   []byte `gorm:"not null"`
	CreatedAt time.Time
}

// TableName overrides the default table name
func (ScheduleRecord) TableName() string { return "schedules" }

// Open connects to postgres when databaseURL is set and to the sqlite file at
// dataPath otherwise, then migrates the schema.
func Open(databaseURL, dataPath string) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	if databaseURL != "" {
		db, err = gorm.Open(postgres.New(postgres.Config{
			DSN:                  databaseURL,
			PreferSimpleProtocol: true,
		}), &gorm.Config{
			PrepareStmt: false,
		})
	} else {
		db, err = gorm.Open(sqlite.Open(dataPath), &gorm.Config{})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if err := db.AutoMigrate(
		&APIKey{}, &APIUsage{}, &MasterUser{},
		&WorkerRecord{}, &LocationRecord{}, &DayRecord{}, &ScheduleRecord{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}
