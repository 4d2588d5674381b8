// Package store persists alert history in the local SQLite database.
// It initializes GORM with the pure-Go SQLite driver so the binary stays
// cgo-free.
package store

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Alert is one persisted critical event.
type Alert struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Resource  string    `gorm:"index" json:"resource"`
	Value     int       `json:"value"`
	Threshold int       `json:"threshold"`
	CreatedAt time.Time `json:"created_at"`
}

// Store wraps the alert-history database.
type Store struct {
	db *gorm.DB
}

// Open opens the SQLite database at path, creating it if needed, and runs
// AutoMigrate.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.AutoMigrate(&Alert{}); err != nil {
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// SaveAlert records one critical event.
func (s *Store) SaveAlert(resource string, value, threshold int) error {
	a := Alert{Resource: resource, Value: value, Threshold: threshold}
	if err := s.db.Create(&a).Error; err != nil {
		return fmt.Errorf("save alert: %w", err)
	}
	return nil
}

// Recent returns the newest n alerts, newest first.
func (s *Store) Recent(n int) ([]Alert, error) {
	var alerts []Alert
	if err := s.db.Order("created_at desc, id desc").Limit(n).Find(&alerts).Error; err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	return alerts, nil
}

// PruneBefore deletes alerts created before cutoff and reports how many
// rows went away.
func (s *Store) PruneBefore(cutoff time.Time) (int64, error) {
	res := s.db.Where("created_at < ?", cutoff).Delete(&Alert{})
	if res.Error != nil {
		return 0, fmt.Errorf("prune alerts: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// Count returns the stored alert total.
func (s *Store) Count() (int64, error) {
	var n int64
	if err := s.db.Model(&Alert{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count alerts: %w", err)
	}
	return n, nil
}
