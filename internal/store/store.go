// Package store persists application state in a local sqlite database.
// Four logical records (medications, taken log, reschedules, last reset
// date) plus the user preferences are JSON-encoded into a single
// key-value table. A missing or unreadable record reads as its default;
// the application must stay usable with empty state.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mrcode/medtrack/internal/models"
)

// Persisted record keys. The medication keys match the original storage
// layout so an existing database keeps working across upgrades.
const (
	keyMedications   = "medications"
	keyTakenLog      = "medicationTakenLog"
	keyReschedules   = "tempReschedules"
	keyLastResetDate = "lastResetDate"
	keyPreferences   = "preferences"
)

// record is one row of the key-value table
type record struct {
	Key   string `gorm:"primaryKey"`
	Value []byte
}

// Store is a durable key-value store for the application's state
type Store struct {
	db  *gorm.DB
	log *logrus.Logger
}

// Open opens (creating if needed) the database under dataDir
func Open(dataDir string, log *logrus.Logger) (*Store, error) {
	path := filepath.Join(dataDir, "medtrack.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", path, err)
	}
	if err := db.AutoMigrate(&record{}); err != nil {
		return nil, fmt.Errorf("migrating database: %w", err)
	}
	return &Store{db: db, log: log}, nil
}

// Close closes the underlying database connection
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Transact runs fn inside a single database transaction so multi-record
// writes commit or roll back together
func (s *Store) Transact(fn func(tx *Store) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx, log: s.log})
	})
}

// get decodes the record into out. Returns false when the record is
// missing or unreadable; the caller keeps its default value.
func (s *Store) get(key string, out interface{}) bool {
	var rec record
	if err := s.db.First(&rec, "key = ?", key).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.log.WithError(err).Warnf("reading record %q", key)
		}
		return false
	}
	if err := json.Unmarshal(rec.Value, out); err != nil {
		s.log.WithError(err).Warnf("record %q is corrupt, using defaults", key)
		return false
	}
	return true
}

// set encodes v and upserts it under key
func (s *Store) set(key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding record %q: %w", key, err)
	}
	err = s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&record{Key: key, Value: data}).Error
	if err != nil {
		return fmt.Errorf("writing record %q: %w", key, err)
	}
	return nil
}

// Medications returns the stored medication list, empty if none
func (s *Store) Medications() []models.Medication {
	var meds []models.Medication
	s.get(keyMedications, &meds)
	return meds
}

// SaveMedications stores the medication list
func (s *Store) SaveMedications(meds []models.Medication) error {
	return s.set(keyMedications, meds)
}

// TakenLog returns the stored taken log, empty if none. The notification
// engine calls this at timer fire time to re-check live state.
func (s *Store) TakenLog() models.TakenLog {
	log := models.TakenLog{}
	s.get(keyTakenLog, &log)
	return log
}

// SaveTakenLog stores the taken log
func (s *Store) SaveTakenLog(log models.TakenLog) error {
	return s.set(keyTakenLog, log)
}

// Reschedules returns the stored temporary reschedules, empty if none
func (s *Store) Reschedules() []models.Reschedule {
	var reschedules []models.Reschedule
	s.get(keyReschedules, &reschedules)
	return reschedules
}

// SaveReschedules stores the temporary reschedules
func (s *Store) SaveReschedules(reschedules []models.Reschedule) error {
	return s.set(keyReschedules, reschedules)
}

// LastResetDate returns the date of the last daily reset, empty if never
func (s *Store) LastResetDate() string {
	var date string
	s.get(keyLastResetDate, &date)
	return date
}

// SaveLastResetDate stores the daily reset marker
func (s *Store) SaveLastResetDate(date string) error {
	return s.set(keyLastResetDate, date)
}

// Preferences returns the stored alert preferences, defaults if none
func (s *Store) Preferences() models.Preferences {
	prefs := models.DefaultPreferences()
	s.get(keyPreferences, &prefs)
	return prefs.Normalized()
}

// SavePreferences stores the alert preferences
func (s *Store) SavePreferences(prefs models.Preferences) error {
	return s.set(keyPreferences, prefs)
}
