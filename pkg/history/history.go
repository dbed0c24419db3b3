// Package history keeps a log of monitoring runs in SQLite.
package history

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// RunModel is one recorded run.
type RunModel struct {
	ID        string `gorm:"primaryKey"`
	Target    string `gorm:"index"`
	Status    string
	Scanner   string
	Report    string
	Open      int
	Added     string // comma separated service ids
	Removed   string
	Alert     bool
	CreatedAt time.Time `gorm:"index"`
}

func (RunModel) TableName() string {
	return "runs"
}

// Entry is a run as seen by callers.
type Entry struct {
	ID      string
	Target  string
	Status  string
	Scanner string
	Report  string
	Open    int
	Added   []string
	Removed []string
	Alert   bool
	At      time.Time
}

// Store records and lists runs.
type Store struct {
	db *gorm.DB
}

// Open opens (or creates) the database at path and migrates the schema.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if err := db.AutoMigrate(&RunModel{}); err != nil {
		return nil, fmt.Errorf("migrate history db: %w", err)
	}
	return &Store{db: db}, nil
}

// Record inserts e.
func (s *Store) Record(e Entry) error {
	m := RunModel{
		ID:        e.ID,
		Target:    e.Target,
		Status:    e.Status,
		Scanner:   e.Scanner,
		Report:    e.Report,
		Open:      e.Open,
		Added:     strings.Join(e.Added, ","),
		Removed:   strings.Join(e.Removed, ","),
		Alert:     e.Alert,
		CreatedAt: e.At,
	}
	if err := s.db.Create(&m).Error; err != nil {
		return fmt.Errorf("record run %s: %w", e.ID, err)
	}
	return nil
}

// List returns the most recent runs for target, newest first.
// An empty target lists every target. limit <= 0 means no limit.
func (s *Store) List(target string, limit int) ([]Entry, error) {
	q := s.db.Order("created_at desc")
	if target != "" {
		q = q.Where("target = ?", target)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}

	var rows []RunModel
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}

	entries := make([]Entry, 0, len(rows))
	for _, m := range rows {
		entries = append(entries, Entry{
			ID:      m.ID,
			Target:  m.Target,
			Status:  m.Status,
			Scanner: m.Scanner,
			Report:  m.Report,
			Open:    m.Open,
			Added:   splitIDs(m.Added),
			Removed: splitIDs(m.Removed),
			Alert:   m.Alert,
			At:      m.CreatedAt,
		})
	}
	return entries, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func splitIDs(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
