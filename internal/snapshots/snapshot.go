package snapshots

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gestao/internal/gateway"
	"gestao/internal/timeframe"
)

// PeriodSnapshot is a cached metrics API response for one closed date range
type PeriodSnapshot struct {
	ID        uint      `gorm:"primaryKey"`
	RangeKey  string    `gorm:"uniqueIndex;not null"`
	StartDate string    `gorm:"not null"`
	EndDate   string    `gorm:"not null"`
	Payload   string    `gorm:"type:text;not null"`
	FetchedAt time.Time `gorm:"index;not null"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime:milli"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime:milli"`
}

// Migrate creates or updates the snapshot tables
func Migrate(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		return tx.AutoMigrate(&PeriodSnapshot{})
	})
}

// Store persists period results keyed by date range
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Get returns the cached result for r; found is false on a miss
func (s *Store) Get(ctx context.Context, r timeframe.DateRange) (*gateway.PeriodResult, bool, error) {
	var snap PeriodSnapshot
	err := s.db.WithContext(ctx).Where("range_key = ?", r.Key()).First(&snap).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read snapshot %s: %w", r, err)
	}

	var result gateway.PeriodResult
	if err := json.Unmarshal([]byte(snap.Payload), &result); err != nil {
		return nil, false, fmt.Errorf("failed to decode snapshot %s: %w", r, err)
	}
	return &result, true, nil
}

// Put inserts or replaces the snapshot for r
func (s *Store) Put(ctx context.Context, r timeframe.DateRange, result *gateway.PeriodResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot %s: %w", r, err)
	}

	snap := PeriodSnapshot{
		RangeKey:  r.Key(),
		StartDate: r.Start.String(),
		EndDate:   r.End.String(),
		Payload:   string(payload),
		FetchedAt: s.now().UTC(),
	}

	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "range_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "fetched_at", "updated_at"}),
	}).Create(&snap).Error
	if err != nil {
		return fmt.Errorf("failed to store snapshot %s: %w", r, err)
	}
	return nil
}

// PurgeOlderThan deletes snapshots fetched before cutoff and returns how many were removed
func (s *Store) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Where("fetched_at < ?", cutoff.UTC()).Delete(&PeriodSnapshot{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to purge snapshots: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&PeriodSnapshot{}).Count(&count).Error
	return count, err
}
