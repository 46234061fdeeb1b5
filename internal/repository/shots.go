package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/trentd187/golf-metrics/internal/filters"
	"github.com/trentd187/golf-metrics/internal/metrics"
	"github.com/trentd187/golf-metrics/internal/models"
)

// ListShots returns one page of shots matching f, newest first, with the golfer chain loaded
// for the golfer, group and tournament names.
func (s *Store) ListShots(ctx context.Context, f filters.Shot, page Page) ([]models.Shot, int64, error) {
	defer metrics.RecordDBOperation("list", EntityShots, time.Now())

	base := f.Scope(s.db.WithContext(ctx).Model(&models.Shot{})).Session(&gorm.Session{})
	var rows []models.Shot
	total, err := list(base, page, "shots.timestamp DESC, shots.id DESC", &rows, "Golfer.Group.Tournament")
	return rows, total, err
}

// GetShot loads a shot with its golfer, group and tournament.
func (s *Store) GetShot(ctx context.Context, id uint) (*models.Shot, error) {
	var shot models.Shot
	if err := first(s.db.WithContext(ctx).Preload("Golfer.Group.Tournament"), &shot, id); err != nil {
		return nil, err
	}
	return &shot, nil
}

// nextShotNumber is the golfer's highest shot number + 1. Shots without a golfer are all
// shot 1.
func nextShotNumber(db *gorm.DB, golferID *uint) (int, error) {
	if golferID == nil {
		return 1, nil
	}
	var max int
	err := db.Model(&models.Shot{}).
		Where("golfer_id = ?", *golferID).
		Select("COALESCE(MAX(shot_number), 0)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	return max + 1, nil
}

// CreateShot inserts shot, filling in the shot number and timestamp when they are unset.
func (s *Store) CreateShot(ctx context.Context, shot *models.Shot) error {
	defer metrics.RecordDBOperation("create", EntityShots, time.Now())

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if shot.ShotNumber == 0 {
			n, err := nextShotNumber(tx, shot.GolferID)
			if err != nil {
				return fmt.Errorf("next shot number: %w", err)
			}
			shot.ShotNumber = n
		}
		if shot.Timestamp.IsZero() {
			shot.Timestamp = time.Now().UTC()
		}
		return create(tx, shot)
	})
	if err != nil {
		return err
	}
	metrics.ShotsRecorded.WithLabelValues(string(shot.ShotType)).Inc()
	return nil
}

// UpdateShot writes every column of shot.
func (s *Store) UpdateShot(ctx context.Context, shot *models.Shot) error {
	defer metrics.RecordDBOperation("update", EntityShots, time.Now())
	return save(s.db.WithContext(ctx), shot)
}
