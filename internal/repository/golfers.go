package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/trentd187/golf-metrics/internal/filters"
	"github.com/trentd187/golf-metrics/internal/metrics"
	"github.com/trentd187/golf-metrics/internal/models"
)

// golferIDAttempts bounds how many generated golfer_ids are tried before giving up.
const golferIDAttempts = 3

const golferOrder = "golfers.last_name, golfers.first_name, golfers.id"

// ListGolfers returns one page of golfers matching f with their group and tournament loaded.
func (s *Store) ListGolfers(ctx context.Context, f filters.Golfer, page Page) ([]models.Golfer, int64, error) {
	defer metrics.RecordDBOperation("list", EntityGolfers, time.Now())

	base := f.Scope(s.db.WithContext(ctx).Model(&models.Golfer{})).Session(&gorm.Session{})
	var rows []models.Golfer
	total, err := list(base, page, golferOrder, &rows, "Group.Tournament")
	return rows, total, err
}

// GetGolfer loads a golfer with its group and tournament, and its shots (newest first)
// when withShots is set.
func (s *Store) GetGolfer(ctx context.Context, id uint, withShots bool) (*models.Golfer, error) {
	q := s.db.WithContext(ctx).Preload("Group.Tournament")
	if withShots {
		q = q.Preload("Shots", func(db *gorm.DB) *gorm.DB {
			return db.Order("shots.timestamp DESC, shots.id DESC")
		})
	}
	var g models.Golfer
	if err := first(q, &g, id); err != nil {
		return nil, err
	}
	return &g, nil
}

// GolferIDInUse reports whether a golfer other than excludeID already has code.
func (s *Store) GolferIDInUse(ctx context.Context, code string, excludeID uint) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Golfer{}).
		Where("golfer_id = ? AND id <> ?", code, excludeID).
		Count(&n).Error
	return n > 0, err
}

// CreateGolfer inserts g. A blank GolferID is generated from the golfer's name, and a new
// one is drawn if the generated code collides. A supplied GolferID that is already taken
// returns ErrGolferIDTaken.
func (s *Store) CreateGolfer(ctx context.Context, g *models.Golfer) error {
	defer metrics.RecordDBOperation("create", EntityGolfers, time.Now())
	db := s.db.WithContext(ctx)

	if g.GolferID != "" {
		err := create(db, g)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrGolferIDTaken
		}
		return err
	}

	for attempt := 0; attempt < golferIDAttempts; attempt++ {
		g.GolferID = models.GenerateGolferID(g.FirstName, g.LastName)
		err := create(db, g)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			g.ID = 0
			continue
		}
		return err
	}
	g.GolferID = ""
	return ErrGolferIDTaken
}

// UpdateGolfer writes every column of g.
func (s *Store) UpdateGolfer(ctx context.Context, g *models.Golfer) error {
	defer metrics.RecordDBOperation("update", EntityGolfers, time.Now())

	err := save(s.db.WithContext(ctx), g)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrGolferIDTaken
	}
	return err
}

// GolferShotCounts returns shot counts keyed by golfer id; golfers without shots are absent.
func (s *Store) GolferShotCounts(ctx context.Context, ids []uint) (map[uint]int64, error) {
	if len(ids) == 0 {
		return map[uint]int64{}, nil
	}
	var rows []countRow
	err := s.db.WithContext(ctx).Model(&models.Shot{}).
		Select("golfer_id AS id, COUNT(*) AS total").
		Where("golfer_id IN ?", ids).
		Group("golfer_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return toCountMap(rows), nil
}
