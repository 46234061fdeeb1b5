package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/trentd187/golf-metrics/internal/filters"
	"github.com/trentd187/golf-metrics/internal/metrics"
	"github.com/trentd187/golf-metrics/internal/models"
)

// groupNumberAttempts bounds the retries when two creates compute the same next number.
const groupNumberAttempts = 3

// ListGroups returns one page of groups matching f, ordered by tournament then number.
func (s *Store) ListGroups(ctx context.Context, f filters.Group, page Page) ([]models.Group, int64, error) {
	defer metrics.RecordDBOperation("list", EntityGroups, time.Now())

	base := f.Scope(s.db.WithContext(ctx).Model(&models.Group{})).Session(&gorm.Session{})
	var rows []models.Group
	total, err := list(base, page,
		"tournament_groups.tournament_id, tournament_groups.group_number, tournament_groups.id", &rows, "Tournament")
	return rows, total, err
}

// GetGroup loads a group with its tournament, and its golfers when withGolfers is set.
func (s *Store) GetGroup(ctx context.Context, id uint, withGolfers bool) (*models.Group, error) {
	q := s.db.WithContext(ctx).Preload("Tournament")
	if withGolfers {
		q = q.Preload("Golfers", func(db *gorm.DB) *gorm.DB {
			return db.Order("golfers.last_name, golfers.first_name, golfers.id")
		})
	}
	var g models.Group
	if err := first(q, &g, id); err != nil {
		return nil, err
	}
	return &g, nil
}

// GroupsForTournament returns every group of a tournament ordered by number.
func (s *Store) GroupsForTournament(ctx context.Context, tournamentID uint) ([]models.Group, error) {
	var rows []models.Group
	err := s.db.WithContext(ctx).
		Where("tournament_id = ?", tournamentID).
		Order("group_number, id").
		Find(&rows).Error
	return rows, err
}

// nextGroupNumber is max(group_number) + 1 within the tournament, or across every group
// when tournamentID is nil.
func nextGroupNumber(tx *gorm.DB, tournamentID *uint) (int, error) {
	q := tx.Model(&models.Group{})
	if tournamentID != nil {
		q = q.Where("tournament_id = ?", *tournamentID)
	}
	var max int
	if err := q.Select("COALESCE(MAX(group_number), 0)").Scan(&max).Error; err != nil {
		return 0, err
	}
	return max + 1, nil
}

// groupNumberInUse reports whether another group of the same tournament already has number.
// Standalone groups (nil tournament) never collide, matching the unique index semantics.
func groupNumberInUse(db *gorm.DB, tournamentID *uint, number int, excludeID uint) (bool, error) {
	if tournamentID == nil {
		return false, nil
	}
	var n int64
	err := db.Model(&models.Group{}).
		Where("tournament_id = ? AND group_number = ? AND id <> ?", *tournamentID, number, excludeID).
		Count(&n).Error
	return n > 0, err
}

// CreateGroup inserts g. A zero GroupNumber is auto-assigned as the next number in scope;
// the read and the insert share a transaction and are retried if a concurrent create won
// the same number. An explicit number already in use returns ErrGroupNumberTaken.
func (s *Store) CreateGroup(ctx context.Context, g *models.Group) error {
	defer metrics.RecordDBOperation("create", EntityGroups, time.Now())
	db := s.db.WithContext(ctx)

	if g.GroupNumber != 0 {
		taken, err := groupNumberInUse(db, g.TournamentID, g.GroupNumber, 0)
		if err != nil {
			return err
		}
		if taken {
			return ErrGroupNumberTaken
		}
		err = create(db, g)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrGroupNumberTaken
		}
		return err
	}

	for attempt := 0; attempt < groupNumberAttempts; attempt++ {
		err := db.Transaction(func(tx *gorm.DB) error {
			n, err := nextGroupNumber(tx, g.TournamentID)
			if err != nil {
				return fmt.Errorf("next group number: %w", err)
			}
			g.GroupNumber = n
			return create(tx, g)
		})
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			g.ID = 0
			continue
		}
		return err
	}
	return ErrGroupNumberTaken
}

// UpdateGroup writes every column of g, rejecting a number another group in the same
// tournament already has.
func (s *Store) UpdateGroup(ctx context.Context, g *models.Group) error {
	defer metrics.RecordDBOperation("update", EntityGroups, time.Now())
	db := s.db.WithContext(ctx)

	taken, err := groupNumberInUse(db, g.TournamentID, g.GroupNumber, g.ID)
	if err != nil {
		return err
	}
	if taken {
		return ErrGroupNumberTaken
	}
	err = save(db, g)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrGroupNumberTaken
	}
	return err
}

// GroupGolferCounts returns current golfer counts keyed by group id; empty groups are absent.
func (s *Store) GroupGolferCounts(ctx context.Context, ids []uint) (map[uint]int64, error) {
	if len(ids) == 0 {
		return map[uint]int64{}, nil
	}
	var rows []countRow
	err := s.db.WithContext(ctx).Model(&models.Golfer{}).
		Select("group_id AS id, COUNT(*) AS total").
		Where("group_id IN ?", ids).
		Group("group_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return toCountMap(rows), nil
}

// GroupOccupancy loads a group and how many golfers it currently holds.
func (s *Store) GroupOccupancy(ctx context.Context, id uint) (*models.Group, int64, error) {
	db := s.db.WithContext(ctx)
	var g models.Group
	if err := first(db, &g, id); err != nil {
		return nil, 0, err
	}
	var n int64
	if err := db.Model(&models.Golfer{}).Where("group_id = ?", id).Count(&n).Error; err != nil {
		return nil, 0, err
	}
	return &g, n, nil
}

// AssignResult reports what AssignGolfers did.
type AssignResult struct {
	Group      *models.Group
	Assigned   int // golfers moved into the group
	Skipped    int // unknown ids and golfers already in the group
	Unassigned int // requested golfers left over once the group filled up
}

// AssignGolfers moves golfers into the group one at a time, in the order given, until the
// group's available spots run out. Golfers that don't exist or are already in the group are
// skipped without using a spot. Each move is its own write: a failure part-way leaves the
// earlier golfers assigned, and a full group is not an error.
func (s *Store) AssignGolfers(ctx context.Context, groupID uint, golferIDs []uint) (*AssignResult, error) {
	defer metrics.RecordDBOperation("assign", EntityGroups, time.Now())

	group, current, err := s.GroupOccupancy(ctx, groupID)
	if err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	available := group.AvailableSpots(current)
	res := &AssignResult{Group: group}

	for i, id := range golferIDs {
		if available == 0 {
			res.Unassigned = len(golferIDs) - i
			break
		}

		var golfer models.Golfer
		err := db.Select("id", "group_id").First(&golfer, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			res.Skipped++
			continue
		}
		if err != nil {
			return res, fmt.Errorf("load golfer %d: %w", id, err)
		}
		if golfer.GroupID != nil && *golfer.GroupID == groupID {
			res.Skipped++
			continue
		}

		if err := db.Model(&models.Golfer{}).Where("id = ?", id).Update("group_id", groupID).Error; err != nil {
			return res, fmt.Errorf("assign golfer %d: %w", id, err)
		}
		res.Assigned++
		available--
	}

	metrics.GolfersAssigned.Add(float64(res.Assigned))
	return res, nil
}

// RemoveGolfers detaches the listed golfers that are currently in the group and returns
// how many were removed.
func (s *Store) RemoveGolfers(ctx context.Context, groupID uint, golferIDs []uint) (int64, error) {
	defer metrics.RecordDBOperation("remove", EntityGroups, time.Now())
	db := s.db.WithContext(ctx)

	ok, err := exists(db, &models.Group{}, groupID)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrNotFound
	}
	if len(golferIDs) == 0 {
		return 0, nil
	}

	res := db.Model(&models.Golfer{}).
		Where("id IN ? AND group_id = ?", golferIDs, groupID).
		Update("group_id", gorm.Expr("NULL"))
	return res.RowsAffected, res.Error
}
