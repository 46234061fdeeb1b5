package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/trentd187/golf-metrics/internal/filters"
	"github.com/trentd187/golf-metrics/internal/metrics"
	"github.com/trentd187/golf-metrics/internal/models"
)

// TournamentCounts are the derived totals shown with each tournament.
type TournamentCounts struct {
	Groups  int64
	Golfers int64
}

// ListTournaments returns one page of tournaments matching f, newest first, and the total
// number of matches.
func (s *Store) ListTournaments(ctx context.Context, f filters.Tournament, page Page) ([]models.Tournament, int64, error) {
	defer metrics.RecordDBOperation("list", EntityTournaments, time.Now())

	base := f.Scope(s.db.WithContext(ctx).Model(&models.Tournament{})).Session(&gorm.Session{})
	var rows []models.Tournament
	total, err := list(base, page, "tournaments.start_date DESC, tournaments.id DESC", &rows)
	return rows, total, err
}

// GetTournament loads a tournament, with its groups (ordered by number) when withGroups is set.
func (s *Store) GetTournament(ctx context.Context, id uint, withGroups bool) (*models.Tournament, error) {
	q := s.db.WithContext(ctx)
	if withGroups {
		q = q.Preload("Groups", func(db *gorm.DB) *gorm.DB {
			return db.Order("tournament_groups.group_number, tournament_groups.id")
		})
	}
	var t models.Tournament
	if err := first(q, &t, id); err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateTournament inserts t and fills in its ID and timestamps.
func (s *Store) CreateTournament(ctx context.Context, t *models.Tournament) error {
	defer metrics.RecordDBOperation("create", EntityTournaments, time.Now())
	return create(s.db.WithContext(ctx), t)
}

// UpdateTournament writes every column of t.
func (s *Store) UpdateTournament(ctx context.Context, t *models.Tournament) error {
	defer metrics.RecordDBOperation("update", EntityTournaments, time.Now())
	return save(s.db.WithContext(ctx), t)
}

// TournamentCounts returns group and golfer totals keyed by tournament id. Tournaments
// with no groups are absent from the map.
func (s *Store) TournamentCounts(ctx context.Context, ids []uint) (map[uint]TournamentCounts, error) {
	out := make(map[uint]TournamentCounts, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	db := s.db.WithContext(ctx)

	var groups []countRow
	if err := db.Model(&models.Group{}).
		Select("tournament_id AS id, COUNT(*) AS total").
		Where("tournament_id IN ?", ids).
		Group("tournament_id").
		Scan(&groups).Error; err != nil {
		return nil, err
	}

	var golfers []countRow
	if err := db.Model(&models.Golfer{}).
		Select("tournament_groups.tournament_id AS id, COUNT(golfers.id) AS total").
		Joins("JOIN tournament_groups ON tournament_groups.id = golfers.group_id").
		Where("tournament_groups.tournament_id IN ?", ids).
		Group("tournament_groups.tournament_id").
		Scan(&golfers).Error; err != nil {
		return nil, err
	}

	for id, n := range toCountMap(groups) {
		c := out[id]
		c.Groups = n
		out[id] = c
	}
	for id, n := range toCountMap(golfers) {
		c := out[id]
		c.Golfers = n
		out[id] = c
	}
	return out, nil
}
