package repository

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/trentd187/golf-metrics/internal/filters"
	"github.com/trentd187/golf-metrics/internal/metrics"
	"github.com/trentd187/golf-metrics/internal/models"
)

// Aggregate is the average, minimum and maximum of one metric. Each is nil when no shot in
// the set recorded the metric.
type Aggregate struct {
	Avg *float64 `json:"avg"`
	Min *float64 `json:"min"`
	Max *float64 `json:"max"`
}

// ShotTypeCount is one row of the shot-type breakdown.
type ShotTypeCount struct {
	ShotType models.ShotType `json:"shot_type" gorm:"column:shot_type"`
	Count    int64           `json:"count" gorm:"column:total"`
}

// ClubCount is one row of the club breakdown.
type ClubCount struct {
	ClubUsed models.Club `json:"club_used" gorm:"column:club_used"`
	Count    int64       `json:"count" gorm:"column:total"`
}

// Statistics summarises a filtered set of shots.
type Statistics struct {
	TotalShots int64                `json:"total_shots"`
	Metrics    map[string]Aggregate `json:"metrics"`
	ShotTypes  []ShotTypeCount      `json:"shot_types"`
	Clubs      []ClubCount          `json:"clubs"`
}

// statMetric pairs a metric's output name with the SQL expression aggregated for it.
type statMetric struct {
	name string
	expr string
}

// statMetrics are aggregated in this order. Smash factor is derived per row; rows without
// a usable club head speed yield NULL and drop out of the aggregates.
var statMetrics = []statMetric{
	{"ball_speed", "shots.ball_speed"},
	{"club_head_speed", "shots.club_head_speed"},
	{"launch_angle", "shots.launch_angle"},
	{"spin_rate", "shots.spin_rate"},
	{"carry_distance", "shots.carry_distance"},
	{"total_distance", "shots.total_distance"},
	{"side_angle", "shots.side_angle"},
	{"smash_factor", "CASE WHEN shots.club_head_speed > 0 THEN shots.ball_speed / shots.club_head_speed END"},
}

// statisticsSelect is COUNT(*) followed by AVG, MIN and MAX of every metric.
var statisticsSelect = func() string {
	cols := []string{"COUNT(*)"}
	for _, m := range statMetrics {
		cols = append(cols,
			fmt.Sprintf("AVG(%s)", m.expr),
			fmt.Sprintf("MIN(%s)", m.expr),
			fmt.Sprintf("MAX(%s)", m.expr),
		)
	}
	return strings.Join(cols, ", ")
}()

// ShotStatistics aggregates the shots matching f in the database: one row for the count
// and every metric, plus grouped counts by shot type and by club.
func (s *Store) ShotStatistics(ctx context.Context, f filters.Shot) (*Statistics, error) {
	defer metrics.RecordDBOperation("statistics", EntityShots, time.Now())
	db := s.db.WithContext(ctx)

	stats := &Statistics{
		Metrics:   make(map[string]Aggregate, len(statMetrics)),
		ShotTypes: []ShotTypeCount{},
		Clubs:     []ClubCount{},
	}

	values := make([]sql.NullFloat64, 3*len(statMetrics))
	dest := []interface{}{&stats.TotalShots}
	for i := range values {
		dest = append(dest, &values[i])
	}
	row := f.Scope(db.Model(&models.Shot{})).Select(statisticsSelect).Row()
	if err := row.Scan(dest...); err != nil {
		return nil, fmt.Errorf("aggregate shots: %w", err)
	}
	for i, m := range statMetrics {
		stats.Metrics[m.name] = Aggregate{
			Avg: rounded(values[3*i]),
			Min: rounded(values[3*i+1]),
			Max: rounded(values[3*i+2]),
		}
	}

	if err := f.Scope(db.Model(&models.Shot{})).
		Select("shots.shot_type AS shot_type, COUNT(*) AS total").
		Group("shots.shot_type").
		Order("total DESC, shot_type").
		Scan(&stats.ShotTypes).Error; err != nil {
		return nil, fmt.Errorf("shot type breakdown: %w", err)
	}

	if err := f.Scope(db.Model(&models.Shot{})).
		Select("shots.club_used AS club_used, COUNT(*) AS total").
		Where("shots.club_used IS NOT NULL").
		Group("shots.club_used").
		Order("total DESC, club_used").
		Scan(&stats.Clubs).Error; err != nil {
		return nil, fmt.Errorf("club breakdown: %w", err)
	}

	// Empty breakdowns render as [] rather than null.
	if stats.ShotTypes == nil {
		stats.ShotTypes = []ShotTypeCount{}
	}
	if stats.Clubs == nil {
		stats.Clubs = []ClubCount{}
	}
	return stats, nil
}

// rounded converts a nullable aggregate to a pointer rounded to two decimals.
func rounded(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	r := math.Round(v.Float64*100) / 100
	return &r
}
