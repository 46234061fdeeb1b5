//go:build integration

package database

import (
	"context"
	"io"
	"net/url"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/trentd187/golf-metrics/internal/config"
	"github.com/trentd187/golf-metrics/internal/filters"
	"github.com/trentd187/golf-metrics/internal/logging"
	"github.com/trentd187/golf-metrics/internal/models"
	"github.com/trentd187/golf-metrics/internal/repository"
)

// startPostgres runs a throwaway Postgres and returns a DSN with sslmode=disable.
func startPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("golf_metrics"),
		postgres.WithUsername("golf"),
		postgres.WithPassword("golf"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(45*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	parsed, err := url.Parse(dsn)
	require.NoError(t, err)
	q := parsed.Query()
	q.Set("sslmode", "disable")
	parsed.RawQuery = q.Encode()
	return parsed.String()
}

// migrationsSource points golang-migrate at the repo's migrations directory regardless of
// the test's working directory.
func migrationsSource(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	return "file://" + filepath.Join(filepath.Dir(file), "..", "..", "migrations")
}

func TestPostgres(t *testing.T) {
	dsn := startPostgres(t)
	ctx := context.Background()

	require.NoError(t, RunMigrations(migrationsSource(t), dsn))
	// A second run is a no-op.
	require.NoError(t, RunMigrations(migrationsSource(t), dsn))

	cfg := &config.Config{DatabaseURL: dsn, DBMaxOpenConns: 5, DBMaxIdleConns: 2, DBConnMaxLife: time.Minute}
	db, err := Connect(cfg, logging.NewWithWriter(io.Discard, "error", "json"))
	require.NoError(t, err)

	store := repository.New(db)
	require.NoError(t, store.Ping(ctx))

	tournament := &models.Tournament{
		Name:      "Club Championship",
		StartDate: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 6, 2, 0, 0, 0, 0, time.UTC),
		IsActive:  true,
	}
	require.NoError(t, store.CreateTournament(ctx, tournament))

	t.Run("concurrent group numbering", func(t *testing.T) {
		const n = 3
		numbers := make([]int, n)
		errs := make([]error, n)
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				g := &models.Group{TournamentID: &tournament.ID, MaxGolfers: 4}
				errs[i] = store.CreateGroup(ctx, g)
				numbers[i] = g.GroupNumber
			}(i)
		}
		wg.Wait()

		seen := map[int]bool{}
		for i := 0; i < n; i++ {
			if errs[i] != nil {
				// Losing every retry is possible under contention; it must surface as the sentinel.
				assert.ErrorIs(t, errs[i], repository.ErrGroupNumberTaken)
				continue
			}
			assert.False(t, seen[numbers[i]], "group number %d assigned twice", numbers[i])
			seen[numbers[i]] = true
		}
	})

	t.Run("statistics and cascade delete", func(t *testing.T) {
		group := &models.Group{TournamentID: &tournament.ID, MaxGolfers: 4}
		require.NoError(t, store.CreateGroup(ctx, group))

		golfer := &models.Golfer{FirstName: "Ada", LastName: "Lovelace", SkillLevel: models.SkillLevelAdvanced, GroupID: &group.ID, IsActive: true}
		require.NoError(t, store.CreateGolfer(ctx, golfer))

		ball, club := 150.0, 100.0
		driver := models.ClubDriver
		for i := 0; i < 2; i++ {
			shot := &models.Shot{GolferID: &golfer.ID, ShotType: models.ShotTypeDrive, ClubUsed: &driver, BallSpeed: &ball, ClubHeadSpeed: &club}
			require.NoError(t, store.CreateShot(ctx, shot))
			assert.Equal(t, i+1, shot.ShotNumber)
		}

		// Shot reads join golfers on golfers.id through shots.golfer_id.
		var shotID uint
		rows, total, err := store.ListShots(ctx, filters.Shot{GolferID: &golfer.ID}, repository.Page{Number: 1, Size: 10})
		require.NoError(t, err)
		assert.EqualValues(t, 2, total)
		for _, row := range rows {
			require.NotNil(t, row.Golfer)
			assert.Equal(t, golfer.GolferID, row.Golfer.GolferID)
			shotID = row.ID
		}
		shot, err := store.GetShot(ctx, shotID)
		require.NoError(t, err)
		require.NotNil(t, shot.Golfer)
		require.NotNil(t, shot.Golfer.Group)
		require.NotNil(t, shot.Golfer.Group.Tournament)
		assert.Equal(t, tournament.Name, shot.Golfer.Group.Tournament.Name)

		stats, err := store.ShotStatistics(ctx, filters.Shot{TournamentID: &tournament.ID})
		require.NoError(t, err)
		assert.EqualValues(t, 2, stats.TotalShots)
		require.NotNil(t, stats.Metrics["smash_factor"].Avg)
		assert.InDelta(t, 1.5, *stats.Metrics["smash_factor"].Avg, 0.001)

		deleted, err := store.BulkDelete(ctx, repository.EntityTournaments, []uint{tournament.ID}, true)
		require.NoError(t, err)
		assert.EqualValues(t, 1, deleted)

		stats, err = store.ShotStatistics(ctx, filters.Shot{})
		require.NoError(t, err)
		assert.Zero(t, stats.TotalShots)
		_, err = store.GetGolfer(ctx, golfer.ID, false)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}
