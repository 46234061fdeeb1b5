// Package testutil provides an in-memory database and fixture factory shared by the
// repository and handler tests.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/trentd187/golf-metrics/internal/models"
)

// NewDB opens a private in-memory SQLite database with the schema migrated and foreign
// keys enforced. The pool is pinned to one connection so the in-memory database lives for
// the whole test.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

// Factory inserts realistic fixtures. Seeded so failures reproduce.
type Factory struct {
	t     *testing.T
	db    *gorm.DB
	faker *gofakeit.Faker
}

// NewFactory returns a Factory writing to db.
func NewFactory(t *testing.T, db *gorm.DB) *Factory {
	return &Factory{t: t, db: db, faker: gofakeit.New(42)}
}

// Tournament inserts an active one-day tournament.
func (f *Factory) Tournament(mods ...func(*models.Tournament)) *models.Tournament {
	f.t.Helper()
	day := time.Date(2026, time.Month(f.faker.Number(1, 12)), f.faker.Number(1, 28), 0, 0, 0, 0, time.UTC)
	location := f.faker.City()
	tr := &models.Tournament{
		Name:      f.faker.Company() + " Invitational",
		StartDate: day,
		EndDate:   day.AddDate(0, 0, 1),
		Location:  &location,
		IsActive:  true,
	}
	for _, m := range mods {
		m(tr)
	}
	require.NoError(f.t, f.db.Create(tr).Error)
	return tr
}

// Group inserts a group with the given number; tournamentID may be nil.
func (f *Factory) Group(tournamentID *uint, number int, mods ...func(*models.Group)) *models.Group {
	f.t.Helper()
	g := &models.Group{
		TournamentID: tournamentID,
		GroupNumber:  number,
		MaxGolfers:   models.DefaultMaxGolfers,
	}
	for _, m := range mods {
		m(g)
	}
	require.NoError(f.t, f.db.Create(g).Error)
	return g
}

// Golfer inserts an active golfer; groupID may be nil.
func (f *Factory) Golfer(groupID *uint, mods ...func(*models.Golfer)) *models.Golfer {
	f.t.Helper()
	first, last := f.faker.FirstName(), f.faker.LastName()
	email := f.faker.Email()
	handicap := float64(f.faker.Number(0, 36))
	g := &models.Golfer{
		GolferID:   models.GenerateGolferID(first, last),
		FirstName:  first,
		LastName:   last,
		Email:      &email,
		Handicap:   &handicap,
		SkillLevel: models.SkillLevelIntermediate,
		GroupID:    groupID,
		IsActive:   true,
	}
	for _, m := range mods {
		m(g)
	}
	require.NoError(f.t, f.db.Create(g).Error)
	return g
}

// Shot inserts a drive with plausible launch-monitor numbers; golferID may be nil.
func (f *Factory) Shot(golferID *uint, mods ...func(*models.Shot)) *models.Shot {
	f.t.Helper()
	ball := f.faker.Float64Range(130, 175)
	club := f.faker.Float64Range(90, 118)
	carry := f.faker.Float64Range(200, 290)
	driver := models.ClubDriver
	s := &models.Shot{
		GolferID:      golferID,
		ShotNumber:    1,
		ShotType:      models.ShotTypeDrive,
		ClubUsed:      &driver,
		BallSpeed:     &ball,
		ClubHeadSpeed: &club,
		CarryDistance: &carry,
		Timestamp:     time.Now().UTC(),
	}
	for _, m := range mods {
		m(s)
	}
	require.NoError(f.t, f.db.Create(s).Error)
	return s
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T { return &v }
