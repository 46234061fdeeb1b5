package testutil

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/trentd187/golf-metrics/internal/models"
)

func TestNewDB_GolferBadgeColumn(t *testing.T) {
	db := NewDB(t)
	f := NewFactory(t, db)

	// No shots exist yet: the badge column must not reference anything.
	first := f.Golfer(nil, func(g *models.Golfer) { g.GolferID = "JDOE0001" })
	assert.NotZero(t, first.ID)

	dup := &models.Golfer{GolferID: "JDOE0001", FirstName: "Jan", LastName: "Doe", SkillLevel: models.SkillLevelBeginner}
	err := db.Create(dup).Error
	assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey), "got %v", err)

	assert.False(t, db.Migrator().HasConstraint(&models.Golfer{}, "fk_shots_golfer"))
}

func TestNewDB_ShotReferencesGolferRow(t *testing.T) {
	db := NewDB(t)
	f := NewFactory(t, db)
	golfer := f.Golfer(nil)

	shot := f.Shot(&golfer.ID)
	var loaded models.Shot
	require.NoError(t, db.Preload("Golfer").First(&loaded, shot.ID).Error)
	require.NotNil(t, loaded.Golfer)
	assert.Equal(t, golfer.GolferID, loaded.Golfer.GolferID)

	missing := golfer.ID + 100
	orphan := &models.Shot{GolferID: &missing, ShotNumber: 1, ShotType: models.ShotTypePutt, Timestamp: time.Now().UTC()}
	assert.Error(t, db.Create(orphan).Error, "shots.golfer_id must point at golfers.id")
}
