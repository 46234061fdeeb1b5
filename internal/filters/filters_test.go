package filters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trentd187/golf-metrics/internal/validation"
)

func TestParseTournament(t *testing.T) {
	f, err := ParseTournament(Query{"is_active": "false", "search": " open ", "page": "2"})
	require.NoError(t, err)
	require.NotNil(t, f.IsActive)
	assert.False(t, *f.IsActive)
	assert.Equal(t, "open", f.Search)
}

func TestParseGroup_Aliases(t *testing.T) {
	f, err := ParseGroup(Query{"tournament": "7"})
	require.NoError(t, err)
	require.NotNil(t, f.TournamentID)
	assert.EqualValues(t, 7, *f.TournamentID)

	// The long name wins when both are sent.
	f, err = ParseGroup(Query{"tournament_id": "3", "tournament": "7"})
	require.NoError(t, err)
	assert.EqualValues(t, 3, *f.TournamentID)
}

func TestParseGolfer_UnassignedFalseIsNoop(t *testing.T) {
	f, err := ParseGolfer(Query{"unassigned": "false"})
	require.NoError(t, err)
	assert.False(t, f.Unassigned)

	f, err = ParseGolfer(Query{"unassigned": "1", "skill_level": "advanced"})
	require.NoError(t, err)
	assert.True(t, f.Unassigned)
	assert.Equal(t, "advanced", f.SkillLevel)
}

func TestParseShot(t *testing.T) {
	f, err := ParseShot(Query{
		"golfer":       "4",
		"group_id":     "2",
		"shot_type":    "drive",
		"club_used":    "driver",
		"hole_number":  "18",
		"is_simulated": "true",
		"search":       " trackman ",
		"unknown":      "ignored",
	})
	require.NoError(t, err)
	assert.EqualValues(t, 4, *f.GolferID)
	assert.EqualValues(t, 2, *f.GroupID)
	assert.Nil(t, f.TournamentID)
	assert.Equal(t, "drive", f.ShotType)
	assert.Equal(t, "driver", f.ClubUsed)
	assert.Equal(t, 18, *f.HoleNumber)
	assert.True(t, *f.IsSimulated)
	assert.Equal(t, "trackman", f.Search)
}

func TestParse_MalformedValues(t *testing.T) {
	tests := []struct {
		name   string
		parse  func(Query) error
		query  Query
		fields []string
	}{
		{
			name:   "tournament boolean",
			parse:  func(q Query) error { _, err := ParseTournament(q); return err },
			query:  Query{"is_active": "maybe"},
			fields: []string{"is_active"},
		},
		{
			name:   "group id",
			parse:  func(q Query) error { _, err := ParseGroup(q); return err },
			query:  Query{"tournament": "abc", "is_full": "nope"},
			fields: []string{"tournament", "is_full"},
		},
		{
			name:   "golfer zero id",
			parse:  func(q Query) error { _, err := ParseGolfer(q); return err },
			query:  Query{"group_id": "0"},
			fields: []string{"group_id"},
		},
		{
			name:   "shot integer",
			parse:  func(q Query) error { _, err := ParseShot(q); return err },
			query:  Query{"hole_number": "abc", "golfer_id": "-1"},
			fields: []string{"hole_number", "golfer_id"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.parse(tt.query)
			require.Error(t, err)

			var fe validation.FieldErrors
			require.ErrorAs(t, err, &fe)
			for _, field := range tt.fields {
				assert.Contains(t, fe, field)
			}
			assert.Len(t, fe, len(tt.fields))
		})
	}
}
