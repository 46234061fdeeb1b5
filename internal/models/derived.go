package models

// derived.go: read-only values computed from stored fields.
// None of these are persisted: storing them would let them drift from the columns they
// are computed from (e.g. a smash factor that no longer matches an edited ball speed).

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FullName joins first and last name with a single space.
func (g *Golfer) FullName() string {
	return strings.TrimSpace(g.FirstName + " " + g.LastName)
}

// Age returns the golfer's age in whole years on the given day, or nil when the date of
// birth is unknown.
func (g *Golfer) Age(now time.Time) *int {
	if g.DateOfBirth == nil {
		return nil
	}
	dob := g.DateOfBirth.UTC()
	now = now.UTC()
	years := now.Year() - dob.Year()
	// Birthday hasn't happened yet this year
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		years--
	}
	if years < 0 {
		years = 0
	}
	return &years
}

// DisplayName is the label shown on tee sheets: "Group 3" or "Group 3 (Smith Foursome)".
func (g *Group) DisplayName() string {
	if g.Nickname != nil && strings.TrimSpace(*g.Nickname) != "" {
		return fmt.Sprintf("Group %d (%s)", g.GroupNumber, strings.TrimSpace(*g.Nickname))
	}
	return fmt.Sprintf("Group %d", g.GroupNumber)
}

// IsFull reports whether a group holding current golfers has reached MaxGolfers.
func (g *Group) IsFull(current int64) bool {
	return current >= int64(g.MaxGolfers)
}

// AvailableSpots is how many more golfers fit, never negative. A group can be over capacity
// when MaxGolfers is lowered after golfers were assigned.
func (g *Group) AvailableSpots(current int64) int64 {
	spots := int64(g.MaxGolfers) - current
	if spots < 0 {
		return 0
	}
	return spots
}

// SmashFactor is ball speed divided by club head speed, rounded to two decimals.
// It is nil unless both speeds are recorded and the club head speed is positive.
func (s *Shot) SmashFactor() *float64 {
	if s.BallSpeed == nil || s.ClubHeadSpeed == nil || *s.ClubHeadSpeed <= 0 {
		return nil
	}
	v := math.Round(*s.BallSpeed / *s.ClubHeadSpeed * 100) / 100
	return &v
}

// GenerateGolferID builds a badge code from the golfer's initials plus a short random
// suffix: "Jane Smithson" -> "JSMI4F2A". Collisions are possible, so callers still rely on
// the unique index.
func GenerateGolferID(firstName, lastName string) string {
	first := []rune(strings.ToUpper(strings.TrimSpace(firstName)))
	last := []rune(strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(lastName), " ", "")))
	if len(first) > 1 {
		first = first[:1]
	}
	if len(last) > 3 {
		last = last[:3]
	}
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:4])
	return string(first) + string(last) + suffix
}
