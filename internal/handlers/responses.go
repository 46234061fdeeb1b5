package handlers

// responses.go: what we send back to the front end.
// Each response struct flattens a model plus the values derived from it at read time
// (counts, names of parents, fullness, smash factor). Nothing here is stored.

import (
	"time"

	"github.com/trentd187/golf-metrics/internal/models"
	"github.com/trentd187/golf-metrics/internal/repository"
)

const dateLayout = "2006-01-02"

// formatDate renders a DATE column as "YYYY-MM-DD".
func formatDate(t time.Time) string {
	return t.UTC().Format(dateLayout)
}

// formatOptionalDate converts a *time.Time to a *string in "2006-01-02" format.
// Returns nil if the input is nil, preserving the nullable property in the JSON response.
func formatOptionalDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatDate(*t)
	return &s
}

// parseOptionalDate parses an optional "YYYY-MM-DD" string into a *time.Time.
// Returns nil if the input is nil or empty.
func parseOptionalDate(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, *s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// TournamentResponse is a tournament with its group and golfer totals.
type TournamentResponse struct {
	ID           uint      `json:"id"`
	Name         string    `json:"name"`
	Description  *string   `json:"description"`
	StartDate    string    `json:"start_date"` // "YYYY-MM-DD"
	EndDate      string    `json:"end_date"`
	Location     *string   `json:"location"`
	IsActive     bool      `json:"is_active"`
	TotalGroups  int64     `json:"total_groups"`
	TotalGolfers int64     `json:"total_golfers"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TournamentWithGroupsResponse is the retrieve_with_groups view.
type TournamentWithGroupsResponse struct {
	TournamentResponse
	Groups []GroupResponse `json:"groups"`
}

func newTournamentResponse(t *models.Tournament, c repository.TournamentCounts) TournamentResponse {
	return TournamentResponse{
		ID:           t.ID,
		Name:         t.Name,
		Description:  t.Description,
		StartDate:    formatDate(t.StartDate),
		EndDate:      formatDate(t.EndDate),
		Location:     t.Location,
		IsActive:     t.IsActive,
		TotalGroups:  c.Groups,
		TotalGolfers: c.Golfers,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

// GroupResponse is a group with its capacity figures and tournament name.
type GroupResponse struct {
	ID                 uint      `json:"id"`
	Tournament         *uint     `json:"tournament"`
	TournamentName     *string   `json:"tournament_name"`
	GroupNumber        int       `json:"group_number"`
	Nickname           *string   `json:"nickname"`
	DisplayName        string    `json:"display_name"`
	MaxGolfers         int       `json:"max_golfers"`
	CurrentGolferCount int64     `json:"current_golfer_count"`
	IsFull             bool      `json:"is_full"`
	AvailableSpots     int64     `json:"available_spots"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// GroupWithGolfersResponse is the retrieve_with_golfers view.
type GroupWithGolfersResponse struct {
	GroupResponse
	Golfers []GolferResponse `json:"golfers"`
}

func newGroupResponse(g *models.Group, golfers int64) GroupResponse {
	resp := GroupResponse{
		ID:                 g.ID,
		Tournament:         g.TournamentID,
		GroupNumber:        g.GroupNumber,
		Nickname:           g.Nickname,
		DisplayName:        g.DisplayName(),
		MaxGolfers:         g.MaxGolfers,
		CurrentGolferCount: golfers,
		IsFull:             g.IsFull(golfers),
		AvailableSpots:     g.AvailableSpots(golfers),
		CreatedAt:          g.CreatedAt,
		UpdatedAt:          g.UpdatedAt,
	}
	if g.Tournament != nil {
		resp.TournamentName = &g.Tournament.Name
	}
	return resp
}

// GolferResponse is a golfer with derived name, age, placement and shot count.
type GolferResponse struct {
	ID             uint      `json:"id"`
	GolferID       string    `json:"golfer_id"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	FullName       string    `json:"full_name"`
	Email          *string   `json:"email"`
	Phone          *string   `json:"phone"`
	DateOfBirth    *string   `json:"date_of_birth"`
	Age            *int      `json:"age,omitempty"` // Absent without a date of birth
	Gender         *string   `json:"gender"`
	Handicap       *float64  `json:"handicap"`
	SkillLevel     string    `json:"skill_level"`
	PreferredTee   *string   `json:"preferred_tee"`
	Group          *uint     `json:"group"`
	GroupName      *string   `json:"group_name"`
	Tournament     *uint     `json:"tournament"`
	TournamentName *string   `json:"tournament_name"`
	IsActive       bool      `json:"is_active"`
	Notes          *string   `json:"notes"`
	ShotCount      int64     `json:"shot_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// GolferWithShotsResponse is the retrieve_with_shots view.
type GolferWithShotsResponse struct {
	GolferResponse
	Shots []ShotResponse `json:"shots"`
}

func newGolferResponse(g *models.Golfer, shots int64, now time.Time) GolferResponse {
	resp := GolferResponse{
		ID:           g.ID,
		GolferID:     g.GolferID,
		FirstName:    g.FirstName,
		LastName:     g.LastName,
		FullName:     g.FullName(),
		Email:        g.Email,
		Phone:        g.Phone,
		DateOfBirth:  formatOptionalDate(g.DateOfBirth),
		Age:          g.Age(now),
		Handicap:     g.Handicap,
		SkillLevel:   string(g.SkillLevel),
		PreferredTee: g.PreferredTee,
		Group:        g.GroupID,
		IsActive:     g.IsActive,
		Notes:        g.Notes,
		ShotCount:    shots,
		CreatedAt:    g.CreatedAt,
		UpdatedAt:    g.UpdatedAt,
	}
	if g.Gender != nil {
		resp.Gender = ptr(string(*g.Gender))
	}
	if g.Group != nil {
		resp.GroupName = ptr(g.Group.DisplayName())
		resp.Tournament = g.Group.TournamentID
		if g.Group.Tournament != nil {
			resp.TournamentName = &g.Group.Tournament.Name
		}
	}
	return resp
}

// ShotResponse is a shot with its smash factor and the names along its parent chain.
type ShotResponse struct {
	ID              uint      `json:"id"`
	Golfer          *uint     `json:"golfer"`
	GolferName      *string   `json:"golfer_name"`
	Group           *uint     `json:"group"`
	GroupName       *string   `json:"group_name"`
	Tournament      *uint     `json:"tournament"`
	TournamentName  *string   `json:"tournament_name"`
	ShotNumber      int       `json:"shot_number"`
	HoleNumber      *int      `json:"hole_number"`
	ShotType        string    `json:"shot_type"`
	ClubUsed        *string   `json:"club_used"`
	BallSpeed       *float64  `json:"ball_speed"`
	ClubHeadSpeed   *float64  `json:"club_head_speed"`
	LaunchAngle     *float64  `json:"launch_angle"`
	SpinRate        *float64  `json:"spin_rate"`
	CarryDistance   *float64  `json:"carry_distance"`
	TotalDistance   *float64  `json:"total_distance"`
	SideAngle       *float64  `json:"side_angle"`
	SmashFactor     *float64  `json:"smash_factor,omitempty"` // Absent unless both speeds are known
	IsSimulated     bool      `json:"is_simulated"`
	LaunchMonitorID *string   `json:"launch_monitor_id"`
	Notes           *string   `json:"notes"`
	Timestamp       time.Time `json:"timestamp"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func newShotResponse(s *models.Shot) ShotResponse {
	resp := ShotResponse{
		ID:              s.ID,
		Golfer:          s.GolferID,
		ShotNumber:      s.ShotNumber,
		HoleNumber:      s.HoleNumber,
		ShotType:        string(s.ShotType),
		BallSpeed:       s.BallSpeed,
		ClubHeadSpeed:   s.ClubHeadSpeed,
		LaunchAngle:     s.LaunchAngle,
		SpinRate:        s.SpinRate,
		CarryDistance:   s.CarryDistance,
		TotalDistance:   s.TotalDistance,
		SideAngle:       s.SideAngle,
		SmashFactor:     s.SmashFactor(),
		IsSimulated:     s.IsSimulated,
		LaunchMonitorID: s.LaunchMonitorID,
		Notes:           s.Notes,
		Timestamp:       s.Timestamp,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
	if s.ClubUsed != nil {
		resp.ClubUsed = ptr(string(*s.ClubUsed))
	}
	if g := s.Golfer; g != nil {
		resp.GolferName = ptr(g.FullName())
		resp.Group = g.GroupID
		if g.Group != nil {
			resp.GroupName = ptr(g.Group.DisplayName())
			resp.Tournament = g.Group.TournamentID
			if g.Group.Tournament != nil {
				resp.TournamentName = &g.Group.Tournament.Name
			}
		}
	}
	return resp
}
