package handlers

// shots.go: the /api/shots/ routes and the statistics endpoint.

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/trentd187/golf-metrics/internal/filters"
	"github.com/trentd187/golf-metrics/internal/models"
	"github.com/trentd187/golf-metrics/internal/repository"
	"github.com/trentd187/golf-metrics/internal/validation"
)

// ShotRequest is the JSON body for POST, PUT and PATCH /api/shots/.
// Ranges cover what a launch monitor can physically report.
type ShotRequest struct {
	Golfer          *uint      `json:"golfer"`                                 // Optional golfer id
	ShotNumber      *int       `json:"shot_number" validate:"omitempty,min=1"` // Omit for the golfer's next number
	HoleNumber      *int       `json:"hole_number" validate:"omitempty,min=1,max=18"`
	ShotType        *string    `json:"shot_type" validate:"omitempty,oneof=drive approach chip putt bunker other"`
	ClubUsed        *string    `json:"club_used" validate:"omitempty,oneof=driver 3_wood 5_wood hybrid 3_iron 4_iron 5_iron 6_iron 7_iron 8_iron 9_iron pitching_wedge gap_wedge sand_wedge lob_wedge putter"`
	BallSpeed       *float64   `json:"ball_speed" validate:"omitempty,gte=0,lte=250"`      // mph
	ClubHeadSpeed   *float64   `json:"club_head_speed" validate:"omitempty,gte=0,lte=200"` // mph
	LaunchAngle     *float64   `json:"launch_angle" validate:"omitempty,gte=-20,lte=60"`   // degrees
	SpinRate        *float64   `json:"spin_rate" validate:"omitempty,gte=0,lte=10000"`     // rpm
	CarryDistance   *float64   `json:"carry_distance" validate:"omitempty,gte=0,lte=400"`  // yards
	TotalDistance   *float64   `json:"total_distance" validate:"omitempty,gte=0,lte=500"`  // yards
	SideAngle       *float64   `json:"side_angle" validate:"omitempty,gte=-45,lte=45"`     // degrees
	IsSimulated     *bool      `json:"is_simulated"`
	LaunchMonitorID *string    `json:"launch_monitor_id" validate:"omitempty,max=50"`
	Notes           *string    `json:"notes"`
	Timestamp       *time.Time `json:"timestamp"` // RFC 3339; defaults to now
}

func shotRequestFrom(s *models.Shot) ShotRequest {
	req := ShotRequest{
		Golfer:          clone(s.GolferID),
		ShotNumber:      ptr(s.ShotNumber),
		HoleNumber:      clone(s.HoleNumber),
		ShotType:        ptr(string(s.ShotType)),
		BallSpeed:       clone(s.BallSpeed),
		ClubHeadSpeed:   clone(s.ClubHeadSpeed),
		LaunchAngle:     clone(s.LaunchAngle),
		SpinRate:        clone(s.SpinRate),
		CarryDistance:   clone(s.CarryDistance),
		TotalDistance:   clone(s.TotalDistance),
		SideAngle:       clone(s.SideAngle),
		IsSimulated:     ptr(s.IsSimulated),
		LaunchMonitorID: clone(s.LaunchMonitorID),
		Notes:           clone(s.Notes),
		Timestamp:       ptr(s.Timestamp),
	}
	if s.ClubUsed != nil {
		req.ClubUsed = ptr(string(*s.ClubUsed))
	}
	return req
}

func (r *ShotRequest) validate(ctx context.Context, store *repository.Store) error {
	trimToNil(&r.ClubUsed, &r.LaunchMonitorID, &r.Notes)
	var refErr error
	err := check(r, func(fe validation.FieldErrors) {
		refErr = checkRef(ctx, store, fe, "golfer", repository.EntityGolfers, r.Golfer)
	})
	if refErr != nil {
		return refErr
	}
	return err
}

// apply copies a validated request onto s. Nil shot number and timestamp are left for the
// store to fill in on create.
func (r *ShotRequest) apply(s *models.Shot) {
	s.GolferID = r.Golfer
	if r.ShotNumber != nil {
		s.ShotNumber = *r.ShotNumber
	}
	s.HoleNumber = r.HoleNumber
	s.ShotType = models.ShotTypeDrive
	if r.ShotType != nil {
		s.ShotType = models.ShotType(*r.ShotType)
	}
	s.ClubUsed = nil
	if r.ClubUsed != nil {
		s.ClubUsed = ptr(models.Club(*r.ClubUsed))
	}
	s.BallSpeed = r.BallSpeed
	s.ClubHeadSpeed = r.ClubHeadSpeed
	s.LaunchAngle = r.LaunchAngle
	s.SpinRate = r.SpinRate
	s.CarryDistance = r.CarryDistance
	s.TotalDistance = r.TotalDistance
	s.SideAngle = r.SideAngle
	s.IsSimulated = r.IsSimulated != nil && *r.IsSimulated
	s.LaunchMonitorID = r.LaunchMonitorID
	s.Notes = r.Notes
	if r.Timestamp != nil {
		s.Timestamp = r.Timestamp.UTC()
	}
}

// ListShots handles GET /api/shots/.
// Optional query params: ?golfer_id= (?golfer=), ?group_id= (?group=), ?tournament_id=
// (?tournament=), ?unassigned=true, ?shot_type=, ?club_used=, ?hole_number=, ?is_simulated=.
func ListShots(env *Env) fiber.Handler {
	return listShots(env, false)
}

// ListUnassignedShots handles GET /api/shots/unassigned/: shots without a golfer.
func ListUnassignedShots(env *Env) fiber.Handler {
	return listShots(env, true)
}

func listShots(env *Env, unassigned bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		f, err := filters.ParseShot(c.Queries())
		if err != nil {
			return env.respondError(c, "shot", "list shots", err)
		}
		if unassigned {
			f.Unassigned = true
		}
		page, err := env.pageParams(c)
		if err != nil {
			return finish(err)
		}

		rows, total, err := env.Store.ListShots(c.UserContext(), f, page)
		if err != nil {
			return env.respondError(c, "shot", "fetch shots", err)
		}
		results := make([]ShotResponse, 0, len(rows))
		for i := range rows {
			results = append(results, newShotResponse(&rows[i]))
		}
		return paginate(c, page, total, results)
	}
}

// GetShot handles GET /api/shots/:id/.
func GetShot(env *Env) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c, "shot")
		if err != nil {
			return finish(err)
		}
		s, err := env.Store.GetShot(c.UserContext(), id)
		if err != nil {
			return env.respondError(c, "shot", "fetch shot", err)
		}
		return c.JSON(newShotResponse(s))
	}
}

// CreateShot handles POST /api/shots/.
func CreateShot(env *Env) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req ShotRequest
		if err := decode(c, &req); err != nil {
			return finish(err)
		}
		ctx := c.UserContext()
		if err := req.validate(ctx, env.Store); err != nil {
			return env.respondError(c, "shot", "record shot", err)
		}

		var s models.Shot
		req.apply(&s)
		if err := env.Store.CreateShot(ctx, &s); err != nil {
			return env.respondError(c, "shot", "record shot", err)
		}
		created, err := env.Store.GetShot(ctx, s.ID)
		if err != nil {
			return env.respondError(c, "shot", "record shot", err)
		}
		return c.Status(fiber.StatusCreated).JSON(newShotResponse(created))
	}
}

// UpdateShot handles PUT (partial=false) and PATCH (partial=true) /api/shots/:id/.
// PUT requires no keys: every shot field is optional or defaulted.
func UpdateShot(env *Env, partial bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c, "shot")
		if err != nil {
			return finish(err)
		}
		ctx := c.UserContext()
		s, err := env.Store.GetShot(ctx, id)
		if err != nil {
			return env.respondError(c, "shot", "fetch shot", err)
		}

		req := shotRequestFrom(s)
		if err := bindUpdate(c, &req, partial); err != nil {
			return env.respondError(c, "shot", "update shot", err)
		}
		if err := req.validate(ctx, env.Store); err != nil {
			return env.respondError(c, "shot", "update shot", err)
		}

		req.apply(s)
		s.Golfer = nil
		if err := env.Store.UpdateShot(ctx, s); err != nil {
			return env.respondError(c, "shot", "update shot", err)
		}
		updated, err := env.Store.GetShot(ctx, id)
		if err != nil {
			return env.respondError(c, "shot", "update shot", err)
		}
		return c.JSON(newShotResponse(updated))
	}
}

// ShotStatistics handles GET /api/shots/statistics/.
// Accepts the same filters as the shot list. Aggregation happens in the database; averages
// are rounded to two decimals and metrics with no data are null.
func ShotStatistics(env *Env) fiber.Handler {
	return func(c *fiber.Ctx) error {
		f, err := filters.ParseShot(c.Queries())
		if err != nil {
			return env.respondError(c, "shot", "compute statistics", err)
		}
		stats, err := env.Store.ShotStatistics(c.UserContext(), f)
		if err != nil {
			return env.respondError(c, "shot", "compute statistics", err)
		}
		return c.JSON(stats)
	}
}
