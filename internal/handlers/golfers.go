package handlers

// golfers.go: the /api/golfers/ routes.

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/trentd187/golf-metrics/internal/filters"
	"github.com/trentd187/golf-metrics/internal/models"
	"github.com/trentd187/golf-metrics/internal/repository"
	"github.com/trentd187/golf-metrics/internal/validation"
)

// GolferRequest is the JSON body for POST, PUT and PATCH /api/golfers/.
type GolferRequest struct {
	GolferID     *string  `json:"golfer_id" validate:"omitempty,max=20"` // Generated from the name when blank
	FirstName    *string  `json:"first_name" validate:"required,min=1,max=100"`
	LastName     *string  `json:"last_name" validate:"required,min=1,max=100"`
	Email        *string  `json:"email" validate:"omitempty,email,max=254"`
	Phone        *string  `json:"phone" validate:"omitempty,max=20"`
	DateOfBirth  *string  `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	Gender       *string  `json:"gender" validate:"omitempty,oneof=M F O"`
	Handicap     *float64 `json:"handicap" validate:"omitempty,gte=-10,lte=54"`
	SkillLevel   *string  `json:"skill_level" validate:"omitempty,oneof=beginner intermediate advanced professional"`
	PreferredTee *string  `json:"preferred_tee" validate:"omitempty,max=20"`
	Group        *uint    `json:"group"` // Optional group id
	IsActive     *bool    `json:"is_active"`
	Notes        *string  `json:"notes"`
}

var golferRequired = []string{"first_name", "last_name"}

func golferRequestFrom(g *models.Golfer) GolferRequest {
	req := GolferRequest{
		GolferID:     ptr(g.GolferID),
		FirstName:    ptr(g.FirstName),
		LastName:     ptr(g.LastName),
		Email:        clone(g.Email),
		Phone:        clone(g.Phone),
		DateOfBirth:  formatOptionalDate(g.DateOfBirth),
		Handicap:     clone(g.Handicap),
		SkillLevel:   ptr(string(g.SkillLevel)),
		PreferredTee: clone(g.PreferredTee),
		Group:        clone(g.GroupID),
		IsActive:     ptr(g.IsActive),
		Notes:        clone(g.Notes),
	}
	if g.Gender != nil {
		req.Gender = ptr(string(*g.Gender))
	}
	return req
}

// validate checks tags, the date of birth, the group reference and, when the golfer is
// joining group (not already in it as currentGroup), that the group has room. The capacity
// check is advisory: two concurrent requests can both pass it.
func (r *GolferRequest) validate(ctx context.Context, store *repository.Store, golferID uint, currentGroup *uint) error {
	trimToNil(&r.GolferID, &r.Email, &r.Phone, &r.DateOfBirth, &r.Gender, &r.PreferredTee, &r.Notes)

	var ruleErr error
	err := check(r, func(fe validation.FieldErrors) {
		if _, bad := fe["date_of_birth"]; !bad && r.DateOfBirth != nil {
			if *r.DateOfBirth > time.Now().UTC().Format(dateLayout) {
				fe.Add("date_of_birth", "date of birth cannot be in the future")
			}
		}
		if r.GolferID != nil {
			taken, err := store.GolferIDInUse(ctx, *r.GolferID, golferID)
			if err != nil {
				ruleErr = err
				return
			}
			if taken {
				fe.Add("golfer_id", "golfer with this golfer_id already exists")
			}
		}
		if ruleErr = checkRef(ctx, store, fe, "group", repository.EntityGroups, r.Group); ruleErr != nil {
			return
		}
		if _, bad := fe["group"]; bad || r.Group == nil {
			return
		}
		if currentGroup != nil && *currentGroup == *r.Group {
			return
		}
		group, current, err := store.GroupOccupancy(ctx, *r.Group)
		if err != nil {
			ruleErr = err
			return
		}
		if group.IsFull(current) {
			fe.Add("group", fmt.Sprintf("%s is full (max %d golfers)", group.DisplayName(), group.MaxGolfers))
		}
	})
	if ruleErr != nil {
		return ruleErr
	}
	return err
}

// apply copies a validated request onto g. A nil GolferID leaves g's code alone, which on
// create means "generate one".
func (r *GolferRequest) apply(g *models.Golfer) {
	if r.GolferID != nil {
		g.GolferID = *r.GolferID
	}
	g.FirstName = *r.FirstName
	g.LastName = *r.LastName
	g.Email = r.Email
	g.Phone = r.Phone
	g.DateOfBirth, _ = parseOptionalDate(r.DateOfBirth)
	g.Gender = nil
	if r.Gender != nil {
		g.Gender = ptr(models.Gender(*r.Gender))
	}
	g.Handicap = r.Handicap
	g.SkillLevel = models.SkillLevelIntermediate
	if r.SkillLevel != nil {
		g.SkillLevel = models.SkillLevel(*r.SkillLevel)
	}
	g.PreferredTee = r.PreferredTee
	g.GroupID = r.Group
	g.IsActive = r.IsActive == nil || *r.IsActive
	g.Notes = r.Notes
}

func (env *Env) golferResponses(c *fiber.Ctx, rows []models.Golfer) ([]GolferResponse, error) {
	counts, err := env.Store.GolferShotCounts(c.UserContext(), idsOf(rows, func(g models.Golfer) uint { return g.ID }))
	if err != nil {
		return nil, err
	}
	now := time.Now()
	out := make([]GolferResponse, 0, len(rows))
	for i := range rows {
		out = append(out, newGolferResponse(&rows[i], counts[rows[i].ID], now))
	}
	return out, nil
}

func (env *Env) golferResponse(c *fiber.Ctx, g *models.Golfer) (GolferResponse, error) {
	out, err := env.golferResponses(c, []models.Golfer{*g})
	if err != nil {
		return GolferResponse{}, err
	}
	return out[0], nil
}

// ListGolfers handles GET /api/golfers/.
// Optional query params: ?group_id= (?group=), ?tournament_id= (?tournament=), ?unassigned=true,
// ?is_active=, ?skill_level=, ?search=<name, golfer_id or email text>.
func ListGolfers(env *Env) fiber.Handler {
	return listGolfers(env, false)
}

// ListUnassignedGolfers handles GET /api/golfers/unassigned/: golfers without a group.
func ListUnassignedGolfers(env *Env) fiber.Handler {
	return listGolfers(env, true)
}

func listGolfers(env *Env, unassigned bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		f, err := filters.ParseGolfer(c.Queries())
		if err != nil {
			return env.respondError(c, "golfer", "list golfers", err)
		}
		if unassigned {
			f.Unassigned = true
		}
		page, err := env.pageParams(c)
		if err != nil {
			return finish(err)
		}

		rows, total, err := env.Store.ListGolfers(c.UserContext(), f, page)
		if err != nil {
			return env.respondError(c, "golfer", "fetch golfers", err)
		}
		results, err := env.golferResponses(c, rows)
		if err != nil {
			return env.respondError(c, "golfer", "count golfer shots", err)
		}
		return paginate(c, page, total, results)
	}
}

// GetGolfer handles GET /api/golfers/:id/.
func GetGolfer(env *Env) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c, "golfer")
		if err != nil {
			return finish(err)
		}
		g, err := env.Store.GetGolfer(c.UserContext(), id, false)
		if err != nil {
			return env.respondError(c, "golfer", "fetch golfer", err)
		}
		resp, err := env.golferResponse(c, g)
		if err != nil {
			return env.respondError(c, "golfer", "fetch golfer", err)
		}
		return c.JSON(resp)
	}
}

// GetGolferWithShots handles GET /api/golfers/:id/retrieve_with_shots/.
// Shots are embedded newest first.
func GetGolferWithShots(env *Env) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c, "golfer")
		if err != nil {
			return finish(err)
		}
		g, err := env.Store.GetGolfer(c.UserContext(), id, true)
		if err != nil {
			return env.respondError(c, "golfer", "fetch golfer", err)
		}
		resp, err := env.golferResponse(c, g)
		if err != nil {
			return env.respondError(c, "golfer", "fetch golfer", err)
		}

		shots := make([]ShotResponse, 0, len(g.Shots))
		for i := range g.Shots {
			g.Shots[i].Golfer = g
			shots = append(shots, newShotResponse(&g.Shots[i]))
		}
		return c.JSON(GolferWithShotsResponse{GolferResponse: resp, Shots: shots})
	}
}

// CreateGolfer handles POST /api/golfers/.
func CreateGolfer(env *Env) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req GolferRequest
		if err := decode(c, &req); err != nil {
			return finish(err)
		}
		ctx := c.UserContext()
		if err := req.validate(ctx, env.Store, 0, nil); err != nil {
			return env.respondError(c, "golfer", "create golfer", err)
		}

		var g models.Golfer
		req.apply(&g)
		if err := env.Store.CreateGolfer(ctx, &g); err != nil {
			return env.respondError(c, "golfer", "create golfer", err)
		}
		created, err := env.Store.GetGolfer(ctx, g.ID, false)
		if err != nil {
			return env.respondError(c, "golfer", "create golfer", err)
		}
		return c.Status(fiber.StatusCreated).JSON(newGolferResponse(created, 0, time.Now()))
	}
}

// UpdateGolfer handles PUT (partial=false) and PATCH (partial=true) /api/golfers/:id/.
func UpdateGolfer(env *Env, partial bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c, "golfer")
		if err != nil {
			return finish(err)
		}
		ctx := c.UserContext()
		g, err := env.Store.GetGolfer(ctx, id, false)
		if err != nil {
			return env.respondError(c, "golfer", "fetch golfer", err)
		}

		req := golferRequestFrom(g)
		if err := bindUpdate(c, &req, partial, golferRequired...); err != nil {
			return env.respondError(c, "golfer", "update golfer", err)
		}
		if err := req.validate(ctx, env.Store, g.ID, g.GroupID); err != nil {
			return env.respondError(c, "golfer", "update golfer", err)
		}
		// Clearing golfer_id on update means "generate a new one"
		if req.GolferID == nil {
			req.GolferID = ptr(models.GenerateGolferID(*req.FirstName, *req.LastName))
		}

		req.apply(g)
		g.Group = nil
		if err := env.Store.UpdateGolfer(ctx, g); err != nil {
			return env.respondError(c, "golfer", "update golfer", err)
		}
		updated, err := env.Store.GetGolfer(ctx, id, false)
		if err != nil {
			return env.respondError(c, "golfer", "update golfer", err)
		}
		resp, err := env.golferResponse(c, updated)
		if err != nil {
			return env.respondError(c, "golfer", "update golfer", err)
		}
		return c.JSON(resp)
	}
}
