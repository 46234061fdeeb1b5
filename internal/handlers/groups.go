package handlers

// groups.go: the /api/groups/ routes, including golfer assignment.

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/trentd187/golf-metrics/internal/filters"
	"github.com/trentd187/golf-metrics/internal/models"
	"github.com/trentd187/golf-metrics/internal/repository"
	"github.com/trentd187/golf-metrics/internal/validation"
)

// GroupRequest is the JSON body for POST, PUT and PATCH /api/groups/.
type GroupRequest struct {
	Tournament  *uint   `json:"tournament"`                                   // Optional tournament id
	GroupNumber *int    `json:"group_number" validate:"omitempty,min=1"`      // Omit to take the next free number
	Nickname    *string `json:"nickname" validate:"omitempty,max=100"`        // e.g. "Smith Foursome"
	MaxGolfers  *int    `json:"max_golfers" validate:"omitempty,min=1,max=8"` // Defaults to 4
}

func groupRequestFrom(g *models.Group) GroupRequest {
	return GroupRequest{
		Tournament:  clone(g.TournamentID),
		GroupNumber: ptr(g.GroupNumber),
		Nickname:    clone(g.Nickname),
		MaxGolfers:  ptr(g.MaxGolfers),
	}
}

func (r *GroupRequest) validate(ctx context.Context, store *repository.Store) error {
	trimToNil(&r.Nickname)
	var refErr error
	err := check(r, func(fe validation.FieldErrors) {
		refErr = checkRef(ctx, store, fe, "tournament", repository.EntityTournaments, r.Tournament)
	})
	if refErr != nil {
		return refErr
	}
	return err
}

// apply copies a validated request onto g. A nil group number leaves g's number alone,
// which on create means "assign the next one".
func (r *GroupRequest) apply(g *models.Group) {
	g.TournamentID = r.Tournament
	if r.GroupNumber != nil {
		g.GroupNumber = *r.GroupNumber
	}
	g.Nickname = r.Nickname
	g.MaxGolfers = models.DefaultMaxGolfers
	if r.MaxGolfers != nil {
		g.MaxGolfers = *r.MaxGolfers
	}
}

func (env *Env) groupResponses(c *fiber.Ctx, rows []models.Group) ([]GroupResponse, error) {
	counts, err := env.Store.GroupGolferCounts(c.UserContext(), idsOf(rows, func(g models.Group) uint { return g.ID }))
	if err != nil {
		return nil, err
	}
	out := make([]GroupResponse, 0, len(rows))
	for i := range rows {
		out = append(out, newGroupResponse(&rows[i], counts[rows[i].ID]))
	}
	return out, nil
}

func (env *Env) groupResponse(c *fiber.Ctx, g *models.Group) (GroupResponse, error) {
	out, err := env.groupResponses(c, []models.Group{*g})
	if err != nil {
		return GroupResponse{}, err
	}
	return out[0], nil
}

// ListGroups handles GET /api/groups/.
// Optional query params: ?tournament_id= (or ?tournament=), ?unassigned=true, ?is_full=true|false,
// ?search=<nickname text>.
func ListGroups(env *Env) fiber.Handler {
	return func(c *fiber.Ctx) error {
		f, err := filters.ParseGroup(c.Queries())
		if err != nil {
			return env.respondError(c, "group", "list groups", err)
		}
		page, err := env.pageParams(c)
		if err != nil {
			return finish(err)
		}

		rows, total, err := env.Store.ListGroups(c.UserContext(), f, page)
		if err != nil {
			return env.respondError(c, "group", "fetch groups", err)
		}
		results, err := env.groupResponses(c, rows)
		if err != nil {
			return env.respondError(c, "group", "count group golfers", err)
		}
		return paginate(c, page, total, results)
	}
}

// GetGroup handles GET /api/groups/:id/.
func GetGroup(env *Env) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c, "group")
		if err != nil {
			return finish(err)
		}
		g, err := env.Store.GetGroup(c.UserContext(), id, false)
		if err != nil {
			return env.respondError(c, "group", "fetch group", err)
		}
		resp, err := env.groupResponse(c, g)
		if err != nil {
			return env.respondError(c, "group", "fetch group", err)
		}
		return c.JSON(resp)
	}
}

// GetGroupWithGolfers handles GET /api/groups/:id/retrieve_with_golfers/.
func GetGroupWithGolfers(env *Env) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c, "group")
		if err != nil {
			return finish(err)
		}
		g, err := env.Store.GetGroup(c.UserContext(), id, true)
		if err != nil {
			return env.respondError(c, "group", "fetch group", err)
		}
		resp, err := env.groupResponse(c, g)
		if err != nil {
			return env.respondError(c, "group", "fetch group", err)
		}

		for i := range g.Golfers {
			g.Golfers[i].Group = g
		}
		golfers, err := env.golferResponses(c, g.Golfers)
		if err != nil {
			return env.respondError(c, "group", "fetch group golfers", err)
		}
		return c.JSON(GroupWithGolfersResponse{GroupResponse: resp, Golfers: golfers})
	}
}

// CreateGroup handles POST /api/groups/.
func CreateGroup(env *Env) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req GroupRequest
		if err := decode(c, &req); err != nil {
			return finish(err)
		}
		ctx := c.UserContext()
		if err := req.validate(ctx, env.Store); err != nil {
			return env.respondError(c, "group", "create group", err)
		}

		var g models.Group
		req.apply(&g)
		if err := env.Store.CreateGroup(ctx, &g); err != nil {
			return env.respondError(c, "group", "create group", err)
		}
		// Reload for the tournament name
		created, err := env.Store.GetGroup(ctx, g.ID, false)
		if err != nil {
			return env.respondError(c, "group", "create group", err)
		}
		return c.Status(fiber.StatusCreated).JSON(newGroupResponse(created, 0))
	}
}

// UpdateGroup handles PUT (partial=false) and PATCH (partial=true) /api/groups/:id/.
// PUT requires no keys: every group field is optional or defaulted.
func UpdateGroup(env *Env, partial bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c, "group")
		if err != nil {
			return finish(err)
		}
		ctx := c.UserContext()
		g, err := env.Store.GetGroup(ctx, id, false)
		if err != nil {
			return env.respondError(c, "group", "fetch group", err)
		}

		req := groupRequestFrom(g)
		if err := bindUpdate(c, &req, partial); err != nil {
			return env.respondError(c, "group", "update group", err)
		}
		if err := req.validate(ctx, env.Store); err != nil {
			return env.respondError(c, "group", "update group", err)
		}

		req.apply(g)
		g.Tournament = nil
		if err := env.Store.UpdateGroup(ctx, g); err != nil {
			return env.respondError(c, "group", "update group", err)
		}
		updated, err := env.Store.GetGroup(ctx, id, false)
		if err != nil {
			return env.respondError(c, "group", "update group", err)
		}
		resp, err := env.groupResponse(c, updated)
		if err != nil {
			return env.respondError(c, "group", "update group", err)
		}
		return c.JSON(resp)
	}
}

// GolferIDsRequest is the body for assign_golfers and remove_golfers.
type GolferIDsRequest struct {
	GolferIDs []uint `json:"golfer_ids"`
}

// AssignmentResponse reports the outcome of assign_golfers / remove_golfers.
type AssignmentResponse struct {
	Success       bool   `json:"success"`
	AssignedCount int    `json:"assigned_count"`
	RemovedCount  *int64 `json:"removed_count,omitempty"` // remove_golfers only
	Message       string `json:"message"`
}

// readGolferIDs decodes and checks the golfer_ids body shared by the assignment routes.
func readGolferIDs(c *fiber.Ctx) ([]uint, error) {
	var req GolferIDsRequest
	if err := decode(c, &req); err != nil {
		return nil, err
	}
	if len(req.GolferIDs) == 0 {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "no golfer IDs provided",
			"message": "golfer_ids must be a non-empty list",
		})
		return nil, errResponded
	}
	return req.GolferIDs, nil
}

// AssignGolfers handles POST /api/groups/:id/assign_golfers/.
// Golfers are placed in the order given until the group is full; the rest are reported in
// the message, not as an error. Each golfer is moved individually, so a failure part-way
// keeps the golfers already moved.
func AssignGolfers(env *Env) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c, "group")
		if err != nil {
			return finish(err)
		}
		golferIDs, err := readGolferIDs(c)
		if err != nil {
			return finish(err)
		}

		res, err := env.Store.AssignGolfers(c.UserContext(), id, golferIDs)
		if err != nil {
			return env.respondError(c, "group", "assign golfers", err)
		}

		msg := fmt.Sprintf("Assigned %d golfer(s) to %s", res.Assigned, res.Group.DisplayName())
		if res.Unassigned > 0 {
			msg += fmt.Sprintf("; %d could not be assigned because the group is full", res.Unassigned)
		}
		return c.JSON(AssignmentResponse{Success: true, AssignedCount: res.Assigned, Message: msg})
	}
}

// RemoveGolfers handles POST /api/groups/:id/remove_golfers/.
// Only golfers currently in this group are detached; other ids are ignored.
func RemoveGolfers(env *Env) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c, "group")
		if err != nil {
			return finish(err)
		}
		golferIDs, err := readGolferIDs(c)
		if err != nil {
			return finish(err)
		}
		ctx := c.UserContext()
		g, err := env.Store.GetGroup(ctx, id, false)
		if err != nil {
			return env.respondError(c, "group", "fetch group", err)
		}

		removed, err := env.Store.RemoveGolfers(ctx, id, golferIDs)
		if err != nil {
			return env.respondError(c, "group", "remove golfers", err)
		}
		return c.JSON(AssignmentResponse{
			Success:       true,
			AssignedCount: int(removed),
			RemovedCount:  &removed,
			Message:       fmt.Sprintf("Removed %d golfer(s) from %s", removed, g.DisplayName()),
		})
	}
}
