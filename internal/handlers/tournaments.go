package handlers

// tournaments.go: the /api/tournaments/ routes.

import (
	"github.com/gofiber/fiber/v2"

	"github.com/trentd187/golf-metrics/internal/filters"
	"github.com/trentd187/golf-metrics/internal/models"
	"github.com/trentd187/golf-metrics/internal/repository"
	"github.com/trentd187/golf-metrics/internal/validation"
)

// TournamentRequest is the JSON body for POST, PUT and PATCH /api/tournaments/.
// Pointers distinguish "not sent" from a zero value.
type TournamentRequest struct {
	Name        *string `json:"name" validate:"required,min=1,max=200"`
	Description *string `json:"description"`
	StartDate   *string `json:"start_date" validate:"required,datetime=2006-01-02"` // "YYYY-MM-DD"
	EndDate     *string `json:"end_date" validate:"required,datetime=2006-01-02"`
	Location    *string `json:"location" validate:"omitempty,max=200"`
	IsActive    *bool   `json:"is_active"` // Defaults to true
}

var tournamentRequired = []string{"name", "start_date", "end_date"}

func tournamentRequestFrom(t *models.Tournament) TournamentRequest {
	return TournamentRequest{
		Name:        ptr(t.Name),
		Description: clone(t.Description),
		StartDate:   ptr(formatDate(t.StartDate)),
		EndDate:     ptr(formatDate(t.EndDate)),
		Location:    clone(t.Location),
		IsActive:    ptr(t.IsActive),
	}
}

// validate checks tags and that the tournament doesn't end before it starts.
func (r *TournamentRequest) validate() error {
	trimToNil(&r.Description, &r.Location)
	return check(r, func(fe validation.FieldErrors) {
		if _, bad := fe["start_date"]; bad {
			return
		}
		if _, bad := fe["end_date"]; bad {
			return
		}
		// Same-layout dates compare correctly as strings
		if *r.EndDate < *r.StartDate {
			fe.Add("end_date", "end date must be on or after start date")
		}
	})
}

// apply copies a validated request onto t.
func (r *TournamentRequest) apply(t *models.Tournament) {
	start, _ := parseOptionalDate(r.StartDate)
	end, _ := parseOptionalDate(r.EndDate)

	t.Name = *r.Name
	t.Description = r.Description
	t.StartDate = *start
	t.EndDate = *end
	t.Location = r.Location
	t.IsActive = r.IsActive == nil || *r.IsActive
}

func (env *Env) tournamentResponses(c *fiber.Ctx, rows []models.Tournament) ([]TournamentResponse, error) {
	counts, err := env.Store.TournamentCounts(c.UserContext(), idsOf(rows, func(t models.Tournament) uint { return t.ID }))
	if err != nil {
		return nil, err
	}
	out := make([]TournamentResponse, 0, len(rows))
	for i := range rows {
		out = append(out, newTournamentResponse(&rows[i], counts[rows[i].ID]))
	}
	return out, nil
}

func (env *Env) tournamentResponse(c *fiber.Ctx, t *models.Tournament) (TournamentResponse, error) {
	out, err := env.tournamentResponses(c, []models.Tournament{*t})
	if err != nil {
		return TournamentResponse{}, err
	}
	return out[0], nil
}

// ListTournaments handles GET /api/tournaments/.
// Optional query params: ?is_active=true|false, ?search=<text> (name, description, location).
func ListTournaments(env *Env) fiber.Handler {
	return func(c *fiber.Ctx) error {
		f, err := filters.ParseTournament(c.Queries())
		if err != nil {
			return env.respondError(c, "tournament", "list tournaments", err)
		}
		page, err := env.pageParams(c)
		if err != nil {
			return finish(err)
		}

		rows, total, err := env.Store.ListTournaments(c.UserContext(), f, page)
		if err != nil {
			return env.respondError(c, "tournament", "fetch tournaments", err)
		}
		results, err := env.tournamentResponses(c, rows)
		if err != nil {
			return env.respondError(c, "tournament", "count tournament groups", err)
		}
		return paginate(c, page, total, results)
	}
}

// GetTournament handles GET /api/tournaments/:id/.
func GetTournament(env *Env) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c, "tournament")
		if err != nil {
			return finish(err)
		}
		t, err := env.Store.GetTournament(c.UserContext(), id, false)
		if err != nil {
			return env.respondError(c, "tournament", "fetch tournament", err)
		}
		resp, err := env.tournamentResponse(c, t)
		if err != nil {
			return env.respondError(c, "tournament", "fetch tournament", err)
		}
		return c.JSON(resp)
	}
}

// GetTournamentWithGroups handles GET /api/tournaments/:id/retrieve_with_groups/.
// The tournament's groups are embedded, ordered by group number.
func GetTournamentWithGroups(env *Env) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c, "tournament")
		if err != nil {
			return finish(err)
		}
		ctx := c.UserContext()
		t, err := env.Store.GetTournament(ctx, id, true)
		if err != nil {
			return env.respondError(c, "tournament", "fetch tournament", err)
		}
		resp, err := env.tournamentResponse(c, t)
		if err != nil {
			return env.respondError(c, "tournament", "fetch tournament", err)
		}

		// The groups' own tournament link points back here
		for i := range t.Groups {
			t.Groups[i].Tournament = t
		}
		groups, err := env.groupResponses(c, t.Groups)
		if err != nil {
			return env.respondError(c, "tournament", "fetch tournament groups", err)
		}
		return c.JSON(TournamentWithGroupsResponse{TournamentResponse: resp, Groups: groups})
	}
}

// CreateTournament handles POST /api/tournaments/.
func CreateTournament(env *Env) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req TournamentRequest
		if err := decode(c, &req); err != nil {
			return finish(err)
		}
		if err := req.validate(); err != nil {
			return env.respondError(c, "tournament", "create tournament", err)
		}

		var t models.Tournament
		req.apply(&t)
		if err := env.Store.CreateTournament(c.UserContext(), &t); err != nil {
			return env.respondError(c, "tournament", "create tournament", err)
		}
		return c.Status(fiber.StatusCreated).JSON(newTournamentResponse(&t, repository.TournamentCounts{}))
	}
}

// UpdateTournament handles PUT (partial=false) and PATCH (partial=true) /api/tournaments/:id/.
func UpdateTournament(env *Env, partial bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c, "tournament")
		if err != nil {
			return finish(err)
		}
		ctx := c.UserContext()
		t, err := env.Store.GetTournament(ctx, id, false)
		if err != nil {
			return env.respondError(c, "tournament", "fetch tournament", err)
		}

		req := tournamentRequestFrom(t)
		if err := bindUpdate(c, &req, partial, tournamentRequired...); err != nil {
			return env.respondError(c, "tournament", "update tournament", err)
		}
		if err := req.validate(); err != nil {
			return env.respondError(c, "tournament", "update tournament", err)
		}

		req.apply(t)
		if err := env.Store.UpdateTournament(ctx, t); err != nil {
			return env.respondError(c, "tournament", "update tournament", err)
		}
		resp, err := env.tournamentResponse(c, t)
		if err != nil {
			return env.respondError(c, "tournament", "update tournament", err)
		}
		return c.JSON(resp)
	}
}
