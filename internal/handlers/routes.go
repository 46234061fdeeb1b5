package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/trentd187/golf-metrics/internal/middleware"
	"github.com/trentd187/golf-metrics/internal/repository"
)

// Register mounts every route on app.
//
// Paths keep the trailing slash the front end already uses; fiber's default non-strict
// routing also accepts them without it. Fixed sub-paths (unassigned/, statistics/,
// bulk_delete/) are registered before /:id/ so they aren't read as ids.
func Register(app *fiber.App, env *Env) {
	// --- Operational routes ---
	// GET /health:  liveness + database ping
	// GET /metrics: Prometheus exposition (promhttp wrapped for fiber)
	app.Get("/health", HealthCheck(env))
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Every write under /api takes JSON
	api := app.Group("/api", middleware.RequireContentType(fiber.MIMEApplicationJSON))

	// Tournament routes
	// GET    /api/tournaments/                         : list (?is_active, ?search)
	// POST   /api/tournaments/                         : create
	// POST   /api/tournaments/bulk_delete/             : delete many ({ids, delete_children})
	// GET    /api/tournaments/:id/                     : retrieve
	// GET    /api/tournaments/:id/retrieve_with_groups/: retrieve with groups embedded
	// PUT    /api/tournaments/:id/                     : full update
	// PATCH  /api/tournaments/:id/                     : partial update
	// DELETE /api/tournaments/:id/                     : delete (?delete_children=true cascades)
	tournaments := api.Group("/tournaments")
	tournaments.Get("/", ListTournaments(env))
	tournaments.Post("/", CreateTournament(env))
	tournaments.Post("/bulk_delete/", BulkDelete(env, repository.EntityTournaments))
	tournaments.Get("/:id/retrieve_with_groups/", GetTournamentWithGroups(env))
	tournaments.Get("/:id/", GetTournament(env))
	tournaments.Put("/:id/", UpdateTournament(env, false))
	tournaments.Patch("/:id/", UpdateTournament(env, true))
	tournaments.Delete("/:id/", DeleteEntity(env, repository.EntityTournaments, "tournament"))

	// Group routes, plus golfer assignment
	// POST /api/groups/:id/assign_golfers/: {golfer_ids}; fills open spots in order
	// POST /api/groups/:id/remove_golfers/: {golfer_ids}; detaches golfers in this group
	groups := api.Group("/groups")
	groups.Get("/", ListGroups(env))
	groups.Post("/", CreateGroup(env))
	groups.Post("/bulk_delete/", BulkDelete(env, repository.EntityGroups))
	groups.Get("/:id/retrieve_with_golfers/", GetGroupWithGolfers(env))
	groups.Post("/:id/assign_golfers/", AssignGolfers(env))
	groups.Post("/:id/remove_golfers/", RemoveGolfers(env))
	groups.Get("/:id/", GetGroup(env))
	groups.Put("/:id/", UpdateGroup(env, false))
	groups.Patch("/:id/", UpdateGroup(env, true))
	groups.Delete("/:id/", DeleteEntity(env, repository.EntityGroups, "group"))

	// Golfer routes
	// GET /api/golfers/unassigned/: golfers without a group
	golfers := api.Group("/golfers")
	golfers.Get("/", ListGolfers(env))
	golfers.Post("/", CreateGolfer(env))
	golfers.Get("/unassigned/", ListUnassignedGolfers(env))
	golfers.Post("/bulk_delete/", BulkDelete(env, repository.EntityGolfers))
	golfers.Get("/:id/retrieve_with_shots/", GetGolferWithShots(env))
	golfers.Get("/:id/", GetGolfer(env))
	golfers.Put("/:id/", UpdateGolfer(env, false))
	golfers.Patch("/:id/", UpdateGolfer(env, true))
	golfers.Delete("/:id/", DeleteEntity(env, repository.EntityGolfers, "golfer"))

	// Shot routes
	// GET /api/shots/unassigned/: shots without a golfer
	// GET /api/shots/statistics/: aggregates over the filtered shots
	shots := api.Group("/shots")
	shots.Get("/", ListShots(env))
	shots.Post("/", CreateShot(env))
	shots.Get("/unassigned/", ListUnassignedShots(env))
	shots.Get("/statistics/", ShotStatistics(env))
	shots.Post("/bulk_delete/", BulkDelete(env, repository.EntityShots))
	shots.Get("/:id/", GetShot(env))
	shots.Put("/:id/", UpdateShot(env, false))
	shots.Patch("/:id/", UpdateShot(env, true))
	shots.Delete("/:id/", DeleteEntity(env, repository.EntityShots, "shot"))
}
