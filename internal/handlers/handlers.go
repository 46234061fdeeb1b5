// Package handlers contains the HTTP route handler functions for the Golf Metrics API.
//
// Each exported function follows the "handler factory" pattern: it takes the shared *Env
// and returns a fiber.Handler (a function that handles a single HTTP request). This lets us
// inject the store, logger and paging settings without using global variables.
//
// Responses use dedicated structs (see responses.go) instead of the GORM models, so we
// control exactly which fields are serialised and can add computed ones like display_name
// or smash_factor.
//
// Error bodies follow three shapes:
//   - 400 validation failure: {"field": ["message", ...]}
//   - 400 unreadable body:    {"detail": "..."}
//   - 404 / 500:              {"error": "..."}
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/trentd187/golf-metrics/internal/middleware"
	"github.com/trentd187/golf-metrics/internal/repository"
	"github.com/trentd187/golf-metrics/internal/validation"
)

// Env is the shared state every handler closes over.
type Env struct {
	Store       *repository.Store
	Log         *logrus.Logger
	PageSize    int // default ?page_size=
	MaxPageSize int // upper bound for ?page_size=
}

// ErrorHandler renders errors that escape a handler (and fiber's own 404/405) as JSON.
func ErrorHandler(log *logrus.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
		}
		middleware.Logger(c, log).WithError(err).Error("unhandled error")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
}

// parseID reads the :id route parameter. Anything that isn't a positive integer can't
// match a row, so it is reported as not found.
func parseID(c *fiber.Ctx, entity string) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, notFound(c, entity)
	}
	return uint(id), nil
}

// errResponded marks that a helper has already written the response.
var errResponded = errors.New("response already written")

func notFound(c *fiber.Ctx, entity string) error {
	_ = c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": entity + " not found"})
	return errResponded
}

// finish converts a helper's return into the handler's: errResponded means the response
// is already written.
func finish(err error) error {
	if errors.Is(err, errResponded) {
		return nil
	}
	return err
}

// decode reads a JSON body into dst. An empty body leaves dst untouched, so required-field
// validation reports what's missing instead of a parse error.
func decode(c *fiber.Ctx, dst interface{}) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := c.BodyParser(dst); err != nil {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"detail": "JSON parse error - " + err.Error()})
		return errResponded
	}
	return nil
}

// missingKeys reports which of the required keys are absent from the JSON body. Used by PUT,
// where the payload is applied on top of the stored row but required fields must be sent.
func missingKeys(c *fiber.Ctx, keys ...string) validation.FieldErrors {
	fe := validation.FieldErrors{}
	var raw map[string]json.RawMessage
	_ = json.Unmarshal(c.Body(), &raw)
	for _, k := range keys {
		if _, ok := raw[k]; !ok {
			fe.Add(k, "this field is required")
		}
	}
	return fe
}

// respondError maps an error from validation or the store onto an HTTP response. entity
// names the resource in 404 bodies ("golfer not found"); action describes the operation in
// the logged 500 ("update golfer").
func (env *Env) respondError(c *fiber.Ctx, entity, action string, err error) error {
	var fe validation.FieldErrors
	switch {
	case errors.Is(err, errResponded):
		return nil
	case errors.As(err, &fe):
		return c.Status(fiber.StatusBadRequest).JSON(fe)
	case errors.Is(err, repository.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": entity + " not found"})
	case errors.Is(err, repository.ErrGroupNumberTaken):
		return c.Status(fiber.StatusBadRequest).JSON(validation.FieldErrors{
			"group_number": {"group with this tournament and group number already exists"},
		})
	case errors.Is(err, repository.ErrGolferIDTaken):
		return c.Status(fiber.StatusBadRequest).JSON(validation.FieldErrors{
			"golfer_id": {"golfer with this golfer_id already exists"},
		})
	}

	middleware.Logger(c, env.Log).WithError(err).Error("failed to " + action)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to " + action})
}

// trimToNil turns blank optional strings into nil so they are stored as NULL and skip
// format checks like email.
func trimToNil(fields ...**string) {
	for _, f := range fields {
		if *f == nil {
			continue
		}
		v := strings.TrimSpace(**f)
		if v == "" {
			*f = nil
			continue
		}
		*f = &v
	}
}

// clone returns a fresh pointer holding *p, so a request built from a model never aliases it.
func clone[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// ptr returns a pointer to v.
func ptr[T any](v T) *T { return &v }

// idsOf collects primary keys for the batched count queries.
func idsOf[T any](rows []T, id func(T) uint) []uint {
	ids := make([]uint, len(rows))
	for i, r := range rows {
		ids[i] = id(r)
	}
	return ids
}

// check runs the struct's validate tags plus any extra rules, returning a combined
// validation.FieldErrors or nil.
func check(req interface{}, extra ...func(validation.FieldErrors)) error {
	fe := validation.FieldErrors{}
	if err := validation.Struct(req); err != nil {
		var tagErrs validation.FieldErrors
		if !errors.As(err, &tagErrs) {
			return err
		}
		fe.Merge(tagErrs)
	}
	for _, rule := range extra {
		rule(fe)
	}
	return fe.Err()
}

// bindUpdate decodes the body over req, which already holds the stored row's values, so
// absent keys keep their current value and explicit nulls clear it. A full update (PUT)
// must still send every required key.
func bindUpdate(c *fiber.Ctx, req interface{}, partial bool, required ...string) error {
	if err := decode(c, req); err != nil {
		return err
	}
	if partial {
		return nil
	}
	return missingKeys(c, required...).Err()
}

// checkRef adds an error for field when id is set but the referenced row doesn't exist.
func checkRef(ctx context.Context, store *repository.Store, fe validation.FieldErrors, field, entity string, id *uint) error {
	if id == nil {
		return nil
	}
	ok, err := store.Exists(ctx, entity, *id)
	if err != nil {
		return fmt.Errorf("check %s %d: %w", field, *id, err)
	}
	if !ok {
		fe.Add(field, fmt.Sprintf("invalid id %d: object does not exist", *id))
	}
	return nil
}
