package handlers

// bulk.go: single and bulk deletes, shared by every entity.
//
// Deleting a parent either takes its whole subtree with it (delete_children=true) or leaves
// the direct children in place with their parent link cleared.

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/trentd187/golf-metrics/internal/middleware"
)

// BulkDeleteRequest is the JSON body for POST /api/<entity>/bulk_delete/.
type BulkDeleteRequest struct {
	IDs            []uint `json:"ids"`
	DeleteChildren bool   `json:"delete_children"`
}

// BulkDeleteResponse reports a successful bulk delete.
type BulkDeleteResponse struct {
	Success         bool   `json:"success"`
	DeletedCount    int64  `json:"deleted_count"`
	ChildrenDeleted bool   `json:"children_deleted"` // Echoes delete_children
	Message         string `json:"message"`
}

// DeleteEntity handles DELETE /api/<entity>/:id/. entity is one of the repository.Entity*
// names; label is the singular used in the 404 body. ?delete_children=true cascades.
func DeleteEntity(env *Env, entity, label string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c, label)
		if err != nil {
			return finish(err)
		}
		cascade := c.QueryBool("delete_children", false)

		if err := env.Store.Delete(c.UserContext(), entity, id, cascade); err != nil {
			return env.respondError(c, label, "delete "+label, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// BulkDelete handles POST /api/<entity>/bulk_delete/.
// Everything happens in one transaction: on failure nothing is deleted and the response is
// a 500 with success=false. Ids that don't exist are ignored and not counted.
func BulkDelete(env *Env, entity string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req BulkDeleteRequest
		if err := decode(c, &req); err != nil {
			return finish(err)
		}
		if len(req.IDs) == 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"error":   "no IDs provided",
				"message": fmt.Sprintf("ids must be a non-empty list of %s to delete", entity),
			})
		}

		deleted, err := env.Store.BulkDelete(c.UserContext(), entity, req.IDs, req.DeleteChildren)
		if err != nil {
			middleware.Logger(c, env.Log).WithError(err).WithField("entity", entity).Error("bulk delete failed")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"error":   err.Error(),
				"message": fmt.Sprintf("failed to delete %s; no changes were made", entity),
			})
		}

		msg := fmt.Sprintf("Successfully deleted %d %s", deleted, entity)
		if req.DeleteChildren {
			msg += " and their related records"
		}
		return c.JSON(BulkDeleteResponse{
			Success:         true,
			DeletedCount:    deleted,
			ChildrenDeleted: req.DeleteChildren,
			Message:         msg,
		})
	}
}
