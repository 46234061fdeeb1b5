package repository

// delete.go: cascading and detaching deletes.
//
// The hierarchy is Tournament -> Group -> Golfer -> Shot. Deleting a parent either removes
// the whole subtree (cascade) or sets the children's foreign key to NULL (detach). Only the
// direct children are detached; grandchildren keep pointing at their (surviving) parent.
// Every helper here expects to run inside a transaction.

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/trentd187/golf-metrics/internal/metrics"
	"github.com/trentd187/golf-metrics/internal/models"
)

// Entity names used in metrics labels and bulk-delete messages.
const (
	EntityTournaments = "tournaments"
	EntityGroups      = "groups"
	EntityGolfers     = "golfers"
	EntityShots       = "shots"
)

func removeShots(tx *gorm.DB, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return tx.Where("id IN ?", ids).Delete(&models.Shot{}).Error
}

func removeGolfers(tx *gorm.DB, ids []uint, cascade bool) error {
	if len(ids) == 0 {
		return nil
	}
	shots := tx.Model(&models.Shot{}).Where("golfer_id IN ?", ids)
	if cascade {
		if err := shots.Delete(&models.Shot{}).Error; err != nil {
			return fmt.Errorf("delete shots: %w", err)
		}
	} else if err := shots.Update("golfer_id", gorm.Expr("NULL")).Error; err != nil {
		return fmt.Errorf("detach shots: %w", err)
	}
	return tx.Where("id IN ?", ids).Delete(&models.Golfer{}).Error
}

func removeGroups(tx *gorm.DB, ids []uint, cascade bool) error {
	if len(ids) == 0 {
		return nil
	}
	if cascade {
		var golferIDs []uint
		if err := tx.Model(&models.Golfer{}).Where("group_id IN ?", ids).Pluck("id", &golferIDs).Error; err != nil {
			return fmt.Errorf("find golfers: %w", err)
		}
		if err := removeGolfers(tx, golferIDs, true); err != nil {
			return err
		}
	} else if err := tx.Model(&models.Golfer{}).Where("group_id IN ?", ids).
		Update("group_id", gorm.Expr("NULL")).Error; err != nil {
		return fmt.Errorf("detach golfers: %w", err)
	}
	return tx.Where("id IN ?", ids).Delete(&models.Group{}).Error
}

func removeTournaments(tx *gorm.DB, ids []uint, cascade bool) error {
	if len(ids) == 0 {
		return nil
	}
	if cascade {
		var groupIDs []uint
		if err := tx.Model(&models.Group{}).Where("tournament_id IN ?", ids).Pluck("id", &groupIDs).Error; err != nil {
			return fmt.Errorf("find groups: %w", err)
		}
		if err := removeGroups(tx, groupIDs, true); err != nil {
			return err
		}
	} else if err := tx.Model(&models.Group{}).Where("tournament_id IN ?", ids).
		Update("tournament_id", gorm.Expr("NULL")).Error; err != nil {
		return fmt.Errorf("detach groups: %w", err)
	}
	return tx.Where("id IN ?", ids).Delete(&models.Tournament{}).Error
}

// remover deletes a set of rows of one entity; cascade is ignored for shots.
type remover func(tx *gorm.DB, ids []uint, cascade bool) error

func removerFor(entity string) (interface{}, remover) {
	switch entity {
	case EntityTournaments:
		return &models.Tournament{}, removeTournaments
	case EntityGroups:
		return &models.Group{}, removeGroups
	case EntityGolfers:
		return &models.Golfer{}, removeGolfers
	default:
		return &models.Shot{}, func(tx *gorm.DB, ids []uint, _ bool) error { return removeShots(tx, ids) }
	}
}

// BulkDelete removes the rows of entity whose ids are listed, in one transaction, and
// returns how many existed. Unknown ids are ignored. With deleteChildren the whole subtree
// below each row goes too; otherwise direct children are detached.
func (s *Store) BulkDelete(ctx context.Context, entity string, ids []uint, deleteChildren bool) (int64, error) {
	defer metrics.RecordDBOperation("bulk_delete", entity, time.Now())

	deleted, err := s.deleteRows(ctx, entity, ids, deleteChildren)
	if err != nil {
		return 0, err
	}
	metrics.BulkDeleted.WithLabelValues(entity).Add(float64(deleted))
	return deleted, nil
}

// Delete removes a single row with the same cascade/detach rules as BulkDelete,
// returning ErrNotFound when the row does not exist.
func (s *Store) Delete(ctx context.Context, entity string, id uint, deleteChildren bool) error {
	defer metrics.RecordDBOperation("delete", entity, time.Now())

	n, err := s.deleteRows(ctx, entity, []uint{id}, deleteChildren)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) deleteRows(ctx context.Context, entity string, ids []uint, cascade bool) (int64, error) {
	model, remove := removerFor(entity)
	var deleted int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, err := existingIDs(tx, model, ids)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", entity, err)
		}
		if err := remove(tx, found, cascade); err != nil {
			return fmt.Errorf("delete %s: %w", entity, err)
		}
		deleted = int64(len(found))
		return nil
	})
	return deleted, err
}
