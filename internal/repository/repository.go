// Package repository is the data-access layer: every query the API runs lives here, on a
// single Store wrapping the GORM handle.
//
// Reads take a context so request cancellation reaches the database. Multi-row writes
// (cascading and bulk deletes, group-number sequencing) run inside db.Transaction, which
// commits when the callback returns nil and rolls back on any error, so callers never see a
// half-applied delete.
package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Sentinel errors mapped to HTTP statuses by the handlers.
var (
	ErrNotFound         = errors.New("record not found")
	ErrGroupNumberTaken = errors.New("group number already used in this tournament")
	ErrGolferIDTaken    = errors.New("golfer_id already in use")
)

// Store runs queries for tournaments, groups, golfers and shots.
type Store struct {
	db *gorm.DB
}

// New returns a Store over db. db should be opened with TranslateError so unique
// violations surface as gorm.ErrDuplicatedKey.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Ping checks the database connection, for the health endpoint.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Page selects a 1-based page of a list.
type Page struct {
	Number int
	Size   int
}

// Offset is the number of rows before this page.
func (p Page) Offset() int {
	if p.Number < 1 {
		return 0
	}
	return (p.Number - 1) * p.Size
}

// list counts the rows matched by base, then loads the requested page into dest with the
// named associations preloaded. base must be a reusable session (see gorm.Session) so Count
// and Find don't share state.
func list(base *gorm.DB, page Page, order string, dest interface{}, preloads ...string) (int64, error) {
	var total int64
	if err := base.Count(&total).Error; err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	q := base.Order(order)
	for _, p := range preloads {
		q = q.Preload(p)
	}
	if page.Size > 0 {
		q = q.Offset(page.Offset()).Limit(page.Size)
	}
	if err := q.Find(dest).Error; err != nil {
		return 0, fmt.Errorf("find: %w", err)
	}
	return total, nil
}

// first loads one row by primary key, translating gorm's not-found error.
func first(db *gorm.DB, dest interface{}, id uint) error {
	err := db.First(dest, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// Exists reports whether entity (one of the Entity* names) has a row with the given id.
// Handlers use it to validate foreign keys in request bodies.
func (s *Store) Exists(ctx context.Context, entity string, id uint) (bool, error) {
	model, _ := removerFor(entity)
	return exists(s.db.WithContext(ctx), model, id)
}

// exists reports whether model has a row with the given id.
func exists(db *gorm.DB, model interface{}, id uint) (bool, error) {
	var n int64
	if err := db.Model(model).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// create inserts value without cascading into preloaded associations.
func create(db *gorm.DB, value interface{}) error {
	return db.Omit(clause.Associations).Create(value).Error
}

// save writes every column of an already-loaded row without touching preloaded associations.
func save(db *gorm.DB, value interface{}) error {
	return db.Omit(clause.Associations).Save(value).Error
}

// countRow is one row of a "parent id, count" aggregate.
type countRow struct {
	ID    uint
	Total int64
}

func toCountMap(rows []countRow) map[uint]int64 {
	m := make(map[uint]int64, len(rows))
	for _, r := range rows {
		m[r.ID] = r.Total
	}
	return m
}

// existingIDs narrows ids to those present in model's table.
func existingIDs(tx *gorm.DB, model interface{}, ids []uint) ([]uint, error) {
	var found []uint
	if len(ids) == 0 {
		return found, nil
	}
	if err := tx.Model(model).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return nil, err
	}
	return found, nil
}
