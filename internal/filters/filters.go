// Package filters turns list-endpoint query parameters into GORM scopes.
//
// Each entity has a fixed set of recognised parameters. Recognised parameters are ANDed
// together, unrecognised ones are ignored, and a recognised parameter with a malformed
// value (e.g. ?hole_number=abc) is reported as a validation.FieldErrors keyed by that
// parameter. Parsing is separate from applying so handlers can reject bad input before any
// query runs, and so the statistics endpoint can reuse the shot filters unchanged.
package filters

import (
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/trentd187/golf-metrics/internal/validation"
)

// Query is the raw query string, as returned by fiber's c.Queries().
type Query map[string]string

// first returns the first non-empty value among keys; later keys are aliases.
func (q Query) first(keys ...string) (key, value string) {
	for _, k := range keys {
		if v := strings.TrimSpace(q[k]); v != "" {
			return k, v
		}
	}
	return keys[0], ""
}

// parser accumulates malformed-value errors while reading a Query.
type parser struct {
	q    Query
	errs validation.FieldErrors
}

func newParser(q Query) *parser {
	return &parser{q: q, errs: validation.FieldErrors{}}
}

func (p *parser) id(keys ...string) *uint {
	key, raw := p.q.first(keys...)
	if raw == "" {
		return nil
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || n == 0 {
		p.errs.Add(key, "must be a positive integer")
		return nil
	}
	v := uint(n)
	return &v
}

func (p *parser) integer(key string) *int {
	_, raw := p.q.first(key)
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		p.errs.Add(key, "must be an integer")
		return nil
	}
	return &n
}

func (p *parser) boolean(key string) *bool {
	_, raw := p.q.first(key)
	if raw == "" {
		return nil
	}
	switch strings.ToLower(raw) {
	case "true", "1", "yes":
		v := true
		return &v
	case "false", "0", "no":
		v := false
		return &v
	}
	p.errs.Add(key, "must be true or false")
	return nil
}

func (p *parser) text(key string) string {
	_, raw := p.q.first(key)
	return raw
}

// containsFold builds a case-insensitive substring match of term against any of cols.
// LIKE wildcards in term are escaped so "%" and "_" match literally.
func containsFold(db *gorm.DB, term string, cols ...string) *gorm.DB {
	pattern := likePattern(term)

	clauses := make([]string, 0, len(cols))
	args := make([]interface{}, 0, len(cols))
	for _, col := range cols {
		clauses = append(clauses, "LOWER("+col+`) LIKE ? ESCAPE '\'`)
		args = append(args, pattern)
	}
	return db.Where("("+strings.Join(clauses, " OR ")+")", args...)
}

// likePattern lower-cases term, escapes its LIKE wildcards and wraps it in "%".
func likePattern(term string) string {
	return "%" + strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(strings.ToLower(term)) + "%"
}

// Subqueries that walk the optional parent chain shot -> golfer -> group -> tournament.
const (
	groupsInTournament  = "SELECT id FROM tournament_groups WHERE tournament_id = ?"
	golfersInGroup      = "SELECT id FROM golfers WHERE group_id = ?"
	golfersInTournament = "SELECT id FROM golfers WHERE group_id IN (" + groupsInTournament + ")"
	golferCountForGroup = "(SELECT COUNT(*) FROM golfers WHERE golfers.group_id = tournament_groups.id)"
)

// Tournament filters /tournaments/.
type Tournament struct {
	IsActive *bool
	Search   string
}

// ParseTournament reads is_active and search.
func ParseTournament(q Query) (Tournament, error) {
	p := newParser(q)
	f := Tournament{
		IsActive: p.boolean("is_active"),
		Search:   p.text("search"),
	}
	return f, p.errs.Err()
}

// Scope applies the filter to a query over tournaments.
func (f Tournament) Scope(db *gorm.DB) *gorm.DB {
	if f.IsActive != nil {
		db = db.Where("tournaments.is_active = ?", *f.IsActive)
	}
	if f.Search != "" {
		db = containsFold(db, f.Search,
			"tournaments.name", "COALESCE(tournaments.description, '')", "COALESCE(tournaments.location, '')")
	}
	return db
}

// Group filters /groups/.
type Group struct {
	TournamentID *uint
	Unassigned   bool
	IsFull       *bool
	Search       string
}

// ParseGroup reads tournament_id (alias tournament), unassigned, is_full and search.
func ParseGroup(q Query) (Group, error) {
	p := newParser(q)
	f := Group{
		TournamentID: p.id("tournament_id", "tournament"),
		IsFull:       p.boolean("is_full"),
		Search:       p.text("search"),
	}
	if u := p.boolean("unassigned"); u != nil {
		f.Unassigned = *u
	}
	return f, p.errs.Err()
}

// Scope applies the filter to a query over tournament_groups.
func (f Group) Scope(db *gorm.DB) *gorm.DB {
	if f.TournamentID != nil {
		db = db.Where("tournament_groups.tournament_id = ?", *f.TournamentID)
	}
	if f.Unassigned {
		db = db.Where("tournament_groups.tournament_id IS NULL")
	}
	if f.IsFull != nil {
		if *f.IsFull {
			db = db.Where(golferCountForGroup + " >= tournament_groups.max_golfers")
		} else {
			db = db.Where(golferCountForGroup + " < tournament_groups.max_golfers")
		}
	}
	if f.Search != "" {
		db = containsFold(db, f.Search, "COALESCE(tournament_groups.nickname, '')")
	}
	return db
}

// Golfer filters /golfers/.
type Golfer struct {
	GroupID      *uint
	TournamentID *uint
	Unassigned   bool
	IsActive     *bool
	SkillLevel   string
	Search       string
}

// ParseGolfer reads group_id, tournament_id (and their short aliases), unassigned,
// is_active, skill_level and search.
func ParseGolfer(q Query) (Golfer, error) {
	p := newParser(q)
	f := Golfer{
		GroupID:      p.id("group_id", "group"),
		TournamentID: p.id("tournament_id", "tournament"),
		IsActive:     p.boolean("is_active"),
		SkillLevel:   p.text("skill_level"),
		Search:       p.text("search"),
	}
	if u := p.boolean("unassigned"); u != nil {
		f.Unassigned = *u
	}
	return f, p.errs.Err()
}

// Scope applies the filter to a query over golfers.
func (f Golfer) Scope(db *gorm.DB) *gorm.DB {
	if f.GroupID != nil {
		db = db.Where("golfers.group_id = ?", *f.GroupID)
	}
	if f.TournamentID != nil {
		db = db.Where("golfers.group_id IN ("+groupsInTournament+")", *f.TournamentID)
	}
	if f.Unassigned {
		db = db.Where("golfers.group_id IS NULL")
	}
	if f.IsActive != nil {
		db = db.Where("golfers.is_active = ?", *f.IsActive)
	}
	if f.SkillLevel != "" {
		db = db.Where("golfers.skill_level = ?", f.SkillLevel)
	}
	if f.Search != "" {
		db = containsFold(db, f.Search,
			"golfers.first_name", "golfers.last_name", "golfers.golfer_id", "COALESCE(golfers.email, '')")
	}
	return db
}

// Shot filters /shots/ and /shots/statistics/.
type Shot struct {
	GolferID     *uint
	GroupID      *uint
	TournamentID *uint
	Unassigned   bool
	ShotType     string
	ClubUsed     string
	HoleNumber   *int
	IsSimulated  *bool
	Search       string
}

// ParseShot reads golfer_id, group_id, tournament_id (and their short aliases),
// unassigned, shot_type, club_used, hole_number, is_simulated and search.
func ParseShot(q Query) (Shot, error) {
	p := newParser(q)
	f := Shot{
		GolferID:     p.id("golfer_id", "golfer"),
		GroupID:      p.id("group_id", "group"),
		TournamentID: p.id("tournament_id", "tournament"),
		ShotType:     p.text("shot_type"),
		ClubUsed:     p.text("club_used"),
		HoleNumber:   p.integer("hole_number"),
		IsSimulated:  p.boolean("is_simulated"),
		Search:       p.text("search"),
	}
	if u := p.boolean("unassigned"); u != nil {
		f.Unassigned = *u
	}
	return f, p.errs.Err()
}

// Scope applies the filter to a query over shots.
func (f Shot) Scope(db *gorm.DB) *gorm.DB {
	if f.GolferID != nil {
		db = db.Where("shots.golfer_id = ?", *f.GolferID)
	}
	if f.GroupID != nil {
		db = db.Where("shots.golfer_id IN ("+golfersInGroup+")", *f.GroupID)
	}
	if f.TournamentID != nil {
		db = db.Where("shots.golfer_id IN ("+golfersInTournament+")", *f.TournamentID)
	}
	if f.Unassigned {
		db = db.Where("shots.golfer_id IS NULL")
	}
	if f.ShotType != "" {
		db = db.Where("shots.shot_type = ?", f.ShotType)
	}
	if f.ClubUsed != "" {
		db = db.Where("shots.club_used = ?", f.ClubUsed)
	}
	if f.HoleNumber != nil {
		db = db.Where("shots.hole_number = ?", *f.HoleNumber)
	}
	if f.IsSimulated != nil {
		db = db.Where("shots.is_simulated = ?", *f.IsSimulated)
	}
	if f.Search != "" {
		// The golfer's name or badge code, or the launch monitor that recorded the shot
		golfers := containsFold(db.Session(&gorm.Session{NewDB: true}).Table("golfers").Select("golfers.id"),
			f.Search, "golfers.first_name", "golfers.last_name", "golfers.golfer_id")
		db = db.Where(`(shots.golfer_id IN (?) OR LOWER(COALESCE(shots.launch_monitor_id, '')) LIKE ? ESCAPE '\')`,
			golfers, likePattern(f.Search))
	}
	return db
}
