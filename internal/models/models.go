// Package models defines the data structures (models) that map to database tables.
// GORM uses these structs to generate SQL queries and map database rows back to Go values.
// The struct field tags (the backtick strings like `gorm:"..."`) tell GORM how to handle
// each field: its column type, constraints, default values, and relationships.
//
// The data model represents a launch-monitor station at a golf tournament where:
//   - Tournaments contain Groups (tee-time pairings, usually foursomes)
//   - Groups contain Golfers
//   - Golfers hit Shots that a launch monitor records
//
// Every parent link is optional. A Group can exist without a Tournament, a Golfer without a
// Group and a Shot without a Golfer, which is how "unassigned" records come about: when a
// parent is deleted without its children, the children are detached (foreign key set to NULL)
// instead of being removed.
package models

import (
	"time"
)

// --- Enums ---
// Go doesn't have a built-in enum keyword, so we simulate them using a named string type
// plus constants. The list helpers (SkillLevels, ShotTypes, Clubs) keep the allowed set in
// one place for anything that needs to enumerate it.

// SkillLevel is a golfer's self-reported ability bracket.
type SkillLevel string

const (
	SkillLevelBeginner     SkillLevel = "beginner"
	SkillLevelIntermediate SkillLevel = "intermediate" // Default for new golfers
	SkillLevelAdvanced     SkillLevel = "advanced"
	SkillLevelProfessional SkillLevel = "professional"
)

// SkillLevels lists every valid SkillLevel in display order.
func SkillLevels() []SkillLevel {
	return []SkillLevel{SkillLevelBeginner, SkillLevelIntermediate, SkillLevelAdvanced, SkillLevelProfessional}
}

// Gender is stored as a single letter to match what the launch-monitor operators enter.
type Gender string

const (
	GenderMale   Gender = "M"
	GenderFemale Gender = "F"
	GenderOther  Gender = "O"
)

// ShotType describes what the golfer was trying to do with the shot.
type ShotType string

const (
	ShotTypeDrive    ShotType = "drive" // Default: the launch monitor usually sits on a tee box
	ShotTypeApproach ShotType = "approach"
	ShotTypeChip     ShotType = "chip"
	ShotTypePutt     ShotType = "putt"
	ShotTypeBunker   ShotType = "bunker"
	ShotTypeOther    ShotType = "other"
)

// ShotTypes lists every valid ShotType.
func ShotTypes() []ShotType {
	return []ShotType{ShotTypeDrive, ShotTypeApproach, ShotTypeChip, ShotTypePutt, ShotTypeBunker, ShotTypeOther}
}

// Club is the club a shot was hit with.
type Club string

const (
	ClubDriver        Club = "driver"
	Club3Wood         Club = "3_wood"
	Club5Wood         Club = "5_wood"
	ClubHybrid        Club = "hybrid"
	Club3Iron         Club = "3_iron"
	Club4Iron         Club = "4_iron"
	Club5Iron         Club = "5_iron"
	Club6Iron         Club = "6_iron"
	Club7Iron         Club = "7_iron"
	Club8Iron         Club = "8_iron"
	Club9Iron         Club = "9_iron"
	ClubPitchingWedge Club = "pitching_wedge"
	ClubGapWedge      Club = "gap_wedge"
	ClubSandWedge     Club = "sand_wedge"
	ClubLobWedge      Club = "lob_wedge"
	ClubPutter        Club = "putter"
)

// Clubs lists every valid Club, driver down to putter.
func Clubs() []Club {
	return []Club{
		ClubDriver, Club3Wood, Club5Wood, ClubHybrid,
		Club3Iron, Club4Iron, Club5Iron, Club6Iron, Club7Iron, Club8Iron, Club9Iron,
		ClubPitchingWedge, ClubGapWedge, ClubSandWedge, ClubLobWedge, ClubPutter,
	}
}

// Capacity limits for a group. A standard tee time holds four golfers; eight covers
// shotgun-start pairings that double up on a hole.
const (
	DefaultMaxGolfers = 4
	MinGroupSize      = 1
	MaxGroupSize      = 8
)

// --- Models ---
// Each struct below maps to a database table. IDs are auto-incrementing integers because the
// front end and the bulk endpoints exchange plain numeric ids.
//
// Column defaults (is_active, skill_level, shot_type, max_golfers) are set in Go before insert,
// not with gorm `default:` tags: GORM skips zero values for columns that have a default, which
// would turn an explicit is_active=false into true.

// Tournament is a single golf event. The launch monitor is set up for the duration of the
// tournament, and every group playing through gets its shots recorded.
type Tournament struct {
	ID          uint      `gorm:"primaryKey"`
	Name        string    `gorm:"size:200;not null"`
	Description *string   `gorm:"type:text"` // Optional long-form description; pointer = nullable
	StartDate   time.Time `gorm:"type:date;not null"`
	EndDate     time.Time `gorm:"type:date;not null"` // Must be on or after StartDate
	Location    *string   `gorm:"size:200"`
	IsActive    bool      `gorm:"not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Groups      []Group `gorm:"foreignKey:TournamentID"` // Only loaded by the retrieve_with_groups view
}

// Group is a tee-time pairing. GroupNumber is unique within a tournament; the composite index
// (idx_group_tournament_number) is what rejects two groups racing for the same number.
type Group struct {
	ID           uint        `gorm:"primaryKey"`
	TournamentID *uint       `gorm:"uniqueIndex:idx_group_tournament_number"` // nil = standalone group
	Tournament   *Tournament `gorm:"foreignKey:TournamentID;constraint:OnDelete:SET NULL"`
	GroupNumber  int         `gorm:"not null;uniqueIndex:idx_group_tournament_number"`
	Nickname     *string     `gorm:"size:100"` // e.g. "Smith Foursome"
	MaxGolfers   int         `gorm:"not null"` // 1–8
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Golfers      []Golfer `gorm:"foreignKey:GroupID"`
}

// TableName keeps the table clear of the GROUP / GROUPS SQL keywords.
func (Group) TableName() string {
	return "tournament_groups"
}

// Golfer is a tournament participant. GolferID is the human-facing badge code printed on
// scorecards; ID is the internal primary key.
type Golfer struct {
	ID           uint       `gorm:"primaryKey"`
	GolferID     string     `gorm:"column:golfer_id;size:20;not null;uniqueIndex"`
	FirstName    string     `gorm:"size:100;not null"`
	LastName     string     `gorm:"size:100;not null"`
	Email        *string    `gorm:"size:254"`
	Phone        *string    `gorm:"size:20"`
	DateOfBirth  *time.Time `gorm:"type:date"`
	Gender       *Gender    `gorm:"size:1"`
	Handicap     *float64   // World Handicap System index, -10 (plus handicap) to 54
	SkillLevel   SkillLevel `gorm:"size:20;not null"`
	PreferredTee *string    `gorm:"size:20"`
	GroupID      *uint      `gorm:"index"`
	Group        *Group     `gorm:"foreignKey:GroupID;constraint:OnDelete:SET NULL"`
	IsActive     bool       `gorm:"not null"`
	Notes        *string    `gorm:"type:text"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Shots        []Shot `gorm:"foreignKey:GolferID"`
}

// Shot is one ball struck in front of the launch monitor. Every metric is optional because
// different monitors (and simulated shots) report different subsets.
type Shot struct {
	ID              uint      `gorm:"primaryKey"`
	GolferID        *uint     `gorm:"column:golfer_id;index"`
	Golfer          *Golfer   `gorm:"constraint:OnDelete:SET NULL"` // Joined on GolferID (golfers.id), not the Golfer.GolferID badge code
	ShotNumber      int       `gorm:"not null"`
	HoleNumber      *int      // 1–18
	ShotType        ShotType  `gorm:"size:20;not null"`
	ClubUsed        *Club     `gorm:"size:20"`
	BallSpeed       *float64  // mph
	ClubHeadSpeed   *float64  // mph
	LaunchAngle     *float64  // degrees
	SpinRate        *float64  // rpm (backspin)
	CarryDistance   *float64  // yards
	TotalDistance   *float64  // yards
	SideAngle       *float64  // degrees, negative = left of target
	IsSimulated     bool      `gorm:"not null"`
	LaunchMonitorID *string   `gorm:"size:50"`
	Notes           *string   `gorm:"type:text"`
	Timestamp       time.Time `gorm:"not null;index"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// All returns every model in dependency order, for AutoMigrate in tests and local tooling.
func All() []interface{} {
	return []interface{}{&Tournament{}, &Group{}, &Golfer{}, &Shot{}}
}
