package model

import (
	"database/sql"
	"time"

	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&ServerInfo{},
	&BattleReview{},
	&Arena{},
	&Session{},
	&Modifier{},
	&Tank{},
	&TankState{},
	&Infantry{},
	&InfantryState{},
	&FireEvent{},
	&ProjectilePath{},
	&GeneralEvent{},
	&HitEvent{},
	&KillEvent{},
	&Mine{},
	&MineEvent{},
	&Crate{},
	&PickupEvent{},
	&ProgressEvent{},
	&TickStats{},
	&EnginePerformance{},
}

var DatabaseModelsSQLite = []interface{}{
	&ServerInfo{},
	&BattleReview{},
	&Arena{},
	&Session{},
	&Modifier{},
	&Tank{},
	&TankState{},
	&Infantry{},
	&InfantryState{},
	&FireEvent{},
	&ProjectilePath{},
	&GeneralEvent{},
	&HitEvent{},
	&KillEvent{},
	&Mine{},
	&MineEvent{},
	&Crate{},
	&PickupEvent{},
	&ProgressEvent{},
	&TickStats{},
	&EnginePerformance{},
}

////////////////////////
// SYSTEM MODELS
////////////////////////

// ServerInfo contains group information about the instance
type ServerInfo struct {
	gorm.Model
	GroupName        string `json:"groupName" gorm:"size:127"` // primary key
	GroupDescription string `json:"groupDescription" gorm:"size:255"`
	GroupWebsite     string `json:"groupURL" gorm:"size:255"`
	GroupLogo        string `json:"groupLogoURL" gorm:"size:255"`
}

func (*ServerInfo) TableName() string {
	return "server_infos"
}

// EnginePerformance is the model for engine performance metrics
type EnginePerformance struct {
	Time                time.Time         `json:"time" gorm:"type:timestamptz;index:idx_time"`
	SessionID           uint              `json:"sessionId" gorm:"index:idx_engineperformance_session_id"`
	Session             Session           `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:SessionID;"`
	BufferLengths       BufferLengths     `json:"bufferLengths" gorm:"embedded;embeddedPrefix:buffer_"`
	WriteQueueLengths   WriteQueueLengths `json:"writeQueueLengths" gorm:"embedded;embeddedPrefix:writequeue_"`
	LastWriteDurationMs float32           `json:"lastWriteDurationMs"`
}

func (*EnginePerformance) TableName() string {
	return "engine_performances"
}

// BufferLengths is the model for the dispatcher buffer lengths
type BufferLengths struct {
	Tanks           uint16 `json:"tanks"`
	Infantry        uint16 `json:"infantry"`
	TankStates      uint16 `json:"tankStates"`
	InfantryStates  uint16 `json:"infantryStates"`
	FireEvents      uint16 `json:"fireEvents"`
	ProjectilePaths uint16 `json:"projectilePaths"`
	GeneralEvents   uint16 `json:"generalEvents"`
	HitEvents       uint16 `json:"hitEvents"`
	KillEvents      uint16 `json:"killEvents"`
	MineEvents      uint16 `json:"mineEvents"`
	PickupEvents    uint16 `json:"pickupEvents"`
	ProgressEvents  uint16 `json:"progressEvents"`
	TickStats       uint16 `json:"tickStats"`
}

// WriteQueueLengths is the model for the write queue lengths
type WriteQueueLengths struct {
	Tanks           uint16 `json:"tanks"`
	Infantry        uint16 `json:"infantry"`
	TankStates      uint16 `json:"tankStates"`
	InfantryStates  uint16 `json:"infantryStates"`
	FireEvents      uint16 `json:"fireEvents"`
	ProjectilePaths uint16 `json:"projectilePaths"`
	GeneralEvents   uint16 `json:"generalEvents"`
	HitEvents       uint16 `json:"hitEvents"`
	KillEvents      uint16 `json:"killEvents"`
	MineEvents      uint16 `json:"mineEvents"`
	PickupEvents    uint16 `json:"pickupEvents"`
	ProgressEvents  uint16 `json:"progressEvents"`
	TickStats       uint16 `json:"tickStats"`
}

////////////////////////
// REVIEW MODELS
////////////////////////

// BattleReview is the main model for a review filed by players after a battle
type BattleReview struct {
	gorm.Model
	SessionID    uint    `json:"sessionId"`
	Session      Session `gorm:"foreignkey:SessionID"`
	Author       string  `json:"author" gorm:"size:64"`
	Rating       float32 `json:"rating"`
	CommentGood  string  `json:"commentGood" gorm:"size:2000"`
	CommentBad   string  `json:"commentBad" gorm:"size:2000"`
	CommentOther string  `json:"commentOther" gorm:"size:2000"`
}

func (*BattleReview) TableName() string {
	return "battle_reviews"
}

////////////////////////
// RECORDING MODELS
////////////////////////

// Arena is the main model for a battle map
type Arena struct {
	gorm.Model
	Name        string     `json:"name" gorm:"size:127"`
	DisplayName string     `json:"displayName" gorm:"size:127"`
	Author      string     `json:"author" gorm:"size:64"`
	Width       float32    `json:"width"`
	Height      float32    `json:"height"`
	Center      geom.Point `json:"center"`
	Sessions    []Session
}

func (*Arena) TableName() string {
	return "arenas"
}

func (a *Arena) GetOrInsert(db *gorm.DB) (
	created bool,
	err error,
) {
	var existingArena Arena
	err = db.Where("name = ?", a.Name).First(&existingArena).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			// insert
			err = db.Create(a).Error
			return true, err
		}
		return false, err
	}
	// overwrite with db record if found
	*a = existingArena
	return false, nil
}

// Session is the main model for a recorded battle
type Session struct {
	gorm.Model
	ScenarioName  string    `json:"scenarioName" gorm:"size:200"`
	DisplayName   string    `json:"displayName" gorm:"size:200"`
	Tag           string    `json:"tag" gorm:"size:127"`
	StartTime     time.Time `json:"sessionStart" gorm:"type:timestamptz;index:idx_session_start"`
	ArenaID       uint
	Arena         Arena   `gorm:"foreignkey:ArenaID"`
	TickRate      float32 `json:"tickRate" gorm:"default:60"` // simulation steps per second
	Seed          uint64  `json:"seed"`
	EngineVersion string  `json:"engineVersion" gorm:"size:64;default:1.0.0"`

	Modifiers []Modifier   `json:"-" gorm:"many2many:session_modifiers;"`
	Forces    ForceSummary `json:"forces" gorm:"embedded;embeddedPrefix:force_"`

	GeneralEvents   []GeneralEvent
	HitEvents       []HitEvent
	KillEvents      []KillEvent
	FireEvents      []FireEvent
	ProjectilePaths []ProjectilePath
	MineEvents      []MineEvent
	PickupEvents    []PickupEvent
	ProgressEvents  []ProgressEvent
	TickStats       []TickStats
}

func (*Session) TableName() string {
	return "sessions"
}

// ForceSummary counts the units a session started with, by type
type ForceSummary struct {
	Tanks    uint8 `json:"tanks"`
	Riflemen uint8 `json:"riflemen"`
	RPGs     uint8 `json:"rpgs"`
	Snipers  uint8 `json:"snipers"`
	Medics   uint8 `json:"medics"`
}

// Modifier is a battle rule modifier active for a session
type Modifier struct {
	gorm.Model
	Sessions    []Session `gorm:"many2many:session_modifiers;"`
	Name        string    `json:"name" gorm:"size:127"`
	Description string    `json:"description" gorm:"size:255"`
}

func (*Modifier) TableName() string {
	return "modifiers"
}

// Tank is a player or enemy tank
// Uses composite primary key (SessionID, ObjectID) - ObjectID is the recorder-assigned sequential unit ID
type Tank struct {
	SessionID uint           `json:"sessionId" gorm:"primaryKey;autoIncrement:false"`
	ObjectID  uint16         `json:"unitId" gorm:"primaryKey;autoIncrement:false"` // recorder-assigned sequential ID
	Session   Session        `gorm:"foreignkey:SessionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `json:"deletedAt" gorm:"index"`
	JoinTime  time.Time      `json:"joinTime" gorm:"type:timestamptz;NOT NULL;index:idx_tank_join_time"` // Server time when tank was registered
	JoinFrame uint           `json:"joinFrame"`                                                          // Frame number when tank entered the arena
	Name      string         `json:"name" gorm:"size:64"`
	ClassName string         `json:"className" gorm:"size:64"` // Chassis class name
	IsPlayer  bool           `json:"isPlayer" gorm:"default:false"`
	MaxHealth float32        `json:"maxHealth"`
	Armor     float32        `json:"armor"`
}

func (*Tank) TableName() string {
	return "tanks"
}

func (t *Tank) Get(db *gorm.DB) (err error) {
	err = db.Where(&t).Order(
		"join_time DESC",
	).First(&t).Error
	return err
}

// TankState tracks tank state at a point in time
// References Tank by (SessionID, TankObjectID) composite FK
type TankState struct {
	ID           uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	Time         time.Time `json:"time" gorm:"type:timestamptz;"` // Server time when state was recorded
	SessionID    uint      `json:"sessionId" gorm:"index:idx_tankstate_session_id"`
	Session      Session   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:SessionID;"`
	CaptureFrame uint      `json:"captureFrame" gorm:"index:idx_tankstate_capture_frame"` // Frame number in recording timeline
	TankObjectID uint16    `json:"tankUnitId" gorm:"index:idx_tankstate_tank_unit_id"`    // Unit ID of the tank
	Tank         Tank      `gorm:"foreignkey:SessionID,TankObjectID;references:SessionID,ObjectID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`

	Position    geom.Point `json:"position"`                  // Position in arena coordinates as 2D point
	Velocity    string     `json:"velocity" gorm:"size:64"`   // Velocity vector "vx,vy" as string
	BodyAngle   float32    `json:"bodyAngle"`                 // Hull heading in radians
	TurretAngle float32    `json:"turretAngle"`               // Turret heading in radians
	Health      float32    `json:"health"`
	Alive       bool       `json:"alive"`
	Boosts      string     `json:"boosts" gorm:"size:128"` // Comma-separated active power-up types
}

func (*TankState) TableName() string {
	return "tank_states"
}

// Infantry is an enemy foot soldier
// Uses composite primary key (SessionID, ObjectID) - ObjectID is the recorder-assigned sequential unit ID
type Infantry struct {
	SessionID uint           `json:"sessionId" gorm:"primaryKey;autoIncrement:false"`
	ObjectID  uint16         `json:"unitId" gorm:"primaryKey;autoIncrement:false"` // recorder-assigned sequential ID
	Session   Session        `gorm:"foreignkey:SessionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `json:"deletedAt" gorm:"index"`
	JoinTime  time.Time      `json:"joinTime" gorm:"type:timestamptz;NOT NULL;index:idx_infantry_join_time"` // Server time when unit was registered
	JoinFrame uint           `json:"joinFrame"`                                                              // Frame number when unit entered the arena
	Name      string         `json:"name" gorm:"size:64"`
	Class     string         `json:"class" gorm:"size:16"` // rifleman, rpg, sniper, medic
	Weapon    string         `json:"weapon" gorm:"size:64"`
	Squad     string         `json:"squad" gorm:"size:64"`
	MaxHealth float32        `json:"maxHealth"`
}

func (*Infantry) TableName() string {
	return "infantry_units"
}

// InfantryState tracks infantry state at a point in time
// References Infantry by (SessionID, InfantryObjectID) composite FK
type InfantryState struct {
	ID               uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	Time             time.Time `json:"time" gorm:"type:timestamptz;"` // Server time when state was recorded
	SessionID        uint      `json:"sessionId" gorm:"index:idx_infantrystate_session_id"`
	Session          Session   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:SessionID;"`
	CaptureFrame     uint      `json:"captureFrame" gorm:"index:idx_infantrystate_capture_frame"`         // Frame number in recording timeline
	InfantryObjectID uint16    `json:"infantryUnitId" gorm:"index:idx_infantrystate_infantry_unit_id"`    // Unit ID of the soldier
	Infantry         Infantry  `gorm:"foreignkey:SessionID,InfantryObjectID;references:SessionID,ObjectID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`

	Position geom.Point `json:"position"`                   // Position in arena coordinates as 2D point
	Bearing  float32    `json:"bearing"`                    // Facing in radians
	Health   float32    `json:"health"`
	Behavior string     `json:"behavior" gorm:"size:16"` // patrol, engage, retreat, dead
	Alive    bool       `json:"alive"`
}

func (*InfantryState) TableName() string {
	return "infantry_states"
}

// FireEvent represents a weapon being fired
// ShooterObjectID is a unit ID from the shared tank/infantry ID space
type FireEvent struct {
	ID              uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	Time            time.Time `json:"time" gorm:"type:timestamptz;"` // Server time when fired
	SessionID       uint      `json:"sessionId" gorm:"index:idx_fireevent_session_id"`
	Session         Session   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:SessionID;"`
	ShooterObjectID uint16    `json:"shooterUnitId" gorm:"index:idx_fireevent_shooter_unit_id"` // Unit ID of the firer
	CaptureFrame    uint      `json:"captureFrame" gorm:"index:idx_fireevent_capture_frame;"`   // Frame number when fired
	Weapon          string    `json:"weapon" gorm:"size:64"`                                    // mg, cannon, rocket

	Origin geom.Point `json:"origin"` // Muzzle position in arena coordinates
	Angle  float32    `json:"angle"`  // Firing angle in radians
	Damage float32    `json:"damage"` // Base damage carried by the round
}

func (*FireEvent) TableName() string {
	return "fire_events"
}

// ProjectilePath represents a projectile's full flight, stored when it ends
type ProjectilePath struct {
	ID              uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	Time            time.Time `json:"firedTime" gorm:"type:timestamptz;"` // Server time when fired
	SessionID       uint      `json:"sessionId" gorm:"index:idx_projectilepath_session_id"`
	Session         Session   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:SessionID;"`
	ShooterObjectID uint16    `json:"shooterUnitId" gorm:"index:idx_projectilepath_shooter_unit_id"` // Unit ID of the firer
	CaptureFrame    uint      `json:"firedFrame" gorm:"index:idx_projectilepath_capture_frame;"`     // Frame number when fired
	EndFrame        uint      `json:"endFrame"`                                                      // Frame number when the projectile ended
	Weapon          string    `json:"weapon" gorm:"size:64"`                                         // mg, cannon, rocket

	Positions geom.Geometry `json:"-"` // LineStringM of projectile positions over time [x,y,frame]

	EndPosition geom.Point    `json:"endPosition"` // Where the projectile stopped
	HitObjectID sql.NullInt32 `json:"hitUnitId" gorm:"index:idx_projectilepath_hit_unit_id;default:NULL"` // Unit ID struck directly (null on miss)
	Exploded    bool          `json:"exploded"` // Whether the round detonated in an area blast
}

func (p *ProjectilePath) TableName() string {
	return "projectile_paths"
}

// GeneralEvent is a generic event for battle start/end, scenario triggers, custom events
type GeneralEvent struct {
	ID           uint           `json:"id" gorm:"primarykey;autoIncrement;"`
	Time         time.Time      `json:"time" gorm:"type:timestamptz;"` // Server time when event occurred
	SessionID    uint           `json:"sessionId" gorm:"index:idx_generalevent_session_id"`
	Session      Session        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:SessionID;"`
	CaptureFrame uint           `json:"captureFrame" gorm:"index:idx_generalevent_capture_frame;"` // Frame number when event occurred
	Name         string         `json:"name" gorm:"size:64"`                                       // Event type: battleStart, battleEnd, objective, custom
	Message      string         `json:"message"`                                                   // Event message
	ExtraData    datatypes.JSON `json:"extraData" gorm:"type:jsonb;default:'{}'"`                  // Additional JSON data
}

func (g *GeneralEvent) TableName() string {
	return "general_events"
}

// HitEvent represents a unit being hit by a projectile or explosion
// Stores ObjectIDs directly - victim/attacker could be tank or infantry
type HitEvent struct {
	ID           uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	Time         time.Time `json:"time" gorm:"type:timestamptz;"` // Server time when hit occurred
	SessionID    uint      `json:"sessionId" gorm:"index:idx_hitevent_session_id"`
	Session      Session   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:SessionID;"`
	CaptureFrame uint      `json:"captureFrame" gorm:"index:idx_hitevent_capture_frame;"` // Frame number when hit occurred

	// Victim unit ID - one of these will be set based on entity type
	VictimTankObjectID     sql.NullInt32 `json:"victimTankUnitId" gorm:"index:idx_hitevent_victim_tank_unit;default:NULL"`         // Unit ID if victim is a tank
	VictimInfantryObjectID sql.NullInt32 `json:"victimInfantryUnitId" gorm:"index:idx_hitevent_victim_infantry_unit;default:NULL"` // Unit ID if victim is infantry
	// Attacker unit ID - one of these will be set based on entity type
	AttackerTankObjectID     sql.NullInt32 `json:"attackerTankUnitId" gorm:"index:idx_hitevent_attacker_tank_unit;default:NULL"`         // Unit ID if attacker is a tank
	AttackerInfantryObjectID sql.NullInt32 `json:"attackerInfantryUnitId" gorm:"index:idx_hitevent_attacker_infantry_unit;default:NULL"` // Unit ID if attacker is infantry

	Weapon   string  `json:"weapon" gorm:"size:80"` // Weapon/cause description
	Damage   float32 `json:"damage"`                // Damage applied after armor
	Distance float32 `json:"distance"`              // Distance between attacker and victim in arena units
}

func (h *HitEvent) TableName() string {
	return "hit_events"
}

// KillEvent represents a unit being killed/destroyed
// Stores ObjectIDs directly - victim/killer could be tank or infantry
type KillEvent struct {
	ID   uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	Time time.Time `json:"time" gorm:"type:timestamptz;"` // Server time when kill occurred

	SessionID    uint    `json:"sessionId" gorm:"index:idx_killevent_session_id"`
	Session      Session `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:SessionID;"`
	CaptureFrame uint    `json:"captureFrame" gorm:"index:idx_killevent_capture_frame;"` // Frame number when kill occurred

	// Victim unit ID - one of these will be set based on entity type
	VictimTankObjectID     sql.NullInt32 `json:"victimTankUnitId" gorm:"index:idx_killevent_victim_tank_unit;default:NULL"`         // Unit ID if victim is a tank
	VictimInfantryObjectID sql.NullInt32 `json:"victimInfantryUnitId" gorm:"index:idx_killevent_victim_infantry_unit;default:NULL"` // Unit ID if victim is infantry
	// Killer unit ID - one of these will be set based on entity type
	KillerTankObjectID     sql.NullInt32 `json:"killerTankUnitId" gorm:"index:idx_killevent_killer_tank_unit;default:NULL"`         // Unit ID if killer is a tank
	KillerInfantryObjectID sql.NullInt32 `json:"killerInfantryUnitId" gorm:"index:idx_killevent_killer_infantry_unit;default:NULL"` // Unit ID if killer is infantry

	Weapon   string  `json:"weapon" gorm:"size:80"` // Weapon/cause description
	Distance float32 `json:"distance"`              // Distance between killer and victim in arena units
}

func (k *KillEvent) TableName() string {
	return "kill_events"
}

// Mine is a landmine planted in the arena
// Uses composite primary key (SessionID, ObjectID) - ObjectID is from the shared unit ID space
type Mine struct {
	SessionID     uint          `json:"sessionId" gorm:"primaryKey;autoIncrement:false"`
	ObjectID      uint16        `json:"unitId" gorm:"primaryKey;autoIncrement:false"` // recorder-assigned sequential ID
	Session       Session       `gorm:"foreignkey:SessionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
	JoinTime      time.Time     `json:"joinTime" gorm:"type:timestamptz;NOT NULL;"` // Server time when mine was planted
	JoinFrame     uint          `json:"joinFrame"`                                  // Frame number when mine was planted
	OwnerObjectID sql.NullInt32 `json:"ownerUnitId" gorm:"default:NULL"`            // Unit ID of the planter (null for pre-placed)
	Position      geom.Point    `json:"position"`                                   // Position in arena coordinates
	Radius        float32       `json:"radius"`                                     // Blast radius
	Damage        float32       `json:"damage"`                                     // Blast damage before armor
}

func (*Mine) TableName() string {
	return "mines"
}

// MineEvent represents a lifecycle event (armed, detonated, cleared) for a mine
type MineEvent struct {
	ID           uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	Time         time.Time `json:"time" gorm:"type:timestamptz;"` // Server time when event occurred
	SessionID    uint      `json:"sessionId" gorm:"index:idx_mineevent_session_id"`
	Session      Session   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:SessionID;"`
	CaptureFrame uint      `json:"captureFrame" gorm:"index:idx_mineevent_capture_frame;"` // Frame number when event occurred
	MineObjectID uint16    `json:"mineUnitId" gorm:"index:idx_mineevent_mine_unit_id"`     // Unit ID of the mine

	EventType      string        `json:"eventType" gorm:"size:16"`         // armed, detonated, cleared
	Position       geom.Point    `json:"position"`                         // Mine position in arena coordinates
	VictimObjectID sql.NullInt32 `json:"victimUnitId" gorm:"default:NULL"` // Unit that tripped the mine (only for detonations)
}

func (m *MineEvent) TableName() string {
	return "mine_events"
}

// Crate is a power-up crate dropped into the arena
// Uses composite primary key (SessionID, ObjectID) - ObjectID is from the shared unit ID space
type Crate struct {
	SessionID uint       `json:"sessionId" gorm:"primaryKey;autoIncrement:false"`
	ObjectID  uint16     `json:"unitId" gorm:"primaryKey;autoIncrement:false"` // recorder-assigned sequential ID
	Session   Session    `gorm:"foreignkey:SessionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	JoinTime  time.Time  `json:"joinTime" gorm:"type:timestamptz;NOT NULL;"` // Server time when crate appeared
	JoinFrame uint       `json:"joinFrame"`                                  // Frame number when crate appeared
	Type      string     `json:"type" gorm:"size:32"`                        // ammo, health, speed, damage, multishot, rapidfire, shield, landmine
	Position  geom.Point `json:"position"`                                   // Position in arena coordinates
	Value     float32    `json:"value"`                                      // Restore amount or multiplier
	Duration  float32    `json:"duration"`                                   // Buff duration in seconds (0 for instants)
}

func (*Crate) TableName() string {
	return "crates"
}

// PickupEvent represents a power-up crate being collected
type PickupEvent struct {
	ID            uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	Time          time.Time `json:"time" gorm:"type:timestamptz;"` // Server time when collected
	SessionID     uint      `json:"sessionId" gorm:"index:idx_pickupevent_session_id"`
	Session       Session   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:SessionID;"`
	CaptureFrame  uint      `json:"captureFrame" gorm:"index:idx_pickupevent_capture_frame;"` // Frame number when collected
	CrateObjectID uint16    `json:"crateUnitId" gorm:"index:idx_pickupevent_crate_unit_id"`   // Unit ID of the crate
	TakerObjectID uint16    `json:"takerUnitId"`                                              // Unit ID of the collector

	Type     string  `json:"type" gorm:"size:32"` // Power-up type
	Amount   float32 `json:"amount"`              // Restore amount or multiplier
	Duration float32 `json:"duration"`            // Buff duration in seconds (0 for instants)
}

func (*PickupEvent) TableName() string {
	return "pickup_events"
}

// ProgressEvent represents player progression: experience gained, a level-up, or a skill purchase
type ProgressEvent struct {
	ID           uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	Time         time.Time `json:"time" gorm:"type:timestamptz;"` // Server time when event occurred
	SessionID    uint      `json:"sessionId" gorm:"index:idx_progressevent_session_id"`
	Session      Session   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:SessionID;"`
	CaptureFrame uint      `json:"captureFrame" gorm:"index:idx_progressevent_capture_frame;"` // Frame number when event occurred
	UnitObjectID uint16    `json:"unitId" gorm:"index:idx_progressevent_unit_id"`              // Unit ID of the progressing player

	Kind       string `json:"kind" gorm:"size:16"`    // experience, level_up, skill
	Amount     int    `json:"amount"`                 // XP gained, or skill points spent
	Level      int    `json:"level"`                  // Player level after the event
	SkillID    string `json:"skillId" gorm:"size:64"` // Purchased skill (only for skill events)
	SkillLevel int    `json:"skillLevel"`             // Skill level after purchase (only for skill events)
}

func (*ProgressEvent) TableName() string {
	return "progress_events"
}

// TickStats records periodic simulation load snapshots
type TickStats struct {
	Time         time.Time `json:"time" gorm:"type:timestamptz;"` // Server time when measurement taken
	SessionID    uint      `json:"sessionId" gorm:"index:idx_tickstats_session_id"`
	Session      Session   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:SessionID;"`
	CaptureFrame uint      `json:"captureFrame" gorm:"index:idx_tickstats_capture_frame;"` // Frame number when measurement taken

	StepMillis  float32 `json:"stepMillis"`  // Last simulation step duration in milliseconds
	Tanks       uint    `json:"tanks"`       // Live tank count
	Infantry    uint    `json:"infantry"`    // Live infantry count
	Projectiles uint    `json:"projectiles"` // Projectiles in flight
	Mines       uint    `json:"mines"`       // Armed or arming mines
	Crates      uint    `json:"crates"`      // Uncollected crates
}

func (s *TickStats) TableName() string {
	return "tick_stats"
}
