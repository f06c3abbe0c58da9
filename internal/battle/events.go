package battle

import (
	"math"
	"strings"
	"time"

	"github.com/armorclash/engine/internal/worker"
	"github.com/armorclash/engine/pkg/geom"
	"github.com/armorclash/engine/pkg/progress"
	"github.com/armorclash/engine/pkg/record"
	"github.com/armorclash/engine/pkg/sim"
)

// trackProjectiles samples every live projectile once per frame. Shots the
// world spawned this frame get a fresh track; the world reclaims ended
// projectiles before Step returns, so translation has to work off these
// tracks rather than looking handles up afterwards.
func (s *Service) trackProjectiles() {
	s.world.EachProjectile(func(p *sim.Projectile) bool {
		tr, ok := s.shots[p.Self]
		if !ok {
			tr = &shotTrack{
				shooter:    s.units[p.Owner],
				weapon:     p.Type.String(),
				damage:     p.Damage,
				origin:     p.Pos,
				startFrame: s.frame,
			}
			s.shots[p.Self] = tr
		}
		tr.points = append(tr.points, record.TrajectoryPoint{Position: p.Pos, Frame: s.frame})
		return true
	})
}

// drainEvents translates everything the world reported during the last
// step into dispatched records, then resets the collector.
func (s *Service) drainEvents() {
	s.processFires()
	hitWeapon, directPlayerHits := s.processEnded()
	s.processPlayerHits(directPlayerHits)
	s.processDeaths(hitWeapon)
	s.processDetonations()
	s.processPickups()
	s.collector.Reset()
	s.processLevelUps()
}

func (s *Service) processFires() {
	for _, f := range s.collector.Fires {
		s.emit(worker.EventFired, record.FireEvent{
			ShooterID:    s.units[f.Shooter],
			Time:         time.Now(),
			CaptureFrame: s.frame,
			Weapon:       f.Weapon.String(),
			Origin:       f.Origin,
			Angle:        f.Angle,
			Damage:       f.Damage,
		})
	}
}

// processEnded turns finished projectiles into path records and direct-hit
// reports. It returns the weapon that struck each victim this frame, for
// kill attribution, and the shooter IDs that landed a direct hit on the
// player, so the player-damage pass does not report those twice.
func (s *Service) processEnded() (map[sim.Handle]string, map[uint16]bool) {
	hitWeapon := make(map[sim.Handle]string)
	directPlayerHits := make(map[uint16]bool)

	for _, e := range s.collector.Ended {
		tr, ok := s.shots[e.Projectile]
		if !ok {
			// Spawned and ended inside the same step, nothing was sampled.
			s.logger().Debug("Projectile ended before tracking", "projectile", e.Projectile.String())
			continue
		}
		delete(s.shots, e.Projectile)

		var hitID *uint16
		if !e.Hit.IsZero() {
			hitID = s.unitID(e.Hit)
			hitWeapon[e.Hit] = tr.weapon
			if e.Hit == s.player {
				directPlayerHits[tr.shooter] = true
			}
			if hitID != nil {
				attacker := tr.shooter
				s.emit(worker.EventHit, worker.HitReport{
					Time:         time.Now(),
					CaptureFrame: s.frame,
					VictimID:     *hitID,
					AttackerID:   &attacker,
					Weapon:       tr.weapon,
					Damage:       tr.damage,
					Distance:     float32(tr.origin.Distance(e.Position)),
				})
			}
		}

		s.emit(worker.EventProjectile, record.ProjectilePath{
			ShooterID:    tr.shooter,
			Time:         time.Now(),
			CaptureFrame: tr.startFrame,
			EndFrame:     s.frame,
			Weapon:       tr.weapon,
			Trajectory:   append(tr.points, record.TrajectoryPoint{Position: e.Position, Frame: s.frame}),
			EndPosition:  e.Position,
			HitUnitID:    hitID,
			Exploded:     e.Exploded,
		})
	}
	return hitWeapon, directPlayerHits
}

// processDeaths reports kills and awards experience for player kills. Mine
// kills credit the player when the mine was player-planted.
func (s *Service) processDeaths(hitWeapon map[sim.Handle]string) {
	for _, d := range s.collector.Deaths {
		victimID := s.units[d.Entity]
		weapon := hitWeapon[d.Entity]
		var killerID *uint16
		var distance float32
		playerKill := false

		switch {
		case d.Killer.IsZero():
		case d.Killer.Kind == sim.KindLandmine:
			weapon = "landmine"
			if mt, ok := s.mines[d.Killer]; ok {
				distance = float32(d.Position.Distance(mt.pos))
				if mt.fromPlayer {
					id := s.playerID
					killerID = &id
					playerKill = true
				}
			}
		default:
			killerID = s.unitID(d.Killer)
			if pos, ok := s.entityPos(d.Killer); ok {
				distance = float32(d.Position.Distance(pos))
			}
			if weapon == "" {
				weapon = s.fallbackWeapon(d.Killer)
			}
			playerKill = d.Killer == s.player
		}

		s.emit(worker.EventKill, worker.KillReport{
			Time:         time.Now(),
			CaptureFrame: s.frame,
			VictimID:     victimID,
			KillerID:     killerID,
			Weapon:       weapon,
			Distance:     distance,
		})

		if d.Kind == sim.KindTank {
			delete(s.pilots, d.Entity)
		}
		if playerKill && d.Entity != s.player {
			s.awardKill(d)
		}
	}
}

func (s *Service) awardKill(d sim.Death) {
	s.kills++
	var base int
	switch d.Kind {
	case sim.KindTank:
		base = s.cfg.Rewards.Tank
	case sim.KindInfantry:
		base = s.cfg.Rewards.Infantry(d.Class.String())
	}
	xp := progress.KillReward(base, s.prog.Level())
	if xp <= 0 {
		return
	}
	s.prog.AwardExperience(xp)
	s.emit(worker.EventProgress, record.ProgressEvent{
		Time:         time.Now(),
		CaptureFrame: s.frame,
		UnitID:       s.playerID,
		Kind:         "experience",
		Amount:       xp,
		Level:        s.prog.Level(),
	})
}

// processDetonations reports tripped mines. The victim is whoever died to
// the mine this frame, which covers the common trigger-and-kill case.
func (s *Service) processDetonations() {
	for _, det := range s.collector.Detonations {
		mt, ok := s.mines[det.Mine]
		if !ok {
			continue
		}
		delete(s.mines, det.Mine)

		var victimID *uint16
		for _, d := range s.collector.Deaths {
			if d.Killer == det.Mine {
				victimID = s.unitID(d.Entity)
				break
			}
		}
		s.emit(worker.EventMine, record.MineEvent{
			CaptureFrame: s.frame,
			MineID:       mt.id,
			EventType:    "detonated",
			Position:     det.Position,
			VictimID:     victimID,
		})
	}
}

// processPlayerHits reports player damage that no projectile path covered:
// mine blasts, plus a fallback for anything unexpected.
func (s *Service) processPlayerHits(directPlayerHits map[uint16]bool) {
	for _, ph := range s.collector.PlayerHits {
		if ph.Attacker.Kind == sim.KindLandmine {
			s.emit(worker.EventHit, worker.HitReport{
				Time:         time.Now(),
				CaptureFrame: s.frame,
				VictimID:     s.playerID,
				AttackerID:   s.mineOwner(ph.Attacker),
				Weapon:       "landmine",
				Damage:       ph.Amount,
				Distance:     s.mineDistance(ph.Attacker),
			})
			continue
		}
		if directPlayerHits[s.units[ph.Attacker]] {
			continue
		}
		s.emit(worker.EventHit, worker.HitReport{
			Time:         time.Now(),
			CaptureFrame: s.frame,
			VictimID:     s.playerID,
			AttackerID:   s.unitID(ph.Attacker),
			Weapon:       s.fallbackWeapon(ph.Attacker),
			Damage:       ph.Amount,
		})
	}
}

// mineDistance measures from the planted mine to the player tank.
func (s *Service) mineDistance(h sim.Handle) float32 {
	mt, ok := s.mines[h]
	if !ok {
		return 0
	}
	t, present := s.world.Player()
	if !present {
		return 0
	}
	return float32(t.Pos.Distance(mt.pos))
}

func (s *Service) mineOwner(h sim.Handle) *uint16 {
	if mt, ok := s.mines[h]; ok && mt.fromPlayer {
		id := s.playerID
		return &id
	}
	return nil
}

// fallbackWeapon guesses the weapon when no projectile path identified it.
func (s *Service) fallbackWeapon(attacker sim.Handle) string {
	switch attacker.Kind {
	case sim.KindLandmine:
		return "landmine"
	case sim.KindTank:
		return sim.Cannon.String()
	case sim.KindInfantry:
		if n, ok := s.world.Infantry(attacker); ok {
			return n.Stats.Weapon.String()
		}
		return sim.Machinegun.String()
	}
	return ""
}

// entityPos resolves the current position of a tank or soldier that is
// still in the world, wrecks included.
func (s *Service) entityPos(h sim.Handle) (geom.Vector2, bool) {
	switch h.Kind {
	case sim.KindTank:
		if t, ok := s.world.Tank(h); ok {
			return t.Pos, true
		}
	case sim.KindInfantry:
		if n, ok := s.world.Infantry(h); ok {
			return n.Pos, true
		}
	}
	return geom.Vector2{}, false
}

// processPickups records collected crates and applies their effect to the
// player. Healing already happened inside the world; everything else is a
// battle-level concern.
func (s *Service) processPickups() {
	for _, p := range s.collector.Pickups {
		crateID, known := s.crates[p.PowerUp]
		if known {
			delete(s.crates, p.PowerUp)
		}
		s.emit(worker.EventPickup, record.PickupEvent{
			Time:         time.Now(),
			CaptureFrame: s.frame,
			CrateID:      crateID,
			Type:         p.Type.String(),
			Amount:       p.Amount,
			Duration:     p.Duration,
			TakerID:      s.units[p.Taker],
		})
		s.applyPickup(p)
	}
}

func (s *Service) applyPickup(p sim.PowerUpPickup) {
	switch p.Type {
	case sim.PowerUpSpeed, sim.PowerUpDamage, sim.PowerUpRapidFire, sim.PowerUpShield, sim.PowerUpMultishot:
		s.boosts[p.Type] = boost{value: p.Amount, remaining: p.Duration}
	case sim.PowerUpLandmine:
		s.plantPlayerMines(int(p.Amount))
	}
	// Ammo and health need no battle-side effect: healing is applied by
	// the world and ammo pools live in the client.
}

// plantPlayerMines drops a cluster behind the player tank.
func (s *Service) plantPlayerMines(count int) {
	t, ok := s.world.Player()
	if !ok || count < 1 {
		return
	}
	id := s.playerID
	back := t.BodyAngle + math.Pi
	for i := 0; i < count; i++ {
		offset := geom.FromAngle(back+float64(i-count/2)*0.5, 60)
		s.plantMine(t.Pos.Add(offset), true, &id)
	}
}

// updateBoosts expires timed power-up effects.
func (s *Service) updateBoosts(dt float64) {
	for ptype, b := range s.boosts {
		b.remaining -= dt
		if b.remaining <= 0 {
			delete(s.boosts, ptype)
			continue
		}
		s.boosts[ptype] = b
	}
}

// applyPlayerStats writes the progression block and active boosts onto the
// player tank. Raising max health heals by the gained amount.
func (s *Service) applyPlayerStats() {
	t, ok := s.world.Player()
	if !ok || t.IsDead() {
		return
	}
	st := s.prog.Stats()
	if delta := st.MaxHealth - t.MaxHealth; delta != 0 {
		t.MaxHealth = st.MaxHealth
		if delta > 0 {
			t.Health += delta
		}
		if t.Health > t.MaxHealth {
			t.Health = t.MaxHealth
		}
	}
	t.Armor = st.Armor + s.boostValue(sim.PowerUpShield, 0)
	t.DamageMult = st.DamageMult * s.boostValue(sim.PowerUpDamage, 1)
	t.SpeedMult = st.SpeedMult * s.boostValue(sim.PowerUpSpeed, 1)
	t.FireRateMult = st.FireRateMult * s.boostValue(sim.PowerUpRapidFire, 1)
}

func (s *Service) boostValue(ptype sim.PowerUpType, idle float64) float64 {
	if b, ok := s.boosts[ptype]; ok {
		return b.value
	}
	return idle
}

// boostList renders active boosts for state capture, in a fixed order so
// rows stay comparable.
func (s *Service) boostList() string {
	order := []sim.PowerUpType{
		sim.PowerUpSpeed, sim.PowerUpDamage, sim.PowerUpRapidFire,
		sim.PowerUpShield, sim.PowerUpMultishot,
	}
	var names []string
	for _, ptype := range order {
		if _, ok := s.boosts[ptype]; ok {
			names = append(names, ptype.String())
		}
	}
	return strings.Join(names, ",")
}

// watchMines reports mines that finished arming since the last frame.
func (s *Service) watchMines() {
	for h, mt := range s.mines {
		if mt.armedSeen {
			continue
		}
		m, ok := s.world.Mine(h)
		if !ok {
			mt.armedSeen = true
			continue
		}
		if m.Armed() {
			mt.armedSeen = true
			s.emit(worker.EventMine, record.MineEvent{
				CaptureFrame: s.frame,
				MineID:       mt.id,
				EventType:    "armed",
				Position:     mt.pos,
			})
		}
	}
}

// scheduledDrops releases crates whose scenario time has come.
func (s *Service) scheduledDrops() {
	for s.nextDrop < len(s.scen.Drops) && s.elapsed >= s.scen.Drops[s.nextDrop].At {
		drop := s.scen.Drops[s.nextDrop]
		s.nextDrop++
		ptype, err := sim.ParsePowerUpType(drop.Type)
		if err != nil {
			continue
		}
		center := geom.Vector2{X: s.scen.Arena.Width / 2, Y: s.scen.Arena.Height / 2}
		s.dropCrate(ptype, s.randomPointInBand(center, 100, 400))
	}
}

// processLevelUps replays queued level-ups: it records them, spends the
// new points and re-applies stats on the next applyPlayerStats call.
func (s *Service) processLevelUps() {
	if len(s.levelUps) == 0 {
		return
	}
	for _, lv := range s.levelUps {
		s.emit(worker.EventProgress, record.ProgressEvent{
			Time:         time.Now(),
			CaptureFrame: s.frame,
			UnitID:       s.playerID,
			Kind:         "level_up",
			Amount:       lv.SkillPoints,
			Level:        lv.Level,
		})
	}
	s.levelUps = s.levelUps[:0]
	s.autoSpendSkillPoints()
}

// skillPriority is the order the autopilot spends points in: survival
// first, then damage, then handling.
var skillPriority = []string{
	"reinforced_hull", "armor_plating", "heavy_shells",
	"engine_tuning", "auto_loader", "gun_stabilizer",
}

func (s *Service) autoSpendSkillPoints() {
	for spent := true; spent; {
		spent = false
		for _, id := range skillPriority {
			if !s.prog.UpgradeSkill(id) {
				continue
			}
			spent = true
			s.emit(worker.EventProgress, record.ProgressEvent{
				Time:         time.Now(),
				CaptureFrame: s.frame,
				UnitID:       s.playerID,
				Kind:         "skill",
				Level:        s.prog.Level(),
				SkillID:      id,
				SkillLevel:   s.prog.SkillLevel(id),
			})
		}
	}
}
