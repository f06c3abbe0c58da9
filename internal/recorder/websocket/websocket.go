// Package websocket streams battle data over WebSocket to the ArmorClash hub
// for live spectating. It implements recorder.Backend but not
// recorder.Uploadable — the hub already has the data.
package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/armorclash/engine/pkg/record"
	"github.com/armorclash/engine/pkg/streaming"
)

// Config holds WebSocket backend configuration.
type Config struct {
	URL    string
	Secret string
}

// Backend streams battle data over WebSocket as it is recorded. Unit
// registrations and state samples are fire-and-forget; session boundaries
// wait for a server ack.
type Backend struct {
	conn *connection
	cfg  Config
}

// New creates a new WebSocket recording backend.
func New(cfg Config) *Backend {
	return &Backend{
		conn: newConnection(slog.Default()),
		cfg:  cfg,
	}
}

// Init connects to the WebSocket server.
func (b *Backend) Init() error {
	return b.conn.dial(b.cfg.URL, b.cfg.Secret)
}

// Close disconnects from the WebSocket server.
func (b *Backend) Close() error {
	return b.conn.close()
}

// marshalEnvelope builds a JSON-encoded Envelope from a message type and payload.
func marshalEnvelope(msgType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	env := streaming.Envelope{Type: msgType, Payload: raw}
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", msgType, err)
	}
	return data, nil
}

// sendEnvelope marshals the payload into an Envelope and pushes it
// to the write loop (fire-and-forget).
func (b *Backend) sendEnvelope(msgType string, payload any) error {
	data, err := marshalEnvelope(msgType, payload)
	if err != nil {
		return err
	}
	b.conn.send(data)
	return nil
}

// sendEnvelopeAndWait marshals the payload and waits for a server ack.
func (b *Backend) sendEnvelopeAndWait(msgType string, payload any) error {
	data, err := marshalEnvelope(msgType, payload)
	if err != nil {
		return err
	}
	return b.conn.sendAndWait(data, msgType, ackTimeout)
}

// StartSession sends session and arena data and waits for server ack.
func (b *Backend) StartSession(session *record.Session, arena *record.Arena) error {
	data, err := marshalEnvelope(streaming.TypeStartSession, streaming.StartSessionPayload{Session: session, Arena: arena})
	if err != nil {
		return err
	}

	// Cache for reconnect replay.
	b.conn.cacheStart(data)

	return b.conn.sendAndWait(data, streaming.TypeStartSession, ackTimeout)
}

// EndSession sends end_session and waits for server ack.
func (b *Backend) EndSession() error {
	err := b.sendEnvelopeAndWait(streaming.TypeEndSession, nil)

	// Clear cached state regardless of error.
	b.conn.clearSession()

	return err
}

func (b *Backend) AddTank(t *record.TankUnit) error {
	return b.sendEnvelope(streaming.TypeAddTank, t)
}

func (b *Backend) AddInfantry(s *record.InfantryUnit) error {
	return b.sendEnvelope(streaming.TypeAddInfantry, s)
}

func (b *Backend) AddMine(m *record.Mine) error {
	return b.sendEnvelope(streaming.TypeAddMine, m)
}

func (b *Backend) AddCrate(c *record.CrateDrop) error {
	return b.sendEnvelope(streaming.TypeAddCrate, c)
}

// RecordTankState streams the sample and keeps it as the unit's snapshot
// for reconnect replay.
func (b *Backend) RecordTankState(s *record.TankState) error {
	data, err := marshalEnvelope(streaming.TypeTankState, s)
	if err != nil {
		return err
	}
	b.conn.cacheSnapshot(fmt.Sprintf("tank/%d", s.UnitID), data)
	b.conn.send(data)
	return nil
}

// RecordInfantryState streams the sample and keeps it as the unit's
// snapshot for reconnect replay.
func (b *Backend) RecordInfantryState(s *record.InfantryState) error {
	data, err := marshalEnvelope(streaming.TypeInfantryState, s)
	if err != nil {
		return err
	}
	b.conn.cacheSnapshot(fmt.Sprintf("infantry/%d", s.UnitID), data)
	b.conn.send(data)
	return nil
}

func (b *Backend) RecordFireEvent(e *record.FireEvent) error {
	return b.sendEnvelope(streaming.TypeFireEvent, e)
}

func (b *Backend) RecordProjectilePath(p *record.ProjectilePath) error {
	return b.sendEnvelope(streaming.TypeProjectilePath, p)
}

func (b *Backend) RecordGeneralEvent(e *record.GeneralEvent) error {
	return b.sendEnvelope(streaming.TypeGeneralEvent, e)
}

func (b *Backend) RecordHitEvent(e *record.HitEvent) error {
	return b.sendEnvelope(streaming.TypeHitEvent, e)
}

func (b *Backend) RecordKillEvent(e *record.KillEvent) error {
	return b.sendEnvelope(streaming.TypeKillEvent, e)
}

func (b *Backend) RecordMineEvent(e *record.MineEvent) error {
	return b.sendEnvelope(streaming.TypeMineEvent, e)
}

func (b *Backend) RecordPickupEvent(e *record.PickupEvent) error {
	return b.sendEnvelope(streaming.TypePickupEvent, e)
}

func (b *Backend) RecordProgressEvent(e *record.ProgressEvent) error {
	return b.sendEnvelope(streaming.TypeProgressEvent, e)
}

func (b *Backend) RecordTickStats(t *record.TickStats) error {
	return b.sendEnvelope(streaming.TypeTickStats, t)
}
