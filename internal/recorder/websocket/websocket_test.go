package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armorclash/engine/internal/recorder"
	"github.com/armorclash/engine/pkg/geom"
	"github.com/armorclash/engine/pkg/record"
	"github.com/armorclash/engine/pkg/streaming"
)

// Compile-time interface check.
var _ recorder.Backend = (*Backend)(nil)

// testServer creates an httptest server that upgrades to WebSocket,
// records received messages, and sends acks for start_session/end_session.
func testServer(t *testing.T) (*httptest.Server, *messageLog) {
	t.Helper()
	ml := &messageLog{}

	upgrader := ws.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade error: %v", err)
			return
		}
		defer c.Close()

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				return
			}

			var env streaming.Envelope
			if err := json.Unmarshal(msg, &env); err != nil {
				continue
			}
			ml.add(env)

			// Ack start_session and end_session.
			if env.Type == streaming.TypeStartSession || env.Type == streaming.TypeEndSession {
				ack := streaming.AckMessage{Type: "ack", For: env.Type}
				data, _ := json.Marshal(ack)
				if err := c.WriteMessage(ws.TextMessage, data); err != nil {
					return
				}
			}
		}
	}))

	return srv, ml
}

type messageLog struct {
	mu       sync.Mutex
	messages []streaming.Envelope
}

func (m *messageLog) add(env streaming.Envelope) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, env)
}

func (m *messageLog) all() []streaming.Envelope {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]streaming.Envelope, len(m.messages))
	copy(cp, m.messages)
	return cp
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestStartAndEndSession(t *testing.T) {
	srv, ml := testServer(t)
	defer srv.Close()

	b := New(Config{URL: wsURL(srv), Secret: "test"})
	require.NoError(t, b.Init())
	defer b.Close()

	session := &record.Session{ScenarioName: "Last Stand", Tag: "Skirmish"}
	arena := &record.Arena{Name: "dust_bowl"}
	require.NoError(t, b.StartSession(session, arena))

	require.NoError(t, b.EndSession())

	msgs := ml.all()
	require.GreaterOrEqual(t, len(msgs), 2)
	assert.Equal(t, streaming.TypeStartSession, msgs[0].Type)
	assert.Equal(t, streaming.TypeEndSession, msgs[len(msgs)-1].Type)
}

func TestInitFailsWhenServerUnreachable(t *testing.T) {
	b := New(Config{URL: "ws://127.0.0.1:1/live", Secret: "s"})
	err := b.Init()
	require.Error(t, err)
}

func TestFireAndForgetMessages(t *testing.T) {
	srv, ml := testServer(t)
	defer srv.Close()

	b := New(Config{URL: wsURL(srv), Secret: "s"})
	require.NoError(t, b.Init())
	defer b.Close()

	session := &record.Session{ScenarioName: "Open Field"}
	arena := &record.Arena{Name: "open_field"}
	require.NoError(t, b.StartSession(session, arena))

	require.NoError(t, b.AddTank(&record.TankUnit{ID: 1, Name: "Crusher"}))
	require.NoError(t, b.AddInfantry(&record.InfantryUnit{ID: 2, Class: "rifleman"}))
	require.NoError(t, b.AddMine(&record.Mine{ID: 3}))
	require.NoError(t, b.AddCrate(&record.CrateDrop{ID: 4, Type: "ammo"}))
	require.NoError(t, b.RecordTankState(&record.TankState{UnitID: 1, CaptureFrame: 1}))
	require.NoError(t, b.RecordInfantryState(&record.InfantryState{UnitID: 2, CaptureFrame: 1}))
	require.NoError(t, b.RecordFireEvent(&record.FireEvent{ShooterID: 1, Weapon: "cannon"}))
	require.NoError(t, b.RecordGeneralEvent(&record.GeneralEvent{Name: "objective"}))
	require.NoError(t, b.RecordTickStats(&record.TickStats{CaptureFrame: 1, Tanks: 1}))

	require.NoError(t, b.EndSession())

	// Give a moment for all messages to arrive at server.
	time.Sleep(50 * time.Millisecond)

	msgs := ml.all()

	types := make(map[string]int)
	for _, m := range msgs {
		types[m.Type]++
	}

	assert.Equal(t, 1, types[streaming.TypeStartSession])
	assert.Equal(t, 1, types[streaming.TypeEndSession])
	assert.Equal(t, 1, types[streaming.TypeAddTank])
	assert.Equal(t, 1, types[streaming.TypeAddInfantry])
	assert.Equal(t, 1, types[streaming.TypeAddMine])
	assert.Equal(t, 1, types[streaming.TypeAddCrate])
	assert.Equal(t, 1, types[streaming.TypeTankState])
	assert.Equal(t, 1, types[streaming.TypeInfantryState])
	assert.Equal(t, 1, types[streaming.TypeFireEvent])
	assert.Equal(t, 1, types[streaming.TypeGeneralEvent])
	assert.Equal(t, 1, types[streaming.TypeTickStats])
}

func TestTankStatePayloadSurvivesTransport(t *testing.T) {
	srv, ml := testServer(t)
	defer srv.Close()

	b := New(Config{URL: wsURL(srv), Secret: "s"})
	require.NoError(t, b.Init())
	defer b.Close()

	session := &record.Session{ScenarioName: "M"}
	arena := &record.Arena{Name: "W"}
	require.NoError(t, b.StartSession(session, arena))

	state := &record.TankState{
		UnitID:       7,
		CaptureFrame: 42,
		Position:     geom.Vector2{X: 320, Y: 240},
		BodyAngle:    1.5,
		Health:       75,
		Alive:        true,
		Boosts:       "shield",
	}
	require.NoError(t, b.RecordTankState(state))

	require.NoError(t, b.EndSession())
	time.Sleep(50 * time.Millisecond)

	var decoded *record.TankState
	for _, env := range ml.all() {
		if env.Type == streaming.TypeTankState {
			var s record.TankState
			require.NoError(t, json.Unmarshal(env.Payload, &s))
			decoded = &s
		}
	}

	require.NotNil(t, decoded, "server should have received a tank state")
	assert.Equal(t, uint16(7), decoded.UnitID)
	assert.Equal(t, uint(42), decoded.CaptureFrame)
	assert.Equal(t, 320.0, decoded.Position.X)
	assert.Equal(t, "shield", decoded.Boosts)
	assert.True(t, decoded.Alive)
}

func TestReconnectReplaysSessionAndStates(t *testing.T) {
	var (
		mu    sync.Mutex
		conns int
	)
	replayed := &messageLog{}

	// The first connection drops once a tank state arrives; everything the
	// client sends on later connections lands in replayed.
	upgrader := ws.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()

		mu.Lock()
		conns++
		first := conns == 1
		mu.Unlock()

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				return
			}
			var env streaming.Envelope
			if err := json.Unmarshal(msg, &env); err != nil {
				continue
			}
			if env.Type == streaming.TypeStartSession {
				data, _ := json.Marshal(streaming.AckMessage{Type: "ack", For: env.Type})
				if err := c.WriteMessage(ws.TextMessage, data); err != nil {
					return
				}
			}
			if first {
				if env.Type == streaming.TypeTankState {
					return
				}
				continue
			}
			replayed.add(env)
		}
	}))
	defer srv.Close()

	b := New(Config{URL: wsURL(srv), Secret: "s"})
	require.NoError(t, b.Init())
	defer b.Close()

	require.NoError(t, b.StartSession(&record.Session{ScenarioName: "R"}, &record.Arena{Name: "W"}))
	require.NoError(t, b.RecordTankState(&record.TankState{UnitID: 7, CaptureFrame: 3, Health: 80, Alive: true}))

	require.Eventually(t, func() bool {
		var gotStart, gotState bool
		for _, env := range replayed.all() {
			switch env.Type {
			case streaming.TypeStartSession:
				gotStart = true
			case streaming.TypeTankState:
				gotState = true
			}
		}
		return gotStart && gotState
	}, 10*time.Second, 50*time.Millisecond, "reconnect should replay start_session and the latest tank state")

	var state record.TankState
	for _, env := range replayed.all() {
		if env.Type == streaming.TypeTankState {
			require.NoError(t, json.Unmarshal(env.Payload, &state))
		}
	}
	assert.Equal(t, uint16(7), state.UnitID)
	assert.Equal(t, uint(3), state.CaptureFrame)
	assert.Equal(t, 80.0, state.Health)
}

func TestEnvelopeSerialization(t *testing.T) {
	payload := streaming.StartSessionPayload{
		Session: &record.Session{ScenarioName: "Last Stand"},
		Arena:   &record.Arena{Name: "dust_bowl"},
	}
	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	env := streaming.Envelope{Type: streaming.TypeStartSession, Payload: raw}
	data, err := json.Marshal(env)
	require.NoError(t, err)

	var decoded streaming.Envelope
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, streaming.TypeStartSession, decoded.Type)

	var sp streaming.StartSessionPayload
	require.NoError(t, json.Unmarshal(decoded.Payload, &sp))
	assert.Equal(t, "Last Stand", sp.Session.ScenarioName)
	assert.Equal(t, "dust_bowl", sp.Arena.Name)
}
