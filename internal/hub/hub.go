// Package hub owns the session state and fans updates out to every live
// realtime connection. All mutation and fan-out for one inbound frame
// happens under a single lock, so each update plus its broadcast is atomic
// relative to every other frame and recipients observe updates in the order
// they were applied.
package hub

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/kaleida/vjdeck/server/internal/catalog"
	"github.com/kaleida/vjdeck/server/internal/observability"
	"github.com/kaleida/vjdeck/server/internal/protocol"
	"github.com/kaleida/vjdeck/server/internal/session"
)

type Role string

const (
	RoleUnknown    Role = "unknown"
	RoleViewer     Role = "viewer"
	RoleController Role = "controller"
)

// writeTimeout bounds a single fan-out write so one stalled socket cannot
// wedge delivery to everyone else.
const writeTimeout = 10 * time.Second

// Socket is the transport a connection writes to. *websocket.Conn
// satisfies it; tests substitute fakes.
type Socket interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Conn is one registered realtime connection. Role stays unknown until an
// explicit register frame arrives; it is informational and does not gate
// message handling.
type Conn struct {
	id     string
	sock   Socket
	role   Role
	closed bool
}

func (c *Conn) ID() string { return c.id }

type Hub struct {
	log     *zap.Logger
	scanner *catalog.Scanner
	metrics *observability.Metrics

	mu    sync.Mutex
	state session.State
	conns map[*Conn]struct{}
}

func New(scanner *catalog.Scanner, log *zap.Logger, metrics *observability.Metrics) *Hub {
	return &Hub{
		log:     log,
		scanner: scanner,
		metrics: metrics,
		state:   session.DefaultState(),
		conns:   make(map[*Conn]struct{}),
	}
}

// Register adds a connection with an unknown role and immediately sends it
// an init frame carrying the current state and asset catalog.
func (h *Hub) Register(sock Socket) *Conn {
	c := &Conn{id: uuid.NewString(), sock: sock, role: RoleUnknown}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c] = struct{}{}
	h.metrics.ActiveConnections.WithLabelValues(string(c.role)).Inc()

	data, err := protocol.Encode(protocol.TypeInit, protocol.InitPayload{
		State:  h.state,
		Assets: h.scanner.Scan(),
	})
	if err != nil {
		h.log.Error("encode init frame", zap.Error(err))
		return c
	}
	h.send(c, data)
	h.log.Info("connection registered", zap.String("conn", c.id))
	return c
}

// Unregister removes a connection. Safe to call more than once.
func (h *Hub) Unregister(c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conns[c]; !ok {
		return
	}
	delete(h.conns, c)
	c.closed = true
	h.metrics.ActiveConnections.WithLabelValues(string(c.role)).Dec()
	h.log.Info("connection unregistered",
		zap.String("conn", c.id), zap.String("role", string(c.role)))
}

// Snapshot returns a deep copy of the current session state.
func (h *Hub) Snapshot() session.State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state.Clone()
}

// HandleFrame applies one inbound frame: decode, validate, mutate, fan out.
// Malformed or invalid frames are logged and dropped; the connection always
// stays open.
func (h *Hub) HandleFrame(c *Conn, raw []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	env, err := protocol.Decode(raw)
	if err != nil {
		h.metrics.FramesDropped.Inc()
		h.log.Warn("malformed frame", zap.String("conn", c.id), zap.Error(err))
		return
	}
	h.metrics.FramesReceived.WithLabelValues(env.Type).Inc()

	switch env.Type {
	case protocol.TypeRegister:
		h.handleRegister(c, env)
	case protocol.TypeUpdateFallbackLayers:
		h.handleFallbackLayers(c, env)
	case protocol.TypeUpdateControlSettings:
		h.handleControlSettings(c, env)
	case protocol.TypeUpdateMixDeck:
		h.handleMixDeck(c, env)
	case protocol.TypeUpdateCrossfader, protocol.TypeUpdateCrossfaderAlias:
		h.handleCrossfader(c, env)
	case protocol.TypeViewerStatus:
		h.handleViewerStatus(c, env)
	case protocol.TypeDeckMediaState:
		h.handleDeckMedia(c, env)
	case protocol.TypeRTCSignal:
		h.handleSignal(c, env, raw)
	default:
		if protocol.IsPassThrough(env.Type) {
			h.fanOut(raw, c)
			return
		}
		h.metrics.FramesDropped.Inc()
		h.log.Warn("unknown message type",
			zap.String("conn", c.id), zap.String("type", env.Type))
	}
}

func (h *Hub) handleRegister(c *Conn, env protocol.Envelope) {
	var p protocol.RegisterPayload
	if len(env.Payload) > 0 {
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			h.dropInvalid(c, env.Type, err)
			return
		}
	}
	role := Role(p.Role)
	switch role {
	case RoleViewer, RoleController:
	default:
		role = RoleUnknown
	}
	h.metrics.ActiveConnections.WithLabelValues(string(c.role)).Dec()
	h.metrics.ActiveConnections.WithLabelValues(string(role)).Inc()
	c.role = role
	h.log.Info("connection role set",
		zap.String("conn", c.id), zap.String("role", string(role)))
}

func (h *Hub) handleFallbackLayers(c *Conn, env protocol.Envelope) {
	var layers []session.Layer
	if len(env.Payload) > 0 {
		if err := json.Unmarshal(env.Payload, &layers); err != nil {
			h.dropInvalid(c, env.Type, err)
			return
		}
	}
	h.state.ReplaceFallbackLayers(layers)
	h.broadcast(protocol.TypeUpdateFallbackLayers, h.state.FallbackLayers, c)
}

func (h *Hub) handleControlSettings(c *Conn, env protocol.Envelope) {
	var p session.ControlSettingsPatch
	if !h.decode(c, env, &p) {
		return
	}
	h.state.ControlSettings.Apply(p)
	h.broadcast(protocol.TypeUpdateControlSettings, h.state.ControlSettings, c)
}

func (h *Hub) handleMixDeck(c *Conn, env protocol.Envelope) {
	var p protocol.MixDeckPayload
	if !h.decode(c, env, &p) {
		return
	}
	if !h.state.UpdateDeck(p.Deck, p.Data) {
		h.log.Warn("unknown deck key",
			zap.String("conn", c.id), zap.String("deck", p.Deck))
		return
	}
	// The sender receives the corrected state too: the hub is the one place
	// deck invariants are enforced, so its optimistic local copy may be wrong.
	h.broadcast(protocol.TypeMixState, h.state.Mix, nil)
}

func (h *Hub) handleCrossfader(c *Conn, env protocol.Envelope) {
	var p protocol.CrossfaderPayload
	if !h.decode(c, env, &p) {
		return
	}
	if !h.state.SetCrossfader(p.Target, p.Value) {
		h.log.Warn("unknown crossfader target",
			zap.String("conn", c.id), zap.String("target", p.Target))
		return
	}
	h.broadcast(protocol.TypeMixState, h.state.Mix, nil)
}

func (h *Hub) handleViewerStatus(c *Conn, env protocol.Envelope) {
	var p session.ViewerStatusPatch
	if !h.decode(c, env, &p) {
		return
	}
	h.state.ViewerStatus.Apply(p)
	h.broadcast(protocol.TypeViewerStatus, h.state.ViewerStatus, c)
}

func (h *Hub) handleDeckMedia(c *Conn, env protocol.Envelope) {
	var p protocol.DeckMediaPayload
	if !h.decode(c, env, &p) {
		return
	}
	if p.State == nil {
		h.log.Warn("deck-media-state missing state",
			zap.String("conn", c.id), zap.String("deck", p.Deck))
		return
	}
	if !h.state.SetDeckMedia(p.Deck, *p.State) {
		h.log.Warn("unknown deck key",
			zap.String("conn", c.id), zap.String("deck", p.Deck))
		return
	}
	h.broadcast(protocol.TypeDeckMediaState, protocol.DeckMediaPayload{
		Deck:  p.Deck,
		State: ptr(h.state.DeckMedia[p.Deck]),
	}, c)
}

// handleSignal relays peer-negotiation frames verbatim. Only the kind is
// inspected; payload content is opaque to the server and receivers ignore
// signals not addressed to them.
func (h *Hub) handleSignal(c *Conn, env protocol.Envelope, raw []byte) {
	var p protocol.SignalPayload
	if len(env.Payload) > 0 {
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			h.dropInvalid(c, env.Type, err)
			return
		}
	}
	if !protocol.ValidSignalKind(p.Kind) {
		h.log.Debug("dropping signal with unknown kind",
			zap.String("conn", c.id), zap.String("kind", p.Kind))
		return
	}
	h.fanOut(raw, c)
}

// decode unmarshals a required payload; a missing or malformed payload is a
// logged no-op.
func (h *Hub) decode(c *Conn, env protocol.Envelope, dst any) bool {
	if len(env.Payload) == 0 {
		h.metrics.FramesDropped.Inc()
		h.log.Warn("missing payload",
			zap.String("conn", c.id), zap.String("type", env.Type))
		return false
	}
	if err := json.Unmarshal(env.Payload, dst); err != nil {
		h.dropInvalid(c, env.Type, err)
		return false
	}
	return true
}

func (h *Hub) dropInvalid(c *Conn, msgType string, err error) {
	h.metrics.FramesDropped.Inc()
	h.log.Warn("invalid payload",
		zap.String("conn", c.id), zap.String("type", msgType), zap.Error(err))
}

// broadcast serializes once and fans out; except == nil means everyone.
func (h *Hub) broadcast(msgType string, payload any, except *Conn) {
	data, err := protocol.Encode(msgType, payload)
	if err != nil {
		h.log.Error("encode broadcast frame",
			zap.String("type", msgType), zap.Error(err))
		return
	}
	h.fanOut(data, except)
}

// fanOut writes the same bytes to every open connection except the excluded
// one. A closed connection is a no-op; a failing write marks the connection
// closed and is otherwise swallowed.
func (h *Hub) fanOut(data []byte, except *Conn) {
	for c := range h.conns {
		if c == except || c.closed {
			continue
		}
		h.send(c, data)
	}
}

func (h *Hub) send(c *Conn, data []byte) {
	_ = c.sock.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := c.sock.WriteMessage(websocket.TextMessage, data); err != nil {
		c.closed = true
		h.log.Debug("send failed", zap.String("conn", c.id), zap.Error(err))
		return
	}
	h.metrics.BroadcastDeliveries.Inc()
}

func ptr[T any](v T) *T { return &v }
