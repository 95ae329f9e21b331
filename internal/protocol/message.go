package protocol

import (
	"encoding/json"
	"strings"

	"github.com/kaleida/vjdeck/server/internal/session"
)

// Inbound message vocabulary. Every realtime frame is {"type": ..., "payload": ...}.
const (
	TypeRegister              = "register"
	TypeUpdateFallbackLayers  = "update-fallback-layers"
	TypeUpdateControlSettings = "update-control-settings"
	TypeUpdateMixDeck         = "update-mix-deck"
	TypeUpdateCrossfader      = "update-crossfader"
	TypeUpdateCrossfaderAlias = "updateCrossfader"
	TypeStartVisualization    = "start-visualization"
	TypeStopVisualization     = "stop-visualization"
	TypeRegenerateShader      = "regenerate-shader"
	TypeSetAudioSensitivity   = "set-audio-sensitivity"
	TypeCodeProgress          = "code-progress"
	TypeViewerStatus          = "viewer-status"
	TypeDeckMediaState        = "deck-media-state"
	TypeRTCSignal             = "rtc-signal"
)

// Outbound-only message types.
const (
	TypeInit     = "init"
	TypeMixState = "mix-state"
)

// Envelope is the raw frame shape; Payload stays undecoded until the type
// is known.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func Decode(raw []byte) (Envelope, error) {
	var env Envelope
	err := json.Unmarshal(raw, &env)
	return env, err
}

// Encode builds an outbound frame. Broadcast callers serialize once and fan
// the same bytes out to every recipient.
func Encode(msgType string, payload any) ([]byte, error) {
	return json.Marshal(struct {
		Type    string `json:"type"`
		Payload any    `json:"payload,omitempty"`
	}{Type: msgType, Payload: payload})
}

type RegisterPayload struct {
	Role string `json:"role"`
}

type MixDeckPayload struct {
	Deck string            `json:"deck"`
	Data session.DeckPatch `json:"data"`
}

type CrossfaderPayload struct {
	Target string  `json:"target"`
	Value  float64 `json:"value"`
}

type DeckMediaPayload struct {
	Deck  string                  `json:"deck"`
	State *session.DeckMediaState `json:"state"`
}

type SignalPayload struct {
	Kind string `json:"kind"`
}

// InitPayload is sent once per connection, immediately after accept.
type InitPayload struct {
	State  any `json:"state"`
	Assets any `json:"assets"`
}

// IsPassThrough reports whether msgType is relayed verbatim to the other
// connections without touching session state.
func IsPassThrough(msgType string) bool {
	switch msgType {
	case TypeStartVisualization, TypeStopVisualization, TypeRegenerateShader,
		TypeSetAudioSensitivity, TypeCodeProgress:
		return true
	}
	return false
}

// ValidSignalKind reports whether a relay signal kind is one the server
// forwards; comparison ignores case and surrounding whitespace.
func ValidSignalKind(kind string) bool {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "offer", "answer", "ice-candidate", "request-offer":
		return true
	}
	return false
}
