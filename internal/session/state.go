package session

import "strings"

// DeckKeys is the fixed set of mixable decks.
var DeckKeys = []string{"a", "b", "c", "d"}

// DeckTypes that may carry an asset reference; "generative" never does.
const (
	DeckTypeShader     = "shader"
	DeckTypeVideo      = "video"
	DeckTypeGenerative = "generative"
)

// Layer describes one fallback layer rendered by the viewer when no live
// mix is active. The slice is replaced wholesale on update, never merged.
type Layer struct {
	ID        string  `json:"id"`
	Type      string  `json:"type"`
	Name      string  `json:"name"`
	Opacity   float64 `json:"opacity"`
	BlendMode string  `json:"blendMode"`
	Order     int     `json:"order"`
}

type ControlSettings struct {
	ModelProvider  string `json:"modelProvider"`
	AudioInputMode string `json:"audioInputMode"`
	Prompt         string `json:"prompt"`
}

// ControlSettingsPatch is a partial update; nil fields keep the current value.
type ControlSettingsPatch struct {
	ModelProvider  *string `json:"modelProvider"`
	AudioInputMode *string `json:"audioInputMode"`
	Prompt         *string `json:"prompt"`
}

func (c *ControlSettings) Apply(p ControlSettingsPatch) {
	if p.ModelProvider != nil {
		c.ModelProvider = *p.ModelProvider
	}
	if p.AudioInputMode != nil {
		c.AudioInputMode = *p.AudioInputMode
	}
	if p.Prompt != nil {
		c.Prompt = *p.Prompt
	}
}

type ViewerStatus struct {
	IsRunning    bool   `json:"isRunning"`
	IsGenerating bool   `json:"isGenerating"`
	Error        string `json:"error"`
}

type ViewerStatusPatch struct {
	IsRunning    *bool   `json:"isRunning"`
	IsGenerating *bool   `json:"isGenerating"`
	Error        *string `json:"error"`
}

func (v *ViewerStatus) Apply(p ViewerStatusPatch) {
	if p.IsRunning != nil {
		v.IsRunning = *p.IsRunning
	}
	if p.IsGenerating != nil {
		v.IsGenerating = *p.IsGenerating
	}
	if p.Error != nil {
		v.Error = *p.Error
	}
}

// Deck is one of the four mixable sources. Type and AssetID are nullable on
// the wire; Normalize keeps them mutually consistent.
type Deck struct {
	Type    *string `json:"type"`
	AssetID *string `json:"assetId"`
	Opacity float64 `json:"opacity"`
	Enabled bool    `json:"enabled"`
}

// DeckPatch is a partial deck update; nil fields keep the current value.
type DeckPatch struct {
	Type    *string  `json:"type"`
	AssetID *string  `json:"assetId"`
	Opacity *float64 `json:"opacity"`
	Enabled *bool    `json:"enabled"`
}

// Normalize enforces the deck consistency rules:
// a type outside the known set becomes null; a generative deck never holds
// an asset id; for shader/video decks, a missing type or missing asset id
// clears both. Opacity is clamped to [0,1].
func (d *Deck) Normalize() {
	if d.Type != nil {
		switch *d.Type {
		case DeckTypeShader, DeckTypeVideo, DeckTypeGenerative:
		default:
			d.Type = nil
		}
	}
	if d.AssetID != nil && *d.AssetID == "" {
		d.AssetID = nil
	}
	if d.Type != nil && *d.Type == DeckTypeGenerative {
		d.AssetID = nil
	} else if d.Type == nil || d.AssetID == nil {
		d.Type = nil
		d.AssetID = nil
	}
	d.Opacity = ClampUnit(d.Opacity)
}

// DeckMediaState mirrors the playback state of the media element backing a
// video deck.
type DeckMediaState struct {
	IsPlaying bool    `json:"isPlaying"`
	Progress  float64 `json:"progress"`
	IsLoading bool    `json:"isLoading"`
	Error     bool    `json:"error"`
	Src       *string `json:"src"`
}

// Normalize clamps progress to [0,100] and coerces a blank src to null.
func (m *DeckMediaState) Normalize() {
	if m.Progress < 0 {
		m.Progress = 0
	} else if m.Progress > 100 {
		m.Progress = 100
	}
	if m.Src != nil && strings.TrimSpace(*m.Src) == "" {
		m.Src = nil
	}
}

type MixState struct {
	CrossfaderAB float64         `json:"crossfaderAB"`
	CrossfaderAC float64         `json:"crossfaderAC"`
	CrossfaderBD float64         `json:"crossfaderBD"`
	CrossfaderCD float64         `json:"crossfaderCD"`
	Decks        map[string]Deck `json:"decks"`
}

// State is the authoritative session record. It is owned exclusively by the
// hub; everything outside the hub sees snapshots from Clone.
type State struct {
	FallbackLayers  []Layer                   `json:"fallbackLayers"`
	ControlSettings ControlSettings           `json:"controlSettings"`
	ViewerStatus    ViewerStatus              `json:"viewerStatus"`
	Mix             MixState                  `json:"mixState"`
	DeckMedia       map[string]DeckMediaState `json:"deckMediaStates"`
}

func DefaultState() State {
	decks := make(map[string]Deck, len(DeckKeys))
	media := make(map[string]DeckMediaState, len(DeckKeys))
	for _, k := range DeckKeys {
		decks[k] = Deck{Opacity: 1}
		media[k] = DeckMediaState{}
	}
	return State{
		FallbackLayers: []Layer{},
		Mix: MixState{
			CrossfaderAB: 0.5,
			CrossfaderAC: 0.5,
			CrossfaderBD: 0.5,
			CrossfaderCD: 0.5,
			Decks:        decks,
		},
		DeckMedia: media,
	}
}

// Clone returns a deep copy safe to hand outside the hub's lock.
func (s State) Clone() State {
	out := s
	out.FallbackLayers = append([]Layer(nil), s.FallbackLayers...)
	out.Mix.Decks = make(map[string]Deck, len(s.Mix.Decks))
	for k, d := range s.Mix.Decks {
		out.Mix.Decks[k] = d
	}
	out.DeckMedia = make(map[string]DeckMediaState, len(s.DeckMedia))
	for k, m := range s.DeckMedia {
		out.DeckMedia[k] = m
	}
	return out
}

// ReplaceFallbackLayers swaps the layer list wholesale. A nil payload means
// an empty list.
func (s *State) ReplaceFallbackLayers(layers []Layer) {
	if layers == nil {
		layers = []Layer{}
	}
	s.FallbackLayers = layers
}

// UpdateDeck merges a partial update onto the named deck and re-normalizes
// it. Returns false for an unknown deck key, leaving state untouched.
func (s *State) UpdateDeck(key string, patch DeckPatch) bool {
	deck, ok := s.Mix.Decks[key]
	if !ok {
		return false
	}
	if patch.Type != nil {
		deck.Type = patch.Type
	}
	if patch.AssetID != nil {
		deck.AssetID = patch.AssetID
	}
	if patch.Opacity != nil {
		deck.Opacity = *patch.Opacity
	}
	if patch.Enabled != nil {
		deck.Enabled = *patch.Enabled
	}
	deck.Normalize()
	s.Mix.Decks[key] = deck
	return true
}

// SetCrossfader resolves a crossfader target name (case-insensitive,
// surrounding whitespace ignored, "main" aliased to "ab") and stores the
// clamped value. Returns false for an unknown target, leaving state
// untouched.
func (s *State) SetCrossfader(target string, value float64) bool {
	value = ClampUnit(value)
	switch strings.ToLower(strings.TrimSpace(target)) {
	case "main", "ab":
		s.Mix.CrossfaderAB = value
	case "ac":
		s.Mix.CrossfaderAC = value
	case "bd":
		s.Mix.CrossfaderBD = value
	case "cd":
		s.Mix.CrossfaderCD = value
	default:
		return false
	}
	return true
}

// SetDeckMedia replaces the named deck's media state wholesale after
// normalization. Returns false for an unknown deck key.
func (s *State) SetDeckMedia(key string, state DeckMediaState) bool {
	if _, ok := s.DeckMedia[key]; !ok {
		return false
	}
	state.Normalize()
	s.DeckMedia[key] = state
	return true
}

// ClampUnit clamps v to the closed interval [0,1].
func ClampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
