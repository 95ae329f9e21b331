package api

import (
	"encoding/json"
	"net/http"

	"github.com/kaleida/vjdeck/server/internal/catalog"
	"github.com/kaleida/vjdeck/server/internal/hub"
)

func handleFallbackAssets(scanner *catalog.Scanner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, scanner.Scan())
	}
}

// handleState returns the same snapshot shape the realtime init frame
// carries, for clients that poll instead of connecting.
func handleState(h *hub.Hub, scanner *catalog.Scanner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"state":  h.Snapshot(),
			"assets": scanner.Scan(),
		})
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
