package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kaleida/vjdeck/server/internal/catalog"
	"github.com/kaleida/vjdeck/server/internal/config"
	"github.com/kaleida/vjdeck/server/internal/hub"
	"github.com/kaleida/vjdeck/server/internal/observability"
)

func SetupRoutes(h *hub.Hub, scanner *catalog.Scanner, cfg config.Config, metrics *observability.Metrics) http.Handler {
	r := chi.NewRouter()
	r.Use(LoggingMiddleware)

	r.Route("/api", func(r chi.Router) {
		r.Get("/fallback-assets", handleFallbackAssets(scanner))
		r.Get("/state", handleState(h, scanner))
	})

	r.Handle("/metrics", promhttp.Handler())

	ws := &WSHandler{Hub: h, Log: zap.L().Named("realtime")}
	r.Get("/realtime", ws.HandleWS)

	stream := &StreamHandler{Root: cfg.VideoDir, Metrics: metrics}
	r.Get("/stream/mp4/*", stream.ServeHTTP)

	// Static pass-throughs: the raw video tree and the built frontend bundle.
	r.Handle("/videos/*", http.StripPrefix("/videos/", http.FileServer(http.Dir(cfg.VideoDir))))
	r.Handle("/*", http.FileServer(http.Dir(cfg.StaticDir)))

	return r
}
