package app

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kaleida/vjdeck/server/internal/api"
	"github.com/kaleida/vjdeck/server/internal/catalog"
	"github.com/kaleida/vjdeck/server/internal/config"
	"github.com/kaleida/vjdeck/server/internal/hub"
	"github.com/kaleida/vjdeck/server/internal/observability"
)

type Server struct {
	httpServer *http.Server
	Hub        *hub.Hub
}

func NewServer(cfg config.Config) *Server {
	scanner := &catalog.Scanner{ShaderDir: cfg.ShaderDir, VideoDir: cfg.VideoDir}
	metrics := observability.NewMetrics()
	h := hub.New(scanner, zap.L().Named("hub"), metrics)

	mux := api.SetupRoutes(h, scanner, cfg, metrics)

	return &Server{
		httpServer: &http.Server{
			Addr:    cfg.Addr(),
			Handler: mux,
		},
		Hub: h,
	}
}

func (s *Server) Run() error {
	// --- HTTP server ---
	go func() {
		zap.L().Info("listening", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zap.L().Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// --- graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zap.L().Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
