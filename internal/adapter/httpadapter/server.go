// Package httpadapter serves the story API alongside health, readiness and
// metrics endpoints.
package httpadapter

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/couchcryptid/disaster-hotspots/internal/domain"
	"github.com/couchcryptid/disaster-hotspots/internal/hotspot"
	"github.com/couchcryptid/disaster-hotspots/internal/pipeline"
	"github.com/couchcryptid/disaster-hotspots/internal/store"
	"github.com/couchcryptid/disaster-hotspots/internal/story"
)

// HotspotService answers hotspot queries. *pipeline.Pipeline implements it.
type HotspotService interface {
	sharedobs.ReadinessChecker
	Hotspots() ([]domain.CellAggregate, error)
	Hotspot(ctx context.Context, cell domain.CellID) (pipeline.HotspotDetail, error)
	MapView(cell domain.CellID) (hotspot.MapView, error)
}

// DocumentSource serves the pre-built inputs of the alternate app.
type DocumentSource interface {
	Tweets() ([]store.TweetRecord, error)
	MapDocument() ([]byte, error)
}

// Deps are the collaborators the handlers call into.
type Deps struct {
	Hotspots  HotspotService
	Sessions  *story.SessionStore
	Pacer     *story.Pacer
	Documents DocumentSource
}

// Server is the HTTP front end.
type Server struct {
	httpServer *http.Server
	deps       Deps
	logger     *slog.Logger
}

// NewServer registers all routes on a fresh mux.
func NewServer(addr string, deps Deps, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			// Hotspot detail downloads images inline.
			WriteTimeout: 2 * time.Minute,
			IdleTimeout:  60 * time.Second,
		},
		deps:   deps,
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(deps.Hotspots))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/chapters", s.handleChapters)
	mux.HandleFunc("POST /api/sessions", s.handleCreateSession)
	mux.HandleFunc("GET /api/sessions/{id}", s.handleGetSession)
	mux.HandleFunc("POST /api/sessions/{id}/next", s.handleNextChapter)
	mux.HandleFunc("POST /api/sessions/{id}/selection", s.handleSelect)

	mux.HandleFunc("GET /api/hotspots", s.handleHotspots)
	mux.HandleFunc("GET /api/hotspots/{cell}", s.handleHotspot)
	mux.HandleFunc("GET /api/map.geojson", s.handleMapGeoJSON)
	mux.HandleFunc("GET /api/map", s.handleMapPage)

	mux.HandleFunc("GET /api/tweets", s.handleTweets)
	mux.HandleFunc("GET /api/map-document", s.handleMapDocument)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}
