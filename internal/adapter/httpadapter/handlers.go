package httpadapter

import (
	"encoding/json"
	"errors"
	"net/http"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/couchcryptid/disaster-hotspots/internal/domain"
	"github.com/couchcryptid/disaster-hotspots/internal/hotspot"
	"github.com/couchcryptid/disaster-hotspots/internal/pipeline"
	"github.com/couchcryptid/disaster-hotspots/internal/story"
)

const mapTitle = "Disaster Hotspots"

type sessionResponse struct {
	Session story.Session `json:"session"`
	Chapter story.Chapter `json:"chapter"`
	Final   bool          `json:"final"`
}

type advanceResponse struct {
	sessionResponse
	Advanced bool     `json:"advanced"`
	Stages   []string `json:"stages"`
}

type selectionRequest struct {
	Cell domain.CellID `json:"h3_index"`
}

func newSessionResponse(s story.Session) sessionResponse {
	return sessionResponse{Session: s, Chapter: s.Current(), Final: s.IsFinal()}
}

func (s *Server) handleChapters(w http.ResponseWriter, _ *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, story.Chapters())
}

func (s *Server) handleCreateSession(w http.ResponseWriter, _ *http.Request) {
	sess := s.deps.Sessions.Create()
	sharedobs.WriteJSON(w, http.StatusCreated, newSessionResponse(sess))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.deps.Sessions.Get(r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, newSessionResponse(sess))
}

// handleNextChapter advances the session and plays the placeholder stages of
// the chapter it lands on.
func (s *Server) handleNextChapter(w http.ResponseWriter, r *http.Request) {
	sess, advanced, err := s.deps.Sessions.Advance(r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp := advanceResponse{sessionResponse: newSessionResponse(sess), Advanced: advanced, Stages: []string{}}
	if advanced {
		done, err := s.deps.Pacer.Play(r.Context(), story.PlaceholderStages(sess.Current()))
		if err != nil {
			s.logger.Warn("stage playback interrupted", "session", sess.ID, "error", err)
		}
		resp.Stages = done
	}
	sharedobs.WriteJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	sess, err := s.deps.Sessions.Get(id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !sess.IsFinal() {
		sharedobs.WriteJSON(w, http.StatusConflict, map[string]string{"status": "hotspots are selectable on the final chapter"})
		return
	}

	var req selectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sharedobs.WriteJSON(w, http.StatusBadRequest, map[string]string{"status": "invalid request body"})
		return
	}
	if _, err := s.deps.Sessions.Select(id, req.Cell); err != nil {
		s.writeError(w, r, err)
		return
	}
	detail, err := s.deps.Hotspots.Hotspot(r.Context(), req.Cell)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, detail)
}

func (s *Server) handleHotspots(w http.ResponseWriter, r *http.Request) {
	hotspots, err := s.deps.Hotspots.Hotspots()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, map[string]any{"hotspots": hotspots})
}

func (s *Server) handleHotspot(w http.ResponseWriter, r *http.Request) {
	detail, err := s.deps.Hotspots.Hotspot(r.Context(), domain.CellID(r.PathValue("cell")))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, detail)
}

func (s *Server) mapView(w http.ResponseWriter, r *http.Request) (hotspot.MapView, bool) {
	view, err := s.deps.Hotspots.MapView(domain.CellID(r.URL.Query().Get("cell")))
	if err != nil {
		s.writeError(w, r, err)
		return hotspot.MapView{}, false
	}
	return view, true
}

func (s *Server) handleMapGeoJSON(w http.ResponseWriter, r *http.Request) {
	view, ok := s.mapView(w, r)
	if !ok {
		return
	}
	data, err := view.Features.MarshalJSON()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.Write(data) //nolint:errcheck // client may have gone away
}

func (s *Server) handleMapPage(w http.ResponseWriter, r *http.Request) {
	view, ok := s.mapView(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := hotspot.RenderMapDocument(w, mapTitle, view); err != nil {
		s.logger.Error("render map page", "error", err)
	}
}

func (s *Server) handleTweets(w http.ResponseWriter, r *http.Request) {
	tweets, err := s.deps.Documents.Tweets()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, tweets)
}

func (s *Server) handleMapDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.deps.Documents.MapDocument()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(doc) //nolint:errcheck // client may have gone away
}

// writeError maps domain errors to status codes. Missing data renders the
// not-found placeholder.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		sharedobs.WriteJSON(w, http.StatusNotFound, map[string]string{"status": "not found"})
	case errors.Is(err, pipeline.ErrNotLoaded):
		sharedobs.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
	default:
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
		sharedobs.WriteJSON(w, http.StatusInternalServerError, map[string]string{"status": "internal error"})
	}
}
