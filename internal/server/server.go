// Package server serves the dashboard page, the rendered map frame and the
// JSON API over local HTTP.
package server

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"image/png"
	"io"
	"io/fs"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/statewatch/statewatch/internal/activity"
	"github.com/statewatch/statewatch/internal/appdata"
	"github.com/statewatch/statewatch/internal/board"
	"github.com/statewatch/statewatch/internal/geo"
	"github.com/statewatch/statewatch/internal/observability"
	"github.com/statewatch/statewatch/internal/render"
	"github.com/statewatch/statewatch/internal/store"
	"github.com/statewatch/statewatch/internal/ticker"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// Server is the HTTP server for the dashboard.
type Server struct {
	board    *board.Board
	renderer *render.Renderer
	scorer   *activity.Scorer
	store    *store.Store
	metrics  *observability.Metrics
	pages    map[string]*template.Template
	mux      *http.ServeMux
}

// New creates a new Server.
func New(b *board.Board, rnd *render.Renderer, sc *activity.Scorer, st *store.Store, m *observability.Metrics) (*Server, error) {
	base, err := template.New("base.html").ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("parsing base template: %w", err)
	}

	pageNames := []string{"index.html"}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning base for %s: %w", name, err)
		}
		_, err = clone.ParseFS(templateFS, "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		pages[name] = clone
	}

	s := &Server{board: b, renderer: rnd, scorer: sc, store: st, metrics: m, pages: pages, mux: http.NewServeMux()}
	s.routes()
	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	staticSub, _ := fs.Sub(staticFS, "static")
	s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))

	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.HandleFunc("/map.png", s.handleMapPNG)
	s.mux.HandleFunc("/api/stories", s.handleStories)
	s.mux.HandleFunc("/api/activity", s.handleActivity)
	s.mux.HandleFunc("/api/selection", s.handleSelection)
	s.mux.HandleFunc("/api/ticker", s.handleTicker)
	s.mux.HandleFunc("/api/settings", s.handleSettings)
	s.mux.HandleFunc("/api/groups", s.handleGroups)
	s.mux.HandleFunc("/api/groups/activate", s.handleActivateGroup)
	s.mux.HandleFunc("/api/zoom", s.handleZoom)
	s.mux.Handle("/metrics", promhttp.Handler())
	s.mux.HandleFunc("/healthz", s.handleHealthz)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	snap := s.board.Snapshot()
	s.render(w, "index.html", map[string]any{
		"Snapshot":      snap,
		"Lines":         ticker.Lines(snap, time.Now()),
		"StoryCount":    len(snap.Stories),
		"Phase":         int(s.renderer.Phase()),
		"TickerSeconds": tickerSeconds(snap.Settings.TickerSpeed),
	})
}

// tickerSeconds derives the scroll animation duration from the ticker speed
// knob. Higher speed scrolls faster; the default of 50 gives a 60s loop.
func tickerSeconds(speed int) int {
	if speed <= 0 {
		speed = appdata.DefaultSettings().TickerSpeed
	}
	return 3000 / speed
}

func (s *Server) handleMapPNG(w http.ResponseWriter, r *http.Request) {
	snap := s.board.Snapshot()
	heat := s.scorer.Snapshot(snap.Stories, snap.Feeds, snap.Settings.HeatmapDecay())

	width, height := s.renderer.Size()
	surface := render.NewRasterSurface(width, height)
	s.renderer.Frame(surface, heat, snap.Selection, snap.Settings.HeatmapDecay(), time.Now())
	s.metrics.FramesRendered.Inc()

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if err := png.Encode(w, surface.Image()); err != nil {
		log.Printf("Error encoding map frame: %v", err)
	}
}

func (s *Server) handleStories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"stories": s.board.Stories()})
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	snap := s.board.Snapshot()
	heat := s.scorer.Snapshot(snap.Stories, snap.Feeds, snap.Settings.HeatmapDecay())
	writeJSON(w, map[string]any{"activity": heat})
}

// clickRequest is a map click in canvas-space coordinates.
type clickRequest struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Modifier bool    `json:"modifier"`
}

func (s *Server) handleSelection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, map[string]any{"selection": s.board.Selection()})
	case http.MethodPost:
		var click clickRequest
		if err := decodeJSON(r.Body, &click); err != nil {
			http.Error(w, "Bad request", http.StatusBadRequest)
			return
		}
		hit := s.board.HandleClick(s.renderer.Paths(), geo.Point{X: click.X, Y: click.Y}, click.Modifier)
		result := "miss"
		if hit != "" {
			result = "hit"
		}
		s.metrics.SelectionClicks.WithLabelValues(result).Inc()
		writeJSON(w, map[string]any{"hit": hit, "selection": s.board.Selection()})
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleTicker(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"lines": ticker.Lines(s.board.Snapshot(), time.Now())})
}

// handleSettings reads or writes the settings override. A POST body is a
// JSON object merged key by key over the current settings, persisted under
// the settings override key so it survives restarts.
func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, map[string]any{"settings": s.board.Settings()})
	case http.MethodPost:
		body, err := io.ReadAll(io.LimitReader(r.Body, 1<<16))
		if err != nil {
			http.Error(w, "Bad request", http.StatusBadRequest)
			return
		}
		merged := s.board.Settings()
		if err := json.Unmarshal(body, &merged); err != nil {
			http.Error(w, "Bad request", http.StatusBadRequest)
			return
		}
		if err := s.store.Put(store.KeySettings, body); err != nil {
			log.Printf("Error persisting settings override: %v", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		s.board.UpdateSettings(merged)
		writeJSON(w, map[string]any{"settings": merged})
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleGroups reads or replaces the group list. A POST body is a JSON
// array, the same shape the override store holds.
func (s *Server) handleGroups(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, map[string]any{"groups": s.board.Snapshot().Groups})
	case http.MethodPost:
		body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
		if err != nil {
			http.Error(w, "Bad request", http.StatusBadRequest)
			return
		}
		var groups []appdata.Group
		if err := json.Unmarshal(body, &groups); err != nil {
			http.Error(w, "Bad request", http.StatusBadRequest)
			return
		}
		if err := s.store.Put(store.KeyGroups, body); err != nil {
			log.Printf("Error persisting groups override: %v", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		s.board.UpdateGroups(groups)
		writeJSON(w, map[string]any{"groups": groups})
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleActivateGroup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		ID string `json:"id"`
	}
	if err := decodeJSON(r.Body, &req); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	s.board.ActivateGroup(req.ID)
	writeJSON(w, map[string]any{"activeGroup": req.ID})
}

func (s *Server) handleZoom(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := decodeJSON(r.Body, &req); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	s.board.RequestZoom(req.ID, req.Name)
	writeJSON(w, map[string]any{"zoomedState": req.ID})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "ok")
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	tmpl, ok := s.pages[name]
	if !ok {
		log.Printf("Template %s not found", name)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "base.html", data); err != nil {
		log.Printf("Error rendering template %s: %v", name, err)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func decodeJSON(r io.Reader, v any) error {
	dec := json.NewDecoder(io.LimitReader(r, 1<<16))
	return dec.Decode(v)
}

// Serve starts the HTTP server on the given port.
func Serve(b *board.Board, rnd *render.Renderer, sc *activity.Scorer, st *store.Store, m *observability.Metrics, port int) error {
	srv, err := New(b, rnd, sc, st, m)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("127.0.0.1:%d", port)
	log.Printf("Dashboard listening on http://%s", addr)
	return http.ListenAndServe(addr, srv.Handler())
}
