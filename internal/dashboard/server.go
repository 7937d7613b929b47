package dashboard

import (
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"log"
	"net/http"

	"cortex-sentinel/internal/export"
	"cortex-sentinel/internal/feed"
	"cortex-sentinel/internal/generate"
	"cortex-sentinel/internal/metrics"
	"cortex-sentinel/internal/session"
	"cortex-sentinel/internal/types"
)

//go:embed templates/*
var templatesFS embed.FS

// Server is the console HTTP server
type Server struct {
	feed      *feed.Feed
	sessions  *session.Store
	generator generate.Generator
	cfg       *types.Config
	submit    func(logText string) types.LogEntry
	templates *template.Template
	port      string
}

// NewServer creates a new console server. submit performs the full
// classification flow for one line.
func NewServer(f *feed.Feed, sessions *session.Store, generator generate.Generator, cfg *types.Config, submit func(logText string) types.LogEntry) (*Server, error) {
	tmpl, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	return &Server{
		feed:      f,
		sessions:  sessions,
		generator: generator,
		cfg:       cfg,
		submit:    submit,
		templates: tmpl,
		port:      cfg.Dashboard.Port,
	}, nil
}

// Start starts the HTTP server. Blocks.
func (s *Server) Start() error {
	mux := http.NewServeMux()

	// Console UI
	mux.HandleFunc("GET /{$}", s.handleConsole)

	// API endpoints
	mux.HandleFunc("GET /api/v1/logs", s.handleLogs)
	mux.HandleFunc("DELETE /api/v1/logs", s.handlePurge)
	mux.HandleFunc("GET /api/v1/stats", s.handleStats)
	mux.HandleFunc("POST /api/v1/analyze", s.handleAnalyze)
	mux.HandleFunc("POST /api/v1/simulate", s.handleSimulate)
	mux.HandleFunc("GET /api/v1/sessions", s.handleListSessions)
	mux.HandleFunc("POST /api/v1/sessions", s.handleSaveSession)
	mux.HandleFunc("DELETE /api/v1/sessions", s.handleClearSessions)
	mux.HandleFunc("GET /api/v1/sessions/{id}/logs", s.handleLoadSession)
	mux.HandleFunc("GET /api/v1/export", s.handleExport)
	mux.HandleFunc("POST /api/v1/verify", s.handleVerify)

	log.Printf("[DASHBOARD] Starting on %s", s.port)
	return http.ListenAndServe(s.port, mux)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// handleConsole renders the console page
func (s *Server) handleConsole(w http.ResponseWriter, r *http.Request) {
	sessions, _ := s.sessions.List()

	data := map[string]any{
		"Logs":     s.feed.Entries(),
		"Stats":    s.feed.Stats(),
		"Sessions": sessions,
		"Vectors":  types.KnownVectors,
	}

	s.templates.ExecuteTemplate(w, "console.html", data)
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.feed.Entries())
}

func (s *Server) handlePurge(w http.ResponseWriter, r *http.Request) {
	s.feed.Purge()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.feed.Stats())
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Log string `json:"log"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Log == "" {
		http.Error(w, "log text required", http.StatusBadRequest)
		return
	}

	entry := s.submit(req.Log)
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Vector string `json:"vector"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Vector == "" {
		http.Error(w, "attack vector required", http.StatusBadRequest)
		return
	}

	line, mode := s.generator.Generate(r.Context(), types.AttackVector(req.Vector))
	metrics.GenerationsTotal.WithLabelValues(string(mode)).Inc()

	writeJSON(w, http.StatusOK, map[string]string{
		"log":  line,
		"mode": string(mode),
	})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.sessions.List()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleSaveSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		http.Error(w, "session name required", http.StatusBadRequest)
		return
	}

	sess, err := s.sessions.Save(req.Name, req.Description, s.feed.Entries())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	metrics.SessionsSaved.Inc()
	writeJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleClearSessions(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Clear(); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.feed.Purge()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLoadSession(w http.ResponseWriter, r *http.Request) {
	logs, err := s.sessions.Load(r.PathValue("id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="sentinel-telemetry.csv"`)
	if err := export.Write(w, s.feed.Entries()); err != nil {
		log.Printf("[DASHBOARD] CSV export failed: %v", err)
	}
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key string `json:"key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Key == "" {
		http.Error(w, "api key required", http.StatusBadRequest)
		return
	}

	gen := generate.NewLLMGenerator(s.cfg.Generator.APIURL, s.cfg.Generator.Model, req.Key)
	err := gen.Verify(r.Context())
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]string{"status": "connected"})
	case errors.Is(err, generate.ErrAuthRejected):
		writeJSON(w, http.StatusUnauthorized, map[string]string{"status": "rejected", "error": "credential rejected by provider"})
	default:
		writeJSON(w, http.StatusBadGateway, map[string]string{"status": "unreachable", "error": "provider unreachable (network/CORS)"})
	}
}
