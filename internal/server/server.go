package server

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/TobiSchelling/bizwire/internal/database"
	"github.com/TobiSchelling/bizwire/internal/dataset"
	"github.com/TobiSchelling/bizwire/internal/record"
	"github.com/TobiSchelling/bizwire/internal/report"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

var md = goldmark.New(goldmark.WithExtensions(extension.Table))

const defaultCycleLimit = 50

// History is the run history shown on the cycles page.
type History interface {
	GetRecentCycles(ctx context.Context, limit int) ([]database.Cycle, error)
	GetStats(ctx context.Context) (*database.Stats, error)
}

// Server is the HTTP server for browsing the dataset and run history.
type Server struct {
	repo  dataset.Repository
	db    History
	pages map[string]*template.Template
	mux   *http.ServeMux
}

// New creates a new Server.
func New(repo dataset.Repository, db History) (*Server, error) {
	funcMap := template.FuncMap{
		"markdown": renderMarkdown,
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
	}

	// Parse base template first
	base, err := template.New("base.html").Funcs(funcMap).ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("parsing base template: %w", err)
	}

	// Each page gets its own clone of base so {{define "content"}} does not clash.
	pageNames := []string{"index.html", "cycles.html"}
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

	s := &Server{repo: repo, db: db, pages: pages, mux: http.NewServeMux()}
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
	s.mux.HandleFunc("/cycles", s.handleCycles)
	s.mux.HandleFunc("/api/records", s.handleRecordsAPI)
}

func (s *Server) loadRecords(ctx context.Context) ([]record.Record, bool, error) {
	records, err := s.repo.Load(ctx)
	if errors.Is(err, dataset.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return records, true, nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	records, exists, err := s.loadRecords(r.Context())
	if err != nil {
		slog.Error("loading dataset", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	// Newest stories first on the page; the dataset itself stays append-ordered.
	reversed := make([]record.Record, len(records))
	for i, rec := range records {
		reversed[len(records)-1-i] = rec
	}

	s.render(w, "index.html", map[string]any{
		"Location": s.repo.Location(),
		"Exists":   exists,
		"Count":    len(records),
		"Table":    report.Markdown(reversed),
	})
}

func (s *Server) handleCycles(w http.ResponseWriter, r *http.Request) {
	limit := defaultCycleLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	cycles, err := s.db.GetRecentCycles(r.Context(), limit)
	if err != nil {
		slog.Error("loading cycles", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	stats, err := s.db.GetStats(r.Context())
	if err != nil {
		slog.Error("loading cycle stats", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	s.render(w, "cycles.html", map[string]any{
		"Cycles": cycles,
		"Stats":  stats,
	})
}

type apiRecord struct {
	Title              string   `json:"title"`
	Summary            string   `json:"summary"`
	URL                string   `json:"url"`
	PublishedAt        string   `json:"published_at"`
	MentionedCompanies []string `json:"mentioned_companies"`
}

func (s *Server) handleRecordsAPI(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	records, _, err := s.loadRecords(r.Context())
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	out := make([]apiRecord, 0, len(records))
	for _, rec := range records {
		companies := rec.MentionedCompanies()
		if companies == nil {
			companies = []string{}
		}
		out = append(out, apiRecord{
			Title:              rec.Title,
			Summary:            rec.Summary,
			URL:                rec.URL,
			PublishedAt:        rec.PublishedAt,
			MentionedCompanies: companies,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(out); err != nil {
		slog.Error("encoding records", "err", err)
	}
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	tmpl, ok := s.pages[name]
	if !ok {
		slog.Error("template not found", "name", name)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "base.html", data); err != nil {
		slog.Error("rendering template", "name", name, "err", err)
	}
}

func renderMarkdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(buf.String()) //nolint: gosec
}

// Serve starts the HTTP server on the given port and stops when ctx is done.
func Serve(ctx context.Context, repo dataset.Repository, db History, port int) error {
	srv, err := New(repo, db)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("127.0.0.1:%d", port)
	httpSrv := &http.Server{Addr: addr, Handler: srv.Handler()}

	go func() {
		<-ctx.Done()
		httpSrv.Shutdown(context.Background())
	}()

	slog.Info("server listening", "url", "http://"+addr)
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
