// Package webapi exposes the pipeline over HTTP for the browser UI.
// Long-running scrape and image steps stream progress as server-sent
// events; copy generation and publishing are plain JSON endpoints.
package webapi

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/mux"

	"github.com/propertypartner/social-pipeline/models"
	"github.com/propertypartner/social-pipeline/pkg/staging"
)

// Server holds the shared state behind the HTTP handlers. managedDirs
// tracks staging dirs this process created: remote cleanup is allowed
// only for those, never for a dir name a client merely claims.
type Server struct {
	cfg    *models.Config
	logger *slog.Logger
	mgr    *staging.Manager

	mu          sync.Mutex
	managedDirs map[string]bool
}

// NewServer builds the server and clears any staging left over from a
// previous run.
func NewServer(cfg *models.Config, logger *slog.Logger) (*Server, error) {
	mgr, err := staging.NewManager(cfg.ImageLocalDir)
	if err != nil {
		return nil, err
	}
	if err := mgr.CleanupAll(); err != nil {
		logger.Warn("Startup staging cleanup failed", "error", err)
	}

	return &Server{
		cfg:         cfg,
		logger:      logger,
		mgr:         mgr,
		managedDirs: map[string]bool{},
	}, nil
}

// Router wires the API routes with CORS for the local frontend.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/api/scrape", s.handleScrape).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/api/images", s.handleImages).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/api/generate-copy", s.handleGenerateCopy).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/api/publish", s.handlePublish).Methods(http.MethodPost, http.MethodOptions)
	r.Use(corsMiddleware)
	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "http://localhost:5173")
		w.Header().Set("Access-Control-Allow-Methods", "*")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) markManaged(dirName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.managedDirs[dirName] = true
}

func (s *Server) isManaged(dirName string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.managedDirs[dirName]
}

func (s *Server) unmarkManaged(dirName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.managedDirs, dirName)
}

// listingDirFromPublicURL extracts a staging dir name from one of our
// own image host URLs. URLs on any other host, or with a dir name
// outside the tm-{digits} pattern, yield "".
func (s *Server) listingDirFromPublicURL(imageURL string) string {
	parsed, err := url.Parse(imageURL)
	if err != nil {
		return ""
	}
	base, err := url.Parse(s.cfg.ImageHostURL)
	if err != nil {
		return ""
	}
	if parsed.Scheme != base.Scheme || parsed.Host != base.Host {
		return ""
	}

	prefix := strings.TrimRight(base.Path, "/") + "/"
	if !strings.HasPrefix(parsed.Path, prefix) {
		return ""
	}
	dirName := strings.SplitN(strings.TrimPrefix(parsed.Path, prefix), "/", 2)[0]
	if staging.ValidateDirName(dirName) != nil {
		return ""
	}
	return dirName
}
