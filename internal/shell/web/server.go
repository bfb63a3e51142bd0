package web

import (
	"context"
	"embed"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"go.uber.org/zap"

	"github.com/resume2job/resume2job/internal/workspace"
)

const (
	DefaultAddr = "127.0.0.1:8080"

	maxUploadBytes  = 10 << 20
	shutdownTimeout = 5 * time.Second
)

//go:embed static/index.html
var static embed.FS

// Server is the local web front end over one workspace. It serves a single
// user, the way one browser tab would.
type Server struct {
	router         *mux.Router
	ws             *workspace.Workspace
	md             goldmark.Markdown
	logger         *zap.Logger
	addr           string
	allowedOrigins []string
}

func NewServer(ws *workspace.Workspace, addr string, allowedOrigins []string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if strings.TrimSpace(addr) == "" {
		addr = DefaultAddr
	}

	s := &Server{
		router:         mux.NewRouter(),
		ws:             ws,
		md:             goldmark.New(goldmark.WithExtensions(extension.GFM)),
		logger:         logger,
		addr:           addr,
		allowedOrigins: allowedOrigins,
	}
	s.setupRoutes()

	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/", s.indexHandler).Methods(http.MethodGet)
	s.router.HandleFunc("/health", s.healthHandler).Methods(http.MethodGet)

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/state", s.stateHandler).Methods(http.MethodGet)
	api.HandleFunc("/resume", s.resumeHandler).Methods(http.MethodPost)
	api.HandleFunc("/jd", s.jobDescriptionHandler).Methods(http.MethodPost)
	api.HandleFunc("/messages", s.messageHandler).Methods(http.MethodPost)
	api.HandleFunc("/reset", s.resetHandler).Methods(http.MethodPost)
}

// Handler returns the routes wrapped with CORS.
func (s *Server) Handler() http.Handler {
	origins := s.allowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://" + s.addr}
	}

	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})

	return c.Handler(s.router)
}

// Start serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("web shell listening", zap.String("url", "http://"+s.addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
