package server

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/driftdb/driftdb/pkg/api"
	"github.com/driftdb/driftdb/pkg/storage"
)

// Server wires the storage engine to the HTTP API
type Server struct {
	router   *mux.Router
	dbEngine *storage.Engine
}

// NewServer creates a new instance of Server with the given storage options
func NewServer(options ...storage.Option) *Server {
	s := &Server{
		router:   mux.NewRouter(),
		dbEngine: storage.NewEngine(options...),
	}

	handler := api.NewHandler(s.dbEngine)
	handler.RegisterRoutes(s.router)

	// Use the logging middleware for all routes
	s.router.Use(requestLoggerMiddleware)

	// Customize NotFoundHandler to log 404s
	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("WARN: No route found for %s %s", r.Method, r.URL.Path)
		http.NotFound(w, r)
	})

	return s
}

// requestLoggerMiddleware logs the method, URL path, and duration for each request.
func requestLoggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		elapsed := time.Since(start)
		log.Printf("INFO: Request %s %s took %s", r.Method, r.URL.Path, elapsed)
	})
}

// InitDB loads persisted data and starts background workers
func (s *Server) InitDB(filename string) {
	if err := s.dbEngine.LoadFromFile(filename); err != nil {
		log.Printf("ERROR: Could not load DB from file %s: %v", filename, err)
	} else {
		log.Printf("INFO: Loaded DB from file %s successfully", filename)
	}
	s.dbEngine.StartBackgroundWorkers()
}

// SaveDB saves the current database state to file
func (s *Server) SaveDB(filename string) {
	if err := s.dbEngine.SaveToFile(filename); err != nil {
		log.Printf("ERROR: Could not save DB to file %s: %v", filename, err)
	} else {
		log.Printf("INFO: Saved DB to file %s successfully", filename)
	}
}

// StopBackgroundWorkers stops the engine's background workers
func (s *Server) StopBackgroundWorkers() {
	s.dbEngine.StopBackgroundWorkers()
}

// Engine exposes the underlying storage engine
func (s *Server) Engine() *storage.Engine {
	return s.dbEngine
}

// Router exposes the internal mux.Router.
func (s *Server) Router() http.Handler {
	return s.router
}
