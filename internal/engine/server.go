package engine

import (
	"net/http"
	"sync/atomic"

	"github.com/gorilla/mux"
)

// Server is the gateway's HTTP surface: one mux router, the handler groups,
// and the middleware chain
type Server struct {
	engine     *Engine
	router     *mux.Router
	middleware *Middleware

	databases *DatabaseHandlers
	entries   *EntryHandlers
	discovery *DiscoveryHandlers
	tasks     *TaskHandlers
}

// NewServer creates the server and wires routes and middleware
func NewServer(engine *Engine) *Server {
	s := &Server{
		engine:     engine,
		router:     mux.NewRouter(),
		middleware: NewMiddleware(engine),
		databases:  NewDatabaseHandlers(engine),
		entries:    NewEntryHandlers(engine),
		discovery:  NewDiscoveryHandlers(engine),
		tasks:      NewTaskHandlers(engine),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupMiddleware() {
	s.router.Use(s.middleware.RequestIDMiddleware)
	s.router.Use(s.middleware.LoggingMiddleware)
	s.router.Use(s.middleware.AuthenticationMiddleware)
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.healthHandler).Methods("GET")

	api := s.router.PathPrefix("/api").Subrouter()

	// Dynamic databases
	api.HandleFunc("/dynamic/databases", s.databases.CreateDatabase).Methods("POST")
	api.HandleFunc("/dynamic/databases", s.databases.ListDatabases).Methods("GET")
	api.HandleFunc("/dynamic/databases/{dbId}", s.databases.ShowDatabase).Methods("GET")
	api.HandleFunc("/dynamic/databases/{dbId}", s.databases.ModifyDatabase).Methods("PATCH")

	// Entries. The batch routes must register before the {entryId} routes so
	// the literal "batch" segment wins.
	api.HandleFunc("/dynamic/databases/{dbId}/entries/batch", s.entries.CreateEntriesBatch).Methods("POST")
	api.HandleFunc("/dynamic/databases/{dbId}/entries/batch", s.entries.ModifyEntriesBatch).Methods("PATCH")
	api.HandleFunc("/dynamic/databases/{dbId}/entries/batch", s.entries.RemoveEntriesBatch).Methods("DELETE")
	api.HandleFunc("/dynamic/databases/{dbId}/entries", s.entries.ListEntries).Methods("GET")
	api.HandleFunc("/dynamic/databases/{dbId}/entries", s.entries.CreateEntry).Methods("POST")
	api.HandleFunc("/dynamic/databases/{dbId}/entries/{entryId}", s.entries.ShowEntry).Methods("GET")
	api.HandleFunc("/dynamic/databases/{dbId}/entries/{entryId}", s.entries.ModifyEntry).Methods("PATCH")
	api.HandleFunc("/dynamic/databases/{dbId}/entries/{entryId}", s.entries.RemoveEntry).Methods("DELETE")

	// Discovery
	api.HandleFunc("/discovery/databases", s.discovery.ListWorkspaceDatabases).Methods("GET")
	api.HandleFunc("/discovery/databases/{dbId}/schema", s.discovery.ShowWorkspaceSchema).Methods("GET")
	api.HandleFunc("/discovery/databases/{dbId}/register", s.discovery.RegisterWorkspaceDatabase).Methods("POST")

	// Tasks
	api.HandleFunc("/tasks/batch", s.tasks.CreateTasksBatch).Methods("POST")
	api.HandleFunc("/tasks/batch", s.tasks.ModifyTasksBatch).Methods("PATCH")
	api.HandleFunc("/tasks/batch", s.tasks.RemoveTasksBatch).Methods("DELETE")
	api.HandleFunc("/tasks", s.tasks.ListTasks).Methods("GET")
	api.HandleFunc("/tasks", s.tasks.CreateTask).Methods("POST")
	api.HandleFunc("/tasks/{taskId}", s.tasks.ShowTask).Methods("GET")
	api.HandleFunc("/tasks/{taskId}", s.tasks.ModifyTask).Methods("PATCH")
	api.HandleFunc("/tasks/{taskId}", s.tasks.RemoveTask).Methods("DELETE")
	api.HandleFunc("/tasks/{taskId}/complete", s.tasks.CompleteTask).Methods("POST")
}

// healthHandler reports liveness plus basic counters; it bypasses auth
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"status":             "healthy",
		"requests_processed": atomic.LoadInt64(&s.engine.metrics.requestsProcessed),
		"errors":             atomic.LoadInt64(&s.engine.metrics.errors),
		"ongoing_operations": atomic.LoadInt32(&s.engine.state.ongoingOperations),
	})
}
