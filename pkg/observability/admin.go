package observability

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/justyntemme/vst3host/pkg/hosterr"
)

// Inventory is what the admin server reports on. Values are encoded as
// JSON.
type Inventory interface {
	ListInstances() interface{}
	DescribeInstance(handle uint32) (interface{}, error)
	InstanceParameters(handle uint32) (interface{}, error)
}

// AdminServer serves health, metrics and instance introspection.
type AdminServer struct {
	inventory Inventory
	metrics   *Metrics
	log       *logrus.Logger
	router    *mux.Router
	server    *http.Server
	started   time.Time
}

// NewAdminServer creates a server on addr.
func NewAdminServer(addr string, inventory Inventory, metrics *Metrics, log *logrus.Logger) *AdminServer {
	if log == nil {
		log = logrus.New()
	}
	s := &AdminServer{
		inventory: inventory,
		metrics:   metrics,
		log:       log,
		router:    mux.NewRouter(),
		started:   time.Now(),
	}
	s.RegisterRoutes(s.router)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// RegisterRoutes registers the admin routes on router.
func (s *AdminServer) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/healthz", s.healthz).Methods("GET")
	if s.metrics != nil {
		router.Handle("/metrics", s.metrics.Handler()).Methods("GET")
	}
	router.HandleFunc("/instances", s.listInstances).Methods("GET")
	router.HandleFunc("/instances/{handle:[0-9]+}", s.getInstance).Methods("GET")
	router.HandleFunc("/instances/{handle:[0-9]+}/parameters", s.getParameters).Methods("GET")
}

// Handler returns the router.
func (s *AdminServer) Handler() http.Handler {
	return s.router
}

// Serve accepts connections on l until Shutdown.
func (s *AdminServer) Serve(l net.Listener) error {
	s.log.WithField("addr", l.Addr().String()).Info("Admin server listening")
	if err := s.server.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ListenAndServe listens on the configured address and serves.
func (s *AdminServer) ListenAndServe() error {
	l, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return err
	}
	return s.Serve(l)
}

// Shutdown stops the server gracefully.
func (s *AdminServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// healthz handles GET /healthz
func (s *AdminServer) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"uptime": time.Since(s.started).String(),
	})
}

// listInstances handles GET /instances
func (s *AdminServer) listInstances(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.inventory.ListInstances())
}

// getInstance handles GET /instances/{handle}
func (s *AdminServer) getInstance(w http.ResponseWriter, r *http.Request) {
	s.withHandle(w, r, s.inventory.DescribeInstance)
}

// getParameters handles GET /instances/{handle}/parameters
func (s *AdminServer) getParameters(w http.ResponseWriter, r *http.Request) {
	s.withHandle(w, r, s.inventory.InstanceParameters)
}

func (s *AdminServer) withHandle(w http.ResponseWriter, r *http.Request, fn func(uint32) (interface{}, error)) {
	handle, err := strconv.ParseUint(mux.Vars(r)["handle"], 10, 32)
	if err != nil {
		http.Error(w, "invalid handle", http.StatusBadRequest)
		return
	}
	v, err := fn(uint32(handle))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, hosterr.ErrNotFound) {
			status = http.StatusNotFound
		}
		writeJSON(w, status, map[string]interface{}{
			"error": err.Error(),
			"kind":  hosterr.KindOf(err),
		})
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
