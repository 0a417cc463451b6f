package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/medibuddy/medibuddy/internal/models"
	"github.com/medibuddy/medibuddy/internal/service"
)

// Server exposes the query surface consumed by UI collaborators.
type Server struct {
	svc        *service.Service
	dispatcher *service.Dispatcher
	logger     *logrus.Logger
	registry   *prometheus.Registry
	mux        *http.ServeMux
}

// NewServer creates a Server, registers all routes, and returns it.
func NewServer(svc *service.Service, dispatcher *service.Dispatcher, registry *prometheus.Registry, logger *logrus.Logger) *Server {
	s := &Server{svc: svc, dispatcher: dispatcher, logger: logger, registry: registry, mux: http.NewServeMux()}
	s.routes()
	return s
}

// Handler returns the http.Handler that can be passed to http.Server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	// API – Medicines
	s.mux.HandleFunc("GET /api/medicines", s.handleListMedicines)
	s.mux.HandleFunc("POST /api/medicines", s.handleCreateMedicine)
	s.mux.HandleFunc("PUT /api/medicines/{id}", s.handleUpdateMedicine)
	s.mux.HandleFunc("DELETE /api/medicines/{id}", s.handleDeleteMedicine)
	s.mux.HandleFunc("GET /api/medicines/low-stock", s.handleLowStock)

	// API – Alarms
	s.mux.HandleFunc("GET /api/alarms", s.handleListAlarms)
	s.mux.HandleFunc("PUT /api/medicines/{id}/alarms/{alarmID}", s.handleToggleAlarm)

	// API – Scheduler lifecycle
	s.mux.HandleFunc("POST /api/scheduler/start", s.handleStartScheduler)
	s.mux.HandleFunc("POST /api/scheduler/stop", s.handleStopScheduler)
	s.mux.HandleFunc("GET /api/scheduler", s.handleSchedulerStatus)

	// Operational endpoints
	s.mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
}

// ---------------------------------------------------------------------------
// JSON helpers
// ---------------------------------------------------------------------------

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Errorf("Failed to encode response: %v", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, models.ErrNotFound):
		status = http.StatusNotFound
	}
	if status == http.StatusInternalServerError {
		s.logger.Errorf("Request failed: %v", err)
	}
	s.respondJSON(w, status, map[string]string{"error": err.Error()})
}

// ---------------------------------------------------------------------------
// Medicines
// ---------------------------------------------------------------------------

func (s *Server) handleListMedicines(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if q := r.URL.Query().Get("q"); q != "" {
		medicines, err := s.svc.Search(ctx, q)
		if err != nil {
			s.respondError(w, err)
			return
		}
		s.respondJSON(w, http.StatusOK, medicines)
		return
	}

	if t := r.URL.Query().Get("type"); t != "" {
		medicines, err := s.svc.ListByType(ctx, models.MedicineType(t))
		if err != nil {
			s.respondError(w, err)
			return
		}
		s.respondJSON(w, http.StatusOK, medicines)
		return
	}

	medicines, err := s.svc.ListAll(ctx)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, medicines)
}

func (s *Server) handleCreateMedicine(w http.ResponseWriter, r *http.Request) {
	var medicine models.Medicine
	if err := json.NewDecoder(r.Body).Decode(&medicine); err != nil {
		s.respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	created, err := s.svc.Create(r.Context(), medicine)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateMedicine(w http.ResponseWriter, r *http.Request) {
	var medicine models.Medicine
	if err := json.NewDecoder(r.Body).Decode(&medicine); err != nil {
		s.respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	medicine.ID = r.PathValue("id")

	updated, err := s.svc.Update(r.Context(), medicine)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteMedicine(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLowStock(w http.ResponseWriter, r *http.Request) {
	threshold := service.DefaultLowStockThreshold
	if v := r.URL.Query().Get("threshold"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			s.respondJSON(w, http.StatusBadRequest, map[string]string{"error": "threshold must be an integer"})
			return
		}
		threshold = n
	}

	medicines, err := s.svc.ListLowStock(r.Context(), threshold)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, medicines)
}

// ---------------------------------------------------------------------------
// Alarms
// ---------------------------------------------------------------------------

func (s *Server) handleListAlarms(w http.ResponseWriter, r *http.Request) {
	entries, err := s.svc.ListAlarms(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, entries)
}

func (s *Server) handleToggleAlarm(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Enabled bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	updated, err := s.svc.ToggleAlarm(r.Context(), r.PathValue("id"), r.PathValue("alarmID"), body.Enabled)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, updated)
}

// ---------------------------------------------------------------------------
// Scheduler lifecycle
// ---------------------------------------------------------------------------

func (s *Server) handleStartScheduler(w http.ResponseWriter, r *http.Request) {
	s.dispatcher.Start()
	s.respondJSON(w, http.StatusOK, map[string]bool{"running": s.dispatcher.Running()})
}

func (s *Server) handleStopScheduler(w http.ResponseWriter, r *http.Request) {
	s.dispatcher.Stop()
	s.respondJSON(w, http.StatusOK, map[string]bool{"running": s.dispatcher.Running()})
}

func (s *Server) handleSchedulerStatus(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]bool{"running": s.dispatcher.Running()})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
