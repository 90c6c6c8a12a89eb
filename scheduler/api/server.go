// Package api exposes the driver scheduler over HTTP/JSON. It is a thin
// translation layer: decode the request, call the scheduler, encode the
// result. All validation and state logic lives behind server.Scheduler.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/drydocklab/drydock/common/stats"
	"github.com/drydocklab/drydock/scheduler/domain"
	"github.com/drydocklab/drydock/scheduler/server"
)

const submissionsPath = "/api/v1/submissions"

func NewServer(addr string, scheduler server.Scheduler, stat stats.StatsReceiver) *Server {
	if stat == nil {
		stat = stats.NilStatsReceiver()
	}
	return &Server{
		Addr:      addr,
		Scheduler: scheduler,
		Stats:     stat,
	}
}

// Server serves the submission API plus health and stats endpoints.
type Server struct {
	Addr      string
	Scheduler server.Scheduler
	Stats     stats.StatsReceiver
}

func (s *Server) Serve() error {
	mux := http.NewServeMux()
	s.Register(mux)
	log.Info("Serving http on ", s.Addr)
	return http.ListenAndServe(s.Addr, mux)
}

func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc(submissionsPath, s.submitHandler)
	mux.HandleFunc(submissionsPath+"/", s.killHandler)
	mux.HandleFunc("/api/v1/status", s.statusHandler)
	mux.HandleFunc("/admin/metrics.json", s.statsHandler)
	mux.HandleFunc("/health", healthHandler)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	fmt.Fprintf(w, "ok")
}

func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	stats.WriteJSONOnce(s.Stats, w)
}

func (s *Server) submitHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var desc domain.DriverDescription
	if err := json.NewDecoder(r.Body).Decode(&desc); err != nil {
		writeJSON(w, http.StatusBadRequest, domain.SubmissionResult{
			Success: false,
			Message: fmt.Sprintf("malformed submission: %v", err),
		})
		return
	}

	result := s.Scheduler.Submit(desc)
	code := http.StatusOK
	if !result.Success {
		code = http.StatusBadRequest
	}
	writeJSON(w, code, result)
}

// killHandler serves POST /api/v1/submissions/{id}/kill.
func (s *Server) killHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, submissionsPath+"/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] != "kill" {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	result := s.Scheduler.Kill(parts[0])
	code := http.StatusOK
	if !result.Success {
		code = http.StatusConflict
	}
	writeJSON(w, code, result)
}

func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.Scheduler.Status())
}

func writeJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.WithError(err).Error("Failed to encode http response")
	}
}
