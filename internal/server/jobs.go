package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/openclaw/picoclaw/internal/store"
	"github.com/openclaw/picoclaw/scheduler"
)

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.store.ListJobs(r.Context(), false)
	if err != nil {
		s.serverError(w, "list jobs", err)
		return
	}
	writeJSON(w, http.StatusOK, jobs)
}

type createJobRequest struct {
	Name        string          `json:"name"`
	JobType     string          `json:"job_type"`
	TriggerType string          `json:"trigger_type"`
	TriggerSpec string          `json:"trigger_spec"`
	Config      json.RawMessage `json:"config"`
	Enabled     *bool           `json:"enabled"`
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var req createJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || req.JobType == "" {
		writeError(w, http.StatusBadRequest, "name and job_type are required")
		return
	}
	if _, err := scheduler.ParseTrigger(req.TriggerType, req.TriggerSpec); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	job := &store.Job{
		Name:        req.Name,
		JobType:     req.JobType,
		TriggerType: req.TriggerType,
		TriggerSpec: req.TriggerSpec,
		Config:      string(req.Config),
		Enabled:     enabled,
	}
	if err := s.store.CreateJob(r.Context(), job); err != nil {
		s.serverError(w, "create job", err)
		return
	}
	writeJSON(w, http.StatusCreated, job)
}

func (s *Server) handleSetJobEnabled(enabled bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := s.store.SetJobEnabled(r.Context(), r.PathValue("id"), enabled)
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "job not found")
			return
		}
		if err != nil {
			s.serverError(w, "update job", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleDeleteJob(w http.ResponseWriter, r *http.Request) {
	err := s.store.DeleteJob(r.Context(), r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	if err != nil {
		s.serverError(w, "delete job", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
