package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vin-jex/job-orchestrator/internal/observability"
	"github.com/vin-jex/job-orchestrator/internal/store"
)

// handleHealth godoc
// @Summary      Liveness probe
// @Description  Indicates whether the process is alive
// @Tags         ops
// @Produce      text/plain
// @Success      200 {string} string "ok"
// @Router       /healthz [get]
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// handleReady godoc
// @Summary      Readiness probe
// @Description  Indicates whether the service can accept traffic
// @Tags         ops
// @Produce      text/plain
// @Success      200 {string} string "ready"
// @Failure      503 {string} string "not ready"
// @Router       /readyz [get]
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), time.Second)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		http.Error(w, "not ready", http.StatusServiceUnavailable)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ready"))
}

// handleMetrics godoc
// @Summary      Prometheus metrics
// @Description  Exposes service metrics in Prometheus format
// @Tags         ops
// @Produce      text/plain
// @Success      200 {string} string
// @Router       /metrics [get]
func (s *Server) handleMetrics() http.Handler {
	return promhttp.Handler()
}

// @Summary Create a new job
// @Description Enqueue a job for a worker to pick up
// @Tags Jobs
// @Accept json
// @Produce json
// @Param request body CreateJobRequest true "Job creation payload"
// @Success 201 {object} CreateJobResponse
// @Failure 400 {string} string
// @Failure 500 {string} string
// @Router /v1/jobs [post]
func (s *Server) handleCreateJob(
	writer http.ResponseWriter,
	request *http.Request,
) {
	var createRequest CreateJobRequest

	if err := json.NewDecoder(request.Body).Decode(&createRequest); err != nil {
		http.Error(writer, "invalid JSON body", http.StatusBadRequest)
		return
	}

	if createRequest.TaskIdentifier == "" || createRequest.MaxAttempts < 1 {
		http.Error(writer, "invalid job parameters", http.StatusBadRequest)
		return
	}

	runAt := time.Now()
	if createRequest.RunAt != nil {
		parsed, err := time.Parse(time.RFC3339, *createRequest.RunAt)
		if err != nil {
			http.Error(writer, "invalid run_at, expected RFC3339", http.StatusBadRequest)
			return
		}
		runAt = parsed
	}

	jobID := uuid.New()

	payloadBytes, err := json.Marshal(createRequest.Payload)
	if err != nil {
		http.Error(writer, "invalid payload", http.StatusBadRequest)
		return
	}

	err = s.store.CreateJob(
		request.Context(),
		jobID,
		createRequest.TaskIdentifier,
		payloadBytes,
		createRequest.Flags,
		createRequest.Priority,
		runAt,
		createRequest.MaxAttempts,
	)
	if err != nil {
		http.Error(writer, "failed to create job", http.StatusInternalServerError)
		return
	}

	observability.LoggerFromContext(request.Context()).Info("job created", "job_id", jobID.String(), "task_identifier", createRequest.TaskIdentifier)

	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(writer).Encode(CreateJobResponse{JobID: jobID.String()})
}

// @Summary Cancel a job
// @Description Cancel a job that is not currently locked by a worker. A locked, missing or already-cancelled job returns 409.
// @Tags Jobs
// @Param jobID path string true "Job ID"
// @Success 200
// @Failure 400 {string} string
// @Failure 409 {string} string
// @Failure 500 {string} string
// @Router /v1/jobs/{jobID}/cancel [post]
func (s *Server) handleCancelJob(
	writer http.ResponseWriter,
	request *http.Request,
) {
	jobID, err := uuid.Parse(mux.Vars(request)["jobID"])
	if err != nil {
		http.Error(writer, "invalid job id", http.StatusBadRequest)
		return
	}

	err = s.store.CancelJob(request.Context(), jobID)
	if err != nil {
		if err == store.ErrInvalidStateTransition {
			http.Error(writer, "job cannot be cancelled", http.StatusConflict)
			return
		}

		http.Error(writer, "failed to cancel job", http.StatusInternalServerError)
		return
	}
	observability.LoggerFromContext(request.Context()).Info("job cancelled", "job_id", jobID.String())

	writer.WriteHeader(http.StatusOK)
}

// @Summary Get job details
// @Description Fetch the authoritative state and metadata of a job
// @Tags Jobs
// @Produce json
// @Param jobID path string true "Job ID"
// @Success 200 {object} JobResponse
// @Failure 400 {string} string
// @Failure 404 {string} string
// @Failure 500 {string} string
// @Router /v1/jobs/{jobID} [get]
func (s *Server) handleGetJob(
	writer http.ResponseWriter,
	request *http.Request,
) {
	jobID, err := uuid.Parse(mux.Vars(request)["jobID"])
	if err != nil {
		http.Error(writer, "invalid job id", http.StatusBadRequest)
		return
	}
	job, err := s.store.GetJobByID(request.Context(), jobID)
	if err != nil {
		http.Error(writer, "failed to fetch job", http.StatusInternalServerError)
		return
	}
	if job == nil {
		http.Error(writer, "job not found", http.StatusNotFound)
		return
	}

	writer.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(writer).Encode(jobToResponse(job))
}

// @Summary List jobs
// @Description List jobs, optionally filtered by lock state
// @Tags Jobs
// @Produce json
// @Param locked query string false "true to list only locked jobs (running, or failed with no attempts left), false for only unlocked ones (pending or awaiting retry)"
// @Param limit query int false "Maximum number of jobs (default 100)"
// @Success 200 {object} ListJobsResponse
// @Failure 500 {string} string
// @Router /v1/jobs [get]
func (s *Server) handleListJobs(
	writer http.ResponseWriter,
	request *http.Request,
) {
	query := request.URL.Query()

	var onlyLocked *bool
	if raw := query.Get("locked"); raw != "" {
		if parsed, err := strconv.ParseBool(raw); err == nil {
			onlyLocked = &parsed
		}
	}

	limit := 100
	if rawLimit := query.Get("limit"); rawLimit != "" {
		if parsed, err := strconv.Atoi(rawLimit); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	jobs, err := s.store.ListJobs(request.Context(), onlyLocked, limit)
	if err != nil {
		http.Error(writer, "failed to list jobs", http.StatusInternalServerError)
		return
	}

	response := ListJobsResponse{Jobs: make([]JobResponse, 0, len(jobs))}
	for _, job := range jobs {
		response.Jobs = append(response.Jobs, jobToResponse(job))
	}

	writer.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(writer).Encode(response)
}

func jobToResponse(job *store.Job) JobResponse {
	var payload any
	_ = json.Unmarshal(job.Payload, &payload)

	return JobResponse{
		JobID:          job.ID.String(),
		TaskIdentifier: job.TaskIdentifier,
		Payload:        payload,
		Flags:          job.Flags,
		Priority:       job.Priority,
		RunAt:          job.RunAt,
		Attempts:       job.Attempts,
		MaxAttempts:    job.MaxAttempts,
		LastError:      job.LastError,
		LockedBy:       job.LockedBy,
		LockedAt:       job.LockedAt,
		CreatedAt:      job.CreatedAt,
		UpdatedAt:      job.UpdatedAt,
	}
}
