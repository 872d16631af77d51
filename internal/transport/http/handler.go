package httptransport

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"video-concat-service/internal/entity"
	"video-concat-service/internal/policy"
	"video-concat-service/internal/repository/memory"
	"video-concat-service/internal/service"
	"video-concat-service/internal/store"
)

// ArtifactOpener is the slice of the artifact store the download endpoint needs.
type ArtifactOpener interface {
	Open(jobID uuid.UUID) (io.ReadSeekCloser, store.ArtifactRef, error)
}

type Handler struct {
	jobSvc    *service.JobService
	artifacts ArtifactOpener
	baseURL   string // optional prefix for status/download URLs
}

func NewHandler(jobSvc *service.JobService, artifacts ArtifactOpener, baseURL string) *Handler {
	return &Handler{jobSvc: jobSvc, artifacts: artifacts, baseURL: baseURL}
}

type concatenateDTO struct {
	URLs       []string `json:"urls"`
	OutputName string   `json:"output_name,omitempty"`
	MaxSizeMB  int      `json:"max_size_mb,omitempty"`
	Sync       bool     `json:"sync,omitempty"`
	KeepTemp   bool     `json:"keep_temp,omitempty"`
}

type createResp struct {
	JobID     string `json:"job_id"`
	Status    string `json:"status"`
	StatusURL string `json:"status_url"`
	MaxSizeMB int    `json:"max_size_mb"`
}

type jobResp struct {
	JobID         string   `json:"job_id"`
	Status        string   `json:"status"`
	Detail        string   `json:"detail,omitempty"`
	DownloadURL   string   `json:"download_url,omitempty"`
	Filename      string   `json:"filename,omitempty"`
	FileSize      *float64 `json:"file_size,omitempty"`
	WasCompressed *bool    `json:"was_compressed,omitempty"`
	Error         string   `json:"error,omitempty"`
	CreatedAt     string   `json:"created_at"`
}

// Concatenate godoc
// @Summary Create a concatenation job
// @Description Registers a job that downloads the given video URLs, concatenates them in order and compresses the result to max_size_mb when needed. With sync=true the response blocks until the job is terminal; large inputs risk request timeouts.
// @Tags jobs
// @Accept json
// @Produce json
// @Param request body concatenateDTO true "job payload (max_size_mb range 10..500, default 100)"
// @Success 200 {object} jobResp "sync mode, job completed"
// @Success 202 {object} createResp
// @Failure 400 {object} apiError
// @Failure 500 {object} jobResp "sync mode, job failed"
// @Failure 503 {object} apiError "job queue is full"
// @Router /api/concatenate [post]
func (h *Handler) Concatenate(w http.ResponseWriter, r *http.Request) {
	var dto concatenateDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}

	job, err := h.jobSvc.CreateJob(r.Context(), service.CreateJobRequest{
		URLs:       dto.URLs,
		OutputName: dto.OutputName,
		MaxSizeMB:  dto.MaxSizeMB,
		Sync:       dto.Sync,
		KeepTemp:   dto.KeepTemp,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRequest):
			writeErr(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrQueueFull):
			writeErr(w, http.StatusServiceUnavailable, err.Error())
		default:
			writeErr(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	if dto.Sync {
		code := http.StatusOK
		if job.Status == entity.StatusFailed {
			code = http.StatusInternalServerError
		}
		writeJSON(w, code, h.toJobResp(job))
		return
	}

	writeJSON(w, http.StatusAccepted, createResp{
		JobID:     job.ID.String(),
		Status:    string(job.Status),
		StatusURL: h.baseURL + "/api/status/" + job.ID.String(),
		MaxSizeMB: job.MaxSizeMB,
	})
}

// Status godoc
// @Summary Get job status
// @Description Download fields appear only once the job is completed; the error field only when it failed.
// @Tags jobs
// @Produce json
// @Param id path string true "job id (uuid)"
// @Success 200 {object} jobResp
// @Failure 400 {object} apiError
// @Failure 404 {object} apiError
// @Router /api/status/{id} [get]
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid id")
		return
	}

	job, err := h.jobSvc.GetJob(r.Context(), id)
	if err != nil {
		if errors.Is(err, memory.ErrNotFound) {
			writeErr(w, http.StatusNotFound, "job not found")
			return
		}
		writeErr(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, h.toJobResp(job))
}

// Download godoc
// @Summary Download the concatenated video
// @Description Streams the artifact. Artifacts are retained for at least one hour after completion; afterwards this returns 404 even though the job status stays completed.
// @Tags jobs
// @Produce octet-stream
// @Param id path string true "job id (uuid)"
// @Success 200 {file} binary
// @Failure 400 {object} apiError
// @Failure 404 {object} apiError
// @Router /api/download/{id} [get]
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid id")
		return
	}

	job, err := h.jobSvc.GetJob(r.Context(), id)
	if err != nil {
		writeErr(w, http.StatusNotFound, "job not found")
		return
	}
	if job.Status != entity.StatusCompleted {
		writeErr(w, http.StatusNotFound, "job not completed")
		return
	}

	rc, ref, err := h.artifacts.Open(id)
	if err != nil {
		// Completed but evicted: the record stays, the file is gone.
		writeErr(w, http.StatusNotFound, "artifact no longer available")
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", ref.Filename))
	http.ServeContent(w, r, ref.Filename, time.Time{}, rc)
}

// Health godoc
// @Summary Liveness check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *Handler) toJobResp(job *entity.Job) jobResp {
	resp := jobResp{
		JobID:     job.ID.String(),
		Status:    string(job.Status),
		Detail:    job.Detail,
		CreatedAt: job.CreatedAt.Format(time.RFC3339),
	}
	if job.Status == entity.StatusCompleted && job.Artifact != nil {
		size := policy.MB(job.Artifact.SizeBytes)
		resp.DownloadURL = h.baseURL + "/api/download/" + job.ID.String()
		resp.Filename = job.Artifact.Filename
		resp.FileSize = &size
		resp.WasCompressed = &job.Artifact.WasCompressed
	}
	if job.Error != nil {
		resp.Error = *job.Error
	}
	return resp
}
