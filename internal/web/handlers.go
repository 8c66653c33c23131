package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rkotak/bookimport/internal/entity"
	"github.com/rkotak/bookimport/internal/filestore"
	"github.com/rkotak/bookimport/internal/job"
	"github.com/rkotak/bookimport/internal/logging"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// handleUploadFile accepts one multipart file and stages it for a later job.
func (s *Server) handleUploadFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxUploadSize)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, fmt.Sprintf("read upload: %v", err))
		return
	}

	name := filepath.Base(header.Filename)
	path := fmt.Sprintf("uploads/%s-%s", uuid.NewString(), name)
	if err := s.files.Write(path, data); err != nil {
		writeError(w, r, http.StatusInternalServerError, "store upload failed")
		return
	}

	logging.FromContext(r.Context()).Info("file staged", "name", name, "bytes", len(data))
	writeJSON(w, r, http.StatusCreated, job.FileRef{
		Location: filestore.Bucket,
		Path:     path,
		Name:     name,
	})
}

type createJobRequest struct {
	OrgID string        `json:"org_id"`
	Files []job.FileRef `json:"files"`
}

type createJobResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var req createJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.OrgID == "" {
		writeError(w, r, http.StatusBadRequest, "org_id is required")
		return
	}
	if len(req.Files) == 0 {
		writeError(w, r, http.StatusBadRequest, "at least one file is required")
		return
	}
	for _, f := range req.Files {
		if f.Location != filestore.Bucket {
			writeError(w, r, http.StatusBadRequest,
				fmt.Sprintf("invalid file location %q, only %q is accepted", f.Location, filestore.Bucket))
			return
		}
		if f.Path == "" {
			writeError(w, r, http.StatusBadRequest, "file path is required")
			return
		}
	}

	j := &job.ImportJob{
		ID:     uuid.NewString(),
		OrgID:  req.OrgID,
		Status: job.StatusQueued,
		Files:  req.Files,
	}
	if err := s.store.Create(r.Context(), j); err != nil {
		writeError(w, r, http.StatusInternalServerError, "create job failed")
		return
	}
	s.runner.Wake()

	logging.FromContext(r.Context()).Info("job created", "job", j.ID, "org", j.OrgID, "files", len(j.Files))
	writeJSON(w, r, http.StatusAccepted, createJobResponse{JobID: j.ID, Status: string(j.Status)})
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "jobID")
	j, err := s.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, job.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "job not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "load job failed")
		return
	}
	writeJSON(w, r, http.StatusOK, toJobView(j))
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	org := r.URL.Query().Get("org")
	if org == "" {
		writeError(w, r, http.StatusBadRequest, "org query parameter is required")
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	jobs, err := s.store.ListByOrg(r.Context(), org, limit)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "list jobs failed")
		return
	}
	views := make([]jobView, 0, len(jobs))
	for _, j := range jobs {
		views = append(views, toJobView(j))
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"jobs": views})
}

// handleStepJob advances a job by one chunk. The runner normally does this;
// the endpoint exists for manual driving and external schedulers.
func (s *Server) handleStepJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "jobID")

	if _, err := s.orch.Step(r.Context(), id); err != nil {
		if errors.Is(err, job.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "job not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "job step failed")
		return
	}

	j, err := s.store.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "load job failed")
		return
	}
	writeJSON(w, r, http.StatusOK, toJobView(j))
}

// jobView is the API representation of a job.
type jobView struct {
	ID               string            `json:"id"`
	OrgID            string            `json:"org_id"`
	Status           string            `json:"status"`
	Percent          int               `json:"percent"`
	CurrentType      entity.ImportType `json:"current_type,omitempty"`
	TotalRecords     int               `json:"total_records"`
	ProcessedRecords int               `json:"processed_records"`
	TotalSteps       int               `json:"total_steps"`
	CompletedSteps   int               `json:"completed_steps"`
	SuccessRows      int               `json:"success_rows"`
	FailedRows       int               `json:"failed_rows"`
	Errors           []string          `json:"errors,omitempty"`
	Result           *job.Result       `json:"result,omitempty"`
	ErrorMessage     string            `json:"error_message,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

func toJobView(j *job.ImportJob) jobView {
	v := jobView{
		ID:               j.ID,
		OrgID:            j.OrgID,
		Status:           string(j.Status),
		Percent:          j.Percent(),
		TotalRecords:     j.TotalRecords,
		ProcessedRecords: j.ProcessedRecords,
		TotalSteps:       j.TotalSteps,
		CompletedSteps:   j.CompletedSteps,
		SuccessRows:      j.SuccessRows,
		FailedRows:       j.FailedRows,
		Errors:           j.Errors,
		Result:           j.Result,
		ErrorMessage:     j.ErrorMessage,
		CreatedAt:        j.CreatedAt,
		UpdatedAt:        j.UpdatedAt,
	}
	if t, ok := j.CurrentType(); ok && j.Status == job.StatusRunning {
		v.CurrentType = t
	}
	return v
}
