package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rkotak/bookimport/internal/classify"
	"github.com/rkotak/bookimport/internal/config"
	"github.com/rkotak/bookimport/internal/filestore"
	"github.com/rkotak/bookimport/internal/importer"
	"github.com/rkotak/bookimport/internal/job"
	"github.com/rkotak/bookimport/internal/mapping"
)

func testServer(t *testing.T) (*Server, job.Store) {
	t.Helper()

	cfg := &config.Config{}
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0
	cfg.Server.RequestTimeout = 30 * time.Second
	cfg.Server.MaxUploadSize = 10 << 20
	cfg.Rate.Enabled = false

	files, err := filestore.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	store := job.NewMemoryStore()
	orch := &job.Orchestrator{
		Store: store,
		Files: files,
		Builder: &job.Builder{
			Files:      files,
			Classifier: &classify.Classifier{},
			Mapper:     &mapping.Mapper{},
		},
		Importers: importer.Registry{},
		ChunkSize: 5000,
	}
	runner := job.NewRunner(store, orch, time.Minute)
	return NewServer(cfg, store, files, orch, runner), store
}

func postJSON(t *testing.T, s *Server, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func TestCreateJob(t *testing.T) {
	s, store := testServer(t)

	w := postJSON(t, s, "/api/jobs", map[string]any{
		"org_id": "org-1",
		"files": []map[string]string{
			{"location": "imports", "path": "uploads/a.csv", "name": "a.csv"},
		},
	})
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusAccepted, w.Body)
	}

	var resp struct {
		JobID  string `json:"job_id"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.JobID == "" || resp.Status != "queued" {
		t.Errorf("response = %+v, want a queued job id", resp)
	}

	j, err := store.Get(context.Background(), resp.JobID)
	if err != nil {
		t.Fatalf("job not persisted: %v", err)
	}
	if j.OrgID != "org-1" {
		t.Errorf("OrgID = %q, want org-1", j.OrgID)
	}
}

func TestCreateJob_Validation(t *testing.T) {
	s, _ := testServer(t)

	tests := []struct {
		name string
		body map[string]any
	}{
		{
			name: "missing org",
			body: map[string]any{
				"files": []map[string]string{{"location": "imports", "path": "p", "name": "n"}},
			},
		},
		{
			name: "no files",
			body: map[string]any{"org_id": "org-1", "files": []map[string]string{}},
		},
		{
			name: "wrong bucket",
			body: map[string]any{
				"org_id": "org-1",
				"files":  []map[string]string{{"location": "exports", "path": "p", "name": "n"}},
			},
		},
		{
			name: "missing path",
			body: map[string]any{
				"org_id": "org-1",
				"files":  []map[string]string{{"location": "imports", "name": "n"}},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := postJSON(t, s, "/api/jobs", tt.body); w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestGetJob_NotFound(t *testing.T) {
	s, _ := testServer(t)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/jobs/nope", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestStepJob_NotFound(t *testing.T) {
	s, _ := testServer(t)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/jobs/nope/step", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestListJobs(t *testing.T) {
	s, _ := testServer(t)

	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/jobs", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("status without org = %d, want %d", w.Code, http.StatusBadRequest)
	}

	for i := 0; i < 2; i++ {
		postJSON(t, s, "/api/jobs", map[string]any{
			"org_id": "org-1",
			"files": []map[string]string{
				{"location": "imports", "path": fmt.Sprintf("uploads/%d.csv", i), "name": "f.csv"},
			},
		})
	}

	w = httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/jobs?org=org-1", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var resp struct {
		Jobs []jobView `json:"jobs"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Jobs) != 2 {
		t.Errorf("got %d jobs, want 2", len(resp.Jobs))
	}
}

func TestUploadFile(t *testing.T) {
	s, _ := testServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "stock.csv")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write([]byte("Item,Qty\nSugar,2\n")); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/files", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusCreated, w.Body)
	}
	var ref job.FileRef
	if err := json.Unmarshal(w.Body.Bytes(), &ref); err != nil {
		t.Fatal(err)
	}
	if ref.Location != "imports" || ref.Name != "stock.csv" {
		t.Errorf("ref = %+v, want imports bucket and original name", ref)
	}
	if !strings.HasPrefix(ref.Path, "uploads/") {
		t.Errorf("ref.Path = %q, want an uploads/ path", ref.Path)
	}

	data, err := s.files.Read(ref.Location, ref.Path)
	if err != nil {
		t.Fatalf("staged file unreadable: %v", err)
	}
	if !strings.Contains(string(data), "Sugar") {
		t.Errorf("staged content = %q, want upload body", data)
	}
}

func uploadCSV(t *testing.T, s *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "stock.csv")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write([]byte(body)); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/files", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func TestUploadRateLimit(t *testing.T) {
	cfg := &config.Config{}
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.RequestTimeout = 30 * time.Second
	cfg.Server.MaxUploadSize = 10 << 20
	cfg.Rate.Enabled = true
	cfg.Rate.RequestsPerMinute = 100
	cfg.Rate.UploadLimit = 2

	files, err := filestore.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	store := job.NewMemoryStore()
	orch := &job.Orchestrator{Store: store, Files: files, Importers: importer.Registry{}}
	s := NewServer(cfg, store, files, orch, job.NewRunner(store, orch, time.Minute))

	for i := 0; i < 2; i++ {
		if w := uploadCSV(t, s, "Item,Qty\nSugar,2\n"); w.Code != http.StatusCreated {
			t.Fatalf("upload %d status = %d, want %d", i+1, w.Code, http.StatusCreated)
		}
	}
	w := uploadCSV(t, s, "Item,Qty\nSugar,2\n")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("upload 3 status = %d, want %d", w.Code, http.StatusTooManyRequests)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header missing on throttled upload")
	}

	// the tighter upload bucket must not throttle the rest of the API
	w = httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/jobs?org=org-1", nil))
	if w.Code != http.StatusOK {
		t.Errorf("list status after throttled upload = %d, want %d", w.Code, http.StatusOK)
	}
}
