package api

import (
	"context"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/nanichang/employee-import-engine/internal/cache"
	"github.com/nanichang/employee-import-engine/internal/dispatcher"
	"github.com/nanichang/employee-import-engine/internal/models"
	"github.com/nanichang/employee-import-engine/internal/repository"
	"github.com/nanichang/employee-import-engine/internal/service"
	"github.com/nanichang/employee-import-engine/internal/worker"
)

// fakeJobs/fakeErrs give just enough of the repository surface for the
// router tests to exercise real handler/service/dispatcher wiring
// without a database.

type fakeJobs struct {
	jobs map[string]*models.ImportJob
}

func (f *fakeJobs) Create(ctx context.Context, job *models.ImportJob) error {
	f.jobs[job.ID] = job
	return nil
}
func (f *fakeJobs) FindByID(ctx context.Context, id string) (*models.ImportJob, error) {
	j, ok := f.jobs[id]
	if !ok {
		return nil, nil
	}
	copy := *j
	return &copy, nil
}
func (f *fakeJobs) UpdateStatus(ctx context.Context, id string, status models.JobStatus) error {
	if j, ok := f.jobs[id]; ok {
		j.Status = string(status)
	}
	return nil
}
func (f *fakeJobs) ResetProgress(ctx context.Context, id string) error { return nil }
func (f *fakeJobs) IncrementTries(ctx context.Context, id string) error {
	if j, ok := f.jobs[id]; ok {
		j.Tries++
	}
	return nil
}
func (f *fakeJobs) CommitChunk(ctx context.Context, id string, deltaSuccessful, deltaError, lastProcessedRow, totalRows int) error {
	return nil
}
func (f *fakeJobs) DeleteCascade(ctx context.Context, id string) error {
	delete(f.jobs, id)
	return nil
}
func (f *fakeJobs) ListPending(ctx context.Context, limit int) ([]models.ImportJob, error) {
	return nil, nil
}

type fakeErrs struct{}

func (f *fakeErrs) Append(ctx context.Context, e *models.ErrorRecord) error         { return nil }
func (f *fakeErrs) AppendMany(ctx context.Context, errs []models.ErrorRecord) error { return nil }
func (f *fakeErrs) ListByJob(ctx context.Context, jobID string, filter repository.ErrorFilter) ([]models.ErrorRecord, int64, error) {
	return nil, 0, nil
}
func (f *fakeErrs) Histogram(ctx context.Context, jobID string) ([]repository.ErrorHistogramEntry, error) {
	return nil, nil
}

func newTestRouter(t *testing.T) (http.Handler, *fakeJobs) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	jobs := &fakeJobs{jobs: map[string]*models.ImportJob{}}
	errs := &fakeErrs{}
	progress := cache.NewProgressStore(client)

	w := worker.New(worker.Deps{
		Jobs:   jobs,
		Redis:  client,
		Logger: log.New(os.Stderr, "", 0),
	}, worker.DefaultConfig())
	d := dispatcher.New(w, jobs, log.New(os.Stderr, "", 0), dispatcher.DefaultConfig())

	svc := service.New(jobs, errs, progress, d, service.Config{
		UploadDir:     t.TempDir(),
		MaxFileBytes:  10 * 1024 * 1024,
		CSVChunkSize:  100,
		XLSXChunkSize: 50,
	})

	return SetupRouter(svc), jobs
}

func TestHealthEndpointReturnsOK(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected health endpoint to return 200, got %d", w.Code)
	}
}

func TestProgressEndpointReturns404ForUnknownJob(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest("GET", "/employee-import/unknown-job/progress", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected unknown job progress to return 404, got %d", w.Code)
	}
}

func TestProgressEndpointReturnsKnownJob(t *testing.T) {
	router, jobs := newTestRouter(t)
	jobs.jobs["job-1"] = &models.ImportJob{ID: "job-1", Status: string(models.JobProcessing), TotalRows: 10, ProcessedRows: 5}

	req := httptest.NewRequest("GET", "/employee-import/job-1/progress", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected known job progress to return 200, got %d", w.Code)
	}
}

func TestUploadEndpointRejectsMissingFile(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest("POST", "/employee-import/upload", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected missing file upload to return 422, got %d", w.Code)
	}
}

func TestInvalidRouteReturns404(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest("GET", "/invalid", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected non-existent endpoint to return 404, got %d", w.Code)
	}
}

func TestHealthResponseContentType(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	contentType := w.Header().Get("Content-Type")
	if contentType != "application/json; charset=utf-8" {
		t.Fatalf("expected content-type 'application/json; charset=utf-8', got %s", contentType)
	}
}
