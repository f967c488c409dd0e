package handle_test

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/ingestvault/pkg/app"
	"github.com/yeisme/ingestvault/pkg/configs"
	"github.com/yeisme/ingestvault/pkg/internal/jobs"
	"github.com/yeisme/ingestvault/pkg/internal/model"
	"github.com/yeisme/ingestvault/pkg/internal/service"
	"github.com/yeisme/ingestvault/pkg/internal/storage"
	"github.com/yeisme/ingestvault/pkg/internal/storage/db/dbtest"
	"github.com/yeisme/ingestvault/pkg/internal/storage/s3"
	"github.com/yeisme/ingestvault/pkg/scheduler"
)

type header map[string]string

var (
	siteA = header{"X-Site-ID": "site-a", "X-Account-ID": "acct-1"}
	siteB = header{"X-Site-ID": "site-b", "X-Account-ID": "acct-2"}
	admin = header{"X-Role": "admin"}
)

type server struct {
	engine *gin.Engine
	blobs  *s3.MemoryBucket
}

func newServer(t *testing.T) *server {
	t.Helper()

	gin.SetMode(gin.TestMode)

	c := dbtest.New(t)
	dbtest.SeedSite(t, c, "site-a", "acct-1", "a.example")
	dbtest.SeedSite(t, c, "site-b", "acct-2", "b.example")

	cfg := &configs.AppConfig{
		Auth:      configs.AuthConfig{Enabled: true, SkipPaths: []string{"/api/v1/health"}},
		Batch:     configs.BatchConfig{Timeout: time.Hour, SweepCron: "*/5 * * * *", SweepLimit: 10, MaxFilesPerCall: 5},
		Partition: configs.PartitionConfig{Enabled: true},
		Server:    configs.ServerConfig{Debug: true},
	}

	blobs := s3.NewMemoryBucket()
	mgr := &storage.Manager{DB: c, Blob: blobs}
	clock := clockwork.NewFakeClockAt(time.Date(2025, 6, 15, 10, 30, 45, 0, time.UTC))
	svcs := service.New(mgr, cfg, clock)

	sched, err := scheduler.NewScheduler(clock)
	require.NoError(t, err)
	require.NoError(t, jobs.RegisterCronJobs(context.Background(), sched, app.NewJobs(mgr, svcs, cfg, clock), cfg))
	sched.Start()

	t.Cleanup(func() { _ = sched.Shutdown() })

	return &server{engine: app.NewEngine(cfg, mgr, svcs, sched), blobs: blobs}
}

func (s *server) do(t *testing.T, method, path string, h header, body []byte, contentType string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	for k, v := range h {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	return w
}

func (s *server) json(t *testing.T, method, path string, h header, body any) *httptest.ResponseRecorder {
	t.Helper()

	var raw []byte

	if body != nil {
		var err error
		raw, err = sonic.Marshal(body)
		require.NoError(t, err)
	}

	return s.do(t, method, path, h, raw, "application/json")
}

func (s *server) start(t *testing.T, h header) *model.Batch {
	t.Helper()

	w := s.json(t, http.MethodPost, "/api/v1/batches", h, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Batch model.Batch `json:"batch"`
	}
	decode(t, w, &resp)

	return &resp.Batch
}

type part struct {
	name, contentType, content string
}

func multipartBody(t *testing.T, parts ...part) ([]byte, string) {
	t.Helper()

	var buf bytes.Buffer

	mw := multipart.NewWriter(&buf)

	for _, p := range parts {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename=%q`, p.name))
		h.Set("Content-Type", p.contentType)

		w, err := mw.CreatePart(h)
		require.NoError(t, err)

		_, err = w.Write([]byte(p.content))
		require.NoError(t, err)
	}

	require.NoError(t, mw.Close())

	return buf.Bytes(), mw.FormDataContentType()
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), out), w.Body.String())
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()

	var body struct {
		Error string `json:"error"`
	}
	decode(t, w, &body)

	return body.Error
}

func TestIdentityRequired(t *testing.T) {
	s := newServer(t)

	w := s.json(t, http.MethodPost, "/api/v1/batches", header{"X-Site-ID": "site-a"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.json(t, http.MethodGet, "/api/v1/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestBatchLifecycle(t *testing.T) {
	s := newServer(t)
	b := s.start(t, siteA)

	assert.Equal(t, model.BatchStatusInProgress, b.Status)
	assert.Equal(t, "acct-1/a.example/2025/06/15/103045_"+b.ID, b.StoragePath)

	w := s.json(t, http.MethodPost, "/api/v1/batches", siteA, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "site site-a already has an active batch", errorMessage(t, w))

	// 其他租户既不能读也不能结束
	w = s.json(t, http.MethodGet, "/api/v1/batches/"+b.ID, siteB, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "access denied", errorMessage(t, w))

	w = s.json(t, http.MethodPost, "/api/v1/batches/"+b.ID+"/complete", siteB, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.json(t, http.MethodGet, "/api/v1/batches/"+b.ID, admin, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.json(t, http.MethodPost, "/api/v1/batches/"+b.ID+"/complete", siteA, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.json(t, http.MethodPost, "/api/v1/batches/"+b.ID+"/complete", siteA, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "batch already completed", errorMessage(t, w))

	w = s.json(t, http.MethodGet, "/api/v1/batches/not-a-batch", siteA, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFailBatchWithReason(t *testing.T) {
	s := newServer(t)
	b := s.start(t, siteA)

	w := s.json(t, http.MethodPost, "/api/v1/batches/"+b.ID+"/fail", siteA, map[string]string{"reason": "disk full on client"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Batch model.Batch `json:"batch"`
	}
	decode(t, w, &resp)

	assert.Equal(t, model.BatchStatusFailed, resp.Batch.Status)
	assert.Equal(t, "disk full on client", resp.Batch.FailureReason)
	assert.NotNil(t, resp.Batch.CompletedAt)
}

func TestUploadFiles(t *testing.T) {
	s := newServer(t)
	b := s.start(t, siteA)
	path := "/api/v1/batches/" + b.ID + "/files"

	body, ct := multipartBody(t,
		part{"orders.csv", "text/csv", "id,total\n1,10\n"},
		part{"customers.csv", "text/csv", "id,name\n1,ada\n"},
	)

	w := s.do(t, http.MethodPost, path, siteA, body, ct)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Files []model.UploadedFile `json:"files"`
	}
	decode(t, w, &resp)
	require.Len(t, resp.Files, 2)

	first := resp.Files[0]
	assert.Equal(t, "orders.csv", first.OriginalFileName)
	assert.Equal(t, b.StoragePath+"/orders.csv", first.StorageKey)
	assert.Equal(t, "text/csv", first.ContentType)
	assert.Equal(t, s3.Checksum([]byte("id,total\n1,10\n")), first.Checksum)

	stored, err := s.blobs.Get(first.StorageKey)
	require.NoError(t, err)
	assert.Equal(t, "id,total\n1,10\n", string(stored))

	// 同名文件再次上传
	body, ct = multipartBody(t, part{"orders.csv", "text/csv", "again"})
	w = s.do(t, http.MethodPost, path, siteA, body, ct)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, errorMessage(t, w), "orders.csv")

	// 跨租户上传
	body, ct = multipartBody(t, part{"x.csv", "text/csv", "x"})
	w = s.do(t, http.MethodPost, path, siteB, body, ct)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.json(t, http.MethodGet, path, siteA, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var list struct {
		Total int `json:"total"`
	}
	decode(t, w, &list)
	assert.Equal(t, 2, list.Total)

	w = s.json(t, http.MethodGet, path+"/"+first.ID, siteA, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.json(t, http.MethodGet, path+"/"+first.ID, siteB, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.json(t, http.MethodPost, "/api/v1/batches/"+b.ID+"/cancel", siteA, nil)
	require.Equal(t, http.StatusOK, w.Code)

	body, ct = multipartBody(t, part{"late.csv", "text/csv", "late"})
	w = s.do(t, http.MethodPost, path, siteA, body, ct)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "cannot upload to completed batch", errorMessage(t, w))
}

func TestUploadFiles_BadRequests(t *testing.T) {
	s := newServer(t)
	b := s.start(t, siteA)
	path := "/api/v1/batches/" + b.ID + "/files"

	w := s.json(t, http.MethodPost, path, siteA, map[string]string{"file": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body, ct := multipartBody(t)
	w = s.do(t, http.MethodPost, path, siteA, body, ct)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestErrorLogs(t *testing.T) {
	s := newServer(t)
	b := s.start(t, siteA)

	payload := `{"type":"ParseError","title":"bad row","message":"line 3","metadata":{"zeta":1,"alpha":{"b":2,"a":1}}}`
	w := s.do(t, http.MethodPost, "/api/v1/batches/"+b.ID+"/errors", siteA, []byte(payload), "application/json")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var logged model.ErrorLog
	decode(t, w, &logged)
	require.NotNil(t, logged.BatchID)
	assert.Equal(t, b.ID, *logged.BatchID)
	assert.Equal(t, []string{"zeta", "alpha"}, logged.Metadata.Keys())
	assert.Contains(t, w.Body.String(), `"metadata":{"zeta":1,"alpha":{"b":2,"a":1}}`)

	w = s.json(t, http.MethodGet, "/api/v1/batches/"+b.ID, siteA, nil)

	var resp struct {
		Batch model.Batch `json:"batch"`
	}
	decode(t, w, &resp)
	assert.True(t, resp.Batch.HasErrors)

	w = s.json(t, http.MethodGet, "/api/v1/errors/"+logged.ID, siteB, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.json(t, http.MethodGet, "/api/v1/errors/"+logged.ID, admin, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.json(t, http.MethodPost, "/api/v1/batches/"+b.ID+"/errors", siteB,
		map[string]string{"type": "t", "title": "t", "message": "m"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.json(t, http.MethodPost, "/api/v1/errors", siteA, map[string]string{"type": "t", "message": "m"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.json(t, http.MethodPost, "/api/v1/errors", siteB, map[string]string{"type": "Crash", "title": "agent", "message": "oom"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var standalone model.ErrorLog
	decode(t, w, &standalone)
	assert.Nil(t, standalone.BatchID)
	assert.Equal(t, "site-b", standalone.SiteID)

	w = s.json(t, http.MethodGet, "/api/v1/batches/"+b.ID+"/errors?limit=10", siteA, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var list struct {
		Errors []model.ErrorLog `json:"errors"`
	}
	decode(t, w, &list)
	require.Len(t, list.Errors, 1)
	assert.Equal(t, logged.ID, list.Errors[0].ID)

	w = s.json(t, http.MethodGet, "/api/v1/batches/"+b.ID+"/errors?limit=0", siteA, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.json(t, http.MethodGet, "/api/v1/batches/"+b.ID+"/errors?limit=5000", siteA, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminScheduler(t *testing.T) {
	s := newServer(t)

	w := s.json(t, http.MethodGet, "/api/v1/admin/scheduler/jobs", siteA, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.json(t, http.MethodGet, "/api/v1/admin/scheduler/jobs", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Jobs []scheduler.JobInfo `json:"jobs"`
	}
	decode(t, w, &resp)

	// SQLite 下不注册分区维护任务
	require.Len(t, resp.Jobs, 1)
	assert.Equal(t, jobs.JobBatchTimeoutSweep, resp.Jobs[0].Name)

	w = s.json(t, http.MethodPost, "/api/v1/admin/scheduler/jobs/"+jobs.JobBatchTimeoutSweep+"/run", admin, nil)
	assert.Equal(t, http.StatusAccepted, w.Code)

	w = s.json(t, http.MethodPost, "/api/v1/admin/scheduler/jobs/nope/run", admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
