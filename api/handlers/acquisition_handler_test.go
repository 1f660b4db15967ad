package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/lecture-fetch/internal/app"
	"github.com/yourusername/lecture-fetch/internal/domain"
)

// fakeService implements AcquisitionService for handler tests
type fakeService struct {
	result     *app.Result
	err        error
	lastReq    domain.AcquisitionRequest
	lastOpts   app.AcquireOptions
	lastFilter domain.AcquisitionFilter
	records    map[string]*domain.Acquisition
	historyErr error
}

func (f *fakeService) Acquire(ctx context.Context, req domain.AcquisitionRequest, opts app.AcquireOptions) (*app.Result, error) {
	f.lastReq, f.lastOpts = req, opts
	return f.result, f.err
}

func (f *fakeService) Plan(raw string) (domain.SourceClassification, []domain.ProviderID) {
	c := domain.Classify(raw)
	if c.IsURL() {
		return c, []domain.ProviderID{c.Provider}
	}
	return c, domain.DefaultSearchOrder()
}

func (f *fakeService) DefaultDir() string {
	return "/srv/out"
}

func (f *fakeService) Get(id string) (*domain.Acquisition, error) {
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	if a, ok := f.records[id]; ok {
		return a, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeService) List(filter domain.AcquisitionFilter) ([]*domain.Acquisition, error) {
	f.lastFilter = filter
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	var list []*domain.Acquisition
	for _, a := range f.records {
		list = append(list, a)
	}
	return list, nil
}

func (f *fakeService) Stats() (*domain.AcquisitionStats, error) {
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	return &domain.AcquisitionStats{Total: int64(len(f.records))}, nil
}

func (f *fakeService) Delete(id string) error {
	if f.historyErr != nil {
		return f.historyErr
	}
	if _, ok := f.records[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.records, id)
	return nil
}

func newTestRouter(service AcquisitionService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewAcquisitionHandler(service, nil)
	r := gin.New()
	r.POST("/acquisitions", h.Acquire)
	r.GET("/acquisitions", h.ListAcquisitions)
	r.GET("/acquisitions/stats", h.GetStats)
	r.GET("/acquisitions/:id", h.GetAcquisition)
	r.DELETE("/acquisitions/:id", h.DeleteAcquisition)
	r.POST("/classify", h.Classify)
	return r
}

func doJSON(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func completedRecord(input string) *domain.Acquisition {
	acq := domain.NewAcquisition(domain.AcquisitionRequest{RawInput: input}, domain.Classify(input))
	acq.MarkCompleted(domain.ProviderVideoPlatform, domain.NewAcquiredFile("/tmp/out/"+input+".mp3"))
	return acq
}

func TestAcquire_Success(t *testing.T) {
	acq := completedRecord("lecture")
	service := &fakeService{result: &app.Result{Acquisition: acq, File: domain.NewAcquiredFile(acq.FilePath)}}
	r := newTestRouter(service)

	w := doJSON(r, http.MethodPost, "/acquisitions", AcquireRequest{Input: "lecture", Destination: "systems", SkipExisting: true})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.AcquisitionRequest{RawInput: "lecture", DestinationDir: filepath.Join("/srv/out", "systems")}, service.lastReq)
	assert.True(t, service.lastOpts.SkipExisting)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "/tmp/out/lecture.mp3", resp["file"].(map[string]interface{})["path"])
	assert.Equal(t, "completed", resp["acquisition"].(map[string]interface{})["status"])
	assert.NotContains(t, resp, "error")
}

func TestAcquire_Failures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{
			name: "all providers failed",
			err:  domain.NewExhaustedError("x", domain.NewProviderError(domain.ProviderStreamingA, domain.ErrToolUnavailable)),
			want: http.StatusBadGateway,
		},
		{
			name: "url provider failed",
			err:  domain.NewProviderError(domain.ProviderDirectHTTP, errors.New("download failed")),
			want: http.StatusBadGateway,
		},
		{
			name: "timed out",
			err:  context.DeadlineExceeded,
			want: http.StatusGatewayTimeout,
		},
		{
			name: "unexpected",
			err:  errors.New("disk full"),
			want: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acq := domain.NewAcquisition(domain.AcquisitionRequest{RawInput: "x"}, domain.Classify("x"))
			acq.MarkFailed(tt.err)
			r := newTestRouter(&fakeService{result: &app.Result{Acquisition: acq}, err: tt.err})

			w := doJSON(r, http.MethodPost, "/acquisitions", AcquireRequest{Input: "x"})

			assert.Equal(t, tt.want, w.Code)
			var resp AcquireResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.err.Error(), resp.Error)
			assert.Nil(t, resp.File)
		})
	}
}

func TestAcquire_BadRequest(t *testing.T) {
	r := newTestRouter(&fakeService{})

	w := doJSON(r, http.MethodPost, "/acquisitions", map[string]string{"destination": "/tmp"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/acquisitions", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAcquire_DestinationOutsideOutputDir(t *testing.T) {
	for _, dest := range []string{"/home/someone", "..", "systems/../../etc"} {
		t.Run(dest, func(t *testing.T) {
			service := &fakeService{}
			r := newTestRouter(service)

			w := doJSON(r, http.MethodPost, "/acquisitions", AcquireRequest{Input: "lecture", Destination: dest})

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), "outside the output directory")
			assert.Empty(t, service.lastReq.RawInput, "service must not be called")
		})
	}
}

func TestClassify(t *testing.T) {
	r := newTestRouter(&fakeService{})

	w := doJSON(r, http.MethodPost, "/classify", ClassifyRequest{Input: "Intro to Systems album"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp ClassifyResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, domain.KindSearchQuery, resp.Classification.Kind)
	assert.Equal(t, domain.HintPlaylist, resp.Classification.Hint)
	assert.Equal(t, domain.DefaultSearchOrder(), resp.Providers)

	w = doJSON(r, http.MethodPost, "/classify", ClassifyRequest{Input: "https://youtu.be/abc"})
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []domain.ProviderID{domain.ProviderVideoPlatform}, resp.Providers)
}

func TestHistoryEndpoints(t *testing.T) {
	acq := completedRecord("lecture")
	service := &fakeService{records: map[string]*domain.Acquisition{acq.ID: acq}}
	r := newTestRouter(service)

	w := doJSON(r, http.MethodGet, "/acquisitions/"+acq.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), acq.ID)

	w = doJSON(r, http.MethodGet, "/acquisitions?status=completed&provider=video_platform&limit=5", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.AcquisitionFilter{
		Status: domain.StatusCompleted, Provider: domain.ProviderVideoPlatform, Limit: 5,
	}, service.lastFilter)

	w = doJSON(r, http.MethodGet, "/acquisitions/stats", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":1`)

	w = doJSON(r, http.MethodDelete, "/acquisitions/"+acq.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodGet, "/acquisitions/"+acq.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(r, http.MethodDelete, "/acquisitions/"+acq.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListAcquisitions_InvalidFilter(t *testing.T) {
	r := newTestRouter(&fakeService{})

	for _, query := range []string{"status=queued", "provider=ftp", "kind=file", "limit=-1", "limit=many"} {
		w := doJSON(r, http.MethodGet, "/acquisitions?"+query, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, query)
	}
}

func TestListAcquisitions_Empty(t *testing.T) {
	r := newTestRouter(&fakeService{})

	w := doJSON(r, http.MethodGet, "/acquisitions", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestHistoryDisabled(t *testing.T) {
	r := newTestRouter(&fakeService{historyErr: app.ErrHistoryDisabled})

	for _, path := range []string{"/acquisitions", "/acquisitions/stats", "/acquisitions/abc"} {
		w := doJSON(r, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusNotImplemented, w.Code, path)
	}
}
