package api_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/jonesrussell/abedge/internal/api"
	processorconfig "github.com/jonesrussell/abedge/internal/config/processor"
	"github.com/jonesrussell/abedge/internal/config/server"
	"github.com/jonesrussell/abedge/internal/logger"
	"github.com/jonesrussell/abedge/internal/metrics"
	"github.com/jonesrussell/abedge/internal/processor"
	loggerMock "github.com/jonesrussell/abedge/testutils/mocks/logger"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type fixture struct {
	handler http.Handler
}

func newFixture(t *testing.T, log logger.Interface, mutate func(*server.Config)) *fixture {
	t.Helper()

	reg := prometheus.NewRegistry()
	proc, err := processor.New(processor.Params{
		Config:  processorconfig.New(),
		Logger:  logger.NewNoOp(),
		Metrics: metrics.NewMetrics(reg),
	})
	require.NoError(t, err)

	cfg := server.NewConfig()
	if mutate != nil {
		mutate(cfg)
	}

	return &fixture{
		handler: api.SetupRouter(api.Params{
			Logger:   log,
			Renderer: proc,
			Config:   cfg,
			Gatherer: reg,
		}),
	}
}

func (f *fixture) do(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	t.Parallel()

	f := newFixture(t, logger.NewNoOp(), nil)
	rec := f.do(http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRender(t *testing.T) {
	t.Parallel()

	f := newFixture(t, logger.NewNoOp(), nil)
	body := `{
		"html": "<h1>Original</h1>",
		"experiments": [{
			"name": "headline",
			"treatment": 1,
			"changes": [{"selector": "h1", "type": "text", "value": "Modified"}]
		}]
	}`

	rec := f.do(http.MethodPost, "/api/v1/render", body, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp api.RenderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "<h1>Modified</h1>", resp.HTML)
}

func TestRender_TreatmentTags(t *testing.T) {
	t.Parallel()

	f := newFixture(t, logger.NewNoOp(), nil)
	body := `{
		"html": "<treatment name=\"hero\"><treatmentvariant variant=\"0\">A</treatmentvariant><treatmentvariant variant=\"1\">B</treatmentvariant></treatment>",
		"experiments": [{"name": "hero", "treatment": 1}]
	}`

	rec := f.do(http.MethodPost, "/api/v1/render", body, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp api.RenderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "B", resp.HTML)
}

func TestRender_BadRequests(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		body     string
		wantCode int
		wantErr  string
	}{
		{name: "malformed json", body: `{"html":`, wantCode: http.StatusBadRequest, wantErr: "Invalid request payload"},
		{name: "empty html", body: `{"html":"  "}`, wantCode: http.StatusBadRequest, wantErr: "html cannot be empty"},
		{name: "missing html", body: `{"experiments":[]}`, wantCode: http.StatusBadRequest, wantErr: "html cannot be empty"},
	}

	f := newFixture(t, logger.NewNoOp(), nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := f.do(http.MethodPost, "/api/v1/render", tt.body, nil)
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.JSONEq(t, `{"error":"`+tt.wantErr+`"}`, rec.Body.String())
		})
	}
}

func TestRender_BodyTooLarge(t *testing.T) {
	t.Parallel()

	f := newFixture(t, logger.NewNoOp(), func(c *server.Config) { c.MaxBodyBytes = 32 })
	body := `{"html":"` + strings.Repeat("x", 256) + `"}`

	rec := f.do(http.MethodPost, "/api/v1/render", body, nil)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.JSONEq(t, `{"error":"request body too large"}`, rec.Body.String())
}

func TestRequestID(t *testing.T) {
	t.Parallel()

	f := newFixture(t, logger.NewNoOp(), nil)

	rec := f.do(http.MethodGet, "/health", "", map[string]string{api.RequestIDHeader: "req-123"})
	assert.Equal(t, "req-123", rec.Header().Get(api.RequestIDHeader))

	rec = f.do(http.MethodGet, "/health", "", nil)
	assert.NotEmpty(t, rec.Header().Get(api.RequestIDHeader))
}

func TestLoggingMiddleware(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	base := loggerMock.NewMockInterface(ctrl)
	scoped := loggerMock.NewMockInterface(ctrl)

	base.EXPECT().WithRequestID("req-42").Return(scoped)
	scoped.EXPECT().Info("HTTP Request", gomock.Any()).Times(1)

	f := newFixture(t, base, nil)
	rec := f.do(http.MethodGet, "/health", "", map[string]string{api.RequestIDHeader: "req-42"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	f := newFixture(t, logger.NewNoOp(), nil)
	rec := f.do(http.MethodPost, "/api/v1/render", `{"html":"<p>x</p>"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "abedge_processor_documents_processed_total 1")
}

func TestNewServer(t *testing.T) {
	t.Parallel()

	cfg := server.NewConfig()
	cfg.Address = "127.0.0.1:0"

	srv := api.NewServer(api.Params{
		Logger:   logger.NewNoOp(),
		Renderer: nil,
		Config:   cfg,
	})

	assert.Equal(t, "127.0.0.1:0", srv.Addr)
	assert.Equal(t, cfg.ReadTimeout, srv.ReadTimeout)
	assert.Equal(t, cfg.IdleTimeout, srv.IdleTimeout)
	assert.NotNil(t, srv.Handler)
}
