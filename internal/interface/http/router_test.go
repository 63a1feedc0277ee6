package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/price-predictor/internal/domain/pricing"
	"github.com/yanqian/price-predictor/internal/infra/config"
	apperrors "github.com/yanqian/price-predictor/pkg/errors"
	"github.com/yanqian/price-predictor/pkg/metrics"
)

func TestRouter_PredictStatus(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/predict", nil)
	recorder := serve(newRouterUnderTest(t, &stubPricing{}, nil), req)

	require.Equal(t, http.StatusOK, recorder.Code)
	require.JSONEq(t, `{"message":"Prediction endpoint is live."}`, recorder.Body.String())
}

func TestRouter_PredictJSONEndToEnd(t *testing.T) {
	model := regressorFunc(func(_ context.Context, rows [][]float64) ([]float64, error) {
		require.Equal(t, [][]float64{{0, 0, 4.8, 1200, 2, 0, 0, 2, 0, 0}}, rows)
		return []float64{349.456}, nil
	})
	svc := pricing.NewService(model, nil, nil, newTestLogger())

	body := `{"category":"Electronics","brand":"Premium","rating":4.8,"reviews":1200,"shipping":"prime",
		"seller":"high","competition":"low","demand":"trending","productAge":"new","stock":"high"}`
	recorder := performRequest("/predict", body, newRouterUnderTest(t, svc, nil))
	require.Equal(t, http.StatusOK, recorder.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &got))
	require.Equal(t, 349.46, got["predicted_price"])
	require.Equal(t, "Very High", got["confidence"])
	require.Equal(t, "Premium", got["market_position"])
	require.Equal(t, "Very Favorable", got["competitive_index"])
	require.Equal(t, "$279.56 - $419.35", got["price_range"])
	require.Equal(t, got["anomaly_explanation"], got["ai_analysis"])
	require.Equal(t, got["anomaly_explanation"], got["recommendations"])
}

func TestRouter_PredictJSONKeepsNumbers(t *testing.T) {
	svc := &stubPricing{
		predictFn: func(_ context.Context, in pricing.RawInput) (pricing.Response, error) {
			require.Equal(t, json.Number("1200"), in["reviews"])
			require.Nil(t, in["rating"])
			return pricing.Response{PredictedPrice: 10}, nil
		},
	}

	recorder := performRequest("/predict", `{"reviews":1200,"rating":null}`, newRouterUnderTest(t, svc, nil))
	require.Equal(t, http.StatusOK, recorder.Code)
}

func TestRouter_PredictForm(t *testing.T) {
	svc := &stubPricing{
		predictFn: func(_ context.Context, in pricing.RawInput) (pricing.Response, error) {
			require.Equal(t, pricing.RawInput{"category": "Books", "rating": "4.1"}, in)
			return pricing.Response{PredictedPrice: 12.5}, nil
		},
	}
	form := url.Values{"category": {"Books", "Toys"}, "rating": {"4.1"}}
	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	recorder := serve(newRouterUnderTest(t, svc, nil), req)
	require.Equal(t, http.StatusOK, recorder.Code)
}

func TestRouter_PredictMultipartForm(t *testing.T) {
	svc := &stubPricing{
		predictFn: func(_ context.Context, in pricing.RawInput) (pricing.Response, error) {
			require.Equal(t, "saturated", in["competition"])
			return pricing.Response{}, nil
		},
	}
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("competition", "saturated"))
	require.NoError(t, writer.Close())
	req := httptest.NewRequest(http.MethodPost, "/predict", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	recorder := serve(newRouterUnderTest(t, svc, nil), req)
	require.Equal(t, http.StatusOK, recorder.Code)
}

func TestRouter_PredictInvalidJSON(t *testing.T) {
	for _, body := range []string{`{"rating":`, `[1,2]`, `"text"`, ``} {
		recorder := performRequest("/predict", body, newRouterUnderTest(t, &stubPricing{}, nil))
		require.Equal(t, http.StatusBadRequest, recorder.Code, body)

		errBody := decodeErrorBody(t, recorder.Body.Bytes())
		require.Equal(t, "invalid_request", errBody["code"])
		require.NotEmpty(t, errBody["error"])
	}
}

func TestRouter_PredictInvalidInput(t *testing.T) {
	svc := pricing.NewService(regressorFunc(func(context.Context, [][]float64) ([]float64, error) {
		return []float64{1}, nil
	}), nil, nil, newTestLogger())

	recorder := performRequest("/predict", `{"rating":"excellent"}`, newRouterUnderTest(t, svc, nil))
	require.Equal(t, http.StatusInternalServerError, recorder.Code)

	errBody := decodeErrorBody(t, recorder.Body.Bytes())
	require.Equal(t, pricing.CodeInvalidInput, errBody["code"])
	require.True(t, strings.HasPrefix(errBody["error"], "Prediction failed: rating must be numeric"))
}

func TestRouter_PredictModelFailure(t *testing.T) {
	svc := &stubPricing{
		predictFn: func(context.Context, pricing.RawInput) (pricing.Response, error) {
			return pricing.Response{}, apperrors.Wrap(pricing.CodePredictionFailed, "model call failed", errors.New("tree walk failed"))
		},
	}

	recorder := performRequest("/predict", `{}`, newRouterUnderTest(t, svc, nil))
	require.Equal(t, http.StatusInternalServerError, recorder.Code)

	errBody := decodeErrorBody(t, recorder.Body.Bytes())
	require.Equal(t, "prediction_failed", errBody["code"])
	require.Equal(t, "Prediction failed: model call failed: tree walk failed", errBody["error"])
}

func TestRouter_RequestID(t *testing.T) {
	server := newRouterUnderTest(t, &stubPricing{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/predict", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	require.Equal(t, "abc-123", serve(server, req).Header().Get("X-Request-ID"))

	generated := serve(server, httptest.NewRequest(http.MethodGet, "/predict", nil)).Header().Get("X-Request-ID")
	require.Len(t, generated, 36)
}

func TestRouter_CORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/predict", nil)
	req.Header.Set("Origin", "http://localhost:3000")

	recorder := serve(newRouterUnderTest(t, &stubPricing{}, nil), req)
	require.Equal(t, http.StatusNoContent, recorder.Code)
	require.Equal(t, "*", recorder.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_RateLimit(t *testing.T) {
	server := newRouterUnderTest(t, &stubPricing{}, func(cfg *config.Config) {
		cfg.HTTP.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1, Burst: 1}
	})

	require.Equal(t, http.StatusOK, performRequest("/predict", `{}`, server).Code)
	recorder := performRequest("/predict", `{}`, server)
	require.Equal(t, http.StatusTooManyRequests, recorder.Code)
	require.Equal(t, "rate_limit_exceeded", decodeErrorBody(t, recorder.Body.Bytes())["code"])
}

func TestRouter_Metrics(t *testing.T) {
	rec := metrics.New()
	svc := pricing.NewService(regressorFunc(func(context.Context, [][]float64) ([]float64, error) {
		return []float64{50}, nil
	}), nil, rec, newTestLogger())
	server := newRouterUnderTestWithMetrics(t, svc, rec)

	require.Equal(t, http.StatusOK, performRequest("/predict", `{}`, server).Code)

	recorder := serve(server, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, recorder.Code)
	body := recorder.Body.String()
	require.Contains(t, body, `pricing_predictions_total{outcome="ok"} 1`)
	require.Contains(t, body, `http_request_duration_seconds_count{method="POST",route="/predict",status="200"} 1`)
}

func TestRouter_StaticFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>Price Predictor</h1>"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log('ok')"), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "assets"), 0o700))
	server := newRouterUnderTest(t, &stubPricing{}, func(cfg *config.Config) {
		cfg.HTTP.StaticDir = dir
	})

	recorder := serve(server, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Contains(t, recorder.Body.String(), "Price Predictor")

	recorder = serve(server, httptest.NewRequest(http.MethodGet, "/app.js", nil))
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Equal(t, "console.log('ok')", recorder.Body.String())

	for _, path := range []string{"/missing.css", "/assets", "/../../etc/passwd"} {
		recorder = serve(server, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusNotFound, recorder.Code, path)
	}
}

func TestRouter_UnknownRoute(t *testing.T) {
	recorder := serve(newRouterUnderTest(t, &stubPricing{}, nil), httptest.NewRequest(http.MethodGet, "/api/v1/summaries", nil))
	require.Equal(t, http.StatusNotFound, recorder.Code)
	require.Equal(t, "not_found", decodeErrorBody(t, recorder.Body.Bytes())["code"])
}

func performRequest(path, body string, server *http.Server) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return serve(server, req)
}

func serve(server *http.Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)
	return rec
}

func newRouterUnderTest(t *testing.T, svc pricing.Service, mutate func(*config.Config)) *http.Server {
	t.Helper()
	cfg := &config.Config{
		HTTP: config.HTTPConfig{
			Address:      ":0",
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
		},
	}
	if mutate != nil {
		mutate(cfg)
	}
	return NewRouter(cfg, NewHandler(svc, newTestLogger()), nil)
}

func newRouterUnderTestWithMetrics(t *testing.T, svc pricing.Service, rec *metrics.Recorder) *http.Server {
	t.Helper()
	cfg := &config.Config{
		HTTP:    config.HTTPConfig{Address: ":0"},
		Metrics: config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
	return NewRouter(cfg, NewHandler(svc, newTestLogger()), rec)
}

func newTestLogger() *slog.Logger {
	handler := slog.NewTextHandler(io.Discard, nil)
	return slog.New(handler)
}

type stubPricing struct {
	predictFn func(ctx context.Context, in pricing.RawInput) (pricing.Response, error)
}

func (s *stubPricing) Predict(ctx context.Context, in pricing.RawInput) (pricing.Response, error) {
	if s.predictFn != nil {
		return s.predictFn(ctx, in)
	}
	return pricing.Response{}, nil
}

type regressorFunc func(ctx context.Context, rows [][]float64) ([]float64, error)

func (f regressorFunc) PredictBatch(ctx context.Context, rows [][]float64) ([]float64, error) {
	return f(ctx, rows)
}

func decodeErrorBody(t *testing.T, raw []byte) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}
