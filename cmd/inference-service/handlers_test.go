package main

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/neuroscreen-ai/inference/pkg/common/config"
	"github.com/neuroscreen-ai/inference/pkg/common/models"
	"github.com/neuroscreen-ai/inference/pkg/metadata"
	"github.com/neuroscreen-ai/inference/pkg/serving"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testService(t *testing.T) http.Handler {
	t.Helper()
	cfg := &config.Config{
		ModelDir:           "../../model",
		ModelName:          "parkinsons_gbt",
		RequestTimeout:     10 * time.Second,
		ExtractionWorkers:  2,
		DetectionThreshold: 0.5,
		MinAudioSeconds:    2.0,
		MaxUploadBytes:     10 << 20,
		MaxRequestBody:     16 << 20,
		RateLimitRPS:       1000,
		RateLimitBurst:     1000,
	}

	orchestrator, err := serving.New(cfg)
	require.NoError(t, err)
	metaStore, err := metadata.Load(cfg.ModelDir)
	require.NoError(t, err)

	service := &InferenceService{orchestrator: orchestrator, metadata: metaStore}
	return buildRouter(service, cfg)
}

func TestPredictEndpoint(t *testing.T) {
	router := testService(t)

	body, err := json.Marshal(serving.SampleData()["parkinsons"])
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/predict", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var result models.PredictionResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Detected)
	assert.Equal(t, "High", result.RiskLevel)
	assert.Len(t, result.TopContributingFeatures, 5)
}

func TestPredictEndpointRejectsMissingFeature(t *testing.T) {
	router := testService(t)

	features := map[string]float64{}
	for k, v := range serving.SampleData()["healthy"] {
		features[k] = v
	}
	delete(features, "ppe")
	body, err := json.Marshal(features)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/predict", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "missing_field", resp.Kind)
	assert.Contains(t, resp.Detail, "ppe")
}

func TestPredictEndpointRejectsNonJSONBody(t *testing.T) {
	router := testService(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/predict", bytes.NewReader([]byte("not json")))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAudioEndpointRequiresFile(t *testing.T) {
	router := testService(t)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	require.NoError(t, writer.WriteField("note", "no file attached"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/predict/audio", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "missing_field", resp.Kind)
}

func TestHandwritingEndpointRejectsUnknownFormat(t *testing.T) {
	router := testService(t)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "spiral.gif")
	require.NoError(t, err)
	_, err = part.Write([]byte("GIF89a"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/predict/handwriting", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "unsupported_format", resp.Kind)
}

func TestMetadataEndpoint(t *testing.T) {
	router := testService(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/metadata", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var meta models.ModelMetadata
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &meta))
	assert.Len(t, meta.FeatureNames, 22)
	assert.Equal(t, "XGBoost", meta.BestModelByRecall)
	assert.NotEmpty(t, meta.SHAPImportance)
}

func TestSampleDataEndpoint(t *testing.T) {
	router := testService(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sample-data", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var samples map[string]map[string]float64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &samples))
	assert.Len(t, samples["healthy"], 22)
	assert.Len(t, samples["parkinsons"], 22)
}

func TestHealthAndReadyEndpoints(t *testing.T) {
	router := testService(t)

	for _, path := range []string{"/health", "/ready"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestRootEndpointListsRoutes(t *testing.T) {
	router := testService(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/api/v1/predict")
}

func TestRequestIDPropagatesToResponse(t *testing.T) {
	router := testService(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-abc")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "req-abc", rec.Header().Get("X-Request-ID"))
}
