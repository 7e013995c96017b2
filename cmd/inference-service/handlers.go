package main

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/neuroscreen-ai/inference/pkg/common/logger"
	"github.com/neuroscreen-ai/inference/pkg/common/models"
	"github.com/neuroscreen-ai/inference/pkg/gateway/middleware"
	"github.com/neuroscreen-ai/inference/pkg/metadata"
	"github.com/neuroscreen-ai/inference/pkg/serving"
)

type InferenceService struct {
	orchestrator *serving.Orchestrator
	metadata     *metadata.Store
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

func (s *InferenceService) handleReady(w http.ResponseWriter, r *http.Request) {
	if !s.orchestrator.Ready() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not_ready"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *InferenceService) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"service": "neuroscreen-inference",
		"version": "1.0.0",
		"endpoints": []string{
			"POST /api/v1/predict",
			"POST /api/v1/predict/audio",
			"POST /api/v1/predict/handwriting",
			"GET /api/v1/metadata",
			"GET /api/v1/sample-data",
			"GET /health",
			"GET /ready",
			"GET /metrics",
		},
	})
}

// handlePredict scores a flat JSON object of the 22 biomarkers.
func (s *InferenceService) handlePredict(w http.ResponseWriter, r *http.Request) {
	var features map[string]float64
	if err := json.NewDecoder(r.Body).Decode(&features); err != nil {
		writeError(w, models.NewError(models.ErrMissingField, "request body must be a JSON object of numeric features"))
		return
	}

	result, err := s.orchestrator.PredictFromFeatures(r.Context(), requestID(r), features)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *InferenceService) handlePredictAudio(w http.ResponseWriter, r *http.Request) {
	data, filename, err := readUpload(r)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := s.orchestrator.PredictFromAudio(r.Context(), requestID(r), data, filename)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *InferenceService) handlePredictHandwriting(w http.ResponseWriter, r *http.Request) {
	data, filename, err := readUpload(r)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := s.orchestrator.PredictFromHandwriting(r.Context(), requestID(r), data, filename)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *InferenceService) handleMetadata(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.metadata.Metadata())
}

func (s *InferenceService) handleSampleData(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, serving.SampleData())
}

// readUpload pulls the multipart "file" part into memory. Size limits
// are enforced again by the orchestrator; the body limit middleware
// bounds the worst case.
func readUpload(r *http.Request) ([]byte, string, error) {
	file, header, err := r.FormFile("file")
	if err != nil {
		if isBodyTooLarge(err) {
			return nil, "", models.NewError(models.ErrPayloadTooLarge, "request body exceeds the upload limit")
		}
		return nil, "", models.NewError(models.ErrMissingField, "multipart field %q with the uploaded file is required", "file")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		if isBodyTooLarge(err) {
			return nil, "", models.NewError(models.ErrPayloadTooLarge, "request body exceeds the upload limit")
		}
		return nil, "", models.NewError(models.ErrInternal, "failed to read upload: %v", err)
	}
	return data, header.Filename, nil
}

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large")
}

func requestID(r *http.Request) string {
	return r.Header.Get(middleware.RequestIDHeader)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Log.WithError(err).Error("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, err error) {
	kind := models.KindOf(err)
	detail := err.Error()
	var pe *models.PredictionError
	if errors.As(err, &pe) {
		detail = pe.Detail
	}
	if kind == models.ErrInternal {
		logger.Log.WithError(err).Error("Prediction failed")
		detail = "internal error"
	}
	writeJSON(w, kind.HTTPStatus(), models.ErrorResponse{Kind: string(kind), Detail: detail})
}
