// Package serving orchestrates the prediction pipeline: input
// validation or feature extraction, normalization, ensemble inference,
// attribution and response assembly. Each request moves through the
// stages under a single deadline.
package serving

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/neuroscreen-ai/inference/pkg/audio"
	"github.com/neuroscreen-ai/inference/pkg/common/config"
	"github.com/neuroscreen-ai/inference/pkg/common/logger"
	"github.com/neuroscreen-ai/inference/pkg/common/models"
	"github.com/neuroscreen-ai/inference/pkg/events"
	"github.com/neuroscreen-ai/inference/pkg/model"
	"github.com/neuroscreen-ai/inference/pkg/observability/metrics"
	"github.com/neuroscreen-ai/inference/pkg/schema"
	"github.com/neuroscreen-ai/inference/pkg/spiral"
	"github.com/neuroscreen-ai/inference/pkg/storage"
	"golang.org/x/sync/semaphore"
)

const topFeatureCount = 5

// Cache stores completed predictions keyed by payload digest.
type Cache interface {
	Get(ctx context.Context, key string) (*models.PredictionResult, bool)
	Set(ctx context.Context, key string, result *models.PredictionResult)
}

// EventSink receives anonymized prediction outcomes.
type EventSink interface {
	Publish(ctx context.Context, event events.PredictionEvent)
}

// Orchestrator runs predictions for all three input modalities. It is
// safe for concurrent use.
type Orchestrator struct {
	predictor *model.Predictor
	explainer *model.Explainer
	voice     *audio.Extractor
	drawing   *spiral.Extractor

	cache  Cache
	events EventSink

	extractSem     *semaphore.Weighted
	timeout        time.Duration
	maxUploadBytes int64
	ready          atomic.Bool
}

// New loads the model artifact and wires the extraction pipeline.
func New(cfg *config.Config) (*Orchestrator, error) {
	artifact, err := model.LoadArtifact(cfg.ModelDir, cfg.ModelName)
	if err != nil {
		return nil, fmt.Errorf("load model artifact: %w", err)
	}

	workers := cfg.ExtractionWorkers
	if workers < 1 {
		workers = 1
	}

	o := &Orchestrator{
		predictor:      model.NewPredictor(artifact, cfg.DetectionThreshold),
		explainer:      model.NewExplainer(artifact),
		voice:          audio.NewExtractor(cfg.MinAudioSeconds),
		drawing:        spiral.NewExtractor(),
		extractSem:     semaphore.NewWeighted(int64(workers)),
		timeout:        cfg.RequestTimeout,
		maxUploadBytes: cfg.MaxUploadBytes,
	}
	o.ready.Store(true)
	metrics.ModelLoaded.Set(1)

	logger.Log.WithFields(map[string]interface{}{
		"model_name": cfg.ModelName,
		"threshold":  o.predictor.Threshold(),
		"trees":      len(artifact.Model.Trees),
		"workers":    workers,
	}).Info("Model artifact loaded")
	return o, nil
}

// WithCache enables the result cache for upload modalities.
func (o *Orchestrator) WithCache(c Cache) *Orchestrator {
	o.cache = c
	return o
}

// WithEvents enables prediction event publishing.
func (o *Orchestrator) WithEvents(s EventSink) *Orchestrator {
	o.events = s
	return o
}

// Ready reports whether the model is loaded and accepting requests.
func (o *Orchestrator) Ready() bool {
	return o.ready.Load()
}

// PredictFromFeatures scores a hand-entered biomarker set. Every
// feature must be present and within its training range.
func (o *Orchestrator) PredictFromFeatures(ctx context.Context, requestID string, raw map[string]float64) (*models.PredictionResult, error) {
	return o.run(ctx, requestID, models.InputTypeVoice, func(ctx context.Context) (*models.PredictionResult, error) {
		vec, err := schema.Validate(raw)
		if err != nil {
			return nil, err
		}
		return o.assemble(vec, models.InputTypeVoice, nil, nil), nil
	})
}

// PredictFromAudio extracts the biomarkers from an uploaded recording
// and scores them. The format is taken from the file name.
func (o *Orchestrator) PredictFromAudio(ctx context.Context, requestID string, data []byte, filename string) (*models.PredictionResult, error) {
	return o.run(ctx, requestID, models.InputTypeAudio, func(ctx context.Context) (*models.PredictionResult, error) {
		if err := o.checkUploadSize(len(data)); err != nil {
			return nil, err
		}
		format, err := audio.FormatFromFilename(filename)
		if err != nil {
			return nil, err
		}
		key := storage.Key(models.InputTypeAudio, data)
		if cached, ok := o.cached(ctx, key); ok {
			return cached, nil
		}

		extracted, err := o.extractAudio(ctx, data, format)
		if err != nil {
			return nil, err
		}
		vec, err := schema.FromMap(extracted.Features)
		if err != nil {
			return nil, models.NewError(models.ErrInternal, "incomplete extraction: %v", err)
		}

		duration := round(extracted.Duration, 2)
		result := o.assemble(vec, models.InputTypeAudio, &duration, nil)
		o.store(key, result)
		return result, nil
	})
}

// PredictFromHandwriting derives tremor descriptors from an uploaded
// spiral drawing, projects them onto the biomarker schema and scores
// the projection.
func (o *Orchestrator) PredictFromHandwriting(ctx context.Context, requestID string, data []byte, filename string) (*models.PredictionResult, error) {
	return o.run(ctx, requestID, models.InputTypeHandwriting, func(ctx context.Context) (*models.PredictionResult, error) {
		if err := o.checkUploadSize(len(data)); err != nil {
			return nil, err
		}
		format, err := spiral.FormatFromFilename(filename)
		if err != nil {
			return nil, err
		}
		key := storage.Key(models.InputTypeHandwriting, data)
		if cached, ok := o.cached(ctx, key); ok {
			return cached, nil
		}

		extracted, err := o.extractSpiral(ctx, data, format)
		if err != nil {
			return nil, err
		}
		vec, err := schema.FromMap(extracted.Features)
		if err != nil {
			return nil, models.NewError(models.ErrInternal, "incomplete extraction: %v", err)
		}

		spiralMetrics := extracted.Metrics
		result := o.assemble(vec, models.InputTypeHandwriting, nil, &spiralMetrics)
		o.store(key, result)
		return result, nil
	})
}

// run applies readiness, the request deadline, instrumentation and
// event publishing around one pipeline invocation.
func (o *Orchestrator) run(ctx context.Context, requestID, inputType string, fn func(context.Context) (*models.PredictionResult, error)) (*models.PredictionResult, error) {
	if !o.ready.Load() {
		return nil, models.NewError(models.ErrNotReady, "model is not loaded yet, try again shortly")
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	type outcome struct {
		result *models.PredictionResult
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := fn(ctx)
		done <- outcome{result, err}
	}()

	var result *models.PredictionResult
	var err error
	select {
	case <-ctx.Done():
		err = models.NewError(models.ErrTimeout, "prediction did not complete within %s", o.timeout)
	case out := <-done:
		result, err = out.result, out.err
		if err != nil && (errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)) {
			err = models.NewError(models.ErrTimeout, "prediction did not complete within %s", o.timeout)
		}
	}

	elapsed := time.Since(start)
	if err != nil {
		kind := models.KindOf(err)
		if kind.Category() == models.CategoryExtraction {
			metrics.ExtractionFailures.WithLabelValues(string(kind)).Inc()
		}
		metrics.PredictionsTotal.WithLabelValues(inputType, "error").Inc()
		logger.Log.WithError(err).WithFields(map[string]interface{}{
			"request_id": requestID,
			"input_type": inputType,
			"kind":       string(kind),
			"duration":   elapsed.Milliseconds(),
		}).Warn("Prediction rejected")
		return nil, err
	}

	metrics.PredictionsTotal.WithLabelValues(inputType, "ok").Inc()
	metrics.PredictionDuration.WithLabelValues(inputType).Observe(elapsed.Seconds())
	logger.Log.WithFields(map[string]interface{}{
		"request_id": requestID,
		"input_type": inputType,
		"detected":   result.Detected,
		"risk_level": result.RiskLevel,
		"duration":   elapsed.Milliseconds(),
	}).Info("Prediction completed")

	if o.events != nil {
		o.publishEvent(requestID, result, elapsed)
	}
	return result, nil
}

// extractAudio bounds concurrent extraction with the worker semaphore.
func (o *Orchestrator) extractAudio(ctx context.Context, data []byte, format string) (*audio.Result, error) {
	if err := o.extractSem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer o.extractSem.Release(1)
	return o.voice.Extract(ctx, data, format)
}

func (o *Orchestrator) extractSpiral(ctx context.Context, data []byte, format string) (*spiral.Result, error) {
	if err := o.extractSem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer o.extractSem.Release(1)
	return o.drawing.Extract(ctx, data, format)
}

// assemble turns a validated feature vector into the full response.
func (o *Orchestrator) assemble(vec schema.Vector, inputType string, duration *float64, spiralMetrics *models.SpiralMetrics) *models.PredictionResult {
	normalized := o.predictor.Scaler().Normalize(vec)
	probHealthy, probParkinson := o.predictor.Probabilities(normalized)
	detected := o.predictor.Detected(probParkinson)
	risk := riskLevel(probParkinson)

	top := o.explainer.TopContributors(normalized, topFeatureCount)
	contributing := make([]models.ContributingFeature, len(top))
	for i, a := range top {
		contributing[i] = models.ContributingFeature{
			Feature:     string(a.ID),
			Value:       round(vec[a.Index], 6),
			Attribution: round(a.Weight, 6),
		}
	}

	result := &models.PredictionResult{
		Detected:                detected,
		Confidence:              round(math.Max(probHealthy, probParkinson), 4),
		ProbabilityHealthy:      round(probHealthy, 4),
		ProbabilityParkinson:    round(probParkinson, 4),
		RiskLevel:               risk,
		TopContributingFeatures: contributing,
		Recommendation:          recommendation(inputType, risk),
		InputType:               inputType,
		SpiralMetrics:           spiralMetrics,
		AudioDurationSeconds:    duration,
	}
	if inputType != models.InputTypeVoice {
		extractedMap := vec.ToMap()
		for k, v := range extractedMap {
			extractedMap[k] = round(v, 6)
		}
		result.ExtractedFeatures = extractedMap
	}
	return result
}

func (o *Orchestrator) cached(ctx context.Context, key string) (*models.PredictionResult, bool) {
	if o.cache == nil {
		return nil, false
	}
	return o.cache.Get(ctx, key)
}

// store writes on a detached context so a request hitting its deadline
// right after scoring still populates the cache.
func (o *Orchestrator) store(key string, result *models.PredictionResult) {
	if o.cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	o.cache.Set(ctx, key, result)
}

// publishEvent emits the anonymized outcome without blocking the
// response path.
func (o *Orchestrator) publishEvent(requestID string, result *models.PredictionResult, elapsed time.Duration) {
	event := events.PredictionEvent{
		RequestID:   requestID,
		InputType:   result.InputType,
		Detected:    result.Detected,
		RiskLevel:   result.RiskLevel,
		Probability: result.ProbabilityParkinson,
		LatencyMS:   elapsed.Milliseconds(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		o.events.Publish(ctx, event)
	}()
}

func (o *Orchestrator) checkUploadSize(size int) error {
	if int64(size) > o.maxUploadBytes {
		return models.NewError(models.ErrPayloadTooLarge,
			"upload of %d bytes exceeds the limit of %d bytes", size, o.maxUploadBytes)
	}
	if size == 0 {
		return models.NewError(models.ErrMissingField, "uploaded file is empty")
	}
	return nil
}

func round(v float64, digits int) float64 {
	scale := math.Pow(10, float64(digits))
	return math.Round(v*scale) / scale
}
