package models

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorKind string

const (
	ErrMissingField      ErrorKind = "missing_field"
	ErrOutOfRange        ErrorKind = "out_of_range"
	ErrUnsupportedFormat ErrorKind = "unsupported_format"
	ErrPayloadTooLarge   ErrorKind = "payload_too_large"

	ErrInsufficientAudioDuration ErrorKind = "insufficient_audio_duration"
	ErrNoVoicedSignal            ErrorKind = "no_voiced_signal"
	ErrUnsupportedSampleRate     ErrorKind = "unsupported_sample_rate"
	ErrNoContourDetected         ErrorKind = "no_contour_detected"
	ErrImageTooSmall             ErrorKind = "image_too_small"

	ErrNotReady ErrorKind = "not_ready"
	ErrTimeout  ErrorKind = "timeout"
	ErrInternal ErrorKind = "internal"
)

type ErrorCategory string

const (
	CategoryValidation ErrorCategory = "validation"
	CategoryExtraction ErrorCategory = "extraction"
	CategoryModel      ErrorCategory = "model"
	CategoryTimeout    ErrorCategory = "timeout"
)

// PredictionError carries a machine-readable kind alongside a
// caller-facing detail string. Internal detail never leaks: the serving
// layer replaces ErrInternal details before responding.
type PredictionError struct {
	Kind   ErrorKind
	Detail string
}

func (e *PredictionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func NewError(kind ErrorKind, format string, args ...interface{}) *PredictionError {
	return &PredictionError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// KindOf classifies any error. Unclassified errors map to ErrInternal.
func KindOf(err error) ErrorKind {
	var pe *PredictionError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ErrInternal
}

func (k ErrorKind) Category() ErrorCategory {
	switch k {
	case ErrMissingField, ErrOutOfRange, ErrUnsupportedFormat, ErrPayloadTooLarge:
		return CategoryValidation
	case ErrInsufficientAudioDuration, ErrNoVoicedSignal, ErrUnsupportedSampleRate,
		ErrNoContourDetected, ErrImageTooSmall:
		return CategoryExtraction
	case ErrTimeout:
		return CategoryTimeout
	default:
		return CategoryModel
	}
}

func (k ErrorKind) HTTPStatus() int {
	switch k {
	case ErrMissingField, ErrOutOfRange, ErrUnsupportedFormat,
		ErrInsufficientAudioDuration, ErrNoVoicedSignal, ErrUnsupportedSampleRate,
		ErrNoContourDetected, ErrImageTooSmall:
		return http.StatusBadRequest
	case ErrPayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case ErrNotReady:
		return http.StatusServiceUnavailable
	case ErrTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
