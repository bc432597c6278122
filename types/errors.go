package types

import "errors"

// 错误分类，各层通用，用 errors.Is 判断
var (
	// ErrEmptyQuestion the caller sent a blank question
	ErrEmptyQuestion = errors.New("empty question")

	// ErrSchemaViolation an inferred filter references an undeclared attribute or operator.
	// Recoverable: the filter is dropped and the search runs unfiltered.
	ErrSchemaViolation = errors.New("filter schema violation")

	// ErrInferenceUnavailable the inference service could not produce a structured query
	ErrInferenceUnavailable = errors.New("inference service unavailable")

	// ErrIndexUnavailable the hybrid index could not be searched. Fatal for the request.
	ErrIndexUnavailable = errors.New("index unavailable")

	// ErrGenerationInterrupted the answer stream broke before it was exhausted
	ErrGenerationInterrupted = errors.New("generation interrupted")

	// ErrIngestionParseFailure an extraction result could not be parsed; the input is skipped
	ErrIngestionParseFailure = errors.New("ingestion parse failure")
)
