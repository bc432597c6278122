package pipeline

import (
	"context"
	"errors"

	"sumulas-rag/types"
	"sumulas-rag/vars"
)

// Kind 事件类型，同时作为 SSE 的 event 名
type Kind string

const (
	KindDetails Kind = vars.EVENT_DETAILS
	KindToken   Kind = vars.EVENT_TOKEN
	KindSources Kind = vars.EVENT_SOURCES
	KindError   Kind = vars.EVENT_ERROR
)

// Event is one element of the per-question event stream: DetailsEvent,
// TokenEvent, SourcesEvent or the terminal ErrorEvent.
type Event interface {
	Kind() Kind
	event()
}

// DetailsEvent executed query and its filter, rendered for display
type DetailsEvent struct {
	Query  string `json:"query"`
	Filter string `json:"filter"`
}

// TokenEvent one piece of the answer
type TokenEvent struct {
	Text string `json:"text"`
}

// SourcesEvent provenance of the chunks the answer was grounded on
type SourcesEvent struct {
	Sources []types.SourceRef `json:"sources"`
}

// ErrorKind 失败原因分类
type ErrorKind string

const (
	ErrKindIndexUnavailable      ErrorKind = "index_unavailable"
	ErrKindInferenceUnavailable  ErrorKind = "inference_unavailable"
	ErrKindGenerationInterrupted ErrorKind = "generation_interrupted"
	ErrKindInvalidQuestion       ErrorKind = "invalid_question"
	ErrKindCancelled             ErrorKind = "cancelled"
	ErrKindInternal              ErrorKind = "internal"
)

// FailureMessage 返回给调用方的通用错误提示
const FailureMessage = "Não foi possível concluir a resposta. Tente novamente."

// ErrorEvent terminates a failed stream. Message is generic; the cause is logged.
type ErrorEvent struct {
	Reason  ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func (DetailsEvent) Kind() Kind { return KindDetails }
func (TokenEvent) Kind() Kind   { return KindToken }
func (SourcesEvent) Kind() Kind { return KindSources }
func (ErrorEvent) Kind() Kind   { return KindError }

func (DetailsEvent) event() {}
func (TokenEvent) event()   {}
func (SourcesEvent) event() {}
func (ErrorEvent) event()   {}

// NewErrorEvent classifies err.
func NewErrorEvent(err error) ErrorEvent {
	return ErrorEvent{Reason: classify(err), Message: FailureMessage}
}

func classify(err error) ErrorKind {
	switch {
	case errors.Is(err, context.Canceled):
		return ErrKindCancelled
	case errors.Is(err, types.ErrGenerationInterrupted):
		return ErrKindGenerationInterrupted
	case errors.Is(err, types.ErrIndexUnavailable):
		return ErrKindIndexUnavailable
	case errors.Is(err, types.ErrInferenceUnavailable):
		return ErrKindInferenceUnavailable
	case errors.Is(err, types.ErrEmptyQuestion):
		return ErrKindInvalidQuestion
	}
	return ErrKindInternal
}
