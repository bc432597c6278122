package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/sirupsen/logrus"

	"sumulas-rag/logic/retrieval"
	"sumulas-rag/logic/trace"
	"sumulas-rag/types"
)

var ErrStreamClosed = errors.New("event stream closed")

// Stream is the one-shot event sequence of a single question. It is not safe
// for concurrent use; cancel the context given to Run to abort from another
// goroutine.
type Stream struct {
	p      *Pipeline
	ctx    context.Context
	cancel context.CancelFunc

	state   State
	pending []Event
	tokens  *schema.StreamReader[string]
	genCtx  context.Context
	answer  strings.Builder
	started time.Time
	closed  bool
}

// Next returns the next event, io.EOF after the terminal one.
// Retrieval runs to completion inside the first call; afterwards each call
// pulls at most one token from the generator.
func (s *Stream) Next() (Event, error) {
	for {
		if len(s.pending) > 0 {
			ev := s.pending[0]
			s.pending = s.pending[1:]
			return ev, nil
		}
		if s.state.Phase.Terminal() {
			s.release()
			return nil, io.EOF
		}
		if s.closed {
			return nil, ErrStreamClosed
		}
		if err := s.step(); err != nil {
			s.release()
			return nil, err
		}
	}
}

// Events adapts the stream to range-over-func. The stream is closed when the
// loop ends.
func (s *Stream) Events() iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		defer s.Close()
		for {
			ev, err := s.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(ev, err) || err != nil {
				return
			}
		}
	}
}

// Close cancels in-flight retrieval or generation and releases the token stream.
func (s *Stream) Close() {
	s.closed = true
	s.release()
}

// State snapshot of the per-question state.
func (s *Stream) State() State {
	st := s.state.clone()
	st.Answer = s.answer.String()
	return st
}

func (s *Stream) step() error {
	switch s.state.Phase {
	case PhaseStart:
		s.started = time.Now()
		return s.apply(Begin{})
	case PhaseRetrieving:
		return s.apply(s.retrieve())
	case PhaseGenerating:
		return s.apply(s.generate())
	}
	return fmt.Errorf("%w: step in %s", ErrIllegalTransition, s.state.Phase)
}

func (s *Stream) apply(in Input) error {
	next, events, err := Transition(s.state.Phase, in)
	if err != nil {
		return err
	}
	if next != s.state.Phase {
		logrus.WithFields(logrus.Fields{
			"from": s.state.Phase.String(),
			"to":   next.String(),
		}).Debug(">>> [Pipeline] transition")
	}
	s.state.Phase = next
	s.pending = append(s.pending, events...)
	switch v := in.(type) {
	case RetrievalFailed:
		s.fail(v.Err)
	case Interrupted:
		s.fail(v.Err)
	case Exhausted:
		s.state.Messages = append(s.state.Messages, schema.AssistantMessage(s.answer.String(), nil))
		logrus.WithFields(logrus.Fields{
			"question": s.state.Question,
			"chunks":   len(s.state.Chunks),
			"took":     time.Since(s.started),
		}).Info(">>> [Pipeline] 回答完成")
	}
	return nil
}

func (s *Stream) fail(err error) {
	s.state.Err = err
	logrus.WithError(err).WithFields(logrus.Fields{
		"question": s.state.Question,
		"phase":    s.state.Phase.String(),
	}).Error(">>> [Pipeline] 失败")
}

func (s *Stream) retrieve() Input {
	res, err := s.p.retrieve(s.ctx, s.state.Question, s.p.config.K)
	if err != nil {
		return RetrievalFailed{Err: err}
	}
	display := s.p.config.Formatter.Format(res.Query.Filter)
	s.state.Chunks = res.Chunks
	s.state.GeneratedQuery = res.Query.Query
	s.state.FilterDisplay = display
	return Retrieved{Query: res.Query.Query, FilterDisplay: display, Chunks: res.Chunks}
}

func (s *Stream) generate() Input {
	if s.tokens == nil {
		s.genCtx = trace.Stage(s.ctx, "generate", s.state.Question)
		sr, messages, err := s.p.generator.Generate(s.genCtx, s.state.Question, retrieval.AssembleContext(s.state.Chunks))
		s.state.Messages = messages
		if err != nil {
			trace.Fail(s.genCtx, err)
			return Interrupted{Err: fmt.Errorf("%w: %w", types.ErrGenerationInterrupted, err), Chunks: s.state.Chunks}
		}
		s.tokens = sr
	}
	tok, err := s.tokens.Recv()
	if errors.Is(err, io.EOF) {
		s.release()
		trace.End(s.genCtx, s.answer.Len())
		return Exhausted{Chunks: s.state.Chunks}
	}
	if err != nil {
		s.release()
		trace.Fail(s.genCtx, err)
		return Interrupted{Err: fmt.Errorf("%w: %w", types.ErrGenerationInterrupted, err), Chunks: s.state.Chunks}
	}
	s.answer.WriteString(tok)
	return TokenProduced{Text: tok}
}

func (s *Stream) release() {
	if s.tokens != nil {
		s.tokens.Close()
		s.tokens = nil
	}
	s.cancel()
}

// Collect drains the stream into a slice.
func Collect(s *Stream) ([]Event, error) {
	var events []Event
	for ev, err := range s.Events() {
		if err != nil {
			return events, err
		}
		events = append(events, ev)
	}
	return events, nil
}
