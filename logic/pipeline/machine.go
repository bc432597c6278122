package pipeline

import (
	"errors"
	"fmt"

	"sumulas-rag/types"
)

// Phase 编排状态
type Phase int

const (
	PhaseStart Phase = iota
	PhaseRetrieving
	PhaseGenerating
	PhaseDone
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseStart:
		return "START"
	case PhaseRetrieving:
		return "RETRIEVING"
	case PhaseGenerating:
		return "GENERATING"
	case PhaseDone:
		return "DONE"
	case PhaseError:
		return "ERROR"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// Terminal DONE 或 ERROR
func (p Phase) Terminal() bool {
	return p == PhaseDone || p == PhaseError
}

// Input 状态机输入
type Input interface {
	input()
}

// Begin START -> RETRIEVING
type Begin struct{}

// Retrieved the whole retrieval result set is available.
type Retrieved struct {
	Query         string
	FilterDisplay string
	Chunks        []types.Chunk
}

// RetrievalFailed query construction or search failed.
type RetrievalFailed struct {
	Err error
}

// TokenProduced the generator yielded one token.
type TokenProduced struct {
	Text string
}

// Exhausted the token sequence ended normally.
type Exhausted struct {
	Chunks []types.Chunk
}

// Interrupted generation failed to start or broke mid-stream.
type Interrupted struct {
	Err    error
	Chunks []types.Chunk
}

func (Begin) input()           {}
func (Retrieved) input()       {}
func (RetrievalFailed) input() {}
func (TokenProduced) input()   {}
func (Exhausted) input()       {}
func (Interrupted) input()     {}

var ErrIllegalTransition = errors.New("illegal pipeline transition")

// Transition is the pure transition function of the orchestrator.
//
//	START      --Begin-->           RETRIEVING
//	RETRIEVING --Retrieved-->       GENERATING  [Details]
//	RETRIEVING --RetrievalFailed--> ERROR       [Error]
//	GENERATING --TokenProduced-->   GENERATING  [Token]
//	GENERATING --Exhausted-->       DONE        [Sources]
//	GENERATING --Interrupted-->     ERROR       [Sources, Error]
//
// Terminal phases accept no input.
func Transition(p Phase, in Input) (Phase, []Event, error) {
	switch p {
	case PhaseStart:
		if _, ok := in.(Begin); ok {
			return PhaseRetrieving, nil, nil
		}
	case PhaseRetrieving:
		switch v := in.(type) {
		case Retrieved:
			return PhaseGenerating, []Event{DetailsEvent{Query: v.Query, Filter: v.FilterDisplay}}, nil
		case RetrievalFailed:
			return PhaseError, []Event{NewErrorEvent(v.Err)}, nil
		}
	case PhaseGenerating:
		switch v := in.(type) {
		case TokenProduced:
			if v.Text == "" {
				return PhaseGenerating, nil, nil
			}
			return PhaseGenerating, []Event{TokenEvent{Text: v.Text}}, nil
		case Exhausted:
			return PhaseDone, []Event{SourcesEvent{Sources: types.Sources(v.Chunks)}}, nil
		case Interrupted:
			err := v.Err
			if err == nil {
				err = types.ErrGenerationInterrupted
			} else if !errors.Is(err, types.ErrGenerationInterrupted) {
				err = fmt.Errorf("%w: %w", types.ErrGenerationInterrupted, err)
			}
			return PhaseError, []Event{
				SourcesEvent{Sources: types.Sources(v.Chunks)},
				NewErrorEvent(err),
			}, nil
		}
	}
	return p, nil, fmt.Errorf("%w: %T in %s", ErrIllegalTransition, in, p)
}
