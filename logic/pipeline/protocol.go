package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

var ErrProtocol = errors.New("event protocol violation")

// ValidateSequence checks events against the stream protocol:
//
//	Details Token* Sources          success
//	Details Token* Sources Error    generation interrupted
//	Error                           retrieval failed
func ValidateSequence(events []Event) error {
	if len(events) == 0 {
		return fmt.Errorf("%w: empty stream", ErrProtocol)
	}
	if len(events) == 1 && events[0].Kind() == KindError {
		return nil
	}
	if events[0].Kind() != KindDetails {
		return fmt.Errorf("%w: stream starts with %s", ErrProtocol, events[0].Kind())
	}
	i := 1
	for i < len(events) && events[i].Kind() == KindToken {
		i++
	}
	if i == len(events) || events[i].Kind() != KindSources {
		return fmt.Errorf("%w: missing sources event at %d", ErrProtocol, i)
	}
	i++
	if i < len(events) && events[i].Kind() == KindError {
		i++
	}
	if i != len(events) {
		return fmt.Errorf("%w: unexpected %s event at %d", ErrProtocol, events[i].Kind(), i)
	}
	return nil
}

// Answer concatenates the token events.
func Answer(events []Event) string {
	var b strings.Builder
	for _, ev := range events {
		if t, ok := ev.(TokenEvent); ok {
			b.WriteString(t.Text)
		}
	}
	return b.String()
}
