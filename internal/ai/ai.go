package ai

import (
	"context"
	"errors"
	"sort"
)

var (
	// ErrTransport covers network failures and timeouts.
	ErrTransport = errors.New("network error")
	// ErrNotFound means the model is unknown or not usable with this key.
	ErrNotFound = errors.New("model not found")
	// ErrQuotaExceeded means the key ran out of quota for the model.
	ErrQuotaExceeded = errors.New("quota exceeded")
	// ErrUnexpectedResponse means the service answered with something unusable.
	ErrUnexpectedResponse = errors.New("unexpected response")
	// ErrNoModel means no candidate model could be resolved.
	ErrNoModel = errors.New("no model available")
)

// Answerer answers a question about a grounding document. Failures come back
// as readable text in place of the answer, never as an error.
type Answerer interface {
	Answer(ctx context.Context, groundingText, question, model string) string
}

// AvailabilitySet holds the model identifiers the service reported as usable.
// An empty set means the availability is unknown.
type AvailabilitySet map[string]struct{}

func NewAvailabilitySet(models ...string) AvailabilitySet {
	set := make(AvailabilitySet, len(models))
	for _, m := range models {
		set[m] = struct{}{}
	}
	return set
}

// Known reports whether the probe produced any information.
func (s AvailabilitySet) Known() bool { return len(s) > 0 }

func (s AvailabilitySet) Has(model string) bool {
	_, ok := s[model]
	return ok
}

// Sorted returns the identifiers in lexical order.
func (s AvailabilitySet) Sorted() []string {
	models := make([]string, 0, len(s))
	for m := range s {
		models = append(models, m)
	}
	sort.Strings(models)
	return models
}
