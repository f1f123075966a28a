package gemini

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/cv-chat/internal/ai"
)

const (
	reasonDuplicate   = "duplicate candidate"
	reasonUnavailable = "not in availability list"
)

type prober interface {
	Probe(ctx context.Context, model string) error
}

// Selector resolves the first working model out of an ordered candidate list.
type Selector struct {
	prober prober
	logger *zap.Logger
}

func NewSelector(client *Client, logger *zap.Logger) *Selector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Selector{prober: client, logger: logger}
}

// Select walks candidates in order and stops at the first one whose probe
// succeeds. Candidates missing from a known availability set are skipped
// without a request. Each considered candidate leaves a ProbeResult in the
// returned Selection.
func (s *Selector) Select(ctx context.Context, candidates []string, availability ai.AvailabilitySet) *ai.Selection {
	selection := &ai.Selection{Results: make([]ai.ProbeResult, 0, len(candidates))}
	seen := make(map[string]struct{}, len(candidates))

	for _, candidate := range candidates {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}

		if _, dup := seen[candidate]; dup {
			selection.Results = append(selection.Results, ai.ProbeResult{Model: candidate, Status: ai.ProbeSkipped, Reason: reasonDuplicate})
			continue
		}
		seen[candidate] = struct{}{}

		if availability.Known() && !availability.Has(candidate) {
			s.logger.Debug("skipping candidate model", zap.String("model", candidate), zap.String("reason", reasonUnavailable))
			selection.Results = append(selection.Results, ai.ProbeResult{Model: candidate, Status: ai.ProbeSkipped, Reason: reasonUnavailable})
			continue
		}

		if err := s.prober.Probe(ctx, candidate); err != nil {
			reason := classify(err).probeReason()
			s.logger.Warn("candidate model is unavailable", zap.String("model", candidate), zap.String("reason", reason))
			selection.Results = append(selection.Results, ai.ProbeResult{Model: candidate, Status: ai.ProbeUnavailable, Reason: reason})
			continue
		}

		s.logger.Info("model resolved", zap.String("model", candidate))
		selection.Results = append(selection.Results, ai.ProbeResult{Model: candidate, Status: ai.ProbeAvailable})
		selection.Model = candidate
		return selection
	}

	s.logger.Error("no candidate model responded", zap.String("last_failure", selection.LastFailure()))
	return selection
}
