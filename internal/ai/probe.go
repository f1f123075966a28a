package ai

import (
	"fmt"
	"strings"
)

type ProbeStatus string

const (
	ProbeAvailable   ProbeStatus = "available"
	ProbeUnavailable ProbeStatus = "unavailable"
	ProbeSkipped     ProbeStatus = "skipped"
)

// ProbeResult is the outcome of checking a single candidate model.
type ProbeResult struct {
	Model  string      `json:"model"`
	Status ProbeStatus `json:"status"`
	Reason string      `json:"reason,omitempty"`
}

func (r ProbeResult) String() string {
	if r.Reason == "" {
		return fmt.Sprintf("%s: %s", r.Model, r.Status)
	}
	return fmt.Sprintf("%s: %s (%s)", r.Model, r.Status, r.Reason)
}

// Selection is the result of scanning the candidate list: the chosen model, if
// any, and one ProbeResult per candidate considered.
type Selection struct {
	Model   string        `json:"model,omitempty"`
	Results []ProbeResult `json:"results"`
}

// Resolved reports whether a candidate answered successfully.
func (s *Selection) Resolved() bool {
	return s != nil && s.Model != ""
}

// LastFailure returns the reason of the last candidate that was actually probed
// and failed, falling back to the last skip reason.
func (s *Selection) LastFailure() string {
	if s == nil {
		return ""
	}

	skipped := ""
	for i := len(s.Results) - 1; i >= 0; i-- {
		r := s.Results[i]
		switch r.Status {
		case ProbeUnavailable:
			return r.Model + ": " + r.Reason
		case ProbeSkipped:
			if skipped == "" {
				skipped = r.Model + ": " + r.Reason
			}
		}
	}
	return skipped
}

// Err describes why no model was resolved, or nil when one was.
func (s *Selection) Err() error {
	if s.Resolved() {
		return nil
	}

	last := s.LastFailure()
	if last == "" {
		return fmt.Errorf("%w: no candidate models configured", ErrNoModel)
	}
	return fmt.Errorf("%w: last failure %s", ErrNoModel, last)
}

func (s *Selection) Summary() string {
	if s == nil {
		return ""
	}
	parts := make([]string, 0, len(s.Results))
	for _, r := range s.Results {
		parts = append(parts, r.String())
	}
	return strings.Join(parts, "; ")
}
