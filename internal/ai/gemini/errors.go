package gemini

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/mitchellh/mapstructure"
	"google.golang.org/genai"

	"github.com/spigell/cv-chat/internal/ai"
	"github.com/spigell/cv-chat/internal/utils"
)

const (
	retryInfoType = "type.googleapis.com/google.rpc.RetryInfo"
	errorInfoType = "type.googleapis.com/google.rpc.ErrorInfo"

	maxReasonLength = 160
)

// failure is a classified request error.
type failure struct {
	kind    error
	code    int
	status  string
	message string
	// retryDelay and reason come from the google.rpc details of the error body.
	retryDelay string
	reason     string
}

type errorDetail struct {
	Type       string `mapstructure:"@type"`
	Reason     string `mapstructure:"reason"`
	RetryDelay string `mapstructure:"retryDelay"`
}

// classify maps a request error onto the ai error taxonomy.
func classify(err error) failure {
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		apiErr = *apiErrPtr
	}
	if apiErrPtr != nil || errors.As(err, &apiErr) {
		f := failure{
			code:    apiErr.Code,
			status:  apiErr.Status,
			message: strings.TrimSpace(apiErr.Message),
		}
		f.retryDelay, f.reason = decodeDetails(apiErr.Details)

		switch {
		case apiErr.Code == http.StatusNotFound || apiErr.Status == "NOT_FOUND":
			f.kind = ai.ErrNotFound
		case apiErr.Code == http.StatusTooManyRequests || apiErr.Status == "RESOURCE_EXHAUSTED":
			f.kind = ai.ErrQuotaExceeded
		}
		return f
	}

	var urlErr *url.Error
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.As(err, &urlErr) || errors.As(err, &netErr) {
		return failure{kind: ai.ErrTransport, message: err.Error()}
	}

	return failure{kind: ai.ErrUnexpectedResponse, message: err.Error()}
}

func decodeDetails(details []map[string]any) (retryDelay, reason string) {
	for _, raw := range details {
		var detail errorDetail
		if err := mapstructure.Decode(raw, &detail); err != nil {
			continue
		}

		switch detail.Type {
		case retryInfoType:
			retryDelay = detail.RetryDelay
		case errorInfoType:
			reason = detail.Reason
		}
	}
	return retryDelay, reason
}

// probeReason is the short diagnostic stored in a ProbeResult.
func (f failure) probeReason() string {
	switch f.kind {
	case ai.ErrNotFound, ai.ErrQuotaExceeded:
		return f.kind.Error()
	case ai.ErrTransport, ai.ErrUnexpectedResponse:
		return utils.TruncateForLog(fmt.Sprintf("%s: %s", f.kind, f.message), maxReasonLength)
	default:
		return utils.TruncateForLog(fmt.Sprintf("HTTP %d %s: %s", f.code, f.status, f.message), maxReasonLength)
	}
}

// answer renders the failure as the labeled text shown in place of an answer.
func (f failure) answer() string {
	message := f.message
	if message == "" {
		message = http.StatusText(f.code)
	}

	switch f.kind {
	case ai.ErrTransport:
		return "Network error: " + message
	case ai.ErrNotFound:
		return "Model not found: " + message
	case ai.ErrQuotaExceeded:
		if f.retryDelay != "" {
			return fmt.Sprintf("Quota exceeded: %s (retry in %s)", message, f.retryDelay)
		}
		return "Quota exceeded: " + message
	case ai.ErrUnexpectedResponse:
		return "Unexpected response: " + utils.TruncateForLog(message, maxReasonLength)
	default:
		label := fmt.Sprintf("API error (HTTP %d %s)", f.code, f.status)
		if f.reason != "" {
			label += " [" + f.reason + "]"
		}
		return label + ": " + message
	}
}
