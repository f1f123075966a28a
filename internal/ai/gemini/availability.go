package gemini

import (
	"context"
	"path"
	"slices"
	"sort"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/cv-chat/internal/ai"
)

const generateContentAction = "generateContent"

// AvailabilityProbe asks the service which models support content generation.
type AvailabilityProbe struct {
	models modelService
	logger *zap.Logger
}

func NewAvailabilityProbe(client *Client, logger *zap.Logger) *AvailabilityProbe {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityProbe{models: client.models, logger: logger}
}

// ListAvailable returns the short identifiers of models advertising
// generateContent. Any failure is logged and yields an empty set, which
// callers treat as "unknown".
func (p *AvailabilityProbe) ListAvailable(ctx context.Context) ai.AvailabilitySet {
	set := ai.NewAvailabilitySet()
	config := &genai.ListModelsConfig{PageSize: listPageSize}

	for {
		page, err := p.models.List(ctx, config)
		if err != nil {
			f := classify(err)
			p.logger.Warn("listing available models failed, falling back to direct probing",
				zap.String("reason", f.probeReason()),
			)
			return ai.NewAvailabilitySet()
		}

		for _, model := range page.Items {
			if model == nil || model.Name == "" || !slices.Contains(model.SupportedActions, generateContentAction) {
				continue
			}
			set[path.Base(model.Name)] = struct{}{}
		}

		if page.NextPageToken == "" {
			break
		}
		config.PageToken = page.NextPageToken
	}

	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)

	p.logger.Debug("available models", zap.Strings("models", names))

	return set
}
