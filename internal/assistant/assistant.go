package assistant

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/cv-chat/internal/ai"
)

type textSource interface {
	Text(ctx context.Context) (string, error)
	URL() string
}

// Assistant answers questions about one document with the model resolved for
// the session. The selection is fixed at construction.
type Assistant struct {
	source    textSource
	answerer  ai.Answerer
	selection *ai.Selection
	logger    *zap.Logger
}

func New(source textSource, answerer ai.Answerer, selection *ai.Selection, logger *zap.Logger) *Assistant {
	if logger == nil {
		logger = zap.NewNop()
	}
	if selection == nil {
		selection = &ai.Selection{}
	}

	return &Assistant{
		source:    source,
		answerer:  answerer,
		selection: selection,
		logger:    logger,
	}
}

// Model returns the resolved model, or an empty string.
func (a *Assistant) Model() string { return a.selection.Model }

func (a *Assistant) Selection() *ai.Selection { return a.selection }

func (a *Assistant) DocumentURL() string { return a.source.URL() }

// Warm loads the document ahead of the first question.
func (a *Assistant) Warm(ctx context.Context) error {
	_, err := a.source.Text(ctx)
	return err
}

// Ask answers question. The result is always displayable text: failures are
// reported in place of the answer.
func (a *Assistant) Ask(ctx context.Context, question string) string {
	question = strings.TrimSpace(question)
	if question == "" {
		return "Please enter a question about the document."
	}

	if !a.selection.Resolved() {
		return "No model available: " + noModelReason(a.selection) + ". Check the API key and candidate models, then restart."
	}

	text, err := a.source.Text(ctx)
	if err != nil {
		a.logger.Warn("loading document failed", zap.Error(err))
		return "Network error: could not load the document: " + err.Error()
	}

	return a.answerer.Answer(ctx, text, question, a.selection.Model)
}

func noModelReason(selection *ai.Selection) string {
	if last := selection.LastFailure(); last != "" {
		return "last failure " + last
	}
	return "no candidate models configured"
}
