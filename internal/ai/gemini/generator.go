package gemini

import (
	"context"
	"encoding/json"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/cv-chat/internal/utils"
)

//go:embed prompt.md
var promptTemplate string

const (
	defaultMaxContextChars = 30000
	defaultMaxOutputTokens = 1000
	defaultMaxLogLength    = 200
	defaultOwner           = "the person it describes"
)

type GeneratorConfig struct {
	// Owner is the person the document belongs to.
	Owner string
	// MaxContextChars caps the grounding text inserted into the prompt.
	MaxContextChars int
	MaxOutputTokens int32
	MaxLogLength    int
}

// Generator answers questions about a grounding document with a single
// deterministic generation request per question.
type Generator struct {
	models          modelService
	owner           string
	maxContextChars int
	maxOutputTokens int32
	maxLogLen       int
	logger          *zap.Logger
}

func NewGenerator(client *Client, cfg GeneratorConfig, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}

	owner := strings.TrimSpace(cfg.Owner)
	if owner == "" {
		owner = defaultOwner
	}

	maxChars := cfg.MaxContextChars
	if maxChars <= 0 {
		maxChars = defaultMaxContextChars
	}

	maxTokens := cfg.MaxOutputTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxOutputTokens
	}

	maxLogLen := cfg.MaxLogLength
	if maxLogLen <= 0 {
		maxLogLen = defaultMaxLogLength
	}

	return &Generator{
		models:          client.models,
		owner:           owner,
		maxContextChars: maxChars,
		maxOutputTokens: maxTokens,
		maxLogLen:       maxLogLen,
		logger:          logger,
	}
}

// Answer asks model about question using groundingText. Every failure is
// returned as a labeled, displayable string.
func (g *Generator) Answer(ctx context.Context, groundingText, question, model string) string {
	question = strings.TrimSpace(question)
	if question == "" {
		return "Please enter a question."
	}

	model = strings.TrimSpace(model)
	if model == "" {
		return "No model available: no working model was resolved for this session."
	}

	prompt := g.buildPrompt(groundingText, question)

	g.logger.Debug("gemini generate content request",
		zap.String("model", model),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("question_preview", utils.TruncateForLog(question, g.maxLogLen)),
	)

	resp, err := g.models.GenerateContent(ctx, model, genai.Text(prompt), g.generationConfig())
	if err != nil {
		f := classify(err)
		g.logger.Warn("gemini generate content failed",
			zap.String("model", model),
			zap.String("reason", f.probeReason()),
		)
		return f.answer()
	}

	answer, ok := firstText(resp)
	if !ok {
		raw, _ := json.Marshal(resp)
		g.logger.Warn("gemini returned no answer text",
			zap.String("model", model),
			zap.String("response_preview", utils.TruncateForLog(string(raw), g.maxLogLen)),
		)
		return "Unexpected response: " + utils.TruncateForLog(string(raw), maxReasonLength)
	}

	g.logger.Debug("gemini generate content response",
		zap.String("model", model),
		zap.Int("response_length", utf8.RuneCountInString(answer)),
		zap.String("response_preview", utils.TruncateForLog(answer, g.maxLogLen)),
	)

	return answer
}

func (g *Generator) generationConfig() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](0),
		TopP:            genai.Ptr[float32](1),
		TopK:            genai.Ptr[float32](1),
		MaxOutputTokens: g.maxOutputTokens,
	}
}

// buildPrompt cuts the grounding text to the configured character budget and
// fills the embedded template.
func (g *Generator) buildPrompt(groundingText, question string) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "CV of {{OWNER}}:\n{{DOCUMENT}}\n\nQuestion: {{QUESTION}}\nAnswer:"
	}

	return strings.NewReplacer(
		"{{OWNER}}", g.owner,
		"{{DOCUMENT}}", utils.Truncate(groundingText, g.maxContextChars),
		"{{QUESTION}}", question,
	).Replace(template)
}

// firstText returns the trimmed text of the first part of the first candidate.
func firstText(resp *genai.GenerateContentResponse) (string, bool) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", false
	}

	candidate := resp.Candidates[0]
	if candidate == nil || candidate.Content == nil || len(candidate.Content.Parts) == 0 || candidate.Content.Parts[0] == nil {
		return "", false
	}

	text := strings.TrimSpace(candidate.Content.Parts[0].Text)
	return text, text != ""
}
