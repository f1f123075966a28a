package gemini

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

func newTestGenerator(models modelService, maxChars int) *Generator {
	return &Generator{
		models:          models,
		owner:           "Jane Doe",
		maxContextChars: maxChars,
		maxOutputTokens: 1000,
		maxLogLen:       defaultMaxLogLength,
		logger:          zap.NewNop(),
	}
}

func TestAnswerReturnsFirstPartTrimmed(t *testing.T) {
	models := newFakeModels()
	models.respond("m1", &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []*genai.Part{{Text: "  BSc Economics \n"}, {Text: "ignored"}}}},
			{Content: &genai.Content{Parts: []*genai.Part{{Text: "second candidate"}}}},
		},
	}, nil)

	g := newTestGenerator(models, 100)
	if got := g.Answer(context.Background(), "EDUCATION:\nBSc Economics", "What is the degree?", "m1"); got != "BSc Economics" {
		t.Fatalf("unexpected answer: %q", got)
	}

	call := models.calls[0]
	prompt := promptOf(call)
	for _, want := range []string{"Jane Doe", "EDUCATION:\nBSc Economics", "Question: What is the degree?\nAnswer:"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("expected prompt to contain %q, got:\n%s", want, prompt)
		}
	}

	cfg := call.config
	if cfg == nil || cfg.Temperature == nil || *cfg.Temperature != 0 || cfg.TopP == nil || *cfg.TopP != 1 ||
		cfg.TopK == nil || *cfg.TopK != 1 || cfg.MaxOutputTokens != 1000 {
		t.Fatalf("expected deterministic generation config, got %+v", cfg)
	}
}

func TestAnswerTruncatesGroundingText(t *testing.T) {
	models := newFakeModels()
	models.respond("m1", textResponse("ok"), nil)

	grounding := strings.Repeat("a", 10) + "BEYOND-THE-CAP"
	g := newTestGenerator(models, 10)
	g.Answer(context.Background(), grounding, "q?", "m1")

	prompt := promptOf(models.calls[0])
	if strings.Contains(prompt, "BEYOND") {
		t.Fatalf("expected grounding text to be cut, got:\n%s", prompt)
	}
	if !strings.Contains(prompt, "CV:\n"+strings.Repeat("a", 10)+"\n\nQuestion:") {
		t.Fatalf("expected exactly 10 characters of grounding text, got:\n%s", prompt)
	}
}

func TestAnswerMapsFailures(t *testing.T) {
	tests := []struct {
		name   string
		resp   *genai.GenerateContentResponse
		err    error
		prefix string
	}{
		{name: "not found", err: notFound, prefix: "Model not found: "},
		{name: "quota", err: quota, prefix: "Quota exceeded: "},
		{name: "generic", err: genai.APIError{Code: http.StatusInternalServerError, Status: "INTERNAL", Message: "boom"}, prefix: "API error (HTTP 500 INTERNAL): boom"},
		{name: "no candidates", resp: &genai.GenerateContentResponse{}, prefix: "Unexpected response: "},
		{name: "empty text", resp: textResponse("   "), prefix: "Unexpected response: "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			models := newFakeModels()
			models.respond("m1", tt.resp, tt.err)

			got := newTestGenerator(models, 100).Answer(context.Background(), "doc", "question", "m1")
			if !strings.HasPrefix(got, tt.prefix) {
				t.Fatalf("expected prefix %q, got %q", tt.prefix, got)
			}
		})
	}
}

func TestAnswerGuards(t *testing.T) {
	models := newFakeModels()
	g := newTestGenerator(models, 100)

	if got := g.Answer(context.Background(), "doc", "   ", "m1"); got != "Please enter a question." {
		t.Fatalf("unexpected answer for empty question: %q", got)
	}
	if got := g.Answer(context.Background(), "doc", "q?", ""); !strings.HasPrefix(got, "No model available") {
		t.Fatalf("unexpected answer without model: %q", got)
	}
	if len(models.calls) != 0 {
		t.Fatalf("expected no requests, got %d", len(models.calls))
	}
}

// inferenceStub emulates the generateContent endpoint of the Gemini API.
func inferenceStub(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || !strings.HasSuffix(r.URL.Path, "/models/gemini-1.5-flash:generateContent") {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "test-key" {
			t.Errorf("expected api key header, got %q", r.Header.Get("x-goog-api-key"))
		}

		raw, _ := io.ReadAll(r.Body)
		var req map[string]any
		if err := json.Unmarshal(raw, &req); err != nil {
			t.Errorf("request body is not json: %v", err)
		}
		if _, ok := req["contents"]; !ok {
			t.Errorf("expected contents in request body: %s", raw)
		}
		if _, ok := req["generationConfig"]; !ok {
			t.Errorf("expected generationConfig in request body: %s", raw)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
}

func newStubGenerator(t *testing.T, baseURL string) *Generator {
	t.Helper()

	client, err := NewClient(context.Background(), ClientConfig{APIKey: "test-key", BaseURL: baseURL + "/", Timeout: 5 * time.Second}, nil)
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	return NewGenerator(client, GeneratorConfig{Owner: "Jane Doe"}, nil)
}

func TestAnswerAgainstStubbedService(t *testing.T) {
	srv := inferenceStub(t, http.StatusOK, `{"candidates":[{"content":{"parts":[{"text":"BSc Economics"}]}}]}`)
	defer srv.Close()

	got := newStubGenerator(t, srv.URL).Answer(context.Background(), "EDUCATION:\nBSc Economics", "What is the degree?", "gemini-1.5-flash")
	if got != "BSc Economics" {
		t.Fatalf("expected exact answer, got %q", got)
	}
}

func TestAnswerAgainstStubbedServiceErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		prefix string
	}{
		{
			name:   "not found",
			status: http.StatusNotFound,
			body:   `{"error":{"code":404,"status":"NOT_FOUND","message":"models/gemini-1.5-flash is not found"}}`,
			prefix: "Model not found: models/gemini-1.5-flash is not found",
		},
		{
			name:   "quota",
			status: http.StatusTooManyRequests,
			body:   `{"error":{"code":429,"status":"RESOURCE_EXHAUSTED","message":"quota exhausted"}}`,
			prefix: "Quota exceeded: quota exhausted",
		},
		{
			name:   "malformed success body",
			status: http.StatusOK,
			body:   `not json at all`,
			prefix: "Unexpected response: ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := inferenceStub(t, tt.status, tt.body)
			defer srv.Close()

			got := newStubGenerator(t, srv.URL).Answer(context.Background(), "doc", "question", "gemini-1.5-flash")
			if !strings.HasPrefix(got, tt.prefix) {
				t.Fatalf("expected prefix %q, got %q", tt.prefix, got)
			}
		})
	}
}

func TestAnswerNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	got := newStubGenerator(t, url).Answer(context.Background(), "doc", "question", "gemini-1.5-flash")
	if !strings.HasPrefix(got, "Network error: ") {
		t.Fatalf("expected network error label, got %q", got)
	}
}
