package gemini

import (
	"context"
	"errors"
	"sync"

	"google.golang.org/genai"
)

type generateCall struct {
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
}

type fakeResponse struct {
	resp *genai.GenerateContentResponse
	err  error
}

type fakeModels struct {
	mu        sync.Mutex
	calls     []generateCall
	responses map[string]fakeResponse
	pages     []genai.Page[genai.Model]
	listErr   error
	listCalls []*genai.ListModelsConfig
}

func newFakeModels() *fakeModels {
	return &fakeModels{responses: make(map[string]fakeResponse)}
}

func (f *fakeModels) respond(model string, resp *genai.GenerateContentResponse, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[model] = fakeResponse{resp: resp, err: err}
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, generateCall{model: model, contents: contents, config: config})
	res, ok := f.responses[model]
	if !ok {
		return nil, errors.New("unexpected call")
	}
	return res.resp, res.err
}

func (f *fakeModels) List(_ context.Context, config *genai.ListModelsConfig) (genai.Page[genai.Model], error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	copied := *config
	f.listCalls = append(f.listCalls, &copied)
	if f.listErr != nil {
		return genai.Page[genai.Model]{}, f.listErr
	}
	if len(f.listCalls) > len(f.pages) {
		return genai.Page[genai.Model]{}, errors.New("unexpected list call")
	}
	return f.pages[len(f.listCalls)-1], nil
}

func (f *fakeModels) calledModels() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	models := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		models = append(models, c.model)
	}
	return models
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: text}}},
		}},
	}
}

func promptOf(call generateCall) string {
	if len(call.contents) == 0 || len(call.contents[0].Parts) == 0 {
		return ""
	}
	return call.contents[0].Parts[0].Text
}
