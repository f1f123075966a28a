package web

import (
	"context"
	"embed"
	"encoding/json"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/spigell/cv-chat/internal/ai"
)

//go:embed templates/index.html
var templatesFS embed.FS

const (
	placeholder    = "Select an example question..."
	maxQuestionLen = 2000
)

type asker interface {
	Ask(ctx context.Context, question string) string
	Model() string
	Selection() *ai.Selection
	DocumentURL() string
}

// Page holds the static texts of the chat page.
type Page struct {
	Title    string
	Owner    string
	Intro    string
	Examples []string
}

type Server struct {
	assistant asker
	page      Page
	tmpl      *template.Template
	validate  *validator.Validate
	logger    *zap.Logger
}

type askRequest struct {
	Question string `json:"question" validate:"required,max=2000"`
}

type askResponse struct {
	Answer string `json:"answer"`
	Model  string `json:"model,omitempty"`
}

type pageData struct {
	Page
	DocumentURL string
	Placeholder string
	MaxQuestion int
	Selected    string
	Question    string
	Asked       string
	Answer      string
	Model       string
}

func New(assistant asker, page Page, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Server{
		assistant: assistant,
		page:      page,
		tmpl:      template.Must(template.ParseFS(templatesFS, "templates/index.html")),
		validate:  validator.New(),
		logger:    logger,
	}
}

// Routes returns the HTTP handler of the chat UI and its JSON API.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "model": s.assistant.Model()})
	})

	r.Get("/", s.handleIndex)
	r.Post("/", s.handleForm)

	r.Route("/api", func(r chi.Router) {
		r.Post("/ask", s.handleAsk)
		r.Get("/models", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, s.assistant.Selection())
		})
	})

	return r
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	s.render(w, s.newPageData())
}

func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	data := s.newPageData()
	data.Selected = strings.TrimSpace(r.PostFormValue("example"))
	data.Question = strings.TrimSpace(r.PostFormValue("question"))

	// Free text wins over the example menu.
	question := data.Question
	if question == "" && data.Selected != placeholder {
		question = data.Selected
	}

	if question != "" {
		if len([]rune(question)) > maxQuestionLen {
			question = string([]rune(question)[:maxQuestionLen])
		}
		data.Asked = question
		data.Answer = s.assistant.Ask(r.Context(), question)
	}

	s.render(w, data)
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json body"})
		return
	}

	req.Question = strings.TrimSpace(req.Question)
	if err := s.validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, askResponse{
		Answer: s.assistant.Ask(r.Context(), req.Question),
		Model:  s.assistant.Model(),
	})
}

func (s *Server) newPageData() pageData {
	return pageData{
		Page:        s.page,
		DocumentURL: s.assistant.DocumentURL(),
		Placeholder: placeholder,
		MaxQuestion: maxQuestionLen,
		Model:       s.assistant.Model(),
	}
}

func (s *Server) render(w http.ResponseWriter, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.Execute(w, data); err != nil {
		s.logger.Error("rendering page", zap.Error(err))
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		s.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
