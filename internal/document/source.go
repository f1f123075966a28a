package document

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/spigell/cv-chat/internal/logger"
)

const defaultTTL = time.Hour

type fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// PagesFunc turns raw document bytes into per-page text.
type PagesFunc func(data []byte) ([]string, error)

type cacheEntry struct {
	key    string
	value  string
	expiry time.Time
}

// Source produces the grounding text of one remote document. The text is
// computed at most once per TTL window; callers arriving while a refresh is in
// flight wait for it and share its result.
type Source struct {
	url     string
	ttl     time.Duration
	fetcher fetcher
	pages   PagesFunc
	logger  *zap.Logger
	now     func() time.Time

	mu    sync.Mutex
	entry *cacheEntry
	group singleflight.Group
}

type SourceConfig struct {
	URL     string
	TTL     time.Duration
	Fetcher fetcher
	// Pages defaults to PagesText.
	Pages  PagesFunc
	Logger *zap.Logger
}

func NewSource(cfg SourceConfig) *Source {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}

	pages := cfg.Pages
	if pages == nil {
		pages = PagesText
	}

	return &Source{
		url:     cfg.URL,
		ttl:     ttl,
		fetcher: cfg.Fetcher,
		pages:   pages,
		logger:  logger.WithFields(cfg.Logger, logger.DocumentFields(cfg.URL)...),
		now:     time.Now,
	}
}

func (s *Source) URL() string { return s.url }

// Text returns the cached document text, refreshing it when the entry is
// missing or expired. Failed refreshes are not cached.
func (s *Source) Text(ctx context.Context) (string, error) {
	if value, ok := s.cached(); ok {
		return value, nil
	}

	v, err, shared := s.group.Do(s.url, func() (any, error) {
		if value, ok := s.cached(); ok {
			return value, nil
		}

		// The refresh is shared by every waiter, so it must not end with the
		// caller that happened to start it. The fetcher timeout still bounds it.
		value, err := s.load(context.WithoutCancel(ctx))
		if err != nil {
			return "", err
		}

		s.mu.Lock()
		s.entry = &cacheEntry{key: s.url, value: value, expiry: s.now().Add(s.ttl)}
		s.mu.Unlock()

		return value, nil
	})
	if err != nil {
		return "", err
	}

	if shared {
		s.logger.Debug("document refresh shared with a concurrent caller")
	}

	return v.(string), nil
}

func (s *Source) cached() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entry == nil || s.entry.key != s.url || !s.now().Before(s.entry.expiry) {
		return "", false
	}
	return s.entry.value, true
}

func (s *Source) load(ctx context.Context) (string, error) {
	s.logger.Info("downloading document")

	data, err := s.fetcher.Fetch(ctx, s.url)
	if err != nil {
		return "", fmt.Errorf("fetch document: %w", err)
	}

	pages, err := s.pages(data)
	if err != nil {
		return "", fmt.Errorf("read document pages: %w", err)
	}

	text := Extract(JoinPages(pages))
	if text == ExtractionFailed {
		s.logger.Warn("document yielded no text", zap.Int("pages", len(pages)))
	} else {
		s.logger.Info("document extracted",
			zap.Int("pages", len(pages)),
			zap.Int("sections", len(Sections(JoinPages(pages)))),
			zap.Int("text_length", len([]rune(text))),
		)
	}

	return text, nil
}
