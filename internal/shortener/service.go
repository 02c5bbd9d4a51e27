// Package shortener allocates short codes for long URLs and manages the stored mappings.
package shortener

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jayjaytrn/URLMapper/internal/db"
	"github.com/jayjaytrn/URLMapper/internal/metrics"
	"github.com/jayjaytrn/URLMapper/internal/types"
	"github.com/jayjaytrn/URLMapper/internal/urlshort"
)

// DefaultMaxInsertAttempts is used when Options.MaxInsertAttempts is not positive.
const DefaultMaxInsertAttempts = 5

// CodeGenerator produces a short code that was free when checked.
type CodeGenerator interface {
	Generate(ctx context.Context, exists urlshort.ExistsFunc) (string, error)
}

// Options tune a Service. Zero values pick defaults.
type Options struct {
	MaxInsertAttempts int
	Generator         CodeGenerator
	Metrics           *metrics.Metrics
	Logger            *zap.SugaredLogger
}

// Service orchestrates code generation and the mapping store.
type Service struct {
	storage     db.ShortenerStorage
	generator   CodeGenerator
	maxAttempts int
	metrics     *metrics.Metrics
	logger      *zap.SugaredLogger
}

// NewService returns a Service over storage.
func NewService(storage db.ShortenerStorage, opts Options) *Service {
	s := &Service{
		storage:     storage,
		generator:   opts.Generator,
		maxAttempts: opts.MaxInsertAttempts,
		metrics:     opts.Metrics,
		logger:      opts.Logger,
	}
	if s.generator == nil {
		s.generator = urlshort.NewGenerator(urlshort.DefaultMaxDraws)
	}
	if s.maxAttempts <= 0 {
		s.maxAttempts = DefaultMaxInsertAttempts
	}
	if s.logger == nil {
		s.logger = zap.NewNop().Sugar()
	}
	return s
}

// Shorten returns the mapping for longURL, creating it when no mapping exists yet.
// created is false when an existing mapping was returned.
func (s *Service) Shorten(ctx context.Context, longURL string) (mapping types.URLMapping, created bool, err error) {
	if longURL == "" {
		return types.URLMapping{}, false, &types.ValidationError{Field: "longurl"}
	}

	existing, err := s.storage.FindByLongURL(ctx, longURL)
	if err == nil {
		s.metrics.ShortenOutcome(metrics.OutcomeDeduplicated)
		return existing, false, nil
	}
	var notFound *types.NotFoundError
	if !errors.As(err, &notFound) {
		return types.URLMapping{}, false, fmt.Errorf("failed to look up long URL: %w", err)
	}

	var conflict *types.ConflictError
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		code, err := s.generator.Generate(ctx, s.storage.Exists)
		if err != nil {
			if errors.As(err, &conflict) {
				// the generator ran out of draws, the code space is close to exhausted
				s.logger.Errorw("short code generation exhausted", "attempt", attempt, "error", err)
				s.metrics.ShortenOutcome(metrics.OutcomeExhausted)
				return types.URLMapping{}, false, err
			}
			return types.URLMapping{}, false, fmt.Errorf("failed to generate short code: %w", err)
		}

		id, err := s.storage.Insert(ctx, longURL, code)
		if err == nil {
			s.metrics.ShortenOutcome(metrics.OutcomeCreated)
			return types.URLMapping{ID: id, LongURL: longURL, ShortCode: code}, true, nil
		}
		if !errors.As(err, &conflict) {
			return types.URLMapping{}, false, fmt.Errorf("failed to store mapping: %w", err)
		}

		s.logger.Warnw("short code taken between check and insert, retrying", "shorturl", code, "attempt", attempt)
		s.metrics.ShortenOutcome(metrics.OutcomeConflictRetry)
	}

	s.metrics.ShortenOutcome(metrics.OutcomeExhausted)
	return types.URLMapping{}, false, conflict
}

// Resolve returns the long URL behind code.
func (s *Service) Resolve(ctx context.Context, code string) (string, error) {
	m, err := s.storage.FindByShortCode(ctx, code)
	if err != nil {
		return "", err
	}
	return m.LongURL, nil
}

// List returns every mapping with its access URL built from baseURL.
func (s *Service) List(ctx context.Context, baseURL string) ([]types.MappingView, error) {
	mappings, err := s.storage.List(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]types.MappingView, 0, len(mappings))
	for _, m := range mappings {
		views = append(views, View(m, baseURL))
	}
	return views, nil
}

// Get returns the mapping with the given id.
func (s *Service) Get(ctx context.Context, id int64) (types.URLMapping, error) {
	return s.storage.FindByID(ctx, id)
}

// Update points an existing mapping at newLongURL. The short code does not change.
func (s *Service) Update(ctx context.Context, id int64, newLongURL string) (types.URLMapping, error) {
	if newLongURL == "" {
		return types.URLMapping{}, &types.ValidationError{Field: "longurl"}
	}
	return s.storage.Update(ctx, id, newLongURL)
}

// Delete removes the mapping with the given id.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.storage.Delete(ctx, id)
}

// Ping reports whether the underlying storage is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.storage.Ping(ctx)
}

// View converts a mapping into its client representation.
func View(m types.URLMapping, baseURL string) types.MappingView {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return types.MappingView{
		ID:        m.ID,
		LongURL:   m.LongURL,
		ShortCode: m.ShortCode,
		AccessURL: baseURL + m.ShortCode,
	}
}
