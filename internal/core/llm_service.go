package core

import (
	"context"

	"go.uber.org/zap"

	"cinestream.app/cinebot/internal/locale"
)

const DefaultTemperature float32 = 0.7

// Generator is a text-generation backend. It returns "" with a nil error
// when the service answered without usable text.
type Generator interface {
	Generate(ctx context.Context, req Request, temperature float32) (string, error)
}

// Completer turns a request into one displayable reply. Implementations
// never fail.
type Completer interface {
	Complete(ctx context.Context, req Request) string
}

type Outcome string

const (
	OutcomeCompleted         Outcome = "completed"
	OutcomeMissingCredential Outcome = "missing_credential"
	OutcomeEmptyCompletion   Outcome = "empty_completion"
	OutcomeFailure           Outcome = "transport_or_service_failure"
)

// LLMService is the Completer backed by a Generator. A nil generator means
// no credential was configured.
type LLMService struct {
	generator   Generator
	temperature float32
	logger      *zap.SugaredLogger
}

func NewLLMService(generator Generator, temperature float32, logger *zap.SugaredLogger) *LLMService {
	if temperature <= 0 {
		temperature = DefaultTemperature
	}
	return &LLMService{
		generator:   generator,
		temperature: temperature,
		logger:      logger,
	}
}

func (s *LLMService) Configured() bool {
	return s.generator != nil
}

func (s *LLMService) Complete(ctx context.Context, req Request) string {
	text, outcome := s.complete(ctx, req)
	s.logger.Debugw("Completion settled", "locale", req.Locale, "outcome", outcome)
	return text
}

func (s *LLMService) complete(ctx context.Context, req Request) (string, Outcome) {
	strs := locale.For(req.Locale)

	// No credential: answer locally, never touch the network
	if s.generator == nil {
		return strs.MissingCredential, OutcomeMissingCredential
	}

	// Exactly one call per request
	text, err := s.generator.Generate(ctx, req, s.temperature)
	if err != nil {
		s.logger.Errorw("Completion request failed", "locale", req.Locale, "error", err)
		return strs.ConnectionError, OutcomeFailure
	}
	if text == "" {
		s.logger.Warnw("Completion returned no text", "locale", req.Locale)
		return strs.EmptyCompletion, OutcomeEmptyCompletion
	}
	return text, OutcomeCompleted
}
