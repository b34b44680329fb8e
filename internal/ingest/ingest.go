// Package ingest orchestrates the transaction pipeline: accept raw user
// text, obtain a structured extraction from the inference gateway,
// validate it, persist it, and report the outcome.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anandaputra/uangku/internal/ai"
	"github.com/anandaputra/uangku/internal/domain"
	"github.com/anandaputra/uangku/internal/logger"
	"github.com/anandaputra/uangku/internal/store"
)

// State names one step of the linear ingestion flow. Transitions are
// logged so a failed submission can be traced to the step that killed it.
type State string

const (
	StateReceived   State = "received"
	StateExtracting State = "extracting"
	StateValidating State = "validating"
	StatePersisting State = "persisting"
	StatePersisted  State = "persisted"
)

var (
	// ErrEmptyInput is returned before any external call when the input
	// is empty after trimming.
	ErrEmptyInput = errors.New("ingest: empty input")

	// ErrExtractionFailed wraps inference-call failures.
	ErrExtractionFailed = errors.New("ingest: extraction failed")

	// ErrPersistFailed wraps store insert failures.
	ErrPersistFailed = errors.New("ingest: persist failed")
)

// Extractor is the slice of the inference gateway the service needs.
type Extractor interface {
	Extract(ctx context.Context, userText string) (ai.Extraction, error)
}

// Service runs the ingestion pipeline. OnPersisted, when set, is invoked
// after every successful insert so cached transaction lists can be
// invalidated.
type Service struct {
	Extractor   Extractor
	Store       store.Store
	OnPersisted func()
}

// NewService wires an ingestion service.
func NewService(extractor Extractor, st store.Store, onPersisted func()) *Service {
	return &Service{Extractor: extractor, Store: st, OnPersisted: onPersisted}
}

// Ingest runs one user submission through the pipeline and returns the
// persisted record. Every failure is terminal for this submission; no
// partial record is ever persisted. The returned record carries the
// store-assigned id, but callers displaying optimistically should not
// depend on it arriving synchronously and should reconcile via a list
// refresh (see session.Session).
func (s *Service) Ingest(ctx context.Context, text string) (domain.Transaction, error) {
	log := logger.FromContext(ctx)

	text = strings.TrimSpace(text)
	log.Debug().Str("state", string(StateReceived)).Msg("transaction submitted")
	if text == "" {
		return domain.Transaction{}, ErrEmptyInput
	}

	log.Debug().Str("state", string(StateExtracting)).Msg("calling inference gateway")
	extraction, err := s.Extractor.Extract(ctx, text)
	if err != nil {
		if errors.Is(err, ai.ErrIncompleteExtraction) {
			// The gateway returned a result missing required fields;
			// classified as a validation failure, kept distinct from a
			// failed inference call.
			log.Warn().Err(err).Msg("extraction incomplete")
			return domain.Transaction{}, err
		}
		log.Warn().Err(err).Msg("inference call failed")
		return domain.Transaction{}, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	log.Debug().Str("state", string(StateValidating)).Msg("validating extraction")
	if err := extraction.Validate(); err != nil {
		log.Warn().Err(err).Msg("extraction failed validation")
		return domain.Transaction{}, err
	}

	log.Debug().Str("state", string(StatePersisting)).Msg("persisting transaction")
	rec, err := s.Store.InsertTransaction(ctx, extraction.Transaction())
	if err != nil {
		log.Error().Err(err).Msg("store insert failed")
		return domain.Transaction{}, fmt.Errorf("%w: %v", ErrPersistFailed, err)
	}

	log.Info().
		Str("state", string(StatePersisted)).
		Str("transaction_id", rec.ID).
		Str("type", string(rec.Type)).
		Int64("amount", rec.Amount).
		Str("category", rec.Category).
		Msg("transaction persisted")

	if s.OnPersisted != nil {
		s.OnPersisted()
	}
	return rec, nil
}
