package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"profile-registry/internal/domain"
	"profile-registry/internal/history"
	"profile-registry/internal/metrics"
	"profile-registry/internal/repository"
)

// HistoryService rebuilds the version timeline of the registry's current
// profile. Every call runs its own fetch-then-build pipeline; nothing is shared
// between concurrent calls.
type HistoryService struct {
	repo    repository.ProfileRepository
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewHistoryService(repo repository.ProfileRepository, logger *slog.Logger, m *metrics.Metrics) *HistoryService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HistoryService{
		repo:    repo,
		logger:  logger,
		metrics: m,
		now:     time.Now,
	}
}

// Reconstruct returns an empty history with a nil error when the registry holds
// no profile. Transport failures return a failed history together with the
// underlying error.
func (s *HistoryService) Reconstruct(ctx context.Context) (*domain.History, error) {
	start := s.now()
	log := s.logger.With("op", "reconstruct")

	log.Debug("loading current profile")
	current, err := s.repo.FetchCurrent(ctx)
	if errors.Is(err, repository.ErrProfileNotFound) {
		return s.finish(log, start, &domain.History{Status: domain.HistoryEmpty}), nil
	}
	if err != nil {
		failed := &domain.History{Status: domain.HistoryFailed}
		s.finish(log.With("error", err), start, failed)
		return failed, fmt.Errorf("reconstruct history: %w", err)
	}

	meta := current.Metadata
	log = log.With("file_id", meta.FileID)

	log.Debug("loading edit history")
	var edits []domain.EditRecord
	record, err := s.repo.FetchEditHistory(ctx, meta.FileID)
	switch {
	case errors.Is(err, repository.ErrProfileNotFound):
		log.Debug("no edit history, using bootstrap version")
	case err != nil:
		failed := &domain.History{Status: domain.HistoryFailed, Metadata: &meta}
		s.finish(log.With("error", err), start, failed)
		return failed, fmt.Errorf("reconstruct history: %w", err)
	default:
		edits = record.EditHistory
	}

	versions := history.Build(current.ProfileData, edits, meta)
	status := domain.HistoryBuilt
	if len(versions) == 0 {
		status = domain.HistoryEmpty
	}

	return s.finish(log, start, &domain.History{
		Status:   status,
		Metadata: &meta,
		Versions: versions,
	}), nil
}

// Annotated is the regulator view: every version paired with a per-field diff.
func (s *HistoryService) Annotated(ctx context.Context) (*domain.AnnotatedHistory, error) {
	h, err := s.Reconstruct(ctx)
	if h == nil {
		return nil, err
	}

	return &domain.AnnotatedHistory{
		Status:   h.Status,
		Metadata: h.Metadata,
		Versions: history.AnnotateAll(h.Versions),
		BuiltAt:  h.BuiltAt,
	}, err
}

func (s *HistoryService) finish(log *slog.Logger, start time.Time, h *domain.History) *domain.History {
	h.BuiltAt = s.now().UTC()
	if h.Versions == nil {
		h.Versions = []domain.VersionEntry{}
	}

	elapsed := s.now().Sub(start)
	s.metrics.ObserveReconstruction(string(h.Status), elapsed)

	if h.Status == domain.HistoryFailed {
		log.Warn("history reconstruction failed", "duration", elapsed)
	} else {
		log.Info("history reconstructed", "status", h.Status, "versions", len(h.Versions), "duration", elapsed)
	}
	return h
}
