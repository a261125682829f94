package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"profile-registry/internal/domain"
	"profile-registry/internal/metrics"
	"profile-registry/internal/repository"
	"profile-registry/internal/websocket"

	"github.com/go-playground/validator/v10"
)

// Notifier is the event channel services publish registry changes on.
type Notifier interface {
	Publish(topic string, msg *websocket.Message) error
}

type ProfileService struct {
	repo     repository.ProfileRepository
	notifier Notifier
	validate *validator.Validate
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

func NewProfileService(repo repository.ProfileRepository, notifier Notifier, logger *slog.Logger, m *metrics.Metrics) *ProfileService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProfileService{
		repo:     repo,
		notifier: notifier,
		validate: newValidator(),
		logger:   logger,
		metrics:  m,
	}
}

// Latest reports found=false with a nil error when the registry has no profile.
func (s *ProfileService) Latest(ctx context.Context) (*domain.CurrentProfile, bool, error) {
	current, err := s.repo.FetchCurrent(ctx)
	if errors.Is(err, repository.ErrProfileNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("fetch current profile: %w", err)
	}
	return current, true, nil
}

func (s *ProfileService) Submit(ctx context.Context, req *domain.SubmitProfileRequest) (*domain.ProfileMetadata, error) {
	if err := s.validate.Struct(req); err != nil {
		s.metrics.ObserveSubmission("invalid")
		return nil, newValidationError(err)
	}

	meta, err := s.repo.Submit(ctx, req.Snapshot())
	if err != nil {
		s.metrics.ObserveSubmission("failed")
		return nil, fmt.Errorf("submit profile: %w", err)
	}

	s.metrics.ObserveSubmission("accepted")
	s.logger.Info("profile submitted", "file_id", meta.FileID, "version", meta.Version)

	s.publishUpdate(meta)
	return meta, nil
}

func (s *ProfileService) publishUpdate(meta *domain.ProfileMetadata) {
	if s.notifier == nil {
		return
	}

	msg, err := websocket.NewMessage(websocket.TypeProfileUpdated, &websocket.ProfileUpdatedPayload{
		FileID:      meta.FileID,
		Version:     meta.Version,
		ProfileHash: meta.ProfileHash,
		UpdatedAt:   meta.Timestamp,
	})
	if err != nil {
		s.logger.Error("failed to build profile update", "error", err)
		return
	}

	for _, topic := range []string{websocket.TopicProfiles, websocket.ProfileTopic(meta.FileID)} {
		if err := s.notifier.Publish(topic, msg); err != nil {
			s.logger.Warn("failed to publish profile update", "topic", topic, "error", err)
		}
	}
}
