package service

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"profile-registry/internal/domain"
	"profile-registry/internal/metrics"
	"profile-registry/internal/repository"
	"profile-registry/internal/websocket"
)

func validSubmission() *domain.SubmitProfileRequest {
	return &domain.SubmitProfileRequest{
		CompanyName:    "Acme",
		Location:       "SF",
		Contact:        "ops@acme.test",
		Established:    "1999",
		MarketSegments: []string{"retail"},
	}
}

func TestProfileService_Latest(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		svc := NewProfileService(&mockProfileRepository{current: acmeProfile()}, nil, discardLogger, nil)

		current, found, err := svc.Latest(context.Background())
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "f-1", current.Metadata.FileID)
	})

	t.Run("not found", func(t *testing.T) {
		svc := NewProfileService(&mockProfileRepository{currentErr: repository.ErrProfileNotFound}, nil, discardLogger, nil)

		current, found, err := svc.Latest(context.Background())
		require.NoError(t, err)
		assert.False(t, found)
		assert.Nil(t, current)
	})

	t.Run("transport failure", func(t *testing.T) {
		svc := NewProfileService(&mockProfileRepository{currentErr: &repository.TransportError{Op: "fetch", Err: errors.New("timeout")}}, nil, discardLogger, nil)

		_, found, err := svc.Latest(context.Background())
		assert.False(t, found)
		assert.True(t, repository.IsTransportError(err))
	})
}

func TestProfileService_SubmitPublishesUpdate(t *testing.T) {
	repo := &mockProfileRepository{submitMeta: &domain.ProfileMetadata{FileID: "f-7", Version: 3, ProfileHash: "abc"}}
	notifier := &mockNotifier{}
	mt := metrics.New(prometheus.NewRegistry())
	svc := NewProfileService(repo, notifier, discardLogger, mt)

	meta, err := svc.Submit(context.Background(), validSubmission())
	require.NoError(t, err)
	assert.Equal(t, "f-7", meta.FileID)

	require.Len(t, repo.submitted, 1)
	assert.Equal(t, domain.Scalar("Acme"), repo.submitted[0].Get(domain.FieldCompanyName))

	assert.Equal(t, []string{websocket.TopicProfiles, "profile:f-7"}, notifier.topics())

	var payload websocket.ProfileUpdatedPayload
	require.NoError(t, notifier.messages[0].msg.UnmarshalPayload(&payload))
	assert.Equal(t, websocket.TypeProfileUpdated, notifier.messages[0].msg.Type)
	assert.Equal(t, 3, payload.Version)
	assert.Equal(t, "abc", payload.ProfileHash)

	assert.Equal(t, 1.0, testutil.ToFloat64(mt.Submissions.WithLabelValues("accepted")))
}

func TestProfileService_SubmitValidation(t *testing.T) {
	repo := &mockProfileRepository{}
	notifier := &mockNotifier{}
	svc := NewProfileService(repo, notifier, discardLogger, nil)

	req := validSubmission()
	req.CompanyName = ""
	req.Established = "nineteen"
	req.KeyMarkets = []string{"EU", ""}

	_, err := svc.Submit(context.Background(), req)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "required", verr.Fields["company_name"])
	assert.Contains(t, verr.Fields, "established")
	assert.Contains(t, verr.Fields, "key_markets[1]")
	assert.Empty(t, repo.submitted)
	assert.Empty(t, notifier.topics())
}

func TestProfileService_SubmitFailureDoesNotPublish(t *testing.T) {
	repo := &mockProfileRepository{submitErr: &repository.TransportError{Op: "submit", StatusCode: 502, Err: errors.New("down")}}
	notifier := &mockNotifier{}
	svc := NewProfileService(repo, notifier, discardLogger, nil)

	_, err := svc.Submit(context.Background(), validSubmission())

	assert.True(t, repository.IsTransportError(err))
	assert.Empty(t, notifier.topics())
}
