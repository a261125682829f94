package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"profile-registry/internal/domain"
)

// ProfileRepository is the registry the profile data lives in.
type ProfileRepository interface {
	FetchCurrent(ctx context.Context) (*domain.CurrentProfile, error)
	FetchEditHistory(ctx context.Context, fileID string) (*domain.EditHistory, error)
	Submit(ctx context.Context, snapshot domain.ProfileSnapshot) (*domain.ProfileMetadata, error)
}

const maxErrorBody = 4 << 10

type httpProfileRepo struct {
	baseURL string
	client  *http.Client
}

// NewHTTPProfileRepository talks to the blockchain registry service at baseURL.
func NewHTTPProfileRepository(baseURL string, timeout time.Duration) ProfileRepository {
	return &httpProfileRepo{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (r *httpProfileRepo) FetchCurrent(ctx context.Context) (*domain.CurrentProfile, error) {
	var current domain.CurrentProfile
	if err := r.getJSON(ctx, "fetch current profile", r.baseURL+"/blockchain/latest-available", &current); err != nil {
		return nil, err
	}
	if current.ProfileData == nil {
		// a 200 without profile data is how some deployments say "nothing yet"
		return nil, ErrProfileNotFound
	}
	return &current, nil
}

func (r *httpProfileRepo) FetchEditHistory(ctx context.Context, fileID string) (*domain.EditHistory, error) {
	endpoint := fmt.Sprintf("%s/blockchain/profiles/%s", r.baseURL, url.PathEscape(fileID))

	var history domain.EditHistory
	if err := r.getJSON(ctx, "fetch edit history", endpoint, &history); err != nil {
		return nil, err
	}
	return &history, nil
}

func (r *httpProfileRepo) Submit(ctx context.Context, snapshot domain.ProfileSnapshot) (*domain.ProfileMetadata, error) {
	const op = "submit profile"

	data, err := json.Marshal(map[string]any{"profile_data": snapshot})
	if err != nil {
		return nil, fmt.Errorf("failed to encode profile: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/blockchain/profiles", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, &TransportError{Op: op, StatusCode: resp.StatusCode, Err: errorBody(resp.Body)}
	}

	var result struct {
		Metadata domain.ProfileMetadata `json:"metadata"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	return &result.Metadata, nil
}

func (r *httpProfileRepo) getJSON(ctx context.Context, op, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrProfileNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return &TransportError{Op: op, StatusCode: resp.StatusCode, Err: errorBody(resp.Body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	return nil
}

func errorBody(body io.Reader) error {
	data, _ := io.ReadAll(io.LimitReader(body, maxErrorBody))
	msg := strings.TrimSpace(string(data))
	if msg == "" {
		return errors.New("empty response body")
	}
	return errors.New(msg)
}
