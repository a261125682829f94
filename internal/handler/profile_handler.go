package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"profile-registry/internal/domain"
	"profile-registry/internal/repository"
	"profile-registry/internal/service"
	"profile-registry/pkg/response"
)

type ProfileHandler struct {
	profileService *service.ProfileService
	historyService *service.HistoryService
	logger         *slog.Logger
}

func NewProfileHandler(profileService *service.ProfileService, historyService *service.HistoryService, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
		historyService: historyService,
		logger:         logger,
	}
}

func (h *ProfileHandler) Latest(w http.ResponseWriter, r *http.Request) {
	current, found, err := h.profileService.Latest(r.Context())
	if err != nil {
		h.storeError(w, "fetch latest profile", err)
		return
	}

	if !found {
		response.Fail(w, http.StatusNotFound, "no profile registered", map[string]string{
			"status": string(domain.HistoryEmpty),
		})
		return
	}

	response.Success(w, current)
}

func (h *ProfileHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req domain.SubmitProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	meta, err := h.profileService.Submit(r.Context(), &req)
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			response.Fail(w, http.StatusBadRequest, "validation failed", verr.Fields)
			return
		}
		h.storeError(w, "submit profile", err)
		return
	}

	response.Created(w, meta)
}

// History serves the public timeline. A failed reconstruction is answered with
// 502 and the failed result so the caller can tell it apart from an empty one.
func (h *ProfileHandler) History(w http.ResponseWriter, r *http.Request) {
	history, err := h.historyService.Reconstruct(r.Context())
	if err != nil {
		h.logger.Warn("history unavailable", "error", err)
		response.Fail(w, http.StatusBadGateway, "profile registry unavailable", history)
		return
	}

	response.Success(w, history)
}

func (h *ProfileHandler) storeError(w http.ResponseWriter, op string, err error) {
	h.logger.Warn(op+" failed", "error", err)
	if errors.Is(err, repository.ErrProfileConflict) {
		response.Conflict(w, "profile was modified concurrently, retry the submission")
		return
	}
	if repository.IsTransportError(err) {
		response.BadGateway(w, "profile registry unavailable")
		return
	}
	response.InternalError(w, "internal error")
}
