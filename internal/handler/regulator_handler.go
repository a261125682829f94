package handler

import (
	"log/slog"
	"net/http"
	"time"

	"profile-registry/internal/domain"
	"profile-registry/internal/middleware"
	"profile-registry/internal/service"
	"profile-registry/pkg/response"
)

type RegulatorHandler struct {
	historyService *service.HistoryService
	refresher      *service.Refresher
	logger         *slog.Logger
}

func NewRegulatorHandler(historyService *service.HistoryService, refresher *service.Refresher, logger *slog.Logger) *RegulatorHandler {
	return &RegulatorHandler{
		historyService: historyService,
		refresher:      refresher,
		logger:         logger,
	}
}

// History is the regulator view: each version with its per-field changes.
func (h *RegulatorHandler) History(w http.ResponseWriter, r *http.Request) {
	annotated, err := h.historyService.Annotated(r.Context())
	if err != nil {
		h.logger.Warn("annotated history unavailable", "regulator_id", middleware.GetRegulatorID(r), "error", err)
		response.Fail(w, http.StatusBadGateway, "profile registry unavailable", annotated)
		return
	}

	response.Success(w, annotated)
}

type refreshStatus struct {
	Seq         uint64               `json:"seq"`
	Status      domain.HistoryStatus `json:"status"`
	Versions    int                  `json:"versions"`
	Error       string               `json:"error,omitempty"`
	CompletedAt time.Time            `json:"completed_at"`
}

// Refresh runs an out-of-band reconstruction and returns its result.
func (h *RegulatorHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	h.logger.Info("manual refresh", "regulator_id", middleware.GetRegulatorID(r))
	history, err := h.refresher.Trigger(r.Context())

	if err != nil {
		response.Fail(w, http.StatusBadGateway, "profile registry unavailable", history)
		return
	}

	response.Success(w, history)
}

// LastRefresh reports the most recent refresh the server has recorded.
func (h *RegulatorHandler) LastRefresh(w http.ResponseWriter, r *http.Request) {
	last, ok := h.refresher.Last()
	if !ok {
		response.NotFound(w, "no refresh has completed yet")
		return
	}

	status := refreshStatus{
		Seq:         last.Seq,
		CompletedAt: last.CompletedAt,
	}
	if last.History != nil {
		status.Status = last.History.Status
		status.Versions = len(last.History.Versions)
	}
	if last.Err != nil {
		status.Error = last.Err.Error()
	}

	response.Success(w, status)
}
