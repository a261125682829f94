package handler

import (
	"net/http"

	"profile-registry/pkg/response"
)

type HealthHandler struct {
	backend string
	clients func() int
}

func NewHealthHandler(backend string, clients func() int) *HealthHandler {
	return &HealthHandler{backend: backend, clients: clients}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	response.Success(w, map[string]interface{}{
		"status":           "healthy",
		"service":          "profile-registry",
		"store_backend":    h.backend,
		"notifier_clients": h.clients(),
	})
}
