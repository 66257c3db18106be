package merchants

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

type Handler struct {
	repo   *Repository
	logger *slog.Logger
}

func NewHandler(repo *Repository, logger *slog.Logger) *Handler {
	return &Handler{repo: repo, logger: logger}
}

type merchantResponse struct {
	CanteenID string `json:"canteen_id"`
	Name      string `json:"name"`
	KeyID     string `json:"gateway_key_id"`
}

// HandleGet exposes what the checkout frontend needs to bootstrap a
// gateway payment. The key secret never leaves this service.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	canteenID := r.PathValue("canteenId")
	if canteenID == "" {
		h.writeError(w, http.StatusBadRequest, "missing canteen id")
		return
	}

	merchant, err := h.repo.GetByCanteenID(r.Context(), canteenID)
	if err != nil {
		h.logger.Error("failed to get merchant", "error", err, "canteen_id", canteenID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if merchant == nil {
		h.writeError(w, http.StatusNotFound, "merchant not found")
		return
	}

	h.writeJSON(w, http.StatusOK, merchantResponse{
		CanteenID: merchant.CanteenID,
		Name:      merchant.Name,
		KeyID:     merchant.KeyID,
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
