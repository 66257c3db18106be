package wallet

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/canteenhq/settlement/internal/domain"
)

type Handler struct {
	repo   *Repository
	logger *slog.Logger
}

func NewHandler(repo *Repository, logger *slog.Logger) *Handler {
	return &Handler{repo: repo, logger: logger}
}

type balanceResponse struct {
	Wallet       *domain.UserWallet         `json:"wallet"`
	Transactions []domain.WalletTransaction `json:"transactions"`
}

// HandleGet returns the caller's balance and recent ledger entries.
// Only the wallet owner may look.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")
	if userID == "" {
		h.writeError(w, http.StatusBadRequest, "missing user id")
		return
	}
	if r.Header.Get("X-User-ID") != userID {
		h.writeError(w, http.StatusForbidden, "wallet belongs to another user")
		return
	}

	wallet, err := h.repo.GetByUserID(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to get wallet", "error", err, "user_id", userID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if wallet == nil {
		h.writeError(w, http.StatusNotFound, "wallet not found")
		return
	}

	transactions, err := h.repo.ListTransactions(r.Context(), wallet.ID, 20)
	if err != nil {
		h.logger.Error("failed to list wallet transactions", "error", err, "wallet_id", wallet.ID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, balanceResponse{Wallet: wallet, Transactions: transactions})
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
