package payments

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/canteenhq/settlement/internal/domain"
)

type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

type initiateRequest struct {
	OrderID string               `json:"order_id"`
	Method  domain.PaymentMethod `json:"method"`
}

type initiateResponse struct {
	Payment   *domain.Payment `json:"payment"`
	Processor *ProcessResult  `json:"processor"`
}

func (h *Handler) HandleInitiate(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-ID")
	if userID == "" {
		h.writeError(w, http.StatusUnauthorized, "missing user identity")
		return
	}

	var req initiateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	payment, result, err := h.service.InitiatePayment(r.Context(), req.OrderID, userID, req.Method)
	if err != nil {
		h.writeServiceError(w, err, "initiate payment", req.OrderID)
		return
	}

	h.writeJSON(w, http.StatusCreated, initiateResponse{Payment: payment, Processor: result})
}

func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	var payload VerificationPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.ProcessorOrderID == "" {
		h.writeError(w, http.StatusBadRequest, "missing processor_order_id")
		return
	}

	payment, err := h.service.VerifyPayment(r.Context(), payload)
	if err != nil {
		var verifyErr *domain.VerificationError
		if errors.As(err, &verifyErr) {
			h.writeError(w, http.StatusPaymentRequired, verifyErr.Error())
			return
		}
		h.writeServiceError(w, err, "verify payment", payload.ProcessorOrderID)
		return
	}

	h.writeJSON(w, http.StatusOK, payment)
}

func (h *Handler) HandleRefund(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-ID")
	orderID := r.PathValue("orderId")
	if orderID == "" {
		h.writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	payment, result, err := h.service.RefundPayment(r.Context(), orderID, userID)
	if err != nil {
		var refundErr *domain.RefundError
		if errors.As(err, &refundErr) {
			h.writeError(w, http.StatusBadGateway, refundErr.Error())
			return
		}
		h.writeServiceError(w, err, "refund payment", orderID)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"payment": payment, "refund": result})
}

func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")
	if userID == "" {
		h.writeError(w, http.StatusBadRequest, "missing user id")
		return
	}

	history, err := h.service.PaymentHistory(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to list payment history", "error", err, "user_id", userID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, history)
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error, op, ref string) {
	var (
		stateErr *domain.InvalidStateError
		procErr  *domain.ProcessingError
	)
	switch {
	case errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, domain.ErrPaymentNotFound),
		errors.Is(err, domain.ErrMerchantNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrPaymentAlreadyCompleted):
		h.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrUnsupportedPaymentMethod):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &stateErr):
		h.writeError(w, http.StatusConflict, stateErr.Error())
	case errors.As(err, &procErr):
		h.writeError(w, http.StatusPaymentRequired, procErr.Error())
	default:
		h.logger.Error("failed to "+op, "error", err, "ref", ref)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
	}
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
