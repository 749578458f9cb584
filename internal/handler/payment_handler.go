package handler

import (
	"bufio"
	"net/http"
	"strings"

	"fest-backend/internal/domain"
	"fest-backend/internal/service"
	"fest-backend/pkg/errors"
	"fest-backend/pkg/logger"
)

// PaymentHandler handles gateway orders, callbacks and manual review
type PaymentHandler struct {
	payments service.PaymentService
	logger   *logger.Logger
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(payments service.PaymentService, logger *logger.Logger) *PaymentHandler {
	return &PaymentHandler{payments: payments, logger: logger}
}

// CreateOrder handles POST /payments/create-order
func (h *PaymentHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	profile, err := currentProfile(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	var req domain.CreateOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	resp, err := h.payments.CreateOrder(r.Context(), profile, req.EventID)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// Verify handles POST /payments/verify
func (h *PaymentHandler) Verify(w http.ResponseWriter, r *http.Request) {
	profile, err := currentProfile(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	var req domain.VerifyPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	resp, err := h.payments.Verify(r.Context(), profile, req)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// SubmitScreenshot handles POST /payments/screenshot (multipart form with
// registration_id and screenshot)
func (h *PaymentHandler) SubmitScreenshot(w http.ResponseWriter, r *http.Request) {
	profile, err := currentProfile(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, service.MaxEvidenceSize+(1<<20))
	if err := r.ParseMultipartForm(service.MaxEvidenceSize); err != nil {
		respondError(w, r, h.logger, errors.NewValidationError("Screenshot must be smaller than 5MB", nil))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	registrationID := strings.TrimSpace(r.FormValue("registration_id"))
	if registrationID == "" {
		respondError(w, r, h.logger, errors.NewValidationError("registration_id is required", map[string]interface{}{
			"registration_id": "registration_id is required",
		}))
		return
	}

	file, header, err := r.FormFile("screenshot")
	if err != nil {
		respondError(w, r, h.logger, errors.NewValidationError("screenshot is required", map[string]interface{}{
			"screenshot": "screenshot is required",
		}))
		return
	}
	defer file.Close()

	body := bufio.NewReader(file)
	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		sniff, _ := body.Peek(512)
		contentType = http.DetectContentType(sniff)
	}

	reg, err := h.payments.SubmitEvidence(r.Context(), profile, registrationID, service.Evidence{
		Filename:    header.Filename,
		ContentType: contentType,
		Size:        header.Size,
		Body:        body,
	})
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, reg)
}

// Review handles POST /admin/payments and the legacy POST /admin/verify-payment
func (h *PaymentHandler) Review(w http.ResponseWriter, r *http.Request) {
	admin, err := currentProfile(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	var req domain.ManualReviewRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	reg, err := h.payments.Review(r.Context(), admin, req)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	message := "Registration verified manually"
	if req.Action == domain.ReviewReject {
		message = "Registration marked as failed"
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message":      message,
		"registration": reg,
	})
}
