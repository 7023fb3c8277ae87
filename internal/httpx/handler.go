package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/nikolayk812/marketplace-orders/internal/domain"
	"github.com/nikolayk812/marketplace-orders/internal/port"
)

const IdempotencyKeyHeader = "Idempotency-Key"

type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler serves the order endpoints on top of port.OrderService.
type Handler struct {
	service port.OrderService
	db      Pinger
	logger  *slog.Logger
}

func NewHandler(service port.OrderService, db Pinger, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		service: service,
		db:      db,
		logger:  logger,
	}
}

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	idempotencyKey := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))

	checkout, err := mapCheckoutRequestToDomain(req, idempotencyKey)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	order, err := h.service.Checkout(r.Context(), checkout)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, mapOrderToResponse(order))
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := parseUUIDParam(w, r, "orderID")
	if !ok {
		return
	}

	order, err := h.service.GetOrder(r.Context(), orderID)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, mapOrderToResponse(order))
}

func (h *Handler) UpdateSuborderStatus(w http.ResponseWriter, r *http.Request) {
	orderID, ok := parseUUIDParam(w, r, "orderID")
	if !ok {
		return
	}
	suborderID, ok := parseUUIDParam(w, r, "suborderID")
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	order, err := h.service.UpdateSuborderStatus(r.Context(), orderID, suborderID, domain.OrderStatus(req.Status))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, mapOrderToResponse(order))
}

func (h *Handler) ListBuyerOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListBuyerOrders(r.Context(), chi.URLParam(r, "buyerID"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	resp := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, mapOrderToResponse(o))
	}

	writeJSON(w, http.StatusOK, resp)
}

// ListSellerOrders supports ?page=&limit=&status=a,b&createdAfter=&createdBefore=
// with RFC 3339 timestamps.
func (h *Handler) ListSellerOrders(w http.ResponseWriter, r *http.Request) {
	filter, err := parseSellerFilter(chi.URLParam(r, "sellerID"), r)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	page, err := h.service.ListSellerOrders(r.Context(), filter)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, mapSellerOrderPageToResponse(page))
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(r.Context()); err != nil {
		h.logger.ErrorContext(r.Context(), "health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func parseSellerFilter(sellerID string, r *http.Request) (domain.SellerOrderFilter, error) {
	filter := domain.SellerOrderFilter{SellerID: sellerID}
	query := r.URL.Query()

	var err error

	if filter.Page.Number, err = parseIntQuery(query.Get("page")); err != nil {
		return filter, &domain.ValidationError{Field: "page", Reason: err.Error()}
	}
	if filter.Page.Limit, err = parseIntQuery(query.Get("limit")); err != nil {
		return filter, &domain.ValidationError{Field: "limit", Reason: err.Error()}
	}

	for _, raw := range query["status"] {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s == "" {
				continue
			}
			status, err := domain.ToOrderStatus(s)
			if err != nil {
				return filter, &domain.ValidationError{Field: "status", Reason: fmt.Sprintf("%q: %s", s, err)}
			}
			filter.Statuses = append(filter.Statuses, status)
		}
	}

	after, err := parseTimeQuery(query.Get("createdAfter"))
	if err != nil {
		return filter, &domain.ValidationError{Field: "createdAfter", Reason: err.Error()}
	}
	before, err := parseTimeQuery(query.Get("createdBefore"))
	if err != nil {
		return filter, &domain.ValidationError{Field: "createdBefore", Reason: err.Error()}
	}
	if after != nil || before != nil {
		filter.CreatedAt = &domain.TimeRange{After: after, Before: before}
	}

	return filter, nil
}

func parseIntQuery(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	return n, nil
}

func parseTimeQuery(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, fmt.Errorf("%q is not an RFC 3339 timestamp", s)
	}
	return &t, nil
}

func parseUUIDParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	raw := chi.URLParam(r, name)

	id, err := uuid.Parse(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_"+strings.ToLower(name), fmt.Sprintf("%q is not a valid id", raw))
		return uuid.Nil, false
	}

	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{
		Error:   code,
		Message: msg,
	})
}

// writeDomainError maps the service error classes to HTTP statuses.
// Unclassified errors are logged and answered with a generic message.
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validationErr *domain.ValidationError
		notFoundErr   *domain.NotFoundError
		stockErr      *domain.InsufficientStockError
		transitionErr *domain.StatusTransitionError
	)

	switch {
	case errors.As(err, &transitionErr):
		if errors.As(err, &notFoundErr) {
			writeError(w, http.StatusNotFound, "not_found", transitionErr.Error())
			return
		}
		writeError(w, http.StatusUnprocessableEntity, "invalid_status_transition", transitionErr.Error())
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, "validation_failed", validationErr.Error())
	case errors.As(err, &notFoundErr):
		writeError(w, http.StatusNotFound, "not_found", notFoundErr.Error())
	case errors.As(err, &stockErr):
		writeError(w, http.StatusConflict, "insufficient_stock", stockErr.Error())
	default:
		h.logger.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}
