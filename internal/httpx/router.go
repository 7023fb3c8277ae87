package httpx

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/nikolayk812/marketplace-orders/internal/telemetry"
)

func NewRouter(handler *Handler, metrics *telemetry.Metrics, requestTimeout time.Duration) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(observe(handler.logger, metrics))

	r.Get("/health", handler.Health)
	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		if requestTimeout > 0 {
			r.Use(middleware.Timeout(requestTimeout))
		}

		r.Post("/orders", handler.Checkout)
		r.Get("/orders/{orderID}", handler.GetOrder)
		r.Patch("/orders/{orderID}/suborders/{suborderID}/status", handler.UpdateSuborderStatus)
		r.Get("/buyers/{buyerID}/orders", handler.ListBuyerOrders)
		r.Get("/sellers/{sellerID}/orders", handler.ListSellerOrders)
	})

	return r
}

// observe logs every request and records its count and latency per route pattern.
func observe(logger *slog.Logger, metrics *telemetry.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					route = r.Method + " " + pattern
				}
			}

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			elapsed := time.Since(start)

			logger.InfoContext(r.Context(), "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"route", route,
				"status", status,
				"duration_ms", elapsed.Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
			)

			metrics.ObserveRequest(route, strconv.Itoa(status), float64(elapsed.Milliseconds()))
		})
	}
}
