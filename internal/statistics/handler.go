package statistics

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"examreg/pkg/httputil"
)

// Handler exposes the admin dashboard.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterAdmin mounts the dashboard and the per-panel routes.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/statistics/dashboard", h.dashboard)
	r.Get("/statistics/user", h.userStats)
	r.Get("/statistics/exam", h.examStats)
	r.Get("/statistics/registration", h.registrationStats)
	r.Get("/statistics/payment", h.orderStats)
	r.Get("/statistics/registration-trend", h.registrationTrend)
	r.Get("/statistics/payment-trend", h.paymentTrend)
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	overview, err := h.service.Overview(r.Context(), trendDays(r))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, overview)
}

func (h *Handler) userStats(w http.ResponseWriter, r *http.Request) {
	st, err := h.service.UserStats(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, st)
}

func (h *Handler) examStats(w http.ResponseWriter, r *http.Request) {
	st, err := h.service.ExamStats(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, st)
}

func (h *Handler) registrationStats(w http.ResponseWriter, r *http.Request) {
	st, err := h.service.RegistrationStats(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, st)
}

func (h *Handler) orderStats(w http.ResponseWriter, r *http.Request) {
	st, err := h.service.OrderStats(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, st)
}

func (h *Handler) registrationTrend(w http.ResponseWriter, r *http.Request) {
	points, err := h.service.RegistrationTrend(r.Context(), trendDays(r))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, points)
}

func (h *Handler) paymentTrend(w http.ResponseWriter, r *http.Request) {
	points, err := h.service.PaymentTrend(r.Context(), trendDays(r))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, points)
}

func trendDays(r *http.Request) int {
	days, _ := strconv.Atoi(r.URL.Query().Get("days"))
	return days
}
