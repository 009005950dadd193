package payment

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"examreg/internal/guard"
	dErrors "examreg/pkg/domain-errors"
	"examreg/pkg/httputil"
)

// Handler exposes order payment to candidates and order management to
// administrators.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterProtected mounts the candidate-facing order routes.
func (h *Handler) RegisterProtected(r chi.Router) {
	r.Post("/payments/create", h.create)
	r.Post("/payments/pay", h.pay)
	r.Get("/payments/my", h.my)
	r.Get("/payments/registration/{registrationID}", h.byRegistration)
	r.Get("/payments/{orderNo}", h.get)
}

// RegisterAdmin mounts the management routes.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/payments", h.list)
	r.Put("/payments/{orderNo}/refund", h.refund)
	r.Put("/payments/close-expired", h.closeExpired)
	r.Get("/payments/stats", h.stats)
}

type createRequest struct {
	RegistrationID int64 `json:"registrationId"`
}

func (r *createRequest) Validate() error {
	if r.RegistrationID <= 0 {
		return dErrors.New(dErrors.CodeValidation, "registration id is required")
	}
	return nil
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeAndPrepare[createRequest](w, r, h.logger)
	if !ok {
		return
	}
	o, err := h.service.OrderForRegistration(r.Context(), guard.UserID(r.Context()), req.RegistrationID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, o)
}

type payRequest struct {
	OrderNo       string `json:"orderNo"`
	PaymentMethod string `json:"paymentMethod"`
}

func (r *payRequest) Validate() error {
	if r.OrderNo == "" {
		return dErrors.New(dErrors.CodeValidation, "order number is required")
	}
	return nil
}

func (h *Handler) pay(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeAndPrepare[payRequest](w, r, h.logger)
	if !ok {
		return
	}
	o, err := h.service.Pay(r.Context(), guard.UserID(r.Context()), req.OrderNo, req.PaymentMethod)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, o)
}

func (h *Handler) my(w http.ResponseWriter, r *http.Request) {
	current, size := pageParams(r)
	page, err := h.service.My(r.Context(), guard.UserID(r.Context()), current, size)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, page)
}

func (h *Handler) byRegistration(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "registrationID"), 10, 64)
	if err != nil || id <= 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid registration id"))
		return
	}
	ctx := r.Context()
	admin := guard.RoleOf(ctx) == guard.RoleAdmin
	o, err := h.service.ByRegistration(ctx, guard.UserID(ctx), admin, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, o)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	admin := guard.RoleOf(ctx) == guard.RoleAdmin
	o, err := h.service.Get(ctx, guard.UserID(ctx), admin, chi.URLParam(r, "orderNo"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, o)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	current, size := pageParams(r)
	f := Filter{}
	if raw := r.URL.Query().Get("status"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || !OrderStatus(n).IsValid() {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid status filter"))
			return
		}
		f.Status = OrderStatus(n)
	}
	page, err := h.service.List(r.Context(), f, current, size)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, page)
}

func (h *Handler) refund(w http.ResponseWriter, r *http.Request) {
	o, err := h.service.Refund(r.Context(), guard.UserID(r.Context()), chi.URLParam(r, "orderNo"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, o)
}

func (h *Handler) closeExpired(w http.ResponseWriter, r *http.Request) {
	closed, err := h.service.CloseExpired(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, map[string]int{"closed": closed})
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.service.Stats(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, st)
}

func pageParams(r *http.Request) (int, int) {
	current, _ := strconv.Atoi(r.URL.Query().Get("current"))
	size, _ := strconv.Atoi(r.URL.Query().Get("size"))
	return current, size
}
