package registration

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"examreg/internal/guard"
	dErrors "examreg/pkg/domain-errors"
	"examreg/pkg/httputil"
)

// Handler exposes the candidate registration flow and the admin audit
// queue.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterProtected mounts the candidate-facing routes.
func (h *Handler) RegisterProtected(r chi.Router) {
	r.Post("/registrations", h.submit)
	r.Get("/registrations/my", h.my)
	r.Get("/registrations/{id}", h.detail)
	r.Put("/registrations/{id}/cancel", h.cancel)
}

// RegisterAdmin mounts the audit and reporting routes.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/registrations", h.list)
	r.Get("/registrations/pending", h.pending)
	r.Put("/registrations/{id}/audit", h.audit)
	r.Get("/registrations/stats", h.stats)
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeAndPrepare[SubmitRequest](w, r, h.logger)
	if !ok {
		return
	}
	created, err := h.service.Submit(r.Context(), guard.UserID(r.Context()), req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, created)
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

func (h *Handler) detail(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	admin := guard.RoleOf(ctx) == guard.RoleAdmin
	d, err := h.service.Detail(ctx, guard.UserID(ctx), admin, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, d)
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.service.Cancel(r.Context(), guard.UserID(r.Context()), id); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteMessage(w, "registration canceled")
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	current, size := pageParams(r)
	f := Filter{}
	if raw := r.URL.Query().Get("examId"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid exam id filter"))
			return
		}
		f.ExamID = n
	}
	if raw := r.URL.Query().Get("auditStatus"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || !AuditStatus(n).IsValid() {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid audit status filter"))
			return
		}
		f.AuditStatus = AuditStatus(n)
	}
	page, err := h.service.List(r.Context(), f, current, size)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, page)
}

func (h *Handler) pending(w http.ResponseWriter, r *http.Request) {
	current, size := pageParams(r)
	page, err := h.service.Pending(r.Context(), current, size)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, page)
}

func (h *Handler) audit(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[AuditRequest](w, r, h.logger)
	if !ok {
		return
	}
	updated, err := h.service.Audit(r.Context(), guard.UserID(r.Context()), id, req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, updated)
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.service.Stats(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, st)
}

func idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid id"))
		return 0, false
	}
	return id, true
}

func pageParams(r *http.Request) (int, int) {
	current, _ := strconv.Atoi(r.URL.Query().Get("current"))
	size, _ := strconv.Atoi(r.URL.Query().Get("size"))
	return current, size
}
