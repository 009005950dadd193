package notice

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"examreg/internal/guard"
	dErrors "examreg/pkg/domain-errors"
	"examreg/pkg/httputil"
)

// Handler exposes announcements to candidates and their management to
// administrators.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterProtected mounts the candidate-facing notice routes.
func (h *Handler) RegisterProtected(r chi.Router) {
	r.Get("/notices", h.published)
	r.Get("/notices/top", h.top)
	r.Get("/notices/{id}", h.read)
}

// RegisterAdmin mounts the management routes.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/notices/admin", h.list)
	r.Post("/notices", h.create)
	r.Put("/notices/{id}", h.update)
	r.Delete("/notices/{id}", h.delete)
	r.Put("/notices/{id}/publish", h.publish)
	r.Put("/notices/{id}/retract", h.retract)
}

func (h *Handler) published(w http.ResponseWriter, r *http.Request) {
	current, size := pageParams(r)
	page, err := h.service.Published(r.Context(), r.URL.Query().Get("title"), current, size)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, page)
}

func (h *Handler) top(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	notices, err := h.service.Top(r.Context(), limit)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, notices)
}

func (h *Handler) read(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	n, err := h.service.Read(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, n)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	current, size := pageParams(r)
	page, err := h.service.List(r.Context(), Filter{Title: r.URL.Query().Get("title")}, current, size)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, page)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeAndPrepare[SaveRequest](w, r, h.logger)
	if !ok {
		return
	}
	n, err := h.service.Create(r.Context(), guard.UserID(r.Context()), req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, n)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[SaveRequest](w, r, h.logger)
	if !ok {
		return
	}
	n, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, n)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteMessage(w, "notice deleted")
}

func (h *Handler) publish(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	n, err := h.service.Publish(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, n)
}

func (h *Handler) retract(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	n, err := h.service.Retract(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, n)
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
