package exam

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"examreg/internal/guard"
	dErrors "examreg/pkg/domain-errors"
	"examreg/pkg/httputil"
)

// Handler exposes exam browsing to candidates and exam management to
// administrators.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterProtected mounts the candidate-facing exam routes.
func (h *Handler) RegisterProtected(r chi.Router) {
	r.Get("/exams", h.list)
	r.Get("/exams/available", h.available)
	r.Get("/exams/{id}", h.get)
	r.Get("/exams/{id}/sites", h.sites)
}

// RegisterAdmin mounts the management routes.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/exams", h.create)
	r.Put("/exams/{id}", h.update)
	r.Delete("/exams/{id}", h.delete)
	r.Put("/exams/{id}/publish", h.publish)
	r.Put("/exams/{id}/unpublish", h.unpublish)
	r.Put("/exams/{id}/open-registration", h.openRegistration)
	r.Put("/exams/{id}/close-registration", h.closeRegistration)
	r.Put("/exams/{id}/end", h.end)
	r.Post("/exams/{id}/sites", h.addSite)
	r.Put("/exams/sites/{siteID}", h.updateSite)
	r.Delete("/exams/sites/{siteID}", h.deleteSite)
	r.Get("/exams/stats", h.stats)
}

func (h *Handler) available(w http.ResponseWriter, r *http.Request) {
	current, size := pageParams(r)
	page, err := h.service.Available(r.Context(), r.URL.Query().Get("examName"), current, size)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, page)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	e, err := h.service.Get(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, e)
}

func (h *Handler) sites(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	sites, err := h.service.Sites(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, sites)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	current, size := pageParams(r)
	f := Filter{
		Name: r.URL.Query().Get("examName"),
		Type: r.URL.Query().Get("examType"),
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || !Status(n).IsValid() {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid status filter"))
			return
		}
		f.Status = Status(n)
	}
	page, err := h.service.List(r.Context(), f, current, size)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, page)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeAndPrepare[CreateRequest](w, r, h.logger)
	if !ok {
		return
	}
	e, err := h.service.Create(r.Context(), guard.UserID(r.Context()), req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, e)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[UpdateRequest](w, r, h.logger)
	if !ok {
		return
	}
	e, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, e)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteMessage(w, "exam deleted")
}

func (h *Handler) publish(w http.ResponseWriter, r *http.Request) {
	h.statusChange(w, r, h.service.Publish)
}

func (h *Handler) unpublish(w http.ResponseWriter, r *http.Request) {
	h.statusChange(w, r, h.service.Unpublish)
}

func (h *Handler) openRegistration(w http.ResponseWriter, r *http.Request) {
	h.statusChange(w, r, h.service.OpenRegistration)
}

func (h *Handler) closeRegistration(w http.ResponseWriter, r *http.Request) {
	h.statusChange(w, r, h.service.CloseRegistration)
}

func (h *Handler) end(w http.ResponseWriter, r *http.Request) {
	h.statusChange(w, r, h.service.End)
}

func (h *Handler) addSite(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	site, ok := httputil.DecodeAndPrepare[Site](w, r, h.logger)
	if !ok {
		return
	}
	created, err := h.service.AddSite(r.Context(), id, site)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, created)
}

func (h *Handler) updateSite(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "siteID")
	if !ok {
		return
	}
	site, ok := httputil.DecodeAndPrepare[Site](w, r, h.logger)
	if !ok {
		return
	}
	updated, err := h.service.UpdateSite(r.Context(), id, site)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, updated)
}

func (h *Handler) deleteSite(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "siteID")
	if !ok {
		return
	}
	if err := h.service.DeleteSite(r.Context(), id); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteMessage(w, "exam site deleted")
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.service.Stats(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, st)
}

func (h *Handler) statusChange(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id int64) (*Exam, error)) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	e, err := fn(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, e)
}

func idParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
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
