package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"examreg/internal/exam"
	"examreg/internal/guard"
	"examreg/internal/notice"
	"examreg/internal/payment"
	"examreg/internal/registration"
	"examreg/internal/statistics"
	"examreg/internal/user"
	"examreg/pkg/httputil"
)

// Deps collects everything the router mounts.
type Deps struct {
	Logger        *slog.Logger
	Tokens        guard.TokenValidator
	Users         *user.Handler
	Exams         *exam.Handler
	Registrations *registration.Handler
	Payments      *payment.Handler
	Notices       *notice.Handler
	Statistics    *statistics.Handler
	Health        func() map[string]string
}

// NewRouter assembles the HTTP surface: public routes, the
// authenticated candidate area, and the admin area.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		status := map[string]string{"status": "ok"}
		if d.Health != nil {
			for k, v := range d.Health() {
				status[k] = v
			}
		}
		httputil.WriteSuccess(w, status)
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		d.Users.RegisterPublic(r)

		r.Group(func(r chi.Router) {
			r.Use(guard.RequireAuth(d.Tokens, d.Logger))

			d.Users.RegisterProtected(r)
			d.Exams.RegisterProtected(r)
			d.Registrations.RegisterProtected(r)
			d.Payments.RegisterProtected(r)
			d.Notices.RegisterProtected(r)

			r.Group(func(r chi.Router) {
				r.Use(guard.RequireRole(guard.RoleAdmin, d.Logger))

				d.Exams.RegisterAdmin(r)
				d.Registrations.RegisterAdmin(r)
				d.Payments.RegisterAdmin(r)
				d.Notices.RegisterAdmin(r)
				d.Statistics.RegisterAdmin(r)
			})
		})
	})

	return r
}
