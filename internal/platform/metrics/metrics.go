package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	UsersRegistered        prometheus.Counter
	LoginFailures          prometheus.Counter
	RegistrationsSubmitted prometheus.Counter
	RegistrationsAudited   *prometheus.CounterVec
	PaymentsCompleted      prometheus.Counter
	PaymentAmount          prometheus.Counter
	OrdersClosed           prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		UsersRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "examreg_users_registered_total",
			Help: "Total number of user accounts created",
		}),
		LoginFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "examreg_login_failures_total",
			Help: "Total number of failed login attempts",
		}),
		RegistrationsSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "examreg_registrations_submitted_total",
			Help: "Total number of exam registrations submitted",
		}),
		RegistrationsAudited: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "examreg_registrations_audited_total",
			Help: "Total number of registration audit decisions by outcome",
		}, []string{"outcome"}),
		PaymentsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "examreg_payments_completed_total",
			Help: "Total number of successfully paid orders",
		}),
		PaymentAmount: promauto.NewCounter(prometheus.CounterOpts{
			Name: "examreg_payment_amount_yuan_total",
			Help: "Cumulative paid amount in yuan",
		}),
		OrdersClosed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "examreg_orders_closed_total",
			Help: "Total number of payment orders closed after expiry",
		}),
	}
}
