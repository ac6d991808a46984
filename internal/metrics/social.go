// Package metrics exposes the service's prometheus instruments.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// LoginsTotal counts social login attempts by provider and result
	// ("ok" or the failing step's kind).
	LoginsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Subsystem: "social",
		Name:      "login_total",
		Help:      "Social login attempts by provider and result.",
	}, []string{"provider", "result"})

	// NewUsersTotal counts logins that provisioned a new user.
	NewUsersTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Subsystem: "social",
		Name:      "login_new_user_total",
		Help:      "Social logins that created a new user, by provider.",
	}, []string{"provider"})

	// LoginDuration observes end-to-end login handling time.
	LoginDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Subsystem: "social",
		Name:      "login_duration_seconds",
		Help:      "Social login duration by provider.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"provider"})

	// ExchangesTotal counts one-shot login-code exchanges by result.
	ExchangesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Subsystem: "social",
		Name:      "code_exchange_total",
		Help:      "Login code exchange attempts by result.",
	}, []string{"result"})
)

// Register installs the collectors on the given registerer, tolerating
// re-registration so tests can call it repeatedly.
func Register(r prometheus.Registerer) {
	for _, c := range []prometheus.Collector{LoginsTotal, NewUsersTotal, LoginDuration, ExchangesTotal} {
		if err := r.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				panic(err)
			}
		}
	}
}
