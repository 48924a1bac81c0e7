package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the service's Prometheus collectors.
type Metrics struct {
	Scans         *prometheus.CounterVec
	RosterChanges *prometheus.CounterVec
	Notifications *prometheus.CounterVec
}

// New creates and registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Scans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "attendance",
			Name:      "scans_total",
			Help:      "Scans processed, by outcome.",
		}, []string{"outcome"}),
		RosterChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "attendance",
			Name:      "roster_changes_total",
			Help:      "Roster mutations, by action.",
		}, []string{"action"}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "attendance",
			Name:      "notifications_total",
			Help:      "Attendance notifications sent by the worker, by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(m.Scans, m.RosterChanges, m.Notifications)
	return m
}

// ObserveScan counts one scan by outcome label.
func (m *Metrics) ObserveScan(outcome string) {
	m.Scans.WithLabelValues(outcome).Inc()
}

// ObserveRosterChange counts one roster mutation.
func (m *Metrics) ObserveRosterChange(action string) {
	m.RosterChanges.WithLabelValues(action).Inc()
}

// ObserveNotification counts one webhook delivery result.
func (m *Metrics) ObserveNotification(result string) {
	m.Notifications.WithLabelValues(result).Inc()
}
