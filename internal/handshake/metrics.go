package handshake

import (
	"github.com/prometheus/client_golang/prometheus"

	"wscheck/internal/contract"
)

// Observer receives connection lifecycle notifications.
type Observer interface {
	ObserveConnection(info *ConnectionInfo)
	ObserveHandshakeError(err error)
	ObserveMessage(kind contract.EventKind)
}

// NopObserver discards every notification.
type NopObserver struct{}

func (NopObserver) ObserveConnection(*ConnectionInfo) {}
func (NopObserver) ObserveHandshakeError(error)       {}
func (NopObserver) ObserveMessage(contract.EventKind) {}

// Metrics is an Observer backed by prometheus counters.
type Metrics struct {
	connections     *prometheus.CounterVec
	handshakeErrors prometheus.Counter
	messages        *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(namespace string, reg prometheus.Registerer) (*Metrics, error) {
	if namespace == "" {
		namespace = "wscheck"
	}
	m := &Metrics{
		connections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ws",
				Name:      "connections_total",
				Help:      "Total number of established WebSocket connections",
			},
			[]string{"service"},
		),
		handshakeErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ws",
				Name:      "handshake_errors_total",
				Help:      "Total number of failed WebSocket handshakes",
			},
		),
		messages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ws",
				Name:      "messages_total",
				Help:      "Total number of events dispatched to service handlers",
			},
			[]string{"kind"},
		),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.connections, m.handshakeErrors, m.messages} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) ObserveConnection(info *ConnectionInfo) {
	name := ""
	if info != nil && info.Service != nil {
		name = info.Service.Name
	}
	m.connections.WithLabelValues(name).Inc()
}

func (m *Metrics) ObserveHandshakeError(error) {
	m.handshakeErrors.Inc()
}

func (m *Metrics) ObserveMessage(kind contract.EventKind) {
	m.messages.WithLabelValues(kind.String()).Inc()
}
