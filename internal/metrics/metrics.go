package metrics

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github/chapool/waves-ledger/internal/ledger/protocol"
)

const (
	namespace = "ledger"

	resultSuccess = "success"
	resultFailure = "failure"
)

// Service owns a private registry with the ledger client collectors. A nil *Service
// is valid and records nothing.
type Service struct {
	registry *prometheus.Registry

	operations   *prometheus.CounterVec
	reconnects   *prometheus.CounterVec
	statusErrors *prometheus.CounterVec
	connected    prometheus.Gauge
}

// New creates a Service and registers its collectors.
func New() (*Service, error) {
	s := &Service{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Session operations by name and result.",
		}, []string{"operation", "result"}),
		reconnects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconnects_total",
			Help:      "Transport (re)connects by result.",
		}, []string{"result"}),
		statusErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_errors_total",
			Help:      "Device status words other than 0x9000.",
		}, []string{"code"}),
		connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connected",
			Help:      "1 while a transport session is open.",
		}),
	}

	for _, c := range []prometheus.Collector{
		s.operations,
		s.reconnects,
		s.statusErrors,
		s.connected,
		collectors.NewGoCollector(),
	} {
		if err := s.registry.Register(c); err != nil {
			return nil, errors.Wrap(err, "failed to register collector")
		}
	}

	return s, nil
}

// ObserveOperation counts one session operation.
func (s *Service) ObserveOperation(operation string, err error) {
	if s == nil {
		return
	}

	if err == nil {
		s.operations.WithLabelValues(operation, resultSuccess).Inc()
		return
	}

	s.operations.WithLabelValues(operation, resultFailure).Inc()

	var statusErr *protocol.StatusError
	if errors.As(err, &statusErr) {
		s.statusErrors.WithLabelValues(fmt.Sprintf("0x%04x", statusErr.Code)).Inc()
	}
}

// ObserveConnect counts one connect attempt and tracks the connected gauge.
func (s *Service) ObserveConnect(err error) {
	if s == nil {
		return
	}

	if err != nil {
		s.reconnects.WithLabelValues(resultFailure).Inc()
		s.connected.Set(0)
		return
	}

	s.reconnects.WithLabelValues(resultSuccess).Inc()
	s.connected.Set(1)
}

// ObserveDisconnect resets the connected gauge.
func (s *Service) ObserveDisconnect() {
	if s == nil {
		return
	}
	s.connected.Set(0)
}

// Registry exposes the underlying registry to the HTTP metrics middleware and handler.
func (s *Service) Registry() *prometheus.Registry {
	return s.registry
}
