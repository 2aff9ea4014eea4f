package observability

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/exfury/gridiron-core/core/types"
)

type eventMetrics struct {
	emitted *prometheus.CounterVec
}

var (
	eventMetricsOnce sync.Once
	eventRegistry    *eventMetrics
)

// Events returns the metrics registry tracking structured ledger events.
func Events() *eventMetrics {
	eventMetricsOnce.Do(func() {
		eventRegistry = &eventMetrics{
			emitted: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "grid",
				Subsystem: "events",
				Name:      "emitted_total",
				Help:      "Count of committed events segmented by module and type.",
			}, []string{"module", "type"}),
		}
		prometheus.MustRegister(eventRegistry.emitted)
	})
	return eventRegistry
}

// Record counts the committed events. The module label is the prefix of the
// event type before the first dot.
func (m *eventMetrics) Record(evts []*types.Event) {
	if m == nil {
		return
	}
	for _, evt := range evts {
		if evt == nil {
			continue
		}
		module, name, found := strings.Cut(evt.Type, ".")
		if !found {
			module, name = "unknown", evt.Type
		}
		m.emitted.WithLabelValues(module, name).Inc()
	}
}
