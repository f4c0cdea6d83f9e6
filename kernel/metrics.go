package kernel

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// metricsSet is the optional Prometheus instrumentation from
// SPEC_FULL.md §4.16. A Kernel constructed without WithRegisterer has
// a nil metrics and every call site that touches it is guarded, so the
// kernel never depends on a running metrics server to function.
type metricsSet struct {
	cpuUsage         prometheus.Gauge
	readyQueueDepth  *prometheus.GaugeVec
	semResourceFull  prometheus.Counter
	mboxResourceFull prometheus.Counter
	timeouts         prometheus.Counter
	deletes          prometheus.Counter
}

func newMetricsSet(reg prometheus.Registerer) *metricsSet {
	m := &metricsSet{
		cpuUsage: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tinyos",
			Name:      "cpu_usage_percent",
			Help:      "Estimated CPU utilization, calibrated against the idle task's busy-loop count.",
		}),
		readyQueueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "tinyos",
			Name:      "ready_queue_depth",
			Help:      "Number of ready tasks per priority level.",
		}, []string{"priority"}),
		semResourceFull: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tinyos",
			Name:      "semaphore_resource_full_total",
			Help:      "Semaphore notifications rejected because the count was already at its configured maximum.",
		}),
		mboxResourceFull: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tinyos",
			Name:      "mailbox_resource_full_total",
			Help:      "Mailbox posts rejected because the ring buffer was full and no task was waiting.",
		}),
		timeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tinyos",
			Name:      "wait_timeouts_total",
			Help:      "Blocking waits that resolved via timeout rather than the underlying condition.",
		}),
		deletes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tinyos",
			Name:      "wait_deletes_total",
			Help:      "Blocking waits that resolved because the object being waited on was destroyed.",
		}),
	}
	reg.MustRegister(m.cpuUsage, m.readyQueueDepth, m.semResourceFull, m.mboxResourceFull, m.timeouts, m.deletes)
	return m
}

// reportReadyQueueDepthLocked refreshes the per-priority ready gauge.
// Called opportunistically from the tick handler rather than on every
// scheduling decision, to keep the hot path allocation-free.
func (k *Kernel) reportReadyQueueDepthLocked() {
	if k.metrics == nil {
		return
	}
	for p := 0; p < k.cfg.PrioCount; p++ {
		k.metrics.readyQueueDepth.WithLabelValues(strconv.Itoa(p)).Set(float64(k.taskTable[p].Count()))
	}
}
