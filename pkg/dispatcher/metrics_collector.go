package dispatcher

import (
	"time"

	"github.com/cuemby/dispatcher/pkg/metrics"
)

// MetricsCollector periodically samples the dispatcher's fleet and
// request state into the gauges pkg/metrics exposes for scraping. The
// counters and histograms (requests created/completed, planning
// latency, rest cycles) are recorded at the moment they happen,
// directly from the command, re-planning and movement code; this collector only
// covers the point-in-time counts those event-driven metrics can't.
type MetricsCollector struct {
	dispatcher *Dispatcher
	interval   time.Duration
	stopCh     chan struct{}
}

// NewMetricsCollector creates a collector sampling d every interval
// (15s if interval is zero or negative).
func NewMetricsCollector(d *Dispatcher, interval time.Duration) *MetricsCollector {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &MetricsCollector{
		dispatcher: d,
		interval:   interval,
		stopCh:     make(chan struct{}),
	}
}

// Start begins periodic sampling, collecting once immediately.
func (c *MetricsCollector) Start() {
	ticker := time.NewTicker(c.interval)
	go func() {
		c.collect()
		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop ends periodic sampling.
func (c *MetricsCollector) Stop() {
	close(c.stopCh)
}

func (c *MetricsCollector) collect() {
	c.collectFleetMetrics()
	c.collectRequestMetrics()
}

func (c *MetricsCollector) collectFleetMetrics() {
	counts := make(map[[2]string]int)
	for _, t := range c.dispatcher.Transporters() {
		key := [2]string{string(t.Status), string(t.ShiftState)}
		counts[key]++
		metrics.TransporterWorkload.WithLabelValues(t.Name).Set(t.Workload)
	}
	for key, n := range counts {
		metrics.TransportersTotal.WithLabelValues(key[0], key[1]).Set(float64(n))
	}
}

func (c *MetricsCollector) collectRequestMetrics() {
	counts := make(map[string]int)
	for _, r := range c.dispatcher.Requests() {
		counts[string(r.Status)]++
	}
	for status, n := range counts {
		metrics.RequestsTotal.WithLabelValues(status).Set(float64(n))
	}
}
