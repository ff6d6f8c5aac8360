package core

import "github.com/prometheus/client_golang/prometheus"

type timerCollector struct {
	timer *Timer

	ticks        *prometheus.Desc
	sleepers     *prometheus.Desc
	peakSleepers *prometheus.Desc
	sleeps       *prometheus.Desc
	wakeups      *prometheus.Desc
	busyWaits    *prometheus.Desc
	loopsPerTick *prometheus.Desc
}

// NewCollector returns a Prometheus collector reading t's statistics at
// scrape time.
func NewCollector(t *Timer) prometheus.Collector {
	return &timerCollector{
		timer: t,
		ticks: prometheus.NewDesc(
			"timer_ticks_total",
			"Timer interrupts since boot",
			nil, nil,
		),
		sleepers: prometheus.NewDesc(
			"timer_sleepers",
			"Tasks waiting in the sleep queue",
			nil, nil,
		),
		peakSleepers: prometheus.NewDesc(
			"timer_sleepers_peak",
			"Most tasks ever waiting in the sleep queue at once",
			nil, nil,
		),
		sleeps: prometheus.NewDesc(
			"timer_sleeps_total",
			"Tasks that went to sleep",
			nil, nil,
		),
		wakeups: prometheus.NewDesc(
			"timer_wakeups_total",
			"Tasks woken when their deadline passed",
			nil, nil,
		),
		busyWaits: prometheus.NewDesc(
			"timer_busy_waits_total",
			"Calibrated busy-wait delays",
			nil, nil,
		),
		loopsPerTick: prometheus.NewDesc(
			"timer_loops_per_tick",
			"Busy-wait loop iterations that fit in one tick",
			nil, nil,
		),
	}
}

func (c *timerCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.ticks
	ch <- c.sleepers
	ch <- c.peakSleepers
	ch <- c.sleeps
	ch <- c.wakeups
	ch <- c.busyWaits
	ch <- c.loopsPerTick
}

func (c *timerCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.timer.Stats()
	ch <- prometheus.MustNewConstMetric(c.ticks, prometheus.CounterValue, float64(s.Ticks))
	ch <- prometheus.MustNewConstMetric(c.sleepers, prometheus.GaugeValue, float64(s.Sleepers))
	ch <- prometheus.MustNewConstMetric(c.peakSleepers, prometheus.GaugeValue, float64(s.PeakSleepers))
	ch <- prometheus.MustNewConstMetric(c.sleeps, prometheus.CounterValue, float64(s.Sleeps))
	ch <- prometheus.MustNewConstMetric(c.wakeups, prometheus.CounterValue, float64(s.Wakeups))
	ch <- prometheus.MustNewConstMetric(c.busyWaits, prometheus.CounterValue, float64(s.BusyWaits))
	ch <- prometheus.MustNewConstMetric(c.loopsPerTick, prometheus.GaugeValue, float64(s.LoopsPerTick))
}

// RegisterMetrics registers t's collector with reg
func RegisterMetrics(reg prometheus.Registerer, t *Timer) error {
	return reg.Register(NewCollector(t))
}
