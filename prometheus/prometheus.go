// Singleton so that it's easier to use in other packages
package prometheus

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/relistan/go-director"
	"github.com/sirupsen/logrus"
)

const (
	MirrorPoints           = "mirror_publishing_points"
	MirrorSubscribers      = "mirror_subscribers"
	MirrorPacketsTotal     = "mirror_packets_total"
	MirrorBytesTotal       = "mirror_bytes_total"
	MirrorSubscriberDrops  = "mirror_subscriber_drops"
	MirrorPublisherErrors  = "mirror_publisher_errors"
	MirrorRejectedRequests = "mirror_rejected_requests"
	MirrorEventsDropped    = "mirror_events_dropped"
	MirrorEventErrors      = "mirror_event_errors"
)

var (
	ReportInterval = 10 * time.Second

	mutex    = &sync.RWMutex{}
	counters = make(map[string]float64, 0)

	prometheusMutex       = &sync.RWMutex{}
	prometheusCounters    = make(map[string]prometheus.Counter)
	prometheusVecCounters = make(map[string]*prometheus.CounterVec)
	prometheusGauges      = make(map[string]prometheus.Gauge)

	initOnce = &sync.Once{}

	looperMutex = &sync.Mutex{}
	looper      director.Looper
)

// Start initiates console stats reporting. Every interval each counter
// registered via Incr is logged along with its per-second rate and reset.
func Start(interval time.Duration) {
	looperMutex.Lock()
	defer looperMutex.Unlock()

	if looper != nil || interval <= 0 {
		return
	}

	ReportInterval = interval

	looper = director.NewImmediateTimedLooper(director.FOREVER, interval, make(chan error, 1))

	logrus.Debugf("Launching stats reporter ('%s' interval)", interval)

	go looper.Loop(func() error {
		report(interval)
		return nil
	})
}

// Stop ends console stats reporting started via Start
func Stop() {
	looperMutex.Lock()
	defer looperMutex.Unlock()

	if looper == nil {
		return
	}

	looper.Quit()
	looper = nil
}

func report(interval time.Duration) {
	mutex.Lock()
	defer mutex.Unlock()

	names := make([]string, 0, len(counters))

	for name := range counters {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, counterName := range names {
		counterValue := counters[counterName]
		perSecond := counterValue / interval.Seconds()

		logrus.Infof("STATS [%s]: %.2f / %s (%.2f/s)", counterName, counterValue,
			interval, perSecond)

		// Reset it
		counters[counterName] = 0
	}
}

// InitPrometheusMetrics sets up prometheus counters/gauges. Safe to call
// more than once.
func InitPrometheusMetrics() {
	initOnce.Do(initPrometheusMetrics)
}

func initPrometheusMetrics() {
	prometheusMutex.Lock()
	defer prometheusMutex.Unlock()

	registerGauge(MirrorPoints, "Number of registered publishing points")
	registerGauge(MirrorSubscribers, "Number of players currently receiving a stream")

	registerCounter(MirrorPacketsTotal, "Total number of packets received from encoders")
	registerCounter(MirrorBytesTotal, "Total number of packet body bytes received from encoders")
	registerCounter(MirrorSubscriberDrops, "Number of players dropped because a write failed")
	registerCounter(MirrorPublisherErrors, "Number of encoder sessions that ended with an error")
	registerCounter(MirrorRejectedRequests, "Number of requests answered with 4xx")
	registerCounter(MirrorEventsDropped, "Number of lifecycle events dropped because the buffer was full")
	registerCounter(MirrorEventErrors, "Number of lifecycle events that could not be published")

	prometheusVecCounters[VecCounterName("stream", "packets")] = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mirror",
		Subsystem: "stream",
		Name:      "packets",
		Help:      "Packets received from encoders by packet type",
	}, []string{"type"})

	prometheusVecCounters[VecCounterName("http", "responses")] = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mirror",
		Subsystem: "http",
		Name:      "responses",
		Help:      "Responses sent on the stream port by status code",
	}, []string{"code"})
}

// registerGauge must be called with prometheusMutex held. Gauges that were
// already auto-created are left alone.
func registerGauge(name, help string) {
	if _, ok := prometheusGauges[name]; ok {
		return
	}

	prometheusGauges[name] = promauto.NewGauge(prometheus.GaugeOpts{
		Name: name,
		Help: help,
	})
}

// registerCounter must be called with prometheusMutex held
func registerCounter(name, help string) {
	if _, ok := prometheusCounters[name]; ok {
		return
	}

	prometheusCounters[name] = promauto.NewCounter(prometheus.CounterOpts{
		Name: name,
		Help: help,
	})
}

// IncrPromCounter increments a prometheus counter by the given amount
func IncrPromCounter(key string, amount float64) {
	key = strings.Replace(key, "-", "_", -1)

	prometheusMutex.Lock()
	defer prometheusMutex.Unlock()

	c, ok := prometheusCounters[key]
	if !ok {
		c = promauto.NewCounter(prometheus.CounterOpts{
			Name: key,
			Help: "Auto-created counter",
		})

		prometheusCounters[key] = c
	}

	c.Add(amount)
}

func VecCounterName(subsystem, name string) string {
	return subsystem + "_" + name
}

func GetVecCounter(subsystem, name string) *prometheus.CounterVec {
	prometheusMutex.RLock()
	defer prometheusMutex.RUnlock()

	c, ok := prometheusVecCounters[VecCounterName(subsystem, name)]
	if ok {
		return c
	}

	return nil
}

// IncrVecCounter increments the labelled counter by 1. Unknown vec counters
// are ignored.
func IncrVecCounter(subsystem, name string, labels ...string) {
	c := GetVecCounter(subsystem, name)
	if c == nil {
		return
	}

	c.WithLabelValues(labels...).Inc()
}

// IncrPromGauge increments a prometheus gauge by 1
func IncrPromGauge(key string) {
	prometheusMutex.Lock()
	defer prometheusMutex.Unlock()

	if _, ok := prometheusGauges[key]; !ok {
		prometheusGauges[key] = promauto.NewGauge(prometheus.GaugeOpts{
			Name: key,
			Help: "Auto-created gauge",
		})
	}

	prometheusGauges[key].Inc()
}

// DecrPromGauge decrements a prometheus gauge by 1
func DecrPromGauge(key string) {
	prometheusMutex.RLock()
	defer prometheusMutex.RUnlock()

	c, ok := prometheusGauges[key]
	if ok {
		c.Dec()
	}
}

// SubPromGauge subtracts amount from a prometheus gauge
func SubPromGauge(key string, amount float64) {
	prometheusMutex.RLock()
	defer prometheusMutex.RUnlock()

	c, ok := prometheusGauges[key]
	if ok {
		c.Sub(amount)
	}
}

// Incr increments a console-reported counter by the given amount
func Incr(name string, value float64) {
	mutex.Lock()
	defer mutex.Unlock()

	counters[name] += value
}

// Value returns the current (unreported) value of a console counter
func Value(name string) float64 {
	mutex.RLock()
	defer mutex.RUnlock()

	return counters[name]
}
