// Package stats keeps per-stream counters and periodically flushes them
// into a tstorage time-series database so that recent history can be
// queried through the admin API.
package stats

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/nakabonne/tstorage"
	"github.com/pkg/errors"
	"github.com/relistan/go-director"
	"github.com/sirupsen/logrus"
)

const (
	MetricPackets     = "packets"
	MetricBytes       = "bytes"
	MetricSubscribers = "subscribers"

	PathLabel = "path"

	DefaultRetention = 24 * time.Hour
)

var (
	ErrInvalidFlushInterval = errors.New("FlushInterval must be greater than 0")
	ErrMissingShutdownCtx   = errors.New("ServiceShutdownCtx cannot be nil")
	ErrCounterNotFound      = errors.New("counter not found")
	ErrUnknownMetric        = errors.New("unknown metric")

	// gauges keep their value across flushes, everything else is reset
	gauges = map[string]bool{
		MetricSubscribers: true,
	}

	metrics = map[string]bool{
		MetricPackets:     true,
		MetricBytes:       true,
		MetricSubscribers: true,
	}
)

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 . IStats
type IStats interface {
	Incr(metric, path string, value float64)
	Set(metric, path string, value float64)
	Forget(path string)
	GetHistory(metric, path string, from, to time.Time) ([]*tstorage.DataPoint, error)
	Paths() []string
	Totals(path string) (map[string]float64, error)
	Start()
}

type Config struct {
	FlushInterval      time.Duration
	ServiceShutdownCtx context.Context

	// TSStoragePath is where tstorage keeps its partitions; empty keeps
	// everything in memory
	TSStoragePath string
	Retention     time.Duration
}

type Stats struct {
	*Config

	counters    map[string]*Counter
	countersMtx *sync.RWMutex
	storage     tstorage.Storage
	looper      director.Looper
	done        chan struct{}
	log         *logrus.Entry
}

type Counter struct {
	metric  string
	path    string
	value   float64
	gauge   bool
	mtx     *sync.RWMutex
	storage tstorage.Storage
}

func New(cfg *Config) (*Stats, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, errors.Wrap(err, "unable to validate config")
	}

	storageOpts := []tstorage.Option{
		tstorage.WithTimestampPrecision(tstorage.Seconds),
		tstorage.WithRetention(cfg.Retention),
	}

	if cfg.TSStoragePath != "" {
		storageOpts = append(storageOpts, tstorage.WithDataPath(cfg.TSStoragePath))
	}

	storage, err := tstorage.NewStorage(storageOpts...)
	if err != nil {
		return nil, errors.Wrap(err, "unable to initialize time-series storage")
	}

	return &Stats{
		Config:      cfg,
		counters:    make(map[string]*Counter),
		countersMtx: &sync.RWMutex{},
		storage:     storage,
		looper:      director.NewTimedLooper(director.FOREVER, cfg.FlushInterval, make(chan error, 1)),
		done:        make(chan struct{}),
		log:         logrus.WithField("pkg", "stats"),
	}, nil
}

func validateConfig(cfg *Config) error {
	if cfg == nil {
		return errors.New("config cannot be nil")
	}

	if cfg.FlushInterval <= 0 {
		return ErrInvalidFlushInterval
	}

	if cfg.ServiceShutdownCtx == nil {
		return ErrMissingShutdownCtx
	}

	if cfg.Retention <= 0 {
		cfg.Retention = DefaultRetention
	}

	return nil
}

// Start launches the flusher. Counters are flushed one last time and the
// storage is closed once ServiceShutdownCtx is cancelled.
func (s *Stats) Start() {
	go s.runFlusher()
	go func() {
		if err := s.runWatchForShutdown(); err != nil {
			s.log.Errorf("error during stats shutdown: %s", err)
		}
	}()
}

func (s *Stats) runFlusher() {
	s.log.Debugf("starting stats flusher ('%s' interval)", s.FlushInterval)

	s.looper.Loop(func() error {
		s.flushAll()
		return nil
	})

	s.log.Debug("stats flusher exiting")
}

// Done is closed once the final flush has happened and storage is closed
func (s *Stats) Done() <-chan struct{} {
	return s.done
}

func (s *Stats) runWatchForShutdown() error {
	<-s.ServiceShutdownCtx.Done()

	defer close(s.done)

	if s.looper != nil {
		s.looper.Quit()
	}

	s.flushAll()

	s.countersMtx.Lock()
	s.counters = make(map[string]*Counter)
	s.countersMtx.Unlock()

	if err := s.storage.Close(); err != nil {
		return errors.Wrap(err, "unable to close time-series storage")
	}

	s.log.Debug("stats shut down")

	return nil
}

func (s *Stats) flushAll() {
	s.countersMtx.RLock()
	defer s.countersMtx.RUnlock()

	for id, c := range s.counters {
		if err := c.flush(); err != nil {
			s.log.Errorf("unable to flush counter '%s': %s", id, err)
		}
	}
}

func genCounterID(metric, path string) string {
	return metric + "-" + path
}

// AddCounter returns the counter for metric and path, creating it if needed
func (s *Stats) AddCounter(metric, path string) *Counter {
	id := genCounterID(metric, path)

	s.countersMtx.Lock()
	defer s.countersMtx.Unlock()

	if c, ok := s.counters[id]; ok {
		return c
	}

	c := &Counter{
		metric:  metric,
		path:    path,
		gauge:   gauges[metric],
		mtx:     &sync.RWMutex{},
		storage: s.storage,
	}

	s.counters[id] = c

	return c
}

func (s *Stats) GetCounter(metric, path string) (*Counter, error) {
	s.countersMtx.RLock()
	defer s.countersMtx.RUnlock()

	c, ok := s.counters[genCounterID(metric, path)]
	if !ok {
		return nil, ErrCounterNotFound
	}

	return c, nil
}

// RemoveCounter flushes the counter one last time and forgets it
func (s *Stats) RemoveCounter(metric, path string) error {
	id := genCounterID(metric, path)

	s.countersMtx.Lock()
	defer s.countersMtx.Unlock()

	c, ok := s.counters[id]
	if !ok {
		return errors.Wrapf(ErrCounterNotFound, "unable to delete counter '%s'", id)
	}

	if err := c.flush(); err != nil {
		s.log.Errorf("unable to flush counter '%s' before removal: %s", id, err)
	}

	delete(s.counters, id)

	return nil
}

// Incr adds value to the counter for metric and path
func (s *Stats) Incr(metric, path string, value float64) {
	s.AddCounter(metric, path).Incr(value)
}

// Set overwrites the counter for metric and path
func (s *Stats) Set(metric, path string, value float64) {
	s.AddCounter(metric, path).Set(value)
}

// Forget removes every counter for path
func (s *Stats) Forget(path string) {
	for metric := range metrics {
		if err := s.RemoveCounter(metric, path); err != nil && errors.Cause(err) != ErrCounterNotFound {
			s.log.Errorf("unable to remove counter: %s", err)
		}
	}
}

// Paths lists every path that currently has at least one counter
func (s *Stats) Paths() []string {
	s.countersMtx.RLock()
	defer s.countersMtx.RUnlock()

	seen := make(map[string]bool)

	for _, c := range s.counters {
		seen[c.path] = true
	}

	paths := make([]string, 0, len(seen))

	for p := range seen {
		paths = append(paths, p)
	}

	sort.Strings(paths)

	return paths
}

// Totals returns the lifetime value of every tracked metric for path:
// summed history for counters, the current value for gauges. A path with
// no counters yields an empty map.
func (s *Stats) Totals(path string) (map[string]float64, error) {
	totals := make(map[string]float64)

	for _, metric := range Metrics() {
		c, err := s.GetCounter(metric, path)
		if err != nil {
			continue
		}

		total, err := c.GetTotal()
		if err != nil {
			return nil, errors.Wrapf(err, "unable to get total for '%s'", genCounterID(metric, path))
		}

		totals[metric] = total
	}

	return totals, nil
}

// GetHistory returns the flushed data points for metric and path between
// from (inclusive) and to (exclusive). No data is not an error.
func (s *Stats) GetHistory(metric, path string, from, to time.Time) ([]*tstorage.DataPoint, error) {
	if !metrics[metric] {
		return nil, errors.Wrapf(ErrUnknownMetric, "'%s' (valid: %s)", metric, strings.Join(Metrics(), ", "))
	}

	return history(s.storage, metric, path, from.Unix(), to.Unix())
}

// Metrics lists every metric name accepted by GetHistory
func Metrics() []string {
	out := make([]string, 0, len(metrics))

	for m := range metrics {
		out = append(out, m)
	}

	sort.Strings(out)

	return out
}

func history(storage tstorage.Reader, metric, path string, from, to int64) ([]*tstorage.DataPoint, error) {
	points, err := storage.Select(metric, labels(path), from, to)
	if err != nil {
		if err == tstorage.ErrNoDataPoints {
			return make([]*tstorage.DataPoint, 0), nil
		}

		return nil, errors.Wrap(err, "unable to get count history")
	}

	return points, nil
}

func labels(path string) []tstorage.Label {
	return []tstorage.Label{
		{Name: PathLabel, Value: path},
	}
}

func (c *Counter) Incr(value float64) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	c.value += value
}

func (c *Counter) Set(value float64) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	c.value = value
}

func (c *Counter) Value() float64 {
	c.mtx.RLock()
	defer c.mtx.RUnlock()

	return c.value
}

func (c *Counter) getStorageLabels() []tstorage.Label {
	return labels(c.path)
}

// flush writes the current value as a data point. Non-gauge counters are
// reset afterwards.
func (c *Counter) flush() error {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	err := c.storage.InsertRows([]tstorage.Row{
		{
			Metric: c.metric,
			Labels: c.getStorageLabels(),
			DataPoint: tstorage.DataPoint{
				Value:     c.value,
				Timestamp: time.Now().UTC().Unix(),
			},
		},
	})
	if err != nil {
		return errors.Wrap(err, "unable to insert row")
	}

	if !c.gauge {
		c.value = 0
	}

	return nil
}

func (c *Counter) GetTSHistory(from, to int64) ([]*tstorage.DataPoint, error) {
	return history(c.storage, c.metric, c.path, from, to)
}

// GetTotal sums every flushed data point plus the unflushed value. Gauges
// report their current value.
func (c *Counter) GetTotal() (float64, error) {
	if c.gauge {
		return c.Value(), nil
	}

	points, err := c.GetTSHistory(0, time.Now().UTC().Unix()+1)
	if err != nil {
		return 0, err
	}

	total := c.Value()

	for _, p := range points {
		total += p.Value
	}

	return total, nil
}
