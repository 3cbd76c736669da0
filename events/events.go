// Package events publishes stream lifecycle events (points created and
// closed, players joining and leaving) to an external message bus.
//
// Emit never blocks: events are queued on a buffered channel and published
// by a single worker, in order. When the buffer is full the event is
// dropped and counted.
package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/pkg/errors"
	"github.com/relistan/go-director"
	uuid "github.com/satori/go.uuid"
	"github.com/sirupsen/logrus"

	"github.com/batchcorp/mirror/prometheus"
)

type Type string

const (
	PointCreated       Type = "point_created"
	PointClosed        Type = "point_closed"
	SubscriberAdded    Type = "subscriber_added"
	SubscriberDropped  Type = "subscriber_dropped"
	SubscriberRejected Type = "subscriber_rejected"

	FormatJSON        = "json"
	FormatCloudEvents = "cloudevents"

	CloudEventTypePrefix = "com.batchcorp.mirror."

	DefaultBufferSize     = 1000
	DefaultPublishTimeout = 5 * time.Second
)

var (
	ErrMissingPublisher = errors.New("Publisher cannot be nil")
	ErrInvalidFormat    = errors.New("Format must be 'json' or 'cloudevents'")
	ErrEmitterClosed    = errors.New("emitter is closed")

	errChannelClosed = errors.New("event channel closed")
)

type Event struct {
	ID         string    `json:"id"`
	Type       Type      `json:"type"`
	Path       string    `json:"path"`
	Subscriber string    `json:"subscriber,omitempty"`
	Remote     string    `json:"remote,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	MirrorID   string    `json:"mirror_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 . IEmitter
type IEmitter interface {
	Emit(e *Event)
	Start()
	Close(ctx context.Context) error
}

// IPublisher delivers encoded events to a single backend. key is the path
// the event belongs to; backends that support keyed delivery use it to keep
// per-stream ordering.
//
//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 . IPublisher
type IPublisher interface {
	Name() string
	Publish(ctx context.Context, key string, data []byte) error
	Close(ctx context.Context) error
}

type Config struct {
	Publisher      IPublisher
	MirrorID       string
	BufferSize     int
	Format         string
	PublishTimeout time.Duration
}

type Emitter struct {
	*Config

	eventCh chan *Event
	doneCh  chan struct{}
	started bool
	closed  bool
	mtx     *sync.RWMutex
	looper  director.Looper
	log     *logrus.Entry
}

func New(cfg *Config) (*Emitter, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, errors.Wrap(err, "unable to validate config")
	}

	return &Emitter{
		Config:  cfg,
		eventCh: make(chan *Event, cfg.BufferSize),
		doneCh:  make(chan struct{}),
		mtx:     &sync.RWMutex{},
		looper:  director.NewFreeLooper(director.FOREVER, make(chan error, 1)),
		log: logrus.WithFields(logrus.Fields{
			"pkg":     "events",
			"backend": cfg.Publisher.Name(),
		}),
	}, nil
}

func validateConfig(cfg *Config) error {
	if cfg == nil {
		return errors.New("config cannot be nil")
	}

	if cfg.Publisher == nil {
		return ErrMissingPublisher
	}

	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultBufferSize
	}

	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = DefaultPublishTimeout
	}

	switch cfg.Format {
	case "":
		cfg.Format = FormatJSON
	case FormatJSON, FormatCloudEvents:
	default:
		return ErrInvalidFormat
	}

	return nil
}

// Emit queues e for publishing. ID, MirrorID and OccurredAt are filled in
// when empty.
func (e *Emitter) Emit(ev *Event) {
	if ev == nil {
		return
	}

	if ev.ID == "" {
		ev.ID = uuid.NewV4().String()
	}

	if ev.MirrorID == "" {
		ev.MirrorID = e.MirrorID
	}

	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}

	e.mtx.RLock()
	defer e.mtx.RUnlock()

	if e.closed {
		e.log.Debugf("emitter closed, discarding '%s' event for '%s'", ev.Type, ev.Path)
		return
	}

	select {
	case e.eventCh <- ev:
	default:
		e.log.Warnf("event buffer full, dropping '%s' event for '%s'", ev.Type, ev.Path)
		prometheus.IncrPromCounter(prometheus.MirrorEventsDropped, 1)
	}
}

// Start launches the publishing worker
func (e *Emitter) Start() {
	e.mtx.Lock()
	defer e.mtx.Unlock()

	if e.started || e.closed {
		return
	}

	e.started = true

	go func() {
		defer close(e.doneCh)

		e.log.Debug("starting event publisher")

		e.looper.Loop(e.publishNext)

		e.log.Debug("event publisher exiting")
	}()
}

func (e *Emitter) publishNext() error {
	ev, ok := <-e.eventCh
	if !ok {
		return errChannelClosed
	}

	data, err := e.encode(ev)
	if err != nil {
		e.log.Errorf("unable to encode '%s' event: %s", ev.Type, err)
		prometheus.IncrPromCounter(prometheus.MirrorEventErrors, 1)

		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), e.PublishTimeout)
	defer cancel()

	if err := e.Publisher.Publish(ctx, ev.Path, data); err != nil {
		e.log.Errorf("unable to publish '%s' event for '%s': %s", ev.Type, ev.Path, err)
		prometheus.IncrPromCounter(prometheus.MirrorEventErrors, 1)

		return nil
	}

	e.log.Debugf("published '%s' event for '%s'", ev.Type, ev.Path)

	return nil
}

func (e *Emitter) encode(ev *Event) ([]byte, error) {
	if e.Format != FormatCloudEvents {
		data, err := json.Marshal(ev)
		if err != nil {
			return nil, errors.Wrap(err, "unable to marshal event")
		}

		return data, nil
	}

	ce := cloudevents.NewEvent()

	ce.SetID(ev.ID)
	ce.SetSource("mirror/" + ev.MirrorID)
	ce.SetType(CloudEventTypePrefix + string(ev.Type))
	ce.SetSubject(ev.Path)
	ce.SetTime(ev.OccurredAt)

	if err := ce.SetData(cloudevents.ApplicationJSON, ev); err != nil {
		return nil, errors.Wrap(err, "unable to set cloudevent data")
	}

	data, err := json.Marshal(ce)
	if err != nil {
		return nil, errors.Wrap(err, "unable to marshal cloudevent")
	}

	return data, nil
}

// Close stops accepting events, waits for queued events to be published
// and closes the backend. Events still queued when ctx expires are lost.
func (e *Emitter) Close(ctx context.Context) error {
	e.mtx.Lock()

	if e.closed {
		e.mtx.Unlock()
		return ErrEmitterClosed
	}

	e.closed = true
	close(e.eventCh)

	started := e.started

	e.mtx.Unlock()

	if started {
		select {
		case <-e.doneCh:
		case <-ctx.Done():
			e.log.Warnf("timed out waiting for %d queued event(s)", len(e.eventCh))
		}
	}

	if err := e.Publisher.Close(ctx); err != nil {
		return errors.Wrapf(err, "unable to close '%s' publisher", e.Publisher.Name())
	}

	return nil
}
