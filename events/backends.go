package events

import (
	"context"

	"github.com/pkg/errors"

	"github.com/batchcorp/mirror/options"
)

var ErrUnsupportedBackend = errors.New("unsupported events backend")

// NewPublisher creates the publisher selected by opts.EventsBackend
func NewPublisher(opts *options.Options) (IPublisher, error) {
	if opts == nil {
		return nil, errors.New("options cannot be nil")
	}

	var (
		p   IPublisher
		err error
	)

	switch opts.EventsBackend {
	case "", options.EventsBackendNone:
		p = NewNoop()
	case options.EventsBackendNATS:
		p, err = NewNATS(opts.NATSURL, opts.EventsTopic)
	case options.EventsBackendKafka:
		p, err = NewKafka(opts.KafkaAddress, opts.EventsTopic)
	case options.EventsBackendRedis:
		p, err = NewRedis(opts.RedisAddress, opts.RedisPassword, opts.RedisDatabase, opts.EventsTopic)
	case options.EventsBackendMQTT:
		p, err = NewMQTT(opts.MQTTAddress, opts.MQTTClientID, opts.EventsTopic, opts.MQTTQoS)
	case options.EventsBackendRabbitMQ:
		p, err = NewRabbitMQ(opts.RabbitURL, opts.RabbitExchange, opts.EventsTopic)
	default:
		return nil, errors.Wrapf(ErrUnsupportedBackend, "'%s'", opts.EventsBackend)
	}

	if err != nil {
		return nil, errors.Wrapf(err, "unable to create '%s' publisher", opts.EventsBackend)
	}

	return p, nil
}

// Noop discards every event
type Noop struct{}

func NewNoop() *Noop {
	return &Noop{}
}

func (n *Noop) Name() string {
	return options.EventsBackendNone
}

func (n *Noop) Publish(_ context.Context, _ string, _ []byte) error {
	return nil
}

func (n *Noop) Close(_ context.Context) error {
	return nil
}
