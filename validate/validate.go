// Package validate contains various validation functions
package validate

import (
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/batchcorp/mirror/options"
	"github.com/batchcorp/mirror/util"
)

var (
	ErrMissingOptions     = errors.New("options cannot be nil")
	ErrInvalidPort        = errors.New("port must be between 1 and 65535")
	ErrInvalidReadTimeout = errors.New("read timeout must be greater than 0")
	ErrInvalidInterval    = errors.New("stats intervals cannot be negative")
	ErrInvalidFlush       = errors.New("stats flush interval must be greater than 0")
	ErrInvalidRetention   = errors.New("stats retention must be greater than stats flush interval")
	ErrQuietAndDebug      = errors.New("--quiet and --debug are mutually exclusive")

	ErrMissingEventsTopic  = errors.New("--events-topic cannot be empty")
	ErrInvalidBufferSize   = errors.New("--events-buffer-size must be greater than 0")
	ErrMissingNATSURL      = errors.New("--nats-url cannot be empty")
	ErrMissingKafkaAddress = errors.New("at least one --kafka-address is required")
	ErrMissingRedisAddress = errors.New("--redis-address cannot be empty")
	ErrMissingMQTTAddress  = errors.New("--mqtt-address cannot be empty")
	ErrInvalidMQTTQoS      = errors.New("--mqtt-qos must be 0, 1 or 2")
	ErrMissingRabbitURL    = errors.New("--rabbit-url cannot be empty")
	ErrUnknownBackend      = errors.New("unknown events backend")
)

func ServerOptions(opts *options.Options) error {
	if opts == nil {
		return ErrMissingOptions
	}

	if opts.Port < 1 || opts.Port > 65535 {
		return ErrInvalidPort
	}

	if opts.ReadTimeout <= 0 {
		return ErrInvalidReadTimeout
	}

	if opts.Quiet && opts.Debug {
		return ErrQuietAndDebug
	}

	if err := StatsOptions(opts); err != nil {
		return errors.Wrap(err, "invalid stats options")
	}

	if err := EventsOptions(opts); err != nil {
		return errors.Wrap(err, "invalid events options")
	}

	return nil
}

func StatsOptions(opts *options.Options) error {
	if opts.StatsReportInterval < 0 {
		return ErrInvalidInterval
	}

	if opts.StatsFlushInterval <= 0 {
		return ErrInvalidFlush
	}

	if opts.StatsRetention < opts.StatsFlushInterval || opts.StatsRetention < time.Second {
		return ErrInvalidRetention
	}

	if opts.StatsDatabasePath != "" {
		// tstorage creates the leaf dir itself, the parent must exist
		parent := filepath.Dir(filepath.Clean(opts.StatsDatabasePath))

		if err := util.DirsExist([]string{parent}); err != nil {
			return errors.Wrap(err, "--stats-database-path validation error(s)")
		}
	}

	return nil
}

func EventsOptions(opts *options.Options) error {
	if opts.EventsBackend == "" || opts.EventsBackend == options.EventsBackendNone {
		return nil
	}

	if opts.EventsTopic == "" {
		return ErrMissingEventsTopic
	}

	if opts.EventsBufferSize <= 0 {
		return ErrInvalidBufferSize
	}

	switch opts.EventsBackend {
	case options.EventsBackendNATS:
		if opts.NATSURL == "" {
			return ErrMissingNATSURL
		}
	case options.EventsBackendKafka:
		if len(opts.KafkaAddress) == 0 {
			return ErrMissingKafkaAddress
		}
	case options.EventsBackendRedis:
		if opts.RedisAddress == "" {
			return ErrMissingRedisAddress
		}
	case options.EventsBackendMQTT:
		if opts.MQTTAddress == "" {
			return ErrMissingMQTTAddress
		}

		if opts.MQTTQoS < 0 || opts.MQTTQoS > 2 {
			return ErrInvalidMQTTQoS
		}
	case options.EventsBackendRabbitMQ:
		if opts.RabbitURL == "" {
			return ErrMissingRabbitURL
		}
	default:
		return errors.Wrapf(ErrUnknownBackend, "'%s'", opts.EventsBackend)
	}

	return nil
}
