// Package mirror wires the stream server to its supporting services and
// owns the shutdown sequence.
package mirror

import (
	"context"
	"net/http"
	"time"

	"github.com/alecthomas/kong"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/batchcorp/mirror/config"
	"github.com/batchcorp/mirror/events"
	"github.com/batchcorp/mirror/options"
	"github.com/batchcorp/mirror/server"
	"github.com/batchcorp/mirror/stats"
	"github.com/batchcorp/mirror/validate"
)

const DefaultShutdownTimeout = 10 * time.Second

var (
	ErrMissingShutdownCtx      = errors.New("ServiceShutdownCtx cannot be nil")
	ErrMissingMainShutdownFunc = errors.New("MainShutdownFunc cannot be nil")
	ErrMissingOptions          = errors.New("Options cannot be nil")
	ErrMissingPersistentConfig = errors.New("PersistentConfig cannot be nil")
)

// Config contains configurable options for instantiating a new Mirror
type Config struct {
	PersistentConfig   *config.Config
	ServiceShutdownCtx context.Context
	MainShutdownFunc   context.CancelFunc
	Options            *options.Options
	KongCtx            *kong.Context

	// ShutdownTimeout bounds how long connections, the events backend and
	// the API get to wind down
	ShutdownTimeout time.Duration
}

type Mirror struct {
	*Config

	Server  *server.Server
	Stats   *stats.Stats
	Emitter events.IEmitter
	API     *http.Server

	statsShutdownFunc context.CancelFunc
	log               *logrus.Entry
}

// New instantiates a properly configured instance of Mirror or a config error
func New(cfg *Config) (*Mirror, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, errors.Wrap(err, "unable to validate config")
	}

	return &Mirror{
		Config: cfg,
		log:    logrus.WithField("pkg", "mirror"),
	}, nil
}

func validateConfig(cfg *Config) error {
	if cfg == nil {
		return errors.New("config cannot be nil")
	}

	if cfg.ServiceShutdownCtx == nil {
		return ErrMissingShutdownCtx
	}

	if cfg.MainShutdownFunc == nil {
		return ErrMissingMainShutdownFunc
	}

	if cfg.PersistentConfig == nil {
		return ErrMissingPersistentConfig
	}

	if cfg.Options == nil {
		return ErrMissingOptions
	}

	if err := validate.ServerOptions(cfg.Options); err != nil {
		return errors.Wrap(err, "invalid options")
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}

	return nil
}
