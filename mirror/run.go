package mirror

import (
	"context"

	"github.com/pkg/errors"

	"github.com/batchcorp/mirror/api"
	"github.com/batchcorp/mirror/events"
	"github.com/batchcorp/mirror/options"
	"github.com/batchcorp/mirror/prometheus"
	"github.com/batchcorp/mirror/server"
	"github.com/batchcorp/mirror/stats"
)

// Run starts every service and blocks in the stream server's accept loop
// until ServiceShutdownCtx is cancelled. MainShutdownFunc is called once the
// shutdown sequence has finished.
func (m *Mirror) Run() error {
	if err := m.startServices(); err != nil {
		ctx, cancel := context.WithTimeout(context.Background(), m.ShutdownTimeout)
		defer cancel()

		m.stopServices(ctx)

		return errors.Wrap(err, "unable to start services")
	}

	go m.watchServiceShutdown()

	m.log.Infof("mirror instance ID: %s", m.PersistentConfig.MirrorID)

	// Blocks
	if err := m.Server.Serve(); err != nil {
		return errors.Wrap(err, "unable to run stream server")
	}

	return nil
}

func (m *Mirror) startServices() error {
	opts := m.Options

	prometheus.InitPrometheusMetrics()
	prometheus.Start(opts.StatsReportInterval)

	// Stats outlive the stream server so the final per-path updates made
	// while points close still get flushed
	statsCtx, statsShutdownFunc := context.WithCancel(context.Background())
	m.statsShutdownFunc = statsShutdownFunc

	statsService, err := stats.New(&stats.Config{
		FlushInterval:      opts.StatsFlushInterval,
		ServiceShutdownCtx: statsCtx,
		TSStoragePath:      opts.StatsDatabasePath,
		Retention:          opts.StatsRetention,
	})
	if err != nil {
		return errors.Wrap(err, "unable to create stats service")
	}

	statsService.Start()
	m.Stats = statsService

	publisher, err := events.NewPublisher(opts)
	if err != nil {
		return errors.Wrap(err, "unable to create events publisher")
	}

	emitter, err := events.New(&events.Config{
		Publisher:  publisher,
		MirrorID:   m.PersistentConfig.MirrorID,
		BufferSize: opts.EventsBufferSize,
		Format:     opts.EventsFormat,
	})
	if err != nil {
		publisher.Close(context.Background())
		return errors.Wrap(err, "unable to create events emitter")
	}

	emitter.Start()
	m.Emitter = emitter

	srv, err := server.New(&server.Config{
		ListenAddress:      opts.ListenAddress(),
		LocalOnly:          opts.LocalOnly,
		ReadTimeout:        opts.ReadTimeout,
		ServerName:         "mirror/" + options.VERSION,
		Stats:              statsService,
		Emitter:            emitter,
		ServiceShutdownCtx: m.ServiceShutdownCtx,
	})
	if err != nil {
		return errors.Wrap(err, "unable to create stream server")
	}

	if _, err := srv.Listen(); err != nil {
		return err
	}

	m.Server = srv

	if opts.APIListenAddress == "" {
		m.log.Info("admin API disabled")
		return nil
	}

	apiServer, err := api.Start(&api.Config{
		ListenAddress: opts.APIListenAddress,
		Version:       options.VERSION,
		MirrorID:      m.PersistentConfig.MirrorID,
		Registry:      srv.Registry(),
		Stats:         statsService,
	})
	if err != nil {
		return errors.Wrap(err, "unable to start API server")
	}

	m.API = apiServer

	m.log.Infof("admin API listening on %s", opts.APIListenAddress)

	return nil
}

func (m *Mirror) watchServiceShutdown() {
	<-m.ServiceShutdownCtx.Done()

	m.log.Debug("received shutdown request via ServiceShutdownCtx")

	ctx, cancel := context.WithTimeout(context.Background(), m.ShutdownTimeout)
	defer cancel()

	m.stopServices(ctx)

	m.log.Info("shutdown complete")

	m.MainShutdownFunc()
}

// stopServices tears down whatever startServices managed to bring up. Points
// are closed before the emitter drains so their close events go out.
func (m *Mirror) stopServices(ctx context.Context) {
	if m.Server != nil {
		if err := m.Server.Shutdown(ctx); err != nil {
			m.log.Errorf("unable to shut down stream server: %s", err)
		}
	}

	if m.API != nil {
		if err := m.API.Shutdown(ctx); err != nil {
			m.log.Errorf("unable to shut down API server: %s", err)
		}
	}

	if m.Emitter != nil {
		if err := m.Emitter.Close(ctx); err != nil {
			m.log.Errorf("unable to close events emitter: %s", err)
		}
	}

	if m.statsShutdownFunc != nil {
		m.statsShutdownFunc()

		if m.Stats != nil {
			select {
			case <-m.Stats.Done():
			case <-ctx.Done():
				m.log.Warning("timed out waiting for final stats flush")
			}
		}
	}

	prometheus.Stop()
}
