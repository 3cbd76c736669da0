package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/ssh/terminal"

	"github.com/batchcorp/mirror/config"
	"github.com/batchcorp/mirror/mirror"
	"github.com/batchcorp/mirror/options"
	"github.com/batchcorp/mirror/printer"
)

func main() {
	kongCtx, opts, err := options.New(os.Args[1:])
	if err != nil {
		logrus.Fatalf("Unable to handle CLI input: %s", err)
	}

	logFile, err := configureLogger(opts)
	if err != nil {
		logrus.Fatalf("Unable to configure logging: %s", err)
	}

	if logFile != nil {
		defer logFile.Close()
	}

	persistentConfig, err := config.New(opts.ConfigDir)
	if err != nil {
		logrus.Fatalf("Unable to load config: %s", err)
	}

	serviceCtx, serviceShutdownFunc := context.WithCancel(context.Background())
	mainCtx, mainShutdownFunc := context.WithCancel(context.Background())

	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)

		sig := <-c

		logrus.Debugf("received signal '%s', shutting down", sig)

		serviceShutdownFunc()
	}()

	if !opts.Quiet {
		printer.PrintLogo()
		printer.PrintServerOptions(opts)
	}

	m, err := mirror.New(&mirror.Config{
		PersistentConfig:   persistentConfig,
		ServiceShutdownCtx: serviceCtx,
		MainShutdownFunc:   mainShutdownFunc,
		Options:            opts,
		KongCtx:            kongCtx,
	})
	if err != nil {
		logrus.Fatalf("Unable to initialize mirror: %s", err)
	}

	if err := m.Run(); err != nil {
		logrus.Fatalf("Unable to run mirror: %s", err)
	}

	// Wait for the shutdown sequence to finish
	<-mainCtx.Done()
}

// configureLogger applies level, output and formatter options. The returned
// file (if any) must be closed by the caller.
func configureLogger(opts *options.Options) (*os.File, error) {
	level, err := logrus.ParseLevel(opts.LogLevel)
	if err != nil {
		return nil, err
	}

	if opts.Quiet && level > logrus.WarnLevel {
		level = logrus.WarnLevel
	}

	logrus.SetLevel(level)

	if opts.LogFile != "" {
		f, err := os.OpenFile(opts.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, err
		}

		logrus.SetOutput(f)
		logrus.SetFormatter(&logrus.JSONFormatter{})

		return f, nil
	}

	// JSON formatter for log output if not running in a TTY - colors are fun!
	if !terminal.IsTerminal(int(os.Stderr.Fd())) {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}

	return nil, nil
}
