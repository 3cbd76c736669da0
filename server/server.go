// Package server accepts encoder and player connections on the stream port
// and connects them to publishing points.
package server

import (
	"bufio"
	"context"
	"io"
	"net"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/batchcorp/mirror/events"
	"github.com/batchcorp/mirror/point"
	"github.com/batchcorp/mirror/stats"
	"github.com/batchcorp/mirror/util"
)

const (
	DefaultReadTimeout = 60 * time.Second
	DefaultServerName  = "mirror/0.0.1"

	acceptBackoff = 50 * time.Millisecond
)

var (
	ErrMissingListenAddress = errors.New("ListenAddress cannot be empty")
	ErrMissingShutdownCtx   = errors.New("ServiceShutdownCtx cannot be nil")
	ErrInvalidReadTimeout   = errors.New("ReadTimeout cannot be negative")
	ErrNotListening         = errors.New("Listen must be called before Serve")
)

type Config struct {
	ListenAddress string
	LocalOnly     bool
	ReadTimeout   time.Duration
	ServerName    string

	// HostIPs are treated as local in addition to loopback addresses. When
	// nil and LocalOnly is set they are looked up from the host's interfaces.
	HostIPs []net.IP

	// Stats and Emitter are optional
	Stats   stats.IStats
	Emitter events.IEmitter

	ServiceShutdownCtx context.Context
}

type Server struct {
	*Config

	registry *point.Registry
	listener net.Listener

	conns    map[net.Conn]struct{}
	closing  bool
	connsMtx *sync.Mutex
	wg       *sync.WaitGroup

	log *logrus.Entry
}

func New(cfg *Config) (*Server, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, errors.Wrap(err, "unable to validate config")
	}

	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}

	if cfg.ServerName == "" {
		cfg.ServerName = DefaultServerName
	}

	if cfg.LocalOnly && cfg.HostIPs == nil {
		ips, err := util.HostIPs()
		if err != nil {
			return nil, errors.Wrap(err, "unable to determine local addresses")
		}

		cfg.HostIPs = ips
	}

	s := &Server{
		Config:   cfg,
		conns:    make(map[net.Conn]struct{}),
		connsMtx: &sync.Mutex{},
		wg:       &sync.WaitGroup{},
		log:      logrus.WithField("pkg", "server"),
	}

	s.registry = point.NewRegistry(s.pointHooks())

	return s, nil
}

func validateConfig(cfg *Config) error {
	if cfg == nil {
		return errors.New("config cannot be nil")
	}

	if cfg.ListenAddress == "" {
		return ErrMissingListenAddress
	}

	if cfg.ServiceShutdownCtx == nil {
		return ErrMissingShutdownCtx
	}

	if cfg.ReadTimeout < 0 {
		return ErrInvalidReadTimeout
	}

	return nil
}

// Registry exposes the server's publishing points to the admin API
func (s *Server) Registry() *point.Registry {
	return s.registry
}

// Listen binds the stream port and returns the bound address
func (s *Server) Listen() (net.Addr, error) {
	ln, err := net.Listen("tcp", s.ListenAddress)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to listen on '%s'", s.ListenAddress)
	}

	s.connsMtx.Lock()
	s.listener = ln
	s.connsMtx.Unlock()

	return ln.Addr(), nil
}

// ListenAndServe binds the stream port and accepts connections until
// ServiceShutdownCtx is cancelled
func (s *Server) ListenAndServe() error {
	if _, err := s.Listen(); err != nil {
		return err
	}

	return s.Serve()
}

// Serve runs the accept loop; every connection is handled on its own
// goroutine. It returns nil once ServiceShutdownCtx is cancelled.
func (s *Server) Serve() error {
	s.connsMtx.Lock()
	ln := s.listener
	s.connsMtx.Unlock()

	if ln == nil {
		return ErrNotListening
	}

	go func() {
		<-s.ServiceShutdownCtx.Done()
		s.log.Debug("shutdown signal received, closing listener")

		if err := ln.Close(); err != nil {
			s.log.Debugf("error closing listener: %s", err)
		}
	}()

	s.log.Infof("stream server listening on %s", ln.Addr())

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-s.ServiceShutdownCtx.Done():
				s.log.Debug("accept loop exiting")
				return nil
			default:
			}

			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				s.log.Warningf("temporary accept error: %s", err)
				time.Sleep(acceptBackoff)

				continue
			}

			return errors.Wrap(err, "unable to accept connection")
		}

		if !s.track(conn) {
			conn.Close()
			continue
		}

		go s.handleConn(conn)
	}
}

// Shutdown stops accepting connections, closes every publishing point and
// then every connection still being handled. It waits for connection
// handlers to exit until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	s.connsMtx.Lock()
	s.closing = true

	if s.listener != nil {
		s.listener.Close()
	}

	s.connsMtx.Unlock()

	s.registry.CloseAll()

	s.connsMtx.Lock()

	for conn := range s.conns {
		conn.Close()
	}

	s.connsMtx.Unlock()

	done := make(chan struct{})

	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.log.Debug("all connections closed")
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "timed out waiting for connections to close")
	}
}

func (s *Server) track(conn net.Conn) bool {
	s.connsMtx.Lock()
	defer s.connsMtx.Unlock()

	if s.closing {
		return false
	}

	s.conns[conn] = struct{}{}
	s.wg.Add(1)

	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.connsMtx.Lock()
	delete(s.conns, conn)
	s.connsMtx.Unlock()

	s.wg.Done()
}

// handleConn parses requests off conn until a handler takes over or closes
// the connection
func (s *Server) handleConn(conn net.Conn) {
	defer s.untrack(conn)

	llog := s.log.WithField("remote", util.AddrFormat(conn.RemoteAddr()))
	llog.Debug("connection accepted")

	r := bufio.NewReader(conn)

	for {
		if err := conn.SetReadDeadline(time.Now().Add(s.ReadTimeout)); err != nil {
			llog.Errorf("unable to set read deadline: %s", err)
			conn.Close()

			return
		}

		req, err := ParseRequest(r, conn)
		if err != nil {
			if errors.Cause(err) == io.EOF {
				llog.Debug("connection closed by peer")
			} else {
				llog.Errorf("unable to parse request: %s", err)
			}

			conn.Close()

			return
		}

		llog.Debugf("received request '%s'", req)

		if !s.handleRequest(req) {
			return
		}
	}
}

func (s *Server) emit(ev *events.Event) {
	if s.Emitter == nil {
		return
	}

	s.Emitter.Emit(ev)
}
