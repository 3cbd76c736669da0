package server

import (
	"bytes"
	"io"
	"mime"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/batchcorp/mirror/events"
	"github.com/batchcorp/mirror/packet"
	"github.com/batchcorp/mirror/point"
	"github.com/batchcorp/mirror/printer"
	"github.com/batchcorp/mirror/prometheus"
	"github.com/batchcorp/mirror/stats"
	"github.com/batchcorp/mirror/subscriber"
	"github.com/batchcorp/mirror/util"
)

const (
	StatsPath = "/stats"

	// MaxSetupBodySize caps the push-setup body, which is read and discarded
	MaxSetupBodySize = 64 * 1024
)

var (
	ErrBadContentLength = errors.New("invalid Content-Length")
	ErrPublisherTimeout = errors.New("encoder stopped sending data")
)

// handleRequest dispatches req. It returns true when the connection should
// be read for another request.
func (s *Server) handleRequest(req *Request) bool {
	switch req.Method {
	case "GET":
		if req.Path == StatsPath {
			s.handleStats(req)
			return false
		}

		s.handleSubscriber(req)

		return false
	case "POST":
		if req.Path == StatsPath {
			s.reject(req, StatusBadRequest)
			return false
		}

		return s.handlePublisher(req)
	}

	s.requestLog(req).Errorf("unknown method '%s'", req.Method)
	s.closeConn(req)

	return false
}

func (s *Server) handlePublisher(req *Request) bool {
	llog := s.requestLog(req)

	switch mediaType(req.ContentType()) {
	case ContentTypePushSetup:
		if err := s.handlePushSetup(req); err != nil {
			llog.Errorf("push setup failed: %s", err)
			s.closeConn(req)

			return false
		}

		return true
	case ContentTypePushStart:
		s.handlePushStart(req)
		return false
	}

	llog.Errorf("bad request: unexpected content type '%s'", req.ContentType())
	s.closeConn(req)

	return false
}

// handlePushSetup consumes the setup body and acknowledges it. The encoder
// follows up with a push-start request on the same connection.
func (s *Server) handlePushSetup(req *Request) error {
	length := 0

	if cl := req.Header("Content-Length"); cl != "" {
		n, err := strconv.Atoi(cl)
		if err != nil || n < 0 || n > MaxSetupBodySize {
			return errors.Wrapf(ErrBadContentLength, "%q", cl)
		}

		length = n
	}

	if _, err := io.CopyN(io.Discard, req.Reader, int64(length)); err != nil {
		return errors.Wrap(err, "unable to read push setup body")
	}

	s.requestLog(req).Debugf("push setup received (%d byte body)", length)

	return writeResponse(req.Conn, StatusNoContent, pushSetupHeaders)
}

// handlePushStart owns the publisher connection for the lifetime of the
// publishing point it creates
func (s *Server) handlePushStart(req *Request) {
	llog := s.requestLog(req)
	remote := util.AddrFormat(req.Conn.RemoteAddr())

	p, ok := s.registry.Create(req.Path)
	if !ok {
		llog.Warn("publishing point already exists")
		s.reject(req, StatusNotFound)

		return
	}

	llog.Info("publishing point created")

	prometheus.IncrPromGauge(prometheus.MirrorPoints)

	s.emit(&events.Event{
		Type:   events.PointCreated,
		Path:   req.Path,
		Remote: remote,
	})

	defer func() {
		if !p.IsClosed() {
			p.Close()
		}

		s.registry.Release(p)

		prometheus.DecrPromGauge(prometheus.MirrorPoints)

		if s.Stats != nil {
			s.Stats.Forget(req.Path)
		}

		s.closeConn(req)

		llog.Info("publishing point removed")
	}()

	if err := s.receive(p, req); err != nil {
		llog.Errorf("publisher session ended: %s", err)
		prometheus.IncrPromCounter(prometheus.MirrorPublisherErrors, 1)
	}
}

// receive feeds packets from the encoder into p until p closes
func (s *Server) receive(p *point.PublishingPoint, req *Request) error {
	for !p.IsClosed() {
		if err := req.Conn.SetReadDeadline(time.Now().Add(s.ReadTimeout)); err != nil {
			return errors.Wrap(err, "unable to set read deadline")
		}

		pkt, err := packet.Decode(req.Reader)
		if err != nil {
			if p.IsClosed() {
				return nil
			}

			if err == io.EOF {
				s.requestLog(req).Info("encoder disconnected")
				return nil
			}

			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				return errors.Wrapf(ErrPublisherTimeout, "no data in %s", s.ReadTimeout)
			}

			return errors.Wrap(err, "unable to decode packet")
		}

		if err := p.Accept(pkt); err != nil {
			if err == point.ErrClosed {
				return nil
			}

			return errors.Wrap(err, "unable to accept packet")
		}
	}

	return nil
}

func (s *Server) handleSubscriber(req *Request) {
	llog := s.requestLog(req)
	remote := util.AddrFormat(req.Conn.RemoteAddr())

	p, ok := s.registry.Get(req.Path)
	if !ok {
		llog.Debug("no such publishing point")
		s.rejectSubscriber(req, StatusNotFound, "not found")

		return
	}

	if s.LocalOnly && !util.IsLocal(util.RemoteIP(req.Conn.RemoteAddr()), s.HostIPs) {
		llog.Infof("rejected download request from %s", remote)
		s.rejectSubscriber(req, StatusForbidden, "not local")

		return
	}

	if !p.IsReady() || p.IsClosed() {
		llog.Debug("publishing point is not ready")
		s.rejectSubscriber(req, StatusNotFound, "not ready")

		return
	}

	if err := writeResponse(req.Conn, StatusOK, subscriberHeaders); err != nil {
		llog.Errorf("unable to write response: %s", err)
		s.closeConn(req)

		return
	}

	// Nothing is read from a player past this point
	if err := req.Conn.SetReadDeadline(time.Time{}); err != nil {
		llog.Debugf("unable to clear read deadline: %s", err)
	}

	ch, err := subscriber.New(req.Conn, remote)
	if err != nil {
		llog.Errorf("unable to create subscriber: %s", err)
		s.closeConn(req)

		return
	}

	if err := p.Admit(ch); err != nil {
		llog.Errorf("unable to admit subscriber: %s", err)
		s.closeConn(req)

		return
	}

	llog.WithField("subscriber", ch.ID).Info("subscriber added")

	prometheus.IncrPromGauge(prometheus.MirrorSubscribers)

	if s.Stats != nil {
		s.Stats.Incr(stats.MetricSubscribers, req.Path, 1)
	}

	s.emit(&events.Event{
		Type:       events.SubscriberAdded,
		Path:       req.Path,
		Subscriber: ch.ID,
		Remote:     remote,
	})
}

func (s *Server) rejectSubscriber(req *Request, status, reason string) {
	s.reject(req, status)

	s.emit(&events.Event{
		Type:   events.SubscriberRejected,
		Path:   req.Path,
		Remote: util.AddrFormat(req.Conn.RemoteAddr()),
		Reason: reason,
	})
}

func (s *Server) handleStats(req *Request) {
	defer s.closeConn(req)

	infos := make([]*point.Info, 0)

	for _, p := range s.registry.List() {
		infos = append(infos, p.Info())
	}

	body := &bytes.Buffer{}
	printer.PrintPoints(body, infos)

	err := writeResponse(req.Conn, StatusOK, []header{
		{"Server", s.ServerName},
		{"Content-Type", "text/plain; charset=UTF-8"},
	})
	if err != nil {
		s.requestLog(req).Errorf("unable to write stats response: %s", err)
		return
	}

	if _, err := req.Conn.Write(body.Bytes()); err != nil {
		s.requestLog(req).Errorf("unable to write stats body: %s", err)
	}
}

// reject answers req with an empty response and closes the connection
func (s *Server) reject(req *Request, status string) {
	prometheus.IncrPromCounter(prometheus.MirrorRejectedRequests, 1)

	if err := writeResponse(req.Conn, status, nil); err != nil {
		s.requestLog(req).Debugf("unable to write '%s': %s", status, err)
	}

	s.closeConn(req)
}

func (s *Server) closeConn(req *Request) {
	if err := req.Conn.Close(); err != nil {
		s.requestLog(req).Debugf("error closing connection: %s", err)
	}
}

func (s *Server) requestLog(req *Request) *logrus.Entry {
	return s.log.WithFields(logrus.Fields{
		"remote": util.AddrFormat(req.Conn.RemoteAddr()),
		"method": req.Method,
		"path":   req.Path,
	})
}

func mediaType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}

	return mt
}
