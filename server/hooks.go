package server

import (
	"github.com/batchcorp/mirror/events"
	"github.com/batchcorp/mirror/packet"
	"github.com/batchcorp/mirror/point"
	"github.com/batchcorp/mirror/prometheus"
	"github.com/batchcorp/mirror/stats"
	"github.com/batchcorp/mirror/subscriber"
)

// pointHooks feeds point activity into metrics, stats and events. The hooks
// run under the point's lock; none of them call back into the point.
func (s *Server) pointHooks() *point.Hooks {
	return &point.Hooks{
		OnAccept: s.onAccept,
		OnDrop:   s.onDrop,
		OnClose:  s.onClose,
	}
}

func (s *Server) onAccept(path string, pkt *packet.Packet) {
	size := float64(pkt.Size())

	prometheus.IncrPromCounter(prometheus.MirrorPacketsTotal, 1)
	prometheus.IncrPromCounter(prometheus.MirrorBytesTotal, size)
	prometheus.IncrVecCounter("stream", "packets", pkt.Kind.String())

	prometheus.Incr("packets-received", 1)
	prometheus.Incr("bytes-received", size)

	if s.Stats != nil {
		s.Stats.Incr(stats.MetricPackets, path, 1)
		s.Stats.Incr(stats.MetricBytes, path, size)
	}
}

func (s *Server) onDrop(path string, sub point.Subscriber, err error) {
	prometheus.DecrPromGauge(prometheus.MirrorSubscribers)
	prometheus.IncrPromCounter(prometheus.MirrorSubscriberDrops, 1)

	if s.Stats != nil {
		s.Stats.Incr(stats.MetricSubscribers, path, -1)
	}

	ev := &events.Event{
		Type: events.SubscriberDropped,
		Path: path,
	}

	if err != nil {
		ev.Reason = err.Error()
	}

	if ch, ok := sub.(*subscriber.Channel); ok {
		ev.Subscriber = ch.ID
		ev.Remote = ch.Remote
	}

	s.emit(ev)
}

func (s *Server) onClose(path string, subscribers int) {
	prometheus.SubPromGauge(prometheus.MirrorSubscribers, float64(subscribers))

	if s.Stats != nil {
		s.Stats.Set(stats.MetricSubscribers, path, 0)
	}

	s.emit(&events.Event{
		Type: events.PointClosed,
		Path: path,
	})
}
