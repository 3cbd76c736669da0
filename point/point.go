// Package point implements publishing points: the per-path hub that takes
// packets from a single publisher and fans them out to every subscriber.
//
// Every exported method of PublishingPoint and Registry takes the owning
// object's mutex for its whole duration. Subscriber writes therefore happen
// inside the publisher's call to Accept; a slow subscriber delays delivery
// to the others on the same point but never to other points.
package point

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/batchcorp/mirror/packet"
)

var (
	ErrNotReady = errors.New("publishing point is not ready")
	ErrNoHeader = errors.New("failed to receive initial header packet")
	ErrClosed   = errors.New("publishing point is closed")

	ErrNilSubscriber = errors.New("subscriber cannot be nil")
	ErrNilPacket     = errors.New("packet cannot be nil")
)

// Subscriber is the sending side of a subscriber connection.
// *subscriber.Channel implements it.
type Subscriber interface {
	Send(p *packet.Packet) error
	Close() error
}

// Hooks are optional callbacks fired while the point's lock is held. They
// must not call back into the point.
type Hooks struct {
	// OnAccept fires for every packet accepted from the publisher
	OnAccept func(path string, p *packet.Packet)

	// OnDrop fires when a subscriber is removed because a send failed
	OnDrop func(path string, s Subscriber, err error)

	// OnClose fires once, when the point transitions to closed, with the
	// number of subscribers that were still live
	OnClose func(path string, subscribers int)
}

type PublishingPoint struct {
	path        string
	header      *packet.Packet
	subscribers []Subscriber
	closed      bool

	createdAt time.Time
	packets   uint64
	bytes     uint64
	dropped   uint64

	hooks *Hooks
	mtx   *sync.Mutex
	log   *logrus.Entry
}

// Info is a point-in-time snapshot of a publishing point
type Info struct {
	Path        string    `json:"path"`
	Ready       bool      `json:"ready"`
	Closed      bool      `json:"closed"`
	Subscribers int       `json:"subscribers"`
	Packets     uint64    `json:"packets"`
	Bytes       uint64    `json:"bytes"`
	Dropped     uint64    `json:"dropped"`
	HeaderSize  int       `json:"header_size"`
	CreatedAt   time.Time `json:"created_at"`
}

// New creates a not-ready publishing point. hooks may be nil.
func New(path string, hooks *Hooks) *PublishingPoint {
	if hooks == nil {
		hooks = &Hooks{}
	}

	return &PublishingPoint{
		path:        path,
		subscribers: make([]Subscriber, 0),
		createdAt:   time.Now().UTC(),
		hooks:       hooks,
		mtx:         &sync.Mutex{},
		log: logrus.WithFields(logrus.Fields{
			"pkg":  "point",
			"path": path,
		}),
	}
}

func (p *PublishingPoint) Path() string {
	return p.path
}

// Admit sends the cached header to s and adds it to the live set. The
// header is always the first packet a new subscriber receives.
func (p *PublishingPoint) Admit(s Subscriber) error {
	if s == nil {
		return ErrNilSubscriber
	}

	p.mtx.Lock()
	defer p.mtx.Unlock()

	if p.closed {
		return ErrClosed
	}

	if p.header == nil {
		return ErrNotReady
	}

	if err := s.Send(p.header); err != nil {
		return errors.Wrap(err, "unable to send header to new subscriber")
	}

	p.subscribers = append(p.subscribers, s)

	p.log.Debugf("subscriber admitted (%d live)", len(p.subscribers))

	return nil
}

// Accept takes the next packet from the publisher. Header packets replace
// the cached header and are not forwarded; existing subscribers keep the
// header they were admitted with. Any other packet is fanned out to every
// live subscriber; a subscriber whose send fails is dropped without
// affecting the others or the caller. A terminal packet closes the point
// after it has been delivered. A packet too large for the outbound envelope
// is returned to the caller as packet.ErrBodyTooLarge and changes nothing.
func (p *PublishingPoint) Accept(pkt *packet.Packet) error {
	if pkt == nil {
		return ErrNilPacket
	}

	p.mtx.Lock()
	defer p.mtx.Unlock()

	if p.closed {
		return ErrClosed
	}

	// Oversized bodies cannot be re-framed for subscribers
	if pkt.Size() > packet.MaxBodySize {
		return errors.Wrapf(packet.ErrBodyTooLarge, "%s packet with %d bytes", pkt.Kind, pkt.Size())
	}

	if pkt.Kind == packet.Header {
		if p.header != nil {
			p.log.Info("header overwritten")
		}

		p.header = pkt
		p.count(pkt)

		return nil
	}

	if p.header == nil {
		return ErrNoHeader
	}

	p.fanout(pkt)
	p.count(pkt)

	if pkt.IsTerminal() {
		p.log.Info("terminal packet received, closing")
		p.close()
	}

	return nil
}

// fanout must be called with the lock held. Failed subscribers are
// collected during delivery and removed afterwards.
func (p *PublishingPoint) fanout(pkt *packet.Packet) {
	var failed map[int]error

	for i, s := range p.subscribers {
		if err := s.Send(pkt); err != nil {
			if failed == nil {
				failed = make(map[int]error)
			}

			failed[i] = err
		}
	}

	if len(failed) == 0 {
		return
	}

	live := make([]Subscriber, 0, len(p.subscribers)-len(failed))

	for i, s := range p.subscribers {
		err, ok := failed[i]
		if !ok {
			live = append(live, s)
			continue
		}

		p.log.Infof("subscriber disconnected %v: %s", s, err)

		p.dropped++

		if p.hooks.OnDrop != nil {
			p.hooks.OnDrop(p.path, s, err)
		}

		if closeErr := s.Close(); closeErr != nil {
			p.log.Debugf("error closing dropped subscriber %v: %s", s, closeErr)
		}
	}

	p.subscribers = live
}

func (p *PublishingPoint) count(pkt *packet.Packet) {
	p.packets++
	p.bytes += uint64(pkt.Size())

	if p.hooks.OnAccept != nil {
		p.hooks.OnAccept(p.path, pkt)
	}
}

// Close closes every live subscriber and marks the point closed. Errors
// from individual subscribers are logged and do not stop the rest from
// being closed. Calling Close more than once is harmless.
func (p *PublishingPoint) Close() {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	p.close()
}

func (p *PublishingPoint) close() {
	live := len(p.subscribers)

	for _, s := range p.subscribers {
		if err := s.Close(); err != nil {
			p.log.Errorf("an error occurred while closing %v: %s", s, err)
		}
	}

	p.subscribers = make([]Subscriber, 0)

	if p.closed {
		return
	}

	p.closed = true

	if p.hooks.OnClose != nil {
		p.hooks.OnClose(p.path, live)
	}
}

// IsReady reports whether a header has been cached
func (p *PublishingPoint) IsReady() bool {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	return p.header != nil
}

func (p *PublishingPoint) IsClosed() bool {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	return p.closed
}

func (p *PublishingPoint) Info() *Info {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	info := &Info{
		Path:        p.path,
		Ready:       p.header != nil,
		Closed:      p.closed,
		Subscribers: len(p.subscribers),
		Packets:     p.packets,
		Bytes:       p.bytes,
		Dropped:     p.dropped,
		CreatedAt:   p.createdAt,
	}

	if p.header != nil {
		info.HeaderSize = p.header.Size()
	}

	return info
}

func (p *PublishingPoint) String() string {
	return "publishing point " + p.path
}
