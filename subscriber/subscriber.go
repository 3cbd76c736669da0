// Package subscriber wraps a single player connection. A Channel owns its
// connection exclusively and numbers every packet it writes.
package subscriber

import (
	"io"

	"github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"
	"github.com/sirupsen/logrus"

	"github.com/batchcorp/mirror/packet"
)

// NotYetEndCount is the number of "not yet" end-of-transmission packets
// sent ahead of the terminal packet when a channel is closed mid-stream.
const NotYetEndCount = 3

var (
	ErrSendAfterEnd = errors.New("cannot send after end of transmission")
	ErrMissingConn  = errors.New("connection cannot be nil")
)

// Channel is not safe for concurrent use; the publishing point that owns it
// serializes all calls.
type Channel struct {
	ID     string
	Remote string

	conn  io.WriteCloser
	seq   uint32
	ended bool
	log   *logrus.Entry
}

// New wraps conn. remote is only used for logging and may be empty.
func New(conn io.WriteCloser, remote string) (*Channel, error) {
	if conn == nil {
		return nil, ErrMissingConn
	}

	id := uuid.NewV4().String()

	return &Channel{
		ID:     id,
		Remote: remote,
		conn:   conn,
		log: logrus.WithFields(logrus.Fields{
			"pkg":        "subscriber",
			"subscriber": id,
			"remote":     remote,
		}),
	}, nil
}

// Send encodes p with the channel's current sequence number and writes it.
// Once the terminal packet has gone out, every further Send fails with
// ErrSendAfterEnd.
func (c *Channel) Send(p *packet.Packet) error {
	if c.ended {
		return ErrSendAfterEnd
	}

	c.log.Debugf("sending %s with seq=%d", p, c.seq)

	data, err := packet.Encode(p, c.seq)
	if err != nil {
		return errors.Wrap(err, "unable to encode packet")
	}

	if p.IsTerminal() {
		c.ended = true
	}

	c.seq++

	if _, err := c.conn.Write(data); err != nil {
		return errors.Wrap(err, "unable to write packet")
	}

	return nil
}

// Close performs the end-of-transmission handshake if the stream has not
// already ended, then closes the connection. The connection is closed even
// if the handshake fails.
func (c *Channel) Close() (err error) {
	defer func() {
		if closeErr := c.conn.Close(); closeErr != nil && err == nil {
			err = errors.Wrap(closeErr, "unable to close connection")
		}
	}()

	if c.ended {
		return nil
	}

	for i := 0; i < NotYetEndCount; i++ {
		if err := c.Send(packet.NewNotYetEnd()); err != nil {
			return errors.Wrap(err, "unable to send end of transmission handshake")
		}
	}

	if err := c.Send(packet.NewTerminal()); err != nil {
		return errors.Wrap(err, "unable to send terminal packet")
	}

	return nil
}

// Seq returns the number of packets this channel has sent so far
func (c *Channel) Seq() uint32 {
	return c.seq
}

// Ended reports whether the terminal packet has been sent
func (c *Channel) Ended() bool {
	return c.ended
}

func (c *Channel) String() string {
	if c.Remote == "" {
		return "subscriber[" + c.ID + "]"
	}

	return "subscriber[" + c.ID + "@" + c.Remote + "]"
}
