// Package packet implements the framed ASF packet envelope used between
// encoders, the mirror and players.
//
// Inbound (from an encoder) a packet is: 2-byte marker, 2-byte little-endian
// body length, body. Outbound (to a player) the body is wrapped in a longer
// envelope that carries a per-recipient sequence number, which is why
// encoding is not a pure function of the packet.
package packet

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pkg/errors"
)

// Kind identifies a packet by its 2-byte marker
type Kind int

const (
	Clear Kind = iota + 1
	Data
	EndOfTransmission
	Header
)

const (
	// MaxBodySize is the largest body that still fits the outbound
	// envelope's 16-bit length field (length + 8).
	MaxBodySize = 0xffff - 8

	inboundPrefixLen  = 4
	outboundPrefixLen = 12
)

var (
	ErrUnknownMarker = errors.New("unknown packet marker")
	ErrShortPacket   = errors.New("short packet")
	ErrBodyTooLarge  = errors.New("packet body too large for outbound envelope")

	terminalBody = []byte{0x00, 0x00, 0x00, 0x00}
	notYetBody   = []byte{0x01, 0x00, 0x00, 0x00}

	markers = map[Kind][2]byte{
		Clear:             {0x24, 0x43},
		Data:              {0x24, 0x44},
		EndOfTransmission: {0x24, 0x45},
		Header:            {0x24, 0x48},
	}

	kinds = map[[2]byte]Kind{
		{0x24, 0x43}: Clear,
		{0x24, 0x44}: Data,
		{0x24, 0x45}: EndOfTransmission,
		{0x24, 0x48}: Header,
	}
)

func (k Kind) String() string {
	switch k {
	case Clear:
		return "clear"
	case Data:
		return "data"
	case EndOfTransmission:
		return "end_trans"
	case Header:
		return "header"
	}

	return fmt.Sprintf("unknown(%d)", int(k))
}

// Marker returns the wire marker for the kind. ok is false for values
// outside the enumeration.
func (k Kind) Marker() (marker [2]byte, ok bool) {
	marker, ok = markers[k]
	return
}

// KindFromMarker maps a wire marker back to its Kind
func KindFromMarker(marker [2]byte) (Kind, bool) {
	k, ok := kinds[marker]
	return k, ok
}

// Packet is immutable once constructed; callers must not modify Body.
type Packet struct {
	Kind Kind
	Body []byte
}

func New(kind Kind, body []byte) *Packet {
	return &Packet{
		Kind: kind,
		Body: body,
	}
}

// NewTerminal returns the EndOfTransmission packet that marks the true end
// of a stream.
func NewTerminal() *Packet {
	return New(EndOfTransmission, append([]byte(nil), terminalBody...))
}

// NewNotYetEnd returns the EndOfTransmission packet that precedes the
// terminal packet during a shutdown handshake.
func NewNotYetEnd() *Packet {
	return New(EndOfTransmission, append([]byte(nil), notYetBody...))
}

// IsTerminal reports whether p is an EndOfTransmission packet carrying the
// all-zero 4-byte body.
func (p *Packet) IsTerminal() bool {
	return p != nil && p.Kind == EndOfTransmission && bytes.Equal(p.Body, terminalBody)
}

// Size is the body length in bytes
func (p *Packet) Size() int {
	return len(p.Body)
}

func (p *Packet) String() string {
	if p == nil {
		return "<nil packet>"
	}

	if len(p.Body) < 10 {
		return fmt.Sprintf("packet{type=%s, size=%d, body=%q}", p.Kind, len(p.Body), p.Body)
	}

	return fmt.Sprintf("packet{type=%s, size=%d}", p.Kind, len(p.Body))
}

// Decode reads exactly one inbound packet from r. Errors hit before the
// first byte of a packet (io.EOF on a clean end of stream, read deadlines)
// are returned as-is; any other short read is a framing error.
func Decode(r io.Reader) (*Packet, error) {
	var prefix [inboundPrefixLen]byte

	if n, err := io.ReadFull(r, prefix[:]); err != nil {
		if n == 0 {
			return nil, err
		}

		return nil, errors.Wrap(ErrShortPacket, err.Error())
	}

	kind, ok := KindFromMarker([2]byte{prefix[0], prefix[1]})
	if !ok {
		return nil, errors.Wrapf(ErrUnknownMarker, "marker %#x", prefix[:2])
	}

	size := binary.LittleEndian.Uint16(prefix[2:4])
	body := make([]byte, size)

	if _, err := io.ReadFull(r, body); err != nil {
		return nil, errors.Wrapf(ErrShortPacket, "expected %d body bytes: %s", size, err)
	}

	return New(kind, body), nil
}

// Encode produces the outbound envelope for p addressed with sequence
// number seq.
func Encode(p *Packet, seq uint32) ([]byte, error) {
	if p == nil {
		return nil, errors.New("packet cannot be nil")
	}

	marker, ok := p.Kind.Marker()
	if !ok {
		return nil, errors.Wrapf(ErrUnknownMarker, "kind %s", p.Kind)
	}

	if len(p.Body) > MaxBodySize {
		return nil, errors.Wrapf(ErrBodyTooLarge, "%d bytes", len(p.Body))
	}

	size := uint16(len(p.Body) + 8)

	buf := make([]byte, outboundPrefixLen+len(p.Body))

	copy(buf[0:2], marker[:])
	binary.LittleEndian.PutUint16(buf[2:4], size)
	binary.LittleEndian.PutUint32(buf[4:8], seq)

	if p.Kind == Header {
		buf[8], buf[9] = 0x00, 0x0c
	}

	binary.LittleEndian.PutUint16(buf[10:12], size)
	copy(buf[12:], p.Body)

	return buf, nil
}

// Encode is a convenience wrapper around Encode(p, seq)
func (p *Packet) Encode(seq uint32) ([]byte, error) {
	return Encode(p, seq)
}

// DecodeEnvelope reads one outbound envelope (as produced by Encode) and
// returns the packet along with the sequence number it was addressed with.
func DecodeEnvelope(r io.Reader) (*Packet, uint32, error) {
	var prefix [outboundPrefixLen]byte

	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		if err == io.EOF {
			return nil, 0, io.EOF
		}

		return nil, 0, errors.Wrap(ErrShortPacket, err.Error())
	}

	kind, ok := KindFromMarker([2]byte{prefix[0], prefix[1]})
	if !ok {
		return nil, 0, errors.Wrapf(ErrUnknownMarker, "marker %#x", prefix[:2])
	}

	size := binary.LittleEndian.Uint16(prefix[2:4])
	seq := binary.LittleEndian.Uint32(prefix[4:8])

	if repeated := binary.LittleEndian.Uint16(prefix[10:12]); repeated != size {
		return nil, 0, fmt.Errorf("envelope length mismatch: %d != %d", size, repeated)
	}

	if size < 8 {
		return nil, 0, fmt.Errorf("envelope length %d shorter than envelope header", size)
	}

	body := make([]byte, size-8)

	if _, err := io.ReadFull(r, body); err != nil {
		return nil, 0, errors.Wrapf(ErrShortPacket, "expected %d body bytes: %s", len(body), err)
	}

	return New(kind, body), seq, nil
}

// EncodeInbound produces the encoder-side framing of p (marker, length,
// body). The mirror itself never sends this; it exists for test encoders
// and tooling that replays captured streams.
func EncodeInbound(p *Packet) ([]byte, error) {
	marker, ok := p.Kind.Marker()
	if !ok {
		return nil, errors.Wrapf(ErrUnknownMarker, "kind %s", p.Kind)
	}

	if len(p.Body) > 0xffff {
		return nil, errors.Wrapf(ErrBodyTooLarge, "%d bytes", len(p.Body))
	}

	buf := make([]byte, inboundPrefixLen+len(p.Body))

	copy(buf[0:2], marker[:])
	binary.LittleEndian.PutUint16(buf[2:4], uint16(len(p.Body)))
	copy(buf[4:], p.Body)

	return buf, nil
}
