// Package tools contains test helpers shared between packages.
package tools

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -o fake_storage.go --fake-name FakeStorage github.com/nakabonne/tstorage.Storage

import (
	"bytes"
	"errors"
	"io"
	"sync"

	"github.com/batchcorp/mirror/packet"
)

var ErrFakeWrite = errors.New("fake write failure")

// FakeConn is an io.WriteCloser that records everything written to it. Set
// FailAfter to make writes start failing once that many writes succeeded.
type FakeConn struct {
	mtx sync.Mutex

	// FailAfter < 0 never fails
	FailAfter  int
	CloseErr   error
	buf        bytes.Buffer
	writes     int
	closeCalls int
}

func NewFakeConn() *FakeConn {
	return &FakeConn{FailAfter: -1}
}

func (f *FakeConn) Write(p []byte) (int, error) {
	f.mtx.Lock()
	defer f.mtx.Unlock()

	if f.closeCalls > 0 {
		return 0, io.ErrClosedPipe
	}

	if f.FailAfter >= 0 && f.writes >= f.FailAfter {
		return 0, ErrFakeWrite
	}

	f.writes++

	return f.buf.Write(p)
}

func (f *FakeConn) Close() error {
	f.mtx.Lock()
	defer f.mtx.Unlock()

	f.closeCalls++

	return f.CloseErr
}

func (f *FakeConn) WriteCount() int {
	f.mtx.Lock()
	defer f.mtx.Unlock()

	return f.writes
}

func (f *FakeConn) CloseCount() int {
	f.mtx.Lock()
	defer f.mtx.Unlock()

	return f.closeCalls
}

func (f *FakeConn) Bytes() []byte {
	f.mtx.Lock()
	defer f.mtx.Unlock()

	return append([]byte(nil), f.buf.Bytes()...)
}

// Received is a packet as a player would see it
type Received struct {
	Seq    uint32
	Packet *packet.Packet
}

// Packets decodes every envelope written so far
func (f *FakeConn) Packets() ([]Received, error) {
	r := bytes.NewReader(f.Bytes())

	out := make([]Received, 0)

	for {
		p, seq, err := packet.DecodeEnvelope(r)
		if err == io.EOF {
			return out, nil
		}

		if err != nil {
			return out, err
		}

		out = append(out, Received{Seq: seq, Packet: p})
	}
}

// Bodies returns the body of every packet written so far, in order
func (f *FakeConn) Bodies() ([][]byte, error) {
	received, err := f.Packets()
	if err != nil {
		return nil, err
	}

	bodies := make([][]byte, 0, len(received))

	for _, r := range received {
		bodies = append(bodies, r.Packet.Body)
	}

	return bodies, nil
}
