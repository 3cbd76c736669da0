package point

import (
	"fmt"
	"sync"

	pkgerrors "github.com/pkg/errors"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/batchcorp/mirror/packet"
	"github.com/batchcorp/mirror/subscriber"
	"github.com/batchcorp/mirror/tools"
)

func newSubscriber() (*subscriber.Channel, *tools.FakeConn) {
	conn := tools.NewFakeConn()

	ch, err := subscriber.New(conn, "")
	Expect(err).ToNot(HaveOccurred())

	return ch, conn
}

func bodies(conn *tools.FakeConn) []string {
	raw, err := conn.Bodies()
	Expect(err).ToNot(HaveOccurred())

	out := make([]string, 0, len(raw))

	for _, b := range raw {
		out = append(out, string(b))
	}

	return out
}

var (
	terminal = string([]byte{0, 0, 0, 0})
	notYet   = string([]byte{1, 0, 0, 0})
)

var _ = Describe("PublishingPoint", func() {
	var p *PublishingPoint

	BeforeEach(func() {
		p = New("/live", nil)
	})

	Context("New", func() {
		It("starts not ready and open", func() {
			Expect(p.Path()).To(Equal("/live"))
			Expect(p.IsReady()).To(BeFalse())
			Expect(p.IsClosed()).To(BeFalse())
			Expect(p.Info().Subscribers).To(Equal(0))
		})
	})

	Context("Admit", func() {
		It("rejects subscribers before a header arrives", func() {
			s, conn := newSubscriber()

			Expect(p.Admit(s)).To(Equal(ErrNotReady))
			Expect(conn.WriteCount()).To(Equal(0))
			Expect(p.Info().Subscribers).To(Equal(0))
		})

		It("rejects nil subscribers", func() {
			Expect(p.Admit(nil)).To(Equal(ErrNilSubscriber))
		})

		It("rejects subscribers once closed", func() {
			Expect(p.Accept(packet.New(packet.Header, []byte("H")))).To(Succeed())
			p.Close()

			s, conn := newSubscriber()

			Expect(p.Admit(s)).To(Equal(ErrClosed))
			Expect(conn.WriteCount()).To(Equal(0))
		})

		It("sends the header to late joiners without replaying data", func() {
			Expect(p.Accept(packet.New(packet.Header, []byte("H")))).To(Succeed())
			Expect(p.Accept(packet.New(packet.Data, []byte("D1")))).To(Succeed())

			s, conn := newSubscriber()
			Expect(p.Admit(s)).To(Succeed())

			Expect(p.Accept(packet.New(packet.Data, []byte("D2")))).To(Succeed())

			Expect(bodies(conn)).To(Equal([]string{"H", "D2"}))

			received, err := conn.Packets()
			Expect(err).ToNot(HaveOccurred())
			Expect(received[0].Packet.Kind).To(Equal(packet.Header))
			Expect(received[0].Seq).To(Equal(uint32(0)))
			Expect(received[1].Seq).To(Equal(uint32(1)))
		})

		It("does not add a subscriber whose header send fails", func() {
			Expect(p.Accept(packet.New(packet.Header, []byte("H")))).To(Succeed())

			s, conn := newSubscriber()
			conn.FailAfter = 0

			err := p.Admit(s)
			Expect(err).To(HaveOccurred())
			Expect(p.Info().Subscribers).To(Equal(0))
		})
	})

	Context("Accept", func() {
		It("rejects data before a header", func() {
			err := p.Accept(packet.New(packet.Data, []byte("D1")))
			Expect(err).To(Equal(ErrNoHeader))
			Expect(p.IsReady()).To(BeFalse())
			Expect(p.IsClosed()).To(BeFalse())
		})

		It("rejects nil packets", func() {
			Expect(p.Accept(nil)).To(Equal(ErrNilPacket))
		})

		It("delivers packets to every subscriber in order and closes on terminal", func() {
			Expect(p.Accept(packet.New(packet.Header, []byte("H")))).To(Succeed())

			s1, conn1 := newSubscriber()
			s2, conn2 := newSubscriber()

			Expect(p.Admit(s1)).To(Succeed())
			Expect(p.Admit(s2)).To(Succeed())

			Expect(p.Accept(packet.New(packet.Data, []byte("D1")))).To(Succeed())
			Expect(p.Accept(packet.NewTerminal())).To(Succeed())

			expected := []string{"H", "D1", terminal}

			Expect(bodies(conn1)).To(Equal(expected))
			Expect(bodies(conn2)).To(Equal(expected))

			Expect(p.IsClosed()).To(BeTrue())
			Expect(s1.Ended()).To(BeTrue())
			Expect(conn1.CloseCount()).To(Equal(1))
			Expect(conn2.CloseCount()).To(Equal(1))
			Expect(p.Info().Subscribers).To(Equal(0))
		})

		It("forwards non-terminal end of transmission packets without closing", func() {
			Expect(p.Accept(packet.New(packet.Header, []byte("H")))).To(Succeed())

			s, conn := newSubscriber()
			Expect(p.Admit(s)).To(Succeed())

			Expect(p.Accept(packet.NewNotYetEnd())).To(Succeed())

			Expect(p.IsClosed()).To(BeFalse())
			Expect(bodies(conn)).To(Equal([]string{"H", notYet}))
		})

		It("replaces the header without forwarding it", func() {
			Expect(p.Accept(packet.New(packet.Header, []byte("H1")))).To(Succeed())

			s1, conn1 := newSubscriber()
			Expect(p.Admit(s1)).To(Succeed())

			Expect(p.Accept(packet.New(packet.Header, []byte("H2")))).To(Succeed())

			s2, conn2 := newSubscriber()
			Expect(p.Admit(s2)).To(Succeed())

			Expect(bodies(conn1)).To(Equal([]string{"H1"}))
			Expect(bodies(conn2)).To(Equal([]string{"H2"}))
			Expect(p.Info().HeaderSize).To(Equal(2))
		})

		It("returns oversized data packets to the publisher and keeps subscribers", func() {
			Expect(p.Accept(packet.New(packet.Header, []byte("H")))).To(Succeed())

			s1, conn1 := newSubscriber()
			s2, conn2 := newSubscriber()

			Expect(p.Admit(s1)).To(Succeed())
			Expect(p.Admit(s2)).To(Succeed())

			err := p.Accept(packet.New(packet.Data, make([]byte, 0xffff)))
			Expect(err).To(HaveOccurred())
			Expect(pkgerrors.Cause(err)).To(Equal(packet.ErrBodyTooLarge))

			Expect(p.Info().Subscribers).To(Equal(2))
			Expect(p.IsClosed()).To(BeFalse())
			Expect(conn1.CloseCount()).To(Equal(0))
			Expect(bodies(conn1)).To(Equal([]string{"H"}))
			Expect(bodies(conn2)).To(Equal([]string{"H"}))

			Expect(p.Accept(packet.New(packet.Data, make([]byte, packet.MaxBodySize)))).To(Succeed())
			Expect(bodies(conn1)).To(HaveLen(2))
		})

		It("does not cache an oversized header", func() {
			err := p.Accept(packet.New(packet.Header, make([]byte, packet.MaxBodySize+1)))
			Expect(err).To(HaveOccurred())
			Expect(pkgerrors.Cause(err)).To(Equal(packet.ErrBodyTooLarge))
			Expect(p.IsReady()).To(BeFalse())

			Expect(p.Accept(packet.New(packet.Header, []byte("H")))).To(Succeed())

			err = p.Accept(packet.New(packet.Header, make([]byte, 0xffff)))
			Expect(pkgerrors.Cause(err)).To(Equal(packet.ErrBodyTooLarge))

			s1, conn1 := newSubscriber()
			Expect(p.Admit(s1)).To(Succeed())
			Expect(bodies(conn1)).To(Equal([]string{"H"}))
		})

		It("drops a failing subscriber without affecting the others", func() {
			var dropped []Subscriber

			p = New("/live", &Hooks{
				OnDrop: func(path string, s Subscriber, err error) {
					Expect(path).To(Equal("/live"))
					Expect(err).To(HaveOccurred())
					dropped = append(dropped, s)
				},
			})

			Expect(p.Accept(packet.New(packet.Header, []byte("H")))).To(Succeed())

			s1, conn1 := newSubscriber()
			s2, conn2 := newSubscriber()

			// header goes through, everything after it fails
			conn1.FailAfter = 1

			Expect(p.Admit(s1)).To(Succeed())
			Expect(p.Admit(s2)).To(Succeed())

			Expect(p.Accept(packet.New(packet.Data, []byte("D1")))).To(Succeed())
			Expect(p.Accept(packet.New(packet.Data, []byte("D2")))).To(Succeed())

			Expect(dropped).To(HaveLen(1))
			Expect(dropped[0]).To(BeIdenticalTo(s1))
			Expect(conn1.CloseCount()).To(Equal(1))

			Expect(bodies(conn1)).To(Equal([]string{"H"}))
			Expect(bodies(conn2)).To(Equal([]string{"H", "D1", "D2"}))

			info := p.Info()
			Expect(info.Subscribers).To(Equal(1))
			Expect(info.Dropped).To(Equal(uint64(1)))
		})

		It("rejects packets once closed", func() {
			Expect(p.Accept(packet.New(packet.Header, []byte("H")))).To(Succeed())
			Expect(p.Accept(packet.NewTerminal())).To(Succeed())

			Expect(p.Accept(packet.New(packet.Data, []byte("late")))).To(Equal(ErrClosed))
		})

		It("counts accepted packets", func() {
			accepted := 0

			p = New("/live", &Hooks{
				OnAccept: func(_ string, _ *packet.Packet) { accepted++ },
			})

			Expect(p.Accept(packet.New(packet.Header, []byte("HH")))).To(Succeed())
			Expect(p.Accept(packet.New(packet.Data, []byte("DDD")))).To(Succeed())
			Expect(p.Accept(packet.New(packet.Data, []byte("rejected")))).To(Succeed())

			info := p.Info()
			Expect(info.Packets).To(Equal(uint64(3)))
			Expect(info.Bytes).To(Equal(uint64(13)))
			Expect(accepted).To(Equal(3))
		})
	})

	Context("Close", func() {
		It("performs the end of transmission handshake with live subscribers", func() {
			Expect(p.Accept(packet.New(packet.Header, []byte("H")))).To(Succeed())

			s, conn := newSubscriber()
			Expect(p.Admit(s)).To(Succeed())

			p.Close()

			Expect(bodies(conn)).To(Equal([]string{"H", notYet, notYet, notYet, terminal}))
			Expect(conn.CloseCount()).To(Equal(1))
			Expect(p.IsClosed()).To(BeTrue())
		})

		It("closes every subscriber even if one fails", func() {
			Expect(p.Accept(packet.New(packet.Header, []byte("H")))).To(Succeed())

			s1, conn1 := newSubscriber()
			s2, conn2 := newSubscriber()

			conn1.FailAfter = 1

			Expect(p.Admit(s1)).To(Succeed())
			Expect(p.Admit(s2)).To(Succeed())

			p.Close()

			Expect(conn1.CloseCount()).To(Equal(1))
			Expect(conn2.CloseCount()).To(Equal(1))
			Expect(bodies(conn2)).To(HaveLen(5))
		})

		It("is idempotent", func() {
			closed := 0
			live := -1

			p = New("/live", &Hooks{
				OnClose: func(_ string, subscribers int) {
					closed++
					live = subscribers
				},
			})

			Expect(p.Accept(packet.New(packet.Header, []byte("H")))).To(Succeed())

			s, conn := newSubscriber()
			Expect(p.Admit(s)).To(Succeed())

			p.Close()
			p.Close()

			Expect(closed).To(Equal(1))
			Expect(live).To(Equal(1))
			Expect(conn.CloseCount()).To(Equal(1))
			Expect(bodies(conn)).To(HaveLen(5))
		})

		It("can close a point that never became ready", func() {
			p.Close()

			Expect(p.IsClosed()).To(BeTrue())
			Expect(p.IsReady()).To(BeFalse())
		})
	})

	Context("concurrent use", func() {
		It("gives every subscriber the header and an in-order suffix of the stream", func() {
			const (
				joiners = 20
				packets = 50
			)

			Expect(p.Accept(packet.New(packet.Header, []byte("H")))).To(Succeed())

			conns := make([]*tools.FakeConn, joiners)

			var wg sync.WaitGroup

			for i := 0; i < joiners; i++ {
				s, conn := newSubscriber()
				conns[i] = conn

				wg.Add(1)

				go func() {
					defer GinkgoRecover()
					defer wg.Done()

					Expect(p.Admit(s)).To(Succeed())
				}()
			}

			for i := 0; i < packets; i++ {
				Expect(p.Accept(packet.New(packet.Data, []byte(fmt.Sprintf("D%d", i))))).To(Succeed())
			}

			wg.Wait()
			p.Close()

			for _, conn := range conns {
				got := bodies(conn)

				Expect(len(got)).To(BeNumerically(">=", 5))
				Expect(got[0]).To(Equal("H"))
				Expect(got[len(got)-4:]).To(Equal([]string{notYet, notYet, notYet, terminal}))

				data := got[1 : len(got)-4]
				first := packets - len(data)

				for j, body := range data {
					Expect(body).To(Equal(fmt.Sprintf("D%d", first+j)))
				}
			}
		})
	})
})
