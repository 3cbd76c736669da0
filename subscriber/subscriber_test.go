package subscriber

import (
	"errors"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	pkgerrors "github.com/pkg/errors"

	"github.com/batchcorp/mirror/packet"
	"github.com/batchcorp/mirror/tools"
)

var _ = Describe("Channel", func() {
	var (
		conn *tools.FakeConn
		ch   *Channel
	)

	BeforeEach(func() {
		conn = tools.NewFakeConn()

		var err error

		ch, err = New(conn, "127.0.0.1:5555")
		Expect(err).ToNot(HaveOccurred())
	})

	Context("New", func() {
		It("requires a connection", func() {
			c, err := New(nil, "")
			Expect(err).To(Equal(ErrMissingConn))
			Expect(c).To(BeNil())
		})

		It("assigns unique IDs", func() {
			other, err := New(tools.NewFakeConn(), "")
			Expect(err).ToNot(HaveOccurred())
			Expect(other.ID).ToNot(BeEmpty())
			Expect(other.ID).ToNot(Equal(ch.ID))
		})
	})

	Context("Send", func() {
		It("numbers packets from zero", func() {
			for i := 0; i < 5; i++ {
				Expect(ch.Send(packet.New(packet.Data, []byte{byte(i)}))).To(Succeed())
			}

			Expect(ch.Seq()).To(Equal(uint32(5)))

			received, err := conn.Packets()
			Expect(err).ToNot(HaveOccurred())
			Expect(received).To(HaveLen(5))

			for i, r := range received {
				Expect(r.Seq).To(Equal(uint32(i)))
				Expect(r.Packet.Body).To(Equal([]byte{byte(i)}))
			}
		})

		It("refuses to send after the terminal packet", func() {
			Expect(ch.Send(packet.NewTerminal())).To(Succeed())
			Expect(ch.Ended()).To(BeTrue())

			err := ch.Send(packet.New(packet.Data, []byte("late")))
			Expect(err).To(Equal(ErrSendAfterEnd))
			Expect(ch.Seq()).To(Equal(uint32(1)))
			Expect(conn.WriteCount()).To(Equal(1))
		})

		It("does not end on a not-yet end of transmission", func() {
			Expect(ch.Send(packet.NewNotYetEnd())).To(Succeed())
			Expect(ch.Ended()).To(BeFalse())
			Expect(ch.Send(packet.New(packet.Data, nil))).To(Succeed())
		})

		It("returns write errors", func() {
			conn.FailAfter = 0

			err := ch.Send(packet.New(packet.Data, []byte("x")))
			Expect(err).To(HaveOccurred())
			Expect(pkgerrors.Cause(err)).To(Equal(tools.ErrFakeWrite))
		})
	})

	Context("Close", func() {
		It("performs the end of transmission handshake", func() {
			Expect(ch.Send(packet.New(packet.Header, []byte("H")))).To(Succeed())
			Expect(ch.Close()).To(Succeed())

			received, err := conn.Packets()
			Expect(err).ToNot(HaveOccurred())
			Expect(received).To(HaveLen(5))

			for i := 1; i <= 3; i++ {
				Expect(received[i].Packet.Kind).To(Equal(packet.EndOfTransmission))
				Expect(received[i].Packet.Body).To(Equal([]byte{1, 0, 0, 0}))
			}

			Expect(received[4].Packet.IsTerminal()).To(BeTrue())
			Expect(received[4].Seq).To(Equal(uint32(4)))
			Expect(ch.Seq()).To(Equal(uint32(5)))
			Expect(conn.CloseCount()).To(Equal(1))
		})

		It("skips the handshake once the stream has ended", func() {
			Expect(ch.Send(packet.NewTerminal())).To(Succeed())
			Expect(ch.Close()).To(Succeed())

			Expect(conn.WriteCount()).To(Equal(1))
			Expect(conn.CloseCount()).To(Equal(1))
		})

		It("closes the connection even when the handshake fails", func() {
			conn.FailAfter = 1

			err := ch.Close()
			Expect(err).To(HaveOccurred())
			Expect(conn.CloseCount()).To(Equal(1))
		})

		It("reports a connection close error", func() {
			conn.CloseErr = errors.New("boom")

			err := ch.Close()
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("boom"))
		})
	})
})
