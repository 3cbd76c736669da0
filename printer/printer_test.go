package printer

import (
	"bytes"
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/batchcorp/mirror/point"
)

var _ = Describe("Printer", func() {
	Context("PrintPoints", func() {
		It("prints the count when there are no points", func() {
			buf := &bytes.Buffer{}

			PrintPoints(buf, nil)

			Expect(buf.String()).To(Equal("0 publishing points:\n"))
		})

		It("prints a row per point", func() {
			buf := &bytes.Buffer{}

			PrintPoints(buf, []*point.Info{
				{Path: "/a", Ready: true, Subscribers: 2, Packets: 10, Bytes: 1024, CreatedAt: time.Now()},
				{Path: "/b", CreatedAt: time.Now()},
			})

			out := buf.String()

			Expect(out).To(HavePrefix("2 publishing points:\n"))
			Expect(out).To(ContainSubstring("/a"))
			Expect(out).To(ContainSubstring("live"))
			Expect(out).To(ContainSubstring("1024"))
			Expect(out).To(ContainSubstring("/b"))
			Expect(out).To(ContainSubstring("waiting"))
		})
	})

	Context("State", func() {
		It("reports closed before ready", func() {
			Expect(State(&point.Info{Ready: true, Closed: true})).To(Equal("closed"))
			Expect(State(&point.Info{Ready: true})).To(Equal("live"))
			Expect(State(&point.Info{})).To(Equal("waiting"))
		})
	})
})
