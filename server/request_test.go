package server

import (
	"bufio"
	"strings"

	"github.com/pkg/errors"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

func reader(s string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(s))
}

var _ = Describe("Request", func() {
	Context("ParseRequest", func() {
		It("parses the request line and headers", func() {
			req, err := ParseRequest(reader("POST /live HTTP/1.1\r\n"+
				"Content-Type: application/x-wms-pushstart\r\n"+
				"User-Agent:WMEncoder/9.0\r\n"+
				"\r\n"), nil)

			Expect(err).ToNot(HaveOccurred())
			Expect(req.Method).To(Equal("POST"))
			Expect(req.Path).To(Equal("/live"))
			Expect(req.Version).To(Equal("HTTP/1.1"))
			Expect(req.ContentType()).To(Equal(ContentTypePushStart))
			Expect(req.Header("user-agent")).To(Equal("WMEncoder/9.0"))
		})

		It("joins repeated headers", func() {
			req, err := ParseRequest(reader("GET /live HTTP/1.0\r\n"+
				"Pragma: no-cache\r\n"+
				"pragma: xPlayStrm=1\r\n"+
				"\r\n"), nil)

			Expect(err).ToNot(HaveOccurred())
			Expect(req.Header("Pragma")).To(Equal("no-cache, xPlayStrm=1"))
		})

		It("leaves the body unread", func() {
			r := reader("POST /live HTTP/1.1\r\nContent-Length: 3\r\n\r\nabc")

			req, err := ParseRequest(r, nil)
			Expect(err).ToNot(HaveOccurred())
			Expect(req.Reader).To(BeIdenticalTo(r))

			rest := make([]byte, 3)
			_, err = r.Read(rest)
			Expect(err).ToNot(HaveOccurred())
			Expect(string(rest)).To(Equal("abc"))
		})

		It("rejects a malformed request line", func() {
			_, err := ParseRequest(reader("GET /live\r\n\r\n"), nil)
			Expect(errors.Cause(err)).To(Equal(ErrBadRequestLine))
		})

		It("rejects a malformed header line", func() {
			_, err := ParseRequest(reader("GET /live HTTP/1.0\r\nno colon here\r\n\r\n"), nil)
			Expect(errors.Cause(err)).To(Equal(ErrBadHeaderLine))
		})

		It("rejects too many headers", func() {
			head := "GET /live HTTP/1.0\r\n" + strings.Repeat("X-Foo: bar\r\n", MaxHeaders+1) + "\r\n"

			_, err := ParseRequest(reader(head), nil)
			Expect(err).To(Equal(ErrTooManyHeaders))
		})

		It("rejects lines longer than the read buffer", func() {
			r := bufio.NewReaderSize(strings.NewReader("GET /"+strings.Repeat("a", 64)+" HTTP/1.0\r\n\r\n"), 16)

			_, err := ParseRequest(r, nil)
			Expect(errors.Cause(err)).To(Equal(ErrLineTooLong))
		})

		It("errors when the stream ends mid-head", func() {
			_, err := ParseRequest(reader("GET /live HTTP/1.0\r\nPragma: no-cache\r\n"), nil)
			Expect(err).To(HaveOccurred())
		})
	})

	Context("writeResponse", func() {
		It("writes headers in order and terminates the head", func() {
			buf := &strings.Builder{}

			err := writeResponse(buf, StatusOK, subscriberHeaders)
			Expect(err).ToNot(HaveOccurred())
			Expect(buf.String()).To(Equal("HTTP/1.0 200 OK\r\n" +
				"Server: Rex/9.0.2980\r\n" +
				"Cache-Control: no-cache\r\n" +
				"Pragma: no-cache\r\n" +
				"Pragma: features=\"broadcast,playlist\"\r\n" +
				"Content-Type: application/x-mms-framed\r\n" +
				"\r\n"))
		})

		It("writes bare rejections", func() {
			buf := &strings.Builder{}

			Expect(writeResponse(buf, StatusNotFound, nil)).To(Succeed())
			Expect(buf.String()).To(Equal("HTTP/1.0 404 Not Found\r\n\r\n"))
		})

		It("extracts status codes", func() {
			Expect(statusCode(StatusNoContent)).To(Equal("204"))
			Expect(statusCode("bogus")).To(Equal("unknown"))
		})
	})
})
