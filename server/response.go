package server

import (
	"bytes"
	"io"
	"strconv"

	"github.com/pkg/errors"

	"github.com/batchcorp/mirror/prometheus"
)

const (
	StatusOK         = "HTTP/1.0 200 OK"
	StatusBadRequest = "HTTP/1.0 400 Bad Request"
	StatusForbidden  = "HTTP/1.0 403 Forbidden"
	StatusNotFound   = "HTTP/1.0 404 Not Found"
	StatusNoContent  = "HTTP/1.1 204 No Content"
)

// header is a single response header. Responses keep headers in a slice
// since order matters to some players and Pragma is sent twice.
type header struct {
	name  string
	value string
}

var (
	pushSetupHeaders = []header{
		{"Server", "Cougar/9.01.01.3814"},
		{"Cache-Control", "no-cache"},
		{"Supported", "com.microsoft.wm.srvppair, com.microsoft.wm.sswitch, com.microsoft.wm.predstrm, com.microsoft.wm.fastcache, com.microsoft.wm.startupprofile"},
		{"Content-Length", "0"},
		{"Connection", "Keep-Alive"},
	}

	subscriberHeaders = []header{
		{"Server", "Rex/9.0.2980"},
		{"Cache-Control", "no-cache"},
		{"Pragma", "no-cache"},
		{"Pragma", `features="broadcast,playlist"`},
		{"Content-Type", "application/x-mms-framed"},
	}
)

// writeResponse writes a status line, headers and the blank line ending the
// response head
func writeResponse(w io.Writer, status string, headers []header) error {
	buf := &bytes.Buffer{}

	buf.WriteString(status)
	buf.WriteString("\r\n")

	for _, h := range headers {
		buf.WriteString(h.name)
		buf.WriteString(": ")
		buf.WriteString(h.value)
		buf.WriteString("\r\n")
	}

	buf.WriteString("\r\n")

	prometheus.IncrVecCounter("http", "responses", statusCode(status))

	if _, err := w.Write(buf.Bytes()); err != nil {
		return errors.Wrap(err, "unable to write response")
	}

	return nil
}

// statusCode pulls the numeric code out of a status line
func statusCode(status string) string {
	// "HTTP/1.x NNN ..."
	if len(status) < 12 {
		return "unknown"
	}

	if _, err := strconv.Atoi(status[9:12]); err != nil {
		return "unknown"
	}

	return status[9:12]
}
