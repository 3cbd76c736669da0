package server

import (
	"bufio"
	"net"
	"net/textproto"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

const (
	// MaxHeaders caps the number of header lines accepted per request
	MaxHeaders = 100

	ContentTypePushSetup = "application/x-wms-pushsetup"
	ContentTypePushStart = "application/x-wms-pushstart"
)

var (
	ErrBadRequestLine = errors.New("malformed request line")
	ErrBadHeaderLine  = errors.New("malformed header line")
	ErrTooManyHeaders = errors.New("too many header lines")
	ErrLineTooLong    = errors.New("request line too long")

	requestLineRe = regexp.MustCompile(`^([A-Za-z]+) (\S+) (\S+)\r\n$`)
	headerLineRe  = regexp.MustCompile(`^([^:]+):\s*(.+)\r\n$`)
)

// Request is a parsed request head. It is not modified after ParseRequest
// returns; the body (if any) is left unread on Reader.
type Request struct {
	Method  string
	Path    string
	Version string
	Headers map[string]string

	Conn   net.Conn
	Reader *bufio.Reader
}

// ParseRequest reads a request line and header lines from r until the empty
// line that terminates the head. Header names are canonicalized; repeated
// headers are joined with ", ".
func ParseRequest(r *bufio.Reader, conn net.Conn) (*Request, error) {
	line, err := readLine(r)
	if err != nil {
		return nil, errors.Wrap(err, "unable to read request line")
	}

	m := requestLineRe.FindStringSubmatch(line)
	if m == nil {
		return nil, errors.Wrapf(ErrBadRequestLine, "%q", strings.TrimRight(line, "\r\n"))
	}

	req := &Request{
		Method:  strings.ToUpper(m[1]),
		Path:    m[2],
		Version: m[3],
		Headers: make(map[string]string),
		Conn:    conn,
		Reader:  r,
	}

	for i := 0; ; i++ {
		line, err := readLine(r)
		if err != nil {
			return nil, errors.Wrap(err, "unable to read header line")
		}

		if line == "\r\n" || line == "\n" {
			break
		}

		if i >= MaxHeaders {
			return nil, ErrTooManyHeaders
		}

		hm := headerLineRe.FindStringSubmatch(line)
		if hm == nil {
			return nil, errors.Wrapf(ErrBadHeaderLine, "%q", strings.TrimRight(line, "\r\n"))
		}

		name := textproto.CanonicalMIMEHeaderKey(strings.TrimSpace(hm[1]))
		value := strings.TrimSpace(hm[2])

		if existing, ok := req.Headers[name]; ok {
			req.Headers[name] = existing + ", " + value
			continue
		}

		req.Headers[name] = value
	}

	return req, nil
}

// readLine returns a single line including its terminator. Lines longer than
// the reader's buffer are rejected.
func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadSlice('\n')
	if err == bufio.ErrBufferFull {
		return "", ErrLineTooLong
	}

	if err != nil {
		return "", err
	}

	return string(line), nil
}

// Header looks up a header by name, case-insensitively
func (r *Request) Header(name string) string {
	return r.Headers[textproto.CanonicalMIMEHeaderKey(name)]
}

func (r *Request) ContentType() string {
	return r.Header("Content-Type")
}

func (r *Request) String() string {
	return r.Method + " " + r.Path + " " + r.Version
}
