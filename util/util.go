package util

import (
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// AddrFormat renders addr as "ip:port", or "unknown" when addr is nil
func AddrFormat(addr net.Addr) string {
	if addr == nil {
		return "unknown"
	}

	host, port, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}

	return net.JoinHostPort(host, port)
}

// RemoteIP extracts the IP part of addr. nil is returned when addr carries
// no IP (pipes, unix sockets).
func RemoteIP(addr net.Addr) net.IP {
	if addr == nil {
		return nil
	}

	switch a := addr.(type) {
	case *net.TCPAddr:
		return a.IP
	case *net.UDPAddr:
		return a.IP
	}

	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return nil
	}

	return net.ParseIP(host)
}

// HostIPs returns every IP assigned to one of this host's interfaces
func HostIPs() ([]net.IP, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return nil, errors.Wrap(err, "unable to list interface addresses")
	}

	ips := make([]net.IP, 0, len(addrs))

	for _, a := range addrs {
		switch v := a.(type) {
		case *net.IPNet:
			ips = append(ips, v.IP)
		case *net.IPAddr:
			ips = append(ips, v.IP)
		}
	}

	return ips, nil
}

// IsLocal reports whether ip is a loopback address or one of hostIPs
func IsLocal(ip net.IP, hostIPs []net.IP) bool {
	if ip == nil {
		return false
	}

	if ip.IsLoopback() {
		return true
	}

	for _, h := range hostIPs {
		if h.Equal(ip) {
			return true
		}
	}

	return false
}

func DirsExist(dirs []string) error {
	var errs []string

	for _, dir := range dirs {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			errs = append(errs, fmt.Sprintf("'%s' does not exist", dir))
		}
	}

	if errs == nil {
		return nil
	}

	return errors.New(strings.Join(errs, "; "))
}
