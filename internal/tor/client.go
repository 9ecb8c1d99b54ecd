package tor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/net/proxy"
)

// checkTimeout bounds the whole proxy probe.
const checkTimeout = 2 * time.Second

// SOCKS5 protocol constants used by the probe.
const (
	socks5Version      = 0x05
	socks5AuthNone     = 0x00
	socks5CmdConnect   = 0x01
	socks5AddrTypeName = 0x03

	// probeHost is a reserved name that never resolves; the proxy only
	// has to answer the CONNECT request, not complete it.
	probeHost = "leakscan.invalid"
)

// Client dials through a SOCKS5 proxy.
type Client struct {
	proxyAddress string
	dialer       proxy.ContextDialer
}

// NewClient creates a client for the proxy at host:port.
// The proxy is not contacted; call CheckConnection to verify it.
func NewClient(proxyAddress string) (*Client, error) {
	if !isValidProxyAddress(proxyAddress) {
		return nil, ErrInvalidProxyAddress
	}

	d, err := proxy.SOCKS5("tcp", proxyAddress, nil, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
	}
	cd, ok := d.(proxy.ContextDialer)
	if !ok {
		return nil, errors.New("SOCKS5 dialer does not support contexts")
	}

	return &Client{proxyAddress: proxyAddress, dialer: cd}, nil
}

func isValidProxyAddress(address string) bool {
	host, port, err := net.SplitHostPort(address)
	if err != nil || host == "" {
		return false
	}
	n, err := strconv.Atoi(port)
	return err == nil && n >= 1 && n <= 65535
}

// ProxyAddress returns the configured proxy address.
func (c *Client) ProxyAddress() string {
	return c.proxyAddress
}

// Transport returns an HTTP transport that dials every connection
// through the proxy. Each call returns a fresh transport.
func (c *Client) Transport() *http.Transport {
	return &http.Transport{
		DialContext:         c.dialer.DialContext,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
}

// HTTPClient returns an HTTP client using Transport. It carries no
// timeout of its own; callers bound each request with a context.
func (c *Client) HTTPClient() *http.Client {
	return &http.Client{Transport: c.Transport()}
}

// CheckConnection probes the proxy with a SOCKS5 greeting followed by a
// CONNECT request for a name that never resolves. Any well-formed SOCKS5
// reply, including a failure code, counts as OK.
func (c *Client) CheckConnection(ctx context.Context) ProxyStatus {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", c.proxyAddress)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ProxyStatusTimeout
		}
		return ProxyStatusCannotConnect
	}
	defer conn.Close()

	deadline, _ := ctx.Deadline()
	if err := conn.SetDeadline(deadline); err != nil {
		return ProxyStatusCannotConnect
	}

	if _, err := conn.Write([]byte{socks5Version, 0x01, socks5AuthNone}); err != nil {
		return ProxyStatusCannotConnect
	}

	greeting := make([]byte, 2)
	if _, err := io.ReadFull(conn, greeting); err != nil {
		return readFailure(err)
	}
	if greeting[0] != socks5Version || greeting[1] != socks5AuthNone {
		return ProxyStatusWrongType
	}

	req := []byte{socks5Version, socks5CmdConnect, 0x00, socks5AddrTypeName, byte(len(probeHost))}
	req = append(req, probeHost...)
	req = append(req, 0x00, 0x50)
	if _, err := conn.Write(req); err != nil {
		return ProxyStatusCannotConnect
	}

	reply := make([]byte, 4)
	if _, err := io.ReadFull(conn, reply); err != nil {
		return readFailure(err)
	}
	if reply[0] != socks5Version {
		return ProxyStatusWrongType
	}
	return ProxyStatusOK
}

func readFailure(err error) ProxyStatus {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ProxyStatusTimeout
	}
	return ProxyStatusWrongType
}
