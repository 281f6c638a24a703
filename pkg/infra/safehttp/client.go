package safehttp

import (
	"net"
	"net/http"
	"syscall"
	"time"

	"code.dny.dev/ssrf"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/odcsfetch/pkg/domain/types"
)

// DefaultTimeout is applied to the whole request unless WithTimeout is given
const DefaultTimeout = 10 * time.Second

// config holds internal client configuration
type config struct {
	timeout             time.Duration
	allowPrivateNetwork bool

	// allowedAddrs bypasses address check for exact "ip:port" pairs
	allowedAddrs map[string]struct{}
}

// Option is a functional option for the client
type Option func(*config)

// WithTimeout sets the overall request timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *config) {
		c.timeout = timeout
	}
}

// WithAllowPrivateNetwork disables address checks. Scheme check is still applied.
func WithAllowPrivateNetwork(allow bool) Option {
	return func(c *config) {
		c.allowPrivateNetwork = allow
	}
}

// NewClient creates an HTTP client that refuses to connect to loopback,
// private, link-local and other non-public addresses. The check runs on the
// resolved address right before connecting, so it also applies to redirects
// and to host names resolving to internal addresses.
func NewClient(opts ...Option) *http.Client {
	cfg := &config{
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	dialer := &net.Dialer{
		Timeout:   cfg.timeout,
		KeepAlive: 30 * time.Second,
	}
	if !cfg.allowPrivateNetwork {
		g := newGuard()
		g.allowed = cfg.allowedAddrs
		dialer.Control = g.control
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = dialer.DialContext
	transport.Proxy = nil

	return &http.Client{
		Timeout:   cfg.timeout,
		Transport: &schemeGuard{base: transport},
	}
}

// schemeGuard rejects requests with scheme other than http and https
type schemeGuard struct {
	base http.RoundTripper
}

func (g *schemeGuard) RoundTrip(req *http.Request) (*http.Response, error) {
	switch req.URL.Scheme {
	case "http", "https":
		return g.base.RoundTrip(req)
	default:
		return nil, goerr.New("unsupported URL scheme",
			goerr.V("scheme", req.URL.Scheme),
			goerr.V("url", req.URL.String()),
			goerr.T(types.ErrTagBlockedTarget),
		)
	}
}

// guard wraps ssrf.Guardian to tag rejected connections
type guard struct {
	guardian *ssrf.Guardian
	allowed  map[string]struct{}
}

func newGuard() *guard {
	// Compose servers are not limited to 80/443
	return &guard{guardian: ssrf.New(ssrf.WithAnyPort())}
}

func (g *guard) control(network, address string, conn syscall.RawConn) error {
	if _, ok := g.allowed[address]; ok {
		return nil
	}

	if err := g.guardian.Safe(network, address, conn); err != nil {
		return goerr.Wrap(err, "connection to non-public address is not allowed",
			goerr.V("network", network),
			goerr.V("address", address),
			goerr.T(types.ErrTagBlockedTarget),
		)
	}

	return nil
}

// VerifyAddress checks a resolved "ip:port" address the same way the client
// does before connecting. network is "tcp4" or "tcp6".
func VerifyAddress(network, address string) error {
	return newGuard().control(network, address, nil)
}
