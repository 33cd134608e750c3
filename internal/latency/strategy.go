package latency

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"mikrodesk/internal/api"
)

// Default ports probed when the router host carries none.
const (
	APIPort  = 8728
	HTTPPort = 80
)

// Strategy defines how a reachability probe is performed against a single router.
type Strategy interface {
	// Name returns the strategy identifier ("tcp" or "http").
	Name() string
	// Probe measures the round-trip time to the router.
	Probe(ctx context.Context, router *api.Router) (time.Duration, error)
}

// address joins host with port unless host already names one.
func address(host string, port int) string {
	if _, _, err := net.SplitHostPort(host); err == nil {
		return host
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// TCPStrategy measures a TCP handshake against the RouterOS API service,
// which is what the backend connects to.
type TCPStrategy struct {
	Port int
}

func (s *TCPStrategy) Name() string { return "tcp" }

func (s *TCPStrategy) Probe(ctx context.Context, router *api.Router) (time.Duration, error) {
	port := s.Port
	if port == 0 {
		port = APIPort
	}

	start := time.Now()
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", address(router.Host, port))
	if err != nil {
		return 0, fmt.Errorf("tcp handshake failed: %w", err)
	}
	elapsed := time.Since(start)
	conn.Close()
	return elapsed, nil
}

// HTTPStrategy requests the router's web interface. Any HTTP response
// counts as reachable.
type HTTPStrategy struct {
	Port   int
	client *http.Client
}

// NewHTTPStrategy creates an HTTPStrategy that never follows redirects.
func NewHTTPStrategy() *HTTPStrategy {
	return &HTTPStrategy{
		client: &http.Client{
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (s *HTTPStrategy) Name() string { return "http" }

func (s *HTTPStrategy) Probe(ctx context.Context, router *api.Router) (time.Duration, error) {
	port := s.Port
	if port == 0 {
		port = HTTPPort
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, "http://"+address(router.Host, port)+"/", nil)
	if err != nil {
		return 0, err
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("http request failed: %w", err)
	}
	elapsed := time.Since(start)
	resp.Body.Close()
	return elapsed, nil
}

// NewStrategy creates a Strategy by name. Valid names: "tcp", "http".
func NewStrategy(name string) (Strategy, error) {
	switch name {
	case "tcp", "":
		return &TCPStrategy{}, nil
	case "http":
		return NewHTTPStrategy(), nil
	default:
		return nil, fmt.Errorf("unknown probe strategy: %s (available: tcp, http)", name)
	}
}
