// Package network provides the HTTP client used for every request to the upstream video service.
package network

import (
	"compress/gzip"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/spf13/viper"
	"github.com/tubelink/tubelink/constant"
	"github.com/tubelink/tubelink/key"
	"golang.org/x/time/rate"
)

// Upstream calls are bounded by fixed connect and read timeouts.
const (
	ConnectTimeout = 10 * time.Second
	ReadTimeout    = 20 * time.Second

	// maxBodySize caps how much of a response is read into memory.
	maxBodySize = 16 << 20
)

// Options shape the upstream client.
type Options struct {
	// Fingerprint dials TLS with a browser ClientHello instead of the Go default.
	Fingerprint bool
	// RateLimit is the number of requests per second allowed towards the upstream.
	RateLimit rate.Limit
	// Burst is the limiter bucket size.
	Burst int
}

// OptionsFromConfig reads the network options from the global configuration.
func OptionsFromConfig() Options {
	return Options{
		Fingerprint: viper.GetBool(key.NetworkFingerprint),
		RateLimit:   rate.Limit(viper.GetFloat64(key.NetworkRateLimit)),
		Burst:       viper.GetInt(key.NetworkRateBurst),
	}
}

var (
	defaultClient *http.Client
	defaultOnce   sync.Once
)

// Default returns the process-wide client built from the configuration on first use.
func Default() *http.Client {
	defaultOnce.Do(func() {
		defaultClient = New(OptionsFromConfig())
	})
	return defaultClient
}

// New builds a client with bounded timeouts, browser-like default headers and an outbound rate limiter.
func New(opts Options) *http.Client {
	if opts.RateLimit <= 0 {
		opts.RateLimit = rate.Inf
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}

	var next http.RoundTripper
	if opts.Fingerprint {
		next = newFingerprintTransport()
	} else {
		next = newTransport()
	}

	return &http.Client{
		Timeout: ConnectTimeout + ReadTimeout,
		Transport: &limitedTransport{
			next:    next,
			limiter: rate.NewLimiter(opts.RateLimit, opts.Burst),
		},
	}
}

// newTransport initializes a tuned http.Transport with bounded dial and header timeouts.
func newTransport() *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.DialContext = (&net.Dialer{Timeout: ConnectTimeout, KeepAlive: 30 * time.Second}).DialContext
	t.TLSHandshakeTimeout = ConnectTimeout
	t.ResponseHeaderTimeout = ReadTimeout
	t.MaxIdleConns = 50
	t.MaxIdleConnsPerHost = 10
	t.IdleConnTimeout = 30 * time.Second
	return t
}

// limitedTransport waits for the limiter and fills in default headers before delegating.
type limitedTransport struct {
	next    http.RoundTripper
	limiter *rate.Limiter
}

func (t *limitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	req = req.Clone(req.Context())
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", constant.UserAgent)
	}
	if req.Header.Get("Accept-Language") == "" {
		req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	}
	req.Header.Set("Accept-Encoding", "gzip, br")

	return t.next.RoundTrip(req)
}

// ReadBody reads a response body, decoding gzip and brotli content encodings.
func ReadBody(resp *http.Response) ([]byte, error) {
	var r io.Reader = resp.Body

	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "br":
		r = brotli.NewReader(resp.Body)
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		defer gz.Close()
		r = gz
	}

	return io.ReadAll(io.LimitReader(r, maxBodySize))
}
