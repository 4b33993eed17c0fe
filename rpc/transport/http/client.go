package http

import (
	"bytes"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/lucid-kv/lucid/rpc/common"
	"github.com/lucid-kv/lucid/rpc/transport"
)

func NewHttpClientTransport() transport.IRPCClientTransport {
	return &httpClientTransport{}
}

type httpClientTransport struct {
	serverURLs []*url.URL
	client     *http.Client
	counter    atomic.Uint32
	retryCount int
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCClientTransport)
// --------------------------------------------------------------------------

func (t *httpClientTransport) Connect(config common.ClientConfig) error {
	if len(config.Endpoints) == 0 {
		return fmt.Errorf("no endpoints provided")
	}

	// Parse each server URL (the scheme defaults to http)
	parsedURLs := make([]*url.URL, len(config.Endpoints))
	for i, server := range config.Endpoints {
		if !strings.Contains(server, "://") {
			server = "http://" + server
		}
		parsedURL, err := url.Parse(strings.TrimRight(server, "/"))
		if err != nil {
			return fmt.Errorf("invalid endpoint %q: %w", server, err)
		}
		parsedURLs[i] = parsedURL
	}

	timeout := time.Duration(config.TimeoutSecond) * time.Second
	connectionsPerHost := config.ConnectionsPerEndpoint
	if connectionsPerHost <= 0 {
		connectionsPerHost = 10
	}

	t.client = &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: connectionsPerHost,
			IdleConnTimeout:     90 * time.Second,
		},
	}
	t.serverURLs = parsedURLs
	t.retryCount = config.RetryCount

	return nil
}

func (t *httpClientTransport) Send(shardId uint64, req []byte) ([]byte, error) {
	if t.client == nil {
		return nil, fmt.Errorf("http transport not initialized")
	}

	attempts := t.retryCount
	if attempts < 1 {
		attempts = 1
	}

	backoff := 50 * time.Millisecond
	var lastErr error

	for i := 0; i < attempts; i++ {
		// Select the next server via round-robin
		idx := t.counter.Add(1) % uint32(len(t.serverURLs))
		requestURL := t.serverURLs[idx].JoinPath(strconv.FormatUint(shardId, 10))

		resp, err := t.post(requestURL.String(), req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		Logger.Debugf("HTTP request attempt %d/%d to %s failed: %v", i+1, attempts, requestURL, err)

		if i < attempts-1 {
			time.Sleep(time.Duration(float64(backoff) * (0.9 + 0.2*rand.Float64())))
			backoff *= 2
		}
	}

	return nil, fmt.Errorf("failed to send request after %d attempts: %w", attempts, lastErr)
}

func (t *httpClientTransport) Close() error {
	if t.client != nil {
		t.client.CloseIdleConnections()
	}

	t.client = nil
	t.serverURLs = nil

	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// post sends one request. A new request is built per attempt since the body is consumed.
func (t *httpClientTransport) post(requestURL string, body []byte) ([]byte, error) {
	httpResponse, err := t.client.Post(requestURL, "application/octet-stream", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := httpResponse.Body.Close(); err != nil {
			Logger.Warningf("Failed to close response body: %v", err)
		}
	}()

	if httpResponse.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http error: %s", httpResponse.Status)
	}
	return io.ReadAll(httpResponse.Body)
}
