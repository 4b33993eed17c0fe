package http

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/lucid-kv/lucid/rpc/common"
)

// newTestServer serves an echo handler answering with "<shardId>:<request>"
func newTestServer(t *testing.T, logLevel string) *httptest.Server {
	t.Helper()

	server := &httpServerTransport{}
	server.RegisterHandler(func(shardId uint64, req []byte) []byte {
		return []byte(fmt.Sprintf("%d:%s", shardId, req))
	})

	ts := httptest.NewServer(server.routes(common.ServerConfig{LogLevel: logLevel}))
	t.Cleanup(ts.Close)
	return ts
}

func TestRoundTrip(t *testing.T) {
	for _, level := range []string{"info", "debug"} {
		t.Run(level, func(t *testing.T) {
			ts := newTestServer(t, level)

			client := NewHttpClientTransport()
			if err := client.Connect(common.ClientConfig{Endpoints: []string{ts.URL}, TimeoutSecond: 5, RetryCount: 2}); err != nil {
				t.Fatalf("Connect failed: %v", err)
			}
			defer client.Close()

			var wg sync.WaitGroup
			for g := 0; g < 8; g++ {
				wg.Add(1)
				go func(g int) {
					defer wg.Done()
					for i := 0; i < 10; i++ {
						req := fmt.Sprintf("req-%d-%d", g, i)
						resp, err := client.Send(uint64(g), []byte(req))
						if err != nil {
							t.Errorf("Send failed: %v", err)
							return
						}
						if expected := fmt.Sprintf("%d:%s", g, req); string(resp) != expected {
							t.Errorf("Expected %q, got %q", expected, resp)
						}
					}
				}(g)
			}
			wg.Wait()
		})
	}
}

func TestEndpointWithoutScheme(t *testing.T) {
	ts := newTestServer(t, "info")

	client := NewHttpClientTransport()
	endpoint := strings.TrimPrefix(ts.URL, "http://") + "/"
	if err := client.Connect(common.ClientConfig{Endpoints: []string{endpoint}, TimeoutSecond: 5}); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	resp, err := client.Send(7, []byte("x"))
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if string(resp) != "7:x" {
		t.Errorf("Expected 7:x, got %q", resp)
	}
}

func TestInvalidShardId(t *testing.T) {
	ts := newTestServer(t, "info")

	resp, err := http.Post(ts.URL+"/not-a-number", "application/octet-stream", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("Post failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", resp.StatusCode)
	}
}

func TestSendErrors(t *testing.T) {
	client := NewHttpClientTransport()
	if _, err := client.Send(1, nil); err == nil {
		t.Errorf("Send before Connect should fail")
	}
	if err := client.Connect(common.ClientConfig{}); err == nil {
		t.Errorf("Connect without endpoints should fail")
	}

	ts := newTestServer(t, "info")
	_ = client.Connect(common.ClientConfig{Endpoints: []string{ts.URL}, TimeoutSecond: 5})
	ts.Close()

	if _, err := client.Send(1, []byte("x")); err == nil {
		t.Errorf("Send to a closed server should fail")
	}
}
