package base

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/lucid-kv/lucid/rpc/common"
)

// --------------------------------------------------------------------------
// Test connectors (tcp on a random local port)
// --------------------------------------------------------------------------

type testServerConnector struct {
	addr chan string
}

func (c *testServerConnector) Listen(common.ServerConfig) (net.Listener, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}
	c.addr <- listener.Addr().String()
	return listener, nil
}

func (c *testServerConnector) GetName() string                  { return "test" }
func (c *testServerConnector) UpgradeConnection(net.Conn) error { return nil }

type testClientConnector struct{}

func (testClientConnector) Connect(endpoint string, timeout time.Duration) (net.Conn, error) {
	return net.DialTimeout("tcp", endpoint, timeout)
}
func (testClientConnector) GetName() string                  { return "test" }
func (testClientConnector) UpgradeConnection(net.Conn) error { return nil }

// startEchoServer starts a server that answers with "<shardId>:<request>"
func startEchoServer(t *testing.T, workers int) string {
	t.Helper()

	connector := &testServerConnector{addr: make(chan string, 1)}
	server := NewBaseServerTransport(connector, 1024, workers)
	server.RegisterHandler(func(shardId uint64, req []byte) []byte {
		return []byte(fmt.Sprintf("%d:%s", shardId, req))
	})

	done := make(chan error, 1)
	go func() {
		done <- server.Listen(common.ServerConfig{Endpoint: "test", TimeoutSecond: 5})
	}()

	t.Cleanup(func() {
		_ = server.Close()
		if err := <-done; err != nil {
			t.Errorf("Listen returned an error after Close: %v", err)
		}
	})

	select {
	case addr := <-connector.addr:
		return addr
	case err := <-done:
		t.Fatalf("Server failed to start: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatalf("Server did not start")
	}
	return ""
}

// --------------------------------------------------------------------------
// Tests
// --------------------------------------------------------------------------

func TestFrameRoundTrip(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	payloads := [][]byte{
		[]byte("hello"),
		{},
		bytes.Repeat([]byte{0xab}, 4096),
	}

	go func() {
		for i, p := range payloads {
			if err := writeFrame(client, uint64(i+1), uint64(100+i), p); err != nil {
				t.Errorf("writeFrame failed: %v", err)
				return
			}
		}
	}()

	buf := make([]byte, 16) // smaller than the last payload
	for i, p := range payloads {
		shardID, requestID, data, err := readFrame(server, buf)
		if err != nil {
			t.Fatalf("readFrame failed: %v", err)
		}
		if shardID != uint64(i+1) || requestID != uint64(100+i) {
			t.Errorf("Header mismatch: shard %d request %d", shardID, requestID)
		}
		if !bytes.Equal(data, p) {
			t.Errorf("Payload %d mismatch: got %d bytes, expected %d", i, len(data), len(p))
		}
	}
}

func TestFrameTooLarge(t *testing.T) {
	header := make([]byte, frameHeaderSize)
	binary.BigEndian.PutUint32(header[16:20], maxFrameSize+1)

	if _, _, _, err := readFrame(bytes.NewReader(header), nil); err == nil {
		t.Errorf("Expected an error for an oversized frame")
	}
}

func TestEcho(t *testing.T) {
	addr := startEchoServer(t, 4)

	client := NewBaseClientTransport(testClientConnector{})
	err := client.Connect(common.ClientConfig{
		Endpoints:              []string{addr},
		TimeoutSecond:          5,
		RetryCount:             3,
		ConnectionsPerEndpoint: 2,
	})
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer client.Close()

	// many concurrent requests over few connections must get their own response
	var wg sync.WaitGroup
	for g := 0; g < 32; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				req := []byte(fmt.Sprintf("request-%d-%d", g, i))
				resp, err := client.Send(uint64(g), req)
				if err != nil {
					t.Errorf("Send failed: %v", err)
					return
				}
				expected := fmt.Sprintf("%d:%s", g, req)
				if string(resp) != expected {
					t.Errorf("Expected %q, got %q", expected, resp)
				}
			}
		}(g)
	}
	wg.Wait()
}

func TestConnectWithoutServer(t *testing.T) {
	// reserve a port and release it again so nothing listens on it
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}
	addr := listener.Addr().String()
	_ = listener.Close()

	client := NewBaseClientTransport(testClientConnector{})
	if err := client.Connect(common.ClientConfig{Endpoints: []string{addr}, TimeoutSecond: 1}); err == nil {
		t.Errorf("Connect should fail without a server")
	}
	if err := client.Connect(common.ClientConfig{}); err == nil {
		t.Errorf("Connect should fail without endpoints")
	}
}

func TestSendAfterClose(t *testing.T) {
	addr := startEchoServer(t, 1)

	client := NewBaseClientTransport(testClientConnector{})
	if err := client.Connect(common.ClientConfig{Endpoints: []string{addr}, TimeoutSecond: 5}); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	_ = client.Close()

	if _, err := client.Send(1, []byte("late")); err == nil {
		t.Errorf("Send after Close should fail")
	}
}
