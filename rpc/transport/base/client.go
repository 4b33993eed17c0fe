package base

import (
	"errors"
	"fmt"
	"math/rand"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lucid-kv/lucid/rpc/common"
	"github.com/lucid-kv/lucid/rpc/transport"
	"github.com/puzpuzpuz/xsync/v3"
)

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IClientConnector defines the interface for transport-specific connection operations
type IClientConnector interface {
	// Connect establishes a single connection to the endpoint
	Connect(endpoint string, timeout time.Duration) (net.Conn, error)

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string

	// UpgradeConnection applies protocol-specific settings to an established connection
	UpgradeConnection(conn net.Conn) error
}

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

var errConnectionClosed = errors.New("connection is closed")

const (
	initialBackoff = 50 * time.Millisecond
	maxBackoff     = 2 * time.Second
)

// responseResult contains the result of a request
type responseResult struct {
	data []byte
	err  error
}

// clientConnection is a single multiplexed connection. Requests are written under
// writeMu; one reader goroutine hands responses to the waiting requests by request id.
type clientConnection struct {
	endpoint string
	parent   *clientTransport
	pending  *xsync.MapOf[uint64, chan responseResult]
	writeMu  sync.Mutex
	closed   atomic.Bool

	mu   sync.RWMutex // protects conn
	conn net.Conn
}

// clientTransport implements the core client transport functionality
// independent of the specific transport medium (unix, tcp, etc.)
type clientTransport struct {
	connector     IClientConnector
	config        common.ClientConfig
	connections   []*clientConnection
	connectionsMu sync.RWMutex
	nextConnIndex atomic.Uint64 // Round Robin counter
	nextRequestID atomic.Uint64 // unique request ids
	stopping      atomic.Bool
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp, unix, etc.)
// -----------------------------------------------------------

// NewBaseClientTransport creates a new base client transport with the specified connector
func NewBaseClientTransport(connector IClientConnector) transport.IRPCClientTransport {
	return &clientTransport{
		connector: connector,
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCClientTransport)
// --------------------------------------------------------------------------

func (t *clientTransport) Connect(config common.ClientConfig) error {
	if len(config.Endpoints) == 0 {
		return fmt.Errorf("no endpoints provided")
	}

	// Close all existing connections
	t.closeConnections()

	t.config = config
	t.stopping.Store(false)

	connectionsPerEP := 1
	if config.ConnectionsPerEndpoint > 0 {
		connectionsPerEP = config.ConnectionsPerEndpoint
	}

	connections := make([]*clientConnection, 0, len(config.Endpoints)*connectionsPerEP)
	for _, endpoint := range config.Endpoints {
		for i := 0; i < connectionsPerEP; i++ {
			clientConn := &clientConnection{
				endpoint: endpoint,
				parent:   t,
				pending:  xsync.NewMapOf[uint64, chan responseResult](),
			}

			conn, err := t.dial(endpoint)
			if err != nil {
				Logger.Warningf("Failed to connect to %s (connection %d/%d): %v", endpoint, i+1, connectionsPerEP, err)
				continue
			}
			clientConn.conn = conn
			connections = append(connections, clientConn)

			go clientConn.readResponses(conn)
		}
	}

	if len(connections) == 0 {
		return fmt.Errorf("failed to connect to any endpoint")
	}

	t.connectionsMu.Lock()
	t.connections = connections
	t.connectionsMu.Unlock()

	Logger.Infof("Connected %d out of %d connections to %d endpoints using %s transport",
		len(connections), len(config.Endpoints)*connectionsPerEP, len(config.Endpoints), t.connector.GetName())

	return nil
}

func (t *clientTransport) Send(shardId uint64, req []byte) ([]byte, error) {
	// We always try at least once
	attempts := t.config.RetryCount
	if attempts < 1 {
		attempts = 1
	}

	backoff := initialBackoff
	var lastErr error

	for i := 0; i < attempts; i++ {
		if t.stopping.Load() {
			return nil, fmt.Errorf("transport is closed")
		}

		conn := t.getNextConnection()
		if conn == nil {
			return nil, fmt.Errorf("no active connections available")
		}

		data, err := conn.roundTrip(shardId, t.nextRequestID.Add(1), req)
		if err == nil {
			return data, nil
		}

		lastErr = err
		Logger.Debugf("Request attempt %d/%d to %s failed: %v", i+1, attempts, conn.endpoint, err)

		if i < attempts-1 {
			// Exponential backoff with a small random jitter (+-10%)
			time.Sleep(time.Duration(float64(backoff) * (0.9 + 0.2*rand.Float64())))
			backoff = min(backoff*2, maxBackoff)
		}
	}

	return nil, fmt.Errorf("failed to send request after %d attempts: %w", attempts, lastErr)
}

func (t *clientTransport) Close() error {
	t.stopping.Store(true)
	t.closeConnections()
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// timeout returns the configured request timeout (0 = none)
func (t *clientTransport) timeout() time.Duration {
	return time.Duration(t.config.TimeoutSecond) * time.Second
}

// dial connects to endpoint and applies the connector specific settings
func (t *clientTransport) dial(endpoint string) (net.Conn, error) {
	conn, err := t.connector.Connect(endpoint, t.timeout())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", endpoint, err)
	}
	if err := t.connector.UpgradeConnection(conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to upgrade connection to %s: %w", endpoint, err)
	}
	return conn, nil
}

// getNextConnection selects the next connection via Round Robin
func (t *clientTransport) getNextConnection() *clientConnection {
	t.connectionsMu.RLock()
	defer t.connectionsMu.RUnlock()

	switch len(t.connections) {
	case 0:
		return nil
	case 1:
		return t.connections[0]
	default:
		return t.connections[t.nextConnIndex.Add(1)%uint64(len(t.connections))]
	}
}

// closeConnections closes all active connections
func (t *clientTransport) closeConnections() {
	t.connectionsMu.Lock()
	connections := t.connections
	t.connections = nil
	t.connectionsMu.Unlock()

	for _, c := range connections {
		c.closed.Store(true)
		c.mu.Lock()
		if c.conn != nil {
			_ = c.conn.Close()
			c.conn = nil
		}
		c.mu.Unlock()
		c.failPending(errConnectionClosed)
	}
}

// roundTrip writes one request and waits for its response
func (c *clientConnection) roundTrip(shardId, requestID uint64, req []byte) ([]byte, error) {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()
	if conn == nil {
		return nil, errConnectionClosed
	}

	respCh := make(chan responseResult, 1)
	c.pending.Store(requestID, respCh)
	defer c.pending.Delete(requestID)

	timeout := c.parent.timeout()

	c.writeMu.Lock()
	if timeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(timeout))
	}
	err := writeFrame(conn, shardId, requestID, req)
	c.writeMu.Unlock()
	if err != nil {
		return nil, err
	}

	if timeout <= 0 {
		result := <-respCh
		return result.data, result.err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case result := <-respCh:
		return result.data, result.err
	case <-timer.C:
		return nil, fmt.Errorf("request timed out after %s", timeout)
	}
}

// isClosed reports whether the connection or the whole transport was closed
func (c *clientConnection) isClosed() bool {
	return c.closed.Load() || c.parent.stopping.Load()
}

// failPending completes all waiting requests with err
func (c *clientConnection) failPending(err error) {
	c.pending.Range(func(id uint64, ch chan responseResult) bool {
		select {
		case ch <- responseResult{err: err}:
		default:
		}
		return true
	})
}

// readResponses reads responses from conn and hands them to the waiting requests.
// If the connection breaks it is re-established until the transport is closed.
func (c *clientConnection) readResponses(conn net.Conn) {
	for {
		_, requestID, data, err := readFrame(conn, nil)
		if err != nil {
			c.failPending(fmt.Errorf("error reading response: %w", err))
			if c.isClosed() {
				return
			}

			Logger.Warningf("Connection to %s broke: %v", c.endpoint, err)
			conn = c.reconnect(conn)
			if conn == nil {
				return
			}
			continue
		}

		if respCh, found := c.pending.Load(requestID); found {
			respCh <- responseResult{data: data}
		} else {
			// the request timed out before the response arrived
			Logger.Debugf("Dropping response for unknown request ID %d", requestID)
		}
	}
}

// reconnect replaces the broken connection old and returns the new one.
// It returns nil if the transport was closed in the meantime.
func (c *clientConnection) reconnect(old net.Conn) net.Conn {
	c.mu.Lock()
	if c.conn == old {
		_ = old.Close()
		c.conn = nil
	}
	c.mu.Unlock()

	backoff := initialBackoff
	for !c.isClosed() {
		conn, err := c.parent.dial(c.endpoint)
		if err == nil {
			c.mu.Lock()
			if c.isClosed() {
				c.mu.Unlock()
				_ = conn.Close()
				return nil
			}
			c.conn = conn
			c.mu.Unlock()
			Logger.Infof("Reconnected to %s", c.endpoint)
			return conn
		}

		Logger.Debugf("Reconnect to %s failed: %v", c.endpoint, err)
		time.Sleep(backoff)
		backoff = min(backoff*2, maxBackoff)
	}
	return nil
}
