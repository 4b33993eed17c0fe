package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"runtime"
	"sort"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/lucid-kv/lucid/lib/db"
	"github.com/lucid-kv/lucid/lib/db/engines/maple"
	"github.com/lucid-kv/lucid/lib/store"
	"github.com/lucid-kv/lucid/lib/store/mstore"
	"github.com/lucid-kv/lucid/rpc/common"
	"github.com/lucid-kv/lucid/rpc/serializer"
	"github.com/lucid-kv/lucid/rpc/transport"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("server")

// serverShard is a struct that represents a shard in the RPC server
// It contains the store it encapsulates, the adapter that handles
// requests for the store and the metrics of the store
type serverShard struct {
	Store   store.IStore
	Adapter IRPCServerAdapter
	Metrics *metrics.Set
}

// RPCServer serves one memory store per configured shard over a transport
type RPCServer struct {
	config     common.ServerConfig
	transport  transport.IRPCServerTransport
	serializer serializer.IRPCSerializer
	shards     *xsync.MapOf[uint64, serverShard]

	mu            sync.Mutex
	metricsServer *http.Server
}

// NewRPCServer creates a new RPC server
// It takes a config, transport and serializer as parameters
//
// Usage:
//
//	s := server.NewRPCServer(
//		config,
//		http.NewHttpServerTransport(),
//		serializer.NewJSONSerializer(),
//	)
//
//	if err := s.Serve(); err != nil {
//		panic(err)
//	}
func NewRPCServer(
	config common.ServerConfig,
	transport transport.IRPCServerTransport,
	serializer serializer.IRPCSerializer,
) *RPCServer {
	// https://github.com/golang/go/issues/17393
	if runtime.GOOS == "darwin" {
		signal.Ignore(syscall.Signal(0xd))
	}

	Logger.Infof("Created RPC Server")
	Logger.Infof("%s", config.String())

	return &RPCServer{
		config:     config,
		transport:  transport,
		serializer: serializer,
		shards:     xsync.NewMapOf[uint64, serverShard](),
	}
}

// handle decodes a request, lets the shard's adapter process it and encodes the response
func (s *RPCServer) handle(shardId uint64, req []byte) []byte {
	var msg common.Message
	var respMsg *common.Message

	// Get appropriate shard
	shard, ok := s.shards.Load(shardId)

	// Case shard does not exist -> error
	if !ok {
		respMsg = common.NewErrorResponse(fmt.Sprintf("shard %d not found", shardId))
	} else if err := s.serializer.Deserialize(req, &msg); err != nil {
		respMsg = common.NewErrorResponse(fmt.Sprintf("failed to deserialize request: %s", err))
	} else {
		// Let the adapter handle the request
		respMsg = shard.Adapter.Handle(&msg, shard.Store)
	}

	// Return result
	val, err := s.serializer.Serialize(*respMsg)
	if err != nil {
		Logger.Errorf("failed to serialize response: %v", err)
		val, _ = s.serializer.Serialize(*common.NewErrorResponse(fmt.Sprintf("failed to serialize response: %s", err)))
	}
	return val
}

func (s *RPCServer) init() error {
	if err := s.config.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// All shards share one cipher
	cipher, err := s.config.NewCipher()
	if err != nil {
		return fmt.Errorf("failed to create cipher: %w", err)
	}

	// Function to create a new database instance
	dbFactory := func() db.KVDB {
		return maple.NewMapleDB(&maple.DBOptions{NumShards: s.config.DBShards})
	}

	// CREATE SHARDS

	/*
		Note: A single RPC Server can serve any number of shards. Each shard is
		an independent memory store with its own keyspace and metrics.
	*/

	for _, shardId := range s.config.Shards {
		name := strconv.FormatUint(shardId, 10)
		set := metrics.NewSet()
		s.shards.Store(shardId, serverShard{
			Store: mstore.NewMemoryStore(dbFactory, &mstore.Options{
				Cipher:  cipher,
				Name:    name,
				Metrics: set,
			}),
			Adapter: NewIStoreServerAdapter(),
			Metrics: set,
		})
		Logger.Infof("created memory store for shard %d (encryption=%t)", shardId, cipher.Enabled())
	}

	Logger.Infof("lucid setup completed successfully")

	// Configure the transport layer
	s.transport.RegisterHandler(s.handle)

	return nil
}

// --------------------------------------------------------------------------
// Metrics
// --------------------------------------------------------------------------

// writeMetrics writes the metrics of all shards in Prometheus text format,
// followed by the process metrics
func (s *RPCServer) writeMetrics(w io.Writer) {
	ids := make([]uint64, 0, s.shards.Size())
	s.shards.Range(func(id uint64, _ serverShard) bool {
		ids = append(ids, id)
		return true
	})
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		if shard, ok := s.shards.Load(id); ok {
			shard.Metrics.WritePrometheus(w)
		}
	}
	metrics.WritePrometheus(w, true)
}

func (s *RPCServer) metricsHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /metrics", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		s.writeMetrics(w)
	})
	return mux
}

func (s *RPCServer) serveMetrics(srv *http.Server) {
	Logger.Infof("serving metrics on http://%s/metrics", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		Logger.Errorf("metrics endpoint failed: %v", err)
	}
}

// --------------------------------------------------------------------------
// Lifecycle
// --------------------------------------------------------------------------

// Serve starts the RPC server
// This function will also initialize the shards, start the metrics endpoint
// (if configured) and start the transport layer. It blocks until the server is closed.
func (s *RPCServer) Serve() error {
	if err := s.init(); err != nil {
		return err
	}
	if s.config.MetricsEndpoint != "" {
		srv := &http.Server{
			Addr:              s.config.MetricsEndpoint,
			Handler:           s.metricsHandler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		s.mu.Lock()
		s.metricsServer = srv
		s.mu.Unlock()
		go s.serveMetrics(srv)
	}
	return s.transport.Listen(s.config)
}

// Close stops the transport and the metrics endpoint
func (s *RPCServer) Close() error {
	err := s.transport.Close()

	s.mu.Lock()
	srv := s.metricsServer
	s.mu.Unlock()
	if srv != nil {
		if mErr := srv.Close(); mErr != nil && err == nil {
			err = mErr
		}
	}
	return err
}
