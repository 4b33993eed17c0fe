package client

import (
	"github.com/lucid-kv/lucid/lib/db"
	"github.com/lucid-kv/lucid/lib/store"
	"github.com/lucid-kv/lucid/rpc/common"
	"github.com/lucid-kv/lucid/rpc/serializer"
	"github.com/lucid-kv/lucid/rpc/transport"
)

// NewRPCStore creates a new RPC store
// The function takes a shard ID, a config, a transport and a serializer as parameters
// It returns a store.IStore and an error
func NewRPCStore(
	shardId uint64,
	config common.ClientConfig,
	transport transport.IRPCClientTransport,
	serializer serializer.IRPCSerializer,
) (store.IStore, error) {

	// Connect the transport
	err := transport.Connect(config)
	if err != nil {
		return nil, err
	}

	// Create a new RPC store
	s := rpcStore{
		rpcClientAdapter{
			shardId:    shardId,
			config:     config,
			transport:  transport,
			serializer: serializer,
		},
	}

	// Return the RPC store
	return &s, nil
}

type rpcStore struct {
	rpcClientAdapter
}

// --------------------------------------------------------------------------
// Interface Methods (docu see the store package in interface.go)
// --------------------------------------------------------------------------

func (i *rpcStore) Get(key string) (elem db.Element, loaded bool, err error) {
	req := common.NewGetRequest(key)
	resp, err := invokeRPCRequest(i.shardId, req, i.transport, i.serializer)
	if err != nil || !resp.Ok {
		return db.Element{}, false, err
	}
	return common.ElementFromMessage(resp), true, nil
}

func (i *rpcStore) Set(key string, value []byte) (elem db.Element, loaded bool, err error) {
	req := common.NewSetRequest(key, value)
	resp, err := invokeRPCRequest(i.shardId, req, i.transport, i.serializer)
	if err != nil || !resp.Ok {
		return db.Element{}, false, err
	}
	return common.ElementFromMessage(resp), true, nil
}

func (i *rpcStore) Delete(key string) (err error) {
	req := common.NewDeleteRequest(key)
	_, err = invokeRPCRequest(i.shardId, req, i.transport, i.serializer)
	return err
}

func (i *rpcStore) SetLock(key string, locked bool) (ok bool, err error) {
	req := common.NewSetLockRequest(key, locked)
	resp, err := invokeRPCRequest(i.shardId, req, i.transport, i.serializer)
	if err != nil {
		return false, err
	}
	return resp.Ok, nil
}

func (i *rpcStore) Add(key string, addend float64) (ok bool, err error) {
	req := common.NewAddRequest(key, addend)
	resp, err := invokeRPCRequest(i.shardId, req, i.transport, i.serializer)
	if err != nil {
		return false, err
	}
	return resp.Ok, nil
}

func (i *rpcStore) GetDBInfo() (db.DatabaseInfo, error) {
	req := common.NewInfoRequest()
	resp, err := invokeRPCRequest(i.shardId, req, i.transport, i.serializer)
	if err != nil {
		return db.DatabaseInfo{}, err
	}
	return common.InfoFromMessage(resp)
}
