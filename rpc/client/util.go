package client

import (
	"fmt"

	"github.com/lni/dragonboat/v4/logger"
	"github.com/lucid-kv/lucid/rpc/common"
	"github.com/lucid-kv/lucid/rpc/serializer"
	"github.com/lucid-kv/lucid/rpc/transport"
)

var (
	Logger = logger.GetLogger("client")
)

// rpcClientAdapter is a struct that stores all data needed for an implementation of an RPC client
type rpcClientAdapter struct {
	shardId    uint64
	config     common.ClientConfig
	transport  transport.IRPCClientTransport
	serializer serializer.IRPCSerializer
}

// invokeRPCRequest is a helper function used for all RPC Clients to send requests
// It takes a shard ID, a request message, a transport layer and a serializer as parameters
// It returns a response message and an error if any occurs
// This method also checks if the response is an error response and if the type of the response is the expected type
func invokeRPCRequest(shardId uint64, req *common.Message, transport transport.IRPCClientTransport, serializer serializer.IRPCSerializer) (*common.Message, error) {
	// Serialize the request
	reqBytes, err := serializer.Serialize(*req)
	if err != nil {
		return nil, fmt.Errorf("serializing %s request: %w", req.MsgType, err)
	}

	// Send the request
	respBytes, err := transport.Send(shardId, reqBytes)
	if err != nil {
		return nil, err
	}

	// Deserialize the response
	resp := &common.Message{}
	if err := serializer.Deserialize(respBytes, resp); err != nil {
		return nil, fmt.Errorf("deserializing %s response: %w", req.MsgType, err)
	}

	// Check if the response is an error response, store errors keep their code
	if err := resp.AsError(); err != nil {
		Logger.Debugf("%s request for shard %d failed: %v", req.MsgType, shardId, err)
		return nil, err
	}

	// Check if the type of the response is the expected type
	if resp.MsgType != req.MsgType {
		return nil, fmt.Errorf("unexpected message type: %s, expected %s", resp.MsgType, req.MsgType)
	}

	// Return the response
	return resp, nil
}
