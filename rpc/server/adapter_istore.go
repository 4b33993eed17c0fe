package server

import (
	"fmt"

	"github.com/lucid-kv/lucid/lib/store"
	"github.com/lucid-kv/lucid/rpc/common"
)

// NewIStoreServerAdapter creates an adapter translating messages into store.IStore calls
func NewIStoreServerAdapter() IRPCServerAdapter {
	return &iStoreServerAdapterImpl{}
}

type iStoreServerAdapterImpl struct{}

func (adapter *iStoreServerAdapterImpl) Handle(req *common.Message, s store.IStore) *common.Message {
	// Check for nil store
	if s == nil {
		return common.NewErrorResponse("handler: store is nil")
	}

	// Handle different message types
	switch req.MsgType {
	case common.MsgTKVGet:
		elem, ok, err := s.Get(req.Key)
		return common.NewGetResponse(elem, ok, err)
	case common.MsgTKVSet:
		elem, loaded, err := s.Set(req.Key, req.Value)
		return common.NewSetResponse(elem, loaded, err)
	case common.MsgTKVDelete:
		err := s.Delete(req.Key)
		return common.NewDeleteResponse(err)
	case common.MsgTKVSetLock:
		ok, err := s.SetLock(req.Key, req.Locked)
		return common.NewSetLockResponse(ok, err)
	case common.MsgTKVAdd:
		ok, err := s.Add(req.Key, req.Addend)
		return common.NewAddResponse(ok, err)
	case common.MsgTKVInfo:
		info, err := s.GetDBInfo()
		return common.NewInfoResponse(info, err)
	case common.MsgTCustom:
		return common.NewCustomResponse(nil, store.NewError(store.RetCUnsupportedOperation, "custom operations are not supported"))
	default:
		return common.NewErrorResponse(
			fmt.Sprintf("RPC IStoreAdapter - Unsupported message type: %s", req.MsgType),
		)
	}
}
