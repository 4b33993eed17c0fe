package internal

import (
	"github.com/lucid-kv/lucid/lib/db"
	"github.com/puzpuzpuz/xsync/v3"
)

// --------------------------------------------------------------------------
// Shard Type (partition of the database)
// --------------------------------------------------------------------------

// Shard represents a partition of the key space.
// Each shard is an independent xsync map, so keys in different shards never contend.
type Shard struct {
	Data *xsync.MapOf[string, db.Element]
}

// NewShard creates a new, empty shard
func NewShard() *Shard {
	return &Shard{
		Data: xsync.NewMapOf[string, db.Element](),
	}
}
