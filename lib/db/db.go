package db

import (
	"time"
)

// --------------------------------------------------------------------------
// Helper Types
// --------------------------------------------------------------------------

type Implementation string

const (
	ImplMaple Implementation = "maple"
)

type DatabaseInfo struct {
	SizeBytes int            `json:"size_bytes"`
	Keys      int            `json:"keys"`
	DbType    Implementation `json:"db_type"`
	Metadata  interface{}    `json:"metadata"`
}

// --------------------------------------------------------------------------
// Element (the stored record for one key)
// --------------------------------------------------------------------------

// Element is the record stored for a single key. It is plain data without behavior.
//
// Data holds the plaintext if encryption is disabled and the ciphertext otherwise.
// IV is set if and only if encryption is enabled; it is the initialization vector
// Data was encrypted with and is required to decrypt it again.
type Element struct {
	Data        []byte    `json:"data"`
	ContentTag  string    `json:"content_tag"`  // sniffed content type of the plaintext (metadata only)
	CreatedAt   time.Time `json:"created_at"`   // first write of the key
	UpdatedAt   time.Time `json:"updated_at"`   // last successful write or touch
	ExpireAt    time.Time `json:"expire_at"`    // recorded only, never enforced (zero = never)
	UpdateCount uint64    `json:"update_count"` // incremented once per successful write or touch
	Locked      bool      `json:"locked"`       // a locked element refuses data changes
	IV          []byte    `json:"iv,omitempty"` // per element random iv (nil without encryption)
}

// Clone returns a deep copy of the element. Slices of the copy never alias the original.
func (e Element) Clone() Element {
	c := e
	if e.Data != nil {
		c.Data = make([]byte, len(e.Data))
		copy(c.Data, e.Data)
	}
	if e.IV != nil {
		c.IV = make([]byte, len(e.IV))
		copy(c.IV, e.IV)
	}
	return c
}

// --------------------------------------------------------------------------
// Database Interface
// --------------------------------------------------------------------------

// ComputeFunc is called with the current element for a key (and whether it exists).
// It returns the element that should be stored and whether the key should be deleted instead.
// Returning delete=true for a key that does not exist keeps it absent.
type ComputeFunc func(old Element, loaded bool) (elem Element, delete bool)

// KVDB defines the raw concurrent container the store keeps its elements in.
// It knows nothing about encryption, locking or numbers; all of that is done by
// the store on top of Compute.
//
// Implementations must guarantee that ComputeFunc calls for the same key never
// run concurrently, while operations on different keys do not wait on a single
// global lock.
type KVDB interface {

	// --------------------------------------------------------------------------
	// Write Operations
	// --------------------------------------------------------------------------

	// Compute atomically reads, modifies and writes the element for key.
	// The function runs with exclusive access to the key and must not call back into the KVDB.
	// It returns a copy of the stored element and whether the key exists after the call.
	Compute(key string, fn ComputeFunc) (elem Element, ok bool)

	// Delete removes the element for key. Deleting a missing key is a no-op.
	Delete(key string)

	// --------------------------------------------------------------------------
	// Query Operations
	// --------------------------------------------------------------------------

	// Load returns a copy of the element for key.
	// The boolean return value indicates whether an element for the key was found.
	Load(key string) (elem Element, loaded bool)

	// Len returns the number of keys.
	Len() int

	// Range calls fn for every key until fn returns false.
	// fn receives copies; the iteration is not a consistent snapshot.
	Range(fn func(key string, elem Element) bool)

	// --------------------------------------------------------------------------
	// Metadata
	// --------------------------------------------------------------------------

	// GetInfo returns information about the database.
	GetInfo() (info DatabaseInfo)

	// Close releases all resources of the database.
	Close() (err error)
}
