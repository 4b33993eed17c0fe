package store

import (
	"fmt"

	"github.com/lucid-kv/lucid/lib/db"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// DBFactory is a function type that creates a new db used by the store.
// This is used to abstract the creation of the db from the store implementation.
type DBFactory func() db.KVDB

// IStore is the capability contract of the key–value store.
// Domain outcomes (missing key, locked element, non numeric value) are reported
// through the boolean return values; the error is reserved for internal and
// cryptographic failures and is always a *Error.
//
// Elements returned by the store always hold the plaintext data.
type IStore interface {
	// Get returns the element for a key. The boolean return value indicates whether the key was found.
	Get(key string) (elem db.Element, loaded bool, err error)
	// Set stores value for key. If the key was absent a new unlocked element is created and
	// loaded is false. If the key exists, loaded is true and elem holds the element after the call;
	// a locked element keeps its data and is only touched (UpdatedAt and UpdateCount).
	Set(key string, value []byte) (elem db.Element, loaded bool, err error)
	// Delete removes a key regardless of its lock. Deleting a missing key is not an error.
	Delete(key string) (err error)
	// SetLock sets the lock flag of an existing key. It returns false if the key does not exist;
	// a missing key is never created.
	SetLock(key string, locked bool) (ok bool, err error)
	// Add adds addend to the number stored for key. It returns false if the key is missing,
	// locked or its value is not a valid number.
	Add(key string, addend float64) (ok bool, err error)
	// GetDBInfo returns metadata about the database underlying the store.
	// It is not guaranteed that all fields are filled in or that the information is up-to-date!
	GetDBInfo() (info db.DatabaseInfo, err error)
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is a custom error type that wraps a return code (of type RetCode)
// and an error message.
type Error struct {
	Code RetCode // The return code
	Msg  string  // The error message.
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("StoreError (code %s): %s", e.Code, e.Msg)
}

// NewError creates a new store error with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// Errorf creates a new store error with a formatted message.
func Errorf(code RetCode, format string, args ...any) *Error {
	return NewError(code, fmt.Sprintf(format, args...))
}

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCSuccess              RetCode = iota // 0: Command executed successfully.
	RetCInternalError                       // 1: Command failed due to an internal error.
	RetCUnsupportedOperation                // 2: Operation is not supported by the store.
	RetCInvalidOperation                    // 3: Invalid operation.
	RetCCryptoError                         // 4: Encrypting or decrypting a value failed.
)

func (c RetCode) String() string {
	switch c {
	case RetCSuccess:
		return "Success"
	case RetCInternalError:
		return "InternalError"
	case RetCUnsupportedOperation:
		return "UnsupportedOperation"
	case RetCInvalidOperation:
		return "InvalidOperation"
	case RetCCryptoError:
		return "CryptoError"
	default:
		return "Unknown"
	}
}
