// Package internal contains the shard type used by the maple engine.
package internal
