// Package cmd implements the command-line interface of lucid. It provides a
// hierarchical command structure with operations for running the server and
// interacting with it as a client.
//
// The package is organized into several subpackages:
//
//   - kv: Commands for key-value store operations (get, set, del, lock, unlock, incr, decr, info, perf)
//   - serve: Commands for starting and configuring the lucid server
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// All flags can also be set through LUCID_<FLAG> environment variables or a
// .env / .env.local file in the working directory.
//
// See lucid -help for a list of all commands.
package cmd
