// Package unix implements the Unix domain socket transport of the lucid RPC
// system on top of the framed protocol of the base package. The endpoint is
// the path of the socket file; a stale socket file is removed on Listen.
package unix
