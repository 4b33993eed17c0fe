// Package tcp implements the TCP socket transport of the lucid RPC system on
// top of the framed protocol of the base package.
//
// Connections disable Nagle's algorithm and enable keep-alive. The default
// server buffer size is 512 KB; requests larger than that allocate.
package tcp
