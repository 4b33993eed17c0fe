package base

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
)

const (
	frameHeaderSize = 20               // shardId u64 + requestId u64 + length u32
	maxFrameSize    = 64 * 1024 * 1024 // upper bound for a single payload
)

// writeFrame writes a frame to the connection with the format:
// - 8 bytes: shardId (uint64, big endian)
// - 8 bytes: requestID (uint64, big endian)
// - 4 bytes: data length (uint32, big endian)
// - N bytes: data payload
func writeFrame(conn net.Conn, shardID uint64, requestID uint64, data []byte) error {
	if len(data) > maxFrameSize {
		return fmt.Errorf("frame of %d bytes exceeds the limit of %d bytes", len(data), maxFrameSize)
	}

	header := make([]byte, frameHeaderSize)
	binary.BigEndian.PutUint64(header[:8], shardID)
	binary.BigEndian.PutUint64(header[8:16], requestID)
	binary.BigEndian.PutUint32(header[16:20], uint32(len(data)))

	// header and payload in one write
	b := net.Buffers{header, data}
	_, err := b.WriteTo(conn)
	return err
}

// readFrame reads a frame from r. buf is used for the payload if it is large
// enough, otherwise a new slice is allocated. The returned payload aliases buf.
func readFrame(r io.Reader, buf []byte) (shardID uint64, requestID uint64, data []byte, err error) {
	var header [frameHeaderSize]byte
	if _, err = io.ReadFull(r, header[:]); err != nil {
		return 0, 0, nil, err
	}

	shardID = binary.BigEndian.Uint64(header[:8])
	requestID = binary.BigEndian.Uint64(header[8:16])
	contentLength := int(binary.BigEndian.Uint32(header[16:20]))

	if contentLength > maxFrameSize {
		return shardID, requestID, nil, fmt.Errorf("frame of %d bytes exceeds the limit of %d bytes", contentLength, maxFrameSize)
	}

	if cap(buf) < contentLength {
		buf = make([]byte, contentLength)
	}
	data = buf[:contentLength]

	if _, err = io.ReadFull(r, data); err != nil {
		return shardID, requestID, nil, err
	}
	return shardID, requestID, data, nil
}
