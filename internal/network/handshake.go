package network

import (
	"errors"
	"io"
)

// Handshake tokens bind a freshly accepted KCP session to one of the
// three logical channels, standing in for QUIC's ALPN/stream
// negotiation (spec.md's "QUIC-like protocol" requirement over a
// kcp-go transport that has no stream multiplexing of its own).
const (
	handshakeReliable   = "Test1"
	handshakeUnreliable = "Test2"
	handshakeChunk      = "Test3"
)

// ChannelKind identifies which of the three logical channels a session
// was bound to.
type ChannelKind uint8

const (
	ChannelReliable ChannelKind = iota
	ChannelUnreliable
	ChannelChunk
)

func (k ChannelKind) String() string {
	switch k {
	case ChannelReliable:
		return "reliable"
	case ChannelUnreliable:
		return "unreliable"
	case ChannelChunk:
		return "chunk"
	default:
		return "unknown"
	}
}

// ErrChannelMismatch is returned when a session's first frame is not
// one of the three recognized handshake tokens.
var ErrChannelMismatch = errors.New("network: unrecognized channel handshake token")

// readHandshake reads the fixed 5-byte token every session opens with
// and resolves it to a ChannelKind.
func readHandshake(r io.Reader) (ChannelKind, error) {
	var buf [5]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	switch string(buf[:]) {
	case handshakeReliable:
		return ChannelReliable, nil
	case handshakeUnreliable:
		return ChannelUnreliable, nil
	case handshakeChunk:
		return ChannelChunk, nil
	default:
		return 0, ErrChannelMismatch
	}
}

// writeHandshake writes kind's token, the client-side counterpart of
// readHandshake.
func writeHandshake(w io.Writer, kind ChannelKind) error {
	var token string
	switch kind {
	case ChannelReliable:
		token = handshakeReliable
	case ChannelUnreliable:
		token = handshakeUnreliable
	case ChannelChunk:
		token = handshakeChunk
	default:
		return ErrChannelMismatch
	}
	_, err := w.Write([]byte(token))
	return err
}
