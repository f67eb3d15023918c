// Package network implements the chunk-streaming transport (C6): three
// logical KCP channels per client — reliable, unreliable and chunk —
// bound by a short handshake token, carrying protocol.Packet frames.
package network

import (
	"context"
	"time"

	"github.com/brinkworld/voxelcore/internal/protocol"
)

// ConnectionStats is a KCP session's point-in-time traffic counters.
type ConnectionStats struct {
	PacketsSent     uint64
	PacketsReceived uint64
	BytesSent       uint64
	BytesReceived   uint64
	LastActivity    time.Time
	Connected       bool
	RemoteAddr      string
}

// ChannelConfig tunes one logical channel's KCP session and buffering.
type ChannelConfig struct {
	BufferSize int
	Timeout    time.Duration
	KeepAlive  time.Duration
}

// DefaultChannelConfig returns sane defaults for a game-traffic channel.
func DefaultChannelConfig() *ChannelConfig {
	return &ChannelConfig{
		BufferSize: 1024,
		Timeout:    30 * time.Second,
		KeepAlive:  10 * time.Second,
	}
}

// Channel is a single logical KCP connection carrying protocol packets
// in one direction of framing (both directions share the session).
type Channel interface {
	Send(ctx context.Context, pkt protocol.Packet) error
	Receive(ctx context.Context) (protocol.Packet, error)
	Close() error
	IsConnected() bool
	RemoteAddr() string
	Stats() ConnectionStats
}
