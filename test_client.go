package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/brinkworld/voxelcore/internal/logging"
	"github.com/brinkworld/voxelcore/internal/network"
	"github.com/brinkworld/voxelcore/internal/protocol"
	"github.com/brinkworld/voxelcore/internal/vec"
)

// test_client is a manual diagnostic tool for poking at a running
// server over the real wire protocol: it dials all three KCP channels,
// authenticates, and exercises a move/ping round trip while
// logging every packet it sends and receives.
func main() {
	fmt.Println("=== TEST CLIENT FOR PROTOCOL INSPECTION ===")

	logger, err := logging.NewLogger("test-client")
	if err != nil {
		log.Fatalf("create logger: %v", err)
	}
	defer logger.Close()

	config := network.DefaultChannelConfig()
	addr := "localhost:7777"

	reliable := dialChannel(addr, network.ChannelReliable, config, logger)
	defer reliable.Close()
	unreliable := dialChannel(addr, network.ChannelUnreliable, config, logger)
	defer unreliable.Close()
	chunk := dialChannel(addr, network.ChannelChunk, config, logger)
	defer chunk.Close()

	fmt.Println("connected all three channels, sending Authorization...")
	ctx := context.Background()
	if err := reliable.Send(ctx, protocol.Authorization{Token: "dev-token"}); err != nil {
		log.Fatalf("send Authorization: %v", err)
	}

	resp, err := reliable.Receive(ctx)
	if err != nil {
		log.Fatalf("receive authorization response: %v", err)
	}
	switch p := resp.(type) {
	case protocol.AuthorizationAccepted:
		fmt.Printf("✅ authenticated, object id %d\n", p.ObjectID)
	case protocol.Disconnect:
		log.Fatalf("❌ server rejected authorization: reason %d", p.Reason)
	default:
		log.Fatalf("❌ unexpected response tag %d", resp.Tag())
	}

	fmt.Println("\n=== sending PlayerMove over the unreliable channel ===")
	if err := unreliable.Send(ctx, protocol.PlayerMove{Pos: vec.Vec3{X: 10, Y: 64, Z: 10}}); err != nil {
		log.Printf("send PlayerMove: %v", err)
	}

	fmt.Println("=== sending Ping over the reliable channel ===")
	if err := reliable.Send(ctx, protocol.Ping{Code: 1}); err != nil {
		log.Printf("send Ping: %v", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if pkt, err := reliable.Receive(pingCtx); err != nil {
		log.Printf("receive Pong: %v", err)
	} else if pong, ok := pkt.(protocol.Pong); ok {
		fmt.Printf("✅ received Pong, code %d\n", pong.Code)
	}

	fmt.Println("\n=== TEST COMPLETE ===")
}

func dialChannel(addr string, kind network.ChannelKind, config *network.ChannelConfig, logger *logging.Logger) *network.KCPChannel {
	ch, err := network.DialKCPChannel(context.Background(), addr, kind, config, logger)
	if err != nil {
		log.Fatalf("dial %v channel: %v", kind, err)
	}
	return ch
}
