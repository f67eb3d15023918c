package network

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/brinkworld/voxelcore/internal/auth"
	"github.com/brinkworld/voxelcore/internal/entity"
	"github.com/brinkworld/voxelcore/internal/logging"
	"github.com/brinkworld/voxelcore/internal/protocol"
	"github.com/brinkworld/voxelcore/internal/world"
)

// Session is one authenticated client: its three bound channels and
// the GameObject it controls. Unauthenticated connections never reach
// this type — they're held in pendingSession until all three channels
// arrive and Authorization succeeds.
type Session struct {
	ObjectID world.GameObjectID

	Reliable   Channel
	Unreliable Channel
	Chunk      Channel

	logger *logging.Logger

	assembler *PartialAssembler

	dataMu sync.RWMutex
	data   entity.PlayerData

	transformMu sync.RWMutex
	transform   entity.Transform

	closeOnce sync.Once
}

// Data returns a copy of the session's player state.
func (s *Session) Data() entity.PlayerData {
	s.dataMu.RLock()
	defer s.dataMu.RUnlock()
	return s.data
}

// SetData replaces the session's player state.
func (s *Session) SetData(d entity.PlayerData) {
	s.dataMu.Lock()
	s.data = d
	s.dataMu.Unlock()
}

// Transform returns the session's last known position and orientation,
// as reported by its most recent PlayerMove/PlayerRotate packets — the
// eye point and look direction the interaction pipeline raycasts from.
func (s *Session) Transform() entity.Transform {
	s.transformMu.RLock()
	defer s.transformMu.RUnlock()
	return s.transform
}

// SetTransform replaces the session's tracked transform.
func (s *Session) SetTransform(t entity.Transform) {
	s.transformMu.Lock()
	s.transform = t
	s.transformMu.Unlock()
}

func newSession(id world.GameObjectID, logger *logging.Logger, data entity.PlayerData) *Session {
	return &Session{
		ObjectID:  id,
		data:      data,
		logger:    logger,
		assembler: NewPartialAssembler(30 * time.Second),
	}
}

// Close tears down all three of a session's channels.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		if s.Reliable != nil {
			s.Reliable.Close()
		}
		if s.Unreliable != nil {
			s.Unreliable.Close()
		}
		if s.Chunk != nil {
			s.Chunk.Close()
		}
	})
}

// SendReliable is a convenience wrapper used for state packets that
// must arrive and be ordered (spawns, despawns, authoritative
// BlockUpdate, inventory, chat, disconnect).
func (s *Session) SendReliable(ctx context.Context, pkt protocol.Packet) error {
	if s.Reliable == nil {
		return fmt.Errorf("network: session %d has no reliable channel", s.ObjectID)
	}
	return s.Reliable.Send(ctx, pkt)
}

// SendUnreliable is used for high-frequency, latest-value-wins traffic
// (position/rotation updates of other objects).
func (s *Session) SendUnreliable(ctx context.Context, pkt protocol.Packet) error {
	if s.Unreliable == nil {
		return s.SendReliable(ctx, pkt)
	}
	return s.Unreliable.Send(ctx, pkt)
}

// SendChunk dispatches a FullChunkUpdate over the chunk channel, always
// split into PartialChunkParts PartialChunkUpdate fragments.
func (s *Session) SendChunk(ctx context.Context, id uint32, full protocol.FullChunkUpdate) error {
	ch := s.Chunk
	if ch == nil {
		ch = s.Reliable
	}
	for _, part := range Split(id, full) {
		if err := ch.Send(ctx, part); err != nil {
			return err
		}
	}
	return nil
}

// pendingSession accumulates a client's three channels as they connect
// (order is not guaranteed — KCP sessions for different channels may
// race) and waits for an Authorization frame on the reliable channel.
type pendingSession struct {
	mu         sync.Mutex
	reliable   Channel
	unreliable Channel
	chunk      Channel
}

func (p *pendingSession) bind(kind ChannelKind, ch Channel) {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch kind {
	case ChannelReliable:
		p.reliable = ch
	case ChannelUnreliable:
		p.unreliable = ch
	case ChannelChunk:
		p.chunk = ch
	}
}

func (p *pendingSession) ready() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reliable != nil && p.unreliable != nil && p.chunk != nil
}

// authenticate validates pkt.Token against the user repository and
// mints a GameObjectID for the new session, grounded on
// game_authenticator.go's JWT verification path.
func authenticate(repo auth.UserRepository, pkt protocol.Authorization) (world.GameObjectID, entity.PlayerData, error) {
	playerID, valid, _ := auth.ValidateJWT(pkt.Token)
	if !valid {
		return 0, entity.PlayerData{}, fmt.Errorf("network: invalid authorization token")
	}

	username := fmt.Sprintf("player-%d", playerID)
	if repo != nil {
		if user, err := repo.GetUserByID(playerID); err == nil && user != nil {
			username = user.Username
		}
	}

	return world.GameObjectID(playerID), entity.PlayerData{Username: username}, nil
}
