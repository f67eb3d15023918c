package network

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/xtaci/kcp-go/v5"

	"github.com/brinkworld/voxelcore/internal/auth"
	"github.com/brinkworld/voxelcore/internal/logging"
	"github.com/brinkworld/voxelcore/internal/protocol"
	"github.com/brinkworld/voxelcore/internal/world"
)

// Server accepts KCP sessions on one address, binds each one to a
// logical channel via its handshake token, groups a client's three
// channels by remote IP (a single client machine opens all three to
// the same server; port is not used for correlation since each
// channel dials its own ephemeral local port), and promotes the group
// to an authenticated Session once Authorization succeeds on the
// reliable channel.
type Server struct {
	addr   string
	config *ChannelConfig
	logger *logging.Logger
	repo   auth.UserRepository

	Handler *Handler

	listener *kcp.Listener
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup

	pendingMu sync.Mutex
	pending   map[string]*pendingSession

	sessionsMu sync.RWMutex
	sessions   map[world.GameObjectID]*Session
}

// NewServer constructs a Server. Start begins accepting connections.
func NewServer(addr string, repo auth.UserRepository, logger *logging.Logger) *Server {
	return &Server{
		addr:     addr,
		config:   DefaultChannelConfig(),
		logger:   logger,
		repo:     repo,
		pending:  make(map[string]*pendingSession),
		sessions: make(map[world.GameObjectID]*Session),
	}
}

// Start opens the KCP listener and begins accepting sessions.
func (s *Server) Start() error {
	listener, err := kcp.ListenWithOptions(s.addr, nil, 0, 0)
	if err != nil {
		return fmt.Errorf("network: listen on %s: %w", s.addr, err)
	}
	s.listener = listener
	s.ctx, s.cancel = context.WithCancel(context.Background())

	s.wg.Add(1)
	go s.acceptLoop()

	s.logger.Info("chunk-streaming server listening on %s", s.addr)
	return nil
}

// Stop closes the listener, every pending/established session, and
// waits for the accept loop to exit.
func (s *Server) Stop() error {
	if s.cancel != nil {
		s.cancel()
	}
	if s.listener != nil {
		s.listener.Close()
	}
	s.wg.Wait()

	s.sessionsMu.Lock()
	for _, sess := range s.sessions {
		sess.Close()
	}
	s.sessionsMu.Unlock()
	return nil
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.AcceptKCP()
		if err != nil {
			select {
			case <-s.ctx.Done():
				return
			default:
				s.logger.Warn("accept error: %v", err)
				continue
			}
		}
		go s.handleConn(conn)
	}
}

func (s *Server) remoteKey(conn *kcp.UDPSession) string {
	host, _, err := net.SplitHostPort(conn.RemoteAddr().String())
	if err != nil {
		return conn.RemoteAddr().String()
	}
	return host
}

func (s *Server) handleConn(conn *kcp.UDPSession) {
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	kind, err := readHandshake(conn)
	conn.SetReadDeadline(time.Time{})
	if err != nil {
		s.logger.Warn("handshake failed from %s: %v", conn.RemoteAddr(), err)
		conn.Close()
		return
	}

	ch, err := NewKCPChannelFromConn(conn, kind, s.config, s.logger)
	if err != nil {
		s.logger.Error("wrap channel: %v", err)
		conn.Close()
		return
	}

	key := s.remoteKey(conn)
	s.pendingMu.Lock()
	p, exists := s.pending[key]
	if !exists {
		p = &pendingSession{}
		s.pending[key] = p
	}
	s.pendingMu.Unlock()
	p.bind(kind, ch)

	if kind != ChannelReliable {
		return
	}
	s.completeHandshake(key, p, ch)
}

// completeHandshake waits for the Authorization frame on the reliable
// channel, validates it, and promotes the pending group into a live
// Session once all three channels have arrived.
func (s *Server) completeHandshake(key string, p *pendingSession, reliable Channel) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pkt, err := reliable.Receive(ctx)
	if err != nil {
		s.logger.Warn("no authorization frame from %s: %v", key, err)
		reliable.Send(context.Background(), protocol.Disconnect{Reason: protocol.DisconnectAuthRejected})
		reliable.Close()
		return
	}
	authReq, ok := pkt.(protocol.Authorization)
	if !ok {
		s.logger.Warn("expected Authorization from %s, got tag %d", key, pkt.Tag())
		reliable.Send(context.Background(), protocol.Disconnect{Reason: protocol.DisconnectProtocolError})
		reliable.Close()
		return
	}

	id, playerData, err := authenticate(s.repo, authReq)
	if err != nil {
		s.logger.Warn("authorization rejected for %s: %v", key, err)
		reliable.Send(context.Background(), protocol.Disconnect{Reason: protocol.DisconnectAuthRejected})
		reliable.Close()
		return
	}

	deadline := time.Now().Add(10 * time.Second)
	for !p.ready() && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	if !p.ready() {
		s.logger.Warn("session %d timed out waiting for all three channels", id)
		reliable.Close()
		return
	}

	sess := newSession(id, s.logger, playerData)
	sess.Reliable = p.reliable
	sess.Unreliable = p.unreliable
	sess.Chunk = p.chunk

	s.pendingMu.Lock()
	delete(s.pending, key)
	s.pendingMu.Unlock()

	s.sessionsMu.Lock()
	s.sessions[id] = sess
	s.sessionsMu.Unlock()

	sess.SendReliable(context.Background(), protocol.AuthorizationAccepted{ObjectID: uint64(id)})
	s.logger.Info("session %d (%s) authenticated from %s", id, playerData.Username, key)

	if s.Handler != nil {
		s.Handler.OnSessionStart(sess, playerData)
	}
	s.runSession(sess)
}

// runSession drains a session's reliable, unreliable and chunk
// channels until the client disconnects or any one channel errors.
func (s *Server) runSession(sess *Session) {
	defer s.endSession(sess)

	var wg sync.WaitGroup
	pump := func(ch Channel) {
		defer wg.Done()
		for {
			pkt, err := ch.Receive(context.Background())
			if err != nil {
				return
			}
			if s.Handler != nil {
				s.Handler.Dispatch(sess, pkt)
			}
			if _, isDisconnect := pkt.(protocol.Disconnect); isDisconnect {
				return
			}
		}
	}
	wg.Add(3)
	go pump(sess.Reliable)
	go pump(sess.Unreliable)
	go pump(sess.Chunk)
	wg.Wait()
}

func (s *Server) endSession(sess *Session) {
	s.sessionsMu.Lock()
	delete(s.sessions, sess.ObjectID)
	s.sessionsMu.Unlock()
	sess.Close()
	if s.Handler != nil {
		s.Handler.OnSessionEnd(sess)
	}
	s.logger.Info("session %d ended", sess.ObjectID)
}

// Broadcast sends pkt over the reliable channel of every session
// except skip (0 to include everyone).
func (s *Server) Broadcast(ctx context.Context, pkt protocol.Packet, skip world.GameObjectID) {
	s.sessionsMu.RLock()
	defer s.sessionsMu.RUnlock()
	for id, sess := range s.sessions {
		if id == skip {
			continue
		}
		if err := sess.SendReliable(ctx, pkt); err != nil {
			s.logger.Warn("broadcast to %d failed: %v", id, err)
		}
	}
}

// Session looks up a connected session by object id.
func (s *Server) Session(id world.GameObjectID) (*Session, bool) {
	s.sessionsMu.RLock()
	defer s.sessionsMu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}
