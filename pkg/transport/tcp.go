// Package transport accepts peerlink connections and runs the
// authentication handshake on each before handing established sessions to
// the application.
package transport

import (
	"net"
	"sync"
	"time"

	"github.com/pion/logging"

	"github.com/peerlink/peerlink/pkg/peer"
	"github.com/peerlink/peerlink/pkg/session"
)

// DefaultHandshakeTimeout bounds a single handshake from accept to
// terminal outcome.
const DefaultHandshakeTimeout = 30 * time.Second

// SessionHandler receives an established, authenticated session. The
// handler owns the session and must Close it.
type SessionHandler func(sess *session.Secure)

// TCPConfig configures the TCP transport.
type TCPConfig struct {
	// Listener is an optional pre-existing listener. If nil, a new one is
	// created on ListenAddr.
	Listener net.Listener

	// ListenAddr is the address to listen on (e.g. ":8050"). Ignored if
	// Listener is provided; empty means an ephemeral port.
	ListenAddr string

	// Authenticator creates a configured ServerAuthenticator for each
	// accepted connection. Required.
	Authenticator func() (*peer.ServerAuthenticator, error)

	// Handler is called with each successfully established session.
	// Required.
	Handler SessionHandler

	// HandshakeTimeout bounds each handshake. Zero means
	// DefaultHandshakeTimeout.
	HandshakeTimeout time.Duration

	// LoggerFactory creates the transport's logger. Zero value: the pion
	// default factory.
	LoggerFactory logging.LoggerFactory
}

// TCP listens for peerlink clients and authenticates each connection.
type TCP struct {
	listener net.Listener
	config   TCPConfig
	log      logging.LeveledLogger

	closeCh chan struct{}
	wg      sync.WaitGroup

	mu      sync.Mutex
	started bool
	closed  bool
}

// NewTCP creates a TCP transport.
func NewTCP(config TCPConfig) (*TCP, error) {
	if config.Authenticator == nil {
		return nil, ErrNoAuthenticator
	}
	if config.Handler == nil {
		return nil, ErrNoHandler
	}
	if config.HandshakeTimeout == 0 {
		config.HandshakeTimeout = DefaultHandshakeTimeout
	}

	factory := config.LoggerFactory
	if factory == nil {
		factory = logging.NewDefaultLoggerFactory()
	}

	t := &TCP{
		listener: config.Listener,
		config:   config,
		log:      factory.NewLogger("transport-tcp"),
		closeCh:  make(chan struct{}),
	}

	if t.listener == nil {
		addr := config.ListenAddr
		if addr == "" {
			addr = ":0"
		}
		listener, err := net.Listen("tcp", addr)
		if err != nil {
			return nil, err
		}
		t.listener = listener
	}

	return t, nil
}

// Addr returns the listening address.
func (t *TCP) Addr() net.Addr {
	return t.listener.Addr()
}

// Start begins accepting connections.
func (t *TCP) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrClosed
	}
	if t.started {
		return ErrAlreadyStarted
	}
	t.started = true

	t.wg.Add(1)
	go t.acceptLoop()
	return nil
}

// Close stops accepting and waits for in-flight handshakes to finish.
func (t *TCP) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.mu.Unlock()

	close(t.closeCh)
	err := t.listener.Close()
	t.wg.Wait()
	return err
}

func (t *TCP) acceptLoop() {
	defer t.wg.Done()

	for {
		conn, err := t.listener.Accept()
		if err != nil {
			select {
			case <-t.closeCh:
				return
			default:
			}
			t.log.Warnf("accept failed: %v", err)
			return
		}

		t.wg.Add(1)
		go func() {
			defer t.wg.Done()
			t.handleConn(conn)
		}()
	}
}

// handleConn runs the handshake on one connection and hands off or tears
// down the result.
func (t *TCP) handleConn(conn net.Conn) {
	remote := conn.RemoteAddr()
	t.log.Infof("connection from %v", remote)

	auth, err := t.config.Authenticator()
	if err != nil {
		t.log.Errorf("authenticator setup failed: %v", err)
		conn.Close()
		return
	}
	defer auth.Close()

	ch := newHandshakeChannel(conn, auth)
	outcome, err := ch.run(conn, t.config.HandshakeTimeout)
	if err != nil {
		t.log.Warnf("handshake with %v aborted: %v", remote, err)
		conn.Close()
		return
	}
	if outcome != peer.OutcomeSuccess {
		t.log.Warnf("handshake with %v failed: %v", remote, outcome)
		conn.Close()
		return
	}

	t.log.Infof("session established with %v: user %q, kind %#x",
		remote, auth.UserName(), auth.SessionType())

	sess := session.New(session.Config{
		Conn:        conn,
		Reader:      ch.reader,
		Writer:      ch.writer,
		Encryptor:   ch.enc,
		Decryptor:   ch.dec,
		UserName:    auth.UserName(),
		SessionType: auth.SessionType(),
		PeerVersion: auth.PeerVersion(),
	})
	t.config.Handler(sess)
}
