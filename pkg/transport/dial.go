package transport

import (
	"fmt"
	"net"
	"time"

	"github.com/peerlink/peerlink/pkg/peer"
	"github.com/peerlink/peerlink/pkg/session"
)

// Dial connects to a peerlink server, runs the client side of the
// authentication handshake, and returns the established session.
// A non-success outcome is returned as an error.
func Dial(addr string, auth *peer.ClientAuthenticator, timeout time.Duration) (*session.Secure, error) {
	if timeout == 0 {
		timeout = DefaultHandshakeTimeout
	}

	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, err
	}

	sess, err := DialConn(conn, auth, timeout)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return sess, nil
}

// DialConn runs the client handshake over an existing connection.
func DialConn(conn net.Conn, auth *peer.ClientAuthenticator, timeout time.Duration) (*session.Secure, error) {
	defer auth.Close()

	ch := newHandshakeChannel(conn, auth)
	outcome, err := ch.run(conn, timeout)
	if err != nil {
		return nil, fmt.Errorf("transport: handshake aborted: %w", err)
	}
	if outcome != peer.OutcomeSuccess {
		return nil, fmt.Errorf("transport: handshake failed: %s", outcome)
	}

	return session.New(session.Config{
		Conn:        conn,
		Reader:      ch.reader,
		Writer:      ch.writer,
		Encryptor:   ch.enc,
		Decryptor:   ch.dec,
		PeerVersion: auth.PeerVersion(),
	}), nil
}
