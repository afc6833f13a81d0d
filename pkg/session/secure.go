// Package session holds the state of an established peerlink session:
// the authenticated identity, the accepted session kind, and the AEAD
// contexts protecting traffic in each direction.
package session

import (
	"errors"
	"net"
	"sync"

	"github.com/peerlink/peerlink/pkg/crypto"
	"github.com/peerlink/peerlink/pkg/message"
	"github.com/peerlink/peerlink/pkg/proto"
)

// Errors for secure sessions.
var (
	ErrNotEncrypted = errors.New("session: no encryption installed")
	ErrClosed       = errors.New("session: closed")
)

// Secure is an established session. Reads and writes are framed and, when
// the handshake installed encryption, AEAD-protected. Writes are safe for
// concurrent use; reads must come from a single goroutine.
type Secure struct {
	conn   net.Conn
	reader *message.StreamReader
	writer *message.StreamWriter

	writeMu sync.Mutex
	enc     *crypto.Encryptor
	dec     *crypto.Decryptor

	// Identity established by the handshake.
	userName    string
	sessionType uint32
	peerVersion proto.Version

	closed bool
}

// Config carries the handshake results into a secure session.
type Config struct {
	Conn        net.Conn
	Reader      *message.StreamReader
	Writer      *message.StreamWriter
	Encryptor   *crypto.Encryptor
	Decryptor   *crypto.Decryptor
	UserName    string
	SessionType uint32
	PeerVersion proto.Version
}

// New wraps an authenticated connection.
func New(config Config) *Secure {
	return &Secure{
		conn:        config.Conn,
		reader:      config.Reader,
		writer:      config.Writer,
		enc:         config.Encryptor,
		dec:         config.Decryptor,
		userName:    config.UserName,
		sessionType: config.SessionType,
		peerVersion: config.PeerVersion,
	}
}

// UserName returns the authenticated username, empty for anonymous
// sessions.
func (s *Secure) UserName() string {
	return s.userName
}

// SessionType returns the accepted session kind bit.
func (s *Secure) SessionType() uint32 {
	return s.sessionType
}

// PeerVersion returns the peer's reported software version.
func (s *Secure) PeerVersion() proto.Version {
	return s.peerVersion
}

// Encrypted reports whether traffic is AEAD-protected.
func (s *Secure) Encrypted() bool {
	return s.enc != nil && s.dec != nil
}

// WriteMessage seals and frames one message.
func (s *Secure) WriteMessage(payload []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if s.enc != nil {
		payload = s.enc.Seal(payload)
	}
	return s.writer.WriteFrame(payload)
}

// ReadMessage reads and opens one message.
func (s *Secure) ReadMessage() ([]byte, error) {
	payload, err := s.reader.ReadFrame()
	if err != nil {
		return nil, err
	}
	if s.dec != nil {
		return s.dec.Open(payload)
	}
	return payload, nil
}

// Close shuts the underlying connection.
func (s *Secure) Close() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.conn.Close()
}
