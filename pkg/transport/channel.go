package transport

import (
	"net"
	"time"

	"github.com/peerlink/peerlink/pkg/crypto"
	"github.com/peerlink/peerlink/pkg/message"
	"github.com/peerlink/peerlink/pkg/peer"
)

// authenticator is the handshake surface shared by the server and client
// state machines.
type authenticator interface {
	Start(ch peer.Channel) error
	OnReceived(buffer []byte)
	OnWritten()
}

// handshakeChannel adapts a framed connection to the peer.Channel surface.
// It delivers inbound frames to the authenticator, flushes queued outbound
// payloads, applies AEAD contexts as the authenticator installs them, and
// records the terminal outcome.
//
// The channel owns timing: the handshake deadline is set on the
// connection, and a timeout surfaces as an external abort.
type handshakeChannel struct {
	auth   authenticator
	reader *message.StreamReader
	writer *message.StreamWriter

	pending [][]byte
	enc     *crypto.Encryptor
	dec     *crypto.Decryptor

	finished bool
	outcome  peer.Outcome
}

func newHandshakeChannel(conn net.Conn, auth authenticator) *handshakeChannel {
	return &handshakeChannel{
		auth:   auth,
		reader: message.NewStreamReader(conn),
		writer: message.NewStreamWriter(conn),
	}
}

// Send implements peer.Channel.
func (c *handshakeChannel) Send(payload []byte) {
	c.pending = append(c.pending, payload)
}

// SetEncryption implements peer.Channel.
func (c *handshakeChannel) SetEncryption(enc *crypto.Encryptor, dec *crypto.Decryptor) {
	c.enc = enc
	c.dec = dec
}

// Finish implements peer.Channel.
func (c *handshakeChannel) Finish(outcome peer.Outcome) {
	c.finished = true
	c.outcome = outcome
}

// flush writes queued payloads in order, acknowledging each so the
// authenticator can advance. New payloads queued from OnWritten are
// flushed in the same pass.
func (c *handshakeChannel) flush() error {
	for len(c.pending) > 0 {
		payload := c.pending[0]
		c.pending = c.pending[1:]

		if c.enc != nil {
			payload = c.enc.Seal(payload)
		}
		if err := c.writer.WriteFrame(payload); err != nil {
			return err
		}
		c.auth.OnWritten()
	}
	return nil
}

// run drives the handshake to a terminal outcome. A transport error or
// timeout returns with OutcomeNone; the caller must Close the
// authenticator either way.
func (c *handshakeChannel) run(conn net.Conn, timeout time.Duration) (peer.Outcome, error) {
	if timeout > 0 {
		if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
			return peer.OutcomeNone, err
		}
		defer conn.SetDeadline(time.Time{})
	}

	if err := c.auth.Start(c); err != nil {
		return peer.OutcomeNone, err
	}

	for !c.finished {
		if err := c.flush(); err != nil {
			return peer.OutcomeNone, err
		}
		if c.finished {
			break
		}

		frame, err := c.reader.ReadFrame()
		if err != nil {
			return peer.OutcomeNone, err
		}
		if c.dec != nil {
			frame, err = c.dec.Open(frame)
			if err != nil {
				return peer.OutcomeNone, err
			}
		}
		c.auth.OnReceived(frame)
	}

	// Drain anything the final receive queued before finishing.
	if err := c.flush(); err != nil {
		return peer.OutcomeNone, err
	}
	return c.outcome, nil
}
