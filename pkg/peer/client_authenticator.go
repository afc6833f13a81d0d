package peer

import (
	"io"
	"math/big"

	"github.com/pion/logging"

	"github.com/peerlink/peerlink/pkg/crypto"
	"github.com/peerlink/peerlink/pkg/crypto/srp"
	"github.com/peerlink/peerlink/pkg/proto"
)

// clientState is the client state machine position, mirroring the
// server's states from the other side of the wire.
type clientState int

const (
	clientStateStopped clientState = iota
	clientStateSendClientHello
	clientStateReadServerHello
	clientStateSendIdentify
	clientStateReadServerKeyExchange
	clientStateSendClientKeyExchange
	clientStateReadSessionChallenge
	clientStateSendSessionResponse
	clientStateFinished
)

// String returns the state name.
func (s clientState) String() string {
	switch s {
	case clientStateStopped:
		return "Stopped"
	case clientStateSendClientHello:
		return "SendClientHello"
	case clientStateReadServerHello:
		return "ReadServerHello"
	case clientStateSendIdentify:
		return "SendIdentify"
	case clientStateReadServerKeyExchange:
		return "ReadServerKeyExchange"
	case clientStateSendClientKeyExchange:
		return "SendClientKeyExchange"
	case clientStateReadSessionChallenge:
		return "ReadSessionChallenge"
	case clientStateSendSessionResponse:
		return "SendSessionResponse"
	case clientStateFinished:
		return "Finished"
	default:
		return "Unknown"
	}
}

// ClientConfig configures a ClientAuthenticator.
type ClientConfig struct {
	// Identify selects SRP or anonymous authentication.
	Identify proto.IdentifyMethod

	// Username and Password for the SRP method.
	Username string
	Password string

	// SessionType is the single session kind bit to request.
	SessionType uint32

	// PeerPublicKey is the server's long-term public key. When set, the
	// client starts envelope key agreement in ClientHello. Required for
	// the anonymous method.
	PeerPublicKey []byte

	// Info is the build and host information sent in SessionResponse.
	// Zero value: LocalSessionInfo().
	Info SessionInfo

	// LoggerFactory creates the authenticator's logger. Zero value: the
	// pion default factory.
	LoggerFactory logging.LoggerFactory

	// Rand overrides the randomness source. Zero value: the OS CSPRNG.
	// Tests only.
	Rand io.Reader
}

// ClientAuthenticator runs the client side of the handshake. It exists so
// that a peerlink client and the server round-trip tests share one
// conforming implementation of the wire behavior.
type ClientAuthenticator struct {
	state   clientState
	outcome Outcome
	ch      Channel

	config ClientConfig
	info   SessionInfo
	log    logging.LeveledLogger
	rand   io.Reader

	keyPair    *crypto.KeyPair
	encryption proto.Encryption
	encryptIV  []byte
	decryptIV  []byte
	sessionKey []byte

	sessionTypes uint32
	peerVersion  proto.Version
}

// NewClient creates a client authenticator in the stopped state.
func NewClient(config ClientConfig) (*ClientAuthenticator, error) {
	if config.Identify == proto.IdentifyAnonymous && len(config.PeerPublicKey) == 0 {
		return nil, ErrNoKeyPair
	}

	info := config.Info
	if info == (SessionInfo{}) {
		info = LocalSessionInfo()
	}

	factory := config.LoggerFactory
	if factory == nil {
		factory = logging.NewDefaultLoggerFactory()
	}

	return &ClientAuthenticator{
		state:  clientStateStopped,
		config: config,
		info:   info,
		log:    factory.NewLogger("peer-auth"),
		rand:   config.Rand,
	}, nil
}

// Start sends ClientHello on the channel.
func (a *ClientAuthenticator) Start(ch Channel) error {
	if a.state != clientStateStopped {
		return ErrNotStopped
	}
	a.ch = ch

	hello := &proto.ClientHello{
		Encryption: proto.EncryptionAES256GCM | proto.EncryptionChaCha20Poly1305,
		Identify:   a.config.Identify,
	}

	if len(a.config.PeerPublicKey) != 0 {
		keyPair, err := crypto.GenerateKeyPair(a.rand)
		if err != nil {
			return err
		}
		iv, err := crypto.RandomBytes(a.rand, IVSize)
		if err != nil {
			return err
		}
		a.keyPair = keyPair
		a.encryptIV = iv

		hello.PublicKey = keyPair.PublicKey()
		hello.IV = iv
	}

	a.state = clientStateSendClientHello
	a.ch.Send(hello.Encode())
	return nil
}

// OnReceived parses the payload expected in the current state.
func (a *ClientAuthenticator) OnReceived(buffer []byte) {
	switch a.state {
	case clientStateReadServerHello:
		a.onServerHello(buffer)
	case clientStateReadServerKeyExchange:
		a.onServerKeyExchange(buffer)
	case clientStateReadSessionChallenge:
		a.onSessionChallenge(buffer)
	case clientStateFinished:
		// Late delivery after finish; drop.
	default:
		a.log.Errorf("received payload in non-read state %v", a.state)
		a.finish(OutcomeUnknownError)
	}
}

// OnWritten advances the state machine after a flushed payload.
func (a *ClientAuthenticator) OnWritten() {
	switch a.state {
	case clientStateSendClientHello:
		a.log.Debugf("sent: ClientHello")
		a.state = clientStateReadServerHello

	case clientStateSendIdentify:
		a.log.Debugf("sent: SrpIdentify")
		a.state = clientStateReadServerKeyExchange

	case clientStateSendClientKeyExchange:
		a.log.Debugf("sent: SrpClientKeyExchange")
		// The server switches to the SRP-derived key after it receives
		// this message; mirror it now that the payload is on the wire.
		if !a.installEncryption() {
			return
		}
		a.state = clientStateReadSessionChallenge

	case clientStateSendSessionResponse:
		a.log.Debugf("sent: SessionResponse")
		a.finish(OutcomeSuccess)

	case clientStateFinished:
	default:
		a.log.Errorf("write completion in non-send state %v", a.state)
		a.finish(OutcomeUnknownError)
	}
}

// Finished reports whether the handshake reached a terminal outcome.
func (a *ClientAuthenticator) Finished() bool {
	return a.state == clientStateFinished
}

// Outcome returns the terminal outcome, or OutcomeNone while in progress.
func (a *ClientAuthenticator) Outcome() Outcome {
	return a.outcome
}

// SessionTypes returns the kinds advertised by the server's challenge.
func (a *ClientAuthenticator) SessionTypes() uint32 {
	return a.sessionTypes
}

// PeerVersion returns the server software version from SessionChallenge.
func (a *ClientAuthenticator) PeerVersion() proto.Version {
	return a.peerVersion
}

// Close wipes all secret material. Idempotent.
func (a *ClientAuthenticator) Close() {
	crypto.Zeroize(a.sessionKey)
	a.sessionKey = nil
	if a.keyPair != nil {
		a.keyPair.Close()
	}
}

func (a *ClientAuthenticator) onServerHello(buffer []byte) {
	a.log.Debugf("received: ServerHello")

	hello, err := proto.DecodeServerHello(buffer)
	if err != nil {
		a.finish(OutcomeProtocolError)
		return
	}

	switch hello.Encryption {
	case proto.EncryptionAES256GCM, proto.EncryptionChaCha20Poly1305:
	default:
		a.finish(OutcomeProtocolError)
		return
	}
	a.encryption = hello.Encryption

	if a.keyPair != nil {
		if len(hello.IV) != 0 {
			if len(hello.IV) != IVSize {
				a.finish(OutcomeProtocolError)
				return
			}
			a.decryptIV = hello.IV

			shared, err := a.keyPair.SessionKey(a.config.PeerPublicKey)
			if err != nil {
				a.finish(OutcomeUnknownError)
				return
			}
			a.sessionKey = crypto.Blake2s256(shared)
			crypto.Zeroize(shared)

			// The envelope protects everything after ServerHello.
			if !a.installEncryption() {
				return
			}
		} else if a.config.Identify == proto.IdentifyAnonymous {
			// Anonymous access is key-authenticated or nothing.
			a.finish(OutcomeProtocolError)
			return
		}
	}

	switch a.config.Identify {
	case proto.IdentifySrp:
		a.state = clientStateSendIdentify
		a.ch.Send((&proto.SrpIdentify{Username: a.config.Username}).Encode())
	case proto.IdentifyAnonymous:
		a.state = clientStateReadSessionChallenge
	}
}

func (a *ClientAuthenticator) onServerKeyExchange(buffer []byte) {
	a.log.Debugf("received: SrpServerKeyExchange")

	kx, err := proto.DecodeSrpServerKeyExchange(buffer)
	if err != nil {
		a.finish(OutcomeProtocolError)
		return
	}
	if len(kx.Number) == 0 || len(kx.Generator) == 0 || len(kx.Salt) == 0 ||
		len(kx.B) == 0 || len(kx.IV) != IVSize {
		a.finish(OutcomeProtocolError)
		return
	}

	N := new(big.Int).SetBytes(kx.Number)
	g := new(big.Int).SetBytes(kx.Generator)
	B := new(big.Int).SetBytes(kx.B)
	a.decryptIV = kx.IV

	if new(big.Int).Mod(B, N).Sign() == 0 {
		a.finish(OutcomeProtocolError)
		return
	}

	ephemeral, err := crypto.RandomBytes(a.rand, srpEphemeralSize)
	if err != nil {
		a.finish(OutcomeUnknownError)
		return
	}
	x := srp.CalcX(srpIdentity(a.config.Username), utf16LE(a.config.Password), kx.Salt)
	defer crypto.ZeroizeBig(x)

	aPriv := new(big.Int).SetBytes(ephemeral)
	crypto.Zeroize(ephemeral)
	defer crypto.ZeroizeBig(aPriv)

	A := new(big.Int).Exp(g, aPriv, N)
	u := srp.CalcU(A, B, N)
	S := srp.ClientKey(aPriv, B, x, u, N, g)
	defer crypto.ZeroizeBig(S)

	srpKey := S.Bytes()
	newKey := crypto.Blake2s256(a.sessionKey, srpKey)
	crypto.Zeroize(a.sessionKey)
	crypto.Zeroize(srpKey)
	a.sessionKey = newKey

	iv, err := crypto.RandomBytes(a.rand, IVSize)
	if err != nil {
		a.finish(OutcomeUnknownError)
		return
	}
	a.encryptIV = iv

	a.state = clientStateSendClientKeyExchange
	a.ch.Send((&proto.SrpClientKeyExchange{A: A.Bytes(), IV: iv}).Encode())
}

func (a *ClientAuthenticator) onSessionChallenge(buffer []byte) {
	a.log.Debugf("received: SessionChallenge")

	challenge, err := proto.DecodeSessionChallenge(buffer)
	if err != nil {
		a.finish(OutcomeProtocolError)
		return
	}

	a.sessionTypes = challenge.SessionTypes
	if challenge.Version != nil {
		a.peerVersion = *challenge.Version
	}

	if a.sessionTypes&a.config.SessionType == 0 {
		a.finish(OutcomeSessionDenied)
		return
	}

	a.state = clientStateSendSessionResponse
	a.ch.Send((&proto.SessionResponse{
		SessionType:  a.config.SessionType,
		Version:      &a.info.Version,
		OSType:       a.info.OSType,
		ComputerName: a.info.ComputerName,
		CPUCores:     a.info.CPUCores,
	}).Encode())
}

func (a *ClientAuthenticator) installEncryption() bool {
	alg := crypto.ChaCha20Poly1305
	if a.encryption == proto.EncryptionAES256GCM {
		alg = crypto.AES256GCM
	}

	enc, err := crypto.NewEncryptor(alg, a.sessionKey, a.encryptIV)
	if err != nil {
		a.finish(OutcomeUnknownError)
		return false
	}
	dec, err := crypto.NewDecryptor(alg, a.sessionKey, a.decryptIV)
	if err != nil {
		a.finish(OutcomeUnknownError)
		return false
	}

	a.ch.SetEncryption(enc, dec)
	return true
}

func (a *ClientAuthenticator) finish(outcome Outcome) {
	if a.state == clientStateFinished {
		return
	}
	a.state = clientStateFinished
	a.outcome = outcome
	a.Close()

	if outcome == OutcomeSuccess {
		a.log.Infof("authentication finished: %v", outcome)
	} else {
		a.log.Warnf("authentication finished: %v", outcome)
	}
	a.ch.Finish(outcome)
}
