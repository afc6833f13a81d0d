// Package peer implements the server side of the peerlink authentication
// handshake: an exchange of seven messages (four on the anonymous path,
// which skips the SRP messages) that negotiates an AEAD algorithm,
// derives a session key from an optional X25519 envelope and an SRP-6a
// exchange (or an anonymous path), and gates the session kind the client
// may run.
//
// The handshake is driven by a Channel, which delivers complete inbound
// payloads to OnReceived and reports flushed outbound payloads through
// OnWritten. All callbacks must be invoked serially; an authenticator is
// not safe for concurrent use.
//
//	C -> S  ClientHello      (encryption mask, identify kind, optional envelope)
//	S -> C  ServerHello      (chosen encryption, optional iv)
//	  SRP branch only:
//	C -> S  SrpIdentify            (username)
//	S -> C  SrpServerKeyExchange   (N, g, s, B, iv)
//	C -> S  SrpClientKeyExchange   (A, iv)
//	S -> C  SessionChallenge (allowed kinds, server info)
//	C -> S  SessionResponse  (chosen kind, client info)
//
// Unknown, disabled and misconfigured users are answered with fabricated
// SRP parameters derived from the user list's seed key, so the exchange is
// indistinguishable on the wire from a real group-8192 account and always
// ends in SessionDenied rather than revealing that the name is absent.
package peer

import (
	"io"
	"math/big"
	"math/bits"
	"unicode/utf8"

	"github.com/pion/logging"

	"github.com/peerlink/peerlink/pkg/crypto"
	"github.com/peerlink/peerlink/pkg/crypto/srp"
	"github.com/peerlink/peerlink/pkg/proto"
)

// IVSize is the AEAD nonce length carried in handshake messages.
const IVSize = crypto.IVSize

// srpEphemeralSize is the length of the server secret ephemeral b in bytes
// (1024 bits).
const srpEphemeralSize = 128

// fakeGroup is the SRP group used for fabricated identities.
const fakeGroup = 8192

// Channel is the transport-side surface the authenticator drives. The
// channel frames payloads, encrypts them once encryption is installed, and
// invokes OnWritten after each payload has been flushed.
type Channel interface {
	// Send queues one outbound payload.
	Send(payload []byte)

	// SetEncryption installs AEAD contexts for both directions. It takes
	// effect for payloads sent and received after the call.
	SetEncryption(enc *crypto.Encryptor, dec *crypto.Decryptor)

	// Finish reports the terminal outcome. Called exactly once; the
	// channel performs no further handshake I/O afterwards.
	Finish(outcome Outcome)
}

// ServerConfig configures a ServerAuthenticator.
type ServerConfig struct {
	// UserList is the account store. Required.
	UserList UserList

	// Info is the build and host information sent in SessionChallenge.
	// Zero value: LocalSessionInfo().
	Info SessionInfo

	// LoggerFactory creates the authenticator's logger. Zero value: the
	// pion default factory.
	LoggerFactory logging.LoggerFactory

	// Rand overrides the randomness source. Zero value: the OS CSPRNG.
	// Tests only.
	Rand io.Reader
}

// ServerAuthenticator runs one handshake session. Create with NewServer,
// configure with SetPrivateKey / SetAnonymousAccess, then Start.
type ServerAuthenticator struct {
	state   State
	outcome Outcome
	ch      Channel

	userList UserList
	info     SessionInfo
	log      logging.LeveledLogger
	rand     io.Reader

	keyPair          *crypto.KeyPair
	anonymousAllowed bool
	sessionTypes     uint32

	identify   proto.IdentifyMethod
	encryption proto.Encryption
	encryptIV  []byte
	decryptIV  []byte
	sessionKey []byte

	// SRP working set, live between ReadIdentify and ReadClientKeyExchange.
	srpN *big.Int
	srpG *big.Int
	salt []byte
	srpV *big.Int
	srpB *big.Int
	srpb *big.Int
	srpA *big.Int

	userName    string
	sessionType uint32
	peerVersion proto.Version

	hardwareAES bool
}

// NewServer creates a server authenticator in the Stopped state.
func NewServer(config ServerConfig) (*ServerAuthenticator, error) {
	if config.UserList == nil {
		return nil, ErrNoUserList
	}

	info := config.Info
	if info == (SessionInfo{}) {
		info = LocalSessionInfo()
	}

	factory := config.LoggerFactory
	if factory == nil {
		factory = logging.NewDefaultLoggerFactory()
	}

	return &ServerAuthenticator{
		state:       StateStopped,
		userList:    config.UserList,
		info:        info,
		log:         factory.NewLogger("peer-auth"),
		rand:        config.Rand,
		hardwareAES: crypto.HasHardwareAES(),
	}, nil
}

// SetPrivateKey loads the long-term key pair from a 32-byte private key
// and generates the server's outbound envelope IV. Must be called before
// Start.
func (a *ServerAuthenticator) SetPrivateKey(privateKey []byte) error {
	if a.state != StateStopped {
		return ErrNotStopped
	}
	if len(privateKey) == 0 {
		return ErrEmptyPrivateKey
	}

	keyPair, err := crypto.KeyPairFromPrivateKey(privateKey)
	if err != nil {
		return err
	}

	iv, err := crypto.RandomBytes(a.rand, IVSize)
	if err != nil {
		return err
	}

	a.keyPair = keyPair
	a.encryptIV = iv
	return nil
}

// SetAnonymousAccess enables or disables the anonymous identify method.
// Enabling requires a key pair and a non-empty session kind mask;
// disabling forces the mask to zero. Must be called before Start.
func (a *ServerAuthenticator) SetAnonymousAccess(enable bool, sessionTypes uint32) error {
	if a.state != StateStopped {
		return ErrNotStopped
	}

	if enable {
		if a.keyPair == nil {
			return ErrNoKeyPair
		}
		if sessionTypes == 0 {
			return ErrNoAnonymousKinds
		}
		a.sessionTypes = sessionTypes
	} else {
		a.sessionTypes = 0
	}

	a.anonymousAllowed = enable
	return nil
}

// Start validates the configuration and begins waiting for ClientHello.
// The channel must deliver inbound payloads to OnReceived and write
// completions to OnWritten from a single goroutine.
func (a *ServerAuthenticator) Start(ch Channel) error {
	if a.state != StateStopped {
		return ErrNotStopped
	}

	if a.anonymousAllowed {
		if a.keyPair == nil {
			return ErrNoKeyPair
		}
		if a.sessionTypes == 0 {
			return ErrNoAnonymousKinds
		}
	} else if a.sessionTypes != 0 {
		return ErrStaleSessionKinds
	}

	a.ch = ch
	a.state = StateReadClientHello
	return nil
}

// OnReceived parses buffer as the payload expected in the current state.
// Any parse failure, unknown enum or out-of-order message finishes the
// session with a terminal outcome.
func (a *ServerAuthenticator) OnReceived(buffer []byte) {
	switch a.state {
	case StateReadClientHello:
		a.onClientHello(buffer)
	case StateReadIdentify:
		a.onIdentify(buffer)
	case StateReadClientKeyExchange:
		a.onClientKeyExchange(buffer)
	case StateReadSessionResponse:
		a.onSessionResponse(buffer)
	case StateFinished:
		// Late delivery after finish; drop.
	default:
		a.log.Errorf("received payload in non-read state %v", a.state)
		a.finish(OutcomeUnknownError)
	}
}

// OnWritten is invoked by the channel after the most recently sent payload
// has been flushed.
func (a *ServerAuthenticator) OnWritten() {
	switch a.state {
	case StateSendServerHello:
		a.log.Debugf("sent: ServerHello")

		// The envelope key, when present, protects everything after
		// ServerHello.
		if len(a.sessionKey) > 0 {
			if !a.installEncryption() {
				return
			}
		}

		switch a.identify {
		case proto.IdentifySrp:
			a.state = StateReadIdentify
		case proto.IdentifyAnonymous:
			a.state = StateSendSessionChallenge
			a.sendSessionChallenge()
		}

	case StateSendServerKeyExchange:
		a.log.Debugf("sent: SrpServerKeyExchange")
		a.state = StateReadClientKeyExchange

	case StateSendSessionChallenge:
		a.log.Debugf("sent: SessionChallenge")
		a.state = StateReadSessionResponse

	case StateFinished:
		// Final payload flushed; nothing left to do.
	default:
		a.log.Errorf("write completion in non-send state %v", a.state)
		a.finish(OutcomeUnknownError)
	}
}

// State returns the current state.
func (a *ServerAuthenticator) State() State {
	return a.state
}

// Outcome returns the terminal outcome, or OutcomeNone while the handshake
// is in progress.
func (a *ServerAuthenticator) Outcome() Outcome {
	return a.outcome
}

// UserName returns the identified username. Empty for anonymous sessions.
func (a *ServerAuthenticator) UserName() string {
	return a.userName
}

// SessionType returns the accepted session kind after OutcomeSuccess.
func (a *ServerAuthenticator) SessionType() uint32 {
	return a.sessionType
}

// PeerVersion returns the client software version from SessionResponse.
func (a *ServerAuthenticator) PeerVersion() proto.Version {
	return a.peerVersion
}

// Close wipes all secret material. The channel calls it when the session
// ends for any reason, including external aborts and timeouts. Idempotent.
func (a *ServerAuthenticator) Close() {
	a.wipeSecrets()
}

func (a *ServerAuthenticator) onClientHello(buffer []byte) {
	a.log.Debugf("received: ClientHello")

	hello, err := proto.DecodeClientHello(buffer)
	if err != nil {
		a.finish(OutcomeProtocolError)
		return
	}

	offered := hello.Encryption & (proto.EncryptionAES256GCM | proto.EncryptionChaCha20Poly1305)
	if offered == 0 {
		a.log.Warnf("no common encryption method in offer %#x", uint32(hello.Encryption))
		a.finish(OutcomeProtocolError)
		return
	}

	switch hello.Identify {
	case proto.IdentifySrp:
		// Always supported.
	case proto.IdentifyAnonymous:
		if !a.anonymousAllowed {
			a.finish(OutcomeAccessDenied)
			return
		}
	default:
		a.finish(OutcomeProtocolError)
		return
	}
	a.identify = hello.Identify

	serverHello := &proto.ServerHello{}

	if a.keyPair != nil {
		if (len(hello.PublicKey) == 0) != (len(hello.IV) == 0) {
			a.finish(OutcomeProtocolError)
			return
		}

		if len(hello.PublicKey) != 0 {
			if len(hello.IV) != IVSize {
				a.finish(OutcomeProtocolError)
				return
			}

			shared, err := a.keyPair.SessionKey(hello.PublicKey)
			if err != nil {
				a.finish(OutcomeUnknownError)
				return
			}
			a.sessionKey = crypto.Blake2s256(shared)
			crypto.Zeroize(shared)

			a.decryptIV = hello.IV
			serverHello.IV = a.encryptIV
		}
	}

	if offered&proto.EncryptionAES256GCM != 0 && a.hardwareAES {
		a.log.Debugf("hardware AES available, using AES256-GCM")
		serverHello.Encryption = proto.EncryptionAES256GCM
	} else {
		a.log.Debugf("using ChaCha20-Poly1305")
		serverHello.Encryption = proto.EncryptionChaCha20Poly1305
	}

	a.encryption = serverHello.Encryption
	a.state = StateSendServerHello
	a.send(serverHello.Encode())
}

func (a *ServerAuthenticator) onIdentify(buffer []byte) {
	a.log.Debugf("received: SrpIdentify")

	identify, err := proto.DecodeSrpIdentify(buffer)
	if err != nil {
		a.finish(OutcomeProtocolError)
		return
	}

	if identify.Username == "" || !utf8.ValidString(identify.Username) {
		a.finish(OutcomeProtocolError)
		return
	}
	a.userName = identify.Username

	user, found := a.userList.Find(identify.Username)
	known := false
	if found && user.Enabled() {
		if N, g, ok := srp.Group(user.Group); ok {
			a.sessionTypes = user.Sessions
			a.srpN = N
			a.srpG = g
			a.salt = user.Salt
			a.srpV = new(big.Int).SetBytes(user.Verifier)
			known = true
		} else {
			a.log.Warnf("user %q has an invalid SRP group %d", user.Name, user.Group)
		}
	}

	if !known {
		// Fabricate a deterministic identity so the exchange is
		// indistinguishable from a real group-8192 account.
		a.sessionTypes = 0

		seedKey := a.userList.SeedKey()
		N, g, _ := srp.Group(fakeGroup)
		a.srpN = N
		a.srpG = g
		a.salt = crypto.Blake2b512(seedKey, []byte(identify.Username))
		a.srpV = srp.CalcV(srpIdentity(identify.Username), seedKey, a.salt, N, g)
	}

	ephemeral, err := crypto.RandomBytes(a.rand, srpEphemeralSize)
	if err != nil {
		a.finish(OutcomeUnknownError)
		return
	}
	a.srpb = new(big.Int).SetBytes(ephemeral)
	crypto.Zeroize(ephemeral)

	a.srpB = srp.CalcB(a.srpb, a.srpN, a.srpG, a.srpV)

	if a.srpN.Sign() == 0 || a.srpG.Sign() == 0 || len(a.salt) == 0 || a.srpB.Sign() == 0 {
		a.finish(OutcomeProtocolError)
		return
	}

	// Fresh outbound IV for the SRP-derived key, independent of any IV
	// chosen during the envelope.
	iv, err := crypto.RandomBytes(a.rand, IVSize)
	if err != nil {
		a.finish(OutcomeUnknownError)
		return
	}
	a.encryptIV = iv

	a.state = StateSendServerKeyExchange
	a.send((&proto.SrpServerKeyExchange{
		Number:    a.srpN.Bytes(),
		Generator: a.srpG.Bytes(),
		Salt:      a.salt,
		B:         a.srpB.Bytes(),
		IV:        a.encryptIV,
	}).Encode())
}

func (a *ServerAuthenticator) onClientKeyExchange(buffer []byte) {
	a.log.Debugf("received: SrpClientKeyExchange")

	kx, err := proto.DecodeSrpClientKeyExchange(buffer)
	if err != nil {
		a.finish(OutcomeProtocolError)
		return
	}

	if len(kx.A) == 0 || len(kx.IV) != IVSize {
		a.finish(OutcomeProtocolError)
		return
	}
	a.srpA = new(big.Int).SetBytes(kx.A)
	a.decryptIV = kx.IV

	srpKey := a.createSrpKey()
	if srpKey == nil {
		a.finish(OutcomeProtocolError)
		return
	}

	// Chain the envelope key, when one exists, into the SRP key so the
	// final session key binds both exchanges.
	newKey := crypto.Blake2s256(a.sessionKey, srpKey)
	crypto.Zeroize(a.sessionKey)
	crypto.Zeroize(srpKey)
	a.sessionKey = newKey

	if !a.installEncryption() {
		return
	}

	a.state = StateSendSessionChallenge
	a.sendSessionChallenge()
}

func (a *ServerAuthenticator) onSessionResponse(buffer []byte) {
	a.log.Debugf("received: SessionResponse")

	response, err := proto.DecodeSessionResponse(buffer)
	if err != nil {
		a.finish(OutcomeProtocolError)
		return
	}

	if response.Version != nil {
		a.peerVersion = *response.Version
	}
	a.log.Infof("client session type %#x, version %d.%d.%d, name %q, os %v, cores %d",
		response.SessionType, a.peerVersion.Major, a.peerVersion.Minor, a.peerVersion.Patch,
		response.ComputerName, response.OSType, response.CPUCores)

	if bits.OnesCount32(response.SessionType) != 1 {
		a.finish(OutcomeProtocolError)
		return
	}

	if a.sessionTypes&response.SessionType == 0 {
		a.finish(OutcomeSessionDenied)
		return
	}

	a.sessionType = response.SessionType
	a.finish(OutcomeSuccess)
}

// createSrpKey validates the client ephemeral and computes the shared SRP
// value serialized big-endian, or nil when A is unusable.
func (a *ServerAuthenticator) createSrpKey() []byte {
	if !srp.VerifyAModN(a.srpA, a.srpN) {
		a.log.Warnf("client SRP ephemeral rejected")
		return nil
	}

	u := srp.CalcU(a.srpA, a.srpB, a.srpN)
	S := srp.ServerKey(a.srpA, a.srpV, u, a.srpb, a.srpN)
	defer crypto.ZeroizeBig(S)

	return S.Bytes()
}

func (a *ServerAuthenticator) sendSessionChallenge() {
	a.send((&proto.SessionChallenge{
		SessionTypes: a.sessionTypes,
		Version:      &a.info.Version,
		OSType:       a.info.OSType,
		ComputerName: a.info.ComputerName,
		CPUCores:     a.info.CPUCores,
	}).Encode())
}

// installEncryption builds the AEAD contexts from the current session key
// and hands them to the channel. Returns false after finishing the session
// on failure.
func (a *ServerAuthenticator) installEncryption() bool {
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

func (a *ServerAuthenticator) send(payload []byte) {
	a.ch.Send(payload)
}

// finish records the terminal outcome exactly once, wipes secrets and
// notifies the channel.
func (a *ServerAuthenticator) finish(outcome Outcome) {
	if a.state == StateFinished {
		return
	}
	a.state = StateFinished
	a.outcome = outcome
	a.wipeSecrets()

	if outcome == OutcomeSuccess {
		a.log.Infof("authentication finished: %v", outcome)
	} else {
		a.log.Warnf("authentication finished: %v", outcome)
	}
	a.ch.Finish(outcome)
}

func (a *ServerAuthenticator) wipeSecrets() {
	crypto.Zeroize(a.sessionKey)
	a.sessionKey = nil
	crypto.ZeroizeBig(a.srpb)
	crypto.ZeroizeBig(a.srpV)
	a.srpb = nil
	a.srpV = nil
	a.srpA = nil
	a.srpB = nil
}
