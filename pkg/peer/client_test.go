package peer

import (
	"crypto/rand"
	"math/big"
	"testing"

	"github.com/peerlink/peerlink/pkg/crypto"
	"github.com/peerlink/peerlink/pkg/crypto/srp"
	"github.com/peerlink/peerlink/pkg/proto"
)

// testClient is a minimal conforming client used to drive round-trip
// scenarios. It mirrors the wire behavior the server expects: envelope key
// agreement in ClientHello, the SRP-6a prover role, and the session kind
// choice.
type testClient struct {
	t *testing.T

	username string
	password string

	offer    proto.Encryption
	identify proto.IdentifyMethod

	// Envelope. keyPair nil disables the envelope.
	keyPair   *crypto.KeyPair
	serverPub []byte
	helloIV   []byte

	sessionKey []byte
	encryptIV  []byte
	decryptIV  []byte

	encryption proto.Encryption
	challenge  *proto.SessionChallenge
}

func newTestClient(t *testing.T, username, password string) *testClient {
	return &testClient{
		t:        t,
		username: username,
		password: password,
		offer:    proto.EncryptionAES256GCM | proto.EncryptionChaCha20Poly1305,
		identify: proto.IdentifySrp,
	}
}

// enableEnvelope makes the client start envelope key agreement against the
// given server public key.
func (c *testClient) enableEnvelope(serverPub []byte) {
	kp, err := crypto.GenerateKeyPair(nil)
	if err != nil {
		c.t.Fatalf("client key pair: %v", err)
	}
	iv, err := crypto.RandomBytes(nil, IVSize)
	if err != nil {
		c.t.Fatalf("client IV: %v", err)
	}
	c.keyPair = kp
	c.serverPub = serverPub
	c.helloIV = iv
}

func (c *testClient) clientHello() []byte {
	hello := &proto.ClientHello{
		Encryption: c.offer,
		Identify:   c.identify,
	}
	if c.keyPair != nil {
		hello.PublicKey = c.keyPair.PublicKey()
		hello.IV = c.helloIV
		c.encryptIV = c.helloIV

		shared, err := c.keyPair.SessionKey(c.serverPub)
		if err != nil {
			c.t.Fatalf("client envelope: %v", err)
		}
		c.sessionKey = crypto.Blake2s256(shared)
	}
	return hello.Encode()
}

func (c *testClient) onServerHello(payload []byte) {
	hello, err := proto.DecodeServerHello(payload)
	if err != nil {
		c.t.Fatalf("decode ServerHello: %v", err)
	}
	c.encryption = hello.Encryption
	if len(hello.IV) != 0 {
		c.decryptIV = hello.IV
	}
}

func (c *testClient) srpIdentify() []byte {
	return (&proto.SrpIdentify{Username: c.username}).Encode()
}

// onServerKeyExchange runs the SRP prover side and returns the
// SrpClientKeyExchange payload.
func (c *testClient) onServerKeyExchange(payload []byte) []byte {
	kx, err := proto.DecodeSrpServerKeyExchange(payload)
	if err != nil {
		c.t.Fatalf("decode SrpServerKeyExchange: %v", err)
	}

	N := new(big.Int).SetBytes(kx.Number)
	g := new(big.Int).SetBytes(kx.Generator)
	B := new(big.Int).SetBytes(kx.B)
	c.decryptIV = kx.IV

	aBytes := make([]byte, 128)
	if _, err := rand.Read(aBytes); err != nil {
		c.t.Fatalf("client ephemeral: %v", err)
	}
	a := new(big.Int).SetBytes(aBytes)
	A := new(big.Int).Exp(g, a, N)

	x := srp.CalcX(srpIdentity(c.username), utf16LE(c.password), kx.Salt)
	u := srp.CalcU(A, B, N)
	S := srp.ClientKey(a, B, x, u, N, g)

	c.sessionKey = crypto.Blake2s256(c.sessionKey, S.Bytes())

	iv, err := crypto.RandomBytes(nil, IVSize)
	if err != nil {
		c.t.Fatalf("client IV: %v", err)
	}
	c.encryptIV = iv

	return (&proto.SrpClientKeyExchange{A: A.Bytes(), IV: iv}).Encode()
}

func (c *testClient) onSessionChallenge(payload []byte) {
	challenge, err := proto.DecodeSessionChallenge(payload)
	if err != nil {
		c.t.Fatalf("decode SessionChallenge: %v", err)
	}
	c.challenge = challenge
}

func (c *testClient) sessionResponse(sessionType uint32) []byte {
	return (&proto.SessionResponse{
		SessionType:  sessionType,
		Version:      &proto.Version{Major: 2, Minor: 0, Patch: 1},
		OSType:       proto.OSTypeLinux,
		ComputerName: "client-box",
		CPUCores:     4,
	}).Encode()
}

// aeadPair builds the client-side AEAD contexts from the current session
// key, for verifying that both ends derived the same key.
func (c *testClient) aeadPair() (*crypto.Encryptor, *crypto.Decryptor) {
	alg := crypto.ChaCha20Poly1305
	if c.encryption == proto.EncryptionAES256GCM {
		alg = crypto.AES256GCM
	}
	enc, err := crypto.NewEncryptor(alg, c.sessionKey, c.encryptIV)
	if err != nil {
		c.t.Fatalf("client encryptor: %v", err)
	}
	dec, err := crypto.NewDecryptor(alg, c.sessionKey, c.decryptIV)
	if err != nil {
		c.t.Fatalf("client decryptor: %v", err)
	}
	return enc, dec
}
