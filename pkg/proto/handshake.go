// Package proto defines the authentication handshake payloads and their
// protobuf wire-format encoding.
//
// Each payload is carried as one length-prefixed frame by the channel.
// Field numbers are part of the wire contract and must not change:
//
//	ClientHello          encryption=1 identify=2 public_key=3 iv=4
//	ServerHello          encryption=1 iv=2
//	SrpIdentify          username=1
//	SrpServerKeyExchange number=1 generator=2 salt=3 b=4 iv=5
//	SrpClientKeyExchange a=1 iv=2
//	Version              major=1 minor=2 patch=3
//	SessionChallenge     session_types=1 version=2 os_type=3 computer_name=4 cpu_cores=5
//	SessionResponse      session_type=1 version=2 os_type=3 computer_name=4 cpu_cores=5
//
// Big integers are unsigned big-endian byte arrays.
package proto

import (
	"google.golang.org/protobuf/encoding/protowire"
)

// ClientHello opens the handshake: the client offers an encryption set,
// picks an identify method, and optionally starts the envelope key
// agreement by attaching its ephemeral public key and outbound IV.
type ClientHello struct {
	Encryption Encryption
	Identify   IdentifyMethod
	PublicKey  []byte
	IV         []byte
}

// Encode serializes the message.
func (m *ClientHello) Encode() []byte {
	var b []byte
	b = appendVarintField(b, 1, uint64(m.Encryption))
	b = appendVarintField(b, 2, uint64(m.Identify))
	b = appendBytesField(b, 3, m.PublicKey)
	b = appendBytesField(b, 4, m.IV)
	return b
}

// DecodeClientHello parses a ClientHello payload.
func DecodeClientHello(data []byte) (*ClientHello, error) {
	m := &ClientHello{}
	err := walk(data, func(num protowire.Number, typ protowire.Type, value []byte) (int, error) {
		switch {
		case num == 1 && typ == protowire.VarintType:
			v, n, err := consumeVarint(value)
			m.Encryption = Encryption(v)
			return n, err
		case num == 2 && typ == protowire.VarintType:
			v, n, err := consumeVarint(value)
			m.Identify = IdentifyMethod(v)
			return n, err
		case num == 3 && typ == protowire.BytesType:
			v, n, err := consumeBytes(value)
			m.PublicKey = v
			return n, err
		case num == 4 && typ == protowire.BytesType:
			v, n, err := consumeBytes(value)
			m.IV = v
			return n, err
		default:
			return skipField(num, typ, value)
		}
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// ServerHello answers a ClientHello with the chosen algorithm and, when the
// envelope executed, the server's outbound IV.
type ServerHello struct {
	Encryption Encryption
	IV         []byte
}

// Encode serializes the message.
func (m *ServerHello) Encode() []byte {
	var b []byte
	b = appendVarintField(b, 1, uint64(m.Encryption))
	b = appendBytesField(b, 2, m.IV)
	return b
}

// DecodeServerHello parses a ServerHello payload.
func DecodeServerHello(data []byte) (*ServerHello, error) {
	m := &ServerHello{}
	err := walk(data, func(num protowire.Number, typ protowire.Type, value []byte) (int, error) {
		switch {
		case num == 1 && typ == protowire.VarintType:
			v, n, err := consumeVarint(value)
			m.Encryption = Encryption(v)
			return n, err
		case num == 2 && typ == protowire.BytesType:
			v, n, err := consumeBytes(value)
			m.IV = v
			return n, err
		default:
			return skipField(num, typ, value)
		}
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// SrpIdentify carries the username for the SRP branch.
type SrpIdentify struct {
	Username string
}

// Encode serializes the message.
func (m *SrpIdentify) Encode() []byte {
	return appendStringField(nil, 1, m.Username)
}

// DecodeSrpIdentify parses a SrpIdentify payload.
func DecodeSrpIdentify(data []byte) (*SrpIdentify, error) {
	m := &SrpIdentify{}
	err := walk(data, func(num protowire.Number, typ protowire.Type, value []byte) (int, error) {
		if num == 1 && typ == protowire.BytesType {
			v, n, err := consumeBytes(value)
			m.Username = string(v)
			return n, err
		}
		return skipField(num, typ, value)
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// SrpServerKeyExchange carries the SRP group, salt and server public
// ephemeral, plus the server's fresh outbound IV.
type SrpServerKeyExchange struct {
	Number    []byte // N
	Generator []byte // g
	Salt      []byte
	B         []byte
	IV        []byte
}

// Encode serializes the message.
func (m *SrpServerKeyExchange) Encode() []byte {
	var b []byte
	b = appendBytesField(b, 1, m.Number)
	b = appendBytesField(b, 2, m.Generator)
	b = appendBytesField(b, 3, m.Salt)
	b = appendBytesField(b, 4, m.B)
	b = appendBytesField(b, 5, m.IV)
	return b
}

// DecodeSrpServerKeyExchange parses a SrpServerKeyExchange payload.
func DecodeSrpServerKeyExchange(data []byte) (*SrpServerKeyExchange, error) {
	m := &SrpServerKeyExchange{}
	err := walk(data, func(num protowire.Number, typ protowire.Type, value []byte) (int, error) {
		if typ != protowire.BytesType || num < 1 || num > 5 {
			return skipField(num, typ, value)
		}
		v, n, err := consumeBytes(value)
		if err != nil {
			return 0, err
		}
		switch num {
		case 1:
			m.Number = v
		case 2:
			m.Generator = v
		case 3:
			m.Salt = v
		case 4:
			m.B = v
		case 5:
			m.IV = v
		}
		return n, nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// SrpClientKeyExchange carries the client public ephemeral and the client's
// fresh outbound IV.
type SrpClientKeyExchange struct {
	A  []byte
	IV []byte
}

// Encode serializes the message.
func (m *SrpClientKeyExchange) Encode() []byte {
	var b []byte
	b = appendBytesField(b, 1, m.A)
	b = appendBytesField(b, 2, m.IV)
	return b
}

// DecodeSrpClientKeyExchange parses a SrpClientKeyExchange payload.
func DecodeSrpClientKeyExchange(data []byte) (*SrpClientKeyExchange, error) {
	m := &SrpClientKeyExchange{}
	err := walk(data, func(num protowire.Number, typ protowire.Type, value []byte) (int, error) {
		switch {
		case num == 1 && typ == protowire.BytesType:
			v, n, err := consumeBytes(value)
			m.A = v
			return n, err
		case num == 2 && typ == protowire.BytesType:
			v, n, err := consumeBytes(value)
			m.IV = v
			return n, err
		default:
			return skipField(num, typ, value)
		}
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Version is a software version triple.
type Version struct {
	Major uint32
	Minor uint32
	Patch uint32
}

// Encode serializes the version as a nested message.
func (v *Version) Encode() []byte {
	var b []byte
	b = appendVarintField(b, 1, uint64(v.Major))
	b = appendVarintField(b, 2, uint64(v.Minor))
	b = appendVarintField(b, 3, uint64(v.Patch))
	return b
}

func decodeVersion(data []byte) (*Version, error) {
	v := &Version{}
	err := walk(data, func(num protowire.Number, typ protowire.Type, value []byte) (int, error) {
		if typ != protowire.VarintType {
			return skipField(num, typ, value)
		}
		val, n, err := consumeVarint(value)
		if err != nil {
			return 0, err
		}
		switch num {
		case 1:
			v.Major = uint32(val)
		case 2:
			v.Minor = uint32(val)
		case 3:
			v.Patch = uint32(val)
		}
		return n, nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// peerInfo is the shared layout of SessionChallenge and SessionResponse.
type peerInfo struct {
	sessions     uint32
	version      *Version
	osType       OSType
	computerName string
	cpuCores     uint32
}

func (p *peerInfo) encode() []byte {
	var b []byte
	b = appendVarintField(b, 1, uint64(p.sessions))
	if p.version != nil {
		b = appendBytesField(b, 2, p.version.Encode())
	}
	b = appendVarintField(b, 3, uint64(p.osType))
	b = appendStringField(b, 4, p.computerName)
	b = appendVarintField(b, 5, uint64(p.cpuCores))
	return b
}

func decodePeerInfo(data []byte) (*peerInfo, error) {
	p := &peerInfo{}
	err := walk(data, func(num protowire.Number, typ protowire.Type, value []byte) (int, error) {
		switch {
		case num == 1 && typ == protowire.VarintType:
			v, n, err := consumeVarint(value)
			p.sessions = uint32(v)
			return n, err
		case num == 2 && typ == protowire.BytesType:
			raw, n, err := consumeBytes(value)
			if err != nil {
				return 0, err
			}
			p.version, err = decodeVersion(raw)
			return n, err
		case num == 3 && typ == protowire.VarintType:
			v, n, err := consumeVarint(value)
			p.osType = OSType(v)
			return n, err
		case num == 4 && typ == protowire.BytesType:
			v, n, err := consumeBytes(value)
			p.computerName = string(v)
			return n, err
		case num == 5 && typ == protowire.VarintType:
			v, n, err := consumeVarint(value)
			p.cpuCores = uint32(v)
			return n, err
		default:
			return skipField(num, typ, value)
		}
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// SessionChallenge advertises the allowed session kinds after
// identification, together with server build information.
type SessionChallenge struct {
	SessionTypes uint32
	Version      *Version
	OSType       OSType
	ComputerName string
	CPUCores     uint32
}

// Encode serializes the message.
func (m *SessionChallenge) Encode() []byte {
	p := peerInfo{m.SessionTypes, m.Version, m.OSType, m.ComputerName, m.CPUCores}
	return p.encode()
}

// DecodeSessionChallenge parses a SessionChallenge payload.
func DecodeSessionChallenge(data []byte) (*SessionChallenge, error) {
	p, err := decodePeerInfo(data)
	if err != nil {
		return nil, err
	}
	return &SessionChallenge{p.sessions, p.version, p.osType, p.computerName, p.cpuCores}, nil
}

// SessionResponse is the client's chosen session kind (exactly one bit)
// with client build information.
type SessionResponse struct {
	SessionType  uint32
	Version      *Version
	OSType       OSType
	ComputerName string
	CPUCores     uint32
}

// Encode serializes the message.
func (m *SessionResponse) Encode() []byte {
	p := peerInfo{m.SessionType, m.Version, m.OSType, m.ComputerName, m.CPUCores}
	return p.encode()
}

// DecodeSessionResponse parses a SessionResponse payload.
func DecodeSessionResponse(data []byte) (*SessionResponse, error) {
	p, err := decodePeerInfo(data)
	if err != nil {
		return nil, err
	}
	return &SessionResponse{p.sessions, p.version, p.osType, p.computerName, p.cpuCores}, nil
}
