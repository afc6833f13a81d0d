package proto

// Encryption is a bitmask of AEAD algorithms. A ClientHello offers a set;
// a ServerHello echoes exactly one member.
type Encryption uint32

const (
	EncryptionUnknown          Encryption = 0
	EncryptionAES256GCM        Encryption = 1
	EncryptionChaCha20Poly1305 Encryption = 2
)

// String returns the algorithm set name.
func (e Encryption) String() string {
	switch e {
	case EncryptionAES256GCM:
		return "AES256_GCM"
	case EncryptionChaCha20Poly1305:
		return "CHACHA20_POLY1305"
	case EncryptionAES256GCM | EncryptionChaCha20Poly1305:
		return "AES256_GCM|CHACHA20_POLY1305"
	default:
		return "UNKNOWN"
	}
}

// IdentifyMethod selects how the client authenticates.
type IdentifyMethod int32

const (
	IdentifySrp       IdentifyMethod = 0
	IdentifyAnonymous IdentifyMethod = 1
)

// String returns the method name.
func (m IdentifyMethod) String() string {
	switch m {
	case IdentifySrp:
		return "SRP"
	case IdentifyAnonymous:
		return "ANONYMOUS"
	default:
		return "UNKNOWN"
	}
}

// OSType identifies the peer operating system. The value is reported by
// the peer and treated as opaque by the handshake.
type OSType int32

const (
	OSTypeUnknown OSType = 0
	OSTypeWindows OSType = 1
	OSTypeLinux   OSType = 2
	OSTypeMacOS   OSType = 3
	OSTypeAndroid OSType = 4
	OSTypeIOS     OSType = 5
)

// String returns the OS name.
func (t OSType) String() string {
	switch t {
	case OSTypeWindows:
		return "Windows"
	case OSTypeLinux:
		return "Linux"
	case OSTypeMacOS:
		return "macOS"
	case OSTypeAndroid:
		return "Android"
	case OSTypeIOS:
		return "iOS"
	default:
		return "Unknown"
	}
}
