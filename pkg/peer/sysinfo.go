package peer

import (
	"os"
	"runtime"

	"github.com/peerlink/peerlink/pkg/proto"
)

// Version of this software, reported in the session challenge.
var Version = proto.Version{Major: 1, Minor: 2, Patch: 0}

// SessionInfo is the build and host information exchanged in
// SessionChallenge and SessionResponse.
type SessionInfo struct {
	Version      proto.Version
	OSType       proto.OSType
	ComputerName string
	CPUCores     uint32
}

// LocalSessionInfo collects the local host's information. Callers may
// override any field before starting the authenticator; OSType in
// particular is treated as opaque by the handshake.
func LocalSessionInfo() SessionInfo {
	name, err := os.Hostname()
	if err != nil {
		name = "unknown"
	}
	return SessionInfo{
		Version:      Version,
		OSType:       localOSType(),
		ComputerName: name,
		CPUCores:     uint32(runtime.NumCPU()),
	}
}

func localOSType() proto.OSType {
	switch runtime.GOOS {
	case "windows":
		return proto.OSTypeWindows
	case "linux":
		return proto.OSTypeLinux
	case "darwin":
		return proto.OSTypeMacOS
	case "android":
		return proto.OSTypeAndroid
	case "ios":
		return proto.OSTypeIOS
	default:
		return proto.OSTypeUnknown
	}
}
