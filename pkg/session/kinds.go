package session

import "strings"

// Kind is one application-level service a session can run, a single bit
// in the 32-bit session kind mask. The handshake treats kinds as opaque;
// the values here are the services this host implements.
type Kind uint32

const (
	// KindDesktopManage is full remote desktop control.
	KindDesktopManage Kind = 1 << iota

	// KindDesktopView is view-only screen sharing.
	KindDesktopView

	// KindFileTransfer is the file transfer service.
	KindFileTransfer

	// KindSystemInfo is remote system information.
	KindSystemInfo
)

// AllKinds is the mask of every service this host implements.
const AllKinds = KindDesktopManage | KindDesktopView | KindFileTransfer | KindSystemInfo

// String returns the kind name, or a list for multi-bit masks.
func (k Kind) String() string {
	if k == 0 {
		return "none"
	}

	var names []string
	for _, e := range []struct {
		bit  Kind
		name string
	}{
		{KindDesktopManage, "desktop-manage"},
		{KindDesktopView, "desktop-view"},
		{KindFileTransfer, "file-transfer"},
		{KindSystemInfo, "system-info"},
	} {
		if k&e.bit != 0 {
			names = append(names, e.name)
			k &^= e.bit
		}
	}
	if k != 0 {
		names = append(names, "unknown")
	}
	return strings.Join(names, "|")
}

// ParseKind maps a service name to its kind bit.
func ParseKind(name string) (Kind, bool) {
	switch name {
	case "desktop-manage":
		return KindDesktopManage, true
	case "desktop-view":
		return KindDesktopView, true
	case "file-transfer":
		return KindFileTransfer, true
	case "system-info":
		return KindSystemInfo, true
	default:
		return 0, false
	}
}
