// peerlink-host is a remote-access host: it accepts client connections,
// authenticates them with SRP-6a or anonymous access, and serves the
// negotiated session.
//
// Usage:
//
//	peerlink-host [options]
//
// Options:
//
//	-listen           TCP listen address (default: ":8050")
//	-user             account spec name:password[:kinds], repeatable
//	-anonymous        allow anonymous access
//	-anonymous-kinds  services granted to anonymous sessions (default: desktop-view)
//	-advertise        publish the host via DNS-SD (default: true)
//	-name             advertised host name
//
// Example:
//
//	peerlink-host -listen :8050 -user alice:hunter2:desktop-manage,file-transfer
package main

import (
	"log"

	"github.com/peerlink/peerlink/examples/common"
)

func main() {
	opts := common.ParseFlags()

	if err := common.RunHost(opts); err != nil {
		log.Fatalf("host error: %v", err)
	}
}
