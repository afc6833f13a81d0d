// peerlink-client connects to a peerlink host, authenticates, and echoes
// one message through the established session.
//
// Usage:
//
//	peerlink-client -addr host:8050 -user alice -password hunter2 -kind desktop-view
//	peerlink-client -addr host:8050 -anonymous -server-key <hex>
//
// The -server-key flag pins the host's public key and enables envelope key
// agreement; it is required for anonymous access.
package main

import (
	"encoding/hex"
	"flag"
	"log"

	"github.com/peerlink/peerlink/pkg/peer"
	"github.com/peerlink/peerlink/pkg/proto"
	"github.com/peerlink/peerlink/pkg/session"
	"github.com/peerlink/peerlink/pkg/transport"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:8050", "host address")
	user := flag.String("user", "", "username")
	password := flag.String("password", "", "password")
	anonymous := flag.Bool("anonymous", false, "use anonymous access")
	kindName := flag.String("kind", "desktop-view", "session kind to request")
	serverKey := flag.String("server-key", "", "host public key, hex")
	flag.Parse()

	kind, ok := session.ParseKind(*kindName)
	if !ok {
		log.Fatalf("unknown session kind %q", *kindName)
	}

	config := peer.ClientConfig{
		Identify:    proto.IdentifySrp,
		Username:    *user,
		Password:    *password,
		SessionType: uint32(kind),
	}
	if *anonymous {
		config.Identify = proto.IdentifyAnonymous
	}
	if *serverKey != "" {
		pub, err := hex.DecodeString(*serverKey)
		if err != nil {
			log.Fatalf("invalid server key: %v", err)
		}
		config.PeerPublicKey = pub
	}

	auth, err := peer.NewClient(config)
	if err != nil {
		log.Fatalf("client setup failed: %v", err)
	}

	sess, err := transport.Dial(*addr, auth, 0)
	if err != nil {
		log.Fatalf("connect failed: %v", err)
	}
	defer sess.Close()

	log.Printf("connected: host version %d.%d.%d, kinds %s",
		auth.PeerVersion().Major, auth.PeerVersion().Minor, auth.PeerVersion().Patch,
		session.Kind(auth.SessionTypes()))

	if err := sess.WriteMessage([]byte("ping")); err != nil {
		log.Fatalf("write failed: %v", err)
	}
	reply, err := sess.ReadMessage()
	if err != nil {
		log.Fatalf("read failed: %v", err)
	}
	log.Printf("reply: %q", reply)
}
