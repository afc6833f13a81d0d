package discovery

import (
	"net"
	"testing"
)

// mockServer records shutdown calls.
type mockServer struct {
	shutdown bool
}

func (m *mockServer) Shutdown() { m.shutdown = true }

// mockFactory records registrations.
type mockFactory struct {
	instance string
	service  string
	domain   string
	port     int
	txt      []string
	server   *mockServer
}

func (m *mockFactory) Register(instance, service, domain string, port int, txt []string, ifaces []net.Interface) (MDNSServer, error) {
	m.instance = instance
	m.service = service
	m.domain = domain
	m.port = port
	m.txt = txt
	m.server = &mockServer{}
	return m.server, nil
}

func TestAdvertiserLifecycle(t *testing.T) {
	factory := &mockFactory{}
	adv, err := NewAdvertiser(AdvertiserConfig{
		HostName:      "hostbox",
		Port:          9000,
		ServerFactory: factory,
	})
	if err != nil {
		t.Fatalf("NewAdvertiser failed: %v", err)
	}

	if err := adv.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if factory.service != ServiceType || factory.domain != ServiceDomain {
		t.Errorf("registered %s %s", factory.service, factory.domain)
	}
	if factory.port != 9000 {
		t.Errorf("port = %d", factory.port)
	}
	if factory.instance == "" {
		t.Error("empty instance name")
	}

	// Second Start is a no-op.
	if err := adv.Start(); err != nil {
		t.Fatalf("second Start failed: %v", err)
	}

	adv.Close()
	if !factory.server.shutdown {
		t.Error("registration not shut down")
	}
	adv.Close()
}

func TestAdvertiserDefaults(t *testing.T) {
	adv, err := NewAdvertiser(AdvertiserConfig{ServerFactory: &mockFactory{}, Port: -1})
	if err != nil {
		t.Fatal(err)
	}
	if adv.config.Port != DefaultPort {
		t.Errorf("port = %d, want %d", adv.config.Port, DefaultPort)
	}
}
