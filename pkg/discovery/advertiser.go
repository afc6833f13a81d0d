// Package discovery publishes a peerlink host on the local network via
// DNS-SD so that clients can find it without configuration.
package discovery

import (
	"fmt"
	"net"
	"sync"

	"github.com/google/uuid"
	"github.com/grandcat/zeroconf"
	"github.com/pion/logging"
)

// Service parameters.
const (
	// ServiceType is the DNS-SD service type for peerlink hosts.
	ServiceType = "_peerlink._tcp"

	// ServiceDomain is the DNS-SD domain.
	ServiceDomain = "local."

	// DefaultPort is the default peerlink port.
	DefaultPort = 8050
)

// MDNSServer is the handle of an active mDNS registration. It allows
// dependency injection in tests.
type MDNSServer interface {
	// Shutdown stops the server.
	Shutdown()
}

// MDNSServerFactory creates MDNSServer instances.
type MDNSServerFactory interface {
	// Register creates a new mDNS registration for the given service.
	Register(instance, service, domain string, port int, txt []string, ifaces []net.Interface) (MDNSServer, error)
}

// zeroconfServerFactory is the production implementation using
// grandcat/zeroconf.
type zeroconfServerFactory struct{}

func (z *zeroconfServerFactory) Register(instance, service, domain string, port int, txt []string, ifaces []net.Interface) (MDNSServer, error) {
	return zeroconf.Register(instance, service, domain, port, txt, ifaces)
}

// AdvertiserConfig holds configuration for the Advertiser.
type AdvertiserConfig struct {
	// InstanceName is the DNS-SD instance name. If empty, a random one is
	// generated.
	InstanceName string

	// HostName is the human-readable host name published in TXT records.
	HostName string

	// Port is the peerlink port to advertise (default: 8050).
	Port int

	// AnonymousAccess is published so clients know whether to offer the
	// anonymous identify method.
	AnonymousAccess bool

	// Interfaces specifies which network interfaces to advertise on.
	// If nil, all interfaces are used.
	Interfaces []net.Interface

	// ServerFactory creates mDNS registrations. If nil, the default
	// zeroconf factory is used.
	ServerFactory MDNSServerFactory

	// LoggerFactory creates the advertiser's logger. Zero value: the pion
	// default factory.
	LoggerFactory logging.LoggerFactory
}

// Advertiser publishes the peerlink host service.
type Advertiser struct {
	config  AdvertiserConfig
	factory MDNSServerFactory
	log     logging.LeveledLogger

	mu     sync.Mutex
	server MDNSServer
}

// NewAdvertiser creates an Advertiser.
func NewAdvertiser(config AdvertiserConfig) (*Advertiser, error) {
	if config.Port <= 0 || config.Port > 65535 {
		config.Port = DefaultPort
	}
	if config.InstanceName == "" {
		config.InstanceName = "peerlink-" + uuid.NewString()
	}

	factory := config.ServerFactory
	if factory == nil {
		factory = &zeroconfServerFactory{}
	}

	loggerFactory := config.LoggerFactory
	if loggerFactory == nil {
		loggerFactory = logging.NewDefaultLoggerFactory()
	}

	return &Advertiser{
		config:  config,
		factory: factory,
		log:     loggerFactory.NewLogger("discovery"),
	}, nil
}

// Start registers the service.
func (a *Advertiser) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		return nil
	}

	txt := []string{
		fmt.Sprintf("host=%s", a.config.HostName),
		fmt.Sprintf("anon=%t", a.config.AnonymousAccess),
	}

	server, err := a.factory.Register(
		a.config.InstanceName, ServiceType, ServiceDomain,
		a.config.Port, txt, a.config.Interfaces)
	if err != nil {
		return fmt.Errorf("discovery: register failed: %w", err)
	}
	a.server = server

	a.log.Infof("advertising %s on port %d", a.config.InstanceName, a.config.Port)
	return nil
}

// Close withdraws the registration.
func (a *Advertiser) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
		a.log.Infof("stopped advertising %s", a.config.InstanceName)
	}
}
