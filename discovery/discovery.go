// Package discovery advertises the server on the local network over mDNS and
// SSDP, so the box shows up in OS network browsers. The announcer owns its
// whole lifecycle and communicates nothing back to the rest of the process.
package discovery

import (
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/grandcat/zeroconf"
	"github.com/koron/go-ssdp"
	"go.uber.org/zap"
)

const (
	mdnsService = "_http._tcp"
	mdnsDomain  = "local."

	ssdpType   = "urn:schemas-upnp-org:device:Basic:1"
	ssdpMaxAge = 1800
)

// Config names the service being advertised.
type Config struct {
	Instance    string
	Port        int
	Description string
}

// Announcer publishes mDNS and SSDP announcements until stopped.
type Announcer struct {
	cfg Config
	log *zap.Logger

	mdns *zeroconf.Server
	ssdp *ssdp.Advertiser
	stop chan struct{}
	done chan struct{}
}

func New(cfg Config, log *zap.Logger) *Announcer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Announcer{
		cfg:  cfg,
		log:  log,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// Start registers both announcements. Failure of either protocol fails the
// whole start; the caller decides whether to run without discovery.
func (a *Announcer) Start() error {
	txt := []string{"path=/", "desc=" + a.cfg.Description}
	mdnsServer, err := zeroconf.Register(a.cfg.Instance, mdnsService, mdnsDomain, a.cfg.Port, txt, nil)
	if err != nil {
		return fmt.Errorf("mdns register: %w", err)
	}

	location := fmt.Sprintf("http://%s:%d/", localIP(), a.cfg.Port)
	usn := "uuid:" + uuid.NewString()
	advertiser, err := ssdp.Advertise(ssdpType, usn, location, a.cfg.Instance, ssdpMaxAge)
	if err != nil {
		mdnsServer.Shutdown()
		return fmt.Errorf("ssdp advertise: %w", err)
	}

	a.mdns = mdnsServer
	a.ssdp = advertiser
	go a.aliveLoop()

	a.log.Info("discovery started",
		zap.String("instance", a.cfg.Instance),
		zap.Int("port", a.cfg.Port),
		zap.String("location", location))
	return nil
}

// aliveLoop refreshes the SSDP announcement before its max-age lapses.
func (a *Announcer) aliveLoop() {
	defer close(a.done)
	ticker := time.NewTicker(ssdpMaxAge / 2 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-a.stop:
			return
		case <-ticker.C:
			if err := a.ssdp.Alive(); err != nil {
				a.log.Warn("ssdp alive failed", zap.Error(err))
			}
		}
	}
}

// Stop withdraws both announcements. Safe to call once after a successful
// Start.
func (a *Announcer) Stop() {
	close(a.stop)
	<-a.done

	if err := a.ssdp.Bye(); err != nil {
		a.log.Warn("ssdp bye failed", zap.Error(err))
	}
	a.ssdp.Close()
	a.mdns.Shutdown()
	a.log.Info("discovery stopped")
}

// localIP finds the address a LAN peer would reach us on. The dial never
// sends a packet; it only selects the outbound interface.
func localIP() string {
	conn, err := net.Dial("udp4", "239.255.255.250:1900")
	if err != nil {
		return "127.0.0.1"
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP.String()
}
