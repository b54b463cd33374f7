package net

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/mdns"
	"github.com/pkg/errors"
)

const serviceType = "_livechartboard._tcp"

const sessionField = "session="

// Discovered is a session found on the local network.
type Discovered struct {
	Addr      string
	SessionID string
}

// RelayURL is the websocket endpoint of the discovered relay.
func (d Discovered) RelayURL() string {
	return RelayURL(d.Addr)
}

// Advertise publishes a hosted session on the local network until the
// returned server is shut down.
func Advertise(sessionID string, port int) (*mdns.Server, error) {
	host, err := os.Hostname()
	if err != nil {
		return nil, errors.Wrap(err, "could not get hostname")
	}

	info := []string{"LiveChartBoard", sessionField + sessionID}
	service, err := mdns.NewMDNSService(host, serviceType, "", "", port, nil, info)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create mdns service")
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, errors.Wrap(err, "failed to start mdns server")
	}

	logger.Infof("advertising session %s on port %d", sessionID, port)
	return server, nil
}

// Browse looks up hosted sessions for the given duration and reports each one
// with a session id.
func Browse(ctx context.Context, timeout time.Duration, found func(Discovered)) error {
	entries := make(chan *mdns.ServiceEntry, 8)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for e := range entries {
			if d, ok := discovered(e); ok {
				found(d)
			}
		}
	}()

	params := mdns.DefaultParams(serviceType)
	params.Entries = entries
	params.Timeout = timeout
	params.DisableIPv6 = true
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < timeout {
		params.Timeout = time.Until(deadline)
	}

	err := mdns.Query(params)
	close(entries)
	<-done
	if err != nil {
		return errors.Wrap(err, "mdns lookup")
	}
	return ctx.Err()
}

func discovered(e *mdns.ServiceEntry) (Discovered, bool) {
	if e == nil || e.AddrV4 == nil || e.Port == 0 {
		return Discovered{}, false
	}

	var sessionID string
	for _, field := range e.InfoFields {
		if strings.HasPrefix(field, sessionField) {
			sessionID = strings.TrimPrefix(field, sessionField)
		}
	}
	if sessionID == "" {
		return Discovered{}, false
	}
	return Discovered{Addr: fmt.Sprintf("%s:%d", e.AddrV4.String(), e.Port), SessionID: sessionID}, true
}
