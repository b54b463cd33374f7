package net

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

// URLScheme prefixes the share links handed to viewers.
const URLScheme = "livechartboard://"

// OutgoingIP finds the preferred local IP address for the host to share.
func OutgoingIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		// no route to the internet, use the first local interface
		return firstIPv4().String()
	}
	defer conn.Close()

	return conn.LocalAddr().(*net.UDPAddr).IP.String()
}

func firstIPv4() net.IP {
	ifaces, _ := net.Interfaces()
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, _ := iface.Addrs()
		for _, a := range addrs {
			if ipnet, ok := a.(*net.IPNet); ok && ipnet.IP.To4() != nil {
				return ipnet.IP.To4()
			}
		}
	}
	logger.Warn("no suitable local ip found, share links will use the loopback address")
	return net.IPv4(127, 0, 0, 1)
}

// ShareLink builds the link a viewer opens to join a session.
func ShareLink(host string, port int, sessionID string) string {
	return fmt.Sprintf("%s%s/%s", URLScheme, net.JoinHostPort(host, fmt.Sprint(port)), url.PathEscape(sessionID))
}

// ParseShareLink returns the relay websocket url and the session id of a share
// link.
func ParseShareLink(link string) (relayURL, sessionID string, err error) {
	if !strings.HasPrefix(link, URLScheme) {
		return "", "", errors.Errorf("not a share link: %q", link)
	}

	address, rawID, found := strings.Cut(strings.TrimPrefix(link, URLScheme), "/")
	rawID = strings.TrimSuffix(rawID, "/")
	if !found || address == "" || rawID == "" {
		return "", "", errors.Errorf("share link %q has no session id", link)
	}
	if _, _, err := net.SplitHostPort(address); err != nil {
		return "", "", errors.Wrapf(err, "share link %q", link)
	}

	sessionID, err = url.PathUnescape(rawID)
	if err != nil {
		return "", "", errors.Wrapf(err, "share link %q", link)
	}
	return RelayURL(address), sessionID, nil
}

// RelayURL is the websocket endpoint of a relay listening on address.
func RelayURL(address string) string {
	return "ws://" + address + WebsocketPath
}
