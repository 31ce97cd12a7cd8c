// Package iface finds the network interface carrying the host's side
// of the GamePad wireless link, by subnet match.
package iface

import (
	"fmt"
	"net"
)

// Discover returns the name of the network interface whose IPv4 subnet
// contains hostAddr (e.g. "192.168.1.10"). It is how the TSF clock
// locates /sys/class/net/<iface>/tsf without hardcoding an interface
// name, since wlan interface names vary across hosts (wlan0, wlp3s0,
// ...).
func Discover(hostAddr string) (string, error) {
	target := net.ParseIP(hostAddr)
	if target == nil {
		return "", fmt.Errorf("iface: invalid host address %q", hostAddr)
	}

	ifaces, err := net.Interfaces()
	if err != nil {
		return "", fmt.Errorf("iface: listing interfaces: %w", err)
	}

	for _, it := range ifaces {
		addrs, err := it.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ipNet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			if ipNet.Contains(target) {
				return it.Name, nil
			}
		}
	}

	return "", fmt.Errorf("iface: no interface carries subnet containing %s", hostAddr)
}
