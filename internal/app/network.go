package app

import (
	"net"
)

// iface is the part of net.Interface used to pick a LAN address
type iface interface {
	Flags() net.Flags
	Addrs() ([]net.Addr, error)
}

// interfaceLister returns the host's network interfaces
type interfaceLister interface {
	Interfaces() ([]iface, error)
}

type systemIface struct {
	ifc net.Interface
}

func (s systemIface) Flags() net.Flags {
	return s.ifc.Flags
}

func (s systemIface) Addrs() ([]net.Addr, error) {
	return s.ifc.Addrs()
}

type systemInterfaces struct{}

func (systemInterfaces) Interfaces() ([]iface, error) {
	list, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	out := make([]iface, len(list))
	for i := range list {
		out[i] = systemIface{list[i]}
	}
	return out, nil
}

// lanAddress returns the address polling-station terminals should use to
// reach this server: a private IPv4 address when one exists, then any other
// non-loopback IPv4 address, then "localhost".
func lanAddress(lister interfaceLister) string {
	ifaces, err := lister.Interfaces()
	if err != nil {
		return "localhost"
	}

	var fallback string
	for _, ifc := range ifaces {
		flags := ifc.Flags()
		if flags&net.FlagUp == 0 || flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := ifc.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ip := addrIP(addr).To4()
			if ip == nil || ip.IsLoopback() {
				continue
			}
			if ip.IsPrivate() {
				return ip.String()
			}
			if fallback == "" {
				fallback = ip.String()
			}
		}
	}

	if fallback != "" {
		return fallback
	}
	return "localhost"
}

func addrIP(addr net.Addr) net.IP {
	switch v := addr.(type) {
	case *net.IPNet:
		return v.IP
	case *net.IPAddr:
		return v.IP
	}
	return nil
}
