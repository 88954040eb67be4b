package server

import (
	"errors"
	"net"
	"net/http"
	"strings"
)

var privateCIDRs []*net.IPNet

func init() {
	for _, block := range []string{
		"127.0.0.1/8",
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
		"169.254.0.0/16",
		"100.64.0.0/10",
		"::1/128",
		"fc00::/7",
		"fe80::/10",
	} {
		_, cidr, _ := net.ParseCIDR(block)
		privateCIDRs = append(privateCIDRs, cidr)
	}
}

// IsPrivateIP reports whether address is loopback, private, link local or carrier grade NAT
func IsPrivateIP(address string) (bool, error) {
	ip := net.ParseIP(address)
	if ip == nil {
		return false, errors.New("address is not valid")
	}
	for _, cidr := range privateCIDRs {
		if cidr.Contains(ip) {
			return true, nil
		}
	}
	return false, nil
}

// RealIP returns the first public client address from forwarding headers,
// falling back to X-Real-Ip then the remote address
func RealIP(r *http.Request) string {
	xRealIP := r.Header.Get("X-Real-Ip")
	xForwardedFor := r.Header.Get("X-Forwarded-For")
	if xRealIP == "" && xForwardedFor == "" {
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			return host
		}
		return r.RemoteAddr
	}
	for _, address := range strings.Split(xForwardedFor, ",") {
		address = strings.TrimSpace(address)
		if isPrivate, err := IsPrivateIP(address); !isPrivate && err == nil {
			return address
		}
	}
	return xRealIP
}
