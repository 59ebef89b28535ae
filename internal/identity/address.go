// Package identity derives the anonymous (fingerprint, ipHash) pair for a
// request. Raw client addresses never leave this package except as a hash.
package identity

import (
	"fmt"
	"net/netip"
	"strings"

	"github.com/akshadjaiswal/hot-takes-arena/pkg/hash"
)

// UnknownAddress is returned when no usable client address can be found.
const UnknownAddress = "unknown"

// DefaultForwardHeaders are consulted in order when the peer is trusted.
var DefaultForwardHeaders = []string{
	"X-Forwarded-For",
	"X-Real-IP",
	"X-Vercel-Forwarded-For",
}

// ProxyPolicy decides whether forwarding headers may be believed. Headers are
// only honored when the immediate peer is inside a trusted prefix.
type ProxyPolicy struct {
	trusted []netip.Prefix
	headers []string
}

// NewProxyPolicy parses trusted proxies given as single addresses or CIDRs.
// An empty list trusts nobody, so the transport peer is always used.
func NewProxyPolicy(trusted []string) (*ProxyPolicy, error) {
	p := &ProxyPolicy{headers: DefaultForwardHeaders}
	for _, raw := range trusted {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if strings.Contains(raw, "/") {
			prefix, err := netip.ParsePrefix(raw)
			if err != nil {
				return nil, fmt.Errorf("trusted proxy %q: %w", raw, err)
			}
			p.trusted = append(p.trusted, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(raw)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", raw, err)
		}
		addr = addr.Unmap()
		p.trusted = append(p.trusted, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return p, nil
}

// Trusts reports whether addr is a configured proxy.
func (p *ProxyPolicy) Trusts(addr string) bool {
	ip, err := netip.ParseAddr(addr)
	if err != nil {
		return false
	}
	ip = ip.Unmap()
	for _, prefix := range p.trusted {
		if prefix.Contains(ip) {
			return true
		}
	}
	return false
}

// ClientAddress returns the address to attribute a request to. peer is the
// transport-level remote address; header looks up request headers.
func (p *ProxyPolicy) ClientAddress(peer string, header func(string) string) string {
	peerIP := normalizeIP(peer)

	if peerIP != "" && p.Trusts(peerIP) {
		for _, name := range p.headers {
			if v := header(name); v != "" {
				if ip := firstIP(v); ip != "" {
					return ip
				}
			}
		}
	}

	if peerIP == "" {
		return UnknownAddress
	}
	return peerIP
}

// firstIP returns the first valid address of a comma-separated header value.
func firstIP(s string) string {
	first, _, _ := strings.Cut(s, ",")
	return normalizeIP(first)
}

func normalizeIP(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	// tolerate "host:port" and "[v6]:port" peers
	if ap, err := netip.ParseAddrPort(s); err == nil {
		return ap.Addr().Unmap().String()
	}
	ip, err := netip.ParseAddr(s)
	if err != nil {
		return ""
	}
	return ip.Unmap().String()
}

// Hasher turns client addresses into salted one-way tokens.
type Hasher struct {
	salt string
}

func NewHasher(salt string) Hasher {
	return Hasher{salt: salt}
}

// Hash returns SHA256(salt + address).
func (h Hasher) Hash(address string) string {
	return hash.HashIP(address, h.salt)
}
