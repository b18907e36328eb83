package netaddr

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// Subnet is a base address plus a prefix length, used for ban-list and
// allow-list matching.
type Subnet struct {
	Base      Address
	PrefixLen uint8
}

// ParseSubnet parses CIDR notation ("a.b.c.d/n" or "host:port"-free IPv6
// form "xxxx::/n"). A bare address without a "/n" suffix is treated as a
// host route (/32 for IPv4, /128 for IPv6).
func ParseSubnet(s string) (Subnet, error) {
	if idx := strings.IndexByte(s, '/'); idx >= 0 {
		host, prefixStr := s[:idx], s[idx+1:]
		addr, err := ParseAddress(host)
		if err != nil {
			return Subnet{}, err
		}
		n, err := strconv.Atoi(prefixStr)
		if err != nil {
			return Subnet{}, fmt.Errorf("netaddr: invalid prefix length %q", prefixStr)
		}
		sn := Subnet{Base: addr, PrefixLen: uint8(n)}
		if !sn.IsValid() {
			return Subnet{}, fmt.Errorf("netaddr: prefix length %d out of range for %s", n, host)
		}
		return sn, nil
	}

	addr, err := ParseAddress(s)
	if err != nil {
		return Subnet{}, err
	}
	width := 32
	if !addr.IsIPv4() {
		width = 128
	}
	return Subnet{Base: addr, PrefixLen: uint8(width)}, nil
}

// width returns the address family's bit width: 32 for IPv4, 128 for IPv6.
func (sn Subnet) width() int {
	if sn.Base.IsIPv4() {
		return 32
	}
	return 128
}

// IsValid reports whether the prefix length is in (0, width].
func (sn Subnet) IsValid() bool {
	w := sn.width()
	return sn.PrefixLen > 0 && int(sn.PrefixLen) <= w
}

// Contains reports whether addr falls within the subnet. Addresses of
// differing families never match.
func (sn Subnet) Contains(addr Address) bool {
	if sn.Base.IsIPv4() != addr.IsIPv4() {
		return false
	}
	base := sn.Base.IP()
	target := addr.IP()
	if len(base) != len(target) {
		return false
	}
	mask := net.CIDRMask(int(sn.PrefixLen), len(base)*8)
	for i := range base {
		if base[i]&mask[i] != target[i]&mask[i] {
			return false
		}
	}
	return true
}

func (sn Subnet) String() string {
	return fmt.Sprintf("%s/%d", sn.Base.IP().String(), sn.PrefixLen)
}
