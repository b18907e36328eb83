package netaddr

import "time"

// ServiceBit is a single flag of the node-services bitmask advertised in a
// version message's services field.
type ServiceBit uint64

const (
	ServiceNetwork        ServiceBit = 1 << 0 // full blockchain history
	ServiceGetUTXO        ServiceBit = 1 << 1 // getutxo/utxos extension
	ServiceBloom          ServiceBit = 1 << 2 // bloom-filtered filtering
	ServiceWitness        ServiceBit = 1 << 3 // segwit-aware
	ServiceXThin          ServiceBit = 1 << 4 // xthin block relay
	ServiceCompactFilters ServiceBit = 1 << 6 // BIP157 compact filters
	ServiceNetworkLimited ServiceBit = 1 << 10 // pruned, recent blocks only
)

// Has reports whether all bits of want are set in services.
func Has(services uint64, want ServiceBit) bool {
	return services&uint64(want) == uint64(want)
}

// ServiceInfoStaleAfter is the age beyond which a peer-reported service
// advertisement is no longer trusted and should be refreshed or discarded.
const ServiceInfoStaleAfter = 30 * 24 * time.Hour

// ServiceInfo records the most recent services bitmask seen from a peer at
// a given endpoint, together with when it was last observed.
type ServiceInfo struct {
	Endpoint  Endpoint
	Services  uint64
	LastSeen  time.Time
}

// IsStale reports whether the advertisement is older than
// ServiceInfoStaleAfter relative to now.
func (si ServiceInfo) IsStale(now time.Time) bool {
	return now.Sub(si.LastSeen) > ServiceInfoStaleAfter
}
