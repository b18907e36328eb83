package netaddr

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHasServiceBit(t *testing.T) {
	services := uint64(ServiceNetwork) | uint64(ServiceWitness)
	assert.True(t, Has(services, ServiceNetwork))
	assert.True(t, Has(services, ServiceWitness))
	assert.False(t, Has(services, ServiceBloom))
}

func TestServiceInfoStaleness(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	info := ServiceInfo{LastSeen: now.Add(-31 * 24 * time.Hour)}
	assert.True(t, info.IsStale(now))

	fresh := ServiceInfo{LastSeen: now.Add(-1 * time.Hour)}
	assert.False(t, fresh.IsStale(now))
}
