package session

import (
	"math"
	"sync/atomic"
)

// TrafficMeter accumulates byte counters for one direction of traffic.
// Safe for concurrent use.
type TrafficMeter struct {
	bytes   atomic.Uint64
	packets atomic.Uint64
}

// Add records n bytes across one message.
func (m *TrafficMeter) Add(n uint64) {
	m.bytes.Add(n)
	m.packets.Add(1)
}

// Bytes returns the cumulative byte count.
func (m *TrafficMeter) Bytes() uint64 { return m.bytes.Load() }

// Packets returns the cumulative message count.
func (m *TrafficMeter) Packets() uint64 { return m.packets.Load() }

// pingMeterAlpha is the exponential-moving-average smoothing factor; a
// lower value means each new sample moves the average less.
const pingMeterAlpha = 0.2

// PingMeter tracks the round-trip latency of ping/pong exchanges as an
// exponential moving average, in milliseconds. Safe for concurrent use by
// a single writer (the session's read pump) and many readers.
type PingMeter struct {
	emaMillisBits atomic.Uint64 // float64 bits, 0 means "no sample yet"
}

// Observe folds a new round-trip sample (in milliseconds) into the moving
// average.
func (m *PingMeter) Observe(sampleMillis float64) {
	prevBits := m.emaMillisBits.Load()
	prev := math.Float64frombits(prevBits)
	var next float64
	if prevBits == 0 {
		next = sampleMillis
	} else {
		next = prev + pingMeterAlpha*(sampleMillis-prev)
	}
	m.emaMillisBits.Store(math.Float64bits(next))
}

// EMA returns the current moving-average latency in milliseconds, or 0 if
// no sample has been observed yet.
func (m *PingMeter) EMA() float64 {
	return math.Float64frombits(m.emaMillisBits.Load())
}
