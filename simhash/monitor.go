package simhash

import "sync"

// DefaultThreshold is the Hamming distance above which a region counts as
// drifted. Value churn moves a handful of bits; markup reshapes move far
// more.
const DefaultThreshold = 10

// Monitor remembers the first structural fingerprint seen per region name
// for the process lifetime and flags later observations that drift past
// the threshold.
type Monitor struct {
	mu        sync.Mutex
	threshold int
	baselines map[string]uint64
}

// NewMonitor creates a Monitor. A non-positive threshold selects
// DefaultThreshold.
func NewMonitor(threshold int) *Monitor {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Monitor{
		threshold: threshold,
		baselines: map[string]uint64{},
	}
}

// Observe fingerprints a region's HTML. The first observation of a region
// becomes its baseline and never drifts; later ones report their distance
// from that baseline and whether it crossed the threshold. The baseline is
// deliberately not updated on drift, so a reshaped region keeps flagging.
func (m *Monitor) Observe(region, regionHTML string) (drifted bool, distance int) {
	fp := StructureFingerprint(regionHTML)

	m.mu.Lock()
	defer m.mu.Unlock()

	base, ok := m.baselines[region]
	if !ok {
		m.baselines[region] = fp
		return false, 0
	}
	distance = Distance(base, fp)
	return distance > m.threshold, distance
}
