package rate

import (
	"time"

	"github.com/litejet-protocol/litejet-go/pkg/wire"
)

// Table is one firmware dim-rate table: transition times in ascending
// order, indexed by rate step.
type Table struct {
	name       string
	thresholds []time.Duration
}

// Relay is the rate table for relay-dimmed loads.
var Relay = Table{name: "RELAY", thresholds: []time.Duration{
	0,
	1 * time.Second,
	2 * time.Second,
	3 * time.Second,
	4 * time.Second,
	5 * time.Second,
	6 * time.Second,
	7 * time.Second,
	9 * time.Second,
	11 * time.Second,
	13 * time.Second,
	16 * time.Second,
	19 * time.Second,
	23 * time.Second,
	28 * time.Second,
	34 * time.Second,
	41 * time.Second,
	49 * time.Second,
	60 * time.Second,
	75 * time.Second,
	90 * time.Second,
	110 * time.Second,
	140 * time.Second,
	175 * time.Second,
	210 * time.Second,
	250 * time.Second,
	300 * time.Second,
	380 * time.Second,
	450 * time.Second,
	550 * time.Second,
	675 * time.Second,
	800 * time.Second,
}}

// Fan is the rate table for fan relays, which cannot ramp.
var Fan = Table{name: "FAN", thresholds: []time.Duration{0}}

// LVRB is the rate table for low-voltage relay boost loads.
var LVRB = Table{name: "LVRB", thresholds: []time.Duration{
	0,
	250 * time.Millisecond,
	500 * time.Millisecond,
	750 * time.Millisecond,
	1 * time.Second,
	1500 * time.Millisecond,
	2 * time.Second,
	2500 * time.Millisecond,
	3 * time.Second,
	4 * time.Second,
	5 * time.Second,
	6 * time.Second,
	7 * time.Second,
	8 * time.Second,
	10 * time.Second,
	12 * time.Second,
	14 * time.Second,
	16 * time.Second,
	18 * time.Second,
	20 * time.Second,
	25 * time.Second,
	30 * time.Second,
	45 * time.Second,
	60 * time.Second,
	90 * time.Second,
	120 * time.Second,
	300 * time.Second,
	600 * time.Second,
	900 * time.Second,
	1200 * time.Second,
	1800 * time.Second,
	2700 * time.Second,
}}

// String returns the table name.
func (t Table) String() string {
	return t.name
}

// Steps returns the number of rate steps in the table.
func (t Table) Steps() int {
	return len(t.thresholds)
}

// Threshold returns the transition time of the given step.
func (t Table) Threshold(step int) time.Duration {
	return t.thresholds[step]
}

// StepFor returns the first rate step whose transition time is at least d,
// or the last step if d exceeds every entry. The mapping is monotonic
// non-decreasing and saturating, never an error.
func (t Table) StepFor(d time.Duration) int {
	for step, threshold := range t.thresholds {
		if d <= threshold {
			return step
		}
	}
	return len(t.thresholds) - 1
}

// ForLoad selects the rate table for a board-local load number by its
// hardware class. Numbers outside every dimming class fall back to the fan
// table, which only supports instant transitions.
func ForLoad(local int) Table {
	switch {
	case local >= wire.FirstRelayLoad && local <= wire.LastRelayLoad:
		return Relay
	case local >= wire.FirstLVRBLoad && local <= wire.LastLVRBLoad:
		return LVRB
	default:
		return Fan
	}
}
