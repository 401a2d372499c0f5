package rate

import (
	"testing"
	"time"
)

func TestStepForExactAndBetween(t *testing.T) {
	tests := []struct {
		name  string
		table Table
		d     time.Duration
		want  int
	}{
		{"Instant", Relay, 0, 0},
		{"ExactOneSecond", Relay, time.Second, 1},
		{"ExactSevenSeconds", Relay, 7 * time.Second, 7},
		{"BetweenStepsRoundsUp", Relay, 8 * time.Second, 8},
		{"SubSecondRoundsUp", Relay, 300 * time.Millisecond, 1},
		{"Slowest", Relay, 800 * time.Second, 31},
		{"FanAlwaysInstant", Fan, 45 * time.Second, 0},
		{"LVRBQuarterSecond", LVRB, 250 * time.Millisecond, 1},
		{"LVRBBetween", LVRB, 9 * time.Second, 14},
		{"LVRBSlowest", LVRB, 2700 * time.Second, 31},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.table.StepFor(tt.d); got != tt.want {
				t.Errorf("%s.StepFor(%v) = %d, want %d", tt.table, tt.d, got, tt.want)
			}
		})
	}
}

func TestStepForSaturates(t *testing.T) {
	for _, table := range []Table{Relay, Fan, LVRB} {
		last := table.Steps() - 1
		for _, d := range []time.Duration{
			table.Threshold(last),
			table.Threshold(last) + time.Second,
			24 * time.Hour,
		} {
			if got := table.StepFor(d); got != last {
				t.Errorf("%s.StepFor(%v) = %d, want saturated %d", table, d, got, last)
			}
		}
	}
}

func TestStepForMonotonic(t *testing.T) {
	for _, table := range []Table{Relay, LVRB} {
		prev := 0
		for d := time.Duration(0); d <= 3000*time.Second; d += 500 * time.Millisecond {
			step := table.StepFor(d)
			if step < prev {
				t.Fatalf("%s.StepFor(%v) = %d, below previous %d", table, d, step, prev)
			}
			prev = step
		}
	}
}

func TestTableSizes(t *testing.T) {
	if got := Relay.Steps(); got != 32 {
		t.Errorf("Relay.Steps() = %d, want 32", got)
	}
	if got := LVRB.Steps(); got != 32 {
		t.Errorf("LVRB.Steps() = %d, want 32", got)
	}
	if got := Fan.Steps(); got != 1 {
		t.Errorf("Fan.Steps() = %d, want 1", got)
	}
}

func TestForLoadClasses(t *testing.T) {
	tests := []struct {
		local int
		want  string
	}{
		{1, "RELAY"},
		{24, "RELAY"},
		{25, "FAN"},
		{28, "FAN"},
		{29, "LVRB"},
		{40, "LVRB"},
		{0, "FAN"},
		{41, "FAN"},
	}

	for _, tt := range tests {
		if got := ForLoad(tt.local).String(); got != tt.want {
			t.Errorf("ForLoad(%d) = %s, want %s", tt.local, got, tt.want)
		}
	}
}
