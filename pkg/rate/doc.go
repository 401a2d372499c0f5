// Package rate maps human time durations onto MCP dim-rate steps.
//
// The SetLoadLevel command takes a rate as an index into a firmware table
// of transition times. The table differs by load hardware class:
//
//   - Relay-dimmed loads (1..24 per board): 32 steps, 0s to 800s
//   - Fan relays (25..28 per board): a single instant step
//   - Low-voltage relay boost (29..40 per board): 32 steps, 0s to 45m
//
// StepFor picks the first step at least as long as the requested duration
// and saturates at the table's slowest step, so any out-of-range request
// still produces a valid rate rather than an error.
package rate
