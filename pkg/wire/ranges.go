package wire

// Item number ranges for a single board. A dual-board system doubles each
// category's addressable range; numbers past the per-board bound belong to
// the second board.
const (
	// FirstLoad and LastLoad bound the load numbers on one board.
	FirstLoad = 1
	LastLoad  = 40

	// Relay-dimmed loads.
	FirstRelayLoad = 1
	LastRelayLoad  = 24

	// Fan relay loads (no dimming).
	FirstFanLoad = 25
	LastFanLoad  = 28

	// Low-voltage relay boost loads.
	FirstLVRBLoad = 29
	LastLVRBLoad  = 40

	// Scene numbers on one board.
	FirstScene = 1
	LastScene  = 41

	// Switch numbers on one board. Numbers past LastButtonSwitch are
	// internal (timers, logic) rather than physical buttons.
	FirstSwitch      = 1
	LastButtonSwitch = 96
	LastSwitch       = 138
)

// SplitIndex maps a global 1-based item number onto its board and
// board-local number, given the category's per-board bound (LastLoad,
// LastSwitch or LastScene). Numbers within the bound live on board 1;
// numbers past it live on board 2 at number-bound.
func SplitIndex(index, bound int) (board, local int) {
	if index > bound {
		return 2, index - bound
	}
	return 1, index
}
