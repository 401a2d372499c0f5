package session

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/litejet-protocol/litejet-go/pkg/rate"
	"github.com/litejet-protocol/litejet-go/pkg/wire"
)

// Digit bounds of the bulk status replies, per DecodeBits. Each board
// reports 48 load bits (6 byte pairs) and 160 switch bits (20 byte
// pairs); the bits past the per-board item count are padding and are
// dropped during the merge.
const (
	loadStatusLast   = 11
	switchStatusLast = 39
)

// split validates a global item number against the detected addressable
// range and maps it onto its board and board-local number.
func (s *Session) split(index, bound int) (board, local int, err error) {
	if index < 1 || index > bound*s.boards {
		return 0, 0, fmt.Errorf("%w: %d not in 1..%d", ErrInvalidIndex, index, bound*s.boards)
	}
	board, local = wire.SplitIndex(index, bound)
	return board, local, nil
}

// sendIndexed fires one indexed command with no reply.
func (s *Session) sendIndexed(ctx context.Context, build func(int) wire.Command, index, bound int) error {
	if err := s.opened(); err != nil {
		return err
	}
	board, local, err := s.split(index, bound)
	if err != nil {
		return err
	}
	cmd := build(local).ForBoard(board)
	return s.fire(ctx, cmd.Encode(s.Marker()))
}

// requestIndexed sends one indexed query and returns its reply line.
func (s *Session) requestIndexed(ctx context.Context, build func(int) wire.Command, index, bound int) (string, error) {
	if err := s.opened(); err != nil {
		return "", err
	}
	board, local, err := s.split(index, bound)
	if err != nil {
		return "", err
	}
	cmd := build(local).ForBoard(board)
	return s.request(ctx, cmd.Encode(s.Marker()), s.config.Timeout)
}

// ActivateLoad turns a load fully on.
func (s *Session) ActivateLoad(ctx context.Context, index int) error {
	return s.sendIndexed(ctx, wire.ActivateLoad, index, wire.LastLoad)
}

// DeactivateLoad turns a load off.
func (s *Session) DeactivateLoad(ctx context.Context, index int) error {
	return s.sendIndexed(ctx, wire.DeactivateLoad, index, wire.LastLoad)
}

// ActivateLoadAt ramps a load to level (0..99) over the given duration.
// The duration is quantized to the rate table of the load's hardware
// class, rounding up to the first step at least as long; fan loads only
// switch instantly, whatever duration is asked for.
func (s *Session) ActivateLoadAt(ctx context.Context, index, level int, over time.Duration) error {
	if err := s.opened(); err != nil {
		return err
	}
	if level < 0 || level > 99 {
		return fmt.Errorf("%w: %d not in 0..99", ErrInvalidLevel, level)
	}
	board, local, err := s.split(index, wire.LastLoad)
	if err != nil {
		return err
	}
	step := rate.ForLoad(local).StepFor(over)
	cmd := wire.SetLoadLevel(local, level, step).ForBoard(board)
	return s.fire(ctx, cmd.Encode(s.Marker()))
}

// GetLoadLevel queries a load's current level (0..99).
func (s *Session) GetLoadLevel(ctx context.Context, index int) (int, error) {
	reply, err := s.requestIndexed(ctx, wire.GetLoadLevel, index, wire.LastLoad)
	if err != nil {
		return 0, err
	}
	level, err := strconv.Atoi(reply)
	if err != nil {
		return 0, &wire.ProtocolError{Line: reply, Msg: "load level reply is not a number"}
	}
	return level, nil
}

// GetAllLoadStates queries the instantaneous on/off state of every load,
// one bulk query per board, merged into one map keyed by global load
// number.
func (s *Session) GetAllLoadStates(ctx context.Context) (map[int]bool, error) {
	return s.bulkStates(ctx, wire.GetAllLoadStates, loadStatusLast, wire.LastLoad)
}

// GetAllSwitchStates queries the instantaneous state of every switch, one
// bulk query per board, merged into one map keyed by global switch
// number.
func (s *Session) GetAllSwitchStates(ctx context.Context) (map[int]bool, error) {
	return s.bulkStates(ctx, wire.GetAllSwitchStates, switchStatusLast, wire.LastSwitch)
}

func (s *Session) bulkStates(ctx context.Context, build func() wire.Command, last, bound int) (map[int]bool, error) {
	if err := s.opened(); err != nil {
		return nil, err
	}

	states := make(map[int]bool, bound*s.boards)
	for board := 1; board <= s.boards; board++ {
		cmd := build().ForBoard(board)
		reply, err := s.request(ctx, cmd.Encode(s.Marker()), s.config.Timeout)
		if err != nil {
			return nil, err
		}
		bits, err := wire.DecodeBits(reply, 0, last, 1)
		if err != nil {
			return nil, err
		}
		base := (board - 1) * bound
		for n := 1; n <= bound; n++ {
			states[base+n] = bits[n]
		}
	}
	return states, nil
}

// PressSwitch simulates pressing a switch.
func (s *Session) PressSwitch(ctx context.Context, index int) error {
	return s.sendIndexed(ctx, wire.PressSwitch, index, wire.LastSwitch)
}

// ReleaseSwitch simulates releasing a switch.
func (s *Session) ReleaseSwitch(ctx context.Context, index int) error {
	return s.sendIndexed(ctx, wire.ReleaseSwitch, index, wire.LastSwitch)
}

// GetLoadName queries a load's stored name, trimmed of the firmware's
// field padding.
func (s *Session) GetLoadName(ctx context.Context, index int) (string, error) {
	return s.requestIndexed(ctx, wire.GetLoadName, index, wire.LastLoad)
}

// GetSwitchName queries a switch's stored name.
func (s *Session) GetSwitchName(ctx context.Context, index int) (string, error) {
	return s.requestIndexed(ctx, wire.GetSwitchName, index, wire.LastSwitch)
}

// GetSceneName queries a scene's stored name.
func (s *Session) GetSceneName(ctx context.Context, index int) (string, error) {
	return s.requestIndexed(ctx, wire.GetSceneName, index, wire.LastScene)
}

// ActivateScene always fails with ErrScenesNotSupported: MCP firmware
// does not accept the scene verbs over the serial interface, so nothing
// is sent.
func (s *Session) ActivateScene(ctx context.Context, index int) error {
	return ErrScenesNotSupported
}

// DeactivateScene always fails with ErrScenesNotSupported, like
// ActivateScene.
func (s *Session) DeactivateScene(ctx context.Context, index int) error {
	return ErrScenesNotSupported
}

// Loads returns the global numbers of every load the detected system
// addresses, in ascending order. Valid after a successful Open.
func (s *Session) Loads() []int {
	return s.numbers(wire.LastLoad, wire.LastLoad)
}

// Scenes returns the global numbers of every scene.
func (s *Session) Scenes() []int {
	return s.numbers(wire.LastScene, wire.LastScene)
}

// AllSwitches returns the global numbers of every switch, internal ones
// included.
func (s *Session) AllSwitches() []int {
	return s.numbers(wire.LastSwitch, wire.LastSwitch)
}

// ButtonSwitches returns the global numbers of the physical button
// switches only, skipping each board's internal timer and logic
// switches.
func (s *Session) ButtonSwitches() []int {
	return s.numbers(wire.LastSwitch, wire.LastButtonSwitch)
}

// numbers lists 1..upTo on every board, offset by the category bound per
// board.
func (s *Session) numbers(bound, upTo int) []int {
	out := make([]int, 0, s.boards*upTo)
	for board := 0; board < s.boards; board++ {
		base := board * bound
		for n := 1; n <= upTo; n++ {
			out = append(out, base+n)
		}
	}
	return out
}
